package model

import (
	"time"

	"academic-journal/backend/pkg/calendar"
)

// LessonKind 课型
type LessonKind string

const (
	LessonLecture  LessonKind = "lecture"
	LessonPractice LessonKind = "practice"
	LessonLab      LessonKind = "lab"
)

// Valid 是否为合法课型
func (k LessonKind) Valid() bool {
	switch k {
	case LessonLecture, LessonPractice, LessonLab:
		return true
	}
	return false
}

// Gradable 讲座课不计缺评零分
func (k LessonKind) Gradable() bool {
	return k == LessonPractice || k == LessonLab
}

// Attendance 出勤状态
type Attendance string

const (
	AttendancePresent Attendance = "present"
	AttendanceAbsent  Attendance = "absent"
	AttendanceLate    Attendance = "late"
)

// Valid 是否为合法出勤状态
func (a Attendance) Valid() bool {
	switch a {
	case AttendancePresent, AttendanceAbsent, AttendanceLate:
		return true
	}
	return false
}

// Letter 单字母代码：H 出勤、N 缺勤、L 迟到，其余为 "—"
func (a Attendance) Letter() string {
	switch a {
	case AttendancePresent:
		return "H"
	case AttendanceAbsent:
		return "N"
	case AttendanceLate:
		return "L"
	}
	return "—"
}

// MinGrade / MaxGrade 评分范围
const (
	MinGrade = 0
	MaxGrade = 5
)

// EntryKey 课节记录的自然键
type EntryKey struct {
	Date       calendar.CivilDate
	Shift      int
	LessonSlot int
	GroupID    string
	SubjectID  string
}

// JournalEntry 课节记录，对应 journal_entries
// 自然键 (date, shift, lesson_slot, group_id, subject_id) 上有唯一索引
type JournalEntry struct {
	EntryID     string             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	Date        calendar.CivilDate `gorm:"type:date;not null"                             json:"date"`
	Shift       int                `gorm:"type:smallint;not null"                         json:"shift"`
	LessonSlot  int                `gorm:"type:smallint;not null"                         json:"lesson_slot"`
	GroupID     string             `gorm:"type:uuid;not null"                             json:"group_id"`
	SubjectID   string             `gorm:"type:uuid;not null"                             json:"subject_id"`
	TeacherID   *string            `gorm:"type:uuid"                                      json:"teacher_id,omitempty"`
	LessonKind  LessonKind         `gorm:"type:varchar(20);not null;default:'practice'"   json:"lesson_kind"`
	Topic       string             `gorm:"type:varchar(500);not null;default:''"          json:"topic"`
	IsSubmitted bool               `gorm:"not null;default:false"                         json:"is_submitted"`
	VersionedModel

	// 关联
	Group   *Group        `gorm:"foreignKey:GroupID;references:GroupID"     json:"group,omitempty"`
	Subject *Subject      `gorm:"foreignKey:SubjectID;references:SubjectID" json:"subject,omitempty"`
	Marks   []JournalMark `gorm:"foreignKey:EntryID"                        json:"marks,omitempty"`
}

// TableName 指定表名
func (JournalEntry) TableName() string { return "journal_entries" }

// Key 自然键
func (e *JournalEntry) Key() EntryKey {
	return EntryKey{
		Date:       e.Date,
		Shift:      e.Shift,
		LessonSlot: e.LessonSlot,
		GroupID:    e.GroupID,
		SubjectID:  e.SubjectID,
	}
}

// SubjectName 课程名，未加载关联时返回空串
func (e *JournalEntry) SubjectName() string {
	if e.Subject == nil {
		return ""
	}
	return e.Subject.Name
}

// JournalMark 学生课节标记，对应 journal_marks
type JournalMark struct {
	MarkID           string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"mark_id"`
	EntryID          string     `gorm:"type:uuid;not null"                             json:"entry_id"`
	StudentID        string     `gorm:"type:uuid;not null"                             json:"student_id"`
	Attendance       Attendance `gorm:"type:varchar(10);not null;default:'absent'"     json:"attendance"`
	PreparationGrade *int       `gorm:"type:smallint"                                  json:"preparation_grade"`
	TaskGrade        *int       `gorm:"type:smallint"                                  json:"task_grade"`
	Notes            string     `gorm:"type:varchar(1000);not null;default:''"         json:"notes"`
	UpdatedAt        time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`

	// 关联
	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
}

// TableName 指定表名
func (JournalMark) TableName() string { return "journal_marks" }

// Grade 作业分优先，其次准备分
func (m *JournalMark) Grade() *int {
	if m.TaskGrade != nil {
		return m.TaskGrade
	}
	return m.PreparationGrade
}
