package model

// WeeklySchedule 周课表，对应 weekly_schedules
// 每个小组每学期一张，由课表管理模块维护，本服务只读
type WeeklySchedule struct {
	ScheduleID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"schedule_id"`
	GroupID    string `gorm:"type:uuid;not null"                             json:"group_id"`
	Semester   int    `gorm:"type:smallint;not null"                         json:"semester"` // 1 | 2
	BaseModel

	// 关联
	Group   *Group           `gorm:"foreignKey:GroupID;references:GroupID" json:"group,omitempty"`
	Lessons []ScheduleLesson `gorm:"foreignKey:ScheduleID"                 json:"lessons,omitempty"`
}

// TableName 指定表名
func (WeeklySchedule) TableName() string { return "weekly_schedules" }

// Lesson 返回 day（1-6）第 slot（1-6）节课，不存在或未排课程时返回 nil
func (w *WeeklySchedule) Lesson(day, slot int) *ScheduleLesson {
	if w == nil {
		return nil
	}
	for i := range w.Lessons {
		l := &w.Lessons[i]
		if l.DayOfWeek == day && l.SlotNumber == slot && l.SubjectID != nil {
			return l
		}
	}
	return nil
}

// ScheduleLesson 课表课节，对应 schedule_lessons
type ScheduleLesson struct {
	LessonID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"        json:"lesson_id"`
	ScheduleID string     `gorm:"type:uuid;not null"                                    json:"schedule_id"`
	DayOfWeek  int        `gorm:"type:smallint;not null"                                json:"day_of_week"` // 1=周一 … 6=周六
	SlotNumber int        `gorm:"type:smallint;not null"                                json:"slot_number"` // 1-6
	SubjectID  *string    `gorm:"type:uuid"                                             json:"subject_id,omitempty"`
	TeacherID  *string    `gorm:"type:uuid"                                             json:"teacher_id,omitempty"`
	StartTime  string     `gorm:"type:varchar(5);not null"                              json:"start_time"` // HH:MM
	EndTime    string     `gorm:"type:varchar(5);not null"                              json:"end_time"`
	LessonKind LessonKind `gorm:"type:varchar(20);not null;default:'practice'"          json:"lesson_kind"`
	Classroom  string     `gorm:"type:varchar(50);not null;default:''"                  json:"classroom"`

	// 关联
	Schedule *WeeklySchedule `gorm:"foreignKey:ScheduleID;references:ScheduleID" json:"schedule,omitempty"`
	Subject  *Subject        `gorm:"foreignKey:SubjectID;references:SubjectID"   json:"subject,omitempty"`
	Teacher  *Teacher        `gorm:"foreignKey:TeacherID;references:TeacherID"   json:"teacher,omitempty"`
}

// TableName 指定表名
func (ScheduleLesson) TableName() string { return "schedule_lessons" }

// SubjectName 课程名，未加载关联时返回空串
func (l *ScheduleLesson) SubjectName() string {
	if l.Subject == nil {
		return ""
	}
	return l.Subject.Name
}

// Time 形如 "08:00 - 09:20"
func (l *ScheduleLesson) Time() string {
	return l.StartTime + " - " + l.EndTime
}
