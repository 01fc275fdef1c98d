package dto

// ── 课节记录 DTO ──

// SlotRecordQuery 获取（必要时创建）课节记录的查询参数
type SlotRecordQuery struct {
	Date      string `form:"date"       binding:"required"`
	Shift     int    `form:"shift"      binding:"required,oneof=1 2"`
	Slot      int    `form:"slot"       binding:"required,min=1,max=6"`
	SubjectID string `form:"subject_id" binding:"required,uuid"`
	Semester  int    `form:"semester"   binding:"omitempty,oneof=1 2"`
}

// DateQuery 按日期查询
type DateQuery struct {
	Date     string `form:"date"     binding:"omitempty"`
	Semester int    `form:"semester" binding:"omitempty,oneof=1 2"`
}

// UpdateRecordRequest 更新课节记录
// Version 为 0 时以读取时的版本为准
type UpdateRecordRequest struct {
	Version     int          `json:"version"      binding:"omitempty,min=1"`
	Topic       *string      `json:"topic"        binding:"omitempty,max=500"`
	IsSubmitted *bool        `json:"is_submitted"`
	Students    []MarkUpdate `json:"students"     binding:"required,dive"`
}

// MarkUpdate 单个学生的标记
type MarkUpdate struct {
	StudentID        string `json:"student_id"        binding:"required,uuid"`
	Attendance       string `json:"attendance"        binding:"required,oneof=present absent late"`
	PreparationGrade *int   `json:"preparation_grade" binding:"omitempty,min=0,max=5"`
	TaskGrade        *int   `json:"task_grade"        binding:"omitempty,min=0,max=5"`
	Notes            string `json:"notes"             binding:"max=1000"`
}

// ── 响应 ──

// MarkResponse 学生标记
type MarkResponse struct {
	StudentID        string `json:"student_id"`
	FullName         string `json:"full_name"`
	Attendance       string `json:"attendance"`
	PreparationGrade *int   `json:"preparation_grade"`
	TaskGrade        *int   `json:"task_grade"`
	Notes            string `json:"notes"`
}

// JournalEntryResponse 课节记录
type JournalEntryResponse struct {
	ID          string         `json:"id"`
	Date        string         `json:"date"`
	Shift       int            `json:"shift"`
	LessonSlot  int            `json:"lesson_slot"`
	GroupID     string         `json:"group_id"`
	SubjectID   string         `json:"subject_id"`
	SubjectName string         `json:"subject_name"`
	TeacherID   *string        `json:"teacher_id,omitempty"`
	LessonKind  string         `json:"lesson_kind"`
	Topic       string         `json:"topic"`
	IsSubmitted bool           `json:"is_submitted"`
	Version     int            `json:"version"`
	Students    []MarkResponse `json:"students"`
}

// LessonResponse 课表中的一节课
type LessonResponse struct {
	Slot        int     `json:"slot"`
	Shift       int     `json:"shift"`
	Time        string  `json:"time"`
	SubjectID   string  `json:"subject_id"`
	SubjectName string  `json:"subject_name"`
	TeacherID   *string `json:"teacher_id,omitempty"`
	TeacherName string  `json:"teacher_name"`
	LessonKind  string  `json:"lesson_kind"`
	Classroom   string  `json:"classroom"`
}

// DayLessonsResponse 某小组某天的课节
type DayLessonsResponse struct {
	GroupID   string           `json:"group_id"`
	GroupName string           `json:"group_name"`
	Date      string           `json:"date"`
	Weekday   string           `json:"weekday"`
	Semester  int              `json:"semester"`
	Lessons   []LessonResponse `json:"lessons"`
}

// NoteResponse 单条备注
type NoteResponse struct {
	EntryID     string `json:"entry_id"`
	Date        string `json:"date"` // dd.MM.yyyy
	Subject     string `json:"subject"`
	Teacher     string `json:"teacher"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Notes       string `json:"notes"`
}

// NoteGroupResponse 按小组分组的备注，组内从新到旧
type NoteGroupResponse struct {
	GroupID   string         `json:"group_id"`
	GroupName string         `json:"group_name"`
	Notes     []NoteResponse `json:"notes"`
}
