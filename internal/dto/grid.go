package dto

// ── 网格 DTO ──

// WeeklyGridQuery 周网格查询参数，week 为空时取当前周
type WeeklyGridQuery struct {
	Semester int `form:"semester" binding:"omitempty,oneof=1 2"`
	Week     int `form:"week"     binding:"omitempty,min=1"`
}

// SemesterGridQuery 学期网格查询参数
type SemesterGridQuery struct {
	Semester  int    `form:"semester"   binding:"omitempty,oneof=1 2"`
	SubjectID string `form:"subject_id" binding:"omitempty,uuid"`
}

// SemesterQuery 仅含学期的查询参数
type SemesterQuery struct {
	Semester int `form:"semester" binding:"omitempty,oneof=1 2"`
}

// SemesterBrief 已解析的学期
type SemesterBrief struct {
	Index        int    `json:"index"`
	AcademicYear int    `json:"academic_year"`
	StartDate    string `json:"start_date"`
	MaxWeeks     int    `json:"max_weeks"`
}

// DayHeader 网格中的一天
type DayHeader struct {
	Date     string `json:"date"`      // dd.MM
	FullDate string `json:"full_date"` // yyyy-MM-dd
	Weekday  string `json:"weekday"`
}

// CellResponse 单元格
type CellResponse struct {
	SubjectID        string  `json:"subject_id,omitempty"`
	SubjectName      string  `json:"subject_name"`
	LessonKind       *string `json:"lesson_kind"`
	Attendance       *string `json:"attendance"`
	PreparationGrade *int    `json:"preparation_grade"`
	TaskGrade        *int    `json:"task_grade"`
	Grade            string  `json:"grade"`
}

// StudentDayRow 学生某天的 6 个单元格
type StudentDayRow struct {
	Date       string         `json:"date"`
	Weekday    string         `json:"weekday"`
	WeekNumber int            `json:"week_number"`
	Lessons    []CellResponse `json:"lessons"`
}

// StudentGridRow 网格中的一名学生
type StudentGridRow struct {
	StudentID string          `json:"student_id"`
	FullName  string          `json:"full_name"`
	Days      []StudentDayRow `json:"days"`
}

// SubjectResponse 课程
type SubjectResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// WeeklyGridResponse 小组周网格
type WeeklyGridResponse struct {
	GroupID    string           `json:"group_id"`
	GroupName  string           `json:"group_name"`
	Semester   SemesterBrief    `json:"semester"`
	WeekNumber int              `json:"week_number"`
	WeekStart  string           `json:"week_start"` // dd.MM.yyyy
	WeekEnd    string           `json:"week_end"`
	Days       []DayHeader      `json:"days"`
	Students   []StudentGridRow `json:"students"`
}

// SemesterGridResponse 小组学期网格
// WeeklyLessonCounts: subjectID → 周次 → 课节数
type SemesterGridResponse struct {
	GroupID            string                 `json:"group_id"`
	GroupName          string                 `json:"group_name"`
	Semester           SemesterBrief          `json:"semester"`
	Subjects           []SubjectResponse      `json:"subjects"`
	WeeklyLessonCounts map[string]map[int]int `json:"weekly_lesson_counts"`
	Students           []StudentGridRow       `json:"students"`
}
