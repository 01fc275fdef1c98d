package dto

// ── 报表 DTO ──

// HighAbsenceQuery 高缺勤报表查询参数
type HighAbsenceQuery struct {
	Threshold *int `form:"threshold" binding:"omitempty,min=0"`
	Semester  int  `form:"semester"  binding:"omitempty,oneof=1 2"`
}

// AbsenceResponse 高缺勤学生
type AbsenceResponse struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	GroupID     string `json:"group_id"`
	GroupName   string `json:"group_name"`
	AbsentCount int    `json:"absent_count"`
}

// HighAbsenceResponse 高缺勤报表
type HighAbsenceResponse struct {
	Semester  SemesterBrief     `json:"semester"`
	Threshold int               `json:"threshold"`
	Students  []AbsenceResponse `json:"students"`
}

// GroupActivityResponse 小组记录数
type GroupActivityResponse struct {
	GroupID    string `json:"group_id"`
	Name       string `json:"name"`
	EntryCount int64  `json:"entry_count"`
}

// DashboardResponse 管理员仪表盘
type DashboardResponse struct {
	Semester            SemesterBrief           `json:"semester"`
	TotalStudents       int64                   `json:"total_students"`
	TotalGroups         int64                   `json:"total_groups"`
	AttendanceRate      int                     `json:"attendance_rate"`
	AvgGrade            float64                 `json:"avg_grade"`
	TopGroups           []GroupActivityResponse `json:"top_groups"`
	HighAbsenceStudents []AbsenceResponse       `json:"high_absence_students"`
}

// TeachingLoadResponse 教师在某小组某课程的周课时
type TeachingLoadResponse struct {
	GroupID        string `json:"group_id"`
	GroupName      string `json:"group_name"`
	SubjectID      string `json:"subject_id"`
	SubjectName    string `json:"subject_name"`
	LessonsPerWeek int    `json:"lessons_per_week"`
}

// TeachingSummaryResponse 教师授课概况
type TeachingSummaryResponse struct {
	TeacherID      string                 `json:"teacher_id"`
	TeacherName    string                 `json:"teacher_name"`
	Semester       SemesterBrief          `json:"semester"`
	Groups         int                    `json:"groups"`
	Subjects       int                    `json:"subjects"`
	LessonsPerWeek int                    `json:"lessons_per_week"`
	MinutesPerWeek int                    `json:"minutes_per_week"`
	Loads          []TeachingLoadResponse `json:"loads"`
}
