package dto

// ── 学生视图 DTO ──

// AttendanceDay 学生某天的出勤代码（H / N / L / —）
type AttendanceDay struct {
	Date    string   `json:"date"`
	Weekday string   `json:"weekday"`
	Lessons []string `json:"lessons"`
}

// AttendanceWeek 学生某周出勤
type AttendanceWeek struct {
	WeekNumber int             `json:"week_number"`
	WeekStart  string          `json:"week_start"`
	WeekEnd    string          `json:"week_end"`
	Days       []AttendanceDay `json:"days"`
}

// AttendanceStats 出勤统计
type AttendanceStats struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Rate    int `json:"rate"`
}

// AttendanceSummaryResponse 学生出勤汇总
type AttendanceSummaryResponse struct {
	StudentID string           `json:"student_id"`
	FullName  string           `json:"full_name"`
	GroupName string           `json:"group_name"`
	Semester  SemesterBrief    `json:"semester"`
	Weeks     []AttendanceWeek `json:"weeks"`
	Stats     AttendanceStats  `json:"stats"`
}

// GradeLesson 单元格中的课程与分数
type GradeLesson struct {
	Subject string `json:"subject"`
	Grade   string `json:"grade"`
}

// GradeDay 学生某天的分数
type GradeDay struct {
	Date    string        `json:"date"`
	Weekday string        `json:"weekday"`
	Lessons []GradeLesson `json:"lessons"`
}

// GradeWeek 学生某周分数
type GradeWeek struct {
	WeekNumber int        `json:"week_number"`
	WeekStart  string     `json:"week_start"`
	WeekEnd    string     `json:"week_end"`
	Days       []GradeDay `json:"days"`
}

// GradeStats 分数统计
type GradeStats struct {
	Total    int     `json:"total"`
	Average  float64 `json:"average"`
	MaxGrade int     `json:"max_grade"`
	MinGrade int     `json:"min_grade"`
}

// GradeSummaryResponse 学生分数汇总
type GradeSummaryResponse struct {
	StudentID string        `json:"student_id"`
	FullName  string        `json:"full_name"`
	GroupName string        `json:"group_name"`
	Semester  SemesterBrief `json:"semester"`
	Weeks     []GradeWeek   `json:"weeks"`
	Stats     GradeStats    `json:"stats"`
}

// SubjectAverageResponse 单门课程平均分
type SubjectAverageResponse struct {
	SubjectID string  `json:"subject_id"`
	Subject   string  `json:"subject"`
	Lessons   int     `json:"lessons"`
	Average   float64 `json:"average"`
}

// GradesOverviewResponse 各课程平均分
type GradesOverviewResponse struct {
	Semester SemesterBrief            `json:"semester"`
	Grades   []SubjectAverageResponse `json:"grades"`
}

// TodayClassResponse 学生当天的课
type TodayClassResponse struct {
	LessonNumber int    `json:"lesson_number"`
	Time         string `json:"time"`
	Subject      string `json:"subject"`
	Teacher      string `json:"teacher"`
	Classroom    string `json:"classroom"`
	LessonKind   string `json:"lesson_kind"`
	IsCurrent    bool   `json:"is_current"`
}

// TodayClassesResponse 学生当天课表
type TodayClassesResponse struct {
	Date    string               `json:"date"`
	Weekday string               `json:"weekday"`
	Classes []TodayClassResponse `json:"classes"`
}
