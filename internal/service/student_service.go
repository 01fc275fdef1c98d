package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"academic-journal/backend/internal/dto"
	"academic-journal/backend/internal/model"
	"academic-journal/backend/pkg/calendar"
	pkgerrors "academic-journal/backend/pkg/errors"
)

// StudentService 学生视图业务接口
type StudentService interface {
	AttendanceSummary(ctx context.Context, studentID string, semester int) (*dto.AttendanceSummaryResponse, error)
	GradeSummary(ctx context.Context, studentID string, semester int) (*dto.GradeSummaryResponse, error)
	GradesOverview(ctx context.Context, studentID string, semester int) (*dto.GradesOverviewResponse, error)
	// TodayClasses date 为零值时取今天
	TodayClasses(ctx context.Context, studentID string, date calendar.CivilDate) (*dto.TodayClassesResponse, error)
}

type studentService struct {
	Deps
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(d Deps) StudentService {
	d.withDefaults()
	return &studentService{Deps: d}
}

// studentView 学生及其学期网格投影
type studentView struct {
	student *model.Student
	sem     calendar.Semester
	grid    *StudentGrid
}

func (v *studentView) groupName() string {
	if v.student.Group == nil {
		return ""
	}
	return v.student.Group.Name
}

// ────────────────────── AttendanceSummary ──────────────────────

func (s *studentService) AttendanceSummary(ctx context.Context, studentID string, semester int) (*dto.AttendanceSummaryResponse, error) {
	v, err := s.load(ctx, studentID, semester)
	if err != nil {
		return nil, err
	}

	resp := &dto.AttendanceSummaryResponse{
		StudentID: v.student.StudentID,
		FullName:  v.student.FullName,
		GroupName: v.groupName(),
		Semester:  semesterBrief(v.sem),
		Weeks:     make([]dto.AttendanceWeek, 0, len(v.grid.Weeks)),
	}
	for _, w := range v.grid.Weeks {
		week := dto.AttendanceWeek{
			WeekNumber: w.Number,
			WeekStart:  longDate(v.sem.WeekStart(w.Number)),
			WeekEnd:    longDate(v.sem.WeekStart(w.Number).AddDays(calendar.TeachingDaysPerWeek - 1)),
			Days:       make([]dto.AttendanceDay, 0, len(w.Days)),
		}
		for _, d := range w.Days {
			day := dto.AttendanceDay{Date: shortDate(d.Date), Weekday: weekdayName(d.Date), Lessons: make([]string, 0, len(d.Cells))}
			for _, c := range d.Cells {
				day.Lessons = append(day.Lessons, c.Attendance.Letter())
			}
			week.Days = append(week.Days, day)
		}
		resp.Weeks = append(resp.Weeks, week)
	}

	st := SummarizeAttendance(v.grid.Cells())
	resp.Stats = dto.AttendanceStats{
		Total:   st.Total,
		Present: st.Present,
		Absent:  st.Absent,
		Late:    st.Late,
		Rate:    st.Rate,
	}
	return resp, nil
}

// ────────────────────── GradeSummary ──────────────────────

func (s *studentService) GradeSummary(ctx context.Context, studentID string, semester int) (*dto.GradeSummaryResponse, error) {
	v, err := s.load(ctx, studentID, semester)
	if err != nil {
		return nil, err
	}

	resp := &dto.GradeSummaryResponse{
		StudentID: v.student.StudentID,
		FullName:  v.student.FullName,
		GroupName: v.groupName(),
		Semester:  semesterBrief(v.sem),
		Weeks:     make([]dto.GradeWeek, 0, len(v.grid.Weeks)),
	}
	for _, w := range v.grid.Weeks {
		week := dto.GradeWeek{
			WeekNumber: w.Number,
			WeekStart:  longDate(v.sem.WeekStart(w.Number)),
			WeekEnd:    longDate(v.sem.WeekStart(w.Number).AddDays(calendar.TeachingDaysPerWeek - 1)),
			Days:       make([]dto.GradeDay, 0, len(w.Days)),
		}
		for _, d := range w.Days {
			day := dto.GradeDay{Date: shortDate(d.Date), Weekday: weekdayName(d.Date), Lessons: make([]dto.GradeLesson, 0, len(d.Cells))}
			for _, c := range d.Cells {
				day.Lessons = append(day.Lessons, dto.GradeLesson{Subject: c.SubjectName, Grade: c.GradeText()})
			}
			week.Days = append(week.Days, day)
		}
		resp.Weeks = append(resp.Weeks, week)
	}

	st := SummarizeGrades(v.grid.Cells())
	resp.Stats = dto.GradeStats{
		Total:    st.Total,
		Average:  st.Average,
		MaxGrade: st.Max,
		MinGrade: st.Min,
	}
	return resp, nil
}

// ────────────────────── GradesOverview ──────────────────────

func (s *studentService) GradesOverview(ctx context.Context, studentID string, semester int) (*dto.GradesOverviewResponse, error) {
	student, err := s.Repo.Student.GetByID(ctx, studentID)
	if err != nil {
		return nil, s.lookupErr(err, ErrStudentNotFound, "student.get", zap.String("student_id", studentID))
	}
	sem, err := s.resolveSemester(s.today(), semester)
	if err != nil {
		return nil, err
	}

	entries, err := s.Repo.Journal.ListByStudent(ctx, student.StudentID, sem.Start, sem.End())
	if err != nil {
		s.Logger.Error("查询学生课节记录失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, pkgerrors.Storage("journal.by_student", err)
	}

	resp := &dto.GradesOverviewResponse{Semester: semesterBrief(sem), Grades: []dto.SubjectAverageResponse{}}
	for _, a := range SubjectAverages(entries, student.StudentID) {
		resp.Grades = append(resp.Grades, dto.SubjectAverageResponse{
			SubjectID: a.SubjectID,
			Subject:   a.SubjectName,
			Lessons:   a.Lessons,
			Average:   a.Average,
		})
	}
	return resp, nil
}

// ────────────────────── TodayClasses ──────────────────────

func (s *studentService) TodayClasses(ctx context.Context, studentID string, date calendar.CivilDate) (*dto.TodayClassesResponse, error) {
	student, err := s.Repo.Student.GetByID(ctx, studentID)
	if err != nil {
		return nil, s.lookupErr(err, ErrStudentNotFound, "student.get", zap.String("student_id", studentID))
	}

	now := s.Now().In(s.Normalizer.Location())
	today := calendar.FromTime(now)
	if date.IsZero() {
		date = today
	}

	resp := &dto.TodayClassesResponse{
		Date:    longDate(date),
		Weekday: weekdayName(date),
		Classes: []dto.TodayClassResponse{},
	}

	day := calendar.TeachingDay(date)
	if student.GroupID == nil || day == 0 {
		return resp, nil
	}

	sem, err := s.resolveSemester(date, 0)
	if err != nil {
		return nil, err
	}
	tpl, err := s.template(ctx, *student.GroupID, sem.Index)
	if err != nil {
		return nil, err
	}

	minutes := now.Hour()*60 + now.Minute()
	for slot := 1; slot <= calendar.LessonsPerDay; slot++ {
		l := tpl.Lesson(day, slot)
		if l == nil {
			continue
		}
		class := dto.TodayClassResponse{
			LessonNumber: slot,
			Time:         l.Time(),
			Subject:      l.SubjectName(),
			Classroom:    l.Classroom,
			LessonKind:   string(kindOr(l.LessonKind)),
			IsCurrent:    date == today && inProgress(l, minutes),
		}
		if l.Teacher != nil {
			class.Teacher = l.Teacher.Name
		}
		resp.Classes = append(resp.Classes, class)
	}
	return resp, nil
}

// inProgress 当前时刻是否处于该课的上课时间内
func inProgress(l *model.ScheduleLesson, minutes int) bool {
	start, err := calendar.ParseClock(l.StartTime)
	if err != nil {
		return false
	}
	end, err := calendar.ParseClock(l.EndTime)
	if err != nil {
		return false
	}
	return minutes >= start && minutes < end
}

// ────────────────────── 内部方法 ──────────────────────

// load 构建学生截至今天的学期网格
// 学生不在任何小组时只叠加其已有记录
func (s *studentService) load(ctx context.Context, studentID string, semester int) (*studentView, error) {
	started := time.Now()

	student, err := s.Repo.Student.GetByID(ctx, studentID)
	if err != nil {
		return nil, s.lookupErr(err, ErrStudentNotFound, "student.get", zap.String("student_id", studentID))
	}

	today := s.today()
	sem, err := s.resolveSemester(today, semester)
	if err != nil {
		return nil, err
	}

	var tpl *model.WeeklySchedule
	if student.GroupID != nil {
		if tpl, err = s.template(ctx, *student.GroupID, sem.Index); err != nil {
			return nil, err
		}
	}

	var entries []model.JournalEntry
	if n := sem.WeekCount(today); n > 0 {
		to := sem.WeekStart(n).AddDays(calendar.TeachingDaysPerWeek - 1)
		entries, err = s.Repo.Journal.ListByStudent(ctx, studentID, sem.Start, to)
		if err != nil {
			s.Logger.Error("查询学生课节记录失败", zap.String("student_id", studentID), zap.Error(err))
			return nil, pkgerrors.Storage("journal.by_student", err)
		}
	}

	grid := BuildGrid(GridInput{
		Semester: sem,
		AsOf:     today,
		Template: tpl,
		Entries:  entries,
	})
	s.Metrics.ObserveGridBuild("student", time.Since(started))

	return &studentView{student: student, sem: sem, grid: grid.ForStudent(studentID)}, nil
}
