package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"academic-journal/backend/internal/dto"
	"academic-journal/backend/internal/model"
	"academic-journal/backend/pkg/calendar"
	pkgerrors "academic-journal/backend/pkg/errors"
)

// dashboardTopGroups 仪表盘展示的活跃小组数
const dashboardTopGroups = 5

// ReportService 统计报表业务接口
type ReportService interface {
	// HighAbsenceReport threshold 为 nil 时使用配置的默认阈值
	HighAbsenceReport(ctx context.Context, threshold *int, semester int) (*dto.HighAbsenceResponse, error)
	Dashboard(ctx context.Context, semester int) (*dto.DashboardResponse, error)
	TeachingSummary(ctx context.Context, teacherID string, semester int) (*dto.TeachingSummaryResponse, error)
}

type reportService struct {
	Deps
}

// NewReportService 创建 ReportService 实例
func NewReportService(d Deps) ReportService {
	d.withDefaults()
	if d.HighAbsenceThreshold <= 0 {
		d.HighAbsenceThreshold = DefaultHighAbsenceThreshold
	}
	return &reportService{Deps: d}
}

// ────────────────────── HighAbsenceReport ──────────────────────

func (s *reportService) HighAbsenceReport(ctx context.Context, threshold *int, semester int) (*dto.HighAbsenceResponse, error) {
	limit := s.HighAbsenceThreshold
	if threshold != nil {
		if *threshold < 0 {
			return nil, ErrInvalidThreshold
		}
		limit = *threshold
	}

	sem, err := s.resolveSemester(s.today(), semester)
	if err != nil {
		return nil, err
	}

	flagged, err := s.highAbsence(ctx, sem, limit)
	if err != nil {
		return nil, err
	}
	return &dto.HighAbsenceResponse{
		Semester:  semesterBrief(sem),
		Threshold: limit,
		Students:  flagged,
	}, nil
}

func (s *reportService) highAbsence(ctx context.Context, sem calendar.Semester, threshold int) ([]dto.AbsenceResponse, error) {
	rows, err := s.Repo.Journal.CountAbsences(ctx, sem.Start, sem.End())
	if err != nil {
		s.Logger.Error("统计缺勤失败", zap.Int("semester", sem.Index), zap.Error(err))
		return nil, pkgerrors.Storage("journal.absences", err)
	}

	flagged := AboveThreshold(rows, threshold)
	result := make([]dto.AbsenceResponse, 0, len(flagged))
	for _, r := range flagged {
		result = append(result, dto.AbsenceResponse{
			StudentID:   r.StudentID,
			StudentName: r.FullName,
			GroupID:     r.GroupID,
			GroupName:   r.GroupName,
			AbsentCount: r.Count,
		})
	}
	return result, nil
}

// ────────────────────── Dashboard ──────────────────────

func (s *reportService) Dashboard(ctx context.Context, semester int) (*dto.DashboardResponse, error) {
	sem, err := s.resolveSemester(s.today(), semester)
	if err != nil {
		return nil, err
	}
	from, to := sem.Start, sem.End()

	groups, students, err := s.Repo.Group.Counts(ctx)
	if err != nil {
		s.Logger.Error("统计小组与学生数失败", zap.Error(err))
		return nil, pkgerrors.Storage("group.counts", err)
	}

	totals, err := s.Repo.Journal.Totals(ctx, from, to)
	if err != nil {
		s.Logger.Error("统计出勤与分数失败", zap.Error(err))
		return nil, pkgerrors.Storage("journal.totals", err)
	}

	top, err := s.Repo.Journal.TopGroups(ctx, from, to, dashboardTopGroups)
	if err != nil {
		s.Logger.Error("统计活跃小组失败", zap.Error(err))
		return nil, pkgerrors.Storage("journal.top_groups", err)
	}

	flagged, err := s.highAbsence(ctx, sem, s.HighAbsenceThreshold)
	if err != nil {
		return nil, err
	}

	resp := &dto.DashboardResponse{
		Semester:            semesterBrief(sem),
		TotalStudents:       students,
		TotalGroups:         groups,
		AttendanceRate:      percent(int(totals.Present), int(totals.Marks)),
		TopGroups:           make([]dto.GroupActivityResponse, 0, len(top)),
		HighAbsenceStudents: flagged,
	}
	if totals.TaskGraded > 0 {
		resp.AvgGrade = round1(float64(totals.TaskGradeSum) / float64(totals.TaskGraded))
	}
	for _, g := range top {
		resp.TopGroups = append(resp.TopGroups, dto.GroupActivityResponse{
			GroupID:    g.GroupID,
			Name:       g.GroupName,
			EntryCount: g.Entries,
		})
	}
	return resp, nil
}

// ────────────────────── TeachingSummary ──────────────────────

func (s *reportService) TeachingSummary(ctx context.Context, teacherID string, semester int) (*dto.TeachingSummaryResponse, error) {
	teacher, err := s.Repo.Teacher.GetByID(ctx, teacherID)
	if err != nil {
		return nil, s.lookupErr(err, ErrTeacherNotFound, "teacher.get", zap.String("teacher_id", teacherID))
	}
	sem, err := s.resolveSemester(s.today(), semester)
	if err != nil {
		return nil, err
	}

	lessons, err := s.Repo.Schedule.ListLessonsByTeacher(ctx, teacherID, sem.Index)
	if err != nil {
		s.Logger.Error("查询教师课表失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, pkgerrors.Storage("schedule.by_teacher", err)
	}

	resp := &dto.TeachingSummaryResponse{
		TeacherID:   teacher.TeacherID,
		TeacherName: teacher.Name,
		Semester:    semesterBrief(sem),
		Loads:       []dto.TeachingLoadResponse{},
	}

	type loadKey struct{ group, subject string }
	loads := make(map[loadKey]*dto.TeachingLoadResponse)
	groups := make(map[string]bool)
	subjects := make(map[string]bool)
	for i := range lessons {
		l := &lessons[i]
		if l.SubjectID == nil || l.Schedule == nil {
			continue
		}
		groupID := l.Schedule.GroupID
		key := loadKey{group: groupID, subject: *l.SubjectID}
		load := loads[key]
		if load == nil {
			load = &dto.TeachingLoadResponse{
				GroupID:     groupID,
				GroupName:   groupName(l.Schedule.Group),
				SubjectID:   *l.SubjectID,
				SubjectName: l.SubjectName(),
			}
			loads[key] = load
		}
		load.LessonsPerWeek++
		groups[groupID] = true
		subjects[*l.SubjectID] = true

		resp.LessonsPerWeek++
		resp.MinutesPerWeek += duration(l)
	}

	for _, load := range loads {
		resp.Loads = append(resp.Loads, *load)
	}
	sort.Slice(resp.Loads, func(i, j int) bool {
		a, b := resp.Loads[i], resp.Loads[j]
		if a.GroupName != b.GroupName {
			return a.GroupName < b.GroupName
		}
		return a.SubjectName < b.SubjectName
	})
	resp.Groups = len(groups)
	resp.Subjects = len(subjects)
	return resp, nil
}

func groupName(g *model.Group) string {
	if g == nil {
		return ""
	}
	return g.Name
}

// duration 课时长度（分钟），时间无效时为 0
func duration(l *model.ScheduleLesson) int {
	start, err := calendar.ParseClock(l.StartTime)
	if err != nil {
		return 0
	}
	end, err := calendar.ParseClock(l.EndTime)
	if err != nil || end <= start {
		return 0
	}
	return end - start
}
