package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"academic-journal/backend/internal/dto"
	"academic-journal/backend/internal/model"
	"academic-journal/backend/internal/repository"
	"academic-journal/backend/pkg/calendar"
	pkgerrors "academic-journal/backend/pkg/errors"
)

// GridService 小组网格业务接口
type GridService interface {
	WeeklyGrid(ctx context.Context, groupID string, semester, week int) (*dto.WeeklyGridResponse, error)
	SemesterGrid(ctx context.Context, groupID string, semester int, subjectID string) (*dto.SemesterGridResponse, error)
	// GroupGrid 截至今天的学期网格，供导出使用
	GroupGrid(ctx context.Context, groupID string, semester int, subjectID string) (*GroupGrid, error)
}

// GroupGrid 小组、花名册与已构建的网格
type GroupGrid struct {
	Group    *model.Group
	Roster   []model.Student
	Template *model.WeeklySchedule
	Grid     *Grid
}

type gridService struct {
	Deps
}

// NewGridService 创建 GridService 实例
func NewGridService(d Deps) GridService {
	d.withDefaults()
	return &gridService{Deps: d}
}

// ────────────────────── WeeklyGrid ──────────────────────

func (s *gridService) WeeklyGrid(ctx context.Context, groupID string, semester, week int) (*dto.WeeklyGridResponse, error) {
	started := time.Now()
	today := s.today()

	sem, err := s.resolveSemester(today, semester)
	if err != nil {
		return nil, err
	}
	if week == 0 {
		week = sem.WeekNumberAt(today)
	}
	if !sem.ValidWeek(week) {
		return nil, calendar.ErrInvalidWeek
	}

	from := sem.WeekStart(week)
	gg, err := s.load(ctx, gridRequest{
		groupID: groupID,
		sem:     sem,
		asOf:    today,
		weeks:   []int{week},
		from:    from,
		to:      from.AddDays(calendar.TeachingDaysPerWeek - 1),
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.WeeklyGridResponse{
		GroupID:    gg.Group.GroupID,
		GroupName:  gg.Group.Name,
		Semester:   semesterBrief(sem),
		WeekNumber: week,
		WeekStart:  longDate(from),
		WeekEnd:    longDate(from.AddDays(calendar.TeachingDaysPerWeek - 1)),
		Days:       make([]dto.DayHeader, 0, calendar.TeachingDaysPerWeek),
		Students:   studentRows(gg),
	}
	for _, d := range sem.WeekDays(week) {
		resp.Days = append(resp.Days, dayHeader(d))
	}

	s.Metrics.ObserveGridBuild("weekly", time.Since(started))
	return resp, nil
}

// ────────────────────── SemesterGrid ──────────────────────

func (s *gridService) SemesterGrid(ctx context.Context, groupID string, semester int, subjectID string) (*dto.SemesterGridResponse, error) {
	started := time.Now()

	gg, err := s.GroupGrid(ctx, groupID, semester, subjectID)
	if err != nil {
		return nil, err
	}

	resp := &dto.SemesterGridResponse{
		GroupID:            gg.Group.GroupID,
		GroupName:          gg.Group.Name,
		Semester:           semesterBrief(gg.Grid.Semester),
		Subjects:           []dto.SubjectResponse{},
		WeeklyLessonCounts: gg.Grid.LessonCounts(),
		Students:           studentRows(gg),
	}
	for _, ref := range gg.Grid.Subjects() {
		resp.Subjects = append(resp.Subjects, dto.SubjectResponse{ID: ref.ID, Name: ref.Name})
	}

	s.Metrics.ObserveGridBuild("semester", time.Since(started))
	return resp, nil
}

func (s *gridService) GroupGrid(ctx context.Context, groupID string, semester int, subjectID string) (*GroupGrid, error) {
	today := s.today()
	sem, err := s.resolveSemester(today, semester)
	if err != nil {
		return nil, err
	}

	if subjectID != "" {
		if _, err := s.Repo.Subject.GetByID(ctx, subjectID); err != nil {
			return nil, s.lookupErr(err, ErrSubjectNotFound, "subject.get", zap.String("subject_id", subjectID))
		}
	}

	n := sem.WeekCount(today)
	weeks := make([]int, n)
	for i := range weeks {
		weeks[i] = i + 1
	}
	req := gridRequest{
		groupID:   groupID,
		sem:       sem,
		asOf:      today,
		weeks:     weeks,
		subjectID: subjectID,
	}
	if n > 0 {
		req.from = sem.Start
		req.to = sem.WeekStart(n).AddDays(calendar.TeachingDaysPerWeek - 1)
	}
	return s.load(ctx, req)
}

// ────────────────────── 内部方法 ──────────────────────

type gridRequest struct {
	groupID   string
	sem       calendar.Semester
	asOf      calendar.CivilDate
	weeks     []int
	from, to  calendar.CivilDate // 为零值时不查询记录
	subjectID string
}

func (s *gridService) load(ctx context.Context, req gridRequest) (*GroupGrid, error) {
	group, err := s.Repo.Group.GetByID(ctx, req.groupID)
	if err != nil {
		return nil, s.lookupErr(err, ErrGroupNotFound, "group.get", zap.String("group_id", req.groupID))
	}

	roster, err := s.Repo.Group.ListStudents(ctx, req.groupID)
	if err != nil {
		s.Logger.Error("查询小组名单失败", zap.String("group_id", req.groupID), zap.Error(err))
		return nil, pkgerrors.Storage("group.students", err)
	}

	tpl, err := s.template(ctx, req.groupID, req.sem.Index)
	if err != nil {
		return nil, err
	}

	var entries []model.JournalEntry
	if len(req.weeks) > 0 && !req.from.IsZero() {
		entries, err = s.Repo.Journal.FindRange(ctx, repository.RangeQuery{
			GroupID:   req.groupID,
			From:      req.from,
			To:        req.to,
			SubjectID: req.subjectID,
		})
		if err != nil {
			s.Logger.Error("查询课节记录失败", zap.String("group_id", req.groupID), zap.Error(err))
			return nil, pkgerrors.Storage("journal.range", err)
		}
	}

	// 周列表为空时 BuildGrid 回退到 WeekCount(asOf)，二者一致
	grid := BuildGrid(GridInput{
		Semester:  req.sem,
		AsOf:      req.asOf,
		Template:  tpl,
		Entries:   entries,
		Weeks:     req.weeks,
		SubjectID: req.subjectID,
	})
	return &GroupGrid{Group: group, Roster: roster, Template: tpl, Grid: grid}, nil
}

// template 小组学期周课表，不存在时返回 nil
func (d *Deps) template(ctx context.Context, groupID string, semester int) (*model.WeeklySchedule, error) {
	tpl, err := d.Repo.Schedule.FindByGroupAndSemester(ctx, groupID, semester)
	if err == nil {
		return tpl, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	d.Logger.Error("查询周课表失败", zap.String("group_id", groupID), zap.Int("semester", semester), zap.Error(err))
	return nil, pkgerrors.Storage("schedule.find", err)
}

func studentRows(gg *GroupGrid) []dto.StudentGridRow {
	rows := make([]dto.StudentGridRow, 0, len(gg.Roster))
	for i := range gg.Roster {
		st := &gg.Roster[i]
		sg := gg.Grid.ForStudent(st.StudentID)
		row := dto.StudentGridRow{StudentID: st.StudentID, FullName: st.FullName, Days: []dto.StudentDayRow{}}
		for _, w := range sg.Weeks {
			for _, d := range w.Days {
				day := dto.StudentDayRow{
					Date:       shortDate(d.Date),
					Weekday:    weekdayName(d.Date),
					WeekNumber: w.Number,
					Lessons:    make([]dto.CellResponse, 0, len(d.Cells)),
				}
				for _, c := range d.Cells {
					day.Lessons = append(day.Lessons, cellResponse(c))
				}
				row.Days = append(row.Days, day)
			}
		}
		rows = append(rows, row)
	}
	return rows
}
