package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"academic-journal/backend/config"
	"academic-journal/backend/internal/repository"
	"academic-journal/backend/pkg/calendar"
	"academic-journal/backend/pkg/events"
	"academic-journal/backend/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Journal JournalService
	Grid    GridService
	Student StudentService
	Report  ReportService
	Export  ExportService
}

// Deps Service 的共享依赖
// Now 为时钟，所有"今天"都经 Normalizer 归一为固定时区的民用日期
type Deps struct {
	Repo                 *repository.Repository
	Policy               calendar.Policy
	Normalizer           calendar.Normalizer
	HighAbsenceThreshold int
	Now                  func() time.Time
	Events               events.Publisher
	Metrics              *metrics.Metrics
	Logger               *zap.Logger
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *zap.Logger,
) (*Service, error) {
	norm, err := calendar.LoadNormalizer(cfg.Calendar.Timezone)
	if err != nil {
		return nil, fmt.Errorf("初始化校历失败: %w", err)
	}

	d := Deps{
		Repo:                 repo,
		Policy:               calendar.NewPolicy(cfg.Calendar.SpringStartDay, cfg.Calendar.MaxWeeks),
		Normalizer:           norm,
		HighAbsenceThreshold: cfg.Report.HighAbsenceThreshold,
		Now:                  time.Now,
		Events:               publisher,
		Metrics:              m,
		Logger:               logger,
	}

	grid := NewGridService(d)
	return &Service{
		Journal: NewJournalService(d),
		Grid:    grid,
		Student: NewStudentService(d),
		Report:  NewReportService(d),
		Export:  NewExportService(d, grid),
	}, nil
}

func (d *Deps) withDefaults() {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Events == nil {
		d.Events = events.NopPublisher{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Policy.MaxWeeks == 0 {
		d.Policy = calendar.DefaultPolicy()
	}
}

// today 当前民用日期
func (d *Deps) today() calendar.CivilDate {
	return d.Normalizer.ToCivilDay(d.Now())
}

// resolveSemester 以 ref 为参考日期确定学期
func (d *Deps) resolveSemester(ref calendar.CivilDate, explicit int) (calendar.Semester, error) {
	return d.Policy.ResolveSemester(ref, explicit)
}
