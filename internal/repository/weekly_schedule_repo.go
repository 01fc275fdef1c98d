package repository

import (
	"context"

	"gorm.io/gorm"

	"academic-journal/backend/internal/model"
)

// WeeklyScheduleRepository 周课表数据访问接口（只读）
type WeeklyScheduleRepository interface {
	// FindByGroupAndSemester 返回小组某学期课表，课节已按星期、节次排序并加载课程与教师
	FindByGroupAndSemester(ctx context.Context, groupID string, semester int) (*model.WeeklySchedule, error)
	// ListLessonsByTeacher 教师在某学期所授的全部课节
	ListLessonsByTeacher(ctx context.Context, teacherID string, semester int) ([]model.ScheduleLesson, error)
}

type weeklyScheduleRepo struct {
	db *gorm.DB
}

// NewWeeklyScheduleRepo 创建 WeeklyScheduleRepository 实例
func NewWeeklyScheduleRepo(db *gorm.DB) WeeklyScheduleRepository {
	return &weeklyScheduleRepo{db: db}
}

func (r *weeklyScheduleRepo) FindByGroupAndSemester(ctx context.Context, groupID string, semester int) (*model.WeeklySchedule, error) {
	var schedule model.WeeklySchedule
	err := r.db.WithContext(ctx).
		Preload("Group").
		Preload("Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC, slot_number ASC")
		}).
		Preload("Lessons.Subject").
		Preload("Lessons.Teacher").
		Where("group_id = ? AND semester = ?", groupID, semester).
		First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (r *weeklyScheduleRepo) ListLessonsByTeacher(ctx context.Context, teacherID string, semester int) ([]model.ScheduleLesson, error) {
	var lessons []model.ScheduleLesson
	err := r.db.WithContext(ctx).
		Joins("JOIN weekly_schedules ws ON ws.schedule_id = schedule_lessons.schedule_id").
		Preload("Schedule.Group").
		Preload("Subject").
		Where("schedule_lessons.teacher_id = ? AND ws.semester = ?", teacherID, semester).
		Order("schedule_lessons.day_of_week ASC, schedule_lessons.slot_number ASC").
		Find(&lessons).Error
	return lessons, err
}
