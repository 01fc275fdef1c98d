package repository

import (
	"context"

	"gorm.io/gorm"

	"academic-journal/backend/internal/model"
)

// GroupRepository 小组数据访问接口（只读，增删改由教务模块负责）
type GroupRepository interface {
	GetByID(ctx context.Context, id string) (*model.Group, error)
	// ListStudents 小组当前名单，按姓名排序
	ListStudents(ctx context.Context, groupID string) ([]model.Student, error)
	// Counts 小组总数与学生总数
	Counts(ctx context.Context) (groups int64, students int64, err error)
}

type groupRepo struct {
	db *gorm.DB
}

// NewGroupRepo 创建 GroupRepository 实例
func NewGroupRepo(db *gorm.DB) GroupRepository {
	return &groupRepo{db: db}
}

func (r *groupRepo) GetByID(ctx context.Context, id string) (*model.Group, error) {
	var group model.Group
	err := r.db.WithContext(ctx).
		Where("group_id = ?", id).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) ListStudents(ctx context.Context, groupID string) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("full_name ASC, student_id ASC").
		Find(&students).Error
	return students, err
}

func (r *groupRepo) Counts(ctx context.Context) (int64, int64, error) {
	var groups, students int64
	if err := r.db.WithContext(ctx).Model(&model.Group{}).Count(&groups).Error; err != nil {
		return 0, 0, err
	}
	if err := r.db.WithContext(ctx).Model(&model.Student{}).Count(&students).Error; err != nil {
		return 0, 0, err
	}
	return groups, students, nil
}
