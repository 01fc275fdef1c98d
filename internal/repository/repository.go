package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Group    GroupRepository
	Student  StudentRepository
	Subject  SubjectRepository
	Teacher  TeacherRepository
	Schedule WeeklyScheduleRepository
	Journal  JournalRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Group:    NewGroupRepo(db),
		Student:  NewStudentRepo(db),
		Subject:  NewSubjectRepo(db),
		Teacher:  NewTeacherRepo(db),
		Schedule: NewWeeklyScheduleRepo(db),
		Journal:  NewJournalRepo(db),
	}
}
