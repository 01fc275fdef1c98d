package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"academic-journal/backend/internal/model"
	"academic-journal/backend/pkg/calendar"
	pkgerrors "academic-journal/backend/pkg/errors"
)

// RangeQuery 按小组与日期区间查询课节记录
type RangeQuery struct {
	GroupID   string
	From      calendar.CivilDate
	To        calendar.CivilDate
	SubjectID string // 为空表示不过滤
}

// NotesQuery 备注查询条件，GroupID 与 StudentID 至少给出一个
type NotesQuery struct {
	GroupID   string
	StudentID string
}

// MarkChange 单个学生标记的更新内容
type MarkChange struct {
	StudentID        string
	Attendance       model.Attendance
	PreparationGrade *int
	TaskGrade        *int
	Notes            string
}

// JournalRepository 课节记录数据访问接口
type JournalRepository interface {
	GetByID(ctx context.Context, id string) (*model.JournalEntry, error)
	FindByKey(ctx context.Context, key model.EntryKey) (*model.JournalEntry, error)
	// InsertIfAbsent 按自然键原子插入，键已存在时不写入并返回 false
	InsertIfAbsent(ctx context.Context, entry *model.JournalEntry) (bool, error)
	FindRange(ctx context.Context, q RangeQuery) ([]model.JournalEntry, error)
	// ListByStudent 学生在区间内参与的记录，Marks 仅包含该学生
	ListByStudent(ctx context.Context, studentID string, from, to calendar.CivilDate) ([]model.JournalEntry, error)
	// UpdateMarks 乐观锁更新记录及其学生标记，版本不一致返回 ErrOptimisticLock
	UpdateMarks(ctx context.Context, entry *model.JournalEntry, changes []MarkChange) error

	// ── 统计 ──
	CountAbsences(ctx context.Context, from, to calendar.CivilDate) ([]model.AbsenceCount, error)
	Totals(ctx context.Context, from, to calendar.CivilDate) (*model.JournalTotals, error)
	TopGroups(ctx context.Context, from, to calendar.CivilDate, limit int) ([]model.GroupActivity, error)
	ListNotes(ctx context.Context, q NotesQuery) ([]model.NoteRow, error)
}

type journalRepo struct {
	db *gorm.DB
}

// NewJournalRepo 创建 JournalRepository 实例
func NewJournalRepo(db *gorm.DB) JournalRepository {
	return &journalRepo{db: db}
}

func (r *journalRepo) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Subject").
		Preload("Marks", func(db *gorm.DB) *gorm.DB {
			return db.Order("journal_marks.student_id ASC")
		}).
		Preload("Marks.Student")
}

func (r *journalRepo) GetByID(ctx context.Context, id string) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	err := r.withDetails(r.db.WithContext(ctx)).
		Where("entry_id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *journalRepo) FindByKey(ctx context.Context, key model.EntryKey) (*model.JournalEntry, error) {
	var entry model.JournalEntry
	err := r.withDetails(r.db.WithContext(ctx)).
		Where("date = ? AND shift = ? AND lesson_slot = ? AND group_id = ? AND subject_id = ?",
			key.Date, key.Shift, key.LessonSlot, key.GroupID, key.SubjectID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *journalRepo) InsertIfAbsent(ctx context.Context, entry *model.JournalEntry) (bool, error) {
	inserted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Clauses(clause.OnConflict{
				Columns: []clause.Column{
					{Name: "date"}, {Name: "shift"}, {Name: "lesson_slot"},
					{Name: "group_id"}, {Name: "subject_id"},
				},
				DoNothing: true,
			}).
			Omit(clause.Associations).
			Create(entry)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		for i := range entry.Marks {
			entry.Marks[i].EntryID = entry.EntryID
		}
		if len(entry.Marks) > 0 {
			if err := tx.Omit(clause.Associations).Create(&entry.Marks).Error; err != nil {
				return err
			}
		}
		inserted = true
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	return inserted, err
}

func (r *journalRepo) FindRange(ctx context.Context, q RangeQuery) ([]model.JournalEntry, error) {
	var entries []model.JournalEntry
	db := r.db.WithContext(ctx).
		Preload("Subject").
		Preload("Marks").
		Where("group_id = ? AND date BETWEEN ? AND ?", q.GroupID, q.From, q.To)
	if q.SubjectID != "" {
		db = db.Where("subject_id = ?", q.SubjectID)
	}
	err := db.Order("date ASC, lesson_slot ASC").Find(&entries).Error
	return entries, err
}

func (r *journalRepo) ListByStudent(ctx context.Context, studentID string, from, to calendar.CivilDate) ([]model.JournalEntry, error) {
	var entries []model.JournalEntry
	sub := r.db.Model(&model.JournalMark{}).Select("entry_id").Where("student_id = ?", studentID)
	err := r.db.WithContext(ctx).
		Preload("Subject").
		Preload("Marks", "student_id = ?", studentID).
		Where("entry_id IN (?)", sub).
		Where("date BETWEEN ? AND ?", from, to).
		Order("date ASC, lesson_slot ASC").
		Find(&entries).Error
	return entries, err
}

func (r *journalRepo) UpdateMarks(ctx context.Context, entry *model.JournalEntry, changes []MarkChange) error {
	oldVersion := entry.Version
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&model.JournalEntry{}).
			Where("entry_id = ? AND version = ?", entry.EntryID, oldVersion).
			Updates(map[string]interface{}{
				"topic":        entry.Topic,
				"is_submitted": entry.IsSubmitted,
				"updated_by":   entry.UpdatedBy,
				"version":      oldVersion + 1,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}

		for _, ch := range changes {
			err := tx.
				Model(&model.JournalMark{}).
				Where("entry_id = ? AND student_id = ?", entry.EntryID, ch.StudentID).
				Updates(map[string]interface{}{
					"attendance":        ch.Attendance,
					"preparation_grade": ch.PreparationGrade,
					"task_grade":        ch.TaskGrade,
					"notes":             ch.Notes,
				}).Error
			if err != nil {
				return err
			}
		}

		entry.Version = oldVersion + 1
		return nil
	})
}

// ────────────────────── 统计 ──────────────────────

func (r *journalRepo) CountAbsences(ctx context.Context, from, to calendar.CivilDate) ([]model.AbsenceCount, error) {
	var rows []model.AbsenceCount
	err := r.db.WithContext(ctx).
		Table("journal_marks AS m").
		Select("m.student_id, s.full_name, COALESCE(g.group_id::text, '') AS group_id, COALESCE(g.name, '') AS group_name, COUNT(*) AS count").
		Joins("JOIN journal_entries e ON e.entry_id = m.entry_id").
		Joins("JOIN students s ON s.student_id = m.student_id").
		Joins("LEFT JOIN groups g ON g.group_id = s.group_id").
		Where("m.attendance = ? AND e.date BETWEEN ? AND ?", model.AttendanceAbsent, from, to).
		Group("m.student_id, s.full_name, g.group_id, g.name").
		Order("count DESC, s.full_name ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *journalRepo) Totals(ctx context.Context, from, to calendar.CivilDate) (*model.JournalTotals, error) {
	var totals model.JournalTotals
	err := r.db.WithContext(ctx).
		Table("journal_marks AS m").
		Select(`COUNT(*) AS marks,
			COUNT(*) FILTER (WHERE m.attendance = 'present') AS present,
			COUNT(m.task_grade) AS task_graded,
			COALESCE(SUM(m.task_grade), 0) AS task_grade_sum`).
		Joins("JOIN journal_entries e ON e.entry_id = m.entry_id").
		Where("e.date BETWEEN ? AND ?", from, to).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

func (r *journalRepo) TopGroups(ctx context.Context, from, to calendar.CivilDate, limit int) ([]model.GroupActivity, error) {
	var rows []model.GroupActivity
	err := r.db.WithContext(ctx).
		Table("journal_entries AS e").
		Select("g.group_id, g.name AS group_name, COUNT(*) AS entries").
		Joins("JOIN groups g ON g.group_id = e.group_id").
		Where("e.date BETWEEN ? AND ?", from, to).
		Group("g.group_id, g.name").
		Order("entries DESC, g.name ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *journalRepo) ListNotes(ctx context.Context, q NotesQuery) ([]model.NoteRow, error) {
	var rows []model.NoteRow
	db := r.db.WithContext(ctx).
		Table("journal_marks AS m").
		Select(`e.entry_id, e.date, e.lesson_slot, g.group_id, g.name AS group_name,
			sub.name AS subject_name, COALESCE(t.name, '') AS teacher_name,
			s.student_id, s.full_name, m.notes, m.updated_at`).
		Joins("JOIN journal_entries e ON e.entry_id = m.entry_id").
		Joins("JOIN groups g ON g.group_id = e.group_id").
		Joins("JOIN subjects sub ON sub.subject_id = e.subject_id").
		Joins("JOIN students s ON s.student_id = m.student_id").
		Joins("LEFT JOIN teachers t ON t.teacher_id = e.teacher_id").
		Where("TRIM(m.notes) <> ''")
	if q.GroupID != "" {
		db = db.Where("e.group_id = ?", q.GroupID)
	}
	if q.StudentID != "" {
		db = db.Where("m.student_id = ?", q.StudentID)
	}
	err := db.Order("e.date DESC, e.lesson_slot DESC, s.full_name ASC").Scan(&rows).Error
	return rows, err
}
