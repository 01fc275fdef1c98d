//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"academic-journal/backend/internal/model"
	"academic-journal/backend/internal/repository"
	"academic-journal/backend/pkg/calendar"
	"academic-journal/backend/pkg/database"
	pkgerrors "academic-journal/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=journal password=journal_password dbname=academic_journal_test sslmode=disable TimeZone=Asia/Dushanbe"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 使用与生产一致的迁移脚本
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

type testData struct {
	group    *model.Group
	subject  *model.Subject
	students []model.Student
}

// setupTestData 创建小组、课程与两名学生，并返回清理函数
func setupTestData(t *testing.T) (*testData, func()) {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	d := &testData{
		group:   &model.Group{Name: fmt.Sprintf("测试小组-%d", suffix), Course: 1},
		subject: &model.Subject{Name: fmt.Sprintf("测试课程-%d", suffix)},
	}
	if err := testDB.WithContext(ctx).Create(d.group).Error; err != nil {
		t.Fatalf("创建小组失败: %v", err)
	}
	if err := testDB.WithContext(ctx).Create(d.subject).Error; err != nil {
		t.Fatalf("创建课程失败: %v", err)
	}
	for _, name := range []string{"Алиев Фарход", "Бобоева Нигина"} {
		st := model.Student{FullName: name, GroupID: &d.group.GroupID}
		if err := testDB.WithContext(ctx).Create(&st).Error; err != nil {
			t.Fatalf("创建学生失败: %v", err)
		}
		d.students = append(d.students, st)
	}

	cleanup := func() {
		// 记录与标记随小组级联删除
		testDB.Where("group_id = ?", d.group.GroupID).Delete(&model.Student{})
		testDB.Where("group_id = ?", d.group.GroupID).Delete(&model.Group{})
		testDB.Where("subject_id = ?", d.subject.SubjectID).Delete(&model.Subject{})
	}
	return d, cleanup
}

func (d *testData) newEntry(date calendar.CivilDate, slot int) *model.JournalEntry {
	entry := &model.JournalEntry{
		Date:       date,
		Shift:      1,
		LessonSlot: slot,
		GroupID:    d.group.GroupID,
		SubjectID:  d.subject.SubjectID,
		LessonKind: model.LessonPractice,
		VersionedModel: model.VersionedModel{
			Version: 1,
		},
	}
	for _, st := range d.students {
		entry.Marks = append(entry.Marks, model.JournalMark{StudentID: st.StudentID, Attendance: model.AttendanceAbsent})
	}
	return entry
}

// ═══════════════════════════════════════════════════════════
// Test: InsertIfAbsent
// ═══════════════════════════════════════════════════════════

func TestJournalRepo_InsertIfAbsent_Unique(t *testing.T) {
	d, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewJournalRepo(testDB)
	ctx := context.Background()
	date := calendar.Date(2024, 9, 2)

	first := d.newEntry(date, 1)
	inserted, err := repo.InsertIfAbsent(ctx, first)
	if err != nil || !inserted {
		t.Fatalf("首次插入应成功: inserted=%v err=%v", inserted, err)
	}
	if first.EntryID == "" {
		t.Fatal("插入后应回填 EntryID")
	}

	second := d.newEntry(date, 1)
	inserted, err = repo.InsertIfAbsent(ctx, second)
	if err != nil {
		t.Fatalf("重复插入不应报错: %v", err)
	}
	if inserted {
		t.Error("相同自然键不应再次插入")
	}

	got, err := repo.FindByKey(ctx, first.Key())
	if err != nil {
		t.Fatalf("FindByKey 失败: %v", err)
	}
	if got.EntryID != first.EntryID || len(got.Marks) != 2 {
		t.Errorf("记录不正确: id=%s marks=%d", got.EntryID, len(got.Marks))
	}
	if got.Date != date {
		t.Errorf("日期应原样往返: %s", got.Date)
	}
}

func TestJournalRepo_InsertIfAbsent_Concurrent(t *testing.T) {
	d, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewJournalRepo(testDB)
	ctx := context.Background()
	date := calendar.Date(2024, 9, 3)

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
		failures []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.InsertIfAbsent(ctx, d.newEntry(date, 2))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
			}
			if ok {
				inserted++
			}
		}()
	}
	wg.Wait()

	if len(failures) > 0 {
		t.Fatalf("并发插入不应报错: %v", failures)
	}
	if inserted != 1 {
		t.Errorf("只应有一次插入成功，实际=%d", inserted)
	}

	var count int64
	testDB.Model(&model.JournalEntry{}).
		Where("group_id = ? AND date = ? AND lesson_slot = ?", d.group.GroupID, date, 2).
		Count(&count)
	if count != 1 {
		t.Errorf("数据库中应只有 1 条记录，实际=%d", count)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: UpdateMarks 乐观锁
// ═══════════════════════════════════════════════════════════

func TestJournalRepo_UpdateMarks_Version(t *testing.T) {
	d, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewJournalRepo(testDB)
	ctx := context.Background()

	entry := d.newEntry(calendar.Date(2024, 9, 4), 3)
	if _, err := repo.InsertIfAbsent(ctx, entry); err != nil {
		t.Fatalf("插入失败: %v", err)
	}

	stale, err := repo.GetByID(ctx, entry.EntryID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}

	grade := 5
	changes := []repository.MarkChange{
		{StudentID: d.students[0].StudentID, Attendance: model.AttendancePresent, TaskGrade: &grade},
	}
	if err := repo.UpdateMarks(ctx, entry, changes); err != nil {
		t.Fatalf("首次更新应成功: %v", err)
	}
	if entry.Version != 2 {
		t.Errorf("版本应递增为 2，实际=%d", entry.Version)
	}

	if err := repo.UpdateMarks(ctx, stale, changes); !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("过期版本应返回 ErrOptimisticLock，实际: %v", err)
	}

	got, err := repo.GetByID(ctx, entry.EntryID)
	if err != nil {
		t.Fatalf("GetByID 失败: %v", err)
	}
	for _, mk := range got.Marks {
		if mk.StudentID != d.students[0].StudentID {
			continue
		}
		if mk.Attendance != model.AttendancePresent || mk.TaskGrade == nil || *mk.TaskGrade != 5 {
			t.Errorf("标记未更新: %+v", mk)
		}
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 统计
// ═══════════════════════════════════════════════════════════

func TestJournalRepo_CountAbsences(t *testing.T) {
	d, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewJournalRepo(testDB)
	ctx := context.Background()
	from := calendar.Date(2024, 9, 1)

	for slot := 1; slot <= 3; slot++ {
		if _, err := repo.InsertIfAbsent(ctx, d.newEntry(calendar.Date(2024, 9, 5), slot)); err != nil {
			t.Fatalf("插入失败: %v", err)
		}
	}

	rows, err := repo.CountAbsences(ctx, from, from.AddDays(30))
	if err != nil {
		t.Fatalf("CountAbsences 失败: %v", err)
	}
	found := 0
	for _, r := range rows {
		if r.GroupID != d.group.GroupID {
			continue
		}
		found++
		if r.Count != 3 || r.GroupName != d.group.Name {
			t.Errorf("缺勤统计不正确: %+v", r)
		}
	}
	if found != 2 {
		t.Errorf("应统计到 2 名学生，实际=%d", found)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 周课表
// ═══════════════════════════════════════════════════════════

func TestWeeklyScheduleRepo_LessonKindDefaultsToPractice(t *testing.T) {
	d, cleanup := setupTestData(t)
	defer cleanup()

	ctx := context.Background()
	schedule := &model.WeeklySchedule{GroupID: d.group.GroupID, Semester: 1}
	if err := testDB.WithContext(ctx).Omit("Lessons").Create(schedule).Error; err != nil {
		t.Fatalf("创建周课表失败: %v", err)
	}

	// 未指定 lesson_kind 的课节应可评分
	err := testDB.WithContext(ctx).Exec(
		`INSERT INTO schedule_lessons (schedule_id, day_of_week, slot_number, subject_id, start_time, end_time)
		 VALUES (?, 1, 1, ?, '08:00', '09:20')`,
		schedule.ScheduleID, d.subject.SubjectID,
	).Error
	if err != nil {
		t.Fatalf("插入课节失败: %v", err)
	}

	got, err := repository.NewWeeklyScheduleRepo(testDB).FindByGroupAndSemester(ctx, d.group.GroupID, 1)
	if err != nil {
		t.Fatalf("FindByGroupAndSemester 失败: %v", err)
	}
	lesson := got.Lesson(1, 1)
	if lesson == nil {
		t.Fatal("应找到周一第1节")
	}
	if lesson.LessonKind != model.LessonPractice {
		t.Errorf("默认课型应为 practice，实际=%s", lesson.LessonKind)
	}
}
