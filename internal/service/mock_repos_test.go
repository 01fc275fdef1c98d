package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"academic-journal/backend/internal/model"
	"academic-journal/backend/internal/repository"
	"academic-journal/backend/pkg/calendar"
	pkgerrors "academic-journal/backend/pkg/errors"
	"academic-journal/backend/pkg/events"
	"academic-journal/backend/pkg/metrics"
)

// ── 测试数据 ──

type mockStore struct {
	groups    map[string]*model.Group
	students  map[string]*model.Student
	subjects  map[string]*model.Subject
	teachers  map[string]*model.Teacher
	schedules map[string]*model.WeeklySchedule // "groupID:semester"
}

func newMockStore() *mockStore {
	return &mockStore{
		groups:    make(map[string]*model.Group),
		students:  make(map[string]*model.Student),
		subjects:  make(map[string]*model.Subject),
		teachers:  make(map[string]*model.Teacher),
		schedules: make(map[string]*model.WeeklySchedule),
	}
}

func scheduleKey(groupID string, semester int) string {
	return fmt.Sprintf("%s:%d", groupID, semester)
}

// ── Mock GroupRepository ──

type mockGroupRepo struct{ store *mockStore }

func (m *mockGroupRepo) GetByID(_ context.Context, id string) (*model.Group, error) {
	if g, ok := m.store.groups[id]; ok {
		return g, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGroupRepo) ListStudents(_ context.Context, groupID string) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.store.students {
		if s.GroupID != nil && *s.GroupID == groupID {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName < result[j].FullName })
	return result, nil
}

func (m *mockGroupRepo) Counts(_ context.Context) (int64, int64, error) {
	return int64(len(m.store.groups)), int64(len(m.store.students)), nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct{ store *mockStore }

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	s, ok := m.store.students[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *s
	if s.GroupID != nil {
		c.Group = m.store.groups[*s.GroupID]
	}
	return &c, nil
}

// ── Mock SubjectRepository / TeacherRepository ──

type mockSubjectRepo struct{ store *mockStore }

func (m *mockSubjectRepo) GetByID(_ context.Context, id string) (*model.Subject, error) {
	if s, ok := m.store.subjects[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type mockTeacherRepo struct{ store *mockStore }

func (m *mockTeacherRepo) GetByID(_ context.Context, id string) (*model.Teacher, error) {
	if t, ok := m.store.teachers[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock WeeklyScheduleRepository ──

type mockScheduleRepo struct{ store *mockStore }

func (m *mockScheduleRepo) FindByGroupAndSemester(_ context.Context, groupID string, semester int) (*model.WeeklySchedule, error) {
	if s, ok := m.store.schedules[scheduleKey(groupID, semester)]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScheduleRepo) ListLessonsByTeacher(_ context.Context, teacherID string, semester int) ([]model.ScheduleLesson, error) {
	var result []model.ScheduleLesson
	for _, s := range m.store.schedules {
		if s.Semester != semester {
			continue
		}
		header := &model.WeeklySchedule{ScheduleID: s.ScheduleID, GroupID: s.GroupID, Semester: s.Semester, Group: s.Group}
		for _, l := range s.Lessons {
			if l.TeacherID != nil && *l.TeacherID == teacherID {
				l.Schedule = header
				result = append(result, l)
			}
		}
	}
	return result, nil
}

// ── Mock JournalRepository ──

type mockJournalRepo struct {
	store *mockStore

	mu      sync.Mutex
	entries map[string]*model.JournalEntry
	byKey   map[model.EntryKey]string
	nextID  int
	inserts int // InsertIfAbsent 成功次数

	failWith error // 非 nil 时所有读写返回该错误

	// loseNextInsert 为 true 时，下一次 InsertIfAbsent 模拟另一请求抢先插入：
	// 以 rivalID 存入同键记录并返回 false
	loseNextInsert bool
	rivalID        string
}

func newMockJournalRepo(store *mockStore) *mockJournalRepo {
	return &mockJournalRepo{
		store:   store,
		entries: make(map[string]*model.JournalEntry),
		byKey:   make(map[model.EntryKey]string),
	}
}

// snapshot 模拟预加载：复制记录并挂上课程与学生
func (m *mockJournalRepo) snapshot(e *model.JournalEntry, studentID string) model.JournalEntry {
	c := *e
	c.Subject = m.store.subjects[e.SubjectID]
	c.Marks = make([]model.JournalMark, 0, len(e.Marks))
	for _, mk := range e.Marks {
		if studentID != "" && mk.StudentID != studentID {
			continue
		}
		mk.Student = m.store.students[mk.StudentID]
		c.Marks = append(c.Marks, mk)
	}
	sort.Slice(c.Marks, func(i, j int) bool { return c.Marks[i].StudentID < c.Marks[j].StudentID })
	return c
}

func (m *mockJournalRepo) GetByID(_ context.Context, id string) (*model.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	e, ok := m.entries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := m.snapshot(e, "")
	return &c, nil
}

func (m *mockJournalRepo) FindByKey(_ context.Context, key model.EntryKey) (*model.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	id, ok := m.byKey[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := m.snapshot(m.entries[id], "")
	return &c, nil
}

// InsertIfAbsent 以自然键唯一约束模拟 ON CONFLICT DO NOTHING
func (m *mockJournalRepo) InsertIfAbsent(_ context.Context, entry *model.JournalEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	key := entry.Key()
	if _, exists := m.byKey[key]; exists {
		return false, nil
	}

	if m.loseNextInsert {
		m.loseNextInsert = false
		rival := *entry
		rival.EntryID = m.rivalID
		rival.Subject = nil
		rival.Marks = append([]model.JournalMark(nil), entry.Marks...)
		for i := range rival.Marks {
			rival.Marks[i].EntryID = rival.EntryID
			rival.Marks[i].Student = nil
		}
		if rival.Version == 0 {
			rival.Version = 1
		}
		m.entries[rival.EntryID] = &rival
		m.byKey[key] = rival.EntryID
		return false, nil
	}

	m.nextID++
	entry.EntryID = fmt.Sprintf("entry-%03d", m.nextID)
	if entry.Version == 0 {
		entry.Version = 1
	}
	stored := *entry
	stored.Subject = nil
	stored.Marks = make([]model.JournalMark, len(entry.Marks))
	for i := range entry.Marks {
		entry.Marks[i].EntryID = entry.EntryID
		entry.Marks[i].MarkID = fmt.Sprintf("%s-mark-%d", entry.EntryID, i)
		stored.Marks[i] = entry.Marks[i]
		stored.Marks[i].Student = nil
	}
	m.entries[entry.EntryID] = &stored
	m.byKey[key] = entry.EntryID
	m.inserts++
	return true, nil
}

func (m *mockJournalRepo) FindRange(_ context.Context, q repository.RangeQuery) ([]model.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var result []model.JournalEntry
	for _, e := range m.entries {
		if e.GroupID != q.GroupID || e.Date.Before(q.From) || e.Date.After(q.To) {
			continue
		}
		if q.SubjectID != "" && e.SubjectID != q.SubjectID {
			continue
		}
		result = append(result, m.snapshot(e, ""))
	}
	sortEntries(result)
	return result, nil
}

func (m *mockJournalRepo) ListByStudent(_ context.Context, studentID string, from, to calendar.CivilDate) ([]model.JournalEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.JournalEntry
	for _, e := range m.entries {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		c := m.snapshot(e, studentID)
		if len(c.Marks) == 0 {
			continue
		}
		result = append(result, c)
	}
	sortEntries(result)
	return result, nil
}

func (m *mockJournalRepo) UpdateMarks(_ context.Context, entry *model.JournalEntry, changes []repository.MarkChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.entries[entry.EntryID]
	if !ok || stored.Version != entry.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Topic = entry.Topic
	stored.IsSubmitted = entry.IsSubmitted
	stored.UpdatedBy = entry.UpdatedBy
	stored.Version++
	for _, ch := range changes {
		for i := range stored.Marks {
			mk := &stored.Marks[i]
			if mk.StudentID == ch.StudentID {
				mk.Attendance = ch.Attendance
				mk.PreparationGrade = ch.PreparationGrade
				mk.TaskGrade = ch.TaskGrade
				mk.Notes = ch.Notes
				mk.UpdatedAt = time.Now()
			}
		}
	}
	entry.Version = stored.Version
	return nil
}

func (m *mockJournalRepo) CountAbsences(_ context.Context, from, to calendar.CivilDate) ([]model.AbsenceCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int)
	for _, e := range m.entries {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		for _, mk := range e.Marks {
			if mk.Attendance == model.AttendanceAbsent {
				counts[mk.StudentID]++
			}
		}
	}
	rows := make([]model.AbsenceCount, 0, len(counts))
	for id, n := range counts {
		row := model.AbsenceCount{StudentID: id, Count: n}
		if st := m.store.students[id]; st != nil {
			row.FullName = st.FullName
			if st.GroupID != nil {
				row.GroupID = *st.GroupID
				if g := m.store.groups[*st.GroupID]; g != nil {
					row.GroupName = g.Name
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (m *mockJournalRepo) Totals(_ context.Context, from, to calendar.CivilDate) (*model.JournalTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var t model.JournalTotals
	for _, e := range m.entries {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		for _, mk := range e.Marks {
			t.Marks++
			if mk.Attendance == model.AttendancePresent {
				t.Present++
			}
			if mk.TaskGrade != nil {
				t.TaskGraded++
				t.TaskGradeSum += int64(*mk.TaskGrade)
			}
		}
	}
	return &t, nil
}

func (m *mockJournalRepo) TopGroups(_ context.Context, from, to calendar.CivilDate, limit int) ([]model.GroupActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, e := range m.entries {
		if !e.Date.Before(from) && !e.Date.After(to) {
			counts[e.GroupID]++
		}
	}
	var rows []model.GroupActivity
	for id, n := range counts {
		rows = append(rows, model.GroupActivity{GroupID: id, GroupName: m.store.groups[id].Name, Entries: n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Entries > rows[j].Entries })
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *mockJournalRepo) ListNotes(_ context.Context, q repository.NotesQuery) ([]model.NoteRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var rows []model.NoteRow
	for _, e := range m.entries {
		if q.GroupID != "" && e.GroupID != q.GroupID {
			continue
		}
		for _, mk := range e.Marks {
			if strings.TrimSpace(mk.Notes) == "" || (q.StudentID != "" && mk.StudentID != q.StudentID) {
				continue
			}
			rows = append(rows, model.NoteRow{
				EntryID:     e.EntryID,
				Date:        e.Date,
				LessonSlot:  e.LessonSlot,
				GroupID:     e.GroupID,
				GroupName:   m.store.groups[e.GroupID].Name,
				SubjectName: m.store.subjects[e.SubjectID].Name,
				StudentID:   mk.StudentID,
				FullName:    m.store.students[mk.StudentID].FullName,
				Notes:       mk.Notes,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date.After(rows[j].Date)
		}
		return rows[i].LessonSlot > rows[j].LessonSlot
	})
	return rows, nil
}

func sortEntries(entries []model.JournalEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].LessonSlot < entries[j].LessonSlot
	})
}

// ── Mock Publisher ──

type capturePublisher struct {
	mu     sync.Mutex
	events []events.AuditEvent
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, ev events.AuditEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) Close() {}

// ── 测试夹具 ──

const (
	groupA    = "group-a"
	groupB    = "group-b"
	studentA1 = "student-a1"
	studentA2 = "student-a2"
	subjMath  = "subj-math"
	subjPhys  = "subj-phys"
	subjHist  = "subj-hist"
	teacherM  = "teacher-m"
	teacherP  = "teacher-p"
)

type fixture struct {
	store     *mockStore
	journal   *mockJournalRepo
	publisher *capturePublisher
	deps      Deps
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// newFixture 2024-09-10（周二）08:30 Asia/Dushanbe，第一学期第 2 周
//
// 小组 A 的周课表：
//
//	周一 1 节 数学 实践 08:00-09:20（教师 M）
//	周一 2 节 物理 讲座 09:30-10:50（教师 P）
//	周二 1 节 数学 实践 08:00-09:20（教师 M）
//	周三 3 节 历史 实验 13:00-14:20（第二班）
func newFixture() *fixture {
	store := newMockStore()
	store.groups[groupA] = &model.Group{GroupID: groupA, Name: "ИС-21"}
	store.groups[groupB] = &model.Group{GroupID: groupB, Name: "ПМ-22"}
	store.students[studentA1] = &model.Student{StudentID: studentA1, FullName: "Алиев Фарход", GroupID: strPtr(groupA)}
	store.students[studentA2] = &model.Student{StudentID: studentA2, FullName: "Бобоева Нигина", GroupID: strPtr(groupA)}
	store.subjects[subjMath] = &model.Subject{SubjectID: subjMath, Name: "Математика"}
	store.subjects[subjPhys] = &model.Subject{SubjectID: subjPhys, Name: "Физика"}
	store.subjects[subjHist] = &model.Subject{SubjectID: subjHist, Name: "История"}
	store.teachers[teacherM] = &model.Teacher{TeacherID: teacherM, Name: "Каримов А."}
	store.teachers[teacherP] = &model.Teacher{TeacherID: teacherP, Name: "Петрова Е."}

	lesson := func(id string, day, slot int, subject, teacher, start, end string, kind model.LessonKind) model.ScheduleLesson {
		return model.ScheduleLesson{
			LessonID:   id,
			ScheduleID: "sched-a1",
			DayOfWeek:  day,
			SlotNumber: slot,
			SubjectID:  strPtr(subject),
			TeacherID:  strPtr(teacher),
			StartTime:  start,
			EndTime:    end,
			LessonKind: kind,
			Classroom:  "201",
			Subject:    store.subjects[subject],
			Teacher:    store.teachers[teacher],
		}
	}
	store.schedules[scheduleKey(groupA, 1)] = &model.WeeklySchedule{
		ScheduleID: "sched-a1",
		GroupID:    groupA,
		Semester:   1,
		Group:      store.groups[groupA],
		Lessons: []model.ScheduleLesson{
			lesson("l-mon-1", 1, 1, subjMath, teacherM, "08:00", "09:20", model.LessonPractice),
			lesson("l-mon-2", 1, 2, subjPhys, teacherP, "09:30", "10:50", model.LessonLecture),
			lesson("l-tue-1", 2, 1, subjMath, teacherM, "08:00", "09:20", model.LessonPractice),
			lesson("l-wed-3", 3, 3, subjHist, teacherP, "13:00", "14:20", model.LessonLab),
		},
	}

	journal := newMockJournalRepo(store)
	publisher := &capturePublisher{}
	norm, err := calendar.LoadNormalizer("Asia/Dushanbe")
	if err != nil {
		panic(err)
	}
	now := time.Date(2024, 9, 10, 8, 30, 0, 0, norm.Location())

	return &fixture{
		store:     store,
		journal:   journal,
		publisher: publisher,
		deps: Deps{
			Repo: &repository.Repository{
				Group:    &mockGroupRepo{store: store},
				Student:  &mockStudentRepo{store: store},
				Subject:  &mockSubjectRepo{store: store},
				Teacher:  &mockTeacherRepo{store: store},
				Schedule: &mockScheduleRepo{store: store},
				Journal:  journal,
			},
			Policy:               calendar.DefaultPolicy(),
			Normalizer:           norm,
			HighAbsenceThreshold: DefaultHighAbsenceThreshold,
			Now:                  func() time.Time { return now },
			Events:               publisher,
			Metrics:              metrics.New(),
			Logger:               zap.NewNop(),
		},
	}
}

// seedEntry 直接写入一条记录，marks 为 studentID → 标记
func (f *fixture) seedEntry(date calendar.CivilDate, slot int, subjectID string, kind model.LessonKind, marks map[string]model.JournalMark) string {
	entry := &model.JournalEntry{
		Date:       date,
		Shift:      1,
		LessonSlot: slot,
		GroupID:    groupA,
		SubjectID:  subjectID,
		TeacherID:  strPtr(teacherM),
		LessonKind: kind,
	}
	ids := make([]string, 0, len(marks))
	for id := range marks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		mk := marks[id]
		mk.StudentID = id
		entry.Marks = append(entry.Marks, mk)
	}
	if _, err := f.journal.InsertIfAbsent(context.Background(), entry); err != nil {
		panic(err)
	}
	return entry.EntryID
}
