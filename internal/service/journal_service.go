package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"academic-journal/backend/internal/dto"
	"academic-journal/backend/internal/model"
	"academic-journal/backend/internal/repository"
	"academic-journal/backend/pkg/calendar"
	pkgerrors "academic-journal/backend/pkg/errors"
	"academic-journal/backend/pkg/events"
	"academic-journal/backend/pkg/jwt"
	"academic-journal/backend/pkg/metrics"
)

// Actor 当前操作者，来自访问令牌
type Actor struct {
	UserID string
	Role   string
}

// SlotRef 定位某小组某天某节课
// Semester 为 0 时由日期推断
type SlotRef struct {
	Date      calendar.CivilDate
	Shift     int
	Slot      int
	SubjectID string
	Semester  int
}

// JournalService 课节记录业务接口
type JournalService interface {
	// GetOrCreateSlotRecord 获取课节记录，不存在时按课表与花名册惰性创建
	GetOrCreateSlotRecord(ctx context.Context, groupID string, ref SlotRef) (*dto.JournalEntryResponse, error)
	UpdateRecord(ctx context.Context, id string, req *dto.UpdateRecordRequest, actor Actor) (*dto.JournalEntryResponse, error)
	LessonsByGroupAndDate(ctx context.Context, groupID string, date calendar.CivilDate, semester int) (*dto.DayLessonsResponse, error)
	GroupNotes(ctx context.Context, groupID string) ([]dto.NoteGroupResponse, error)
	StudentNotes(ctx context.Context, studentID string) ([]dto.NoteGroupResponse, error)
}

type journalService struct {
	Deps
}

// NewJournalService 创建 JournalService 实例
func NewJournalService(d Deps) JournalService {
	d.withDefaults()
	return &journalService{Deps: d}
}

// ────────────────────── GetOrCreateSlotRecord ──────────────────────

func (s *journalService) GetOrCreateSlotRecord(ctx context.Context, groupID string, ref SlotRef) (*dto.JournalEntryResponse, error) {
	if !ref.Date.Valid() {
		return nil, calendar.ErrInvalidDate
	}
	if ref.Slot < 1 || ref.Slot > calendar.LessonsPerDay {
		return nil, ErrInvalidSlot
	}
	if ref.Shift != 1 && ref.Shift != 2 {
		return nil, ErrInvalidShift
	}

	if _, err := s.Repo.Group.GetByID(ctx, groupID); err != nil {
		return nil, s.lookupErr(err, ErrGroupNotFound, "group.get", zap.String("group_id", groupID))
	}

	sem, err := s.resolveSemester(ref.Date, ref.Semester)
	if err != nil {
		return nil, err
	}

	lesson, err := s.scheduledLesson(ctx, groupID, sem.Index, ref.Date, ref.Slot)
	if err != nil {
		return nil, err
	}
	if *lesson.SubjectID != ref.SubjectID {
		return nil, withSlot(ErrSubjectMismatch, groupID, ref.Date, ref.Slot)
	}
	shift, err := calendar.ShiftOf(lesson.StartTime)
	if err != nil {
		return nil, withSlot(err, groupID, ref.Date, ref.Slot)
	}
	if shift != ref.Shift {
		return nil, withSlot(ErrShiftMismatch, groupID, ref.Date, ref.Slot)
	}

	key := model.EntryKey{
		Date:       ref.Date,
		Shift:      ref.Shift,
		LessonSlot: ref.Slot,
		GroupID:    groupID,
		SubjectID:  ref.SubjectID,
	}

	entry, err := s.Repo.Journal.FindByKey(ctx, key)
	if err == nil {
		s.Metrics.Materialized(metrics.OutcomeFound)
		return toEntryResponse(entry), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.Logger.Error("查询课节记录失败", zap.String("group_id", groupID), zap.Stringer("date", ref.Date), zap.Error(err))
		return nil, pkgerrors.Storage("journal.find", err)
	}

	roster, err := s.Repo.Group.ListStudents(ctx, groupID)
	if err != nil {
		s.Logger.Error("查询小组名单失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, pkgerrors.Storage("group.students", err)
	}

	entry = newEntry(key, lesson, roster)
	inserted, err := s.Repo.Journal.InsertIfAbsent(ctx, entry)
	if err != nil {
		s.Logger.Error("创建课节记录失败", zap.String("group_id", groupID), zap.Stringer("date", ref.Date), zap.Error(err))
		return nil, pkgerrors.Storage("journal.insert", err)
	}
	if inserted {
		s.Metrics.Materialized(metrics.OutcomeCreated)
		s.Logger.Info("创建课节记录",
			zap.String("entry_id", entry.EntryID),
			zap.String("group_id", groupID),
			zap.Stringer("date", ref.Date),
			zap.Int("slot", ref.Slot),
			zap.Int("students", len(roster)))
		entry.Subject = lesson.Subject
		return toEntryResponse(entry), nil
	}

	// 并发请求已先行插入
	s.Metrics.Materialized(metrics.OutcomeConflict)
	entry, err = s.Repo.Journal.FindByKey(ctx, key)
	if err != nil {
		s.Logger.Error("重新读取课节记录失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, pkgerrors.Storage("journal.refetch", err)
	}
	return toEntryResponse(entry), nil
}

// scheduledLesson 查找课表中某天某节的课程，没有则返回 ErrSlotNotFound
func (s *journalService) scheduledLesson(ctx context.Context, groupID string, semester int, date calendar.CivilDate, slot int) (*model.ScheduleLesson, error) {
	day := calendar.TeachingDay(date)
	if day == 0 {
		return nil, withSlot(ErrSlotNotFound, groupID, date, slot)
	}
	tpl, err := s.Repo.Schedule.FindByGroupAndSemester(ctx, groupID, semester)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, withSlot(ErrSlotNotFound, groupID, date, slot)
		}
		s.Logger.Error("查询周课表失败", zap.String("group_id", groupID), zap.Int("semester", semester), zap.Error(err))
		return nil, pkgerrors.Storage("schedule.find", err)
	}
	lesson := tpl.Lesson(day, slot)
	if lesson == nil {
		return nil, withSlot(ErrSlotNotFound, groupID, date, slot)
	}
	return lesson, nil
}

// newEntry 按花名册生成新记录，每个学生默认缺勤、无分数
func newEntry(key model.EntryKey, lesson *model.ScheduleLesson, roster []model.Student) *model.JournalEntry {
	entry := &model.JournalEntry{
		Date:       key.Date,
		Shift:      key.Shift,
		LessonSlot: key.LessonSlot,
		GroupID:    key.GroupID,
		SubjectID:  key.SubjectID,
		TeacherID:  lesson.TeacherID,
		LessonKind: kindOr(lesson.LessonKind),
		Marks:      make([]model.JournalMark, 0, len(roster)),
	}
	entry.Version = 1
	for i := range roster {
		entry.Marks = append(entry.Marks, model.JournalMark{
			StudentID:  roster[i].StudentID,
			Attendance: model.AttendanceAbsent,
			Student:    &roster[i],
		})
	}
	return entry
}

// ────────────────────── UpdateRecord ──────────────────────

func (s *journalService) UpdateRecord(ctx context.Context, id string, req *dto.UpdateRecordRequest, actor Actor) (*dto.JournalEntryResponse, error) {
	entry, err := s.Repo.Journal.GetByID(ctx, id)
	if err != nil {
		return nil, s.lookupErr(err, ErrRecordNotFound, "journal.get", zap.String("entry_id", id))
	}

	if !canEdit(actor, entry) {
		return nil, ErrForbidden
	}
	if req.Version != 0 && req.Version != entry.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	changes, err := markChanges(entry, req.Students)
	if err != nil {
		return nil, err
	}

	if req.Topic != nil {
		entry.Topic = *req.Topic
	}
	if req.IsSubmitted != nil {
		entry.IsSubmitted = *req.IsSubmitted
	}
	entry.UpdatedBy = &actor.UserID

	if err := s.Repo.Journal.UpdateMarks(ctx, entry, changes); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.Logger.Error("更新课节记录失败", zap.String("entry_id", id), zap.Error(err))
		return nil, pkgerrors.Storage("journal.update", err)
	}
	applyChanges(entry, changes)
	s.Metrics.RecordUpdated()

	s.publish(ctx, events.AuditEvent{
		Action:      events.ActionGradeChange,
		RecordID:    entry.EntryID,
		GroupID:     entry.GroupID,
		SubjectID:   entry.SubjectID,
		Date:        entry.Date.String(),
		PerformedBy: actor.UserID,
		Role:        actor.Role,
		Changed:     len(changes),
		OccurredAt:  s.Now().UTC(),
	})

	return toEntryResponse(entry), nil
}

func canEdit(actor Actor, entry *model.JournalEntry) bool {
	switch actor.Role {
	case jwt.RoleAdmin:
		return true
	case jwt.RoleTeacher:
		return entry.TeacherID != nil && *entry.TeacherID == actor.UserID
	default:
		return false
	}
}

// markChanges 校验请求中的学生标记，学生必须在记录的名单内
func markChanges(entry *model.JournalEntry, updates []dto.MarkUpdate) ([]repository.MarkChange, error) {
	roster := make(map[string]bool, len(entry.Marks))
	for i := range entry.Marks {
		roster[entry.Marks[i].StudentID] = true
	}

	changes := make([]repository.MarkChange, 0, len(updates))
	for _, u := range updates {
		if !roster[u.StudentID] {
			return nil, fmt.Errorf("学生 %s: %w", u.StudentID, ErrStudentNotInRoster)
		}
		att := model.Attendance(u.Attendance)
		if !att.Valid() {
			return nil, fmt.Errorf("学生 %s: %w", u.StudentID, ErrInvalidAttendance)
		}
		if !validGrade(u.PreparationGrade) || !validGrade(u.TaskGrade) {
			return nil, fmt.Errorf("学生 %s: %w", u.StudentID, ErrInvalidGrade)
		}
		changes = append(changes, repository.MarkChange{
			StudentID:        u.StudentID,
			Attendance:       att,
			PreparationGrade: u.PreparationGrade,
			TaskGrade:        u.TaskGrade,
			Notes:            u.Notes,
		})
	}
	return changes, nil
}

func validGrade(g *int) bool {
	return g == nil || (*g >= model.MinGrade && *g <= model.MaxGrade)
}

func applyChanges(entry *model.JournalEntry, changes []repository.MarkChange) {
	idx := make(map[string]*model.JournalMark, len(entry.Marks))
	for i := range entry.Marks {
		idx[entry.Marks[i].StudentID] = &entry.Marks[i]
	}
	for _, ch := range changes {
		m := idx[ch.StudentID]
		m.Attendance = ch.Attendance
		m.PreparationGrade = ch.PreparationGrade
		m.TaskGrade = ch.TaskGrade
		m.Notes = ch.Notes
	}
}

// publish 审计事件发布失败不影响更新结果
func (s *journalService) publish(ctx context.Context, ev events.AuditEvent) {
	err := s.Events.Publish(ctx, ev)
	s.Metrics.EventPublished(err == nil)
	if err != nil {
		s.Logger.Warn("发布审计事件失败", zap.String("record_id", ev.RecordID), zap.Error(err))
	}
}

// ────────────────────── LessonsByGroupAndDate ──────────────────────

func (s *journalService) LessonsByGroupAndDate(ctx context.Context, groupID string, date calendar.CivilDate, semester int) (*dto.DayLessonsResponse, error) {
	if date.IsZero() {
		date = s.today()
	}
	group, err := s.Repo.Group.GetByID(ctx, groupID)
	if err != nil {
		return nil, s.lookupErr(err, ErrGroupNotFound, "group.get", zap.String("group_id", groupID))
	}
	sem, err := s.resolveSemester(date, semester)
	if err != nil {
		return nil, err
	}

	resp := &dto.DayLessonsResponse{
		GroupID:   group.GroupID,
		GroupName: group.Name,
		Date:      date.String(),
		Weekday:   weekdayName(date),
		Semester:  sem.Index,
		Lessons:   []dto.LessonResponse{},
	}

	day := calendar.TeachingDay(date)
	if day == 0 {
		return resp, nil
	}
	tpl, err := s.template(ctx, groupID, sem.Index)
	if err != nil {
		return nil, err
	}

	for slot := 1; slot <= calendar.LessonsPerDay; slot++ {
		l := tpl.Lesson(day, slot)
		if l == nil {
			continue
		}
		shift, err := calendar.ShiftOf(l.StartTime)
		if err != nil {
			s.Logger.Warn("课表上课时间无效", zap.String("lesson_id", l.LessonID), zap.String("start", l.StartTime))
		}
		resp.Lessons = append(resp.Lessons, lessonResponse(l, shift))
	}
	return resp, nil
}

func lessonResponse(l *model.ScheduleLesson, shift int) dto.LessonResponse {
	r := dto.LessonResponse{
		Slot:        l.SlotNumber,
		Shift:       shift,
		Time:        l.Time(),
		SubjectID:   *l.SubjectID,
		SubjectName: l.SubjectName(),
		TeacherID:   l.TeacherID,
		LessonKind:  string(kindOr(l.LessonKind)),
		Classroom:   l.Classroom,
	}
	if l.Teacher != nil {
		r.TeacherName = l.Teacher.Name
	}
	return r
}

// ────────────────────── Notes ──────────────────────

func (s *journalService) GroupNotes(ctx context.Context, groupID string) ([]dto.NoteGroupResponse, error) {
	if _, err := s.Repo.Group.GetByID(ctx, groupID); err != nil {
		return nil, s.lookupErr(err, ErrGroupNotFound, "group.get", zap.String("group_id", groupID))
	}
	rows, err := s.Repo.Journal.ListNotes(ctx, repository.NotesQuery{GroupID: groupID})
	if err != nil {
		s.Logger.Error("查询备注失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, pkgerrors.Storage("journal.notes", err)
	}
	return groupNotes(rows), nil
}

func (s *journalService) StudentNotes(ctx context.Context, studentID string) ([]dto.NoteGroupResponse, error) {
	if _, err := s.Repo.Student.GetByID(ctx, studentID); err != nil {
		return nil, s.lookupErr(err, ErrStudentNotFound, "student.get", zap.String("student_id", studentID))
	}
	rows, err := s.Repo.Journal.ListNotes(ctx, repository.NotesQuery{StudentID: studentID})
	if err != nil {
		s.Logger.Error("查询备注失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, pkgerrors.Storage("journal.notes", err)
	}
	return groupNotes(rows), nil
}

// groupNotes 按小组名称分组，组内保持查询顺序（从新到旧）
func groupNotes(rows []model.NoteRow) []dto.NoteGroupResponse {
	byGroup := make(map[string]*dto.NoteGroupResponse)
	var order []string
	for _, r := range rows {
		g := byGroup[r.GroupID]
		if g == nil {
			g = &dto.NoteGroupResponse{GroupID: r.GroupID, GroupName: r.GroupName}
			byGroup[r.GroupID] = g
			order = append(order, r.GroupID)
		}
		g.Notes = append(g.Notes, dto.NoteResponse{
			EntryID:     r.EntryID,
			Date:        longDate(r.Date),
			Subject:     r.SubjectName,
			Teacher:     r.TeacherName,
			StudentID:   r.StudentID,
			StudentName: r.FullName,
			Notes:       r.Notes,
		})
	}

	result := make([]dto.NoteGroupResponse, 0, len(order))
	for _, id := range order {
		result = append(result, *byGroup[id])
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].GroupName < result[j].GroupName })
	return result
}

// ────────────────────── 内部方法 ──────────────────────

// lookupErr 记录未找到以外的存储错误
func (d *Deps) lookupErr(err error, notFound error, op string, fields ...zap.Field) error {
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		d.Logger.Error("查询失败", append(fields, zap.String("op", op), zap.Error(err))...)
	}
	return notFoundOr(err, notFound, op)
}

func toEntryResponse(e *model.JournalEntry) *dto.JournalEntryResponse {
	resp := &dto.JournalEntryResponse{
		ID:          e.EntryID,
		Date:        e.Date.String(),
		Shift:       e.Shift,
		LessonSlot:  e.LessonSlot,
		GroupID:     e.GroupID,
		SubjectID:   e.SubjectID,
		SubjectName: e.SubjectName(),
		TeacherID:   e.TeacherID,
		LessonKind:  string(kindOr(e.LessonKind)),
		Topic:       e.Topic,
		IsSubmitted: e.IsSubmitted,
		Version:     e.Version,
		Students:    make([]dto.MarkResponse, 0, len(e.Marks)),
	}
	for _, m := range e.Marks {
		mr := dto.MarkResponse{
			StudentID:        m.StudentID,
			Attendance:       string(m.Attendance),
			PreparationGrade: m.PreparationGrade,
			TaskGrade:        m.TaskGrade,
			Notes:            m.Notes,
		}
		if m.Student != nil {
			mr.FullName = m.Student.FullName
		}
		resp.Students = append(resp.Students, mr)
	}
	return resp
}
