package service

import (
	"strconv"

	"academic-journal/backend/internal/model"
	"academic-journal/backend/pkg/calendar"
)

// EmptyCell 未排课或未评分单元格的占位符
const EmptyCell = "—"

// GridInput 网格构建输入
// Entries 的 Date 已是固定时区下的民用日期，直接作为按天索引的键
type GridInput struct {
	Semester  calendar.Semester
	AsOf      calendar.CivilDate
	Template  *model.WeeklySchedule // 可为 nil
	Entries   []model.JournalEntry
	Weeks     []int  // 为空时构建第 1 周至 WeekCount(AsOf)
	SubjectID string // 非空时只保留该课程的课节与记录
}

// SlotCell 小组网格单元格：课表课节叠加至多一条课节记录
type SlotCell struct {
	SubjectID   string
	SubjectName string
	LessonKind  model.LessonKind
	Lesson      *model.ScheduleLesson
	Entry       *model.JournalEntry
}

// Scheduled 该单元格是否有课程
func (c *SlotCell) Scheduled() bool { return c.SubjectID != "" }

// GridDay 一个教学日的 6 个单元格
type GridDay struct {
	Date    calendar.CivilDate
	Elapsed bool // 不晚于 AsOf，缺评零分规则只作用于已过去的日期
	Cells   [calendar.LessonsPerDay]SlotCell
}

// GridWeek 一个教学周，恒为 6 天
type GridWeek struct {
	Number int
	Days   []GridDay
}

// Grid 小组学期网格
type Grid struct {
	Semester calendar.Semester
	AsOf     calendar.CivilDate
	Weeks    []GridWeek

	// entryID → studentID → mark，构建时一次生成
	marks map[string]map[string]*model.JournalMark
}

// BuildGrid 合并周课表与稀疏课节记录，生成 周 → 天 → 6 节 的稠密网格
func BuildGrid(in GridInput) *Grid {
	weeks := in.Weeks
	if len(weeks) == 0 {
		n := in.Semester.WeekCount(in.AsOf)
		weeks = make([]int, n)
		for i := range weeks {
			weeks[i] = i + 1
		}
	}

	byDay := make(map[calendar.CivilDate][]*model.JournalEntry)
	marks := make(map[string]map[string]*model.JournalMark, len(in.Entries))
	for i := range in.Entries {
		e := &in.Entries[i]
		if e.LessonSlot < 1 || e.LessonSlot > calendar.LessonsPerDay {
			continue
		}
		if in.SubjectID != "" && e.SubjectID != in.SubjectID {
			continue
		}
		byDay[e.Date] = append(byDay[e.Date], e)

		idx := make(map[string]*model.JournalMark, len(e.Marks))
		for j := range e.Marks {
			idx[e.Marks[j].StudentID] = &e.Marks[j]
		}
		marks[e.EntryID] = idx
	}

	g := &Grid{
		Semester: in.Semester,
		AsOf:     in.AsOf,
		Weeks:    make([]GridWeek, 0, len(weeks)),
		marks:    marks,
	}

	for _, w := range weeks {
		if !in.Semester.ValidWeek(w) {
			continue
		}
		week := GridWeek{Number: w, Days: make([]GridDay, 0, calendar.TeachingDaysPerWeek)}
		for _, date := range in.Semester.WeekDays(w) {
			day := GridDay{Date: date, Elapsed: !date.After(in.AsOf)}
			fillTemplate(&day, in.Template, in.SubjectID)
			for _, e := range byDay[date] {
				overlay(&day.Cells[e.LessonSlot-1], e)
			}
			week.Days = append(week.Days, day)
		}
		g.Weeks = append(g.Weeks, week)
	}

	return g
}

func fillTemplate(day *GridDay, template *model.WeeklySchedule, subjectID string) {
	teachingDay := calendar.TeachingDay(day.Date)
	for slot := 1; slot <= calendar.LessonsPerDay; slot++ {
		cell := &day.Cells[slot-1]
		cell.SubjectName = EmptyCell
		if teachingDay == 0 {
			continue
		}
		l := template.Lesson(teachingDay, slot)
		if l == nil || (subjectID != "" && *l.SubjectID != subjectID) {
			continue
		}
		cell.Lesson = l
		cell.SubjectID = *l.SubjectID
		cell.SubjectName = nameOr(l.SubjectName(), EmptyCell)
		cell.LessonKind = kindOr(l.LessonKind)
	}
}

// overlay 记录是课程身份的最终依据
func overlay(cell *SlotCell, e *model.JournalEntry) {
	name := e.SubjectName()
	if name == "" && cell.SubjectID == e.SubjectID {
		name = cell.SubjectName
	}
	cell.Entry = e
	cell.SubjectID = e.SubjectID
	cell.SubjectName = nameOr(name, EmptyCell)
	cell.LessonKind = kindOr(e.LessonKind)
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

func kindOr(k model.LessonKind) model.LessonKind {
	if k.Valid() {
		return k
	}
	return model.LessonPractice
}

// Week 返回指定周，不存在时返回 nil
func (g *Grid) Week(number int) *GridWeek {
	for i := range g.Weeks {
		if g.Weeks[i].Number == number {
			return &g.Weeks[i]
		}
	}
	return nil
}

// LessonCounts 每门课程每周的课节数：subjectID → weekNumber → count
func (g *Grid) LessonCounts() map[string]map[int]int {
	counts := make(map[string]map[int]int)
	for _, w := range g.Weeks {
		for _, d := range w.Days {
			for i := range d.Cells {
				c := &d.Cells[i]
				if !c.Scheduled() {
					continue
				}
				if counts[c.SubjectID] == nil {
					counts[c.SubjectID] = make(map[int]int)
				}
				counts[c.SubjectID][w.Number]++
			}
		}
	}
	return counts
}

// SubjectRef 课程 ID 与名称
type SubjectRef struct {
	ID   string
	Name string
}

// Subjects 网格中出现的课程，按首次出现顺序
func (g *Grid) Subjects() []SubjectRef {
	seen := make(map[string]bool)
	var refs []SubjectRef
	for _, w := range g.Weeks {
		for _, d := range w.Days {
			for i := range d.Cells {
				c := &d.Cells[i]
				if !c.Scheduled() || seen[c.SubjectID] {
					continue
				}
				seen[c.SubjectID] = true
				refs = append(refs, SubjectRef{ID: c.SubjectID, Name: c.SubjectName})
			}
		}
	}
	return refs
}

// ────────────────────── 学生投影 ──────────────────────

// StudentCell 单个学生视角的单元格
type StudentCell struct {
	SubjectID        string
	SubjectName      string
	LessonKind       model.LessonKind
	Attendance       model.Attendance // 空串表示无记录
	PreparationGrade *int
	TaskGrade        *int
	Grade            *int // 作业分优先，缺评按规则补 0
	Notes            string
}

// Scheduled 该单元格是否有课程
func (c StudentCell) Scheduled() bool { return c.SubjectID != "" }

// GradeText 分数文本，未评分为 "—"
func (c StudentCell) GradeText() string {
	if c.Grade == nil {
		return EmptyCell
	}
	return strconv.Itoa(*c.Grade)
}

// StudentDay 学生某天的 6 个单元格
type StudentDay struct {
	Date  calendar.CivilDate
	Cells [calendar.LessonsPerDay]StudentCell
}

// StudentWeek 学生某周
type StudentWeek struct {
	Number int
	Days   []StudentDay
}

// StudentGrid 单个学生的网格投影
type StudentGrid struct {
	StudentID string
	Weeks     []StudentWeek
}

// ForStudent 将小组网格投影到单个学生
// 有课程、非讲座、无分数且日期不晚于 AsOf 的单元格记 0 分
func (g *Grid) ForStudent(studentID string) *StudentGrid {
	sg := &StudentGrid{StudentID: studentID, Weeks: make([]StudentWeek, 0, len(g.Weeks))}
	for _, w := range g.Weeks {
		sw := StudentWeek{Number: w.Number, Days: make([]StudentDay, 0, len(w.Days))}
		for _, d := range w.Days {
			sd := StudentDay{Date: d.Date}
			for i := range d.Cells {
				sd.Cells[i] = g.studentCell(&d.Cells[i], studentID, d.Elapsed)
			}
			sw.Days = append(sw.Days, sd)
		}
		sg.Weeks = append(sg.Weeks, sw)
	}
	return sg
}

func (g *Grid) studentCell(c *SlotCell, studentID string, elapsed bool) StudentCell {
	sc := StudentCell{
		SubjectID:   c.SubjectID,
		SubjectName: c.SubjectName,
		LessonKind:  c.LessonKind,
	}
	if c.Entry != nil {
		if m := g.marks[c.Entry.EntryID][studentID]; m != nil {
			sc.Attendance = m.Attendance
			sc.PreparationGrade = m.PreparationGrade
			sc.TaskGrade = m.TaskGrade
			sc.Grade = m.Grade()
			sc.Notes = m.Notes
		}
	}
	if elapsed && sc.Grade == nil && sc.Scheduled() && sc.LessonKind != model.LessonLecture {
		zero := 0
		sc.Grade = &zero
	}
	return sc
}

// Cells 按时间顺序展开全部单元格
func (sg *StudentGrid) Cells() []StudentCell {
	var cells []StudentCell
	for _, w := range sg.Weeks {
		for _, d := range w.Days {
			cells = append(cells, d.Cells[:]...)
		}
	}
	return cells
}
