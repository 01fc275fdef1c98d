package model

import "testing"

func TestAttendanceLetter(t *testing.T) {
	cases := map[Attendance]string{
		AttendancePresent: "H",
		AttendanceAbsent:  "N",
		AttendanceLate:    "L",
		Attendance(""):    "—",
		Attendance("x"):   "—",
	}
	for in, want := range cases {
		if got := in.Letter(); got != want {
			t.Errorf("%q.Letter() 期望 %s，实际 %s", in, want, got)
		}
	}
}

func TestLessonKind(t *testing.T) {
	if LessonLecture.Gradable() {
		t.Error("讲座课不应计缺评零分")
	}
	if !LessonPractice.Gradable() || !LessonLab.Gradable() {
		t.Error("实践课与实验课应计缺评零分")
	}
	if LessonKind("seminar").Valid() {
		t.Error("seminar 不是合法课型")
	}
}

func TestMarkGradePrefersTask(t *testing.T) {
	prep, task := 3, 5
	m := JournalMark{PreparationGrade: &prep}
	if g := m.Grade(); g == nil || *g != 3 {
		t.Errorf("无作业分时应取准备分")
	}
	m.TaskGrade = &task
	if g := m.Grade(); g == nil || *g != 5 {
		t.Errorf("应优先取作业分")
	}
	if (&JournalMark{}).Grade() != nil {
		t.Error("均为空时应返回 nil")
	}
}

func TestWeeklyScheduleLesson(t *testing.T) {
	math := "subj-math"
	w := &WeeklySchedule{Lessons: []ScheduleLesson{
		{DayOfWeek: 1, SlotNumber: 1, SubjectID: &math},
		{DayOfWeek: 1, SlotNumber: 2},
	}}
	if w.Lesson(1, 1) == nil {
		t.Error("周一第1节应有课")
	}
	if w.Lesson(1, 2) != nil {
		t.Error("未排课程的课节应视为无课")
	}
	var empty *WeeklySchedule
	if empty.Lesson(1, 1) != nil {
		t.Error("nil 课表应返回 nil")
	}
}
