package model

import (
	"time"

	"academic-journal/backend/pkg/calendar"
)

// 以下为聚合查询的结果行，不对应数据表

// AbsenceCount 学生缺勤课时统计
type AbsenceCount struct {
	StudentID string `json:"student_id"`
	FullName  string `json:"full_name"`
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
	Count     int    `json:"count"`
}

// GroupActivity 小组课节记录数
type GroupActivity struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
	Entries   int64  `json:"entries"`
}

// JournalTotals 全校出勤与作业分汇总
type JournalTotals struct {
	Marks        int64
	Present      int64
	TaskGraded   int64
	TaskGradeSum int64
}

// NoteRow 学生备注
type NoteRow struct {
	EntryID     string             `json:"entry_id"`
	Date        calendar.CivilDate `json:"date"`
	LessonSlot  int                `json:"lesson_slot"`
	GroupID     string             `json:"group_id"`
	GroupName   string             `json:"group_name"`
	SubjectName string             `json:"subject_name"`
	TeacherName string             `json:"teacher_name"`
	StudentID   string             `json:"student_id"`
	FullName    string             `json:"full_name"`
	Notes       string             `json:"notes"`
	UpdatedAt   time.Time          `json:"updated_at"`
}
