package service

import (
	"academic-journal/backend/internal/dto"
	"academic-journal/backend/pkg/calendar"
)

var weekdayNames = [...]string{
	"воскресенье", "понедельник", "вторник", "среда", "четверг", "пятница", "суббота",
}

func weekdayName(d calendar.CivilDate) string {
	return weekdayNames[d.Weekday()]
}

// shortDate dd.MM
func shortDate(d calendar.CivilDate) string { return d.Format("02.01") }

// longDate dd.MM.yyyy
func longDate(d calendar.CivilDate) string { return d.Format("02.01.2006") }

func semesterBrief(s calendar.Semester) dto.SemesterBrief {
	return dto.SemesterBrief{
		Index:        s.Index,
		AcademicYear: s.AcademicYear,
		StartDate:    s.Start.String(),
		MaxWeeks:     s.MaxWeeks,
	}
}

func dayHeader(d calendar.CivilDate) dto.DayHeader {
	return dto.DayHeader{Date: shortDate(d), FullDate: d.String(), Weekday: weekdayName(d)}
}

func cellResponse(c StudentCell) dto.CellResponse {
	resp := dto.CellResponse{
		SubjectID:        c.SubjectID,
		SubjectName:      c.SubjectName,
		PreparationGrade: c.PreparationGrade,
		TaskGrade:        c.TaskGrade,
		Grade:            c.GradeText(),
	}
	if c.Scheduled() {
		kind := string(c.LessonKind)
		resp.LessonKind = &kind
	}
	if c.Attendance != "" {
		att := string(c.Attendance)
		resp.Attendance = &att
	}
	return resp
}
