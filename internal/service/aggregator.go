package service

import (
	"math"
	"sort"

	"academic-journal/backend/internal/model"
)

// DefaultHighAbsenceThreshold 缺勤超过 48 课时即预警
const DefaultHighAbsenceThreshold = 48

// AttendanceStats 出勤统计
// Total 只计有出勤状态的单元格；Absent 不含迟到
type AttendanceStats struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Rate    int `json:"rate"` // 百分比，四舍五入
}

// GradeStats 分数统计
type GradeStats struct {
	Total   int     `json:"total"`
	Average float64 `json:"average"` // 保留 1 位小数
	Max     int     `json:"max_grade"`
	Min     int     `json:"min_grade"`
}

// SummarizeAttendance 汇总出勤，未排课或无记录的单元格不计入分母
func SummarizeAttendance(cells []StudentCell) AttendanceStats {
	var s AttendanceStats
	for _, c := range cells {
		switch c.Attendance {
		case model.AttendancePresent:
			s.Present++
		case model.AttendanceAbsent:
			s.Absent++
		case model.AttendanceLate:
			s.Late++
		default:
			continue
		}
		s.Total++
	}
	s.Rate = percent(s.Present, s.Total)
	return s
}

// AttendanceRate round(present / total * 100)，无记录时为 0
// 服务层直接使用 SummarizeAttendance 以同时取得各项计数
func AttendanceRate(cells []StudentCell) int {
	return SummarizeAttendance(cells).Rate
}

// SummarizeGrades 汇总所有数值分数
func SummarizeGrades(cells []StudentCell) GradeStats {
	var (
		s   GradeStats
		sum int
	)
	for _, c := range cells {
		if c.Grade == nil {
			continue
		}
		g := *c.Grade
		if s.Total == 0 || g > s.Max {
			s.Max = g
		}
		if s.Total == 0 || g < s.Min {
			s.Min = g
		}
		sum += g
		s.Total++
	}
	if s.Total > 0 {
		s.Average = round1(float64(sum) / float64(s.Total))
	}
	return s
}

// AverageGrade 数值分数均值，保留 1 位小数；无分数时为 0
func AverageGrade(cells []StudentCell) float64 {
	return SummarizeGrades(cells).Average
}

// Extremes 最高分与最低分，无分数时均为 0
func Extremes(cells []StudentCell) (maxGrade, minGrade int) {
	s := SummarizeGrades(cells)
	return s.Max, s.Min
}

// FlagHighAbsence 统计每个学生的缺勤次数，返回超过阈值者（按次数降序）
// 这是高缺勤判定的参考定义；报表在数据库中按学生计数后经 AboveThreshold 得到相同结果
func FlagHighAbsence(entries []model.JournalEntry, threshold int) []model.AbsenceCount {
	counts := make(map[string]int)
	for i := range entries {
		for _, m := range entries[i].Marks {
			if m.Attendance == model.AttendanceAbsent {
				counts[m.StudentID]++
			}
		}
	}
	rows := make([]model.AbsenceCount, 0, len(counts))
	for id, n := range counts {
		rows = append(rows, model.AbsenceCount{StudentID: id, Count: n})
	}
	return AboveThreshold(rows, threshold)
}

// AboveThreshold 过滤缺勤次数严格大于阈值的行并按次数降序排列
func AboveThreshold(rows []model.AbsenceCount, threshold int) []model.AbsenceCount {
	flagged := make([]model.AbsenceCount, 0, len(rows))
	for _, r := range rows {
		if r.Count > threshold {
			flagged = append(flagged, r)
		}
	}
	sort.SliceStable(flagged, func(i, j int) bool {
		if flagged[i].Count != flagged[j].Count {
			return flagged[i].Count > flagged[j].Count
		}
		return flagged[i].StudentID < flagged[j].StudentID
	})
	return flagged
}

// SubjectAverage 单门课程的平均分
type SubjectAverage struct {
	SubjectID   string  `json:"subject_id"`
	SubjectName string  `json:"subject"`
	Lessons     int     `json:"lessons"`
	Average     float64 `json:"average"`
}

// SubjectAverages 按课程计算学生平均分：跳过讲座，缺评按 0 计
// 结果按课程名排序
func SubjectAverages(entries []model.JournalEntry, studentID string) []SubjectAverage {
	type acc struct {
		name       string
		sum, count int
	}
	bySubject := make(map[string]*acc)
	for i := range entries {
		e := &entries[i]
		if e.LessonKind == model.LessonLecture {
			continue
		}
		for j := range e.Marks {
			m := &e.Marks[j]
			if m.StudentID != studentID {
				continue
			}
			a := bySubject[e.SubjectID]
			if a == nil {
				a = &acc{name: nameOr(e.SubjectName(), EmptyCell)}
				bySubject[e.SubjectID] = a
			}
			if g := m.Grade(); g != nil {
				a.sum += *g
			}
			a.count++
		}
	}

	result := make([]SubjectAverage, 0, len(bySubject))
	for id, a := range bySubject {
		result = append(result, SubjectAverage{
			SubjectID:   id,
			SubjectName: a.name,
			Lessons:     a.count,
			Average:     round1(float64(a.sum) / float64(a.count)),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].SubjectName != result[j].SubjectName {
			return result[i].SubjectName < result[j].SubjectName
		}
		return result[i].SubjectID < result[j].SubjectID
	})
	return result
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
