// Package calendar 实现校历规则：民用日期、学期推断与教学周计算。
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	pkgerrors "academic-journal/backend/pkg/errors"
)

const (
	FallSemester   = 1
	SpringSemester = 2

	DefaultSpringStartDay = 1
	DefaultMaxWeeks       = 16

	// TeachingDaysPerWeek 每个教学周的上课天数（周一至周六）
	TeachingDaysPerWeek = 6
	// LessonsPerDay 每天最多课节数
	LessonsPerDay = 6
	// AfternoonShiftHour 上课开始时刻不早于该小时即为第二班
	AfternoonShiftHour = 13
)

var (
	ErrInvalidDate     = pkgerrors.New(pkgerrors.KindValidation, "日期无效")
	ErrInvalidSemester = pkgerrors.New(pkgerrors.KindValidation, "学期只能为 1 或 2")
	ErrInvalidWeek     = pkgerrors.New(pkgerrors.KindValidation, "教学周超出范围")
	ErrInvalidTime     = pkgerrors.New(pkgerrors.KindValidation, "时间格式应为 HH:MM")
)

// Semester 已确定的学期：序号、开学日与学年（九月所在年份）
type Semester struct {
	Index        int       `json:"index"`
	Start        CivilDate `json:"start"`
	AcademicYear int       `json:"academic_year"`
	MaxWeeks     int       `json:"max_weeks"`
}

// Policy 校历策略
// 第一学期：九月一日开学，九月至次年一月（一月为寒假，落在 16 周之外）
// 第二学期：二月 SpringStartDay 日开学，二月至八月
type Policy struct {
	SpringStartDay int
	MaxWeeks       int
}

// DefaultPolicy 默认校历：二月一日开学，每学期 16 周
func DefaultPolicy() Policy {
	return Policy{SpringStartDay: DefaultSpringStartDay, MaxWeeks: DefaultMaxWeeks}
}

// NewPolicy 非法参数回退为默认值
func NewPolicy(springStartDay, maxWeeks int) Policy {
	p := DefaultPolicy()
	if springStartDay >= 1 && springStartDay <= 28 {
		p.SpringStartDay = springStartDay
	}
	if maxWeeks > 0 {
		p.MaxWeeks = maxWeeks
	}
	return p
}

// AcademicYearOf 日期所属学年（以九月所在年份表示）
func (p Policy) AcademicYearOf(d CivilDate) int {
	if d.Month >= time.September {
		return d.Year
	}
	return d.Year - 1
}

// InferSemester 按月份推断学期：九月至一月为第一学期，其余为第二学期
func (p Policy) InferSemester(d CivilDate) int {
	if d.Month >= time.September || d.Month == time.January {
		return FallSemester
	}
	return SpringSemester
}

// ResolveSemester 确定参考日期所在学期
// explicit 为 0 时按日期推断；显式指定学期时，学年仍由参考日期决定
func (p Policy) ResolveSemester(ref CivilDate, explicit int) (Semester, error) {
	if !ref.Valid() {
		return Semester{}, ErrInvalidDate
	}

	index := explicit
	switch explicit {
	case 0:
		index = p.InferSemester(ref)
	case FallSemester, SpringSemester:
	default:
		return Semester{}, fmt.Errorf("%w: %d", ErrInvalidSemester, explicit)
	}

	year := p.AcademicYearOf(ref)
	return p.semester(year, index), nil
}

// SemesterOf 按学年和序号构造学期
func (p Policy) SemesterOf(academicYear, index int) (Semester, error) {
	if index != FallSemester && index != SpringSemester {
		return Semester{}, fmt.Errorf("%w: %d", ErrInvalidSemester, index)
	}
	return p.semester(academicYear, index), nil
}

func (p Policy) semester(year, index int) Semester {
	maxWeeks := p.MaxWeeks
	if maxWeeks <= 0 {
		maxWeeks = DefaultMaxWeeks
	}
	start := Date(year, time.September, 1)
	if index == SpringSemester {
		day := p.SpringStartDay
		if day <= 0 {
			day = DefaultSpringStartDay
		}
		start = Date(year+1, time.February, day)
	}
	return Semester{Index: index, Start: start, AcademicYear: year, MaxWeeks: maxWeeks}
}

// ────── 教学周 ──────

// WeekCount 截至 asOf（含当天）已开始的教学周数，上限 MaxWeeks；开学前为 0
func (s Semester) WeekCount(asOf CivilDate) int {
	if asOf.Before(s.Start) {
		return 0
	}
	n := asOf.DaysSince(s.Start)/7 + 1
	if n > s.MaxWeeks {
		return s.MaxWeeks
	}
	return n
}

// WeekNumberAt 日期所在教学周，夹在 [1, MaxWeeks] 之间
func (s Semester) WeekNumberAt(d CivilDate) int {
	if d.Before(s.Start) {
		return 1
	}
	n := d.DaysSince(s.Start)/7 + 1
	if n > s.MaxWeeks {
		return s.MaxWeeks
	}
	return n
}

// ValidWeek 周次是否在学期范围内
func (s Semester) ValidWeek(week int) bool {
	return week >= 1 && week <= s.MaxWeeks
}

// WeekStart 第 week 周的第一天
func (s Semester) WeekStart(week int) CivilDate {
	return s.Start.AddDays((week - 1) * 7)
}

// WeekDays 第 week 周的六个连续教学日
func (s Semester) WeekDays(week int) []CivilDate {
	first := s.WeekStart(week)
	days := make([]CivilDate, TeachingDaysPerWeek)
	for i := range days {
		days[i] = first.AddDays(i)
	}
	return days
}

// End 学期最后一个教学日
func (s Semester) End() CivilDate {
	return s.WeekStart(s.MaxWeeks).AddDays(TeachingDaysPerWeek - 1)
}

// Contains 日期是否落在学期教学周内
func (s Semester) Contains(d CivilDate) bool {
	return !d.Before(s.Start) && !d.After(s.End())
}

// ────── 课表日与班次 ──────

// TeachingDay 周一为 1 … 周六为 6，周日返回 0（无课表）
func TeachingDay(d CivilDate) int {
	wd := d.Weekday()
	if wd == time.Sunday {
		return 0
	}
	return int(wd)
}

// ParseClock 解析 "HH:MM"，返回自零点起的分钟数
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return h*60 + m, nil
}

// ShiftOf 按上课开始时刻确定班次：13:00 及以后为第二班
func ShiftOf(startTime string) (int, error) {
	minutes, err := ParseClock(startTime)
	if err != nil {
		return 0, err
	}
	if minutes >= AfternoonShiftHour*60 {
		return 2, nil
	}
	return 1, nil
}
