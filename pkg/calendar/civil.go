package calendar

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// CivilDate 民用日期（年、月、日），不携带时区
// 可直接用 == 比较，也可作为 map 键；记录与课表的连接全部以它为键
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// Date 构造规范化的 CivilDate（越界的月日会按 time.Date 规则进位）
func Date(year int, month time.Month, day int) CivilDate {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime 取 t 在其自身时区下的年月日
func FromTime(t time.Time) CivilDate {
	y, m, d := t.Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// ParseDate 仅解析 "2006-01-02"
// 带时区的时间戳必须经 Normalizer.ToCivilDay 归一，不能按其自带偏移取日期
func ParseDate(s string) (CivilDate, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return CivilDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return FromTime(t), nil
}

// IsZero 是否为零值
func (d CivilDate) IsZero() bool {
	return d == CivilDate{}
}

// Valid 年月日组合是否真实存在
func (d CivilDate) Valid() bool {
	if d.IsZero() || d.Year < 1 {
		return false
	}
	return Date(d.Year, d.Month, d.Day) == d
}

// In 返回该日期在 loc 时区的零点
func (d CivilDate) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d CivilDate) utc() time.Time { return d.In(time.UTC) }

// Weekday 星期几
func (d CivilDate) Weekday() time.Weekday { return d.utc().Weekday() }

// AddDays 向后推 n 天（n 可为负）
func (d CivilDate) AddDays(n int) CivilDate {
	return FromTime(d.utc().AddDate(0, 0, n))
}

// DaysSince 返回 d 与 o 相差的天数（d - o）
func (d CivilDate) DaysSince(o CivilDate) int {
	return int(d.utc().Sub(o.utc()).Hours() / 24)
}

// Compare 比较两个日期：d<o 返回 -1，相等返回 0，否则返回 1
func (d CivilDate) Compare(o CivilDate) int {
	switch {
	case d.Year != o.Year:
		return sign(d.Year - o.Year)
	case d.Month != o.Month:
		return sign(int(d.Month) - int(o.Month))
	default:
		return sign(d.Day - o.Day)
	}
}

func (d CivilDate) Before(o CivilDate) bool { return d.Compare(o) < 0 }
func (d CivilDate) After(o CivilDate) bool  { return d.Compare(o) > 0 }

// Format 按 time 布局格式化
func (d CivilDate) Format(layout string) string { return d.utc().Format(layout) }

func (d CivilDate) String() string { return d.Format(dateLayout) }

// ── JSON ──

func (d CivilDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *CivilDate) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*d = CivilDate{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ── GORM Scanner / Valuer（对应 PostgreSQL DATE 列）──

// Scan DATE 列不带时区，驱动返回的 time.Time 直接取年月日
func (d *CivilDate) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = CivilDate{}
		return nil
	case time.Time:
		*d = FromTime(v)
		return nil
	case []byte:
		return d.scanString(string(v))
	case string:
		return d.scanString(v)
	default:
		return fmt.Errorf("CivilDate.Scan: unsupported type %T", src)
	}
}

func (d *CivilDate) scanString(s string) error {
	if len(s) >= len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d CivilDate) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// Normalizer 将任意时间戳归一到固定时区的民用日期
// 与宿主机时区无关：同一时区墙钟日期相同的两个时间戳得到相等的 CivilDate
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer 使用指定时区创建 Normalizer，loc 为 nil 时使用 UTC
func NewNormalizer(loc *time.Location) Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return Normalizer{loc: loc}
}

// LoadNormalizer 按 IANA 时区名创建 Normalizer
func LoadNormalizer(name string) (Normalizer, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Normalizer{}, fmt.Errorf("加载时区 %q 失败: %w", name, err)
	}
	return NewNormalizer(loc), nil
}

// ToCivilDay 返回 t 在固定时区下的日期
func (n Normalizer) ToCivilDay(t time.Time) CivilDate {
	return FromTime(t.In(n.Location()))
}

// Location 固定时区
func (n Normalizer) Location() *time.Location {
	if n.loc == nil {
		return time.UTC
	}
	return n.loc
}
