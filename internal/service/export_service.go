package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"academic-journal/backend/pkg/calendar"
	pkgerrors "academic-journal/backend/pkg/errors"
)

// ErrExportGenerateFail 生成导出文件失败
var ErrExportGenerateFail = pkgerrors.New(pkgerrors.KindInternal, "生成导出文件失败")

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response
type ExportService interface {
	// ExportSemesterGrid 导出小组截至今天的学期网格为 Excel，每周一个 Sheet
	ExportSemesterGrid(ctx context.Context, groupID string, semester int, subjectID string) (*bytes.Buffer, string, error)
	// ExportTimetableICS 将周课表展开为整个学期的 iCalendar 日程
	ExportTimetableICS(ctx context.Context, groupID string, semester int) (*bytes.Buffer, string, error)
}

type exportService struct {
	Deps
	grid GridService
}

// NewExportService 创建 ExportService 实例
func NewExportService(d Deps, grid GridService) ExportService {
	d.withDefaults()
	return &exportService{Deps: d, grid: grid}
}

// ═══════════════════════════════════════════════════════════
// ExportSemesterGrid 学期网格导出为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - Sheet "第1周" / "第2周" …
//   - 第 1 行：标题；第 2 行：日期（每天合并 6 列）；第 3 行：节次
//   - 数据行：每名学生一行，单元格为 出勤代码 + 分数（如 "H 5"）

func (s *exportService) ExportSemesterGrid(ctx context.Context, groupID string, semester int, subjectID string) (*bytes.Buffer, string, error) {
	gg, err := s.grid.GroupGrid(ctx, groupID, semester, subjectID)
	if err != nil {
		return nil, "", err
	}
	sem := gg.Grid.Semester

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	lastCol := colName(calendar.TeachingDaysPerWeek * calendar.LessonsPerDay)

	if len(gg.Grid.Weeks) == 0 {
		sheet := "说明"
		idx, _ := f.NewSheet(sheet)
		f.SetActiveSheet(idx)
		f.SetCellValue(sheet, "A1", fmt.Sprintf("%s — 第%d学期尚未开始", gg.Group.Name, sem.Index))
	}

	for wi, week := range gg.Grid.Weeks {
		sheet := fmt.Sprintf("第%d周", week.Number)
		idx, _ := f.NewSheet(sheet)
		if wi == 0 {
			f.SetActiveSheet(idx)
		}

		f.SetColWidth(sheet, "A", "A", 28)
		f.SetColWidth(sheet, "B", lastCol, 6)

		// 标题行
		from := sem.WeekStart(week.Number)
		f.SetCellValue(sheet, "A1", fmt.Sprintf("%s — 第%d周 (%s - %s)",
			gg.Group.Name, week.Number, longDate(from), longDate(from.AddDays(calendar.TeachingDaysPerWeek-1))))
		f.MergeCell(sheet, "A1", cell(lastCol, 1))
		f.SetCellStyle(sheet, "A1", "A1", headerStyle)

		// 表头
		f.SetCellValue(sheet, "A2", "学生")
		f.MergeCell(sheet, "A2", "A3")
		for d, day := range week.Days {
			first := colName(1 + d*calendar.LessonsPerDay)
			last := colName((d + 1) * calendar.LessonsPerDay)
			f.SetCellValue(sheet, cell(first, 2), weekdayName(day.Date)+" "+shortDate(day.Date))
			f.MergeCell(sheet, cell(first, 2), cell(last, 2))
			for slot := 0; slot < calendar.LessonsPerDay; slot++ {
				f.SetCellValue(sheet, cell(colName(1+d*calendar.LessonsPerDay+slot), 3), slot+1)
			}
		}
		f.SetCellStyle(sheet, "A2", cell(lastCol, 3), headerStyle)

		// 数据行
		row := 4
		for i := range gg.Roster {
			st := &gg.Roster[i]
			sg := gg.Grid.ForStudent(st.StudentID)
			f.SetCellValue(sheet, cell("A", row), st.FullName)
			for d, day := range sg.Weeks[wi].Days {
				for slot, c := range day.Cells {
					f.SetCellValue(sheet, cell(colName(1+d*calendar.LessonsPerDay+slot), row), exportCellText(c))
				}
			}
			row++
		}
	}
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.Logger.Error("写入 Excel 失败", zap.String("group_id", groupID), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("%s_第%d学期.xlsx", gg.Group.Name, sem.Index)
	return buf, filename, nil
}

// exportCellText 未排课为空；否则为出勤代码，有分数时追加分数
func exportCellText(c StudentCell) string {
	if !c.Scheduled() {
		return ""
	}
	text := c.Attendance.Letter()
	if c.Grade != nil {
		text += " " + c.GradeText()
	}
	return text
}

// ═══════════════════════════════════════════════════════════
// ExportTimetableICS 周课表导出为 iCalendar
// ═══════════════════════════════════════════════════════════
//
// 每节课在学期每个教学周生成一个 VEVENT，时间按校历时区换算

func (s *exportService) ExportTimetableICS(ctx context.Context, groupID string, semester int) (*bytes.Buffer, string, error) {
	group, err := s.Repo.Group.GetByID(ctx, groupID)
	if err != nil {
		return nil, "", s.lookupErr(err, ErrGroupNotFound, "group.get", zap.String("group_id", groupID))
	}
	sem, err := s.resolveSemester(s.today(), semester)
	if err != nil {
		return nil, "", err
	}
	tpl, err := s.template(ctx, groupID, sem.Index)
	if err != nil {
		return nil, "", err
	}

	loc := s.Normalizer.Location()
	stamp := s.Now().UTC()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//academic-journal//timetable//RU")
	cal.SetXWRCalName(fmt.Sprintf("%s — 第%d学期", group.Name, sem.Index))
	cal.SetXWRTimezone(loc.String())

	events := 0
	if tpl != nil {
		for w := 1; w <= sem.MaxWeeks; w++ {
			for _, date := range sem.WeekDays(w) {
				day := calendar.TeachingDay(date)
				if day == 0 {
					continue
				}
				for slot := 1; slot <= calendar.LessonsPerDay; slot++ {
					l := tpl.Lesson(day, slot)
					if l == nil {
						continue
					}
					start, err1 := calendar.ParseClock(l.StartTime)
					end, err2 := calendar.ParseClock(l.EndTime)
					if err1 != nil || err2 != nil {
						s.Logger.Warn("课表上课时间无效，跳过", zap.String("lesson_id", l.LessonID))
						continue
					}

					midnight := date.In(loc)
					ev := cal.AddEvent(fmt.Sprintf("%s-%s@academic-journal", l.LessonID, date))
					ev.SetDtStampTime(stamp)
					ev.SetStartAt(midnight.Add(time.Duration(start) * time.Minute))
					ev.SetEndAt(midnight.Add(time.Duration(end) * time.Minute))
					ev.SetSummary(l.SubjectName())
					if l.Classroom != "" {
						ev.SetLocation(l.Classroom)
					}
					desc := fmt.Sprintf("第%d周 第%d节 %s", w, slot, kindOr(l.LessonKind))
					if l.Teacher != nil {
						desc += " " + l.Teacher.Name
					}
					ev.SetDescription(desc)
					events++
				}
			}
		}
	}

	s.Logger.Info("导出课表日程", zap.String("group_id", groupID), zap.Int("semester", sem.Index), zap.Int("events", events))

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("%s_第%d学期.ics", group.Name, sem.Index)
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
