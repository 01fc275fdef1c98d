package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
)

func setupTestExportService(f *fixture) ExportService {
	return NewExportService(f.deps, NewGridService(f.deps))
}

// ── ExportSemesterGrid 测试 ──

func TestExportService_ExportSemesterGrid(t *testing.T) {
	f := newFixture()
	seedMondayMath(f)
	svc := setupTestExportService(f)

	buf, filename, err := svc.ExportSemesterGrid(context.Background(), groupA, 0, "")
	if err != nil {
		t.Fatalf("ExportSemesterGrid 应成功: %v", err)
	}
	if filename != "ИС-21_第1学期.xlsx" {
		t.Errorf("文件名不正确: %s", filename)
	}

	x, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("无法打开导出的 Excel: %v", err)
	}
	defer x.Close()

	sheets := x.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "第1周" || sheets[1] != "第2周" {
		t.Fatalf("期望 Sheet [第1周 第2周]，实际=%v", sheets)
	}

	tests := []struct {
		axis string
		want string
	}{
		{"A4", "Алиев Фарход"},
		{"A5", "Бобоева Нигина"},
		{"H2", "понедельник 02.09"},
		{"H3", "1"},
		{"H4", "H 5"},
		{"H5", "N 0"},
		{"I4", "—"}, // 物理讲座无记录且不补分
		{"B4", ""},  // 周日未排课
	}
	for _, tt := range tests {
		got, err := x.GetCellValue("第1周", tt.axis)
		if err != nil {
			t.Fatalf("读取 %s 失败: %v", tt.axis, err)
		}
		if got != tt.want {
			t.Errorf("%s 期望 %q，实际=%q", tt.axis, tt.want, got)
		}
	}
}

func TestExportService_ExportSemesterGrid_NotStarted(t *testing.T) {
	f := newFixture()
	svc := setupTestExportService(f)

	buf, _, err := svc.ExportSemesterGrid(context.Background(), groupA, 2, "")
	if err != nil {
		t.Fatalf("未开始的学期也应导出: %v", err)
	}
	x, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("无法打开导出的 Excel: %v", err)
	}
	defer x.Close()

	if sheets := x.GetSheetList(); len(sheets) != 1 || sheets[0] != "说明" {
		t.Errorf("期望只有说明 Sheet，实际=%v", sheets)
	}
}

func TestExportService_ExportSemesterGrid_GroupNotFound(t *testing.T) {
	f := newFixture()
	svc := setupTestExportService(f)

	if _, _, err := svc.ExportSemesterGrid(context.Background(), "missing", 0, ""); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("期望 ErrGroupNotFound，实际: %v", err)
	}
}

// ── ExportTimetableICS 测试 ──

func TestExportService_ExportTimetableICS(t *testing.T) {
	f := newFixture()
	svc := setupTestExportService(f)

	buf, filename, err := svc.ExportTimetableICS(context.Background(), groupA, 0)
	if err != nil {
		t.Fatalf("ExportTimetableICS 应成功: %v", err)
	}
	if filename != "ИС-21_第1学期.ics" {
		t.Errorf("文件名不正确: %s", filename)
	}

	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("无法解析导出的日程: %v", err)
	}
	events := cal.Events()
	// 16 周 × 每周 4 节
	if len(events) != 64 {
		t.Fatalf("期望 64 个事件，实际=%d", len(events))
	}

	first := events[0]
	if got := first.Id(); got != "l-mon-1-2024-09-02@academic-journal" {
		t.Errorf("首个事件 UID 不正确: %s", got)
	}
	start, err := first.GetStartAt()
	if err != nil {
		t.Fatalf("读取开始时间失败: %v", err)
	}
	// Asia/Dushanbe 为 UTC+5
	if start.UTC().Hour() != 3 || start.UTC().Day() != 2 {
		t.Errorf("开始时间不正确: %v", start.UTC())
	}
}

func TestExportService_ExportTimetableICS_NoTemplate(t *testing.T) {
	f := newFixture()
	svc := setupTestExportService(f)

	buf, _, err := svc.ExportTimetableICS(context.Background(), groupB, 0)
	if err != nil {
		t.Fatalf("无课表时应导出空日程: %v", err)
	}
	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("无法解析导出的日程: %v", err)
	}
	if n := len(cal.Events()); n != 0 {
		t.Errorf("期望 0 个事件，实际=%d", n)
	}
}

func TestExportService_ExportTimetableICS_GroupNotFound(t *testing.T) {
	f := newFixture()
	svc := setupTestExportService(f)

	if _, _, err := svc.ExportTimetableICS(context.Background(), "missing", 0); !errors.Is(err, ErrGroupNotFound) {
		t.Errorf("期望 ErrGroupNotFound，实际: %v", err)
	}
}
