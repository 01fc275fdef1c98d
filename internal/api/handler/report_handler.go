package handler

import (
	"github.com/gin-gonic/gin"

	"academic-journal/backend/internal/dto"
	"academic-journal/backend/internal/service"
	"academic-journal/backend/pkg/response"
)

// ReportHandler 统计报表 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// HighAbsence 高缺勤学生
// GET /api/v1/reports/high-absence?threshold=&semester=
func (h *ReportHandler) HighAbsence(c *gin.Context) {
	var q dto.HighAbsenceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	report, err := h.reportSvc.HighAbsenceReport(c.Request.Context(), q.Threshold, q.Semester)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, report)
}

// Dashboard 管理员仪表盘
// GET /api/v1/reports/dashboard?semester=
func (h *ReportHandler) Dashboard(c *gin.Context) {
	var q dto.SemesterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	dashboard, err := h.reportSvc.Dashboard(c.Request.Context(), q.Semester)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, dashboard)
}

// TeachingSummary 教师授课概况
// GET /api/v1/teachers/me/summary?semester=
// GET /api/v1/teachers/:id/summary?semester=（管理员）
func (h *ReportHandler) TeachingSummary(c *gin.Context) {
	teacherID := c.Param("id")
	if teacherID == "" {
		var ok bool
		if teacherID, ok = MustGetUserID(c); !ok {
			return
		}
	}
	var q dto.SemesterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	summary, err := h.reportSvc.TeachingSummary(c.Request.Context(), teacherID, q.Semester)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, summary)
}
