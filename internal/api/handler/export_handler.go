package handler

import (
	"github.com/gin-gonic/gin"

	"academic-journal/backend/internal/dto"
	"academic-journal/backend/internal/service"
	"academic-journal/backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportSemesterGrid 导出学期网格
// GET /api/v1/export/groups/:groupId/grid.xlsx?semester=&subject_id=
func (h *ExportHandler) ExportSemesterGrid(c *gin.Context) {
	var q dto.SemesterGridQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	buf, filename, err := h.exportSvc.ExportSemesterGrid(c.Request.Context(), c.Param("groupId"), q.Semester, q.SubjectID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Attachment(c, filename, contentTypeXLSX, buf.Bytes())
}

// ExportTimetable 导出周课表日程
// GET /api/v1/export/groups/:groupId/timetable.ics?semester=
func (h *ExportHandler) ExportTimetable(c *gin.Context) {
	var q dto.SemesterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	buf, filename, err := h.exportSvc.ExportTimetableICS(c.Request.Context(), c.Param("groupId"), q.Semester)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Attachment(c, filename, contentTypeICS, buf.Bytes())
}
