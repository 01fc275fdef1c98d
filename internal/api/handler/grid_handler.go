package handler

import (
	"github.com/gin-gonic/gin"

	"academic-journal/backend/internal/dto"
	"academic-journal/backend/internal/service"
	"academic-journal/backend/pkg/response"
)

// GridHandler 网格视图 HTTP 处理器
type GridHandler struct {
	gridSvc service.GridService
}

// NewGridHandler 创建 GridHandler
func NewGridHandler(gridSvc service.GridService) *GridHandler {
	return &GridHandler{gridSvc: gridSvc}
}

// WeeklyGrid 小组周网格
// GET /api/v1/grids/groups/:groupId/weekly?semester=&week=
func (h *GridHandler) WeeklyGrid(c *gin.Context) {
	var q dto.WeeklyGridQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	grid, err := h.gridSvc.WeeklyGrid(c.Request.Context(), c.Param("groupId"), q.Semester, q.Week)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, grid)
}

// SemesterGrid 小组截至今天的学期网格
// GET /api/v1/grids/groups/:groupId/semester?semester=&subject_id=
func (h *GridHandler) SemesterGrid(c *gin.Context) {
	var q dto.SemesterGridQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	grid, err := h.gridSvc.SemesterGrid(c.Request.Context(), c.Param("groupId"), q.Semester, q.SubjectID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, grid)
}
