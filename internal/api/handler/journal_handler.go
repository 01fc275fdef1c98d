package handler

import (
	"github.com/gin-gonic/gin"

	"academic-journal/backend/internal/dto"
	"academic-journal/backend/internal/service"
	"academic-journal/backend/pkg/response"
)

// JournalHandler 课节记录模块 HTTP 处理器
type JournalHandler struct {
	journalSvc service.JournalService
}

// NewJournalHandler 创建 JournalHandler
func NewJournalHandler(journalSvc service.JournalService) *JournalHandler {
	return &JournalHandler{journalSvc: journalSvc}
}

// GetSlotRecord 获取课节记录，不存在时按课表与名单创建
// GET /api/v1/journal/groups/:groupId/slots?date=&shift=&slot=&subject_id=&semester=
func (h *JournalHandler) GetSlotRecord(c *gin.Context) {
	var q dto.SlotRecordQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	date, ok := parseDateParam(c, q.Date)
	if !ok {
		return
	}

	entry, err := h.journalSvc.GetOrCreateSlotRecord(c.Request.Context(), c.Param("groupId"), service.SlotRef{
		Date:      date,
		Shift:     q.Shift,
		Slot:      q.Slot,
		SubjectID: q.SubjectID,
		Semester:  q.Semester,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, entry)
}

// UpdateRecord 更新出勤、分数与备注
// PUT /api/v1/journal/records/:id
func (h *JournalHandler) UpdateRecord(c *gin.Context) {
	actor, ok := mustGetActor(c)
	if !ok {
		return
	}

	var req dto.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	entry, err := h.journalSvc.UpdateRecord(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, entry)
}

// ListLessons 小组某天的课节
// GET /api/v1/journal/groups/:groupId/lessons?date=&semester=
func (h *JournalHandler) ListLessons(c *gin.Context) {
	var q dto.DateQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}
	date, ok := parseDateParam(c, q.Date)
	if !ok {
		return
	}

	lessons, err := h.journalSvc.LessonsByGroupAndDate(c.Request.Context(), c.Param("groupId"), date, q.Semester)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, lessons)
}

// GroupNotes 小组备注
// GET /api/v1/journal/groups/:groupId/notes
func (h *JournalHandler) GroupNotes(c *gin.Context) {
	notes, err := h.journalSvc.GroupNotes(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, notes)
}

// MyNotes 当前学生收到的备注
// GET /api/v1/students/me/notes
func (h *JournalHandler) MyNotes(c *gin.Context) {
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	notes, err := h.journalSvc.StudentNotes(c.Request.Context(), studentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, notes)
}
