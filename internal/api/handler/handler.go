package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"academic-journal/backend/internal/service"
	pkgerrors "academic-journal/backend/pkg/errors"
	"academic-journal/backend/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Journal *JournalHandler
	Grid    *GridHandler
	Student *StudentHandler
	Report  *ReportHandler
	Export  *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Journal: NewJournalHandler(svc.Journal),
		Grid:    NewGridHandler(svc.Grid),
		Student: NewStudentHandler(svc.Student),
		Report:  NewReportHandler(svc.Report),
		Export:  NewExportHandler(svc.Export),
	}
}

// handleServiceError 按错误分类写入响应
// 存储与未分类错误统一返回 500，不向客户端暴露细节
func handleServiceError(c *gin.Context, err error) {
	msg := err.Error()
	var e *pkgerrors.Error
	if errors.As(err, &e) {
		msg = e.Message
	}

	switch pkgerrors.KindOf(err) {
	case pkgerrors.KindValidation:
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, msg, err.Error())
	case pkgerrors.KindNotFound:
		response.ErrorWithDetails(c, http.StatusNotFound, response.CodeNotFound, msg, err.Error())
	case pkgerrors.KindConflict:
		response.Conflict(c, response.CodeConflict, msg)
	case pkgerrors.KindForbidden:
		response.Forbidden(c, response.CodeForbidden, msg)
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// bindFailed 参数绑定失败；请求体被 BodyLimit 截断时返回 413
func bindFailed(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeValidation, "请求体过大")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "参数校验失败", err.Error())
}
