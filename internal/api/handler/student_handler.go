package handler

import (
	"github.com/gin-gonic/gin"

	"academic-journal/backend/internal/dto"
	"academic-journal/backend/internal/service"
	"academic-journal/backend/pkg/response"
)

// StudentHandler 学生视图 HTTP 处理器
//
// 同一组处理函数同时挂在 /students/me/... 与 /students/:id/... 下：
// 有 :id 时查看指定学生（由路由限制为教师与管理员），否则查看 Token 中的学生本人
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

func targetStudent(c *gin.Context) (string, bool) {
	if id := c.Param("id"); id != "" {
		return id, true
	}
	return MustGetUserID(c)
}

// AttendanceSummary 学期出勤汇总
// GET /api/v1/students/me/attendance?semester=
func (h *StudentHandler) AttendanceSummary(c *gin.Context) {
	studentID, ok := targetStudent(c)
	if !ok {
		return
	}
	var q dto.SemesterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	summary, err := h.studentSvc.AttendanceSummary(c.Request.Context(), studentID, q.Semester)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, summary)
}

// GradeSummary 学期分数汇总
// GET /api/v1/students/me/grades?semester=
func (h *StudentHandler) GradeSummary(c *gin.Context) {
	studentID, ok := targetStudent(c)
	if !ok {
		return
	}
	var q dto.SemesterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	summary, err := h.studentSvc.GradeSummary(c.Request.Context(), studentID, q.Semester)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, summary)
}

// GradesOverview 各课程平均分
// GET /api/v1/students/me/grades/overview?semester=
func (h *StudentHandler) GradesOverview(c *gin.Context) {
	studentID, ok := targetStudent(c)
	if !ok {
		return
	}
	var q dto.SemesterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindFailed(c, err)
		return
	}

	overview, err := h.studentSvc.GradesOverview(c.Request.Context(), studentID, q.Semester)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, overview)
}

// TodayClasses 某天的课程，date 为空时取今天
// GET /api/v1/students/me/today?date=
func (h *StudentHandler) TodayClasses(c *gin.Context) {
	studentID, ok := targetStudent(c)
	if !ok {
		return
	}
	date, ok := parseDateParam(c, c.Query("date"))
	if !ok {
		return
	}

	classes, err := h.studentSvc.TodayClasses(c.Request.Context(), studentID, date)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.OK(c, classes)
}
