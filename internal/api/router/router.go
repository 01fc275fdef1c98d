package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"academic-journal/backend/config"
	"academic-journal/backend/internal/api/handler"
	"academic-journal/backend/internal/api/middleware"
	"academic-journal/backend/pkg/jwt"
	"academic-journal/backend/pkg/metrics"
	"academic-journal/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时关闭限流与 Token 黑名单；m 为 nil 时不暴露指标端点
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger, "/healthz", cfg.Metrics.Path))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查与指标 ──
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Enabled && m != nil {
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	staff := middleware.RoleAuth(jwt.RoleAdmin, jwt.RoleTeacher)
	admin := middleware.RoleAuth(jwt.RoleAdmin)
	student := middleware.RoleAuth(jwt.RoleStudent)

	// ── API v1（全部需要认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	v1.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit))
	{
		// 课节记录
		journal := v1.Group("/journal")
		{
			journal.GET("/groups/:groupId/slots", staff, h.Journal.GetSlotRecord)
			journal.GET("/groups/:groupId/lessons", staff, h.Journal.ListLessons)
			journal.GET("/groups/:groupId/notes", admin, h.Journal.GroupNotes)
			journal.PUT("/records/:id", staff, h.Journal.UpdateRecord) // 任课教师或管理员（Service 层鉴权）
		}

		// 网格视图
		grids := v1.Group("/grids")
		{
			grids.GET("/groups/:groupId/weekly", staff, h.Grid.WeeklyGrid)
			grids.GET("/groups/:groupId/semester", staff, h.Grid.SemesterGrid)
		}

		// 学生视图
		students := v1.Group("/students")
		{
			students.GET("/me/attendance", student, h.Student.AttendanceSummary)
			students.GET("/me/grades", student, h.Student.GradeSummary)
			students.GET("/me/grades/overview", student, h.Student.GradesOverview)
			students.GET("/me/today", student, h.Student.TodayClasses)
			students.GET("/me/notes", student, h.Journal.MyNotes)

			students.GET("/:id/attendance", staff, h.Student.AttendanceSummary)
			students.GET("/:id/grades", staff, h.Student.GradeSummary)
			students.GET("/:id/grades/overview", staff, h.Student.GradesOverview)
			students.GET("/:id/today", staff, h.Student.TodayClasses)
		}

		// 教师
		teachers := v1.Group("/teachers")
		{
			teachers.GET("/me/summary", middleware.RoleAuth(jwt.RoleTeacher), h.Report.TeachingSummary)
			teachers.GET("/:id/summary", admin, h.Report.TeachingSummary)
		}

		// 统计报表
		reports := v1.Group("/reports", admin)
		{
			reports.GET("/high-absence", h.Report.HighAbsence)
			reports.GET("/dashboard", h.Report.Dashboard)
		}

		// 导出
		export := v1.Group("/export", staff)
		{
			export.GET("/groups/:groupId/grid.xlsx", h.Export.ExportSemesterGrid)
			export.GET("/groups/:groupId/timetable.ics", h.Export.ExportTimetable)
		}
	}

	return r
}
