package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"academic-journal/backend/pkg/metrics"
)

// Metrics 请求指标中间件，按路由模板而非原始路径打标签
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
