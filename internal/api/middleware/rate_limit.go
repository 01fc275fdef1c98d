package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"academic-journal/backend/config"
	"academic-journal/backend/pkg/redis"
	"academic-journal/backend/pkg/response"
)

// 限流类别
const (
	rateClassRead   = "read"
	rateClassWrite  = "write"
	rateClassExport = "export"
)

const exportPathPrefix = "/api/v1/export/"

// RateLimit 基于 Redis 滑动窗口的速率限制中间件
// 需挂在 JWTAuth 之后：按用户计数，未认证时退回按 IP；
// 查询、课节记录写入、文件导出分别使用 cfg 中的额度
// rdb 为 nil 时降级放行（与 JWTAuth 策略一致）
func RateLimit(rdb *redis.Client, cfg config.RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		class := rateClass(c.Request.Method, c.Request.URL.Path)
		limit := limitFor(cfg, class)
		if limit <= 0 {
			c.Next()
			return
		}

		key := rateLimitKey(class, rateSubject(c), c.FullPath())
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, cfg.Window)
		if err != nil {
			// Redis 出错时降级放行
			c.Next()
			return
		}

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			response.Error(c, http.StatusTooManyRequests, response.CodeRateLimited, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}

// rateClass 导出优先于写入判断；其余非 GET 请求均为写入
func rateClass(method, path string) string {
	switch {
	case strings.HasPrefix(path, exportPathPrefix):
		return rateClassExport
	case method != http.MethodGet && method != http.MethodHead && method != http.MethodOptions:
		return rateClassWrite
	default:
		return rateClassRead
	}
}

// rateSubject 已认证请求按 user_id 计数，否则按客户端 IP
func rateSubject(c *gin.Context) string {
	if uid := c.GetString("user_id"); uid != "" {
		return "user:" + uid
	}
	return "ip:" + c.ClientIP()
}

func limitFor(cfg config.RateLimitConfig, class string) int {
	switch class {
	case rateClassExport:
		return cfg.Export
	case rateClassWrite:
		return cfg.Write
	default:
		return cfg.Read
	}
}

func rateLimitKey(class, subject, route string) string {
	if route == "" {
		route = "unmatched"
	}
	return fmt.Sprintf("rate_limit:%s:%s:%s", class, subject, route)
}
