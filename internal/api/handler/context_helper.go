package handler

import (
	"github.com/gin-gonic/gin"

	"academic-journal/backend/internal/service"
	"academic-journal/backend/pkg/calendar"
	"academic-journal/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	return mustGetString(c, "user_id", false)
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	return mustGetString(c, "role", false)
}

// MustGetGroupID 从 Gin 上下文中安全提取 group_id，非学生 Token 为空字符串。
func MustGetGroupID(c *gin.Context) (string, bool) {
	return mustGetString(c, "group_id", true)
}

func mustGetString(c *gin.Context, key string, allowEmpty bool) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		response.Unauthorized(c, response.CodeUnauthorized, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || (s == "" && !allowEmpty) {
		response.Unauthorized(c, response.CodeUnauthorized, "未认证")
		return "", false
	}
	return s, true
}

// mustGetActor 当前操作者（用户 ID + 角色）
func mustGetActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Actor{}, false
	}
	role, ok := MustGetRole(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{UserID: userID, Role: role}, true
}

// parseDateParam 解析 yyyy-MM-dd 日期，空字符串返回零值（由 Service 取今天）
func parseDateParam(c *gin.Context, raw string) (calendar.CivilDate, bool) {
	if raw == "" {
		return calendar.CivilDate{}, true
	}
	d, err := calendar.ParseDate(raw)
	if err != nil {
		response.BadRequest(c, response.CodeValidation, "日期格式应为 yyyy-MM-dd")
		return calendar.CivilDate{}, false
	}
	return d, true
}
