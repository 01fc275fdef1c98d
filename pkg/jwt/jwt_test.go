package jwt

import (
	"testing"
	"time"

	"academic-journal/backend/config"
)

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-testing-2026",
		Issuer:         "academic-journal",
		AccessTokenTTL: 15 * time.Minute,
	})
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	m := newTestManager()

	token, issued, err := m.GenerateAccessToken("student-1", RoleStudent, "group-1", 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}

	if claims.UserID != "student-1" {
		t.Errorf("期望 UserID=student-1，实际=%s", claims.UserID)
	}
	if claims.Role != RoleStudent {
		t.Errorf("期望 Role=student，实际=%s", claims.Role)
	}
	if claims.GroupID != "group-1" {
		t.Errorf("期望 GroupID=group-1，实际=%s", claims.GroupID)
	}
	if claims.Issuer != "academic-journal" {
		t.Errorf("期望 Issuer=academic-journal，实际=%s", claims.Issuer)
	}
	if claims.ID == "" || claims.ID != issued.ID {
		t.Errorf("JTI 不一致: %q vs %q", claims.ID, issued.ID)
	}

	ttl := claims.RemainingTTL()
	if ttl < 14*time.Minute || ttl > 16*time.Minute {
		t.Errorf("默认 TTL 期望约15分钟，实际=%v", ttl)
	}
}

func TestGenerateAccessToken_CustomTTL(t *testing.T) {
	m := newTestManager()

	token, _, err := m.GenerateAccessToken("teacher-1", RoleTeacher, "", 48*time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken 失败: %v", err)
	}
	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}
	ttl := claims.RemainingTTL()
	if ttl < 47*time.Hour || ttl > 49*time.Hour {
		t.Errorf("自定义 TTL 期望约48h，实际=%v", ttl)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	m := newTestManager()

	_, err := m.ParseToken("invalid.token.string")
	if err == nil {
		t.Error("期望解析无效 token 返回错误")
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := newTestManager()
	m2 := NewManager(&config.AuthConfig{
		JWTSecret:      "different-secret-key",
		AccessTokenTTL: 15 * time.Minute,
	})

	token, _, _ := m1.GenerateAccessToken("user-1", RoleAdmin, "", 0)
	_, err := m2.ParseToken(token)
	if err == nil {
		t.Error("不同密钥签名的 token 不应通过验证")
	}
}

func TestParseToken_UnknownRole(t *testing.T) {
	m := newTestManager()

	token, _, _ := m.GenerateAccessToken("user-1", "mudir", "", 0)
	if _, err := m.ParseToken(token); err != ErrTokenInvalid {
		t.Errorf("未知角色应返回 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	m := NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret",
		AccessTokenTTL: 1 * time.Millisecond,
	})

	token, _, _ := m.GenerateAccessToken("user-1", RoleAdmin, "", 0)
	time.Sleep(10 * time.Millisecond)

	_, err := m.ParseToken(token)
	if err == nil {
		t.Error("过期 token 不应通过验证")
	}
	if err != ErrTokenExpired {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}
