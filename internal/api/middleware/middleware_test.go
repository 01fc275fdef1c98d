package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"academic-journal/backend/config"
)

// ═══════════════════════════════════════════════════════════
// RateLimit
// ═══════════════════════════════════════════════════════════

func TestRateClass(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   string
	}{
		{http.MethodGet, "/api/v1/grids/groups/g1/weekly", rateClassRead},
		{http.MethodGet, "/api/v1/journal/groups/g1/slots", rateClassRead},
		{http.MethodPut, "/api/v1/journal/records/e1", rateClassWrite},
		{http.MethodGet, "/api/v1/export/groups/g1/grid.xlsx", rateClassExport},
		{http.MethodGet, "/api/v1/export/groups/g1/timetable.ics", rateClassExport},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if got := rateClass(tt.method, tt.path); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestLimitFor(t *testing.T) {
	cfg := config.RateLimitConfig{Read: 120, Write: 60, Export: 10, Window: time.Minute}

	if got := limitFor(cfg, rateClassRead); got != 120 {
		t.Errorf("read: expected 120, got %d", got)
	}
	if got := limitFor(cfg, rateClassWrite); got != 60 {
		t.Errorf("write: expected 60, got %d", got)
	}
	if got := limitFor(cfg, rateClassExport); got != 10 {
		t.Errorf("export: expected 10, got %d", got)
	}
}

func TestRateLimitKey_PerUserOrIP(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/grids/groups/g1/weekly", nil)

	if got := rateSubject(c); got != "ip:192.0.2.1" {
		t.Errorf("unauthenticated: expected ip subject, got %s", got)
	}

	c.Set("user_id", "teacher-1")
	if got := rateSubject(c); got != "user:teacher-1" {
		t.Errorf("authenticated: expected user subject, got %s", got)
	}

	want := "rate_limit:write:user:teacher-1:/api/v1/journal/records/:id"
	if got := rateLimitKey(rateClassWrite, "user:teacher-1", "/api/v1/journal/records/:id"); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
	if got := rateLimitKey(rateClassRead, "ip:1.2.3.4", ""); !strings.HasSuffix(got, ":unmatched") {
		t.Errorf("empty route should map to unmatched, got %s", got)
	}
}

func TestRateLimit_NoRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(nil, config.RateLimitConfig{Read: 1, Window: time.Minute}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}

// ═══════════════════════════════════════════════════════════
// BodyLimit
// ═══════════════════════════════════════════════════════════

// bodyRouter 读取完整请求体并回显读取错误类型
func bodyRouter(limit int64, called *bool) *gin.Engine {
	r := gin.New()
	r.Use(BodyLimit(limit))
	r.PUT("/records/:id", func(c *gin.Context) {
		*called = true
		_, err := io.ReadAll(c.Request.Body)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})
	return r
}

func TestBodyLimit_DeclaredLengthRejected(t *testing.T) {
	called := false
	r := bodyRouter(16, &called)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/records/e1", strings.NewReader(strings.Repeat("x", 32))))

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
	if called {
		t.Error("handler should not be called")
	}
}

func TestBodyLimit_StreamedBodyTruncated(t *testing.T) {
	called := false
	r := bodyRouter(16, &called)

	// MultiReader 使 ContentLength 未知（-1）
	body := io.MultiReader(strings.NewReader(strings.Repeat("x", 32)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/records/e1", body))

	if !called {
		t.Fatal("handler should be called")
	}
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

func TestBodyLimit_WithinLimit(t *testing.T) {
	called := false
	r := bodyRouter(64, &called)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/records/e1", strings.NewReader(`{"students":[]}`)))

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// Logger
// ═══════════════════════════════════════════════════════════

func TestLogger_RouteAndIdentity(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(core), "/healthz"))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/grids/groups/:groupId/weekly", func(c *gin.Context) {
		c.Set("user_id", "student-1")
		c.Set("role", "student")
		c.Set("group_id", "group-1")
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if n := logs.Len(); n != 0 {
		t.Fatalf("healthz should not be logged, got %d entries", n)
	}

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/grids/groups/g1/weekly?week=2", nil))
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["route"] != "/grids/groups/:groupId/weekly" {
		t.Errorf("unexpected route: %v", fields["route"])
	}
	if fields["user_id"] != "student-1" || fields["group_id"] != "group-1" {
		t.Errorf("identity fields missing: %v", fields)
	}
	if id, _ := fields["request_id"].(string); id == "" {
		t.Error("expected request_id")
	}
	if _, ok := fields["ip"]; ok {
		t.Error("authenticated request should not log ip")
	}
}

func TestLogger_SkippedPathStillLogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core), "/healthz"))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	entries := logs.All()
	if len(entries) != 1 || entries[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected one error entry, got %+v", entries)
	}
}
