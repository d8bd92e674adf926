package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/kebiao/kebiao/internal/security"
)

func newAuthConfig(t *testing.T) (*AuthConfig, *security.APIKey) {
	t.Helper()
	manager := security.NewAPIKeyManager()
	key, err := manager.GenerateKey(uuid.New(), "测试", []string{"*"}, nil)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	return &AuthConfig{
		APIKeyManager: manager,
		SkipPaths:     []string{"/health"},
	}, key
}

func TestAuthMiddleware_ValidKey(t *testing.T) {
	cfg, key := newAuthConfig(t)

	var gotUser uuid.UUID
	var found bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, found = UserIDFromContext(r.Context())
	})

	req := httptest.NewRequest("POST", "/api/v1/timetable/generate", nil)
	req.Header.Set("X-API-Key", key.Key)
	rec := httptest.NewRecorder()

	AuthMiddleware(cfg)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, want 200", rec.Code)
	}
	if !found || gotUser != key.UserID {
		t.Errorf("上下文用户 = %s, want %s", gotUser, key.UserID)
	}
	if rec.Header().Get("X-User-ID") != key.UserID.String() {
		t.Error("应设置 X-User-ID 响应头")
	}
}

func TestAuthMiddleware_MissingKey(t *testing.T) {
	cfg, _ := newAuthConfig(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("无密钥请求不应到达处理器")
	})

	req := httptest.NewRequest("POST", "/api/v1/timetable/generate", nil)
	rec := httptest.NewRecorder()

	AuthMiddleware(cfg)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("状态码 = %d, want 401", rec.Code)
	}
}

func TestAuthMiddleware_InvalidKey(t *testing.T) {
	cfg, _ := newAuthConfig(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("非法密钥请求不应到达处理器")
	})

	req := httptest.NewRequest("POST", "/api/v1/timetable/generate", nil)
	req.Header.Set("X-API-Key", "kb_bogus")
	rec := httptest.NewRecorder()

	AuthMiddleware(cfg)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("状态码 = %d, want 401", rec.Code)
	}
}

func TestAuthMiddleware_SkipPath(t *testing.T) {
	cfg, _ := newAuthConfig(t)

	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	})

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	AuthMiddleware(cfg)(next).ServeHTTP(rec, req)

	if !reached {
		t.Error("跳过路径应直接放行")
	}
}

func TestAuthMiddleware_RateLimit(t *testing.T) {
	cfg, key := newAuthConfig(t)
	cfg.RateLimiter = security.NewRateLimiter(2, time.Minute)
	cfg.EnableRateLimit = true

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := AuthMiddleware(cfg)(next)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/api/v1/timetable/generate", nil)
		req.Header.Set("X-API-Key", key.Key)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("第 %d 次请求状态码 = %d, want 200", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest("POST", "/api/v1/timetable/generate", nil)
	req.Header.Set("X-API-Key", key.Key)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("超限请求状态码 = %d, want 429", rec.Code)
	}
}

func TestRequireScope(t *testing.T) {
	manager := security.NewAPIKeyManager()
	key, _ := manager.GenerateKey(uuid.New(), "只读", []string{"read"}, nil)

	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	})
	h := RequireScope("generate", manager)(next)

	req := httptest.NewRequest("POST", "/api/v1/timetable/generate", nil)
	req.Header.Set("X-API-Key", key.Key)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if reached {
		t.Error("缺少权限的请求不应到达处理器")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("状态码 = %d, want 403", rec.Code)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	// 透传已有ID
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "req_abc")
	rec := httptest.NewRecorder()
	RequestIDMiddleware(next).ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "req_abc" {
		t.Error("应透传已有的请求ID")
	}

	// 缺省生成新ID
	req = httptest.NewRequest("GET", "/", nil)
	rec = httptest.NewRecorder()
	RequestIDMiddleware(next).ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("应生成新的请求ID")
	}
}
