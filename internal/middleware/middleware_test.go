package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_payments/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(limiter *InvalidAuthRateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(LoggingMiddleware())
	mw := NewAPIKeyMiddleware([]string{"key-one", "key-two"}, limiter)
	r.GET("/ping", mw.Handle(), func(c *gin.Context) {
		c.String(http.StatusOK, GetKeyID(c))
	})
	return r
}

func TestAPIKeyMiddleware(t *testing.T) {
	limiter := NewInvalidAuthRateLimiter(5, time.Minute)
	defer limiter.Stop()
	r := newAuthRouter(limiter)

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"bearer key", "Authorization", "Bearer key-one", http.StatusOK},
		{"x-api-key", "X-Api-Key", "key-two", http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong key", "Authorization", "Bearer nope", http.StatusUnauthorized},
		{"basic scheme", "Authorization", "Basic a2V5LW9uZQ==", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.want == http.StatusOK && w.Body.String() == "" {
				t.Error("key id not set in context")
			}
			if tt.want == http.StatusUnauthorized {
				var resp utils.Response
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatal(err)
				}
				if resp.Success || resp.Error == nil || resp.Error.Code != "INVALID_TOKEN" {
					t.Errorf("envelope = %+v", resp)
				}
			}
		})
	}
}

func TestAPIKeyMiddlewareRateLimitsFailures(t *testing.T) {
	limiter := NewInvalidAuthRateLimiter(2, time.Minute)
	defer limiter.Stop()
	r := newAuthRouter(limiter)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "192.0.2.1:999"
		req.Header.Set("X-Api-Key", "wrong")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusUnauthorized || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestRateLimiterWindowResets(t *testing.T) {
	limiter := NewInvalidAuthRateLimiter(1, time.Minute)
	defer limiter.Stop()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("1.1.1.1") || limiter.Allow("1.1.1.1") {
		t.Fatal("second attempt in window should be refused")
	}
	now = now.Add(2 * time.Minute)
	if !limiter.Allow("1.1.1.1") {
		t.Error("window should reset")
	}
	limiter.evict()
	now = now.Add(2 * time.Minute)
	limiter.evict()
	if len(limiter.attempts) != 0 {
		t.Errorf("attempts not evicted: %d", len(limiter.attempts))
	}
}

func TestJWTMiddleware(t *testing.T) {
	const secret = "admin-secret"
	r := gin.New()
	r.GET("/admin", NewJWTMiddleware(secret).Handle(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("email"))
	})

	token, err := utils.GenerateJWT(secret, 7, "ops@example.com", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	forged, _ := utils.GenerateJWT("other-secret", 7, "ops@example.com", time.Hour)

	tests := []struct {
		name  string
		auth  string
		want  int
		email string
	}{
		{"valid", "Bearer " + token, http.StatusOK, "ops@example.com"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Token " + token, http.StatusUnauthorized, ""},
		{"forged", "Bearer " + forged, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
			if tt.email != "" && w.Body.String() != tt.email {
				t.Errorf("email = %q", w.Body.String())
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"admin.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://admin.example.com:443")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://admin.example.com:443" {
		t.Errorf("allow origin = %q", w.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.net")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin must not be allowed")
	}
}

func TestLoggingMiddlewareKeepsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(LoggingMiddleware())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc-123" || w.Header().Get("X-Request-Id") != "abc-123" {
		t.Errorf("request id = %q / %q", w.Body.String(), w.Header().Get("X-Request-Id"))
	}
}
