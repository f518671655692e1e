package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-essay/internal/config"
	"github.com/stemsi/exstem-essay/internal/response"
	"github.com/stemsi/exstem-essay/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testAuthService(expiry time.Duration) *service.AuthService {
	cfg := &config.Config{JWTSecret: "middleware-secret", JWTExpiry: expiry, BcryptCost: 4}
	return service.NewAuthService(cfg, nil, nil, nil, zerolog.Nop())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) response.ErrCode {
	t.Helper()
	var body response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	if body.Error == nil {
		return ""
	}
	return body.Error.Code
}

func TestRequireAdminJWT(t *testing.T) {
	auth := testAuthService(time.Hour)
	adminToken, _ := auth.GenerateAdminToken(1, 2, []string{"grades:read"})
	writerToken, _ := auth.GenerateWriterToken(42)
	expiredToken, _ := testAuthService(-time.Minute).GenerateAdminToken(1, 2, nil)

	r := gin.New()
	r.GET("/admin",
		RequireAdminJWT(auth),
		RequirePermission("grades:read"),
		func(c *gin.Context) { c.String(http.StatusOK, "%d", GetClaims(c).UserID) },
	)
	r.GET("/admin/write", RequireAdminJWT(auth), RequirePermission("grades:write"), func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name     string
		path     string
		header   string
		wantCode int
		wantErr  response.ErrCode
	}{
		{"admin allowed", "/admin", "Bearer " + adminToken, http.StatusOK, ""},
		{"lowercase scheme", "/admin", "bearer " + adminToken, http.StatusOK, ""},
		{"missing header", "/admin", "", http.StatusUnauthorized, response.ErrTokenRequired},
		{"garbage token", "/admin", "Bearer nope", http.StatusUnauthorized, response.ErrTokenInvalid},
		{"expired token", "/admin", "Bearer " + expiredToken, http.StatusUnauthorized, response.ErrTokenExpired},
		{"writer token", "/admin", "Bearer " + writerToken, http.StatusForbidden, response.ErrAdminAccessOnly},
		{"missing permission", "/admin/write", "Bearer " + adminToken, http.StatusForbidden, response.ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantErr != "" {
				if got := errorCode(t, w); got != tt.wantErr {
					t.Errorf("code = %s, want %s", got, tt.wantErr)
				}
			} else if w.Body.String() != "1" {
				t.Errorf("body = %q", w.Body.String())
			}
		})
	}
}

func TestRequireWriterWSAuth(t *testing.T) {
	auth := testAuthService(time.Hour)
	writerToken, _ := auth.GenerateWriterToken(42)
	adminToken, _ := auth.GenerateAdminToken(1, 2, nil)

	r := gin.New()
	r.GET("/ws", RequireWriterWSAuth(auth), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		query    string
		wantCode int
	}{
		{"?token=" + writerToken, http.StatusNoContent},
		{"", http.StatusUnauthorized},
		{"?token=" + adminToken, http.StatusForbidden},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws"+tt.query, nil))
		if w.Code != tt.wantCode {
			t.Errorf("query %q: status = %d, want %d", tt.query, w.Code, tt.wantCode)
		}
	}
}

type fakeCounter struct {
	hits map[string]int64
	err  error
}

func (f *fakeCounter) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.hits[key]++
	return f.hits[key], nil
}

func TestRateLimiter(t *testing.T) {
	counter := &fakeCounter{hits: make(map[string]int64)}
	rl := NewRateLimiter(counter, 2, time.Minute, zerolog.Nop())

	r := gin.New()
	r.POST("/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
		if i == 2 && w.Header().Get("Retry-After") != "60" {
			t.Errorf("Retry-After = %q", w.Header().Get("Retry-After"))
		}
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}

	counter.err = errors.New("redis down")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status with counter down = %d, want 200", w.Code)
	}
}

func TestBrotli(t *testing.T) {
	payload := strings.Repeat(`{"phase":"writing"}`, 200)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/json", func(c *gin.Context) { c.Data(http.StatusOK, "application/json", []byte(payload)) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/xlsx", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", []byte(payload))
	})

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept-Encoding", "gzip, br")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := get("/json")
	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("Content-Encoding = %q, want br", w.Header().Get("Content-Encoding"))
	}
	decoded, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	if err != nil || string(decoded) != payload {
		t.Errorf("decoded %d bytes, err %v", len(decoded), err)
	}

	if w := get("/small"); w.Header().Get("Content-Encoding") != "" || w.Body.String() != "ok" {
		t.Errorf("small response: encoding %q body %q", w.Header().Get("Content-Encoding"), w.Body.String())
	}
	if w := get("/xlsx"); w.Header().Get("Content-Encoding") != "" || w.Body.String() != payload {
		t.Errorf("xlsx response compressed: encoding %q", w.Header().Get("Content-Encoding"))
	}
}
