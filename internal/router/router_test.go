package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-essay/internal/config"
	"github.com/stemsi/exstem-essay/internal/handler"
	"github.com/stemsi/exstem-essay/internal/middleware"
	"github.com/stemsi/exstem-essay/internal/service"
)

func testRouter() (*gin.Engine, *service.AuthService) {
	cfg := &config.Config{GinMode: gin.TestMode, JWTSecret: "router-secret", JWTExpiry: time.Hour}
	log := zerolog.Nop()
	auth := service.NewAuthService(cfg, nil, nil, nil, log)
	handlers := &Handlers{
		Auth:          handler.NewAuthHandler(nil),
		Task:          handler.NewTaskHandler(nil, log),
		GradeLevel:    handler.NewGradeLevelHandler(nil, log),
		TimeExtension: handler.NewTimeExtensionHandler(nil, log),
		Statistics:    handler.NewStatisticsHandler(nil, nil, log),
		WS:            handler.NewWSHandler(nil, time.Second, log, nil),
		System:        handler.NewSystemHandler(nil, nil, log),
	}
	limiter := middleware.NewRateLimiter(nil, 0, time.Minute, log)
	return SetupRouter(auth, limiter, handlers, cfg, log), auth
}

func TestSetupRouter_Routes(t *testing.T) {
	r, _ := testRouter()

	registered := make(map[string]bool)
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}

	want := []string{
		"POST /api/v1/auth/admin/login",
		"POST /api/v1/auth/writer/login",
		"GET /api/v1/auth/admin/me",
		"GET /api/v1/writer/tasks/:task_id/phase",
		"GET /ws/v1/writer/tasks/:task_id/phase",
		"GET /api/v1/admin/tasks/:task_id/settings",
		"PUT /api/v1/admin/tasks/:task_id/settings",
		"GET /api/v1/admin/tasks/:task_id/grade-levels",
		"POST /api/v1/admin/tasks/:task_id/grade-levels",
		"GET /api/v1/admin/tasks/:task_id/grade-levels/conflicts",
		"PUT /api/v1/admin/tasks/:task_id/grade-levels/:id",
		"DELETE /api/v1/admin/tasks/:task_id/grade-levels/:id",
		"GET /api/v1/admin/tasks/:task_id/time-extensions",
		"PUT /api/v1/admin/tasks/:task_id/time-extensions/:writer_id",
		"DELETE /api/v1/admin/tasks/:task_id/time-extensions/:writer_id",
		"GET /api/v1/admin/statistics",
		"GET /api/v1/admin/statistics/export",
		"GET /health",
	}
	for _, route := range want {
		if !registered[route] {
			t.Errorf("route %s not registered", route)
		}
	}
}

func TestSetupRouter_Guards(t *testing.T) {
	r, auth := testRouter()
	writerToken, _ := auth.GenerateWriterToken(42)
	readOnly, _ := auth.GenerateAdminToken(1, 2, []string{"statistics:read"})

	tests := []struct {
		name     string
		method   string
		path     string
		token    string
		wantCode int
	}{
		{"admin route without token", http.MethodGet, "/api/v1/admin/statistics", "", http.StatusUnauthorized},
		{"admin route with writer token", http.MethodGet, "/api/v1/admin/statistics", writerToken, http.StatusForbidden},
		{"export without export permission", http.MethodGet, "/api/v1/admin/statistics/export", readOnly, http.StatusForbidden},
		{"writer route with admin token", http.MethodGet, "/api/v1/writer/tasks/1/phase", readOnly, http.StatusForbidden},
		{"grade write without permission", http.MethodPost, "/api/v1/admin/tasks/1/grade-levels", readOnly, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", w.Code, tt.wantCode)
			}
		})
	}
}
