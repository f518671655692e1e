package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-essay/internal/config"
	"github.com/stemsi/exstem-essay/internal/handler"
	"github.com/stemsi/exstem-essay/internal/middleware"
	"github.com/stemsi/exstem-essay/internal/model"
	"github.com/stemsi/exstem-essay/internal/response"
	"github.com/stemsi/exstem-essay/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	Task          *handler.TaskHandler
	GradeLevel    *handler.GradeLevelHandler
	TimeExtension *handler.TimeExtensionHandler
	Statistics    *handler.StatisticsHandler
	WS            *handler.WSHandler
	System        *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	authLimiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(response.AccessLogMiddleware(log))
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/writer/login", authLimiter.Middleware(), handlers.Auth.WriterLogin)
		auth.POST("/admin/login", authLimiter.Middleware(), handlers.Auth.AdminLogin)

		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.GetAdminProfile)
	}

	// ─── 2. Writer Group (Writer JWT) ──────────────────────────────────
	writerAPI := router.Group("/api/v1/writer")
	writerAPI.Use(middleware.RequireWriterJWT(authService), middleware.NoStore())
	{
		writerAPI.GET("/tasks/:task_id/phase", handlers.Task.GetWriterPhase)
	}

	// ─── 3. WebSocket Group (Writer WS Auth) ───────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWriterWSAuth(authService))
	{
		ws.GET("/writer/tasks/:task_id/phase", handlers.WS.PhaseStream)
	}

	// ─── 4. Admin Group (JWT + RBAC) ───────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Task settings
		adminAPI.GET("/tasks/:task_id/settings",
			middleware.RequirePermission(string(model.PermissionTasksRead)),
			handlers.Task.GetSettings,
		)
		adminAPI.PUT("/tasks/:task_id/settings",
			middleware.RequirePermission(string(model.PermissionTasksWrite)),
			handlers.Task.UpdateSettings,
		)

		// Grade levels
		adminAPI.GET("/tasks/:task_id/grade-levels",
			middleware.RequirePermission(string(model.PermissionGradesRead)),
			handlers.GradeLevel.List,
		)
		adminAPI.GET("/tasks/:task_id/grade-levels/conflicts",
			middleware.RequirePermission(string(model.PermissionGradesRead)),
			handlers.GradeLevel.Conflicts,
		)
		adminAPI.POST("/tasks/:task_id/grade-levels",
			middleware.RequirePermission(string(model.PermissionGradesWrite)),
			handlers.GradeLevel.Create,
		)
		adminAPI.PUT("/tasks/:task_id/grade-levels/:id",
			middleware.RequirePermission(string(model.PermissionGradesWrite)),
			handlers.GradeLevel.Update,
		)
		adminAPI.DELETE("/tasks/:task_id/grade-levels/:id",
			middleware.RequirePermission(string(model.PermissionGradesWrite)),
			handlers.GradeLevel.Delete,
		)

		// Time extensions
		adminAPI.GET("/tasks/:task_id/time-extensions",
			middleware.RequirePermission(string(model.PermissionExtensionsWrite)),
			handlers.TimeExtension.List,
		)
		adminAPI.PUT("/tasks/:task_id/time-extensions/:writer_id",
			middleware.RequirePermission(string(model.PermissionExtensionsWrite)),
			handlers.TimeExtension.Put,
		)
		adminAPI.DELETE("/tasks/:task_id/time-extensions/:writer_id",
			middleware.RequirePermission(string(model.PermissionExtensionsWrite)),
			handlers.TimeExtension.Delete,
		)

		// Statistics
		adminAPI.GET("/statistics",
			middleware.RequirePermission(string(model.PermissionStatisticsRead)),
			middleware.NoStore(),
			handlers.Statistics.Report,
		)
		adminAPI.GET("/statistics/export",
			middleware.RequirePermission(string(model.PermissionStatisticsExport)),
			handlers.Statistics.Export,
		)

		// System
		adminAPI.GET("/system/metrics",
			middleware.RequireAnyPermission(string(model.PermissionTasksRead), string(model.PermissionStatisticsRead)),
			handlers.System.SystemMetricsSSE,
		)
	}

	return router
}
