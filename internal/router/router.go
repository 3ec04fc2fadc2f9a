package router

import (
	"context"
	"time"

	"project-tracker/internal/cache"
	"project-tracker/internal/config"
	"project-tracker/internal/database"
	"project-tracker/internal/handlers"
	"project-tracker/internal/middleware"
	"project-tracker/internal/monitoring"
	"project-tracker/internal/repositories"
	"project-tracker/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Dependencies struct {
	Config  *config.Config
	Pool    *database.DatabasePool
	Cache   *cache.MultiLevelCache
	Monitor *monitoring.Monitor
}

// Setup wires repositories, services and handlers into a gin engine. With a
// nil Cache the project listings are read straight from the database.
func Setup(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	monitor := deps.Monitor
	if monitor == nil {
		monitor = monitoring.NewMonitor()
	}

	repos := repositories.New(deps.Pool.DB)

	var (
		projectService    services.ProjectService    = services.NewProjectService(repos)
		membershipService services.MembershipService = services.NewMembershipService(repos)
	)
	if deps.Cache != nil {
		projectService = services.NewCachedProjectService(projectService, deps.Cache, cfg.Cache.FeedTTL)
		membershipService = services.NewCachedMembershipService(membershipService, deps.Cache)
	}
	taskService := services.NewTaskService(repos)
	authService := services.NewAuthService(repos.Users, cfg.Auth)

	registerChecks(monitor, deps)

	r := gin.New()
	if !cfg.IsTest() {
		r.Use(gin.Logger())
	}
	r.Use(middleware.RecoveryWithLog())
	r.Use(monitor.Middleware())
	r.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))

	r.GET("/health", monitor.HealthHandler())
	r.GET("/ready", monitor.ReadinessHandler())
	r.GET("/live", monitor.LivenessHandler())
	r.GET("/metrics", monitor.MetricsHandler())

	api := r.Group("/api")
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize, cfg.RateLimit.CleanupInterval)
		api.Use(limiter.Middleware())
	}

	authHandler := handlers.NewAuthHandler(authService)
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(authService))
	protected.GET("/auth/me", authHandler.Me)

	projectHandler := handlers.NewProjectHandler(projectService)
	memberHandler := handlers.NewMemberHandler(membershipService)
	taskHandler := handlers.NewTaskHandler(taskService)

	projects := protected.Group("/projects")
	projects.GET("", projectHandler.List)
	projects.GET("/mine", projectHandler.Mine)
	projects.POST("", projectHandler.Create)
	projects.GET("/:project_id", projectHandler.Show)
	projects.PUT("/:project_id", projectHandler.Update)
	projects.DELETE("/:project_id", projectHandler.Delete)

	projects.GET("/:project_id/members", memberHandler.List)
	projects.POST("/:project_id/members", memberHandler.Attach)

	projects.POST("/:project_id/tasks", taskHandler.Create)
	projects.GET("/:project_id/tasks/:task_id", taskHandler.Show)
	projects.PUT("/:project_id/tasks/:task_id", taskHandler.Update)
	projects.DELETE("/:project_id/tasks/:task_id", taskHandler.Delete)

	return r
}

// corsConfig allows credentials only for an explicit origin list; with no
// origins configured every origin is accepted without credentials.
func corsConfig(origins []string) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		corsCfg.AllowAllOrigins = true
		return corsCfg
	}
	corsCfg.AllowOrigins = origins
	corsCfg.AllowCredentials = true
	return corsCfg
}

func registerChecks(monitor *monitoring.Monitor, deps Dependencies) {
	monitor.RegisterHealthCheck("database", true, func(ctx context.Context) error {
		return deps.Pool.Health()
	})
	monitor.RegisterStats("database", deps.Pool.Stats)

	if deps.Cache != nil {
		monitor.RegisterHealthCheck("cache", false, func(ctx context.Context) error {
			return deps.Cache.Health()
		})
		monitor.RegisterStats("cache", deps.Cache.Stats)
	}
}
