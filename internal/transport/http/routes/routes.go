package routes

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arcvent/hvac-portal/internal/core/domain"
	"github.com/arcvent/hvac-portal/internal/infra/config"
	"github.com/arcvent/hvac-portal/internal/transport/http/handlers"
	"github.com/arcvent/hvac-portal/internal/transport/http/middleware"
	"github.com/arcvent/hvac-portal/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth      *usecase.AuthService
	Sessions  *usecase.SessionService
	Employees *usecase.EmployeeService
	Audit     *usecase.AuditService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	if origins := deps.Config.HTTP.AllowedOrigins; len(origins) > 0 {
		r.Use(middleware.CORS(origins))
	}
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	checks := map[string]handlers.DependencyCheck{}
	if deps.Database != nil {
		checks["database"] = deps.Database.Ping
	}
	if deps.Cache != nil {
		checks["redis"] = deps.Cache.HealthCheck
	}
	healthHandler := handlers.NewHealthHandler(checks)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	guard := middleware.NewSessionGuard(
		deps.Services.Sessions,
		deps.Config.Session.CookieName,
		deps.Config.HTTP.LoginPath,
		deps.Config.HTTP.DashboardPath,
		deps.Logger,
	)

	api := r.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(
			deps.Services.Auth,
			deps.Services.Sessions,
			deps.Services.Audit,
			deps.Config.Session.CookieName,
			deps.Config.App.IsProduction(),
			deps.Logger,
		)
		authHandler.RegisterRoutes(api.Group("/auth"), guard, buildLoginMiddlewares(deps)...)

		employeeHandler := handlers.NewEmployeeHandler(deps.Services.Employees, deps.Services.Audit)
		employeeHandler.RegisterRoutes(api.Group("/employees"), guard)
	}

	registerPortalPages(r, deps, guard)

	return r
}

// registerPortalPages serves the built frontend bundle with the browser
// guard in front of it. Unauthenticated visitors are redirected to the login
// page; admin pages additionally require an admin or manager role.
func registerPortalPages(r *gin.Engine, deps Dependencies, guard *middleware.SessionGuard) {
	staticDir := deps.Config.HTTP.StaticDir
	if staticDir == "" {
		return
	}

	pageGuard := guard.RequireSessionExcept(
		middleware.GuardModeBrowser,
		deps.Config.HTTP.LoginPath,
		"/assets/*",
		"/favicon.ico",
	)
	adminGuard := guard.RequireRole(middleware.GuardModeBrowser, domain.RoleAdmin, domain.RoleManager)

	r.NoRoute(pageGuard, func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Status(http.StatusNotFound)
			return
		}

		if strings.HasPrefix(c.Request.URL.Path, "/admin") {
			adminGuard(c)
			if c.IsAborted() {
				return
			}
		}

		// Client-side routing: every page path resolves to the SPA shell.
		c.File(filepath.Join(staticDir, "index.html"))
	})

	r.Static("/assets", filepath.Join(staticDir, "assets"))
	r.StaticFile("/favicon.ico", filepath.Join(staticDir, "favicon.ico"))
}

func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.LoginMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = 15 * time.Minute
	}

	audit := deps.Services.Audit

	rule := middleware.RateLimitRule{
		Name:       "login_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
		OnLimited: func(c *gin.Context, identifier string) {
			if audit == nil {
				return
			}
			reqCtx := middleware.GetRequestContext(c)
			audit.Record(c.Request.Context(), domain.EventRateLimitExceeded, nil, usecase.EventContext{
				IP:        reqCtx.IP,
				UserAgent: reqCtx.UserAgent,
			})
		},
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
