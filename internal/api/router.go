package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/taskflow/tracker/docs"
	"github.com/taskflow/tracker/internal/api/handler"
	"github.com/taskflow/tracker/internal/api/middleware"
	"github.com/taskflow/tracker/internal/core/domain"
	"github.com/taskflow/tracker/internal/core/ports"
	"github.com/taskflow/tracker/internal/infrastructure/http/handlers"
)

// Dependencies carries everything the router needs to wire handlers.
type Dependencies struct {
	Identity ports.IdentityService
	Tasks    ports.TaskService
	Checks   map[string]handlers.Check
	Logger   zerolog.Logger

	// EnableMetrics mounts the Prometheus middleware and /metrics. It
	// registers collectors globally, so only one router per process may set it.
	EnableMetrics bool
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Logger))
	if deps.EnableMetrics {
		e.Use(echoprometheus.NewMiddleware("taskflow"))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Identity)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Task routes (bearer token + USER role) ---
	taskHandler := handler.NewTaskHandler(deps.Tasks)
	tasks := e.Group("/tasks",
		middleware.Auth(deps.Identity, deps.Logger),
		middleware.RequireRole(domain.RoleUser),
	)
	tasks.GET("", taskHandler.List)
	tasks.POST("", taskHandler.Create)
	tasks.GET("/search", taskHandler.Search)
	tasks.GET("/overdue", taskHandler.Overdue)
	tasks.GET("/count", taskHandler.Count)
	tasks.GET("/:id", taskHandler.Get)
	tasks.PUT("/:id", taskHandler.Update)
	tasks.PATCH("/:id/status", taskHandler.UpdateStatus)
	tasks.DELETE("/:id", taskHandler.Delete)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks, deps.Logger)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
