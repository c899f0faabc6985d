package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ualog/activity-tracker/internal/config"
	"github.com/ualog/activity-tracker/internal/handlers"
	"github.com/ualog/activity-tracker/internal/middleware"
)

// Handlers holds the endpoint dependencies wired in at startup
type Handlers struct {
	Signals *handlers.SignalsHandler
	Reports *handlers.ReportsHandler
}

// HTTPServer hosts the signal and report endpoints
type HTTPServer struct {
	router   *gin.Engine
	config   *config.Config
	logger   *zap.Logger
	handlers *Handlers
}

// New creates a new server instance
func New(cfg *config.Config, h *Handlers, logger *zap.Logger) *HTTPServer {
	return &HTTPServer{
		config:   cfg,
		handlers: h,
		logger:   logger,
	}
}

// Setup initializes the router, middleware, and routes
func (s *HTTPServer) Setup() {
	if s.config.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()
}

// Router exposes the gin engine (for tests)
func (s *HTTPServer) Router() *gin.Engine {
	return s.router
}

func (s *HTTPServer) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.ClientIP())
	s.router.Use(middleware.RequestLogger(s.logger))

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "X-User-Role"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
}

func (s *HTTPServer) setupRoutes() {
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	v1.GET("/health", s.healthCheck)

	signals := v1.Group("/signals")
	signals.Use(middleware.TrackedRoles(s.config.Tracking.Roles))
	{
		signals.POST("/login", s.handlers.Signals.Login)
		signals.POST("/logout", s.handlers.Signals.Logout)
		signals.POST("/tick", s.handlers.Signals.Tick)
		signals.POST("/page-view", s.handlers.Signals.PageView)
		signals.POST("/form-submit", s.handlers.Signals.FormSubmit)
		signals.POST("/course-event", s.handlers.Signals.CourseEvent)
	}

	v1.GET("/users/:id/sessions", s.handlers.Reports.ListUserSessions)
	v1.GET("/users/:id/export", s.handlers.Reports.ExportUser)
	v1.GET("/sessions/:id/activities", s.handlers.Reports.ListSessionActivities)
	v1.GET("/reports/summary", s.handlers.Reports.Summary)
	v1.GET("/reports/users/count", s.handlers.Reports.CountUsers)
}

func (s *HTTPServer) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"environment": s.config.Server.Environment,
	})
}

// Start runs the server until an interrupt or termination signal arrives,
// then shuts down gracefully.
func (s *HTTPServer) Start() error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Server.Port),
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		s.logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	return nil
}
