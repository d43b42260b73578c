// Package router sets up the HTTP routing for the application.
package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/user-accounts/backend/internal/integration/entrypoint/controller"
	"github.com/user-accounts/backend/internal/integration/entrypoint/middleware"
)

// Router holds the Gin engine and controller dependencies.
type Router struct {
	engine            *gin.Engine
	healthController  *controller.HealthController
	authController    *controller.AuthController
	userController    *controller.UserController
	sessionController *controller.SessionController
	loginRateLimiter  *middleware.RateLimiter
	authMiddleware    *middleware.AuthMiddleware
	httpMetrics       middleware.HTTPMetrics
	metricsHandler    http.Handler
	logger            *slog.Logger
}

// Dependencies groups what the router serves.
type Dependencies struct {
	HealthController  *controller.HealthController
	AuthController    *controller.AuthController
	UserController    *controller.UserController
	SessionController *controller.SessionController
	LoginRateLimiter  *middleware.RateLimiter
	AuthMiddleware    *middleware.AuthMiddleware
	HTTPMetrics       middleware.HTTPMetrics
	MetricsHandler    http.Handler
	Logger            *slog.Logger
}

// NewRouter creates a new router instance with all dependencies.
func NewRouter(deps Dependencies) *Router {
	return &Router{
		healthController:  deps.HealthController,
		authController:    deps.AuthController,
		userController:    deps.UserController,
		sessionController: deps.SessionController,
		loginRateLimiter:  deps.LoginRateLimiter,
		authMiddleware:    deps.AuthMiddleware,
		httpMetrics:       deps.HTTPMetrics,
		metricsHandler:    deps.MetricsHandler,
		logger:            deps.Logger,
	}
}

// Setup configures and returns the Gin engine with all routes.
func (r *Router) Setup(environment string) *gin.Engine {
	switch environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	r.engine = gin.New()
	r.engine.Use(gin.Recovery())
	if r.logger != nil {
		r.engine.Use(middleware.RequestLogger(r.logger))
	}
	if r.httpMetrics != nil {
		r.engine.Use(middleware.Metrics(r.httpMetrics))
	}

	r.setupHealthRoutes()
	r.setupAPIRoutes()

	return r.engine
}

// setupHealthRoutes configures health check and metrics endpoints.
func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.healthController.Check)
	if r.metricsHandler != nil {
		r.engine.GET("/metrics", gin.WrapH(r.metricsHandler))
	}
}

// setupAPIRoutes configures the main API routes.
func (r *Router) setupAPIRoutes() {
	v1 := r.engine.Group("/api/v1")

	users := v1.Group("/users")
	{
		users.POST("", r.userController.Register)
		users.GET("", r.userController.List)
		users.GET("/:name", r.userController.Get)
		users.PUT("/:name", r.authMiddleware.Authenticate(), r.userController.Update)
		users.DELETE("/:name", r.authMiddleware.Authenticate(), r.userController.Delete)
	}

	auth := v1.Group("/auth")
	{
		auth.POST("/login", r.loginRateLimiter.Middleware(), r.authController.Login)
		auth.POST("/token", r.loginRateLimiter.Middleware(), r.authController.Token)
		auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.Me)
		auth.POST("/logout", r.authController.Logout)
	}

	sessions := v1.Group("/sessions")
	{
		sessions.POST("", r.sessionController.Start)
		sessions.GET("/:id", r.sessionController.Get)
		sessions.POST("/:id/login", r.loginRateLimiter.Middleware(), r.sessionController.Login)
		sessions.POST("/:id/recovery", r.sessionController.RequestRecovery)
		sessions.DELETE("/:id/recovery", r.sessionController.CancelRecovery)
		sessions.POST("/:id/recovery/email", r.sessionController.RecoveryEmail)
		sessions.POST("/:id/recovery/code", r.loginRateLimiter.Middleware(), r.sessionController.RecoveryCode)
		sessions.POST("/:id/recovery/password", r.sessionController.NewPassword)
		sessions.POST("/:id/registration", r.sessionController.Register)
		sessions.DELETE("/:id/registration", r.sessionController.CancelRegistration)
		sessions.POST("/:id/logout", r.sessionController.Logout)
	}
}
