package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/mioplatform/mio-backend/internal/http/handlers"
	httpMW "github.com/mioplatform/mio-backend/internal/http/middleware"
	"github.com/mioplatform/mio-backend/internal/observability"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware

	AssignmentHandler *httpH.AssignmentHandler
	TacticHandler     *httpH.TacticHandler
	EventHandler      *httpH.EventHandler
	ProgramHandler    *httpH.ProgramHandler
	AdminHandler      *httpH.AdminHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.CORS())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/api/health", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AssignmentHandler != nil {
			protected.POST("/assignments", cfg.AssignmentHandler.Enroll)
			protected.GET("/users/me/assignments", cfg.AssignmentHandler.List)
			protected.GET("/assignments/:id", cfg.AssignmentHandler.GetState)
			protected.POST("/assignments/:id/pause", cfg.AssignmentHandler.Pause)
			protected.POST("/assignments/:id/resume", cfg.AssignmentHandler.Resume)
			protected.POST("/assignments/:id/abandon", cfg.AssignmentHandler.Abandon)
			protected.POST("/assignments/:id/restart", cfg.AssignmentHandler.Restart)
			protected.POST("/assignments/:id/tasks/:taskID/complete", cfg.AssignmentHandler.CompleteTask)
		}

		if cfg.TacticHandler != nil {
			protected.POST("/tactics/:id/signals", cfg.TacticHandler.ReportSignal)
		}

		if cfg.EventHandler != nil {
			protected.GET("/events", cfg.EventHandler.List)
			protected.GET("/assignments/:id/events", cfg.EventHandler.ListForAssignment)
			protected.PATCH("/events/:id/outcome", cfg.EventHandler.SettleOutcome)
		}

		if cfg.ProgramHandler != nil {
			protected.GET("/programs/:id/progress", cfg.ProgramHandler.GetProgress)
		}

		if cfg.AdminHandler != nil && cfg.AuthMiddleware != nil {
			admin := protected.Group("/admin")
			admin.Use(cfg.AuthMiddleware.RequireCoach())
			admin.POST("/tick", cfg.AdminHandler.RunAdvancement)
		}
	}

	return r
}
