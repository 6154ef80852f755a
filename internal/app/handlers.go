package app

import (
	"gorm.io/gorm"

	httpH "github.com/mioplatform/mio-backend/internal/http/handlers"
	httpMW "github.com/mioplatform/mio-backend/internal/http/middleware"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

type Handlers struct {
	Auth       *httpH.AuthHandler
	Assignment *httpH.AssignmentHandler
	Tactic     *httpH.TacticHandler
	Event      *httpH.EventHandler
	Program    *httpH.ProgramHandler
	Admin      *httpH.AdminHandler
	Health     *httpH.HealthHandler

	AuthMiddleware *httpMW.AuthMiddleware
}

func wireHandlers(db *gorm.DB, log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:           httpH.NewAuthHandler(s.Auth),
		Assignment:     httpH.NewAssignmentHandler(s.Enrollment, s.Assignment, s.Completion),
		Tactic:         httpH.NewTacticHandler(s.Signal),
		Event:          httpH.NewEventHandler(s.Event),
		Program:        httpH.NewProgramHandler(s.ProgramProgress),
		Admin:          httpH.NewAdminHandler(s.Advancement),
		Health:         httpH.NewHealthHandler(db),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, s.Auth),
	}
}
