package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/mioplatform/mio-backend/internal/data/repos"
	"github.com/mioplatform/mio-backend/internal/platform/dbctx"
	"github.com/mioplatform/mio-backend/internal/platform/envutil"
	"github.com/mioplatform/mio-backend/internal/platform/logger"
)

// CoachPermissionService answers "may this actor bypass gates for that
// user". Backed by the user role plus an optional static allowlist for
// break-glass accounts.
type CoachPermissionService interface {
	MayOverride(ctx context.Context, actorID, subjectUserID uuid.UUID) (bool, error)
}

type coachPermissionService struct {
	log       *logger.Logger
	users     repos.UserRepo
	allowlist map[string]bool
}

func NewCoachPermissionService(log *logger.Logger, users repos.UserRepo) CoachPermissionService {
	allow := map[string]bool{}
	for _, id := range strings.Split(envutil.Str("COACH_OVERRIDE_ALLOWLIST", ""), ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			allow[id] = true
		}
	}
	return &coachPermissionService{
		log:       log.With("service", "CoachPermissionService"),
		users:     users,
		allowlist: allow,
	}
}

func (s *coachPermissionService) MayOverride(ctx context.Context, actorID, subjectUserID uuid.UUID) (bool, error) {
	if actorID == uuid.Nil || subjectUserID == uuid.Nil {
		return false, nil
	}
	if s.allowlist[actorID.String()] {
		return true, nil
	}
	actor, err := s.users.GetByID(dbctx.Context{Ctx: ctx}, actorID)
	if err != nil {
		return false, err
	}
	if actor == nil {
		return false, nil
	}
	return actor.IsCoach(), nil
}
