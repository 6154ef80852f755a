package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/mioplatform/mio-backend/internal/domain"
	"github.com/mioplatform/mio-backend/internal/http/response"
	"github.com/mioplatform/mio-backend/internal/platform/ctxutil"
	"github.com/mioplatform/mio-backend/internal/services"
)

type AssignmentHandler struct {
	enrollments services.EnrollmentService
	assignments services.AssignmentService
	completions services.CompletionService
}

func NewAssignmentHandler(
	enrollments services.EnrollmentService,
	assignments services.AssignmentService,
	completions services.CompletionService,
) *AssignmentHandler {
	return &AssignmentHandler{
		enrollments: enrollments,
		assignments: assignments,
		completions: completions,
	}
}

type enrollRequest struct {
	ProtocolID   string         `json:"protocol_id"`
	ProtocolSlug string         `json:"protocol_slug"`
	Slot         string         `json:"slot"`
	StartAt      *time.Time     `json:"start_at"`
	Metadata     map[string]any `json:"metadata"`
}

// POST /api/assignments
func (h *AssignmentHandler) Enroll(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	in := services.EnrollInput{
		UserID:       rd.UserID,
		ProtocolSlug: req.ProtocolSlug,
		Slot:         types.AssignmentSlot(req.Slot),
		StartAt:      req.StartAt,
		Metadata:     req.Metadata,
	}
	if req.ProtocolID != "" {
		id, err := uuid.Parse(req.ProtocolID)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "validation", err)
			return
		}
		in.ProtocolID = id
	}

	assignment, err := h.enrollments.Enroll(c.Request.Context(), in)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"assignment": assignment})
}

// GET /api/users/me/assignments
func (h *AssignmentHandler) List(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	list, err := h.assignments.ListForUser(c.Request.Context(), rd.UserID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assignments": list})
}

// GET /api/assignments/:id
func (h *AssignmentHandler) GetState(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	state, err := h.assignments.GetState(c.Request.Context(), rd.UserID, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, state)
}

// POST /api/assignments/:id/pause
func (h *AssignmentHandler) Pause(c *gin.Context) {
	h.transition(c, h.assignments.Pause)
}

// POST /api/assignments/:id/resume
func (h *AssignmentHandler) Resume(c *gin.Context) {
	h.transition(c, h.assignments.Resume)
}

// POST /api/assignments/:id/restart
func (h *AssignmentHandler) Restart(c *gin.Context) {
	h.transition(c, h.assignments.Restart)
}

type abandonRequest struct {
	Reason string `json:"reason"`
}

// POST /api/assignments/:id/abandon
func (h *AssignmentHandler) Abandon(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req abandonRequest
	_ = c.ShouldBindJSON(&req)

	assignment, err := h.assignments.Abandon(c.Request.Context(), rd.UserID, id, req.Reason)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assignment": assignment})
}

type completeTaskRequest struct {
	Skip     bool           `json:"skip"`
	Response map[string]any `json:"response"`
	Notes    string         `json:"notes"`
	Rating   *int           `json:"rating"`
}

// POST /api/assignments/:id/tasks/:taskID/complete
func (h *AssignmentHandler) CompleteTask(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	taskID, err := uuid.Parse(c.Param("taskID"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req completeTaskRequest
	_ = c.ShouldBindJSON(&req)

	res, err := h.completions.CompleteTask(c.Request.Context(), services.CompleteTaskInput{
		UserID:       rd.UserID,
		AssignmentID: assignmentID,
		TaskID:       taskID,
		Skip:         req.Skip,
		Response:     req.Response,
		Notes:        req.Notes,
		Rating:       req.Rating,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"record":       res.Record,
		"day_complete": res.DayComplete,
		"assignment":   res.Assignment,
	})
}

func (h *AssignmentHandler) transition(c *gin.Context, fn func(ctx context.Context, userID, assignmentID uuid.UUID) (*types.Assignment, error)) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	assignment, err := fn(c.Request.Context(), rd.UserID, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"assignment": assignment})
}
