package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/mioplatform/mio-backend/internal/domain"
	"github.com/mioplatform/mio-backend/internal/http/response"
	"github.com/mioplatform/mio-backend/internal/platform/ctxutil"
	"github.com/mioplatform/mio-backend/internal/services"
)

type EventHandler struct {
	events services.EventService
}

func NewEventHandler(events services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// GET /api/events
func (h *EventHandler) List(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	list, err := h.events.ListForUser(c.Request.Context(), rd.UserID, limit)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": list})
}

// GET /api/assignments/:id/events
func (h *EventHandler) ListForAssignment(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	list, err := h.events.ListForAssignment(c.Request.Context(), rd.UserID, id)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": list})
}

type settleOutcomeRequest struct {
	Outcome string `json:"outcome" binding:"required"`
}

// PATCH /api/events/:id/outcome
func (h *EventHandler) SettleOutcome(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req settleOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	ev, err := h.events.SettleOutcome(c.Request.Context(), id, types.EventOutcome(req.Outcome))
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"event": ev})
}
