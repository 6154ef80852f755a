package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mioplatform/mio-backend/internal/http/response"
	"github.com/mioplatform/mio-backend/internal/platform/ctxutil"
	"github.com/mioplatform/mio-backend/internal/services"
)

type TacticHandler struct {
	signals services.SignalService
}

func NewTacticHandler(signals services.SignalService) *TacticHandler {
	return &TacticHandler{signals: signals}
}

type signalRequest struct {
	UserID         string   `json:"user_id"`
	VideoWatchPct  *float64 `json:"video_watch_pct"`
	AttemptDelta   int      `json:"attempt_delta"`
	Score          *float64 `json:"score"`
	StepsCompleted *int     `json:"steps_completed"`
	Override       bool     `json:"override"`
}

// POST /api/tactics/:id/signals
// A coach may report on behalf of another user by setting user_id; the
// override path checks permission server-side either way.
func (h *TacticHandler) ReportSignal(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	tacticID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	var req signalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	subjectID := rd.UserID
	if req.UserID != "" {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "validation", err)
			return
		}
		subjectID = id
	}
	if subjectID != rd.UserID && !rd.IsCoach {
		response.RespondError(c, http.StatusForbidden, "forbidden", nil)
		return
	}

	progress, err := h.signals.Report(c.Request.Context(), services.SignalInput{
		UserID:         subjectID,
		TacticID:       tacticID,
		VideoWatchPct:  req.VideoWatchPct,
		AttemptDelta:   req.AttemptDelta,
		Score:          req.Score,
		StepsCompleted: req.StepsCompleted,
		ActorID:        rd.UserID,
		Override:       req.Override,
	})
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": progress})
}
