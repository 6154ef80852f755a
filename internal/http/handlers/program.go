package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mioplatform/mio-backend/internal/http/response"
	"github.com/mioplatform/mio-backend/internal/platform/ctxutil"
	"github.com/mioplatform/mio-backend/internal/services"
)

type ProgramHandler struct {
	progress services.ProgramProgressService
}

func NewProgramHandler(progress services.ProgramProgressService) *ProgramHandler {
	return &ProgramHandler{progress: progress}
}

// GET /api/programs/:id/progress
func (h *ProgramHandler) GetProgress(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	programID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	view, err := h.progress.GetProgress(c.Request.Context(), rd.UserID, programID)
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, view)
}
