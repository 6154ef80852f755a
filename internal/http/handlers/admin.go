package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mioplatform/mio-backend/internal/http/response"
	"github.com/mioplatform/mio-backend/internal/services"
)

type AdminHandler struct {
	advancement services.AdvancementService
}

func NewAdminHandler(advancement services.AdvancementService) *AdminHandler {
	return &AdminHandler{advancement: advancement}
}

// POST /api/admin/tick
// Runs one advancement sweep immediately instead of waiting for the
// scheduled worker. Coach-only.
func (h *AdminHandler) RunAdvancement(c *gin.Context) {
	report, err := h.advancement.Tick(c.Request.Context(), time.Now())
	if err != nil {
		response.RespondDomainError(c, err)
		return
	}
	response.RespondOK(c, report)
}
