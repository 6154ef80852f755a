package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/mioplatform/mio-backend/internal/domain/aggregates"
	"github.com/mioplatform/mio-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// RespondDomainError translates aggregate error codes to HTTP statuses.
// Precondition failures carry the reason code so clients can branch on it.
func RespondDomainError(c *gin.Context, err error) {
	var ae *apierr.Error
	if e, ok := err.(*apierr.Error); ok {
		ae = e
	}
	if ae != nil {
		RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}

	code := domainagg.CodeOf(err)
	switch code {
	case domainagg.CodeValidation:
		RespondError(c, http.StatusBadRequest, string(code), err)
	case domainagg.CodeNotFound:
		RespondError(c, http.StatusNotFound, string(code), err)
	case domainagg.CodePreconditionFailed:
		reason := domainagg.MessageOf(err)
		if reason == "" {
			reason = string(code)
		}
		RespondError(c, http.StatusConflict, reason, err)
	case domainagg.CodeConflict, domainagg.CodeRetryable:
		RespondError(c, http.StatusConflict, string(code), err)
	case domainagg.CodeInvariantViolation:
		RespondError(c, http.StatusUnprocessableEntity, string(code), err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal", err)
	}
}
