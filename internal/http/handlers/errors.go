package handlers

import (
	"errors"
	"net/http"

	"collegetour/internal/domain"
	"collegetour/internal/http/middleware"
	"collegetour/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorResponse standardizes error payloads.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	if code == "" {
		code = http.StatusText(status)
	}
	resp := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}
	reqID := middleware.GetRequestID(c)
	if reqID != "" {
		c.JSON(status, gin.H{
			"error":      resp.Error,
			"code":       resp.Code,
			"details":    resp.Details,
			"request_id": reqID,
			"message":    message,
		})
		return
	}
	c.JSON(status, resp)
}

func codeOr(err error, fallback string) string {
	if r := domain.Reason(err); r != "" {
		return r
	}
	return fallback
}

// RespondDomainError maps domain errors to HTTP responses. The code field
// carries the domain reason when there is one.
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		var verr domain.ValidationError
		errors.As(err, &verr)
		var details any
		if verr.Field != "" {
			details = gin.H{"field": verr.Field}
		}
		respondError(c, http.StatusBadRequest, "validation_error", err.Error(), details)
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, codeOr(err, "not_found"), err.Error(), nil)
	case domain.IsCapacity(err):
		respondError(c, http.StatusConflict, codeOr(err, "capacity"), err.Error(), nil)
	case domain.IsConflict(err):
		respondError(c, http.StatusConflict, codeOr(err, "conflict"), err.Error(), nil)
	case domain.IsMismatch(err):
		respondError(c, http.StatusForbidden, codeOr(err, "forbidden"), err.Error(), nil)
	case domain.IsUnauthorized(err):
		respondError(c, http.StatusUnauthorized, codeOr(err, "unauthorized"), err.Error(), nil)
	default:
		_ = c.Error(err)
		utils.LogEvent(middleware.GetRequestID(c), "http", "internal_error", err.Error())
		respondError(c, http.StatusInternalServerError, "internal_error", "something went wrong, please try again", nil)
	}
}
