// Package handler contains the HTTP controllers.
package handler

import (
	"errors"
	"net/http"

	"doc-chat-go/internal/apperr"
	"doc-chat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// respondOK writes the standard success envelope.
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": data})
}

// respondError maps a service error to its HTTP status. Sentinel matches
// get their own status and a caller-safe message; everything else is a 500
// with the detail kept in the log only.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Errorf("request failed: %v", err)
		message = "internal server error"
	}
	c.JSON(status, gin.H{"code": status, "message": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrInvalidDocument),
		errors.Is(err, apperr.ErrNoDocuments):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrSizeLimitExceeded):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, apperr.ErrDuplicateAttachment),
		errors.Is(err, apperr.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrIndexBuild),
		errors.Is(err, apperr.ErrUpstreamModel):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
