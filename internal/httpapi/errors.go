package httpapi

import (
	"errors"
	"net/http"

	"voice-gateway/internal/apperr"

	"github.com/gin-gonic/gin"
)

// WriteError maps an error kind to a status and writes {"error": msg}.
// Messages from upstream collaborators pass through verbatim.
func WriteError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(StatusFor(err), gin.H{"error": err.Error()})
}

func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		// Signing, upstream and unconfigured collaborators all surface as 500.
		return http.StatusInternalServerError
	}
}
