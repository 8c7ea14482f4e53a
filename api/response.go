package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pinnlo/pinnlo-server/integrations"
	"github.com/pinnlo/pinnlo-server/internal/cards"
	"github.com/pinnlo/pinnlo-server/internal/selection"
	"github.com/pinnlo/pinnlo-server/internal/store"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{Message: message, Code: code},
	})
}

// fail maps err onto a response. Unexpected errors are logged and reported
// with a generic message.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", "not found")
	case store.IsValidation(err):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, cards.ErrEmptyTag),
		errors.Is(err, cards.ErrSelfLink),
		errors.Is(err, cards.ErrInvalidKind):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, cards.ErrDuplicateLink):
		respondError(c, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, selection.ErrBusy):
		respondError(c, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, integrations.ErrEnhancerNotConfigured):
		respondError(c, http.StatusServiceUnavailable, "unavailable", err.Error())
	default:
		h.Log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		respondError(c, http.StatusInternalServerError, "internal_error", "Something went wrong")
	}
}

func badRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, "bad_request", message)
}
