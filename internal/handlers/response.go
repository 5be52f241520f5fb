package handlers

import (
	"errors"
	"net/http"

	"videotube/internal/models"

	"github.com/gin-gonic/gin"
)

const msgInternalError = "Internal server error"

func (h *Handler) respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, models.NewResponse(status, data, message))
}

// respondError renders err as the error envelope. Anything that is not an
// APIError becomes a 500 with a generic message; the cause is only logged.
func (h *Handler) respondError(c *gin.Context, event string, err error, kv ...any) {
	var apiErr *models.APIError
	if !errors.As(err, &apiErr) {
		apiErr = models.Internal(msgInternalError, err)
	}

	fields := append([]any{"status", apiErr.Status, "err", err}, kv...)
	if apiErr.Status >= http.StatusInternalServerError {
		h.log.Errorw(event, fields...)
	} else {
		h.log.Infow(event, fields...)
	}
	c.AbortWithStatusJSON(apiErr.Status, models.NewErrorResponse(apiErr))
}
