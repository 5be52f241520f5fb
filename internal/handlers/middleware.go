package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"videotube/internal/models"

	"github.com/gin-gonic/gin"
)

// Gin context keys set by userIdentity.
const (
	ctxUserID = "userId"
	ctxUser   = "user"
)

const (
	msgUnauthorizedRequest = "Unauthorized request"
	msgInvalidAccessToken  = "Invalid access token"
)

// userIdentity resolves the caller from the accessToken cookie or a Bearer
// header and stores the id and the sanitized record in the gin context.
func (h *Handler) userIdentity(c *gin.Context) {
	token := accessToken(c)
	if token == "" {
		h.respondError(c, "auth_missing_token", models.Unauthorized(msgUnauthorizedRequest), "path", c.FullPath())
		return
	}

	userID, err := h.services.ParseAccessToken(token)
	if err != nil {
		h.respondError(c, "auth_invalid_token", models.NewAPIError(http.StatusUnauthorized, msgInvalidAccessToken, err))
		return
	}

	user, err := h.services.GetUser(c.Request.Context(), userID)
	if err != nil {
		var apiErr *models.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			err = models.NewAPIError(http.StatusUnauthorized, msgInvalidAccessToken, err)
		}
		h.respondError(c, "auth_user_lookup_failed", err, "user_id", userID)
		return
	}

	// store in Gin context
	c.Set(ctxUserID, userID)
	c.Set(ctxUser, user)
	c.Next()
}

// accessToken prefers the cookie over the Authorization header.
func accessToken(c *gin.Context) string {
	if token, err := c.Cookie(accessTokenCookie); err == nil && token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requestLogger writes one line per request.
func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()

	h.log.Infow("http_request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"latency", time.Since(start),
		"client_ip", c.ClientIP(),
	)
}
