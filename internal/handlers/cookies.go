package handlers

import (
	"net/http"

	"videotube/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

func (h *Handler) setSessionCookies(c *gin.Context, pair service.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, pair.AccessToken, int(h.opts.AccessTTL.Seconds()), "/", "", h.opts.SecureCookies, true)
	c.SetCookie(refreshTokenCookie, pair.RefreshToken, int(h.opts.RefreshTTL.Seconds()), "/", "", h.opts.SecureCookies, true)
}

func (h *Handler) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, "", -1, "/", "", h.opts.SecureCookies, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/", "", h.opts.SecureCookies, true)
}
