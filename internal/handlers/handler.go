package handlers

import (
	"net/http"
	"time"

	"videotube/internal/logger"
	"videotube/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const statusOK = "ok"

// Options tune the HTTP layer.
type Options struct {
	// SecureCookies marks session cookies Secure. Off only for plain-HTTP development.
	SecureCookies bool
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	// TmpDir receives multipart uploads until the request finishes.
	TmpDir         string
	MaxUploadBytes int64
	// MediaDir, when set, is served under /media.
	MediaDir string
}

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	opts     Options
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts Options) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{services: services, log: log, opts: opts}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	if h.opts.MediaDir != "" {
		router.Static("/media", h.opts.MediaDir)
	}

	h.registerUserRoutes(router)

	return router
}

func (h *Handler) registerUserRoutes(r *gin.Engine) {
	users := r.Group("/api/v1/users")
	{
		users.POST("/register", h.limitBody, h.register)
		users.POST("/login", h.login)
		users.POST("/refresh-token", h.refreshToken)
	}

	secured := users.Group("", h.userIdentity)
	{
		secured.POST("/logout", h.logout)
		secured.POST("/change-password", h.changePassword)
		secured.GET("/current-user", h.currentUser)
		secured.PATCH("/update-account", h.updateAccount)
		secured.PATCH("/avatar", h.limitBody, h.updateAvatar)
		secured.PATCH("/cover-image", h.limitBody, h.updateCoverImage)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}
