package handlers

import (
	"context"
	"net/http"

	"videotube/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	msgUserFetched    = "User fetched successfully"
	msgAccountUpdated = "Account details updated successfully"
	msgAvatarUpdated  = "Avatar image updated successfully"
	msgCoverUpdated   = "Cover image updated successfully"
)

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200  {object}  models.Response{data=models.User}
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/v1/users/current-user [get]
// @Security     BearerAuth
func (h *Handler) currentUser(c *gin.Context) {
	user, _ := c.Get(ctxUser)
	h.respond(c, http.StatusOK, user, msgUserFetched)
}

// @Summary      Update account details
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      updateAccountRequest  true  "Full name and email"
// @Success      200   {object}  models.Response{data=models.User}
// @Failure      400   {object}  models.ErrorResponse
// @Failure      409   {object}  models.ErrorResponse
// @Router       /api/v1/users/update-account [patch]
// @Security     BearerAuth
func (h *Handler) updateAccount(c *gin.Context) {
	var req updateAccountRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	userID := c.GetString(ctxUserID)
	user, err := h.services.UpdateAccountDetails(c.Request.Context(), userID, req.FullName, req.Email)
	if err != nil {
		h.respondError(c, "account_update_failed", err, "user_id", userID)
		return
	}

	h.respond(c, http.StatusOK, user, msgAccountUpdated)
}

// @Summary      Replace avatar
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        avatar  formData  file  true  "Avatar image"
// @Success      200     {object}  models.Response{data=models.User}
// @Failure      400     {object}  models.ErrorResponse
// @Router       /api/v1/users/avatar [patch]
// @Security     BearerAuth
func (h *Handler) updateAvatar(c *gin.Context) {
	h.updateImage(c, "avatar", "account_avatar_failed", h.services.UpdateAvatar, msgAvatarUpdated)
}

// @Summary      Replace cover image
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        coverImage  formData  file  true  "Cover image"
// @Success      200         {object}  models.Response{data=models.User}
// @Failure      400         {object}  models.ErrorResponse
// @Router       /api/v1/users/cover-image [patch]
// @Security     BearerAuth
func (h *Handler) updateCoverImage(c *gin.Context) {
	h.updateImage(c, "coverImage", "account_cover_failed", h.services.UpdateCoverImage, msgCoverUpdated)
}

type imageUpdater func(ctx context.Context, userID, localPath string) (*models.User, error)

func (h *Handler) updateImage(c *gin.Context, field, event string, update imageUpdater, okMsg string) {
	if !h.parseMultipart(c) {
		return
	}

	path, err := h.stageUpload(c, field)
	if err != nil {
		h.respondError(c, event, models.Internal(msgFileStagingError, err))
		return
	}
	defer h.discardStaged(path)

	userID := c.GetString(ctxUserID)
	user, err := update(c.Request.Context(), userID, path)
	if err != nil {
		h.respondError(c, event, err, "user_id", userID)
		return
	}

	h.respond(c, http.StatusOK, user, okMsg)
}
