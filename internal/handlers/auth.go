package handlers

import (
	"net/http"

	"videotube/internal/models"
	"videotube/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	msgRegistered       = "User registered successfully"
	msgLoggedIn         = "User logged in successfully"
	msgLoggedOut        = "User logged out"
	msgTokenRefreshed   = "Access token refreshed"
	msgPasswordChanged  = "Password changed successfully"
	msgInvalidBody      = "Invalid request body"
	msgFileStagingError = "Something went wrong while receiving the file"
)

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 envelope on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.respondError(c, "bad_request_body", models.NewAPIError(http.StatusBadRequest, msgInvalidBody, err),
			"path", c.FullPath())
		return false
	}
	return true
}

// @Summary      Register a user
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        fullName    formData  string  true   "Full name"
// @Param        email       formData  string  true   "Email"
// @Param        username    formData  string  true   "Username"
// @Param        password    formData  string  true   "Password"
// @Param        avatar      formData  file    true   "Avatar image"
// @Param        coverImage  formData  file    false  "Cover image"
// @Success      201  {object}  models.Response{data=models.User}
// @Failure      400  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /api/v1/users/register [post]
func (h *Handler) register(c *gin.Context) {
	if !h.parseMultipart(c) {
		return
	}

	avatar, err := h.stageUpload(c, "avatar")
	if err != nil {
		h.respondError(c, "auth_register_failed", models.Internal(msgFileStagingError, err))
		return
	}
	defer h.discardStaged(avatar)

	cover, err := h.stageUpload(c, "coverImage")
	if err != nil {
		h.respondError(c, "auth_register_failed", models.Internal(msgFileStagingError, err))
		return
	}
	defer h.discardStaged(cover)

	user, err := h.services.Register(c.Request.Context(), service.RegisterInput{
		Email:          c.PostForm("email"),
		Username:       c.PostForm("username"),
		Password:       c.PostForm("password"),
		FullName:       c.PostForm("fullName"),
		AvatarPath:     avatar,
		CoverImagePath: cover,
	})
	if err != nil {
		h.respondError(c, "auth_register_failed", err, "username", c.PostForm("username"))
		return
	}

	h.respond(c, http.StatusCreated, user, msgRegistered)
}

// @Summary      Log in
// @Description  Identify by username or email. Sets accessToken and refreshToken cookies.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  models.Response{data=service.LoginResult}
// @Failure      400   {object}  models.ErrorResponse
// @Failure      401   {object}  models.ErrorResponse
// @Router       /api/v1/users/login [post]
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	res, err := h.services.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(c, "auth_login_failed", err, "username", req.Username, "email", req.Email)
		return
	}

	h.setSessionCookies(c, res.TokenPair)
	h.respond(c, http.StatusOK, res, msgLoggedIn)
}

// @Summary      Log out
// @Tags         users
// @Produce      json
// @Success      200  {object}  models.Response
// @Failure      401  {object}  models.ErrorResponse
// @Router       /api/v1/users/logout [post]
// @Security     BearerAuth
func (h *Handler) logout(c *gin.Context) {
	userID := c.GetString(ctxUserID)
	if err := h.services.Logout(c.Request.Context(), userID); err != nil {
		h.respondError(c, "auth_logout_failed", err, "user_id", userID)
		return
	}

	h.clearSessionCookies(c)
	h.respond(c, http.StatusOK, gin.H{}, msgLoggedOut)
}

// @Summary      Refresh the session
// @Description  Reads the refreshToken cookie, falling back to the JSON body.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  false  "Refresh token"
// @Success      200   {object}  models.Response{data=service.TokenPair}
// @Failure      401   {object}  models.ErrorResponse
// @Router       /api/v1/users/refresh-token [post]
func (h *Handler) refreshToken(c *gin.Context) {
	token, err := c.Cookie(refreshTokenCookie)
	if err != nil || token == "" {
		var req refreshRequest
		// An absent or malformed body just means no token was sent.
		_ = c.ShouldBindJSON(&req)
		token = req.RefreshToken
	}

	pair, err := h.services.RefreshTokens(c.Request.Context(), token)
	if err != nil {
		h.respondError(c, "auth_refresh_failed", err)
		return
	}

	h.setSessionCookies(c, pair)
	h.respond(c, http.StatusOK, pair, msgTokenRefreshed)
}

// @Summary      Change password
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Old and new password"
// @Success      200   {object}  models.Response
// @Failure      400   {object}  models.ErrorResponse
// @Failure      401   {object}  models.ErrorResponse
// @Router       /api/v1/users/change-password [post]
// @Security     BearerAuth
func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	userID := c.GetString(ctxUserID)
	if err := h.services.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		h.respondError(c, "auth_change_password_failed", err, "user_id", userID)
		return
	}

	h.respond(c, http.StatusOK, gin.H{}, msgPasswordChanged)
}
