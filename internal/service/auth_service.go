package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"videotube/internal/logger"
	"videotube/internal/models"
	"videotube/internal/repository"
	"videotube/internal/uploader"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgAllFieldsRequired    = "All fields are required"
	msgUserExists           = "User with email or username already exists"
	msgAvatarRequired       = "Avatar file is required"
	msgRegisterFailed       = "Something went wrong while registering the user"
	msgIdentityRequired     = "username or email is required"
	msgUserNotFound         = "User does not exist"
	msgInvalidCredentials   = "Invalid user credentials"
	msgLoginFailed          = "Something went wrong while logging in"
	msgLogoutFailed         = "Something went wrong while logging out"
	msgInvalidOldPassword   = "Invalid old password"
	msgNewPasswordRequired  = "New password is required"
	msgPasswordTooLong      = "Password is too long"
	msgPasswordChangeFailed = "Something went wrong while changing the password"
)

// AuthService handles registration, credentials and session rotation.
type AuthService struct {
	users    repository.Users
	tokens   *TokenService
	uploader uploader.Uploader
	log      *logger.Logger
	now      func() time.Time
}

func NewAuthService(users repository.Users, tokens *TokenService, up uploader.Uploader, log *logger.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, uploader: up, log: log, now: time.Now}
}

func normalizeIdentity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type formField struct {
	name, value string
}

// requireFields reports every blank field in a single 400, or nil.
func requireFields(fields ...formField) *models.APIError {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name+" is required")
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return models.BadRequest(msgAllFieldsRequired).WithErrors(missing...)
}

// Register validates the form, uploads images and creates the account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := normalizeIdentity(in.Email)
	username := normalizeIdentity(in.Username)
	fullName := strings.TrimSpace(in.FullName)

	if apiErr := requireFields(
		formField{"email", email},
		formField{"username", username},
		formField{"password", in.Password},
		formField{"fullName", fullName},
	); apiErr != nil {
		return nil, apiErr
	}

	existing, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, models.Internal(msgRegisterFailed, err)
	}
	if existing != nil {
		return nil, models.Conflict(msgUserExists)
	}

	if in.AvatarPath == "" {
		return nil, models.BadRequest(msgAvatarRequired)
	}
	avatar, err := s.uploader.Upload(ctx, in.AvatarPath)
	if err != nil || avatar == nil || avatar.URL == "" {
		return nil, models.NewAPIError(http.StatusBadRequest, msgAvatarRequired, err)
	}

	var coverURL string
	if in.CoverImagePath != "" {
		cover, err := s.uploader.Upload(ctx, in.CoverImagePath)
		switch {
		case err != nil:
			s.log.Warnw("register_cover_upload_failed", "username", username, "err", err)
		case cover != nil:
			coverURL = cover.URL
		}
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, passwordError(err, msgRegisterFailed)
	}

	now := s.now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		FullName:     fullName,
		Avatar:       avatar.URL,
		CoverImage:   coverURL,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, models.Conflict(msgUserExists)
		}
		return nil, models.Internal(msgRegisterFailed, err)
	}

	created, err := s.users.FindByID(ctx, u.ID)
	if err != nil {
		return nil, models.Internal(msgRegisterFailed, err)
	}
	if created == nil {
		return nil, models.Internal(msgRegisterFailed, ErrUserNotFound)
	}

	s.log.Infow("user_registered", "user_id", created.ID, "username", created.Username)
	return created.Sanitized(), nil
}

// Login checks credentials and starts a new session, invalidating the previous
// refresh token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	username := normalizeIdentity(in.Username)
	email := normalizeIdentity(in.Email)
	if username == "" && email == "" {
		return nil, models.BadRequest(msgIdentityRequired)
	}

	u, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, models.Internal(msgLoginFailed, err)
	}
	if u == nil {
		return nil, models.BadRequest(msgUserNotFound)
	}
	if err := verifyPassword(u.PasswordHash, in.Password); err != nil {
		return nil, models.Unauthorized(msgInvalidCredentials)
	}

	pair, err := s.tokens.IssuePair(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	loggedIn, err := s.users.FindByID(ctx, u.ID)
	if err != nil {
		return nil, models.Internal(msgLoginFailed, err)
	}
	if loggedIn == nil {
		return nil, models.Internal(msgLoginFailed, ErrUserNotFound)
	}
	return &LoginResult{User: loggedIn.Sanitized(), TokenPair: pair}, nil
}

// Logout drops the stored session tokens. A vanished record is not an error.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	_, err := s.users.Update(ctx, userID, models.UserUpdate{
		AccessToken:  models.Ptr(""),
		RefreshToken: models.Ptr(""),
	})
	if err != nil {
		return models.Internal(msgLogoutFailed, err)
	}
	return nil
}

// RefreshTokens exchanges the live refresh token for a new pair. Every
// failure is reported as 401, keeping the original message when it is an
// APIError.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (TokenPair, error) {
	if refreshToken == "" {
		return TokenPair{}, models.Unauthorized(msgUnauthorizedRequest)
	}
	pair, err := s.rotate(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, asUnauthorized(err)
	}
	return pair, nil
}

func (s *AuthService) rotate(ctx context.Context, incoming string) (TokenPair, error) {
	claims, err := s.tokens.VerifyRefreshToken(incoming)
	if err != nil {
		return TokenPair{}, err
	}

	u, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return TokenPair{}, err
	}
	if u == nil {
		return TokenPair{}, models.Unauthorized(msgInvalidRefreshToken)
	}
	// Only the most recently issued refresh token is live.
	if incoming != u.RefreshToken {
		return TokenPair{}, models.Unauthorized(msgRefreshTokenReused)
	}
	return s.tokens.RotatePair(ctx, u.ID, incoming)
}

func asUnauthorized(err error) *models.APIError {
	var apiErr *models.APIError
	if errors.As(err, &apiErr) {
		return models.NewAPIError(http.StatusUnauthorized, apiErr.Message, apiErr.Err)
	}
	return models.NewAPIError(http.StatusUnauthorized, msgInvalidRefreshToken, err)
}

// ChangePassword replaces the password hash after checking the old password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.Internal(msgPasswordChangeFailed, err)
	}
	if u == nil {
		return models.Unauthorized(msgUnauthorizedRequest)
	}
	if err := verifyPassword(u.PasswordHash, oldPassword); err != nil {
		return models.BadRequest(msgInvalidOldPassword)
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return passwordError(err, msgPasswordChangeFailed)
	}
	saved, err := s.users.Update(ctx, userID, models.UserUpdate{PasswordHash: &hash})
	if err != nil {
		return models.Internal(msgPasswordChangeFailed, err)
	}
	if saved == nil {
		return models.Unauthorized(msgUnauthorizedRequest)
	}
	return nil
}

// ParseAccessToken returns the user id of a valid access token.
func (s *AuthService) ParseAccessToken(accessToken string) (string, error) {
	claims, err := s.tokens.ParseAccessToken(accessToken)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func passwordError(err error, internalMsg string) *models.APIError {
	switch {
	case errors.Is(err, errEmptyPassword):
		return models.BadRequest(msgNewPasswordRequired)
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return models.BadRequest(msgPasswordTooLong)
	default:
		return models.Internal(internalMsg, err)
	}
}
