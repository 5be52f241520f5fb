package service

import (
	"context"

	"videotube/internal/logger"
	"videotube/internal/models"
	"videotube/internal/repository"
	"videotube/internal/uploader"
)

// Authorization covers the session lifecycle: registration, credentials and tokens.
type Authorization interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Logout(ctx context.Context, userID string) error
	RefreshTokens(ctx context.Context, refreshToken string) (TokenPair, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	// ParseAccessToken validates an access token and returns the user id it carries.
	ParseAccessToken(accessToken string) (string, error)
}

// Account reads and edits the caller's profile.
type Account interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateAccountDetails(ctx context.Context, userID, fullName, email string) (*models.User, error)
	UpdateAvatar(ctx context.Context, userID, localPath string) (*models.User, error)
	UpdateCoverImage(ctx context.Context, userID, localPath string) (*models.User, error)
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	Account
}

// NewService wires the store, the media uploader and the token settings into
// concrete services. A nil log discards output.
func NewService(repos *repository.Repository, up uploader.Uploader, tokens TokenConfig, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	issuer := NewTokenService(repos.Users, tokens)
	return &Service{
		Authorization: NewAuthService(repos.Users, issuer, up, log),
		Account:       NewAccountService(repos.Users, up, log),
	}
}
