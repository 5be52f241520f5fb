package service

import "videotube/internal/models"

// RegisterInput carries the registration form. File paths point at staged
// uploads on local disk; CoverImagePath may be empty.
type RegisterInput struct {
	Email          string
	Username       string
	Password       string
	FullName       string
	AvatarPath     string
	CoverImagePath string
}

// LoginInput identifies the account by username or email (at least one).
type LoginInput struct {
	Email    string
	Username string
	Password string
}

// TokenPair is a freshly minted session.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is the sanitized user plus its new session.
type LoginResult struct {
	User *models.User `json:"user"`
	TokenPair
}
