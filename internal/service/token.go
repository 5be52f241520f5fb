package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"videotube/internal/models"
	"videotube/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Domain errors for token flows.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUserNotFound = errors.New("user not found")

	// errTokenReplaced reports that a conditional rotation found a different
	// refresh token on the record.
	errTokenReplaced = errors.New("refresh token already replaced")
)

const (
	msgTokenIssueFailed    = "Something went wrong while generating refresh and access token"
	msgInvalidRefreshToken = "Invalid refresh token"
	msgExpiredRefreshToken = "Refresh token is expired"
	msgRefreshTokenReused  = "Refresh token is expired or used"
	msgUnauthorizedRequest = "Unauthorized request"
)

// TokenConfig holds the signing secrets and lifetimes of both token kinds.
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// AccessClaims identify and describe the user for request authentication.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// RefreshClaims carry only the user reference.
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// TokenService mints and verifies session tokens and records the live pair
// on the user record.
type TokenService struct {
	users repository.Users
	cfg   TokenConfig
	now   func() time.Time
}

func NewTokenService(users repository.Users, cfg TokenConfig) *TokenService {
	return &TokenService{users: users, cfg: cfg, now: time.Now}
}

func (s *TokenService) registered(ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// IssueAccessToken signs identity and profile claims with the access secret.
func (s *TokenService) IssueAccessToken(u *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &AccessClaims{
		RegisteredClaims: s.registered(s.cfg.AccessTTL),
		UserID:           u.ID,
		Username:         u.Username,
		Email:            u.Email,
		FullName:         u.FullName,
	})
	return token.SignedString([]byte(s.cfg.AccessSecret))
}

// IssueRefreshToken signs the user id alone with the refresh secret.
// The jti keeps two tokens minted within the same second distinct.
func (s *TokenService) IssueRefreshToken(u *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &RefreshClaims{
		RegisteredClaims: s.registered(s.cfg.RefreshTTL),
		UserID:           u.ID,
	})
	return token.SignedString([]byte(s.cfg.RefreshSecret))
}

// IssuePair loads the user, mints both tokens and stores them on the record,
// replacing any previous refresh token. Failures surface as a generic 500.
func (s *TokenService) IssuePair(ctx context.Context, userID string) (TokenPair, error) {
	pair, err := s.issuePair(ctx, userID, nil)
	if err != nil {
		return TokenPair{}, models.Internal(msgTokenIssueFailed, err)
	}
	return pair, nil
}

// RotatePair is IssuePair for a refresh: the new pair is stored only while
// the record still holds current. Of two concurrent rotations of the same
// token, the one that writes second gets 401.
func (s *TokenService) RotatePair(ctx context.Context, userID, current string) (TokenPair, error) {
	pair, err := s.issuePair(ctx, userID, &current)
	if errors.Is(err, errTokenReplaced) {
		return TokenPair{}, models.Unauthorized(msgRefreshTokenReused)
	}
	if err != nil {
		return TokenPair{}, models.Internal(msgTokenIssueFailed, err)
	}
	return pair, nil
}

func (s *TokenService) issuePair(ctx context.Context, userID string, ifRefresh *string) (TokenPair, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return TokenPair{}, err
	}
	if u == nil {
		return TokenPair{}, ErrUserNotFound
	}

	access, err := s.IssueAccessToken(u)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.IssueRefreshToken(u)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	saved, err := s.users.Update(ctx, userID, models.UserUpdate{
		AccessToken:    &access,
		RefreshToken:   &refresh,
		IfRefreshToken: ifRefresh,
	})
	if err != nil {
		return TokenPair{}, err
	}
	if saved == nil {
		if ifRefresh != nil {
			return TokenPair{}, errTokenReplaced
		}
		return TokenPair{}, ErrUserNotFound
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// VerifyRefreshToken checks signature and expiry against the refresh secret.
func (s *TokenService) VerifyRefreshToken(token string) (*RefreshClaims, error) {
	if token == "" {
		return nil, models.Unauthorized(msgUnauthorizedRequest)
	}
	claims := &RefreshClaims{}
	if err := s.parse(token, claims, s.cfg.RefreshSecret); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.NewAPIError(http.StatusUnauthorized, msgExpiredRefreshToken, err)
		}
		return nil, models.NewAPIError(http.StatusUnauthorized, msgInvalidRefreshToken, err)
	}
	if claims.UserID == "" {
		return nil, models.NewAPIError(http.StatusUnauthorized, msgInvalidRefreshToken, ErrInvalidToken)
	}
	return claims, nil
}

// ParseAccessToken checks signature and expiry against the access secret.
func (s *TokenService) ParseAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(token, claims, s.cfg.AccessSecret); err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) parse(token string, claims jwt.Claims, secret string) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
