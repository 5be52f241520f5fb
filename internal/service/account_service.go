package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"videotube/internal/logger"
	"videotube/internal/models"
	"videotube/internal/repository"
	"videotube/internal/uploader"
)

const (
	msgEmailTaken         = "Email is already in use"
	msgUpdateFailed       = "Something went wrong while updating the user"
	msgAvatarMissing      = "Avatar file is missing"
	msgAvatarUploadFailed = "Error while uploading avatar"
	msgCoverMissing       = "Cover image file is missing"
	msgCoverUploadFailed  = "Error while uploading cover image"
)

// AccountService reads and edits profile fields of an authenticated user.
type AccountService struct {
	users    repository.Users
	uploader uploader.Uploader
	log      *logger.Logger
}

func NewAccountService(users repository.Users, up uploader.Uploader, log *logger.Logger) *AccountService {
	return &AccountService{users: users, uploader: up, log: log}
}

// GetUser returns the sanitized record or 401 when it no longer exists.
func (s *AccountService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, models.Internal(msgUpdateFailed, err)
	}
	if u == nil {
		return nil, models.Unauthorized(msgUserNotFound)
	}
	return u.Sanitized(), nil
}

func (s *AccountService) UpdateAccountDetails(ctx context.Context, userID, fullName, email string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = normalizeIdentity(email)
	if apiErr := requireFields(formField{"fullName", fullName}, formField{"email", email}); apiErr != nil {
		return nil, apiErr
	}
	return s.update(ctx, userID, models.UserUpdate{FullName: &fullName, Email: &email})
}

func (s *AccountService) UpdateAvatar(ctx context.Context, userID, localPath string) (*models.User, error) {
	url, err := s.uploadRequired(ctx, localPath, msgAvatarMissing, msgAvatarUploadFailed)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, userID, models.UserUpdate{Avatar: &url})
}

func (s *AccountService) UpdateCoverImage(ctx context.Context, userID, localPath string) (*models.User, error) {
	url, err := s.uploadRequired(ctx, localPath, msgCoverMissing, msgCoverUploadFailed)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, userID, models.UserUpdate{CoverImage: &url})
}

// uploadRequired fails unless the upload produced a URL.
func (s *AccountService) uploadRequired(ctx context.Context, localPath, missingMsg, failedMsg string) (string, error) {
	if localPath == "" {
		return "", models.BadRequest(missingMsg)
	}
	res, err := s.uploader.Upload(ctx, localPath)
	if err != nil || res == nil || res.URL == "" {
		return "", models.NewAPIError(http.StatusBadRequest, failedMsg, err)
	}
	return res.URL, nil
}

func (s *AccountService) update(ctx context.Context, userID string, upd models.UserUpdate) (*models.User, error) {
	u, err := s.users.Update(ctx, userID, upd)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, models.Conflict(msgEmailTaken)
		}
		return nil, models.Internal(msgUpdateFailed, err)
	}
	if u == nil {
		return nil, models.Unauthorized(msgUserNotFound)
	}
	s.log.Debugw("user_updated", "user_id", userID)
	return u.Sanitized(), nil
}
