package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"videotube/internal/models"
	"videotube/internal/repository"
	"videotube/internal/uploader"
)

// mockUsers is a lightweight in-test mock for repository.Users.
type mockUsers struct {
	CreateFn                func(u *models.User) error
	FindByIDFn              func(id string) (*models.User, error)
	FindByUsernameOrEmailFn func(username, email string) (*models.User, error)
	UpdateFn                func(id string, upd models.UserUpdate) (*models.User, error)

	created []*models.User
	updates []models.UserUpdate
}

func (m *mockUsers) Create(_ context.Context, u *models.User) error {
	m.created = append(m.created, u)
	if m.CreateFn == nil {
		return nil
	}
	return m.CreateFn(u)
}

func (m *mockUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	return m.FindByIDFn(id)
}

func (m *mockUsers) FindByUsernameOrEmail(_ context.Context, username, email string) (*models.User, error) {
	return m.FindByUsernameOrEmailFn(username, email)
}

func (m *mockUsers) Update(_ context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	m.updates = append(m.updates, upd)
	return m.UpdateFn(id, upd)
}

// memUsers is an in-memory store enforcing unique username and email.
type memUsers struct {
	mu   sync.Mutex
	byID map[string]models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]models.User{}}
}

var _ repository.Users = (*memUsers)(nil)

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.byID {
		if other.Username == u.Username || other.Email == u.Email {
			return repository.ErrDuplicateUser
		}
	}
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memUsers) FindByUsernameOrEmail(_ context.Context, username, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memUsers) Update(_ context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	if upd.IfRefreshToken != nil && u.RefreshToken != *upd.IfRefreshToken {
		return nil, nil
	}
	if upd.Email != nil {
		for otherID, other := range m.byID {
			if otherID != id && other.Email == *upd.Email {
				return nil, repository.ErrDuplicateUser
			}
		}
	}
	apply := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	apply(&u.FullName, upd.FullName)
	apply(&u.Email, upd.Email)
	apply(&u.Avatar, upd.Avatar)
	apply(&u.CoverImage, upd.CoverImage)
	apply(&u.PasswordHash, upd.PasswordHash)
	apply(&u.AccessToken, upd.AccessToken)
	apply(&u.RefreshToken, upd.RefreshToken)
	u.UpdatedAt = time.Now()
	m.byID[id] = u
	return &u, nil
}

// fakeUploader returns "https://media.test/<path>" unless told otherwise.
type fakeUploader struct {
	errFor map[string]error
	nilFor map[string]bool
	calls  []string
}

func (f *fakeUploader) Upload(_ context.Context, localPath string) (*uploader.Result, error) {
	f.calls = append(f.calls, localPath)
	if localPath == "" || f.nilFor[localPath] {
		return nil, nil
	}
	if err := f.errFor[localPath]; err != nil {
		return nil, err
	}
	return &uploader.Result{URL: "https://media.test/" + localPath}, nil
}

var testTokenConfig = TokenConfig{
	AccessSecret:  "access-secret",
	AccessTTL:     15 * time.Minute,
	RefreshSecret: "refresh-secret",
	RefreshTTL:    24 * time.Hour,
}

// requireAPIError asserts err is an *models.APIError with the given status.
func requireAPIError(t *testing.T, err error, status int) *models.APIError {
	t.Helper()
	if err == nil {
		t.Fatalf("expected APIError %d, got nil", status)
	}
	var apiErr *models.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *models.APIError, got %T: %v", err, err)
	}
	if apiErr.Status != status {
		t.Fatalf("status: got %d (%s), want %d", apiErr.Status, apiErr.Message, status)
	}
	return apiErr
}
