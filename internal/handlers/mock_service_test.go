package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"os"
	"testing"
	"time"

	"videotube/internal/models"
	"videotube/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	registerUser *models.User
	registerErr  error
	registerHook func(service.RegisterInput)
	loginResult  *service.LoginResult
	loginErr     error
	logoutErr    error
	refreshPair  service.TokenPair
	refreshErr   error
	changeErr    error
	parseID      string
	parseErr     error

	lastRegister    service.RegisterInput
	lastLogin       service.LoginInput
	lastLogoutID    string
	lastRefresh     string
	refreshCalls    int
	lastChangeID    string
	lastOldPassword string
	lastNewPassword string
	lastParseToken  string
}

func (m *mockAuth) Register(_ context.Context, in service.RegisterInput) (*models.User, error) {
	m.lastRegister = in
	if m.registerHook != nil {
		m.registerHook(in)
	}
	return m.registerUser, m.registerErr
}

func (m *mockAuth) Login(_ context.Context, in service.LoginInput) (*service.LoginResult, error) {
	m.lastLogin = in
	return m.loginResult, m.loginErr
}

func (m *mockAuth) Logout(_ context.Context, userID string) error {
	m.lastLogoutID = userID
	return m.logoutErr
}

func (m *mockAuth) RefreshTokens(_ context.Context, refreshToken string) (service.TokenPair, error) {
	m.refreshCalls++
	m.lastRefresh = refreshToken
	return m.refreshPair, m.refreshErr
}

func (m *mockAuth) ChangePassword(_ context.Context, userID, oldPassword, newPassword string) error {
	m.lastChangeID = userID
	m.lastOldPassword = oldPassword
	m.lastNewPassword = newPassword
	return m.changeErr
}

func (m *mockAuth) ParseAccessToken(token string) (string, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockAccount struct {
	user    *models.User
	getErr  error
	updErr  error
	imgHook func(localPath string)

	lastGetID    string
	lastFullName string
	lastEmail    string
	lastImageFor string
	lastPath     string
}

func (m *mockAccount) GetUser(_ context.Context, userID string) (*models.User, error) {
	m.lastGetID = userID
	return m.user, m.getErr
}

func (m *mockAccount) UpdateAccountDetails(_ context.Context, _ string, fullName, email string) (*models.User, error) {
	m.lastFullName = fullName
	m.lastEmail = email
	return m.user, m.updErr
}

func (m *mockAccount) UpdateAvatar(_ context.Context, _ string, localPath string) (*models.User, error) {
	return m.image("avatar", localPath)
}

func (m *mockAccount) UpdateCoverImage(_ context.Context, _ string, localPath string) (*models.User, error) {
	return m.image("coverImage", localPath)
}

func (m *mockAccount) image(kind, localPath string) (*models.User, error) {
	m.lastImageFor = kind
	m.lastPath = localPath
	if m.imgHook != nil {
		m.imgHook(localPath)
	}
	return m.user, m.updErr
}

// ---- Shared Test Helpers ----

const (
	testAccessTTL  = time.Hour
	testRefreshTTL = 10 * time.Hour
)

func testOptions(t *testing.T) Options {
	return Options{
		SecureCookies:  true,
		AccessTTL:      testAccessTTL,
		RefreshTTL:     testRefreshTTL,
		TmpDir:         t.TempDir(),
		MaxUploadBytes: 1 << 20,
	}
}

func newTestRouter(t *testing.T, s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandler(s, nil, testOptions(t)).InitRoutes()
}

func alice() *models.User {
	return &models.User{
		ID:           "u-1",
		Username:     "alice",
		Email:        "a@x.com",
		FullName:     "Alice A",
		Avatar:       "https://media.test/a.png",
		PasswordHash: "should-never-leak",
		RefreshToken: "should-never-leak",
	}
}

// signedIn returns services whose middleware resolves any token to alice.
func signedIn() (*service.Service, *mockAuth, *mockAccount) {
	auth := &mockAuth{parseID: "u-1"}
	acc := &mockAccount{user: alice().Sanitized()}
	return &service.Service{Authorization: auth, Account: acc}, auth, acc
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

type formFile struct {
	field, name string
	content     []byte
}

func multipartBody(t *testing.T, fields map[string]string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(f.content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

func decodeBody(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("invalid json %q: %v", b, err)
	}
	return m
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
