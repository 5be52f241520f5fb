package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"videotube/internal/models"
	"videotube/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerFields() map[string]string {
	return map[string]string{
		"fullName": "Alice A",
		"email":    "a@x.com",
		"username": "Alice",
		"password": "pw1",
	}
}

func TestRegister_Success(t *testing.T) {
	auth := &mockAuth{registerUser: alice().Sanitized()}
	var stagedExisted bool
	auth.registerHook = func(in service.RegisterInput) {
		stagedExisted = fileExists(in.AvatarPath)
	}
	r := newTestRouter(t, &service.Service{Authorization: auth})

	body, ct := multipartBody(t, registerFields(), formFile{field: "avatar", name: "me.png", content: []byte("png")})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	m := decodeBody(t, w.Body.Bytes())
	assert.EqualValues(t, 201, m["status"])
	assert.Equal(t, true, m["success"])
	assert.Equal(t, "User registered successfully", m["message"])

	data := m["data"].(map[string]any)
	assert.Equal(t, "alice", data["username"])
	assert.NotContains(t, data, "password")
	assert.NotContains(t, data, "passwordHash")
	assert.NotContains(t, data, "refreshToken")
	assert.NotContains(t, w.Body.String(), "should-never-leak")

	in := auth.lastRegister
	assert.Equal(t, "Alice", in.Username)
	assert.Equal(t, "a@x.com", in.Email)
	assert.Equal(t, "pw1", in.Password)
	assert.Equal(t, "Alice A", in.FullName)
	assert.Equal(t, ".png", in.AvatarPath[len(in.AvatarPath)-4:])
	assert.Empty(t, in.CoverImagePath)

	assert.True(t, stagedExisted, "avatar must be staged while the service runs")
	_, err := os.Stat(in.AvatarPath)
	assert.True(t, errors.Is(err, os.ErrNotExist), "staged avatar must be removed after the request")
}

func TestRegister_ServiceErrorUsesEnvelope(t *testing.T) {
	auth := &mockAuth{registerErr: models.Conflict("User with email or username already exists")}
	r := newTestRouter(t, &service.Service{Authorization: auth})

	body, ct := multipartBody(t, registerFields(), formFile{field: "avatar", name: "me.png", content: []byte("png")})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusConflict, w.Code)
	m := decodeBody(t, w.Body.Bytes())
	assert.EqualValues(t, 409, m["status"])
	assert.Equal(t, false, m["success"])
	assert.Nil(t, m["data"])
	assert.Equal(t, "User with email or username already exists", m["message"])
	assert.Equal(t, []any{}, m["errors"])
}

func TestRegister_BlankFieldsListed(t *testing.T) {
	auth := &mockAuth{registerErr: models.BadRequest("All fields are required").WithErrors("email is required")}
	r := newTestRouter(t, &service.Service{Authorization: auth})

	fields := registerFields()
	delete(fields, "email")
	body, ct := multipartBody(t, fields, formFile{field: "avatar", name: "me.png", content: []byte("png")})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	m := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, "All fields are required", m["message"])
	assert.Equal(t, []any{"email is required"}, m["errors"])
}

func TestRegister_MissingAvatarReachesService(t *testing.T) {
	auth := &mockAuth{registerErr: models.BadRequest("Avatar file is required")}
	r := newTestRouter(t, &service.Service{Authorization: auth})

	body, ct := multipartBody(t, registerFields())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, auth.lastRegister.AvatarPath)
}

func TestRegister_BodyTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	opts := testOptions(t)
	opts.MaxUploadBytes = 64
	auth := &mockAuth{}
	r := NewHandler(&service.Service{Authorization: auth}, nil, opts).InitRoutes()

	body, ct := multipartBody(t, registerFields(), formFile{field: "avatar", name: "big.png", content: bytes.Repeat([]byte("x"), 4096)})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", ct)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code, w.Body.String())
	assert.Empty(t, auth.lastRegister.Username, "service must not run")
}

func TestLogin_SetsSessionCookies(t *testing.T) {
	auth := &mockAuth{loginResult: &service.LoginResult{
		User:      alice().Sanitized(),
		TokenPair: service.TokenPair{AccessToken: "at-1", RefreshToken: "rt-1"},
	}}
	r := newTestRouter(t, &service.Service{Authorization: auth})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewBufferString(`{"username":"Alice","password":"pw1"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, service.LoginInput{Username: "Alice", Password: "pw1"}, auth.lastLogin)

	m := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, "User logged in successfully", m["message"])
	data := m["data"].(map[string]any)
	assert.Equal(t, "at-1", data["accessToken"])
	assert.Equal(t, "rt-1", data["refreshToken"])
	user := data["user"].(map[string]any)
	assert.Equal(t, "u-1", user["id"])
	assert.NotContains(t, user, "refreshToken")

	resp := w.Result()
	at := cookieByName(resp, "accessToken")
	require.NotNil(t, at)
	assert.Equal(t, "at-1", at.Value)
	assert.True(t, at.HttpOnly)
	assert.True(t, at.Secure)
	assert.Equal(t, "/", at.Path)
	assert.Equal(t, int(testAccessTTL.Seconds()), at.MaxAge)

	rt := cookieByName(resp, "refreshToken")
	require.NotNil(t, rt)
	assert.Equal(t, "rt-1", rt.Value)
	assert.True(t, rt.HttpOnly)
	assert.Equal(t, int(testRefreshTTL.Seconds()), rt.MaxAge)
}

func TestLogin_Errors(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		err     error
		code    int
		message string
	}{
		{name: "malformed body", body: `{"username":1}`, code: http.StatusBadRequest, message: "Invalid request body"},
		{name: "unknown user", body: `{"username":"bob","password":"x"}`, err: models.BadRequest("User does not exist"), code: http.StatusBadRequest, message: "User does not exist"},
		{name: "wrong password", body: `{"email":"a@x.com","password":"x"}`, err: models.Unauthorized("Invalid user credentials"), code: http.StatusUnauthorized, message: "Invalid user credentials"},
		{name: "plain error hides cause", body: `{"username":"alice","password":"x"}`, err: errors.New("disk on fire"), code: http.StatusInternalServerError, message: "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			auth := &mockAuth{loginErr: tc.err}
			r := newTestRouter(t, &service.Service{Authorization: auth})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", bytes.NewBufferString(tc.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.code, w.Code)
			m := decodeBody(t, w.Body.Bytes())
			assert.Equal(t, tc.message, m["message"])
			assert.Equal(t, false, m["success"])
			assert.NotContains(t, w.Body.String(), "disk on fire")
			assert.Nil(t, cookieByName(w.Result(), "accessToken"))
		})
	}
}

func TestRefreshToken_Sources(t *testing.T) {
	t.Run("cookie wins over body", func(t *testing.T) {
		auth := &mockAuth{refreshPair: service.TokenPair{AccessToken: "at-2", RefreshToken: "rt-2"}}
		r := newTestRouter(t, &service.Service{Authorization: auth})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", bytes.NewBufferString(`{"refreshToken":"from-body"}`))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "from-cookie"})
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "from-cookie", auth.lastRefresh)
		m := decodeBody(t, w.Body.Bytes())
		assert.Equal(t, "Access token refreshed", m["message"])
		assert.Equal(t, map[string]any{"accessToken": "at-2", "refreshToken": "rt-2"}, m["data"])
		assert.Equal(t, "rt-2", cookieByName(w.Result(), "refreshToken").Value)
	})

	t.Run("body fallback", func(t *testing.T) {
		auth := &mockAuth{}
		r := newTestRouter(t, &service.Service{Authorization: auth})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", bytes.NewBufferString(`{"refreshToken":"from-body"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "from-body", auth.lastRefresh)
	})

	t.Run("nothing sent", func(t *testing.T) {
		auth := &mockAuth{refreshErr: models.Unauthorized("Unauthorized request")}
		r := newTestRouter(t, &service.Service{Authorization: auth})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, 1, auth.refreshCalls)
		assert.Empty(t, auth.lastRefresh)
		assert.Equal(t, "Unauthorized request", decodeBody(t, w.Body.Bytes())["message"])
	})

	t.Run("reused token", func(t *testing.T) {
		auth := &mockAuth{refreshErr: models.Unauthorized("Refresh token is expired or used")}
		r := newTestRouter(t, &service.Service{Authorization: auth})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: "old"})
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Refresh token is expired or used", decodeBody(t, w.Body.Bytes())["message"])
		assert.Nil(t, cookieByName(w.Result(), "refreshToken"))
	})
}

func TestLogout_ClearsCookies(t *testing.T) {
	s, auth, _ := signedIn()
	r := newTestRouter(t, s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req.Header = authHeader("at-1")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "u-1", auth.lastLogoutID)
	m := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, "User logged out", m["message"])
	assert.Equal(t, map[string]any{}, m["data"])

	for _, name := range []string{"accessToken", "refreshToken"} {
		c := cookieByName(w.Result(), name)
		require.NotNil(t, c, name)
		assert.Empty(t, c.Value)
		assert.Equal(t, -1, c.MaxAge)
	}
}

func TestChangePassword(t *testing.T) {
	s, auth, _ := signedIn()
	r := newTestRouter(t, s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password", bytes.NewBufferString(`{"oldPassword":"pw1","newPassword":"pw2"}`))
	req.Header = authHeader("at-1")
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "u-1", auth.lastChangeID)
	assert.Equal(t, "pw1", auth.lastOldPassword)
	assert.Equal(t, "pw2", auth.lastNewPassword)
	assert.Equal(t, "Password changed successfully", decodeBody(t, w.Body.Bytes())["message"])

	auth.changeErr = models.BadRequest("Invalid old password")
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password", bytes.NewBufferString(`{"oldPassword":"nope","newPassword":"pw2"}`))
	req.Header = authHeader("at-1")
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid old password", decodeBody(t, w.Body.Bytes())["message"])
}
