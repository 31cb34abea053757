package httpserver

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"agrotrack/internal/auth"
	"agrotrack/internal/logging"
)

type nopMailer struct{}

func (nopMailer) SendPasswordReset(ctx context.Context, to, token string) error { return nil }

func newAuthService(t *testing.T) (*auth.Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := auth.NewStore(db, bcrypt.DefaultCost)
	blacklist := auth.NewBlacklistStore(db)
	svc := auth.NewService(users, blacklist, nopMailer{},
		"test-secret", time.Hour, time.Hour, 5*time.Minute, bcrypt.DefaultCost)
	return svc, mock
}

func userRow(t *testing.T, status, password string) *sqlmock.Rows {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash", "role_id", "status",
		"reset_token", "reset_token_expires_at", "reset_token_issued_at", "created_at",
	}).AddRow(int64(1), "aidos", "aidos@example.com", string(hash), int64(2), status,
		nil, nil, nil, time.Now())
}

func postJSON(handler http.HandlerFunc, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestLoginHandlerSuccess(t *testing.T) {
	svc, mock := newAuthService(t)
	mock.ExpectQuery("SELECT .+ FROM users WHERE username").
		WithArgs("aidos").
		WillReturnRows(userRow(t, "active", "Secret#123"))

	rec := postJSON(loginHandler(svc, logging.New()), "/api/v1/auth/login",
		map[string]string{"identifier": "aidos", "password": "Secret#123"})

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Token string `json:"token"`
			User  struct {
				ID    int64  `json:"id"`
				Email string `json:"email"`
				Role  int64  `json:"role"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Data.Token)
	assert.Equal(t, int64(1), body.Data.User.ID)
	assert.Equal(t, int64(2), body.Data.User.Role)
}

func TestLoginHandlerStatusMapping(t *testing.T) {
	cases := []struct {
		name     string
		rows     func(t *testing.T) *sqlmock.Rows
		queryErr error
		password string
		want     int
	}{
		{"unknown user", nil, sql.ErrNoRows, "x", http.StatusNotFound},
		{"inactive account", func(t *testing.T) *sqlmock.Rows { return userRow(t, "inactive", "Secret#123") }, nil, "Secret#123", http.StatusForbidden},
		{"wrong password", func(t *testing.T) *sqlmock.Rows { return userRow(t, "active", "Secret#123") }, nil, "nope", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, mock := newAuthService(t)
			exp := mock.ExpectQuery("SELECT .+ FROM users WHERE username").WithArgs("aidos")
			if tc.queryErr != nil {
				exp.WillReturnError(tc.queryErr)
			} else {
				exp.WillReturnRows(tc.rows(t))
			}

			rec := postJSON(loginHandler(svc, logging.New()), "/api/v1/auth/login",
				map[string]string{"identifier": "aidos", "password": tc.password})
			assert.Equal(t, tc.want, rec.Code)

			var body struct {
				Success bool `json:"success"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
		})
	}
}

func TestLoginHandlerRejectsMissingFields(t *testing.T) {
	svc, _ := newAuthService(t)
	rec := postJSON(loginHandler(svc, logging.New()), "/api/v1/auth/login",
		map[string]string{"identifier": "aidos"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutHandlerRequiresToken(t *testing.T) {
	svc, _ := newAuthService(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rec := httptest.NewRecorder()
	logoutHandler(svc, logging.New())(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutHandlerRejectsGarbageToken(t *testing.T) {
	svc, _ := newAuthService(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	logoutHandler(svc, logging.New())(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForgotPasswordHandlerMissingEmail(t *testing.T) {
	svc, _ := newAuthService(t)
	rec := postJSON(forgotPasswordHandler(svc, logging.New()), "/api/v1/auth/forgot-password",
		map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetPasswordHandlerWeakPassword(t *testing.T) {
	svc, _ := newAuthService(t)
	rec := postJSON(resetPasswordHandler(svc, logging.New()), "/api/v1/auth/reset-password",
		map[string]string{"token": "tok", "password": "weakpass", "confirmPassword": "weakpass"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
