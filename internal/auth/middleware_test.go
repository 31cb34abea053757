package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueFor(t *testing.T, svc *Service, identifier, password string) string {
	t.Helper()
	_, token, err := svc.Login(context.Background(), identifier, password)
	require.NoError(t, err)
	return token
}

func protectedEcho(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := UserFromContext(r.Context())
		require.True(t, ok, "user must be in context past the middleware")
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(handler http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/agents", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareMissingToken(t *testing.T) {
	users := newFakeUsers(testUser(t, StatusActive))
	svc := newTestService(users, newFakeBlacklist(), &recordingMailer{})
	h := protectedEcho(t)

	rec := doRequest(Middleware(svc)(h), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareInvalidTokenIsForbidden(t *testing.T) {
	users := newFakeUsers(testUser(t, StatusActive))
	svc := newTestService(users, newFakeBlacklist(), &recordingMailer{})
	h := protectedEcho(t)

	rec := doRequest(Middleware(svc)(h), "garbage.token.here")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMiddlewarePassesIdentityThrough(t *testing.T) {
	users := newFakeUsers(testUser(t, StatusActive))
	svc := newTestService(users, newFakeBlacklist(), &recordingMailer{})
	token := issueFor(t, svc, "aidos", "Secret#123")

	var seen *User
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	rec := doRequest(Middleware(svc)(h), token)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, int64(1), seen.ID)
	assert.Equal(t, RoleManager, seen.RoleID)
}

func TestMiddlewareForcedLogoutSetsFlag(t *testing.T) {
	users := newFakeUsers(testUser(t, StatusActive))
	blacklist := newFakeBlacklist()
	svc := newTestService(users, blacklist, &recordingMailer{})
	token := issueFor(t, svc, "aidos", "Secret#123")

	users.users[1].Status = StatusInactive
	h := protectedEcho(t)
	rec := doRequest(Middleware(svc)(h), token)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body struct {
		Success     bool   `json:"success"`
		Message     string `json:"message"`
		ForceLogout bool   `json:"forceLogout"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.True(t, body.ForceLogout)

	revoked, err := blacklist.Contains(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, revoked)

	// Next request with the same token fails as revoked, not forced logout.
	users.users[1].Status = StatusActive
	rec = doRequest(Middleware(svc)(h), token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewareRejectsBlacklistedToken(t *testing.T) {
	users := newFakeUsers(testUser(t, StatusActive))
	blacklist := newFakeBlacklist()
	svc := newTestService(users, blacklist, &recordingMailer{})
	token := issueFor(t, svc, "aidos", "Secret#123")
	require.NoError(t, blacklist.Insert(context.Background(), token, time.Now().Add(time.Hour)))

	h := protectedEcho(t)
	rec := doRequest(Middleware(svc)(h), token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	next := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	manager := &User{ID: 2, RoleID: RoleManager}
	viewer := &User{ID: 3, RoleID: RoleViewer}

	guarded := RequireRole(next, RoleAdmin, RoleManager)

	run := func(u *User) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/agents", nil)
		if u != nil {
			req = req.WithContext(WithUser(req.Context(), u))
		}
		rec := httptest.NewRecorder()
		guarded(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, run(manager))
	assert.Equal(t, http.StatusForbidden, run(viewer))
	assert.Equal(t, http.StatusUnauthorized, run(nil))
}
