package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"agrotrack/internal/httpx"
)

type contextKey string

const userContextKey contextKey = "agrotrack_user"

func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userContextKey).(*User)
	return u, ok
}

// BearerToken extracts the raw token from the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" || !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(h, "Bearer "), true
}

// Middleware verifies the bearer token, loads the account and attaches it to
// the request context. Invalid or expired signatures get 403, a missing user
// or a revoked token gets 401, and a deactivated account gets 403 with the
// forceLogout flag after its token has been revoked.
func Middleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				httpx.Error(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			user, err := svc.Verify(r.Context(), token)
			if err != nil {
				writeVerifyError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func writeVerifyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrForceLogout):
		httpx.ForceLogout(w, err.Error())
	case errors.Is(err, ErrInvalidToken):
		httpx.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrTokenRevoked):
		httpx.Error(w, http.StatusUnauthorized, err.Error())
	default:
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// RequireRole gates an already-verified request on a per-route role set. Kept
// separate from Middleware because different routes want different sets.
func RequireRole(next http.HandlerFunc, roleIDs ...int64) http.HandlerFunc {
	allowed := make(map[int64]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		allowed[id] = struct{}{}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			httpx.Error(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if _, ok := allowed[user.RoleID]; !ok {
			httpx.Error(w, http.StatusForbidden, "insufficient role")
			return
		}
		next(w, r)
	}
}
