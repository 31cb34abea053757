package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"agrotrack/internal/auth"
	"agrotrack/internal/httpx"
)

type userProjection struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     int64  `json:"role"`
}

func loginHandler(svc *auth.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httpx.Error(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var payload struct {
			Identifier string `json:"identifier"`
			Password   string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil ||
			payload.Identifier == "" || payload.Password == "" {
			httpx.Error(w, http.StatusBadRequest, "identifier and password are required")
			return
		}
		user, token, err := svc.Login(r.Context(), payload.Identifier, payload.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUserNotFound):
				httpx.Error(w, http.StatusNotFound, "user not found")
			case errors.Is(err, auth.ErrAccountInactive):
				httpx.Error(w, http.StatusForbidden, "account is deactivated")
			case errors.Is(err, auth.ErrInvalidCredentials):
				httpx.Error(w, http.StatusUnauthorized, "invalid credentials")
			default:
				logger.Error("login", "err", err)
				httpx.Error(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}
		httpx.Data(w, http.StatusOK, map[string]any{
			"token": token,
			"user": userProjection{
				ID:       user.ID,
				Username: user.Username,
				Email:    user.Email,
				Role:     user.RoleID,
			},
		})
	}
}

func logoutHandler(svc *auth.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httpx.Error(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		token, ok := auth.BearerToken(r)
		if !ok {
			httpx.Error(w, http.StatusBadRequest, "no token supplied")
			return
		}
		if err := svc.Logout(r.Context(), token); err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				httpx.Error(w, http.StatusBadRequest, "no token supplied")
			case errors.Is(err, auth.ErrInvalidToken):
				httpx.Error(w, http.StatusUnauthorized, "invalid or expired token")
			default:
				logger.Error("logout", "err", err)
				httpx.Error(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}
		httpx.OK(w, "logged out")
	}
}

func forgotPasswordHandler(svc *auth.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httpx.Error(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var payload struct {
			Email string `json:"email"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if err := svc.ForgotPassword(r.Context(), payload.Email); err != nil {
			var cooldown *auth.CooldownError
			var validation *auth.ValidationError
			switch {
			case errors.As(err, &validation):
				httpx.Error(w, http.StatusBadRequest, validation.Message)
			case errors.Is(err, auth.ErrUserNotFound):
				httpx.Error(w, http.StatusNotFound, "no account with that email")
			case errors.Is(err, auth.ErrAccountInactive):
				httpx.Error(w, http.StatusForbidden, "account is deactivated")
			case errors.As(err, &cooldown):
				httpx.Error(w, http.StatusTooManyRequests, cooldown.Error())
			default:
				logger.Error("forgot password", "err", err)
				httpx.Error(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}
		httpx.OK(w, "a reset link has been sent")
	}
}

func resetPasswordHandler(svc *auth.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			httpx.Error(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var payload struct {
			Token           string `json:"token"`
			Password        string `json:"password"`
			ConfirmPassword string `json:"confirmPassword"`
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if err := svc.ResetPassword(r.Context(), payload.Token, payload.Password, payload.ConfirmPassword); err != nil {
			var validation *auth.ValidationError
			switch {
			case errors.As(err, &validation):
				httpx.Error(w, http.StatusBadRequest, validation.Message)
			case errors.Is(err, auth.ErrResetTokenInvalid):
				httpx.Error(w, http.StatusBadRequest, "invalid or expired reset token")
			default:
				logger.Error("reset password", "err", err)
				httpx.Error(w, http.StatusInternalServerError, "internal server error")
			}
			return
		}
		httpx.OK(w, "password updated")
	}
}
