package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Mailer delivers the password-reset token out-of-band. The token never
// appears in an HTTP response.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, token string) error
}

type Service struct {
	users      UserStore
	blacklist  Blacklist
	mailer     Mailer
	secret     []byte
	tokenTTL   time.Duration
	resetTTL   time.Duration
	cooldown   time.Duration
	bcryptCost int

	now func() time.Time
}

func NewService(users UserStore, blacklist Blacklist, mailer Mailer, secret string, tokenTTL, resetTTL, cooldown time.Duration, bcryptCost int) *Service {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	if resetTTL <= 0 {
		resetTTL = time.Hour
	}
	if cooldown <= 0 {
		cooldown = 5 * time.Minute
	}
	if bcryptCost < bcrypt.DefaultCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		blacklist:  blacklist,
		mailer:     mailer,
		secret:     []byte(secret),
		tokenTTL:   tokenTTL,
		resetTTL:   resetTTL,
		cooldown:   cooldown,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

type Claims struct {
	UserID int64  `json:"id"`
	RoleID int64  `json:"role"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Login checks the identifier against both username and email, exact match.
// Status is gated before the password so a deactivated account with correct
// credentials still gets a 403, not a 401.
func (s *Service) Login(ctx context.Context, identifier, password string) (*User, string, error) {
	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, "", err
	}
	if user.Status != StatusActive {
		return nil, "", ErrAccountInactive
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *Service) issueToken(user *User) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		UserID: user.ID,
		RoleID: user.RoleID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.secret)
}

func (s *Service) ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Logout records the raw token with its own expiry in the blacklist. The
// insert is idempotent, so revoking twice is a no-op, not an error.
func (s *Service) Logout(ctx context.Context, tokenStr string) error {
	if tokenStr == "" {
		return ErrMissingToken
	}
	claims, err := s.ParseToken(tokenStr)
	if err != nil {
		return err
	}
	return s.blacklist.Insert(ctx, tokenStr, claims.ExpiresAt.Time)
}

// Verify is the gate every protected route runs through. The status check
// runs before the blacklist probe: a just-deactivated account must get its
// still-valid token revoked, not merely rejected.
func (s *Service) Verify(ctx context.Context, tokenStr string) (*User, error) {
	claims, err := s.ParseToken(tokenStr)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Status != StatusActive {
		if err := s.blacklist.Insert(ctx, tokenStr, claims.ExpiresAt.Time); err != nil {
			return nil, err
		}
		return nil, ErrForceLogout
	}
	revoked, err := s.blacklist.Contains(ctx, tokenStr)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return user, nil
}

// ForgotPassword issues a fresh reset token unless one was issued less than
// the cooldown ago and is still alive.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return validationf("email is required")
	}
	user, err := s.users.GetByIdentifier(ctx, email)
	if err != nil {
		return err
	}
	if user.Status != StatusActive {
		return ErrAccountInactive
	}

	now := s.now().UTC()
	if user.ResetTokenIssuedAt != nil && user.ResetTokenExpiresAt != nil &&
		user.ResetTokenExpiresAt.After(now) {
		elapsed := now.Sub(*user.ResetTokenIssuedAt)
		if elapsed < s.cooldown {
			remaining := s.cooldown - elapsed
			mins := (remaining + time.Minute - 1) / time.Minute
			return &CooldownError{Remaining: mins * time.Minute}
		}
	}

	token, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.users.SetResetToken(ctx, user.ID, token, now, now.Add(s.resetTTL)); err != nil {
		return err
	}
	return s.mailer.SendPasswordReset(ctx, user.Email, token)
}

func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// ResetPassword consumes a reset token. The stored hash is replaced and the
// token fields cleared in one statement, so the token is single-use.
func (s *Service) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if token == "" {
		return validationf("reset token is required")
	}
	if password == "" || confirm == "" {
		return validationf("password and confirmation are required")
	}
	if password != confirm {
		return validationf("passwords do not match")
	}
	if !StrongPassword(password) {
		return validationf("password must be at least 8 characters and contain a lowercase letter, an uppercase letter, a digit and a special character")
	}
	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrResetTokenInvalid
		}
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, user.ID, string(hash))
}

const specialChars = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

// StrongPassword is the combined strength predicate: length plus one of each
// character class.
func StrongPassword(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			for _, sp := range specialChars {
				if r == sp {
					special = true
					break
				}
			}
		}
	}
	return lower && upper && digit && special
}
