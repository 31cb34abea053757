package auth

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// UserStore is the credential-store surface the auth service needs.
type UserStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByResetToken(ctx context.Context, token string) (*User, error)
	SetResetToken(ctx context.Context, userID int64, token string, issuedAt, expiresAt time.Time) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

type Store struct {
	db         *sql.DB
	bcryptCost int
}

func NewStore(db *sql.DB, bcryptCost int) *Store {
	if bcryptCost < bcrypt.DefaultCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Store{db: db, bcryptCost: bcryptCost}
}

const userColumns = `id, username, email, password_hash, role_id, status,
	reset_token, reset_token_expires_at, reset_token_issued_at, created_at`

func scanUser(row *sql.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.RoleID, &u.Status,
		&u.ResetToken, &u.ResetTokenExpiresAt, &u.ResetTokenIssuedAt, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// GetByIdentifier matches the username or the email, exact and case-sensitive.
func (s *Store) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $1`
	return scanUser(s.db.QueryRowContext(ctx, q, identifier))
}

func (s *Store) GetByID(ctx context.Context, id int64) (*User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(s.db.QueryRowContext(ctx, q, id))
}

// GetByResetToken only returns a user whose stored token matches and whose
// expiry is strictly in the future.
func (s *Store) GetByResetToken(ctx context.Context, token string) (*User, error) {
	const q = `SELECT ` + userColumns + ` FROM users
		WHERE reset_token = $1 AND reset_token_expires_at > now()`
	return scanUser(s.db.QueryRowContext(ctx, q, token))
}

func (s *Store) SetResetToken(ctx context.Context, userID int64, token string, issuedAt, expiresAt time.Time) error {
	const q = `UPDATE users
		SET reset_token = $2, reset_token_issued_at = $3, reset_token_expires_at = $4, updated_at = now()
		WHERE id = $1`
	_, err := s.db.ExecContext(ctx, q, userID, token, issuedAt, expiresAt)
	return err
}

// UpdatePassword stores the new hash and clears the reset fields in the same
// statement, so a used token can never match again.
func (s *Store) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	const q = `UPDATE users
		SET password_hash = $2,
		    reset_token = NULL,
		    reset_token_expires_at = NULL,
		    reset_token_issued_at = NULL,
		    updated_at = now()
		WHERE id = $1`
	_, err := s.db.ExecContext(ctx, q, userID, passwordHash)
	return err
}

func (s *Store) SetStatus(ctx context.Context, userID int64, status Status) error {
	const q = `UPDATE users SET status = $2, updated_at = now() WHERE id = $1`
	_, err := s.db.ExecContext(ctx, q, userID, status)
	return err
}

func (s *Store) Create(ctx context.Context, username, email, password string, roleID int64) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	const q = `
		INSERT INTO users (username, email, password_hash, role_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING ` + userColumns
	return scanUser(s.db.QueryRowContext(ctx, q, username, email, string(hash), roleID, StatusActive))
}

type usersFile struct {
	Users []struct {
		Username string `yaml:"username"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Role     string `yaml:"role"`
	} `yaml:"users"`
}

var roleIDsByName = map[string]int64{
	"admin":   RoleAdmin,
	"manager": RoleManager,
	"viewer":  RoleViewer,
}

// SeedFromFile provisions bootstrap accounts. Existing usernames are left
// untouched.
func (s *Store) SeedFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var uf usersFile
	if err := yaml.Unmarshal(data, &uf); err != nil {
		return err
	}
	for _, u := range uf.Users {
		if u.Username == "" || u.Email == "" || u.Password == "" {
			continue
		}
		roleID, ok := roleIDsByName[u.Role]
		if !ok {
			roleID = RoleViewer
		}
		if _, err := s.GetByIdentifier(ctx, u.Username); err == nil {
			continue
		} else if !errors.Is(err, ErrUserNotFound) {
			return err
		}
		if _, err := s.Create(ctx, u.Username, u.Email, u.Password, roleID); err != nil {
			return err
		}
	}
	return nil
}
