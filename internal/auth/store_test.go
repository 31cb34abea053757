package auth

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash", "role_id", "status",
		"reset_token", "reset_token_expires_at", "reset_token_issued_at", "created_at",
	})
}

func TestStoreGetByIdentifier(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStore(db, 10)

	rows := userRows().AddRow(int64(7), "aidos", "aidos@example.com", "hash", int64(2), "active",
		nil, nil, nil, time.Now())
	mock.ExpectQuery("SELECT .+ FROM users WHERE username = \\$1 OR email = \\$1").
		WithArgs("aidos").
		WillReturnRows(rows)

	u, err := store.GetByIdentifier(context.Background(), "aidos")
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, StatusActive, u.Status)
	assert.Nil(t, u.ResetToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreGetByIdentifierNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStore(db, 10)

	mock.ExpectQuery("SELECT .+ FROM users").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetByIdentifier(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStoreGetByResetTokenRequiresFutureExpiry(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStore(db, 10)

	mock.ExpectQuery(regexp.QuoteMeta("reset_token = $1 AND reset_token_expires_at > now()")).
		WithArgs("deadbeef").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetByResetToken(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreUpdatePasswordClearsResetFields(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewStore(db, 10)

	mock.ExpectExec("UPDATE users\\s+SET password_hash = \\$2,\\s+reset_token = NULL").
		WithArgs(int64(7), "newhash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.UpdatePassword(context.Background(), 7, "newhash"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBlacklistInsertIsConflictTolerant(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewBlacklistStore(db)
	exp := time.Now().Add(time.Hour)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (token) DO NOTHING")).
		WithArgs("tok", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Second insert hits the conflict branch: zero rows, still no error.
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (token) DO NOTHING")).
		WithArgs("tok", exp).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	require.NoError(t, store.Insert(ctx, "tok", exp))
	require.NoError(t, store.Insert(ctx, "tok", exp))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBlacklistContains(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewBlacklistStore(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT 1 FROM blacklisted_tokens").
		WithArgs("present").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery("SELECT 1 FROM blacklisted_tokens").
		WithArgs("absent").
		WillReturnError(sql.ErrNoRows)

	ok, err := store.Contains(ctx, "present")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Contains(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBlacklistDeleteExpired(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewBlacklistStore(db)

	mock.ExpectExec("DELETE FROM blacklisted_tokens WHERE expires_at < now").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
