package livestock

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestCreateAgent(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO agents").
		WithArgs("Bekzat", "+7-701-000-00-00", "Almaty", "reliable").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(4), now, now))

	a := &Agent{Name: "Bekzat", Phone: "+7-701-000-00-00", Region: "Almaty", Notes: "reliable"}
	require.NoError(t, store.CreateAgent(context.Background(), a))
	assert.Equal(t, int64(4), a.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAgentNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT .+ FROM agents WHERE id").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetAgent(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAnimals(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "tag_number", "species", "breed", "weight_kg", "price",
		"seller_id", "agent_id", "photo_path", "document_path", "created_at",
	}).
		AddRow(int64(1), "KZ-001", "cattle", "angus", 412.5, 650000.0, int64(2), nil, "uploads/images/a.jpg", "", now).
		AddRow(int64(2), "KZ-002", "sheep", "", 55.0, 80000.0, nil, nil, "", "", now)

	mock.ExpectQuery("SELECT .+ FROM animals ORDER BY created_at DESC").WillReturnRows(rows)

	animals, err := store.ListAnimals(context.Background())
	require.NoError(t, err)
	require.Len(t, animals, 2)
	assert.Equal(t, "KZ-001", animals[0].TagNumber)
	require.NotNil(t, animals[0].SellerID)
	assert.Equal(t, int64(2), *animals[0].SellerID)
	assert.Nil(t, animals[1].SellerID)
}

func TestCreatePayment(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO payments").
		WithArgs(int64(1), nil, 650000.0, "cash", "uploads/documents/r.pdf").
		WillReturnRows(sqlmock.NewRows([]string{"id", "paid_at", "created_at"}).AddRow(int64(9), now, now))

	p := &Payment{AnimalID: 1, Amount: 650000, Method: "cash", ReceiptPath: "uploads/documents/r.pdf"}
	require.NoError(t, store.CreatePayment(context.Background(), p))
	assert.Equal(t, int64(9), p.ID)
}
