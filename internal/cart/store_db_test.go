package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock), mock
}

func TestPostgresStore_GetMissing(t *testing.T) {
	store, mock := setupPostgres(t)

	mock.ExpectQuery(`SELECT payload\s+FROM cart_snapshots`).
		WithArgs("cartItems:s1").
		WillReturnError(pgx.ErrNoRows)

	data, ok, err := store.Get(context.Background(), "cartItems:s1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := setupPostgres(t)

	mock.ExpectQuery(`SELECT payload\s+FROM cart_snapshots`).
		WithArgs("cartItems:s1").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).
			AddRow([]byte(`[{"productId":"A","quantity":2,"unitPrice":1000}]`)))

	l, err := Open(context.Background(), store, "cartItems:s1")
	require.NoError(t, err)
	require.Equal(t, 1, l.Len())
	assert.Equal(t, 2, l.Summary().ItemCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutUpserts(t *testing.T) {
	store, mock := setupPostgres(t)

	mock.ExpectExec("INSERT INTO cart_snapshots").
		WithArgs("cartItems:s1", []byte(`[]`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Put(context.Background(), "cartItems:s1", []byte(`[]`)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_PutFailureSurfacesThroughLedger(t *testing.T) {
	store, mock := setupPostgres(t)

	mock.ExpectExec("INSERT INTO cart_snapshots").
		WithArgs("cartItems:s1", pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset by peer"))

	l := New(store, "cartItems:s1")
	err := l.AddItem(context.Background(), productA())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save cart snapshot")
	assert.True(t, l.Empty())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete(t *testing.T) {
	store, mock := setupPostgres(t)

	mock.ExpectExec("DELETE FROM cart_snapshots").
		WithArgs("cartItems:s1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, store.Delete(context.Background(), "cartItems:s1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureSchema(t *testing.T) {
	store, mock := setupPostgres(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS cart_snapshots").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
