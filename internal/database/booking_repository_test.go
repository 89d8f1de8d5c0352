package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/agrisetu/marketplace-backend/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &PostgresDB{DB: sqlx.NewDb(db, "sqlmock")}, mock
}

func TestGenerateBookingID(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery(`SELECT COUNT(.+) FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	id, err := repo.GenerateBookingID()
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Z2-9]{5}-AGB-[A-Z2-9]{5}$`, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateBookingID_RetriesOnCollision(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewBookingRepository(db)

	// First candidate collides, second is free
	mock.ExpectQuery(`SELECT COUNT(.+) FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT COUNT(.+) FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	id, err := repo.GenerateBookingID()
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Z2-9]{5}-AGB-[A-Z2-9]{5}$`, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGenerateBookingID_ExhaustsAttempts(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewBookingRepository(db)

	for i := 0; i < 10; i++ {
		mock.ExpectQuery(`SELECT COUNT(.+) FROM bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	}

	_, err := repo.GenerateBookingID()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "10 attempts")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountSearchingCompetitors(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery(`SELECT COUNT(.+) FROM bookings`).
		WithArgs(string(models.BookingStatusSearching), "Tractors", "Nashik", "K3N7Q-AGB-8XW2M").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountSearchingCompetitors("Tractors", "Nashik", "K3N7Q-AGB-8XW2M")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDelayCompensation(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectExec(`UPDATE bookings SET discount_amount`).
		WithArgs(50.0, sqlmock.AnyArg(), "K3N7Q-AGB-8XW2M").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ApplyDelayCompensation("K3N7Q-AGB-8XW2M", 50)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_FilterArgs(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE 1=1 AND farmer_id = \$1 AND status = \$2`).
		WithArgs("farmer-1", "searching").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	bookings, err := repo.List(models.BookingFilter{FarmerID: "farmer-1", Status: "searching"})
	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectionWindow(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewRejectionRepository(db)

	mock.ExpectExec(`INSERT INTO supplier_rejections`).
		WithArgs("sup-1", "K3N7Q-AGB-8XW2M", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Record("sup-1", "K3N7Q-AGB-8XW2M"))

	mock.ExpectQuery(`SELECT COUNT(.+) FROM supplier_rejections`).
		WithArgs("sup-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountInWindow("sup-1", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	mock.ExpectExec(`DELETE FROM supplier_rejections`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	removed, err := repo.CleanupExpired(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentEventWindow(t *testing.T) {
	db, mock := newTestDB(t)
	repo := NewPaymentEventRepository(db)

	mock.ExpectExec(`INSERT INTO payment_events`).
		WithArgs("K3N7Q-AGB-8XW2M", "cash", 1900.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Record("K3N7Q-AGB-8XW2M", "cash", 1900))

	mock.ExpectQuery(`SELECT COUNT(.+) FROM payment_events`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(10))

	count, err := repo.CountInWindow(10 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
