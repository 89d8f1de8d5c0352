package services

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/agrisetu/marketplace-backend/internal/database"
	"github.com/agrisetu/marketplace-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDisputeService(t *testing.T) (*DisputeService, sqlmock.Sqlmock, *fakeSink) {
	db, mock := newMockDB(t)
	sink := &fakeSink{}

	service := NewDisputeService(
		database.NewBookingRepository(db),
		database.NewDamageReportRepository(db),
		sink,
		newTestLogger(),
	)
	return service, mock, sink
}

func TestRaiseDispute(t *testing.T) {
	service, mock, sink := newDisputeService(t)

	booking := testBooking()
	booking.Status = models.BookingStatusCompleted

	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WillReturnRows(bookingRows(booking))
	mock.ExpectExec(`UPDATE bookings`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := service.RaiseDispute(booking.ID)
	require.NoError(t, err)

	assert.True(t, result.DisputeRaised)
	assert.False(t, result.DisputeResolved)

	require.Len(t, sink.adminAlerts, 1)
	assert.Contains(t, sink.adminAlerts[0], booking.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRaiseDispute_BookingNotFound(t *testing.T) {
	service, mock, _ := newDisputeService(t)

	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WillReturnError(sql.ErrNoRows)

	_, err := service.RaiseDispute("AAAAA-AGB-AAAAA")
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveDispute(t *testing.T) {
	service, mock, sink := newDisputeService(t)

	booking := testBooking()
	booking.DisputeRaised = true

	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WillReturnRows(bookingRows(booking))
	mock.ExpectExec(`UPDATE bookings`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := service.ResolveDispute(booking.ID)
	require.NoError(t, err)

	assert.True(t, result.DisputeResolved)
	require.Len(t, sink.notifications, 1)
	assert.Equal(t, booking.FarmerID, sink.notifications[0].userID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveDispute_NoneOpen(t *testing.T) {
	service, mock, _ := newDisputeService(t)

	booking := testBooking()

	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WillReturnRows(bookingRows(booking))

	_, err := service.ResolveDispute(booking.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportDamage(t *testing.T) {
	service, mock, sink := newDisputeService(t)

	booking := testBooking()
	booking.Status = models.BookingStatusInProcess

	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WillReturnRows(bookingRows(booking))
	mock.ExpectExec(`INSERT INTO damage_reports`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE bookings`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	report, err := service.ReportDamage(&models.CreateDamageReportRequest{
		BookingID:   booking.ID,
		ReporterID:  "sup-1",
		Description: "Broken fence post near the east gate",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, models.DamageReportPending, report.Status)
	assert.Equal(t, booking.ID, report.BookingID)

	require.Len(t, sink.adminAlerts, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveDamageClaim(t *testing.T) {
	service, mock, _ := newDisputeService(t)

	mock.ExpectExec(`UPDATE damage_reports`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := service.ResolveDamageClaim("report-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveDamageClaim_NotFound(t *testing.T) {
	service, mock, _ := newDisputeService(t)

	mock.ExpectExec(`UPDATE damage_reports`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := service.ResolveDamageClaim("missing-report")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
