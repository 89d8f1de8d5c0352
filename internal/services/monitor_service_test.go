package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/agrisetu/marketplace-backend/internal/database"
	"github.com/agrisetu/marketplace-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMonitorService(t *testing.T) (*MonitorService, sqlmock.Sqlmock, *fakeSink) {
	db, mock := newMockDB(t)
	sink := &fakeSink{}

	service := NewMonitorService(
		database.NewBookingRepository(db),
		sink,
		DefaultMonitorConfig(),
		newTestLogger(),
	)
	return service, mock, sink
}

func TestCheckDelays(t *testing.T) {
	service, mock, sink := newMonitorService(t)

	booking := testBooking()
	booking.Status = models.BookingStatusConfirmed
	booking.FinalPrice = f64Ptr(1000)

	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WillReturnRows(bookingRows(booking))
	mock.ExpectExec(`UPDATE bookings SET discount_amount`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	service.CheckDelays()

	// 5% of the bound price, told to the farmer and flagged to the admin
	require.Len(t, sink.notifications, 1)
	assert.Equal(t, booking.FarmerID, sink.notifications[0].userID)
	assert.Contains(t, sink.notifications[0].message, "50")
	require.Len(t, sink.adminAlerts, 1)
	assert.Contains(t, sink.adminAlerts[0], booking.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckDelays_NothingDelayed(t *testing.T) {
	service, mock, sink := newMonitorService(t)

	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WillReturnRows(emptyBookingRows())

	service.CheckDelays()

	assert.Empty(t, sink.notifications)
	assert.Empty(t, sink.adminAlerts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckDelays_FailureIsolated(t *testing.T) {
	service, mock, sink := newMonitorService(t)

	first := testBooking()
	first.Status = models.BookingStatusConfirmed
	first.FinalPrice = f64Ptr(1000)
	second := testBooking()
	second.ID = "P4RTY-AGB-W3NXD"
	second.Status = models.BookingStatusConfirmed
	second.FinalPrice = f64Ptr(2000)

	rows := bookingRows(first)
	appendBookingRow(rows, second)

	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WillReturnRows(rows)
	mock.ExpectExec(`UPDATE bookings SET discount_amount`).
		WillReturnError(assert.AnError)
	mock.ExpectExec(`UPDATE bookings SET discount_amount`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	service.CheckDelays()

	// One write failed, the other booking is still compensated
	require.Len(t, sink.notifications, 1)
	assert.Contains(t, sink.notifications[0].message, second.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpireStaleRequests(t *testing.T) {
	service, mock, sink := newMonitorService(t)

	booking := testBooking()
	booking.Status = models.BookingStatusPendingConfirmation
	booking.SupplierID = strPtr("sup-1")

	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WillReturnRows(bookingRows(booking))
	mock.ExpectExec(`UPDATE bookings`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	service.ExpireStaleRequests()

	require.Len(t, sink.notifications, 1)
	assert.Equal(t, booking.FarmerID, sink.notifications[0].userID)
	assert.Contains(t, sink.notifications[0].message, "expired")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunChecks(t *testing.T) {
	service, mock, sink := newMonitorService(t)

	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WillReturnRows(emptyBookingRows())
	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WillReturnRows(emptyBookingRows())

	service.RunChecks()

	assert.Empty(t, sink.notifications)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func emptyBookingRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "farmer_id", "item_category", "work_purpose", "date", "start_time",
		"end_time", "estimated_duration", "location", "quantity", "operator_required",
		"allow_multiple_suppliers", "supplier_id", "item_id", "operator_id", "final_price",
		"status", "estimated_price", "advance_amount", "advance_payment_id", "otp_code",
		"otp_verified", "work_start_time", "dispute_raised", "dispute_resolved",
		"damage_reported", "discount_amount", "is_rebroadcast", "final_payment_id",
		"payment_method", "payment_details", "created_at", "updated_at",
	})
}

func appendBookingRow(rows *sqlmock.Rows, b *models.Booking) {
	rows.AddRow(
		b.ID, b.FarmerID, b.ItemCategory, b.WorkPurpose, b.Date, b.StartTime,
		strVal(b.EndTime), intVal(b.EstimatedDuration), b.Location, intVal(b.Quantity), b.OperatorRequired,
		b.AllowMultipleSuppliers, strVal(b.SupplierID), strVal(b.ItemID), strVal(b.OperatorID), f64Val(b.FinalPrice),
		string(b.Status), f64Val(b.EstimatedPrice), f64Val(b.AdvanceAmount), strVal(b.AdvancePaymentID), strVal(b.OTPCode),
		b.OTPVerified, timeVal(b.WorkStartTime), b.DisputeRaised, b.DisputeResolved,
		b.DamageReported, b.DiscountAmount, b.IsRebroadcast, strVal(b.FinalPaymentID),
		strVal(b.PaymentMethod), nil, b.CreatedAt, b.UpdatedAt,
	)
}
