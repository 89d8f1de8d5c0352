package database

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/agrisetu/marketplace-backend/internal/models"
	"github.com/jmoiron/sqlx"
)

// BookingRepository handles booking database operations
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, farmer_id, item_category, work_purpose, date, start_time,
	end_time, estimated_duration, location, quantity, operator_required,
	allow_multiple_suppliers, supplier_id, item_id, operator_id, final_price, status,
	estimated_price, advance_amount, advance_payment_id, otp_code, otp_verified,
	work_start_time, dispute_raised, dispute_resolved, damage_reported,
	discount_amount, is_rebroadcast, final_payment_id, payment_method,
	payment_details, created_at, updated_at`

const bookingInsert = `
	INSERT INTO bookings (` + bookingColumns + `)
	VALUES (:id, :farmer_id, :item_category, :work_purpose, :date, :start_time,
		:end_time, :estimated_duration, :location, :quantity, :operator_required,
		:allow_multiple_suppliers, :supplier_id, :item_id, :operator_id, :final_price,
		:status, :estimated_price, :advance_amount, :advance_payment_id, :otp_code,
		:otp_verified, :work_start_time, :dispute_raised, :dispute_resolved,
		:damage_reported, :discount_amount, :is_rebroadcast, :final_payment_id,
		:payment_method, :payment_details, :created_at, :updated_at)`

const bookingUpdate = `
	UPDATE bookings SET
		quantity = :quantity,
		allow_multiple_suppliers = :allow_multiple_suppliers,
		supplier_id = :supplier_id,
		item_id = :item_id,
		operator_id = :operator_id,
		final_price = :final_price,
		status = :status,
		otp_code = :otp_code,
		otp_verified = :otp_verified,
		work_start_time = :work_start_time,
		dispute_raised = :dispute_raised,
		dispute_resolved = :dispute_resolved,
		damage_reported = :damage_reported,
		discount_amount = :discount_amount,
		is_rebroadcast = :is_rebroadcast,
		final_payment_id = :final_payment_id,
		payment_method = :payment_method,
		payment_details = :payment_details,
		updated_at = :updated_at
	WHERE id = :id`

// GenerateBookingID generates a unique booking reference.
// Format: XXXXX-AGB-XXXXX (two 5 char alphanumeric blocks)
// Example: K3N7Q-AGB-8XW2M
func (r *BookingRepository) GenerateBookingID() (string, error) {
	for attempts := 0; attempts < 10; attempts++ {
		left, err := randomBlock(5)
		if err != nil {
			return "", fmt.Errorf("failed to generate booking id: %w", err)
		}
		right, err := randomBlock(5)
		if err != nil {
			return "", fmt.Errorf("failed to generate booking id: %w", err)
		}

		id := fmt.Sprintf("%s-AGB-%s", left, right)

		var count int
		if err := r.db.Get(&count, `SELECT COUNT(*) FROM bookings WHERE id = $1`, id); err != nil {
			return "", fmt.Errorf("failed to check booking id uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique booking id after 10 attempts")
}

const idAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func randomBlock(length int) (string, error) {
	block := make([]byte, length)
	for i := range block {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(idAlphabet))))
		if err != nil {
			return "", err
		}
		block[i] = idAlphabet[n.Int64()]
	}
	return string(block), nil
}

// CreateTx inserts a new booking within an existing transaction
func (r *BookingRepository) CreateTx(tx *sqlx.Tx, booking *models.Booking) error {
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	if _, err := tx.NamedExec(bookingInsert, booking); err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

// GetByID fetches a booking by its reference
func (r *BookingRepository) GetByID(id string) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if err := r.db.Get(&booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetForUpdate fetches a booking inside a transaction with a row lock,
// serializing concurrent acceptances against the same booking
func (r *BookingRepository) GetForUpdate(tx *sqlx.Tx, id string) (*models.Booking, error) {
	var booking models.Booking
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	if err := tx.Get(&booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// Update persists the mutable fields of a booking
func (r *BookingRepository) Update(booking *models.Booking) error {
	booking.UpdatedAt = time.Now()

	query, args, err := sqlx.Named(bookingUpdate, booking)
	if err != nil {
		return fmt.Errorf("failed to build booking update: %w", err)
	}

	if _, err := r.db.Exec(sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	return nil
}

// UpdateTx persists the mutable fields of a booking within a transaction
func (r *BookingRepository) UpdateTx(tx *sqlx.Tx, booking *models.Booking) error {
	booking.UpdatedAt = time.Now()

	if _, err := tx.NamedExec(bookingUpdate, booking); err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	return nil
}

// List fetches bookings matching the filter, newest first
func (r *BookingRepository) List(filter models.BookingFilter) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := []interface{}{}

	if filter.FarmerID != "" {
		args = append(args, filter.FarmerID)
		query += fmt.Sprintf(" AND farmer_id = $%d", len(args))
	}
	if filter.SupplierID != "" {
		args = append(args, filter.SupplierID)
		query += fmt.Sprintf(" AND supplier_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	bookings := []models.Booking{}
	if err := r.db.Select(&bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// CountSearchingCompetitors counts other open broadcasts in the same
// category and location, the demand input to the surge multiplier
func (r *BookingRepository) CountSearchingCompetitors(category, location, excludeID string) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM bookings
		WHERE status = $1 AND item_category = $2 AND location = $3 AND id != $4
	`
	err := r.db.Get(&count, query, models.BookingStatusSearching, category, location, excludeID)
	if err != nil {
		return 0, fmt.Errorf("failed to count competing bookings: %w", err)
	}
	return count, nil
}

// ListDelayedConfirmed fetches confirmed bookings whose start passed more
// than the grace period ago without OTP verification and which have not
// been compensated yet. The discount_amount check is the dedup signal so
// repeated monitor scans stay idempotent.
func (r *BookingRepository) ListDelayedConfirmed(startedBefore time.Time) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + ` FROM bookings
		WHERE status = $1
		  AND otp_verified = false
		  AND discount_amount = 0
		  AND date + start_time::interval < $2
	`
	bookings := []models.Booking{}
	if err := r.db.Select(&bookings, query, models.BookingStatusConfirmed, startedBefore); err != nil {
		return nil, fmt.Errorf("failed to list delayed bookings: %w", err)
	}
	return bookings, nil
}

// ApplyDelayCompensation records the compensation discount for a delayed booking
func (r *BookingRepository) ApplyDelayCompensation(id string, discount float64) error {
	query := `
		UPDATE bookings SET discount_amount = $1, updated_at = $2
		WHERE id = $3 AND discount_amount = 0
	`
	if _, err := r.db.Exec(query, discount, time.Now(), id); err != nil {
		return fmt.Errorf("failed to apply delay compensation: %w", err)
	}
	return nil
}

// ListStalePending fetches direct requests that have waited for a supplier
// response longer than the hold TTL
func (r *BookingRepository) ListStalePending(createdBefore time.Time) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + ` FROM bookings
		WHERE status = $1 AND created_at < $2
	`
	bookings := []models.Booking{}
	if err := r.db.Select(&bookings, query, models.BookingStatusPendingConfirmation, createdBefore); err != nil {
		return nil, fmt.Errorf("failed to list stale pending bookings: %w", err)
	}
	return bookings, nil
}
