package database

import (
	"fmt"
	"time"

	"github.com/agrisetu/marketplace-backend/internal/models"
	"github.com/jmoiron/sqlx"
)

// ItemRepository handles item availability and quantity. Catalog CRUD lives
// in the catalog service; only the matching path writes through here.
type ItemRepository struct {
	db DB
}

// NewItemRepository creates a new ItemRepository
func NewItemRepository(db DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `id, owner_id, category, name, location, latitude, longitude,
	purposes, operator_charge, available, quantity_available, created_at, updated_at`

// GetForUpdate fetches an item inside a transaction with a row lock so two
// simultaneous acceptances cannot both claim the same inventory slice
func (r *ItemRepository) GetForUpdate(tx *sqlx.Tx, id string) (*models.Item, error) {
	var item models.Item
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1 FOR UPDATE`
	if err := tx.Get(&item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// ReserveTx confirms a quantity against the item within a transaction.
// Quantity-tracked items are decremented and flip unavailable at zero;
// single-unit items flip unavailable unconditionally. The GREATEST guard
// keeps the tracked quantity from ever going negative.
func (r *ItemRepository) ReserveTx(tx *sqlx.Tx, item *models.Item, quantity int) error {
	var err error
	if item.TracksQuantity() {
		_, err = tx.Exec(`
			UPDATE items SET
				quantity_available = GREATEST(quantity_available - $1, 0),
				available = (quantity_available - $1) > 0,
				updated_at = $2
			WHERE id = $3`,
			quantity, time.Now(), item.ID)
	} else {
		_, err = tx.Exec(`
			UPDATE items SET available = false, updated_at = $1 WHERE id = $2`,
			time.Now(), item.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to reserve item %s: %w", item.ID, err)
	}
	return nil
}

// ReleaseTx returns a cancelled booking's quantity to the item within the
// same transaction that marks the booking cancelled, so the row change and
// the inventory restore commit or roll back together
func (r *ItemRepository) ReleaseTx(tx *sqlx.Tx, id string, quantity int) error {
	_, err := tx.Exec(`
		UPDATE items SET
			quantity_available = CASE
				WHEN quantity_available IS NULL THEN NULL
				ELSE quantity_available + $1
			END,
			available = true,
			updated_at = $2
		WHERE id = $3`,
		quantity, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to release item %s: %w", id, err)
	}
	return nil
}
