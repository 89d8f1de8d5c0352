package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// PurposeMap maps a named task an item supports to its hourly price
type PurposeMap map[string]float64

func (p PurposeMap) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *PurposeMap) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, p)
}

// Item is a bookable piece of equipment, worker slot or service offering.
// Owned by the catalog service; this backend reads it for matching and
// writes only availability and quantity.
type Item struct {
	ID                string     `json:"id" db:"id"`
	OwnerID           string     `json:"owner_id" db:"owner_id"`
	Category          string     `json:"category" db:"category"`
	Name              string     `json:"name" db:"name"`
	Location          string     `json:"location" db:"location"`
	Latitude          *float64   `json:"latitude,omitempty" db:"latitude"`
	Longitude         *float64   `json:"longitude,omitempty" db:"longitude"`
	Purposes          PurposeMap `json:"purposes" db:"purposes"`
	OperatorCharge    float64    `json:"operator_charge" db:"operator_charge"`
	Available         bool       `json:"available" db:"available"`
	QuantityAvailable *int       `json:"quantity_available,omitempty" db:"quantity_available"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// PurposePrice looks up the hourly price for a work purpose
func (i *Item) PurposePrice(purpose string) (float64, bool) {
	price, ok := i.Purposes[purpose]
	return price, ok
}

// TracksQuantity reports whether the item is a fleet-style item with a
// counted quantity rather than a single unit
func (i *Item) TracksQuantity() bool {
	return i.QuantityAvailable != nil
}
