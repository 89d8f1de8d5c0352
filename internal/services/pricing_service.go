package services

import (
	"math"
	"time"

	"github.com/agrisetu/marketplace-backend/internal/models"
)

const (
	// DefaultDurationHours is assumed when neither an estimate nor an end
	// time was given
	DefaultDurationHours = 3

	// MinDurationHours floors every computed duration
	MinDurationHours = 1
)

// PricingConfig holds the surge tuning knobs
type PricingConfig struct {
	HarvestSurge       float64 // Sep-Nov multiplier
	SowingSurge        float64 // Mar-May floor
	HighDemandSurge    float64 // floor above HighDemandCount competitors
	HighDemandCount    int
	ModerateDemandSurge float64 // floor above ModerateDemandCount competitors
	ModerateDemandCount int
}

// DefaultPricingConfig returns the default surge configuration
func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		HarvestSurge:        1.25,
		SowingSurge:         1.15,
		HighDemandSurge:     1.4,
		HighDemandCount:     10,
		ModerateDemandSurge: 1.25,
		ModerateDemandCount: 5,
	}
}

// PricingService computes duration, surge multiplier and final price for a
// candidate assignment
type PricingService struct {
	config PricingConfig
}

// NewPricingService creates a new PricingService
func NewPricingService(config PricingConfig) *PricingService {
	return &PricingService{config: config}
}

// Duration resolves the booking duration in hours: the explicit estimate
// first, then the start/end window, then the default. Never below one hour.
func (s *PricingService) Duration(booking *models.Booking) int {
	hours := DefaultDurationHours

	if booking.EstimatedDuration != nil {
		hours = *booking.EstimatedDuration
	} else if end, ok := booking.EndDateTime(); ok {
		hours = int(math.Round(end.Sub(booking.StartDateTime()).Hours()))
	}

	if hours < MinDurationHours {
		hours = MinDurationHours
	}
	return hours
}

// SurgeMultiplier combines seasonal and demand pressure. The rules combine
// via max, not multiplication, so the result is monotonic in demand and
// never below 1.0.
func (s *PricingService) SurgeMultiplier(month time.Month, demandCount int) float64 {
	surge := 1.0

	switch month {
	case time.September, time.October, time.November:
		surge = s.config.HarvestSurge
	case time.March, time.April, time.May:
		surge = math.Max(surge, s.config.SowingSurge)
	}

	if demandCount > s.config.HighDemandCount {
		surge = math.Max(surge, s.config.HighDemandSurge)
	} else if demandCount > s.config.ModerateDemandCount {
		surge = math.Max(surge, s.config.ModerateDemandSurge)
	}

	return surge
}

// ComputePrice calculates the bound price for a supplier/item/quantity
// triple. The operator charge is counted once per booking regardless of
// quantity. Returns the rounded price and the resolved duration.
func (s *PricingService) ComputePrice(booking *models.Booking, purposePrice float64, quantity int, operatorCharge float64, includeOperator bool, demandCount int) (float64, int) {
	duration := s.Duration(booking)

	base := purposePrice * float64(quantity) * float64(duration)
	if includeOperator {
		base += operatorCharge * float64(duration)
	}

	surge := s.SurgeMultiplier(booking.Date.Month(), demandCount)

	return math.Round(base * surge), duration
}
