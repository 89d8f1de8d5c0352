package services

import (
	"testing"
	"time"

	"github.com/agrisetu/marketplace-backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestDuration(t *testing.T) {
	service := NewPricingService(DefaultPricingConfig())

	t.Run("Explicit estimate wins", func(t *testing.T) {
		end := "11:00"
		booking := &models.Booking{
			Date:              time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
			StartTime:         "08:00",
			EndTime:           &end,
			EstimatedDuration: intPtr(5),
		}
		assert.Equal(t, 5, service.Duration(booking))
	})

	t.Run("Derived from start and end", func(t *testing.T) {
		end := "12:30"
		booking := &models.Booking{
			Date:      time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
			StartTime: "08:00",
			EndTime:   &end,
		}
		// 4.5 hours rounds to 5
		assert.Equal(t, 5, service.Duration(booking))
	})

	t.Run("Default when nothing given", func(t *testing.T) {
		booking := &models.Booking{
			Date:      time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
			StartTime: "08:00",
		}
		assert.Equal(t, DefaultDurationHours, service.Duration(booking))
	})

	t.Run("Never below one hour", func(t *testing.T) {
		end := "08:10"
		booking := &models.Booking{
			Date:      time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
			StartTime: "08:00",
			EndTime:   &end,
		}
		assert.Equal(t, MinDurationHours, service.Duration(booking))

		booking.EndTime = strPtr("07:00") // end before start
		assert.Equal(t, MinDurationHours, service.Duration(booking))
	})
}

func TestSurgeMultiplier(t *testing.T) {
	service := NewPricingService(DefaultPricingConfig())

	tests := []struct {
		name     string
		month    time.Month
		demand   int
		expected float64
	}{
		{"Off season, no demand", time.January, 0, 1.0},
		{"Harvest season", time.October, 0, 1.25},
		{"Sowing season", time.April, 0, 1.15},
		{"Moderate demand off season", time.January, 6, 1.25},
		{"High demand off season", time.January, 11, 1.4},
		{"Harvest with moderate demand keeps harvest rate", time.September, 6, 1.25},
		{"Sowing with high demand takes demand rate", time.March, 11, 1.4},
		{"Demand at moderate boundary is not surged", time.January, 5, 1.0},
		{"Demand at high boundary stays moderate", time.November, 10, 1.25},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, service.SurgeMultiplier(tc.month, tc.demand), 0.0001)
		})
	}
}

func TestSurgeMultiplier_MonotonicInDemand(t *testing.T) {
	service := NewPricingService(DefaultPricingConfig())

	for _, month := range []time.Month{time.January, time.April, time.October} {
		prev := 0.0
		for demand := 0; demand <= 15; demand++ {
			surge := service.SurgeMultiplier(month, demand)
			assert.GreaterOrEqual(t, surge, prev, "month %s demand %d", month, demand)
			assert.GreaterOrEqual(t, surge, 1.0)
			prev = surge
		}
	}
}

func TestComputePrice(t *testing.T) {
	service := NewPricingService(DefaultPricingConfig())

	t.Run("Base price without surge", func(t *testing.T) {
		booking := &models.Booking{
			Date:              time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
			StartTime:         "08:00",
			EstimatedDuration: intPtr(2),
		}
		price, duration := service.ComputePrice(booking, 500, 1, 0, false, 0)
		assert.Equal(t, 2, duration)
		assert.Equal(t, 1000.0, price)
	})

	t.Run("Harvest surge applies", func(t *testing.T) {
		booking := &models.Booking{
			Date:              time.Date(2026, time.October, 10, 0, 0, 0, 0, time.UTC),
			StartTime:         "08:00",
			EstimatedDuration: intPtr(2),
		}
		price, _ := service.ComputePrice(booking, 500, 1, 0, false, 0)
		assert.Equal(t, 1250.0, price)
	})

	t.Run("Operator charge counted once regardless of quantity", func(t *testing.T) {
		booking := &models.Booking{
			Date:              time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
			StartTime:         "08:00",
			EstimatedDuration: intPtr(2),
		}
		// 500*3*2 for the items, 100*2 for the single operator
		price, _ := service.ComputePrice(booking, 500, 3, 100, true, 0)
		assert.Equal(t, 3200.0, price)
	})

	t.Run("Operator excluded when not requested", func(t *testing.T) {
		booking := &models.Booking{
			Date:              time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
			StartTime:         "08:00",
			EstimatedDuration: intPtr(2),
		}
		price, _ := service.ComputePrice(booking, 500, 3, 100, false, 0)
		assert.Equal(t, 3000.0, price)
	})

	t.Run("Surge applies to operator charge too", func(t *testing.T) {
		booking := &models.Booking{
			Date:              time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC),
			StartTime:         "08:00",
			EstimatedDuration: intPtr(2),
		}
		// (500*1*2 + 100*2) * 1.25
		price, _ := service.ComputePrice(booking, 500, 1, 100, true, 0)
		assert.Equal(t, 1500.0, price)
	})
}
