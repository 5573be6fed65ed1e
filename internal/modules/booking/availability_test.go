package booking

import (
	"testing"

	"mixlab/internal/domain"

	"github.com/stretchr/testify/assert"
)

func countable(id, start string, hours int) domain.Booking {
	return domain.Booking{
		BookingID:     id,
		BookingDate:   "2025-12-01",
		BookingTime:   start,
		Hours:         hours,
		PaymentStatus: domain.PaymentPending,
		CheckInStatus: domain.CheckInPending,
	}
}

func TestDurationAware_EmptyDay(t *testing.T) {
	slots := DurationAware(DefaultGrid, nil, 1)
	assert.Len(t, slots, 23)
	assert.Equal(t, "09:00", slots[0])
	assert.Equal(t, "20:00", slots[len(slots)-1])

	slots = DurationAware(DefaultGrid, nil, 12)
	assert.Equal(t, []string{"09:00"}, slots)

	slots = DurationAware(DefaultGrid, nil, 3)
	assert.Equal(t, "18:00", slots[len(slots)-1])
}

func TestDurationAware_DecemberFirstScenario(t *testing.T) {
	existing := []domain.Booking{countable("MIX-A", "10:00", 2)}

	slots := DurationAware(DefaultGrid, existing, 1)

	for _, blocked := range []string{"09:30", "10:00", "10:30", "11:00", "11:30"} {
		assert.NotContains(t, slots, blocked)
	}
	assert.Contains(t, slots, "09:00")
	assert.Contains(t, slots, "12:00")
	assert.Contains(t, slots, "20:00")
	assert.Equal(t, "12:00", slots[1])
	assert.Len(t, slots, 18)
}

func TestDurationAware_IgnoresNonCountable(t *testing.T) {
	cancelled := countable("MIX-A", "10:00", 2)
	cancelled.CheckInStatus = domain.CheckInCancelled
	failed := countable("MIX-B", "13:00", 1)
	failed.PaymentStatus = domain.PaymentFailed

	slots := DurationAware(DefaultGrid, []domain.Booking{cancelled, failed}, 1)
	assert.Len(t, slots, 23)
}

func TestDurationAware_OffGridBooking(t *testing.T) {
	slots := DurationAware(DefaultGrid, []domain.Booking{countable("MIX-A", "10:15", 1)}, 1)

	assert.NotContains(t, slots, "10:00")
	assert.NotContains(t, slots, "10:30")
	assert.NotContains(t, slots, "09:30")
	assert.Contains(t, slots, "11:30")
}

func TestHourlyListing(t *testing.T) {
	long := countable("MIX-A", "10:00", 3)
	cancelled := countable("MIX-B", "15:00", 1)
	cancelled.CheckInStatus = domain.CheckInCancelled

	available, booked := HourlyListing(DefaultGrid, []domain.Booking{long, cancelled})

	assert.Equal(t, []string{"10:00"}, booked)
	assert.Len(t, available, 11)
	assert.NotContains(t, available, "10:00")
	// Start-time subtraction only: 11:00 is still listed although MIX-A runs until 13:00.
	assert.Contains(t, available, "11:00")
	assert.Contains(t, available, "15:00")
	assert.Equal(t, "20:00", available[len(available)-1])
}
