package booking

import (
	"mixlab/internal/domain"
)

// BookingInterval returns the occupied range of b. ok is false when the
// stored start time cannot be parsed.
func BookingInterval(b *domain.Booking) (iv Interval, ok bool) {
	start, err := ParseClock(b.BookingTime)
	if err != nil {
		return Interval{}, false
	}
	hours := b.Hours
	if hours < 1 {
		hours = 1
	}
	return NewInterval(start, hours), true
}

// FindConflict returns the first countable booking in existing that overlaps
// candidate, skipping the one whose BookingID equals exclude.
func FindConflict(candidate Interval, existing []domain.Booking, exclude string) *domain.Booking {
	for i := range existing {
		b := &existing[i]
		if exclude != "" && b.BookingID == exclude {
			continue
		}
		if !b.IsCountable() {
			continue
		}
		iv, ok := BookingInterval(b)
		if !ok {
			continue
		}
		if Overlaps(candidate, iv) {
			return b
		}
	}
	return nil
}

// ConflictCheckFor adapts FindConflict to the repository's locked write path.
func ConflictCheckFor(candidate Interval, exclude string) domain.ConflictCheck {
	return func(existing []domain.Booking) error {
		if hit := FindConflict(candidate, existing, exclude); hit != nil {
			return &ConflictError{Existing: hit.BookingID, Start: hit.BookingTime, Hours: hit.Hours}
		}
		return nil
	}
}
