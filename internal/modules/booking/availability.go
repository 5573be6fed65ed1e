package booking

import (
	"sort"

	"mixlab/internal/domain"
)

// DurationAware lists the start times at which a booking of the given length
// fits: candidates step by half an hour from opening, the whole range must end
// by closing time, and no unit it covers may be occupied.
func DurationAware(g Grid, existing []domain.Booking, hours int) []string {
	intervals := make([]Interval, 0, len(existing))
	for i := range existing {
		if !existing[i].IsCountable() {
			continue
		}
		if iv, ok := BookingInterval(&existing[i]); ok {
			intervals = append(intervals, iv)
		}
	}
	occ := g.Occupancy(intervals)

	length := Clock(hours * 60)
	slots := []string{}
	for t := g.Open; t+length <= g.Close; t += g.Step {
		free := true
		for u := t; u < t+length; u += g.Step {
			if occ.Has(u) {
				free = false
				break
			}
		}
		if free {
			slots = append(slots, t.String())
		}
	}
	return slots
}

// HourlyListing is the admin view: whole hours from opening to the last hour
// before closing, minus the exact start times already taken. Booking length
// is not considered.
func HourlyListing(g Grid, existing []domain.Booking) (available, booked []string) {
	taken := make(map[Clock]struct{})
	for i := range existing {
		if existing[i].CheckInStatus == domain.CheckInCancelled {
			continue
		}
		c, err := ParseClock(existing[i].BookingTime)
		if err != nil {
			continue
		}
		taken[c] = struct{}{}
	}

	available = []string{}
	for t := g.Open; t+60 <= g.Close; t += 60 {
		if _, ok := taken[t]; !ok {
			available = append(available, t.String())
		}
	}

	booked = make([]string, 0, len(taken))
	for c := range taken {
		booked = append(booked, c.String())
	}
	sort.Strings(booked)
	return available, booked
}
