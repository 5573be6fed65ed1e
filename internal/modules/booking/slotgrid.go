package booking

import (
	"fmt"
	"strings"
)

// Clock is a time of day in minutes since midnight.
type Clock int

const (
	OpeningTime Clock = 9 * 60
	ClosingTime Clock = 21 * 60
	SlotStep    Clock = 30
)

// ParseClock accepts "HH:MM" or "HH:MM:SS", two ASCII digits per field.
// Seconds are dropped.
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, ok := twoDigits(parts[0])
	if !ok || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, ok := twoDigits(parts[1])
	if !ok || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if len(parts) == 3 {
		if sec, ok := twoDigits(parts[2]); !ok || sec > 59 {
			return 0, fmt.Errorf("invalid second in %q", s)
		}
	}
	return Clock(h*60 + m), nil
}

func twoDigits(s string) (int, bool) {
	if len(s) != 2 || s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// Interval is the half-open range [Start, End).
type Interval struct {
	Start Clock
	End   Clock
}

func NewInterval(start Clock, hours int) Interval {
	return Interval{Start: start, End: start + Clock(hours*60)}
}

func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// Grid partitions [Open, Close) into Step-sized units.
type Grid struct {
	Open  Clock
	Close Clock
	Step  Clock
}

var DefaultGrid = Grid{Open: OpeningTime, Close: ClosingTime, Step: SlotStep}

// Contains reports whether iv lies entirely inside operating hours.
func (g Grid) Contains(iv Interval) bool {
	return g.Open <= iv.Start && iv.End <= g.Close && iv.Start < iv.End
}

// Units lists every unit start from Open up to Close.
func (g Grid) Units() []Clock {
	var out []Clock
	for t := g.Open; t < g.Close; t += g.Step {
		out = append(out, t)
	}
	return out
}

// OccupiedSet holds the unit starts covered by at least one booking.
type OccupiedSet map[Clock]struct{}

func (o OccupiedSet) Has(c Clock) bool {
	_, ok := o[c]
	return ok
}

// Occupancy marks every grid unit that overlaps any of the intervals.
func (g Grid) Occupancy(intervals []Interval) OccupiedSet {
	occ := make(OccupiedSet)
	for _, iv := range intervals {
		for _, u := range g.Units() {
			if Overlaps(iv, Interval{Start: u, End: u + g.Step}) {
				occ[u] = struct{}{}
			}
		}
	}
	return occ
}
