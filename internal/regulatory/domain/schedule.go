package regulatory

import (
	"math"
	"sort"
)

type scheduleEntry struct {
	year     int
	fraction float64
}

// Schedule maps a billing year to the non-compensable fraction of the wires-B charge.
type Schedule struct {
	entries []scheduleEntry
}

// NewSchedule validates and builds a schedule from year -> fraction pairs.
func NewSchedule(fractions map[int]float64) (Schedule, error) {
	if len(fractions) == 0 {
		return Schedule{}, ErrEmptySchedule
	}
	entries := make([]scheduleEntry, 0, len(fractions))
	for year, fraction := range fractions {
		if fraction < 0 || fraction > 1 || math.IsNaN(fraction) {
			return Schedule{}, ErrFractionOutOfRange
		}
		entries = append(entries, scheduleEntry{year: year, fraction: fraction})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].year < entries[j].year })
	for i := 1; i < len(entries); i++ {
		if entries[i].fraction < entries[i-1].fraction {
			return Schedule{}, ErrScheduleNotMonotonic
		}
	}
	return Schedule{entries: entries}, nil
}

// Fraction returns the fraction for a year. Years before the first entry are 0 and
// years after the last entry keep the last value.
func (s Schedule) Fraction(year int) float64 {
	fraction := 0.0
	for _, entry := range s.entries {
		if entry.year > year {
			break
		}
		fraction = entry.fraction
	}
	return fraction
}

// Years returns the configured years in ascending order.
func (s Schedule) Years() []int {
	years := make([]int, 0, len(s.entries))
	for _, entry := range s.entries {
		years = append(years, entry.year)
	}
	return years
}
