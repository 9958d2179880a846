package regulatory_test

import (
	"errors"
	"testing"
	"time"

	regulatory "gd-invoice/internal/regulatory/domain"
)

func TestNewSchedule_Invariants(t *testing.T) {
	if _, err := regulatory.NewSchedule(nil); !errors.Is(err, regulatory.ErrEmptySchedule) {
		t.Fatalf("expected ErrEmptySchedule, got %v", err)
	}
	if _, err := regulatory.NewSchedule(map[int]float64{2023: 1.2}); !errors.Is(err, regulatory.ErrFractionOutOfRange) {
		t.Fatalf("expected ErrFractionOutOfRange, got %v", err)
	}
	if _, err := regulatory.NewSchedule(map[int]float64{2023: 0.3, 2024: 0.15}); !errors.Is(err, regulatory.ErrScheduleNotMonotonic) {
		t.Fatalf("expected ErrScheduleNotMonotonic, got %v", err)
	}
}

func TestSchedule_Fraction(t *testing.T) {
	schedule, err := regulatory.NewSchedule(map[int]float64{2023: 0.15, 2024: 0.3, 2025: 0.45})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	cases := map[int]float64{2022: 0, 2023: 0.15, 2024: 0.3, 2025: 0.45, 2031: 0.45}
	for year, want := range cases {
		if got := schedule.Fraction(year); got != want {
			t.Fatalf("year %d: expected %v, got %v", year, want, got)
		}
	}
	if years := schedule.Years(); len(years) != 3 || years[0] != 2023 {
		t.Fatalf("unexpected years: %v", years)
	}
}

func TestClassifier_Classify(t *testing.T) {
	schedule, _ := regulatory.NewSchedule(map[int]float64{2023: 0.15, 2025: 0.45})
	classifier := regulatory.NewClassifier(regulatory.Rules{
		GrandfatherCutoff:  time.Date(2023, time.January, 7, 23, 59, 59, 0, time.UTC),
		GrandfatheredUntil: 2045,
		Schedule:           schedule,
	})
	before := time.Date(2022, time.December, 20, 0, 0, 0, 0, time.UTC)
	after := time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		protocol *time.Time
		year     int
		regime   regulatory.Regime
		fraction float64
	}{
		{name: "no protocol date", year: 2025, regime: regulatory.RegimePartial, fraction: 0.45},
		{name: "grandfathered", protocol: &before, year: 2025, regime: regulatory.RegimeFull},
		{name: "after cutoff", protocol: &after, year: 2025, regime: regulatory.RegimePartial, fraction: 0.45},
		{name: "grandfathering ended", protocol: &before, year: 2046, regime: regulatory.RegimePartial, fraction: 0.45},
		{name: "before schedule", protocol: &after, year: 2022, regime: regulatory.RegimePartial},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifier.Classify(tc.protocol, tc.year)
			if got.Regime != tc.regime || got.NonCompensableFraction != tc.fraction || got.ReferenceYear != tc.year {
				t.Fatalf("unexpected classification: %+v", got)
			}
		})
	}
}
