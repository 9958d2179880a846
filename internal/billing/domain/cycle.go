package billing

import (
	"fmt"
	"math"
	"time"

	tariff "gd-invoice/internal/tariff/domain"
)

// CreditBatch is a bank of compensation credits with its expiry date.
type CreditBatch struct {
	KWh       float64   `json:"kwh"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CycleInput is one reference month of readings for a consumer unit.
type CycleInput struct {
	UnitID           string                    `json:"unit_id"`
	ReferenceMonth   time.Time                 `json:"reference_month"`
	Group            tariff.Group              `json:"group"`
	Consumption      map[tariff.Period]float64 `json:"consumption"`
	ContractedDemand float64                   `json:"contracted_demand"`
	MeasuredDemand   float64                   `json:"measured_demand"`
	Generation       float64                   `json:"generation"`
	SelfConsumed     map[tariff.Period]float64 `json:"self_consumed"`
	Injected         map[tariff.Period]float64 `json:"injected"`
	RemoteCredits    float64                   `json:"remote_credits"`
	ReactivePenalty  float64                   `json:"reactive_penalty"`
	PublicLighting   float64                   `json:"public_lighting"`
	DeclaredTotal    float64                   `json:"declared_total"`
	AlertColor       tariff.AlertColor         `json:"alert_color"`
	CreditBatches    []CreditBatch             `json:"credit_batches"`
	AsOf             time.Time                 `json:"as_of"`
}

// Validate checks that every quantity is finite and non-negative.
func (in CycleInput) Validate() error {
	if in.Group != "" && !in.Group.Valid() {
		return ErrInvalidGroup
	}
	if in.AlertColor != "" && !in.AlertColor.Valid() {
		return ErrUnknownAlertColor
	}
	for name, values := range map[string]map[tariff.Period]float64{
		"consumption":   in.Consumption,
		"self_consumed": in.SelfConsumed,
		"injected":      in.Injected,
	} {
		for period, value := range values {
			if !period.Valid() {
				return fmt.Errorf("%s %q: %w", name, period, ErrUnknownPeriod)
			}
			if invalidQuantity(value) {
				return fmt.Errorf("%s %s: %w", name, period, ErrNegativeQuantity)
			}
		}
	}
	scalars := map[string]float64{
		"contracted_demand": in.ContractedDemand,
		"measured_demand":   in.MeasuredDemand,
		"generation":        in.Generation,
		"remote_credits":    in.RemoteCredits,
		"reactive_penalty":  in.ReactivePenalty,
		"public_lighting":   in.PublicLighting,
		"declared_total":    in.DeclaredTotal,
	}
	for name, value := range scalars {
		if invalidQuantity(value) {
			return fmt.Errorf("%s: %w", name, ErrNegativeQuantity)
		}
	}
	for i, batch := range in.CreditBatches {
		if invalidQuantity(batch.KWh) {
			return fmt.Errorf("credit batch %d: %w", i, ErrNegativeQuantity)
		}
	}
	return nil
}

// ReferenceYear returns the billing year of the cycle.
func (in CycleInput) ReferenceYear() int {
	return in.ReferenceMonth.Year()
}

// ReferenceInstant returns AsOf, or the last day of the reference month when unset.
func (in CycleInput) ReferenceInstant() time.Time {
	if !in.AsOf.IsZero() {
		return in.AsOf
	}
	if in.ReferenceMonth.IsZero() {
		return time.Time{}
	}
	start := time.Date(in.ReferenceMonth.Year(), in.ReferenceMonth.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start.AddDate(0, 1, -1)
}

// SelfConsumedByPeriod returns the behind-the-meter consumption per period. When only
// generation totals are known, generation minus injection is booked on the off-peak
// period for group A and on the single period otherwise.
func (in CycleInput) SelfConsumedByPeriod() map[tariff.Period]float64 {
	if len(in.SelfConsumed) > 0 {
		return in.SelfConsumed
	}
	derived := in.Generation - sumPeriods(in.Injected)
	if derived <= 0 {
		return nil
	}
	period := tariff.PeriodSingle
	if in.Group == tariff.GroupA {
		period = tariff.PeriodOffPeak
	}
	return map[tariff.Period]float64{period: derived}
}

func sumPeriods(values map[tariff.Period]float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func invalidQuantity(v float64) bool {
	return v < 0 || math.IsNaN(v) || math.IsInf(v, 0)
}

// orderedPeriods returns the periods present in any of the maps in display order.
func orderedPeriods(maps ...map[tariff.Period]float64) []tariff.Period {
	var periods []tariff.Period
	for _, p := range tariff.Periods {
		for _, m := range maps {
			if _, ok := m[p]; ok {
				periods = append(periods, p)
				break
			}
		}
	}
	return periods
}
