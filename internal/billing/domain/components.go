package billing

import tariff "gd-invoice/internal/tariff/domain"

// DefaultOverageMultiplier prices demand overage when the card has no overage rate.
const DefaultOverageMultiplier = 2.0

// PeriodCharge is the tariff breakdown of one time-of-use period.
type PeriodCharge struct {
	Period           tariff.Period `json:"period"`
	Consumption      float64       `json:"consumption"`
	Uncompensated    float64       `json:"uncompensated"`
	AlertRate        float64       `json:"alert_rate"`
	EnergyRate       float64       `json:"energy_rate"`
	NetworkUsageRate float64       `json:"network_usage_rate"`
	PriceAlert       float64       `json:"price_alert"`
	Energy           float64       `json:"energy"`
	NetworkUsage     float64       `json:"network_usage"`
}

// DemandCharge is the demand breakdown of a cycle.
type DemandCharge struct {
	Contracted     float64 `json:"contracted"`
	Measured       float64 `json:"measured"`
	Billable       float64 `json:"billable"`
	Overage        float64 `json:"overage"`
	OveragePercent float64 `json:"overage_percent"`
	Rate           float64 `json:"rate"`
	OverageRate    float64 `json:"overage_rate"`
	Base           float64 `json:"base"`
	Penalty        float64 `json:"penalty"`
	Total          float64 `json:"total"`
}

// CalculatePeriodCharges prices each period. The price-alert surcharge applies to the
// whole consumption of the period; energy and network usage only to the uncompensated part.
func CalculatePeriodCharges(card tariff.RateCard, color tariff.AlertColor, allocations []PeriodAllocation) []PeriodCharge {
	alertRate := card.AlertRate(color)
	charges := make([]PeriodCharge, 0, len(allocations))
	for _, a := range allocations {
		energyRate := card.EnergyRate(a.Period)
		networkRate := card.NetworkUsageRate(a.Period).Full()
		charges = append(charges, PeriodCharge{
			Period:           a.Period,
			Consumption:      a.Consumption,
			Uncompensated:    a.Uncompensated,
			AlertRate:        alertRate,
			EnergyRate:       energyRate,
			NetworkUsageRate: networkRate,
			PriceAlert:       a.Consumption * alertRate,
			Energy:           a.Uncompensated * energyRate,
			NetworkUsage:     a.Uncompensated * networkRate,
		})
	}
	return charges
}

// CalculateDemand bills max(contracted, measured) plus the overage penalty.
func CalculateDemand(rates tariff.DemandRates, contracted, measured float64) DemandCharge {
	d := DemandCharge{
		Contracted:  contracted,
		Measured:    measured,
		Billable:    contracted,
		Rate:        rates.Rate,
		OverageRate: rates.OverageRate,
	}
	if measured > contracted {
		d.Billable = measured
		d.Overage = measured - contracted
	}
	if contracted > 0 {
		d.OveragePercent = d.Overage / contracted * 100
	}
	if d.OverageRate == 0 {
		d.OverageRate = rates.Rate * DefaultOverageMultiplier
	}
	d.Base = d.Billable * d.Rate
	d.Penalty = d.Overage * d.OverageRate
	d.Total = d.Base + d.Penalty
	return d
}
