package tariff

import (
	"math"
	"time"
)

// NetworkUsageRate is the network-usage (TUSD) rate of a period in R$/kWh.
// Group B cards usually only publish the blended rate.
type NetworkUsageRate struct {
	WiresA        float64 `yaml:"wires_a" json:"wires_a"`
	WiresB        float64 `yaml:"wires_b" json:"wires_b"`
	SectorCharges float64 `yaml:"sector_charges" json:"sector_charges"`
	Blended       float64 `yaml:"blended" json:"blended"`
}

// Decomposed reports whether the sub-components are published.
func (r NetworkUsageRate) Decomposed() bool {
	return r.WiresA != 0 || r.WiresB != 0 || r.SectorCharges != 0
}

// Full returns the whole network-usage rate.
func (r NetworkUsageRate) Full() float64 {
	if r.Decomposed() {
		return r.WiresA + r.WiresB + r.SectorCharges
	}
	return r.Blended
}

// Split returns the wires-A, wires-B and sector-charge components. A blended-only
// rate is reported entirely as wires-B.
func (r NetworkUsageRate) Split() (wiresA, wiresB, sector float64) {
	if r.Decomposed() {
		return r.WiresA, r.WiresB, r.SectorCharges
	}
	return 0, r.Blended, 0
}

// DemandRates are the demand rates in R$/kW.
type DemandRates struct {
	Rate        float64 `yaml:"rate" json:"rate"`
	OverageRate float64 `yaml:"overage_rate" json:"overage_rate"`
}

// TaxRates are expressed in percent (18 means 18%).
type TaxRates struct {
	PIS    float64 `yaml:"pis" json:"pis"`
	COFINS float64 `yaml:"cofins" json:"cofins"`
	ICMS   float64 `yaml:"icms" json:"icms"`
}

// Fraction returns the combined tax rate as a fraction.
func (t TaxRates) Fraction() float64 {
	return (t.PIS + t.COFINS + t.ICMS) / 100
}

// RateCard is the tariff applicable to a distributor/group/modality for a validity window.
type RateCard struct {
	ID           string                      `yaml:"id" json:"id"`
	Distributor  string                      `yaml:"distributor" json:"distributor"`
	Group        Group                       `yaml:"group" json:"group"`
	Modality     string                      `yaml:"modality" json:"modality"`
	ValidFrom    time.Time                   `yaml:"valid_from" json:"valid_from"`
	ValidTo      time.Time                   `yaml:"valid_to" json:"valid_to"`
	Energy       map[Period]float64          `yaml:"energy" json:"energy"`
	NetworkUsage map[Period]NetworkUsageRate `yaml:"network_usage" json:"network_usage"`
	Demand       DemandRates                 `yaml:"demand" json:"demand"`
	PriceAlert   map[AlertColor]float64      `yaml:"price_alert" json:"price_alert"`
	Taxes        TaxRates                    `yaml:"taxes" json:"taxes"`
}

// Validate checks rate card invariants.
func (c RateCard) Validate() error {
	if c.Distributor == "" {
		return ErrEmptyDistributor
	}
	if !c.Group.Valid() {
		return ErrInvalidGroup
	}
	if c.ValidFrom.IsZero() || (!c.ValidTo.IsZero() && !c.ValidTo.After(c.ValidFrom)) {
		return ErrInvalidValidity
	}
	for _, rate := range c.Energy {
		if invalidRate(rate) {
			return ErrNegativeRate
		}
	}
	for _, rate := range c.NetworkUsage {
		if invalidRate(rate.WiresA) || invalidRate(rate.WiresB) || invalidRate(rate.SectorCharges) || invalidRate(rate.Blended) {
			return ErrNegativeRate
		}
	}
	for _, rate := range c.PriceAlert {
		if invalidRate(rate) {
			return ErrNegativeRate
		}
	}
	if invalidRate(c.Demand.Rate) || invalidRate(c.Demand.OverageRate) {
		return ErrNegativeRate
	}
	if invalidRate(c.Taxes.PIS) || invalidRate(c.Taxes.COFINS) || invalidRate(c.Taxes.ICMS) {
		return ErrNegativeRate
	}
	return nil
}

// Covers reports whether the card is valid at the given instant. A zero ValidTo is open ended.
func (c RateCard) Covers(at time.Time) bool {
	if at.Before(c.ValidFrom) {
		return false
	}
	return c.ValidTo.IsZero() || at.Before(c.ValidTo)
}

// EnergyRate returns the energy (TE) rate of a period, falling back to the single-period rate.
func (c RateCard) EnergyRate(p Period) float64 {
	if rate, ok := c.Energy[p]; ok {
		return rate
	}
	return c.Energy[PeriodSingle]
}

// NetworkUsageRate returns the network-usage rate of a period, falling back to the single-period rate.
func (c RateCard) NetworkUsageRate(p Period) NetworkUsageRate {
	if rate, ok := c.NetworkUsage[p]; ok {
		return rate
	}
	return c.NetworkUsage[PeriodSingle]
}

// AlertRate returns the surcharge rate of a price-alert color. Unknown colors cost nothing.
func (c RateCard) AlertRate(color AlertColor) float64 {
	return c.PriceAlert[color]
}

// Clone returns a deep copy so callers never share the maps of a stored card.
func (c *RateCard) Clone() *RateCard {
	if c == nil {
		return nil
	}
	out := *c
	if c.Energy != nil {
		out.Energy = make(map[Period]float64, len(c.Energy))
		for k, v := range c.Energy {
			out.Energy[k] = v
		}
	}
	if c.NetworkUsage != nil {
		out.NetworkUsage = make(map[Period]NetworkUsageRate, len(c.NetworkUsage))
		for k, v := range c.NetworkUsage {
			out.NetworkUsage[k] = v
		}
	}
	if c.PriceAlert != nil {
		out.PriceAlert = make(map[AlertColor]float64, len(c.PriceAlert))
		for k, v := range c.PriceAlert {
			out.PriceAlert[k] = v
		}
	}
	return &out
}

func invalidRate(v float64) bool {
	return v < 0 || math.IsNaN(v) || math.IsInf(v, 0)
}
