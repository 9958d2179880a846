package billing

import (
	"github.com/shopspring/decimal"

	tariff "gd-invoice/internal/tariff/domain"
)

// TolerancePercent is the accepted gap between declared and computed totals.
const TolerancePercent = 0.5

// InvoiceComponents are the seven category totals of an invoice.
type InvoiceComponents struct {
	PriceAlert   float64 `json:"price_alert"`
	NetworkUsage float64 `json:"network_usage"`
	Energy       float64 `json:"energy"`
	Compensation float64 `json:"compensation"`
	Demand       float64 `json:"demand"`
	Other        float64 `json:"other"`
	Taxes        float64 `json:"taxes"`
	Total        float64 `json:"total"`
}

// TaxBase is the sum of the non-tax tariff categories.
func (c InvoiceComponents) TaxBase() float64 {
	return c.PriceAlert + c.NetworkUsage + c.Energy + c.Compensation + c.Demand
}

// TaxBreakdown is the per-tax detail of the tax category.
type TaxBreakdown struct {
	Base       float64 `json:"base"`
	Grossed    float64 `json:"grossed"`
	PIS        float64 `json:"pis"`
	COFINS     float64 `json:"cofins"`
	ICMS       float64 `json:"icms"`
	Degenerate bool    `json:"degenerate"`
}

// Total returns the sum of the three taxes.
func (t TaxBreakdown) Total() float64 {
	return t.PIS + t.COFINS + t.ICMS
}

// ComputeTaxes computes the taxes by the inside over a base floored at zero. All taxes
// share the same base.
func ComputeTaxes(base float64, rates tariff.TaxRates) TaxBreakdown {
	if base < 0 {
		base = 0
	}
	grossed, ok := GrossUp(base, rates)
	if !ok {
		return TaxBreakdown{Base: base, Grossed: base, Degenerate: true}
	}
	return TaxBreakdown{
		Base:    base,
		Grossed: grossed,
		PIS:     grossed * rates.PIS / 100,
		COFINS:  grossed * rates.COFINS / 100,
		ICMS:    grossed * rates.ICMS / 100,
	}
}

// Aggregate sums the per-period, demand and compensation results into category totals.
func Aggregate(charges []PeriodCharge, demand DemandCharge, comp CompensationResult, other float64, rates tariff.TaxRates) (InvoiceComponents, TaxBreakdown) {
	var c InvoiceComponents
	for _, ch := range charges {
		c.PriceAlert += ch.PriceAlert
		c.Energy += ch.Energy
		c.NetworkUsage += ch.NetworkUsage
	}
	c.Demand = demand.Total
	c.Compensation = comp.Total()
	c.Other = other

	taxes := ComputeTaxes(c.TaxBase(), rates)
	c.Taxes = taxes.Total()
	c.Total = c.PriceAlert + c.NetworkUsage + c.Energy + c.Compensation + c.Demand + c.Other + c.Taxes
	return c, taxes
}

// ValidationStatus is the outcome of the declared-total cross-check.
type ValidationStatus string

const (
	ValidationSkipped ValidationStatus = "skipped"
	ValidationValid   ValidationStatus = "valid"
	ValidationInvalid ValidationStatus = "invalid"
)

// Validation compares the declared total against the computed one.
type Validation struct {
	Status            ValidationStatus `json:"status"`
	Declared          float64          `json:"declared"`
	Computed          float64          `json:"computed"`
	Difference        float64          `json:"difference"`
	DifferencePercent float64          `json:"difference_percent"`
}

// CrossValidate is skipped while either total is zero.
func CrossValidate(declared, computed float64) Validation {
	v := Validation{Status: ValidationSkipped, Declared: declared, Computed: computed}
	if declared == 0 || computed == 0 {
		return v
	}
	d := decimal.NewFromFloat(declared)
	diff := d.Sub(decimal.NewFromFloat(computed)).Abs()
	pct := diff.Div(d.Abs()).Mul(decimal.NewFromInt(100))

	v.Difference = diff.Round(2).InexactFloat64()
	v.DifferencePercent = pct.Round(2).InexactFloat64()
	if pct.LessThanOrEqual(decimal.NewFromFloat(TolerancePercent)) {
		v.Status = ValidationValid
	} else {
		v.Status = ValidationInvalid
	}
	return v
}
