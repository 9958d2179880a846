package billing

import (
	regulatory "gd-invoice/internal/regulatory/domain"
	tariff "gd-invoice/internal/tariff/domain"
)

// Compensation line kinds.
const (
	LineCompensatedConsumption = "consumo_scee"
	LineOwnEnergyCredit        = "credito_injecao_te"
	LineOwnNetworkCredit       = "credito_injecao_tusd"
	LineRemoteEnergyCredit     = "credito_remoto_te"
	LineRemoteNetworkCredit    = "credito_remoto_tusd"
)

// CompensationLine is one SCEE line of the invoice.
type CompensationLine struct {
	Kind   string  `json:"kind"`
	KWh    float64 `json:"kwh"`
	Amount float64 `json:"amount"`
}

// CompensationResult prices the compensated energy and the credits that offset it.
type CompensationResult struct {
	Regime                 regulatory.Regime  `json:"regime"`
	NonCompensableFraction float64            `json:"non_compensable_fraction"`
	OwnApplied             float64            `json:"own_applied"`
	RemoteApplied          float64            `json:"remote_applied"`
	CompensatedValue       float64            `json:"compensated_value"`
	OwnEnergyCredit        float64            `json:"own_energy_credit"`
	OwnNetworkCredit       float64            `json:"own_network_credit"`
	RemoteEnergyCredit     float64            `json:"remote_energy_credit"`
	RemoteNetworkCredit    float64            `json:"remote_network_credit"`
	SectorChargesExcluded  float64            `json:"sector_charges_excluded"`
	WiresBExcluded         float64            `json:"wires_b_excluded"`
	Lines                  []CompensationLine `json:"lines"`
}

// Credits returns the sum of the (negative) credit lines.
func (c CompensationResult) Credits() float64 {
	return c.OwnEnergyCredit + c.OwnNetworkCredit + c.RemoteEnergyCredit + c.RemoteNetworkCredit
}

// CreditMagnitude returns the absolute value of all credit lines.
func (c CompensationResult) CreditMagnitude() float64 {
	return -c.Credits()
}

// Total is the net compensation category of the invoice.
func (c CompensationResult) Total() float64 {
	return c.CompensatedValue + c.Credits()
}

// CompensableRate returns the network-usage rate that SCEE credits offset under the regime.
func CompensableRate(rate tariff.NetworkUsageRate, class regulatory.ClassificationResult) float64 {
	if class.Regime == regulatory.RegimeFull {
		return rate.Full()
	}
	wiresA, wiresB, _ := rate.Split()
	return wiresA + wiresB*(1-clampFraction(class.NonCompensableFraction))
}

// PriceCompensation prices the compensated consumption and mirrors it with credit lines.
// Own credits are applied first and spread over the injection periods; remote credits
// cover the rest at the compensated-period mix. Banked surplus is never monetized.
func PriceCompensation(card tariff.RateCard, class regulatory.ClassificationResult, in CycleInput, balance BalanceResult, allocations []PeriodAllocation) CompensationResult {
	if !class.Regime.Valid() {
		class.Regime = regulatory.RegimePartial
	}
	f := 0.0
	if class.Regime == regulatory.RegimePartial {
		f = clampFraction(class.NonCompensableFraction)
	}
	res := CompensationResult{Regime: class.Regime, NonCompensableFraction: f}

	var compensatedKWh float64
	for _, a := range allocations {
		if a.Compensated <= 0 {
			continue
		}
		nu := card.NetworkUsageRate(a.Period)
		res.CompensatedValue += a.Compensated * (card.EnergyRate(a.Period) + CompensableRate(nu, class))
		compensatedKWh += a.Compensated
		if class.Regime == regulatory.RegimePartial {
			_, wiresB, sector := nu.Split()
			res.SectorChargesExcluded += sector * a.Compensated
			res.WiresBExcluded += wiresB * f * a.Compensated
		}
	}

	res.OwnApplied = minFloat(balance.OwnCredits, balance.CompensatedConsumption)
	res.RemoteApplied = minFloat(balance.RemoteCredits, balance.CompensatedConsumption-res.OwnApplied)

	if injected := sumPeriods(in.Injected); injected > 0 && res.OwnApplied > 0 {
		for _, p := range orderedPeriods(in.Injected) {
			kwh := in.Injected[p] / injected * res.OwnApplied
			res.OwnEnergyCredit -= kwh * card.EnergyRate(p)
			res.OwnNetworkCredit -= kwh * CompensableRate(card.NetworkUsageRate(p), class)
		}
	}
	if compensatedKWh > 0 && res.RemoteApplied > 0 {
		for _, a := range allocations {
			if a.Compensated <= 0 {
				continue
			}
			kwh := a.Compensated / compensatedKWh * res.RemoteApplied
			res.RemoteEnergyCredit -= kwh * card.EnergyRate(a.Period)
			res.RemoteNetworkCredit -= kwh * CompensableRate(card.NetworkUsageRate(a.Period), class)
		}
	}

	if balance.CompensatedConsumption > 0 {
		res.Lines = append(res.Lines, CompensationLine{Kind: LineCompensatedConsumption, KWh: balance.CompensatedConsumption, Amount: res.CompensatedValue})
	}
	if res.OwnApplied > 0 {
		res.Lines = append(res.Lines,
			CompensationLine{Kind: LineOwnEnergyCredit, KWh: res.OwnApplied, Amount: res.OwnEnergyCredit},
			CompensationLine{Kind: LineOwnNetworkCredit, KWh: res.OwnApplied, Amount: res.OwnNetworkCredit},
		)
	}
	if res.RemoteApplied > 0 {
		res.Lines = append(res.Lines,
			CompensationLine{Kind: LineRemoteEnergyCredit, KWh: res.RemoteApplied, Amount: res.RemoteEnergyCredit},
			CompensationLine{Kind: LineRemoteNetworkCredit, KWh: res.RemoteApplied, Amount: res.RemoteNetworkCredit},
		)
	}
	return res
}

// GrossUp inverts a tax-inclusive price. It reports false and returns net unscaled when
// the combined rate is not below 100%.
func GrossUp(net float64, taxes tariff.TaxRates) (float64, bool) {
	sum := taxes.Fraction()
	if sum >= 1 || sum < 0 {
		return net, false
	}
	return net / (1 - sum), true
}

// SelfConsumptionValue is the avoided cost of behind-the-meter consumption.
type SelfConsumptionValue struct {
	KWh       float64 `json:"kwh"`
	NetCharge float64 `json:"net_charge"`
	Gross     float64 `json:"gross"`
}

// ValueSelfConsumption prices self-consumed energy at the full tariff and grosses it up.
func ValueSelfConsumption(card tariff.RateCard, color tariff.AlertColor, selfConsumed map[tariff.Period]float64) SelfConsumptionValue {
	var v SelfConsumptionValue
	alertRate := card.AlertRate(color)
	for _, p := range orderedPeriods(selfConsumed) {
		kwh := selfConsumed[p]
		v.KWh += kwh
		v.NetCharge += kwh * (card.EnergyRate(p) + card.NetworkUsageRate(p).Full() + alertRate)
	}
	v.Gross, _ = GrossUp(v.NetCharge, card.Taxes)
	return v
}

func clampFraction(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
