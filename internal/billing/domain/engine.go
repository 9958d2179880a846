package billing

import (
	regulatory "gd-invoice/internal/regulatory/domain"
	tariff "gd-invoice/internal/tariff/domain"
)

// Result is everything derived from one cycle.
type Result struct {
	TariffsAvailable bool                            `json:"tariffs_available"`
	Classification   regulatory.ClassificationResult `json:"classification"`
	Balance          BalanceResult                   `json:"balance"`
	Allocations      []PeriodAllocation              `json:"allocations"`
	Charges          []PeriodCharge                  `json:"charges"`
	Demand           DemandCharge                    `json:"demand"`
	Compensation     CompensationResult              `json:"compensation"`
	SelfConsumption  SelfConsumptionValue            `json:"self_consumption"`
	Taxes            TaxBreakdown                    `json:"taxes"`
	Components       InvoiceComponents               `json:"components"`
	Validation       Validation                      `json:"validation"`
	Alerts           []Alert                         `json:"alerts"`
	Recommendations  []string                        `json:"recommendations"`
}

// Compute derives the invoice of a cycle. It has no side effects: the same input, card
// and classification always yield the same result. A nil card computes the balance and
// the non-monetary alerts only, leaving every priced field at zero.
func Compute(in CycleInput, card *tariff.RateCard, class regulatory.ClassificationResult) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	if !class.Regime.Valid() {
		class.Regime = regulatory.RegimePartial
	}
	if class.ReferenceYear == 0 {
		class.ReferenceYear = in.ReferenceYear()
	}

	res := Result{Classification: class}
	res.Balance, res.Allocations = ComputeBalance(in)

	var alerts []Alert
	if card == nil {
		res.Demand = CalculateDemand(tariff.DemandRates{}, in.ContractedDemand, in.MeasuredDemand)
		res.Validation = CrossValidate(in.DeclaredTotal, 0)
		alerts = append(alerts, Alert{
			Kind:     AlertTariffsUnavailable,
			Message:  "No rate card covers this cycle; tariff values must be entered manually.",
			Severity: SeverityWarning,
		})
	} else {
		res.TariffsAvailable = true
		res.Charges = CalculatePeriodCharges(*card, in.AlertColor, res.Allocations)
		res.Demand = CalculateDemand(card.Demand, in.ContractedDemand, in.MeasuredDemand)
		res.Compensation = PriceCompensation(*card, class, in, res.Balance, res.Allocations)
		res.SelfConsumption = ValueSelfConsumption(*card, in.AlertColor, in.SelfConsumedByPeriod())
		res.Components, res.Taxes = Aggregate(res.Charges, res.Demand, res.Compensation,
			in.ReactivePenalty+in.PublicLighting, card.Taxes)
		res.Validation = CrossValidate(in.DeclaredTotal, res.Components.Total)
		if res.Taxes.Degenerate {
			alerts = append(alerts, Alert{
				Kind:     AlertTaxConfiguration,
				Message:  "Combined tax rate is 100% or more; taxes were not computed.",
				Severity: SeverityWarning,
			})
		}
		if a, ok := validationAlert(res.Validation); ok {
			alerts = append(alerts, a)
		}
	}

	if a, ok := DemandAlert(res.Demand); ok {
		alerts = append(alerts, a)
	}
	if a, ok := reactiveAlert(in.ReactivePenalty); ok {
		alerts = append(alerts, a)
	}
	if a, ok := uncompensatedAlert(res.Balance); ok {
		alerts = append(alerts, a)
	}
	alerts = append(alerts, ExpiryAlerts(in.CreditBatches, in.ReferenceInstant())...)

	RankAlerts(alerts)
	res.Alerts = alerts
	res.Recommendations = Recommendations(alerts)
	return res, nil
}
