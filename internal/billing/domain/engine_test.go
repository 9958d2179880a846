package billing_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	billing "gd-invoice/internal/billing/domain"
	regulatory "gd-invoice/internal/regulatory/domain"
	tariff "gd-invoice/internal/tariff/domain"
)

func groupAInput(declared float64) billing.CycleInput {
	return billing.CycleInput{
		UnitID:         "uc-3001234567",
		ReferenceMonth: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		Group:          tariff.GroupA,
		Consumption: map[tariff.Period]float64{
			tariff.PeriodPeak:     6000,
			tariff.PeriodOffPeak:  21000,
			tariff.PeriodReserved: 0,
		},
		DeclaredTotal: declared,
		AlertColor:    tariff.AlertGreen,
	}
}

func hasAlert(alerts []billing.Alert, kind billing.AlertKind) bool {
	for _, a := range alerts {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

func TestCompute_GroupAWithoutGeneration(t *testing.T) {
	card := groupACard()
	class := regulatory.ClassificationResult{Regime: regulatory.RegimePartial, NonCompensableFraction: 0.45}

	res, err := billing.Compute(groupAInput(37500), &card, class)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	approx(t, "uncompensated", res.Balance.UncompensatedConsumption, 27000)
	approx(t, "compensation", res.Components.Compensation, 0)
	if len(res.Compensation.Lines) != 0 {
		t.Fatalf("expected no compensation lines, got %+v", res.Compensation.Lines)
	}
	approx(t, "energy", res.Components.Energy, 6000*1.0+21000*0.6)
	approx(t, "total", res.Components.Total, 37470)
	if res.Validation.Status != billing.ValidationValid {
		t.Fatalf("expected valid, got %+v", res.Validation)
	}
	if hasAlert(res.Alerts, billing.AlertValidationMismatch) {
		t.Fatalf("unexpected validation alert: %+v", res.Alerts)
	}

	res, err = billing.Compute(groupAInput(37700), &card, class)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if res.Validation.Status != billing.ValidationInvalid {
		t.Fatalf("expected invalid, got %+v", res.Validation)
	}
	if len(res.Alerts) == 0 || res.Alerts[0].Kind != billing.AlertValidationMismatch || res.Alerts[0].Severity != billing.SeverityError {
		t.Fatalf("expected leading validation error alert, got %+v", res.Alerts)
	}
}

func TestCompute_ComponentsSumToTotal(t *testing.T) {
	card := groupBCard()
	in := billing.CycleInput{
		ReferenceMonth:  time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		Group:           tariff.GroupB,
		Consumption:     map[tariff.Period]float64{tariff.PeriodSingle: 820},
		Generation:      900,
		Injected:        map[tariff.Period]float64{tariff.PeriodSingle: 610},
		RemoteCredits:   40,
		ReactivePenalty: 12.4,
		PublicLighting:  35.9,
		AlertColor:      tariff.AlertRed1,
	}
	res, err := billing.Compute(in, &card, regulatory.ClassificationResult{Regime: regulatory.RegimePartial, NonCompensableFraction: 0.45})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	c := res.Components
	approx(t, "total", c.Total, c.PriceAlert+c.NetworkUsage+c.Energy+c.Compensation+c.Demand+c.Other+c.Taxes)
	approx(t, "other", c.Other, 48.3)
	if res.SelfConsumption.KWh != 290 {
		t.Fatalf("expected 290 kWh self-consumed, got %v", res.SelfConsumption.KWh)
	}
	if res.Validation.Status != billing.ValidationSkipped {
		t.Fatalf("expected skipped validation, got %s", res.Validation.Status)
	}
	if !hasAlert(res.Alerts, billing.AlertReactivePenalty) {
		t.Fatalf("expected reactive penalty alert, got %+v", res.Alerts)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	card := groupACard()
	in := groupAInput(36000)
	in.Injected = map[tariff.Period]float64{tariff.PeriodOffPeak: 5000}
	in.ContractedDemand = 200
	in.MeasuredDemand = 230
	in.ReactivePenalty = 80
	in.CreditBatches = []billing.CreditBatch{{KWh: 300, ExpiresAt: time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC)}}
	class := regulatory.ClassificationResult{Regime: regulatory.RegimeFull, ReferenceYear: 2025}

	first, err := billing.Compute(in, &card, class)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	second, err := billing.Compute(in, &card, class)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !reflect.DeepEqual(first.Components, second.Components) {
		t.Fatalf("components differ: %+v vs %+v", first.Components, second.Components)
	}
	if !reflect.DeepEqual(first.Alerts, second.Alerts) {
		t.Fatalf("alerts differ: %+v vs %+v", first.Alerts, second.Alerts)
	}
	if !reflect.DeepEqual(card, groupACard()) {
		t.Fatalf("rate card mutated by compute")
	}
}

func TestCompute_DemandOverageScenario(t *testing.T) {
	card := groupACard()
	in := groupAInput(0)
	in.ContractedDemand = 200
	in.MeasuredDemand = 230

	res, err := billing.Compute(in, &card, regulatory.ClassificationResult{Regime: regulatory.RegimeFull})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	approx(t, "overage", res.Demand.Overage, 30)
	approx(t, "overage percent", res.Demand.OveragePercent, 15)
	if !hasAlert(res.Alerts, billing.AlertDemandOverage) {
		t.Fatalf("expected demand overage alert, got %+v", res.Alerts)
	}
	if res.Alerts[0].Kind != billing.AlertDemandOverage || res.Alerts[0].Severity != billing.SeverityError {
		t.Fatalf("expected demand overage error first, got %+v", res.Alerts[0])
	}
}

func TestCompute_TariffsUnavailable(t *testing.T) {
	in := groupAInput(37500)
	in.ContractedDemand = 100
	in.MeasuredDemand = 120

	res, err := billing.Compute(in, nil, regulatory.ClassificationResult{})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if res.TariffsAvailable {
		t.Fatalf("expected tariffs unavailable")
	}
	if res.Components != (billing.InvoiceComponents{}) {
		t.Fatalf("expected zero components, got %+v", res.Components)
	}
	if res.Validation.Status != billing.ValidationSkipped {
		t.Fatalf("expected skipped validation, got %s", res.Validation.Status)
	}
	if !hasAlert(res.Alerts, billing.AlertTariffsUnavailable) || !hasAlert(res.Alerts, billing.AlertDemandOverage) {
		t.Fatalf("unexpected alerts: %+v", res.Alerts)
	}
	approx(t, "uncompensated", res.Balance.UncompensatedConsumption, 27000)
	if res.Classification.Regime != regulatory.RegimePartial || res.Classification.ReferenceYear != 2025 {
		t.Fatalf("unexpected classification: %+v", res.Classification)
	}
}

func TestCompute_HighUncompensatedShare(t *testing.T) {
	card := groupBCard()
	in := billing.CycleInput{
		Consumption: map[tariff.Period]float64{tariff.PeriodSingle: 1000},
		Injected:    map[tariff.Period]float64{tariff.PeriodSingle: 600},
	}
	res, err := billing.Compute(in, &card, regulatory.ClassificationResult{Regime: regulatory.RegimeFull})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !hasAlert(res.Alerts, billing.AlertHighUncompensated) {
		t.Fatalf("expected high uncompensated alert at 40%%, got %+v", res.Alerts)
	}

	in.Injected[tariff.PeriodSingle] = 700
	res, err = billing.Compute(in, &card, regulatory.ClassificationResult{Regime: regulatory.RegimeFull})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if hasAlert(res.Alerts, billing.AlertHighUncompensated) {
		t.Fatalf("no alert expected at 30%%, got %+v", res.Alerts)
	}
}

func TestCompute_DegenerateTaxes(t *testing.T) {
	card := groupBCard()
	card.Taxes = tariff.TaxRates{PIS: 10, COFINS: 20, ICMS: 70}
	in := billing.CycleInput{Consumption: map[tariff.Period]float64{tariff.PeriodSingle: 100}}

	res, err := billing.Compute(in, &card, regulatory.ClassificationResult{Regime: regulatory.RegimeFull})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if res.Components.Taxes != 0 || !hasAlert(res.Alerts, billing.AlertTaxConfiguration) {
		t.Fatalf("expected zero taxes with configuration alert, got %+v / %+v", res.Components, res.Alerts)
	}
}

func TestCompute_RejectsInvalidInput(t *testing.T) {
	card := groupBCard()
	in := billing.CycleInput{MeasuredDemand: -5}
	_, err := billing.Compute(in, &card, regulatory.ClassificationResult{})
	if !errors.Is(err, billing.ErrNegativeQuantity) {
		t.Fatalf("expected ErrNegativeQuantity, got %v", err)
	}
}
