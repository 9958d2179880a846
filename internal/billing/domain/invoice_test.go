package billing_test

import (
	"testing"

	billing "gd-invoice/internal/billing/domain"
	tariff "gd-invoice/internal/tariff/domain"
)

func TestCrossValidate(t *testing.T) {
	cases := []struct {
		name     string
		declared float64
		computed float64
		want     billing.ValidationStatus
	}{
		{name: "declared missing", declared: 0, computed: 1200, want: billing.ValidationSkipped},
		{name: "computed missing", declared: 1200, computed: 0, want: billing.ValidationSkipped},
		{name: "exact", declared: 37500, computed: 37500, want: billing.ValidationValid},
		{name: "on tolerance", declared: 37500, computed: 37312.50, want: billing.ValidationValid},
		{name: "above tolerance", declared: 37500, computed: 37312.49 - 1, want: billing.ValidationInvalid},
		{name: "computed higher", declared: 1000, computed: 1006, want: billing.ValidationInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := billing.CrossValidate(tc.declared, tc.computed)
			if got.Status != tc.want {
				t.Fatalf("status mismatch: got=%s want=%s (%+v)", got.Status, tc.want, got)
			}
		})
	}

	v := billing.CrossValidate(37500, 37470)
	approx(t, "difference", v.Difference, 30)
	approx(t, "difference percent", v.DifferencePercent, 0.08)
}

func TestComputeTaxes(t *testing.T) {
	rates := tariff.TaxRates{PIS: 1.65, COFINS: 7.6, ICMS: 18}
	taxes := billing.ComputeTaxes(727.5, rates)
	approx(t, "grossed", taxes.Grossed, 1000)
	approx(t, "pis", taxes.PIS, 16.5)
	approx(t, "cofins", taxes.COFINS, 76)
	approx(t, "icms", taxes.ICMS, 180)
	approx(t, "base plus taxes", taxes.Base+taxes.Total(), taxes.Grossed)

	negative := billing.ComputeTaxes(-50, rates)
	if negative.Base != 0 || negative.Total() != 0 {
		t.Fatalf("negative base must floor at zero: %+v", negative)
	}

	degenerate := billing.ComputeTaxes(100, tariff.TaxRates{ICMS: 100})
	if !degenerate.Degenerate || degenerate.Total() != 0 {
		t.Fatalf("expected degenerate fallback, got %+v", degenerate)
	}
}

func TestCalculateDemand(t *testing.T) {
	d := billing.CalculateDemand(tariff.DemandRates{Rate: 20, OverageRate: 40}, 200, 230)
	approx(t, "billable", d.Billable, 230)
	approx(t, "overage", d.Overage, 30)
	approx(t, "overage percent", d.OveragePercent, 15)
	approx(t, "total", d.Total, 230*20+30*40)

	d = billing.CalculateDemand(tariff.DemandRates{Rate: 20}, 200, 180)
	approx(t, "billable under contract", d.Billable, 200)
	approx(t, "overage under contract", d.Overage, 0)

	d = billing.CalculateDemand(tariff.DemandRates{Rate: 20}, 100, 110)
	approx(t, "default overage rate", d.OverageRate, 40)

	d = billing.CalculateDemand(tariff.DemandRates{Rate: 20}, 0, 50)
	if d.OveragePercent != 0 {
		t.Fatalf("overage percent without contract must be 0, got %v", d.OveragePercent)
	}
}

func TestCalculatePeriodCharges_SurchargeOnGrossConsumption(t *testing.T) {
	allocations := []billing.PeriodAllocation{{
		Period:         tariff.PeriodOffPeak,
		Consumption:    1000,
		NetConsumption: 1000,
		Uncompensated:  200,
		Compensated:    800,
	}}
	charges := billing.CalculatePeriodCharges(groupACard(), tariff.AlertYellow, allocations)
	if len(charges) != 1 {
		t.Fatalf("expected 1 charge, got %d", len(charges))
	}
	approx(t, "surcharge", charges[0].PriceAlert, 1000*0.01885)
	approx(t, "energy", charges[0].Energy, 200*0.6)
	approx(t, "network usage", charges[0].NetworkUsage, 200*0.47)
}
