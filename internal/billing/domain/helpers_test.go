package billing_test

import (
	"math"
	"testing"
	"time"

	tariff "gd-invoice/internal/tariff/domain"
)

const eps = 1e-6

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > eps {
		t.Fatalf("%s mismatch: got=%v want=%v", name, got, want)
	}
}

func groupACard() tariff.RateCard {
	return tariff.RateCard{
		ID:          "cemig-a4-verde-2025",
		Distributor: "CEMIG",
		Group:       tariff.GroupA,
		Modality:    "verde",
		ValidFrom:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		Energy: map[tariff.Period]float64{
			tariff.PeriodPeak:    1.0,
			tariff.PeriodOffPeak: 0.6,
		},
		NetworkUsage: map[tariff.Period]tariff.NetworkUsageRate{
			tariff.PeriodPeak:    {WiresA: 0.3, WiresB: 1.0, SectorCharges: 0.2},
			tariff.PeriodOffPeak: {WiresA: 0.1, WiresB: 0.3, SectorCharges: 0.07},
		},
		Demand: tariff.DemandRates{Rate: 20, OverageRate: 40},
		PriceAlert: map[tariff.AlertColor]float64{
			tariff.AlertGreen:  0,
			tariff.AlertYellow: 0.01885,
		},
	}
}

func groupBCard() tariff.RateCard {
	return tariff.RateCard{
		ID:          "cemig-b1-2025",
		Distributor: "CEMIG",
		Group:       tariff.GroupB,
		Modality:    "convencional",
		ValidFrom:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		Energy:      map[tariff.Period]float64{tariff.PeriodSingle: 0.40},
		NetworkUsage: map[tariff.Period]tariff.NetworkUsageRate{
			tariff.PeriodSingle: {WiresA: 0.05, WiresB: 0.10, SectorCharges: 0.02},
		},
		PriceAlert: map[tariff.AlertColor]float64{tariff.AlertRed1: 0.04463},
		Taxes:      tariff.TaxRates{PIS: 1.65, COFINS: 7.6, ICMS: 18},
	}
}
