package billing

import (
	"fmt"
	"sort"
	"time"
)

// Severity of an alert.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

// AlertKind identifies the condition an alert reports.
type AlertKind string

const (
	AlertValidationMismatch AlertKind = "validation_mismatch"
	AlertDemandOverage      AlertKind = "demand_overage"
	AlertTariffsUnavailable AlertKind = "tariffs_unavailable"
	AlertTaxConfiguration   AlertKind = "tax_configuration"
	AlertHighUncompensated  AlertKind = "high_uncompensated"
	AlertReactivePenalty    AlertKind = "reactive_penalty"
	AlertCreditsExpiring    AlertKind = "credits_expiring"
)

var kindOrder = []AlertKind{
	AlertValidationMismatch,
	AlertDemandOverage,
	AlertTariffsUnavailable,
	AlertTaxConfiguration,
	AlertHighUncompensated,
	AlertReactivePenalty,
	AlertCreditsExpiring,
}

// Alert thresholds.
const (
	ElevatedOveragePercent  = 10.0
	UncompensatedShareLimit = 0.30
	ExpiryWindowNear        = 30 * 24 * time.Hour
	ExpiryWindowFar         = 60 * 24 * time.Hour
)

// Alert is a user-facing finding about a cycle.
type Alert struct {
	Kind     AlertKind `json:"kind"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
}

var recommendations = map[AlertKind][]string{
	AlertValidationMismatch: {
		"Check the readings and rates entered against the printed invoice.",
		"Contest the invoice with the distributor if the readings are correct.",
	},
	AlertDemandOverage: {
		"Review the contracted demand with the distributor.",
		"Shift or stagger large loads to avoid demand peaks.",
	},
	AlertTariffsUnavailable: {
		"Enter the tariff values manually from the invoice.",
	},
	AlertTaxConfiguration: {
		"Review the PIS, COFINS and ICMS rates of the rate card.",
	},
	AlertHighUncompensated: {
		"Consider expanding generation capacity or subscribing to remote credits.",
	},
	AlertReactivePenalty: {
		"Install or adjust power-factor correction (capacitor banks).",
	},
	AlertCreditsExpiring: {
		"Allocate expiring credits to other consumer units of the same holder.",
	},
}

// Recommendations returns the recommendation strings for the alerts, deduplicated and
// in alert order.
func Recommendations(alerts []Alert) []string {
	var out []string
	seen := make(map[AlertKind]bool)
	for _, a := range alerts {
		if seen[a.Kind] {
			continue
		}
		seen[a.Kind] = true
		out = append(out, recommendations[a.Kind]...)
	}
	return out
}

// RankAlerts orders alerts by severity and then by kind.
func RankAlerts(alerts []Alert) {
	order := make(map[AlertKind]int, len(kindOrder))
	for i, k := range kindOrder {
		order[k] = i
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := alerts[i].Severity.rank(), alerts[j].Severity.rank()
		if ri != rj {
			return ri > rj
		}
		return order[alerts[i].Kind] < order[alerts[j].Kind]
	})
}

// DemandAlert reports any overage; above ElevatedOveragePercent the wording escalates.
func DemandAlert(d DemandCharge) (Alert, bool) {
	if d.Contracted <= 0 || d.Overage <= 0 {
		return Alert{}, false
	}
	msg := fmt.Sprintf("Measured demand %.1f kW exceeds contracted %.1f kW by %.1f kW (%.1f%%).",
		d.Measured, d.Contracted, d.Overage, d.OveragePercent)
	if d.OveragePercent > ElevatedOveragePercent {
		msg = fmt.Sprintf("Severe demand overage: measured %.1f kW is %.1f%% above the contracted %.1f kW; the overage penalty applies to %.1f kW.",
			d.Measured, d.OveragePercent, d.Contracted, d.Overage)
	}
	return Alert{Kind: AlertDemandOverage, Message: msg, Severity: SeverityError}, true
}

// ExpiryAlerts reports credits expiring within the near and far windows after asOf.
func ExpiryAlerts(batches []CreditBatch, asOf time.Time) []Alert {
	if asOf.IsZero() {
		return nil
	}
	var near, far float64
	for _, b := range batches {
		if b.KWh <= 0 || b.ExpiresAt.IsZero() || b.ExpiresAt.Before(asOf) {
			continue
		}
		left := b.ExpiresAt.Sub(asOf)
		switch {
		case left <= ExpiryWindowNear:
			near += b.KWh
		case left <= ExpiryWindowFar:
			far += b.KWh
		}
	}
	var alerts []Alert
	if near > 0 {
		alerts = append(alerts, Alert{
			Kind:     AlertCreditsExpiring,
			Message:  fmt.Sprintf("%.0f kWh of credits expire within 30 days.", near),
			Severity: SeverityInfo,
		})
	}
	if far > 0 {
		alerts = append(alerts, Alert{
			Kind:     AlertCreditsExpiring,
			Message:  fmt.Sprintf("%.0f kWh of credits expire within 60 days.", far),
			Severity: SeverityInfo,
		})
	}
	return alerts
}

func uncompensatedAlert(b BalanceResult) (Alert, bool) {
	share := b.UncompensatedShare()
	if share <= UncompensatedShareLimit {
		return Alert{}, false
	}
	return Alert{
		Kind:     AlertHighUncompensated,
		Message:  fmt.Sprintf("%.1f%% of grid consumption (%.0f kWh) was not compensated by credits.", share*100, b.UncompensatedConsumption),
		Severity: SeverityWarning,
	}, true
}

func reactiveAlert(penalty float64) (Alert, bool) {
	if penalty <= 0 {
		return Alert{}, false
	}
	return Alert{
		Kind:     AlertReactivePenalty,
		Message:  fmt.Sprintf("Reactive energy penalty of R$ %.2f charged on this invoice.", penalty),
		Severity: SeverityWarning,
	}, true
}

func validationAlert(v Validation) (Alert, bool) {
	if v.Status != ValidationInvalid {
		return Alert{}, false
	}
	return Alert{
		Kind: AlertValidationMismatch,
		Message: fmt.Sprintf("Declared total R$ %.2f differs from computed R$ %.2f by R$ %.2f (%.2f%%).",
			v.Declared, v.Computed, v.Difference, v.DifferencePercent),
		Severity: SeverityError,
	}, true
}
