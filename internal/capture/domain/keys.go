package capture

import (
	"strings"

	tariff "gd-invoice/internal/tariff/domain"
)

// Reading keys. Per-period keys are built with PeriodKey.
const (
	KeyConsumption      = "consumption"
	KeySelfConsumed     = "self_consumed"
	KeyInjected         = "injected"
	KeyContractedDemand = "contracted_demand"
	KeyMeasuredDemand   = "measured_demand"
	KeyGeneration       = "generation"
	KeyRemoteCredits    = "remote_credits"
	KeyReactivePenalty  = "reactive_penalty"
	KeyPublicLighting   = "public_lighting"
	KeyDeclaredTotal    = "declared_total"
)

// Rate keys.
const (
	KeyEnergyRate       = "rate.energy"
	KeyWiresARate       = "rate.wires_a"
	KeyWiresBRate       = "rate.wires_b"
	KeySectorChargeRate = "rate.sector_charges"
	KeyNetworkUsageRate = "rate.network_usage"
	KeyAlertRate        = "rate.alert"
	KeyDemandRate       = "rate.demand"
	KeyDemandOverage    = "rate.demand_overage"
	KeyPIS              = "tax.pis"
	KeyCOFINS           = "tax.cofins"
	KeyICMS             = "tax.icms"
)

// Derived category totals.
const (
	KeyTotalPriceAlert   = "total.price_alert"
	KeyTotalNetworkUsage = "total.network_usage"
	KeyTotalEnergy       = "total.energy"
	KeyTotalCompensation = "total.compensation"
	KeyTotalDemand       = "total.demand"
	KeyTotalOther        = "total.other"
	KeyTotalTaxes        = "total.taxes"
	KeyTotalInvoice      = "total.invoice"
)

// IsRateKey reports whether key holds a rate or tax percentage.
func IsRateKey(key string) bool {
	return strings.HasPrefix(key, "rate.") || strings.HasPrefix(key, "tax.")
}

// IsTotalKey reports whether key holds a derived category total.
func IsTotalKey(key string) bool {
	return strings.HasPrefix(key, "total.")
}

// PeriodKey returns the per-period key, for example "consumption.ponta".
func PeriodKey(prefix string, p tariff.Period) string {
	return prefix + "." + string(p)
}

// SplitPeriodKey parses a per-period key.
func SplitPeriodKey(key string) (string, tariff.Period, bool) {
	i := strings.LastIndexByte(key, '.')
	if i <= 0 {
		return "", "", false
	}
	p := tariff.Period(key[i+1:])
	if !p.Valid() {
		return "", "", false
	}
	return key[:i], p, true
}
