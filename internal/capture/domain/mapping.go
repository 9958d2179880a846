package capture

import (
	"time"

	billing "gd-invoice/internal/billing/domain"
	tariff "gd-invoice/internal/tariff/domain"
)

// Header holds the non-numeric identification of a cycle being captured.
type Header struct {
	UnitID         string                `json:"unit_id"`
	Distributor    string                `json:"distributor"`
	Group          tariff.Group          `json:"group"`
	Modality       string                `json:"modality"`
	ReferenceMonth time.Time             `json:"reference_month"`
	ProtocolDate   *time.Time            `json:"protocol_date,omitempty"`
	AlertColor     tariff.AlertColor     `json:"alert_color"`
	CreditBatches  []billing.CreditBatch `json:"credit_batches,omitempty"`
}

// CycleInput builds the engine input from the header and the reading fields.
func CycleInput(h Header, d *Draft) billing.CycleInput {
	in := billing.CycleInput{
		UnitID:         h.UnitID,
		ReferenceMonth: h.ReferenceMonth,
		Group:          h.Group,
		AlertColor:     h.AlertColor,
		CreditBatches:  h.CreditBatches,
	}
	for _, p := range tariff.Periods {
		setPeriod(&in.Consumption, p, d, KeyConsumption)
		setPeriod(&in.SelfConsumed, p, d, KeySelfConsumed)
		setPeriod(&in.Injected, p, d, KeyInjected)
	}
	in.ContractedDemand, _ = d.Value(KeyContractedDemand)
	in.MeasuredDemand, _ = d.Value(KeyMeasuredDemand)
	in.Generation, _ = d.Value(KeyGeneration)
	in.RemoteCredits, _ = d.Value(KeyRemoteCredits)
	in.ReactivePenalty, _ = d.Value(KeyReactivePenalty)
	in.PublicLighting, _ = d.Value(KeyPublicLighting)
	in.DeclaredTotal, _ = d.Value(KeyDeclaredTotal)
	return in
}

func setPeriod(target *map[tariff.Period]float64, p tariff.Period, d *Draft, prefix string) {
	v, ok := d.Value(PeriodKey(prefix, p))
	if !ok {
		return
	}
	if *target == nil {
		*target = make(map[tariff.Period]float64)
	}
	(*target)[p] = v
}

// RateSuggestions flattens the card into rate fields for the header's alert color.
func RateSuggestions(card tariff.RateCard, color tariff.AlertColor) map[string]float64 {
	values := map[string]float64{
		KeyDemandRate: card.Demand.Rate,
		KeyPIS:        card.Taxes.PIS,
		KeyCOFINS:     card.Taxes.COFINS,
		KeyICMS:       card.Taxes.ICMS,
	}
	if card.Demand.OverageRate > 0 {
		values[KeyDemandOverage] = card.Demand.OverageRate
	}
	if color != "" {
		values[KeyAlertRate] = card.AlertRate(color)
	}
	for p, rate := range card.Energy {
		values[PeriodKey(KeyEnergyRate, p)] = rate
	}
	for p, rate := range card.NetworkUsage {
		if rate.Decomposed() {
			values[PeriodKey(KeyWiresARate, p)] = rate.WiresA
			values[PeriodKey(KeyWiresBRate, p)] = rate.WiresB
			values[PeriodKey(KeySectorChargeRate, p)] = rate.SectorCharges
			continue
		}
		values[PeriodKey(KeyNetworkUsageRate, p)] = rate.Blended
	}
	return values
}

// EffectiveCard rebuilds a rate card from the rate fields of the draft, so manual rate
// overrides flow into the computation. It returns nil when no energy rate is set.
func EffectiveCard(h Header, d *Draft) *tariff.RateCard {
	card := tariff.RateCard{
		Distributor:  h.Distributor,
		Group:        h.Group,
		Modality:     h.Modality,
		Energy:       make(map[tariff.Period]float64),
		NetworkUsage: make(map[tariff.Period]tariff.NetworkUsageRate),
		PriceAlert:   make(map[tariff.AlertColor]float64),
	}
	for _, p := range tariff.Periods {
		if v, ok := d.Value(PeriodKey(KeyEnergyRate, p)); ok {
			card.Energy[p] = v
		}
		var (
			rate  tariff.NetworkUsageRate
			found bool
		)
		for key, target := range map[string]*float64{
			KeyWiresARate:       &rate.WiresA,
			KeyWiresBRate:       &rate.WiresB,
			KeySectorChargeRate: &rate.SectorCharges,
			KeyNetworkUsageRate: &rate.Blended,
		} {
			if v, ok := d.Value(PeriodKey(key, p)); ok {
				*target = v
				found = true
			}
		}
		if found {
			card.NetworkUsage[p] = rate
		}
	}
	if len(card.Energy) == 0 {
		return nil
	}
	if v, ok := d.Value(KeyAlertRate); ok && h.AlertColor != "" {
		card.PriceAlert[h.AlertColor] = v
	}
	card.Demand.Rate, _ = d.Value(KeyDemandRate)
	card.Demand.OverageRate, _ = d.Value(KeyDemandOverage)
	card.Taxes.PIS, _ = d.Value(KeyPIS)
	card.Taxes.COFINS, _ = d.Value(KeyCOFINS)
	card.Taxes.ICMS, _ = d.Value(KeyICMS)
	return &card
}

// TotalSuggestions returns the category totals of a computed result.
func TotalSuggestions(res billing.Result) map[string]float64 {
	if !res.TariffsAvailable {
		return nil
	}
	c := res.Components
	return map[string]float64{
		KeyTotalPriceAlert:   c.PriceAlert,
		KeyTotalNetworkUsage: c.NetworkUsage,
		KeyTotalEnergy:       c.Energy,
		KeyTotalCompensation: c.Compensation,
		KeyTotalDemand:       c.Demand,
		KeyTotalOther:        c.Other,
		KeyTotalTaxes:        c.Taxes,
		KeyTotalInvoice:      c.Total,
	}
}
