package memory

import (
	"context"
	"testing"
	"time"

	tariff "gd-invoice/internal/tariff/domain"
)

const seed = `
rate_cards:
  - id: enel-b1-2024
    distributor: Enel SP
    group: B
    modality: convencional
    valid_from: 2024-07-01T00:00:00Z
    valid_to: 2025-07-01T00:00:00Z
    energy:
      unico: 0.31
    network_usage:
      unico:
        blended: 0.42
    price_alert:
      amarela: 0.0189
    taxes:
      pis: 1.1
      cofins: 5.1
      icms: 18
  - id: enel-b1-2025
    distributor: Enel SP
    group: B
    modality: convencional
    valid_from: 2025-07-01T00:00:00Z
    energy:
      unico: 0.33
    network_usage:
      unico:
        blended: 0.45
`

func TestRateCardSource_LookupPicksCoveringCard(t *testing.T) {
	source, err := ParseYAML([]byte(seed))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if source.Len() != 2 {
		t.Fatalf("expected 2 cards, got %d", source.Len())
	}
	ctx := context.Background()

	card, err := source.Lookup(ctx, tariff.Query{Distributor: "enel sp", Group: tariff.GroupB, At: time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC)})
	if err != nil || card == nil {
		t.Fatalf("lookup: %v %v", card, err)
	}
	if card.ID != "enel-b1-2024" || card.AlertRate(tariff.AlertYellow) != 0.0189 || card.Taxes.ICMS != 18 {
		t.Fatalf("unexpected card: %+v", card)
	}

	card, _ = source.Lookup(ctx, tariff.Query{Distributor: "Enel SP", Group: tariff.GroupB, Modality: "CONVENCIONAL", At: time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)})
	if card == nil || card.ID != "enel-b1-2025" {
		t.Fatalf("expected open-ended card, got %+v", card)
	}

	card, err = source.Lookup(ctx, tariff.Query{Distributor: "Enel SP", Group: tariff.GroupA, At: time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil || card != nil {
		t.Fatalf("expected no card for group A, got %+v %v", card, err)
	}
}

func TestRateCardSource_ReturnsCopies(t *testing.T) {
	source, err := ParseYAML([]byte(seed))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	q := tariff.Query{Distributor: "Enel SP", Group: tariff.GroupB, At: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)}
	card, _ := source.Lookup(context.Background(), q)
	card.Energy[tariff.PeriodSingle] = 99
	again, _ := source.Lookup(context.Background(), q)
	if again.Energy[tariff.PeriodSingle] != 0.31 {
		t.Fatalf("stored card was mutated through a lookup result")
	}
}
