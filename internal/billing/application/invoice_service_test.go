package application_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"gd-invoice/internal/billing/application"
	billing "gd-invoice/internal/billing/domain"
	"gd-invoice/internal/billing/infrastructure/memory"
	regulatory "gd-invoice/internal/regulatory/domain"
	tariffapp "gd-invoice/internal/tariff/application"
	tariff "gd-invoice/internal/tariff/domain"
	tariffmemory "gd-invoice/internal/tariff/infrastructure/memory"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type closeRecorder struct {
	events []application.CycleClosed
}

func (r *closeRecorder) PublishCycleClosed(ctx context.Context, event application.CycleClosed) error {
	r.events = append(r.events, event)
	return nil
}

func testCard() tariff.RateCard {
	return tariff.RateCard{
		ID:          "enel-b1-2025",
		Distributor: "Enel SP",
		Group:       tariff.GroupB,
		Modality:    "convencional",
		ValidFrom:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		Energy:      map[tariff.Period]float64{tariff.PeriodSingle: 0.5},
		NetworkUsage: map[tariff.Period]tariff.NetworkUsageRate{
			tariff.PeriodSingle: {WiresA: 0.1, WiresB: 0.3, SectorCharges: 0.1},
		},
	}
}

func newService(t *testing.T, cards ...tariff.RateCard) (*application.InvoiceService, *memory.CycleRecordRepository, *closeRecorder, *bytes.Buffer) {
	t.Helper()
	source, err := tariffmemory.NewRateCardSource(cards...)
	if err != nil {
		t.Fatalf("rate card source: %v", err)
	}
	var logs bytes.Buffer
	logger := log.New(&logs, "", 0)
	resolver, err := tariffapp.NewResolver(source, logger)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	schedule, err := regulatory.NewSchedule(map[int]float64{2023: 0.15, 2024: 0.3, 2025: 0.45})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	classifier := regulatory.NewClassifier(regulatory.Rules{
		GrandfatherCutoff:  time.Date(2023, time.January, 7, 23, 59, 59, 0, time.UTC),
		GrandfatheredUntil: 2045,
		Schedule:           schedule,
	})
	repo := memory.NewCycleRecordRepository()
	publisher := &closeRecorder{}
	clock := fixedClock{now: time.Date(2025, time.April, 5, 12, 0, 0, 0, time.UTC)}
	svc, err := application.NewInvoiceService(resolver, classifier, repo, publisher, clock, logger)
	if err != nil {
		t.Fatalf("invoice service: %v", err)
	}
	return svc, repo, publisher, &logs
}

func cycleRequest(declared float64) application.ComputeRequest {
	return application.ComputeRequest{
		Distributor: "enel sp",
		Input: billing.CycleInput{
			UnitID:         "uc-900",
			ReferenceMonth: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
			Group:          tariff.GroupB,
			Consumption:    map[tariff.Period]float64{tariff.PeriodSingle: 1000},
			Injected:       map[tariff.Period]float64{tariff.PeriodSingle: 800},
			DeclaredTotal:  declared,
		},
	}
}

func TestInvoiceService_ComputeClassifiesAndPrices(t *testing.T) {
	svc, _, _, logs := newService(t, testCard())

	res, err := svc.Compute(context.Background(), cycleRequest(0))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if !res.TariffsAvailable {
		t.Fatalf("expected resolved tariffs")
	}
	if res.Classification.Regime != regulatory.RegimePartial || res.Classification.NonCompensableFraction != 0.45 {
		t.Fatalf("unexpected classification: %+v", res.Classification)
	}
	if res.Compensation.WiresBExcluded <= 0 {
		t.Fatalf("expected wires-B exclusion, got %+v", res.Compensation)
	}
	if !strings.Contains(logs.String(), "event=invoice_computed unit_id=uc-900") {
		t.Fatalf("missing compute log: %s", logs.String())
	}
}

func TestInvoiceService_GrandfatheredUnit(t *testing.T) {
	svc, _, _, _ := newService(t, testCard())
	req := cycleRequest(0)
	protocol := time.Date(2022, time.November, 3, 0, 0, 0, 0, time.UTC)
	req.ProtocolDate = &protocol

	res, err := svc.Compute(context.Background(), req)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if res.Classification.Regime != regulatory.RegimeFull {
		t.Fatalf("expected full regime, got %+v", res.Classification)
	}
}

func TestInvoiceService_MissingCardDegrades(t *testing.T) {
	svc, _, _, _ := newService(t)

	res, err := svc.Compute(context.Background(), cycleRequest(500))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if res.TariffsAvailable || res.Validation.Status != billing.ValidationSkipped {
		t.Fatalf("expected unavailable tariffs and skipped validation: %+v", res.Validation)
	}

	req := cycleRequest(0)
	card := testCard()
	req.RateCard = &card
	res, err = svc.Compute(context.Background(), req)
	if err != nil {
		t.Fatalf("compute with manual card: %v", err)
	}
	if !res.TariffsAvailable {
		t.Fatalf("manual rate card should be used")
	}
}

func TestInvoiceService_CloseMonth(t *testing.T) {
	svc, repo, publisher, _ := newService(t, testCard())
	ctx := context.Background()

	computed, err := svc.Compute(ctx, cycleRequest(0))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	total := computed.Components.Total

	_, err = svc.CloseMonth(ctx, application.CloseRequest{ComputeRequest: cycleRequest(total * 1.2), ClosedBy: "ops-1"})
	if !errors.Is(err, application.ErrValidationMismatch) {
		t.Fatalf("expected mismatch error, got %v", err)
	}

	rec, err := svc.CloseMonth(ctx, application.CloseRequest{ComputeRequest: cycleRequest(total), ClosedBy: "ops-1"})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if rec.Version != 1 || rec.Validation.Status != billing.ValidationValid || rec.SnapshotHash == "" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	again, err := svc.CloseMonth(ctx, application.CloseRequest{ComputeRequest: cycleRequest(total * 1.2), ClosedBy: "ops-2", AcceptMismatch: true})
	if err != nil {
		t.Fatalf("close with accepted mismatch: %v", err)
	}
	if again.Version != 2 {
		t.Fatalf("expected version 2, got %d", again.Version)
	}

	stored, err := svc.Get(ctx, rec.ID)
	if err != nil || stored.SnapshotHash != rec.SnapshotHash {
		t.Fatalf("get: %+v %v", stored, err)
	}
	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, application.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	list, _ := repo.ListByUnit(ctx, "uc-900")
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
	if len(publisher.events) != 2 || publisher.events[0].RecordID != rec.ID {
		t.Fatalf("unexpected events: %+v", publisher.events)
	}
}

func TestInvoiceService_CloseRequiresActor(t *testing.T) {
	svc, _, _, _ := newService(t, testCard())
	_, err := svc.CloseMonth(context.Background(), application.CloseRequest{ComputeRequest: cycleRequest(0)})
	if !errors.Is(err, billing.ErrEmptyActor) {
		t.Fatalf("expected ErrEmptyActor, got %v", err)
	}
}
