package interfaces_test

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
	"time"

	"gd-invoice/internal/billing/application"
	billing "gd-invoice/internal/billing/domain"
	"gd-invoice/internal/billing/interfaces"
	"gd-invoice/internal/eventing"
	"gd-invoice/internal/eventing/infrastructure/memory"
)

func TestOutboxPublisher_DeliversCycleClosed(t *testing.T) {
	var logs bytes.Buffer
	logger := log.New(&logs, "", 0)
	store := memory.NewOutboxStore()
	dispatcher := eventing.NewDispatcher(store, logger)
	dispatcher.Subscribe(eventing.TypeName(application.CycleClosed{}), interfaces.CycleClosedLogHandler(logger))
	publisher := interfaces.NewOutboxPublisher(eventing.NewPublisher(store, dispatcher))

	err := publisher.PublishCycleClosed(context.Background(), application.CycleClosed{
		RecordID:       "rec-1",
		UnitID:         "uc-9",
		ReferenceMonth: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		Version:        2,
		Total:          321.5,
		Status:         billing.ValidationValid,
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if !strings.Contains(logs.String(), "cycle closed: unit=uc-9 month=2025-06 version=2 total=321.50 status=valid") {
		t.Fatalf("event not delivered: %q", logs.String())
	}
	if pending, _ := store.ListPending(context.Background(), 0); len(pending) != 0 {
		t.Fatalf("expected no pending records, got %d", len(pending))
	}
}
