package eventing_test

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"gd-invoice/internal/eventing"
	"gd-invoice/internal/eventing/infrastructure/memory"
)

type invoiceReady struct {
	UnitID     string
	Total      float64
	OccurredAt time.Time
}

func TestBuildEnvelope_Defaults(t *testing.T) {
	at := time.Date(2025, time.May, 2, 10, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	env, err := eventing.BuildEnvelope(&invoiceReady{UnitID: "uc-1", Total: 10, OccurredAt: at}, eventing.Meta{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if env.EventType != "invoiceReady" || env.UnitID != "uc-1" || env.SchemaVersion != 1 {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.CorrelationID != env.EventID || !env.OccurredAt.Equal(at) || env.OccurredAt.Location() != time.UTC {
		t.Fatalf("unexpected metadata: %+v", env)
	}
	var decoded invoiceReady
	if err := env.Decode(&decoded); err != nil || decoded.Total != 10 {
		t.Fatalf("decode: %+v %v", decoded, err)
	}
	if _, err := eventing.BuildEnvelope(nil, eventing.Meta{}); err == nil {
		t.Fatalf("expected error for nil event")
	}
}

func TestPublisher_DispatchesToSubscribers(t *testing.T) {
	store := memory.NewOutboxStore()
	dispatcher := eventing.NewDispatcher(store, log.New(io.Discard, "", 0))
	var got []eventing.Envelope
	dispatcher.Subscribe("invoiceReady", func(ctx context.Context, env eventing.Envelope) error {
		if _, ok := eventing.EnvelopeFromContext(ctx); !ok {
			t.Errorf("envelope missing from context")
		}
		got = append(got, env)
		return nil
	})
	publisher := eventing.NewPublisher(store, dispatcher)

	ctx := eventing.WithCorrelationID(context.Background(), "req-7")
	if err := publisher.Publish(ctx, invoiceReady{UnitID: "uc-2"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 1 || got[0].CorrelationID != "req-7" {
		t.Fatalf("unexpected deliveries: %+v", got)
	}
	pending, _ := store.ListPending(context.Background(), 0)
	if len(pending) != 0 {
		t.Fatalf("expected outbox drained, %d pending", len(pending))
	}
}

func TestDispatcher_MarksFailures(t *testing.T) {
	store := memory.NewOutboxStore()
	dispatcher := eventing.NewDispatcher(store, log.New(io.Discard, "", 0))
	dispatcher.Subscribe("invoiceReady", func(ctx context.Context, env eventing.Envelope) error {
		return errors.New("downstream unavailable")
	})
	env, _ := eventing.BuildEnvelope(invoiceReady{UnitID: "uc-3"}, eventing.Meta{})
	id, _ := store.Insert(context.Background(), env)

	if err := dispatcher.Dispatch(context.Background(), 10); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if status := store.Status(id); status != memory.StatusFailed {
		t.Fatalf("expected failed, got %q", status)
	}
}
