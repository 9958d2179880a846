package application

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	billingapp "gd-invoice/internal/billing/application"
	billing "gd-invoice/internal/billing/domain"
	capture "gd-invoice/internal/capture/domain"
	"gd-invoice/internal/capture/importer"
	regulatory "gd-invoice/internal/regulatory/domain"
	tariff "gd-invoice/internal/tariff/domain"
)

// Pipeline is the invoice pipeline a capture session computes against.
type Pipeline interface {
	Reference(ctx context.Context, req billingapp.ComputeRequest) billingapp.Reference
	Evaluate(in billing.CycleInput, card *tariff.RateCard, class regulatory.ClassificationResult) (billing.Result, error)
	CloseMonth(ctx context.Context, req billingapp.CloseRequest) (*billing.CycleRecord, error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// CaptureService drives draft sessions: edits, imports and recomputes.
type CaptureService struct {
	pipeline Pipeline
	store    *SessionStore
	clock    Clock
	logger   *log.Logger
}

// NewCaptureService constructs the service.
func NewCaptureService(pipeline Pipeline, store *SessionStore, clock Clock, logger *log.Logger) (*CaptureService, error) {
	if pipeline == nil {
		return nil, errors.New("capture service: nil pipeline")
	}
	if store == nil {
		store = NewSessionStore()
	}
	if clock == nil {
		clock = billingapp.SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CaptureService{pipeline: pipeline, store: store, clock: clock, logger: logger}, nil
}

// Open starts a session for the header.
func (s *CaptureService) Open(header capture.Header) View {
	session := newSession(header, s.clock.Now().UTC())
	s.store.put(session)
	s.logger.Printf("event=draft_opened session_id=%s unit_id=%s", session.id, header.UnitID)
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.view(nil)
}

// Get returns the current state of a session.
func (s *CaptureService) Get(id string) (View, error) {
	var v View
	err := s.with(id, func(session *Session) error {
		v = session.view(nil)
		return nil
	})
	return v, err
}

// UpdateHeader replaces the identification data of a session.
func (s *CaptureService) UpdateHeader(id string, header capture.Header) (View, error) {
	return s.mutate(id, func(session *Session) ([]string, error) {
		session.header = header
		return nil, nil
	})
}

// Edit records manual values. Manual values survive every later suggestion.
func (s *CaptureService) Edit(id string, values map[string]float64) (View, error) {
	return s.mutate(id, func(session *Session) ([]string, error) {
		changed := make([]string, 0, len(values))
		for key, value := range values {
			if err := capture.ValidateField(key, value); err != nil {
				return nil, err
			}
			changed = append(changed, key)
		}
		sort.Strings(changed)
		for _, key := range changed {
			_ = session.draft.Edit(key, values[key])
		}
		return changed, nil
	})
}

// Reset clears fields so that the next recompute fills them again.
func (s *CaptureService) Reset(id string, keys []string) (View, error) {
	return s.mutate(id, func(session *Session) ([]string, error) {
		for _, key := range keys {
			session.draft.Reset(key)
		}
		return keys, nil
	})
}

// Import applies mapped extraction output to the session as manual values.
func (s *CaptureService) Import(id string, mapped importer.Result) (View, error) {
	return s.mutate(id, func(session *Session) ([]string, error) {
		if err := mapped.Apply(&session.header, session.draft); err != nil {
			return nil, err
		}
		s.logger.Printf("event=draft_imported session_id=%s fields=%d ignored=%d",
			session.id, len(mapped.Values), len(mapped.Ignored))
		return session.draft.Keys(), nil
	})
}

// Recompute resolves tariffs, fills every non-manual rate and total field and stores
// the result. Manual values are never overwritten.
func (s *CaptureService) Recompute(ctx context.Context, id string) (View, error) {
	return s.mutate(id, func(session *Session) ([]string, error) {
		return s.compute(ctx, session, session.draft.Suggest)
	})
}

// ApplySuggestions is the explicit recompute action: computed rates and totals replace
// the fields, manual ones included.
func (s *CaptureService) ApplySuggestions(ctx context.Context, id string) (View, error) {
	return s.mutate(id, func(session *Session) ([]string, error) {
		return s.compute(ctx, session, session.draft.Apply)
	})
}

// Close confirms the session into a stored cycle record and ends the session.
func (s *CaptureService) Close(ctx context.Context, id, closedBy string, acceptMismatch bool) (*billing.CycleRecord, error) {
	var rec *billing.CycleRecord
	err := s.with(id, func(session *Session) error {
		h := session.header
		req := billingapp.CloseRequest{
			ComputeRequest: billingapp.ComputeRequest{
				Distributor:  h.Distributor,
				Modality:     h.Modality,
				ProtocolDate: h.ProtocolDate,
				RateCard:     capture.EffectiveCard(h, session.draft),
				Input:        capture.CycleInput(h, session.draft),
			},
			ClosedBy:       closedBy,
			AcceptMismatch: acceptMismatch,
		}
		var err error
		rec, err = s.pipeline.CloseMonth(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.store.remove(id)
	s.logger.Printf("event=draft_closed session_id=%s record_id=%s", id, rec.ID)
	return rec, nil
}

// Discard drops a session without storing anything.
func (s *CaptureService) Discard(id string) error {
	if _, ok := s.store.get(id); !ok {
		return ErrSessionNotFound
	}
	s.store.remove(id)
	return nil
}

func (s *CaptureService) compute(ctx context.Context, session *Session, merge func(map[string]float64) []string) ([]string, error) {
	h := session.header
	in := capture.CycleInput(h, session.draft)
	ref := s.pipeline.Reference(ctx, billingapp.ComputeRequest{
		Distributor:  h.Distributor,
		Modality:     h.Modality,
		ProtocolDate: h.ProtocolDate,
		Input:        in,
	})

	var rates map[string]float64
	if ref.Card != nil {
		rates = capture.RateSuggestions(*ref.Card, h.AlertColor)
	}
	changed := session.draft.DropComputed(capture.IsRateKey, rates)
	changed = append(changed, merge(rates)...)
	card := capture.EffectiveCard(h, session.draft)
	res, err := s.pipeline.Evaluate(in, card, ref.Classification)
	if err != nil {
		return nil, err
	}
	totals := capture.TotalSuggestions(res)
	changed = append(changed, session.draft.DropComputed(capture.IsTotalKey, totals)...)
	changed = append(changed, merge(totals)...)
	session.result = &res
	s.logger.Printf("event=draft_recomputed session_id=%s tariffs=%t total=%.2f changed=%d",
		session.id, res.TariffsAvailable, res.Components.Total, len(changed))
	return changed, nil
}

func (s *CaptureService) with(id string, fn func(*Session) error) error {
	session, ok := s.store.get(id)
	if !ok {
		return ErrSessionNotFound
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return fn(session)
}

func (s *CaptureService) mutate(id string, fn func(*Session) ([]string, error)) (View, error) {
	var v View
	err := s.with(id, func(session *Session) error {
		changed, err := fn(session)
		if err != nil {
			return err
		}
		session.updatedAt = s.clock.Now().UTC()
		v = session.view(changed)
		return nil
	})
	return v, err
}
