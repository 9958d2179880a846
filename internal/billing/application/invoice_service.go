package application

import (
	"context"
	"errors"
	"log"
	"time"

	billing "gd-invoice/internal/billing/domain"
	"gd-invoice/internal/observability/metrics"
	regulatory "gd-invoice/internal/regulatory/domain"
	tariffapp "gd-invoice/internal/tariff/application"
	tariff "gd-invoice/internal/tariff/domain"
)

// RateResolver resolves the rate card of a cycle.
type RateResolver interface {
	Resolve(ctx context.Context, query tariff.Query) tariffapp.Resolution
}

// CycleClosed is emitted after a cycle record is stored.
type CycleClosed struct {
	RecordID       string
	UnitID         string
	ReferenceMonth time.Time
	Version        int
	Total          float64
	Status         billing.ValidationStatus
	OccurredAt     time.Time
}

// ClosePublisher emits cycle closed events.
type ClosePublisher interface {
	PublishCycleClosed(ctx context.Context, event CycleClosed) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ComputeRequest identifies the tariff context of a cycle. RateCard, when set, replaces
// the resolved card; it carries manually entered tariffs.
type ComputeRequest struct {
	Distributor  string             `json:"distributor"`
	Modality     string             `json:"modality"`
	ProtocolDate *time.Time         `json:"protocol_date,omitempty"`
	RateCard     *tariff.RateCard   `json:"rate_card,omitempty"`
	Input        billing.CycleInput `json:"input"`
}

// CloseRequest confirms a cycle. AcceptMismatch lets a reviewer close a cycle whose
// totals do not reconcile.
type CloseRequest struct {
	ComputeRequest
	ClosedBy       string `json:"closed_by"`
	AcceptMismatch bool   `json:"accept_mismatch"`
}

// Reference is the external data a cycle is computed against.
type Reference struct {
	Card           *tariff.RateCard
	Classification regulatory.ClassificationResult
}

// InvoiceService runs the invoice pipeline and closes cycles.
type InvoiceService struct {
	resolver   RateResolver
	classifier regulatory.ParameterSource
	repo       billing.Repository
	publisher  ClosePublisher
	clock      Clock
	logger     *log.Logger
}

// NewInvoiceService constructs the service. publisher may be nil.
func NewInvoiceService(
	resolver RateResolver,
	classifier regulatory.ParameterSource,
	repo billing.Repository,
	publisher ClosePublisher,
	clock Clock,
	logger *log.Logger,
) (*InvoiceService, error) {
	if resolver == nil {
		return nil, errors.New("invoice service: nil rate resolver")
	}
	if classifier == nil {
		return nil, errors.New("invoice service: nil classifier")
	}
	if repo == nil {
		return nil, errors.New("invoice service: nil repository")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &InvoiceService{
		resolver:   resolver,
		classifier: classifier,
		repo:       repo,
		publisher:  publisher,
		clock:      clock,
		logger:     logger,
	}, nil
}

// Reference resolves the rate card and classifies the unit.
func (s *InvoiceService) Reference(ctx context.Context, req ComputeRequest) Reference {
	in := req.Input
	ref := Reference{
		Classification: s.classifier.Classify(req.ProtocolDate, in.ReferenceYear()),
	}
	if req.RateCard != nil {
		ref.Card = req.RateCard.Clone()
		return ref
	}
	resolution := s.resolver.Resolve(ctx, tariff.Query{
		Distributor: req.Distributor,
		Group:       in.Group,
		Modality:    req.Modality,
		At:          in.ReferenceInstant(),
	})
	if resolution.Available {
		ref.Card = resolution.Card
	}
	return ref
}

// Evaluate runs the engine and records metrics.
func (s *InvoiceService) Evaluate(in billing.CycleInput, card *tariff.RateCard, class regulatory.ClassificationResult) (billing.Result, error) {
	start := time.Now()
	res, err := billing.Compute(in, card, class)
	if err != nil {
		metrics.ObserveCompute(metrics.ResultError, time.Since(start))
		return billing.Result{}, err
	}
	metrics.ObserveCompute(metrics.ResultSuccess, time.Since(start))
	metrics.IncValidation(string(res.Validation.Status))
	for _, alert := range res.Alerts {
		metrics.IncAlert(string(alert.Kind), string(alert.Severity))
	}
	return res, nil
}

// Compute resolves the reference data and runs the engine.
func (s *InvoiceService) Compute(ctx context.Context, req ComputeRequest) (billing.Result, error) {
	ref := s.Reference(ctx, req)
	res, err := s.Evaluate(req.Input, ref.Card, ref.Classification)
	if err != nil {
		return billing.Result{}, err
	}
	s.logger.Printf("event=invoice_computed unit_id=%s month=%s regime=%s tariffs=%t total=%.2f validation=%s alerts=%d",
		req.Input.UnitID, req.Input.ReferenceMonth.Format("2006-01"), res.Classification.Regime,
		res.TariffsAvailable, res.Components.Total, res.Validation.Status, len(res.Alerts))
	return res, nil
}

// CloseMonth recomputes the cycle and stores it as a new record version.
func (s *InvoiceService) CloseMonth(ctx context.Context, req CloseRequest) (rec *billing.CycleRecord, err error) {
	start := time.Now()
	defer func() {
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultError
		}
		metrics.ObserveClose(result, time.Since(start))
	}()

	res, err := s.Compute(ctx, req.ComputeRequest)
	if err != nil {
		return nil, err
	}
	if res.Validation.Status == billing.ValidationInvalid && !req.AcceptMismatch {
		return nil, ErrValidationMismatch
	}
	version, err := s.repo.NextVersion(ctx, req.Input.UnitID, req.Input.ReferenceMonth)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	rec, err = billing.NewCycleRecord(req.Input, res, version, req.ClosedBy, now)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Printf("event=cycle_closed record_id=%s unit_id=%s month=%s version=%d closed_by=%s validation=%s",
		rec.ID, rec.UnitID, rec.ReferenceMonth.Format("2006-01"), rec.Version, rec.ClosedBy, rec.Validation.Status)

	if s.publisher != nil {
		event := CycleClosed{
			RecordID:       rec.ID,
			UnitID:         rec.UnitID,
			ReferenceMonth: rec.ReferenceMonth,
			Version:        rec.Version,
			Total:          rec.Components.Total,
			Status:         rec.Validation.Status,
			OccurredAt:     now,
		}
		if err := s.publisher.PublishCycleClosed(ctx, event); err != nil {
			s.logger.Printf("event=cycle_closed_publish_failed record_id=%s error=%v", rec.ID, err)
		}
	}
	return rec, nil
}

// Get returns a stored record.
func (s *InvoiceService) Get(ctx context.Context, id string) (*billing.CycleRecord, error) {
	if id == "" {
		return nil, ErrRecordNotFound
	}
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

// ListByUnit lists the stored records of a unit.
func (s *InvoiceService) ListByUnit(ctx context.Context, unitID string) ([]billing.CycleRecord, error) {
	if unitID == "" {
		return nil, billing.ErrEmptyUnitID
	}
	return s.repo.ListByUnit(ctx, unitID)
}
