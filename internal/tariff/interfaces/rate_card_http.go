package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"gd-invoice/internal/audit"
	"gd-invoice/internal/auth"
	tariffapp "gd-invoice/internal/tariff/application"
	tariff "gd-invoice/internal/tariff/domain"
)

// RateCardWriter stores rate cards.
type RateCardWriter interface {
	Upsert(ctx context.Context, card tariff.RateCard) error
}

// RateCardHandler serves rate card lookups and maintenance under /api/v1/rate-cards.
type RateCardHandler struct {
	resolver    *tariffapp.Resolver
	writer      RateCardWriter
	auditLogger audit.Logger
}

// NewRateCardHandler constructs a handler. writer and auditLogger may be nil.
func NewRateCardHandler(resolver *tariffapp.Resolver, writer RateCardWriter, auditLogger audit.Logger) (*RateCardHandler, error) {
	if resolver == nil {
		return nil, errors.New("rate card handler: nil resolver")
	}
	return &RateCardHandler{resolver: resolver, writer: writer, auditLogger: auditLogger}, nil
}

// ServeHTTP handles GET lookups and PUT upserts.
func (h *RateCardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSuffix(r.URL.Path, "/") != "/api/v1/rate-cards" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.handleLookup(w, r)
	case http.MethodPut:
		h.handleUpsert(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *RateCardHandler) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	at := time.Now().UTC()
	if raw := q.Get("at"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "invalid at", http.StatusBadRequest)
			return
		}
		at = parsed
	}
	resolution := h.resolver.Resolve(r.Context(), tariff.Query{
		Distributor: q.Get("distributor"),
		Group:       tariff.Group(strings.ToUpper(q.Get("group"))),
		Modality:    q.Get("modality"),
		At:          at,
	})
	if !resolution.Available {
		http.Error(w, "no rate card", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resolution.Card)
}

func (h *RateCardHandler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	if h.writer == nil {
		http.Error(w, "rate cards are read-only", http.StatusMethodNotAllowed)
		return
	}
	var card tariff.RateCard
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if card.ID == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	if err := h.writer.Upsert(r.Context(), card); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	if h.auditLogger == nil {
		return
	}
	payload, _ := json.Marshal(map[string]any{
		"distributor": card.Distributor,
		"group":       card.Group,
		"valid_from":  card.ValidFrom.Format("2006-01-02"),
	})
	_ = h.auditLogger.Log(r.Context(), audit.Entry{
		Actor:        auth.SubjectFromContext(r.Context()),
		Role:         string(auth.RoleFromContext(r.Context())),
		Action:       audit.ActionRateCard,
		ResourceType: "rate_card",
		ResourceID:   card.ID,
		Metadata:     payload,
		IP:           audit.ClientIP(r),
		UserAgent:    r.UserAgent(),
	})
}
