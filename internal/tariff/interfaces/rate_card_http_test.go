package interfaces_test

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gd-invoice/internal/audit"
	tariffapp "gd-invoice/internal/tariff/application"
	tariff "gd-invoice/internal/tariff/domain"
	"gd-invoice/internal/tariff/infrastructure/memory"
	"gd-invoice/internal/tariff/interfaces"
)

func TestRateCardHandler_UpsertAndLookup(t *testing.T) {
	source, err := memory.NewRateCardSource()
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	resolver, err := tariffapp.NewResolver(source, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	auditLog := audit.NewMemoryLog()
	h, err := interfaces.NewRateCardHandler(resolver, source, auditLog)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	lookup := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rate-cards?distributor=light&group=b&at=2025-02-10", nil))
		return rec
	}
	if rec := lookup(); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before upsert, got %d", rec.Code)
	}

	body := `{"id":"light-b1","distributor":"Light","group":"B","valid_from":"2025-01-01T00:00:00Z",
		"energy":{"unico":0.42},"network_usage":{"unico":{"blended":0.51}}}`
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/rate-cards", strings.NewReader(body)))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("upsert: %d %s", rec.Code, rec.Body.String())
		}
	}
	if source.Len() != 1 {
		t.Fatalf("upsert should replace by id, got %d cards", source.Len())
	}

	rec := lookup()
	if rec.Code != http.StatusOK {
		t.Fatalf("lookup: %d", rec.Code)
	}
	var card tariff.RateCard
	if err := json.Unmarshal(rec.Body.Bytes(), &card); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if card.EnergyRate(tariff.PeriodSingle) != 0.42 {
		t.Fatalf("unexpected card: %+v", card)
	}
	if len(auditLog.Entries()) != 2 {
		t.Fatalf("expected audit entries for both upserts")
	}

	bad := httptest.NewRecorder()
	h.ServeHTTP(bad, httptest.NewRequest(http.MethodPut, "/api/v1/rate-cards", strings.NewReader(`{"id":"x","distributor":"Light","group":"C"}`)))
	if bad.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid card, got %d", bad.Code)
	}
}
