package audit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestMemoryLog_FillsDefaults(t *testing.T) {
	log := NewMemoryLog()
	err := log.Log(context.Background(), Entry{
		Actor:    "ops-1",
		Action:   ActionCloseMonth,
		UnitID:   "uc-1",
		Metadata: []byte(`{"total":1234.5}`),
	})
	if err != nil {
		t.Fatalf("log: %v", err)
	}
	entries := log.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if !strings.HasPrefix(got.ID, "audit-") {
		t.Fatalf("unexpected id %q", got.ID)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("created_at not set")
	}
	if got.PayloadDigest != DigestJSON([]byte(`{"total":1234.5}`)) || len(got.PayloadDigest) != 64 {
		t.Fatalf("unexpected digest %q", got.PayloadDigest)
	}
}

func TestDigestJSON_Empty(t *testing.T) {
	if DigestJSON(nil) != "" {
		t.Fatalf("expected empty digest")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	if got := ClientIP(req); got != "10.0.0.7" {
		t.Fatalf("remote addr: %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ClientIP(req); got != "203.0.113.9" {
		t.Fatalf("forwarded: %q", got)
	}
}
