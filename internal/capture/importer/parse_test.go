package importer

import (
	"testing"
	"time"

	tariff "gd-invoice/internal/tariff/domain"
)

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"1.234,56":     1234.56,
		"R$ 37.500,00": 37500,
		"0,52":         0.52,
		"0.523":        0.523,
		"1.234":        1234,
		"1,234.5":      1234.5,
		"21000":        21000,
		"6.000 kWh":    6000,
		"18%":          18,
		"230 kW":       230,
		"12.345.678":   12345678,
	}
	for raw, want := range cases {
		got, err := ParseNumber(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: got=%v want=%v", raw, got, want)
		}
	}
	for _, raw := range []string{"", "-", "abc", "1,2,3", "NaN", "Inf", "-Inf", "Infinity"} {
		if _, err := ParseNumber(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestParseMonth(t *testing.T) {
	want := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"03/2025", "2025-03", "Mar/2025", "março 2025", "15/03/2025"} {
		got, err := ParseMonth(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parse %q: got=%s want=%s", raw, got, want)
		}
	}
	if _, err := ParseMonth("soon"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseGroupAndColor(t *testing.T) {
	if g, err := ParseGroup("a4"); err != nil || g != tariff.GroupA {
		t.Fatalf("group: %v %v", g, err)
	}
	if _, err := ParseGroup("C"); err == nil {
		t.Fatalf("expected error for group C")
	}
	colors := map[string]tariff.AlertColor{
		"Verde":              tariff.AlertGreen,
		"AMARELA":            tariff.AlertYellow,
		"Vermelha Patamar 1": tariff.AlertRed1,
		"Vermelha Patamar 2": tariff.AlertRed2,
		"red 2":              tariff.AlertRed2,
	}
	for raw, want := range colors {
		got, err := ParseAlertColor(raw)
		if err != nil || got != want {
			t.Fatalf("color %q: got=%v err=%v want=%v", raw, got, err, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := normalize("  Iluminação_Pública (CIP) "); got != "iluminacao publica cip" {
		t.Fatalf("normalize: %q", got)
	}
}
