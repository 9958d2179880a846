package importer

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	tariff "gd-invoice/internal/tariff/domain"
)

var errUnparseable = errors.New("importer: unparseable value")

var numberNoise = strings.NewReplacer("R$", "", "kWh", "", "kwh", "", "kW", "", "kw", "", "%", "", " ", "", " ", "")

// ParseNumber parses Brazilian ("1.234,56") and plain ("1234.56") notations. A single
// dot followed by exactly three digits is a thousands separator unless the integer
// part is zero.
func ParseNumber(raw string) (float64, error) {
	s := numberNoise.Replace(strings.TrimSpace(raw))
	if s == "" || s == "-" {
		return 0, errUnparseable
	}
	comma := strings.LastIndexByte(s, ',')
	dot := strings.LastIndexByte(s, '.')
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			return 0, errUnparseable
		}
		s = strings.Replace(s, ",", ".", 1)
	case dot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		} else if len(s)-dot-1 == 3 && strings.TrimLeft(s[:dot], "-0") != "" {
			s = strings.Replace(s, ".", "", 1)
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errUnparseable
	}
	return v, nil
}

var monthNames = map[string]time.Month{
	"jan": time.January, "fev": time.February, "feb": time.February, "mar": time.March,
	"abr": time.April, "apr": time.April, "mai": time.May, "may": time.May,
	"jun": time.June, "jul": time.July, "ago": time.August, "aug": time.August,
	"set": time.September, "sep": time.September, "out": time.October, "oct": time.October,
	"nov": time.November, "dez": time.December, "dec": time.December,
}

// ParseMonth parses "03/2025", "2025-03", "mar/2025" and "março 2025".
func ParseMonth(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range []string{"01/2006", "1/2006", "2006-01", "01-2006", "2006/01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if t, err := ParseDate(s); err == nil {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	parts := strings.Fields(normalize(s))
	if len(parts) == 2 && len(parts[0]) >= 3 {
		month, ok := monthNames[parts[0][:3]]
		year, err := strconv.Atoi(parts[1])
		if ok && err == nil && year > 1900 {
			return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, errUnparseable
}

// ParseDate parses "dd/mm/yyyy" and ISO dates.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range []string{"02/01/2006", "2/1/2006", "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errUnparseable
}

// ParseGroup accepts subgroups such as "A4" or "B1".
func ParseGroup(raw string) (tariff.Group, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", errUnparseable
	}
	g := tariff.Group(s[:1])
	if !g.Valid() {
		return "", errUnparseable
	}
	return g, nil
}

// ParseAlertColor accepts pt-BR and English names, for example "Vermelha Patamar 2".
func ParseAlertColor(raw string) (tariff.AlertColor, error) {
	s := normalize(raw)
	switch {
	case strings.Contains(s, "verde") || strings.Contains(s, "green"):
		return tariff.AlertGreen, nil
	case strings.Contains(s, "amarela") || strings.Contains(s, "yellow"):
		return tariff.AlertYellow, nil
	case strings.Contains(s, "vermelha") || strings.Contains(s, "red"):
		if strings.HasSuffix(s, "2") || strings.Contains(s, " ii") {
			return tariff.AlertRed2, nil
		}
		return tariff.AlertRed1, nil
	}
	return "", errUnparseable
}
