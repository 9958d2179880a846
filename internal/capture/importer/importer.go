// Package importer maps document-extraction output onto capture draft fields.
package importer

import (
	"sort"
	"time"

	capture "gd-invoice/internal/capture/domain"
	"gd-invoice/internal/observability/metrics"
	tariff "gd-invoice/internal/tariff/domain"
)

// Header is the identification data found in a document. Zero fields were not found.
type Header struct {
	UnitID         string            `json:"unit_id,omitempty"`
	Distributor    string            `json:"distributor,omitempty"`
	Group          tariff.Group      `json:"group,omitempty"`
	Modality       string            `json:"modality,omitempty"`
	ReferenceMonth time.Time         `json:"reference_month"`
	ProtocolDate   *time.Time        `json:"protocol_date,omitempty"`
	AlertColor     tariff.AlertColor `json:"alert_color,omitempty"`
}

// ApplyTo copies the found fields onto a capture header.
func (h Header) ApplyTo(target *capture.Header) {
	if h.UnitID != "" {
		target.UnitID = h.UnitID
	}
	if h.Distributor != "" {
		target.Distributor = h.Distributor
	}
	if h.Group != "" {
		target.Group = h.Group
	}
	if h.Modality != "" {
		target.Modality = h.Modality
	}
	if !h.ReferenceMonth.IsZero() {
		target.ReferenceMonth = h.ReferenceMonth
	}
	if h.ProtocolDate != nil {
		target.ProtocolDate = h.ProtocolDate
	}
	if h.AlertColor != "" {
		target.AlertColor = h.AlertColor
	}
}

// Result is the outcome of a mapping. Ignored lists the raw keys that were unknown or
// unparseable; it is informational only.
type Result struct {
	Values  map[string]float64
	Header  Header
	Ignored []string
}

// Map maps a flat key/value extraction.
func Map(flat map[string]string) Result {
	res := Result{Values: make(map[string]float64)}
	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		target, ok := lookup(key)
		if !ok || !res.assign(target, flat[key]) {
			res.Ignored = append(res.Ignored, key)
		}
	}
	metrics.AddImportFields(metrics.ImportMapped, len(keys)-len(res.Ignored))
	metrics.AddImportFields(metrics.ImportIgnored, len(res.Ignored))
	return res
}

// MapCategorized maps an extraction grouped by category. A key is tried prefixed with
// its category first ("consumo" + "ponta"), then on its own.
func MapCategorized(categories map[string]map[string]string) Result {
	flat := make(map[string]string)
	names := make([]string, 0, len(categories))
	for name := range categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, category := range names {
		for key, value := range categories[category] {
			combined := category + " " + key
			if _, ok := lookup(combined); ok {
				flat[combined] = value
				continue
			}
			flat[key] = value
		}
	}
	return Map(flat)
}

// Apply edits the mapped values into the draft as manual entries and copies the header.
// Nothing is changed when a value is rejected.
func (r Result) Apply(header *capture.Header, draft *capture.Draft) error {
	keys := make([]string, 0, len(r.Values))
	for key, value := range r.Values {
		if err := capture.ValidateField(key, value); err != nil {
			return err
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	r.Header.ApplyTo(header)
	for _, key := range keys {
		if err := draft.Edit(key, r.Values[key]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Result) assign(target, raw string) bool {
	switch target {
	case targetUnitID, targetDistributor, targetModality:
		if raw == "" {
			return false
		}
		switch target {
		case targetUnitID:
			r.Header.UnitID = raw
		case targetDistributor:
			r.Header.Distributor = raw
		default:
			r.Header.Modality = raw
		}
		return true
	case targetGroup:
		g, err := ParseGroup(raw)
		if err != nil {
			return false
		}
		r.Header.Group = g
		return true
	case targetReferenceMonth:
		t, err := ParseMonth(raw)
		if err != nil {
			return false
		}
		r.Header.ReferenceMonth = t
		return true
	case targetProtocolDate:
		t, err := ParseDate(raw)
		if err != nil {
			return false
		}
		r.Header.ProtocolDate = &t
		return true
	case targetAlertColor:
		c, err := ParseAlertColor(raw)
		if err != nil {
			return false
		}
		r.Header.AlertColor = c
		return true
	}
	v, err := ParseNumber(raw)
	if err != nil || v < 0 || capture.ValidateField(target, v) != nil {
		return false
	}
	r.Values[target] = v
	return true
}
