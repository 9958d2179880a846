package capture

import (
	"errors"
	"math"
	"sort"
)

var (
	// ErrEmptyKey is returned when a field key is blank.
	ErrEmptyKey = errors.New("capture: empty field key")
	// ErrInvalidValue is returned for NaN or infinite values.
	ErrInvalidValue = errors.New("capture: invalid field value")
	// ErrNegativeRate is returned when a rate or tax field is negative.
	ErrNegativeRate = errors.New("capture: negative rate")
)

// Draft is the editable model of a cycle being captured. It has a single writer.
type Draft struct {
	fields map[string]Field
}

// NewDraft constructs an empty draft.
func NewDraft() *Draft {
	return &Draft{fields: make(map[string]Field)}
}

// Get returns the field stored under key.
func (d *Draft) Get(key string) Field {
	return d.fields[key]
}

// Value returns the value of a set field.
func (d *Draft) Value(key string) (float64, bool) {
	f, ok := d.fields[key]
	if !ok || !f.Set() {
		return 0, false
	}
	return f.Value, true
}

// Edit records a human-entered value. It always wins over later suggestions.
func (d *Draft) Edit(key string, value float64) error {
	if err := ValidateField(key, value); err != nil {
		return err
	}
	d.fields[key] = Field{Value: value, Origin: OriginManual}
	return nil
}

// Suggest merges computed values. Manual fields are kept; every other field takes the
// suggestion. It returns the keys that changed.
func (d *Draft) Suggest(values map[string]float64) []string {
	var changed []string
	for _, key := range sortedKeys(values) {
		value := values[key]
		if ValidateField(key, value) != nil {
			continue
		}
		current := d.fields[key]
		if current.Origin == OriginManual {
			continue
		}
		if current.Origin == OriginComputed && current.Value == value {
			continue
		}
		d.fields[key] = Field{Value: value, Origin: OriginComputed}
		changed = append(changed, key)
	}
	return changed
}

// Apply overwrites the given fields with computed values, manual ones included. It is
// the explicit recompute action.
func (d *Draft) Apply(values map[string]float64) []string {
	var changed []string
	for _, key := range sortedKeys(values) {
		value := values[key]
		if ValidateField(key, value) != nil {
			continue
		}
		next := Field{Value: value, Origin: OriginComputed}
		if d.fields[key] == next {
			continue
		}
		d.fields[key] = next
		changed = append(changed, key)
	}
	return changed
}

// DropComputed clears the computed fields selected by inScope that the latest
// suggestion set no longer carries. Manual fields are kept. It returns the cleared keys.
func (d *Draft) DropComputed(inScope func(string) bool, latest map[string]float64) []string {
	var dropped []string
	for key, f := range d.fields {
		if f.Origin != OriginComputed || !inScope(key) {
			continue
		}
		if _, ok := latest[key]; ok {
			continue
		}
		delete(d.fields, key)
		dropped = append(dropped, key)
	}
	sort.Strings(dropped)
	return dropped
}

// Reset clears a field back to empty.
func (d *Draft) Reset(key string) {
	delete(d.fields, key)
}

// Keys returns the keys of all set fields in sorted order.
func (d *Draft) Keys() []string {
	keys := make([]string, 0, len(d.fields))
	for key, f := range d.fields {
		if f.Set() {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of the fields.
func (d *Draft) Snapshot() map[string]Field {
	out := make(map[string]Field, len(d.fields))
	for key, f := range d.fields {
		out[key] = f
	}
	return out
}

// ValidateField checks a value before it is stored under key.
func ValidateField(key string, value float64) error {
	if key == "" {
		return ErrEmptyKey
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ErrInvalidValue
	}
	if value < 0 && IsRateKey(key) {
		return ErrNegativeRate
	}
	return nil
}

func sortedKeys(values map[string]float64) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
