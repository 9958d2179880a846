package regulatory

import "time"

// Regime is the SCEE compensation regime of a generating unit.
type Regime string

const (
	// RegimeFull compensates the whole network-usage charge (GD1).
	RegimeFull Regime = "full"
	// RegimePartial leaves a year-indexed share of wires-B uncompensated (GD2).
	RegimePartial Regime = "partial"
)

// Valid reports whether the regime is known.
func (r Regime) Valid() bool {
	return r == RegimeFull || r == RegimePartial
}

// ClassificationResult is the single source of truth for the regime of a cycle.
type ClassificationResult struct {
	Regime                 Regime  `json:"regime"`
	NonCompensableFraction float64 `json:"non_compensable_fraction"`
	ReferenceYear          int     `json:"reference_year"`
}

// ParameterSource is the regulatory lookup the billing pipeline depends on.
type ParameterSource interface {
	NonCompensableFraction(year int) float64
	Classify(protocolDate *time.Time, referenceYear int) ClassificationResult
}

// Rules are the regulatory parameters a classifier applies.
type Rules struct {
	// GrandfatherCutoff is the last interconnection-protocol date that keeps the full regime.
	GrandfatherCutoff time.Time
	// GrandfatheredUntil is the last billing year of the full regime; 0 means no end.
	GrandfatheredUntil int
	Schedule           Schedule
}

// Classifier classifies consumer units into a compensation regime.
type Classifier struct {
	rules Rules
}

// NewClassifier constructs a classifier.
func NewClassifier(rules Rules) *Classifier {
	return &Classifier{rules: rules}
}

// NonCompensableFraction returns the schedule value for a year.
func (c *Classifier) NonCompensableFraction(year int) float64 {
	return c.rules.Schedule.Fraction(year)
}

// Classify returns the regime for a unit. A unit without a protocol date is always
// classified in the partial regime.
func (c *Classifier) Classify(protocolDate *time.Time, referenceYear int) ClassificationResult {
	partial := ClassificationResult{
		Regime:                 RegimePartial,
		NonCompensableFraction: c.NonCompensableFraction(referenceYear),
		ReferenceYear:          referenceYear,
	}
	if protocolDate == nil || protocolDate.IsZero() || c.rules.GrandfatherCutoff.IsZero() {
		return partial
	}
	if protocolDate.After(c.rules.GrandfatherCutoff) {
		return partial
	}
	if c.rules.GrandfatheredUntil > 0 && referenceYear > c.rules.GrandfatheredUntil {
		return partial
	}
	return ClassificationResult{Regime: RegimeFull, ReferenceYear: referenceYear}
}
