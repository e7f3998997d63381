// Package dosing implements the dose computation engine: per-weight dosing
// rules, the override/formula resolution algorithm, and volume derivation
// from a prepared concentration. Everything in this package is a pure
// function over immutable reference data.
package dosing

// Basis selects the computation strategy of a dosing rule.
type Basis string

const (
	// BasisPerKg computes the dose as weight * MgPerKg.
	BasisPerKg Basis = "mg_per_kg"
	// BasisFixed is a titrated rate with no per-weight formula, the
	// rule's Notes carry the authoritative guidance.
	BasisFixed Basis = "fixed"
	// BasisAgeRange is an age-banded textual rule (e.g. nebulised
	// salbutamol 2.5 mg under 6 years, 5 mg above).
	BasisAgeRange Basis = "range"
)

// DosingRule describes how to compute one drug's dose.
// MaxSingleDoseMg, MaxDailyMg and RoundingStepMg use 0 to mean "unset".
type DosingRule struct {
	Basis           Basis   `json:"basis"`
	MgPerKg         float64 `json:"mg_per_kg,omitempty"`
	PerDose         bool    `json:"per_dose"`
	MaxSingleDoseMg float64 `json:"max_dose_mg,omitempty"`
	MaxDailyMg      float64 `json:"max_daily_mg,omitempty"`
	RoundingStepMg  float64 `json:"rounding_step_mg,omitempty"`
	Route           string  `json:"route,omitempty"`
	FrequencyText   string  `json:"frequency_text,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

// WeightOverride is a literal card value that supersedes the formula for an
// inclusive weight band. MinKg == MaxKg denotes an exact-weight card entry.
type WeightOverride struct {
	MinKg  float64 `json:"min_kg"`
	MaxKg  float64 `json:"max_kg"`
	DoseMg float64 `json:"dose_mg"`
	Note   string  `json:"note,omitempty"`
}

// Matches reports whether a query weight falls inside the band.
func (o WeightOverride) Matches(weightKg float64) bool {
	return weightKg >= o.MinKg && weightKg <= o.MaxKg
}

// Source tags where a resolved dose value came from.
type Source string

const (
	SourceOverride Source = "override"
	SourceFormula  Source = "formula"
	// SourceNone marks a rule with no numeric formula: DoseMg is NaN and
	// the textual guidance is authoritative.
	SourceNone Source = "none"
)

// DoseResult is the output of Resolve. DoseMg is NaN when Source is
// SourceNone, which is distinct from a legitimate zero dose.
type DoseResult struct {
	DoseMg        float64
	Source        Source
	Route         string
	FrequencyText string
	Note          string
	// MaxDailyMg is informational only, surfaced for the caller, never
	// enforced by the per-call computation.
	MaxDailyMg float64
}
