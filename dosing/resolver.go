package dosing

import (
	"fmt"
	"math"
)

// ErrInvalidWeight is returned when a weight is non-positive or non-finite.
// Callers must reject bad input before display, never compute from it.
var ErrInvalidWeight = fmt.Errorf("invalid weight: must be a positive, finite number of kilograms")

// Resolve computes the authoritative dose for a weight and rule.
//
// Override cards take precedence: the first band containing the weight is
// returned verbatim, with no cap or rounding re-applied, since card values
// are clinically validated as written. Load-time validation rejects
// overlapping bands for one drug, so table order is a complete tie-break.
//
// Without a matching override, a per-kilogram rule computes
// weight * MgPerKg, clamps to MaxSingleDoseMg and rounds half-up to
// RoundingStepMg. Any other basis yields DoseMg = NaN with SourceNone and
// the rule's textual guidance.
func Resolve(weightKg float64, rule DosingRule, overrides []WeightOverride) (DoseResult, error) {
	if weightKg <= 0 || math.IsNaN(weightKg) || math.IsInf(weightKg, 0) {
		return DoseResult{}, fmt.Errorf("%w: got %v", ErrInvalidWeight, weightKg)
	}

	result := DoseResult{
		Route:         rule.Route,
		FrequencyText: rule.FrequencyText,
		Note:          rule.Notes,
		MaxDailyMg:    rule.MaxDailyMg,
	}

	for _, o := range overrides {
		if o.Matches(weightKg) {
			result.DoseMg = o.DoseMg
			result.Source = SourceOverride
			if o.Note != "" {
				result.Note = o.Note
			}
			return result, nil
		}
	}

	if rule.Basis != BasisPerKg {
		result.DoseMg = math.NaN()
		result.Source = SourceNone
		return result, nil
	}

	dose := weightKg * rule.MgPerKg
	if rule.MaxSingleDoseMg > 0 && dose > rule.MaxSingleDoseMg {
		dose = rule.MaxSingleDoseMg
	}
	if rule.RoundingStepMg > 0 {
		dose = RoundToStep(dose, rule.RoundingStepMg)
	}

	result.DoseMg = dose
	result.Source = SourceFormula
	return result, nil
}

// RoundToStep rounds a value to the nearest multiple of step, half up.
// A value already on a multiple of the step is returned unchanged.
func RoundToStep(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	rounded := math.Floor(value/step+0.5) * step
	// Snap away the binary representation error so 0.09 stays 0.09
	// instead of 0.09000000000000001.
	digits := stepDecimals(step)
	pow := math.Pow(10, float64(digits))
	return math.Round(rounded*pow) / pow
}

// stepDecimals returns how many decimal places a rounding step carries,
// capped at 6 (reference steps go no finer than 0.005 mg).
func stepDecimals(step float64) int {
	for d := 0; d <= 6; d++ {
		pow := math.Pow(10, float64(d))
		if math.Abs(step*pow-math.Round(step*pow)) < 1e-9 {
			return d
		}
	}
	return 6
}
