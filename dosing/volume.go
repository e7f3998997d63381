package dosing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUndefinedConcentration is returned when a volume is requested with a
// zero, negative or non-finite concentration.
var ErrUndefinedConcentration = fmt.Errorf("undefined concentration: must be a positive, finite mg/mL value")

// ErrInvalidDose is returned when a volume is requested for a non-finite
// dose, including the NaN of a text-only dosing rule.
var ErrInvalidDose = fmt.Errorf("invalid dose: must be a finite mg value")

// VolumeFromConcentration converts a mass dose into the volume to draw up
// from a preparation of the given concentration. Errors here are the "—"
// display cases: Infinity and NaN must never reach a rendered value.
func VolumeFromConcentration(doseMg, concentrationMgPerMl float64) (float64, error) {
	if math.IsNaN(doseMg) || math.IsInf(doseMg, 0) || doseMg < 0 {
		return 0, fmt.Errorf("%w: got %v", ErrInvalidDose, doseMg)
	}
	if concentrationMgPerMl <= 0 || math.IsNaN(concentrationMgPerMl) || math.IsInf(concentrationMgPerMl, 0) {
		return 0, fmt.Errorf("%w: got %v", ErrUndefinedConcentration, concentrationMgPerMl)
	}
	return doseMg / concentrationMgPerMl, nil
}

// FormatMass formats a resolved mass dose for display. The rounding step
// decides the precision: a sub-integer step keeps two decimals, anything
// else renders an integer. With no step, the value itself decides.
// Display formatting is separate from dose rounding and is never fed back
// into a computation.
func FormatMass(doseMg, roundingStepMg float64) string {
	if math.IsNaN(doseMg) || math.IsInf(doseMg, 0) {
		return "—"
	}
	subInteger := roundingStepMg > 0 && roundingStepMg < 1
	if roundingStepMg == 0 {
		subInteger = doseMg != math.Trunc(doseMg)
	}
	if subInteger {
		return strconv.FormatFloat(doseMg, 'f', 2, 64)
	}
	return strconv.FormatFloat(doseMg, 'f', 0, 64)
}

// FormatVolume formats a volume in mL: two decimals below 1 mL, one
// decimal below 10 mL, integer above.
func FormatVolume(volumeMl float64) string {
	if math.IsNaN(volumeMl) || math.IsInf(volumeMl, 0) {
		return "—"
	}
	abs := math.Abs(volumeMl)
	switch {
	case abs < 1:
		return strconv.FormatFloat(volumeMl, 'f', 2, 64) + " mL"
	case abs < 10:
		return strconv.FormatFloat(volumeMl, 'f', 1, 64) + " mL"
	default:
		return strconv.FormatFloat(volumeMl, 'f', 0, 64) + " mL"
	}
}

// FormatQuantity renders a value with its unit label ("0.09 mg",
// "10 µg/kg/min"). Used for sheet items whose unit is data, not code.
func FormatQuantity(value float64, unit string) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "—"
	}
	s := trimZeros(strconv.FormatFloat(value, 'f', 2, 64))
	if unit == "" {
		return s
	}
	return s + " " + unit
}

// trimZeros drops a trailing ".00" / "0" from a fixed-point rendering so
// card values read the way they are printed on the paper cards.
func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}
