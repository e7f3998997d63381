package dosing

import (
	"errors"
	"math"
	"testing"
)

func TestResolve_FormulaNoCapNoRounding(t *testing.T) {
	rule := DosingRule{Basis: BasisPerKg, MgPerKg: 2, PerDose: true}

	result, err := Resolve(12, rule, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.Source != SourceFormula {
		t.Errorf("Expected source formula, got %s", result.Source)
	}

	if result.DoseMg != 24 {
		t.Errorf("Expected 24 mg for 12 kg at 2 mg/kg, got %v", result.DoseMg)
	}
}

func TestResolve_AdrenalineIMBoundary(t *testing.T) {
	// 0.01 mg/kg, cap 0.5 mg, 9 kg, no override: exactly 0.09 mg
	rule := DosingRule{
		Basis:           BasisPerKg,
		MgPerKg:         0.01,
		PerDose:         true,
		MaxSingleDoseMg: 0.5,
		RoundingStepMg:  0.01,
	}

	result, err := Resolve(9, rule, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.Source != SourceFormula {
		t.Errorf("Expected source formula, got %s", result.Source)
	}

	if result.DoseMg != 0.09 {
		t.Errorf("Expected 0.09 mg, got %v", result.DoseMg)
	}
}

func TestResolve_OverridePrecedence(t *testing.T) {
	// Override must win even when it numerically agrees with the formula
	rule := DosingRule{
		Basis:           BasisPerKg,
		MgPerKg:         0.01,
		PerDose:         true,
		MaxSingleDoseMg: 0.5,
		RoundingStepMg:  0.01,
	}
	overrides := []WeightOverride{
		{MinKg: 9, MaxKg: 9, DoseMg: 0.09, Note: "Carte 9 kg"},
	}

	result, err := Resolve(9, rule, overrides)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.Source != SourceOverride {
		t.Errorf("Expected source override, got %s", result.Source)
	}

	if result.DoseMg != 0.09 {
		t.Errorf("Expected card value 0.09 mg, got %v", result.DoseMg)
	}

	if result.Note != "Carte 9 kg" {
		t.Errorf("Expected card note to be surfaced, got %q", result.Note)
	}
}

func TestResolve_OverrideVerbatimNoRecapping(t *testing.T) {
	// A card value above the formula cap is returned as written
	rule := DosingRule{
		Basis:           BasisPerKg,
		MgPerKg:         0.01,
		PerDose:         true,
		MaxSingleDoseMg: 0.5,
		RoundingStepMg:  0.01,
	}
	overrides := []WeightOverride{
		{MinKg: 40, MaxKg: 60, DoseMg: 0.62},
	}

	result, err := Resolve(50, rule, overrides)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.DoseMg != 0.62 {
		t.Errorf("Expected verbatim 0.62 mg, got %v", result.DoseMg)
	}
}

func TestResolve_CapEnforcement(t *testing.T) {
	rule := DosingRule{
		Basis:           BasisPerKg,
		MgPerKg:         0.01,
		PerDose:         true,
		MaxSingleDoseMg: 0.5,
		RoundingStepMg:  0.01,
	}

	result, err := Resolve(60, rule, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.DoseMg != 0.5 {
		t.Errorf("Expected capped 0.5 mg at 60 kg, got %v", result.DoseMg)
	}
}

func TestResolve_CapBeforeRounding(t *testing.T) {
	// MgSO4: 50 mg/kg, max 2000 mg, step 50 mg
	rule := DosingRule{
		Basis:           BasisPerKg,
		MgPerKg:         50,
		PerDose:         true,
		MaxSingleDoseMg: 2000,
		RoundingStepMg:  50,
	}

	testCases := []struct {
		weightKg float64
		expected float64
	}{
		{3, 150},
		{7.5, 400}, // 7.5 * 50 = 375, half-up on the 50 mg step
		{39, 1950},
		{41, 2000}, // capped
		{60, 2000},
	}

	for _, tc := range testCases {
		result, err := Resolve(tc.weightKg, rule, nil)
		if err != nil {
			t.Fatalf("Expected no error for %v kg, got: %v", tc.weightKg, err)
		}
		if result.DoseMg != tc.expected {
			t.Errorf("Weight %v kg: expected %v mg, got %v", tc.weightKg, tc.expected, result.DoseMg)
		}
	}
}

func TestResolve_NonNumericBasis(t *testing.T) {
	rule := DosingRule{
		Basis:         BasisFixed,
		Route:         "IVSE",
		Notes:         "Débit titré à l'effet, monitoré.",
		FrequencyText: "Titration continue",
	}

	result, err := Resolve(10, rule, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.Source != SourceNone {
		t.Errorf("Expected source none, got %s", result.Source)
	}

	if !math.IsNaN(result.DoseMg) {
		t.Errorf("Expected NaN dose for titrated basis, got %v", result.DoseMg)
	}

	if result.Note == "" || result.FrequencyText == "" {
		t.Error("Expected textual guidance to be surfaced for a non-numeric basis")
	}
}

func TestResolve_AgeRangeBasis(t *testing.T) {
	rule := DosingRule{
		Basis: BasisAgeRange,
		Route: "AE",
		Notes: "Nébulisation : 2,5 mg ≤6 ans ; 5 mg >6 ans.",
	}

	result, err := Resolve(20, rule, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.Source != SourceNone || !math.IsNaN(result.DoseMg) {
		t.Errorf("Expected NaN/none for age-banded basis, got %v/%s", result.DoseMg, result.Source)
	}
}

func TestResolve_OverrideWinsOverNonNumericBasis(t *testing.T) {
	rule := DosingRule{Basis: BasisFixed, Notes: "titration"}
	overrides := []WeightOverride{{MinKg: 5, MaxKg: 15, DoseMg: 1.5}}

	result, err := Resolve(10, rule, overrides)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.Source != SourceOverride || result.DoseMg != 1.5 {
		t.Errorf("Expected override 1.5 mg, got %v/%s", result.DoseMg, result.Source)
	}
}

func TestResolve_InvalidWeight(t *testing.T) {
	rule := DosingRule{Basis: BasisPerKg, MgPerKg: 1}

	testCases := []struct {
		name     string
		weightKg float64
	}{
		{"zero", 0},
		{"negative", -4},
		{"nan", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(tc.weightKg, rule, nil)
			if err == nil {
				t.Fatalf("Expected error for weight %v", tc.weightKg)
			}
			if !errors.Is(err, ErrInvalidWeight) {
				t.Errorf("Expected ErrInvalidWeight, got: %v", err)
			}
		})
	}
}

func TestResolve_FirstMatchingBandInTableOrder(t *testing.T) {
	rule := DosingRule{Basis: BasisPerKg, MgPerKg: 1}
	overrides := []WeightOverride{
		{MinKg: 3, MaxKg: 5, DoseMg: 4},
		{MinKg: 6, MaxKg: 9, DoseMg: 7},
	}

	result, err := Resolve(7, rule, overrides)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.DoseMg != 7 {
		t.Errorf("Expected 7 mg from the 6-9 kg band, got %v", result.DoseMg)
	}
}

func TestResolve_BandBoundariesInclusive(t *testing.T) {
	rule := DosingRule{Basis: BasisPerKg, MgPerKg: 1}
	overrides := []WeightOverride{{MinKg: 6, MaxKg: 9, DoseMg: 7}}

	for _, w := range []float64{6, 9} {
		result, err := Resolve(w, rule, overrides)
		if err != nil {
			t.Fatalf("Expected no error at %v kg, got: %v", w, err)
		}
		if result.Source != SourceOverride {
			t.Errorf("Expected inclusive boundary match at %v kg, got source %s", w, result.Source)
		}
	}

	// Just outside the band falls back to the formula
	result, err := Resolve(9.1, rule, overrides)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result.Source != SourceFormula {
		t.Errorf("Expected formula outside the band, got source %s", result.Source)
	}
}

func TestResolve_MonotonicUpToCap(t *testing.T) {
	rule := DosingRule{
		Basis:           BasisPerKg,
		MgPerKg:         0.01,
		MaxSingleDoseMg: 0.5,
		RoundingStepMg:  0.01,
	}

	previous := 0.0
	for w := 1.0; w <= 80; w += 0.5 {
		result, err := Resolve(w, rule, nil)
		if err != nil {
			t.Fatalf("Expected no error at %v kg, got: %v", w, err)
		}
		if result.DoseMg < previous {
			t.Fatalf("Dose decreased at %v kg: %v -> %v", w, previous, result.DoseMg)
		}
		previous = result.DoseMg
	}

	if previous != 0.5 {
		t.Errorf("Expected plateau at the 0.5 mg cap, got %v", previous)
	}
}

func TestResolve_MaxDailySurfacedNotEnforced(t *testing.T) {
	rule := DosingRule{Basis: BasisPerKg, MgPerKg: 10, MaxDailyMg: 40}

	result, err := Resolve(10, rule, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if result.DoseMg != 100 {
		t.Errorf("Expected 100 mg (daily ceiling is informational), got %v", result.DoseMg)
	}

	if result.MaxDailyMg != 40 {
		t.Errorf("Expected max daily 40 mg surfaced, got %v", result.MaxDailyMg)
	}
}

func TestRoundToStep(t *testing.T) {
	testCases := []struct {
		name     string
		value    float64
		step     float64
		expected float64
	}{
		{"already on step", 0.09, 0.01, 0.09},
		{"half rounds up", 375, 50, 400},
		{"below half rounds down", 374, 50, 350},
		{"small step", 0.152, 0.005, 0.15},
		{"exact half with integer step", 12.5, 25, 25},
		{"integer step", 7.4, 5, 5},
		{"integer step half up", 7.5, 5, 10},
		{"zero step returns value", 1.234, 0, 1.234},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := RoundToStep(tc.value, tc.step)
			if got != tc.expected {
				t.Errorf("RoundToStep(%v, %v) = %v, expected %v", tc.value, tc.step, got, tc.expected)
			}
		})
	}
}

func TestRoundToStep_Idempotent(t *testing.T) {
	for _, step := range []float64{0.005, 0.01, 0.5, 5, 25, 50} {
		value := RoundToStep(7.3123, step)
		again := RoundToStep(value, step)
		if value != again {
			t.Errorf("Step %v: rounding is not idempotent, %v != %v", step, value, again)
		}
	}
}
