package dosing

import (
	"errors"
	"math"
	"testing"
)

func TestVolumeFromConcentration(t *testing.T) {
	testCases := []struct {
		name     string
		doseMg   float64
		conc     float64
		expected float64
	}{
		{"whole number", 5, 1, 5},
		{"sub-mL", 0.09, 0.09, 1},
		{"dilution", 100, 10, 10},
		{"zero dose", 0, 2, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := VolumeFromConcentration(tc.doseMg, tc.conc)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Expected %v mL, got %v", tc.expected, got)
			}
		})
	}
}

func TestVolumeFromConcentration_UndefinedConcentration(t *testing.T) {
	testCases := []struct {
		name string
		conc float64
	}{
		{"zero", 0},
		{"negative", -1},
		{"nan", math.NaN()},
		{"infinity", math.Inf(1)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := VolumeFromConcentration(5, tc.conc)
			if err == nil {
				t.Fatal("Expected error for undefined concentration")
			}
			if !errors.Is(err, ErrUndefinedConcentration) {
				t.Errorf("Expected ErrUndefinedConcentration, got: %v", err)
			}
		})
	}
}

func TestVolumeFromConcentration_InvalidDose(t *testing.T) {
	// The NaN of a text-only rule must never flow into a volume
	_, err := VolumeFromConcentration(math.NaN(), 1)
	if err == nil {
		t.Fatal("Expected error for NaN dose")
	}
	if !errors.Is(err, ErrInvalidDose) {
		t.Errorf("Expected ErrInvalidDose, got: %v", err)
	}

	_, err = VolumeFromConcentration(math.Inf(1), 1)
	if !errors.Is(err, ErrInvalidDose) {
		t.Errorf("Expected ErrInvalidDose for infinite dose, got: %v", err)
	}
}

func TestFormatMass(t *testing.T) {
	testCases := []struct {
		name     string
		doseMg   float64
		step     float64
		expected string
	}{
		{"sub-integer step keeps two decimals", 0.09, 0.01, "0.09"},
		{"sub-integer step on round value", 0.5, 0.01, "0.50"},
		{"integer step renders integer", 400, 50, "400"},
		{"no step, fractional value", 0.75, 0, "0.75"},
		{"no step, whole value", 150, 0, "150"},
		{"nan renders placeholder", math.NaN(), 0, "—"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := FormatMass(tc.doseMg, tc.step)
			if got != tc.expected {
				t.Errorf("FormatMass(%v, %v) = %q, expected %q", tc.doseMg, tc.step, got, tc.expected)
			}
		})
	}
}

func TestFormatVolume(t *testing.T) {
	testCases := []struct {
		volumeMl float64
		expected string
	}{
		{0.45, "0.45 mL"},
		{0.9, "0.90 mL"},
		{1, "1.0 mL"},
		{7.25, "7.2 mL"},
		{9.99, "10.0 mL"},
		{10, "10 mL"},
		{125.4, "125 mL"},
	}

	for _, tc := range testCases {
		got := FormatVolume(tc.volumeMl)
		if got != tc.expected {
			t.Errorf("FormatVolume(%v) = %q, expected %q", tc.volumeMl, got, tc.expected)
		}
	}
}

func TestFormatQuantity(t *testing.T) {
	if got := FormatQuantity(0.09, "mg"); got != "0.09 mg" {
		t.Errorf("Expected '0.09 mg', got %q", got)
	}
	if got := FormatQuantity(10, "µg/kg/min"); got != "10 µg/kg/min" {
		t.Errorf("Expected '10 µg/kg/min', got %q", got)
	}
	if got := FormatQuantity(math.NaN(), "mg"); got != "—" {
		t.Errorf("Expected placeholder for NaN, got %q", got)
	}
}
