package dosing

import "testing"

func TestParseAgeLabel(t *testing.T) {
	testCases := []struct {
		label    string
		months   int
		expected bool
	}{
		{"10 mois", 10, true},
		{"6 ans", 72, true},
		{"3 ans 6 mois", 42, true},
		{"1 an", 12, true},
		{"  2 ANS  ", 24, true},
		{"18mois", 18, true},
		{"", 0, false},
		{"nouveau-né", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.label, func(t *testing.T) {
			months, ok := ParseAgeLabel(tc.label)
			if ok != tc.expected {
				t.Fatalf("ParseAgeLabel(%q) ok = %v, expected %v", tc.label, ok, tc.expected)
			}
			if ok && months != tc.months {
				t.Errorf("ParseAgeLabel(%q) = %d months, expected %d", tc.label, months, tc.months)
			}
		})
	}
}
