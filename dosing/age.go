package dosing

import (
	"regexp"
	"strconv"
	"strings"
)

// Age labels come from the UI in French: "10 mois", "6 ans", "3 ans 6 mois".

var (
	ageMonthsRegex = regexp.MustCompile(`(\d+)\s*mois`)
	ageYearsRegex  = regexp.MustCompile(`(\d+)\s*ans?`)
)

// ParseAgeLabel converts an age label to months. The second return value is
// false when the label carries no recognizable age.
func ParseAgeLabel(label string) (int, bool) {
	lower := strings.ToLower(strings.TrimSpace(label))
	if lower == "" {
		return 0, false
	}

	months := 0
	found := false

	if m := ageYearsRegex.FindStringSubmatch(lower); m != nil {
		years, err := strconv.Atoi(m[1])
		if err == nil {
			months += years * 12
			found = true
		}
	}
	if m := ageMonthsRegex.FindStringSubmatch(lower); m != nil {
		mo, err := strconv.Atoi(m[1])
		if err == nil {
			months += mo
			found = true
		}
	}

	return months, found
}
