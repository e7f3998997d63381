package posology

import "strings"

// Card section headings as printed on the reference sheets.
var sectionTitles = map[string]string{
	"constantes":            "CONSTANTES",
	"iot":                   "IOT",
	"isr":                   "ISR",
	"perfusion_transfusion": "PERF / TRANSF",
	"sedation":              "SÉDATION",
	"etat_de_choc":          "ÉTAT DE CHOC",
	"exacerbation_asthme":   "EXACERBATION ASTHME",
	"antalgiques":           "ANTALGIQUES",
	"acr":                   "ACR",
	"eme":                   "EME",
	"divers":                "DIVERS",
}

// SectionTitle returns the display heading for a section key, falling back
// to the upper-cased key for sections without a registered heading.
func SectionTitle(key string) string {
	if title, ok := sectionTitles[key]; ok {
		return title
	}
	return strings.ToUpper(key)
}

// Clinical abbreviations kept upper-case when labelizing item keys.
var labelReplacements = []struct {
	from, to string
}{
	{"ivse", "IVSE"},
	{"mgso4", "MgSO₄"},
	{"cee", "CEE"},
	{"sng", "SNG"},
	{"pas", "PAS"},
	{"iv", "IV"},
	{"ae", "AE"},
	{"im", "IM"},
	{"fr", "FR"},
	{"fc", "FC"},
	{"ch", "CH"},
}

// Labelize turns a snake_case item key into its display label
// ("adrenaline_ivse" -> "Adrenaline IVSE").
func Labelize(key string) string {
	words := strings.Split(key, "_")
	for i, word := range words {
		replaced := false
		for _, r := range labelReplacements {
			if word == r.from {
				words[i] = r.to
				replaced = true
				break
			}
		}
		if !replaced && i == 0 && len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}
