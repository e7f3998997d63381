package posology

import (
	"fmt"
	"sort"

	"github.com/pediago/pediago-api/dosing"
	"github.com/pediago/pediago-api/logging"
)

// The upstream card data is not uniform: some items carry numeric
// dose/volume/rate fields, others only free text transcribed from the
// paper cards. Normalization happens once at load time; anything that
// fits neither shape is excluded here with a warning instead of being
// rendered raw at request time.

// RawItem is the wire shape of one sheet item before normalization.
// Exactly one of the dose_* fields is expected; the first set field wins,
// in the order below.
type RawItem struct {
	DoseMg           *float64 `json:"dose_mg,omitempty"`
	DoseUg           *float64 `json:"dose_ug,omitempty"`
	DoseMgPerH       *float64 `json:"dose_mg_per_h,omitempty"`
	DoseUgPerMin     *float64 `json:"dose_ug_per_min,omitempty"`
	DoseUgPerKgPerMin *float64 `json:"dose_ug_per_kg_per_min,omitempty"`
	DoseMgPerKg      *float64 `json:"dose_mg_per_kg,omitempty"`
	VolumeMl         *float64 `json:"volume_ml,omitempty"`
	RateMlPerH       *float64 `json:"rate_ml_per_h,omitempty"`
	ConcMgPerMl      *float64 `json:"conc_mg_per_ml,omitempty"`
	AdminOverMin     *float64 `json:"admin_over_min,omitempty"`
	Text             []string `json:"text,omitempty"`
}

// RawSheetEntry is the wire shape of one card before normalization.
type RawSheetEntry struct {
	WeightKg float64                       `json:"weight_kg"`
	AgeLabel string                        `json:"age_label,omitempty"`
	Vitals   *Vitals                       `json:"constantes,omitempty"`
	Airway   *Airway                       `json:"iot,omitempty"`
	Sections map[string]map[string]RawItem `json:"sections,omitempty"`
}

// NormalizeEntries converts raw card entries into the strict SheetEntry
// shape. Malformed entries are excluded and logged; the returned error
// count lets the caller decide whether the load is usable at all.
func NormalizeEntries(raw []RawSheetEntry) ([]SheetEntry, int) {
	entries := make([]SheetEntry, 0, len(raw))
	excluded := 0

	for _, r := range raw {
		entry, err := normalizeEntry(r)
		if err != nil {
			excluded++
			logging.Warn("Excluding malformed posology entry",
				"weight_kg", r.WeightKg,
				"error", err.Error(),
			)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, excluded
}

func normalizeEntry(raw RawSheetEntry) (SheetEntry, error) {
	if raw.WeightKg <= 0 {
		return SheetEntry{}, fmt.Errorf("non-positive card weight: %v", raw.WeightKg)
	}
	if raw.Vitals == nil {
		return SheetEntry{}, fmt.Errorf("missing constantes section")
	}
	if raw.Vitals.FCMin <= 0 || raw.Vitals.FCMax < raw.Vitals.FCMin {
		return SheetEntry{}, fmt.Errorf("invalid FC range: %d-%d", raw.Vitals.FCMin, raw.Vitals.FCMax)
	}
	if raw.Vitals.FRMin <= 0 || raw.Vitals.FRMax < raw.Vitals.FRMin {
		return SheetEntry{}, fmt.Errorf("invalid FR range: %d-%d", raw.Vitals.FRMin, raw.Vitals.FRMax)
	}

	entry := SheetEntry{
		WeightKg: raw.WeightKg,
		AgeLabel: raw.AgeLabel,
		Vitals:   *raw.Vitals,
		Sections: make(map[string]Section, len(raw.Sections)),
	}
	if raw.Airway != nil {
		entry.Airway = *raw.Airway
	}

	for key, rawItems := range raw.Sections {
		section, err := normalizeSection(raw.WeightKg, key, rawItems)
		if err != nil {
			return SheetEntry{}, err
		}
		entry.Sections[key] = section
	}

	return entry, nil
}

func normalizeSection(weightKg float64, key string, rawItems map[string]RawItem) (Section, error) {
	if len(rawItems) == 0 {
		return Section{}, fmt.Errorf("section %q is empty", key)
	}

	names := make([]string, 0, len(rawItems))
	for name := range rawItems {
		names = append(names, name)
	}
	sort.Strings(names)

	section := Section{Items: make([]Item, 0, len(rawItems))}
	for _, name := range names {
		item, err := normalizeItem(name, rawItems[name])
		if err != nil {
			return Section{}, fmt.Errorf("section %q, card %v kg: %w", key, weightKg, err)
		}
		section.Items = append(section.Items, item)
	}

	return section, nil
}

func normalizeItem(name string, raw RawItem) (Item, error) {
	item := Item{
		Name:         name,
		VolumeMl:     raw.VolumeMl,
		RateMlPerH:   raw.RateMlPerH,
		ConcMgPerMl:  raw.ConcMgPerMl,
		AdminOverMin: raw.AdminOverMin,
	}

	// First dose field set wins, same priority order the cards use
	switch {
	case raw.DoseMg != nil:
		item.Dose = &Quantity{Value: *raw.DoseMg, Unit: "mg"}
	case raw.DoseUg != nil:
		item.Dose = &Quantity{Value: *raw.DoseUg, Unit: "µg"}
	case raw.DoseMgPerH != nil:
		item.Dose = &Quantity{Value: *raw.DoseMgPerH, Unit: "mg/h"}
	case raw.DoseUgPerMin != nil:
		item.Dose = &Quantity{Value: *raw.DoseUgPerMin, Unit: "µg/min"}
	case raw.DoseUgPerKgPerMin != nil:
		item.Dose = &Quantity{Value: *raw.DoseUgPerKgPerMin, Unit: "µg/kg/min"}
	case raw.DoseMgPerKg != nil:
		item.Dose = &Quantity{Value: *raw.DoseMgPerKg, Unit: "mg/kg"}
	}

	// A mass dose with a known concentration but no stated volume gets
	// the volume derived once here, not at render time.
	if raw.DoseMg != nil && item.VolumeMl == nil && raw.ConcMgPerMl != nil {
		volume, err := dosing.VolumeFromConcentration(*raw.DoseMg, *raw.ConcMgPerMl)
		if err != nil {
			return Item{}, fmt.Errorf("item %q: %w", name, err)
		}
		item.VolumeMl = &volume
	}

	hasNumeric := item.Dose != nil || item.VolumeMl != nil || item.RateMlPerH != nil
	hasText := len(raw.Text) > 0

	switch {
	case hasNumeric:
		item.Kind = ValueNumeric
		item.Text = raw.Text
	case hasText:
		item.Kind = ValueText
		item.Text = raw.Text
	default:
		return Item{}, fmt.Errorf("item %q has neither numeric fields nor text", name)
	}

	return item, nil
}
