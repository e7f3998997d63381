// Package posology implements the weight-banded reference sheets: one
// entry per card weight bundling vital-sign ranges, airway-equipment
// sizing and per-drug prepared doses. Entries are normalized into a single
// strict shape at load time; the lookup path never branches on shape.
package posology

import (
	"math"
	"sort"
)

// UpperBoundPolicy decides what FindByWeight returns for query weights
// above the highest card.
type UpperBoundPolicy string

const (
	// UpperBoundClamp returns the highest card as an extrapolation ceiling.
	UpperBoundClamp UpperBoundPolicy = "clamp"
	// UpperBoundNone returns no entry above the highest card.
	UpperBoundNone UpperBoundPolicy = "none"
)

// Vitals holds the normal ranges printed at the top of each card.
type Vitals struct {
	FCMin   int    `json:"fc_min"`
	FCMax   int    `json:"fc_max"`
	PASText string `json:"pas"`
	FRMin   int    `json:"fr_min"`
	FRMax   int    `json:"fr_max"`
}

// Airway holds intubation equipment sizing for the card weight.
type Airway struct {
	Blade         string  `json:"lame"`
	TubeType      string  `json:"tube_type,omitempty"`
	TubeSize      float64 `json:"tube_size,omitempty"`
	DepthCm       float64 `json:"distance_cm,omitempty"`
	GastricTubeCh int     `json:"sng_ch,omitempty"`
}

// ValueKind tags the two shapes a normalized sheet item can take.
type ValueKind string

const (
	ValueNumeric ValueKind = "numeric"
	ValueText    ValueKind = "text"
)

// Quantity is a numeric value with its display unit ("mg", "µg/kg/min").
type Quantity struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// Item is one named line inside a sheet section: either a numeric
// dose/volume/rate bundle or free-text guidance, never both missing.
type Item struct {
	Name         string    `json:"name"`
	Kind         ValueKind `json:"kind"`
	Dose         *Quantity `json:"dose,omitempty"`
	VolumeMl     *float64  `json:"volume_ml,omitempty"`
	RateMlPerH   *float64  `json:"rate_ml_per_h,omitempty"`
	ConcMgPerMl  *float64  `json:"conc_mg_per_ml,omitempty"`
	AdminOverMin *float64  `json:"admin_over_min,omitempty"`
	Text         []string  `json:"text,omitempty"`
}

// Section is an ordered list of items under one card heading.
type Section struct {
	Items []Item `json:"items"`
}

// SheetEntry is one fully normalized reference card. A section absent from
// the map renders as "no data" downstream.
type SheetEntry struct {
	WeightKg float64            `json:"weight_kg"`
	AgeLabel string             `json:"age_label,omitempty"`
	Vitals   Vitals             `json:"constantes"`
	Airway   Airway             `json:"iot"`
	Sections map[string]Section `json:"sections"`
}

// Table is an immutable set of sheet entries ordered by card weight.
type Table struct {
	entries []SheetEntry
	policy  UpperBoundPolicy
}

// NewTable builds a lookup table from normalized entries. The slice is
// copied and sorted; callers keep no handle on the internal order.
func NewTable(entries []SheetEntry, policy UpperBoundPolicy) *Table {
	sorted := make([]SheetEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].WeightKg < sorted[j].WeightKg
	})

	if policy != UpperBoundNone {
		policy = UpperBoundClamp
	}

	return &Table{entries: sorted, policy: policy}
}

// Len returns the number of cards in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// MinWeightKg returns the lowest card weight, 0 for an empty table.
func (t *Table) MinWeightKg() float64 {
	if len(t.entries) == 0 {
		return 0
	}
	return t.entries[0].WeightKg
}

// MaxWeightKg returns the highest card weight, 0 for an empty table.
func (t *Table) MaxWeightKg() float64 {
	if len(t.entries) == 0 {
		return 0
	}
	return t.entries[len(t.entries)-1].WeightKg
}

// FindByWeight selects the card for a query weight: the exact card when
// one exists, otherwise the closest card below. Below the lowest card
// there is no data (dosing under the reference floor follows protocols not
// modeled here). Above the highest card the configured policy applies.
func (t *Table) FindByWeight(weightKg float64) *SheetEntry {
	if len(t.entries) == 0 || weightKg <= 0 || math.IsNaN(weightKg) || math.IsInf(weightKg, 0) {
		return nil
	}

	if weightKg < t.entries[0].WeightKg {
		return nil
	}

	if weightKg > t.MaxWeightKg() && t.policy == UpperBoundNone {
		return nil
	}

	// Largest card weight not exceeding the query weight.
	idx := sort.Search(len(t.entries), func(i int) bool {
		return t.entries[i].WeightKg > weightKg
	}) - 1

	entry := t.entries[idx]
	return &entry
}
