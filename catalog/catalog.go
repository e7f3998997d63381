// Package catalog loads the bundled clinical reference data: the drug
// list, dosing rules, weight-override cards, protocol definitions and
// posology sheets. A Catalog is immutable once built; updates replace the
// whole value through the data container.
package catalog

import (
	"github.com/pediago/pediago-api/dosing"
	"github.com/pediago/pediago-api/posology"
)

// Drug is one catalog entry, identified by its route-qualified id
// ("adrenaline-im", "adrenaline-ivse").
type Drug struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Unit  string `json:"unit,omitempty"`
	Route string `json:"route,omitempty"`
	Note  string `json:"note,omitempty"`
}

// Protocol is a clinical protocol and its associated reference content.
type Protocol struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Version     string   `json:"version,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	AccentColor string   `json:"accent_color,omitempty"`
	// DrugIDs lists the drugs shown on the protocol's dosing tab.
	DrugIDs []string `json:"drug_ids,omitempty"`
	// Sections lists the posology sheet sections shown for the
	// protocol, in display order.
	Sections []string `json:"sections,omitempty"`
}

// Catalog bundles all reference data plus the lookup maps built from it.
type Catalog struct {
	Drugs           []Drug
	DrugsByID       map[string]Drug
	Rules           map[string]dosing.DosingRule
	Overrides       map[string][]dosing.WeightOverride
	Protocols       []Protocol
	ProtocolsBySlug map[string]Protocol
	Sheets          *posology.Table
	// ExcludedSheetEntries counts posology entries dropped by load-time
	// normalization, surfaced by the health endpoint.
	ExcludedSheetEntries int
}

// Empty returns a catalog with no data but usable lookup structures.
func Empty() *Catalog {
	return &Catalog{
		Drugs:           []Drug{},
		DrugsByID:       map[string]Drug{},
		Rules:           map[string]dosing.DosingRule{},
		Overrides:       map[string][]dosing.WeightOverride{},
		Protocols:       []Protocol{},
		ProtocolsBySlug: map[string]Protocol{},
		Sheets:          posology.NewTable(nil, posology.UpperBoundClamp),
	}
}

// RuleFor returns the dosing rule and override table for a drug id. The
// second return value is false when no rule is registered, the "dosing
// rule not defined" display case.
func (c *Catalog) RuleFor(drugID string) (dosing.DosingRule, []dosing.WeightOverride, bool) {
	rule, ok := c.Rules[drugID]
	if !ok {
		return dosing.DosingRule{}, nil, false
	}
	return rule, c.Overrides[drugID], true
}
