// Package validation provides reference data and input validation for the
// pediatric dosing API.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pediago/pediago-api/catalog"
	"github.com/pediago/pediago-api/dosing"
	"github.com/pediago/pediago-api/interfaces"
	"github.com/pediago/pediago-api/logging"
)

// Weights outside this range are either typos or out of the pediatric
// scope of the reference data.
const (
	maxQueryWeightKg = 250
)

// Pre-compiled regex patterns for performance optimization
// Compiled once at package initialization and reused for all validations
var (
	// Drug ids and protocol slugs: lowercase alphanumerics and hyphens
	idRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

	// Free-text input: alphanumeric + French accents + safe punctuation
	inputRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.\+'àâäéèêëïîôöùûüÿç]+$`)

	// Dangerous patterns as strings (faster than regex for simple substring matching)
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "sp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
	}
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateRule checks one dosing rule for internal consistency
func (v *DataValidatorImpl) ValidateRule(drugID string, rule dosing.DosingRule) error {
	switch rule.Basis {
	case dosing.BasisPerKg:
		if rule.MgPerKg <= 0 || math.IsNaN(rule.MgPerKg) || math.IsInf(rule.MgPerKg, 0) {
			return fmt.Errorf("rule %s: per-kg factor must be positive, got %v", drugID, rule.MgPerKg)
		}
	case dosing.BasisFixed, dosing.BasisAgeRange:
		// Non-numeric rules have nothing to compute from; the note is
		// the whole payload.
		if strings.TrimSpace(rule.Notes) == "" {
			return fmt.Errorf("rule %s: %s basis requires notes", drugID, rule.Basis)
		}
	default:
		return fmt.Errorf("rule %s: unknown basis %q", drugID, rule.Basis)
	}

	if rule.RoundingStepMg < 0 || math.IsNaN(rule.RoundingStepMg) || math.IsInf(rule.RoundingStepMg, 0) {
		return fmt.Errorf("rule %s: invalid rounding step %v", drugID, rule.RoundingStepMg)
	}
	if rule.MaxSingleDoseMg < 0 || math.IsNaN(rule.MaxSingleDoseMg) || math.IsInf(rule.MaxSingleDoseMg, 0) {
		return fmt.Errorf("rule %s: invalid max single dose %v", drugID, rule.MaxSingleDoseMg)
	}
	if rule.MaxDailyMg < 0 || math.IsNaN(rule.MaxDailyMg) || math.IsInf(rule.MaxDailyMg, 0) {
		return fmt.Errorf("rule %s: invalid max daily dose %v", drugID, rule.MaxDailyMg)
	}

	return nil
}

// ValidateOverrides checks an override table for malformed bands and
// overlaps. Two bands matching the same weight would make resolution
// depend on table order, so overlap is a load failure, not a runtime
// tiebreak.
func (v *DataValidatorImpl) ValidateOverrides(drugID string, overrides []dosing.WeightOverride) error {
	for i, o := range overrides {
		if o.MinKg <= 0 || math.IsNaN(o.MinKg) || math.IsInf(o.MinKg, 0) {
			return fmt.Errorf("override %s[%d]: non-positive min_kg %v", drugID, i, o.MinKg)
		}
		if o.MaxKg < o.MinKg || math.IsNaN(o.MaxKg) || math.IsInf(o.MaxKg, 0) {
			return fmt.Errorf("override %s[%d]: max_kg %v below min_kg %v", drugID, i, o.MaxKg, o.MinKg)
		}
		if o.DoseMg < 0 || math.IsNaN(o.DoseMg) || math.IsInf(o.DoseMg, 0) {
			return fmt.Errorf("override %s[%d]: invalid dose_mg %v", drugID, i, o.DoseMg)
		}
	}

	if len(overrides) < 2 {
		return nil
	}

	sorted := make([]dosing.WeightOverride, len(overrides))
	copy(sorted, overrides)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinKg < sorted[j].MinKg })

	for i := 1; i < len(sorted); i++ {
		// Bands are inclusive on both ends, a shared boundary is an overlap.
		if sorted[i].MinKg <= sorted[i-1].MaxKg {
			return fmt.Errorf("override %s: bands [%v-%v] and [%v-%v] overlap",
				drugID, sorted[i-1].MinKg, sorted[i-1].MaxKg, sorted[i].MinKg, sorted[i].MaxKg)
		}
	}

	return nil
}

// ValidateCatalogIntegrity performs comprehensive catalog validation
func (v *DataValidatorImpl) ValidateCatalogIntegrity(c *catalog.Catalog) error {
	if c == nil {
		return fmt.Errorf("catalog is nil")
	}

	if len(c.Drugs) == 0 {
		return fmt.Errorf("no drugs found")
	}

	seen := make(map[string]bool, len(c.Drugs))
	for _, d := range c.Drugs {
		if strings.TrimSpace(d.ID) == "" {
			return fmt.Errorf("drug with empty id")
		}
		if !idRegex.MatchString(d.ID) {
			return fmt.Errorf("drug id %q is not a valid slug", d.ID)
		}
		if seen[d.ID] {
			return fmt.Errorf("duplicate drug id: %s", d.ID)
		}
		seen[d.ID] = true

		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("empty name for drug %s", d.ID)
		}
		if len(d.Name) > 200 {
			return fmt.Errorf("name too long for drug %s: %d characters", d.ID, len(d.Name))
		}
	}

	for id, rule := range c.Rules {
		if err := v.ValidateRule(id, rule); err != nil {
			return err
		}
	}
	for id, overrides := range c.Overrides {
		if err := v.ValidateOverrides(id, overrides); err != nil {
			return err
		}
	}

	if len(c.Protocols) == 0 {
		return fmt.Errorf("no protocols found")
	}

	slugs := make(map[string]bool, len(c.Protocols))
	for _, p := range c.Protocols {
		if !idRegex.MatchString(p.Slug) {
			return fmt.Errorf("protocol slug %q is not a valid slug", p.Slug)
		}
		if slugs[p.Slug] {
			return fmt.Errorf("duplicate protocol slug: %s", p.Slug)
		}
		slugs[p.Slug] = true

		if strings.TrimSpace(p.Title) == "" {
			return fmt.Errorf("empty title for protocol %s", p.Slug)
		}
		for _, id := range p.DrugIDs {
			if !seen[id] {
				return fmt.Errorf("protocol %s references unknown drug %s", p.Slug, id)
			}
		}
	}

	if c.Sheets == nil || c.Sheets.Len() == 0 {
		return fmt.Errorf("no posology cards found")
	}

	return nil
}

// ReportDataQuality generates a data quality report with all issues found.
// Quality issues are advisory; only ValidateCatalogIntegrity failures block
// a catalog swap.
func (v *DataValidatorImpl) ReportDataQuality(c *catalog.Catalog) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DrugsWithoutRules:     []string{},
		RulesWithoutDrugs:     []string{},
		OverridesWithoutDrugs: []string{},
	}
	if c == nil {
		return report
	}

	for _, d := range c.Drugs {
		if _, ok := c.Rules[d.ID]; !ok {
			report.DrugsWithoutRules = append(report.DrugsWithoutRules, d.ID)
		}
	}
	for id, rule := range c.Rules {
		if _, ok := c.DrugsByID[id]; !ok {
			report.RulesWithoutDrugs = append(report.RulesWithoutDrugs, id)
		}
		if rule.Basis != dosing.BasisPerKg {
			report.TextOnlyRules++
		}
	}
	for id := range c.Overrides {
		if _, ok := c.DrugsByID[id]; !ok {
			report.OverridesWithoutDrugs = append(report.OverridesWithoutDrugs, id)
		}
	}
	for _, p := range c.Protocols {
		for _, id := range p.DrugIDs {
			if _, ok := c.DrugsByID[id]; !ok {
				report.ProtocolsMissingDrugs++
				break
			}
		}
	}
	report.ExcludedSheetEntries = c.ExcludedSheetEntries

	sort.Strings(report.DrugsWithoutRules)
	sort.Strings(report.RulesWithoutDrugs)
	sort.Strings(report.OverridesWithoutDrugs)

	if len(report.DrugsWithoutRules) > 0 {
		logging.Warn("Drugs without dosing rules",
			"count", len(report.DrugsWithoutRules),
			"ids", report.DrugsWithoutRules,
		)
	}
	if len(report.RulesWithoutDrugs) > 0 || len(report.OverridesWithoutDrugs) > 0 {
		logging.Warn("Orphan dosing data",
			"rules", report.RulesWithoutDrugs,
			"overrides", report.OverridesWithoutDrugs,
		)
	}

	return report
}

// ValidateInput validates user input strings with enhanced security
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	if len(input) > 50 {
		return fmt.Errorf("input too long: maximum 50 characters")
	}

	// Check for potentially dangerous patterns using string matching (5-10x faster than regex)
	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces, hyphens, apostrophes, periods, plus sign, and common French accented characters are allowed")
	}

	return nil
}

// ParseWeight validates and parses a weight query parameter. The weight
// must be a finite positive number inside the plausible pediatric range.
func (v *DataValidatorImpl) ParseWeight(input string) (float64, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return 0, fmt.Errorf("weight cannot be empty")
	}

	// Tolerate the decimal comma used in French input.
	trimmed = strings.ReplaceAll(trimmed, ",", ".")

	w, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("weight must be a number")
	}
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, fmt.Errorf("weight must be a finite number")
	}
	if w <= 0 {
		return 0, fmt.Errorf("weight must be positive")
	}
	if w > maxQueryWeightKg {
		return 0, fmt.Errorf("weight above %d kg is outside the supported range", maxQueryWeightKg)
	}

	return w, nil
}

// ValidateDrugID validates a drug id path parameter
func (v *DataValidatorImpl) ValidateDrugID(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", fmt.Errorf("drug id cannot be empty")
	}
	if len(trimmed) > 50 {
		return "", fmt.Errorf("drug id too long: maximum 50 characters")
	}

	id := strings.ToLower(trimmed)
	if !idRegex.MatchString(id) {
		return "", fmt.Errorf("drug id must contain only letters, numbers and hyphens")
	}

	return id, nil
}
