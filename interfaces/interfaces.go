// Package interfaces defines core abstractions for the pediatric dosing
// API to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"net/http"
	"time"

	"github.com/pediago/pediago-api/catalog"
	"github.com/pediago/pediago-api/dosing"
)

// DataQualityReport provides a summary of reference data quality issues
type DataQualityReport struct {
	DrugsWithoutRules     []string // Drug ids with no dosing rule registered
	RulesWithoutDrugs     []string // Rule keys that match no cataloged drug
	OverridesWithoutDrugs []string // Override tables that match no cataloged drug
	ProtocolsMissingDrugs int      // Protocols referencing at least one unknown drug
	TextOnlyRules         int      // Rules with no numeric formula (fixed/range basis)
	ExcludedSheetEntries  int      // Posology cards dropped during normalization
}

// DataStore defines the contract for catalog storage operations.
// It provides thread-safe access to the reference catalog with atomic
// operations for zero-downtime updates.
type DataStore interface {
	GetCatalog() *catalog.Catalog
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateCatalog(c *catalog.Catalog)
	BeginUpdate() bool
	EndUpdate()
}

// CatalogParser defines the contract for building a catalog from the
// reference data files.
type CatalogParser interface {
	ParseCatalog() (*catalog.Catalog, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages automated catalog reloads and staleness checks.
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)

	ListProtocols(w http.ResponseWriter, r *http.Request)
	FindProtocol(w http.ResponseWriter, r *http.Request)
	ServeProtocolDoses(w http.ResponseWriter, r *http.Request)
	ListDrugs(w http.ResponseWriter, r *http.Request)
	FindDrug(w http.ResponseWriter, r *http.Request)
	ResolveDose(w http.ResponseWriter, r *http.Request)
	ServePosology(w http.ResponseWriter, r *http.Request)
	DeriveVolume(w http.ResponseWriter, r *http.Request)
	// This will stay in all versions
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// DataValidator defines the contract for reference data validation.
// It ensures catalog integrity before a new catalog goes live.
type DataValidator interface {
	// ValidateRule checks one dosing rule for internal consistency
	ValidateRule(drugID string, rule dosing.DosingRule) error

	// ValidateOverrides checks an override table for ordering and overlaps
	ValidateOverrides(drugID string, overrides []dosing.WeightOverride) error

	// ValidateCatalogIntegrity performs comprehensive catalog validation
	ValidateCatalogIntegrity(c *catalog.Catalog) error

	// ReportDataQuality generates a data quality report with all issues found
	ReportDataQuality(c *catalog.Catalog) *DataQualityReport

	// ValidateInput validates user input strings
	ValidateInput(input string) error

	// ParseWeight validates and parses a weight query parameter
	ParseWeight(input string) (float64, error)

	// ValidateDrugID validates a drug id path parameter
	ValidateDrugID(input string) (string, error)
}
