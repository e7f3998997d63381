package interfaces

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pediago/pediago-api/catalog"
	"github.com/pediago/pediago-api/dosing"
)

// MockDataStore implements DataStore interface for testing
type MockDataStore struct {
	catalog     *catalog.Catalog
	lastUpdated time.Time
	updating    bool
}

func (m *MockDataStore) GetCatalog() *catalog.Catalog {
	if m.catalog == nil {
		return catalog.Empty()
	}
	return m.catalog
}

func (m *MockDataStore) GetLastUpdated() time.Time {
	return m.lastUpdated
}

func (m *MockDataStore) IsUpdating() bool {
	return m.updating
}

func (m *MockDataStore) GetServerStartTime() time.Time {
	return time.Time{}
}

func (m *MockDataStore) UpdateCatalog(c *catalog.Catalog) {
	m.catalog = c
	m.lastUpdated = time.Now()
}

func (m *MockDataStore) BeginUpdate() bool {
	if m.updating {
		return false
	}
	m.updating = true
	return true
}

func (m *MockDataStore) EndUpdate() {
	m.updating = false
}

// MockCatalogParser implements CatalogParser interface for testing
type MockCatalogParser struct {
	shouldFail bool
}

func (m *MockCatalogParser) ParseCatalog() (*catalog.Catalog, error) {
	if m.shouldFail {
		return nil, &mockError{"parse failed"}
	}
	c := catalog.Empty()
	c.Drugs = []catalog.Drug{{ID: "adrenaline-im", Name: "Adrénaline", Route: "IM"}}
	c.DrugsByID["adrenaline-im"] = c.Drugs[0]
	return c, nil
}

// MockScheduler implements Scheduler interface for testing
type MockScheduler struct {
	started bool
	stopped bool
}

func (m *MockScheduler) Start() error {
	if m.started {
		return &mockError{"already started"}
	}
	m.started = true
	return nil
}

func (m *MockScheduler) Stop() {
	m.stopped = true
}

// MockHTTPHandler implements HTTPHandler interface for testing
type MockHTTPHandler struct {
	responseCode int
	responseBody string
}

func (m *MockHTTPHandler) respond(w http.ResponseWriter) {
	w.WriteHeader(m.responseCode)
	_, _ = w.Write([]byte(m.responseBody))
}

func (m *MockHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request)          { m.respond(w) }
func (m *MockHTTPHandler) ListProtocols(w http.ResponseWriter, r *http.Request)      { m.respond(w) }
func (m *MockHTTPHandler) FindProtocol(w http.ResponseWriter, r *http.Request)       { m.respond(w) }
func (m *MockHTTPHandler) ServeProtocolDoses(w http.ResponseWriter, r *http.Request) { m.respond(w) }
func (m *MockHTTPHandler) ListDrugs(w http.ResponseWriter, r *http.Request)          { m.respond(w) }
func (m *MockHTTPHandler) FindDrug(w http.ResponseWriter, r *http.Request)           { m.respond(w) }
func (m *MockHTTPHandler) ResolveDose(w http.ResponseWriter, r *http.Request)        { m.respond(w) }
func (m *MockHTTPHandler) ServePosology(w http.ResponseWriter, r *http.Request)      { m.respond(w) }
func (m *MockHTTPHandler) DeriveVolume(w http.ResponseWriter, r *http.Request)       { m.respond(w) }
func (m *MockHTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request)        { m.respond(w) }

// MockDataValidator implements DataValidator interface for testing
type MockDataValidator struct {
	shouldFail bool
}

func (m *MockDataValidator) ValidateRule(drugID string, rule dosing.DosingRule) error {
	if m.shouldFail {
		return fmt.Errorf("validation failed")
	}
	return nil
}

func (m *MockDataValidator) ValidateOverrides(drugID string, overrides []dosing.WeightOverride) error {
	if m.shouldFail {
		return fmt.Errorf("validation failed")
	}
	return nil
}

func (m *MockDataValidator) ValidateCatalogIntegrity(c *catalog.Catalog) error {
	if m.shouldFail {
		return fmt.Errorf("validation failed")
	}
	return nil
}

func (m *MockDataValidator) ReportDataQuality(c *catalog.Catalog) *DataQualityReport {
	return &DataQualityReport{}
}

func (m *MockDataValidator) ValidateInput(input string) error {
	if m.shouldFail {
		return fmt.Errorf("input validation failed")
	}
	return nil
}

func (m *MockDataValidator) ParseWeight(input string) (float64, error) {
	if m.shouldFail {
		return 0, fmt.Errorf("weight validation failed")
	}
	val, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return 0, fmt.Errorf("input is not a number")
	}
	return val, nil
}

func (m *MockDataValidator) ValidateDrugID(input string) (string, error) {
	if m.shouldFail {
		return "", fmt.Errorf("drug id validation failed")
	}
	return strings.ToLower(input), nil
}

// mockError is a simple error type for testing
type mockError struct {
	msg string
}

func (e *mockError) Error() string {
	return e.msg
}

func TestDataStoreInterface(t *testing.T) {
	store := &MockDataStore{}

	if store.GetCatalog().Sheets.Len() != 0 {
		t.Error("empty store should serve an empty catalog")
	}

	parser := &MockCatalogParser{}
	c, err := parser.ParseCatalog()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	store.UpdateCatalog(c)

	if len(store.GetCatalog().Drugs) != 1 {
		t.Errorf("Expected 1 drug, got %d", len(store.GetCatalog().Drugs))
	}
	if store.GetLastUpdated().IsZero() {
		t.Error("UpdateCatalog should stamp lastUpdated")
	}
}

func TestCatalogParserInterface(t *testing.T) {
	parser := &MockCatalogParser{shouldFail: true}
	if _, err := parser.ParseCatalog(); err == nil {
		t.Error("Expected error but got none")
	}
}

func TestSchedulerInterface(t *testing.T) {
	scheduler := &MockScheduler{}

	if err := scheduler.Start(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if !scheduler.started {
		t.Error("Scheduler should be started")
	}

	scheduler.Stop()
	if !scheduler.stopped {
		t.Error("Scheduler should be stopped")
	}
}

func TestHTTPHandlerInterface(t *testing.T) {
	handler := &MockHTTPHandler{
		responseCode: http.StatusOK,
		responseBody: "test response",
	}

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if w.Body.String() != "test response" {
		t.Errorf("Expected body 'test response', got '%s'", w.Body.String())
	}
}

func TestDataValidatorInterface(t *testing.T) {
	validator := &MockDataValidator{shouldFail: false}

	if err := validator.ValidateRule("adrenaline-im", dosing.DosingRule{Basis: dosing.BasisPerKg, MgPerKg: 0.01}); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if _, err := validator.ParseWeight("12.5"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	validator = &MockDataValidator{shouldFail: true}
	if err := validator.ValidateRule("adrenaline-im", dosing.DosingRule{}); err == nil {
		t.Error("Expected validation error but got none")
	}
}

// Example of how interfaces enable dependency injection
type Service struct {
	dataStore DataStore
	parser    CatalogParser
	scheduler Scheduler
}

func NewService(dataStore DataStore, parser CatalogParser, scheduler Scheduler) *Service {
	return &Service{
		dataStore: dataStore,
		parser:    parser,
		scheduler: scheduler,
	}
}

func (s *Service) DrugCount() int {
	return len(s.dataStore.GetCatalog().Drugs)
}

func TestServiceWithDependencyInjection(t *testing.T) {
	mockStore := &MockDataStore{}
	mockParser := &MockCatalogParser{}
	mockScheduler := &MockScheduler{}

	service := NewService(mockStore, mockParser, mockScheduler)

	c, err := mockParser.ParseCatalog()
	if err != nil {
		t.Fatal(err)
	}
	mockStore.UpdateCatalog(c)

	if service.DrugCount() != 1 {
		t.Errorf("Expected 1 drug, got %d", service.DrugCount())
	}
}

// Compile-time checks to ensure our implementations implement the interfaces
func TestCompileTimeChecks(t *testing.T) {
	var _ DataStore = (*MockDataStore)(nil)
	var _ CatalogParser = (*MockCatalogParser)(nil)
	var _ Scheduler = (*MockScheduler)(nil)
	var _ HTTPHandler = (*MockHTTPHandler)(nil)
	var _ DataValidator = (*MockDataValidator)(nil)
}
