package scheduler

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pediago/pediago-api/catalog"
	"github.com/pediago/pediago-api/data"
	"github.com/pediago/pediago-api/posology"
	"github.com/pediago/pediago-api/validation"
)

type stubParser struct {
	catalog *catalog.Catalog
	err     error
	calls   int
}

func (p *stubParser) ParseCatalog() (*catalog.Catalog, error) {
	p.calls++
	return p.catalog, p.err
}

func embeddedCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.NewParser("", posology.UpperBoundClamp).ParseCatalog()
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	return c
}

func TestReloadCatalog(t *testing.T) {
	dc := data.NewDataContainer()
	parser := &stubParser{catalog: embeddedCatalog(t)}
	s := NewScheduler(dc, parser, validation.NewDataValidator())

	before := dc.GetLastUpdated()
	if err := s.reloadCatalog(); err != nil {
		t.Fatalf("reloadCatalog: %v", err)
	}

	c := dc.GetCatalog()
	if len(c.Drugs) == 0 {
		t.Error("catalog not swapped in")
	}
	if !dc.GetLastUpdated().After(before) {
		t.Error("last updated timestamp not advanced")
	}
	if dc.IsUpdating() {
		t.Error("updating flag still set after reload")
	}
	if parser.calls != 1 {
		t.Errorf("parser called %d times, want 1", parser.calls)
	}
}

func TestReloadCatalogParserError(t *testing.T) {
	dc := data.NewDataContainer()
	parser := &stubParser{err: errors.New("disk gone")}
	s := NewScheduler(dc, parser, validation.NewDataValidator())

	err := s.reloadCatalog()
	if err == nil {
		t.Fatal("expected error from failing parser")
	}
	if !strings.Contains(err.Error(), "failed to parse catalog") {
		t.Errorf("unexpected error: %v", err)
	}
	if len(dc.GetCatalog().Drugs) != 0 {
		t.Error("failed reload must not replace the catalog")
	}
	if dc.IsUpdating() {
		t.Error("updating flag leaked after failed reload")
	}
}

func TestReloadCatalogRejectsInvalid(t *testing.T) {
	// A parsed catalog with no drugs fails integrity validation.
	dc := data.NewDataContainer()
	good := embeddedCatalog(t)
	dc.UpdateCatalog(good)

	parser := &stubParser{catalog: catalog.Empty()}
	s := NewScheduler(dc, parser, validation.NewDataValidator())

	err := s.reloadCatalog()
	if err == nil {
		t.Fatal("expected integrity validation error")
	}
	if !strings.Contains(err.Error(), "integrity") {
		t.Errorf("unexpected error: %v", err)
	}
	if got := dc.GetCatalog(); got != good {
		t.Error("invalid catalog must not replace the running one")
	}
}

func TestReloadCatalogSkipsWhenBusy(t *testing.T) {
	dc := data.NewDataContainer()
	parser := &stubParser{catalog: embeddedCatalog(t)}
	s := NewScheduler(dc, parser, validation.NewDataValidator())

	if !dc.BeginUpdate() {
		t.Fatal("BeginUpdate failed on fresh container")
	}
	defer dc.EndUpdate()

	if err := s.reloadCatalog(); err != nil {
		t.Fatalf("busy reload should be a no-op, got: %v", err)
	}
	if parser.calls != 0 {
		t.Error("parser must not run while another reload holds the lock")
	}
}

func TestCalculateNextUpdate(t *testing.T) {
	next := CalculateNextUpdate()
	now := time.Now()

	if !next.After(now) {
		t.Errorf("next update %v not in the future", next)
	}
	if next.Sub(now) > 24*time.Hour {
		t.Errorf("next update %v more than a day away", next)
	}
	if h := next.Hour(); h != 6 && h != 18 {
		t.Errorf("next update hour = %d, want 6 or 18", h)
	}
	if next.Minute() != 0 || next.Second() != 0 {
		t.Errorf("next update %v not on the hour", next)
	}
}
