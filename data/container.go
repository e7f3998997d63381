// Package data provides thread-safe storage for the reference catalog.
// It includes the DataContainer struct with atomic operations for
// zero-downtime catalog reloads.
package data

import (
	"sync/atomic"
	"time"

	"github.com/pediago/pediago-api/catalog"
	"github.com/pediago/pediago-api/interfaces"
	"github.com/pediago/pediago-api/logging"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// DataContainer holds the active catalog behind an atomic pointer so a
// reload replaces the whole value without blocking readers.
type DataContainer struct {
	catalog         atomic.Value // *catalog.Catalog
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with an empty catalog
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.catalog.Store(catalog.Empty())
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{})
	return dc
}

// GetCatalog returns the active catalog. Callers must treat it as
// read-only; a reload stores a fresh value instead of mutating this one.
func (dc *DataContainer) GetCatalog() *catalog.Catalog {
	if v := dc.catalog.Load(); v != nil {
		if c, ok := v.(*catalog.Catalog); ok {
			return c
		}
	}

	logging.Warn("Catalog is empty or invalid")
	return catalog.Empty()
}

// GetLastUpdated returns the timestamp of the last catalog reload
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a catalog reload is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateCatalog atomically swaps in a new catalog (zero downtime
// replacement). Passing nil is ignored so a failed reload can never
// blank the running data.
func (dc *DataContainer) UpdateCatalog(c *catalog.Catalog) {
	if c == nil {
		logging.Warn("Ignoring nil catalog update")
		return
	}
	dc.catalog.Store(c)
	dc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a catalog reload
// Returns true if the reload can proceed, false if another is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a catalog reload
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
