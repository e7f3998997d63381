// Package scheduler provides automated catalog reload scheduling and health
// monitoring for the pediatric dosing API. It handles cron-based catalog
// refreshes and coordinates reload operations with the data container using
// dependency injection.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/pediago/pediago-api/interfaces"
	"github.com/pediago/pediago-api/logging"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles catalog reloads and health monitoring using dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	parser    interfaces.CatalogParser
	validator interfaces.DataValidator
	scheduler *gocron.Scheduler
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.CatalogParser, validator interfaces.DataValidator) *Scheduler {
	return &Scheduler{
		dataStore: dataStore,
		parser:    parser,
		validator: validator,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start initializes the scheduler with catalog reloads and health monitoring
func (s *Scheduler) Start() error {
	// Initial load
	if err := s.reloadCatalog(); err != nil {
		logging.Error("Failed to perform initial catalog load", "error", err)
		return fmt.Errorf("initial catalog load failed: %w", err)
	}

	// Schedule reloads at 06:00 and 18:00 daily
	_, err := s.scheduler.Every(1).Days().At("06:00;18:00").Do(func() {
		if err := s.reloadCatalog(); err != nil {
			logging.Error("Failed to reload catalog", "error", err)
		}
	})

	if err != nil {
		logging.Error("Failed to schedule reloads", "error", err)
		return fmt.Errorf("failed to schedule reloads: %w", err)
	}

	s.scheduler.StartAsync()

	// Start health monitoring
	s.startHealthMonitoring()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// reloadCatalog performs a complete catalog reload using injected dependencies
func (s *Scheduler) reloadCatalog() error {
	// Prevent concurrent reloads
	if !s.dataStore.BeginUpdate() {
		logging.Info("Reload already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	logging.Info(fmt.Sprintf("Starting catalog reload at: %s", time.Now().Format(time.RFC3339)))
	start := time.Now()

	newCatalog, err := s.parser.ParseCatalog()
	if err != nil {
		logging.Error("Failed to parse catalog", "error", err)
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	// A catalog that fails integrity checks never replaces the running one
	if err := s.validator.ValidateCatalogIntegrity(newCatalog); err != nil {
		logging.Error("Catalog failed integrity validation", "error", err)
		return fmt.Errorf("catalog integrity validation failed: %w", err)
	}

	report := s.validator.ReportDataQuality(newCatalog)

	// Atomic swap using injected data store
	s.dataStore.UpdateCatalog(newCatalog)

	elapsed := time.Since(start)
	logging.Info("Catalog reload completed",
		"duration", elapsed.String(),
		"drug_count", len(newCatalog.Drugs),
		"protocol_count", len(newCatalog.Protocols),
		"posology_cards", newCatalog.Sheets.Len(),
		"text_only_rules", report.TextOnlyRules,
	)

	return nil
}

// startHealthMonitoring monitors the freshness of the catalog reloads
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			lastUpdate := s.dataStore.GetLastUpdated()
			if time.Since(lastUpdate) > 25*time.Hour {
				logging.Warn("Catalog hasn't been reloaded in over 25 hours")
			}
		}
	}()
}

// CalculateNextUpdate returns the next scheduled reload time (06:00 or 18:00)
func CalculateNextUpdate() time.Time {
	now := time.Now()

	sixAM := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())
	sixPM := time.Date(now.Year(), now.Month(), now.Day(), 18, 0, 0, 0, now.Location())

	switch {
	case now.Before(sixAM):
		return sixAM
	case now.Before(sixPM):
		return sixPM
	default:
		return sixAM.AddDate(0, 0, 1)
	}
}
