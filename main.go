// Pediago API serves pediatric emergency dosing data: protocols, weight
// banded posology cards and per-drug dose calculation. The catalog is held
// in memory behind atomic pointers and reloaded on a schedule with zero
// downtime.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pediago/pediago-api/catalog"
	"github.com/pediago/pediago-api/config"
	"github.com/pediago/pediago-api/data"
	"github.com/pediago/pediago-api/logging"
	"github.com/pediago/pediago-api/posology"
	"github.com/pediago/pediago-api/scheduler"
	"github.com/pediago/pediago-api/server"
	"github.com/pediago/pediago-api/validation"
)

func main() {
	// Read the env variables; a missing .env file next to the working
	// directory may just mean we run from the executable's directory.
	if err := godotenv.Load(); err != nil {
		if ex, exErr := os.Executable(); exErr == nil {
			if chErr := os.Chdir(filepath.Dir(ex)); chErr == nil {
				_ = godotenv.Load()
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLoggerWithOptions("logs", cfg.LogRetentionWeeks, cfg.MaxLogFileSize)

	dataContainer := data.NewDataContainer()
	dataContainer.SetServerStartTime(time.Now())

	parser := catalog.NewParser(cfg.DataDir, posology.UpperBoundPolicy(cfg.PosologyUpperBound))
	validator := validation.NewDataValidator()

	sched := scheduler.NewScheduler(dataContainer, parser, validator)
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	srv := server.NewServer(cfg, dataContainer)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown error", "error", err)
		os.Exit(1)
	}
}
