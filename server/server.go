// Package server provides HTTP server management and lifecycle handling for
// the pediatric dosing API. It includes server setup, middleware
// configuration, route management, and graceful shutdown capabilities with
// proper error handling and logging.
package server

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pediago/pediago-api/config"
	"github.com/pediago/pediago-api/data"
	"github.com/pediago/pediago-api/handlers"
	"github.com/pediago/pediago-api/interfaces"
	"github.com/pediago/pediago-api/logging"
	"github.com/pediago/pediago-api/metrics"
	"github.com/pediago/pediago-api/scheduler"
	"github.com/pediago/pediago-api/validation"
)

// Global server start time
var serverStartTime = time.Now()

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// Server represents the HTTP server
type Server struct {
	server        *http.Server
	router        chi.Router
	dataContainer *data.DataContainer
	validator     interfaces.DataValidator
	config        *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, dataContainer *data.DataContainer) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:        router,
		dataContainer: dataContainer,
		validator:     validation.NewDataValidator(),
		config:        cfg,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(BlockDirectAccessMiddleware) // Put BEFORE RealIPMiddleware to see original RemoteAddr
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.RequestLogger(logging.Logger()))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	s.router.Use(metrics.Metrics)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(RateLimitHandler)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// API routes
	s.router.Get("/protocols", handlers.ListProtocols(s.dataContainer))
	s.router.Get("/protocols/{slug}", handlers.FindProtocol(s.dataContainer))
	s.router.Get("/protocols/{slug}/doses", handlers.ServeProtocolDoses(s.dataContainer, s.validator))
	s.router.Get("/drugs", handlers.ListDrugs(s.dataContainer))
	s.router.Get("/drugs/{drugId}", handlers.FindDrug(s.dataContainer, s.validator))
	s.router.Get("/dose/{drugId}", handlers.ResolveDose(s.dataContainer, s.validator))
	s.router.Get("/posology", handlers.ServePosology(s.dataContainer, s.validator))
	s.router.Get("/volume", handlers.DeriveVolume(s.dataContainer))
	s.router.Get("/health", handlers.HealthCheck(s.dataContainer))
	s.router.Handle("/metrics", promhttp.Handler())

	// Documentation routes
	s.setupDocumentationRoutes()
}

// setupDocumentationRoutes configures documentation and static file routes
func (s *Server) setupDocumentationRoutes() {
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600") // 1 hour
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		http.ServeFile(w, r, "html/index.html")
	})

	s.router.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000") // 1 year
		w.Header().Set("Content-Type", "image/x-icon")
		http.ServeFile(w, r, "html/favicon.ico")
	})
}

// Start starts the server
func (s *Server) Start() error {
	// Start profiling server if in development mode
	if s.config.Env == "dev" {
		s.startProfilingServer()
	}

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	// Wait a bit for any ongoing requests to complete
	logging.Info("Waiting for ongoing requests to complete...")
	time.Sleep(2 * time.Second)

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		fmt.Println("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			fmt.Println("Profiling server failed: ", err)
		}
	}()
}

// HealthData represents health check response data
type HealthData struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	MemoryUsage   int    `json:"memory_usage_mb"`
	LastUpdate    string `json:"last_update"`
	NextUpdate    string `json:"next_update"`
	IsUpdating    bool   `json:"is_updating"`
	DrugCount     int    `json:"drug_count"`
	ProtocolCount int    `json:"protocol_count"`
	PosologyCards int    `json:"posology_cards"`
}

// GetHealthData returns current health statistics
func (s *Server) GetHealthData() HealthData {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	memoryUsageMB := int(m.Alloc / 1024 / 1024)

	uptime := time.Since(serverStartTime)

	c := s.dataContainer.GetCatalog()
	lastUpdate := s.dataContainer.GetLastUpdated()
	isUpdating := s.dataContainer.IsUpdating()

	return HealthData{
		Status:        "healthy",
		Uptime:        formatUptimeHuman(uptime),
		MemoryUsage:   memoryUsageMB,
		LastUpdate:    lastUpdate.Format(time.RFC3339),
		NextUpdate:    scheduler.CalculateNextUpdate().Format(time.RFC3339),
		IsUpdating:    isUpdating,
		DrugCount:     len(c.Drugs),
		ProtocolCount: len(c.Protocols),
		PosologyCards: c.Sheets.Len(),
	}
}
