// FilePath: internal/server/server.go
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/terrasense/hub/api"
	"github.com/terrasense/hub/api/middleware"
	"github.com/terrasense/hub/internal/config"
	"github.com/terrasense/hub/internal/database"
	"github.com/terrasense/hub/internal/deviceauth"
	"github.com/terrasense/hub/internal/hubservice"
	"github.com/terrasense/hub/internal/metrics"
	"github.com/terrasense/hub/internal/monitoring"
	"github.com/terrasense/hub/internal/repository/postgres"
	"github.com/terrasense/hub/internal/repository/timescale"
	"github.com/terrasense/hub/internal/tiercache"
	nuts "github.com/vaudience/go-nuts"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	hubservice *hubservice.HubService
	monitoring *monitoring.Service
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
	}
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Initialize services
	s.hubservice = initializeHubService(s.config)
	if err := s.hubservice.Validate(); err != nil {
		return err
	}
	s.monitoring = monitoring.NewService(monitoring.Config{
		PrometheusEndpoint: s.config.Monitoring.PrometheusEndpoint,
		LokiEndpoint:       s.config.Monitoring.LokiEndpoint,
	})

	// Set up cleanup event handlers and the retention sweep
	s.setupCleanupHandlers()
	s.startRetentionSweep()

	// Setup routes
	router := api.NewRouter(s.hubservice, middleware.KeycloakConfig{
		URL:          s.config.Keycloak.URL,
		Realm:        s.config.Keycloak.Realm,
		ClientID:     s.config.Keycloak.ClientID,
		ClientSecret: s.config.Keycloak.ClientSecret,
	})
	router.SetHealthCheck(s.handleHealth())

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)

	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      handlers.CombinedLoggingHandler(os.Stdout, corsHandler(router)),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
	}

	// Start server
	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// handleHealth returns a simple health check handler
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","version":"` + nuts.GetVersion() + `"}`))
	}
}

func (s *Server) setupCleanupHandlers() {
	// Handle device deletion events
	s.hubservice.Cleanup.OnCleanup("device.deleted", func(id string) {
		nuts.L.Infof("[Cleanup] Device %s and all associated data deleted", id)
		s.monitoring.RecordEvent("device_deletion", map[string]string{
			"device_id": id,
		})
	})

	// Handle readings deletion events
	s.hubservice.Cleanup.OnCleanup("readings.deleted", func(id string) {
		nuts.L.Infof("[Cleanup] All readings for device %s deleted", id)
		s.monitoring.RecordEvent("readings_deletion", map[string]string{
			"device_id": id,
		})
	})

	// Handle retention purge events
	s.hubservice.Cleanup.OnCleanup("readings.purged", func(cutoff string) {
		s.monitoring.RecordEvent("readings_retention_purge", map[string]string{
			"cutoff": cutoff,
		})
	})
}

// startRetentionSweep periodically drops readings past the configured max age.
func (s *Server) startRetentionSweep() {
	maxAge := s.config.Retention.ReadingsMaxAge
	interval := s.config.Retention.SweepInterval
	if maxAge <= 0 || interval <= 0 {
		nuts.L.Infof("[Server] Readings retention sweep disabled")
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if err := s.hubservice.Cleanup.PurgeOldReadings(ctx, maxAge); err != nil {
				nuts.L.Errorf("[Server] Readings retention sweep failed: %v", err)
			}
			cancel()
		}
	}()
}

// initializeHubService creates and configures the hub service
func initializeHubService(cfg *config.Config) *hubservice.HubService {
	// Initialize database connections
	tsdb := initTimescaleDB(cfg.Database.TimescaleDB)
	appDB := initAppDB(cfg.Database.AppDB)

	// Initialize repositories
	devices := postgres.NewDeviceRepository(appDB)
	profiles := postgres.NewProfileRepository(appDB)
	settings := postgres.NewNotificationSettingRepository(appDB)
	notifications := postgres.NewNotificationRepository(appDB)

	readings, err := timescale.NewReadingRepository(tsdb)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to initialize reading repository: %v", err)
	}

	tiers := tiercache.New(cfg.Redis)
	signer := deviceauth.NewSigner(cfg.DeviceAuth.SigningSecret, cfg.DeviceAuth.Issuer, cfg.DeviceAuth.TokenTTL)
	soilCal := metrics.SoilCalibration{
		DryCount: cfg.Calibration.SoilDryCount,
		WetCount: cfg.Calibration.SoilWetCount,
	}

	// Create and return hub service
	return hubservice.New(devices, readings, profiles, settings, notifications, tiers, signer, soilCal)
}

func initTimescaleDB(cfg config.PostgresConfig) database.DB {
	wrappedDB, err := database.NewTimescaleDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to TimescaleDB: %v", err)
	}
	db := wrappedDB.GetDB()
	err = db.Ping()
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to ping TimescaleDB: %v", err)
	}
	// Verify TimescaleDB extension
	var hasTimescaleDB bool
	err = db.Get(&hasTimescaleDB, "SELECT EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'timescaledb')")
	if err != nil || !hasTimescaleDB {
		nuts.L.Fatalf("[Server] TimescaleDB extension not available")
	}
	// Set up connection timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping database: %v", err)
	}
	return wrappedDB
}

func initAppDB(cfg config.PostgresConfig) database.DB {
	wrappedDB, err := database.NewPostgresDB(cfg)
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to connect to AppDB: %v", err)
	}
	db := wrappedDB.GetDB()
	err = db.Ping()
	if err != nil {
		nuts.L.Fatalf("[Server] Failed to ping AppDB: %v", err)
	}
	// Set up connection timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		nuts.L.Fatalf("[Server] Failed to ping database: %v", err)
	}
	return wrappedDB
}
