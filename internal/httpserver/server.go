package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/mbaird/fediback/internal/config"
	"github.com/mbaird/fediback/internal/domain"
)

// Server is the HTTP server exposing the status read API, the settings
// editing API, and the manual run trigger.
type Server struct {
	cfg        *config.Config
	backup     *domain.BackupService
	settings   domain.SettingsStore
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates a new HTTP server around the given backup service and
// settings store.
func NewServer(cfg *config.Config, backup *domain.BackupService, settings domain.SettingsStore, logger *slog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		backup:   backup,
		settings: settings,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(withLogging(logger))
	// The settings UI is served from another origin; all endpoints answer
	// preflights and echo a wildcard origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/settings", s.handleGetSettings)
	r.Post("/api/settings", s.handleSaveSettings)
	r.Post("/api/run", s.handleRun)

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// The run trigger executes a full backup pass synchronously.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus returns the retention-windowed outcome history. It is
// read-only: even when the most recent run failed fatally, the best-known
// history is served.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	entries, err := s.backup.Status(r.Context())
	if err != nil {
		s.logger.Error("failed to read status ledger", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch status")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.LoadSettings(r.Context())
	if err != nil {
		s.logger.Error("failed to load settings", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch settings")
		return
	}
	if settings == nil {
		writeError(w, http.StatusNotFound, "No settings stored")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		s.logger.Warn("rejected malformed settings payload", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to save settings")
		return
	}

	if err := s.settings.SaveSettings(r.Context(), &settings); err != nil {
		s.logger.Error("failed to save settings", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save settings")
		return
	}

	s.logger.Info("settings saved",
		"bluesky_accounts", len(settings.BlueskyAccounts),
		"mastodon_accounts", len(settings.MastodonAccounts),
	)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleRun triggers one backup pass. Per-account failures are handled
// outcomes and still count as a completed run; only run-fatal errors produce
// a 500.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	report := s.backup.Run(r.Context())
	if report.Err != nil {
		writeText(w, http.StatusInternalServerError, fmt.Sprintf("Backup failed: %v", report.Err))
		return
	}
	writeText(w, http.StatusOK, "Backup completed successfully")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintln(w, message)
}

func withLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.status,
				"duration", time.Since(start),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
