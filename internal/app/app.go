package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/turntablepool/internal/ctxlog"
	"github.com/specialistvlad/turntablepool/internal/diag"
	"github.com/specialistvlad/turntablepool/internal/metrics"
	"github.com/specialistvlad/turntablepool/internal/notify"
	"github.com/specialistvlad/turntablepool/internal/registry"
	"github.com/specialistvlad/turntablepool/internal/scenario"
	"github.com/specialistvlad/turntablepool/internal/statestore"
)

// ErrScenarioMismatch is returned by Run when scenario events did not produce
// their expected outcomes.
var ErrScenarioMismatch = errors.New("scenario expectations not met")

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx    context.Context
	outW   io.Writer
	logger *slog.Logger
	config *Config
	runID  string

	store       *statestore.Store
	diagnostics *diag.Collector
	metrics     *metrics.Metrics
	stream      *notify.Stream
	httpServer  *http.Server

	mu       sync.RWMutex
	registry *registry.Registry
	report   *scenario.Report
}

// NewApp is the constructor for the main application. It returns an App
// with its own isolated logger, tagged with a fresh run ID.
func NewApp(ctx context.Context, outW io.Writer, cfg *Config) *App {
	runID := uuid.NewString()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW).With("run_id", runID)
	logger.Debug("Logger configured successfully.")

	return &App{
		ctx:         ctxlog.WithLogger(ctx, logger),
		outW:        outW,
		logger:      logger,
		config:      cfg,
		runID:       runID,
		store:       statestore.New(),
		diagnostics: &diag.Collector{},
		metrics:     metrics.New(),
		stream:      notify.NewStream(runID, logger),
	}
}

// RunID identifies this run in logs and published events.
func (a *App) RunID() string {
	return a.runID
}

// Registry returns the pools loaded by Run, or nil before loading finished.
func (a *App) Registry() *registry.Registry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.registry
}

// Report returns the scenario report of the last run, if a scenario ran.
func (a *App) Report() *scenario.Report {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.report
}

// Store returns the turntable snapshot store.
func (a *App) Store() *statestore.Store {
	return a.store
}

// Metrics returns the run's Prometheus collectors.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Diagnostics returns every diagnostic reported while loading.
func (a *App) Diagnostics() []diag.Diagnostic {
	return a.diagnostics.All()
}
