package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/specialistvlad/turntablepool/internal/ctxlog"
	"github.com/specialistvlad/turntablepool/internal/pool"
	"github.com/specialistvlad/turntablepool/internal/turntable"
)

// healthHandler reports that the process is alive.
func (app *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

type trackStatus struct {
	ID      string  `json:"id"`
	Degrees float64 `json:"degrees"`
}

type poolStatus struct {
	Name      string              `json:"name"`
	Source    string              `json:"source"`
	Tracks    []trackStatus       `json:"tracks"`
	Turntable *turntable.Snapshot `json:"turntable,omitempty"`
}

type poolsResponse struct {
	RunID string       `json:"run_id"`
	Pools []poolStatus `json:"pools"`
}

func (app *App) poolStatus(rec *pool.Record) poolStatus {
	st := poolStatus{
		Name:   rec.Name,
		Source: fmt.Sprintf("%s:%d", rec.SourceFile, rec.SourceLine),
		Tracks: make([]trackStatus, len(rec.Tracks)),
	}
	for i, t := range rec.Tracks {
		st.Tracks[i] = trackStatus{ID: t.ID, Degrees: float64(t.Position)}
	}
	if snap, ok := app.store.Get(app.ctx, rec.Name); ok {
		st.Turntable = &snap
	}
	return st
}

// poolsHandler lists the loaded pools with the latest state of every
// turntable that has seen a transition.
func (app *App) poolsHandler(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Pools endpoint hit.", "remote_addr", r.RemoteAddr)
	resp := poolsResponse{RunID: app.runID, Pools: []poolStatus{}}

	if reg := app.Registry(); reg != nil {
		for _, name := range reg.Names() {
			rec, _ := reg.Lookup(name)
			resp.Pools = append(resp.Pools, app.poolStatus(rec))
		}
	}
	app.writeJSON(w, http.StatusOK, resp)
}

// poolHandler reports a single pool.
func (app *App) poolHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	reg := app.Registry()
	if reg == nil {
		http.Error(w, "pools not loaded yet", http.StatusServiceUnavailable)
		return
	}
	rec, ok := reg.Lookup(name)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown pool %q", name), http.StatusNotFound)
		return
	}
	app.writeJSON(w, http.StatusOK, app.poolStatus(rec))
}

func (app *App) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctxlog.FromContext(app.ctx).Error("Failed to encode status response", "error", err)
	}
}

func (app *App) statusRouter() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/health", app.healthHandler)
	router.Get("/pools", app.poolsHandler)
	router.Get("/pools/{name}", app.poolHandler)
	router.Handle("/metrics", app.metrics.Handler())
	router.Handle("/events", app.stream)
	return router
}

// healthCheckServer initializes and runs the health and status HTTP server.
func (app *App) healthCheckServer() {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Configuring health check server.")
	if app.config.HealthcheckPort <= 0 {
		logger.Debug("Health check server not started: disabled")
		return
	}

	addr := fmt.Sprintf(":%d", app.config.HealthcheckPort)
	srv := &http.Server{
		Addr:    addr,
		Handler: app.statusRouter(),
	}
	app.httpServer = srv

	// srv, not app.httpServer: shutdown may clear the field first.
	go func() {
		logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
}

func (app *App) closeHealthCheckServer() error {
	logger := ctxlog.FromContext(app.ctx)
	if app.httpServer == nil {
		logger.Debug("Health check server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(app.ctx), 5*time.Second)
	defer cancel()

	logger.Info("🩺 Shutting down health check server...")
	if err := app.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Health check server shutdown failed", "error", err)
		return err
	}
	app.httpServer = nil
	return nil
}
