package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/turntablepool/internal/ctxlog"
	"github.com/specialistvlad/turntablepool/internal/diag"
	"github.com/specialistvlad/turntablepool/internal/notify"
	"github.com/specialistvlad/turntablepool/internal/pooldef"
	"github.com/specialistvlad/turntablepool/internal/poolexport"
	"github.com/specialistvlad/turntablepool/internal/registry"
	"github.com/specialistvlad/turntablepool/internal/scenario"
	"github.com/specialistvlad/turntablepool/internal/turntable"
)

// Run loads the configured pools and, when a scenario is configured, drives
// their turntables through it. With Serve set, the status server keeps
// running afterwards until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.healthCheckServer()
	defer a.closeHealthCheckServer()
	defer a.stream.Close()

	pub, err := a.connectPublisher(ctx)
	if err != nil {
		return err
	}
	defer pub.Close()

	reg := a.loadPools(ctx, pub)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("turntable pool loading interrupted: %w", err)
	}

	if a.config.ExportPath != "" {
		if err := poolexport.WriteFile(a.config.ExportPath, reg); err != nil {
			return fmt.Errorf("failed to export pools: %w", err)
		}
		a.logger.Info("Pool catalogue exported.", "path", a.config.ExportPath, "pools", reg.Len())
	}

	if a.config.ScenarioPath != "" {
		if err := a.runScenario(ctx, reg); err != nil {
			return err
		}
	} else {
		a.logger.Debug("No scenario configured.")
	}

	if a.config.Serve && a.httpServer != nil {
		a.logger.Info("🩺 Serving turntable status until interrupted.")
		<-ctx.Done()
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

func (a *App) connectPublisher(ctx context.Context) (*notify.Publisher, error) {
	if a.config.NotifyURL == "" {
		a.logger.Debug("Transition publisher disabled.")
		return notify.Disabled(), nil
	}
	pub, err := notify.Dial(ctx, notify.Config{
		URL:       a.config.NotifyURL,
		Namespace: a.config.NotifyNamespace,
		RunID:     a.runID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect transition publisher: %w", err)
	}
	return pub, nil
}

func (a *App) loadPools(ctx context.Context, pub *notify.Publisher) *registry.Registry {
	a.logger.Info("🛤️ Loading turntable pools...", "paths", a.config.PoolPaths)
	sink := diag.Tee{diag.NewLogSink(a.logger), a.diagnostics, a.metrics}
	reg := pooldef.ProcessTurntables(ctx, pooldef.Selector{
		Roots: a.config.PoolPaths,
		Token: a.config.Token,
	}, sink)

	for _, rec := range reg.Pools() {
		rec.Configure(
			turntable.WithLogger(a.logger),
			turntable.WithObserver(a.store.Observer(ctx)),
			turntable.WithObserver(a.metrics.Observer()),
			turntable.WithObserver(a.stream.Observer()),
			turntable.WithObserver(pub.Observer()),
		)
	}

	a.mu.Lock()
	a.registry = reg
	a.mu.Unlock()
	a.metrics.SetPools(reg.Len())

	a.logger.Info("Turntable pools ready.",
		"pools", reg.Len(),
		"warnings", a.diagnostics.Count(diag.Warning),
		"errors", a.diagnostics.Count(diag.Error))
	if reg.Len() == 0 {
		a.logger.Warn("No turntable pools defined.")
	}
	return reg
}

func (a *App) runScenario(ctx context.Context, reg *registry.Registry) error {
	script, err := scenario.LoadFile(a.config.ScenarioPath, reg)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	a.logger.Info("🚀 Running scenario...", "file", script.Filename, "events", len(script.Events))
	report := scenario.Run(ctx, script, reg)
	for _, step := range report.Steps {
		a.metrics.ObserveOutcome(step.Outcome)
	}

	a.mu.Lock()
	a.report = report
	a.mu.Unlock()

	mismatches := report.Mismatches()
	a.logger.Info("🏁 Scenario finished.", "steps", len(report.Steps), "mismatches", len(mismatches))

	if report.Cancelled {
		return fmt.Errorf("scenario interrupted: %w", ctx.Err())
	}
	if len(mismatches) > 0 {
		first := mismatches[0]
		return fmt.Errorf("%d of %d events, first at event %d (%s %s: expected %s, got %s): %w",
			len(mismatches), len(report.Steps), first.Event.Index, first.Event.Kind, first.Event.Pool,
			first.Event.Expect, first.Outcome, ErrScenarioMismatch)
	}
	return nil
}
