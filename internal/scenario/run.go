package scenario

import (
	"context"
	"fmt"

	"github.com/specialistvlad/turntablepool/internal/ctxlog"
	"github.com/specialistvlad/turntablepool/internal/pool"
	"github.com/specialistvlad/turntablepool/internal/registry"
	"github.com/specialistvlad/turntablepool/internal/turntable"
)

// Step is the result of one event.
type Step struct {
	Event   Event
	Outcome turntable.Outcome
	Err     error
	// Mismatch is set when the event carried an expectation that the
	// outcome did not meet.
	Mismatch bool
}

// Report collects the results of a run.
type Report struct {
	Steps []Step
	// Cancelled is set when the run stopped before the last event.
	Cancelled bool
}

// Mismatches returns the steps whose outcome differed from the expectation.
func (r *Report) Mismatches() []Step {
	var out []Step
	for _, s := range r.Steps {
		if s.Mismatch {
			out = append(out, s)
		}
	}
	return out
}

// Run applies the script's events in order. Problems with individual events
// are recorded in the report; they never stop the run. Cancellation is
// checked between events.
func Run(ctx context.Context, script *Script, reg *registry.Registry) *Report {
	logger := ctxlog.FromContext(ctx).With("scenario", script.Filename)
	report := &Report{}

	for _, ev := range script.Events {
		if ctx.Err() != nil {
			logger.Info("Scenario cancelled.", "applied", len(report.Steps), "remaining", len(script.Events)-len(report.Steps))
			report.Cancelled = true
			break
		}

		step := Step{Event: ev}
		step.Outcome, step.Err = apply(ev, reg)
		if ev.Expect != "" && step.Outcome.String() != ev.Expect {
			step.Mismatch = true
			logger.Warn("Scenario event outcome differs from expectation.",
				"event", ev.Index, "kind", string(ev.Kind), "pool", ev.Pool, "expected", ev.Expect, "outcome", step.Outcome.String(), "error", step.Err)
		} else {
			logger.Debug("Scenario event applied.",
				"event", ev.Index, "kind", string(ev.Kind), "pool", ev.Pool, "outcome", step.Outcome.String(), "error", step.Err)
		}
		report.Steps = append(report.Steps, step)
	}
	return report
}

func apply(ev Event, reg *registry.Registry) (turntable.Outcome, error) {
	h, found, err := reg.Turntable(ev.Pool)
	if err != nil {
		return turntable.Rejected, err
	}
	if !found {
		return turntable.Rejected, fmt.Errorf("event %d: %q: %w", ev.Index, ev.Pool, ErrUnknownPool)
	}
	return dispatch(h, ev)
}

func dispatch(h *pool.Handle, ev Event) (turntable.Outcome, error) {
	switch ev.Kind {
	case KindAlign:
		return h.RequestAlignment(ev.Track)
	case KindComplete:
		return h.RotationComplete()
	case KindAdmit:
		return h.AdmitTrain(ev.Train, ev.Track)
	case KindNext:
		return h.AdmitNext()
	case KindRelease:
		return h.ReleaseTrain()
	default:
		return turntable.Rejected, fmt.Errorf("event %d: %q: %w", ev.Index, ev.Kind, ErrUnknownEvent)
	}
}
