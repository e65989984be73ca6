// Package notify streams turntable transitions to a socket.io endpoint.
package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/turntablepool/internal/ctxlog"
	"github.com/specialistvlad/turntablepool/internal/turntable"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// EventTransition is the socket.io event every transition is emitted as.
const EventTransition = "turntable:transition"

// DefaultConnectTimeout bounds how long Dial waits for the connect event.
const DefaultConnectTimeout = 15 * time.Second

// Config describes the endpoint to publish to.
type Config struct {
	URL                string
	Namespace          string
	RunID              string
	InsecureSkipVerify bool
	// ConnectTimeout defaults to DefaultConnectTimeout.
	ConnectTimeout time.Duration
}

// Publisher emits transitions. The zero value and the result of Disabled
// drop everything.
type Publisher struct {
	runID  string
	logger *slog.Logger
	emit   func(event string, payload map[string]any)
	close  func()
	sent   atomic.Int64
}

// Disabled returns a publisher that emits nothing.
func Disabled() *Publisher {
	return &Publisher{logger: slog.Default()}
}

// Dial connects to cfg.URL and returns a publisher bound to that socket.
func Dial(ctx context.Context, cfg Config) (*Publisher, error) {
	logger := ctxlog.FromContext(ctx).With("component", "notify", "url", cfg.URL)
	logger.Info("Connecting transition publisher...")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse notify URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("notify URL %q must include a scheme and host", cfg.URL)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "/"
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	connectChan := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Transition publisher connected", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}

	return &Publisher{
		runID:  cfg.RunID,
		logger: logger,
		emit: func(event string, payload map[string]any) {
			io.Emit(event, payload)
		},
		close: func() { io.Disconnect() },
	}, nil
}

// Enabled reports whether the publisher is connected to an endpoint.
func (p *Publisher) Enabled() bool {
	return p != nil && p.emit != nil
}

// Sent returns the number of transitions emitted so far.
func (p *Publisher) Sent() int64 {
	if p == nil {
		return 0
	}
	return p.sent.Load()
}

// Observer returns a turntable observer that emits every transition.
func (p *Publisher) Observer() turntable.Observer {
	return func(tr turntable.Transition) {
		if !p.Enabled() {
			return
		}
		p.emit(EventTransition, Payload(p.runID, tr))
		p.sent.Add(1)
	}
}

// Close disconnects from the endpoint.
func (p *Publisher) Close() {
	if !p.Enabled() || p.close == nil {
		return
	}
	p.logger.Info("Closing transition publisher", "sent", p.sent.Load())
	p.close()
}

// Payload builds the JSON-friendly body of a transition event.
func Payload(runID string, tr turntable.Transition) map[string]any {
	payload := map[string]any{
		"turntable": tr.Turntable,
		"event":     tr.Event.String(),
		"from":      tr.From.Kind.String(),
		"to":        tr.To.Kind.String(),
		"alignment": tr.Snapshot.Alignment,
	}
	if runID != "" {
		payload["run_id"] = runID
	}
	if tr.Train != "" {
		payload["train"] = tr.Train
	}
	if tr.Snapshot.Pending != "" {
		payload["pending"] = tr.Snapshot.Pending
	}
	if tr.Snapshot.Occupant != "" {
		payload["occupant"] = tr.Snapshot.Occupant
	}
	if len(tr.Snapshot.Queues) > 0 {
		queues := make(map[string]any, len(tr.Snapshot.Queues))
		for track, trains := range tr.Snapshot.Queues {
			queues[track] = trains
		}
		payload["queues"] = queues
	}
	return payload
}
