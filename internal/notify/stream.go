package notify

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/r3labs/sse/v2"
	"github.com/specialistvlad/turntablepool/internal/turntable"
)

// StreamID is the server-sent events stream transitions are published on.
// Clients subscribe with ?stream=transitions.
const StreamID = "transitions"

// Stream publishes transitions as server-sent events.
type Stream struct {
	runID       string
	logger      *slog.Logger
	server      *sse.Server
	subscribers atomic.Int64
}

// NewStream creates a stream server. Events are not retained: a subscriber
// only receives transitions published after it connected, so a long-running
// status server does not accumulate its event history.
func NewStream(runID string, logger *slog.Logger) *Stream {
	s := &Stream{runID: runID, logger: logger}
	s.server = sse.NewWithCallback(
		func(streamID string, _ *sse.Subscriber) {
			s.logger.Debug("Event stream subscriber connected.", "stream", streamID, "subscribers", s.subscribers.Add(1))
		},
		func(streamID string, _ *sse.Subscriber) {
			s.logger.Debug("Event stream subscriber left.", "stream", streamID, "subscribers", s.subscribers.Add(-1))
		},
	)
	s.server.AutoReplay = false
	s.server.CreateStream(StreamID)
	return s
}

// Subscribers returns the number of connected clients.
func (s *Stream) Subscribers() int64 {
	return s.subscribers.Load()
}

// Observer returns a turntable observer that publishes every transition.
func (s *Stream) Observer() turntable.Observer {
	return func(tr turntable.Transition) {
		data, err := json.Marshal(Payload(s.runID, tr))
		if err != nil {
			s.logger.Error("Failed to encode transition event", "turntable", tr.Turntable, "error", err)
			return
		}
		s.server.Publish(StreamID, &sse.Event{
			Event: []byte(EventTransition),
			Data:  data,
		})
	}
}

// ServeHTTP implements http.Handler.
func (s *Stream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.ServeHTTP(w, r)
}

// Close disconnects every subscriber.
func (s *Stream) Close() {
	s.server.Close()
}
