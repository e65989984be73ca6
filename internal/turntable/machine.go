package turntable

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// Track is an approach track together with the deck position it needs.
type Track struct {
	ID      string
	Degrees float64
}

// EventKind names the request that caused a transition.
type EventKind int

const (
	EventRequestAlignment EventKind = iota
	EventRotationComplete
	EventAdmitTrain
	EventAdmitNext
	EventReleaseTrain
)

func (e EventKind) String() string {
	switch e {
	case EventRequestAlignment:
		return "request_alignment"
	case EventRotationComplete:
		return "rotation_complete"
	case EventAdmitTrain:
		return "admit_train"
	case EventAdmitNext:
		return "admit_next"
	case EventReleaseTrain:
		return "release_train"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Transition describes one state change. Train is the train that entered or
// left the deck, if any. Snapshot is the machine as it is after the change.
// A train joining a queue is reported too, with From equal to To.
type Transition struct {
	Turntable string
	Event     EventKind
	From      State
	To        State
	Train     string
	Snapshot  Snapshot
}

// Observer is called synchronously after every state or queue change.
type Observer func(Transition)

// Option configures a Machine.
type Option func(*Machine) error

// WithLogger sets the logger rejected requests are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) error {
		m.logger = logger
		return nil
	}
}

// WithObserver registers an observer at construction time.
func WithObserver(o Observer) Option {
	return func(m *Machine) error {
		m.observers = append(m.observers, o)
		return nil
	}
}

// WithInitialTrack starts the deck aligned with the given track instead of
// between positions.
func WithInitialTrack(id string) Option {
	return func(m *Machine) error {
		idx, ok := m.TrackIndex(id)
		if !ok {
			return fmt.Errorf("initial track %q: %w", id, ErrUnknownTrack)
		}
		m.state = idleAt(idx)
		return nil
	}
}

type request struct {
	kind  EventKind
	track int
	train string
}

// Machine is the state machine of one turntable.
type Machine struct {
	name   string
	tracks []Track
	index  map[string]int

	state State
	// queues holds the waiting trains per track index, oldest first.
	queues [][]string
	// waiting maps a queued train to the index of the queue it is in.
	waiting map[string]int

	observers []Observer
	logger    *slog.Logger
}

// New creates a machine for the turntable called name connecting the given
// tracks. Track IDs are matched case-insensitively and must be distinct, as
// must the track positions once normalised into [0, 360).
func New(name string, tracks []Track, opts ...Option) (*Machine, error) {
	m := &Machine{
		name:    name,
		tracks:  make([]Track, len(tracks)),
		index:   make(map[string]int, len(tracks)),
		state:   idleAt(NoAlignment),
		queues:  make([][]string, len(tracks)),
		waiting: make(map[string]int),
		logger:  slog.Default(),
	}
	copy(m.tracks, tracks)
	for i, t := range tracks {
		key := trackKey(t.ID)
		if key == "" {
			return nil, fmt.Errorf("turntable %q: track %d has an empty identifier", name, i)
		}
		if _, dup := m.index[key]; dup {
			return nil, fmt.Errorf("turntable %q: duplicate track %q", name, t.ID)
		}
		for j := 0; j < i; j++ {
			if samePosition(tracks[j].Degrees, t.Degrees) {
				return nil, fmt.Errorf("turntable %q: tracks %q and %q at %g°: %w", name, tracks[j].ID, t.ID, t.Degrees, ErrDuplicatePosition)
			}
		}
		m.index[key] = i
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("turntable %q: %w", name, err)
		}
	}
	return m, nil
}

const positionEpsilon = 1e-6

// samePosition compares two deck rotations in degrees, modulo a full turn.
func samePosition(a, b float64) bool {
	diff := math.Mod(math.Abs(a-b), 360)
	return diff < positionEpsilon || 360-diff < positionEpsilon
}

func trackKey(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Name returns the turntable name.
func (m *Machine) Name() string { return m.name }

// Tracks returns the connected tracks in declaration order.
func (m *Machine) Tracks() []Track {
	out := make([]Track, len(m.tracks))
	copy(out, m.tracks)
	return out
}

// TrackIndex resolves a track ID to its index.
func (m *Machine) TrackIndex(id string) (int, bool) {
	idx, ok := m.index[trackKey(id)]
	return idx, ok
}

// AddObserver registers o for all subsequent transitions.
func (m *Machine) AddObserver(o Observer) {
	m.observers = append(m.observers, o)
}

// RequestAlignment starts rotating the deck towards track. It is a no-op
// when the deck is already idle at track.
func (m *Machine) RequestAlignment(track string) (Outcome, error) {
	idx, ok := m.TrackIndex(track)
	if !ok {
		return m.reject(EventRequestAlignment, fmt.Errorf("%q: %w", track, ErrUnknownTrack))
	}
	return m.apply(request{kind: EventRequestAlignment, track: idx})
}

// RotationComplete reports that the deck reached the pending target.
func (m *Machine) RotationComplete() (Outcome, error) {
	return m.apply(request{kind: EventRotationComplete, track: NoAlignment})
}

// AdmitTrain puts train on the deck when the deck is idle and lined up with
// track. Otherwise the train joins the end of that track's queue.
func (m *Machine) AdmitTrain(train, track string) (Outcome, error) {
	train = strings.TrimSpace(train)
	if train == "" {
		return m.reject(EventAdmitTrain, ErrEmptyTrain)
	}
	idx, ok := m.TrackIndex(track)
	if !ok {
		return m.reject(EventAdmitTrain, fmt.Errorf("%q: %w", track, ErrUnknownTrack))
	}
	return m.apply(request{kind: EventAdmitTrain, track: idx, train: train})
}

// AdmitNext admits the oldest train waiting for the aligned track.
func (m *Machine) AdmitNext() (Outcome, error) {
	return m.apply(request{kind: EventAdmitNext, track: NoAlignment})
}

// ReleaseTrain clears the deck. If a train is waiting for the aligned track
// it is admitted straight away.
func (m *Machine) ReleaseTrain() (Outcome, error) {
	return m.apply(request{kind: EventReleaseTrain, track: NoAlignment})
}

// apply is the transition function. Every state change goes through here.
func (m *Machine) apply(req request) (Outcome, error) {
	s := m.state
	switch req.kind {
	case EventRequestAlignment:
		switch s.Kind {
		case Idle:
			if s.Alignment == req.track {
				return NoOp, nil
			}
			m.set(rotating(s.Alignment, req.track), req.kind, "")
			return Applied, nil
		case Rotating:
			return m.reject(req.kind, fmt.Errorf("towards %q: %w", m.trackID(s.Target), ErrRotating))
		case Occupied:
			return m.reject(req.kind, fmt.Errorf("by %q: %w", s.Train, ErrOccupied))
		}

	case EventRotationComplete:
		switch s.Kind {
		case Rotating:
			m.set(idleAt(s.Target), req.kind, "")
			return Applied, nil
		case Idle, Occupied:
			return m.reject(req.kind, ErrNotRotating)
		}

	case EventAdmitTrain:
		if s.Kind == Occupied && s.Train == req.train {
			return m.reject(req.kind, fmt.Errorf("%q is on the deck: %w", req.train, ErrAlreadyPresent))
		}
		if q, ok := m.waiting[req.train]; ok {
			if q != req.track {
				return m.reject(req.kind, fmt.Errorf("%q is waiting for %q: %w", req.train, m.trackID(q), ErrAlreadyPresent))
			}
			if s.Kind == Idle && s.Alignment == req.track && m.queues[q][0] == req.train {
				m.admitHead(req.kind)
				return Applied, nil
			}
			return NoOp, nil
		}
		switch s.Kind {
		case Idle:
			if s.Alignment == req.track && len(m.queues[req.track]) == 0 {
				m.set(occupiedAt(s.Alignment, req.train), req.kind, req.train)
				return Applied, nil
			}
			m.enqueue(req.kind, req.train, req.track)
			if s.Alignment == req.track {
				// Older trains for this track go first.
				m.admitHead(req.kind)
			}
			return Queued, nil
		case Rotating, Occupied:
			m.enqueue(req.kind, req.train, req.track)
			return Queued, nil
		}

	case EventAdmitNext:
		switch s.Kind {
		case Idle:
			if s.Alignment == NoAlignment || len(m.queues[s.Alignment]) == 0 {
				return NoOp, nil
			}
			m.admitHead(req.kind)
			return Applied, nil
		case Rotating:
			return m.reject(req.kind, ErrRotating)
		case Occupied:
			return m.reject(req.kind, ErrOccupied)
		}

	case EventReleaseTrain:
		switch s.Kind {
		case Occupied:
			m.set(idleAt(s.Alignment), req.kind, s.Train)
			if len(m.queues[s.Alignment]) > 0 {
				m.admitHead(req.kind)
			}
			return Applied, nil
		case Idle, Rotating:
			return m.reject(req.kind, ErrNotOccupied)
		}
	}
	panic(fmt.Sprintf("turntable: unhandled %s in state %s", req.kind, s))
}

func (m *Machine) enqueue(ev EventKind, train string, track int) {
	m.queues[track] = append(m.queues[track], train)
	m.waiting[train] = track
	m.set(m.state, ev, train)
}

// admitHead moves the oldest train for the aligned track onto the deck. The
// machine must be idle at a track with a non-empty queue.
func (m *Machine) admitHead(ev EventKind) {
	a := m.state.Alignment
	train := m.queues[a][0]
	m.queues[a] = m.queues[a][1:]
	delete(m.waiting, train)
	m.set(occupiedAt(a, train), ev, train)
}

func (m *Machine) set(next State, ev EventKind, train string) {
	prev := m.state
	m.state = next
	if len(m.observers) == 0 {
		return
	}
	t := Transition{Turntable: m.name, Event: ev, From: prev, To: next, Train: train, Snapshot: m.Snapshot()}
	for _, o := range m.observers {
		o(t)
	}
}

func (m *Machine) reject(ev EventKind, err error) (Outcome, error) {
	m.logger.Warn("Turntable request rejected.", "turntable", m.name, "event", ev.String(), "state", m.state.String(), "error", err)
	return Rejected, fmt.Errorf("turntable %q: %s: %w", m.name, ev, err)
}

func (m *Machine) trackID(idx int) string {
	if idx < 0 || idx >= len(m.tracks) {
		return ""
	}
	return m.tracks[idx].ID
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Alignment returns the ID of the track the deck is lined up with. It is
// empty while rotating or before the first alignment.
func (m *Machine) Alignment() string {
	if m.state.Kind == Rotating {
		return ""
	}
	return m.trackID(m.state.Alignment)
}

// Pending returns the target track of a rotation in flight.
func (m *Machine) Pending() (string, bool) {
	if m.state.Kind != Rotating {
		return "", false
	}
	return m.trackID(m.state.Target), true
}

// Occupant returns the train on the deck.
func (m *Machine) Occupant() (string, bool) {
	if m.state.Kind != Occupied {
		return "", false
	}
	return m.state.Train, true
}

// Queue returns the trains waiting for track, oldest first.
func (m *Machine) Queue(track string) []string {
	idx, ok := m.TrackIndex(track)
	if !ok {
		return nil
	}
	out := make([]string, len(m.queues[idx]))
	copy(out, m.queues[idx])
	return out
}

// Waiting returns every non-empty queue keyed by track ID.
func (m *Machine) Waiting() map[string][]string {
	out := make(map[string][]string)
	for i, q := range m.queues {
		if len(q) == 0 {
			continue
		}
		cp := make([]string, len(q))
		copy(cp, q)
		out[m.tracks[i].ID] = cp
	}
	return out
}

// Snapshot is a self-contained, serialisable view of a machine.
type Snapshot struct {
	Turntable string              `json:"turntable"`
	State     string              `json:"state"`
	Alignment string              `json:"alignment,omitempty"`
	Pending   string              `json:"pending,omitempty"`
	Occupant  string              `json:"occupant,omitempty"`
	Queues    map[string][]string `json:"queues,omitempty"`
}

// Snapshot captures the current state.
func (m *Machine) Snapshot() Snapshot {
	snap := Snapshot{
		Turntable: m.name,
		State:     m.state.Kind.String(),
		Alignment: m.Alignment(),
		Queues:    m.Waiting(),
	}
	snap.Pending, _ = m.Pending()
	snap.Occupant, _ = m.Occupant()
	if len(snap.Queues) == 0 {
		snap.Queues = nil
	}
	return snap
}
