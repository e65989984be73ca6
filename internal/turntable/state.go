package turntable

import (
	"errors"
	"fmt"
)

// NoAlignment is the alignment of a deck that is not lined up with any track.
const NoAlignment = -1

// Kind is the discriminator of State.
type Kind int

const (
	Idle Kind = iota
	Rotating
	Occupied
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Rotating:
		return "rotating"
	case Occupied:
		return "occupied"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// State is an immutable snapshot of the deck.
//
// Alignment is the track index the deck is lined up with in Idle and
// Occupied, and the index it is leaving in Rotating. Target is only
// meaningful in Rotating; Train only in Occupied.
type State struct {
	Kind      Kind
	Alignment int
	Target    int
	Train     string
}

func idleAt(a int) State {
	return State{Kind: Idle, Alignment: a, Target: NoAlignment}
}

func rotating(from, to int) State {
	return State{Kind: Rotating, Alignment: from, Target: to}
}

func occupiedAt(a int, train string) State {
	return State{Kind: Occupied, Alignment: a, Target: NoAlignment, Train: train}
}

func (s State) String() string {
	switch s.Kind {
	case Idle:
		return fmt.Sprintf("Idle(%d)", s.Alignment)
	case Rotating:
		return fmt.Sprintf("Rotating(%d, %d)", s.Alignment, s.Target)
	case Occupied:
		return fmt.Sprintf("Occupied(%d, %s)", s.Alignment, s.Train)
	default:
		return s.Kind.String()
	}
}

// Outcome tells the caller what a request did.
type Outcome int

const (
	// Applied means the request changed the state.
	Applied Outcome = iota
	// NoOp means the request was valid but nothing needed to change.
	NoOp
	// Queued means the train was added to its track's waiting queue.
	Queued
	// Rejected means the request did not fit the current state and was ignored.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case NoOp:
		return "no-op"
	case Queued:
		return "queued"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

var (
	// ErrOccupied is returned for requests that need an empty deck.
	ErrOccupied = errors.New("turntable is occupied")
	// ErrRotating is returned for alignment requests while a rotation is in flight.
	ErrRotating = errors.New("turntable is rotating")
	// ErrNotRotating is returned when a rotation completes that was never started.
	ErrNotRotating = errors.New("no rotation in progress")
	// ErrNotOccupied is returned when releasing an empty deck.
	ErrNotOccupied = errors.New("turntable is not occupied")
	// ErrUnknownTrack is returned for tracks the turntable does not connect to.
	ErrUnknownTrack = errors.New("unknown track")
	// ErrAlreadyPresent is returned when a train is already on the deck or
	// waiting for another track.
	ErrAlreadyPresent = errors.New("train already present")
	// ErrEmptyTrain is returned for admissions without a train identifier.
	ErrEmptyTrain = errors.New("empty train identifier")
	// ErrDuplicatePosition is returned by New when two tracks need the same
	// deck position.
	ErrDuplicatePosition = errors.New("duplicate track position")
)
