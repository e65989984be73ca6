// Package pool defines the turntable pool record produced by the definition
// parser and the lazily created, synchronised turntable handle it owns.
package pool

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/turntablepool/internal/turntable"
)

// positionEpsilon is the tolerance, in degrees, for two positions to be equal.
const positionEpsilon = 1e-6

// Position is a deck rotation in degrees, normalised into [0, 360).
type Position float64

// NewPosition normalises degrees into [0, 360).
func NewPosition(degrees float64) Position {
	d := math.Mod(degrees, 360)
	if d < 0 {
		d += 360
	}
	if 360-d < positionEpsilon {
		d = 0
	}
	return Position(d)
}

// Equal reports whether p and o describe the same alignment.
func (p Position) Equal(o Position) bool {
	diff := math.Abs(float64(p) - float64(o))
	return diff < positionEpsilon || 360-diff < positionEpsilon
}

func (p Position) String() string {
	return fmt.Sprintf("%g°", float64(p))
}

// Track is a track connected to the turntable.
type Track struct {
	ID       string
	Position Position
	// Line is the source line the track was declared on.
	Line int
}

// Record is one turntable pool definition.
type Record struct {
	Name   string
	Tracks []Track

	SourceFile string
	SourceLine int

	// WorldFile and UID locate the turntable in the route's world files.
	WorldFile string
	UID       int
	HasUID    bool

	once     sync.Once
	handle   atomic.Pointer[Handle]
	buildErr error
	opts     []turntable.Option
}

// Valid reports whether the record carries a name. Unnamed records are never
// registered.
func (r *Record) Valid() bool {
	return r != nil && r.Name != ""
}

// TrackByID finds a connected track, ignoring case.
func (r *Record) TrackByID(id string) (Track, bool) {
	id = strings.TrimSpace(id)
	for _, t := range r.Tracks {
		if strings.EqualFold(t.ID, id) {
			return t, true
		}
	}
	return Track{}, false
}

// TrackAt finds the track that needs position p.
func (r *Record) TrackAt(p Position) (Track, bool) {
	for _, t := range r.Tracks {
		if t.Position.Equal(p) {
			return t, true
		}
	}
	return Track{}, false
}

// TrackIDs returns the connected track IDs in declaration order.
func (r *Record) TrackIDs() []string {
	ids := make([]string, len(r.Tracks))
	for i, t := range r.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// Configure sets options applied when the turntable is first created. It has
// no effect once Turntable has been called.
func (r *Record) Configure(opts ...turntable.Option) {
	r.opts = append(r.opts, opts...)
}

// Turntable returns the record's turntable, creating it on first use. The
// same handle is returned on every call.
func (r *Record) Turntable() (*Handle, error) {
	r.once.Do(func() {
		tracks := make([]turntable.Track, len(r.Tracks))
		for i, t := range r.Tracks {
			tracks[i] = turntable.Track{ID: t.ID, Degrees: float64(t.Position)}
		}
		m, err := turntable.New(r.Name, tracks, r.opts...)
		if err != nil {
			r.buildErr = fmt.Errorf("failed to create turntable for pool %q (%s:%d): %w", r.Name, r.SourceFile, r.SourceLine, err)
			return
		}
		r.handle.Store(&Handle{m: m})
	})
	return r.handle.Load(), r.buildErr
}

// Started reports whether the turntable has been created.
func (r *Record) Started() bool {
	return r.handle.Load() != nil
}
