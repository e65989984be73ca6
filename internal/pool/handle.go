package pool

import (
	"sync"

	"github.com/specialistvlad/turntablepool/internal/turntable"
)

// Handle serialises access to a turntable.Machine so that several dispatch
// goroutines can drive the same turntable.
//
// Observers run while the lock is held and must not call back into the handle.
type Handle struct {
	mu sync.Mutex
	m  *turntable.Machine
}

func (h *Handle) RequestAlignment(track string) (turntable.Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.m.RequestAlignment(track)
}

func (h *Handle) RotationComplete() (turntable.Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.m.RotationComplete()
}

func (h *Handle) AdmitTrain(train, track string) (turntable.Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.m.AdmitTrain(train, track)
}

func (h *Handle) AdmitNext() (turntable.Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.m.AdmitNext()
}

func (h *Handle) ReleaseTrain() (turntable.Outcome, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.m.ReleaseTrain()
}

// AddObserver registers o on the underlying machine.
func (h *Handle) AddObserver(o turntable.Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.m.AddObserver(o)
}

func (h *Handle) State() turntable.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.m.State()
}

func (h *Handle) Alignment() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.m.Alignment()
}

func (h *Handle) Occupant() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.m.Occupant()
}

func (h *Handle) Queue(track string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.m.Queue(track)
}

func (h *Handle) Snapshot() turntable.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.m.Snapshot()
}
