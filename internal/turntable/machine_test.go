package turntable

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoundhouse(t *testing.T, opts ...Option) *Machine {
	t.Helper()
	m, err := New("Roundhouse1", []Track{
		{ID: "A", Degrees: 0},
		{ID: "B", Degrees: 90},
		{ID: "C", Degrees: 180},
	}, opts...)
	require.NoError(t, err)
	return m
}

func TestNew_RejectsDuplicateAndEmptyTracks(t *testing.T) {
	_, err := New("T", []Track{{ID: "A"}, {ID: "a", Degrees: 10}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate track")

	_, err = New("T", []Track{{ID: " "}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty identifier")

	_, err = New("T", []Track{{ID: "A"}}, WithInitialTrack("Z"))
	require.ErrorIs(t, err, ErrUnknownTrack)
}

func TestNew_RejectsDuplicatePositions(t *testing.T) {
	_, err := New("T", []Track{{ID: "A", Degrees: 90}, {ID: "B", Degrees: 90}})
	require.ErrorIs(t, err, ErrDuplicatePosition)

	_, err = New("T", []Track{{ID: "A", Degrees: 0}, {ID: "B", Degrees: 360}})
	require.ErrorIs(t, err, ErrDuplicatePosition, "positions are compared modulo a full turn")

	_, err = New("T", []Track{{ID: "A", Degrees: -90}, {ID: "B", Degrees: 270}})
	require.ErrorIs(t, err, ErrDuplicatePosition)

	_, err = New("T", []Track{{ID: "A"}, {ID: "B", Degrees: 90}})
	require.NoError(t, err)
}

func TestNew_StartsBetweenPositions(t *testing.T) {
	m := newRoundhouse(t)
	assert.Equal(t, Idle, m.State().Kind)
	assert.Equal(t, NoAlignment, m.State().Alignment)
	assert.Equal(t, "", m.Alignment())

	m = newRoundhouse(t, WithInitialTrack("b"))
	assert.Equal(t, "B", m.Alignment())
}

func TestRequestAlignment(t *testing.T) {
	t.Run("idle elsewhere starts rotation", func(t *testing.T) {
		m := newRoundhouse(t, WithInitialTrack("A"))
		out, err := m.RequestAlignment("B")
		require.NoError(t, err)
		assert.Equal(t, Applied, out)
		assert.Equal(t, rotating(0, 1), m.State())
		pending, ok := m.Pending()
		assert.True(t, ok)
		assert.Equal(t, "B", pending)
		assert.Equal(t, "", m.Alignment(), "no track is aligned while rotating")
	})

	t.Run("already aligned is a no-op", func(t *testing.T) {
		m := newRoundhouse(t, WithInitialTrack("A"))
		out, err := m.RequestAlignment("A")
		require.NoError(t, err)
		assert.Equal(t, NoOp, out)
		assert.Equal(t, idleAt(0), m.State())
	})

	t.Run("rejected while occupied", func(t *testing.T) {
		m := newRoundhouse(t, WithInitialTrack("A"))
		_, err := m.AdmitTrain("IC1", "A")
		require.NoError(t, err)

		out, err := m.RequestAlignment("B")
		assert.Equal(t, Rejected, out)
		require.ErrorIs(t, err, ErrOccupied)
		assert.Equal(t, occupiedAt(0, "IC1"), m.State())
	})

	t.Run("rejected while rotating", func(t *testing.T) {
		m := newRoundhouse(t)
		_, err := m.RequestAlignment("B")
		require.NoError(t, err)

		out, err := m.RequestAlignment("C")
		assert.Equal(t, Rejected, out)
		require.ErrorIs(t, err, ErrRotating)
		assert.Equal(t, rotating(NoAlignment, 1), m.State())
	})

	t.Run("unknown track", func(t *testing.T) {
		m := newRoundhouse(t)
		out, err := m.RequestAlignment("Z")
		assert.Equal(t, Rejected, out)
		require.ErrorIs(t, err, ErrUnknownTrack)
	})
}

func TestRotationComplete(t *testing.T) {
	m := newRoundhouse(t, WithInitialTrack("A"))

	out, err := m.RotationComplete()
	assert.Equal(t, Rejected, out)
	require.ErrorIs(t, err, ErrNotRotating)
	assert.Equal(t, idleAt(0), m.State())

	_, err = m.RequestAlignment("C")
	require.NoError(t, err)
	out, err = m.RotationComplete()
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	assert.Equal(t, idleAt(2), m.State())
	assert.Equal(t, "C", m.Alignment())
}

func TestAdmitTrain(t *testing.T) {
	t.Run("admitted when aligned", func(t *testing.T) {
		m := newRoundhouse(t, WithInitialTrack("B"))
		out, err := m.AdmitTrain("IC1", "B")
		require.NoError(t, err)
		assert.Equal(t, Applied, out)
		occ, ok := m.Occupant()
		assert.True(t, ok)
		assert.Equal(t, "IC1", occ)
	})

	t.Run("queued when misaligned", func(t *testing.T) {
		m := newRoundhouse(t, WithInitialTrack("A"))
		out, err := m.AdmitTrain("IC1", "B")
		require.NoError(t, err)
		assert.Equal(t, Queued, out)
		assert.Equal(t, idleAt(0), m.State())
		assert.Equal(t, []string{"IC1"}, m.Queue("B"))
	})

	t.Run("queued while rotating towards the same track", func(t *testing.T) {
		m := newRoundhouse(t, WithInitialTrack("A"))
		_, err := m.RequestAlignment("B")
		require.NoError(t, err)
		out, err := m.AdmitTrain("IC1", "B")
		require.NoError(t, err)
		assert.Equal(t, Queued, out)
		_, occupied := m.Occupant()
		assert.False(t, occupied)
	})

	t.Run("queued while occupied", func(t *testing.T) {
		m := newRoundhouse(t, WithInitialTrack("A"))
		_, err := m.AdmitTrain("IC1", "A")
		require.NoError(t, err)
		out, err := m.AdmitTrain("IC2", "A")
		require.NoError(t, err)
		assert.Equal(t, Queued, out)
		occ, _ := m.Occupant()
		assert.Equal(t, "IC1", occ)
	})

	t.Run("duplicate train is rejected", func(t *testing.T) {
		m := newRoundhouse(t, WithInitialTrack("A"))
		_, err := m.AdmitTrain("IC1", "A")
		require.NoError(t, err)
		out, err := m.AdmitTrain("IC1", "B")
		assert.Equal(t, Rejected, out)
		require.ErrorIs(t, err, ErrAlreadyPresent)

		_, err = m.AdmitTrain("IC2", "B")
		require.NoError(t, err)
		out, err = m.AdmitTrain("IC2", "C")
		assert.Equal(t, Rejected, out)
		require.ErrorIs(t, err, ErrAlreadyPresent)

		out, err = m.AdmitTrain("IC2", "B")
		require.NoError(t, err)
		assert.Equal(t, NoOp, out, "asking again for the same track keeps its place")
		assert.Equal(t, []string{"IC2"}, m.Queue("B"))
	})

	t.Run("invalid arguments", func(t *testing.T) {
		m := newRoundhouse(t)
		_, err := m.AdmitTrain("  ", "A")
		require.ErrorIs(t, err, ErrEmptyTrain)
		_, err = m.AdmitTrain("IC1", "nowhere")
		require.ErrorIs(t, err, ErrUnknownTrack)
	})

	t.Run("waiting trains keep priority after rotation", func(t *testing.T) {
		m := newRoundhouse(t, WithInitialTrack("A"))
		_, err := m.AdmitTrain("IC1", "B")
		require.NoError(t, err)
		_, err = m.RequestAlignment("B")
		require.NoError(t, err)
		_, err = m.RotationComplete()
		require.NoError(t, err)

		out, err := m.AdmitTrain("IC2", "B")
		require.NoError(t, err)
		assert.Equal(t, Queued, out)
		occ, _ := m.Occupant()
		assert.Equal(t, "IC1", occ)
		assert.Equal(t, []string{"IC2"}, m.Queue("B"))
	})

	t.Run("queued head can re-request after rotation", func(t *testing.T) {
		m := newRoundhouse(t, WithInitialTrack("A"))
		_, err := m.AdmitTrain("IC1", "B")
		require.NoError(t, err)
		_, err = m.RequestAlignment("B")
		require.NoError(t, err)
		_, err = m.RotationComplete()
		require.NoError(t, err)

		out, err := m.AdmitTrain("IC1", "B")
		require.NoError(t, err)
		assert.Equal(t, Applied, out)
		assert.Empty(t, m.Queue("B"))
	})
}

func TestReleaseTrain(t *testing.T) {
	m := newRoundhouse(t, WithInitialTrack("A"))

	out, err := m.ReleaseTrain()
	assert.Equal(t, Rejected, out)
	require.ErrorIs(t, err, ErrNotOccupied)

	_, err = m.AdmitTrain("IC1", "A")
	require.NoError(t, err)
	out, err = m.ReleaseTrain()
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	assert.Equal(t, idleAt(0), m.State())
}

func TestReleaseTrain_AdmitsQueuedTrainsInFIFOOrder(t *testing.T) {
	m := newRoundhouse(t, WithInitialTrack("A"))
	_, err := m.AdmitTrain("OCC", "A")
	require.NoError(t, err)
	_, err = m.AdmitTrain("TA", "A")
	require.NoError(t, err)
	_, err = m.AdmitTrain("TB", "A")
	require.NoError(t, err)
	_, err = m.AdmitTrain("OTHER", "C")
	require.NoError(t, err)

	_, err = m.ReleaseTrain()
	require.NoError(t, err)
	occ, _ := m.Occupant()
	assert.Equal(t, "TA", occ)

	_, err = m.ReleaseTrain()
	require.NoError(t, err)
	occ, _ = m.Occupant()
	assert.Equal(t, "TB", occ)

	_, err = m.ReleaseTrain()
	require.NoError(t, err)
	_, occupied := m.Occupant()
	assert.False(t, occupied, "trains for other tracks are not admitted")
	assert.Equal(t, map[string][]string{"C": {"OTHER"}}, m.Waiting())
}

func TestAdmitNext(t *testing.T) {
	m := newRoundhouse(t, WithInitialTrack("A"))
	out, err := m.AdmitNext()
	require.NoError(t, err)
	assert.Equal(t, NoOp, out)

	_, err = m.AdmitTrain("IC1", "C")
	require.NoError(t, err)
	_, err = m.RequestAlignment("C")
	require.NoError(t, err)

	out, err = m.AdmitNext()
	assert.Equal(t, Rejected, out)
	require.ErrorIs(t, err, ErrRotating)

	_, err = m.RotationComplete()
	require.NoError(t, err)
	out, err = m.AdmitNext()
	require.NoError(t, err)
	assert.Equal(t, Applied, out)
	assert.Equal(t, occupiedAt(2, "IC1"), m.State())

	out, err = m.AdmitNext()
	assert.Equal(t, Rejected, out)
	require.ErrorIs(t, err, ErrOccupied)
}

func TestObserver_SeesEveryTransition(t *testing.T) {
	var seen []Transition
	m := newRoundhouse(t, WithInitialTrack("A"), WithObserver(func(tr Transition) { seen = append(seen, tr) }))

	_, _ = m.AdmitTrain("IC1", "A")
	_, _ = m.AdmitTrain("IC2", "A")
	_, _ = m.ReleaseTrain()
	_, _ = m.RotationComplete() // rejected, no transition

	require.Len(t, seen, 4)
	assert.Equal(t, EventAdmitTrain, seen[0].Event)
	assert.Equal(t, "IC1", seen[0].Train)
	assert.Equal(t, "IC1", seen[0].Snapshot.Occupant)
	assert.Equal(t, "A", seen[0].Snapshot.Alignment)
	assert.Equal(t, EventAdmitTrain, seen[1].Event)
	assert.Equal(t, seen[1].From, seen[1].To, "queueing leaves the deck as it is")
	assert.Equal(t, map[string][]string{"A": {"IC2"}}, seen[1].Snapshot.Queues)
	assert.Equal(t, EventReleaseTrain, seen[2].Event)
	assert.Equal(t, occupiedAt(0, "IC1"), seen[2].From)
	assert.Equal(t, idleAt(0), seen[2].To)
	assert.Equal(t, EventReleaseTrain, seen[3].Event)
	assert.Equal(t, "IC2", seen[3].Train)
	assert.Equal(t, "Roundhouse1", seen[3].Turntable)
	assert.Empty(t, seen[3].Snapshot.Queues)
}

func TestSnapshot(t *testing.T) {
	m := newRoundhouse(t, WithInitialTrack("A"))
	_, _ = m.AdmitTrain("IC1", "B")
	_, _ = m.RequestAlignment("B")

	snap := m.Snapshot()
	assert.Equal(t, Snapshot{
		Turntable: "Roundhouse1",
		State:     "rotating",
		Pending:   "B",
		Queues:    map[string][]string{"B": {"IC1"}},
	}, snap)
}

// TestMachine_RandomSequencesKeepInvariants drives the machine with random
// requests and checks the deck invariants after every step.
func TestMachine_RandomSequencesKeepInvariants(t *testing.T) {
	tracks := []string{"A", "B", "C", "D"}
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		m, err := New("T", []Track{{ID: "A"}, {ID: "B", Degrees: 90}, {ID: "C", Degrees: 180}, {ID: "D", Degrees: 270}})
		require.NoError(t, err)

		for step := 0; step < 200; step++ {
			before := m.State()
			track := tracks[rng.Intn(len(tracks))]

			var out Outcome
			switch rng.Intn(5) {
			case 0:
				out, err = m.RequestAlignment(track)
			case 1:
				out, err = m.RotationComplete()
			case 2:
				train := fmt.Sprintf("T%d", rng.Intn(12))
				out, err = m.AdmitTrain(train, track)
				if out == Applied {
					idx, _ := m.TrackIndex(track)
					require.Equal(t, Idle, before.Kind)
					require.Equal(t, idx, before.Alignment, "admitted onto a misaligned deck")
				}
			case 3:
				out, err = m.ReleaseTrain()
			case 4:
				out, err = m.AdmitNext()
			}

			if out == Rejected {
				require.Error(t, err)
				require.Equal(t, before, m.State(), "rejected request changed state")
			} else {
				require.NoError(t, err)
			}

			s := m.State()
			switch s.Kind {
			case Occupied:
				require.NotEqual(t, NoAlignment, s.Alignment)
				require.NotEmpty(t, s.Train)
				for _, q := range m.Waiting() {
					require.NotContains(t, q, s.Train, "occupant also waiting")
				}
			case Rotating:
				require.Empty(t, s.Train)
				require.NotEqual(t, NoAlignment, s.Target)
			case Idle:
				require.Empty(t, s.Train)
			}

			seen := make(map[string]bool)
			for _, q := range m.Waiting() {
				for _, train := range q {
					require.False(t, seen[train], "train %s waits twice", train)
					seen[train] = true
				}
			}
		}
	}
}

func TestReject_ErrorWrapping(t *testing.T) {
	m := newRoundhouse(t)
	_, err := m.ReleaseTrain()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotOccupied))
	assert.Contains(t, err.Error(), `turntable "Roundhouse1": release_train`)
}
