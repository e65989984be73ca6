// Package turntable models the run-time state of a single turntable: a
// rotating deck that lines up with one of several fixed approach tracks.
//
// A Machine is always in exactly one of three states:
//
//   - Idle(a): the deck is aligned with track a (or with no track yet) and empty.
//   - Rotating(from, to): the deck is moving towards track to.
//   - Occupied(a, train): a train is on the deck, which is aligned with track a.
//
// Every request goes through a single transition function, so contradictory
// combinations such as "occupied while rotating" cannot be represented.
// Requests that do not fit the current state are rejected and leave the state
// untouched. Trains that arrive while the deck is not lined up with their
// track wait in a per-track FIFO queue.
//
// Choosing which track to rotate to next is left to the caller. Completion of
// a rotation is an external event delivered through RotationComplete.
//
// A Machine is not safe for concurrent use. Callers that share one between
// goroutines must serialise access, for example with pool.Handle.
package turntable
