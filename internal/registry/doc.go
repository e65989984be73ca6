// Package registry holds the turntable pools known to one simulation run.
//
// The registry maps a pool name to its pool.Record. It is filled once by the
// definition parser, on a single goroutine, and is read-only afterwards: the
// simulation looks pools up by name and drives the turntable each record owns.
//
// Names are unique. Inserting a second record under a name that is already
// present is refused and the first record stays in place; the caller decides
// how to report the conflict.
package registry
