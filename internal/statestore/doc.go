// Package statestore keeps the latest snapshot of every live turntable.
//
// Turntables are driven from dispatch goroutines while status readers (the
// HTTP status endpoint, the CLI summary) poll from others. The store is fed by
// turntable observers and read without touching the turntables themselves,
// so readers never contend for a turntable's lock.
//
// Entries are keyed by pool name and written often, so the store is backed by
// sync.Map. Nothing is persisted; a store lives for one simulation run.
package statestore
