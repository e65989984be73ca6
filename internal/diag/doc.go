// Package diag defines the diagnostics sink used while reading turntable pool
// definitions and driving turntables.
//
// Definition files are authored by hand and are frequently imperfect, so
// nothing reported here is fatal. Each diagnostic carries a severity and the
// file/line it refers to; sinks decide what to do with it (log it, collect it
// for a test, or both).
package diag
