// Package pooldef reads turntable pool definition files into a registry.
//
// A definition file is a delimited text file. Line 0 is a header and is
// ignored. Every further line starts with a keyword:
//
//	#comment  ...              ignored
//	#name     <pool name>      starts a pool block
//	track     <id> <degrees>   a connected track (alias: #access)
//	#worldfile <file>          world file holding the turntable
//	#uid      <n>              world-file UID of the turntable
//
// Only #name starts a new block; every other line up to the next #name, or
// the end of the file, belongs to the current pool. Lines that cannot be
// understood are reported to a diag.Sink and skipped. Nothing in a definition
// file is fatal.
package pooldef
