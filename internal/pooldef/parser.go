package pooldef

import (
	"context"

	"github.com/specialistvlad/turntablepool/internal/ctxlog"
	"github.com/specialistvlad/turntablepool/internal/diag"
	"github.com/specialistvlad/turntablepool/internal/fsutil"
	"github.com/specialistvlad/turntablepool/internal/linereader"
	"github.com/specialistvlad/turntablepool/internal/registry"
)

// DefaultToken is the file name fragment that marks turntable pool files.
const DefaultToken = "turntable"

// Selector chooses the definition files to read.
type Selector struct {
	// Roots are files or directories to search.
	Roots []string
	// Token must appear in a file's base name, ignoring case. Empty means
	// DefaultToken.
	Token string
	// Read splits a file into lines. Nil means linereader.ReadFile.
	Read func(path string) (*linereader.File, error)
}

// ProcessTurntables reads every file matched by sel into a new registry.
//
// Cancellation is checked before every line. When ctx is done the current
// file is abandoned at the last complete record and no further files are
// read; the pools collected so far are returned.
func ProcessTurntables(ctx context.Context, sel Selector, sink diag.Sink) *registry.Registry {
	logger := ctxlog.FromContext(ctx)
	reg := registry.New()

	token := sel.Token
	if token == "" {
		token = DefaultToken
	}
	read := sel.Read
	if read == nil {
		read = linereader.ReadFile
	}

	paths, err := fsutil.FindFilesByToken(token, sel.Roots...)
	if err != nil {
		logger.Error("Failed to search for turntable pool files.", "roots", sel.Roots, "error", err)
		diag.Errorf(sink, "", -1, "failed to search for turntable pool files: %v", err)
		return reg
	}
	if len(paths) == 0 {
		logger.Warn("No turntable pool files found.", "roots", sel.Roots, "token", token)
		return reg
	}
	logger.Debug("Found turntable pool files.", "files", paths)

	for _, path := range paths {
		if ctx.Err() != nil {
			logger.Info("Turntable pool loading cancelled.", "pools", reg.Len())
			break
		}
		f, err := read(path)
		if err != nil {
			diag.Errorf(sink, path, -1, "failed to read turntable pool file: %v", err)
			continue
		}
		added := ProcessLines(ctxlog.With(ctx, "file", path), f, reg, sink)
		logger.Debug("Turntable pool file processed.", "file", path, "pools_added", added)
	}

	logger.Info("Turntable pools loaded.", "files", len(paths), "pools", reg.Len())
	return reg
}

// ProcessLines walks the lines of one file and inserts every named pool into
// reg. It returns the number of pools added.
func ProcessLines(ctx context.Context, f *linereader.File, reg *registry.Registry, sink diag.Sink) int {
	added := 0
	// Line 0 is the header.
	cursor := 1
	for cursor < f.Len() {
		if ctx.Err() != nil {
			return added
		}

		line := f.Lines[cursor]
		switch ParseKeyword(line.Field(0)) {
		case KeywordEmpty, KeywordComment:
			cursor++
		case KeywordName:
			record, next := BuildRecord(ctx, f, cursor, sink)
			cursor = next
			if !record.Valid() {
				continue
			}
			if existing, ok := reg.Insert(record); !ok {
				diag.Warnf(sink, f.Path, record.SourceLine, "duplicate turntable pool %q ignored; first defined at %s:%d",
					record.Name, existing.SourceFile, existing.SourceLine)
				continue
			}
			added++
		default:
			// Block keywords outside a block are as unexpected as unknown ones.
			diag.Infof(sink, f.Path, line.Number, "unrecognised line starting with %q", line.Field(0))
			cursor++
		}
	}
	return added
}
