package pooldef

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/specialistvlad/turntablepool/internal/ctxlog"
	"github.com/specialistvlad/turntablepool/internal/diag"
	"github.com/specialistvlad/turntablepool/internal/linereader"
	"github.com/specialistvlad/turntablepool/internal/pool"
)

// BuildRecord reads the pool block whose #name line is at f.Lines[cursor] and
// returns the record together with the index of the first line after the
// block. The returned cursor is always greater than cursor.
//
// A block without a name still consumes all of its lines; the returned record
// then has an empty name and must be discarded.
func BuildRecord(ctx context.Context, f *linereader.File, cursor int, sink diag.Sink) (*pool.Record, int) {
	logger := ctxlog.FromContext(ctx)

	head := f.Lines[cursor]
	rec := &pool.Record{
		Name:       head.Field(1),
		SourceFile: f.Path,
		SourceLine: head.Number,
	}
	cursor++

	for ; cursor < f.Len(); cursor++ {
		line := f.Lines[cursor]
		kw := ParseKeyword(line.Field(0))
		if kw.TopLevel() {
			break
		}

		switch kw {
		case KeywordEmpty, KeywordComment:
		case KeywordTrack:
			addTrack(rec, line, sink)
		case KeywordWorldFile:
			if v := line.Field(1); v != "" {
				rec.WorldFile = v
			} else {
				diag.Infof(sink, f.Path, line.Number, "#worldfile without a file name in pool %q", rec.Name)
			}
		case KeywordUID:
			uid, err := strconv.Atoi(line.Field(1))
			if err != nil {
				diag.Infof(sink, f.Path, line.Number, "invalid #uid %q in pool %q", line.Field(1), rec.Name)
				continue
			}
			rec.UID, rec.HasUID = uid, true
		case KeywordName:
			// Unreachable: handled by TopLevel above.
		case KeywordUnknown:
			diag.Infof(sink, f.Path, line.Number, "unrecognised keyword %q in pool %q", line.Field(0), rec.Name)
		}
	}

	if rec.Name == "" {
		logger.Debug("Discarding unnamed turntable pool.", "file", f.Path, "line", head.Number)
	} else {
		logger.Debug("Turntable pool read.", "pool", rec.Name, "tracks", len(rec.Tracks), "file", f.Path, "line", head.Number)
	}
	return rec, cursor
}

// addTrack appends the track declared on line unless it is malformed or
// clashes with an earlier track of the same pool.
func addTrack(rec *pool.Record, line linereader.Line, sink diag.Sink) {
	id, raw := line.Field(1), line.Field(2)
	if id == "" || raw == "" {
		diag.Infof(sink, rec.SourceFile, line.Number, "track declaration needs an identifier and a position in pool %q", rec.Name)
		return
	}
	degrees, err := strconv.ParseFloat(strings.TrimSuffix(raw, "°"), 64)
	if err != nil || math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		diag.Infof(sink, rec.SourceFile, line.Number, "invalid position %q for track %q in pool %q", raw, id, rec.Name)
		return
	}
	pos := pool.NewPosition(degrees)

	if prev, dup := rec.TrackByID(id); dup {
		diag.Warnf(sink, rec.SourceFile, line.Number, "track %q already declared on line %d in pool %q; ignored", id, prev.Line, rec.Name)
		return
	}
	if prev, dup := rec.TrackAt(pos); dup {
		diag.Warnf(sink, rec.SourceFile, line.Number, "track %q uses position %s already taken by track %q in pool %q; ignored", id, pos, prev.ID, rec.Name)
		return
	}
	rec.Tracks = append(rec.Tracks, pool.Track{ID: id, Position: pos, Line: line.Number})
}
