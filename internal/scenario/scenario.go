// Package scenario replays scripted train-dispatch events against the
// turntables of a registry.
//
// A scenario is an HCL file made of event blocks, applied in file order:
//
//	event "align" {
//	  pool  = "Roundhouse1"
//	  track = "B"
//	}
//	event "complete" {
//	  pool = "Roundhouse1"
//	}
//	event "admit" {
//	  pool   = "Roundhouse1"
//	  track  = tracks.Roundhouse1[1]
//	  train  = "IC101"
//	  expect = "applied"
//	}
//
// Supported kinds are align, complete, admit, next and release. An optional
// expect attribute names the outcome the event must produce.
//
// Two variables are available to expressions: pools, the sorted list of pool
// names, and tracks, an object mapping each pool name to its track IDs.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/turntablepool/internal/registry"
	"github.com/specialistvlad/turntablepool/internal/turntable"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Kind is the kind of a scripted event.
type Kind string

const (
	KindAlign    Kind = "align"
	KindComplete Kind = "complete"
	KindAdmit    Kind = "admit"
	KindNext     Kind = "next"
	KindRelease  Kind = "release"
)

// Event is one scripted request.
type Event struct {
	Kind  Kind
	Pool  string
	Track string
	Train string
	// Expect, when set, is the outcome the event must produce.
	Expect string
	// Index is the 1-based position of the event in its file.
	Index int
}

// Script is a parsed scenario.
type Script struct {
	Filename string
	Events   []Event
}

// fileRoot is the top-level shape of a scenario file.
type fileRoot struct {
	Events []*eventBlock `hcl:"event,block"`
}

type eventBlock struct {
	Kind   string `hcl:"kind,label"`
	Pool   string `hcl:"pool"`
	Track  string `hcl:"track,optional"`
	Train  string `hcl:"train,optional"`
	Expect string `hcl:"expect,optional"`
}

// LoadFile reads and parses the scenario at path.
func LoadFile(path string, reg *registry.Registry) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario %s: %w", path, err)
	}
	return Parse(src, path, reg)
}

// Parse decodes a scenario. reg supplies the pools and tracks variables.
func Parse(src []byte, filename string, reg *registry.Registry) (*Script, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", filename, diags)
	}

	evalCtx, err := newEvalContext(reg)
	if err != nil {
		return nil, err
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, evalCtx, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode scenario %s: %w", filename, diags)
	}

	script := &Script{Filename: filename}
	for i, b := range root.Events {
		ev := Event{
			Kind:   Kind(strings.ToLower(strings.TrimSpace(b.Kind))),
			Pool:   b.Pool,
			Track:  b.Track,
			Train:  b.Train,
			Expect: strings.ToLower(strings.TrimSpace(b.Expect)),
			Index:  i + 1,
		}
		if ev.Expect != "" && !validOutcome(ev.Expect) {
			return nil, fmt.Errorf("scenario %s: event %d (%s): unknown expected outcome %q", filename, ev.Index, b.Kind, b.Expect)
		}
		script.Events = append(script.Events, ev)
	}
	return script, nil
}

func validOutcome(s string) bool {
	for _, o := range []turntable.Outcome{turntable.Applied, turntable.NoOp, turntable.Queued, turntable.Rejected} {
		if o.String() == s {
			return true
		}
	}
	return false
}

// newEvalContext exposes the registry's pools and tracks to expressions.
func newEvalContext(reg *registry.Registry) (*hcl.EvalContext, error) {
	names := reg.Names()
	poolsVal, err := gocty.ToCtyValue(names, cty.List(cty.String))
	if err != nil {
		return nil, fmt.Errorf("failed to expose pool names: %w", err)
	}

	tracks := make(map[string]cty.Value, len(names))
	for _, name := range names {
		rec, _ := reg.Lookup(name)
		v, err := gocty.ToCtyValue(rec.TrackIDs(), cty.List(cty.String))
		if err != nil {
			return nil, fmt.Errorf("failed to expose tracks of pool %q: %w", name, err)
		}
		tracks[name] = v
	}
	tracksVal := cty.EmptyObjectVal
	if len(tracks) > 0 {
		tracksVal = cty.ObjectVal(tracks)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"pools":  poolsVal,
			"tracks": tracksVal,
		},
	}, nil
}

var (
	// ErrUnknownPool is reported for events naming a pool that is not registered.
	ErrUnknownPool = errors.New("unknown pool")
	// ErrUnknownEvent is reported for events of an unsupported kind.
	ErrUnknownEvent = errors.New("unknown event kind")
)
