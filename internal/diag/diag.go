package diag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Severity classifies a diagnostic.
type Severity int

const (
	// Info marks content that was skipped, such as an unrecognised line.
	Info Severity = iota
	// Warning marks content that was discarded in favour of earlier content,
	// such as a duplicate pool name.
	Warning
	// Error marks content that could not be processed at all, such as an
	// unreadable file. It is still not fatal.
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostic is a single report keyed by file path and line number.
type Diagnostic struct {
	Severity Severity
	File     string
	// Line is the 1-based source line within File, or -1 when the
	// diagnostic concerns the whole file.
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	if d.Line < 0 {
		return fmt.Sprintf("%s: %s: %s", d.Severity, d.File, d.Message)
	}
	return fmt.Sprintf("%s: %s:%d: %s", d.Severity, d.File, d.Line, d.Message)
}

// Sink receives diagnostics.
type Sink interface {
	Report(d Diagnostic)
}

// Infof reports an informational diagnostic to s.
func Infof(s Sink, file string, line int, format string, args ...any) {
	s.Report(Diagnostic{Severity: Info, File: file, Line: line, Message: fmt.Sprintf(format, args...)})
}

// Warnf reports a warning diagnostic to s.
func Warnf(s Sink, file string, line int, format string, args ...any) {
	s.Report(Diagnostic{Severity: Warning, File: file, Line: line, Message: fmt.Sprintf(format, args...)})
}

// Errorf reports an error diagnostic to s.
func Errorf(s Sink, file string, line int, format string, args ...any) {
	s.Report(Diagnostic{Severity: Error, File: file, Line: line, Message: fmt.Sprintf(format, args...)})
}

// LogSink forwards diagnostics to a slog.Logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a sink that writes every diagnostic to logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Report implements Sink.
func (s *LogSink) Report(d Diagnostic) {
	level := slog.LevelInfo
	switch d.Severity {
	case Warning:
		level = slog.LevelWarn
	case Error:
		level = slog.LevelError
	}
	s.logger.Log(context.Background(), level, d.Message, "file", d.File, "line", d.Line)
}

// Collector keeps every diagnostic it receives. It is safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// Report implements Sink.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

// All returns a copy of the collected diagnostics in report order.
func (c *Collector) All() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.diags))
	copy(out, c.diags)
	return out
}

// Count returns how many collected diagnostics have severity sev.
func (c *Collector) Count(sev Severity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.diags {
		if d.Severity == sev {
			n++
		}
	}
	return n
}

// Tee fans a diagnostic out to several sinks.
type Tee []Sink

// Report implements Sink.
func (t Tee) Report(d Diagnostic) {
	for _, s := range t {
		s.Report(d)
	}
}

// Discard drops every diagnostic.
var Discard Sink = discard{}

type discard struct{}

func (discard) Report(Diagnostic) {}
