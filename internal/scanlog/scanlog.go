// Package scanlog provides the leveled, colorized log lines every
// recoverable scan failure (spec.md §7: path resolution failures, archive
// open failures, classfile parse failures) is routed through, instead of
// being printed ad hoc. Grounded on the teacher's cmd/query.go use of
// github.com/fatih/color for CLI output coloring, generalized into a
// small leveled logger any package can hold a reference to.
package scanlog

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Level orders log severity; zero value is Info.
type Level int

const (
	Info Level = iota
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

var (
	infoColor  = color.New(color.FgWhite)
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed)
)

// Logger writes leveled, colorized lines to an underlying writer. The zero
// value is not usable; construct with New.
type Logger struct {
	mu  sync.Mutex
	out io.Writer
}

// New builds a Logger writing to out.
func New(out io.Writer) *Logger {
	return &Logger{out: out}
}

// Default writes to os.Stderr, matching where the teacher's CLI sends its
// own warnings ("Warning: failed to build module registry...").
func Default() *Logger {
	return New(os.Stderr)
}

// Component is a diagnostic's originating concern, e.g. "classfile",
// "archivepool", "pathres".
type Component string

// Field logs: component, plus free-form key/value pairs (archive path,
// class name, classpath token) describing one diagnostic.
func (lg *Logger) log(level Level, component Component, msg string, fields map[string]any) {
	c := infoColor
	switch level {
	case Warn:
		c = warnColor
	case Error:
		c = errorColor
	}

	lg.mu.Lock()
	defer lg.mu.Unlock()
	line := fmt.Sprintf("[%s] %s: %s", level, component, msg)
	for k, v := range fields {
		line += fmt.Sprintf(" %s=%v", k, v)
	}
	_, _ = c.Fprintln(lg.out, line)
}

// Info logs a routine, non-actionable event.
func (lg *Logger) Info(component Component, msg string, fields map[string]any) {
	lg.log(Info, component, msg, fields)
}

// Warn logs a recoverable scan failure that was skipped rather than
// propagated: masked duplicates, a recoverable parse error, a classpath
// element that failed to resolve.
func (lg *Logger) Warn(component Component, msg string, fields map[string]any) {
	lg.log(Warn, component, msg, fields)
}

// Error logs a failure serious enough to abort the scan: archive pool
// creation failure, linker invariant violation.
func (lg *Logger) Error(component Component, msg string, fields map[string]any) {
	lg.log(Error, component, msg, fields)
}

// DeferredErrors logs every error a classpath.Scan recovered from and
// continued past, one Warn line per error.
func (lg *Logger) DeferredErrors(component Component, errs []error) {
	for _, err := range errs {
		lg.Warn(component, err.Error(), nil)
	}
}
