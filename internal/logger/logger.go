// Package logger writes levelled diagnostics for docsearch to stderr.
//
// Debug, Info and Warn lines appear only in verbose mode (--verbose).
// Errors are always written. Level prefixes are coloured when the output
// is a terminal.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level is the severity of a log line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the bracketed prefix for the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "LOG"
	}
}

var prefixColors = map[Level]*color.Color{
	LevelDebug: color.New(color.FgHiBlack),
	LevelInfo:  color.New(color.FgCyan),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed, color.Bold),
}

var (
	mu      sync.Mutex
	verbose bool
	output  io.Writer = os.Stderr
	now               = time.Now
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.Lock()
	defer mu.Unlock()
	return verbose
}

// SetOutput redirects log lines. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// enabled reports whether lines at level are written. Callers hold mu.
func enabled(level Level) bool {
	return verbose || level >= LevelError
}

func logf(level Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !enabled(level) {
		return
	}
	prefix := prefixColors[level].Sprintf("[%s]", level)
	fmt.Fprintf(output, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

// Debug traces pipeline internals.
func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }

// Info reports progress.
func Info(format string, args ...any) { logf(LevelInfo, format, args...) }

// Warn reports recoverable problems such as skipped files.
func Warn(format string, args ...any) { logf(LevelWarn, format, args...) }

// Error reports failures regardless of verbose mode.
func Error(format string, args ...any) { logf(LevelError, format, args...) }

// Section prints a section header in verbose mode.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", color.New(color.Bold).Sprint(name))
	}
}

// Timed logs the start of an operation at debug level and returns a func
// that logs its duration when called.
//
//	defer logger.Timed("import %s", name)()
func Timed(format string, args ...any) func() {
	label := fmt.Sprintf(format, args...)
	Debug("%s: started", label)

	mu.Lock()
	start := now()
	mu.Unlock()

	return func() {
		mu.Lock()
		elapsed := now().Sub(start)
		mu.Unlock()
		Debug("%s: done in %s", label, elapsed.Round(time.Millisecond))
	}
}
