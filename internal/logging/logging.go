// Package logging provides the detector's diagnostic log sink. The
// detection loop in cmd/voxelcast and the concurrently-served monitor
// dashboard can both log at once, so the active logger lives
// behind an atomic.Value rather than a bare package variable a
// concurrent SetLogger call could race with.
package logging

import (
	"log"
	"sync/atomic"
)

// Func is the shape a diagnostic logger must satisfy.
type Func func(format string, v ...interface{})

var active atomic.Value

func init() {
	active.Store(Func(log.Printf))
}

// Logf logs through the currently installed logger.
func Logf(format string, v ...interface{}) {
	active.Load().(Func)(format, v...)
}

// SetLogger installs f as the package logger. Passing nil installs a
// no-op logger, useful in quiet test runs.
func SetLogger(f Func) {
	if f == nil {
		f = func(string, ...interface{}) {}
	}
	active.Store(f)
}
