// Package monitoring holds the diagnostic logger shared by the pipeline and
// the logging decorator that wraps each pipeline step.
package monitoring

import "log"

// LogFunc is a printf-style logging function.
type LogFunc func(format string, v ...interface{})

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests can redirect or mute it.
var Logf LogFunc = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f LogFunc) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// WithPrefix returns a LogFunc that prepends "[prefix] " to every message and
// forwards to whatever Logf is at call time, so SetLogger still takes effect.
func WithPrefix(prefix string) LogFunc {
	if prefix == "" {
		return func(format string, v ...interface{}) { Logf(format, v...) }
	}
	return func(format string, v ...interface{}) {
		Logf("["+prefix+"] "+format, v...)
	}
}
