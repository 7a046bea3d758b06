package monitoring

import (
	"time"

	"github.com/banshee-data/schoolstats/internal/timeutil"
)

// Clock times each Step. Tests replace it with a timeutil.MockClock.
var Clock timeutil.Clock = timeutil.RealClock{}

// Step wraps fn so that each call logs its entry, then either the elapsed
// time or the returned error. The error is passed through untouched.
func Step(logf LogFunc, name string, fn func() error) func() error {
	if logf == nil {
		logf = Logf
	}
	return func() error {
		logf("calling %s", name)
		start := Clock.Now()
		err := fn()
		elapsed := Clock.Since(start).Round(time.Microsecond)
		if err != nil {
			logf("%s failed after %s: %v", name, elapsed, err)
			return err
		}
		logf("%s done in %s", name, elapsed)
		return nil
	}
}

// StepValue is Step for functions that also produce a value.
func StepValue[T any](logf LogFunc, name string, fn func() (T, error)) func() (T, error) {
	return func() (T, error) {
		var out T
		err := Step(logf, name, func() error {
			var err error
			out, err = fn()
			return err
		})()
		return out, err
	}
}
