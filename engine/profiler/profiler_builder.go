package profiler

import "time"

// ProfilerBuilderOption is a function that configures a Profiler during construction.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often stats are logged.
//
// Parameters:
//   - d: the reporting interval, ignored when not positive
//
// Returns:
//   - ProfilerBuilderOption: a function that sets the interval
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}
