// Package profiler reports frame rate, draw statistics and memory usage of the render loop.
package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/engine/logger"
	"go.uber.org/zap"
)

// Frame holds the counters of one rendered frame.
type Frame struct {
	// Draws is the number of draw calls recorded into passes, bundles excluded.
	Draws int
	// Bundles is the number of bundles replayed.
	Bundles int
	// ShadowPasses is the number of lights redrawn into the shadow atlas.
	ShadowPasses int
}

// Stats is one reporting interval.
type Stats struct {
	FPS          float64
	AvgDraws     float64
	ShadowPasses int
	HeapMB       float64
	AllocRateMB  float64
	GCCount      uint32
	LastPauseUs  uint64
	MaxPauseUs   uint64
	SysMB        float64
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Stats are logged at a configurable interval.
type Profiler struct {
	frameCount     int
	draws          int
	shadowPasses   int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats

	now func() time.Time
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, option := range options {
		option(p)
	}
	p.lastTime = p.now()
	return p
}

// Last returns the stats of the last completed interval.
func (p *Profiler) Last() Stats { return p.last }

// Tick should be called once per frame with that frame's counters.
// Logs performance statistics when the update interval has elapsed.
//
// Parameters:
//   - f: the counters of the frame that just finished
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(f Frame) bool {
	p.frameCount++
	p.draws += f.Draws + f.Bundles
	p.shadowPasses += f.ShadowPasses

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	s := Stats{
		FPS:          float64(p.frameCount) / elapsed.Seconds(),
		AvgDraws:     float64(p.draws) / float64(p.frameCount),
		ShadowPasses: p.shadowPasses,
		HeapMB:       float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:        float64(p.memStats.Sys) / 1024 / 1024,
		GCCount:      p.memStats.NumGC,
	}
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	s.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	if s.GCCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses
		s.LastPauseUs = p.memStats.PauseNs[(s.GCCount-1)%256] / 1000
		start := p.lastGCCount
		if s.GCCount-start > 256 {
			start = s.GCCount - 256
		}
		for i := start; i < s.GCCount; i++ {
			s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	logger.Named("profiler").Info("frame stats",
		zap.Float64("fps", s.FPS),
		zap.Float64("avg_draws", s.AvgDraws),
		zap.Int("shadow_passes", s.ShadowPasses),
		zap.Float64("heap_mb", s.HeapMB),
		zap.Float64("alloc_rate_mb", s.AllocRateMB),
		zap.Uint32("gc", s.GCCount),
		zap.Uint64("gc_last_us", s.LastPauseUs),
		zap.Uint64("gc_max_us", s.MaxPauseUs),
		zap.Float64("sys_mb", s.SysMB))

	p.last = s
	p.frameCount = 0
	p.draws = 0
	p.shadowPasses = 0
	p.lastTime = currentTime
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
