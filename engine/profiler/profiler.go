package profiler

import (
	"log/slog"
	"runtime"
	"time"
)

// Stats is one reporting window's worth of measurements.
type Stats struct {
	FPS         float64
	FrameTime   time.Duration
	HeapMB      float64
	AllocRateMB float64
	NumGC       uint32
	MaxPause    time.Duration
	SysMB       float64
}

// Profiler tracks frame rate and memory statistics and logs them once per interval.
// It is not safe for concurrent use; call Tick from the render loop only.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	now            func() time.Time
}

// NewProfiler creates a Profiler that reports every interval. A non-positive interval
// defaults to one second.
//
// Returns:
//   - *Profiler: the newly created profiler
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
		now:            time.Now,
	}
}

// Tick records one frame. When the interval has elapsed it logs the window's statistics at
// Info and returns them.
//
// Returns:
//   - Stats: the statistics for the elapsed window
//   - bool: true if a window closed on this tick
func (p *Profiler) Tick() (Stats, bool) {
	p.frameCount++
	current := p.now()
	elapsed := current.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Stats{}, false
	}

	runtime.ReadMemStats(&p.memStats)
	stats := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		FrameTime:   elapsed / time.Duration(p.frameCount),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		NumGC:       p.memStats.NumGC,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
	}

	// PauseNs is a circular buffer of the last 256 pauses.
	start := p.lastGCCount
	if stats.NumGC-start > 256 {
		start = stats.NumGC - 256
	}
	for i := start; i < stats.NumGC; i++ {
		stats.MaxPause = max(stats.MaxPause, time.Duration(p.memStats.PauseNs[i%256]))
	}

	slog.Info("frame stats",
		"fps", stats.FPS,
		"frame_time", stats.FrameTime,
		"heap_mb", stats.HeapMB,
		"alloc_rate_mb_s", stats.AllocRateMB,
		"gc", stats.NumGC,
		"max_pause", stats.MaxPause,
		"sys_mb", stats.SysMB,
	)

	p.frameCount = 0
	p.lastTime = current
	p.lastGCCount = stats.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return stats, true
}
