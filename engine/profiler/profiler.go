package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-chart/common"
)

// Profiler tracks frame rate, render cost and memory statistics.
// Outputs stats through common.Logger at a fixed interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration

	renderTotal time.Duration
	renderWorst time.Duration
	skipped     int

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	now func() time.Time
}

// NewProfiler creates a new Profiler reporting every interval.
// Intervals <= 0 default to 1 second.
//
// Parameters:
//   - interval: how often stats are logged
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	p := &Profiler{
		updateInterval: interval,
		now:            time.Now,
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame after the frame has been presented.
// Logs statistics when the update interval has elapsed: FPS, average and worst render time,
// references skipped by the renderer, heap usage, allocation rate and GC pauses.
//
// Parameters:
//   - render: CPU time spent rendering and presenting this frame
//   - skipped: bundles or traces the renderer left out of this frame
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(render time.Duration, skipped int) bool {
	p.frameCount++
	p.renderTotal += render
	p.renderWorst = max(p.renderWorst, render)
	p.skipped += skipped

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()
	avgRender := p.renderTotal / time.Duration(p.frameCount)

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses.
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	common.Logger().Info("frame stats",
		"fps", fps,
		"render_avg", avgRender,
		"render_worst", p.renderWorst,
		"skipped", p.skipped,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"gc_last_pause_us", lastPauseUs,
		"gc_max_pause_us", maxPauseUs,
		"sys_mb", sysMB,
	)

	p.frameCount = 0
	p.renderTotal = 0
	p.renderWorst = 0
	p.skipped = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
