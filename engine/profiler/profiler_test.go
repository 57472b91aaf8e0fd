package profiler

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-chart/common"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func newTestProfiler(t *testing.T, interval time.Duration) (*Profiler, *fakeClock, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	common.SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { common.SetLogger(nil) })

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	p := NewProfiler(interval)
	p.now = clock.now
	p.lastTime = clock.t
	return p, clock, &buf
}

func TestProfilerLogsOncePerInterval(t *testing.T) {
	p, clock, buf := newTestProfiler(t, time.Second)

	for range 3 {
		clock.t = clock.t.Add(100 * time.Millisecond)
		if p.Tick(2*time.Millisecond, 0) {
			t.Fatal("Tick logged before the interval elapsed")
		}
	}
	if buf.Len() != 0 {
		t.Fatalf("unexpected output: %q", buf.String())
	}

	clock.t = clock.t.Add(700 * time.Millisecond)
	if !p.Tick(6*time.Millisecond, 2) {
		t.Fatal("Tick did not log after the interval elapsed")
	}

	out := buf.String()
	for _, want := range []string{"frame stats", "fps=4", "render_avg=3ms", "render_worst=6ms", "skipped=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestProfilerResetsAfterReport(t *testing.T) {
	p, clock, buf := newTestProfiler(t, time.Second)

	clock.t = clock.t.Add(time.Second)
	p.Tick(9*time.Millisecond, 5)
	buf.Reset()

	clock.t = clock.t.Add(2 * time.Second)
	if !p.Tick(time.Millisecond, 0) {
		t.Fatal("second report missing")
	}
	out := buf.String()
	for _, want := range []string{"fps=0.5", "render_worst=1ms", "skipped=0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestNewProfilerDefaultInterval(t *testing.T) {
	if got := NewProfiler(0).updateInterval; got != time.Second {
		t.Errorf("updateInterval = %v, want 1s", got)
	}
}
