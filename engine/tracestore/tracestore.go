// Package tracestore defines the boundary between the chart renderer and the store that owns raw
// trace samples, plus a small in-memory store used by tests and examples.
package tracestore

import (
	"iter"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-chart/common"
)

// Handle identifies a trace within a Store.
type Handle uint64

// Trace is a single time series owned by a Store.
type Trace interface {
	// WindowedPoints yields the samples whose x lies in [from, to], shifted by (originX, originY)
	// and narrowed to float32. The sequence is finite and may be iterated more than once.
	//
	// Parameters:
	//   - from: the first x value to include
	//   - to: the last x value to include
	//   - originX: subtracted from every x before narrowing
	//   - originY: subtracted from every y before narrowing
	//
	// Returns:
	//   - iter.Seq[common.Point]: the shifted samples in ascending x order
	WindowedPoints(from, to, originX, originY float64) iter.Seq[common.Point]
}

// Store resolves trace handles to traces.
type Store interface {
	// Trace looks up the trace for a handle.
	//
	// Parameters:
	//   - h: the trace handle
	//
	// Returns:
	//   - Trace: the trace, or nil if not found
	//   - bool: true if the handle is known
	Trace(h Handle) (Trace, bool)
}

// Collect drains a windowed query into a slice.
//
// Parameters:
//   - t: the trace to query
//   - from, to: the x window
//   - originX, originY: the coordinate shift
//
// Returns:
//   - []common.Point: the shifted samples
func Collect(t Trace, from, to, originX, originY float64) []common.Point {
	var out []common.Point
	for p := range t.WindowedPoints(from, to, originX, originY) {
		out = append(out, p)
	}
	return out
}

// MemoryStore is a Store backed by in-memory sample arrays. Samples are kept sorted by x.
// It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	next   Handle
	traces map[Handle]*memoryTrace
}

var _ Store = &MemoryStore{}

// NewMemoryStore creates an empty MemoryStore.
//
// Returns:
//   - *MemoryStore: the new store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{traces: make(map[Handle]*memoryTrace)}
}

// Add stores a new trace. xs and ys must have the same length; samples are copied and sorted by x.
//
// Parameters:
//   - xs: the sample x values (e.g. timestamps)
//   - ys: the sample y values
//
// Returns:
//   - Handle: the handle of the new trace
func (s *MemoryStore) Add(xs, ys []float64) Handle {
	n := min(len(xs), len(ys))
	t := &memoryTrace{xs: make([]float64, n), ys: make([]float64, n)}
	copy(t.xs, xs[:n])
	copy(t.ys, ys[:n])
	sort.Sort(t)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.traces[s.next] = t
	return s.next
}

// Append adds samples to the end of an existing trace. Returns false if the handle is unknown.
//
// Parameters:
//   - h: the trace handle
//   - xs: the new x values
//   - ys: the new y values
//
// Returns:
//   - bool: true if the trace exists
func (s *MemoryStore) Append(h Handle, xs, ys []float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.traces[h]
	if !ok {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	n := min(len(xs), len(ys))
	t.xs = append(t.xs, xs[:n]...)
	t.ys = append(t.ys, ys[:n]...)
	if !sort.IsSorted(t) {
		sort.Sort(t)
	}
	return true
}

// Remove deletes a trace. Removing an unknown handle is a no-op.
//
// Parameters:
//   - h: the trace handle
func (s *MemoryStore) Remove(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.traces, h)
}

func (s *MemoryStore) Trace(h Handle) (Trace, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.traces[h]
	if !ok {
		return nil, false
	}
	return t, true
}

// memoryTrace holds samples sorted by x.
type memoryTrace struct {
	mu sync.RWMutex
	xs []float64
	ys []float64
}

func (t *memoryTrace) Len() int           { return len(t.xs) }
func (t *memoryTrace) Less(i, j int) bool { return t.xs[i] < t.xs[j] }
func (t *memoryTrace) Swap(i, j int) {
	t.xs[i], t.xs[j] = t.xs[j], t.xs[i]
	t.ys[i], t.ys[j] = t.ys[j], t.ys[i]
}

func (t *memoryTrace) WindowedPoints(from, to, originX, originY float64) iter.Seq[common.Point] {
	return func(yield func(common.Point) bool) {
		t.mu.RLock()
		defer t.mu.RUnlock()

		lo := sort.SearchFloat64s(t.xs, from)
		for i := lo; i < len(t.xs) && t.xs[i] <= to; i++ {
			// Subtract in float64 before narrowing so large x values keep their precision.
			p := common.Point{X: float32(t.xs[i] - originX), Y: float32(t.ys[i] - originY)}
			if !yield(p) {
				return
			}
		}
	}
}
