package bundle

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-chart/common"
	"github.com/Carmen-Shannon/oxy-chart/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-chart/engine/tracestore"
)

var errOutOfMemory = errors.New("out of memory")

// fakeAllocator hands out CPU-only buffers and counts releases.
type fakeAllocator struct {
	allocated int
	released  int
	failAfter int // fail the allocation after this many successes, 0 for never
	uploads   map[string][]float32
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{uploads: make(map[string][]float32)}
}

func (a *fakeAllocator) CreateVertexBuffer(label string, vertices []float32) (buffer.VertexBuffer, error) {
	if a.failAfter > 0 && a.allocated >= a.failAfter {
		return nil, errOutOfMemory
	}
	a.allocated++
	a.uploads[label] = append([]float32(nil), vertices...)
	return buffer.NewVertexBuffer(label,
		buffer.WithVertexCount(len(vertices)/2),
		buffer.WithSize(uint64(len(vertices)*4)),
		buffer.WithReleaseHook(func() { a.released++ }),
	), nil
}

func (a *fakeAllocator) live() int {
	return a.allocated - a.released
}

func newTestStore(t *testing.T, alloc Allocator, opts ...StoreBuilderOption) Store {
	t.Helper()
	s := NewStore(alloc, append([]StoreBuilderOption{WithPrepWorkers(2)}, opts...)...)
	t.Cleanup(s.Close)
	return s
}

// threeTraces returns a store with three traces sampled at x = 1e9 + i.
func threeTraces() (*tracestore.MemoryStore, []tracestore.Handle) {
	ms := tracestore.NewMemoryStore()
	var hs []tracestore.Handle
	for k := range 3 {
		xs := []float64{1e9, 1e9 + 1, 1e9 + 2}
		ys := []float64{float64(k), float64(k + 1), float64(k)}
		hs = append(hs, ms.Add(xs, ys))
	}
	return ms, hs
}

func descriptors(hs ...tracestore.Handle) []Descriptor {
	out := make([]Descriptor, len(hs))
	for i, h := range hs {
		out[i] = Descriptor{Trace: h, Width: 1, Color: common.Color{R: 1}}
	}
	return out
}

func TestCreateShiftsByOrigin(t *testing.T) {
	alloc := newFakeAllocator()
	s := newTestStore(t, alloc)
	ms, hs := threeTraces()

	h, err := s.Create(ms, 1e9, 1e9+10, descriptors(hs[0]))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, ok := s.Get(h)
	if !ok || len(b.Entries) != 1 {
		t.Fatalf("Get: ok=%v bundle=%+v", ok, b)
	}
	if b.Entries[0].VertexCount != 3 {
		t.Errorf("VertexCount = %d, want 3", b.Entries[0].VertexCount)
	}

	got := alloc.uploads[fmt.Sprintf("trace %d", hs[0])]
	want := []float32{0, 0, 1, 1, 2, 0}
	if len(got) != len(want) {
		t.Fatalf("uploaded %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("uploaded %v, want %v", got, want)
			break
		}
	}
}

func TestHandlesStrictlyIncreasing(t *testing.T) {
	alloc := newFakeAllocator()
	s := newTestStore(t, alloc)
	ms, hs := threeTraces()

	var prev Handle
	for i := range 20 {
		h, err := s.Create(ms, 0, 2e9, descriptors(hs[i%3]))
		if err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
		if h.Serial() <= prev.Serial() {
			t.Fatalf("handle %d serial %d not above %d", i, h.Serial(), prev.Serial())
		}
		// Disposing every other bundle recycles slots but never serials.
		if i%2 == 0 {
			s.Dispose(h)
			if _, ok := s.Get(h); ok {
				t.Fatalf("disposed handle %s still resolves", h)
			}
		}
		prev = h
	}
	if s.Len() != 10 {
		t.Errorf("Len() = %d, want 10", s.Len())
	}
	handles := s.Handles()
	for i := 1; i < len(handles); i++ {
		if handles[i].Serial() <= handles[i-1].Serial() {
			t.Errorf("Handles() not ascending at %d", i)
		}
	}
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	s := newTestStore(t, newFakeAllocator())
	ms, hs := threeTraces()

	old, _ := s.Create(ms, 0, 2e9, descriptors(hs[0]))
	s.Dispose(old)
	fresh, _ := s.Create(ms, 0, 2e9, descriptors(hs[1]))

	if old.slot != fresh.slot {
		t.Fatalf("expected slot reuse, got %d and %d", old.slot, fresh.slot)
	}
	if _, ok := s.Get(old); ok {
		t.Error("stale handle resolved to the new bundle")
	}
	if err := s.Update(ms, old, nil, nil, nil); !errors.Is(err, ErrUnknownBundle) {
		t.Errorf("Update(stale) = %v, want ErrUnknownBundle", err)
	}
}

func TestUpdateDeleteRemovesExactlyOne(t *testing.T) {
	alloc := newFakeAllocator()
	s := newTestStore(t, alloc)
	ms, hs := threeTraces()

	h, err := s.Create(ms, 1e9, 1e9+10, descriptors(hs...))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	b, _ := s.Get(h)
	target := b.Entry(hs[1])
	others := []*Entry{b.Entry(hs[0]), b.Entry(hs[2])}

	if err := s.Update(ms, h, nil, []tracestore.Handle{hs[1]}, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(b.Entries) != 2 {
		t.Fatalf("%d entries after delete, want 2", len(b.Entries))
	}
	if b.Entry(hs[1]) != nil {
		t.Error("deleted trace still present")
	}
	if !target.Primary.Released() {
		t.Error("deleted entry's buffer not released")
	}
	for _, e := range others {
		if e.Primary.Released() {
			t.Errorf("trace %d buffer released", e.Trace)
		}
	}
	if alloc.released != 1 {
		t.Errorf("released %d buffers, want 1", alloc.released)
	}
}

func TestUpdateModifyKeepsBuffers(t *testing.T) {
	alloc := newFakeAllocator()
	s := newTestStore(t, alloc, WithAreaChart(true))
	ms, hs := threeTraces()

	h, _ := s.Create(ms, 1e9, 1e9+10, descriptors(hs[0]))
	b, _ := s.Get(h)
	e := b.Entries[0]
	primary, fill := e.Primary, e.Area
	allocated := alloc.allocated

	mod := Descriptor{Trace: hs[0], Width: 4, Color: common.Color{G: 1}, PointsMode: true}
	if err := s.Update(ms, h, nil, nil, []Descriptor{mod}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if e.Primary != primary || e.Area != fill {
		t.Error("modify replaced a buffer")
	}
	if alloc.allocated != allocated || alloc.released != 0 {
		t.Errorf("modify allocated %d and released %d buffers", alloc.allocated-allocated, alloc.released)
	}
	if e.Width != 4 || e.Color != mod.Color || !e.PointsMode {
		t.Errorf("entry not updated: %+v", e)
	}
}

func TestUpdateAddStacksOnExistingAreas(t *testing.T) {
	alloc := newFakeAllocator()
	s := newTestStore(t, alloc, WithAreaChart(true))
	ms, hs := threeTraces()

	h, _ := s.Create(ms, 1e9, 1e9+10, descriptors(hs[1]))
	if err := s.Update(ms, h, descriptors(hs[2]), nil, nil); err != nil {
		t.Fatalf("Update: %v", err)
	}
	b, _ := s.Get(h)
	if len(b.Entries) != 2 {
		t.Fatalf("%d entries, want 2", len(b.Entries))
	}
	for _, e := range b.Entries {
		if e.Area == nil || e.AreaVertexCount != (e.VertexCount-1)*4+1 {
			t.Errorf("trace %d: area %v count %d for %d vertices", e.Trace, e.Area, e.AreaVertexCount, e.VertexCount)
		}
	}

	// The added strip starts on the first trace's curve (y = 1 at x = 0).
	strip := alloc.uploads[fmt.Sprintf("trace %d area", hs[2])]
	if strip[0] != 0 || strip[1] != 1 {
		t.Errorf("added area starts at (%v, %v), want (0, 1)", strip[0], strip[1])
	}
}

func TestCreateStacksAreasCumulatively(t *testing.T) {
	alloc := newFakeAllocator()
	s := newTestStore(t, alloc, WithAreaChart(true))
	ms := tracestore.NewMemoryStore()
	var hs []tracestore.Handle
	for range 3 {
		hs = append(hs, ms.Add([]float64{0, 1, 2}, []float64{1, 1, 1}))
	}

	if _, err := s.Create(ms, 0, 2, descriptors(hs...)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for k, th := range hs {
		lo, hi := float32(k), float32(k+1)

		line := alloc.uploads[fmt.Sprintf("trace %d", th)]
		for i := 1; i < len(line); i += 2 {
			if line[i] != hi {
				t.Errorf("trace %d: line y=%v, want %v", th, line[i], hi)
				break
			}
		}

		strip := alloc.uploads[fmt.Sprintf("trace %d area", th)]
		if len(strip) != 2*9 {
			t.Fatalf("trace %d: area of %d floats, want 18", th, len(strip))
		}
		minY, maxY := strip[1], strip[1]
		for i := 1; i < len(strip); i += 2 {
			minY, maxY = min(minY, strip[i]), max(maxY, strip[i])
		}
		if minY != lo || maxY != hi {
			t.Errorf("trace %d: area spans y=%v..%v, want %v..%v", th, minY, maxY, lo, hi)
		}
	}
}

func TestUpdateDuplicateAdd(t *testing.T) {
	alloc := newFakeAllocator()
	s := newTestStore(t, alloc)
	ms, hs := threeTraces()

	h, _ := s.Create(ms, 0, 2e9, descriptors(hs[0]))
	if err := s.Update(ms, h, descriptors(hs[0]), nil, nil); !errors.Is(err, ErrDuplicateTrace) {
		t.Errorf("re-adding a present trace: %v, want ErrDuplicateTrace", err)
	}
	// Deleting and re-adding in one call is a replacement.
	if err := s.Update(ms, h, descriptors(hs[0]), []tracestore.Handle{hs[0]}, nil); err != nil {
		t.Errorf("replace: %v", err)
	}
	if _, err := s.Create(ms, 0, 1, descriptors(hs[1], hs[1])); !errors.Is(err, ErrDuplicateTrace) {
		t.Errorf("duplicate in create: %v, want ErrDuplicateTrace", err)
	}
}

func TestCreateUnknownTraceAllocatesNothing(t *testing.T) {
	alloc := newFakeAllocator()
	s := newTestStore(t, alloc)
	ms, hs := threeTraces()

	_, err := s.Create(ms, 0, 2e9, descriptors(hs[0], 999))
	var unknown *UnknownTraceError
	if !errors.As(err, &unknown) || unknown.Trace != 999 {
		t.Fatalf("err = %v, want *UnknownTraceError for 999", err)
	}
	if !errors.Is(err, ErrUnknownTrace) {
		t.Error("error does not match ErrUnknownTrace")
	}
	if alloc.allocated != 0 || s.Len() != 0 {
		t.Errorf("allocated %d buffers and %d bundles", alloc.allocated, s.Len())
	}
}

func TestCreateRollsBackOnAllocationFailure(t *testing.T) {
	alloc := newFakeAllocator()
	alloc.failAfter = 2
	s := newTestStore(t, alloc)
	ms, hs := threeTraces()

	_, err := s.Create(ms, 0, 2e9, descriptors(hs...))
	if !errors.Is(err, ErrResourceExhausted) || !errors.Is(err, errOutOfMemory) {
		t.Fatalf("err = %v, want ErrResourceExhausted wrapping the allocator error", err)
	}
	if alloc.live() != 0 {
		t.Errorf("%d buffers leaked", alloc.live())
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d after failed create", s.Len())
	}
}

func TestDisposeIdempotent(t *testing.T) {
	alloc := newFakeAllocator()
	s := newTestStore(t, alloc, WithAreaChart(true))
	ms, hs := threeTraces()

	h, _ := s.Create(ms, 0, 2e9, descriptors(hs...))
	if alloc.allocated != 6 {
		t.Fatalf("allocated %d buffers, want 6", alloc.allocated)
	}

	s.Dispose(h)
	s.Dispose(h)
	s.Dispose(Handle{})

	if alloc.released != 6 {
		t.Errorf("released %d buffers, want 6", alloc.released)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d", s.Len())
	}
}

func TestCloseDisposesEverything(t *testing.T) {
	alloc := newFakeAllocator()
	s := NewStore(alloc, WithPrepWorkers(1))
	ms, hs := threeTraces()

	for _, th := range hs {
		if _, err := s.Create(ms, 0, 2e9, descriptors(th)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	s.Close()
	s.Close()

	if alloc.live() != 0 {
		t.Errorf("%d buffers still live after Close", alloc.live())
	}
	if _, err := s.Create(ms, 0, 1, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Create after Close = %v, want ErrClosed", err)
	}
}
