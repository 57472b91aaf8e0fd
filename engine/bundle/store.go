package bundle

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-chart/common"
	"github.com/Carmen-Shannon/oxy-chart/engine/area"
	"github.com/Carmen-Shannon/oxy-chart/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-chart/engine/tracestore"
)

// Allocator creates GPU vertex buffers. The renderer backend implements it.
type Allocator interface {
	// CreateVertexBuffer allocates a vertex buffer and uploads vertices into it.
	//
	// Parameters:
	//   - label: the debug label
	//   - vertices: flattened x, y pairs
	//
	// Returns:
	//   - buffer.VertexBuffer: the new buffer holding len(vertices)/2 vertices
	//   - error: an error if the buffer could not be allocated
	CreateVertexBuffer(label string, vertices []float32) (buffer.VertexBuffer, error)
}

// slot is one cell of the handle table. A free slot has serial 0.
type slot struct {
	serial uint64
	bundle *Bundle
}

// store is the implementation of the Store interface.
type store struct {
	alloc Allocator

	slots []slot
	free  []uint32
	live  int

	areaChart   bool
	prepWorkers int
	pool        worker.DynamicWorkerPool
	ownsPool    bool
	closed      bool
}

// Store owns every bundle and the GPU buffers inside them.
//
// A Store is used from the single goroutine that owns the GPU device. Only the CPU-side
// vertex preparation inside Create and Update fans out to the worker pool, and it is joined
// before any buffer is allocated.
type Store interface {
	// Create builds a bundle for descriptors, fetching each trace's samples in [from, to] shifted
	// by (from, 0). Every trace is validated before anything is allocated. If an allocation fails,
	// the buffers already allocated by the call are released before returning.
	//
	// Parameters:
	//   - traces: resolves trace handles
	//   - from: the bundle origin and first x fetched
	//   - to: the last x fetched
	//   - descriptors: the traces to include, in stacking order
	//
	// Returns:
	//   - Handle: the new bundle's handle
	//   - error: a *UnknownTraceError, ErrDuplicateTrace, ErrResourceExhausted or ErrClosed
	Create(traces tracestore.Store, from, to float64, descriptors []Descriptor) (Handle, error)

	// Update applies a delta to a bundle: entries for del are released and removed, entries
	// matching modify take the new width, color and points mode without touching their
	// buffers, and add is appended using the bundle's own origin with area stacking continuing
	// on top of the existing entries. Validation and allocation happen before the bundle is
	// changed, so a failed Update leaves it as it was.
	//
	// Parameters:
	//   - traces: resolves trace handles for add
	//   - h: the bundle to update
	//   - add: traces to append
	//   - del: traces to remove
	//   - modify: new draw settings for existing traces
	//
	// Returns:
	//   - error: ErrUnknownBundle, a *UnknownTraceError, ErrDuplicateTrace, ErrResourceExhausted or ErrClosed
	Update(traces tracestore.Store, h Handle, add []Descriptor, del []tracestore.Handle, modify []Descriptor) error

	// Dispose releases every buffer of the bundle and forgets it. Unknown or stale handles are ignored.
	//
	// Parameters:
	//   - h: the bundle to dispose
	Dispose(h Handle)

	// Get looks up a live bundle.
	//
	// Parameters:
	//   - h: the bundle handle
	//
	// Returns:
	//   - *Bundle: the bundle, owned by the store
	//   - bool: false if h is unknown or stale
	Get(h Handle) (*Bundle, bool)

	// Len returns the number of live bundles.
	Len() int

	// Handles returns the handles of all live bundles in ascending serial order.
	Handles() []Handle

	// AreaChart reports whether area fills are built.
	AreaChart() bool

	// Close disposes every live bundle and stops the worker pool if the store created it.
	// Further calls are no-ops.
	Close()
}

var _ Store = &store{}

// NewStore creates a Store that allocates buffers through alloc.
//
// Parameters:
//   - alloc: creates GPU vertex buffers
//   - options: a variadic list of options to configure the store
//
// Returns:
//   - Store: the new store
func NewStore(alloc Allocator, options ...StoreBuilderOption) Store {
	s := &store{
		alloc:       alloc,
		prepWorkers: defaultPrepWorkers(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.pool == nil {
		s.pool = worker.NewDynamicWorkerPool(s.prepWorkers, prepQueueSize, prepIdleTimeout)
		s.ownsPool = true
	}
	return s
}

// prepared is the CPU-side result of fetching one trace.
type prepared struct {
	desc     Descriptor
	points   []common.Point
	vertices []float32
}

func (s *store) Create(traces tracestore.Store, from, to float64, descriptors []Descriptor) (Handle, error) {
	if s.closed {
		return Handle{}, ErrClosed
	}
	if err := checkDuplicates(descriptors, nil); err != nil {
		return Handle{}, err
	}
	resolved, err := resolve(traces, descriptors)
	if err != nil {
		return Handle{}, err
	}

	b := &Bundle{OriginFrom: from, OriginTo: to}
	entries, baseline, err := s.build(resolved, descriptors, b, nil)
	if err != nil {
		return Handle{}, err
	}
	b.Entries = entries
	b.baseline = baseline

	h := s.insert(b)
	common.Logger().Debug("bundle created",
		"bundle", h.Serial(),
		"traces", len(entries),
		"from", from,
		"to", to,
	)
	return h, nil
}

func (s *store) Update(traces tracestore.Store, h Handle, add []Descriptor, del []tracestore.Handle, modify []Descriptor) error {
	if s.closed {
		return ErrClosed
	}
	b, ok := s.Get(h)
	if !ok {
		common.Logger().Error("update of unknown bundle", "bundle", h.Serial())
		return fmt.Errorf("%w: %s", ErrUnknownBundle, h)
	}

	deleted := make(map[tracestore.Handle]struct{}, len(del))
	for _, t := range del {
		deleted[t] = struct{}{}
	}
	existing := make(map[tracestore.Handle]struct{}, len(b.Entries))
	for _, e := range b.Entries {
		if _, gone := deleted[e.Trace]; !gone {
			existing[e.Trace] = struct{}{}
		}
	}
	if err := checkDuplicates(add, existing); err != nil {
		return err
	}
	resolved, err := resolve(traces, add)
	if err != nil {
		return err
	}

	added, baseline, err := s.build(resolved, add, b, b.baseline)
	if err != nil {
		return err
	}

	kept := b.Entries[:0]
	for _, e := range b.Entries {
		if _, gone := deleted[e.Trace]; gone {
			e.release()
			continue
		}
		kept = append(kept, e)
	}
	clear(b.Entries[len(kept):])
	b.Entries = kept

	for _, d := range modify {
		if e := b.Entry(d.Trace); e != nil {
			e.apply(d)
		} else {
			common.Logger().Debug("modify of trace not in bundle", "bundle", h.Serial(), "trace", d.Trace)
		}
	}

	b.Entries = append(b.Entries, added...)
	if len(added) > 0 {
		b.baseline = baseline
	}

	common.Logger().Debug("bundle updated",
		"bundle", h.Serial(),
		"added", len(added),
		"deleted", len(del),
		"modified", len(modify),
	)
	return nil
}

func (s *store) Dispose(h Handle) {
	b, ok := s.Get(h)
	if !ok {
		return
	}
	b.release()
	s.slots[h.slot] = slot{}
	s.free = append(s.free, h.slot)
	s.live--
	common.Logger().Debug("bundle disposed", "bundle", h.Serial())
}

func (s *store) Get(h Handle) (*Bundle, bool) {
	if h.IsZero() || int(h.slot) >= len(s.slots) {
		return nil, false
	}
	sl := s.slots[h.slot]
	if sl.serial != h.serial {
		return nil, false
	}
	return sl.bundle, true
}

func (s *store) Len() int {
	return s.live
}

func (s *store) Handles() []Handle {
	out := make([]Handle, 0, s.live)
	for i, sl := range s.slots {
		if sl.serial != 0 {
			out = append(out, Handle{slot: uint32(i), serial: sl.serial})
		}
	}
	slices.SortFunc(out, func(a, b Handle) int {
		return cmp.Compare(a.serial, b.serial)
	})
	return out
}

func (s *store) AreaChart() bool {
	return s.areaChart
}

func (s *store) Close() {
	if s.closed {
		return
	}
	for _, h := range s.Handles() {
		s.Dispose(h)
	}
	if s.ownsPool {
		s.pool.Stop()
	}
	s.closed = true
}

// insert places b in a free slot, or a new one, under a fresh serial.
func (s *store) insert(b *Bundle) Handle {
	h := Handle{serial: nextSerial()}
	if n := len(s.free); n > 0 {
		h.slot = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		h.slot = uint32(len(s.slots))
		s.slots = append(s.slots, slot{})
	}
	s.slots[h.slot] = slot{serial: h.serial, bundle: b}
	s.live++
	return h
}

// build fetches, stacks and uploads the traces for b. Fetching runs on the worker pool and is
// joined before stacking; stacking follows descriptor order; uploads happen on the calling
// goroutine. On failure every buffer allocated by this call is released.
func (s *store) build(resolved []tracestore.Trace, descriptors []Descriptor, b *Bundle, baseline area.Baseline) ([]*Entry, area.Baseline, error) {
	preps := s.prepare(resolved, descriptors, b.OriginFrom, b.OriginTo)

	entries := make([]*Entry, 0, len(preps))
	rollback := func() {
		for _, e := range entries {
			e.release()
		}
	}

	for _, p := range preps {
		e := &Entry{Trace: p.desc.Trace}
		e.apply(p.desc)

		// In area mode the line is drawn on top of its fill, so it carries the stacked heights.
		var strip []float32
		if s.areaChart {
			var next area.Baseline
			strip, next = area.Build(p.points, baseline)
			for i := range p.points {
				p.vertices[2*i+1] = next[i]
			}
			baseline = next
		}

		primary, err := s.alloc.CreateVertexBuffer(fmt.Sprintf("trace %d", p.desc.Trace), p.vertices)
		if err != nil {
			rollback()
			return nil, nil, fmt.Errorf("%w: trace %d: %w", ErrResourceExhausted, p.desc.Trace, err)
		}
		e.Primary = primary
		e.VertexCount = len(p.points)
		entries = append(entries, e)

		if strip == nil {
			continue
		}
		fill, err := s.alloc.CreateVertexBuffer(fmt.Sprintf("trace %d area", p.desc.Trace), strip)
		if err != nil {
			rollback()
			return nil, nil, fmt.Errorf("%w: trace %d area: %w", ErrResourceExhausted, p.desc.Trace, err)
		}
		e.Area = fill
		e.AreaVertexCount = area.VertexCount(len(p.points))
	}
	return entries, baseline, nil
}

// prepare fetches every trace's window on the worker pool and flattens it to vertices.
func (s *store) prepare(resolved []tracestore.Trace, descriptors []Descriptor, from, to float64) []prepared {
	out := make([]prepared, len(descriptors))
	var wg sync.WaitGroup
	for i, d := range descriptors {
		wg.Add(1)
		t := resolved[i]
		s.pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: d.Trace,
			Do: func() (any, error) {
				defer wg.Done()
				points := tracestore.Collect(t, from, to, from, 0)
				out[i] = prepared{
					desc:     d,
					points:   points,
					vertices: common.FlattenPoints(make([]float32, 0, len(points)*2), points),
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return out
}

// resolve looks up every descriptor's trace, failing on the first unknown handle.
func resolve(traces tracestore.Store, descriptors []Descriptor) ([]tracestore.Trace, error) {
	out := make([]tracestore.Trace, len(descriptors))
	var errs []error
	for i, d := range descriptors {
		t, ok := traces.Trace(d.Trace)
		if !ok {
			errs = append(errs, &UnknownTraceError{Trace: d.Trace})
			continue
		}
		out[i] = t
	}
	if len(errs) == 1 {
		return nil, errs[0]
	}
	if len(errs) > 1 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// checkDuplicates rejects a trace listed twice in descriptors or already present in existing.
func checkDuplicates(descriptors []Descriptor, existing map[tracestore.Handle]struct{}) error {
	seen := make(map[tracestore.Handle]struct{}, len(descriptors))
	for _, d := range descriptors {
		if _, ok := existing[d.Trace]; ok {
			return fmt.Errorf("%w: trace %d", ErrDuplicateTrace, d.Trace)
		}
		if _, ok := seen[d.Trace]; ok {
			return fmt.Errorf("%w: trace %d", ErrDuplicateTrace, d.Trace)
		}
		seen[d.Trace] = struct{}{}
	}
	return nil
}
