// Package bundle owns the GPU vertex buffers of traces drawn together under one numeric origin.
//
// A bundle is created once per origin window and trace set. Every trace's samples are shifted by
// the bundle's origin before they are narrowed to float32 and uploaded, so the buffers hold small
// values no matter how large the domain is. Later updates only touch the traces that changed.
package bundle

import (
	"github.com/Carmen-Shannon/oxy-chart/common"
	"github.com/Carmen-Shannon/oxy-chart/engine/area"
	"github.com/Carmen-Shannon/oxy-chart/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-chart/engine/tracestore"
)

// Descriptor is the caller's request to draw one trace in a bundle. It carries no GPU resources.
type Descriptor struct {
	Trace      tracestore.Handle
	Width      float32
	Color      common.Color
	PointsMode bool
}

// Entry is one trace resident in a bundle.
type Entry struct {
	Trace tracestore.Handle

	// VertexCount is the number of origin-shifted samples in Primary.
	VertexCount int
	Primary     buffer.VertexBuffer

	// Area holds the stacked fill strip, nil when area mode is off or the trace has fewer than two samples.
	Area            buffer.VertexBuffer
	AreaVertexCount int

	Width      float32
	Color      common.Color
	PointsMode bool
}

// release frees the entry's GPU buffers.
func (e *Entry) release() {
	if e.Primary != nil {
		e.Primary.Release()
	}
	if e.Area != nil {
		e.Area.Release()
	}
}

// apply copies the mutable draw settings from d.
func (e *Entry) apply(d Descriptor) {
	e.Width = d.Width
	e.Color = d.Color
	e.PointsMode = d.PointsMode
}

// Bundle is a group of traces whose vertex data shares one origin.
type Bundle struct {
	// OriginFrom is subtracted from every x before upload. OriginTo closes the fetched window.
	OriginFrom, OriginTo float64
	Entries              []*Entry

	// baseline is the top of the stacked area fills so far, used when traces are added later.
	baseline area.Baseline
}

// Entry looks up the entry for a trace.
//
// Parameters:
//   - h: the trace handle
//
// Returns:
//   - *Entry: the entry, or nil if the trace is not in the bundle
func (b *Bundle) Entry(h tracestore.Handle) *Entry {
	for _, e := range b.Entries {
		if e.Trace == h {
			return e
		}
	}
	return nil
}

func (b *Bundle) release() {
	for _, e := range b.Entries {
		e.release()
	}
	b.Entries = nil
}
