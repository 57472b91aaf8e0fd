package buffer

import "github.com/Carmen-Shannon/oxy-chart/common"

// Arena is a growable CPU staging area that packs per-frame data (uniform blocks, scratch
// vertices) into one contiguous byte slice uploaded with a single buffer write.
// Every allocation starts at a multiple of the arena's alignment.
type Arena struct {
	align uint64
	data  []byte
}

// NewArena creates an empty arena.
//
// Parameters:
//   - align: the alignment of every allocation, a power of two (0 or 1 for none)
//
// Returns:
//   - *Arena: the arena
func NewArena(align uint64) *Arena {
	return &Arena{align: max(align, 1)}
}

// Alloc reserves n zeroed bytes and returns their offset and a slice over them.
// The returned slice is only valid until the next Alloc or Reset.
//
// Parameters:
//   - n: the number of bytes to reserve
//
// Returns:
//   - uint64: the byte offset of the allocation within the arena
//   - []byte: the reserved bytes
func (a *Arena) Alloc(n uint64) (uint64, []byte) {
	offset := common.AlignUp(a.align, uint64(len(a.data)))
	end := offset + n
	if end > uint64(cap(a.data)) {
		grown := make([]byte, len(a.data), max(end, uint64(cap(a.data))*2))
		copy(grown, a.data)
		a.data = grown
	}
	a.data = a.data[:end]
	clear(a.data[offset:end])
	return offset, a.data[offset:end]
}

// AppendFloat32s copies values into a new allocation.
//
// Parameters:
//   - values: the values to store
//
// Returns:
//   - uint64: the byte offset of the first value
func (a *Arena) AppendFloat32s(values []float32) uint64 {
	offset, dst := a.Alloc(uint64(len(values)) * 4)
	common.PutFloat32s(dst, 0, values...)
	return offset
}

// Bytes returns the packed contents.
func (a *Arena) Bytes() []byte {
	return a.data
}

// Len returns the number of bytes in use, including alignment padding.
func (a *Arena) Len() uint64 {
	return uint64(len(a.data))
}

// Reset empties the arena, keeping its capacity for the next frame.
func (a *Arena) Reset() {
	a.data = a.data[:0]
}
