package bundle

import (
	"fmt"
	"sync/atomic"
)

// serials is shared by every Store so handles are unique for the life of the process.
var serials atomic.Uint64

// Handle identifies a bundle. It pairs the slot the bundle lives in with a serial drawn from a
// process-wide counter, so handles are strictly increasing by Serial and never reused: a stale
// handle whose slot has since been recycled fails lookup instead of aliasing the new bundle.
type Handle struct {
	slot   uint32
	serial uint64
}

// Serial returns the handle's unique serial. The zero Handle has serial 0 and is never issued.
func (h Handle) Serial() uint64 {
	return h.serial
}

// IsZero reports whether h is the zero Handle.
func (h Handle) IsZero() bool {
	return h.serial == 0
}

func (h Handle) String() string {
	return fmt.Sprintf("bundle#%d", h.serial)
}

func nextSerial() uint64 {
	return serials.Add(1)
}
