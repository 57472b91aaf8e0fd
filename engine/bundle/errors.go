package bundle

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-chart/engine/tracestore"
)

var (
	// ErrUnknownTrace matches every *UnknownTraceError.
	ErrUnknownTrace = errors.New("bundle: unknown trace")

	// ErrUnknownBundle is returned when a handle does not name a live bundle.
	ErrUnknownBundle = errors.New("bundle: unknown bundle")

	// ErrDuplicateTrace is returned when a trace would appear twice in one bundle.
	ErrDuplicateTrace = errors.New("bundle: duplicate trace")

	// ErrResourceExhausted wraps GPU buffer allocation failures.
	ErrResourceExhausted = errors.New("bundle: resource exhausted")

	// ErrClosed is returned by operations on a closed Store.
	ErrClosed = errors.New("bundle: store closed")
)

// UnknownTraceError reports a trace handle the trace store could not resolve.
type UnknownTraceError struct {
	Trace tracestore.Handle
}

func (e *UnknownTraceError) Error() string {
	return fmt.Sprintf("bundle: unknown trace %d", e.Trace)
}

// Is reports whether target is ErrUnknownTrace.
func (e *UnknownTraceError) Is(target error) bool {
	return target == ErrUnknownTrace
}
