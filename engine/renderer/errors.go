package renderer

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-chart/engine/bundle"
)

var (
	// ErrInitialization is returned by NewRenderer when the adapter, device, a shader program or
	// a pipeline cannot be created. The renderer must not be used after it.
	ErrInitialization = errors.New("renderer: initialization failed")

	// ErrInvalidJob is returned by Render for a job with an empty viewport or an empty range.
	ErrInvalidJob = errors.New("renderer: invalid render job")

	// ErrNoFrame is returned when frame commands are issued without a frame in progress.
	ErrNoFrame = errors.New("renderer: no frame in progress")
)

// Errors shared with the bundle store, re-exported so callers need a single import.
var (
	ErrResourceExhausted = bundle.ErrResourceExhausted
	ErrUnknownTrace      = bundle.ErrUnknownTrace
	ErrUnknownBundle     = bundle.ErrUnknownBundle
	ErrDuplicateTrace    = bundle.ErrDuplicateTrace
	ErrClosed            = bundle.ErrClosed
)

// UnknownTraceError names a trace handle the trace store could not resolve.
type UnknownTraceError = bundle.UnknownTraceError
