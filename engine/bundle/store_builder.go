package bundle

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// StoreBuilderOption is a functional option used to configure a Store during construction.
type StoreBuilderOption func(*store)

// WithAreaChart enables building and uploading stacked area fills for every trace.
//
// Parameters:
//   - enabled: true to build area buffers
//
// Returns:
//   - StoreBuilderOption: a function that sets area mode on the store
func WithAreaChart(enabled bool) StoreBuilderOption {
	return func(s *store) {
		s.areaChart = enabled
	}
}

// WithPrepWorkers sets the number of workers preparing vertex data in parallel.
// Values below 1 are treated as 1.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - StoreBuilderOption: a function that sets the worker count
func WithPrepWorkers(n int) StoreBuilderOption {
	return func(s *store) {
		s.prepWorkers = max(n, 1)
	}
}

// WithWorkerPool makes the store use an existing pool instead of creating its own.
// The store does not stop a pool it did not create.
//
// Parameters:
//   - pool: the pool to submit preparation tasks to
//
// Returns:
//   - StoreBuilderOption: a function that sets the worker pool
func WithWorkerPool(pool worker.DynamicWorkerPool) StoreBuilderOption {
	return func(s *store) {
		s.pool = pool
	}
}

// defaultPrepWorkers leaves one core for the thread that owns the GPU device.
func defaultPrepWorkers() int {
	return max(runtime.NumCPU()-1, 1)
}

// prepQueueSize is the task queue length of a pool created by the store.
const prepQueueSize = 256

// prepIdleTimeout is the idle timeout of a pool created by the store.
const prepIdleTimeout = time.Second
