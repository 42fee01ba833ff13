package batch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kava-labs/batch-api-service/logging"
)

const (
	DefaultMaxConcurrency = 10
)

// DispatcherConfig wraps values used to create a Dispatcher
type DispatcherConfig struct {
	// MaxOperations bounds the size of a batch, 0 means unbounded
	MaxOperations int
	// MaxConcurrency bounds how many operations run at once in concurrent mode
	MaxConcurrency int
	// Clock is used for the batch timestamp, defaults to time.Now
	Clock  func() time.Time
	Logger *logging.ServiceLogger
}

// Dispatcher runs the operations of a batch with an Executor
type Dispatcher struct {
	executor       Executor
	maxOperations  int
	maxConcurrency int
	clock          func() time.Time
	*logging.ServiceLogger
}

// NewDispatcher creates a Dispatcher running operations with executor
func NewDispatcher(executor Executor, config DispatcherConfig) *Dispatcher {
	maxConcurrency := config.MaxConcurrency
	if maxConcurrency < 1 {
		maxConcurrency = DefaultMaxConcurrency
	}

	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	return &Dispatcher{
		executor:       executor,
		maxOperations:  config.MaxOperations,
		maxConcurrency: maxConcurrency,
		clock:          clock,
		ServiceLogger:  logger,
	}
}

// Dispatch executes every operation exactly once and returns their results
// in operation order. Per operation failures are part of the results, the
// returned error is only set when the batch as a whole can't be run.
func (d *Dispatcher) Dispatch(ctx context.Context, operations []Operation, sequential bool) (BatchResult, error) {
	if d.executor == nil {
		return BatchResult{}, ErrNoExecutor
	}

	if d.maxOperations > 0 && len(operations) > d.maxOperations {
		return BatchResult{}, fmt.Errorf("%w: %d operations, at most %d allowed", ErrTooManyOperations, len(operations), d.maxOperations)
	}

	batchResult := BatchResult{
		Timestamp: d.clock(),
		Results:   make([]Result, len(operations)),
	}

	d.Debug().
		Int("operations", len(operations)).
		Bool("sequential", sequential).
		Msg("dispatching batch")

	if sequential {
		for i, op := range operations {
			batchResult.Results[i] = d.run(ctx, i, op)
		}

		return batchResult, nil
	}

	g := new(errgroup.Group)
	g.SetLimit(d.maxConcurrency)

	for i, op := range operations {
		i, op := i, op // per-iteration copies; go directive is below 1.22
		g.Go(func() error {
			// each goroutine owns slot i, no locking needed
			batchResult.Results[i] = d.run(ctx, i, op)
			return nil
		})
	}

	// run never returns an error
	_ = g.Wait()

	return batchResult, nil
}

// run executes a single operation, converting anything that escapes
// the executor into an error result
func (d *Dispatcher) run(ctx context.Context, index int, op Operation) (result Result) {
	defer func() {
		if recovered := recover(); recovered != nil {
			d.Error().
				Int("index", index).
				Msgf("executor panicked: %v", recovered)

			result = errorResult(&HandlerError{Value: recovered})
		}
	}()

	result = d.executor.Execute(ctx, index, op)

	d.Trace().
		Int("index", index).
		Str("method", op.Method).
		Str("url", op.URL).
		Int("status", result.Status).
		Dur("latency", result.Latency).
		Msg("operation executed")

	return result
}
