package batch

import (
	"context"
)

type operationContextKey struct{}

// OperationInfo identifies the batch operation a request was built for
type OperationInfo struct {
	BatchID string
	Index   int
}

// OperationFromContext returns the operation info attached to requests
// built by the executor, ok is false for regular top level requests
func OperationFromContext(ctx context.Context) (OperationInfo, bool) {
	info, ok := ctx.Value(operationContextKey{}).(OperationInfo)
	return info, ok
}

// IsOperation reports whether ctx belongs to a request built by the executor
func IsOperation(ctx context.Context) bool {
	_, ok := OperationFromContext(ctx)
	return ok
}

// detachedContext returns a context that carries none of parent's values
// (router state, decoded bodies, ...) but is still canceled when parent is
// canceled and shares its deadline.
func detachedContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx := context.Background()
	cancelDeadline := context.CancelFunc(func() {})

	if deadline, ok := parent.Deadline(); ok {
		ctx, cancelDeadline = context.WithDeadline(ctx, deadline)
	}

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(parent, cancel)

	return ctx, func() {
		stop()
		cancel()
		cancelDeadline()
	}
}
