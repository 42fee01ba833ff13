package batch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testKey struct{}

func TestUnitTestDetachedContextDropsValues(t *testing.T) {
	parent := context.WithValue(context.Background(), testKey{}, "value")

	ctx, cancel := detachedContext(parent)
	defer cancel()

	require.Nil(t, ctx.Value(testKey{}))
	require.NoError(t, ctx.Err())
}

func TestUnitTestDetachedContextFollowsParentCancellation(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())

	ctx, cancel := detachedContext(parent)
	defer cancel()

	cancelParent()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("detached context was not canceled with its parent")
	}
}

func TestUnitTestDetachedContextKeepsDeadline(t *testing.T) {
	deadline := time.Now().Add(time.Hour)
	parent, cancelParent := context.WithDeadline(context.Background(), deadline)
	defer cancelParent()

	ctx, cancel := detachedContext(parent)
	defer cancel()

	actual, ok := ctx.Deadline()
	require.True(t, ok)
	require.Equal(t, deadline, actual)
}

func TestUnitTestDetachedContextCancelDoesNotAffectParent(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	defer cancelParent()

	_, cancel := detachedContext(parent)
	cancel()

	require.NoError(t, parent.Err())
}

func TestUnitTestOperationFromContext(t *testing.T) {
	_, ok := OperationFromContext(context.Background())
	require.False(t, ok)

	ctx := context.WithValue(context.Background(), operationContextKey{}, OperationInfo{BatchID: "id", Index: 3})
	info, ok := OperationFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, OperationInfo{BatchID: "id", Index: 3}, info)
	require.True(t, IsOperation(ctx))
}
