// package database defines the storage used for per operation batch metrics
// and the helpers shared by its implementations
package database

import (
	"context"
	"errors"
)

var ErrNoDatabase = errors.New("database client is not connected")

// MetricsDatabase stores metrics about executed batch operations
type MetricsDatabase interface {
	SaveBatchOperationMetric(ctx context.Context, metric *BatchOperationMetric) error
	ListBatchOperationMetricsWithPagination(ctx context.Context, cursor int64, limit int) ([]*BatchOperationMetric, int64, error)
	DeleteBatchOperationMetricsOlderThanNDays(ctx context.Context, days int64) error
	HealthCheck() error
}
