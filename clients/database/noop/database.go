package noop

import (
	"context"

	"github.com/kava-labs/batch-api-service/clients/database"
)

// Noop is a database client that does nothing,
// used when metric collection is disabled
type Noop struct{}

var _ database.MetricsDatabase = (*Noop)(nil)

func New() *Noop {
	return &Noop{}
}

func (e *Noop) SaveBatchOperationMetric(ctx context.Context, metric *database.BatchOperationMetric) error {
	return nil
}

func (e *Noop) ListBatchOperationMetricsWithPagination(ctx context.Context, cursor int64, limit int) ([]*database.BatchOperationMetric, int64, error) {
	return []*database.BatchOperationMetric{}, 0, nil
}

func (e *Noop) DeleteBatchOperationMetricsOlderThanNDays(ctx context.Context, n int64) error {
	return nil
}

func (e *Noop) HealthCheck() error {
	return nil
}
