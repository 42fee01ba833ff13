package postgres

import (
	"context"
	"fmt"

	"github.com/kava-labs/batch-api-service/clients/database"
)

const (
	BatchOperationMetricsTableName = "batch_operation_metrics"
)

// SaveBatchOperationMetric saves metric to the database,
// returning error (if any).
func (c *Client) SaveBatchOperationMetric(ctx context.Context, metric *database.BatchOperationMetric) error {
	if c.db == nil {
		return database.ErrNoDatabase
	}

	_, err := c.db.NewInsert().Model(convertBatchOperationMetric(metric)).Exec(ctx)

	return err
}

// ListBatchOperationMetricsWithPagination returns a page of max
// `limit` BatchOperationMetrics from the offset specified by `cursor`
// error (if any) along with a cursor to use to fetch the next page
// if the cursor is 0 no more pages exists.
func (c *Client) ListBatchOperationMetricsWithPagination(ctx context.Context, cursor int64, limit int) ([]*database.BatchOperationMetric, int64, error) {
	if c.db == nil {
		return nil, 0, database.ErrNoDatabase
	}

	var rows []BatchOperationMetric
	var nextCursor int64

	count, err := c.db.NewSelect().Model(&rows).Where("id > ?", cursor).Order("id ASC").Limit(limit).ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}

	// more rows may exist past this page
	if len(rows) == limit && count > limit {
		nextCursor = rows[len(rows)-1].ID
	}

	metrics := make([]*database.BatchOperationMetric, 0, len(rows))
	for i := range rows {
		metrics = append(metrics, rows[i].ToBatchOperationMetric())
	}

	return metrics, nextCursor, nil
}

// DeleteBatchOperationMetricsOlderThanNDays deletes
// all batch operation metrics older than the specified
// days, returning error (if any).
func (c *Client) DeleteBatchOperationMetricsOlderThanNDays(ctx context.Context, n int64) error {
	if c.db == nil {
		return database.ErrNoDatabase
	}

	_, err := c.db.NewDelete().
		Model((*BatchOperationMetric)(nil)).
		Where(fmt.Sprintf("request_time < now() - interval '%d' day", n)).
		Exec(ctx)

	return err
}
