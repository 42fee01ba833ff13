package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/kava-labs/batch-api-service/clients/database"
)

// BatchOperationMetric is the row form of database.BatchOperationMetric
type BatchOperationMetric struct {
	bun.BaseModel `bun:"table:batch_operation_metrics,alias:bom"`

	ID                          int64 `bun:",pk,autoincrement"`
	BatchID                     string
	OperationIndex              int
	Method                      string
	Path                        string
	StatusCode                  int
	ResponseLatencyMilliseconds int64
	Sequential                  bool
	Hostname                    string
	RequestIP                   string `bun:"request_ip"`
	UserAgent                   *string
	RequestTime                 time.Time
}

func (bom *BatchOperationMetric) ToBatchOperationMetric() *database.BatchOperationMetric {
	return &database.BatchOperationMetric{
		ID:                          bom.ID,
		BatchID:                     bom.BatchID,
		OperationIndex:              bom.OperationIndex,
		Method:                      bom.Method,
		Path:                        bom.Path,
		StatusCode:                  bom.StatusCode,
		ResponseLatencyMilliseconds: bom.ResponseLatencyMilliseconds,
		Sequential:                  bom.Sequential,
		Hostname:                    bom.Hostname,
		RequestIP:                   bom.RequestIP,
		UserAgent:                   bom.UserAgent,
		RequestTime:                 bom.RequestTime,
	}
}

func convertBatchOperationMetric(metric *database.BatchOperationMetric) *BatchOperationMetric {
	return &BatchOperationMetric{
		ID:                          metric.ID,
		BatchID:                     metric.BatchID,
		OperationIndex:              metric.OperationIndex,
		Method:                      metric.Method,
		Path:                        metric.Path,
		StatusCode:                  metric.StatusCode,
		ResponseLatencyMilliseconds: metric.ResponseLatencyMilliseconds,
		Sequential:                  metric.Sequential,
		Hostname:                    metric.Hostname,
		RequestIP:                   metric.RequestIP,
		UserAgent:                   metric.UserAgent,
		RequestTime:                 metric.RequestTime,
	}
}
