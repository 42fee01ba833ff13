package batchmdw

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kava-labs/batch-api-service/batch"
	"github.com/kava-labs/batch-api-service/clients/database"
	"github.com/kava-labs/batch-api-service/logging"
)

const (
	metricSaveTimeout = 10 * time.Second
)

// operationMetrics builds one metric per executed operation of a batch
func operationMetrics(r *http.Request, batchID string, envelope batch.Batch, result batch.BatchResult) []*database.BatchOperationMetric {
	var userAgent *string
	if agent := r.UserAgent(); agent != "" {
		userAgent = &agent
	}

	hostname, _, err := net.SplitHostPort(r.Host)
	if err != nil {
		hostname = r.Host
	}

	requestIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		requestIP = r.RemoteAddr
	}

	metrics := make([]*database.BatchOperationMetric, 0, len(result.Results))
	for i, res := range result.Results {
		op := envelope.Operations[i]

		metrics = append(metrics, &database.BatchOperationMetric{
			BatchID:                     batchID,
			OperationIndex:              i,
			Method:                      strings.ToUpper(op.Method),
			Path:                        operationPath(op.URL),
			StatusCode:                  res.Status,
			ResponseLatencyMilliseconds: res.Latency.Milliseconds(),
			Sequential:                  envelope.Sequential,
			Hostname:                    hostname,
			RequestIP:                   requestIP,
			UserAgent:                   userAgent,
			RequestTime:                 result.Timestamp,
		})
	}

	return metrics
}

func operationPath(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	return parsed.Path
}

func saveOperationMetrics(db database.MetricsDatabase, metrics []*database.BatchOperationMetric, logger *logging.ServiceLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), metricSaveTimeout)
	defer cancel()

	for _, metric := range metrics {
		if err := db.SaveBatchOperationMetric(ctx, metric); err != nil {
			logger.Error().
				Err(err).
				Str("batch_id", metric.BatchID).
				Int("index", metric.OperationIndex).
				Msg("can't save batch operation metric")
		}
	}
}
