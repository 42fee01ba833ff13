package batchmdw

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kava-labs/batch-api-service/batch"
	"github.com/kava-labs/batch-api-service/clients/cache"
	"github.com/kava-labs/batch-api-service/clients/database"
	"github.com/kava-labs/batch-api-service/logging"
)

const (
	BatchIDHeaderKey = "X-Batch-Id"
)

type BatchMiddlewareConfig struct {
	ServiceLogger *logging.ServiceLogger

	// Endpoint and Verb identify batch requests
	Endpoint string
	Verb     string
	// Router serves every operation, usually the host router the
	// middleware is installed on
	Router http.Handler

	DecodeJSONResponses bool
	MaxOperations       int
	MaxConcurrency      int
	// MaxBodyBytes bounds the size of a batch request body, 0 means unbounded
	MaxBodyBytes        int64

	// MetricsDatabase receives one metric per operation, nil disables metrics
	MetricsDatabase database.MetricsDatabase
	// ResultStore keeps rendered payloads for ResultTTL, nil disables storing
	ResultStore cache.Cache
	ResultTTL   time.Duration

	// NewBatchID defaults to random uuids
	NewBatchID func() string
	// Clock defaults to time.Now
	Clock func() time.Time
}

// CreateBatchProcessingMiddleware returns a handler that executes batch
// requests and passes every other request on to next
func CreateBatchProcessingMiddleware(next http.Handler, config *BatchMiddlewareConfig) http.HandlerFunc {
	logger := config.ServiceLogger
	if logger == nil {
		logger = logging.Nop()
	}

	newBatchID := config.NewBatchID
	if newBatchID == nil {
		newBatchID = func() string { return uuid.New().String() }
	}

	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if !isBatchRequest(r, config) {
			next.ServeHTTP(w, r)
			return
		}

		body := r.Body
		if config.MaxBodyBytes > 0 {
			body = http.MaxBytesReader(w, r.Body, config.MaxBodyBytes)
		}

		rawBody, err := io.ReadAll(body)
		if err != nil {
			logger.Debug().Err(err).Msg("can't read batch request body")

			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				batch.WriteErrorResponse(w, fmt.Errorf("%w: limit is %d bytes", batch.ErrBodyTooLarge, maxBytesErr.Limit))
				return
			}

			batch.WriteErrorResponse(w, &batch.EnvelopeError{Reason: "can't read body", Err: err})
			return
		}

		envelope, err := batch.ParseEnvelope(rawBody)
		if err != nil {
			logger.Debug().Err(err).Msg("rejecting batch request")
			batch.WriteErrorResponse(w, err)
			return
		}

		batchID := newBatchID()

		executor := batch.NewHandlerExecutor(batch.ExecutorConfig{
			Handler:    config.Router,
			BatchID:    batchID,
			Host:       r.Host,
			RemoteAddr: r.RemoteAddr,
			Logger:     logger,
		})

		dispatcher := batch.NewDispatcher(executor, batch.DispatcherConfig{
			MaxOperations:  config.MaxOperations,
			MaxConcurrency: config.MaxConcurrency,
			Clock:          clock,
			Logger:         logger,
		})

		result, err := dispatcher.Dispatch(r.Context(), envelope.Operations, envelope.Sequential)
		if err != nil {
			logger.Debug().
				Err(err).
				Str("batch_id", batchID).
				Int("operations", len(envelope.Operations)).
				Msg("can't dispatch batch")

			batch.WriteErrorResponse(w, err)
			return
		}

		payload, err := batch.Render(result, config.DecodeJSONResponses).Marshal()
		if err != nil {
			logger.Error().Err(err).Str("batch_id", batchID).Msg("can't encode batch payload")
			batch.WriteErrorResponse(w, err)
			return
		}

		logger.Debug().
			Str("batch_id", batchID).
			Int("operations", len(envelope.Operations)).
			Bool("sequential", envelope.Sequential).
			Msg("batch executed")

		if config.ResultStore != nil {
			storeResult(r.Context(), config.ResultStore, batchID, payload, config.ResultTTL, logger)
		}

		if config.MetricsDatabase != nil {
			go saveOperationMetrics(config.MetricsDatabase, operationMetrics(r, batchID, envelope, result), logger)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(BatchIDHeaderKey, batchID)
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
	}
}

// isBatchRequest reports whether r targets the batch endpoint as a top level request
func isBatchRequest(r *http.Request, config *BatchMiddlewareConfig) bool {
	if batch.IsOperation(r.Context()) {
		return false
	}

	return r.Method == config.Verb && r.URL.Path == config.Endpoint
}

func storeResult(ctx context.Context, store cache.Cache, batchID string, payload []byte, ttl time.Duration, logger *logging.ServiceLogger) {
	// a client disconnecting must not prevent the payload from being stored
	ctx = context.WithoutCancel(ctx)

	if err := store.Set(ctx, batchID, payload, ttl); err != nil {
		logger.Error().Err(err).Str("batch_id", batchID).Msg("can't store batch payload")
	}
}
