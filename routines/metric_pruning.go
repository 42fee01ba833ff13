// package routines provides configuration and logic
// for running background routines such as metric pruning
// for batch operation metrics
package routines

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kava-labs/batch-api-service/clients/database"
	"github.com/kava-labs/batch-api-service/logging"
)

// MetricPruningRoutineConfig wraps values used
// for creating a new metric pruning routine
type MetricPruningRoutineConfig struct {
	Interval                     time.Duration
	StartDelay                   time.Duration
	MaxRequestMetricsHistoryDays int64
	Database                     database.MetricsDatabase
	Logger                       *logging.ServiceLogger
}

// MetricPruningRoutine can be used to
// run a background routine on a configurable interval
// to prune historical batch operation metrics
type MetricPruningRoutine struct {
	id                           string
	interval                     time.Duration
	startDelay                   time.Duration
	maxRequestMetricsHistoryDays int64
	db                           database.MetricsDatabase
	*logging.ServiceLogger
}

// Run starts the metric pruning routine, returning error (if any)
// from starting the routine and an error channel which any errors
// encountered during running will be sent on.
// The routine stops and closes the channel when ctx is done.
func (mpr *MetricPruningRoutine) Run(ctx context.Context) (<-chan error, error) {
	errorChannel := make(chan error, 1)

	go func() {
		defer close(errorChannel)

		select {
		case <-ctx.Done():
			return
		case <-time.After(mpr.startDelay):
		}

		mpr.prune(ctx, errorChannel)

		ticker := time.NewTicker(mpr.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case tick := <-ticker.C:
				mpr.Trace().Msg(fmt.Sprintf("%s tick at %+v", mpr.id, tick))
				mpr.prune(ctx, errorChannel)
			}
		}
	}()

	return errorChannel, nil
}

func (mpr *MetricPruningRoutine) prune(ctx context.Context, errorChannel chan<- error) {
	err := mpr.db.DeleteBatchOperationMetricsOlderThanNDays(ctx, mpr.maxRequestMetricsHistoryDays)
	if err == nil {
		mpr.Debug().Msg(fmt.Sprintf("%s pruned metrics older than %d days", mpr.id, mpr.maxRequestMetricsHistoryDays))
		return
	}

	mpr.Error().Msg(fmt.Sprintf("%s error %s pruning metrics", mpr.id, err))

	// don't block the routine when nobody is reading errors
	select {
	case errorChannel <- err:
	default:
	}
}

// NewMetricPruningRoutine creates a new metric pruning routine
// using the provided config, returning the routine and error (if any)
func NewMetricPruningRoutine(config MetricPruningRoutineConfig) (*MetricPruningRoutine, error) {
	if config.Database == nil {
		return nil, errors.New("metric pruning routine requires a database")
	}

	if config.Interval <= 0 {
		return nil, fmt.Errorf("invalid metric pruning interval %s", config.Interval)
	}

	if config.MaxRequestMetricsHistoryDays < 1 {
		return nil, fmt.Errorf("invalid metric pruning history %d days", config.MaxRequestMetricsHistoryDays)
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	return &MetricPruningRoutine{
		id:                           uuid.New().String(),
		interval:                     config.Interval,
		startDelay:                   config.StartDelay,
		maxRequestMetricsHistoryDays: config.MaxRequestMetricsHistoryDays,
		db:                           config.Database,
		ServiceLogger:                logger,
	}, nil
}
