// package main reads & validates configuration for the batch service
// and if the config is valid starts and monitors an instance of the batch service
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kava-labs/batch-api-service/config"
	"github.com/kava-labs/batch-api-service/logging"
	"github.com/kava-labs/batch-api-service/routines"
	"github.com/kava-labs/batch-api-service/service"
)

const (
	shutdownTimeout = 15 * time.Second
)

var (
	serviceConfig config.Config
	serviceLogger logging.ServiceLogger
)

func init() {
	// a .env file is optional, the environment always wins
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	serviceConfig = config.ReadConfig()

	err := config.Validate(serviceConfig)

	if err != nil {
		panic(err)
	}

	serviceLogger, err = logging.New(serviceConfig.LogLevel)

	if err != nil {
		panic(err)
	}
}

func startMetricPruningRoutine(ctx context.Context, batchService service.BatchService) {
	if !serviceConfig.MetricPruningEnabled {
		return
	}

	routine, err := routines.NewMetricPruningRoutine(routines.MetricPruningRoutineConfig{
		Interval:                     serviceConfig.MetricPruningRoutineInterval,
		StartDelay:                   serviceConfig.MetricPruningRoutineDelayFirstRun,
		MaxRequestMetricsHistoryDays: int64(serviceConfig.MetricPruningMaxRequestMetricsHistoryDays),
		Database:                     batchService.Database,
		Logger:                       &serviceLogger,
	})

	if err != nil {
		serviceLogger.Panic().Msg(fmt.Sprintf("%v", err))
	}

	errs, err := routine.Run(ctx)

	if err != nil {
		serviceLogger.Panic().Msg(fmt.Sprintf("%v", err))
	}

	go func() {
		for routineErr := range errs {
			serviceLogger.Error().Msg(fmt.Sprintf("metric pruning routine encountered error %s", routineErr))
		}
	}()
}

func main() {
	serviceLogger.Debug().Msg(fmt.Sprintf("initial config: %+v", serviceConfig))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batchService, err := service.New(ctx, serviceConfig, &serviceLogger)

	if err != nil {
		serviceLogger.Panic().Msg(fmt.Sprintf("%v", err))
	}

	startMetricPruningRoutine(ctx, batchService)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := batchService.Shutdown(shutdownCtx); err != nil {
			serviceLogger.Error().Msg(fmt.Sprintf("error %s shutting down batch service", err))
		}
	}()

	serviceLogger.Info().Msg(fmt.Sprintf("batch service listening on port %s", serviceConfig.BatchServicePort))

	if err := batchService.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		serviceLogger.Panic().Msg(fmt.Sprintf("%v", err))
	}
}
