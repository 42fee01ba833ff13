// package service provides functions and methods
// for creating and running the api of the batch service
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/go-chi/chi/v5"

	"github.com/kava-labs/batch-api-service/batch"
	"github.com/kava-labs/batch-api-service/clients/cache"
	"github.com/kava-labs/batch-api-service/clients/database"
	"github.com/kava-labs/batch-api-service/clients/database/noop"
	"github.com/kava-labs/batch-api-service/clients/database/postgres"
	"github.com/kava-labs/batch-api-service/clients/database/postgres/migrations"
	"github.com/kava-labs/batch-api-service/config"
	"github.com/kava-labs/batch-api-service/logging"
	"github.com/kava-labs/batch-api-service/service/batchmdw"
	"github.com/kava-labs/batch-api-service/service/dummyapp"
)

const (
	resultStoreKeyPrefix        = "batch-api-service"
	dependencyStartupMaxElapsed = 30 * time.Second
)

// BatchService represents an instance of the batch service API
type BatchService struct {
	Database    database.MetricsDatabase
	ResultStore cache.Cache
	Router      chi.Router
	httpServer  *http.Server
	*logging.ServiceLogger
}

// New returns a new BatchService with the specified config and error (if any)
func New(ctx context.Context, config config.Config, serviceLogger *logging.ServiceLogger) (BatchService, error) {
	service := BatchService{
		ServiceLogger: serviceLogger,
	}

	db, err := createDatabaseClient(ctx, config, serviceLogger)
	if err != nil {
		return BatchService{}, err
	}
	service.Database = db

	resultStore, err := createResultStore(ctx, config, serviceLogger)
	if err != nil {
		return BatchService{}, err
	}
	service.ResultStore = resultStore

	r := chi.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return createRequestLoggingMiddleware(next, serviceLogger)
	})

	batchMiddlewareConfig := &batchmdw.BatchMiddlewareConfig{
		ServiceLogger:       serviceLogger,
		Endpoint:            config.BatchEndpoint,
		Verb:                config.BatchVerb,
		Router:              r,
		DecodeJSONResponses: config.BatchDecodeJSONResponses,
		MaxOperations:       config.BatchMaxOperations,
		MaxConcurrency:      config.BatchMaxConcurrency,
		MaxBodyBytes:        config.BatchMaxBodyBytes,
		ResultStore:         resultStore,
		ResultTTL:           config.ResultStoreTTL,
	}
	if config.MetricDatabaseEnabled {
		batchMiddlewareConfig.MetricsDatabase = db
	}

	r.Use(func(next http.Handler) http.Handler {
		return batchmdw.CreateBatchProcessingMiddleware(next, batchMiddlewareConfig)
	})

	r.NotFound(batch.NotFoundHandler)
	r.MethodNotAllowed(batch.NotFoundHandler)

	r.Get("/healthcheck", createHealthcheckHandler(&service))
	r.Get("/servicecheck", createServicecheckHandler(&service))

	if resultStore != nil {
		r.Get(fmt.Sprintf("%s/{%s}", config.BatchEndpoint, batchmdw.BatchIDURLParam), batchmdw.CreateBatchResultHandler(resultStore, serviceLogger))
	}

	if config.DemoEndpointsEnabled {
		dummyapp.Register(r)
	}

	if config.ProxyBackendHostURLParsed != nil {
		r.Handle("/*", createProxyHandler(httputil.NewSingleHostReverseProxy(config.ProxyBackendHostURLParsed), serviceLogger))
	}

	service.Router = r

	// create an http server for the caller to start at their own discretion
	service.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%s", config.BatchServicePort),
		Handler:      r,
		ReadTimeout:  time.Duration(config.HTTPReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(config.HTTPWriteTimeoutSeconds) * time.Second,
	}

	return service, nil
}

// createDatabaseClient connects to postgres when metrics are enabled,
// waiting for it to come up and running migrations if requested,
// otherwise a noop database is returned
func createDatabaseClient(ctx context.Context, config config.Config, logger *logging.ServiceLogger) (database.MetricsDatabase, error) {
	if !config.MetricDatabaseEnabled {
		return noop.New(), nil
	}

	client, err := postgres.NewClient(postgres.DatabaseConfig{
		DatabaseName:                     config.DatabaseName,
		DatabaseEndpointURL:              config.DatabaseEndpointURL,
		DatabaseUsername:                 config.DatabaseUserName,
		DatabasePassword:                 config.DatabasePassword,
		ReadTimeoutSeconds:               config.DatabaseReadTimeoutSeconds,
		DatabaseMaxIdleConnections:       config.DatabaseMaxIdleConnections,
		DatabaseConnectionMaxIdleSeconds: config.DatabaseConnectionMaxIdleSeconds,
		DatabaseMaxOpenConnections:       config.DatabaseMaxOpenConnections,
		SSLEnabled:                       config.DatabaseSSLEnabled,
		QueryLoggingEnabled:              config.DatabaseQueryLoggingEnabled,
		Logger:                           logger,
	})
	if err != nil {
		return nil, err
	}

	err = waitForDependency(ctx, "database", client.HealthCheck, logger)
	if err != nil {
		return nil, err
	}

	if config.RunDatabaseMigrations {
		ran, err := client.Migrate(ctx, *migrations.Migrations)
		if err != nil {
			return nil, fmt.Errorf("error %s running database migrations", err)
		}

		logger.Debug().Msg(fmt.Sprintf("migrations status %+v", ran))
	}

	return client, nil
}

// createResultStore returns the configured store for batch payloads,
// or nil when storing results is disabled
func createResultStore(ctx context.Context, serviceConfig config.Config, logger *logging.ServiceLogger) (cache.Cache, error) {
	if !serviceConfig.ResultStoreEnabled {
		return nil, nil
	}

	switch serviceConfig.ResultStoreBackend {
	case "", config.ResultStoreBackendMemory:
		return cache.NewInMemoryCache(serviceConfig.ResultStoreMemorySize, serviceConfig.ResultStoreTTL), nil
	case config.ResultStoreBackendRedis:
		store, err := cache.NewRedisCache(&cache.RedisConfig{
			Address:   serviceConfig.RedisEndpointURL,
			Password:  serviceConfig.RedisPassword,
			KeyPrefix: resultStoreKeyPrefix,
		}, logger)
		if err != nil {
			return nil, err
		}

		err = waitForDependency(ctx, "result store", func() error {
			return store.Healthcheck(ctx)
		}, logger)
		if err != nil {
			return nil, err
		}

		return store, nil
	default:
		return nil, fmt.Errorf("unknown result store backend %s", serviceConfig.ResultStoreBackend)
	}
}

// waitForDependency retries check with an exponential backoff until it
// passes, the backoff gives up or ctx is done
func waitForDependency(ctx context.Context, name string, check func() error, logger *logging.ServiceLogger) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = dependencyStartupMaxElapsed

	err := backoff.RetryNotify(check, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		logger.Debug().Msg(fmt.Sprintf("%s not ready, error %s, retrying in %s", name, err, wait))
	})
	if err != nil {
		return errors.Join(fmt.Errorf("%s unavailable", name), err)
	}

	return nil
}

// Run runs the batch service, returning error (if any) in the event
// the batch service stops
func (s *BatchService) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the http server
func (s *BatchService) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
