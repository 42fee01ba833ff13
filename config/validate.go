package config

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

var (
	ValidLogLevels          = [4]string{"TRACE", "DEBUG", "INFO", "ERROR"}
	ValidBatchVerbs         = [4]string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodGet}
	ValidResultStoreBackend = [2]string{ResultStoreBackendMemory, ResultStoreBackendRedis}
)

// Validate validates the provided config
// returning a list of errors that can be unwrapped with `errors.Unwrap`
// or nil if the config is valid
func Validate(config Config) error {
	var validLogLevel bool
	var allErrs error

	for _, validLevel := range ValidLogLevels {
		if config.LogLevel == validLevel {
			validLogLevel = true
			break
		}
	}

	if !validLogLevel {
		allErrs = fmt.Errorf("invalid %s specified %s, supported values are %v", LOG_LEVEL_ENVIRONMENT_KEY, config.LogLevel, ValidLogLevels)
	}

	_, err := strconv.Atoi(config.BatchServicePort)

	if err != nil {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s", BATCH_SERVICE_PORT_ENVIRONMENT_KEY, config.BatchServicePort))
	}

	if !strings.HasPrefix(config.BatchEndpoint, "/") {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must start with /", BATCH_ENDPOINT_ENVIRONMENT_KEY, config.BatchEndpoint))
	}

	if !contains(ValidBatchVerbs[:], config.BatchVerb) {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, supported values are %v", BATCH_VERB_ENVIRONMENT_KEY, config.BatchVerb, ValidBatchVerbs))
	}

	if config.BatchMaxOperations < 0 {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %d, must be zero (unbounded) or greater", BATCH_MAX_OPERATIONS_ENVIRONMENT_KEY, config.BatchMaxOperations))
	}

	if config.BatchMaxConcurrency < 1 {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %d, must be greater than zero", BATCH_MAX_CONCURRENCY_ENVIRONMENT_KEY, config.BatchMaxConcurrency))
	}

	if config.BatchMaxBodyBytes < 0 {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %d, must be zero (unbounded) or greater", BATCH_MAX_BODY_BYTES_ENVIRONMENT_KEY, config.BatchMaxBodyBytes))
	}

	_, err = ParseProxyBackendHostURL(config.ProxyBackendHostURLRaw)

	if err != nil {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s", PROXY_BACKEND_HOST_URL_ENVIRONMENT_KEY, config.ProxyBackendHostURLRaw))
	}

	if config.MetricDatabaseEnabled && config.DatabaseEndpointURL == "" {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must not be empty when %s is true", DATABASE_ENDPOINT_URL_ENVIRONMENT_KEY, config.DatabaseEndpointURL, METRIC_DATABASE_ENABLED_ENVIRONMENT_KEY))
	}

	if config.MetricPruningEnabled && !config.MetricDatabaseEnabled {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified, pruning requires %s", METRIC_PRUNING_ENABLED_ENVIRONMENT_KEY, METRIC_DATABASE_ENABLED_ENVIRONMENT_KEY))
	}

	if config.MetricPruningEnabled && config.MetricPruningRoutineInterval <= 0 {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must be greater than zero", METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS_ENVIRONMENT_KEY, config.MetricPruningRoutineInterval))
	}

	if config.MetricPruningEnabled && config.MetricPruningMaxRequestMetricsHistoryDays < 1 {
		allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %d, must be greater than zero", METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS_ENVIRONMENT_KEY, config.MetricPruningMaxRequestMetricsHistoryDays))
	}

	if config.ResultStoreEnabled {
		if !contains(ValidResultStoreBackend[:], config.ResultStoreBackend) {
			allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, supported values are %v", RESULT_STORE_BACKEND_ENVIRONMENT_KEY, config.ResultStoreBackend, ValidResultStoreBackend))
		}
		if config.ResultStoreTTL <= 0 {
			allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must be greater than zero", RESULT_STORE_TTL_SECONDS_ENVIRONMENT_KEY, config.ResultStoreTTL))
		}
		if config.ResultStoreBackend == ResultStoreBackendMemory && config.ResultStoreMemorySize < 1 {
			allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %d, must be greater than zero", RESULT_STORE_MEMORY_SIZE_ENVIRONMENT_KEY, config.ResultStoreMemorySize))
		}
		if config.ResultStoreBackend == ResultStoreBackendRedis && config.RedisEndpointURL == "" {
			allErrs = errors.Join(allErrs, fmt.Errorf("invalid %s specified %s, must not be empty", REDIS_ENDPOINT_URL_ENVIRONMENT_KEY, config.RedisEndpointURL))
		}
	}

	return allErrs
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
