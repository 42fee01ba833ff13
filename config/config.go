// package config provides functions and values
// for reading and validating batch service configuration
package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	LogLevel string

	BatchServicePort         string
	BatchEndpoint            string
	BatchVerb                string
	BatchDecodeJSONResponses bool
	BatchMaxOperations       int
	BatchMaxConcurrency      int
	BatchMaxBodyBytes        int64

	ProxyBackendHostURLRaw    string
	ProxyBackendHostURLParsed *url.URL
	DemoEndpointsEnabled      bool

	HTTPReadTimeoutSeconds  int64
	HTTPWriteTimeoutSeconds int64

	MetricDatabaseEnabled            bool
	DatabaseName                     string
	DatabaseEndpointURL              string
	DatabaseUserName                 string
	DatabasePassword                 string
	DatabaseReadTimeoutSeconds       int64
	DatabaseSSLEnabled               bool
	DatabaseQueryLoggingEnabled      bool
	DatabaseMaxIdleConnections       int64
	DatabaseConnectionMaxIdleSeconds int64
	DatabaseMaxOpenConnections       int64
	RunDatabaseMigrations            bool

	MetricPruningEnabled                      bool
	MetricPruningRoutineInterval              time.Duration
	MetricPruningRoutineDelayFirstRun         time.Duration
	MetricPruningMaxRequestMetricsHistoryDays int

	ResultStoreEnabled    bool
	ResultStoreBackend    string
	ResultStoreTTL        time.Duration
	ResultStoreMemorySize int
	RedisEndpointURL      string
	RedisPassword         string
}

const (
	LOG_LEVEL_ENVIRONMENT_KEY                                       = "LOG_LEVEL"
	DEFAULT_LOG_LEVEL                                               = "INFO"
	BATCH_SERVICE_PORT_ENVIRONMENT_KEY                              = "BATCH_SERVICE_PORT"
	DEFAULT_BATCH_SERVICE_PORT                                      = "7777"
	BATCH_ENDPOINT_ENVIRONMENT_KEY                                  = "BATCH_ENDPOINT"
	DEFAULT_BATCH_ENDPOINT                                          = "/batch"
	BATCH_VERB_ENVIRONMENT_KEY                                      = "BATCH_VERB"
	DEFAULT_BATCH_VERB                                              = "POST"
	BATCH_DECODE_JSON_RESPONSES_ENVIRONMENT_KEY                     = "BATCH_DECODE_JSON_RESPONSES"
	DEFAULT_BATCH_DECODE_JSON_RESPONSES                             = true
	BATCH_MAX_OPERATIONS_ENVIRONMENT_KEY                            = "BATCH_MAX_OPERATIONS"
	DEFAULT_BATCH_MAX_OPERATIONS                                    = 100
	BATCH_MAX_CONCURRENCY_ENVIRONMENT_KEY                           = "BATCH_MAX_CONCURRENCY"
	DEFAULT_BATCH_MAX_CONCURRENCY                                   = 10
	BATCH_MAX_BODY_BYTES_ENVIRONMENT_KEY                            = "BATCH_MAX_BODY_BYTES"
	DEFAULT_BATCH_MAX_BODY_BYTES                                    = 10 << 20
	PROXY_BACKEND_HOST_URL_ENVIRONMENT_KEY                          = "PROXY_BACKEND_HOST_URL"
	DEMO_ENDPOINTS_ENABLED_ENVIRONMENT_KEY                          = "DEMO_ENDPOINTS_ENABLED"
	HTTP_READ_TIMEOUT_SECONDS_ENVIRONMENT_KEY                       = "HTTP_READ_TIMEOUT_SECONDS"
	DEFAULT_HTTP_READ_TIMEOUT                                       = 30
	HTTP_WRITE_TIMEOUT_SECONDS_ENVIRONMENT_KEY                      = "HTTP_WRITE_TIMEOUT_SECONDS"
	DEFAULT_HTTP_WRITE_TIMEOUT                                      = 60
	METRIC_DATABASE_ENABLED_ENVIRONMENT_KEY                         = "METRIC_DATABASE_ENABLED"
	DATABASE_NAME_ENVIRONMENT_KEY                                   = "DATABASE_NAME"
	DATABASE_ENDPOINT_URL_ENVIRONMENT_KEY                           = "DATABASE_ENDPOINT_URL"
	DATABASE_USERNAME_ENVIRONMENT_KEY                               = "DATABASE_USERNAME"
	DATABASE_PASSWORD_ENVIRONMENT_KEY                               = "DATABASE_PASSWORD"
	DATABASE_READ_TIMEOUT_SECONDS_ENVIRONMENT_KEY                   = "DATABASE_READ_TIMEOUT_SECONDS"
	DEFAULT_DATABASE_READ_TIMEOUT_SECONDS                           = 60
	DATABASE_SSL_ENABLED_ENVIRONMENT_KEY                            = "DATABASE_SSL_ENABLED"
	DATABASE_QUERY_LOGGING_ENABLED_ENVIRONMENT_KEY                  = "DATABASE_QUERY_LOGGING_ENABLED"
	DATABASE_MAX_IDLE_CONNECTIONS_ENVIRONMENT_KEY                   = "DATABASE_MAX_IDLE_CONNECTIONS"
	DEFAULT_DATABASE_MAX_IDLE_CONNECTIONS                           = 5
	DATABASE_CONNECTION_MAX_IDLE_SECONDS_ENVIRONMENT_KEY            = "DATABASE_CONNECTION_MAX_IDLE_SECONDS"
	DEFAULT_DATABASE_CONNECTION_MAX_IDLE_SECONDS                    = 5
	DATABASE_MAX_OPEN_CONNECTIONS_ENVIRONMENT_KEY                   = "DATABASE_MAX_OPEN_CONNECTIONS"
	DEFAULT_DATABASE_MAX_OPEN_CONNECTIONS                           = 20
	RUN_DATABASE_MIGRATIONS_ENVIRONMENT_KEY                         = "RUN_DATABASE_MIGRATIONS"
	METRIC_PRUNING_ENABLED_ENVIRONMENT_KEY                          = "METRIC_PRUNING_ENABLED"
	METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS_ENVIRONMENT_KEY         = "METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS"
	DEFAULT_METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS                 = 600
	METRIC_PRUNING_ROUTINE_DELAY_FIRST_RUN_SECONDS_ENVIRONMENT_KEY  = "METRIC_PRUNING_ROUTINE_DELAY_FIRST_RUN_SECONDS"
	DEFAULT_METRIC_PRUNING_ROUTINE_DELAY_FIRST_RUN_SECONDS          = 10
	METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS_ENVIRONMENT_KEY = "METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS"
	DEFAULT_METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS         = 45
	RESULT_STORE_ENABLED_ENVIRONMENT_KEY                            = "RESULT_STORE_ENABLED"
	RESULT_STORE_BACKEND_ENVIRONMENT_KEY                            = "RESULT_STORE_BACKEND"
	DEFAULT_RESULT_STORE_BACKEND                                    = ResultStoreBackendMemory
	RESULT_STORE_TTL_SECONDS_ENVIRONMENT_KEY                        = "RESULT_STORE_TTL_SECONDS"
	DEFAULT_RESULT_STORE_TTL_SECONDS                                = 300
	RESULT_STORE_MEMORY_SIZE_ENVIRONMENT_KEY                        = "RESULT_STORE_MEMORY_SIZE"
	DEFAULT_RESULT_STORE_MEMORY_SIZE                                = 1000
	REDIS_ENDPOINT_URL_ENVIRONMENT_KEY                              = "REDIS_ENDPOINT_URL"
	REDIS_PASSWORD_ENVIRONMENT_KEY                                  = "REDIS_PASSWORD"

	ResultStoreBackendMemory = "memory"
	ResultStoreBackendRedis  = "redis"
)

// EnvOrDefault fetches an environment variable value, or if not set returns the fallback value
func EnvOrDefault(key string, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// EnvOrDefaultBool fetches a boolean environment variable value, or if not set
// (or not parseable as a bool) returns the fallback value
func EnvOrDefaultBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			return fallback
		}
		return parsed
	}
	return fallback
}

// EnvOrDefaultInt fetches an int environment variable value, or if not set
// (or not parseable as an int) returns the fallback value
func EnvOrDefaultInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fallback
		}
		return parsed
	}
	return fallback
}

// ParseProxyBackendHostURL parses the optional backend url that
// unmatched routes are reverse proxied to, returning nil when unset
func ParseProxyBackendHostURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}

	return parsed, nil
}

// ReadConfig attempts to parse service config from environment values
// the returned config may be invalid and should be validated via the `Validate`
// function of the Config package before use
func ReadConfig() Config {
	rawProxyBackendHostURL := os.Getenv(PROXY_BACKEND_HOST_URL_ENVIRONMENT_KEY)
	// best effort, Validate reports the parse error
	parsedProxyBackendHostURL, _ := ParseProxyBackendHostURL(rawProxyBackendHostURL)

	return Config{
		LogLevel:                 EnvOrDefault(LOG_LEVEL_ENVIRONMENT_KEY, DEFAULT_LOG_LEVEL),
		BatchServicePort:         EnvOrDefault(BATCH_SERVICE_PORT_ENVIRONMENT_KEY, DEFAULT_BATCH_SERVICE_PORT),
		BatchEndpoint:            EnvOrDefault(BATCH_ENDPOINT_ENVIRONMENT_KEY, DEFAULT_BATCH_ENDPOINT),
		BatchVerb:                strings.ToUpper(EnvOrDefault(BATCH_VERB_ENVIRONMENT_KEY, DEFAULT_BATCH_VERB)),
		BatchDecodeJSONResponses: EnvOrDefaultBool(BATCH_DECODE_JSON_RESPONSES_ENVIRONMENT_KEY, DEFAULT_BATCH_DECODE_JSON_RESPONSES),
		BatchMaxOperations:       EnvOrDefaultInt(BATCH_MAX_OPERATIONS_ENVIRONMENT_KEY, DEFAULT_BATCH_MAX_OPERATIONS),
		BatchMaxConcurrency:      EnvOrDefaultInt(BATCH_MAX_CONCURRENCY_ENVIRONMENT_KEY, DEFAULT_BATCH_MAX_CONCURRENCY),
		BatchMaxBodyBytes:        int64(EnvOrDefaultInt(BATCH_MAX_BODY_BYTES_ENVIRONMENT_KEY, DEFAULT_BATCH_MAX_BODY_BYTES)),

		ProxyBackendHostURLRaw:    rawProxyBackendHostURL,
		ProxyBackendHostURLParsed: parsedProxyBackendHostURL,
		DemoEndpointsEnabled:      EnvOrDefaultBool(DEMO_ENDPOINTS_ENABLED_ENVIRONMENT_KEY, false),

		HTTPReadTimeoutSeconds:  int64(EnvOrDefaultInt(HTTP_READ_TIMEOUT_SECONDS_ENVIRONMENT_KEY, DEFAULT_HTTP_READ_TIMEOUT)),
		HTTPWriteTimeoutSeconds: int64(EnvOrDefaultInt(HTTP_WRITE_TIMEOUT_SECONDS_ENVIRONMENT_KEY, DEFAULT_HTTP_WRITE_TIMEOUT)),

		MetricDatabaseEnabled:            EnvOrDefaultBool(METRIC_DATABASE_ENABLED_ENVIRONMENT_KEY, false),
		DatabaseName:                     os.Getenv(DATABASE_NAME_ENVIRONMENT_KEY),
		DatabaseEndpointURL:              os.Getenv(DATABASE_ENDPOINT_URL_ENVIRONMENT_KEY),
		DatabaseUserName:                 os.Getenv(DATABASE_USERNAME_ENVIRONMENT_KEY),
		DatabasePassword:                 os.Getenv(DATABASE_PASSWORD_ENVIRONMENT_KEY),
		DatabaseReadTimeoutSeconds:       int64(EnvOrDefaultInt(DATABASE_READ_TIMEOUT_SECONDS_ENVIRONMENT_KEY, DEFAULT_DATABASE_READ_TIMEOUT_SECONDS)),
		DatabaseSSLEnabled:               EnvOrDefaultBool(DATABASE_SSL_ENABLED_ENVIRONMENT_KEY, false),
		DatabaseQueryLoggingEnabled:      EnvOrDefaultBool(DATABASE_QUERY_LOGGING_ENABLED_ENVIRONMENT_KEY, false),
		DatabaseMaxIdleConnections:       int64(EnvOrDefaultInt(DATABASE_MAX_IDLE_CONNECTIONS_ENVIRONMENT_KEY, DEFAULT_DATABASE_MAX_IDLE_CONNECTIONS)),
		DatabaseConnectionMaxIdleSeconds: int64(EnvOrDefaultInt(DATABASE_CONNECTION_MAX_IDLE_SECONDS_ENVIRONMENT_KEY, DEFAULT_DATABASE_CONNECTION_MAX_IDLE_SECONDS)),
		DatabaseMaxOpenConnections:       int64(EnvOrDefaultInt(DATABASE_MAX_OPEN_CONNECTIONS_ENVIRONMENT_KEY, DEFAULT_DATABASE_MAX_OPEN_CONNECTIONS)),
		RunDatabaseMigrations:            EnvOrDefaultBool(RUN_DATABASE_MIGRATIONS_ENVIRONMENT_KEY, false),

		MetricPruningEnabled:                      EnvOrDefaultBool(METRIC_PRUNING_ENABLED_ENVIRONMENT_KEY, false),
		MetricPruningRoutineInterval:              time.Duration(EnvOrDefaultInt(METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS_ENVIRONMENT_KEY, DEFAULT_METRIC_PRUNING_ROUTINE_INTERVAL_SECONDS)) * time.Second,
		MetricPruningRoutineDelayFirstRun:         time.Duration(EnvOrDefaultInt(METRIC_PRUNING_ROUTINE_DELAY_FIRST_RUN_SECONDS_ENVIRONMENT_KEY, DEFAULT_METRIC_PRUNING_ROUTINE_DELAY_FIRST_RUN_SECONDS)) * time.Second,
		MetricPruningMaxRequestMetricsHistoryDays: EnvOrDefaultInt(METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS_ENVIRONMENT_KEY, DEFAULT_METRIC_PRUNING_MAX_REQUEST_METRICS_HISTORY_DAYS),

		ResultStoreEnabled:    EnvOrDefaultBool(RESULT_STORE_ENABLED_ENVIRONMENT_KEY, false),
		ResultStoreBackend:    strings.ToLower(EnvOrDefault(RESULT_STORE_BACKEND_ENVIRONMENT_KEY, DEFAULT_RESULT_STORE_BACKEND)),
		ResultStoreTTL:        time.Duration(EnvOrDefaultInt(RESULT_STORE_TTL_SECONDS_ENVIRONMENT_KEY, DEFAULT_RESULT_STORE_TTL_SECONDS)) * time.Second,
		ResultStoreMemorySize: EnvOrDefaultInt(RESULT_STORE_MEMORY_SIZE_ENVIRONMENT_KEY, DEFAULT_RESULT_STORE_MEMORY_SIZE),
		RedisEndpointURL:      os.Getenv(REDIS_ENDPOINT_URL_ENVIRONMENT_KEY),
		RedisPassword:         os.Getenv(REDIS_PASSWORD_ENVIRONMENT_KEY),
	}
}
