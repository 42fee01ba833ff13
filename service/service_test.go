package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kava-labs/batch-api-service/config"
	"github.com/kava-labs/batch-api-service/logging"
	"github.com/kava-labs/batch-api-service/service/batchmdw"
)

func testConfig() config.Config {
	return config.Config{
		LogLevel:                 "ERROR",
		BatchServicePort:         "7777",
		BatchEndpoint:            "/batch",
		BatchVerb:                http.MethodPost,
		BatchDecodeJSONResponses: true,
		BatchMaxOperations:       10,
		BatchMaxConcurrency:      4,
		DemoEndpointsEnabled:     true,
		HTTPReadTimeoutSeconds:   30,
		HTTPWriteTimeoutSeconds:  60,
	}
}

func newTestService(t *testing.T, cfg config.Config) BatchService {
	t.Helper()

	service, err := New(context.Background(), cfg, logging.Nop())
	require.NoError(t, err)

	return service
}

func TestUnitTestNewServiceServesBatches(t *testing.T) {
	service := newTestService(t, testConfig())

	rec := httptest.NewRecorder()
	service.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/batch", strings.NewReader(`{"ops":[
		{"method":"get","url":"/endpoint","params":{"a":"b"}},
		{"method":"get","url":"/endpoint/capture/5"},
		{"method":"get","url":"/healthcheck"}
	]}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(batchmdw.BatchIDHeaderKey))

	var payload struct {
		Results []struct {
			Status int         `json:"status"`
			Body   interface{} `json:"body"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

	require.Len(t, payload.Results, 3)
	assert.Equal(t, http.StatusUnprocessableEntity, payload.Results[0].Status)
	assert.Equal(t, map[string]interface{}{"result": float64(5)}, payload.Results[1].Body)
	assert.Equal(t, http.StatusOK, payload.Results[2].Status)
	assert.Equal(t, "batch service is healthy", payload.Results[2].Body)
}

func TestUnitTestNewServiceUnknownRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.DemoEndpointsEnabled = false
	service := newTestService(t, cfg)

	rec := httptest.NewRecorder()
	service.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/endpoint", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":{"message":"route not found"}}`, rec.Body.String())
}

func TestUnitTestNewServiceCustomEndpointAndVerb(t *testing.T) {
	cfg := testConfig()
	cfg.BatchEndpoint = "/api/v1/batch"
	cfg.BatchVerb = http.MethodPut
	service := newTestService(t, cfg)

	body := `{"ops":[{"method":"get","url":"/endpoint/capture/1"}]}`

	rec := httptest.NewRecorder()
	service.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/batch", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	service.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/batch", strings.NewReader(body)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnitTestNewServiceResultStore(t *testing.T) {
	cfg := testConfig()
	cfg.ResultStoreEnabled = true
	cfg.ResultStoreBackend = config.ResultStoreBackendMemory
	cfg.ResultStoreTTL = time.Minute
	cfg.ResultStoreMemorySize = 10
	service := newTestService(t, cfg)

	rec := httptest.NewRecorder()
	service.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/batch", strings.NewReader(`{"ops":[{"method":"get","url":"/endpoint/capture/8"}]}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	batchID := rec.Header().Get(batchmdw.BatchIDHeaderKey)
	require.NotEmpty(t, batchID)

	lookup := httptest.NewRecorder()
	service.Router.ServeHTTP(lookup, httptest.NewRequest(http.MethodGet, "/batch/"+batchID, nil))

	require.Equal(t, http.StatusOK, lookup.Code)
	assert.JSONEq(t, rec.Body.String(), lookup.Body.String())
}

func TestUnitTestNewServiceRedisResultStoreRequiresAddress(t *testing.T) {
	cfg := testConfig()
	cfg.ResultStoreEnabled = true
	cfg.ResultStoreBackend = config.ResultStoreBackendRedis

	_, err := New(context.Background(), cfg, logging.Nop())
	assert.Error(t, err)
}

func TestUnitTestNewServiceProxiesUnmatchedRoutes(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"proxied":"` + r.URL.Path + `"}`))
	}))
	defer backend.Close()

	backendURL, err := url.Parse(backend.URL)
	require.NoError(t, err)

	cfg := testConfig()
	cfg.ProxyBackendHostURLRaw = backend.URL
	cfg.ProxyBackendHostURLParsed = backendURL
	service := newTestService(t, cfg)

	rec := httptest.NewRecorder()
	service.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/batch", strings.NewReader(`{"ops":[
		{"method":"get","url":"/somewhere/else"},
		{"method":"get","url":"/endpoint/capture/2"}
	]}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Results []struct {
			Status int         `json:"status"`
			Body   interface{} `json:"body"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

	require.Len(t, payload.Results, 2)
	assert.Equal(t, http.StatusCreated, payload.Results[0].Status)
	assert.Equal(t, map[string]interface{}{"proxied": "/somewhere/else"}, payload.Results[0].Body)
	assert.Equal(t, http.StatusOK, payload.Results[1].Status)
}
