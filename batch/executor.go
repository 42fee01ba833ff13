package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/urfave/negroni"

	"github.com/kava-labs/batch-api-service/logging"
)

// Executor runs a single operation and reports its outcome.
// Implementations must never panic or return failures out of band,
// every failure is reported as a Result.
type Executor interface {
	Execute(ctx context.Context, index int, op Operation) Result
}

// ExecutorConfig wraps values used to create a HandlerExecutor
type ExecutorConfig struct {
	// Handler is the host routing path operations are served by
	Handler http.Handler
	// BatchID tags every operation request of the batch
	BatchID string
	// Host and RemoteAddr are copied onto every operation request,
	// usually from the request that carried the batch
	Host       string
	RemoteAddr string
	Logger     *logging.ServiceLogger
}

// HandlerExecutor executes operations by serving synthetic requests
// with an http.Handler
type HandlerExecutor struct {
	handler    http.Handler
	batchID    string
	host       string
	remoteAddr string
	*logging.ServiceLogger
}

var _ Executor = (*HandlerExecutor)(nil)

// NewHandlerExecutor creates a HandlerExecutor using the provided config
func NewHandlerExecutor(config ExecutorConfig) *HandlerExecutor {
	logger := config.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	return &HandlerExecutor{
		handler:       config.Handler,
		batchID:       config.BatchID,
		host:          config.Host,
		remoteAddr:    config.RemoteAddr,
		ServiceLogger: logger,
	}
}

// Execute serves op as an isolated request and captures the response.
// A panic in the handler is recovered and reported as an error Result.
func (e *HandlerExecutor) Execute(ctx context.Context, index int, op Operation) (result Result) {
	start := time.Now()
	defer func() {
		result.Latency = time.Since(start)
	}()

	opCtx, cancel := detachedContext(ctx)
	defer cancel()

	opCtx = context.WithValue(opCtx, operationContextKey{}, OperationInfo{BatchID: e.batchID, Index: index})

	req, err := e.buildRequest(opCtx, index, op)
	if err != nil {
		e.Debug().
			Err(err).
			Int("index", index).
			Msg("can't build request for operation")

		return errorResult(err)
	}

	capture := newCaptureResponseWriter()
	rw := negroni.NewResponseWriter(capture)

	defer func() {
		if recovered := recover(); recovered != nil {
			handlerErr := &HandlerError{Value: recovered}

			e.Error().
				Str("batch_id", e.batchID).
				Int("index", index).
				Str("method", req.Method).
				Str("url", req.URL.String()).
				Str("stack", string(debug.Stack())).
				Msgf("recovered from panic while serving operation: %v", handlerErr)

			result = errorResult(handlerErr)
		}
	}()

	e.handler.ServeHTTP(rw, req)

	status := http.StatusOK
	if rw.Written() {
		status = rw.Status()
	}

	return capture.result(status)
}

// buildRequest creates the synthetic request for op.
// Params go into the query string for methods without a body and
// into a JSON body otherwise.
func (e *HandlerExecutor) buildRequest(ctx context.Context, index int, op Operation) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(op.Method))
	if method == "" {
		return nil, &InvalidOperationError{Index: index, Reason: "method must not be empty"}
	}

	if strings.TrimSpace(op.URL) == "" {
		return nil, &InvalidOperationError{Index: index, Reason: "url must not be empty"}
	}

	target, err := url.Parse(op.URL)
	if err != nil {
		return nil, &InvalidOperationError{Index: index, Reason: fmt.Sprintf("can't parse url %q: %s", op.URL, err)}
	}

	// operations are routed internally, only the path and query matter
	target.Scheme = ""
	target.Host = ""
	target.User = nil
	if !strings.HasPrefix(target.Path, "/") {
		target.Path = "/" + target.Path
	}

	// server requests never have a nil body
	var body io.Reader = http.NoBody
	var contentType string

	if len(op.Params) > 0 {
		if methodHasBody(method) {
			encoded, err := json.Marshal(op.Params)
			if err != nil {
				return nil, &InvalidOperationError{Index: index, Reason: fmt.Sprintf("can't encode params: %s", err)}
			}
			body = bytes.NewReader(encoded)
			contentType = "application/json"
		} else {
			query := target.Query()
			for key, value := range op.Params {
				query.Set(key, formatQueryParam(value))
			}
			target.RawQuery = query.Encode()
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, &InvalidOperationError{Index: index, Reason: err.Error()}
	}

	req.RequestURI = target.RequestURI()
	req.Host = e.host
	req.RemoteAddr = e.remoteAddr

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, value := range op.Headers {
		req.Header.Set(key, value)
	}

	return req, nil
}

func methodHasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

// formatQueryParam renders scalars as text and everything else as JSON
func formatQueryParam(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool, float64, float32, int, int64, int32, uint, uint64, uint32, json.Number:
		return fmt.Sprint(v)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(encoded)
	}
}
