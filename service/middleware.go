package service

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"time"

	"github.com/urfave/negroni"

	"github.com/kava-labs/batch-api-service/batch"
	"github.com/kava-labs/batch-api-service/logging"
)

// createRequestLoggingMiddleware returns a handler that logs every request
// along with the status and latency of its response. Requests executed as
// part of a batch are logged at trace level with their batch id and index.
func createRequestLoggingMiddleware(h http.Handler, serviceLogger *logging.ServiceLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestAt := time.Now()

		lrw := negroni.NewResponseWriter(w)

		h.ServeHTTP(lrw, r)

		latency := time.Since(requestAt)

		if operation, ok := batch.OperationFromContext(r.Context()); ok {
			serviceLogger.Trace().
				Str("batch_id", operation.BatchID).
				Int("index", operation.Index).
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Int("status", lrw.Status()).
				Dur("latency", latency).
				Msg("served batch operation")

			return
		}

		serviceLogger.Debug().
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Str("remote_addr", r.RemoteAddr).
			Int("status", lrw.Status()).
			Int("size", lrw.Size()).
			Dur("latency", latency).
			Msg("served request")
	}
}

// createProxyHandler returns a handler that forwards requests no other
// route matched to the configured backend
func createProxyHandler(p *httputil.ReverseProxy, serviceLogger *logging.ServiceLogger) http.HandlerFunc {
	p.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		serviceLogger.Error().Msg(fmt.Sprintf("error %s proxying request %s %s", err, r.Method, r.URL))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write(batch.MarshalErrorBody(fmt.Errorf("backend unavailable: %w", err)))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		serviceLogger.Trace().Msg(fmt.Sprintf("proxying request %s %s", r.Method, r.URL))

		p.ServeHTTP(w, r)
	}
}
