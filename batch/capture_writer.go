package batch

import (
	"bytes"
	"net/http"
)

// captureResponseWriter is an http.ResponseWriter that keeps the
// response of a single operation in memory instead of sending it anywhere
type captureResponseWriter struct {
	// body is the response body for the operation
	body *bytes.Buffer
	// header is the response headers for the operation
	header http.Header
	// sent is the snapshot of header taken when the status was written,
	// later changes to header never reach the client
	sent http.Header
}

var _ http.ResponseWriter = &captureResponseWriter{}

func newCaptureResponseWriter() *captureResponseWriter {
	return &captureResponseWriter{
		header: make(http.Header),
		body:   new(bytes.Buffer),
	}
}

// Write implements the Write method of http.ResponseWriter
// it captures the response content for the operation
func (w *captureResponseWriter) Write(b []byte) (int, error) {
	w.WriteHeader(http.StatusOK)
	return w.body.Write(b)
}

// Header implements the Header method of http.ResponseWriter
// it captures the response headers for the operation
func (w *captureResponseWriter) Header() http.Header {
	return w.header
}

// WriteHeader implements the WriteHeader method of http.ResponseWriter.
// The status is tracked by the negroni.ResponseWriter wrapping this writer,
// only the headers are frozen here.
func (w *captureResponseWriter) WriteHeader(status int) {
	if w.sent == nil {
		w.sent = w.header.Clone()
	}
}

// Flush implements http.Flusher, there is nothing to flush to
func (w *captureResponseWriter) Flush() {}

// result builds the Result for the captured response
func (w *captureResponseWriter) result(status int) Result {
	body := make([]byte, w.body.Len())
	copy(body, w.body.Bytes())

	header := w.sent
	if header == nil {
		// nothing was written, headers go out when the handler returns
		header = w.header
	}

	return Result{
		Status:  status,
		Headers: flattenHeader(header),
		Body:    body,
	}
}
