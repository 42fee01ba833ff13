package batch

import (
	"net/http"
	"strings"
	"time"
)

// Operation describes one sub-request of a batch
type Operation struct {
	URL     string                 `json:"url"`
	Method  string                 `json:"method"`
	Headers map[string]string      `json:"headers,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// Batch is an ordered list of operations and the dispatch strategy
// the caller asked for
type Batch struct {
	Operations []Operation `json:"ops"`
	Sequential bool        `json:"sequential"`
}

// Result is the captured outcome of executing one Operation.
// Body always holds the raw bytes written by the handler, decoding
// happens in Render.
type Result struct {
	Status  int
	Headers map[string]string
	Body    []byte
	Latency time.Duration
}

// OK reports whether the operation completed with a non error status
func (r Result) OK() bool {
	return r.Status < http.StatusBadRequest
}

// BatchResult holds the results of a dispatched batch in operation order
type BatchResult struct {
	Timestamp time.Time
	Results   []Result
}

// flattenHeader joins multi valued headers with ", " the way they
// would appear on the wire
func flattenHeader(h http.Header) map[string]string {
	flat := make(map[string]string, len(h))
	for k, v := range h {
		flat[k] = strings.Join(v, ", ")
	}
	return flat
}
