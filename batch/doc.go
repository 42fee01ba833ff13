// Package batch is the batch dispatch engine.
//
// A batch is an ordered list of operations (method, url, headers, params).
// Each operation is turned into a synthetic *http.Request and served by the
// host http.Handler exactly as if it had arrived on its own; the status, headers
// and body written by the handler are captured in memory.
//
// The Dispatcher runs the operations either sequentially or concurrently
// (bounded by a worker limit) and always returns one Result per operation,
// at the operation's original index. Failures inside a handler, including
// panics and unroutable urls, are converted into Results and never abort
// the batch.
//
// Render turns a BatchResult into the aggregate wire payload. Bodies are
// kept raw until render time, where they are either embedded as decoded JSON
// or emitted as JSON strings.
package batch
