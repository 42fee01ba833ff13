// Package batchmdw is responsible for the middleware used to handle batch requests.
//
// The primary export is CreateBatchProcessingMiddleware which intercepts requests
// made with the configured verb to the configured batch endpoint, splits the
// envelope into operations and runs each of them against the host router as if
// it were a top level request. The per operation results are combined into a
// single JSON payload of the form
//
//	{"timestamp": 1700000000, "results": [{"status": 200, "headers": {}, "body": {}}]}
//
// Every batch is assigned an id which is returned in the X-Batch-Id header.
// When a result store is configured the payload is kept under that id and can
// be fetched again with CreateBatchResultHandler.
//
// When a metrics database is configured one metric per operation is saved
// out of band of the request-response cycle.
//
// Requests built for operations are never treated as batches, an operation
// targeting the batch endpoint resolves as route not found.
package batchmdw
