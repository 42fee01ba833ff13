package database

import "time"

// BatchOperationMetric contains metrics for
// a single operation executed as part of a batch
type BatchOperationMetric struct {
	ID                          int64
	BatchID                     string
	OperationIndex              int
	Method                      string
	Path                        string
	StatusCode                  int
	ResponseLatencyMilliseconds int64
	Sequential                  bool
	Hostname                    string
	RequestIP                   string
	UserAgent                   *string
	RequestTime                 time.Time
}
