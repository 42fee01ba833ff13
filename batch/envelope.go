package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

type rawEnvelope struct {
	Operations *[]*Operation `json:"ops"`
	Sequential bool          `json:"sequential"`
}

// ParseEnvelope decodes a batch envelope of the form
//
//	{"ops": [{"method": "get", "url": "/path", "headers": {}, "params": {}}], "sequential": false}
//
// every operation must carry a method and a url.
func ParseEnvelope(body []byte) (Batch, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Batch{}, &EnvelopeError{Reason: "body is empty"}
	}

	var envelope rawEnvelope

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	if err := decoder.Decode(&envelope); err != nil {
		return Batch{}, &EnvelopeError{Reason: "can't decode body", Err: err}
	}

	if _, err := decoder.Token(); err != io.EOF {
		return Batch{}, &EnvelopeError{Reason: "unexpected data after the envelope"}
	}

	if envelope.Operations == nil {
		return Batch{}, &EnvelopeError{Reason: "ops must be an array of operations"}
	}

	operations := make([]Operation, 0, len(*envelope.Operations))
	for i, op := range *envelope.Operations {
		if op == nil {
			return Batch{}, &EnvelopeError{Reason: fmt.Sprintf("operation %d is null", i)}
		}
		if strings.TrimSpace(op.Method) == "" {
			return Batch{}, &EnvelopeError{Reason: fmt.Sprintf("operation %d is missing a method", i)}
		}
		if strings.TrimSpace(op.URL) == "" {
			return Batch{}, &EnvelopeError{Reason: fmt.Sprintf("operation %d is missing a url", i)}
		}

		operations = append(operations, *op)
	}

	return Batch{
		Operations: operations,
		Sequential: envelope.Sequential,
	}, nil
}
