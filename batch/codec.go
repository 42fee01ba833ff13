package batch

import (
	"bytes"
	"encoding/json"
)

// Payload is the aggregate response of a batch
type Payload struct {
	Timestamp int64            `json:"timestamp"`
	Results   []RenderedResult `json:"results"`
}

// RenderedResult is the wire form of a Result
type RenderedResult struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Body    json.RawMessage   `json:"body"`
}

var emptyObject = json.RawMessage(`{}`)

// Render builds the aggregate payload for result.
// With decodeJSON each body is embedded as a JSON value, falling back to a
// JSON string when the body isn't valid JSON. Without it every body is
// emitted as a JSON string of the raw bytes.
func Render(result BatchResult, decodeJSON bool) Payload {
	rendered := make([]RenderedResult, len(result.Results))

	for i, r := range result.Results {
		headers := r.Headers
		if headers == nil {
			headers = map[string]string{}
		}

		rendered[i] = RenderedResult{
			Status:  r.Status,
			Headers: headers,
			Body:    renderBody(r.Body, decodeJSON),
		}
	}

	return Payload{
		Timestamp: result.Timestamp.Unix(),
		Results:   rendered,
	}
}

func renderBody(raw []byte, decodeJSON bool) json.RawMessage {
	if decodeJSON {
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 {
			return emptyObject
		}
		if json.Valid(trimmed) {
			body := make(json.RawMessage, len(trimmed))
			copy(body, trimmed)
			return body
		}
	}

	return rawString(raw)
}

func rawString(raw []byte) json.RawMessage {
	encoded, err := json.Marshal(string(raw))
	if err != nil {
		// strings always marshal, invalid utf-8 is replaced
		return json.RawMessage(`""`)
	}
	return encoded
}

// Marshal encodes the payload for the wire
func (p Payload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}
