package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRouteNotFound is reported when no route matches an operation's method and url
	ErrRouteNotFound = errors.New("route not found")
	// ErrTooManyOperations is returned by Dispatch when a batch exceeds the configured size
	ErrTooManyOperations = errors.New("too many operations in batch")
	// ErrBodyTooLarge is reported when a batch request body exceeds the configured size
	ErrBodyTooLarge = errors.New("batch request body too large")
	// ErrNoExecutor is returned by Dispatch when the dispatcher has nothing to run operations with
	ErrNoExecutor = errors.New("dispatcher has no executor")
)

// StatusCoder is implemented by errors that know which HTTP status they map to
type StatusCoder interface {
	StatusCode() int
}

// HandlerError wraps a value recovered from a panicking handler
type HandlerError struct {
	Value interface{}
}

func (e *HandlerError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

func (e *HandlerError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// StatusCode uses the status carried by the recovered value, if any,
// and 500 otherwise
func (e *HandlerError) StatusCode() int {
	var coder StatusCoder
	if err, ok := e.Value.(error); ok && errors.As(err, &coder) {
		return coder.StatusCode()
	}
	if coder, ok := e.Value.(StatusCoder); ok {
		return coder.StatusCode()
	}
	return http.StatusInternalServerError
}

// InvalidOperationError is reported for operations that can't be turned into a request
type InvalidOperationError struct {
	Index  int
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("invalid operation %d: %s", e.Index, e.Reason)
}

func (e *InvalidOperationError) StatusCode() int {
	return http.StatusBadRequest
}

// EnvelopeError is reported when the batch envelope itself can't be parsed
type EnvelopeError struct {
	Reason string
	Err    error
}

func (e *EnvelopeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid batch envelope: %s: %s", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid batch envelope: %s", e.Reason)
}

func (e *EnvelopeError) Unwrap() error {
	return e.Err
}

func (e *EnvelopeError) StatusCode() int {
	return http.StatusBadRequest
}

// ErrorBody is the body written for failed operations and failed batches
type ErrorBody struct {
	Error ErrorMessage `json:"error"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

// StatusForError maps err to an HTTP status, defaulting to 500
func StatusForError(err error) int {
	var coder StatusCoder
	if errors.As(err, &coder) {
		return coder.StatusCode()
	}
	if errors.Is(err, ErrTooManyOperations) || errors.Is(err, ErrBodyTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if errors.Is(err, ErrRouteNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// MarshalErrorBody encodes err as {"error":{"message":...}}
func MarshalErrorBody(err error) []byte {
	body, marshalErr := json.Marshal(ErrorBody{Error: ErrorMessage{Message: err.Error()}})
	if marshalErr != nil {
		// a struct of two strings always marshals
		return []byte(`{"error":{"message":"internal error"}}`)
	}
	return body
}

// WriteErrorResponse writes err as a JSON error body with the status
// StatusForError maps it to
func WriteErrorResponse(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusForError(err))
	w.Write(MarshalErrorBody(err))
}

// errorResult converts a failure into a Result
func errorResult(err error) Result {
	return Result{
		Status:  StatusForError(err),
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    MarshalErrorBody(err),
	}
}
