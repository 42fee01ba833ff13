// package dummyapp provides a small set of demo endpoints that exercise
// every outcome a batch operation can have: custom statuses and headers,
// url captures, params echoing and handler failures
package dummyapp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

const (
	// RequestHeadersHeaderKey carries the headers the endpoint received,
	// keyed the way CGI style servers name them (HTTP_FOO)
	RequestHeadersHeaderKey = "REQUEST_HEADERS"
)

// ErrStandard is the failure raised by the error endpoint
var ErrStandard = errors.New("StandardError")

// Register mounts the demo endpoints on r
func Register(r chi.Router) {
	r.Get("/endpoint", handleGet)
	r.Post("/endpoint", handlePost)
	r.Get("/endpoint/capture/{id}", handleCapture)
	r.Get("/endpoint/error", handleError)
}

func handleGet(w http.ResponseWriter, r *http.Request) {
	params := make(map[string]interface{})
	for key, values := range r.URL.Query() {
		if len(values) == 1 {
			params[key] = values[0]
			continue
		}
		params[key] = values
	}

	writeEchoHeaders(w, r)
	w.Header()["GET"] = []string{"hello"}

	writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"result": "GET OK",
		"params": params,
	})
}

func handlePost(w http.ResponseWriter, r *http.Request) {
	params := make(map[string]interface{})
	// an empty or non JSON body just means no params
	_ = json.NewDecoder(r.Body).Decode(&params)

	writeEchoHeaders(w, r)
	w.Header()["POST"] = []string{"guten tag"}

	writeJSON(w, http.StatusNonAuthoritativeInfo, map[string]interface{}{
		"result": "POST OK",
		"params": params,
	})
}

func handleCapture(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"result": raw})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"result": id})
}

func handleError(w http.ResponseWriter, r *http.Request) {
	panic(ErrStandard)
}

// writeEchoHeaders reports the request headers back as a JSON object
func writeEchoHeaders(w http.ResponseWriter, r *http.Request) {
	received := make(map[string]string, len(r.Header))
	for key := range r.Header {
		received[headerize(key)] = r.Header.Get(key)
	}

	encoded, err := json.Marshal(received)
	if err != nil {
		return
	}

	w.Header()[RequestHeadersHeaderKey] = []string{string(encoded)}
}

// headerize turns Foo-Bar into HTTP_FOO_BAR
func headerize(key string) string {
	return "HTTP_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
