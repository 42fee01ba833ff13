package batch

import "net/http"

// NotFoundHandler is meant to be installed as the host router's not found
// (and method not allowed) handler. Operations get a bare 404 with an empty
// body, top level requests get a JSON error body.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	if IsOperation(r.Context()) {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	WriteErrorResponse(w, ErrRouteNotFound)
}
