package dummyapp_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/kava-labs/batch-api-service/service/dummyapp"
)

func newRouter() chi.Router {
	r := chi.NewRouter()
	dummyapp.Register(r)
	return r
}

func TestUnitTestGetEndpointEchoesParamsAndHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/endpoint?other=value", nil)
	req.Header.Set("Foo", "bar")
	resp := httptest.NewRecorder()

	newRouter().ServeHTTP(resp, req)

	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	require.JSONEq(t, `{"result":"GET OK","params":{"other":"value"}}`, resp.Body.String())
	require.Equal(t, []string{"hello"}, resp.Header()["GET"])

	var received map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.Header()[dummyapp.RequestHeadersHeaderKey][0]), &received))
	require.Equal(t, "bar", received["HTTP_FOO"])
}

func TestUnitTestPostEndpointEchoesJSONParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/endpoint", strings.NewReader(`{"other":"value"}`))
	resp := httptest.NewRecorder()

	newRouter().ServeHTTP(resp, req)

	require.Equal(t, http.StatusNonAuthoritativeInfo, resp.Code)
	require.JSONEq(t, `{"result":"POST OK","params":{"other":"value"}}`, resp.Body.String())
	require.Equal(t, []string{"guten tag"}, resp.Header()["POST"])
}

func TestUnitTestCaptureEndpoint(t *testing.T) {
	resp := httptest.NewRecorder()
	newRouter().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/endpoint/capture/42", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `{"result":42}`, resp.Body.String())
}

func TestUnitTestErrorEndpointPanics(t *testing.T) {
	require.PanicsWithError(t, "StandardError", func() {
		newRouter().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/endpoint/error", nil))
	})
}
