package batch_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kava-labs/batch-api-service/batch"
)

type parentContextKey struct{}

type teapotError struct{}

func (teapotError) Error() string   { return "short and stout" }
func (teapotError) StatusCode() int { return http.StatusTeapot }

func newExecutor(h http.HandlerFunc) *batch.HandlerExecutor {
	return batch.NewHandlerExecutor(batch.ExecutorConfig{
		Handler:    h,
		BatchID:    "batch-1",
		Host:       "batch.example.com",
		RemoteAddr: "10.0.0.1:1234",
	})
}

func TestUnitTestExecutorBuildsRequestFromOperation(t *testing.T) {
	var seen *http.Request
	var seenBody []byte

	executor := newExecutor(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		seenBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	})

	t.Run("get params go into the query string", func(t *testing.T) {
		result := executor.Execute(context.Background(), 0, batch.Operation{
			URL:     "/things?existing=1",
			Method:  "get",
			Headers: map[string]string{"foo": "bar"},
			Params:  map[string]interface{}{"other": "value", "n": json.Number("3"), "list": []interface{}{"a", "b"}},
		})

		require.Equal(t, http.StatusCreated, result.Status)
		require.Equal(t, http.MethodGet, seen.Method)
		require.Equal(t, "/things", seen.URL.Path)
		require.Equal(t, "1", seen.URL.Query().Get("existing"))
		require.Equal(t, "value", seen.URL.Query().Get("other"))
		require.Equal(t, "3", seen.URL.Query().Get("n"))
		require.Equal(t, `["a","b"]`, seen.URL.Query().Get("list"))
		require.Equal(t, "bar", seen.Header.Get("Foo"))
		require.Equal(t, "batch.example.com", seen.Host)
		require.Equal(t, "10.0.0.1:1234", seen.RemoteAddr)
		require.Equal(t, seen.URL.RequestURI(), seen.RequestURI)
		require.Empty(t, seenBody)
	})

	t.Run("post params become a JSON body", func(t *testing.T) {
		executor.Execute(context.Background(), 1, batch.Operation{
			URL:    "things",
			Method: "POST",
			Params: map[string]interface{}{"other": "value"},
		})

		require.Equal(t, http.MethodPost, seen.Method)
		require.Equal(t, "/things", seen.URL.Path)
		require.Equal(t, "application/json", seen.Header.Get("Content-Type"))
		require.JSONEq(t, `{"other":"value"}`, string(seenBody))
	})

	t.Run("operation headers override the content type", func(t *testing.T) {
		executor.Execute(context.Background(), 2, batch.Operation{
			URL:     "/things",
			Method:  "put",
			Headers: map[string]string{"Content-Type": "application/vnd.things+json"},
			Params:  map[string]interface{}{"other": "value"},
		})

		require.Equal(t, "application/vnd.things+json", seen.Header.Get("Content-Type"))
	})

	t.Run("absolute urls are routed by path", func(t *testing.T) {
		executor.Execute(context.Background(), 3, batch.Operation{
			URL:    "https://elsewhere.example.com/things/1",
			Method: "delete",
		})

		require.Equal(t, "/things/1", seen.URL.Path)
		require.Equal(t, "batch.example.com", seen.Host)
	})
}

func TestUnitTestExecutorCapturesResponse(t *testing.T) {
	executor := newExecutor(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("X-Multi", "a")
		w.Header().Add("X-Multi", "b")
		w.Header()["GET"] = []string{"hello"}
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"ok":`))
		w.Write([]byte(`true}`))
	})

	result := executor.Execute(context.Background(), 0, batch.Operation{URL: "/", Method: "get"})

	require.Equal(t, http.StatusAccepted, result.Status)
	require.Equal(t, "a, b", result.Headers["X-Multi"])
	require.Equal(t, "hello", result.Headers["GET"])
	require.Equal(t, `{"ok":true}`, string(result.Body))
	require.True(t, result.OK())
}

func TestUnitTestExecutorDefaultsToOKWhenNothingWritten(t *testing.T) {
	executor := newExecutor(func(w http.ResponseWriter, r *http.Request) {})

	result := executor.Execute(context.Background(), 0, batch.Operation{URL: "/", Method: "get"})

	require.Equal(t, http.StatusOK, result.Status)
	require.Empty(t, result.Body)
}

func TestUnitTestExecutorImplicitOKOnWrite(t *testing.T) {
	executor := newExecutor(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain"))
	})

	result := executor.Execute(context.Background(), 0, batch.Operation{URL: "/", Method: "get"})

	require.Equal(t, http.StatusOK, result.Status)
	require.Equal(t, "plain", string(result.Body))
}

func TestUnitTestExecutorSendsEmptyBodyWithoutParams(t *testing.T) {
	for _, method := range []string{"post", "put", "patch", "delete", "get"} {
		t.Run(method, func(t *testing.T) {
			executor := newExecutor(func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				if err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				json.NewEncoder(w).Encode(map[string]int{"len": len(body)})
			})

			result := executor.Execute(context.Background(), 0, batch.Operation{URL: "/read", Method: method})

			require.Equal(t, http.StatusOK, result.Status)
			require.JSONEq(t, `{"len":0}`, string(result.Body))
		})
	}
}

func TestUnitTestExecutorIgnoresHeadersSetAfterWrite(t *testing.T) {
	executor := newExecutor(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Before", "kept")
		w.WriteHeader(http.StatusCreated)
		w.Header().Set("X-After-Status", "dropped")
		w.Write([]byte("done"))
		w.Header().Set("X-After-Write", "dropped")
	})

	result := executor.Execute(context.Background(), 0, batch.Operation{URL: "/", Method: "get"})

	require.Equal(t, http.StatusCreated, result.Status)
	require.Equal(t, "kept", result.Headers["X-Before"])
	require.NotContains(t, result.Headers, "X-After-Status")
	require.NotContains(t, result.Headers, "X-After-Write")
}

func TestUnitTestExecutorKeepsHeadersWhenNothingWritten(t *testing.T) {
	executor := newExecutor(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Only-Header", "yes")
	})

	result := executor.Execute(context.Background(), 0, batch.Operation{URL: "/", Method: "get"})

	require.Equal(t, http.StatusOK, result.Status)
	require.Equal(t, "yes", result.Headers["X-Only-Header"])
}

func TestUnitTestExecutorRecoversFromHandlerPanics(t *testing.T) {
	for _, tc := range []struct {
		name           string
		panicValue     interface{}
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "error value",
			panicValue:     errors.New("StandardError"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":{"message":"StandardError"}}`,
		},
		{
			name:           "error carrying a status",
			panicValue:     teapotError{},
			expectedStatus: http.StatusTeapot,
			expectedBody:   `{"error":{"message":"short and stout"}}`,
		},
		{
			name:           "wrapped error carrying a status",
			panicValue:     errors.Join(errors.New("outer"), teapotError{}),
			expectedStatus: http.StatusTeapot,
			expectedBody:   `{"error":{"message":"outer\nshort and stout"}}`,
		},
		{
			name:           "non error value",
			panicValue:     "boom",
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":{"message":"boom"}}`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			executor := newExecutor(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Partial", "yes")
				w.Write([]byte("partial"))
				panic(tc.panicValue)
			})

			var result batch.Result
			require.NotPanics(t, func() {
				result = executor.Execute(context.Background(), 0, batch.Operation{URL: "/", Method: "get"})
			})

			require.Equal(t, tc.expectedStatus, result.Status)
			require.JSONEq(t, tc.expectedBody, string(result.Body))
			require.Equal(t, "application/json", result.Headers["Content-Type"])
			require.NotContains(t, result.Headers, "X-Partial")
		})
	}
}

func TestUnitTestExecutorRejectsInvalidOperations(t *testing.T) {
	executor := newExecutor(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called for invalid operations")
	})

	for _, op := range []batch.Operation{
		{URL: "/", Method: ""},
		{URL: "", Method: "get"},
		{URL: "/%zz", Method: "get"},
	} {
		result := executor.Execute(context.Background(), 4, op)

		require.Equal(t, http.StatusBadRequest, result.Status)

		var body batch.ErrorBody
		require.NoError(t, json.Unmarshal(result.Body, &body))
		require.Contains(t, body.Error.Message, "invalid operation 4")
	}
}

func TestUnitTestExecutorIsolatesRequestState(t *testing.T) {
	executor := newExecutor(func(w http.ResponseWriter, r *http.Request) {
		// request scoped values of the carrying request must not leak in
		if r.Context().Value(parentContextKey{}) != nil {
			w.WriteHeader(http.StatusConflict)
			return
		}

		info, ok := batch.OperationFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusExpectationFailed)
			return
		}

		w.Header().Set("X-Index", r.Header.Get("X-Index"))
		w.Header().Set("X-Batch", info.BatchID)
		// mutating the request must not be visible to later operations
		seen := r.Header.Get("X-Leak")
		r.Header.Set("X-Leak", "leaked")
		w.Write([]byte(seen))
	})

	parent := context.WithValue(context.Background(), parentContextKey{}, "parent only")

	first := executor.Execute(parent, 0, batch.Operation{URL: "/", Method: "get", Headers: map[string]string{"X-Index": "0"}})
	second := executor.Execute(parent, 1, batch.Operation{URL: "/", Method: "get", Headers: map[string]string{"X-Index": "1"}})

	require.Equal(t, http.StatusOK, first.Status)
	require.Equal(t, http.StatusOK, second.Status)
	require.Equal(t, "0", first.Headers["X-Index"])
	require.Equal(t, "1", second.Headers["X-Index"])
	require.Equal(t, "batch-1", second.Headers["X-Batch"])
	require.Empty(t, first.Body)
	require.Empty(t, second.Body)
}

func TestUnitTestExecutorDoesNotMutateOperation(t *testing.T) {
	executor := newExecutor(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Set("Foo", "changed")
	})

	op := batch.Operation{URL: "/", Method: "get", Headers: map[string]string{"Foo": "bar"}, Params: map[string]interface{}{"a": "b"}}
	executor.Execute(context.Background(), 0, op)

	require.Equal(t, map[string]string{"Foo": "bar"}, op.Headers)
	require.Equal(t, map[string]interface{}{"a": "b"}, op.Params)
}

func TestUnitTestExecutorPropagatesParentCancellation(t *testing.T) {
	executor := newExecutor(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			w.WriteHeader(http.StatusGatewayTimeout)
		case <-time.After(5 * time.Second):
			w.WriteHeader(http.StatusOK)
		}
	})

	parent, cancel := context.WithCancel(context.Background())
	cancel()

	result := executor.Execute(parent, 0, batch.Operation{URL: "/", Method: "get"})

	require.Equal(t, http.StatusGatewayTimeout, result.Status)
}

func TestUnitTestExecutorRecordsLatency(t *testing.T) {
	executor := newExecutor(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(10 * time.Millisecond)
	})

	result := executor.Execute(context.Background(), 0, batch.Operation{URL: "/", Method: "get"})

	require.GreaterOrEqual(t, result.Latency, 10*time.Millisecond)
}
