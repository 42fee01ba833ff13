package batchmdw

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kava-labs/batch-api-service/batch"
	"github.com/kava-labs/batch-api-service/clients/cache"
	"github.com/kava-labs/batch-api-service/logging"
)

const (
	BatchIDURLParam = "batchID"
)

// ErrBatchResultNotFound is reported when no payload is stored for a batch id
var ErrBatchResultNotFound = errors.New("batch result not found")

// CreateBatchResultHandler returns a handler serving payloads kept in store,
// it expects to be routed with a {batchID} url param
func CreateBatchResultHandler(store cache.Cache, logger *logging.ServiceLogger) http.HandlerFunc {
	if logger == nil {
		logger = logging.Nop()
	}

	return func(w http.ResponseWriter, r *http.Request) {
		batchID := chi.URLParam(r, BatchIDURLParam)

		payload, err := store.Get(r.Context(), batchID)
		if errors.Is(err, cache.ErrNotFound) {
			writeNotFound(w, batchID)
			return
		}
		if err != nil {
			logger.Error().Err(err).Str("batch_id", batchID).Msg("can't load batch payload")
			batch.WriteErrorResponse(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set(BatchIDHeaderKey, batchID)
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
	}
}

func writeNotFound(w http.ResponseWriter, batchID string) {
	err := fmt.Errorf("%w: %s", ErrBatchResultNotFound, batchID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write(batch.MarshalErrorBody(err))
}
