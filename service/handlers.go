package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// createHealthcheckHandler creates a health check handler function that
// will respond 200 ok if the batch service is able to connect to
// it's dependencies and functioning as expected
func createHealthcheckHandler(service *BatchService) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var combinedErrors error

		service.Debug().Msg("/healthcheck called")

		// check that the database is reachable
		if service.Database != nil {
			err := service.Database.HealthCheck()
			if err != nil {
				service.Error().
					Err(err).
					Msg("database healthcheck failed")

				errMsg := fmt.Errorf("batch service unable to connect to database: %v", err)
				combinedErrors = errors.Join(combinedErrors, errMsg)
			}
		}

		if service.ResultStore != nil {
			// check that the result store is reachable
			err := service.ResultStore.Healthcheck(context.Background())
			if err != nil {
				service.Error().
					Err(err).
					Msg("result store healthcheck failed")

				errMsg := fmt.Errorf("batch service unable to connect to result store: %v", err)
				combinedErrors = errors.Join(combinedErrors, errMsg)
			}
		}

		if combinedErrors != nil {
			w.WriteHeader(http.StatusInternalServerError)

			w.Write([]byte(combinedErrors.Error()))

			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("batch service is healthy"))
	}
}

// createServicecheckHandler creates a service check handler function that
// will respond 200 ok if the batch service is running
func createServicecheckHandler(service *BatchService) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		service.Debug().Msg("/servicecheck called")

		w.WriteHeader(http.StatusOK)

		w.Write([]byte("batch service is in service"))
	}
}
