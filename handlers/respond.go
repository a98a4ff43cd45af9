package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"p9e.in/fuelnet/pkg/monitoring"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// errorBody is the structured error shape every endpoint returns.
type errorBody struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Field   string      `json:"field,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// respondError maps the monitoring error taxonomy onto HTTP statuses:
// validation and capacity -> 400, missing tank -> 404, scope mismatch ->
// 403, anything from the store -> 500.
func respondError(w http.ResponseWriter, err error) {
	var validationErr *monitoring.ValidationError
	var capacityErr *monitoring.CapacityExceededError
	var notFoundErr *monitoring.NotFoundError
	var accessErr *monitoring.AccessDeniedError
	var storeErr *monitoring.StoreError

	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, errorBody{
			Error: validationErr.Error(),
			Field: validationErr.Field,
		})
	case errors.As(err, &capacityErr):
		respondJSON(w, http.StatusBadRequest, errorBody{
			Error: capacityErr.Error(),
			Field: "volume",
			Details: map[string]float64{
				"volume":   capacityErr.Volume,
				"capacity": capacityErr.Capacity,
			},
		})
	case errors.As(err, &notFoundErr):
		respondJSON(w, http.StatusNotFound, errorBody{Error: notFoundErr.Error()})
	case errors.As(err, &accessErr):
		respondJSON(w, http.StatusForbidden, errorBody{Error: accessErr.Error()})
	case errors.As(err, &storeErr):
		respondJSON(w, http.StatusInternalServerError, errorBody{
			Error:   storeErr.Message,
			Details: map[string]string{"code": storeErr.Code},
		})
	default:
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

func respondBadRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, errorBody{Error: message})
}
