package handlers

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"p9e.in/fuelnet/pkg/monitoring"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantField  string
	}{
		{
			name:       "validation",
			err:        &monitoring.ValidationError{Field: "volume", Message: "required"},
			wantStatus: 400,
			wantField:  "volume",
		},
		{
			name:       "capacity exceeded",
			err:        &monitoring.CapacityExceededError{Volume: 12000, Capacity: 10000},
			wantStatus: 400,
			wantField:  "volume",
		},
		{
			name:       "not found",
			err:        &monitoring.NotFoundError{Resource: "tank", ID: "x"},
			wantStatus: 404,
		},
		{
			name:       "access denied",
			err:        &monitoring.AccessDeniedError{Resource: "tank x"},
			wantStatus: 403,
		},
		{
			name:       "store failure",
			err:        &monitoring.StoreError{Message: "save measurement: timeout", Code: "store_error"},
			wantStatus: 500,
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %q", ct)
			}

			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body does not parse: %v", err)
			}
			if body.Success {
				t.Error("success = true on an error response")
			}
			if body.Error == "" {
				t.Error("error message empty")
			}
			if body.Field != tt.wantField {
				t.Errorf("field = %q, want %q", body.Field, tt.wantField)
			}
		})
	}
}

func TestRespondErrorWrappedChain(t *testing.T) {
	inner := &monitoring.NotFoundError{Resource: "tank", ID: "y"}
	wrapped := errors.Join(errors.New("while exporting"), inner)

	rec := httptest.NewRecorder()
	respondError(rec, wrapped)
	if rec.Code != 404 {
		t.Errorf("wrapped not-found mapped to %d, want 404", rec.Code)
	}
}
