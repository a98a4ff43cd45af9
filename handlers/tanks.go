package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"p9e.in/fuelnet/middleware"
	"p9e.in/fuelnet/models"
	"p9e.in/fuelnet/pkg/monitoring"
)

// TankHandler serves the tank-scoped surface: provisioning, calibration
// and the event log.
type TankHandler struct {
	Service *monitoring.Service
}

func NewTankHandler(service *monitoring.Service) *TankHandler {
	return &TankHandler{Service: service}
}

// GetAllTanks lists in-scope tanks with derived status.
func (h *TankHandler) GetAllTanks(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r)
	page, limit := pageAndLimit(r)

	views, summary, pagination, err := h.Service.ListStocks(scope, stockFilters(r), page, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, models.PaginatedResponse{
		Data:       views,
		Pagination: pagination,
		Summary:    summary,
	})
}

// GetTank returns one tank snapshot.
func (h *TankHandler) GetTank(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(middleware.GetMuxVars(r)["id"])
	if err != nil {
		respondBadRequest(w, "invalid tank id")
		return
	}
	view, err := h.Service.GetStock(middleware.GetScope(r), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// CreateTank provisions a tank: capacity fixed, volume starts at zero.
func (h *TankHandler) CreateTank(w http.ResponseWriter, r *http.Request) {
	var input monitoring.TankInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondBadRequest(w, "invalid JSON: "+err.Error())
		return
	}
	tank, err := h.Service.ProvisionTank(middleware.GetScope(r), input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, tank)
}

// Calibrate applies an authoritative volume correction to a tank.
func (h *TankHandler) Calibrate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(middleware.GetMuxVars(r)["id"])
	if err != nil {
		respondBadRequest(w, "invalid tank id")
		return
	}
	var input monitoring.MeasurementInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondBadRequest(w, "invalid JSON: "+err.Error())
		return
	}
	operator := middleware.GetUser(r).Name

	tank, err := h.Service.Calibrate(middleware.GetScope(r), id, input, operator)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tank)
}

// GetEvents pages through a tank's event log, newest first.
func (h *TankHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(middleware.GetMuxVars(r)["id"])
	if err != nil {
		respondBadRequest(w, "invalid tank id")
		return
	}
	params, err := models.ParseReportParams(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if err := params.Validate(); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	for key := range params.Filters {
		switch key {
		case "event_type", "severity":
		default:
			delete(params.Filters, key)
		}
	}

	resp, err := h.Service.ListEvents(middleware.GetScope(r), id, params)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// CreateEvent appends a manual entry (drain, fill, maintenance, alarm) to
// a tank's event log.
func (h *TankHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(middleware.GetMuxVars(r)["id"])
	if err != nil {
		respondBadRequest(w, "invalid tank id")
		return
	}
	var input monitoring.EventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondBadRequest(w, "invalid JSON: "+err.Error())
		return
	}
	operator := middleware.GetUser(r).Name

	event, err := h.Service.RecordEvent(middleware.GetScope(r), id, input, operator)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, event)
}
