package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"p9e.in/fuelnet/middleware"
	"p9e.in/fuelnet/models"
	"p9e.in/fuelnet/pkg/monitoring"
)

// FuelStockHandler serves the fuel-stock snapshot surface. The monitoring
// service is injected at construction; handlers only translate HTTP.
type FuelStockHandler struct {
	Service *monitoring.Service
}

func NewFuelStockHandler(service *monitoring.Service) *FuelStockHandler {
	return &FuelStockHandler{Service: service}
}

// stockFilterKeys are the snapshot-level filters accepted on list/export.
var stockFilterKeys = []string{"trading_point_id", "network_id", "fuel_type_id", "status", "fill_status"}

func stockFilters(r *http.Request) map[string]string {
	filters := map[string]string{}
	for _, key := range stockFilterKeys {
		v := r.URL.Query().Get(key)
		if v == "" {
			continue
		}
		// trading_point_id accepts a UUID or a trading-point code.
		if key == "trading_point_id" {
			if id := middleware.GetTradingPointID(r); id != uuid.Nil {
				v = id.String()
			}
		}
		filters[key] = v
	}
	return filters
}

func pageAndLimit(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

// GetAllFuelStocks returns one page of in-scope snapshots plus the fleet
// summary (counts per derived status, total and average fill).
func (h *FuelStockHandler) GetAllFuelStocks(w http.ResponseWriter, r *http.Request) {
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

// GetFuelStock returns a single snapshot with freshly derived status.
func (h *FuelStockHandler) GetFuelStock(w http.ResponseWriter, r *http.Request) {
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

// RecordMeasurement accepts a new reading for a tank and returns the
// updated snapshot.
func (h *FuelStockHandler) RecordMeasurement(w http.ResponseWriter, r *http.Request) {
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

	tank, err := h.Service.RecordMeasurement(middleware.GetScope(r), id, input, operator)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tank)
}

// GetAlerts returns the derived alert list with grouped severity counts.
func (h *FuelStockHandler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	scope := middleware.GetScope(r)
	page, limit := pageAndLimit(r)
	tradingPoint := r.URL.Query().Get("trading_point_id")
	if tradingPoint != "" {
		if id := middleware.GetTradingPointID(r); id != uuid.Nil {
			tradingPoint = id.String()
		}
	}
	filters := monitoring.AlertFilters{
		Severity:       r.URL.Query().Get("severity"),
		TradingPointID: tradingPoint,
		NetworkID:      r.URL.Query().Get("network_id"),
	}

	alerts, err := h.Service.ListAlerts(scope, filters, page, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, alerts)
}

// GetHistory pages through measurement history with tank, fuel-type and
// date-range filters.
func (h *FuelStockHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	params, err := models.ParseReportParams(r)
	if err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if err := params.Validate(); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	// History rows only know tank, fuel type and method.
	for key := range params.Filters {
		switch key {
		case "tank_id", "fuel_type_id", "method":
		default:
			delete(params.Filters, key)
		}
	}

	resp, err := h.Service.ListHistory(middleware.GetScope(r), params)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
