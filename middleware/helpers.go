package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"p9e.in/fuelnet/config"
	"p9e.in/fuelnet/models"
)

// GetMuxVars extracts mux variables from request
func GetMuxVars(r *http.Request) map[string]string {
	return mux.Vars(r)
}

// GetTradingPointID extracts a trading-point reference from URL path
// variables, query parameters or headers. Accepts both UUIDs and codes.
func GetTradingPointID(r *http.Request) uuid.UUID {
	vars := mux.Vars(r)
	if identifier, exists := vars["tradingPointId"]; exists {
		return resolveTradingPointIdentifier(identifier)
	}
	if identifier := r.URL.Query().Get("trading_point_id"); identifier != "" {
		return resolveTradingPointIdentifier(identifier)
	}
	if identifier := r.Header.Get("X-Trading-Point"); identifier != "" {
		return resolveTradingPointIdentifier(identifier)
	}
	return uuid.Nil
}

// resolveTradingPointIdentifier converts a trading-point code or UUID to UUID
func resolveTradingPointIdentifier(identifier string) uuid.UUID {
	if id, err := uuid.Parse(identifier); err == nil {
		return id
	}
	var tp models.TradingPoint
	if err := config.DB.Where("UPPER(code) = UPPER(?) AND is_active = ?", identifier, true).
		First(&tp).Error; err == nil {
		return tp.ID
	}
	return uuid.Nil
}
