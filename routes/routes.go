package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"p9e.in/fuelnet/config"
	"p9e.in/fuelnet/handlers"
	"p9e.in/fuelnet/middleware"
	"p9e.in/fuelnet/models"
	"p9e.in/fuelnet/pkg/monitoring"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	service := monitoring.NewService(monitoring.NewGormTankStore(config.DB))
	fuelStocks := handlers.NewFuelStockHandler(service)
	tanks := handlers.NewTankHandler(service)
	exports := handlers.NewExportHandler(service)

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/register", handlers.Register).Methods("POST")
	r.HandleFunc("/login", handlers.Login).Methods("POST")

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.JWTMiddleware)
	api.Use(middleware.ScopeMiddleware)

	// Fuel stock snapshots
	api.HandleFunc("/fuel-stocks", fuelStocks.GetAllFuelStocks).Methods("GET")
	api.HandleFunc("/fuel-stocks/alerts", fuelStocks.GetAlerts).Methods("GET")
	api.HandleFunc("/fuel-stocks/history", fuelStocks.GetHistory).Methods("GET")
	api.HandleFunc("/fuel-stocks/export", exports.ExportFuelStocks).Methods("GET")
	api.HandleFunc("/fuel-stocks/{id}", fuelStocks.GetFuelStock).Methods("GET")
	api.HandleFunc("/fuel-stocks/{id}/measurement", fuelStocks.RecordMeasurement).Methods("POST")

	// Tank-scoped surface
	api.HandleFunc("/tanks", tanks.GetAllTanks).Methods("GET")
	api.HandleFunc("/tanks/export", exports.ExportFuelStocks).Methods("GET")
	api.HandleFunc("/tanks/{id}", tanks.GetTank).Methods("GET")
	api.HandleFunc("/tanks/{id}/calibration", tanks.Calibrate).Methods("POST")
	api.HandleFunc("/tanks/{id}/events", tanks.GetEvents).Methods("GET")
	api.HandleFunc("/tanks/{id}/events", tanks.CreateEvent).Methods("POST")

	// Tank provisioning is limited to elevated roles.
	api.Handle("/tanks",
		middleware.RequireRole([]string{models.RoleAdmin, models.RoleManager},
			http.HandlerFunc(tanks.CreateTank))).Methods("POST")

	// Trading points (display enrichment for clients)
	api.HandleFunc("/trading-points", handlers.GetAllTradingPoints).Methods("GET")
	api.HandleFunc("/trading-points/nearby", handlers.GetNearbyTradingPoints).Methods("GET")

	return r
}
