package handlers

import (
	"net/http"
	"sort"
	"strconv"

	"p9e.in/fuelnet/config"
	"p9e.in/fuelnet/models"
	"p9e.in/fuelnet/utils"
)

// GetAllTradingPoints lists active trading points, optionally narrowed to
// one network.
func GetAllTradingPoints(w http.ResponseWriter, r *http.Request) {
	query := config.DB.Where("is_active = ?", true)
	if networkID := r.URL.Query().Get("network_id"); networkID != "" {
		query = query.Where("network_id = ?", networkID)
	}
	var points []models.TradingPoint
	if err := query.Order("name").Find(&points).Error; err != nil {
		respondBadRequest(w, "db error: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, points)
}

type nearbyTradingPoint struct {
	models.TradingPoint
	DistanceKM float64 `json:"distanceKm"`
	// InServiceArea is set when the queried coordinate falls inside the
	// trading point's geofence polygon, if one is configured.
	InServiceArea bool `json:"inServiceArea"`
}

// GetNearbyTradingPoints returns active trading points within radius_km of
// the given coordinate, nearest first. Default radius is 25 km.
func GetNearbyTradingPoints(w http.ResponseWriter, r *http.Request) {
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if latErr != nil || lngErr != nil {
		respondBadRequest(w, "lat and lng query parameters are required")
		return
	}
	radius := 25.0
	if v := r.URL.Query().Get("radius_km"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			respondBadRequest(w, "invalid radius_km")
			return
		}
		radius = parsed
	}

	var points []models.TradingPoint
	if err := config.DB.Where("is_active = ?", true).Find(&points).Error; err != nil {
		respondBadRequest(w, "db error: "+err.Error())
		return
	}

	nearby := make([]nearbyTradingPoint, 0)
	for _, point := range points {
		distance := utils.DistanceKM(lat, lng, point.Latitude, point.Longitude)
		if distance > radius {
			continue
		}
		entry := nearbyTradingPoint{TradingPoint: point, DistanceKM: distance}
		if len(point.Geofence) > 0 {
			if polygon, err := utils.ParseGeofence(point.Geofence); err == nil {
				entry.InServiceArea = utils.PointInGeofence(lat, lng, polygon)
			}
		}
		nearby = append(nearby, entry)
	}
	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKM < nearby[j].DistanceKM
	})
	respondJSON(w, http.StatusOK, nearby)
}
