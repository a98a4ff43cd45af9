package utils

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// Coordinate represents a geographic coordinate with latitude and longitude
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geofence is a trading point's polygonal service area.
type Geofence struct {
	Coordinates []Coordinate `json:"coordinates"`
	Name        string       `json:"name,omitempty"`
}

// ParseGeofence validates and converts the stored JSON polygon.
func ParseGeofence(raw []byte) (orb.Polygon, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty geofence")
	}
	var fence Geofence
	if err := json.Unmarshal(raw, &fence); err != nil {
		return nil, fmt.Errorf("invalid geofence JSON: %w", err)
	}
	if len(fence.Coordinates) < 3 {
		return nil, errors.New("geofence must have at least 3 coordinates to form a polygon")
	}
	ring := make(orb.Ring, 0, len(fence.Coordinates)+1)
	for i, coord := range fence.Coordinates {
		if err := validateCoordinate(coord); err != nil {
			return nil, fmt.Errorf("invalid coordinate at index %d: %w", i, err)
		}
		ring = append(ring, orb.Point{coord.Lng, coord.Lat})
	}
	// Close the ring if the submitter didn't.
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return orb.Polygon{ring}, nil
}

// PointInGeofence reports whether a coordinate falls inside the polygon.
func PointInGeofence(lat, lng float64, polygon orb.Polygon) bool {
	return planar.PolygonContains(polygon, orb.Point{lng, lat})
}

// DistanceKM is the great-circle distance between two coordinates.
func DistanceKM(lat1, lng1, lat2, lng2 float64) float64 {
	return geo.Distance(orb.Point{lng1, lat1}, orb.Point{lng2, lat2}) / 1000
}

func validateCoordinate(coord Coordinate) error {
	if coord.Lat < -90 || coord.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", coord.Lat)
	}
	if coord.Lng < -180 || coord.Lng > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", coord.Lng)
	}
	return nil
}
