package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TankStatus is the operator-set lifecycle state of a tank. It is
// independent from the fill-level status derived from readings.
type TankStatus string

const (
	TankActive      TankStatus = "active"
	TankMaintenance TankStatus = "maintenance"
	TankError       TankStatus = "error"
	TankOffline     TankStatus = "offline"
)

// ValidTankStatuses lists every accepted lifecycle value, for boundary validation.
var ValidTankStatuses = []TankStatus{TankActive, TankMaintenance, TankError, TankOffline}

// FillStatus is derived from the current readings by the threshold engine.
type FillStatus string

const (
	FillNormal      FillStatus = "normal"
	FillLow         FillStatus = "low_level"
	FillHigh        FillStatus = "high_level"
	FillCritical    FillStatus = "critical"
	FillMaintenance FillStatus = "maintenance"
	FillError       FillStatus = "error"
	FillOffline     FillStatus = "offline"
)

// Tank is the current snapshot for one physical tank at a trading point.
// It is created once at provisioning and mutated only by measurement and
// calibration writes; the measurement history and event log are the audit
// trail this row summarizes.
type Tank struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TradingPointID uuid.UUID     `gorm:"type:uuid;index;not null" json:"tradingPointId"`
	TradingPoint   *TradingPoint `gorm:"foreignKey:TradingPointID" json:"tradingPoint,omitempty"`
	FuelTypeID     uuid.UUID     `gorm:"type:uuid;index;not null" json:"fuelTypeId"`
	FuelType       *FuelType     `gorm:"foreignKey:FuelTypeID" json:"fuelType,omitempty"`
	EquipmentID    *uuid.UUID    `gorm:"type:uuid" json:"equipmentId,omitempty"`

	Name string `gorm:"size:255;not null" json:"name"`

	// Capacity is fixed at provisioning; bounds satisfy
	// 0 <= MinVolume <= MaxVolume <= Capacity.
	Capacity  float64 `gorm:"not null" json:"capacity"`
	MinVolume float64 `gorm:"default:0" json:"minVolume"`
	MaxVolume float64 `json:"maxVolume"`

	CurrentVolume   float64    `gorm:"default:0" json:"currentVolume"`
	Temperature     *float64   `json:"temperature,omitempty"`
	Density         *float64   `json:"density,omitempty"`
	WaterLevel      *float64   `json:"waterLevel,omitempty"` // mm
	LastMeasurement *time.Time `json:"lastMeasurement,omitempty"`

	LastCalibrationDate *time.Time `json:"lastCalibrationDate,omitempty"`

	Status TankStatus `gorm:"size:20;default:'active'" json:"status"`

	// Derived fields persisted for list display; the alert query service
	// always re-derives them through the threshold engine.
	FillStatus FillStatus     `gorm:"size:20;default:'normal'" json:"fillStatus"`
	Alerts     pq.StringArray `gorm:"type:text[]" json:"alerts"`

	// Last measurement / calibration method, operator and notes.
	Metadata datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// FillPercent reports the fill level in [0,100]; zero when capacity is unset.
func (t *Tank) FillPercent() float64 {
	if t.Capacity <= 0 {
		return 0
	}
	return t.CurrentVolume / t.Capacity * 100
}
