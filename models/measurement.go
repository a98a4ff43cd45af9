package models

import (
	"time"

	"github.com/google/uuid"
)

// MeasurementMethod says how a reading was taken.
type MeasurementMethod string

const (
	MethodManual          MeasurementMethod = "manual"
	MethodAutomatic       MeasurementMethod = "automatic"
	MethodCalibratedStick MeasurementMethod = "calibrated_stick"
)

// ValidMeasurementMethods lists every accepted method value.
var ValidMeasurementMethods = []MeasurementMethod{MethodManual, MethodAutomatic, MethodCalibratedStick}

// FuelMeasurement is one raw tank reading. Rows are append-only: they are
// never updated or deleted, so the history stays a trustworthy audit trail
// even when concurrent writes race on the snapshot.
type FuelMeasurement struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TankID     uuid.UUID `gorm:"type:uuid;index;not null" json:"tankId"`
	Tank       *Tank     `gorm:"foreignKey:TankID" json:"tank,omitempty"`
	FuelTypeID uuid.UUID `gorm:"type:uuid;index;not null" json:"fuelTypeId"`
	FuelType   *FuelType `gorm:"foreignKey:FuelTypeID" json:"fuelType,omitempty"`

	Volume      float64           `gorm:"not null" json:"volume"`
	Temperature *float64          `json:"temperature,omitempty"`
	Density     *float64          `json:"density,omitempty"`
	WaterLevel  *float64          `json:"waterLevel,omitempty"`
	Method      MeasurementMethod `gorm:"size:30;not null;default:'manual'" json:"method"`

	RecordedBy string  `gorm:"size:255" json:"recordedBy,omitempty"`
	Notes      *string `gorm:"type:text" json:"notes,omitempty"`

	MeasuredAt time.Time `gorm:"index;not null" json:"measuredAt"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName keeps the history table name the reporting clients expect.
func (FuelMeasurement) TableName() string {
	return "fuel_measurement_history"
}
