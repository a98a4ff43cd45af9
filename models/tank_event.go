package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TankEventType classifies a tank-level occurrence.
type TankEventType string

const (
	EventDrain       TankEventType = "drain"
	EventFill        TankEventType = "fill"
	EventCalibration TankEventType = "calibration"
	EventMaintenance TankEventType = "maintenance"
	EventAlarm       TankEventType = "alarm"
)

// ValidTankEventTypes lists every accepted event type.
var ValidTankEventTypes = []TankEventType{EventDrain, EventFill, EventCalibration, EventMaintenance, EventAlarm}

// EventSeverity grades a tank event.
type EventSeverity string

const (
	SeverityInfo     EventSeverity = "info"
	SeverityWarning  EventSeverity = "warning"
	SeverityCritical EventSeverity = "critical"
)

// ValidEventSeverities lists every accepted severity.
var ValidEventSeverities = []EventSeverity{SeverityInfo, SeverityWarning, SeverityCritical}

// TankEvent is one append-only entry in a tank's event log. No update or
// delete surface exists for these rows.
type TankEvent struct {
	ID     uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TankID uuid.UUID `gorm:"type:uuid;index;not null" json:"tankId"`
	Tank   *Tank     `gorm:"foreignKey:TankID" json:"tank,omitempty"`

	EventType   TankEventType `gorm:"size:30;index;not null" json:"eventType"`
	Title       string        `gorm:"size:255;not null" json:"title"`
	Description string        `gorm:"type:text" json:"description,omitempty"`
	PerformedBy string        `gorm:"size:255" json:"performedBy,omitempty"`
	Severity    EventSeverity `gorm:"size:20;default:'info'" json:"severity"`

	Metadata datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`

	OccurredAt time.Time `gorm:"index;not null" json:"occurredAt"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName pins the append-only event table.
func (TankEvent) TableName() string {
	return "tank_events"
}
