package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Network is a fuel-station operator: a brand owning many trading points.
type Network struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Code        string    `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	IsActive    bool      `gorm:"default:true" json:"isActive"`

	TradingPoints []TradingPoint `gorm:"foreignKey:NetworkID" json:"tradingPoints,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TradingPoint is a single gas station belonging to a network.
type TradingPoint struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	NetworkID uuid.UUID `gorm:"type:uuid;index;not null" json:"networkId"`
	Network   *Network  `gorm:"foreignKey:NetworkID" json:"network,omitempty"`

	Name    string `gorm:"size:255;not null" json:"name"`
	Code    string `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Address string `gorm:"size:500" json:"address,omitempty"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`

	Latitude  float64 `gorm:"column:latitude" json:"latitude"`
	Longitude float64 `gorm:"column:longitude" json:"longitude"`
	// Optional service-area polygon, stored as a GeoJSON-ish coordinate list.
	Geofence datatypes.JSON `gorm:"column:geofence;type:jsonb" json:"geofence,omitempty"`

	IsActive bool `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
