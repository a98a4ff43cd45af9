package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FuelType is a sellable product grade (AI-92, AI-95, DT, GAS).
type FuelType struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name     string    `gorm:"size:255;not null" json:"name"`
	Code     string    `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Unit     string    `gorm:"size:20;default:'liter'" json:"unit"`
	Octane   *int      `json:"octane,omitempty"`
	IsActive bool      `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
