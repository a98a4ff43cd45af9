// models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role names understood by the scope middleware. Admin and manager see the
// whole network tree; operators are pinned to one trading point.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleOperator = "operator"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone        string    `gorm:"size:15;uniqueIndex;not null" json:"phone"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:50;not null;default:'operator'" json:"role"`

	// Scope binding: a manager is restricted to one network, an operator to
	// one trading point. Admins carry neither.
	NetworkID      *uuid.UUID    `gorm:"type:uuid" json:"networkId,omitempty"`
	Network        *Network      `gorm:"foreignKey:NetworkID" json:"network,omitempty"`
	TradingPointID *uuid.UUID    `gorm:"type:uuid" json:"tradingPointId,omitempty"`
	TradingPoint   *TradingPoint `gorm:"foreignKey:TradingPointID" json:"tradingPoint,omitempty"`

	IsActive  bool      `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// IsElevated reports whether the user sees every trading point.
func (u *User) IsElevated() bool {
	return u.Role == RoleAdmin
}
