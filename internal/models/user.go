package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a storefront account. PasswordHash is nil for accounts
// created through an OAuth provider.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"type:text;uniqueIndex;not null"`
	PasswordHash *string   `gorm:"column:password;type:text"`
	Role         string    `gorm:"type:text;not null;default:'user'"`
	Name         string    `gorm:"type:text"`
	Phone        string    `gorm:"type:text"`
	CPF          string    `gorm:"type:text"`
	Photo        string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`

	Addresses []Address `gorm:"constraint:OnDelete:CASCADE"`
	Reviews   []Review  `gorm:"constraint:OnDelete:CASCADE"`
}

func (User) TableName() string { return "users" }
