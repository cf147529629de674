package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a delivery address owned by a user. A user has at most one
// default address; setting a new default clears the previous one.
type Address struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Label      string    `gorm:"type:text;not null"`
	Street     string    `gorm:"type:text;not null"`
	Number     string    `gorm:"type:text;not null"`
	Complement string    `gorm:"type:text"`
	District   string    `gorm:"type:text;not null"`
	City       string    `gorm:"type:text;not null"`
	State      string    `gorm:"type:text;not null"`
	ZipCode    string    `gorm:"type:text;not null"`
	Country    string    `gorm:"type:text;not null;default:'Brasil'"`
	IsDefault  bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt  time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`

	User User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID"`
}

func (Address) TableName() string { return "addresses" }
