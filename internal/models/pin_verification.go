package models

import (
	"time"

	"github.com/google/uuid"
)

// PinVerification holds a pending one-time login code. At most one record
// exists per email; a fresh request replaces the prior one wholesale.
type PinVerification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"type:text;uniqueIndex;not null"`
	Pin       string    `gorm:"type:text;not null"`
	ExpiresAt time.Time `gorm:"type:timestamptz;not null"`
	Attempts  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
}

func (PinVerification) TableName() string { return "pin_verifications" }
