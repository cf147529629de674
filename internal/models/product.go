package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Product exists here so reviews can validate their foreign key. Catalog
// management lives outside this service.
type Product struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Slug       string            `gorm:"type:text;uniqueIndex;not null"`
	Title      string            `gorm:"type:text;not null"`
	Attributes datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt  time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}

func (Product) TableName() string { return "products" }
