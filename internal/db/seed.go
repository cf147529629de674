package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fractalshop/internal/auth"
	"fractalshop/internal/models"
)

// Seed creates the bootstrap admin account when configured and absent.
// Re-running is a no-op once the account exists.
func Seed(ctx context.Context, database *gorm.DB, adminEmail, adminPassword string) error {
	if adminEmail == "" {
		return nil
	}
	if adminPassword == "" {
		return errors.New("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}

	var existing models.User
	err := database.WithContext(ctx).Where("email = ?", adminEmail).First(&existing).Error
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	hashStr, err := auth.HashPassword(adminPassword)
	if err != nil {
		return err
	}
	admin := models.User{
		ID:           uuid.New(),
		Email:        adminEmail,
		PasswordHash: &hashStr,
		Role:         "admin",
		Name:         "Administrator",
	}
	return database.WithContext(ctx).Create(&admin).Error
}
