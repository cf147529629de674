package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fractalshop/internal/models"
)

// GormPinStore is the PostgreSQL-backed PinStore.
type GormPinStore struct {
	orm *gorm.DB
}

func NewGormPinStore(orm *gorm.DB) *GormPinStore {
	return &GormPinStore{orm: orm}
}

func (s *GormPinStore) Upsert(ctx context.Context, rec *models.PinVerification) error {
	return s.orm.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"pin", "expires_at", "attempts", "created_at"}),
		}).
		Create(rec).Error
}

func (s *GormPinStore) FindValid(ctx context.Context, email, pin string, now time.Time) (*models.PinVerification, error) {
	var rec models.PinVerification
	err := s.orm.WithContext(ctx).
		Where("email = ? AND pin = ? AND expires_at > ?", email, pin, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *GormPinStore) FindByEmail(ctx context.Context, email string) (*models.PinVerification, error) {
	var rec models.PinVerification
	err := s.orm.WithContext(ctx).Where("email = ?", email).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *GormPinStore) IncrementAttempts(ctx context.Context, id uuid.UUID) error {
	return s.orm.WithContext(ctx).
		Model(&models.PinVerification{}).
		Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

func (s *GormPinStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.orm.WithContext(ctx).Delete(&models.PinVerification{}, "id = ?", id).Error
}

// GormUserStore is the PostgreSQL-backed UserStore.
type GormUserStore struct {
	orm *gorm.DB
}

func NewGormUserStore(orm *gorm.DB) *GormUserStore {
	return &GormUserStore{orm: orm}
}

func (s *GormUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.orm.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.orm.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *GormUserStore) Create(ctx context.Context, user *models.User) error {
	return s.orm.WithContext(ctx).Create(user).Error
}
