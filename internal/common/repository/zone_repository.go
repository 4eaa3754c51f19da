package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

// RestrictedZoneRepositoryImpl implements the RestrictedZoneRepository interface
type RestrictedZoneRepositoryImpl struct {
	*BaseRepository[models.RestrictedZone]
}

// NewRestrictedZoneRepository creates a new restricted zone repository
func NewRestrictedZoneRepository(db *gorm.DB) RestrictedZoneRepository {
	return &RestrictedZoneRepositoryImpl{
		BaseRepository: NewBaseRepository[models.RestrictedZone](db),
	}
}

// GetActive retrieves every enabled restricted zone, the Zone Index's
// snapshot source.
func (r *RestrictedZoneRepositoryImpl) GetActive(ctx context.Context) ([]*models.RestrictedZone, error) {
	var zones []*models.RestrictedZone
	if err := r.db.WithContext(ctx).Where("is_active = true").Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("failed to get active restricted zones: %w", err)
	}
	return zones, nil
}

// SafeZoneRepositoryImpl implements the SafeZoneRepository interface
type SafeZoneRepositoryImpl struct {
	*BaseRepository[models.SafeZone]
}

// NewSafeZoneRepository creates a new safe zone repository
func NewSafeZoneRepository(db *gorm.DB) SafeZoneRepository {
	return &SafeZoneRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SafeZone](db),
	}
}

// GetActive retrieves every enabled safe zone, the Zone Index's snapshot source
func (r *SafeZoneRepositoryImpl) GetActive(ctx context.Context) ([]*models.SafeZone, error) {
	var zones []*models.SafeZone
	if err := r.db.WithContext(ctx).Where("is_active = true").Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("failed to get active safe zones: %w", err)
	}
	return zones, nil
}
