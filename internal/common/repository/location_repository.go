package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

// LocationRepositoryImpl implements the LocationRepository interface
type LocationRepositoryImpl struct {
	*BaseRepository[models.Location]
}

// NewLocationRepository creates a new location repository
func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &LocationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Location](db),
	}
}

// GetByTourist retrieves locations for a tourist, newest first
func (r *LocationRepositoryImpl) GetByTourist(ctx context.Context, touristID uint, pagination Pagination) ([]*models.Location, error) {
	var locations []*models.Location
	query := r.db.WithContext(ctx).Where("tourist_id = ?", touristID).Order("recorded_at DESC")

	query = r.applyPagination(query, pagination)

	if err := query.Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("failed to get locations by tourist: %w", err)
	}

	return locations, nil
}

// GetLatestByTourist retrieves the most recent location for a tourist,
// the row the ingress adapter's "current location" view reads from.
func (r *LocationRepositoryImpl) GetLatestByTourist(ctx context.Context, touristID uint) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).Where("tourist_id = ?", touristID).
		Order("recorded_at DESC").First(&location).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("no locations found for tourist: %d", touristID)
		}
		return nil, fmt.Errorf("failed to get latest location: %w", err)
	}
	return &location, nil
}

// GetSince retrieves a tourist's locations recorded at or after a cutoff,
// the feature extractor's rolling window.
func (r *LocationRepositoryImpl) GetSince(ctx context.Context, touristID uint, since time.Time) ([]*models.Location, error) {
	var locations []*models.Location
	if err := r.db.WithContext(ctx).
		Where("tourist_id = ? AND recorded_at >= ?", touristID, since).
		Order("recorded_at ASC").
		Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("failed to get locations since cutoff: %w", err)
	}
	return locations, nil
}

// GetRecentAcrossAllTourists retrieves every location recorded at or after
// a cutoff, the training scheduler's fit-window fetch.
func (r *LocationRepositoryImpl) GetRecentAcrossAllTourists(ctx context.Context, since time.Time) ([]*models.Location, error) {
	var locations []*models.Location
	if err := r.db.WithContext(ctx).
		Where("recorded_at >= ?", since).
		Order("tourist_id ASC, recorded_at ASC").
		Find(&locations).Error; err != nil {
		return nil, fmt.Errorf("failed to get recent locations: %w", err)
	}
	return locations, nil
}
