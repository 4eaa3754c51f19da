package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

// TouristRepositoryImpl implements the TouristRepository interface
type TouristRepositoryImpl struct {
	*BaseRepository[models.Tourist]
}

// NewTouristRepository creates a new tourist repository
func NewTouristRepository(db *gorm.DB) TouristRepository {
	return &TouristRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Tourist](db),
	}
}

// GetActive retrieves active tourists with pagination
func (r *TouristRepositoryImpl) GetActive(ctx context.Context, pagination Pagination) ([]*models.Tourist, error) {
	var tourists []*models.Tourist
	query := r.db.WithContext(ctx).Where("is_active = true")

	query = r.applyPagination(query, pagination)

	if err := query.Find(&tourists).Error; err != nil {
		return nil, fmt.Errorf("failed to get active tourists: %w", err)
	}

	return tourists, nil
}

// Search searches tourists by name, phone or passport number
func (r *TouristRepositoryImpl) Search(ctx context.Context, query string, pagination Pagination) ([]*models.Tourist, error) {
	var tourists []*models.Tourist
	searchPattern := "%" + strings.ToLower(query) + "%"

	dbQuery := r.db.WithContext(ctx).Where(
		"LOWER(name) LIKE ? OR LOWER(contact_phone) LIKE ? OR LOWER(passport_no) LIKE ?",
		searchPattern, searchPattern, searchPattern,
	)

	dbQuery = r.applyPagination(dbQuery, pagination)

	if err := dbQuery.Find(&tourists).Error; err != nil {
		return nil, fmt.Errorf("failed to search tourists: %w", err)
	}

	return tourists, nil
}

// UpdateSafetyScore writes the fusion-derived score onto the tourist
// row's safety_score column, the only path that touches it. The tourist
// row has no severity column, so severity is not stored.
func (r *TouristRepositoryImpl) UpdateSafetyScore(ctx context.Context, touristID uint, score int, severity models.Severity) error {
	if err := r.db.WithContext(ctx).Model(&models.Tourist{}).Where("id = ?", touristID).
		Update("safety_score", score).Error; err != nil {
		return fmt.Errorf("failed to update safety score: %w", err)
	}
	return nil
}

// Deactivate marks a tourist inactive, e.g. at the end of a trip.
func (r *TouristRepositoryImpl) Deactivate(ctx context.Context, touristID uint) error {
	if err := r.db.WithContext(ctx).Model(&models.Tourist{}).Where("id = ?", touristID).
		Update("is_active", false).Error; err != nil {
		return fmt.Errorf("failed to deactivate tourist: %w", err)
	}
	return nil
}
