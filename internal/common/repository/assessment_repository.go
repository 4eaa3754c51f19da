package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

// AssessmentRepositoryImpl implements the AssessmentRepository interface
type AssessmentRepositoryImpl struct {
	*BaseRepository[models.Assessment]
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *gorm.DB) AssessmentRepository {
	return &AssessmentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Assessment](db),
	}
}

// GetByTourist retrieves assessments for a tourist, newest first
func (r *AssessmentRepositoryImpl) GetByTourist(ctx context.Context, touristID uint, pagination Pagination) ([]*models.Assessment, error) {
	var assessments []*models.Assessment
	query := r.db.WithContext(ctx).Where("tourist_id = ?", touristID).Order("created_at DESC")

	query = r.applyPagination(query, pagination)

	if err := query.Find(&assessments).Error; err != nil {
		return nil, fmt.Errorf("failed to get assessments by tourist: %w", err)
	}

	return assessments, nil
}

// GetLatestByTourist retrieves the most recent assessment for a tourist,
// the row invariant 1 says the tourist's safety_score must mirror.
func (r *AssessmentRepositoryImpl) GetLatestByTourist(ctx context.Context, touristID uint) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := r.db.WithContext(ctx).Where("tourist_id = ?", touristID).
		Order("created_at DESC").First(&assessment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("no assessments found for tourist: %d", touristID)
		}
		return nil, fmt.Errorf("failed to get latest assessment: %w", err)
	}
	return &assessment, nil
}

// GetByLocation retrieves the assessment produced for a single location row
func (r *AssessmentRepositoryImpl) GetByLocation(ctx context.Context, locationID uint) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := r.db.WithContext(ctx).Where("location_id = ?", locationID).First(&assessment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("no assessment found for location: %d", locationID)
		}
		return nil, fmt.Errorf("failed to get assessment by location: %w", err)
	}
	return &assessment, nil
}

// CountBySeverity counts assessments at a given severity band since a cutoff
func (r *AssessmentRepositoryImpl) CountBySeverity(ctx context.Context, severity models.Severity, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Assessment{}).
		Where("severity = ? AND created_at >= ?", severity, since).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count assessments by severity: %w", err)
	}
	return count, nil
}
