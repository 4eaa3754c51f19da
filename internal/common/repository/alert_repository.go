package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

// AlertRepositoryImpl implements the AlertRepository interface
type AlertRepositoryImpl struct {
	*BaseRepository[models.Alert]
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &AlertRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Alert](db),
	}
}

// GetByTourist retrieves alerts for a tourist, newest first
func (r *AlertRepositoryImpl) GetByTourist(ctx context.Context, touristID uint, pagination Pagination) ([]*models.Alert, error) {
	var alerts []*models.Alert
	query := r.db.WithContext(ctx).Where("tourist_id = ?", touristID).Order("occurred_at DESC")

	query = r.applyPagination(query, pagination)

	if err := query.Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to get alerts by tourist: %w", err)
	}

	return alerts, nil
}

// GetActive retrieves alerts still awaiting resolution
func (r *AlertRepositoryImpl) GetActive(ctx context.Context, pagination Pagination) ([]*models.Alert, error) {
	var alerts []*models.Alert
	query := r.db.WithContext(ctx).
		Where("status IN ?", []models.AlertStatus{models.AlertStatusActive, models.AlertStatusAcknowledged}).
		Order("occurred_at DESC")

	query = r.applyPagination(query, pagination)

	if err := query.Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to get active alerts: %w", err)
	}

	return alerts, nil
}

// GetByKind retrieves alerts of a given kind, newest first
func (r *AlertRepositoryImpl) GetByKind(ctx context.Context, kind models.AlertKind, pagination Pagination) ([]*models.Alert, error) {
	var alerts []*models.Alert
	query := r.db.WithContext(ctx).Where("kind = ?", kind).Order("occurred_at DESC")

	query = r.applyPagination(query, pagination)

	if err := query.Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to get alerts by kind: %w", err)
	}

	return alerts, nil
}

// FindRecentDuplicate looks for an alert of the same kind for the same
// tourist within the same second-bucket and at the same location rounded
// to 5 decimal places, the dispatcher's idempotency key. Rounding is done
// in Go rather than in SQL so the query stays portable across the
// Postgres and sqlite dialects this repository runs against.
func (r *AlertRepositoryImpl) FindRecentDuplicate(ctx context.Context, touristID uint, kind models.AlertKind, bucketStart, bucketEnd time.Time, lat, lon float64) (*models.Alert, error) {
	var candidates []models.Alert
	if err := r.db.WithContext(ctx).
		Where("tourist_id = ? AND kind = ? AND occurred_at >= ? AND occurred_at < ?", touristID, kind, bucketStart, bucketEnd).
		Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("failed to look up duplicate alert: %w", err)
	}

	for i := range candidates {
		c := &candidates[i]
		if c.Latitude == nil || c.Longitude == nil {
			continue
		}
		if roundTo5(*c.Latitude) == roundTo5(lat) && roundTo5(*c.Longitude) == roundTo5(lon) {
			return c, nil
		}
	}
	return nil, nil
}

func roundTo5(v float64) float64 {
	const factor = 1e5
	return math.Round(v*factor) / factor
}

// Resolve marks an alert resolved with an optional note
func (r *AlertRepositoryImpl) Resolve(ctx context.Context, alertID uint, resolvedBy, notes string) error {
	now := time.Now()
	if err := r.db.WithContext(ctx).Model(&models.Alert{}).Where("id = ?", alertID).Updates(map[string]interface{}{
		"status":           models.AlertStatusResolved,
		"resolved_by":      resolvedBy,
		"resolved_at":      now,
		"resolution_notes": notes,
	}).Error; err != nil {
		return fmt.Errorf("failed to resolve alert: %w", err)
	}
	return nil
}

// Acknowledge marks an alert acknowledged by a dispatcher operator
func (r *AlertRepositoryImpl) Acknowledge(ctx context.Context, alertID uint, acknowledgedBy string) error {
	now := time.Now()
	if err := r.db.WithContext(ctx).Model(&models.Alert{}).Where("id = ?", alertID).Updates(map[string]interface{}{
		"status":          models.AlertStatusAcknowledged,
		"acknowledged_by": acknowledgedBy,
		"acknowledged_at": now,
	}).Error; err != nil {
		return fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	return nil
}
