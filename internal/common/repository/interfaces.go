package repository

import (
	"context"
	"time"

	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

// Repository defines the base repository interface for CRUD operations.
// IDs are the store's native surrogate key type (uint), not strings.
type Repository[T any] interface {
	// Basic CRUD operations
	Create(ctx context.Context, entity *T) error
	GetByID(ctx context.Context, id uint) (*T, error)
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id uint) error

	// Query operations
	List(ctx context.Context, filters FilterOptions, pagination Pagination) ([]*T, error)
	Count(ctx context.Context, filters FilterOptions) (int64, error)

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository[T]) error) error
}

// FilterOptions represents filtering options for queries
type FilterOptions struct {
	// Basic filters
	Where     map[string]interface{}   `json:"where"`
	WhereIn   map[string][]interface{} `json:"where_in"`
	WhereNot  map[string]interface{}   `json:"where_not"`
	WhereLike map[string]string        `json:"where_like"`

	// Date range filters
	DateRange map[string]DateRange `json:"date_range"`

	// Text search
	Search   string   `json:"search"`
	SearchIn []string `json:"search_in"`

	// Additional conditions
	Conditions []Condition `json:"conditions"`
}

// Condition represents a custom query condition
type Condition struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"` // =, !=, >, <, >=, <=, IN, NOT IN, LIKE, ILIKE
	Value    interface{} `json:"value"`
}

// DateRange represents a date range filter
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Pagination represents pagination options
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Offset   int `json:"offset"`
	Limit    int `json:"limit"`
}

// SortOptions represents sorting options
type SortOptions struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // ASC, DESC
}

// QueryOptions combines all query options
type QueryOptions struct {
	Filters    FilterOptions `json:"filters"`
	Pagination Pagination    `json:"pagination"`
	Sort       []SortOptions `json:"sort"`
}

// RepositoryResult represents the result of a repository operation
type RepositoryResult[T any] struct {
	Data       []*T                    `json:"data"`
	Total      int64                   `json:"total"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalPages int                     `json:"total_pages"`
	HasMore    bool                    `json:"has_more"`
	Metadata   map[string]interface{}  `json:"metadata"`
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
}

// Entity-specific repository interfaces

// TouristRepository defines tourist-specific repository operations
type TouristRepository interface {
	Repository[models.Tourist]
	GetActive(ctx context.Context, pagination Pagination) ([]*models.Tourist, error)
	Search(ctx context.Context, query string, pagination Pagination) ([]*models.Tourist, error)
	UpdateSafetyScore(ctx context.Context, touristID uint, score int, severity models.Severity) error
	Deactivate(ctx context.Context, touristID uint) error
}

// LocationRepository defines location-ingestion-specific repository operations
type LocationRepository interface {
	Repository[models.Location]
	GetByTourist(ctx context.Context, touristID uint, pagination Pagination) ([]*models.Location, error)
	GetLatestByTourist(ctx context.Context, touristID uint) (*models.Location, error)
	GetSince(ctx context.Context, touristID uint, since time.Time) ([]*models.Location, error)
	GetRecentAcrossAllTourists(ctx context.Context, since time.Time) ([]*models.Location, error)
}

// AssessmentRepository defines assessment-specific repository operations
type AssessmentRepository interface {
	Repository[models.Assessment]
	GetByTourist(ctx context.Context, touristID uint, pagination Pagination) ([]*models.Assessment, error)
	GetLatestByTourist(ctx context.Context, touristID uint) (*models.Assessment, error)
	GetByLocation(ctx context.Context, locationID uint) (*models.Assessment, error)
	CountBySeverity(ctx context.Context, severity models.Severity, since time.Time) (int64, error)
}

// AlertRepository defines alert-specific repository operations
type AlertRepository interface {
	Repository[models.Alert]
	GetByTourist(ctx context.Context, touristID uint, pagination Pagination) ([]*models.Alert, error)
	GetActive(ctx context.Context, pagination Pagination) ([]*models.Alert, error)
	GetByKind(ctx context.Context, kind models.AlertKind, pagination Pagination) ([]*models.Alert, error)
	FindRecentDuplicate(ctx context.Context, touristID uint, kind models.AlertKind, bucketStart, bucketEnd time.Time, lat, lon float64) (*models.Alert, error)
	Resolve(ctx context.Context, alertID uint, resolvedBy, notes string) error
	Acknowledge(ctx context.Context, alertID uint, acknowledgedBy string) error
}

// RestrictedZoneRepository defines restricted-zone-specific repository operations
type RestrictedZoneRepository interface {
	Repository[models.RestrictedZone]
	GetActive(ctx context.Context) ([]*models.RestrictedZone, error)
}

// SafeZoneRepository defines safe-zone-specific repository operations
type SafeZoneRepository interface {
	Repository[models.SafeZone]
	GetActive(ctx context.Context) ([]*models.SafeZone, error)
}
