package testutil

import (
	"time"

	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

// NewTestTourist creates a test tourist with default values
func NewTestTourist() *models.Tourist {
	age := 29
	return &models.Tourist{
		Name:           "Test Tourist",
		ContactPhone:   "+91 98765 43210",
		EmergencyPhone: "+91 98765 00000",
		Age:            &age,
		Nationality:    "India",
		PassportNo:     "Z1234567",
		SafetyScore:    100,
		IsActive:       true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}

// NewTestLocation creates a test location ping for a tourist
func NewTestLocation(touristID uint) *models.Location {
	speed := 20.0
	return &models.Location{
		TouristID:  touristID,
		Latitude:   27.1751, // Taj Mahal, Agra
		Longitude:  78.0421,
		Speed:      &speed,
		RecordedAt: time.Now(),
		CreatedAt:  time.Now(),
	}
}

// NewTestAssessment creates a test assessment for a tourist and location
func NewTestAssessment(touristID, locationID uint) *models.Assessment {
	return &models.Assessment{
		TouristID:   touristID,
		LocationID:  locationID,
		SafetyScore: 100,
		Severity:    models.SeveritySafe,
		Confidence:  1.0,
		CreatedAt:   time.Now(),
	}
}

// NewTestAlert creates a test alert for a tourist
func NewTestAlert(touristID uint, kind models.AlertKind) *models.Alert {
	lat, lon := 27.1751, 78.0421
	return &models.Alert{
		TouristID:     touristID,
		Kind:          kind,
		Severity:      models.AlertSeverityCritical,
		Message:       "Test alert",
		Latitude:      &lat,
		Longitude:     &lon,
		Status:        models.AlertStatusActive,
		AutoGenerated: true,
		OccurredAt:    time.Now(),
		CreatedAt:     time.Now(),
	}
}

// NewTestRestrictedZone creates a restricted zone around the Jim Corbett
// buffer area, used across the zone-index and assessment-engine tests.
func NewTestRestrictedZone() *models.RestrictedZone {
	return &models.RestrictedZone{
		Name: "Test Restricted Zone",
		Polygon: models.ZoneRing{
			{Lon: 78.00, Lat: 29.50},
			{Lon: 78.10, Lat: 29.50},
			{Lon: 78.10, Lat: 29.60},
			{Lon: 78.00, Lat: 29.60},
		},
		DangerLevel: 3,
		IsActive:    true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// NewTestSafeZone creates a safe zone fixture
func NewTestSafeZone() *models.SafeZone {
	return &models.SafeZone{
		Name: "Test Safe Zone",
		Polygon: models.ZoneRing{
			{Lon: 78.04, Lat: 27.17},
			{Lon: 78.05, Lat: 27.17},
			{Lon: 78.05, Lat: 27.18},
			{Lon: 78.04, Lat: 27.18},
		},
		SafetyRating: 5,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}

// PtrString creates a pointer to a string
func PtrString(s string) *string {
	return &s
}

// PtrTime creates a pointer to a time.Time
func PtrTime(t time.Time) *time.Time {
	return &t
}

// PtrFloat64 creates a pointer to a float64
func PtrFloat64(f float64) *float64 {
	return &f
}
