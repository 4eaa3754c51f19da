// Package models holds the persisted entities of the safety backend:
// Tourist, Location, Assessment, Alert, SafeZone and RestrictedZone, plus
// the in-memory (never persisted) ModelHandle that the training scheduler
// hands to the assessment engine.
package models

import (
	"time"
)

// Severity bands a safety score falls into. The Fusion Scorer is the sole
// writer of this value on an Assessment; a Tourist does not store it.
type Severity string

const (
	SeveritySafe     Severity = "SAFE"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// AlertKind enumerates why an Alert was raised.
type AlertKind string

const (
	AlertKindPanic    AlertKind = "PANIC"
	AlertKindSOS      AlertKind = "SOS"
	AlertKindGeofence AlertKind = "GEOFENCE"
	AlertKindAnomaly  AlertKind = "ANOMALY"
	AlertKindTemporal AlertKind = "TEMPORAL"
	AlertKindLowScore AlertKind = "LOW_SCORE"
	AlertKindManual   AlertKind = "MANUAL"
)

// AlertSeverity is independent of Severity: alerts carry their own LOW..
// CRITICAL scale so a GEOFENCE alert can be HIGH while the assessment that
// spawned it is only WARNING.
type AlertSeverity string

const (
	AlertSeverityLow      AlertSeverity = "LOW"
	AlertSeverityMedium   AlertSeverity = "MEDIUM"
	AlertSeverityHigh     AlertSeverity = "HIGH"
	AlertSeverityCritical AlertSeverity = "CRITICAL"
)

// AlertStatus tracks an Alert through its resolution lifecycle.
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "ACTIVE"
	AlertStatusAcknowledged AlertStatus = "ACKNOWLEDGED"
	AlertStatusResolved     AlertStatus = "RESOLVED"
	AlertStatusFalseAlarm   AlertStatus = "FALSE_ALARM"
)

// Tourist is a registered traveler under watch. safety_score mirrors the
// most recent Assessment's score (invariant 1); it is never written
// directly by anything other than the fusion path.
type Tourist struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"not null;size:255" json:"name"`
	ContactPhone  string     `gorm:"size:32" json:"contact_phone"`
	EmergencyPhone string    `gorm:"size:32" json:"emergency_phone"`
	Age           *int       `json:"age,omitempty"`
	Nationality   string     `gorm:"size:100" json:"nationality,omitempty"`
	PassportNo    string     `gorm:"size:64" json:"passport_no,omitempty"`
	SafetyScore   int        `gorm:"not null;default:100" json:"safety_score"`
	IsActive      bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Location is a single ingested GPS point. Immutable once written.
type Location struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TouristID  uint      `gorm:"not null;index" json:"tourist_id"`
	Latitude   float64   `gorm:"not null" json:"latitude"`
	Longitude  float64   `gorm:"not null" json:"longitude"`
	Altitude   *float64  `json:"altitude,omitempty"`
	Accuracy   *float64  `json:"accuracy,omitempty"`
	Speed      *float64  `json:"speed,omitempty"`
	Heading    *float64  `json:"heading,omitempty"`
	RecordedAt time.Time `gorm:"not null;index" json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Assessment is the persisted verdict produced for one Location. Written
// once, synchronously, by the Assessment Engine.
type Assessment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	TouristID       uint      `gorm:"not null;index" json:"tourist_id"`
	LocationID      uint      `gorm:"not null;index" json:"location_id"`
	SafetyScore     int       `gorm:"not null" json:"safety_score"`
	Severity        Severity  `gorm:"not null;size:16" json:"severity"`
	InRestrictedZone bool     `json:"in_restricted_zone"`
	InSafeZone      bool      `json:"in_safe_zone"`
	ZoneName        string    `gorm:"size:255" json:"zone_name,omitempty"`
	AnomalyScore    float64   `json:"anomaly_score"`
	IsAnomaly       bool      `json:"is_anomaly"`
	TemporalRisk    float64   `json:"temporal_risk"`
	PatternDeviation float64  `json:"pattern_deviation"`
	Confidence      float64   `gorm:"not null" json:"confidence"`
	Recommendations string    `gorm:"type:text" json:"recommendations,omitempty"`
	Degraded        bool      `gorm:"not null;default:false" json:"degraded"`
	DegradedStage   string    `gorm:"size:64" json:"degraded_stage,omitempty"`
	PointModelVersion    string `gorm:"size:64" json:"point_model_version,omitempty"`
	SequenceModelVersion string `gorm:"size:64" json:"sequence_model_version,omitempty"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
}

// Alert is an actionable event raised either automatically by the
// Assessment Engine or directly by the Ingress Adapter (panic, SOS,
// manual E-FIR filing).
type Alert struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	TouristID      uint          `gorm:"not null;index" json:"tourist_id"`
	Kind           AlertKind     `gorm:"not null;size:16;index" json:"kind"`
	Severity       AlertSeverity `gorm:"not null;size:16" json:"severity"`
	Message        string        `gorm:"size:512" json:"message"`
	Description    string        `gorm:"type:text" json:"description,omitempty"`
	Latitude       *float64      `json:"latitude,omitempty"`
	Longitude      *float64      `json:"longitude,omitempty"`
	Status         AlertStatus   `gorm:"not null;size:16;default:ACTIVE;index" json:"status"`
	AutoGenerated  bool          `gorm:"not null" json:"auto_generated"`
	CaseNumber     string        `gorm:"size:64" json:"case_number,omitempty"`
	AcknowledgedBy string        `gorm:"size:255" json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time    `json:"acknowledged_at,omitempty"`
	ResolvedBy     string        `gorm:"size:255" json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time    `json:"resolved_at,omitempty"`
	ResolutionNotes string       `gorm:"type:text" json:"resolution_notes,omitempty"`
	OccurredAt     time.Time     `gorm:"not null;index" json:"occurred_at"`
	CreatedAt      time.Time     `json:"created_at"`
}

// ZoneRing is an ordered ring of (lon, lat) pairs, stored as JSON.
type ZoneRing []ZonePoint

// ZonePoint is one vertex of a zone polygon.
type ZonePoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// RestrictedZone is a polygon tourists should avoid. DangerLevel is an
// integer multiplier the Fusion Scorer uses for its penalty.
type RestrictedZone struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:255;not null" json:"name"`
	Polygon     ZoneRing `gorm:"serializer:json" json:"polygon"`
	DangerLevel int     `gorm:"not null;default:1" json:"danger_level"`
	IsActive    bool    `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SafeZone is a polygon that grants a bonus when a tourist is inside it.
// SafetyRating is an integer the Fusion Scorer centers at 3 to derive a
// bonus/penalty.
type SafeZone struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	Name         string   `gorm:"size:255;not null" json:"name"`
	Polygon      ZoneRing `gorm:"serializer:json" json:"polygon"`
	SafetyRating int      `gorm:"not null;default:3" json:"safety_rating"`
	IsActive     bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ModelHandle is the atomically swappable, in-memory representation of a
// trained detector. Never persisted: a process restart starts untrained
// and waits for the Training Scheduler's first tick.
type ModelHandle struct {
	DetectorName string
	Version      string
	FittedAt     time.Time
	SampleCount  int
	Params       interface{}
}

// TableName overrides so the schema reads cleanly regardless of GORM's
// default pluralization.
func (Tourist) TableName() string        { return "tourists" }
func (Location) TableName() string       { return "locations" }
func (Assessment) TableName() string     { return "assessments" }
func (Alert) TableName() string          { return "alerts" }
func (RestrictedZone) TableName() string { return "restricted_zones" }
func (SafeZone) TableName() string       { return "safe_zones" }

// AllTables lists every persisted model, used by AutoMigrate callers.
func AllTables() []interface{} {
	return []interface{}{
		&Tourist{},
		&Location{},
		&Assessment{},
		&Alert{},
		&RestrictedZone{},
		&SafeZone{},
	}
}
