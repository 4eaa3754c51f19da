// Package zoneindex holds the active restricted/safe zone set in memory
// and answers containment queries without touching the Store. It trades
// a Redis-backed polygon cache and ray-casting containment for a plain
// atomic in-process snapshot and bounding-box containment, which is all
// this domain's zone shapes need.
package zoneindex

import (
	"context"
	"sync/atomic"

	"gorm.io/gorm"

	"github.com/raahat-suraksha/safety-backend/internal/common/logging"
	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

// BoundingBox is an axis-aligned box over (lat, lon) degrees.
type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

func (b BoundingBox) contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

func boundingBoxOf(ring models.ZoneRing) BoundingBox {
	if len(ring) == 0 {
		return BoundingBox{}
	}
	box := BoundingBox{MinLat: ring[0].Lat, MaxLat: ring[0].Lat, MinLon: ring[0].Lon, MaxLon: ring[0].Lon}
	for _, p := range ring[1:] {
		if p.Lat < box.MinLat {
			box.MinLat = p.Lat
		}
		if p.Lat > box.MaxLat {
			box.MaxLat = p.Lat
		}
		if p.Lon < box.MinLon {
			box.MinLon = p.Lon
		}
		if p.Lon > box.MaxLon {
			box.MaxLon = p.Lon
		}
	}
	return box
}

// RestrictedEntry is a restricted zone with its precomputed bounding box.
type RestrictedEntry struct {
	ID          uint
	Name        string
	DangerLevel int
	Box         BoundingBox
}

// SafeEntry is a safe zone with its precomputed bounding box.
type SafeEntry struct {
	ID           uint
	Name         string
	SafetyRating int
	Box          BoundingBox
}

// Snapshot is one consistent view of the active zone set. Callers take a
// reference at the start of an assessment and never observe a
// partially-refreshed index.
type Snapshot struct {
	Restricted []RestrictedEntry
	Safe       []SafeEntry
}

// Verdict is the result of a containment lookup against a Snapshot.
type Verdict struct {
	InRestricted bool
	InSafe       bool
	ZoneName     string
	DangerLevel  int
	SafetyRating int
}

// Contains checks restricted zones first (a match wins outright), then
// safe zones.
func (s *Snapshot) Contains(lat, lon float64) Verdict {
	if s == nil {
		return Verdict{}
	}
	for _, z := range s.Restricted {
		if z.Box.contains(lat, lon) {
			return Verdict{InRestricted: true, ZoneName: z.Name, DangerLevel: z.DangerLevel}
		}
	}
	for _, z := range s.Safe {
		if z.Box.contains(lat, lon) {
			return Verdict{InSafe: true, ZoneName: z.Name, SafetyRating: z.SafetyRating}
		}
	}
	return Verdict{}
}

// Index holds the atomically swappable zone snapshot. Refresh replaces
// the whole snapshot in one pointer store; readers never see a mix of
// old and new zones.
type Index struct {
	db       *gorm.DB
	logger   *logging.Logger
	snapshot atomic.Pointer[Snapshot]
}

// New builds an Index with an empty snapshot; call Refresh before serving
// traffic to populate it from the Store.
func New(db *gorm.DB, logger *logging.Logger) *Index {
	idx := &Index{db: db, logger: logger}
	idx.snapshot.Store(&Snapshot{})
	return idx
}

// Current returns the most recently installed snapshot.
func (idx *Index) Current() *Snapshot {
	return idx.snapshot.Load()
}

// Refresh reloads active zones from the Store and atomically installs a
// new snapshot built from them.
func (idx *Index) Refresh(ctx context.Context) error {
	var restrictedRows []models.RestrictedZone
	if err := idx.db.WithContext(ctx).Where("is_active = ?", true).Find(&restrictedRows).Error; err != nil {
		return err
	}

	var safeRows []models.SafeZone
	if err := idx.db.WithContext(ctx).Where("is_active = ?", true).Find(&safeRows).Error; err != nil {
		return err
	}

	restricted := make([]RestrictedEntry, 0, len(restrictedRows))
	for _, z := range restrictedRows {
		restricted = append(restricted, RestrictedEntry{
			ID:          z.ID,
			Name:        z.Name,
			DangerLevel: z.DangerLevel,
			Box:         boundingBoxOf(z.Polygon),
		})
	}

	safe := make([]SafeEntry, 0, len(safeRows))
	for _, z := range safeRows {
		safe = append(safe, SafeEntry{
			ID:           z.ID,
			Name:         z.Name,
			SafetyRating: z.SafetyRating,
			Box:          boundingBoxOf(z.Polygon),
		})
	}

	idx.snapshot.Store(&Snapshot{Restricted: restricted, Safe: safe})

	if idx.logger != nil {
		idx.logger.Info("zone index refreshed",
			"restricted_count", len(restricted),
			"safe_count", len(safe),
		)
	}

	return nil
}
