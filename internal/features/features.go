// Package features computes the per-update and per-window feature
// vectors the detectors score. It is a pure, Store-free transformation
// over a Location and its recent history: speed/distance/behavior
// analysis over a GPS track window.
package features

import (
	"math"
	"time"

	"github.com/raahat-suraksha/safety-backend/internal/geo"
	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

// PointFeatureCount is the width of a point-feature vector, in the fixed
// order Vector() emits.
const PointFeatureCount = 8

// SequenceLength is the fixed tail length (L) of a sequence, left-padded
// with zero vectors when history is shorter.
const SequenceLength = 10

// InactivityRadiusMeters is the displacement threshold below which a
// tourist is considered stationary for inactivity accounting.
const InactivityRadiusMeters = 50.0

// MovementConsistencyScale (C) normalizes speed variance into [0,1] via
// 1 - min(1, variance/C).
const MovementConsistencyScale = 400.0

// Point is one update's derived feature vector.
type Point struct {
	DistancePerMinute   float64
	InactivityDuration  float64 // minutes
	Speed               float64
	SpeedVariance       float64
	LocationDensity     float64
	TimeOfDayRisk       float64
	MovementConsistency float64
	DeviationFromRoute  float64
}

// Vector returns the feature values in a fixed order, consumed by the
// Point-Anomaly Detector's standardizer.
func (p Point) Vector() [PointFeatureCount]float64 {
	return [PointFeatureCount]float64{
		p.DistancePerMinute,
		p.InactivityDuration,
		p.Speed,
		p.SpeedVariance,
		p.LocationDensity,
		p.TimeOfDayRisk,
		p.MovementConsistency,
		p.DeviationFromRoute,
	}
}

// RoutePoint is one vertex of a planned route polyline.
type RoutePoint struct {
	Lat, Lon float64
}

// Extractor computes Point and Sequence features. It holds no state of
// its own; all context is passed explicitly per call.
type Extractor struct{}

// New builds an Extractor.
func New() *Extractor {
	return &Extractor{}
}

func clampFinite(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}

// Point computes the point-feature vector for current, given history
// ordered oldest-to-newest (all within the caller's look-back window)
// and an optional planned route.
func (e *Extractor) Point(current *models.Location, history []models.Location, route []RoutePoint) Point {
	var distancePerMinute float64
	var speed float64

	if len(history) > 0 {
		prev := history[len(history)-1]
		dist := geo.DistanceMeters(prev.Latitude, prev.Longitude, current.Latitude, current.Longitude)
		elapsedMinutes := current.RecordedAt.Sub(prev.RecordedAt).Minutes()
		if elapsedMinutes > 0 {
			distancePerMinute = dist / elapsedMinutes
			speed = (dist / 1000) / (elapsedMinutes / 60) // km/h derived from the last segment
		}
	}

	if current.Speed != nil {
		speed = *current.Speed
	}

	allPoints := append(append([]models.Location{}, history...), *current)
	speedVariance := segmentSpeedVariance(allPoints)
	inactivity := inactivityDuration(allPoints)
	density := locationDensity(allPoints)
	deviation := deviationFromRoute(current.Latitude, current.Longitude, route)

	movementConsistency := 1 - math.Min(1, speedVariance/MovementConsistencyScale)

	return Point{
		DistancePerMinute:   clampFinite(distancePerMinute),
		InactivityDuration:  clampFinite(inactivity),
		Speed:               clampFinite(speed),
		SpeedVariance:       clampFinite(speedVariance),
		LocationDensity:      clampFinite(density),
		TimeOfDayRisk:       clampFinite(float64(current.RecordedAt.Hour()) / 24.0),
		MovementConsistency: clampFinite(movementConsistency),
		DeviationFromRoute:  clampFinite(deviation),
	}
}

// Sequence builds a fixed-length tail of point-feature vectors ending at
// `current`, left-padded with zero vectors when fewer than SequenceLength
// points exist. pointsOldestFirst must already be restricted to the
// caller's temporal window and include `current` as the last element.
func (e *Extractor) Sequence(pointsOldestFirst []Point) [SequenceLength][PointFeatureCount]float64 {
	var seq [SequenceLength][PointFeatureCount]float64

	n := len(pointsOldestFirst)
	start := 0
	if n > SequenceLength {
		start = n - SequenceLength
	}
	tail := pointsOldestFirst[start:]

	offset := SequenceLength - len(tail)
	for i, p := range tail {
		seq[offset+i] = p.Vector()
	}

	return seq
}

func segmentSpeedVariance(points []models.Location) float64 {
	if len(points) < 2 {
		return 0
	}
	speeds := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev, curr := points[i-1], points[i]
		elapsedHours := curr.RecordedAt.Sub(prev.RecordedAt).Hours()
		if elapsedHours <= 0 {
			continue
		}
		dist := geo.DistanceMeters(prev.Latitude, prev.Longitude, curr.Latitude, curr.Longitude)
		speeds = append(speeds, (dist/1000)/elapsedHours)
	}
	if len(speeds) < 2 {
		return 0
	}

	var mean float64
	for _, s := range speeds {
		mean += s
	}
	mean /= float64(len(speeds))

	var variance float64
	for _, s := range speeds {
		variance += (s - mean) * (s - mean)
	}
	return variance / float64(len(speeds))
}

// inactivityDuration sums the minutes over the trailing suffix of points
// whose displacement from the current (last) point stayed under
// InactivityRadiusMeters.
func inactivityDuration(points []models.Location) float64 {
	if len(points) < 2 {
		return 0
	}
	current := points[len(points)-1]

	var minutes float64
	for i := len(points) - 2; i >= 0; i-- {
		d := geo.DistanceMeters(points[i].Latitude, points[i].Longitude, current.Latitude, current.Longitude)
		if d >= InactivityRadiusMeters {
			break
		}
		minutes += points[i+1].RecordedAt.Sub(points[i].RecordedAt).Minutes()
	}
	return minutes
}

// locationDensity counts unique (lat,lon) pairs rounded to 3 decimals.
func locationDensity(points []models.Location) float64 {
	seen := make(map[[2]int64]struct{}, len(points))
	for _, p := range points {
		key := [2]int64{int64(math.Round(p.Latitude * 1000)), int64(math.Round(p.Longitude * 1000))}
		seen[key] = struct{}{}
	}
	return float64(len(seen))
}

// deviationFromRoute is the minimum geodesic distance, in meters, from
// (lat, lon) to any vertex of the route polyline. Zero if no route.
func deviationFromRoute(lat, lon float64, route []RoutePoint) float64 {
	if len(route) == 0 {
		return 0
	}
	min := math.MaxFloat64
	for _, r := range route {
		d := geo.DistanceMeters(lat, lon, r.Lat, r.Lon)
		if d < min {
			min = d
		}
	}
	return min
}

// LookbackWindows are the default history windows the Assessment Engine
// fetches from the Store before calling Point/Sequence.
const (
	PointLookback    = 24 * time.Hour
	TemporalLookback = 6 * time.Hour
)
