// Package validators holds the handful of numeric/geo business rules
// the request struct tags alone can't express (range checks that
// depend on more than one field, or checks validator/v10 has no tag
// for). Keeps only the checks that have a tourist-safety equivalent:
// coordinates, GPS accuracy/heading/speed, a 0-100 score, and the
// pagination/time-range bounds the alert-listing endpoints use.
package validators

import (
	"fmt"
	"time"
)

// ErrInvalidSpeed reports a GPS-implausible speed reading.
var ErrInvalidSpeed = fmt.Errorf("speed must be between 0 and 300 km/h")

// ValidateCoordinates rejects out-of-range and (0,0) sentinel readings.
func ValidateCoordinates(latitude, longitude float64) error {
	if latitude < -90 || latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if longitude < -180 || longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	if latitude == 0 && longitude == 0 {
		return fmt.Errorf("invalid coordinates: (0, 0)")
	}
	return nil
}

// ValidateSpeed rejects a negative or GPS-implausible speed reading.
func ValidateSpeed(speed float64) error {
	if speed < 0 {
		return fmt.Errorf("speed cannot be negative")
	}
	if speed > 300 {
		return ErrInvalidSpeed
	}
	return nil
}

// ValidateAccuracy rejects a negative or unusably poor GPS accuracy
// reading (> 1000m suggests a stale or spoofed fix).
func ValidateAccuracy(accuracy float64) error {
	if accuracy < 0 {
		return fmt.Errorf("accuracy cannot be negative")
	}
	if accuracy > 1000 {
		return fmt.Errorf("accuracy too low (> 1000m) - GPS signal poor")
	}
	return nil
}

// ValidateHeading validates a compass heading in degrees.
func ValidateHeading(heading float64) error {
	if heading < 0 || heading > 360 {
		return fmt.Errorf("heading must be between 0 and 360 degrees")
	}
	return nil
}

// ValidateScore validates a 0-100 safety score.
func ValidateScore(score float64) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("score must be between 0 and 100")
	}
	return nil
}

// ValidatePageLimit bounds a list endpoint's page size.
func ValidatePageLimit(limit int) error {
	if limit < 1 {
		return fmt.Errorf("limit must be at least 1")
	}
	if limit > 1000 {
		return fmt.Errorf("limit cannot exceed 1000")
	}
	return nil
}

// ValidateTimeRange bounds a query's date range so a stats or alert
// lookup can't be asked to scan an unbounded window.
func ValidateTimeRange(start, end time.Time, maxRange time.Duration) error {
	if end.Before(start) {
		return fmt.Errorf("end time must be after start time")
	}
	if end.Sub(start) > maxRange {
		return fmt.Errorf("time range exceeds maximum allowed (%s)", maxRange)
	}
	return nil
}
