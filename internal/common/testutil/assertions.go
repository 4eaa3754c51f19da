package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

// AssertValidSeverityForScore checks that a severity band matches the
// score ranges the Fusion Scorer is required to produce: SAFE >= 80,
// WARNING 50-79, CRITICAL < 50.
func AssertValidSeverityForScore(t *testing.T, score int, severity models.Severity, msgAndArgs ...interface{}) bool {
	var expected models.Severity
	switch {
	case score >= 80:
		expected = models.SeveritySafe
	case score >= 50:
		expected = models.SeverityWarning
	default:
		expected = models.SeverityCritical
	}
	return assert.Equal(t, expected, severity, msgAndArgs...)
}

// AssertScoreInRange checks a safety score is clamped to [0, 100]
func AssertScoreInRange(t *testing.T, score int, msgAndArgs ...interface{}) bool {
	ok := assert.GreaterOrEqual(t, score, 0, msgAndArgs...)
	return assert.LessOrEqual(t, score, 100, msgAndArgs...) && ok
}

// AssertValidCoordinate checks a latitude/longitude pair is within range
func AssertValidCoordinate(t *testing.T, lat, lon float64, msgAndArgs ...interface{}) bool {
	ok := assert.GreaterOrEqual(t, lat, -90.0, msgAndArgs...)
	ok = assert.LessOrEqual(t, lat, 90.0, msgAndArgs...) && ok
	ok = assert.GreaterOrEqual(t, lon, -180.0, msgAndArgs...) && ok
	return assert.LessOrEqual(t, lon, 180.0, msgAndArgs...) && ok
}

// AssertConfidenceInRange checks a detector confidence is within [0, 1]
func AssertConfidenceInRange(t *testing.T, confidence float64, msgAndArgs ...interface{}) bool {
	ok := assert.GreaterOrEqual(t, confidence, 0.0, msgAndArgs...)
	return assert.LessOrEqual(t, confidence, 1.0, msgAndArgs...) && ok
}
