package features

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

func loc(lat, lon float64, t time.Time) models.Location {
	return models.Location{Latitude: lat, Longitude: lon, RecordedAt: t}
}

func TestExtractor_Point_NoHistory(t *testing.T) {
	e := New()
	now := time.Date(2026, 1, 1, 14, 0, 0, 0, time.UTC)
	current := loc(27.1751, 78.0421, now)

	p := e.Point(&current, nil, nil)

	assert.Equal(t, 0.0, p.DistancePerMinute)
	assert.Equal(t, 0.0, p.InactivityDuration)
	assert.InDelta(t, 14.0/24.0, p.TimeOfDayRisk, 1e-9)
	assert.Equal(t, 1.0, p.MovementConsistency)
}

func TestExtractor_Point_InactivitySuffix(t *testing.T) {
	e := New()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	history := []models.Location{
		loc(27.1751, 78.0421, base),
		loc(27.1751, 78.0421, base.Add(10*time.Minute)),
		loc(27.1751, 78.0421, base.Add(20*time.Minute)),
	}
	current := loc(27.1751, 78.0421, base.Add(30*time.Minute))

	p := e.Point(&current, history, nil)

	assert.InDelta(t, 30.0, p.InactivityDuration, 1e-6)
	assert.Equal(t, 0.0, p.DistancePerMinute)
}

func TestExtractor_Point_MovingBreaksInactivity(t *testing.T) {
	e := New()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	history := []models.Location{
		loc(27.1751, 78.0421, base),
		loc(27.2000, 78.1000, base.Add(10*time.Minute)), // far away, breaks the suffix
		loc(27.2000, 78.1000, base.Add(20*time.Minute)),
	}
	current := loc(27.2000, 78.1000, base.Add(30*time.Minute))

	p := e.Point(&current, history, nil)

	assert.InDelta(t, 20.0, p.InactivityDuration, 1e-6)
}

func TestExtractor_Point_DeviationFromRoute(t *testing.T) {
	e := New()
	now := time.Now()
	current := loc(27.1751, 78.0421, now)

	route := []RoutePoint{{Lat: 27.1751, Lon: 78.0421}, {Lat: 28.0, Lon: 79.0}}
	p := e.Point(&current, nil, route)

	assert.InDelta(t, 0, p.DeviationFromRoute, 1.0)
}

func TestExtractor_Sequence_LeftPadsShortHistory(t *testing.T) {
	e := New()
	points := []Point{{Speed: 10}, {Speed: 20}, {Speed: 30}}

	seq := e.Sequence(points)

	require.Len(t, seq, SequenceLength)
	for i := 0; i < SequenceLength-3; i++ {
		assert.Equal(t, [PointFeatureCount]float64{}, seq[i])
	}
	assert.Equal(t, 10.0, seq[SequenceLength-3][2])
	assert.Equal(t, 20.0, seq[SequenceLength-2][2])
	assert.Equal(t, 30.0, seq[SequenceLength-1][2])
}

func TestExtractor_Sequence_TruncatesLongHistory(t *testing.T) {
	e := New()
	points := make([]Point, SequenceLength+5)
	for i := range points {
		points[i] = Point{Speed: float64(i)}
	}

	seq := e.Sequence(points)

	require.Len(t, seq, SequenceLength)
	assert.Equal(t, float64(5), seq[0][2])
	assert.Equal(t, float64(SequenceLength+4), seq[SequenceLength-1][2])
}

func TestClampFinite(t *testing.T) {
	assert.Equal(t, 0.0, clampFinite(math.NaN()))
	assert.Equal(t, 0.0, clampFinite(math.Inf(1)))
}
