package sequence

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

func regularWindow(base time.Time, points int) []models.Location {
	window := make([]models.Location, 0, points)
	for i := 0; i < points; i++ {
		window = append(window, models.Location{
			Latitude:   27.1751 + float64(i)*0.001,
			Longitude:  78.0421 + float64(i)*0.001,
			RecordedAt: base.Add(time.Duration(i) * 10 * time.Minute),
		})
	}
	return window
}

func trainingWindows(n int) [][]models.Location {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	windows := make([][]models.Location, 0, n)
	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < n; i++ {
		w := regularWindow(base.Add(time.Duration(i)*time.Hour), 8)
		for j := range w {
			w[j].RecordedAt = w[j].RecordedAt.Add(time.Duration(rnd.Intn(3)) * time.Minute)
		}
		windows = append(windows, w)
	}
	return windows
}

func TestFit_InsufficientData(t *testing.T) {
	_, err := Fit(trainingWindows(3))
	require.Error(t, err)
}

func TestScore_TooFewPointsReturnsDefault(t *testing.T) {
	params, err := Fit(trainingWindows(20))
	require.NoError(t, err)

	result := Score(params, regularWindow(time.Now(), 3))
	assert.Equal(t, Result{}, result)
}

func TestScore_UntrainedReturnsDefault(t *testing.T) {
	result := Score(nil, regularWindow(time.Now(), 10))
	assert.Equal(t, Result{}, result)
}

func TestScore_InactivityGapRaisesRisk(t *testing.T) {
	params, err := Fit(trainingWindows(20))
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	window := regularWindow(base, 5)
	// Introduce a 3-hour gap before the last point.
	window[4].RecordedAt = window[3].RecordedAt.Add(3 * time.Hour)

	result := Score(params, window)
	assert.GreaterOrEqual(t, result.RiskScore, 0.2)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestScore_BoundedToOne(t *testing.T) {
	params, err := Fit(trainingWindows(20))
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)
	window := make([]models.Location, 0, 6)
	for i := 0; i < 6; i++ {
		window = append(window, models.Location{
			Latitude:   27.0 + float64(i)*0.5,
			Longitude:  78.0 + float64(i)*0.5,
			RecordedAt: base.Add(time.Duration(i*180) * time.Minute),
		})
	}

	result := Score(params, window)
	assert.LessOrEqual(t, result.RiskScore, 1.0)
	assert.LessOrEqual(t, result.PatternDeviation, 1.0)
}
