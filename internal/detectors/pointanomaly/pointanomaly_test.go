package pointanomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/raahat-suraksha/safety-backend/pkg/errors"
)

func normalRow(v float64) [FeatureCount]float64 {
	var row [FeatureCount]float64
	for i := range row {
		row[i] = v
	}
	return row
}

func TestFit_InsufficientData(t *testing.T) {
	_, err := Fit(make([][FeatureCount]float64, 5), DefaultContamination)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, "INSUFFICIENT_DATA", appErr.Code)
}

func TestScore_UntrainedReturnsDefault(t *testing.T) {
	result := Score(nil, normalRow(1))
	assert.Equal(t, Result{}, result)
}

func TestFitAndScore_OutlierScoresHigherThanInlier(t *testing.T) {
	rows := make([][FeatureCount]float64, 0, 30)
	for i := 0; i < 30; i++ {
		jitter := float64(i%5) * 0.5 // small natural spread around 10
		rows = append(rows, normalRow(10+jitter))
	}
	params, err := Fit(rows, DefaultContamination)
	require.NoError(t, err)

	inlier := Score(params, normalRow(10.1))
	outlier := Score(params, normalRow(500))

	assert.Less(t, inlier.AnomalyScore, outlier.AnomalyScore)
	assert.False(t, inlier.IsAnomaly)
	assert.True(t, outlier.IsAnomaly)
	assert.Equal(t, 1.0, inlier.Confidence)
}

func TestScore_BoundedAndMonotone(t *testing.T) {
	rows := make([][FeatureCount]float64, 0, 20)
	for i := 0; i < 20; i++ {
		rows = append(rows, normalRow(float64(i)))
	}
	params, err := Fit(rows, DefaultContamination)
	require.NoError(t, err)

	// Inputs move steadily away from the training mean (9.5).
	prev := 0.0
	for _, v := range []float64{9.5, 10, 50, 100, 1000} {
		r := Score(params, normalRow(v))
		assert.GreaterOrEqual(t, r.AnomalyScore, 0.0)
		assert.Less(t, r.AnomalyScore, 1.0)
		assert.GreaterOrEqual(t, r.AnomalyScore, prev)
		prev = r.AnomalyScore
	}
}

func TestFit_ConstantFeatureDoesNotDivideByZero(t *testing.T) {
	rows := make([][FeatureCount]float64, 0, 15)
	for i := 0; i < 15; i++ {
		rows = append(rows, [FeatureCount]float64{5, 5, 5, 5, 5, 5, 5, 5})
	}
	params, err := Fit(rows, DefaultContamination)
	require.NoError(t, err)

	result := Score(params, [FeatureCount]float64{5, 5, 5, 5, 5, 5, 5, 5})
	assert.Equal(t, 0.0, result.AnomalyScore)
	assert.False(t, result.IsAnomaly)
}
