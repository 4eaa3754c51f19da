// Package sequence implements the Sequence-Anomaly Detector: a temporal
// scorer over a per-tourist windowed history of Locations. It fits
// high/low percentile thresholds over pooled training windows (movement
// variance, inter-arrival regularity, speed) and scores a recent window
// by summing bounded risk contributions against those thresholds — a
// lighter-weight alternative to an autoencoder reconstruction-error
// threshold.
package sequence

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/raahat-suraksha/safety-backend/internal/geo"
	apperrors "github.com/raahat-suraksha/safety-backend/pkg/errors"
	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

// MinSeqPoints is the minimum number of recent points required to score
// a window; below this, Score returns zero confidence.
const MinSeqPoints = 5

// MinFitWindows is the minimum number of training windows required to
// fit; mirrors the point-anomaly detector's MIN_FIT_SAMPLES in spirit.
const MinFitWindows = 10

// InactivityThreshold is the gap beyond which a window earns the fixed
// inactivity risk contribution.
const InactivityThreshold = 2 * 60.0 // minutes

// Params is the fitted temporal-statistics model.
type Params struct {
	MovementVarianceHigh float64
	MovementVarianceLow  float64
	TimeGapVarianceHigh  float64
	TimeGapVarianceLow   float64
	SpeedHigh            float64
	SpeedLow             float64
}

// Result is one scoring outcome.
type Result struct {
	RiskScore        float64
	PatternDeviation float64
	Confidence       float64
}

type windowStats struct {
	movementVariance float64
	timeGapVariance  float64
	meanSpeed        float64
	nightFraction    float64
	maxGapMinutes    float64
}

func computeStats(window []models.Location) windowStats {
	speeds := make([]float64, 0, len(window)-1)
	gaps := make([]float64, 0, len(window)-1)

	var maxGap float64
	var nightCount int

	for i, loc := range window {
		hour := loc.RecordedAt.Hour()
		if hour >= 22 || hour < 5 {
			nightCount++
		}
		if i == 0 {
			continue
		}
		prev := window[i-1]
		gapMinutes := loc.RecordedAt.Sub(prev.RecordedAt).Minutes()
		if gapMinutes > maxGap {
			maxGap = gapMinutes
		}
		if gapMinutes > 0 {
			dist := geo.DistanceMeters(prev.Latitude, prev.Longitude, loc.Latitude, loc.Longitude)
			speeds = append(speeds, (dist/1000)/(gapMinutes/60))
			gaps = append(gaps, gapMinutes)
		}
	}

	var movementVariance, timeGapVariance, meanSpeed float64
	if len(speeds) > 0 {
		meanSpeed = stat.Mean(speeds, nil)
	}
	if len(speeds) > 1 {
		movementVariance = stat.Variance(speeds, nil)
	}
	if len(gaps) > 1 {
		timeGapVariance = stat.Variance(gaps, nil)
	}

	return windowStats{
		movementVariance: movementVariance,
		timeGapVariance:  timeGapVariance,
		meanSpeed:        meanSpeed,
		nightFraction:    float64(nightCount) / float64(len(window)),
		maxGapMinutes:    maxGap,
	}
}

func quantile(values []float64, q float64) float64 {
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	return stat.Quantile(q, stat.Empirical, sorted, nil)
}

// Fit pools per-window statistics across the supplied training windows
// (which may come from many tourists) and stores the 90th/10th
// percentile thresholds. Returns InsufficientData if fewer than
// MinFitWindows windows of at least MinSeqPoints Locations each are
// usable.
func Fit(windows [][]models.Location) (*Params, error) {
	usable := make([]windowStats, 0, len(windows))
	for _, w := range windows {
		if len(w) < MinSeqPoints {
			continue
		}
		usable = append(usable, computeStats(w))
	}
	if len(usable) < MinFitWindows {
		return nil, apperrors.NewInsufficientDataError("sequence-anomaly fit requires at least 10 usable windows")
	}

	movementVariances := make([]float64, len(usable))
	timeGapVariances := make([]float64, len(usable))
	speeds := make([]float64, len(usable))
	for i, s := range usable {
		movementVariances[i] = s.movementVariance
		timeGapVariances[i] = s.timeGapVariance
		speeds[i] = s.meanSpeed
	}

	return &Params{
		MovementVarianceHigh: quantile(movementVariances, 0.90),
		MovementVarianceLow:  quantile(movementVariances, 0.10),
		TimeGapVarianceHigh:  quantile(timeGapVariances, 0.90),
		TimeGapVarianceLow:   quantile(timeGapVariances, 0.10),
		SpeedHigh:            quantile(speeds, 0.90),
		SpeedLow:             quantile(speeds, 0.10),
	}, nil
}

// Score evaluates a recent window (oldest-to-newest Locations for one
// tourist) against params. Fewer than MinSeqPoints points, or a nil
// params, yields zero confidence.
func Score(params *Params, window []models.Location) Result {
	if params == nil || len(window) < MinSeqPoints {
		return Result{}
	}

	stats := computeStats(window)

	var risk float64
	var deviationTerms []float64

	if stats.movementVariance > params.MovementVarianceHigh && params.MovementVarianceHigh > 0 {
		contribution := math.Min(1, (stats.movementVariance-params.MovementVarianceHigh)/params.MovementVarianceHigh)
		risk += 0.35 * contribution
		deviationTerms = append(deviationTerms, contribution)
	}

	if stats.timeGapVariance > params.TimeGapVarianceHigh && params.TimeGapVarianceHigh > 0 {
		contribution := math.Min(1, (stats.timeGapVariance-params.TimeGapVarianceHigh)/params.TimeGapVarianceHigh)
		risk += 0.30 * contribution
		deviationTerms = append(deviationTerms, contribution)
	}

	if params.SpeedHigh > 0 && stats.meanSpeed > params.SpeedHigh {
		contribution := math.Min(1, (stats.meanSpeed-params.SpeedHigh)/params.SpeedHigh)
		risk += 0.15 * contribution
		deviationTerms = append(deviationTerms, contribution)
	} else if params.SpeedLow > 0 && stats.meanSpeed < params.SpeedLow {
		contribution := math.Min(1, (params.SpeedLow-stats.meanSpeed)/params.SpeedLow)
		risk += 0.10 * contribution
		deviationTerms = append(deviationTerms, contribution)
	}

	nightContribution := stats.nightFraction
	risk += 0.15 * nightContribution
	if nightContribution > 0 {
		deviationTerms = append(deviationTerms, nightContribution)
	}

	if stats.maxGapMinutes > InactivityThreshold {
		risk += 0.20
		deviationTerms = append(deviationTerms, 1.0)
	}

	risk = math.Min(1.0, risk)

	var patternDeviation float64
	if len(deviationTerms) > 0 {
		patternDeviation = stat.Mean(deviationTerms, nil)
	}

	return Result{
		RiskScore:        risk,
		PatternDeviation: math.Min(1.0, patternDeviation),
		Confidence:       1.0,
	}
}
