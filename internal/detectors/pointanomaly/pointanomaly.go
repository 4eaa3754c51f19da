// Package pointanomaly implements the Point-Anomaly Detector: an
// isolation-style unsupervised scorer over per-update feature vectors.
// Rather than a tree ensemble, it standardizes each feature with a
// stored per-feature mean/stddev (using gonum.org/v1/gonum/stat for the
// summary statistics) and folds the standardized distance through a
// bounded squashing function: monotone in outlierness, bounded, stable
// under feature scaling, without claiming to be a literal isolation
// forest.
package pointanomaly

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	apperrors "github.com/raahat-suraksha/safety-backend/pkg/errors"
)

// MinFitSamples is the minimum number of feature rows required to fit.
const MinFitSamples = 10

// DefaultContamination is the assumed fraction of outliers in the
// training window, used to pick the is_anomaly threshold.
const DefaultContamination = 0.05

// FeatureCount must match features.PointFeatureCount; duplicated here
// (rather than imported) to keep this package free of a dependency on
// the feature package, since it only ever sees raw vectors.
const FeatureCount = 8

// Params is the fitted, standardizer-based model this detector
// produces. It is what the Training Scheduler stores inside a
// models.ModelHandle and atomically publishes to the Model Registry.
type Params struct {
	Means     [FeatureCount]float64
	StdDevs   [FeatureCount]float64
	Threshold float64
}

// Result is one scoring outcome.
type Result struct {
	AnomalyScore float64
	IsAnomaly    bool
	Confidence   float64
}

// Fit trains a new Params from an N×FeatureCount matrix of point
// features. Returns InsufficientData if fewer than MinFitSamples rows
// are supplied.
func Fit(rows [][FeatureCount]float64, contamination float64) (*Params, error) {
	if len(rows) < MinFitSamples {
		return nil, apperrors.NewInsufficientDataError("point-anomaly fit requires at least 10 samples")
	}
	if contamination <= 0 {
		contamination = DefaultContamination
	}

	var p Params
	column := make([]float64, len(rows))
	for f := 0; f < FeatureCount; f++ {
		for i, row := range rows {
			column[i] = row[f]
		}
		mean, stddev := stat.MeanStdDev(column, nil)
		if stddev == 0 {
			stddev = 1 // avoid dividing by zero for a constant feature
		}
		p.Means[f] = mean
		p.StdDevs[f] = stddev
	}

	scores := make([]float64, len(rows))
	for i, row := range rows {
		scores[i] = rawDistance(&p, row)
	}

	sorted := append([]float64{}, scores...)
	sort.Float64s(sorted)
	quantile := 1 - contamination
	p.Threshold = squash(stat.Quantile(quantile, stat.Empirical, sorted, nil))

	return &p, nil
}

// Score evaluates a single feature vector against params. A nil params
// (no successful fit yet) always yields the untrained default the
// Fusion Scorer recognizes as "absent".
func Score(params *Params, vector [FeatureCount]float64) Result {
	if params == nil {
		return Result{}
	}

	score := squash(rawDistance(params, vector))
	return Result{
		AnomalyScore: score,
		IsAnomaly:    score > params.Threshold,
		Confidence:   1.0,
	}
}

// rawDistance is a per-feature standardized Euclidean distance: the
// square root of the sum of squared z-scores. Larger means more
// outlying, and it is invariant to the scale of any one feature because
// each is divided by its own training stddev first.
func rawDistance(p *Params, vector [FeatureCount]float64) float64 {
	var sumSquares float64
	for f := 0; f < FeatureCount; f++ {
		z := (vector[f] - p.Means[f]) / p.StdDevs[f]
		sumSquares += z * z
	}
	return math.Sqrt(sumSquares)
}

// squash maps a nonnegative distance into [0,1), monotonically
// increasing, bounded by construction.
func squash(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 - math.Exp(-distance/3.0)
}
