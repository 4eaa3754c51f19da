// Package fusion implements the Fusion Scorer: a pure function that
// combines the Geo-fence Classifier, Point-Anomaly Detector and
// Sequence-Anomaly Detector outputs, plus an optional side channel, into
// a bounded score, severity band, recommendation set and the alerts the
// Assessment Engine should raise.
package fusion

import (
	"fmt"
	"math"

	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

// GeofenceInput is the Geo-fence Classifier's contribution.
type GeofenceInput struct {
	InRestricted bool
	InSafe       bool
	ZoneName     string
	DangerLevel  int
	SafetyRating int
}

// PointAnomalyInput is the Point-Anomaly Detector's contribution.
// Confidence 0 means "detector unavailable"; its penalty is skipped.
type PointAnomalyInput struct {
	AnomalyScore float64
	IsAnomaly    bool
	Confidence   float64
}

// SequenceAnomalyInput is the Sequence-Anomaly Detector's contribution.
type SequenceAnomalyInput struct {
	RiskScore        float64
	PatternDeviation float64
	Confidence       float64
}

// SideChannel carries out-of-band signals that bypass the additive
// scoring path entirely (SOS) or nudge it (safe duration, speed).
type SideChannel struct {
	SOS               bool
	ManualRiskLevel   int // carried but not scored
	SafeDurationHours float64
	Speed             float64
}

// AlertToRaise is one alert the Assessment Engine should create.
type AlertToRaise struct {
	Kind     models.AlertKind
	Severity models.AlertSeverity
}

// Result is the Fusion Scorer's output.
type Result struct {
	Score           int
	Severity        models.Severity
	Confidence      float64
	Recommendations []string
	AlertsToRaise   []AlertToRaise
}

// severityBonusBase is the safety-rating value that earns neither bonus
// nor penalty in a safe zone.
const severityBonusBase = 3

// Score composes the three detector outputs and side channel into a
// Result. The order of penalty application below is fixed by the
// specification; because every operation is additive and clamping only
// happens at the end (besides the SOS short-circuit), the result does
// not depend on evaluation order in practice — only on that final clamp.
func Score(geofence GeofenceInput, point PointAnomalyInput, seq SequenceAnomalyInput, side SideChannel) Result {
	if side.SOS {
		return Result{
			Score:           0,
			Severity:        models.SeverityCritical,
			Confidence:      1.0,
			Recommendations: []string{"Emergency SOS active: dispatch immediate assistance"},
			AlertsToRaise:   []AlertToRaise{{Kind: models.AlertKindSOS, Severity: models.AlertSeverityCritical}},
		}
	}

	score := 100.0
	var recommendations []string
	var alerts []AlertToRaise

	if geofence.InRestricted {
		score -= float64(geofence.DangerLevel) * 15
		alerts = append(alerts, AlertToRaise{Kind: models.AlertKindGeofence, Severity: models.AlertSeverityHigh})
		recommendations = append(recommendations, fmt.Sprintf("Leave restricted zone %q immediately", geofence.ZoneName))
	} else if geofence.InSafe {
		score += float64(geofence.SafetyRating-severityBonusBase) * 5
	}

	if point.Confidence > 0 {
		score -= math.Floor(point.AnomalyScore * 25)
		if point.IsAnomaly {
			alerts = append(alerts, AlertToRaise{Kind: models.AlertKindAnomaly, Severity: models.AlertSeverityMedium})
			recommendations = append(recommendations, "Unusual movement pattern detected; verify tourist status")
		}
	}

	if seq.Confidence > 0 {
		score -= math.Floor(seq.RiskScore * 20)
		if seq.PatternDeviation > 0.7 {
			alerts = append(alerts, AlertToRaise{Kind: models.AlertKindTemporal, Severity: models.AlertSeverityMedium})
			recommendations = append(recommendations, "Temporal pattern deviates sharply from baseline")
		}
	}

	switch {
	case side.Speed > 80:
		score -= 40
	case side.Speed > 60:
		score -= 25
	case side.Speed > 40:
		score -= 15
	}

	bonus := math.Min(20, side.SafeDurationHours*10)
	score += bonus

	score = clamp(score, 0, 100)
	severity := severityFor(int(score))

	confidence := meanConfidence(1.0, point.Confidence, seq.Confidence)

	if len(recommendations) == 0 {
		recommendations = []string{"No action required"}
	}

	return Result{
		Score:           int(score),
		Severity:        severity,
		Confidence:      confidence,
		Recommendations: recommendations,
		AlertsToRaise:   alerts,
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func severityFor(score int) models.Severity {
	switch {
	case score >= 80:
		return models.SeveritySafe
	case score >= 50:
		return models.SeverityWarning
	default:
		return models.SeverityCritical
	}
}

func meanConfidence(values ...float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
