package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

func TestScore_SOSShortCircuits(t *testing.T) {
	result := Score(
		GeofenceInput{InRestricted: true, DangerLevel: 5},
		PointAnomalyInput{AnomalyScore: 1, IsAnomaly: true, Confidence: 1},
		SequenceAnomalyInput{RiskScore: 1, PatternDeviation: 1, Confidence: 1},
		SideChannel{SOS: true},
	)

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, models.SeverityCritical, result.Severity)
	assert.Equal(t, 1.0, result.Confidence)
	require := assert.New(t)
	require.Len(result.AlertsToRaise, 1)
	require.Equal(models.AlertKindSOS, result.AlertsToRaise[0].Kind)
}

func TestScore_CleanBaselineIsSafe(t *testing.T) {
	result := Score(GeofenceInput{}, PointAnomalyInput{}, SequenceAnomalyInput{}, SideChannel{})

	assert.Equal(t, 100, result.Score)
	assert.Equal(t, models.SeveritySafe, result.Severity)
	assert.Equal(t, []string{"No action required"}, result.Recommendations)
}

func TestScore_RestrictedZonePenaltyAndAlert(t *testing.T) {
	result := Score(
		GeofenceInput{InRestricted: true, DangerLevel: 3, ZoneName: "Core Tiger Reserve"},
		PointAnomalyInput{},
		SequenceAnomalyInput{},
		SideChannel{},
	)

	assert.Equal(t, 55, result.Score) // 100 - 3*15
	assert.Equal(t, models.SeverityWarning, result.Severity)
	assert.Contains(t, result.AlertsToRaise, AlertToRaise{Kind: models.AlertKindGeofence, Severity: models.AlertSeverityHigh})
}

func TestScore_SafeZoneBonus(t *testing.T) {
	result := Score(
		GeofenceInput{InSafe: true, SafetyRating: 5},
		PointAnomalyInput{},
		SequenceAnomalyInput{},
		SideChannel{},
	)

	assert.Equal(t, 100, result.Score) // clamped: 100 + (5-3)*5 = 110 -> 100
}

func TestScore_SafeZonePenaltyForLowRating(t *testing.T) {
	result := Score(
		GeofenceInput{InSafe: true, SafetyRating: 1},
		PointAnomalyInput{},
		SequenceAnomalyInput{},
		SideChannel{},
	)

	assert.Equal(t, 90, result.Score) // 100 + (1-3)*5 = 90
}

func TestScore_PointAnomalyIgnoredWhenUnavailable(t *testing.T) {
	result := Score(
		GeofenceInput{},
		PointAnomalyInput{AnomalyScore: 0.9, IsAnomaly: true, Confidence: 0},
		SequenceAnomalyInput{},
		SideChannel{},
	)

	assert.Equal(t, 100, result.Score)
	assert.Empty(t, result.AlertsToRaise)
}

func TestScore_PointAnomalyPenaltyAndAlert(t *testing.T) {
	result := Score(
		GeofenceInput{},
		PointAnomalyInput{AnomalyScore: 0.8, IsAnomaly: true, Confidence: 1},
		SequenceAnomalyInput{},
		SideChannel{},
	)

	assert.Equal(t, 80, result.Score) // 100 - floor(0.8*25)=100-20
	assert.Contains(t, result.AlertsToRaise, AlertToRaise{Kind: models.AlertKindAnomaly, Severity: models.AlertSeverityMedium})
}

func TestScore_SequenceAnomalyPenaltyAndTemporalAlert(t *testing.T) {
	result := Score(
		GeofenceInput{},
		PointAnomalyInput{},
		SequenceAnomalyInput{RiskScore: 0.5, PatternDeviation: 0.75, Confidence: 1},
		SideChannel{},
	)

	assert.Equal(t, 90, result.Score) // 100 - floor(0.5*20)=90
	assert.Contains(t, result.AlertsToRaise, AlertToRaise{Kind: models.AlertKindTemporal, Severity: models.AlertSeverityMedium})
}

func TestScore_SpeedPenaltyUsesLargestBracketOnly(t *testing.T) {
	result := Score(GeofenceInput{}, PointAnomalyInput{}, SequenceAnomalyInput{}, SideChannel{Speed: 90})
	assert.Equal(t, 60, result.Score) // 100 - 40

	result = Score(GeofenceInput{}, PointAnomalyInput{}, SequenceAnomalyInput{}, SideChannel{Speed: 65})
	assert.Equal(t, 75, result.Score) // 100 - 25

	result = Score(GeofenceInput{}, PointAnomalyInput{}, SequenceAnomalyInput{}, SideChannel{Speed: 45})
	assert.Equal(t, 85, result.Score) // 100 - 15
}

func TestScore_SafeDurationBonusCapped(t *testing.T) {
	result := Score(
		GeofenceInput{InRestricted: true, DangerLevel: 4},
		PointAnomalyInput{},
		SequenceAnomalyInput{},
		SideChannel{SafeDurationHours: 10},
	)

	// 100 - 60 = 40, + min(20, 100) = 60
	assert.Equal(t, 60, result.Score)
}

func TestScore_ClampsToZero(t *testing.T) {
	result := Score(
		GeofenceInput{InRestricted: true, DangerLevel: 10},
		PointAnomalyInput{AnomalyScore: 1, IsAnomaly: true, Confidence: 1},
		SequenceAnomalyInput{RiskScore: 1, PatternDeviation: 1, Confidence: 1},
		SideChannel{Speed: 90},
	)

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, models.SeverityCritical, result.Severity)
}

func TestScore_ConfidenceIsMeanOfThree(t *testing.T) {
	result := Score(
		GeofenceInput{},
		PointAnomalyInput{Confidence: 0.5},
		SequenceAnomalyInput{Confidence: 0},
		SideChannel{},
	)

	assert.InDelta(t, (1.0+0.5+0.0)/3.0, result.Confidence, 1e-9)
}

func TestSeverityBands(t *testing.T) {
	assert.Equal(t, models.SeveritySafe, severityFor(80))
	assert.Equal(t, models.SeverityWarning, severityFor(79))
	assert.Equal(t, models.SeverityWarning, severityFor(50))
	assert.Equal(t, models.SeverityCritical, severityFor(49))
}
