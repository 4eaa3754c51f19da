// Package assessment implements the Assessment Engine: the per-location
// orchestrator that walks RECEIVED → FETCHED_CONTEXT → FEATURES → SCORED
// → PERSISTED → NOTIFIED, calling the Feature Extractor, the three
// detectors, and the Fusion Scorer, then persisting the outcome and
// raising any alerts it calls for. The request-handling shape (fetch
// context, compute, persist, side-effect) is generalized from a single
// completion write into this multi-stage pipeline.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/raahat-suraksha/safety-backend/internal/alert"
	"github.com/raahat-suraksha/safety-backend/internal/common/logging"
	"github.com/raahat-suraksha/safety-backend/internal/common/repository"
	"github.com/raahat-suraksha/safety-backend/internal/detectors/pointanomaly"
	"github.com/raahat-suraksha/safety-backend/internal/detectors/sequence"
	"github.com/raahat-suraksha/safety-backend/internal/features"
	"github.com/raahat-suraksha/safety-backend/internal/fusion"
	"github.com/raahat-suraksha/safety-backend/internal/geo"
	"github.com/raahat-suraksha/safety-backend/internal/training"
	"github.com/raahat-suraksha/safety-backend/internal/zoneindex"
	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

// errImpossibleLocation marks a Location the Feature Extractor refuses to
// score: exact (0,0) or within a degree of a pole, per geo.IsImpossibleLocation.
var errImpossibleLocation = errors.New("impossible location: refusing to score")

// Config bounds a single assessment's detector invocations.
type Config struct {
	DetectorSoftDeadline time.Duration
}

// Broadcaster publishes a completed Assessment to the live feed.
// Satisfied by *internal/live.Hub; kept as an interface here so this
// package doesn't import the transport-level live package.
type Broadcaster interface {
	Broadcast(ctx context.Context, assessment *models.Assessment) error
}

// Engine is the Assessment Engine. One instance serves every tourist.
type Engine struct {
	db          *gorm.DB
	tourists    repository.TouristRepository
	locations   repository.LocationRepository
	assessments repository.AssessmentRepository
	zones       *zoneindex.Index
	registry    *training.Registry
	dispatcher  *alert.Dispatcher
	broadcaster Broadcaster
	audit       *logging.AuditLogger
	logger      *logging.Logger
	cfg         Config
	extractor   *features.Extractor
}

// New builds an Engine. db is used for the assessment-insert /
// safety-score-update transaction, which the degraded path shares;
// tourists and locations are used for the reads.
// broadcaster and audit may both be nil, in which case the live feed
// and the durable audit trail are simply never written to.
func New(
	db *gorm.DB,
	tourists repository.TouristRepository,
	locations repository.LocationRepository,
	assessments repository.AssessmentRepository,
	zones *zoneindex.Index,
	registry *training.Registry,
	dispatcher *alert.Dispatcher,
	broadcaster Broadcaster,
	audit *logging.AuditLogger,
	logger *logging.Logger,
	cfg Config,
) *Engine {
	if cfg.DetectorSoftDeadline <= 0 {
		cfg.DetectorSoftDeadline = 100 * time.Millisecond
	}
	return &Engine{
		db:          db,
		tourists:    tourists,
		locations:   locations,
		assessments: assessments,
		zones:       zones,
		registry:    registry,
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
		audit:       audit,
		logger:      logger,
		cfg:         cfg,
		extractor:   features.New(),
	}
}

// degradedStage names the stage at which processing fell back, recorded
// on the Assessment row for downstream triage.
const (
	stageFetchedContext = "fetched_context"
	stageFeatures       = "features"
	stageScored         = "scored"
	stagePersisted      = "persisted"
)

// Assess runs the full pipeline for one already-persisted Location and
// returns the Assessment it produced. It never returns an error for a
// pipeline-internal failure: those become a degraded Assessment instead,
// since the engine never throws past its caller. A non-nil error here
// means the degraded fallback itself could not be written.
func (e *Engine) Assess(ctx context.Context, loc *models.Location, side fusion.SideChannel) (*models.Assessment, error) {
	start := time.Now()

	tourist, err := e.tourists.GetByID(ctx, loc.TouristID)
	if err != nil {
		return e.degraded(ctx, loc, stageFetchedContext, 100, err, start)
	}

	if geo.IsImpossibleLocation(loc.Latitude, loc.Longitude) {
		return e.degraded(ctx, loc, stageFetchedContext, tourist.SafetyScore, errImpossibleLocation, start)
	}

	pointHistory, err := e.locations.GetSince(ctx, loc.TouristID, time.Now().Add(-features.PointLookback))
	if err != nil {
		return e.degraded(ctx, loc, stageFetchedContext, tourist.SafetyScore, err, start)
	}
	seqHistory, err := e.locations.GetSince(ctx, loc.TouristID, time.Now().Add(-features.TemporalLookback))
	if err != nil {
		return e.degraded(ctx, loc, stageFetchedContext, tourist.SafetyScore, err, start)
	}

	snapshot := e.zones.Current()

	pointFeature := e.extractor.Point(loc, excludingCurrent(pointHistory, loc.ID), nil)
	seqWindow := append(excludingCurrent(seqHistory, loc.ID), *loc)

	geofenceResult := zoneindex.Classify(snapshot, loc.Latitude, loc.Longitude)
	pointResult := e.runPointDetector(pointFeature.Vector())
	seqResult := e.runSequenceDetector(seqWindow)

	fusionResult := fusion.Score(
		fusion.GeofenceInput{
			InRestricted: geofenceResult.InRestricted,
			InSafe:       geofenceResult.InSafe,
			ZoneName:     geofenceResult.ZoneName,
			DangerLevel:  geofenceResult.DangerLevel,
			SafetyRating: geofenceResult.SafetyRating,
		},
		fusion.PointAnomalyInput{
			AnomalyScore: pointResult.AnomalyScore,
			IsAnomaly:    pointResult.IsAnomaly,
			Confidence:   pointResult.Confidence,
		},
		fusion.SequenceAnomalyInput{
			RiskScore:        seqResult.RiskScore,
			PatternDeviation: seqResult.PatternDeviation,
			Confidence:       seqResult.Confidence,
		},
		side,
	)

	assessment := &models.Assessment{
		TouristID:            loc.TouristID,
		LocationID:           loc.ID,
		SafetyScore:          fusionResult.Score,
		Severity:             fusionResult.Severity,
		InRestrictedZone:     geofenceResult.InRestricted,
		InSafeZone:           geofenceResult.InSafe,
		ZoneName:             geofenceResult.ZoneName,
		AnomalyScore:         pointResult.AnomalyScore,
		IsAnomaly:            pointResult.IsAnomaly,
		TemporalRisk:         seqResult.RiskScore,
		PatternDeviation:     seqResult.PatternDeviation,
		Confidence:           fusionResult.Confidence,
		Recommendations:      joinRecommendations(fusionResult.Recommendations),
		PointModelVersion:    e.registry.PointVersion(),
		SequenceModelVersion: e.registry.SequenceVersion(),
		CreatedAt:            time.Now(),
	}

	if err := e.persist(ctx, assessment, loc.TouristID); err != nil {
		return e.degraded(ctx, loc, stagePersisted, tourist.SafetyScore, err, start)
	}

	e.notify(ctx, loc, fusionResult)

	if e.broadcaster != nil {
		if err := e.broadcaster.Broadcast(ctx, assessment); err != nil && e.logger != nil {
			e.logger.LogError(err, "failed to broadcast live assessment", map[string]interface{}{"tourist_id": loc.TouristID})
		}
	}

	if e.logger != nil {
		e.logger.LogAssessment(loc.TouristID, "completed", string(assessment.Severity), assessment.SafetyScore, false, time.Since(start))
	}
	if e.audit != nil {
		e.audit.LogAssessment(ctx, loc.TouristID, assessment.ID, string(assessment.Severity), assessment.SafetyScore, false)
	}

	return assessment, nil
}

// persist writes the Assessment and updates the Tourist's mirrored
// safety score in the same logical transaction. The Store here always
// supports gorm's Transaction, so no weaker "eventually equals"
// fallback is needed.
func (e *Engine) persist(ctx context.Context, assessment *models.Assessment, touristID uint) error {
	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assessmentRepo := repository.NewAssessmentRepository(tx)
		if err := assessmentRepo.Create(ctx, assessment); err != nil {
			return err
		}
		touristRepo := repository.NewTouristRepository(tx)
		return touristRepo.UpdateSafetyScore(ctx, touristID, assessment.SafetyScore, assessment.Severity)
	})
}

// degraded writes the fallback Assessment required on any stage
// failure: severity WARNING, confidence 0, a "degraded: <stage>"
// recommendation, and the tourist's prior score carried forward rather
// than invented.
func (e *Engine) degraded(ctx context.Context, loc *models.Location, stage string, carryForwardScore int, cause error, start time.Time) (*models.Assessment, error) {
	assessment := &models.Assessment{
		TouristID:       loc.TouristID,
		LocationID:      loc.ID,
		SafetyScore:     carryForwardScore,
		Severity:        models.SeverityWarning,
		Confidence:      0,
		Recommendations: fmt.Sprintf("degraded: %s", stage),
		Degraded:        true,
		DegradedStage:   stage,
		CreatedAt:       time.Now(),
	}

	if err := e.persist(ctx, assessment, loc.TouristID); err != nil {
		return nil, fmt.Errorf("failed to persist degraded assessment: %w", err)
	}

	if e.logger != nil {
		e.logger.LogError(cause, "assessment degraded", map[string]interface{}{"tourist_id": loc.TouristID, "stage": stage})
		e.logger.LogAssessment(loc.TouristID, stage, string(assessment.Severity), assessment.SafetyScore, true, time.Since(start))
	}
	if e.audit != nil {
		e.audit.LogAssessment(ctx, loc.TouristID, assessment.ID, string(assessment.Severity), assessment.SafetyScore, true)
	}

	return assessment, nil
}

// notify raises the alerts the Fusion Scorer called for, plus a
// LOW_SCORE alert when severity left SAFE without any detector-specific
// alert firing — the overview's "if severity ≠ SAFE or a geofence alert
// fired, creates an alert" rule folded into the per-alert-kind list the
// component design section enumerates. Dispatch failures are logged,
// never surfaced to the caller: the assessment itself already
// succeeded.
func (e *Engine) notify(ctx context.Context, loc *models.Location, result fusion.Result) {
	toRaise := result.AlertsToRaise
	if result.Severity != models.SeveritySafe && len(toRaise) == 0 {
		severity := models.AlertSeverityMedium
		if result.Severity == models.SeverityCritical {
			severity = models.AlertSeverityHigh
		}
		toRaise = append(toRaise, fusion.AlertToRaise{Kind: models.AlertKindLowScore, Severity: severity})
	}

	for _, a := range toRaise {
		message := "Safety assessment alert"
		if len(result.Recommendations) > 0 {
			message = result.Recommendations[0]
		}
		raised := &models.Alert{
			TouristID:     loc.TouristID,
			Kind:          a.Kind,
			Severity:      a.Severity,
			Message:       message,
			Latitude:      &loc.Latitude,
			Longitude:     &loc.Longitude,
			Status:        models.AlertStatusActive,
			AutoGenerated: true,
			OccurredAt:    loc.RecordedAt,
		}
		if _, err := e.dispatcher.Raise(ctx, raised); err != nil && e.logger != nil {
			e.logger.LogError(err, "failed to raise assessment alert", map[string]interface{}{"tourist_id": loc.TouristID, "kind": string(a.Kind)})
		}
	}
}

func (e *Engine) runPointDetector(vector [pointanomaly.FeatureCount]float64) pointanomaly.Result {
	params := e.registry.PointAnomaly()
	if params == nil {
		return pointanomaly.Result{}
	}

	resultCh := make(chan pointanomaly.Result, 1)
	go func() {
		defer func() {
			if recover() != nil {
				resultCh <- pointanomaly.Result{}
			}
		}()
		resultCh <- pointanomaly.Score(params, vector)
	}()

	select {
	case res := <-resultCh:
		return res
	case <-time.After(e.cfg.DetectorSoftDeadline):
		return pointanomaly.Result{}
	}
}

func (e *Engine) runSequenceDetector(window []models.Location) sequence.Result {
	params := e.registry.Sequence()
	if params == nil {
		return sequence.Result{}
	}

	resultCh := make(chan sequence.Result, 1)
	go func() {
		defer func() {
			if recover() != nil {
				resultCh <- sequence.Result{}
			}
		}()
		resultCh <- sequence.Score(params, window)
	}()

	select {
	case res := <-resultCh:
		return res
	case <-time.After(e.cfg.DetectorSoftDeadline):
		return sequence.Result{}
	}
}

func excludingCurrent(locs []*models.Location, currentID uint) []models.Location {
	out := make([]models.Location, 0, len(locs))
	for _, l := range locs {
		if l.ID == currentID {
			continue
		}
		out = append(out, *l)
	}
	return out
}

func joinRecommendations(recs []string) string {
	out := ""
	for i, r := range recs {
		if i > 0 {
			out += "; "
		}
		out += r
	}
	return out
}
