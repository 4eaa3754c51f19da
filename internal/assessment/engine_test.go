package assessment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raahat-suraksha/safety-backend/internal/alert"
	"github.com/raahat-suraksha/safety-backend/internal/common/repository"
	"github.com/raahat-suraksha/safety-backend/internal/common/testutil"
	"github.com/raahat-suraksha/safety-backend/internal/fusion"
	"github.com/raahat-suraksha/safety-backend/internal/training"
	"github.com/raahat-suraksha/safety-backend/internal/zoneindex"
	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

func newTestEngine(t *testing.T) (*Engine, repository.TouristRepository, repository.LocationRepository, repository.AlertRepository) {
	t.Helper()
	db, cleanup := testutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	tourists := repository.NewTouristRepository(db)
	locations := repository.NewLocationRepository(db)
	assessments := repository.NewAssessmentRepository(db)
	alerts := repository.NewAlertRepository(db)

	zones := zoneindex.New(db, nil)
	require.NoError(t, zones.Refresh(context.Background()))

	registry := training.NewRegistry(nil, nil)
	dispatcher := alert.New(alerts, alert.Config{}, nil, nil)

	engine := New(db, tourists, locations, assessments, zones, registry, dispatcher, nil, nil, nil, Config{DetectorSoftDeadline: 50 * time.Millisecond})
	return engine, tourists, locations, alerts
}

func TestEngine_Assess_BaselineNoZonesNoModels(t *testing.T) {
	engine, tourists, locations, _ := newTestEngine(t)
	ctx := context.Background()

	tourist := testutil.NewTestTourist()
	require.NoError(t, tourists.Create(ctx, tourist))

	loc := testutil.NewTestLocation(tourist.ID)
	require.NoError(t, locations.Create(ctx, loc))

	result, err := engine.Assess(ctx, loc, fusion.SideChannel{})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 100, result.SafetyScore)
	assert.Equal(t, models.SeveritySafe, result.Severity)
	assert.False(t, result.Degraded)

	updated, err := tourists.GetByID(ctx, tourist.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, updated.SafetyScore)
}

func TestEngine_Assess_DegradedOnImpossibleLocation(t *testing.T) {
	engine, tourists, locations, _ := newTestEngine(t)
	ctx := context.Background()

	tourist := testutil.NewTestTourist()
	require.NoError(t, tourists.Create(ctx, tourist))

	loc := testutil.NewTestLocation(tourist.ID)
	loc.Latitude, loc.Longitude = 0, 0
	require.NoError(t, locations.Create(ctx, loc))

	result, err := engine.Assess(ctx, loc, fusion.SideChannel{})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Degraded)
	assert.Equal(t, stageFetchedContext, result.DegradedStage)
	assert.Equal(t, tourist.SafetyScore, result.SafetyScore)
}

func TestEngine_Assess_RestrictedZoneLowersScoreAndRaisesAlert(t *testing.T) {
	engine, tourists, locations, alerts := newTestEngine(t)
	ctx := context.Background()

	tourist := testutil.NewTestTourist()
	require.NoError(t, tourists.Create(ctx, tourist))

	zone := testutil.NewTestRestrictedZone()
	require.NoError(t, engine.db.WithContext(ctx).Create(zone).Error)
	require.NoError(t, engine.zones.Refresh(ctx))

	loc := testutil.NewTestLocation(tourist.ID)
	loc.Latitude = 29.55
	loc.Longitude = 78.05
	require.NoError(t, locations.Create(ctx, loc))

	result, err := engine.Assess(ctx, loc, fusion.SideChannel{})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.InRestrictedZone)
	assert.Less(t, result.SafetyScore, 100)

	raised, err := alerts.GetByTourist(ctx, tourist.ID, repository.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, raised, 1)
	assert.Equal(t, models.AlertKindGeofence, raised[0].Kind)
}

func TestEngine_Assess_DegradedWhenTouristMissing(t *testing.T) {
	engine, _, locations, _ := newTestEngine(t)
	ctx := context.Background()

	const missingTouristID = uint(999)
	loc := testutil.NewTestLocation(missingTouristID)
	require.NoError(t, locations.Create(ctx, loc))

	result, err := engine.Assess(ctx, loc, fusion.SideChannel{})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Degraded)
	assert.Equal(t, stageFetchedContext, result.DegradedStage)
	assert.Equal(t, models.SeverityWarning, result.Severity)
	assert.Zero(t, result.Confidence)
}

func TestEngine_Assess_SOSShortCircuitsToCritical(t *testing.T) {
	engine, tourists, locations, alerts := newTestEngine(t)
	ctx := context.Background()

	tourist := testutil.NewTestTourist()
	require.NoError(t, tourists.Create(ctx, tourist))

	loc := testutil.NewTestLocation(tourist.ID)
	require.NoError(t, locations.Create(ctx, loc))

	result, err := engine.Assess(ctx, loc, fusion.SideChannel{SOS: true})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 0, result.SafetyScore)
	assert.Equal(t, models.SeverityCritical, result.Severity)

	raised, err := alerts.GetByTourist(ctx, tourist.ID, repository.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, raised, 1)
	assert.Equal(t, models.AlertKindSOS, raised[0].Kind)
}
