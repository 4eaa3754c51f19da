package zoneindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raahat-suraksha/safety-backend/internal/common/testutil"
	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

func TestIndex_RefreshAndContains(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	restricted := testutil.NewTestRestrictedZone()
	require.NoError(t, db.Create(restricted).Error)

	safe := testutil.NewTestSafeZone()
	require.NoError(t, db.Create(safe).Error)

	idx := New(db, nil)
	require.NoError(t, idx.Refresh(context.Background()))

	snap := idx.Current()
	require.Len(t, snap.Restricted, 1)
	require.Len(t, snap.Safe, 1)

	verdict := snap.Contains(29.55, 78.05)
	assert.True(t, verdict.InRestricted)
	assert.Equal(t, restricted.Name, verdict.ZoneName)
	assert.Equal(t, restricted.DangerLevel, verdict.DangerLevel)

	verdict = snap.Contains(27.175, 78.045)
	assert.True(t, verdict.InSafe)
	assert.Equal(t, safe.Name, verdict.ZoneName)

	verdict = snap.Contains(0, 0)
	assert.False(t, verdict.InRestricted)
	assert.False(t, verdict.InSafe)
}

func TestIndex_RestrictedWinsOverSafe(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	overlapRestricted := &models.RestrictedZone{
		Name: "Overlap Restricted",
		Polygon: models.ZoneRing{
			{Lon: 78.00, Lat: 27.00},
			{Lon: 78.20, Lat: 27.00},
			{Lon: 78.20, Lat: 27.20},
			{Lon: 78.00, Lat: 27.20},
		},
		DangerLevel: 2,
		IsActive:    true,
	}
	require.NoError(t, db.Create(overlapRestricted).Error)

	overlapSafe := &models.SafeZone{
		Name: "Overlap Safe",
		Polygon: models.ZoneRing{
			{Lon: 78.05, Lat: 27.05},
			{Lon: 78.15, Lat: 27.05},
			{Lon: 78.15, Lat: 27.15},
			{Lon: 78.05, Lat: 27.15},
		},
		SafetyRating: 5,
		IsActive:     true,
	}
	require.NoError(t, db.Create(overlapSafe).Error)

	idx := New(db, nil)
	require.NoError(t, idx.Refresh(context.Background()))

	verdict := idx.Current().Contains(27.10, 78.10)
	assert.True(t, verdict.InRestricted)
	assert.False(t, verdict.InSafe)
}

func TestIndex_InactiveZonesExcluded(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	inactive := testutil.NewTestRestrictedZone()
	inactive.IsActive = false
	require.NoError(t, db.Create(inactive).Error)

	idx := New(db, nil)
	require.NoError(t, idx.Refresh(context.Background()))

	assert.Empty(t, idx.Current().Restricted)
}
