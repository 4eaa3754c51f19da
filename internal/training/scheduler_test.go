package training

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raahat-suraksha/safety-backend/internal/common/repository"
	"github.com/raahat-suraksha/safety-backend/internal/common/testutil"
)

func TestScheduler_ForceTickInstallsModelsWithEnoughData(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	for tid := uint(1); tid <= 12; tid++ {
		base := time.Now().Add(-48 * time.Hour)
		for i := 0; i < 15; i++ {
			loc := testutil.NewTestLocation(tid)
			loc.RecordedAt = base.Add(time.Duration(i) * time.Hour)
			loc.Latitude += float64(i) * 0.002
			require.NoError(t, db.Create(loc).Error)
		}
	}

	locRepo := repository.NewLocationRepository(db)
	registry := NewRegistry(nil, nil)
	scheduler := NewScheduler(locRepo, registry, nil, Config{
		Period:      time.Minute,
		FitDeadline: 5 * time.Second,
		Window:      72 * time.Hour,
	})

	scheduler.ForceTick(context.Background())
	// ForceTick is async; wait for both detector goroutines to settle.
	waitFor(t, func() bool {
		return registry.PointAnomaly() != nil && registry.Sequence() != nil
	})

	assert.NotEmpty(t, scheduler.Status().PointVersion)
	assert.NotEmpty(t, scheduler.Status().SeqVersion)
}

func TestScheduler_ForceTickRecordsFailureOnInsufficientData(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	locRepo := repository.NewLocationRepository(db)
	registry := NewRegistry(nil, nil)
	scheduler := NewScheduler(locRepo, registry, nil, Config{
		Period:      time.Minute,
		FitDeadline: 5 * time.Second,
		Window:      72 * time.Hour,
	})

	scheduler.ForceTick(context.Background())
	waitFor(t, func() bool {
		_, _, lastErr, _ := scheduler.pointState.snapshot()
		return lastErr != ""
	})

	status := scheduler.Status()
	assert.Nil(t, status.PointLastFit)
	assert.NotEmpty(t, status.PointLastError)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
