package alert

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raahat-suraksha/safety-backend/internal/common/repository"
	"github.com/raahat-suraksha/safety-backend/internal/common/testutil"
	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

func newTestAlertRepo(t *testing.T) repository.AlertRepository {
	t.Helper()
	db, cleanup := testutil.SetupTestDB(t)
	t.Cleanup(cleanup)
	return repository.NewAlertRepository(db)
}

func TestDispatcher_Raise_PersistsNonEmergencyAlertWithoutWebhook(t *testing.T) {
	repo := newTestAlertRepo(t)
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := New(repo, Config{WebhookURL: server.URL}, nil, nil)
	a := testutil.NewTestAlert(1, models.AlertKindGeofence)

	raised, err := d.Raise(context.Background(), a)
	require.NoError(t, err)
	require.NotNil(t, raised)
	assert.NotZero(t, raised.ID)
	assert.False(t, called, "non-emergency alert kinds must not fire the webhook")
}

func TestDispatcher_Raise_EmergencyAlertFiresWebhook(t *testing.T) {
	repo := newTestAlertRepo(t)
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := New(repo, Config{WebhookURL: server.URL, Timeout: time.Second}, nil, nil)
	a := testutil.NewTestAlert(1, models.AlertKindSOS)

	raised, err := d.Raise(context.Background(), a)
	require.NoError(t, err)
	require.NotNil(t, raised)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestDispatcher_Raise_DuplicateWithinSameSecondIsDroppedSilently(t *testing.T) {
	repo := newTestAlertRepo(t)
	d := New(repo, Config{}, nil, nil)

	now := time.Now().Truncate(time.Second)
	first := testutil.NewTestAlert(1, models.AlertKindPanic)
	first.OccurredAt = now

	raised, err := d.Raise(context.Background(), first)
	require.NoError(t, err)
	require.NotNil(t, raised)

	dup := testutil.NewTestAlert(1, models.AlertKindPanic)
	dup.OccurredAt = now.Add(200 * time.Millisecond)

	result, err := d.Raise(context.Background(), dup)
	require.NoError(t, err)
	assert.Nil(t, result, "a near-identical alert within the same second bucket must be dropped")

	all, err := repo.GetByTourist(context.Background(), 1, repository.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDispatcher_Raise_WebhookFailureIsLoggedNotRetried(t *testing.T) {
	repo := newTestAlertRepo(t)
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	d := New(repo, Config{WebhookURL: server.URL, Timeout: time.Second}, nil, nil)
	a := testutil.NewTestAlert(1, models.AlertKindSOS)

	raised, err := d.Raise(context.Background(), a)
	require.NoError(t, err, "a webhook failure must not surface as a Raise error")
	require.NotNil(t, raised)
	assert.NotZero(t, raised.ID, "the alert stays persisted despite the failed dispatch")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "no retry on failure")
}
