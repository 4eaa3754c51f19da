package ingress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raahat-suraksha/safety-backend/internal/alert"
	"github.com/raahat-suraksha/safety-backend/internal/assessment"
	"github.com/raahat-suraksha/safety-backend/internal/common/middleware"
	"github.com/raahat-suraksha/safety-backend/internal/common/repository"
	"github.com/raahat-suraksha/safety-backend/internal/common/testutil"
	"github.com/raahat-suraksha/safety-backend/internal/training"
	"github.com/raahat-suraksha/safety-backend/internal/zoneindex"
)

func newTestRouter(t *testing.T) (*gin.Engine, repository.TouristRepository, repository.AlertRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
	engine := assessment.New(db, tourists, locations, assessments, zones, registry, dispatcher, nil, nil, nil, assessment.Config{})
	scheduler := training.NewScheduler(locations, registry, nil, training.Config{})

	handler := New(tourists, locations, assessments, alerts, engine, dispatcher, scheduler, NewBackpressure(500, 1000, 500), nil)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	RegisterRoutes(r, handler)
	return r, tourists, alerts
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Health(t *testing.T) {
	r, _, _ := newTestRouter(t)
	w := doJSON(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_RegisterTourist(t *testing.T) {
	r, tourists, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/registerTourist", RegisterTouristRequest{
		Name:           "A",
		ContactPhone:   "+91...1",
		EmergencyPhone: "+91...9",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	all, err := tourists.GetActive(context.Background(), repository.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 100, all[0].SafetyScore)
}

func TestHandler_SendLocation_BaselineSafe(t *testing.T) {
	r, tourists, _ := newTestRouter(t)
	tourist := testutil.NewTestTourist()
	require.NoError(t, tourists.Create(context.Background(), tourist))

	w := doJSON(r, http.MethodPost, "/sendLocation", SendLocationRequest{
		TouristID: tourist.ID,
		Latitude:  28.6129,
		Longitude: 77.2295,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestHandler_SendLocation_UnknownTouristIsNotFound(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/sendLocation", SendLocationRequest{
		TouristID: 999,
		Latitude:  28.6129,
		Longitude: 77.2295,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_PressSOS_ZeroesSafetyScore(t *testing.T) {
	r, tourists, alerts := newTestRouter(t)
	tourist := testutil.NewTestTourist()
	require.NoError(t, tourists.Create(context.Background(), tourist))

	w := doJSON(r, http.MethodPost, "/pressSOS", PressSOSRequest{
		TouristID: tourist.ID,
		Latitude:  28.6129,
		Longitude: 77.2295,
	})
	require.Equal(t, http.StatusOK, w.Code)

	updated, err := tourists.GetByID(context.Background(), tourist.ID)
	require.NoError(t, err)
	assert.Zero(t, updated.SafetyScore)

	raised, err := alerts.GetByTourist(context.Background(), tourist.ID, repository.Pagination{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, raised, 1)
}

func TestHandler_FileEFIR_MintsCaseNumber(t *testing.T) {
	r, tourists, _ := newTestRouter(t)
	tourist := testutil.NewTestTourist()
	require.NoError(t, tourists.Create(context.Background(), tourist))

	w := doJSON(r, http.MethodPost, "/fileEFIR", FileEFIRRequest{
		TouristID:   tourist.ID,
		Description: "lost passport near the ghat",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var payload FileEFIRResponse
	require.NoError(t, json.Unmarshal(data, &payload))

	expectedPrefix := fmt.Sprintf("EFIR%06d%s", payload.AlertID, time.Now().Format("20060102"))
	assert.Equal(t, expectedPrefix, payload.CaseNumber)
}

func TestHandler_GetAlerts_FiltersByTourist(t *testing.T) {
	r, tourists, alerts := newTestRouter(t)
	a := testutil.NewTestTourist()
	require.NoError(t, tourists.Create(context.Background(), a))
	b := testutil.NewTestTourist()
	require.NoError(t, tourists.Create(context.Background(), b))

	require.NoError(t, alerts.Create(context.Background(), testutil.NewTestAlert(a.ID, "GEOFENCE")))
	require.NoError(t, alerts.Create(context.Background(), testutil.NewTestAlert(b.ID, "GEOFENCE")))

	w := doJSON(r, http.MethodGet, fmt.Sprintf("/getAlerts?tourist_id=%d", a.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp PaginatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Meta.Total)
}

func TestHandler_ResolveAlert(t *testing.T) {
	r, tourists, alerts := newTestRouter(t)
	tourist := testutil.NewTestTourist()
	require.NoError(t, tourists.Create(context.Background(), tourist))
	a := testutil.NewTestAlert(tourist.ID, "GEOFENCE")
	require.NoError(t, alerts.Create(context.Background(), a))

	w := doJSON(r, http.MethodPut, fmt.Sprintf("/resolveAlert/%d", a.ID), ResolveAlertRequest{
		ResolvedBy: "ranger-1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	resolved, err := alerts.GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "RESOLVED", string(resolved.Status))
}

func TestHandler_TrainingStatusAndForce(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/ai/training/status", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/ai/training/force", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestHandler_SendLocation_RejectedWhenBackpressureExhausted(t *testing.T) {
	gin.SetMode(gin.TestMode)
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
	engine := assessment.New(db, tourists, locations, assessments, zones, registry, dispatcher, nil, nil, nil, assessment.Config{})
	scheduler := training.NewScheduler(locations, registry, nil, training.Config{})

	bp := NewBackpressure(1, 1000, 500)
	handler := New(tourists, locations, assessments, alerts, engine, dispatcher, scheduler, bp, nil)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	RegisterRoutes(r, handler)

	_, ok := bp.Admit()
	require.True(t, ok)

	tourist := testutil.NewTestTourist()
	require.NoError(t, tourists.Create(context.Background(), tourist))

	w := doJSON(r, http.MethodPost, "/sendLocation", SendLocationRequest{
		TouristID: tourist.ID,
		Latitude:  28.6129,
		Longitude: 77.2295,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}
