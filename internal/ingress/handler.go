// Package ingress implements the Ingress Adapter: the gin HTTP surface
// that accepts tourist registration, location ingestion, emergency
// reporting and query calls, and delegates to the Assessment Engine,
// the Alert Dispatcher and the Training Scheduler: a Handler{service,
// validator} struct, SuccessResponse/ErrorResponse/PaginatedResponse
// envelopes, and middleware.AbortWith* error mapping.
package ingress

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/raahat-suraksha/safety-backend/internal/alert"
	"github.com/raahat-suraksha/safety-backend/internal/assessment"
	"github.com/raahat-suraksha/safety-backend/internal/common/logging"
	"github.com/raahat-suraksha/safety-backend/internal/common/middleware"
	"github.com/raahat-suraksha/safety-backend/internal/common/repository"
	"github.com/raahat-suraksha/safety-backend/internal/common/validators"
	"github.com/raahat-suraksha/safety-backend/internal/fusion"
	"github.com/raahat-suraksha/safety-backend/internal/training"
	apperrors "github.com/raahat-suraksha/safety-backend/pkg/errors"
	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

// SuccessResponse is the envelope for a successful call.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}

// ErrorResponse is the envelope for a failed call.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// PaginatedResponse is the envelope for a list call.
type PaginatedResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Meta    Meta        `json:"meta"`
}

// Meta carries pagination metadata.
type Meta struct {
	Total       int64 `json:"total"`
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// TouristDetail is the data payload of GET /tourists/{id}.
type TouristDetail struct {
	Tourist            *models.Tourist       `json:"tourist"`
	RecentLocations    []*models.Location    `json:"recent_locations"`
	RecentAlerts       []*models.Alert       `json:"recent_alerts"`
	LatestAssessment   *models.Assessment    `json:"latest_assessment,omitempty"`
}

// Handler serves the endpoints spec.md §6 names.
type Handler struct {
	tourists     repository.TouristRepository
	locations    repository.LocationRepository
	assessments  repository.AssessmentRepository
	alerts       repository.AlertRepository
	engine       *assessment.Engine
	dispatcher   *alert.Dispatcher
	scheduler    *training.Scheduler
	backpressure *Backpressure
	audit        *logging.AuditLogger
	validator    *validator.Validate
}

// New builds a Handler. audit may be nil, in which case the operator
// actions it would otherwise record (alert resolution, forced
// training) are simply never written to the durable audit trail.
func New(
	tourists repository.TouristRepository,
	locations repository.LocationRepository,
	assessments repository.AssessmentRepository,
	alerts repository.AlertRepository,
	engine *assessment.Engine,
	dispatcher *alert.Dispatcher,
	scheduler *training.Scheduler,
	backpressure *Backpressure,
	audit *logging.AuditLogger,
) *Handler {
	return &Handler{
		tourists:     tourists,
		locations:    locations,
		assessments:  assessments,
		alerts:       alerts,
		engine:       engine,
		dispatcher:   dispatcher,
		scheduler:    scheduler,
		backpressure: backpressure,
		audit:        audit,
		validator:    validator.New(),
	}
}

// Health reports liveness plus store reachability.
// @Summary Health check
// @Tags system
// @Success 200 {object} SuccessResponse
// @Router /health [get]
func (h *Handler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.tourists.Count(ctx, repository.FilterOptions{}); err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "store unreachable", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: gin.H{"status": "ok"}})
}

// RegisterTourist handles POST /registerTourist.
// @Summary Register a tourist
// @Tags tourists
// @Accept json
// @Produce json
// @Param tourist body RegisterTouristRequest true "tourist"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /registerTourist [post]
func (h *Handler) RegisterTourist(c *gin.Context) {
	var req RegisterTouristRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBadRequest(c, "invalid request data")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		middleware.AbortWithValidation(c, err.Error())
		return
	}

	tourist := &models.Tourist{
		Name:           req.Name,
		ContactPhone:   req.ContactPhone,
		EmergencyPhone: req.EmergencyPhone,
		Age:            req.Age,
		Nationality:    req.Nationality,
		PassportNo:     req.PassportNo,
		SafetyScore:    100,
		IsActive:       true,
	}
	if err := h.tourists.Create(c.Request.Context(), tourist); err != nil {
		middleware.AbortWithInternal(c, "failed to register tourist", err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: tourist, Message: "tourist registered"})
}

// GetTourist handles GET /tourists/{id}.
// @Summary Tourist detail
// @Tags tourists
// @Produce json
// @Param id path int true "tourist id"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /tourists/{id} [get]
func (h *Handler) GetTourist(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		middleware.AbortWithBadRequest(c, "invalid tourist id")
		return
	}
	ctx := c.Request.Context()

	tourist, err := h.tourists.GetByID(ctx, id)
	if err != nil {
		middleware.AbortWithNotFound(c, "tourist")
		return
	}

	locs, err := h.locations.GetByTourist(ctx, id, repository.Pagination{Page: 1, PageSize: 10})
	if err != nil {
		middleware.AbortWithInternal(c, "failed to load recent locations", err)
		return
	}
	alerts, err := h.alerts.GetByTourist(ctx, id, repository.Pagination{Page: 1, PageSize: 20})
	if err != nil {
		middleware.AbortWithInternal(c, "failed to load recent alerts", err)
		return
	}
	latest, err := h.assessments.GetLatestByTourist(ctx, id)
	if err != nil {
		latest = nil
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: TouristDetail{
		Tourist:          tourist,
		RecentLocations:  locs,
		RecentAlerts:     alerts,
		LatestAssessment: latest,
	}})
}

// @Summary Ingest a location update
// @Tags assessment
// @Accept json
// @Produce json
// @Param location body SendLocationRequest true "location"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /sendLocation [post]
// SendLocation handles POST /sendLocation: the hot path. It writes the
// Location then hands it to the Assessment Engine, returning 200 with a
// degraded flag rather than an error whenever the Location itself
// persisted: a failed assessment that nonetheless persisted the
// Location still returns 200.
func (h *Handler) SendLocation(c *gin.Context) {
	release, ok := h.backpressure.Admit()
	if !ok {
		middleware.AbortWithError(c, apperrors.NewConflictError("ingress is at capacity, retry shortly").WithDetails(map[string]interface{}{"retryable": true}))
		return
	}
	defer release()

	var req SendLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBadRequest(c, "invalid request data")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		middleware.AbortWithValidation(c, err.Error())
		return
	}
	if err := validators.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		middleware.AbortWithValidation(c, err.Error())
		return
	}
	if req.Speed != nil {
		if err := validators.ValidateSpeed(*req.Speed); err != nil {
			middleware.AbortWithValidation(c, err.Error())
			return
		}
	}
	if req.Accuracy != nil {
		if err := validators.ValidateAccuracy(*req.Accuracy); err != nil {
			middleware.AbortWithValidation(c, err.Error())
			return
		}
	}
	if req.Heading != nil {
		if err := validators.ValidateHeading(*req.Heading); err != nil {
			middleware.AbortWithValidation(c, err.Error())
			return
		}
	}

	ctx := c.Request.Context()
	if _, err := h.tourists.GetByID(ctx, req.TouristID); err != nil {
		middleware.AbortWithNotFound(c, "tourist")
		return
	}

	loc := &models.Location{
		TouristID:  req.TouristID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Accuracy:   req.Accuracy,
		Altitude:   req.Altitude,
		Speed:      req.Speed,
		Heading:    req.Heading,
		RecordedAt: time.Now(),
	}
	if err := h.locations.Create(ctx, loc); err != nil {
		middleware.AbortWithInternal(c, "failed to persist location", err)
		return
	}

	var speed float64
	if req.Speed != nil {
		speed = *req.Speed
	}

	result, err := h.engine.Assess(ctx, loc, fusion.SideChannel{Speed: speed})
	if err != nil {
		middleware.AbortWithInternal(c, "failed to persist assessment", err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: SendLocationResponse{
		LocationID:         loc.ID,
		Assessment:         result,
		AlertGenerated:     result.Severity != models.SeveritySafe || result.InRestrictedZone,
		UpdatedSafetyScore: result.SafetyScore,
	}})
}

// PressSOS handles POST /pressSOS. It routes through the same Fusion
// path as an ordinary location update, via the SOS side channel, so the
// Fusion Scorer stays the sole writer of safety_score (the open
// question §9 resolves this way rather than writing the score
// directly from the SOS handler).
// @Summary Raise an emergency SOS alert
// @Tags assessment
// @Accept json
// @Produce json
// @Param sos body PressSOSRequest true "sos"
// @Success 200 {object} SuccessResponse
// @Router /pressSOS [post]
func (h *Handler) PressSOS(c *gin.Context) {
	var req PressSOSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBadRequest(c, "invalid request data")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		middleware.AbortWithValidation(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	if _, err := h.tourists.GetByID(ctx, req.TouristID); err != nil {
		middleware.AbortWithNotFound(c, "tourist")
		return
	}

	loc := &models.Location{
		TouristID:  req.TouristID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		RecordedAt: time.Now(),
	}
	if err := h.locations.Create(ctx, loc); err != nil {
		middleware.AbortWithInternal(c, "failed to persist location", err)
		return
	}

	result, err := h.engine.Assess(ctx, loc, fusion.SideChannel{SOS: true})
	if err != nil {
		middleware.AbortWithInternal(c, "failed to persist assessment", err)
		return
	}

	latest, err := h.alerts.GetByTourist(ctx, req.TouristID, repository.Pagination{Page: 1, PageSize: 1})
	var alertID uint
	if err == nil && len(latest) > 0 {
		alertID = latest[0].ID
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: PressSOSResponse{
		AlertID:                   alertID,
		CaseNumber:                fmt.Sprintf("SOS%06d", alertID),
		EmergencyServicesNotified: result.Severity == models.SeverityCritical,
	}})
}

// FileEFIR handles POST /fileEFIR: a manual HIGH-severity alert with a
// structured description, not routed through the Fusion Scorer since it
// carries no new Location or detector signal.
// @Summary File a manual E-FIR alert
// @Tags alerts
// @Accept json
// @Produce json
// @Param efir body FileEFIRRequest true "efir"
// @Success 200 {object} SuccessResponse
// @Router /fileEFIR [post]
func (h *Handler) FileEFIR(c *gin.Context) {
	var req FileEFIRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBadRequest(c, "invalid request data")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		middleware.AbortWithValidation(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	if _, err := h.tourists.GetByID(ctx, req.TouristID); err != nil {
		middleware.AbortWithNotFound(c, "tourist")
		return
	}

	a := &models.Alert{
		TouristID:     req.TouristID,
		Kind:          models.AlertKindManual,
		Severity:      models.AlertSeverityHigh,
		Message:       "E-FIR filed",
		Description:   req.Description,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		Status:        models.AlertStatusActive,
		AutoGenerated: false,
		OccurredAt:    time.Now(),
	}
	raised, err := h.dispatcher.Raise(ctx, a)
	if err != nil {
		middleware.AbortWithInternal(c, "failed to file E-FIR", err)
		return
	}
	if raised == nil {
		middleware.AbortWithConflict(c, "a duplicate E-FIR was just filed for this tourist")
		return
	}

	caseNumber := fmt.Sprintf("EFIR%06d%s", raised.ID, raised.OccurredAt.Format("20060102"))
	raised.CaseNumber = caseNumber
	if err := h.alerts.Update(ctx, raised); err != nil {
		middleware.AbortWithInternal(c, "failed to record E-FIR case number", err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: FileEFIRResponse{
		AlertID:    raised.ID,
		CaseNumber: caseNumber,
	}})
}

// @Summary List alerts
// @Tags alerts
// @Produce json
// @Param tourist_id query int false "tourist id"
// @Param status query string false "status"
// @Param severity query string false "severity"
// @Param kind query string false "kind"
// @Param page query int false "page"
// @Param limit query int false "limit, default 50, max 1000"
// @Success 200 {object} PaginatedResponse
// @Router /getAlerts [get]
// GetAlerts handles GET /getAlerts: filter by tourist/status/severity/
// kind, paginated (limit default 50, max 1000).
func (h *Handler) GetAlerts(c *gin.Context) {
	filters := repository.FilterOptions{Where: map[string]interface{}{}}
	if v := c.Query("tourist_id"); v != "" {
		id, err := parseID(v)
		if err != nil {
			middleware.AbortWithBadRequest(c, "invalid tourist_id")
			return
		}
		filters.Where["tourist_id"] = id
	}
	if v := c.Query("status"); v != "" {
		filters.Where["status"] = v
	}
	if v := c.Query("severity"); v != "" {
		filters.Where["severity"] = v
	}
	if v := c.Query("kind"); v != "" {
		filters.Where["kind"] = v
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 50)
	if err := validators.ValidatePageLimit(limit); err != nil {
		middleware.AbortWithBadRequest(c, err.Error())
		return
	}
	pagination := repository.Pagination{Page: page, PageSize: limit}

	ctx := c.Request.Context()
	alerts, err := h.alerts.List(ctx, filters, pagination)
	if err != nil {
		middleware.AbortWithInternal(c, "failed to list alerts", err)
		return
	}
	total, err := h.alerts.Count(ctx, filters)
	if err != nil {
		middleware.AbortWithInternal(c, "failed to count alerts", err)
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, PaginatedResponse{
		Success: true,
		Data:    alerts,
		Meta: Meta{
			Total:       total,
			Page:        page,
			Limit:       limit,
			TotalPages:  totalPages,
			HasNext:     page < totalPages,
			HasPrevious: page > 1,
		},
	})
}

// ResolveAlert handles PUT /resolveAlert/{id}.
// @Summary Resolve an alert
// @Tags alerts
// @Param id path int true "alert id"
// @Param body body ResolveAlertRequest true "resolution"
// @Success 200 {object} SuccessResponse
// @Router /resolveAlert/{id} [put]
func (h *Handler) ResolveAlert(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		middleware.AbortWithBadRequest(c, "invalid alert id")
		return
	}

	var req ResolveAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBadRequest(c, "invalid request data")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		middleware.AbortWithValidation(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	existing, err := h.alerts.GetByID(ctx, id)
	if err != nil {
		middleware.AbortWithNotFound(c, "alert")
		return
	}
	if err := h.alerts.Resolve(ctx, id, req.ResolvedBy, req.Notes); err != nil {
		middleware.AbortWithInternal(c, "failed to resolve alert", err)
		return
	}

	if h.audit != nil {
		h.audit.LogAlertResolved(ctx, id, existing.TouristID, req.Notes)
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "alert resolved"})
}

// TrainingStatus handles GET /ai/training/status.
// @Summary Training Scheduler status
// @Tags training
// @Security BearerAuth
// @Success 200 {object} SuccessResponse
// @Router /ai/training/status [get]
func (h *Handler) TrainingStatus(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: h.scheduler.Status()})
}

// @Summary Force an immediate training tick
// @Tags training
// @Security BearerAuth
// @Success 202 {object} SuccessResponse
// @Router /ai/training/force [post]
// ForceTraining handles POST /ai/training/force: idempotent if a fit is
// already in flight, since the forced tick skips a detector mid-fit.
func (h *Handler) ForceTraining(c *gin.Context) {
	h.scheduler.ForceTick(c.Request.Context())
	if h.audit != nil {
		h.audit.LogTrainingForced(c.Request.Context(), c.ClientIP())
	}
	c.JSON(http.StatusAccepted, SuccessResponse{Success: true, Message: "training tick requested"})
}

// DataStats handles GET /ai/data/stats.
// @Summary Store data stats
// @Tags training
// @Security BearerAuth
// @Success 200 {object} SuccessResponse
// @Router /ai/data/stats [get]
func (h *Handler) DataStats(c *gin.Context) {
	ctx := c.Request.Context()
	hourAgo := time.Now().Add(-time.Hour)

	touristCount, err := h.tourists.Count(ctx, repository.FilterOptions{})
	if err != nil {
		middleware.AbortWithInternal(c, "failed to count tourists", err)
		return
	}
	locationCount, err := h.locations.Count(ctx, repository.FilterOptions{})
	if err != nil {
		middleware.AbortWithInternal(c, "failed to count locations", err)
		return
	}
	alertCount, err := h.alerts.Count(ctx, repository.FilterOptions{})
	if err != nil {
		middleware.AbortWithInternal(c, "failed to count alerts", err)
		return
	}
	recentLocations, err := h.locations.GetRecentAcrossAllTourists(ctx, hourAgo)
	if err != nil {
		middleware.AbortWithInternal(c, "failed to count recent locations", err)
		return
	}
	recentAlerts, err := h.alerts.List(ctx, repository.FilterOptions{DateRange: map[string]repository.DateRange{
		"occurred_at": {Start: hourAgo.Format(time.RFC3339)},
	}}, repository.Pagination{Page: 1, PageSize: 1000})
	if err != nil {
		recentAlerts = nil
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: DataStats{
		TouristCount:      touristCount,
		LocationCount:     locationCount,
		AlertCount:        alertCount,
		LocationsLastHour: int64(len(recentLocations)),
		AlertsLastHour:    int64(len(recentAlerts)),
		InFlightRequests:  h.backpressure.InFlight(),
		AsOf:              time.Now(),
	}})
}

func parseID(raw string) (uint, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(v), nil
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
