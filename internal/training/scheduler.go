package training

import (
	"context"
	"sync"
	"time"

	"github.com/raahat-suraksha/safety-backend/internal/common/logging"
	"github.com/raahat-suraksha/safety-backend/internal/common/repository"
	"github.com/raahat-suraksha/safety-backend/internal/detectors/pointanomaly"
	"github.com/raahat-suraksha/safety-backend/internal/detectors/sequence"
	"github.com/raahat-suraksha/safety-backend/internal/features"
	apperrors "github.com/raahat-suraksha/safety-backend/pkg/errors"
	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

// Config bounds the scheduler's tick period, per-fit deadline, and how
// far back it reads Locations for a retrain.
type Config struct {
	Period      time.Duration
	FitDeadline time.Duration
	Window      time.Duration
}

// detectorState tracks one detector's in-flight/last-fit bookkeeping:
// a LastRun/NextRun pair scoped to a single always-on detector rather
// than a generic job.
type detectorState struct {
	mu        sync.Mutex
	training  bool
	lastFit   *time.Time
	nextFit   time.Time
	lastError string
}

func (s *detectorState) snapshot() (lastFit *time.Time, nextFit time.Time, lastError string, training bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFit, s.nextFit, s.lastError, s.training
}

// Scheduler is the single long-running retraining loop.
type Scheduler struct {
	locations repository.LocationRepository
	registry  *Registry
	logger    *logging.Logger
	cfg       Config

	pointState detectorState
	seqState   detectorState

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler builds a Scheduler. Call Start to begin ticking.
func NewScheduler(locations repository.LocationRepository, registry *Registry, logger *logging.Logger, cfg Config) *Scheduler {
	if cfg.Period <= 0 {
		cfg.Period = 60 * time.Second
	}
	if cfg.FitDeadline <= 0 {
		cfg.FitDeadline = 30 * time.Second
	}
	if cfg.Window <= 0 {
		cfg.Window = 72 * time.Hour
	}
	return &Scheduler{
		locations: locations,
		registry:  registry,
		logger:    logger,
		cfg:       cfg,
		done:      make(chan struct{}),
	}
}

// Start launches the scheduler loop in a goroutine. Stop cancels it; the
// in-flight fit (if any) is still bounded by cfg.FitDeadline, so shutdown
// completes in bounded time.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.cfg.Period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop signals the loop to exit and blocks until it has (bounded by the
// fit deadline of whatever was in flight).
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

// ForceTick requests an immediate retrain of both detectors. It is
// idempotent: a detector already mid-fit is left alone. It runs
// asynchronously and does not block the caller (the HTTP handler that
// calls this returns immediately, per spec.md's POST /ai/training/force
// contract).
func (s *Scheduler) ForceTick(ctx context.Context) {
	go s.tick(ctx)
}

// tick fetches the window's Locations across all tourists once and
// hands the same slice to both detectors' fits: they ran this same
// GetRecentAcrossAllTourists query independently before, doubling the
// DB scan every tick for an identical result set.
func (s *Scheduler) tick(ctx context.Context) {
	locs, err := s.locations.GetRecentAcrossAllTourists(ctx, time.Now().Add(-s.cfg.Window))
	if err != nil {
		s.recordFailure(&s.pointState, "point_anomaly", err)
		s.recordFailure(&s.seqState, "sequence_anomaly", err)
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.fitPoint(ctx, locs)
	}()
	go func() {
		defer wg.Done()
		s.fitSequence(ctx, locs)
	}()
	wg.Wait()
}

func (s *Scheduler) fitPoint(ctx context.Context, locs []*models.Location) {
	state := &s.pointState
	if !beginFit(state) {
		return
	}
	defer endFit(state)

	fitCtx, cancel := context.WithTimeout(ctx, s.cfg.FitDeadline)
	defer cancel()

	rows, err := s.pointFeatureRows(locs)
	if err != nil {
		s.recordFailure(state, "point_anomaly", err)
		return
	}

	params, err := pointanomaly.Fit(rows, pointanomaly.DefaultContamination)
	if err != nil {
		s.recordFailure(state, "point_anomaly", err)
		return
	}

	version := time.Now().UTC().Format(time.RFC3339Nano)
	s.registry.InstallPointAnomaly(fitCtx, params, version)
	s.recordSuccess(state, "point_anomaly", version, len(rows), s.cfg.Period)
}

func (s *Scheduler) fitSequence(ctx context.Context, locs []*models.Location) {
	state := &s.seqState
	if !beginFit(state) {
		return
	}
	defer endFit(state)

	fitCtx, cancel := context.WithTimeout(ctx, s.cfg.FitDeadline)
	defer cancel()

	windows, err := s.sequenceWindows(locs)
	if err != nil {
		s.recordFailure(state, "sequence_anomaly", err)
		return
	}

	params, err := sequence.Fit(windows)
	if err != nil {
		s.recordFailure(state, "sequence_anomaly", err)
		return
	}

	version := time.Now().UTC().Format(time.RFC3339Nano)
	s.registry.InstallSequence(fitCtx, params, version)
	s.recordSuccess(state, "sequence_anomaly", version, len(windows), s.cfg.Period)
}

func beginFit(state *detectorState) bool {
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.training {
		return false
	}
	state.training = true
	return true
}

func endFit(state *detectorState) {
	state.mu.Lock()
	state.training = false
	state.mu.Unlock()
}

func (s *Scheduler) recordFailure(state *detectorState, detector string, err error) {
	state.mu.Lock()
	state.lastError = err.Error()
	state.nextFit = time.Now().Add(s.cfg.Period)
	state.mu.Unlock()

	if s.logger != nil {
		s.logger.LogTraining(detector, "", 0, 0, err)
	}
}

func (s *Scheduler) recordSuccess(state *detectorState, detector, version string, sampleCount int, period time.Duration) {
	now := time.Now()
	state.mu.Lock()
	state.lastFit = &now
	state.lastError = ""
	state.nextFit = now.Add(period)
	state.mu.Unlock()

	if s.logger != nil {
		s.logger.LogTraining(detector, version, sampleCount, 0, nil)
	}
}

// pointFeatureRows rebuilds the per-update feature matrix the
// Point-Anomaly Detector fits over, by replaying each tourist's
// Locations within the window in order and computing each point's
// feature vector against its own prior history.
func (s *Scheduler) pointFeatureRows(locs []*models.Location) ([][pointanomaly.FeatureCount]float64, error) {
	extractor := features.New()
	var rows [][pointanomaly.FeatureCount]float64

	var currentTourist uint
	var history []models.Location
	for _, loc := range locs {
		if loc.TouristID != currentTourist {
			currentTourist = loc.TouristID
			history = nil
		}
		point := extractor.Point(loc, history, nil)
		rows = append(rows, point.Vector())
		history = append(history, *loc)
	}

	if len(rows) < pointanomaly.MinFitSamples {
		return nil, apperrors.NewInsufficientDataError("not enough recent locations to fit the point-anomaly detector")
	}

	return rows, nil
}

// sequenceWindows groups the window's Locations by tourist, one window
// per tourist, for the Sequence-Anomaly Detector to pool statistics
// over.
func (s *Scheduler) sequenceWindows(locs []*models.Location) ([][]models.Location, error) {
	byTourist := make(map[uint][]models.Location)
	order := make([]uint, 0)
	for _, loc := range locs {
		if _, ok := byTourist[loc.TouristID]; !ok {
			order = append(order, loc.TouristID)
		}
		byTourist[loc.TouristID] = append(byTourist[loc.TouristID], *loc)
	}

	windows := make([][]models.Location, 0, len(order))
	for _, touristID := range order {
		windows = append(windows, byTourist[touristID])
	}

	if len(windows) == 0 {
		return nil, apperrors.NewInsufficientDataError("no recent locations to fit the sequence-anomaly detector")
	}

	return windows, nil
}

// Status is the /ai/training/status response shape.
type Status struct {
	IsTraining      bool       `json:"is_training"`
	PointLastFit    *time.Time `json:"point_last_fit"`
	PointNextFit    *time.Time `json:"point_next_fit"`
	PointVersion    string     `json:"point_version"`
	PointLastError  string     `json:"point_last_error,omitempty"`
	SeqLastFit      *time.Time `json:"sequence_last_fit"`
	SeqNextFit      *time.Time `json:"sequence_next_fit"`
	SeqVersion      string     `json:"sequence_version"`
	SeqLastError    string     `json:"sequence_last_error,omitempty"`
}

// Status reports the scheduler's current state for the training-status
// endpoint.
func (s *Scheduler) Status() Status {
	pLastFit, pNextFit, pLastErr, pTraining := s.pointState.snapshot()
	sLastFit, sNextFit, sLastErr, sTraining := s.seqState.snapshot()

	status := Status{
		IsTraining:     pTraining || sTraining,
		PointLastFit:   pLastFit,
		PointVersion:   s.registry.PointVersion(),
		PointLastError: pLastErr,
		SeqLastFit:     sLastFit,
		SeqVersion:     s.registry.SequenceVersion(),
		SeqLastError:   sLastErr,
	}
	if !pNextFit.IsZero() {
		status.PointNextFit = &pNextFit
	}
	if !sNextFit.IsZero() {
		status.SeqNextFit = &sNextFit
	}
	return status
}
