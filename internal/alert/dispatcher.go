// Package alert implements the Alert Dispatcher: it persists Alert rows
// and, for emergency-grade alerts, fires a best-effort outbound webhook
// notification. The outbound call is wrapped in a circuit breaker the
// way tomtom215-cartographus's internal/eventprocessor wraps its own
// external calls (sony/gobreaker/v2's generic Settings/Execute API), so
// a flapping webhook endpoint trips open instead of piling up
// in-flight goroutines on every future alert.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/raahat-suraksha/safety-backend/internal/common/logging"
	"github.com/raahat-suraksha/safety-backend/internal/common/repository"
	"github.com/raahat-suraksha/safety-backend/pkg/models"
)

// emergencyKinds fire an outbound webhook in addition to being
// persisted.
var emergencyKinds = map[models.AlertKind]bool{
	models.AlertKindPanic: true,
	models.AlertKindSOS:   true,
}

// Config configures the Dispatcher's outbound webhook.
type Config struct {
	WebhookURL   string
	WebhookToken string
	Timeout      time.Duration
}

// Dispatcher persists alerts and best-effort notifies an emergency
// webhook.
type Dispatcher struct {
	alerts  repository.AlertRepository
	cfg     Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	audit   *logging.AuditLogger
	logger  *logging.Logger
}

// New builds a Dispatcher. audit may be nil, in which case raised
// alerts are simply never written to the durable audit trail.
func New(alerts repository.AlertRepository, cfg Config, audit *logging.AuditLogger, logger *logging.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "alert-webhook",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Dispatcher{
		alerts:  alerts,
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
		audit:   audit,
		logger:  logger,
	}
}

// webhookPayload is the structured body POSTed for an emergency alert:
// a tourist snapshot, the location it was raised at, and its severity.
type webhookPayload struct {
	AlertID   uint      `json:"alert_id"`
	TouristID uint      `json:"tourist_id"`
	Kind      string    `json:"kind"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Raise persists alert, deduplicating against a recent identical one,
// and for PANIC/SOS kinds fires a best-effort webhook. A dropped
// duplicate returns (nil, nil): the caller raised nothing new.
func (d *Dispatcher) Raise(ctx context.Context, alert *models.Alert) (*models.Alert, error) {
	if alert.Latitude != nil && alert.Longitude != nil {
		lat, lon := roundTo5(*alert.Latitude), roundTo5(*alert.Longitude)
		bucketStart := alert.OccurredAt.Truncate(time.Second)
		bucketEnd := bucketStart.Add(time.Second)

		existing, err := d.alerts.FindRecentDuplicate(ctx, alert.TouristID, alert.Kind, bucketStart, bucketEnd, lat, lon)
		if err == nil && existing != nil {
			return nil, nil
		}
	}

	if err := d.alerts.Create(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to persist alert: %w", err)
	}

	if d.audit != nil {
		d.audit.LogAlertRaised(ctx, alert.ID, alert.TouristID, string(alert.Kind), string(alert.Severity))
	}

	if emergencyKinds[alert.Kind] {
		d.dispatchWebhook(ctx, alert)
	}

	return alert, nil
}

func (d *Dispatcher) dispatchWebhook(ctx context.Context, alert *models.Alert) {
	if d.cfg.WebhookURL == "" {
		return
	}

	body, err := json.Marshal(webhookPayload{
		AlertID:    alert.ID,
		TouristID:  alert.TouristID,
		Kind:       string(alert.Kind),
		Severity:   string(alert.Severity),
		Message:    alert.Message,
		Latitude:   alert.Latitude,
		Longitude:  alert.Longitude,
		OccurredAt: alert.OccurredAt,
	})
	if err != nil {
		if d.logger != nil {
			d.logger.LogDispatch(alert.ID, string(alert.Kind), d.cfg.WebhookURL, 0, err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	statusCode, err := d.post(ctx, body)
	if err != nil {
		if d.logger != nil {
			d.logger.LogDispatch(alert.ID, string(alert.Kind), d.cfg.WebhookURL, statusCode, err)
		}
		return
	}

	if d.logger != nil {
		d.logger.LogDispatch(alert.ID, string(alert.Kind), d.cfg.WebhookURL, statusCode, nil)
	}
}

func (d *Dispatcher) post(ctx context.Context, body []byte) (int, error) {
	var statusCode int

	_, err := d.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.WebhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if d.cfg.WebhookToken != "" {
			req.Header.Set("Authorization", "Bearer "+d.cfg.WebhookToken)
		}

		resp, err := d.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		statusCode = resp.StatusCode
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("webhook returned non-2xx status: %d", resp.StatusCode)
		}
		return nil, nil
	})

	return statusCode, err
}

func roundTo5(v float64) float64 {
	const factor = 1e5
	return math.Round(v*factor) / factor
}
