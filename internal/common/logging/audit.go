package logging

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuditLogger persists a durable audit trail of safety-relevant events
// to the database, separate from the structured operational logging
// Logger.LogAssessment/LogDispatch/LogTraining already emit: those are
// for debugging a running process, this is for answering "what
// happened to tourist X at time T" after the fact. Adapted from the
// teacher's company/user-scoped audit trail down to the fields this
// domain actually has: no multi-tenant company ID, no authenticated
// end-user, just a tourist and (for admin-triggered actions) the
// caller's IP.
type AuditLogger struct {
	logger *Logger
	db     *gorm.DB
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(logger *Logger, db *gorm.DB) *AuditLogger {
	return &AuditLogger{
		logger: logger,
		db:     db,
	}
}

// AuditEvent is one row of the durable audit trail.
type AuditEvent struct {
	Action     string                 `json:"action"`
	Resource   string                 `json:"resource"`
	ResourceID string                 `json:"resource_id"`
	TouristID  string                 `json:"tourist_id,omitempty"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// LogAssessment records that an Assessment was produced for a tourist,
// including the degraded path: an auditor reconstructing a tourist's
// safety history needs degraded assessments in the trail too, not just
// the structured debug log Logger.LogAssessment already writes.
func (al *AuditLogger) LogAssessment(ctx context.Context, touristID, assessmentID uint, severity string, score int, degraded bool) {
	event := AuditEvent{
		Action:     "assessment.recorded",
		Resource:   "assessment",
		ResourceID: uintStr(assessmentID),
		TouristID:  uintStr(touristID),
		Metadata: map[string]interface{}{
			"severity": severity,
			"score":    score,
			"degraded": degraded,
		},
		Timestamp: time.Now(),
	}
	al.logEvent(ctx, &event)
}

// LogAlertRaised records an Alert's creation: the kind/severity pair
// and which tourist it was raised for.
func (al *AuditLogger) LogAlertRaised(ctx context.Context, alertID, touristID uint, kind, severity string) {
	event := AuditEvent{
		Action:     "alert.raised",
		Resource:   "alert",
		ResourceID: uintStr(alertID),
		TouristID:  uintStr(touristID),
		Metadata: map[string]interface{}{
			"kind":     kind,
			"severity": severity,
		},
		Timestamp: time.Now(),
	}
	al.logEvent(ctx, &event)
}

// LogAlertResolved records an operator resolving an Alert via
// PUT /resolveAlert/{id}, capturing any resolution notes.
func (al *AuditLogger) LogAlertResolved(ctx context.Context, alertID, touristID uint, notes string) {
	event := AuditEvent{
		Action:     "alert.resolved",
		Resource:   "alert",
		ResourceID: uintStr(alertID),
		TouristID:  uintStr(touristID),
		Metadata: map[string]interface{}{
			"notes": notes,
		},
		Timestamp: time.Now(),
	}
	al.logEvent(ctx, &event)
}

// LogTrainingForced records an operator forcing an immediate Training
// Scheduler tick via POST /ai/training/force.
func (al *AuditLogger) LogTrainingForced(ctx context.Context, ipAddress string) {
	event := AuditEvent{
		Action:    "training.forced",
		Resource:  "training",
		IPAddress: ipAddress,
		Timestamp: time.Now(),
	}
	al.logEvent(ctx, &event)
}

// logEvent writes the event to the structured logger and, best-effort,
// to the audit_logs table.
func (al *AuditLogger) logEvent(_ context.Context, event *AuditEvent) {
	fields := map[string]interface{}{
		"action":      event.Action,
		"resource":    event.Resource,
		"resource_id": event.ResourceID,
		"tourist_id":  event.TouristID,
		"ip_address":  event.IPAddress,
		"timestamp":   event.Timestamp,
	}
	if event.Metadata != nil {
		fields["metadata"] = event.Metadata
	}

	if al.logger != nil {
		al.logger.WithFields(fields).Info("audit event recorded")
	}

	if al.db == nil {
		return
	}

	go func() {
		metadataJSON, _ := json.Marshal(event.Metadata)
		auditLog := map[string]interface{}{
			"tourist_id":  event.TouristID,
			"action":      event.Action,
			"resource":    event.Resource,
			"resource_id": event.ResourceID,
			"ip_address":  event.IPAddress,
			"metadata":    string(metadataJSON),
			"created_at":  event.Timestamp,
		}
		al.db.Table("audit_logs").Create(auditLog)
	}()
}

// AuditMiddleware audits state-changing requests against the admin-only
// /ai/* operator endpoints (training.force is the only POST there),
// recording the caller's IP and the resource path. GET/OPTIONS never
// mutate anything and are skipped.
func AuditMiddleware(auditLogger *AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "GET" || c.Request.Method == "OPTIONS" {
			c.Next()
			return
		}

		resource := extractResource(c.Request.URL.Path)
		resourceID := c.Param("id")

		c.Next()

		if c.Writer.Status() >= 200 && c.Writer.Status() < 300 {
			auditLogger.logger.LogAudit(
				getActionFromMethod(c.Request.Method),
				resource,
				resourceID,
				"",
				map[string]interface{}{
					"ip_address": c.ClientIP(),
				},
			)
		}
	}
}

func extractResource(path string) string {
	parts := splitPath(path)
	for i, part := range parts {
		if part == "ai" {
			if i+1 < len(parts) {
				return parts[i+1]
			}
		}
	}
	if len(parts) > 0 {
		return parts[0]
	}
	return "unknown"
}

func splitPath(path string) []string {
	result := []string{}
	current := ""
	for _, char := range path {
		if char == '/' {
			if current != "" {
				result = append(result, current)
				current = ""
			}
		} else {
			current += string(char)
		}
	}
	if current != "" {
		result = append(result, current)
	}
	return result
}

func getActionFromMethod(method string) string {
	switch method {
	case "POST":
		return "create"
	case "PUT", "PATCH":
		return "update"
	case "DELETE":
		return "delete"
	default:
		return "unknown"
	}
}

func uintStr(v uint) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(v), 10)
}
