package ingress

import (
	"github.com/gin-gonic/gin"

	"github.com/raahat-suraksha/safety-backend/internal/common/logging"
)

// RegisterRoutes mounts every endpoint spec.md §6 names directly on the
// router's root, matching the flat (non-versioned) paths the
// specification gives verbatim. adminAuth, if non-nil, guards the
// /ai/* operator endpoints; callers that pass nothing (tests, mainly)
// get those endpoints unguarded. The /ai group is also audited when h
// was built with a non-nil AuditLogger.
func RegisterRoutes(r gin.IRouter, h *Handler, adminAuth ...gin.HandlerFunc) {
	r.GET("/", h.Health)
	r.GET("/health", h.Health)

	r.POST("/registerTourist", h.RegisterTourist)
	r.POST("/sendLocation", h.SendLocation)
	r.POST("/pressSOS", h.PressSOS)
	r.POST("/fileEFIR", h.FileEFIR)
	r.GET("/getAlerts", h.GetAlerts)
	r.PUT("/resolveAlert/:id", h.ResolveAlert)
	r.GET("/tourists/:id", h.GetTourist)

	ai := r.Group("/ai")
	if len(adminAuth) > 0 && adminAuth[0] != nil {
		ai.Use(adminAuth[0])
	}
	if h.audit != nil {
		ai.Use(logging.AuditMiddleware(h.audit))
	}
	ai.GET("/training/status", h.TrainingStatus)
	ai.GET("/data/stats", h.DataStats)
	ai.POST("/training/force", h.ForceTraining)
}
