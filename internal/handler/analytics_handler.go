package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/focusloop/focusloop-backend/internal/middleware"
	"github.com/focusloop/focusloop-backend/internal/repository"
	"github.com/focusloop/focusloop-backend/internal/response"
)

// AnalyticsHandler serves persisted attention data written by the workers.
type AnalyticsHandler struct {
	attentionRepo *repository.AttentionRepository
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(attentionRepo *repository.AttentionRepository) *AnalyticsHandler {
	return &AnalyticsHandler{attentionRepo: attentionRepo}
}

// GetAttention godoc
// GET /api/v1/analytics/sessions/:session_id/attention
// Returns the persisted attention summary and distraction events for a
// finished session, plus the cohort average for context.
func (h *AnalyticsHandler) GetAttention(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessionID, ok := parseSessionID(c)
	if !ok {
		return
	}

	record, err := h.attentionRepo.GetBySessionID(c.Request.Context(), sessionID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if record.StudentID != claims.UserID {
		response.Fail(c, http.StatusForbidden, response.ErrTokenInvalid)
		return
	}

	events, err := h.attentionRepo.ListEvents(c.Request.Context(), sessionID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	cohortAvg, err := h.attentionRepo.AverageOverallScore(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"attention":      record,
		"events":         events,
		"cohort_average": cohortAvg,
	})
}
