package handler

import (
	"time"

	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SummaryHandler handles period reconciliation endpoints.
type SummaryHandler struct {
	summarySvc ports.SummaryService
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(summarySvc ports.SummaryService) *SummaryHandler {
	return &SummaryHandler{summarySvc: summarySvc}
}

// Summarize handles GET /api/v1/wallets/:id/summary/:granularity.
// An optional ?at= query anchors the period (RFC 3339 or 2006-01-02);
// it defaults to now.
func (h *SummaryHandler) Summarize(c *gin.Context) {
	walletID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	g := domain.Granularity(c.Param("granularity"))
	if !g.Valid() {
		response.Error(c, apperror.Validation("unknown granularity"))
		return
	}

	anchor := time.Now()
	if at := c.Query("at"); at != "" {
		parsed, err := time.Parse(time.RFC3339, at)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", at)
		}
		if err != nil {
			response.Error(c, apperror.Validation("at must be RFC 3339 or YYYY-MM-DD"))
			return
		}
		anchor = parsed
	}

	summary, err := h.summarySvc.Summarize(c.Request.Context(), walletID, anchor, g)
	if err != nil {
		response.Error(c, err)
		return
	}

	// PeriodSummary is the wire shape; its JSON is also what the cache stores.
	response.OK(c, summary)
}
