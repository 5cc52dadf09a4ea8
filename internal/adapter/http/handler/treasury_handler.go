package handler

import (
	"context"
	"time"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TreasuryHandler handles cash treasury endpoints.
type TreasuryHandler struct {
	treasurySvc ports.TreasuryService
}

// NewTreasuryHandler creates a new TreasuryHandler.
func NewTreasuryHandler(treasurySvc ports.TreasuryService) *TreasuryHandler {
	return &TreasuryHandler{treasurySvc: treasurySvc}
}

// Get handles GET /api/v1/treasury.
func (h *TreasuryHandler) Get(c *gin.Context) {
	treasury, entries, err := h.treasurySvc.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toTreasuryResponse(treasury, entries))
}

// Deposit handles POST /api/v1/treasury/deposit.
func (h *TreasuryHandler) Deposit(c *gin.Context) {
	h.move(c, h.treasurySvc.Deposit)
}

// Withdraw handles POST /api/v1/treasury/withdraw.
func (h *TreasuryHandler) Withdraw(c *gin.Context) {
	h.move(c, h.treasurySvc.Withdraw)
}

func (h *TreasuryHandler) move(c *gin.Context, op func(ctx context.Context, req ports.TreasuryMovementRequest) (*domain.CashTreasury, error)) {
	var req dto.TreasuryMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	treasury, err := op(c.Request.Context(), ports.TreasuryMovementRequest{
		Amount:      amount,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, treasury)
}

// toTreasuryResponse converts the treasury and its recent entries to DTO.
func toTreasuryResponse(t *domain.CashTreasury, entries []domain.TreasuryEntry) dto.TreasuryResponse {
	items := make([]dto.TreasuryEntryResponse, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		item := dto.TreasuryEntryResponse{
			ID:          e.ID.String(),
			Type:        string(e.Type),
			Amount:      e.Amount,
			Description: e.Description,
			CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		}
		if e.TransferID != nil {
			s := e.TransferID.String()
			item.TransferID = &s
		}
		items = append(items, item)
	}
	return dto.TreasuryResponse{
		ID:      t.ID.String(),
		Balance: t.Balance,
		Entries: items,
	}
}
