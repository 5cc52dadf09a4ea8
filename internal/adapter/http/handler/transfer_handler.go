package handler

import (
	"strconv"
	"time"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferHandler handles transfer endpoints.
type TransferHandler struct {
	transferSvc ports.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferSvc ports.TransferService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc}
}

// Create handles POST /api/v1/transfers.
func (h *TransferHandler) Create(c *gin.Context) {
	var req dto.CreateTransferRequest
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

	svcReq := ports.TransferRequest{
		FromTreasury: req.FromTreasury,
		ToTreasury:   req.ToTreasury,
		Amount:       amount,
		Description:  req.Description,
	}
	if req.FromWalletID != nil {
		id, err := uuid.Parse(*req.FromWalletID)
		if err != nil {
			response.Error(c, apperror.Validation("invalid source wallet id"))
			return
		}
		svcReq.FromWalletID = &id
	}
	if req.ToWalletID != nil {
		id, err := uuid.Parse(*req.ToWalletID)
		if err != nil {
			response.Error(c, apperror.Validation("invalid destination wallet id"))
			return
		}
		svcReq.ToWalletID = &id
	}

	transfer, err := h.transferSvc.CreateTransfer(c.Request.Context(), svcReq)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toTransferResponse(transfer))
}

// List handles GET /api/v1/transfers.
func (h *TransferHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	transfers, err := h.transferSvc.ListTransfers(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.TransferResponse, 0, len(transfers))
	for i := range transfers {
		items = append(items, toTransferResponse(&transfers[i]))
	}

	response.OK(c, items)
}

// toTransferResponse converts domain.Transfer to DTO.
func toTransferResponse(t *domain.Transfer) dto.TransferResponse {
	resp := dto.TransferResponse{
		ID:           t.ID.String(),
		FromTreasury: t.FromTreasury,
		ToTreasury:   t.ToTreasury,
		Amount:       t.Amount,
		Description:  t.Description,
		CreatedAt:    t.CreatedAt.Format(time.RFC3339),
	}
	if t.FromWalletID != nil {
		s := t.FromWalletID.String()
		resp.FromWalletID = &s
	}
	if t.ToWalletID != nil {
		s := t.ToWalletID.String()
		resp.ToWalletID = &s
	}
	if t.FromTransactionID != nil {
		s := t.FromTransactionID.String()
		resp.FromTransactionID = &s
	}
	if t.ToTransactionID != nil {
		s := t.ToTransactionID.String()
		resp.ToTransactionID = &s
	}
	return resp
}
