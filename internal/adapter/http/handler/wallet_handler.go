package handler

import (
	"time"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/domain"
	"wallet-ledger/internal/core/ports"
	"wallet-ledger/pkg/apperror"
	"wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles wallet lifecycle endpoints.
type WalletHandler struct {
	walletSvc ports.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Create handles POST /api/v1/wallets.
func (h *WalletHandler) Create(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	wallet, err := h.walletSvc.CreateWallet(c.Request.Context(), ports.CreateWalletRequest{
		Name:          req.Name,
		ContactNumber: req.ContactNumber,
		Fee: domain.FeePolicy{
			Type:        domain.FeeType(req.Fee.Type),
			Percentage:  dto.ParseDecimal(req.Fee.Percentage),
			PerThousand: dto.ParseDecimal(req.Fee.PerThousand),
			FixedAmount: dto.ParseDecimal(req.Fee.FixedAmount),
			MinFee:      dto.ParseDecimal(req.Fee.MinFee),
			MaxFee:      dto.ParseDecimal(req.Fee.MaxFee),
		},
		MonthlyLimit: dto.ParseDecimal(req.MonthlyLimit),
		DailyLimit:   dto.ParseDecimal(req.DailyLimit),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toWalletResponse(wallet))
}

// Get handles GET /api/v1/wallets/:id.
func (h *WalletHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	wallet, err := h.walletSvc.GetWallet(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toWalletResponse(wallet))
}

// List handles GET /api/v1/wallets.
func (h *WalletHandler) List(c *gin.Context) {
	includeArchived := c.Query("include_archived") == "true"

	wallets, err := h.walletSvc.ListWallets(c.Request.Context(), includeArchived)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.WalletResponse, 0, len(wallets))
	for i := range wallets {
		items = append(items, toWalletResponse(&wallets[i]))
	}

	response.OK(c, items)
}

// Archive handles POST /api/v1/wallets/:id/archive.
func (h *WalletHandler) Archive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}

	if err := h.walletSvc.ArchiveWallet(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"archived": id.String()})
}

// toWalletResponse converts domain.Wallet to DTO.
func toWalletResponse(w *domain.Wallet) dto.WalletResponse {
	return dto.WalletResponse{
		ID:               w.ID.String(),
		Name:             w.Name,
		ContactNumber:    w.ContactNumber,
		FeeType:          string(w.Fee.Type),
		MonthlyLimit:     w.MonthlyLimit,
		Balance:          w.Aggregates.Balance,
		TotalDeposits:    w.Aggregates.TotalDeposits,
		TotalWithdrawals: w.Aggregates.TotalWithdrawals,
		TotalFeesEarned:  w.Aggregates.TotalFeesEarned,
		MonthlyVolume:    w.Aggregates.MonthlyVolume,
		IsArchived:       w.IsArchived,
		CreatedAt:        w.CreatedAt.Format(time.RFC3339),
	}
}
