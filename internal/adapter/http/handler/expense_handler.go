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
	"github.com/shopspring/decimal"
)

// ExpenseHandler handles expense endpoints.
type ExpenseHandler struct {
	expenseSvc ports.ExpenseService
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseSvc ports.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseSvc: expenseSvc}
}

// Create handles POST /api/v1/expenses.
func (h *ExpenseHandler) Create(c *gin.Context) {
	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	walletID, err := uuid.Parse(req.WalletID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid wallet id"))
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		response.Error(c, apperror.Validation("date must be RFC 3339"))
		return
	}

	expense, err := h.expenseSvc.CreateExpense(c.Request.Context(), ports.CreateExpenseRequest{
		WalletID:    walletID,
		Category:    req.Category,
		Amount:      amount,
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toExpenseResponse(expense))
}

// Delete handles DELETE /api/v1/expenses/:id.
func (h *ExpenseHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid expense id"))
		return
	}

	if err := h.expenseSvc.DeleteExpense(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"deleted": id.String()})
}

// List handles GET /api/v1/expenses.
func (h *ExpenseHandler) List(c *gin.Context) {
	walletID, err := uuid.Parse(c.Query("wallet_id"))
	if err != nil {
		response.Error(c, apperror.Validation("wallet_id query parameter is required"))
		return
	}

	expenses, err := h.expenseSvc.ListExpenses(c.Request.Context(), walletID)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		items = append(items, toExpenseResponse(&expenses[i]))
	}

	response.OK(c, items)
}

// toExpenseResponse converts domain.Expense to DTO.
func toExpenseResponse(e *domain.Expense) dto.ExpenseResponse {
	return dto.ExpenseResponse{
		ID:          e.ID.String(),
		WalletID:    e.WalletID.String(),
		Category:    e.Category,
		Amount:      e.Amount,
		Description: e.Description,
		Date:        e.Date.Format(time.RFC3339),
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}
