package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/service"
)

type WalletHandler struct {
	svs LedgerServicer
}

func NewWalletHandler(svs LedgerServicer) *WalletHandler {
	return &WalletHandler{
		svs: svs,
	}
}

type BalanceResponse struct {
	Balance float64 `json:"balance"`
}

// Balance GET RouteGroup + WalletRoute.
func (w *WalletHandler) Balance(c *gin.Context) {
	currentAccountID := getAccountIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	balance, err := w.svs.Balance(reqCtx, currentAccountID)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, &BalanceResponse{Balance: balance.InexactFloat64()})
}

type DepositParams struct {
	Amount decimal.Decimal `binding:"required,gt=0"                        json:"amount"`
	Method string          `binding:"required,oneof=card transfer cash_in" json:"method"`
}

type LedgerEntryResponse struct {
	ID           int64   `json:"id"`
	Amount       float64 `json:"amount"`
	Kind         string  `json:"kind"`
	Reference    string  `json:"reference"`
	BalanceAfter float64 `json:"balance_after"`
	CreatedAt    string  `json:"created_at"`
}

func ledgerEntryResponse(entry *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:           entry.ID,
		Amount:       entry.Amount.InexactFloat64(),
		Kind:         string(entry.Kind),
		Reference:    entry.Reference,
		BalanceAfter: entry.BalanceAfter.InexactFloat64(),
		CreatedAt:    entry.CreatedAt.Format(time.RFC3339),
	}
}

// Deposit POST RouteGroup + WalletDepositRoute. Минимальная сумма
// пополнения - service.MinDepositAmount.
func (w *WalletHandler) Deposit(c *gin.Context) {
	currentAccountID := getAccountIDFromContext(c)

	var params DepositParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		var valErrs validator.ValidationErrors
		if errors.As(bindErr, &valErrs) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": valErrs.Error()})
			return
		}
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	entry, err := w.svs.Deposit(reqCtx, currentAccountID, params.Amount, params.Method)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, ledgerEntryResponse(entry))
}

type WithdrawParams struct {
	Amount      decimal.Decimal `binding:"required,gt=0"     json:"amount"`
	Destination string          `binding:"required,max=100"  json:"destination"`
}

// Withdraw POST RouteGroup + WalletWithdrawRoute.
func (w *WalletHandler) Withdraw(c *gin.Context) {
	currentAccountID := getAccountIDFromContext(c)

	var params WithdrawParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	entry, err := w.svs.Withdraw(reqCtx, currentAccountID, params.Amount, params.Destination)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInsufficientFunds):
			c.AbortWithStatus(http.StatusPaymentRequired)
		case errors.Is(err, domain.ErrValidation):
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		}
		return
	}

	c.JSON(http.StatusOK, ledgerEntryResponse(entry))
}

// Transactions GET RouteGroup + WalletTransactionsRoute. Последние записи журнала
// по убыванию даты.
func (w *WalletHandler) Transactions(c *gin.Context) {
	currentAccountID := getAccountIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	entries, err := w.svs.Statement(reqCtx, currentAccountID, service.DefaultStatementLimit)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	if len(entries) == 0 {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	response := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		response[i] = ledgerEntryResponse(&entries[i])
	}

	c.JSON(http.StatusOK, response)
}
