package handler

import (
	"context"
	"net/http"

	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TransactionCommander defines the write-side operations used by TransactionHandler.
type TransactionCommander interface {
	Deposit(context.Context, cqrs.DepositCommand) (*models.Transaction, error)
	Withdraw(context.Context, cqrs.WithdrawCommand) (*models.Transaction, error)
	Transfer(context.Context, cqrs.TransferCommand) (*models.Transaction, error)
}

// TransactionQuerier defines the read-side operations used by TransactionHandler.
type TransactionQuerier interface {
	ListTransactions(context.Context, cqrs.ListTransactionsQuery) ([]models.TransactionView, error)
}

type TransactionHandler struct {
	commands TransactionCommander
	queries  TransactionQuerier
}

// Amounts accept JSON numbers or strings and are kept as exact decimals.
type MoneyRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Description string          `json:"description" validate:"max=255"`
}

type TransferRequest struct {
	ToAccountNumber string          `json:"toAccountNumber" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"gt=0"`
	Description     string          `json:"description" validate:"max=255"`
}

type ListTransactionsResponse struct {
	Transactions []models.TransactionView `json:"transactions"`
}

func NewTransactionHandler(commands TransactionCommander, queries TransactionQuerier) *TransactionHandler {
	return &TransactionHandler{commands: commands, queries: queries}
}

func (h *TransactionHandler) Deposit(c *gin.Context) {
	req, ok := bindMoneyRequest(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	txn, err := h.commands.Deposit(c.Request.Context(), cqrs.DepositCommand{
		AccountNumber:    c.Param("accountNumber"),
		RequestingUserID: userID,
		Amount:           req.Amount,
		Description:      req.Description,
	})
	if err != nil {
		respondWithLedgerError(c, err, "Failed to deposit")
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (h *TransactionHandler) Withdraw(c *gin.Context) {
	req, ok := bindMoneyRequest(c)
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	txn, err := h.commands.Withdraw(c.Request.Context(), cqrs.WithdrawCommand{
		AccountNumber:    c.Param("accountNumber"),
		RequestingUserID: userID,
		Amount:           req.Amount,
		Description:      req.Description,
	})
	if err != nil {
		respondWithLedgerError(c, err, "Failed to withdraw")
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (h *TransactionHandler) Transfer(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	txn, err := h.commands.Transfer(c.Request.Context(), cqrs.TransferCommand{
		FromAccountNumber: c.Param("accountNumber"),
		ToAccountNumber:   req.ToAccountNumber,
		RequestingUserID:  userID,
		Amount:            req.Amount,
		Description:       req.Description,
	})
	if err != nil {
		respondWithLedgerError(c, err, "Failed to transfer")
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	views, err := h.queries.ListTransactions(c.Request.Context(), cqrs.ListTransactionsQuery{
		AccountNumber:    c.Param("accountNumber"),
		RequestingUserID: userID,
	})
	if err != nil {
		respondWithLedgerError(c, err, "Failed to list transactions")
		return
	}
	if views == nil {
		views = []models.TransactionView{}
	}
	c.JSON(http.StatusOK, ListTransactionsResponse{Transactions: views})
}

func bindMoneyRequest(c *gin.Context) (MoneyRequest, bool) {
	var req MoneyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return req, false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return req, false
	}
	return req, true
}
