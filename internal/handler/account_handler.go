package handler

import (
	"context"
	"net/http"

	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/gin-gonic/gin"
)

// AccountCommander defines the write-side operations used by AccountHandler.
type AccountCommander interface {
	CreateAccount(context.Context, cqrs.CreateAccountCommand) (*models.Account, error)
	CreateAccountPair(context.Context, cqrs.CreateAccountPairCommand) ([]models.Account, error)
}

// AccountQuerier defines the read-side operations used by AccountHandler.
type AccountQuerier interface {
	GetAccount(context.Context, cqrs.GetAccountQuery) (*models.AccountView, error)
	ListAccounts(context.Context, cqrs.ListAccountsQuery) ([]models.AccountView, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	commands AccountCommander
	queries  AccountQuerier
}

type CreateAccountRequest struct {
	AccountType string `json:"accountType" validate:"required,oneof=CHECKING SAVINGS"`
}

type ListAccountsResponse struct {
	Accounts []models.AccountView `json:"accounts"`
}

type AccountPairResponse struct {
	Accounts []models.AccountView `json:"accounts"`
	Error    string               `json:"error,omitempty"`
}

func NewAccountHandler(commands AccountCommander, queries AccountQuerier) *AccountHandler {
	return &AccountHandler{commands: commands, queries: queries}
}

func (h *AccountHandler) CreateAccount(c *gin.Context) {
	owner, _ := middleware.GetOwner(c)

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	account, err := h.commands.CreateAccount(c.Request.Context(), cqrs.CreateAccountCommand{
		Owner:       owner,
		AccountType: models.AccountKind(req.AccountType),
	})
	if err != nil {
		respondWithLedgerError(c, err, "Failed to create account")
		return
	}

	c.JSON(http.StatusCreated, models.AccountToView(account))
}

// CreateAccountPair opens a checking and a savings account. If only the first
// could be opened the response is 207 with that account and the error.
func (h *AccountHandler) CreateAccountPair(c *gin.Context) {
	owner, _ := middleware.GetOwner(c)

	accounts, err := h.commands.CreateAccountPair(c.Request.Context(), cqrs.CreateAccountPairCommand{Owner: owner})
	if err != nil && len(accounts) == 0 {
		respondWithLedgerError(c, err, "Failed to create accounts")
		return
	}

	resp := AccountPairResponse{Accounts: make([]models.AccountView, 0, len(accounts))}
	for i := range accounts {
		resp.Accounts = append(resp.Accounts, *models.AccountToView(&accounts[i]))
	}
	if err != nil {
		_ = c.Error(err)
		_, resp.Error = statusFor(err)
		if resp.Error == "" {
			resp.Error = "Failed to create savings account"
		}
		c.JSON(http.StatusMultiStatus, resp)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	views, err := h.queries.ListAccounts(c.Request.Context(), cqrs.ListAccountsQuery{UserID: userID})
	if err != nil {
		respondWithLedgerError(c, err, "Failed to list accounts")
		return
	}
	if views == nil {
		views = []models.AccountView{}
	}
	c.JSON(http.StatusOK, ListAccountsResponse{Accounts: views})
}

func (h *AccountHandler) GetAccount(c *gin.Context) {
	accountNumber := c.Param("accountNumber")
	userID, _ := middleware.GetUserID(c)

	view, err := h.queries.GetAccount(c.Request.Context(), cqrs.GetAccountQuery{
		AccountNumber:    accountNumber,
		RequestingUserID: userID,
	})
	if err != nil {
		respondWithLedgerError(c, err, "Failed to get account")
		return
	}

	c.JSON(http.StatusOK, view)
}
