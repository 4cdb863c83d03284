package handler

import (
	"context"
	"net/http"

	"github.com/eaglebank/ledger/internal/ledger"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/gin-gonic/gin"
)

// AdminCommander defines the destructive operations behind the admin routes.
type AdminCommander interface {
	DeleteAccount(context.Context, cqrs.DeleteAccountCommand) (int, error)
	DeleteUserAccounts(context.Context, cqrs.DeleteUserAccountsCommand) ([]ledger.Removal, error)
}

type AdminQuerier interface {
	ListAllAccounts(context.Context, cqrs.ListAllAccountsQuery) ([]models.AccountView, error)
	AdminGetAccount(context.Context, cqrs.AdminGetAccountQuery) (*models.AccountView, error)
	AdminListUserAccounts(context.Context, cqrs.AdminListUserAccountsQuery) ([]models.AccountView, error)
}

// AdminHandler serves /v1/admin. Routes must sit behind RequireAdmin.
type AdminHandler struct {
	commands AdminCommander
	queries  AdminQuerier
}

type AdminAccountView struct {
	models.AccountView
	UserID string `json:"userId"`
}

type DeleteAccountResponse struct {
	AccountNumber       string `json:"accountNumber"`
	RemovedTransactions int    `json:"removedTransactions"`
}

type DeleteUserAccountsResponse struct {
	Deleted []ledger.Removal `json:"deleted"`
	Error   string           `json:"error,omitempty"`
}

func NewAdminHandler(commands AdminCommander, queries AdminQuerier) *AdminHandler {
	return &AdminHandler{commands: commands, queries: queries}
}

func (h *AdminHandler) ListAllAccounts(c *gin.Context) {
	views, err := h.queries.ListAllAccounts(c.Request.Context(), cqrs.ListAllAccountsQuery{})
	if err != nil {
		respondWithLedgerError(c, err, "Failed to list accounts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": toAdminViews(views)})
}

func (h *AdminHandler) GetAccount(c *gin.Context) {
	view, err := h.queries.AdminGetAccount(c.Request.Context(), cqrs.AdminGetAccountQuery{AccountNumber: c.Param("accountNumber")})
	if err != nil {
		respondWithLedgerError(c, err, "Failed to get account")
		return
	}
	c.JSON(http.StatusOK, AdminAccountView{AccountView: *view, UserID: view.UserID})
}

// ListUserAccounts returns an empty list for a holder without accounts; users
// live outside the ledger, so an unknown ID is not an error.
func (h *AdminHandler) ListUserAccounts(c *gin.Context) {
	views, err := h.queries.AdminListUserAccounts(c.Request.Context(), cqrs.AdminListUserAccountsQuery{UserID: c.Param("userId")})
	if err != nil {
		respondWithLedgerError(c, err, "Failed to list user accounts")
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": toAdminViews(views)})
}

// toAdminViews exposes the owning user, which the public view hides.
func toAdminViews(views []models.AccountView) []AdminAccountView {
	out := make([]AdminAccountView, 0, len(views))
	for _, v := range views {
		out = append(out, AdminAccountView{AccountView: v, UserID: v.UserID})
	}
	return out
}

func (h *AdminHandler) DeleteAccount(c *gin.Context) {
	accountNumber := c.Param("accountNumber")

	removed, err := h.commands.DeleteAccount(c.Request.Context(), cqrs.DeleteAccountCommand{AccountNumber: accountNumber})
	if err != nil {
		respondWithLedgerError(c, err, "Failed to delete account")
		return
	}
	c.JSON(http.StatusOK, DeleteAccountResponse{AccountNumber: accountNumber, RemovedTransactions: removed})
}

// DeleteUserAccounts reports the accounts removed so far even when the cascade
// stopped early.
func (h *AdminHandler) DeleteUserAccounts(c *gin.Context) {
	removed, err := h.commands.DeleteUserAccounts(c.Request.Context(), cqrs.DeleteUserAccountsCommand{UserID: c.Param("userId")})
	if removed == nil {
		removed = []ledger.Removal{}
	}
	if err != nil {
		code, message := statusFor(err)
		if message == "" {
			message = "Failed to delete user accounts"
		}
		_ = c.Error(err)
		c.JSON(code, DeleteUserAccountsResponse{Deleted: removed, Error: message})
		return
	}
	c.JSON(http.StatusOK, DeleteUserAccountsResponse{Deleted: removed})
}
