package handler

import (
	"net/http"

	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	Accounts     *AccountHandler
	Transactions *TransactionHandler
	Admin        *AdminHandler
}

// NewRouter mounts every route. All of /v1 requires a bearer token; /v1/admin
// additionally requires the admin claim.
func NewRouter(log *logrus.Logger, jwtSecret []byte, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1", middleware.AuthMiddleware(jwtSecret))

	accounts := v1.Group("/accounts")
	{
		accounts.POST("", h.Accounts.CreateAccount)
		accounts.POST("/pair", h.Accounts.CreateAccountPair)
		accounts.GET("", h.Accounts.ListAccounts)
		accounts.GET("/:accountNumber", h.Accounts.GetAccount)
		accounts.POST("/:accountNumber/deposits", h.Transactions.Deposit)
		accounts.POST("/:accountNumber/withdrawals", h.Transactions.Withdraw)
		accounts.POST("/:accountNumber/transfers", h.Transactions.Transfer)
		accounts.GET("/:accountNumber/transactions", h.Transactions.ListTransactions)
	}

	admin := v1.Group("/admin", middleware.RequireAdmin())
	{
		admin.GET("/accounts", h.Admin.ListAllAccounts)
		admin.GET("/accounts/:accountNumber", h.Admin.GetAccount)
		admin.GET("/users/:userId/accounts", h.Admin.ListUserAccounts)
		admin.DELETE("/accounts/:accountNumber", h.Admin.DeleteAccount)
		admin.DELETE("/users/:userId/accounts", h.Admin.DeleteUserAccounts)
	}

	return router
}
