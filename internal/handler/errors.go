package handler

import (
	"errors"
	"net/http"

	"github.com/eaglebank/ledger/internal/ledger"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/middleware"
	"github.com/gin-gonic/gin"
)

// statusFor maps ledger and CQRS error kinds onto HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest, "Amount must be greater than zero"
	case errors.Is(err, ledger.ErrInvalidKind):
		return http.StatusBadRequest, "Account type must be CHECKING or SAVINGS"
	case errors.Is(err, ledger.ErrSameAccount):
		return http.StatusBadRequest, "Cannot transfer to the same account"
	case errors.Is(err, cqrs.ErrForbidden):
		return http.StatusForbidden, "You can only access your own accounts"
	case errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound, "Account not found"
	case errors.Is(err, ledger.ErrDuplicateIdentity):
		return http.StatusConflict, "Account number conflict"
	case errors.Is(err, ledger.ErrAccountHasActivity):
		return http.StatusConflict, "Account still has transactions"
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity, "Insufficient funds"
	case errors.Is(err, ledger.ErrTransientStorage):
		return http.StatusServiceUnavailable, "Storage temporarily unavailable"
	default:
		return http.StatusInternalServerError, ""
	}
}

func respondWithLedgerError(c *gin.Context, err error, fallback string) {
	code, message := statusFor(err)
	if message == "" {
		message = fallback
	}
	_ = c.Error(err)
	middleware.RespondWithError(c, code, message)
}
