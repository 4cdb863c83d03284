package cqrs

import (
	"github.com/eaglebank/ledger/shared/models"
	"github.com/shopspring/decimal"
)

type CreateAccountCommand struct {
	Owner       models.Owner
	AccountType models.AccountKind
}

// CreateAccountPairCommand opens one CHECKING and one SAVINGS account.
type CreateAccountPairCommand struct {
	Owner models.Owner
}

type DepositCommand struct {
	AccountNumber    string
	RequestingUserID string
	Amount           decimal.Decimal
	Description      string
}

type WithdrawCommand struct {
	AccountNumber    string
	RequestingUserID string
	Amount           decimal.Decimal
	Description      string
}

type TransferCommand struct {
	FromAccountNumber string
	ToAccountNumber   string
	RequestingUserID  string
	Amount            decimal.Decimal
	Description       string
}

// DeleteAccountCommand is issued by the admin collaborator. It cascades to the
// account's transactions.
type DeleteAccountCommand struct {
	AccountNumber string
}

type DeleteUserAccountsCommand struct {
	UserID string
}
