package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountKind string

const (
	Checking AccountKind = "CHECKING"
	Savings  AccountKind = "SAVINGS"
)

// Valid reports whether k is one of the supported account kinds. The tokens
// are case-sensitive.
func (k AccountKind) Valid() bool {
	return k == Checking || k == Savings
}

type TransactionType string

const (
	Deposit    TransactionType = "DEPOSIT"
	Withdrawal TransactionType = "WITHDRAWAL"
	Transfer   TransactionType = "TRANSFER"
)

// Owner is the identity supplied by the external user service. The ledger only
// references it; it never stores users.
type Owner struct {
	ID       string
	FullName string
}

type Account struct {
	AccountNumber           string          `json:"accountNumber"`
	UserID                  string          `json:"-"`
	AccountType             AccountKind     `json:"accountType"`
	HolderName              string          `json:"accountHolderName"`
	Balance                 decimal.Decimal `json:"balance"`
	InterestRate            decimal.Decimal `json:"interestRate"`
	CreatedAt               time.Time       `json:"createdTimestamp"`
	UpdatedAt               time.Time       `json:"updatedTimestamp"`
	LastInterestCalculation time.Time       `json:"lastInterestCalculation"`
}

// RateAssigned reports whether the savings tier has already been fixed.
// Every tier is non-zero, so a zero rate means "not yet assigned".
func (a *Account) RateAssigned() bool {
	return !a.InterestRate.IsZero()
}

type Transaction struct {
	ID                        int64           `json:"id"`
	AccountNumber             string          `json:"accountNumber"`
	Type                      TransactionType `json:"type"`
	Amount                    decimal.Decimal `json:"amount"`
	Description               string          `json:"description,omitempty"`
	CounterpartyAccountNumber string          `json:"counterpartyAccountNumber,omitempty"`
	CreatedAt                 time.Time       `json:"createdTimestamp"`

	// Account is the post-operation snapshot of the account the transaction
	// is attributed to. It is populated on the mutating paths only.
	Account *Account `json:"account,omitempty"`
}
