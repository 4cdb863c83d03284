package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountView is the read-optimised projection of an account.
// UserID is populated for ownership checks but never serialised to the API response.
type AccountView struct {
	AccountNumber string          `json:"accountNumber"`
	UserID        string          `json:"-"`
	AccountType   AccountKind     `json:"accountType"`
	HolderName    string          `json:"accountHolderName"`
	Balance       decimal.Decimal `json:"balance"`
	InterestRate  decimal.Decimal `json:"interestRate"`
	CreatedAt     time.Time       `json:"createdTimestamp"`
	UpdatedAt     time.Time       `json:"updatedTimestamp"`
}

// TransactionView is what the presentation layer receives for history listings.
type TransactionView struct {
	ID                        int64           `json:"id"`
	AccountNumber             string          `json:"accountNumber"`
	Type                      TransactionType `json:"type"`
	Amount                    decimal.Decimal `json:"amount"`
	Description               string          `json:"description,omitempty"`
	CounterpartyAccountNumber string          `json:"counterpartyAccountNumber,omitempty"`
	CreatedAt                 time.Time       `json:"createdTimestamp"`
}

func AccountToView(a *Account) *AccountView {
	return &AccountView{
		AccountNumber: a.AccountNumber,
		UserID:        a.UserID,
		AccountType:   a.AccountType,
		HolderName:    a.HolderName,
		Balance:       a.Balance,
		InterestRate:  a.InterestRate,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func TransactionToView(t *Transaction) TransactionView {
	return TransactionView{
		ID:                        t.ID,
		AccountNumber:             t.AccountNumber,
		Type:                      t.Type,
		Amount:                    t.Amount,
		Description:               t.Description,
		CounterpartyAccountNumber: t.CounterpartyAccountNumber,
		CreatedAt:                 t.CreatedAt,
	}
}
