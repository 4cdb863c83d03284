package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	AccountCreated = "account.created"
	AccountDeleted = "account.deleted"

	TransactionCreated = "transaction.created"
	BalanceUpdated     = "balance.updated"
)

// LedgerEventsStream carries every event the ledger emits.
const LedgerEventsStream = "ledger.events"

// Base event structure
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Account events
type AccountCreatedEvent struct {
	AccountNumber string `json:"accountNumber"`
	UserID        string `json:"userId"`
	HolderName    string `json:"accountHolderName"`
	AccountType   string `json:"accountType"`
}

type AccountDeletedEvent struct {
	AccountNumber       string `json:"accountNumber"`
	UserID              string `json:"userId,omitempty"`
	RemovedTransactions int    `json:"removedTransactions"`
}

// Transaction events. Amounts travel as decimal strings.
type TransactionCreatedEvent struct {
	TransactionID             int64           `json:"transactionId"`
	AccountNumber             string          `json:"accountNumber"`
	UserID                    string          `json:"userId"`
	Amount                    decimal.Decimal `json:"amount"`
	Type                      string          `json:"type"`
	CounterpartyAccountNumber string          `json:"counterpartyAccountNumber,omitempty"`
}

type BalanceUpdatedEvent struct {
	AccountNumber string          `json:"accountNumber"`
	NewBalance    decimal.Decimal `json:"newBalance"`
	Change        decimal.Decimal `json:"change"`
}
