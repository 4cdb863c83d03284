package ledger

import (
	"context"

	"github.com/eaglebank/ledger/shared/models"
)

// AccountStore is a plain keyed store of accounts. It enforces no business
// rules. Put stamps CreatedAt/LastInterestCalculation on insert and refreshes
// UpdatedAt on every write, writing the stamps back into the argument.
type AccountStore interface {
	Get(ctx context.Context, accountNumber string) (*models.Account, error)
	Put(ctx context.Context, account *models.Account) error
	ListByOwner(ctx context.Context, userID string) ([]models.Account, error)
	ExistsByNumber(ctx context.Context, accountNumber string) (bool, error)
}

// TransactionLog is append-only from the ledger's point of view.
type TransactionLog interface {
	Append(ctx context.Context, txn *models.Transaction) (*models.Transaction, error)
	// ListForAccount returns the account's transactions newest first.
	ListForAccount(ctx context.Context, accountNumber string) ([]models.Transaction, error)
}

// Tx is the view of a store inside one atomic unit.
type Tx interface {
	Accounts() AccountStore
	Transactions() TransactionLog
}

// Store couples accounts and the log so that a balance write and the append
// describing it commit together. Accounts and Transactions outside Atomically
// are for reads.
type Store interface {
	Tx
	Atomically(ctx context.Context, fn func(tx Tx) error) error
}

// AdminTx adds the delete primitives the administrative cascade needs.
type AdminTx interface {
	Tx
	DeleteTransaction(ctx context.Context, accountNumber string, id int64) error
	DeleteAccount(ctx context.Context, accountNumber string) error
}

type AdminStore interface {
	Store
	ListAll(ctx context.Context) ([]models.Account, error)
	Administer(ctx context.Context, fn func(tx AdminTx) error) error
}
