package ledger

import (
	"context"

	"github.com/eaglebank/ledger/shared/models"
	"github.com/sirupsen/logrus"
)

// Administrator carries out the admin collaborator's destructive requests. It
// shares the service's account locks so a cascade never interleaves with a
// deposit, withdrawal or transfer on the same account.
type Administrator struct {
	svc   *Service
	store AdminStore
}

func NewAdministrator(svc *Service, store AdminStore) *Administrator {
	return &Administrator{svc: svc, store: store}
}

func (a *Administrator) ListAccounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := a.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

// DeleteAccount removes the account's transactions and then the account, in
// one atomic unit. It returns how many transactions were removed.
func (a *Administrator) DeleteAccount(ctx context.Context, accountNumber string) (int, error) {
	unlock := a.svc.locks.lock(accountNumber)
	defer unlock()

	removed := 0
	err := a.store.Administer(ctx, func(tx AdminTx) error {
		if _, err := tx.Accounts().Get(ctx, accountNumber); err != nil {
			return err
		}
		history, err := tx.Transactions().ListForAccount(ctx, accountNumber)
		if err != nil {
			return err
		}
		for _, t := range history {
			if err := tx.DeleteTransaction(ctx, accountNumber, t.ID); err != nil {
				return err
			}
		}
		removed = len(history)
		return tx.DeleteAccount(ctx, accountNumber)
	})
	if err != nil {
		return 0, err
	}

	a.svc.log.WithFields(logrus.Fields{
		"account_number":       accountNumber,
		"removed_transactions": removed,
	}).Warn("account deleted")
	return removed, nil
}

// Removal reports one account taken out by an admin cascade.
type Removal struct {
	AccountNumber string `json:"accountNumber"`
	Transactions  int    `json:"removedTransactions"`
}

// DeleteUserAccounts cascades DeleteAccount over every account of one holder.
// It stops at the first failure; accounts removed before it stay removed and
// are still reported.
func (a *Administrator) DeleteUserAccounts(ctx context.Context, userID string) ([]Removal, error) {
	accounts, err := a.store.Accounts().ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	removed := make([]Removal, 0, len(accounts))
	for _, account := range accounts {
		n, err := a.DeleteAccount(ctx, account.AccountNumber)
		if err != nil {
			return removed, err
		}
		removed = append(removed, Removal{AccountNumber: account.AccountNumber, Transactions: n})
	}
	return removed, nil
}
