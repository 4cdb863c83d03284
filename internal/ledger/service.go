package ledger

import (
	"context"
	"fmt"

	"github.com/eaglebank/ledger/shared/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Service applies deposits, withdrawals and transfers against a Store.
//
// Every mutating call holds the per-account locks of the accounts it touches
// for the whole read-modify-write, and performs the balance write together with
// the log append inside one Store.Atomically unit. Two-account operations lock
// in ascending account-number order.
type Service struct {
	store   Store
	numbers NumberGenerator
	locks   *accountLocks
	log     *logrus.Logger
}

func NewService(store Store, numbers NumberGenerator, log *logrus.Logger) *Service {
	return &Service{
		store:   store,
		numbers: numbers,
		locks:   newAccountLocks(),
		log:     log,
	}
}

// CreateAccount opens an empty account of the given kind for owner.
func (s *Service) CreateAccount(ctx context.Context, owner models.Owner, kind models.AccountKind) (*models.Account, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}

	var created *models.Account
	err := s.store.Atomically(ctx, func(tx Tx) error {
		number, err := nextAccountNumber(ctx, s.numbers, tx.Accounts())
		if err != nil {
			return err
		}
		account := &models.Account{
			AccountNumber: number,
			UserID:        owner.ID,
			AccountType:   kind,
			HolderName:    owner.FullName,
			Balance:       decimal.Zero,
			InterestRate:  decimal.Zero,
		}
		if err := tx.Accounts().Put(ctx, account); err != nil {
			return err
		}
		created = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"account_number": created.AccountNumber,
		"user_id":        owner.ID,
		"account_type":   kind,
	}).Info("account created")
	return created, nil
}

// CreateBothAccounts opens a CHECKING and then a SAVINGS account. The two
// creations are independent: if the second fails the first is kept and
// returned together with the error.
func (s *Service) CreateBothAccounts(ctx context.Context, owner models.Owner) ([]models.Account, error) {
	accounts := make([]models.Account, 0, 2)
	for _, kind := range []models.AccountKind{models.Checking, models.Savings} {
		account, err := s.CreateAccount(ctx, owner, kind)
		if err != nil {
			if len(accounts) > 0 {
				s.log.WithFields(logrus.Fields{
					"user_id":        owner.ID,
					"account_number": accounts[0].AccountNumber,
				}).WithError(err).Warn("account pair only partially created")
			}
			return accounts, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, nil
}

// Deposit credits amount to the account. The first funding of a savings
// account fixes its interest tier.
func (s *Service) Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(accountNumber)
	defer unlock()

	var result *models.Transaction
	err := s.store.Atomically(ctx, func(tx Tx) error {
		account, err := tx.Accounts().Get(ctx, accountNumber)
		if err != nil {
			return err
		}

		wasZero := account.Balance.IsZero()
		account.Balance = account.Balance.Add(amount)
		if account.AccountType == models.Savings && wasZero && !account.RateAssigned() {
			account.InterestRate = RateForInitialDeposit(amount)
			s.log.WithFields(logrus.Fields{
				"account_number": accountNumber,
				"rate":           account.InterestRate.String(),
			}).Info("savings tier assigned")
		}

		if err := tx.Accounts().Put(ctx, account); err != nil {
			return err
		}
		rec, err := tx.Transactions().Append(ctx, &models.Transaction{
			AccountNumber: accountNumber,
			Type:          models.Deposit,
			Amount:        amount,
			Description:   description,
		})
		if err != nil {
			return err
		}
		rec.Account = account
		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logApplied(result)
	return result, nil
}

// Withdraw debits amount from the account. The balance never goes negative.
func (s *Service) Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(accountNumber)
	defer unlock()

	var result *models.Transaction
	err := s.store.Atomically(ctx, func(tx Tx) error {
		account, err := tx.Accounts().Get(ctx, accountNumber)
		if err != nil {
			return err
		}
		if amount.GreaterThan(account.Balance) {
			return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, account.Balance, amount)
		}

		account.Balance = account.Balance.Sub(amount)
		if err := tx.Accounts().Put(ctx, account); err != nil {
			return err
		}
		rec, err := tx.Transactions().Append(ctx, &models.Transaction{
			AccountNumber: accountNumber,
			Type:          models.Withdrawal,
			Amount:        amount,
			Description:   description,
		})
		if err != nil {
			return err
		}
		rec.Account = account
		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logApplied(result)
	return result, nil
}

// Transfer moves amount between two accounts and records a single TRANSFER
// transaction attributed to the source account.
func (s *Service) Transfer(ctx context.Context, fromAccountNumber, toAccountNumber string, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if fromAccountNumber == toAccountNumber {
		return nil, ErrSameAccount
	}

	unlock := s.locks.lock(fromAccountNumber, toAccountNumber)
	defer unlock()

	var result *models.Transaction
	err := s.store.Atomically(ctx, func(tx Tx) error {
		loaded, err := loadInOrder(ctx, tx.Accounts(), fromAccountNumber, toAccountNumber)
		if err != nil {
			return err
		}
		from, to := loaded[fromAccountNumber], loaded[toAccountNumber]
		if amount.GreaterThan(from.Balance) {
			return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, from.Balance, amount)
		}

		from.Balance = from.Balance.Sub(amount)
		to.Balance = to.Balance.Add(amount)
		for _, number := range sortedUnique([]string{fromAccountNumber, toAccountNumber}) {
			if err := tx.Accounts().Put(ctx, loaded[number]); err != nil {
				return err
			}
		}

		rec, err := tx.Transactions().Append(ctx, &models.Transaction{
			AccountNumber:             fromAccountNumber,
			Type:                      models.Transfer,
			Amount:                    amount,
			Description:               description,
			CounterpartyAccountNumber: toAccountNumber,
		})
		if err != nil {
			return err
		}
		rec.Account = from
		result = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logApplied(result)
	return result, nil
}

// GetAccount returns the current state of one account.
func (s *Service) GetAccount(ctx context.Context, accountNumber string) (*models.Account, error) {
	return s.store.Accounts().Get(ctx, accountNumber)
}

// GetTransactionHistory returns the account's transactions, newest first.
func (s *Service) GetTransactionHistory(ctx context.Context, accountNumber string) ([]models.Transaction, error) {
	if _, err := s.store.Accounts().Get(ctx, accountNumber); err != nil {
		return nil, err
	}
	history, err := s.store.Transactions().ListForAccount(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []models.Transaction{}
	}
	return history, nil
}

// GetUserAccounts returns every account held by the given user.
func (s *Service) GetUserAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	accounts, err := s.store.Accounts().ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

func (s *Service) logApplied(t *models.Transaction) {
	fields := logrus.Fields{
		"transaction_id": t.ID,
		"account_number": t.AccountNumber,
		"type":           t.Type,
		"amount":         t.Amount.String(),
		"balance":        t.Account.Balance.String(),
	}
	if t.CounterpartyAccountNumber != "" {
		fields["counterparty"] = t.CounterpartyAccountNumber
	}
	s.log.WithFields(fields).Info("ledger operation applied")
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s must be greater than zero", ErrInvalidAmount, amount)
	}
	return nil
}

// loadInOrder reads the accounts in ascending number order so stores that
// take row locks on read acquire them in the same order as accountLocks.
func loadInOrder(ctx context.Context, accounts AccountStore, numbers ...string) (map[string]*models.Account, error) {
	out := make(map[string]*models.Account, len(numbers))
	for _, number := range sortedUnique(numbers) {
		account, err := accounts.Get(ctx, number)
		if err != nil {
			return nil, err
		}
		out[number] = account
	}
	return out, nil
}
