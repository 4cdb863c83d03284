package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/eaglebank/ledger/internal/ledger"
	"github.com/eaglebank/ledger/internal/repository"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/events"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/sirupsen/logrus"
)

// LedgerCommandService runs write requests through the ledger and keeps the
// read model and the event stream in step with it.
type LedgerCommandService struct {
	ledger    *ledger.Service
	admin     *ledger.Administrator
	readRepo  *repository.AccountReadRepository
	publisher events.Emitter
	log       *logrus.Logger
}

func NewLedgerCommandService(
	svc *ledger.Service,
	admin *ledger.Administrator,
	readRepo *repository.AccountReadRepository,
	publisher events.Emitter,
	log *logrus.Logger,
) *LedgerCommandService {
	return &LedgerCommandService{
		ledger:    svc,
		admin:     admin,
		readRepo:  readRepo,
		publisher: publisher,
		log:       log,
	}
}

func (s *LedgerCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.Account, error) {
	account, err := s.ledger.CreateAccount(ctx, cmd.Owner, cmd.AccountType)
	if err != nil {
		return nil, err
	}
	s.accountCreated(ctx, account)
	return account, nil
}

// CreateAccountPair returns whatever was created even when it also returns an
// error, so the caller can report a partial result.
func (s *LedgerCommandService) CreateAccountPair(ctx context.Context, cmd cqrs.CreateAccountPairCommand) ([]models.Account, error) {
	accounts, err := s.ledger.CreateBothAccounts(ctx, cmd.Owner)
	for i := range accounts {
		s.accountCreated(ctx, &accounts[i])
	}
	return accounts, err
}

func (s *LedgerCommandService) Deposit(ctx context.Context, cmd cqrs.DepositCommand) (*models.Transaction, error) {
	if err := s.authorize(ctx, cmd.AccountNumber, cmd.RequestingUserID); err != nil {
		return nil, err
	}
	txn, err := s.ledger.Deposit(ctx, cmd.AccountNumber, cmd.Amount, cmd.Description)
	if err != nil {
		return nil, err
	}
	s.transactionApplied(ctx, txn, cmd.RequestingUserID)
	return txn, nil
}

func (s *LedgerCommandService) Withdraw(ctx context.Context, cmd cqrs.WithdrawCommand) (*models.Transaction, error) {
	if err := s.authorize(ctx, cmd.AccountNumber, cmd.RequestingUserID); err != nil {
		return nil, err
	}
	txn, err := s.ledger.Withdraw(ctx, cmd.AccountNumber, cmd.Amount, cmd.Description)
	if err != nil {
		return nil, err
	}
	s.transactionApplied(ctx, txn, cmd.RequestingUserID)
	return txn, nil
}

// Transfer requires the caller to own the source account only.
func (s *LedgerCommandService) Transfer(ctx context.Context, cmd cqrs.TransferCommand) (*models.Transaction, error) {
	if err := s.authorize(ctx, cmd.FromAccountNumber, cmd.RequestingUserID); err != nil {
		return nil, err
	}
	txn, err := s.ledger.Transfer(ctx, cmd.FromAccountNumber, cmd.ToAccountNumber, cmd.Amount, cmd.Description)
	if err != nil {
		return nil, err
	}
	s.transactionApplied(ctx, txn, cmd.RequestingUserID)

	s.readRepo.InvalidateAccountView(ctx, cmd.ToAccountNumber)
	to, err := s.ledger.GetAccount(ctx, cmd.ToAccountNumber)
	if err != nil {
		s.log.WithField("account_number", cmd.ToAccountNumber).WithError(err).Warn("failed to read transfer destination")
		return txn, nil
	}
	s.publish(ctx, events.BalanceUpdated, events.BalanceUpdatedEvent{
		AccountNumber: to.AccountNumber,
		NewBalance:    to.Balance,
		Change:        cmd.Amount,
	})
	return txn, nil
}

// DeleteAccount is the admin cascade; it returns how many transactions went
// with the account.
func (s *LedgerCommandService) DeleteAccount(ctx context.Context, cmd cqrs.DeleteAccountCommand) (int, error) {
	account, err := s.ledger.GetAccount(ctx, cmd.AccountNumber)
	if err != nil {
		return 0, err
	}
	removed, err := s.admin.DeleteAccount(ctx, cmd.AccountNumber)
	if err != nil {
		return 0, err
	}
	s.accountDeleted(ctx, cmd.AccountNumber, account.UserID, removed)
	return removed, nil
}

func (s *LedgerCommandService) DeleteUserAccounts(ctx context.Context, cmd cqrs.DeleteUserAccountsCommand) ([]ledger.Removal, error) {
	removed, err := s.admin.DeleteUserAccounts(ctx, cmd.UserID)
	for _, r := range removed {
		s.accountDeleted(ctx, r.AccountNumber, cmd.UserID, r.Transactions)
	}
	return removed, err
}

// HandleLedgerEvent projects stream events onto the read model. Every branch
// is safe to repeat, so redelivered events need no bookkeeping.
func (s *LedgerCommandService) HandleLedgerEvent(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.AccountCreated:
		var data events.AccountCreatedEvent
		if err := events.DecodeData(event, &data); err != nil {
			return err
		}
		return s.refreshView(ctx, data.AccountNumber)
	case events.BalanceUpdated:
		var data events.BalanceUpdatedEvent
		if err := events.DecodeData(event, &data); err != nil {
			return err
		}
		return s.refreshView(ctx, data.AccountNumber)
	case events.AccountDeleted:
		var data events.AccountDeletedEvent
		if err := events.DecodeData(event, &data); err != nil {
			return err
		}
		s.readRepo.InvalidateAccountView(ctx, data.AccountNumber)
		return nil
	default:
		s.log.WithFields(logrus.Fields{"event_id": event.ID, "type": event.Type}).Debug("event ignored")
		return nil
	}
}

func (s *LedgerCommandService) refreshView(ctx context.Context, accountNumber string) error {
	account, err := s.ledger.GetAccount(ctx, accountNumber)
	if errors.Is(err, ledger.ErrAccountNotFound) {
		s.readRepo.InvalidateAccountView(ctx, accountNumber)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to refresh account view: %w", err)
	}
	s.readRepo.CacheAccountView(ctx, models.AccountToView(account))
	return nil
}

func (s *LedgerCommandService) authorize(ctx context.Context, accountNumber, userID string) error {
	view, err := s.readRepo.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		return err
	}
	if view.UserID != userID {
		return fmt.Errorf("%w: account %s", cqrs.ErrForbidden, accountNumber)
	}
	return nil
}

func (s *LedgerCommandService) accountCreated(ctx context.Context, account *models.Account) {
	s.readRepo.CacheAccountView(ctx, models.AccountToView(account))
	s.publish(ctx, events.AccountCreated, events.AccountCreatedEvent{
		AccountNumber: account.AccountNumber,
		UserID:        account.UserID,
		HolderName:    account.HolderName,
		AccountType:   string(account.AccountType),
	})
}

func (s *LedgerCommandService) accountDeleted(ctx context.Context, accountNumber, userID string, removed int) {
	s.readRepo.InvalidateAccountView(ctx, accountNumber)
	s.publish(ctx, events.AccountDeleted, events.AccountDeletedEvent{
		AccountNumber:       accountNumber,
		UserID:              userID,
		RemovedTransactions: removed,
	})
}

// transactionApplied runs after the account lock is released, so a late
// snapshot can overwrite a newer view; the balance.updated projector
// re-reads the ledger and makes the read model eventually consistent.
func (s *LedgerCommandService) transactionApplied(ctx context.Context, txn *models.Transaction, userID string) {
	s.readRepo.CacheAccountView(ctx, models.AccountToView(txn.Account))
	s.publish(ctx, events.TransactionCreated, events.TransactionCreatedEvent{
		TransactionID:             txn.ID,
		AccountNumber:             txn.AccountNumber,
		UserID:                    userID,
		Amount:                    txn.Amount,
		Type:                      string(txn.Type),
		CounterpartyAccountNumber: txn.CounterpartyAccountNumber,
	})

	change := txn.Amount
	if txn.Type != models.Deposit {
		change = change.Neg()
	}
	s.publish(ctx, events.BalanceUpdated, events.BalanceUpdatedEvent{
		AccountNumber: txn.AccountNumber,
		NewBalance:    txn.Account.Balance,
		Change:        change,
	})
}

// publish never fails the request; the ledger is already committed.
func (s *LedgerCommandService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.LedgerEventsStream, eventType, data); err != nil {
		s.log.WithField("event_type", eventType).WithError(err).Error("failed to publish event")
	}
}
