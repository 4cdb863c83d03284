package query

import (
	"context"
	"fmt"

	"github.com/eaglebank/ledger/internal/ledger"
	"github.com/eaglebank/ledger/internal/repository"
	"github.com/eaglebank/ledger/shared/cqrs"
	"github.com/eaglebank/ledger/shared/models"
)

type LedgerQueryService struct {
	ledger   *ledger.Service
	admin    *ledger.Administrator
	readRepo *repository.AccountReadRepository
}

func NewLedgerQueryService(svc *ledger.Service, admin *ledger.Administrator, readRepo *repository.AccountReadRepository) *LedgerQueryService {
	return &LedgerQueryService{ledger: svc, admin: admin, readRepo: readRepo}
}

// GetAccount fetches a single account view and enforces ownership.
func (s *LedgerQueryService) GetAccount(ctx context.Context, q cqrs.GetAccountQuery) (*models.AccountView, error) {
	view, err := s.readRepo.GetByAccountNumber(ctx, q.AccountNumber)
	if err != nil {
		return nil, err
	}
	// The AccountView carries UserID (json:"-") for this check.
	if view.UserID != q.RequestingUserID {
		return nil, fmt.Errorf("%w: account %s", cqrs.ErrForbidden, q.AccountNumber)
	}
	return view, nil
}

func (s *LedgerQueryService) ListAccounts(ctx context.Context, q cqrs.ListAccountsQuery) ([]models.AccountView, error) {
	return s.readRepo.ListByUserID(ctx, q.UserID)
}

func (s *LedgerQueryService) ListAllAccounts(ctx context.Context, _ cqrs.ListAllAccountsQuery) ([]models.AccountView, error) {
	accounts, err := s.admin.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]models.AccountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, *models.AccountToView(&accounts[i]))
	}
	return views, nil
}

// AdminGetAccount reads the account from the ledger, bypassing ownership.
func (s *LedgerQueryService) AdminGetAccount(ctx context.Context, q cqrs.AdminGetAccountQuery) (*models.AccountView, error) {
	account, err := s.ledger.GetAccount(ctx, q.AccountNumber)
	if err != nil {
		return nil, err
	}
	return models.AccountToView(account), nil
}

func (s *LedgerQueryService) AdminListUserAccounts(ctx context.Context, q cqrs.AdminListUserAccountsQuery) ([]models.AccountView, error) {
	accounts, err := s.ledger.GetUserAccounts(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	views := make([]models.AccountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, *models.AccountToView(&accounts[i]))
	}
	return views, nil
}

// ListTransactions returns the account's history, newest first, to its owner.
func (s *LedgerQueryService) ListTransactions(ctx context.Context, q cqrs.ListTransactionsQuery) ([]models.TransactionView, error) {
	if _, err := s.GetAccount(ctx, cqrs.GetAccountQuery{
		AccountNumber:    q.AccountNumber,
		RequestingUserID: q.RequestingUserID,
	}); err != nil {
		return nil, err
	}
	history, err := s.ledger.GetTransactionHistory(ctx, q.AccountNumber)
	if err != nil {
		return nil, err
	}
	views := make([]models.TransactionView, 0, len(history))
	for i := range history {
		views = append(views, models.TransactionToView(&history[i]))
	}
	return views, nil
}
