package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eaglebank/ledger/internal/ledger"
	"github.com/eaglebank/ledger/shared/models"
)

// MemoryStore keeps accounts and transactions in process memory. Writes made
// inside Atomically are staged on a memoryTx and applied under the store mutex
// only when the unit succeeds, so a failed unit leaves no trace.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*models.Account
	order    []string
	history  map[string][]models.Transaction
	seq      atomic.Int64
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(func() time.Time { return time.Now().UTC() })
}

func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]*models.Account),
		history:  make(map[string][]models.Transaction),
		now:      now,
	}
}

// Accounts returns an auto-committing view; each write is its own unit.
func (s *MemoryStore) Accounts() ledger.AccountStore { return s.autoTx() }

func (s *MemoryStore) Transactions() ledger.TransactionLog { return s.autoTx() }

func (s *MemoryStore) Atomically(ctx context.Context, fn func(tx ledger.Tx) error) error {
	t := s.begin()
	if err := fn(t); err != nil {
		return err
	}
	return t.commit()
}

func (s *MemoryStore) Administer(ctx context.Context, fn func(tx ledger.AdminTx) error) error {
	t := s.begin()
	if err := fn(t); err != nil {
		return err
	}
	return t.commit()
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]models.Account, error) {
	return s.begin().list(func(*models.Account) bool { return true }), nil
}

func (s *MemoryStore) begin() *memoryTx {
	return &memoryTx{
		s:               s,
		staged:          make(map[string]*models.Account),
		deletedAccounts: make(map[string]bool),
		deletedTxns:     make(map[int64]string),
	}
}

func (s *MemoryStore) autoTx() *memoryTx {
	t := s.begin()
	t.auto = true
	return t
}

type memoryTx struct {
	s               *MemoryStore
	auto            bool
	staged          map[string]*models.Account
	stagedOrder     []string
	appended        []models.Transaction
	deletedAccounts map[string]bool
	deletedTxns     map[int64]string
}

func (t *memoryTx) Accounts() ledger.AccountStore       { return t }
func (t *memoryTx) Transactions() ledger.TransactionLog { return t }

func (t *memoryTx) Get(ctx context.Context, accountNumber string) (*models.Account, error) {
	a, ok := t.lookup(accountNumber)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, accountNumber)
	}
	cp := *a
	return &cp, nil
}

func (t *memoryTx) ExistsByNumber(ctx context.Context, accountNumber string) (bool, error) {
	_, ok := t.lookup(accountNumber)
	return ok, nil
}

func (t *memoryTx) Put(ctx context.Context, account *models.Account) error {
	now := t.s.now()
	cp := *account
	if existing, ok := t.lookup(account.AccountNumber); ok {
		if existing.UserID != account.UserID || existing.AccountType != account.AccountType {
			return fmt.Errorf("%w: account number %s already taken", ledger.ErrDuplicateIdentity, account.AccountNumber)
		}
		cp.CreatedAt = existing.CreatedAt
		cp.LastInterestCalculation = existing.LastInterestCalculation
	} else {
		cp.CreatedAt = now
		cp.LastInterestCalculation = now
		t.stagedOrder = append(t.stagedOrder, account.AccountNumber)
	}
	cp.UpdatedAt = now

	t.staged[account.AccountNumber] = &cp
	delete(t.deletedAccounts, account.AccountNumber)
	*account = cp
	return t.flush()
}

func (t *memoryTx) ListByOwner(ctx context.Context, userID string) ([]models.Account, error) {
	return t.list(func(a *models.Account) bool { return a.UserID == userID }), nil
}

func (t *memoryTx) Append(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	if _, ok := t.lookup(txn.AccountNumber); !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, txn.AccountNumber)
	}
	rec := *txn
	rec.Account = nil
	rec.ID = t.s.seq.Add(1)
	rec.CreatedAt = t.s.now()
	t.appended = append(t.appended, rec)

	out := rec
	return &out, t.flush()
}

func (t *memoryTx) ListForAccount(ctx context.Context, accountNumber string) ([]models.Transaction, error) {
	t.s.mu.RLock()
	base := t.s.history[accountNumber]
	out := make([]models.Transaction, 0, len(base)+len(t.appended))
	for _, rec := range base {
		if _, gone := t.deletedTxns[rec.ID]; !gone {
			out = append(out, rec)
		}
	}
	t.s.mu.RUnlock()

	for _, rec := range t.appended {
		if rec.AccountNumber == accountNumber {
			if _, gone := t.deletedTxns[rec.ID]; !gone {
				out = append(out, rec)
			}
		}
	}

	// IDs are drawn under the account lock, so they follow append order even
	// when the wall clock steps backwards.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (t *memoryTx) DeleteTransaction(ctx context.Context, accountNumber string, id int64) error {
	t.deletedTxns[id] = accountNumber
	return t.flush()
}

func (t *memoryTx) DeleteAccount(ctx context.Context, accountNumber string) error {
	if _, ok := t.lookup(accountNumber); !ok {
		return fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, accountNumber)
	}
	remaining, _ := t.ListForAccount(ctx, accountNumber)
	if len(remaining) > 0 {
		return fmt.Errorf("%w: %s has %d", ledger.ErrAccountHasActivity, accountNumber, len(remaining))
	}
	delete(t.staged, accountNumber)
	t.deletedAccounts[accountNumber] = true
	return t.flush()
}

func (t *memoryTx) lookup(accountNumber string) (*models.Account, bool) {
	if t.deletedAccounts[accountNumber] {
		return nil, false
	}
	if a, ok := t.staged[accountNumber]; ok {
		return a, true
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	a, ok := t.s.accounts[accountNumber]
	return a, ok
}

// list returns copies of matching accounts in creation order, staged
// accounts that are new to the store last.
func (t *memoryTx) list(match func(*models.Account) bool) []models.Account {
	out := []models.Account{}
	t.s.mu.RLock()
	seen := make(map[string]bool, len(t.s.order))
	for _, number := range t.s.order {
		seen[number] = true
		if t.deletedAccounts[number] {
			continue
		}
		a := t.s.accounts[number]
		if staged, ok := t.staged[number]; ok {
			a = staged
		}
		if match(a) {
			out = append(out, *a)
		}
	}
	t.s.mu.RUnlock()

	for _, number := range t.stagedOrder {
		a, ok := t.staged[number]
		if !ok || seen[number] || t.deletedAccounts[number] {
			continue
		}
		if match(a) {
			out = append(out, *a)
		}
	}
	return out
}

func (t *memoryTx) flush() error {
	if !t.auto {
		return nil
	}
	if err := t.commit(); err != nil {
		return err
	}
	*t = *t.s.autoTx()
	return nil
}

func (t *memoryTx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for number, a := range t.staged {
		if _, ok := s.accounts[number]; !ok {
			s.order = append(s.order, number)
		}
		s.accounts[number] = a
	}
	for _, rec := range t.appended {
		s.history[rec.AccountNumber] = append(s.history[rec.AccountNumber], rec)
	}
	if len(t.deletedTxns) > 0 {
		for id, number := range t.deletedTxns {
			kept := s.history[number][:0]
			for _, rec := range s.history[number] {
				if rec.ID != id {
					kept = append(kept, rec)
				}
			}
			s.history[number] = kept
		}
	}
	for number := range t.deletedAccounts {
		delete(s.accounts, number)
		delete(s.history, number)
		for i, n := range s.order {
			if n == number {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	return nil
}
