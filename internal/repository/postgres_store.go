package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/eaglebank/ledger/internal/ledger"
	"github.com/eaglebank/ledger/shared/models"
	"github.com/lib/pq"
)

const schema = `
	CREATE TABLE IF NOT EXISTS accounts (
		account_number            TEXT PRIMARY KEY,
		user_id                   TEXT NOT NULL,
		account_type              TEXT NOT NULL CHECK (account_type IN ('CHECKING', 'SAVINGS')),
		holder_name               TEXT NOT NULL,
		balance                   NUMERIC NOT NULL DEFAULT 0 CHECK (balance >= 0),
		interest_rate             NUMERIC NOT NULL DEFAULT 0,
		created_at                TIMESTAMPTZ NOT NULL,
		updated_at                TIMESTAMPTZ NOT NULL,
		last_interest_calculation TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS accounts_user_id_idx ON accounts (user_id);

	CREATE TABLE IF NOT EXISTS transactions (
		id                          BIGSERIAL PRIMARY KEY,
		account_number              TEXT NOT NULL REFERENCES accounts (account_number),
		type                        TEXT NOT NULL CHECK (type IN ('DEPOSIT', 'WITHDRAWAL', 'TRANSFER')),
		amount                      NUMERIC NOT NULL CHECK (amount > 0),
		description                 TEXT,
		counterparty_account_number TEXT,
		created_at                  TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS transactions_account_idx ON transactions (account_number, id DESC);
`

const accountColumns = `account_number, user_id, account_type, holder_name, balance, interest_rate, created_at, updated_at, last_interest_calculation`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore is the durable AccountStore/TransactionLog. Inside Atomically
// account reads take row locks (SELECT ... FOR UPDATE) so that several service
// instances sharing one database still serialise on the same account.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the tables if they are missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return classify(fmt.Errorf("failed to create schema: %w", err))
	}
	return nil
}

func (s *PostgresStore) Accounts() ledger.AccountStore       { return &pgUnit{q: s.db} }
func (s *PostgresStore) Transactions() ledger.TransactionLog { return &pgUnit{q: s.db} }

func (s *PostgresStore) Atomically(ctx context.Context, fn func(tx ledger.Tx) error) error {
	return s.inTx(ctx, func(u *pgUnit) error { return fn(u) })
}

func (s *PostgresStore) Administer(ctx context.Context, fn func(tx ledger.AdminTx) error) error {
	return s.inTx(ctx, func(u *pgUnit) error { return fn(u) })
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]models.Account, error) {
	u := &pgUnit{q: s.db}
	return u.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at, account_number`)
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(u *pgUnit) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	if err := fn(&pgUnit{q: tx, locking: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

type pgUnit struct {
	q       queryer
	locking bool
}

func (u *pgUnit) Accounts() ledger.AccountStore       { return u }
func (u *pgUnit) Transactions() ledger.TransactionLog { return u }

func (u *pgUnit) Get(ctx context.Context, accountNumber string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	if u.locking {
		query += ` FOR UPDATE`
	}
	var a models.Account
	err := scanAccount(u.q.QueryRowContext(ctx, query, accountNumber), &a)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, accountNumber)
	}
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get account: %w", err))
	}
	return &a, nil
}

func (u *pgUnit) ExistsByNumber(ctx context.Context, accountNumber string) (bool, error) {
	var exists bool
	err := u.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_number = $1)`, accountNumber).Scan(&exists)
	if err != nil {
		return false, classify(fmt.Errorf("failed to check account number: %w", err))
	}
	return exists, nil
}

// Put inserts or updates the account. An existing row is only overwritten when
// it belongs to the same holder and kind; otherwise the number is taken.
func (u *pgUnit) Put(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW(), NOW())
		ON CONFLICT (account_number) DO UPDATE
		SET balance = EXCLUDED.balance,
		    interest_rate = EXCLUDED.interest_rate,
		    holder_name = EXCLUDED.holder_name,
		    updated_at = NOW()
		WHERE accounts.user_id = EXCLUDED.user_id AND accounts.account_type = EXCLUDED.account_type
		RETURNING created_at, updated_at, last_interest_calculation
	`
	err := u.q.QueryRowContext(ctx, query,
		account.AccountNumber, account.UserID, string(account.AccountType), account.HolderName,
		account.Balance, account.InterestRate,
	).Scan(&account.CreatedAt, &account.UpdatedAt, &account.LastInterestCalculation)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: account number %s already taken", ledger.ErrDuplicateIdentity, account.AccountNumber)
	}
	if err != nil {
		return classify(fmt.Errorf("failed to save account: %w", err))
	}
	return nil
}

func (u *pgUnit) ListByOwner(ctx context.Context, userID string) ([]models.Account, error) {
	return u.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY created_at, account_number`, userID)
}

func (u *pgUnit) Append(ctx context.Context, txn *models.Transaction) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions (account_number, type, amount, description, counterparty_account_number, created_at)
		VALUES ($1, $2, $3, $4, $5, clock_timestamp())
		RETURNING id, created_at
	`
	rec := *txn
	rec.Account = nil
	err := u.q.QueryRowContext(ctx, query,
		txn.AccountNumber, string(txn.Type), txn.Amount,
		nullString(txn.Description), nullString(txn.CounterpartyAccountNumber),
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to append transaction: %w", err))
	}
	return &rec, nil
}

func (u *pgUnit) ListForAccount(ctx context.Context, accountNumber string) ([]models.Transaction, error) {
	query := `
		SELECT id, account_number, type, amount, description, counterparty_account_number, created_at
		FROM transactions
		WHERE account_number = $1
		ORDER BY id DESC
	`
	rows, err := u.q.QueryContext(ctx, query, accountNumber)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list transactions: %w", err))
	}
	defer rows.Close()

	history := []models.Transaction{}
	for rows.Next() {
		var rec models.Transaction
		var txType string
		var description, counterparty sql.NullString
		if err := rows.Scan(&rec.ID, &rec.AccountNumber, &txType, &rec.Amount, &description, &counterparty, &rec.CreatedAt); err != nil {
			return nil, classify(fmt.Errorf("failed to scan transaction: %w", err))
		}
		rec.Type = models.TransactionType(txType)
		rec.Description = description.String
		rec.CounterpartyAccountNumber = counterparty.String
		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("failed to list transactions: %w", err))
	}
	return history, nil
}

func (u *pgUnit) DeleteTransaction(ctx context.Context, accountNumber string, id int64) error {
	_, err := u.q.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1 AND account_number = $2`, id, accountNumber)
	if err != nil {
		return classify(fmt.Errorf("failed to delete transaction: %w", err))
	}
	return nil
}

func (u *pgUnit) DeleteAccount(ctx context.Context, accountNumber string) error {
	result, err := u.q.ExecContext(ctx, `DELETE FROM accounts WHERE account_number = $1`, accountNumber)
	if err != nil {
		return classify(fmt.Errorf("failed to delete account: %w", err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, accountNumber)
	}
	return nil
}

func (u *pgUnit) queryAccounts(ctx context.Context, query string, args ...any) ([]models.Account, error) {
	rows, err := u.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list accounts: %w", err))
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := scanAccount(rows, &a); err != nil {
			return nil, classify(fmt.Errorf("failed to scan account: %w", err))
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("failed to list accounts: %w", err))
	}
	return accounts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner, a *models.Account) error {
	var kind string
	if err := row.Scan(
		&a.AccountNumber, &a.UserID, &kind, &a.HolderName,
		&a.Balance, &a.InterestRate,
		&a.CreatedAt, &a.UpdatedAt, &a.LastInterestCalculation,
	); err != nil {
		return err
	}
	a.AccountType = models.AccountKind(kind)
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// classify maps driver failures onto the ledger's error kinds. Errors it does
// not recognise are returned unchanged.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return fmt.Errorf("%w: %v", ledger.ErrDuplicateIdentity, err)
		case pqErr.Code == "23503":
			return fmt.Errorf("%w: %v", ledger.ErrAccountHasActivity, err)
		case pqErr.Code.Class() == "08", pqErr.Code.Class() == "57", pqErr.Code.Class() == "53":
			return fmt.Errorf("%w: %v", ledger.ErrTransientStorage, err)
		}
		return err
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", ledger.ErrTransientStorage, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ledger.ErrTransientStorage, err)
	}
	return err
}
