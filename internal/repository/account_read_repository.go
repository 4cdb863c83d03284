package repository

import (
	"context"
	"time"

	"github.com/eaglebank/ledger/shared/models"
	sharedredis "github.com/eaglebank/ledger/shared/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const accountViewKeyPrefix = "ledger:account:view:"

// accountCacheEntry is the Redis representation of an account. Unlike
// models.AccountView it serialises UserID so ownership checks can be made from
// the cache alone.
type accountCacheEntry struct {
	AccountNumber string             `json:"accountNumber"`
	UserID        string             `json:"userId"`
	AccountType   models.AccountKind `json:"accountType"`
	HolderName    string             `json:"accountHolderName"`
	Balance       decimal.Decimal    `json:"balance"`
	InterestRate  decimal.Decimal    `json:"interestRate"`
	CreatedAt     time.Time          `json:"createdTimestamp"`
	UpdatedAt     time.Time          `json:"updatedTimestamp"`
}

// AccountSource is the authoritative side the read model falls back to.
type AccountSource interface {
	GetAccount(ctx context.Context, accountNumber string) (*models.Account, error)
	GetUserAccounts(ctx context.Context, userID string) ([]models.Account, error)
}

// AccountReadRepository serves account views from Redis when it can and from
// the ledger otherwise, warming the cache on every cold read. With no Redis
// client it is a plain pass-through.
type AccountReadRepository struct {
	source AccountSource
	cache  *sharedredis.ViewCache[accountCacheEntry]
}

func NewAccountReadRepository(source AccountSource, redisClient *goredis.Client, ttl time.Duration, log *logrus.Logger) *AccountReadRepository {
	r := &AccountReadRepository{source: source}
	if redisClient != nil {
		r.cache = sharedredis.NewViewCache[accountCacheEntry](redisClient, accountViewKeyPrefix, ttl, log)
	}
	return r
}

func cacheEntryToView(e *accountCacheEntry) *models.AccountView {
	return &models.AccountView{
		AccountNumber: e.AccountNumber,
		UserID:        e.UserID,
		AccountType:   e.AccountType,
		HolderName:    e.HolderName,
		Balance:       e.Balance,
		InterestRate:  e.InterestRate,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

// GetByAccountNumber returns an AccountView, trying Redis first.
func (r *AccountReadRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*models.AccountView, error) {
	if r.cache != nil {
		if entry, ok := r.cache.Get(ctx, accountNumber); ok {
			return cacheEntryToView(entry), nil
		}
	}

	account, err := r.source.GetAccount(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	view := models.AccountToView(account)
	r.CacheAccountView(ctx, view)
	return view, nil
}

// ListByUserID always reads the ledger; per-user listings are not cached.
func (r *AccountReadRepository) ListByUserID(ctx context.Context, userID string) ([]models.AccountView, error) {
	accounts, err := r.source.GetUserAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]models.AccountView, 0, len(accounts))
	for i := range accounts {
		views = append(views, *models.AccountToView(&accounts[i]))
	}
	return views, nil
}

// CacheAccountView stores or refreshes the read model entry for an account.
func (r *AccountReadRepository) CacheAccountView(ctx context.Context, view *models.AccountView) {
	if r.cache == nil {
		return
	}
	r.cache.Set(ctx, view.AccountNumber, &accountCacheEntry{
		AccountNumber: view.AccountNumber,
		UserID:        view.UserID,
		AccountType:   view.AccountType,
		HolderName:    view.HolderName,
		Balance:       view.Balance,
		InterestRate:  view.InterestRate,
		CreatedAt:     view.CreatedAt,
		UpdatedAt:     view.UpdatedAt,
	})
}

// InvalidateAccountView drops the read model entry for an account.
func (r *AccountReadRepository) InvalidateAccountView(ctx context.Context, accountNumber string) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, accountNumber)
}
