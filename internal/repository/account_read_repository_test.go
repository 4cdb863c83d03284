package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/eaglebank/ledger/internal/ledger"
	"github.com/eaglebank/ledger/shared/models"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type stubSource struct {
	accounts map[string]*models.Account
	gets     int
}

func (s *stubSource) GetAccount(_ context.Context, number string) (*models.Account, error) {
	s.gets++
	a, ok := s.accounts[number]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *stubSource) GetUserAccounts(_ context.Context, userID string) ([]models.Account, error) {
	var out []models.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestReadRepositoryWarmsCache(t *testing.T) {
	mr, client := newRedis(t)
	src := &stubSource{accounts: map[string]*models.Account{
		"001": {AccountNumber: "001", UserID: "usr-1", AccountType: models.Savings, Balance: decimal.RequireFromString("12.34"), InterestRate: decimal.RequireFromString("0.02")},
	}}
	repo := NewAccountReadRepository(src, client, time.Minute, quietLog())
	ctx := context.Background()

	first, err := repo.GetByAccountNumber(ctx, "001")
	if err != nil {
		t.Fatal(err)
	}
	if !mr.Exists(accountViewKeyPrefix + "001") {
		t.Fatalf("expected the view to be cached")
	}
	if ttl := mr.TTL(accountViewKeyPrefix + "001"); ttl != time.Minute {
		t.Errorf("expected a one minute TTL, got %s", ttl)
	}

	second, err := repo.GetByAccountNumber(ctx, "001")
	if err != nil {
		t.Fatal(err)
	}
	if src.gets != 1 {
		t.Errorf("expected one source read, got %d", src.gets)
	}
	// Owner survives the round trip through Redis.
	if second.UserID != "usr-1" || !second.Balance.Equal(first.Balance) || !second.InterestRate.Equal(first.InterestRate) {
		t.Errorf("cached view differs: %+v vs %+v", second, first)
	}

	repo.InvalidateAccountView(ctx, "001")
	if mr.Exists(accountViewKeyPrefix + "001") {
		t.Errorf("expected the view to be invalidated")
	}
}

func TestReadRepositoryNotFound(t *testing.T) {
	_, client := newRedis(t)
	repo := NewAccountReadRepository(&stubSource{accounts: map[string]*models.Account{}}, client, 0, quietLog())
	if _, err := repo.GetByAccountNumber(context.Background(), "404"); !errors.Is(err, ledger.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestReadRepositoryWithoutRedis(t *testing.T) {
	src := &stubSource{accounts: map[string]*models.Account{
		"001": {AccountNumber: "001", UserID: "usr-1"},
		"002": {AccountNumber: "002", UserID: "usr-2"},
	}}
	repo := NewAccountReadRepository(src, nil, 0, quietLog())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := repo.GetByAccountNumber(ctx, "001"); err != nil {
			t.Fatal(err)
		}
	}
	if src.gets != 2 {
		t.Errorf("expected every read to reach the source, got %d", src.gets)
	}
	repo.CacheAccountView(ctx, &models.AccountView{AccountNumber: "001"})
	repo.InvalidateAccountView(ctx, "001")

	views, err := repo.ListByUserID(ctx, "usr-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 || views[0].AccountNumber != "002" {
		t.Errorf("unexpected listing: %+v", views)
	}
}

func TestReadRepositoryFallsBackWhenRedisIsDown(t *testing.T) {
	mr, client := newRedis(t)
	src := &stubSource{accounts: map[string]*models.Account{"001": {AccountNumber: "001", UserID: "usr-1"}}}
	repo := NewAccountReadRepository(src, client, 0, quietLog())
	mr.Close()

	view, err := repo.GetByAccountNumber(context.Background(), "001")
	if err != nil {
		t.Fatalf("expected the ledger to answer, got %v", err)
	}
	if view.AccountNumber != "001" {
		t.Errorf("unexpected view: %+v", view)
	}
}
