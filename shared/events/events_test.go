package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestPublishWritesEnvelope(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	p := NewPublisher(client, 0)

	err := p.Publish(ctx, LedgerEventsStream, BalanceUpdated, BalanceUpdatedEvent{
		AccountNumber: "001",
		NewBalance:    decimal.RequireFromString("100.10"),
		Change:        decimal.RequireFromString("-0.20"),
	})
	if err != nil {
		t.Fatal(err)
	}

	msgs, err := client.XRange(ctx, LedgerEventsStream, "-", "+").Result()
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}

	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			NewBalance string `json:"newBalance"`
			Change     string `json:"change"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(msgs[0].Values["event"].(string)), &raw); err != nil {
		t.Fatal(err)
	}
	if raw.ID == "" || raw.Type != BalanceUpdated {
		t.Errorf("unexpected envelope: %+v", raw)
	}
	// Amounts travel as exact decimal strings.
	if raw.Data.NewBalance != "100.1" || raw.Data.Change != "-0.2" {
		t.Errorf("unexpected amounts: %+v", raw.Data)
	}
}

func TestPublishCapsStream(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	p := NewPublisher(client, 5)
	for i := 0; i < 20; i++ {
		if err := p.Publish(ctx, LedgerEventsStream, AccountCreated, AccountCreatedEvent{AccountNumber: "001"}); err != nil {
			t.Fatal(err)
		}
	}
	n, err := client.XLen(ctx, LedgerEventsStream).Result()
	if err != nil {
		t.Fatal(err)
	}
	if n > 20 || n < 5 {
		t.Errorf("unexpected stream length %d", n)
	}
}

func TestSubscriberDeliversAndAcks(t *testing.T) {
	client := newTestClient(t)
	log := logrus.New()
	log.SetOutput(io.Discard)

	var (
		mu       sync.Mutex
		received []AccountCreatedEvent
	)
	got := make(chan struct{}, 2)
	handler := func(ctx context.Context, event Event) error {
		var data AccountCreatedEvent
		if err := DecodeData(event, &data); err != nil {
			return err
		}
		mu.Lock()
		received = append(received, data)
		mu.Unlock()
		got <- struct{}{}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := NewSubscriber(client, SubscriberConfig{
		Group:         "test-group",
		Consumer:      "test-consumer",
		Stream:        LedgerEventsStream,
		Handler:       handler,
		BlockDuration: 50 * time.Millisecond,
		Logger:        log,
	})
	done := make(chan error, 1)
	go func() { done <- sub.Start(ctx) }()

	p := NewPublisher(client, 0)
	for _, n := range []string{"001", "002"} {
		if err := p.Publish(context.Background(), LedgerEventsStream, AccountCreated, AccountCreatedEvent{AccountNumber: n, AccountType: "SAVINGS"}); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < 2; i++ {
		select {
		case <-got:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if received[0].AccountNumber != "001" || received[1].AccountNumber != "002" {
		t.Errorf("unexpected delivery order: %+v", received)
	}

	pending, err := client.XPending(context.Background(), LedgerEventsStream, "test-group").Result()
	if err != nil {
		t.Fatal(err)
	}
	if pending.Count != 0 {
		t.Errorf("expected every message to be acked, %d pending", pending.Count)
	}
}

func TestSubscriberLeavesFailedMessagesPending(t *testing.T) {
	client := newTestClient(t)
	log := logrus.New()
	log.SetOutput(io.Discard)

	attempted := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := NewSubscriber(client, SubscriberConfig{
		Group:    "g",
		Consumer: "c",
		Stream:   LedgerEventsStream,
		Handler: func(context.Context, Event) error {
			select {
			case attempted <- struct{}{}:
			default:
			}
			return errors.New("projection failed")
		},
		BlockDuration: 50 * time.Millisecond,
		Logger:        log,
	})
	go sub.Start(ctx)

	// The group reads from the start of the stream, so publishing before it
	// exists is fine.
	if err := NewPublisher(client, 0).Publish(context.Background(), LedgerEventsStream, AccountDeleted, AccountDeletedEvent{AccountNumber: "001"}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-attempted:
	case <-time.After(5 * time.Second):
		t.Fatal("handler never ran")
	}
	cancel()

	pending, err := client.XPending(context.Background(), LedgerEventsStream, "g").Result()
	if err != nil {
		t.Fatal(err)
	}
	if pending.Count != 1 {
		t.Errorf("expected the failed message to stay pending, got %d", pending.Count)
	}
}

func TestNopEmitter(t *testing.T) {
	var e Emitter = NopEmitter{}
	if err := e.Publish(context.Background(), LedgerEventsStream, AccountCreated, nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
