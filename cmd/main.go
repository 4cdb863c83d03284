package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eaglebank/ledger/internal/command"
	"github.com/eaglebank/ledger/internal/config"
	"github.com/eaglebank/ledger/internal/handler"
	"github.com/eaglebank/ledger/internal/ledger"
	"github.com/eaglebank/ledger/internal/query"
	"github.com/eaglebank/ledger/internal/repository"
	"github.com/eaglebank/ledger/shared/events"
	redisClient "github.com/eaglebank/ledger/shared/redis"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	log.SetLevel(cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Write store
	var store ledger.AdminStore
	if cfg.UsesPostgres() {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Fatal("failed to open database")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.WithError(err).Fatal("failed to ping database")
		}
		pg := repository.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.WithError(err).Fatal("failed to prepare schema")
		}
		store = pg
		log.Info("using postgres store")
	} else {
		store = repository.NewMemoryStore()
		log.Warn("DATABASE_URL not set, using in-memory store")
	}

	// Redis (read model + event streaming), optional
	var rdb *goredis.Client
	var publisher events.Emitter = events.NopEmitter{}
	if cfg.UsesRedis() {
		client, err := redisClient.NewClient(ctx, redisClient.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		defer client.Close()
		rdb = client.Client
		publisher = events.NewPublisher(rdb, cfg.StreamMaxLen)
	}

	numbers, err := ledger.NewSnowflakeNumbers(cfg.SnowflakeNode)
	if err != nil {
		log.WithError(err).Fatal("failed to create account number generator")
	}

	// --- CQRS wiring ---
	svc := ledger.NewService(store, numbers, log)
	admin := ledger.NewAdministrator(svc, store)
	readRepo := repository.NewAccountReadRepository(svc, rdb, cfg.CacheTTL, log)

	commandSvc := command.NewLedgerCommandService(svc, admin, readRepo, publisher, log)
	querySvc := query.NewLedgerQueryService(svc, admin, readRepo)

	router := handler.NewRouter(log, []byte(cfg.JWTSecret), handler.Handlers{
		Accounts:     handler.NewAccountHandler(commandSvc, querySvc),
		Transactions: handler.NewTransactionHandler(commandSvc, querySvc),
		Admin:        handler.NewAdminHandler(commandSvc, querySvc),
	})

	if rdb != nil {
		go func() {
			subscriber := events.NewSubscriber(rdb, events.SubscriberConfig{
				Group:    "ledger-read-model",
				Consumer: cfg.EventConsumer,
				Stream:   events.LedgerEventsStream,
				Handler:  commandSvc.HandleLedgerEvent,
				Logger:   log,
			})
			if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("subscriber stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("shutting down")
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("graceful shutdown failed")
		}
	}()

	log.WithField("port", cfg.Port).Info("ledger service starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Fatal("failed to start server")
	}
}
