package main

import (
	"context"
	"errors"
	"github.com/ariefcatur/bookstore-orders/internal/config"
	"github.com/ariefcatur/bookstore-orders/internal/httpx"
	kafkax "github.com/ariefcatur/bookstore-orders/internal/kafka"
	"github.com/ariefcatur/bookstore-orders/internal/memstore"
	"github.com/ariefcatur/bookstore-orders/internal/notify"
	"github.com/ariefcatur/bookstore-orders/internal/orders"
	"github.com/ariefcatur/bookstore-orders/internal/postgres"
	"github.com/ariefcatur/bookstore-orders/internal/redisx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})).
		With("service", cfg.ServiceName)
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	var store orders.Store
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("using in-memory store; data is lost on exit")
		store = memstore.New()
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresConns)
		if err != nil {
			log.Error("db connect", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if cfg.Migrate {
			if err := postgres.Migrate(db); err != nil {
				log.Error("db migrate", "err", err)
				os.Exit(1)
			}
		}
		store = &orders.Repo{DB: db}
	}

	// Redis
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, continuing", "addr", cfg.RedisAddr, "err", err)
		}
	}

	// Notifications
	publisher, closePublisher, err := newPublisher(cfg, rdb, log)
	if err != nil {
		log.Error("notify", "driver", cfg.NotifyDriver, "err", err)
		os.Exit(1)
	}
	emitter := &notify.Emitter{
		Publisher: publisher,
		Driver:    cfg.NotifyDriver,
		Event:     cfg.NotifyEvent,
		Channel:   cfg.NotifyChannel,
		Producer:  cfg.ServiceName,
		Log:       log,
	}

	svc := &orders.Service{Store: store, Notifier: emitter, Log: log}
	router := httpx.NewRouter(log)
	oh := &httpx.OrdersHandler{Service: svc, Redis: rdb, Log: log}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver, "notify", cfg.NotifyDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("listen", "err", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	emitter.Wait()   // in-flight notifications
	closePublisher() // flush producer
}

func newPublisher(cfg config.Config, rdb *redis.Client, log *slog.Logger) (notify.Publisher, func(), error) {
	switch cfg.NotifyDriver {
	case "kafka":
		prod := kafkax.NewProducer(cfg.KafkaBrokers, cfg.NotifyChannel, 1024, log)
		prod.Start()
		return &notify.KafkaPublisher{Producer: prod}, func() {
			prod.Close()
			prod.WaitClosed()
		}, nil
	case "redis":
		return &notify.RedisPublisher{Redis: rdb}, func() {}, nil
	case "amqp":
		p, err := notify.DialAMQP(cfg.AMQPURL, cfg.NotifyChannel)
		if err != nil {
			return nil, nil, err
		}
		return p, func() { _ = p.Close() }, nil
	default:
		return &notify.LogPublisher{Log: log}, func() {}, nil
	}
}
