package main

import (
	"context"
	"errors"
	"github.com/ariefcatur/bookstore-orders/internal/config"
	"github.com/ariefcatur/bookstore-orders/internal/dashboard"
	kafkax "github.com/ariefcatur/bookstore-orders/internal/kafka"
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
	name := cfg.ServiceName + "-dashboard"
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})).
		With("service", name)
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redisx.New(cfg.RedisAddr)
		defer rdb.Close()
	}

	hub := dashboard.NewHub(log)
	svc := &dashboard.Service{
		Hub:         hub,
		Redis:       rdb,
		Event:       cfg.NotifyEvent,
		ServiceName: name,
		Log:         log,
	}

	var src dashboard.Source
	switch cfg.NotifyDriver {
	case "kafka":
		src = &dashboard.KafkaSource{
			Consumer: kafkax.NewConsumer(cfg.KafkaBrokers, cfg.DashboardGroup, cfg.NotifyChannel, cfg.DashboardWorkers, log),
		}
	case "redis":
		src = &dashboard.RedisSource{Redis: rdb, Channel: cfg.NotifyChannel, Log: log}
	case "amqp":
		src = &dashboard.AMQPSource{URL: cfg.AMQPURL, Exchange: cfg.NotifyChannel, RoutingKey: cfg.NotifyEvent, Log: log}
	default:
		log.Warn("NOTIFY_DRIVER=log has nothing to subscribe to; the live feed stays empty")
	}

	if src != nil {
		go func() {
			log.Info("subscribed", "driver", cfg.NotifyDriver, "channel", cfg.NotifyChannel, "event", cfg.NotifyEvent)
			if err := src.Run(ctx, svc.Handle); err != nil {
				log.Error("subscription ended", "err", err)
				cancel()
			}
		}()
	}

	router := dashboard.NewRouter(hub, dashboard.NewReviewer(cfg.APIBaseURL), log)
	srv := &http.Server{Addr: cfg.DashboardAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("dashboard listening", "addr", cfg.DashboardAddr, "api", cfg.APIBaseURL)
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
	log.Info("shutting down dashboard")
	cancel()

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	hub.Close()
}
