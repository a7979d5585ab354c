package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/urbanharvest/vending-api/internal/cache"
	"github.com/urbanharvest/vending-api/internal/config"
	"github.com/urbanharvest/vending-api/internal/database"
	"github.com/urbanharvest/vending-api/internal/events"
	"github.com/urbanharvest/vending-api/internal/events/rabbitmq"
	"github.com/urbanharvest/vending-api/internal/logging"
	"github.com/urbanharvest/vending-api/internal/router"
	"github.com/urbanharvest/vending-api/internal/ws"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	// Redis catalog cache (optional)
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// Reads fall back to Postgres while Redis is unreachable.
			log.Warn("redis unreachable at startup", "err", err)
		}
	} else {
		log.Info("REDIS_URL not set, catalog cache disabled")
	}
	catalogCache := cache.New(rdb, cfg.CatalogCacheTTL, log)

	// Websocket hub
	hub := ws.NewHub(log, cfg.AllowedOrigins)
	go hub.Run(ctx)

	publishers := events.Multi{hub}

	// RabbitMQ event publisher (optional)
	if cfg.AMQPURL != "" {
		conn, ch, err := rabbitmq.SetupConn(ctx, cfg.AMQPURL, cfg.AMQPExchange, log)
		if err != nil {
			return err
		}
		defer conn.Close()
		defer ch.Close()
		publishers = append(publishers, rabbitmq.NewPublisher(ch, cfg.AMQPExchange))
		log.Info("publishing events to rabbitmq", "exchange", cfg.AMQPExchange)
	} else {
		log.Info("AMQP_URL not set, broker events disabled")
	}

	if cfg.CurrentMachineID != uuid.Nil {
		log.Info("single-machine routes enabled", "machine_id", cfg.CurrentMachineID)
	}

	r := router.New(cfg, router.Deps{
		Pool:      pool,
		Queries:   database.New(pool),
		Cache:     catalogCache,
		Hub:       hub,
		Publisher: publishers,
		Logger:    log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server shutdown complete")
	return nil
}
