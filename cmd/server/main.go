package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/Manpreetjohar10/chat-application/internal/app"
	"github.com/Manpreetjohar10/chat-application/internal/engine"
	httpx "github.com/Manpreetjohar10/chat-application/internal/http"
	"github.com/Manpreetjohar10/chat-application/internal/store"
	"github.com/Manpreetjohar10/chat-application/internal/ws"
	"github.com/Manpreetjohar10/chat-application/pkg/auth"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	logger := app.NewLogger(cfg.Env)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := engine.Options{
		TypingTTL: cfg.TypingTTL,
		Resume:    auth.New(cfg.JWTSecret),
	}

	// Optional postgres-backed bounded message history
	var history *store.History
	if cfg.PGURL != "" {
		pg, err := store.NewPostgres(ctx, cfg.PGURL, logger)
		if err != nil {
			logger.Error("postgres connect", "err", err)
			log.Fatal(err)
		}
		defer pg.Close()
		if err := store.RunMigrations(ctx, pg, logger); err != nil {
			logger.Error("migrations", "err", err)
			log.Fatal(err)
		}
		history = store.NewHistory(pg, logger, cfg.HistoryLimit)
		go history.Run(ctx)
		opts.History = history
	}

	// Optional redis: global identity uniqueness + cross-instance fanout
	var bus *ws.RedisBus
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("redis connect", "err", err)
			log.Fatal(err)
		}
		defer rdb.Close()
		bus = ws.NewRedisBus(rdb, logger)
		opts.Identity = store.NewRedisIdentity(rdb, logger)
		opts.Relay = bus
	}

	// Coordination engine + websocket hub
	eng := engine.New(logger, opts)
	go eng.Run(ctx)

	var reader ws.HistoryReader
	if history != nil {
		reader = history
	}
	hub := ws.NewHub(logger, eng, bus, reader, cfg.TypingRateLimit)
	go hub.Run(ctx)

	// HTTP + WS router
	router := httpx.NewRouter(cfg, logger, hub, eng)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("server.shutdown.start")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("server.shutdown.complete")
	_ = os.Stdout.Sync()
}
