package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"streampulse/internal/broadcast"
	"streampulse/internal/config"
	"streampulse/internal/logging"
	"streampulse/internal/postgres"
	"streampulse/internal/redis"
	"streampulse/internal/relay"
	"streampulse/internal/server"
	"streampulse/internal/session"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, manager *session.Manager, broadcaster *broadcast.Broadcaster) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		broadcaster.Stop()
		manager.Cleanup()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(context.Background(), cfg)
	defer func() { _ = redisClient.Close() }()

	pubsub := redis.NewPubSub(redisClient)
	streamRepo := postgres.NewStreamRepository(pool, pubsub)
	eventRepo := postgres.NewEventRepository(pool, pubsub)

	eventRelay := relay.New()

	// Realtime bridge: one subscription to both change channels for the
	// lifetime of the process.
	subscription := pubsub.Subscribe(context.Background())
	bridge := relay.NewBridge(eventRelay, subscription.Streams, subscription.Events, clock)

	manager := session.NewManager(streamRepo, eventRepo, eventRelay,
		session.LogFeedPublisher{}, session.LogFollowerNotifier{}, clock)
	manager.AttachBridge(closerFunc(func() error {
		if err := subscription.Close(); err != nil {
			slog.Warn("Failed to close realtime subscription", "error", err)
		}
		return bridge.Close()
	}))

	broadcaster := broadcast.NewBroadcaster(clock, cfg.MaxClientsPerStream)
	eventRelay.AddListener(broadcaster.HandleEvent)

	srv := server.NewServer(cfg, manager, broadcaster,
		func(ctx context.Context) error { return postgres.HealthCheck(ctx, pool) },
		redisClient.Ping,
	)

	done := runGracefulShutdown(srv, manager, broadcaster)

	if err := srv.Start(); err != nil {
		slog.Info("Server stopped", "reason", err)
	}

	<-done
	slog.Info("Shutdown complete")
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
