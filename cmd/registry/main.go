package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/lib/pq"

	"github.com/selivandex/agent-registry/internal/adapters/clickhouse"
	"github.com/selivandex/agent-registry/internal/adapters/config"
	"github.com/selivandex/agent-registry/internal/adapters/database"
	"github.com/selivandex/agent-registry/internal/adapters/naming"
	"github.com/selivandex/agent-registry/internal/adapters/oracle"
	redisAdapter "github.com/selivandex/agent-registry/internal/adapters/redis"
	"github.com/selivandex/agent-registry/internal/adapters/swap"
	"github.com/selivandex/agent-registry/internal/adapters/telegram"
	"github.com/selivandex/agent-registry/internal/events"
	"github.com/selivandex/agent-registry/internal/health"
	"github.com/selivandex/agent-registry/internal/owners"
	"github.com/selivandex/agent-registry/internal/registry"
	"github.com/selivandex/agent-registry/internal/workers"
	"github.com/selivandex/agent-registry/pkg/logger"
	"github.com/selivandex/agent-registry/pkg/worker"
)

func main() {
	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// Run application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration and initialize logger
	cfg, err := initConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Agent Registry starting...")

	// Initialize core infrastructure
	db, redisClient, err := initInfrastructure(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer redisClient.Close()

	// Initialize oracle (HTTP client plus optional websocket stream)
	oracleClient, priceStream := initOracle(cfg, redisClient)
	if priceStream != nil {
		defer priceStream.Close()
	}

	// Initialize subname registrar
	registrar, err := initNaming(ctx, cfg)
	if err != nil {
		return err
	}

	// Initialize event sinks
	ownerRepo := owners.NewRepository(db)
	bus, notifier, chRepo := initEvents(cfg, redisClient, ownerRepo)
	if chRepo != nil {
		defer chRepo.Close()
	}

	// Assemble the registry core
	store := registry.NewPGStore(db)
	engine := registry.NewEngine(store, oracleClient, cfg.Oracle.MaxPriceAge)
	svc := registry.NewService(store, engine, registrar, bus)

	// Initialize swap venue
	venue, err := initSwapVenue(cfg)
	if err != nil {
		return err
	}

	// Start the trigger monitor
	workerGroup := worker.NewWorkerGroup(ctx)
	lockFactory := redisClient.GetLockFactory(cfg.Workers.LockTTL)
	triggerWorker := workers.NewTriggerWorker(svc, store, lockFactory, priceStream, venue)
	workerGroup.Add(triggerWorker, cfg.Workers.TriggerInterval)
	workerGroup.Start()

	// Start health server
	healthServer := startHealthServer(cfg, db, redisClient, store)

	// Start Telegram bot for owner management
	startTelegramBot(ctx, notifier, svc, ownerRepo)

	// Wait for shutdown signal
	<-ctx.Done()

	// Perform graceful shutdown
	return performGracefulShutdown(healthServer, workerGroup, db, redisClient)
}

// initConfig loads configuration and initializes logger
func initConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, nil
}

// initInfrastructure initializes database and Redis connections
func initInfrastructure(cfg *config.Config) (*database.DB, *redisAdapter.Client, error) {
	db, err := initDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}

	redisClient, err := initRedis(cfg)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	return db, redisClient, nil
}

// initDatabase initializes database connection with sqlx
func initDatabase(cfg *config.Config) (*database.DB, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run migrations
	if err := database.RunMigrations(db.Conn(), cfg.Database.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("database connection established (sqlx)",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name),
	)

	return db, nil
}

// initRedis initializes Redis client with Redlock support
func initRedis(cfg *config.Config) (*redisAdapter.Client, error) {
	redisClient, err := redisAdapter.New(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	// Test connection
	if err := redisClient.Health(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("redis health check failed: %w", err)
	}

	logger.Info("redis connection established (redlock)",
		zap.String("host", cfg.Redis.Host),
		zap.Int("port", cfg.Redis.Port),
	)

	return redisClient, nil
}

// initOracle initializes the price oracle client and optional stream
func initOracle(cfg *config.Config, redisClient *redisAdapter.Client) (*oracle.HermesClient, *oracle.Stream) {
	client := oracle.NewHermesClient(&cfg.Oracle, redisClient)

	if !cfg.Oracle.StreamOn {
		logger.Info("oracle stream disabled, using HTTP polling only")
		return client, nil
	}

	stream := oracle.NewStream(cfg.Oracle.WSEndpoint, client)
	if err := stream.Connect(); err != nil {
		// The HTTP path still works; the stream keeps retrying
		logger.Warn("oracle stream connection failed, will reconnect", zap.Error(err))
	}

	return client, stream
}

// initNaming initializes the subname registrar
func initNaming(ctx context.Context, cfg *config.Config) (registry.SubnameRegistrar, error) {
	if !cfg.Naming.Enabled {
		logger.Info("on-chain naming disabled, using local registrar",
			zap.String("parent_name", cfg.Naming.ParentName),
		)
		return naming.NewLocalRegistrar(cfg.Naming.ParentName), nil
	}

	registrar, err := naming.NewENSRegistrar(ctx, &cfg.Naming)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize naming registrar: %w", err)
	}

	logger.Info("on-chain naming registrar initialized",
		zap.String("parent_name", cfg.Naming.ParentName),
		zap.String("registrar", cfg.Naming.Registrar),
	)
	return registrar, nil
}

// initEvents wires the event bus and its sinks
func initEvents(cfg *config.Config, redisClient *redisAdapter.Client, ownerRepo *owners.Repository) (*events.Bus, *telegram.Notifier, *clickhouse.Repository) {
	bus := events.NewBus(events.NewLogSink())
	bus.AddSink(events.NewRedisSink(redisClient, cfg.Events.RedisChannel))

	var chRepo *clickhouse.Repository
	if cfg.ClickHouse.Enabled {
		repo, err := clickhouse.NewRepository(cfg.ClickHouse.DSN)
		if err != nil {
			logger.Warn("clickhouse not available, execution history disabled", zap.Error(err))
		} else {
			chRepo = repo
			bus.AddSink(clickhouse.NewSink(repo))
		}
	}

	var notifier *telegram.Notifier
	if cfg.Telegram.BotToken != "" {
		n, err := telegram.NewNotifier(&cfg.Telegram, ownerRepo)
		if err != nil {
			logger.Warn("failed to initialize telegram notifier", zap.Error(err))
		} else {
			notifier = n
			bus.AddSink(n)
		}
	}

	return bus, notifier, chRepo
}

// initSwapVenue initializes the venue that executes swaps after triggers
func initSwapVenue(cfg *config.Config) (swap.Venue, error) {
	if !cfg.Swap.Enabled {
		logger.Info("swap venue disabled, executions will be recorded only")
		return nil, nil
	}

	venue, err := swap.NewBinanceVenue(&cfg.Swap)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize swap venue: %w", err)
	}

	logger.Info("swap venue initialized",
		zap.String("venue", venue.GetName()),
		zap.Bool("testnet", cfg.Swap.Testnet),
	)
	return venue, nil
}

// startHealthServer initializes and starts health check server for K8s probes
func startHealthServer(cfg *config.Config, db *database.DB, redisClient *redisAdapter.Client, store registry.Store) *health.Server {
	healthServer := health.NewServer(cfg.Health.Port, db, redisClient, store)

	go func() {
		if err := healthServer.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", zap.Error(err))
		}
	}()

	logger.Info("Agent Registry ready",
		zap.String("health_port", cfg.Health.Port),
	)

	// Mark service as ready after initialization
	healthServer.SetReady(true)

	return healthServer
}

// startTelegramBot starts the owner command bot when a notifier exists
func startTelegramBot(ctx context.Context, notifier *telegram.Notifier, svc *registry.Service, ownerRepo *owners.Repository) {
	if notifier == nil {
		logger.Info("telegram bot disabled (no token provided)")
		return
	}

	bot := telegram.NewBot(notifier.API(), svc, ownerRepo)
	go func() {
		if err := bot.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("telegram bot error", zap.Error(err))
		}
	}()

	logger.Info("telegram bot started for agent management")
}

// performGracefulShutdown handles graceful shutdown of all components
func performGracefulShutdown(healthServer *health.Server, workerGroup *worker.WorkerGroup, db *database.DB, redisClient *redisAdapter.Client) error {
	logger.Info("shutdown signal received, starting graceful shutdown...")

	// Mark service as not ready (stop accepting new traffic)
	healthServer.SetReady(false)

	// Create shutdown context with timeout (K8s gives 30s terminationGracePeriodSeconds)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer shutdownCancel()

	// Stop workers first so nothing mutates state mid-shutdown
	workerGroup.Stop(10 * time.Second)

	// Close database connection
	logger.Info("closing database connection...")
	if err := db.Close(); err != nil {
		logger.Error("database close error", zap.Error(err))
	}

	// Close redis connection
	logger.Info("closing redis connection...")
	if err := redisClient.Close(); err != nil {
		logger.Error("redis close error", zap.Error(err))
	}

	// Stop health server
	logger.Info("stopping health server...")
	if err := healthServer.Stop(shutdownCtx); err != nil {
		logger.Error("health server stop error", zap.Error(err))
	}

	// Sync logger
	logger.Sync()

	logger.Info("shutdown completed successfully")
	return nil
}
