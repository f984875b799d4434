package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bills/internal/amqp"
	"bills/internal/cache"
	"bills/internal/core"
	"bills/internal/memory"
	"bills/internal/ports"
	"bills/internal/services"
	"bills/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the store, the optional AMQP publisher and the summary
// cache, and wires them into a BillService.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var cleanups []func() error
	cleanup := func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			errs = append(errs, cleanups[i]())
		}
		return errors.Join(errs...)
	}

	store, closeStore, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		cleanups = append(cleanups, closeStore)
	}

	summaries, closeCache := f.createCache(ctx, config)
	if closeCache != nil {
		cleanups = append(cleanups, closeCache)
	}

	var (
		amqpClient *amqp.Client
		publisher  services.Publisher
	)
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			amqpClient = nil
		} else {
			publisher = amqpClient
			cleanups = append(cleanups, amqpClient.Close)
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	f.logger.Info("Initialized backend",
		"type", config.Type,
		"amqp_enabled", amqpClient != nil,
		"redis_enabled", config.RedisURL != "")

	return &BackendResult{
		Service: services.NewBillService(store, publisher, summaries),
		Store:   store,
		AMQP:    amqpClient,
		Cleanup: cleanup,
	}, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (ports.Store, func() error, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		if err := seedBudget(ctx, repo, config); err != nil {
			repo.Close()
			return nil, nil, err
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, repo.Close, nil

	case MemoryBackend:
		var store *memory.Store
		if config.SeedFile != "" {
			store = memory.NewFromFile(config.SeedFile, config.Budget)
		} else {
			store = memory.New(config.Budget)
		}
		f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)
		return store, nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// seedBudget stores the configured default budget while none has been set.
func seedBudget(ctx context.Context, repo *storage.SQLiteRepository, config Config) error {
	if config.Budget.IsZero() {
		return nil
	}
	current, err := repo.Budget(ctx)
	if err != nil {
		return fmt.Errorf("load budget: %w", err)
	}
	if !current.IsZero() {
		return nil
	}
	return repo.SetBudget(ctx, config.Budget)
}

func (f *DefaultFactory) createCache(ctx context.Context, config Config) (cache.Cache[core.BudgetSummary], func() error) {
	ttl := config.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	if config.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, config.RedisURL)
		if err == nil {
			return cache.NewRedisCache[core.BudgetSummary](client, "bills", ttl), client.Close
		}
		f.logger.Warn("Redis unavailable", "error", err)
	}

	// billsctl and the web server write the same SQLite file, and an
	// in-process cache would never see the other side's writes.
	if config.Type == SQLiteBackend {
		return nil, nil
	}

	lru := cache.NewLRUCache[core.BudgetSummary](config.CacheSize, ttl)
	if config.CacheCleanup <= 0 {
		return lru, nil
	}
	mgr := cache.NewManager()
	mgr.Register(lru)
	mgr.StartCleanup(config.CacheCleanup)
	return lru, func() error {
		mgr.Stop()
		return nil
	}
}
