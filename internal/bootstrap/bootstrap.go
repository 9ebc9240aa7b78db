// Package bootstrap wires configuration into the stores, fetch backends and outbox shared by the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/wellness/internal/config"
	"example.com/wellness/internal/domain"
	"example.com/wellness/internal/fetch/browser"
	"example.com/wellness/internal/fetch/garminapi"
	"example.com/wellness/internal/logging"
	"example.com/wellness/internal/outbox"
	"example.com/wellness/internal/persistence/memory"
	"example.com/wellness/internal/persistence/postgres"
	"example.com/wellness/internal/persistence/sqlstore"
	"example.com/wellness/internal/pipeline"
)

// Logger builds the program logger from cfg.
func Logger(program string, cfg config.Config) (*slog.Logger, io.Closer, error) {
	return logging.New(program, logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		Console:    cfg.LogConsole,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
}

// Storage is an opened store. Pool is set only for the postgres driver.
type Storage struct {
	Store domain.Store
	Pool  *pgxpool.Pool
	close func() error
}

// Close releases the underlying connections.
func (s *Storage) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore connects the store selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg config.Config) (*Storage, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		var opts []postgres.Option
		if len(cfg.KafkaBrokers) == 0 {
			opts = append(opts, postgres.WithoutOutbox())
		}
		return &Storage{
			Store: postgres.NewStore(pool, opts...),
			Pool:  pool,
			close: func() error { pool.Close(); return nil },
		}, nil
	case config.DriverSQLite, config.DriverMySQL:
		open := func() (*sqlstore.Store, error) {
			if cfg.StoreDriver == config.DriverMySQL {
				db, err := sqlstore.OpenMySQL(cfg.MySQLDSN)
				if err != nil {
					return nil, err
				}
				return sqlstore.New(ctx, db)
			}
			db, err := sqlstore.OpenSQLite(cfg.DatabasePath)
			if err != nil {
				return nil, err
			}
			return sqlstore.New(ctx, db)
		}
		store, err := open()
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
		}
		return &Storage{Store: store, close: store.Close}, nil
	case config.DriverMemory:
		return &Storage{Store: memory.New()}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// Remote is a fetch backend that can also reclassify activities.
type Remote interface {
	pipeline.Fetcher
	pipeline.Reclassifier
}

// NewRemote builds the fetch backend selected by cfg.FetchBackend. The returned func shuts it down.
func NewRemote(cfg config.Config, logger *slog.Logger, showUI bool) (Remote, func(), error) {
	switch cfg.FetchBackend {
	case config.BackendBrowser:
		f := browser.New(browser.Config{
			BaseURL:     cfg.BaseURL,
			Email:       cfg.SigninEmail,
			Password:    cfg.SigninPassword,
			DisplayName: cfg.DisplayName,
			ShowUI:      showUI,
			Attempts:    cfg.FetchAttempts,
			RetryDelay:  cfg.FetchRetry,
		}, browser.WithLogger(logger))
		return f, f.Close, nil
	case config.BackendAPI:
		c := garminapi.New(cfg.BaseURL, cfg.DisplayName, cfg.APIToken,
			garminapi.WithLogger(logger),
			garminapi.WithRetry(cfg.FetchAttempts, cfg.FetchRetry))
		return c, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown fetch backend %q", cfg.FetchBackend)
	}
}

// NewService builds the pipeline service with the configured reclassification rules.
func NewService(store domain.Store, remote pipeline.Reclassifier, cfg config.Config, logger *slog.Logger) *pipeline.Service {
	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithReclassifyTimeout(cfg.ReclassifyTimeout, cfg.ReclassifyPoll),
	}
	if remote != nil {
		opts = append(opts, pipeline.WithReclassifier(remote, cfg.ReclassifyRules...))
	}
	return pipeline.NewService(store, opts...)
}

// NewDispatcher returns the outbox dispatcher and a closer for its Kafka writers. It returns nil when
// Kafka is not configured or the store has no outbox.
func NewDispatcher(cfg config.Config, storage *Storage, logger *slog.Logger) (*outbox.Dispatcher, func() error) {
	if len(cfg.KafkaBrokers) == 0 || storage.Pool == nil {
		return nil, func() error { return nil }
	}
	producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
	registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
	d := outbox.NewDispatcher(storage.Pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize,
		outbox.WithLogger(logger))
	return d, producer.Close
}
