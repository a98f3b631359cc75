package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"free-shipping-lab/internal/config"
	"free-shipping-lab/internal/logging"
	"free-shipping-lab/internal/storage"
	chstore "free-shipping-lab/internal/storage/clickhouse"
	"free-shipping-lab/internal/storage/memory"
	"free-shipping-lab/internal/storage/migrations"
	"free-shipping-lab/internal/storage/postgres"
)

// Stores bundles the storage backends a run writes to.
type Stores struct {
	Orders   storage.OrderStore
	Outcomes storage.OutcomeStore
	Results  storage.ResultStore
	Runs     storage.RunStore

	closers []func()
}

// MemoryStores returns stores that live for the duration of the process.
func MemoryStores() *Stores {
	return &Stores{
		Orders:   memory.NewOrderStore(),
		Outcomes: memory.NewOutcomeStore(),
		Results:  memory.NewResultStore(),
		Runs:     memory.NewRunStore(),
	}
}

// OpenStores connects the configured databases. PostgreSQL backs orders,
// outcomes and runs; ClickHouse backs test results. Anything without a DSN
// stays in memory. With migrate set, schema migrations run first.
func OpenStores(ctx context.Context, cfg config.StorageConfig, migrate bool, logger *zap.Logger) (*Stores, error) {
	logger = logging.OrNop(logger)
	s := MemoryStores()

	if cfg.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		if migrate {
			applied, err := migrations.ApplyPostgres(ctx, pool.Pool)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("postgres migrations: %w", err)
			}
			logger.Info("postgres migrations applied", zap.Strings("versions", applied))
		}
		s.Orders = postgres.NewOrderStore(pool)
		s.Outcomes = postgres.NewOutcomeStore(pool)
		s.Runs = postgres.NewRunStore(pool)
		logger.Info("postgres storage enabled")
	}

	if cfg.ClickhouseDSN != "" {
		if migrate {
			if err := chstore.EnsureDatabase(ctx, cfg.ClickhouseDSN); err != nil {
				s.Close()
				return nil, err
			}
		}
		conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect clickhouse: %w", err)
		}
		s.closers = append(s.closers, func() { _ = conn.Close() })
		if migrate {
			applied, err := migrations.ApplyClickhouse(ctx, conn)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("clickhouse migrations: %w", err)
			}
			logger.Info("clickhouse migrations applied", zap.Strings("versions", applied))
		}
		s.Results = chstore.NewResultStore(conn)
		logger.Info("clickhouse storage enabled")
	}

	return s, nil
}

// Close releases database connections.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
