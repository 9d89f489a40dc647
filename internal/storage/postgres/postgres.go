// Package postgres persists player combat state in PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/combatcore/internal/config"
)

// applicationName tags combat daemon sessions in pg_stat_activity.
const applicationName = "combatcore"

// requiredTables are the tables the combat repositories read and write.
var requiredTables = []string{"combat_state"}

// ErrSchemaMissing is returned by SchemaReady when migrations have not been
// applied.
var ErrSchemaMissing = errors.New("combat schema missing; run cmd/migrate")

// Pool is the combat daemon's connection pool.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to the database described by cfg.
//
// Precondition: cfg must contain valid database connection parameters.
// Postcondition: Returns a connected Pool or a non-nil error.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &Pool{pool: pool}, nil
}

// SchemaReady reports whether every table the combat repositories need
// exists.
//
// Postcondition: Returns an error wrapping ErrSchemaMissing naming the first
// absent table, or nil.
func (p *Pool) SchemaReady(ctx context.Context) error {
	for _, table := range requiredTables {
		var present bool
		if err := p.pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&present); err != nil {
			return fmt.Errorf("checking table %s: %w", table, err)
		}
		if !present {
			return fmt.Errorf("table %s: %w", table, ErrSchemaMissing)
		}
	}
	return nil
}

// Health checks that the database answers within timeout.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.pool.Ping(ctx)
}

// Watch runs Health every interval until ctx is cancelled. Failures are
// logged, and the first success after a failure is logged as recovery.
//
// Postcondition: Returns ctx.Err().
func (p *Pool) Watch(ctx context.Context, interval, timeout time.Duration, logger *zap.Logger) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	healthy := true
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			err := p.Health(ctx, timeout)
			switch {
			case err != nil && ctx.Err() == nil:
				healthy = false
				logger.Warn("database health check failed", zap.Error(err))
			case err == nil && !healthy:
				healthy = true
				logger.Info("database reachable again")
			}
		}
	}
}

// Close releases all pool resources.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool for repositories.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
