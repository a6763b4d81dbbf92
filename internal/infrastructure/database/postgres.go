package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"library-backend/internal/config"
)

// ErrUnavailable signals a connectivity or durability failure, as opposed to
// the data being rejected. Callers should treat it as "retry later".
var ErrUnavailable = errors.New("storage unavailable")

// IsUnavailable reports whether err is a connection-level failure rather than
// a constraint or not-found condition.
func IsUnavailable(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var pgErr *pgconn.PgError
	// Class 08 - connection exceptions, 57 - operator intervention (shutdown).
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		return pgErr.Code[:2] == "08" || pgErr.Code[:2] == "57"
	}
	return false
}

// PostgresDB manages the connection pool lifecycle.
type PostgresDB struct {
	Pool   *pgxpool.Pool
	Config *config.DatabaseConfig
}

func NewPostgresDB(cfg *config.DatabaseConfig) *PostgresDB {
	return &PostgresDB{Config: cfg}
}

func (db *PostgresDB) connString() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		db.Config.User,
		db.Config.Password,
		db.Config.Host,
		db.Config.Port,
		db.Config.Database,
		db.Config.SSLMode,
	)
}

// Connect establishes the pool with retry and exponential backoff, then
// applies the schema migration.
func (db *PostgresDB) Connect(ctx context.Context) error {
	poolCfg, err := pgxpool.ParseConfig(db.connString())
	if err != nil {
		return fmt.Errorf("failed to parse database config: %w", err)
	}

	poolCfg.MaxConns = int32(db.Config.MaxConns)
	poolCfg.MinConns = int32(db.Config.MinConns)
	poolCfg.ConnConfig.ConnectTimeout = db.Config.ConnectTimeout

	pool, err := db.connectWithRetry(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	db.Pool = pool

	if err := db.migrate(ctx); err != nil {
		pool.Close()
		db.Pool = nil
		return err
	}

	log.Info().
		Str("host", db.Config.Host).
		Str("database", db.Config.Database).
		Msg("PostgreSQL connection established")
	return nil
}

func (db *PostgresDB) connectWithRetry(ctx context.Context, cfg *pgxpool.Config) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var lastErr error

	for attempt := 1; attempt <= db.Config.MaxRetries; attempt++ {
		connectCtx, cancel := context.WithTimeout(ctx, db.Config.ConnectTimeout)
		pool, lastErr = pgxpool.NewWithConfig(connectCtx, cfg)
		cancel()

		if lastErr == nil {
			if err := pool.Ping(ctx); err != nil {
				pool.Close()
				lastErr = err
			} else {
				return pool, nil
			}
		}

		log.Warn().
			Int("attempt", attempt).
			Int("max_attempts", db.Config.MaxRetries).
			Err(lastErr).
			Msg("Database connection attempt failed")

		if attempt < db.Config.MaxRetries {
			delay := db.Config.RetryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("connection cancelled: %w", ctx.Err())
			}
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", db.Config.MaxRetries, lastErr)
}

// migrate applies the schema in one transaction. Statements are idempotent so
// a restart against an existing database is a no-op.
func (db *PostgresDB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
			isbn      TEXT PRIMARY KEY,
			title     TEXT NOT NULL,
			author    TEXT NOT NULL,
			genre     TEXT NOT NULL,
			available BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			email     TEXT PRIMARY KEY,
			name      TEXT NOT NULL,
			password  TEXT NOT NULL,
			role      TEXT NOT NULL,
			join_date DATE NOT NULL
		)`,
		// No foreign keys on book_isbn/user_email: the ledger is an
		// append-only audit record with denormalized snapshots and must
		// survive catalog/roster deletions. Active-loan guards live in the
		// repositories instead.
		`CREATE TABLE IF NOT EXISTS loans (
			id         BIGSERIAL PRIMARY KEY,
			book_isbn  TEXT NOT NULL,
			book_title TEXT NOT NULL,
			user_email TEXT NOT NULL,
			user_name  TEXT NOT NULL,
			issue_date DATE NOT NULL,
			due_date   DATE NOT NULL,
			returned   BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		// At most one active loan per ISBN, enforced by the store itself.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_loans_active_isbn
			ON loans(book_isbn) WHERE NOT returned`,
		`CREATE INDEX IF NOT EXISTS idx_loans_user_email ON loans(user_email)`,
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// HealthCheck verifies connectivity; wired to the health endpoint.
func (db *PostgresDB) HealthCheck(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("%w: pool is not initialized", ErrUnavailable)
	}

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.Pool.Ping(healthCtx); err != nil {
		return fmt.Errorf("%w: ping failed: %v", ErrUnavailable, err)
	}
	return nil
}

func (db *PostgresDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}
