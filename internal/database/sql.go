package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/config"
	_ "modernc.org/sqlite"
)

// DB is the storage handle shared by every repository. Queries are written
// with ? placeholders and rebound for the active dialect.
type DB struct {
	sql     *sql.DB
	dialect Dialect
}

// Open connects to the store selected by cfg.DBDriver and validates the
// connection.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*DB, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.DBPath, log)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DatabaseURL, cfg.MaxDBConns, log)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// OpenSQLite opens (creating if needed) the SQLite file at path. The pool is
// pinned to one connection so writers never contend on the file lock.
func OpenSQLite(ctx context.Context, path string, log zerolog.Logger) (*DB, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Str("path", path).
		Msg("SQLite connected")

	return &DB{sql: conn, dialect: SQLite}, nil
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	return nil
}

// SQLiteDSN builds the modernc DSN with foreign keys on, a busy timeout and
// write-locking transactions.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
}

// OpenPostgres creates and validates a PostgreSQL connection pool through the
// pgx stdlib driver.
func OpenPostgres(ctx context.Context, url string, maxConns int, log zerolog.Logger) (*DB, error) {
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for postgres")
	}

	conn, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if maxConns < 1 {
		maxConns = 1
	}
	conn.SetMaxOpenConns(maxConns)
	conn.SetMaxIdleConns(maxConns)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Int("max_conns", maxConns).
		Msg("PostgreSQL connected")

	return &DB{sql: conn, dialect: Postgres}, nil
}

// Dialect reports the SQL flavour of the connection.
func (d *DB) Dialect() Dialect { return d.dialect }

// Ping checks the store is reachable.
func (d *DB) Ping(ctx context.Context) error { return d.sql.PingContext(ctx) }

// Close releases the pool.
func (d *DB) Close() error { return d.sql.Close() }

func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.sql.ExecContext(ctx, d.dialect.Rebind(query), args...)
}

func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.sql.QueryContext(ctx, d.dialect.Rebind(query), args...)
}

func (d *DB) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.sql.QueryRowContext(ctx, d.dialect.Rebind(query), args...)
}
