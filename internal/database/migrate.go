package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizroom/internal/config"
	"github.com/stemsi/quizroom/migrations"
)

// Migrator applies the embedded schema to the configured store.
type Migrator struct {
	m   *migrate.Migrate
	log zerolog.Logger
}

// NewMigrator prepares migrations for cfg.DBDriver.
func NewMigrator(cfg *config.Config, log zerolog.Logger) (*Migrator, error) {
	dir, url, err := migrationTarget(cfg)
	if err != nil {
		return nil, err
	}

	src, err := iofs.New(migrations.FS, dir)
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}

	return &Migrator{m: m, log: log.With().Str("component", "migrate").Logger()}, nil
}

func migrationTarget(cfg *config.Config) (dir, url string, err error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		if err := ensureDir(cfg.DBPath); err != nil {
			return "", "", err
		}
		return "sqlite", "sqlite://" + cfg.DBPath, nil
	case config.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return "", "", errors.New("DATABASE_URL is required for postgres")
		}
		return "postgres", PgxMigrateURL(cfg.DatabaseURL), nil
	default:
		return "", "", fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// PgxMigrateURL swaps a postgres:// scheme for the pgx/v5 migrate driver.
func PgxMigrateURL(url string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(url, scheme) {
			return "pgx5://" + strings.TrimPrefix(url, scheme)
		}
	}
	return url
}

// Up applies all pending migrations. A dirty version is forced back before
// retrying.
func (m *Migrator) Up() error {
	version, dirty, err := m.m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read version: %w", err)
	}
	if dirty {
		m.log.Warn().Uint("version", version).Msg("Database is dirty, forcing version")
		if err := m.m.Force(int(version)); err != nil {
			return fmt.Errorf("force version: %w", err)
		}
	}

	if err := m.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.log.Info().Msg("No new migrations to apply")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}

	v, _, _ := m.m.Version()
	m.log.Info().Uint("version", v).Msg("Migrations applied successfully")
	return nil
}

// Down rolls every migration back.
func (m *Migrator) Down() error {
	if err := m.m.Down(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.log.Info().Msg("No migrations to roll back")
			return nil
		}
		return fmt.Errorf("migrate down: %w", err)
	}
	m.log.Info().Msg("Migrations rolled back successfully")
	return nil
}

// Version returns the applied version and dirty flag.
func (m *Migrator) Version() (uint, bool, error) {
	return m.m.Version()
}

// Force sets the version without running migrations.
func (m *Migrator) Force(version int) error {
	return m.m.Force(version)
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if srcErr != nil {
		return fmt.Errorf("close source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close database: %w", dbErr)
	}
	return nil
}

// Migrate applies pending migrations and closes the migrator.
func Migrate(cfg *config.Config, log zerolog.Logger) error {
	m, err := NewMigrator(cfg, log)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}
