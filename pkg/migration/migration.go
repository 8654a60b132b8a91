package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/saransh1220/notify-relay/internal/shared/logging"
)

// Config holds migration configuration. When MigrationsPath is empty the
// embedded Source is used.
type Config struct {
	MigrationsPath string
	Source         fs.FS
	DatabaseURL    string
	Logger         *slog.Logger
}

// Runner handles database migrations
type Runner struct {
	config *Config
	logger *slog.Logger
}

func NewRunner(config *Config) *Runner {
	return &Runner{
		config: config,
		logger: logging.OrDefault(config.Logger).With("component", "migration"),
	}
}

// Up runs all pending migrations
func (r *Runner) Up() error {
	r.logger.Info("running database migrations")

	m, err := r.getMigrate()
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			r.logger.Info("no new migrations to run")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Info("migrations completed")
	return nil
}

// Down rolls back the last migration
func (r *Runner) Down() error {
	m, err := r.getMigrate()
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return nil
		}
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	r.logger.Info("rolled back one migration")
	return nil
}

// Force sets the migration version without running migrations.
func (r *Runner) Force(version int) error {
	r.logger.Warn("forcing migration version", "version", version)

	m, err := r.getMigrate()
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer m.Close()

	if err := m.Force(version); err != nil {
		return fmt.Errorf("failed to force version: %w", err)
	}
	return nil
}

// Version returns the current migration version; 0 when nothing has run yet.
func (r *Runner) Version() (uint, bool, error) {
	m, err := r.getMigrate()
	if err != nil {
		return 0, false, fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get version: %w", err)
	}
	return version, dirty, nil
}

func (r *Runner) getMigrate() (*migrate.Migrate, error) {
	if r.config.MigrationsPath == "" && r.config.Source == nil {
		return nil, errors.New("no migration source configured")
	}

	db, err := sql.Open("postgres", r.config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	if r.config.MigrationsPath != "" {
		m, err := migrate.NewWithDatabaseInstance("file://"+r.config.MigrationsPath, "postgres", driver)
		if err != nil {
			return nil, fmt.Errorf("failed to create migrate instance: %w", err)
		}
		return m, nil
	}

	src, err := iofs.New(r.config.Source, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// AutoMigrate brings the schema up to date on start. A dirty database is
// refused so an operator can Force it.
func AutoMigrate(cfg *Config) error {
	runner := NewRunner(cfg)

	version, dirty, err := runner.Version()
	if err != nil {
		runner.logger.Error("failed to get migration version", "error", err)
		return err
	}
	if dirty {
		return fmt.Errorf("database in dirty state at version %d", version)
	}

	if err := runner.Up(); err != nil {
		return err
	}

	newVersion, _, err := runner.Version()
	if err != nil {
		return err
	}
	runner.logger.Info("schema ready", "from_version", version, "to_version", newVersion)
	return nil
}
