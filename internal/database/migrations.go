package database

import (
	"errors"
	"fmt"
	"os"

	"github.com/RubachokBoss/plagiarism-checker/content-service/internal/config"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

type Migrator struct {
	migrate *migrate.Migrate
}

func NewMigrator(cfg config.DatabaseConfig) (*Migrator, error) {
	db, err := NewPostgres(cfg)
	if err != nil {
		return nil, err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsPath(), "postgres", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return &Migrator{migrate: m}, nil
}

func migrationsPath() string {
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		return "file://" + dir
	}
	return "file://migrations"
}

func (m *Migrator) Up() error {
	defer m.close()
	if err := m.migrate.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

func (m *Migrator) Down() error {
	defer m.close()
	if err := m.migrate.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}
	return nil
}

func (m *Migrator) Force(version int) error {
	defer m.close()
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force migration version to %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) close() {
	_, _ = m.migrate.Close()
}
