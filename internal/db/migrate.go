package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate применяет все pending-миграции из встроенной директории.
func Migrate(ctx context.Context, database *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, database, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// MigrationVersion — текущая версия схемы (для /health).
func MigrationVersion(ctx context.Context, database *sql.DB) (int64, error) {
	return goose.GetDBVersionContext(ctx, database)
}
