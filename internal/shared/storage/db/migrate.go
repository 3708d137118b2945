package db

import (
	"context"
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"cvbuilder-backend/internal/shared/telemetry"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFiles embed.FS

// goose keeps its dialect and base FS in package state.
var gooseMu sync.Mutex

func migrationDir(d Dialect) string {
	return "migrations/" + string(d)
}

func setupGoose(d Dialect) error {
	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(gooseLogger{})
	name := "postgres"
	if d == SQLite {
		name = "sqlite3"
	}
	return goose.SetDialect(name)
}

// RunMigrations applies embedded SQL migrations via goose. If database is nil, it's a no-op.
func RunMigrations(ctx context.Context, database *sqlx.DB) error {
	if database == nil {
		return nil
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()

	d := DialectOf(database)
	if err := setupGoose(d); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, database.DB, migrationDir(d)); err != nil {
		return fmt.Errorf("migrate up (%s): %w", d, err)
	}
	return nil
}

// RollbackMigration reverts the most recent migration.
func RollbackMigration(ctx context.Context, database *sqlx.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	d := DialectOf(database)
	if err := setupGoose(d); err != nil {
		return err
	}
	return goose.DownContext(ctx, database.DB, migrationDir(d))
}

// MigrationStatus logs the applied state of every migration.
func MigrationStatus(ctx context.Context, database *sqlx.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	d := DialectOf(database)
	if err := setupGoose(d); err != nil {
		return err
	}
	return goose.StatusContext(ctx, database.DB, migrationDir(d))
}

type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...any) {
	telemetry.Info("migrate", map[string]any{"detail": strings.TrimSpace(fmt.Sprintf(format, v...))})
}

func (gooseLogger) Fatalf(format string, v ...any) {
	telemetry.Error("migrate fatal", map[string]any{"detail": strings.TrimSpace(fmt.Sprintf(format, v...))})
	os.Exit(1)
}
