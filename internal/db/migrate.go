package db

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/Spok95/group-duty-bot/internal/db/migrations"
)

// Migrate применяет вшитые миграции goose.
func Migrate(database *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(database, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
