package db

import (
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/Spok95/school-admin-api/internal/db/migrations"
)

func Migrate(database *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(database, ".")
}
