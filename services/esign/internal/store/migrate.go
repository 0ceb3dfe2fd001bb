package store

import (
	"embed"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/MDx-Vision/nicehr-sub016/services/esign/internal/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrateUp applies the embedded schema migrations against the pool's
// database. Called once at startup before the service accepts traffic.
func MigrateUp(pool *pgxpool.Pool) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	if err := goose.Up(db, "migrations"); err != nil {
		return err
	}
	log.Logger().Info("database migrations applied")
	return nil
}
