package persist

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationDir = "migrations"

// migrationFiles lists the embedded schema files in apply order.
func migrationFiles() ([]string, error) {
	names, err := fs.Glob(migrations, migrationDir+"/*.sql")
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, errors.New("no embedded migrations")
	}
	return names, nil
}

// RunMigrations brings the points, images and logs schema up to date and
// logs the version it moved from and to.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	files, err := migrationFiles()
	if err != nil {
		return err
	}

	goose.SetLogger(goose.NopLogger())
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	from, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if err := goose.UpContext(ctx, db, migrationDir); err != nil {
		return fmt.Errorf("migrate from version %d: %w", from, err)
	}
	to, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	log.Info("migrations applied",
		zap.Int64("from", from),
		zap.Int64("to", to),
		zap.Int("files", len(files)))
	return nil
}
