package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-webhook-dispatch/core"
	"github.com/goliatone/go-webhook-dispatch/migrations"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

// OpenPersistenceClient opens the configured database, registers the
// embedded migrations for its dialect and applies them.
func OpenPersistenceClient(ctx context.Context, cfg core.StorageConfig) (*persistence.Client, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	dialectName, err := migrations.DialectForDriver(cfg.GetDriver())
	if err != nil {
		return nil, err
	}
	if cfg.GetServer() == "" {
		return nil, fmt.Errorf("sqlstore: storage dsn is required")
	}

	driverName, dialect := sqlDriver(dialectName)
	sqlDB, err := sql.Open(driverName, cfg.GetServer())
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driverName, err)
	}
	if dialectName == migrations.DialectSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	client, err := persistence.New(cfg, sqlDB, dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlstore: new persistence client: %w", err)
	}

	_, err = migrations.Register(cfg.GetDriver(), func(fsys fs.FS) {
		client.RegisterSQLMigrations(fsys)
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return client, nil
}

func sqlDriver(dialectName string) (string, schema.Dialect) {
	if dialectName == migrations.DialectPostgres {
		return "postgres", pgdialect.New()
	}
	return "sqlite3", sqlitedialect.New()
}
