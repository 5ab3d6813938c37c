package migrations

import (
	"fmt"
	"io/fs"
	"strings"

	dispatch "github.com/goliatone/go-webhook-dispatch"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

const embeddedRoot = "data/sql/migrations"

// Source is the migration set for one dialect. Postgres files sit at the root
// of the migrations directory, sqlite variants under sqlite/.
type Source struct {
	Dialect string
	Path    string
	FS      fs.FS
}

// DialectForDriver maps a database/sql driver name to its migration dialect.
func DialectForDriver(driver string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(driver)) {
	case "postgres", "pgx", "postgresql":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("migrations: unsupported driver %q", driver)
	}
}

// Sources lists the postgres and sqlite sets found in root, or in the
// embedded schema when root is nil. A dialect without *.up.sql files is an
// error.
func Sources(root fs.FS) ([]Source, error) {
	base, basePath, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}
	sqliteFS, err := fs.Sub(base, "sqlite")
	if err != nil {
		return nil, fmt.Errorf("migrations: resolve sqlite directory: %w", err)
	}
	sources := []Source{
		{Dialect: DialectPostgres, Path: basePath, FS: base},
		{Dialect: DialectSQLite, Path: joinPath(basePath, "sqlite"), FS: sqliteFS},
	}
	for _, source := range sources {
		ups, globErr := fs.Glob(source.FS, "*.up.sql")
		if globErr != nil {
			return nil, fmt.Errorf("migrations: scan %s: %w", source.Path, globErr)
		}
		if len(ups) == 0 {
			return nil, fmt.Errorf("migrations: no %s up migrations in %q", source.Dialect, source.Path)
		}
	}
	return sources, nil
}

// ForDriver picks the migration set matching driver.
func ForDriver(driver string, root fs.FS) (Source, error) {
	dialect, err := DialectForDriver(driver)
	if err != nil {
		return Source{}, err
	}
	sources, err := Sources(root)
	if err != nil {
		return Source{}, err
	}
	for _, source := range sources {
		if source.Dialect == dialect {
			return source, nil
		}
	}
	return Source{}, fmt.Errorf("migrations: no %s migrations", dialect)
}

// Register hands the embedded migrations for driver to register, typically a
// persistence client's RegisterSQLMigrations.
func Register(driver string, register func(fs.FS)) (Source, error) {
	if register == nil {
		return Source{}, fmt.Errorf("migrations: register function is required")
	}
	source, err := ForDriver(driver, nil)
	if err != nil {
		return Source{}, err
	}
	register(source.FS)
	return source, nil
}

func resolveRoot(root fs.FS) (fs.FS, string, error) {
	if root == nil {
		root = dispatch.GetMigrationsFS()
	}
	if sub, err := fs.Sub(root, embeddedRoot); err == nil {
		if _, statErr := fs.Stat(sub, "."); statErr == nil {
			return sub, embeddedRoot, nil
		}
	}
	// Also accept a filesystem rooted at the migrations directory itself.
	if matches, err := fs.Glob(root, "*.sql"); err == nil && len(matches) > 0 {
		return root, ".", nil
	}
	return nil, "", fmt.Errorf("migrations: %s not found", embeddedRoot)
}

func joinPath(base string, dir string) string {
	if base == "." {
		return dir
	}
	return base + "/" + dir
}
