package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-webhook-dispatch/core"
	"github.com/uptrace/bun"
)

var tableIdentifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// RecordStore loads arbitrary rows by primary key for payload hydration.
type RecordStore struct {
	db *bun.DB
}

func NewRecordStore(db *bun.DB) (*RecordStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	return &RecordStore{db: db}, nil
}

// FetchByTableAndID returns the row of table whose id column equals id.
// Table names are restricted to plain identifiers and quoted before use.
func (s *RecordStore) FetchByTableAndID(ctx context.Context, table string, id string) (map[string]any, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: record store is not configured")
	}
	table = strings.TrimSpace(table)
	id = strings.TrimSpace(id)
	if !ValidTableIdentifier(table) {
		return nil, core.BadInputError(fmt.Sprintf("sqlstore: invalid table identifier %q", table))
	}
	if id == "" {
		return nil, core.BadInputError("sqlstore: record id is required")
	}

	row := map[string]any{}
	err := s.db.NewSelect().
		Model(&row).
		TableExpr("?", bun.Ident(table)).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.NotFoundError(
				fmt.Errorf("sqlstore: %s/%s: %w", table, id, core.ErrRecordNotFound),
				fmt.Sprintf("record %s not found in %s", id, table),
				core.ErrorRecordNotFound,
			)
		}
		return nil, err
	}
	if len(row) == 0 {
		return nil, core.NotFoundError(
			fmt.Errorf("sqlstore: %s/%s: %w", table, id, core.ErrRecordNotFound),
			fmt.Sprintf("record %s not found in %s", id, table),
			core.ErrorRecordNotFound,
		)
	}
	for key, value := range row {
		if raw, ok := value.([]byte); ok {
			row[key] = string(raw)
		}
	}
	return row, nil
}

func ValidTableIdentifier(table string) bool {
	if !tableIdentifierPattern.MatchString(table) {
		return false
	}
	for _, part := range strings.Split(table, ".") {
		if part == "" {
			return false
		}
	}
	return true
}
