package store

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/crm-console/internal/backend"
	"github.com/nhle/crm-console/internal/listing"
)

// Page size limits for List.
const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Times are written in SQLite's own text format so date() can read them.
	db, err := sqlx.Open("sqlite", dbPath+"?_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// One connection: pragmas are per connection, and an in-memory
	// database only lives as long as its connection.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// List returns one page of a resource, filtered, searched and sorted the
// same way the remote API does it.
func (s *SQLiteStore) List(
	ctx context.Context,
	resource string,
	q url.Values,
) (*backend.ListResult, error) {
	spec, err := lookupResource(resource)
	if err != nil {
		return nil, err
	}

	where, args := buildWhere(spec, q)

	var total int
	countQuery := "SELECT COUNT(*) FROM " + spec.from + where
	if err := s.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, fmt.Errorf("counting %s: %w", resource, err)
	}

	page := listing.NewPage(
		listing.ParsePage(q),
		listing.ParsePerPage(q, DefaultPerPage, MaxPerPage),
		total,
	)

	query := fmt.Sprintf(
		"SELECT %s FROM %s%s ORDER BY %s LIMIT %d OFFSET %d",
		strings.Join(spec.selects, ", "),
		spec.from,
		where,
		orderBy(spec, q),
		page.PerPage,
		page.Offset(),
	)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", resource, err)
	}
	defer rows.Close()

	data := make([]json.RawMessage, 0, page.PerPage)
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", resource, err)
		}
		normalizeRow(spec, row)

		raw, err := json.Marshal(row)
		if err != nil {
			return nil, fmt.Errorf("encoding %s row: %w", resource, err)
		}
		data = append(data, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", resource, err)
	}

	res := &backend.ListResult{
		Data: data,
		Envelope: listing.Envelope{
			CurrentPage: page.Number,
			LastPage:    page.TotalPages,
			PerPage:     page.PerPage,
			Total:       page.Total,
		},
	}
	if total > 0 {
		from, to := page.From, page.To
		res.From = &from
		res.To = &to
	}

	return res, nil
}

// Delete removes one record of a resource by id.
func (s *SQLiteStore) Delete(ctx context.Context, resource string, id int64) error {
	spec, err := lookupResource(resource)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM "+spec.table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", resource, id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", resource, id, backend.ErrNotFound)
	}

	return nil
}

// buildWhere translates search and filter parameters into a WHERE clause.
// Empty values are treated as absent.
func buildWhere(spec resourceSpec, q url.Values) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if search := strings.TrimSpace(q.Get(listing.ParamSearch)); search != "" && len(spec.searchable) > 0 {
		like := "%" + search + "%"
		parts := make([]string, len(spec.searchable))
		for i, col := range spec.searchable {
			parts[i] = col + " LIKE ?"
			args = append(args, like)
		}
		conditions = append(conditions, "("+strings.Join(parts, " OR ")+")")
	}

	// Iterate in a fixed order so generated SQL is stable.
	for _, key := range slices.Sorted(maps.Keys(spec.filters)) {
		value := q.Get(key)
		if value == "" {
			continue
		}
		f := spec.filters[key]
		switch f.op {
		case opEq:
			conditions = append(conditions, f.column+" = ?")
			args = append(args, value)
		case opBool:
			conditions = append(conditions, f.column+" = ?")
			args = append(args, boolToInt(value == "true" || value == "1"))
		case opDateFrom:
			conditions = append(conditions, "date("+f.column+") >= ?")
			args = append(args, value)
		case opDateTo:
			conditions = append(conditions, "date("+f.column+") <= ?")
			args = append(args, value)
		}
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// orderBy resolves the sort key against the resource whitelist. Unknown
// keys fall back to the default order.
func orderBy(spec resourceSpec, q url.Values) string {
	expr, ok := spec.sortable[q.Get(listing.ParamSort)]
	if !ok {
		return spec.defaultOrder
	}

	direction := "ASC"
	if listing.ParseDirection(q.Get(listing.ParamDirection)) == listing.Desc {
		direction = "DESC"
	}
	return fmt.Sprintf("%s %s, %s", expr, direction, spec.defaultOrder)
}

// normalizeRow converts driver values into what the JSON row should carry.
func normalizeRow(spec resourceSpec, row map[string]interface{}) {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	for _, col := range spec.boolColumns {
		if n, ok := row[col].(int64); ok {
			row[col] = n != 0
		}
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
