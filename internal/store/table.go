package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// TableStore reads and replaces whole tables by name. Table names always come
// from the backup policy or a snapshot, never verbatim from a request, and are
// still verified against sqlite_master before being interpolated.
type TableStore struct {
	db *sql.DB
}

func NewTableStore(db *sql.DB) *TableStore {
	return &TableStore{db: db}
}

func (s *TableStore) exists(ctx context.Context, table string) (bool, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return count > 0, nil
}

// columns returns the table's column names in schema order.
func (s *TableStore) columns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%q)`, table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		cols = append(cols, name)
	}
	return cols, rows.Err()
}

// Dump returns every row of the table as a column-keyed map, ordered by rowid
// so repeated dumps of unchanged data are byte-stable.
func (s *TableStore) Dump(ctx context.Context, table string) ([]map[string]any, error) {
	ok, err := s.exists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("table %s: %w", table, ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %q ORDER BY rowid`, table))
	if err != nil {
		return nil, fmt.Errorf("dump %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}

	records := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			record[col] = v
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Replace swaps the table's entire contents for the given rows inside one
// transaction. Row keys not present in the live schema are dropped; the count
// of inserted rows is returned.
func (s *TableStore) Replace(ctx context.Context, table string, records []map[string]any) (int64, error) {
	ok, err := s.exists(ctx, table)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("table %s: %w", table, ErrNotFound)
	}

	cols, err := s.columns(ctx, table)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin replace %s: %w", table, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %q`, table)); err != nil {
		return 0, fmt.Errorf("clear %s: %w", table, err)
	}

	var inserted int64
	for _, record := range records {
		var insertCols []string
		var args []any
		for _, col := range cols {
			if v, ok := record[col]; ok {
				insertCols = append(insertCols, fmt.Sprintf("%q", col))
				args = append(args, v)
			}
		}
		if len(insertCols) == 0 {
			continue
		}
		query := fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`,
			table, strings.Join(insertCols, ", "), placeholders(len(insertCols)))
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert into %s: %w", table, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace %s: %w", table, err)
	}
	return inserted, nil
}

// Count returns the number of rows currently in the table.
func (s *TableStore) Count(ctx context.Context, table string) (int64, error) {
	ok, err := s.exists(ctx, table)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("table %s: %w", table, ErrNotFound)
	}
	var count int64
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %q`, table)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return count, nil
}
