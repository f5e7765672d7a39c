package store

import (
	"context"
	"errors"
	"testing"
)

func TestTableDumpAndReplace(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTableStore(db)
	ctx := context.Background()

	if _, err := db.Exec(`INSERT INTO estudiantes (nombre, legajo) VALUES ('Ana', 'L1'), ('Bruno', 'L2')`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	records, err := ts.Dump(ctx, "estudiantes")
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("dumped %d records, want 2", len(records))
	}
	if records[0]["nombre"] != "Ana" {
		t.Errorf("first record nombre = %v, want Ana", records[0]["nombre"])
	}

	// Replace with a modified row set.
	records = records[:1]
	n, err := ts.Replace(ctx, "estudiantes", records)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if n != 1 {
		t.Errorf("inserted %d rows, want 1", n)
	}

	count, err := ts.Count(ctx, "estudiantes")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestTableReplaceDropsUnknownColumns(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTableStore(db)
	ctx := context.Background()

	records := []map[string]any{
		{"nombre": "Ana", "legajo": "L1", "columna_vieja": "se descarta"},
	}
	n, err := ts.Replace(ctx, "estudiantes", records)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if n != 1 {
		t.Errorf("inserted %d rows, want 1", n)
	}

	var nombre string
	if err := db.QueryRow(`SELECT nombre FROM estudiantes WHERE legajo = 'L1'`).Scan(&nombre); err != nil {
		t.Fatalf("read row: %v", err)
	}
	if nombre != "Ana" {
		t.Errorf("nombre = %q, want Ana", nombre)
	}
}

func TestTableUnknownTable(t *testing.T) {
	db := setupTestDB(t)
	ts := NewTableStore(db)
	ctx := context.Background()

	if _, err := ts.Dump(ctx, "tabla_fantasma"); !errors.Is(err, ErrNotFound) {
		t.Errorf("dump: got %v, want ErrNotFound", err)
	}
	if _, err := ts.Replace(ctx, "tabla_fantasma", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("replace: got %v, want ErrNotFound", err)
	}
	if _, err := ts.Count(ctx, "tabla_fantasma"); !errors.Is(err, ErrNotFound) {
		t.Errorf("count: got %v, want ErrNotFound", err)
	}
}
