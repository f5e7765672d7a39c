package backup

import (
	"errors"
	"testing"
	"time"
)

func TestSnapshotKey(t *testing.T) {
	ts := time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC)
	got := snapshotKey(ts)
	want := "backup_2026-08-31T03-00-00-000Z.json"
	if got != want {
		t.Errorf("snapshotKey() = %q, want %q", got, want)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	createdAt := time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC)
	snap := NewSnapshot(createdAt, map[string][]map[string]any{
		"estudiantes": {
			{"id": float64(1), "nombre": "Ana"},
			{"id": float64(2), "nombre": "Bruno"},
		},
		"lanzamientos": {
			{"id": float64(1), "nombre_pps": "Hospital Escuela"},
		},
	})

	if snap.Metadata.RecordCount != 3 {
		t.Errorf("record_count = %d, want 3", snap.Metadata.RecordCount)
	}
	if snap.Metadata.Version != snapshotVersion {
		t.Errorf("version = %q, want %q", snap.Metadata.Version, snapshotVersion)
	}
	if len(snap.Metadata.Tables) != 2 {
		t.Errorf("tables = %v, want 2 entries", snap.Metadata.Tables)
	}

	payload, err := snap.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	parsed, err := ParseSnapshot(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Metadata.CreatedAt.Equal(createdAt) {
		t.Errorf("created_at = %v, want %v", parsed.Metadata.CreatedAt, createdAt)
	}
	if len(parsed.Data["estudiantes"]) != 2 {
		t.Errorf("estudiantes rows = %d, want 2", len(parsed.Data["estudiantes"]))
	}
	if parsed.Data["estudiantes"][0]["nombre"] != "Ana" {
		t.Errorf("nombre = %v, want Ana", parsed.Data["estudiantes"][0]["nombre"])
	}
}

func TestParseSnapshotCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "not json at all"},
		{"missing version", `{"metadata":{"created_at":"2026-08-31T03:00:00Z"},"data":{"estudiantes":[]}}`},
		{"no tables", `{"metadata":{"version":"1.0"},"data":{}}`},
		{"empty table name", `{"metadata":{"version":"1.0"},"data":{"":[]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSnapshot([]byte(tt.payload)); !errors.Is(err, ErrCorruptSnapshot) {
				t.Errorf("got %v, want ErrCorruptSnapshot", err)
			}
		})
	}
}
