package store

import (
	"testing"
	"time"
)

func TestBackupConfigDefaults(t *testing.T) {
	db := setupTestDB(t)
	cs := NewBackupConfigStore(db)

	cfg, err := cs.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !cfg.Enabled {
		t.Error("default config not enabled")
	}
	if cfg.Frequency != "daily" || cfg.BackupTime != "03:00" {
		t.Errorf("schedule = %s %s, want daily 03:00", cfg.Frequency, cfg.BackupTime)
	}
	if cfg.RetainCount != 3 {
		t.Errorf("retain_count = %d, want 3", cfg.RetainCount)
	}
	if len(cfg.IncludeTables) != 5 {
		t.Errorf("include_tables = %v, want 5 tables", cfg.IncludeTables)
	}
	if cfg.StorageBucket != "pps-backups" {
		t.Errorf("storage_bucket = %q", cfg.StorageBucket)
	}
	if cfg.LastBackupAt != nil {
		t.Error("fresh config has last_backup_at")
	}
}

func TestBackupConfigUpdate(t *testing.T) {
	db := setupTestDB(t)
	cs := NewBackupConfigStore(db)

	cfg, _ := cs.Get()
	cfg.Enabled = false
	cfg.Frequency = "weekly"
	cfg.RetainCount = 8
	cfg.IncludeTables = []string{"estudiantes"}
	if err := cs.Update(cfg); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := cs.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Enabled || got.Frequency != "weekly" || got.RetainCount != 8 {
		t.Errorf("updated config = %+v", got)
	}
	if len(got.IncludeTables) != 1 || got.IncludeTables[0] != "estudiantes" {
		t.Errorf("include_tables = %v", got.IncludeTables)
	}
}

func TestBackupConfigSetLastBackupAt(t *testing.T) {
	db := setupTestDB(t)
	cs := NewBackupConfigStore(db)

	ts := time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC)
	if err := cs.SetLastBackupAt(ts); err != nil {
		t.Fatalf("set last backup: %v", err)
	}

	got, _ := cs.Get()
	if got.LastBackupAt == nil || !got.LastBackupAt.Equal(ts) {
		t.Errorf("last_backup_at = %v, want %v", got.LastBackupAt, ts)
	}
}
