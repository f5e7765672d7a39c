package store

import (
	"testing"

	"github.com/psicopps/ppsadmin/internal/model"
)

func TestBackupHistoryLifecycle(t *testing.T) {
	db := setupTestDB(t)
	hs := NewBackupHistoryStore(db)

	entry, err := hs.Create("uid-1", model.BackupActionBackup, model.BackupTypeManual, []string{"estudiantes"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if entry.Status != model.BackupStatusRunning {
		t.Errorf("status = %q, want running", entry.Status)
	}
	if entry.StartedAt == nil {
		t.Error("started_at not set")
	}

	running, err := hs.HasRunning()
	if err != nil {
		t.Fatalf("has running: %v", err)
	}
	if !running {
		t.Error("expected a running entry")
	}

	if err := hs.MarkCompleted(entry.ID, []string{"estudiantes"}, "backup_x.json", 2048, 10); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	got, err := hs.GetByID(entry.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.BackupStatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.StoragePath != "backup_x.json" || got.FileSizeBytes != 2048 || got.RecordCount != 10 {
		t.Errorf("completed entry = %+v", got)
	}
	if got.CompletedAt == nil {
		t.Error("completed_at not set")
	}

	running, _ = hs.HasRunning()
	if running {
		t.Error("completed entry still counted as running")
	}
}

func TestBackupHistoryMarkFailed(t *testing.T) {
	db := setupTestDB(t)
	hs := NewBackupHistoryStore(db)

	entry, _ := hs.Create("uid-2", model.BackupActionRestore, model.BackupTypeManual, []string{"practicas"})
	if err := hs.MarkFailed(entry.ID, "storage unavailable"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	got, _ := hs.GetByID(entry.ID)
	if got.Status != model.BackupStatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.ErrorMessage != "storage unavailable" {
		t.Errorf("error_message = %q", got.ErrorMessage)
	}
}

func TestBackupHistoryList(t *testing.T) {
	db := setupTestDB(t)
	hs := NewBackupHistoryStore(db)

	for i := 0; i < 3; i++ {
		if _, err := hs.Create("uid", model.BackupActionBackup, model.BackupTypeAutomatic, nil); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	entries, err := hs.List(2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("got %d entries, want 2", len(entries))
	}
}

func TestBackupHistorySetMetadata(t *testing.T) {
	db := setupTestDB(t)
	hs := NewBackupHistoryStore(db)

	entry, _ := hs.Create("uid-3", model.BackupActionBackup, model.BackupTypeManual, nil)
	if err := hs.SetMetadata(entry.ID, map[string]any{"skipped_tables": []string{"practicas"}}); err != nil {
		t.Fatalf("set metadata: %v", err)
	}

	got, _ := hs.GetByID(entry.ID)
	if got.Metadata == "" {
		t.Error("metadata not stored")
	}
}
