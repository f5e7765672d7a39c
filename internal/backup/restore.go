package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/psicopps/ppsadmin/internal/model"
)

// TableRestoreResult is the per-table outcome of a restore.
type TableRestoreResult struct {
	Table   string `json:"table"`
	Records int64  `json:"records"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

const (
	tableRestored     = "restored"
	tableRestoreSkip  = "skipped"
	tableRestoreFail  = "failed"
	tableWouldRestore = "would_restore"
)

// RestoreSummary totals a completed restore.
type RestoreSummary struct {
	TotalRecordsRestored int64 `json:"total_records_restored"`
}

// RestoreResult reports what a restore did, or with DryRun set, what it would
// have done.
type RestoreResult struct {
	BackupInfo SnapshotMetadata     `json:"backup_info"`
	DryRun     bool                 `json:"dry_run"`
	Tables     []TableRestoreResult `json:"tables"`
	Summary    RestoreSummary       `json:"summary"`
}

// Restore downloads the named snapshot and replaces the contents of its
// tables. With dryRun the snapshot is downloaded and validated but nothing is
// written. When requested is non-empty only those tables are restored; tables
// missing from the snapshot are reported as skipped.
//
// Each table is replaced in its own transaction. A table that fails leaves
// earlier tables restored; the error is a *PartialRestoreError in that case.
func (m *Manager) Restore(ctx context.Context, key string, requested []string, dryRun bool) (*RestoreResult, error) {
	m.mu.RLock()
	client := m.client
	m.mu.RUnlock()
	if client == nil {
		return nil, fmt.Errorf("%w: storage credentials missing", ErrDisabled)
	}

	cfg, err := m.config.Get()
	if err != nil {
		return nil, fmt.Errorf("read backup config: %w", err)
	}

	snap, err := m.download(ctx, client, cfg.StorageBucket, key)
	if err != nil {
		return nil, err
	}

	tables := snap.Metadata.Tables
	if len(requested) > 0 {
		tables = requested
	}

	if dryRun {
		return dryRunResult(snap, tables), nil
	}

	running, err := m.history.HasRunning()
	if err != nil {
		return nil, fmt.Errorf("check running backups: %w", err)
	}
	if running {
		return nil, ErrBackupRunning
	}

	entry, err := m.history.Create(uuid.NewString(), model.BackupActionRestore, model.BackupTypeManual, tables)
	if err != nil {
		return nil, fmt.Errorf("create history entry: %w", err)
	}

	m.setStatus(Status{State: StateRunning, InProgress: true})
	m.broadcast("restore_started", entry.ID, map[string]any{"storage_path": key})

	result := &RestoreResult{BackupInfo: snap.Metadata}
	var restored []string
	var failed []string
	for _, table := range tables {
		records, ok := snap.Data[table]
		if !ok {
			result.Tables = append(result.Tables, TableRestoreResult{Table: table, Status: tableRestoreSkip, Error: "not present in snapshot"})
			continue
		}
		n, err := m.tables.Replace(ctx, table, records)
		if err != nil {
			m.logger.Error("restore table", "table", table, "error", err)
			result.Tables = append(result.Tables, TableRestoreResult{Table: table, Status: tableRestoreFail, Error: err.Error()})
			failed = append(failed, table)
			continue
		}
		result.Tables = append(result.Tables, TableRestoreResult{Table: table, Records: n, Status: tableRestored})
		result.Summary.TotalRecordsRestored += n
		restored = append(restored, table)
	}

	if err := m.history.SetMetadata(entry.ID, result.Tables); err != nil {
		m.logger.Error("record restore results", "error", err)
	}

	if len(failed) > 0 {
		restoreErr := &PartialRestoreError{Failed: failed}
		if markErr := m.history.MarkFailed(entry.ID, restoreErr.Error()); markErr != nil {
			m.logger.Error("mark restore failed", "error", markErr)
		}
		m.setStatus(Status{State: StateError, Error: restoreErr.Error()})
		m.broadcast("restore_failed", entry.ID, map[string]any{"failed_tables": failed})
		return result, restoreErr
	}

	if err := m.history.MarkCompleted(entry.ID, restored, key, 0, result.Summary.TotalRecordsRestored); err != nil {
		m.logger.Error("finalize restore entry", "error", err)
	}

	now := time.Now().UTC()
	last := m.Status().LastBackup
	m.setStatus(Status{State: StateIdle, LastBackup: last})
	m.broadcast("restore_completed", entry.ID, map[string]any{
		"records_restored": result.Summary.TotalRecordsRestored,
		"completed_at":     now,
	})
	return result, nil
}

func dryRunResult(snap *Snapshot, tables []string) *RestoreResult {
	result := &RestoreResult{BackupInfo: snap.Metadata, DryRun: true}
	for _, table := range tables {
		records, ok := snap.Data[table]
		if !ok {
			result.Tables = append(result.Tables, TableRestoreResult{Table: table, Status: tableRestoreSkip, Error: "not present in snapshot"})
			continue
		}
		result.Tables = append(result.Tables, TableRestoreResult{Table: table, Records: int64(len(records)), Status: tableWouldRestore})
	}
	return result
}

func (m *Manager) download(ctx context.Context, client objectStore, bucket, key string) (*Snapshot, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("download snapshot %s: %w", key, err)
	}
	defer out.Body.Close()

	payload, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	return ParseSnapshot(payload)
}
