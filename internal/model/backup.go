package model

import "time"

type BackupStatus string

const (
	BackupStatusPending   BackupStatus = "pending"
	BackupStatusRunning   BackupStatus = "running"
	BackupStatusCompleted BackupStatus = "completed"
	BackupStatusFailed    BackupStatus = "failed"
)

type BackupAction string

const (
	BackupActionBackup  BackupAction = "backup"
	BackupActionRestore BackupAction = "restore"
)

type BackupType string

const (
	BackupTypeAutomatic BackupType = "automatic"
	BackupTypeManual    BackupType = "manual"
)

// BackupHistoryEntry is one row per backup or restore attempt. Rows are
// append-only; a running job's row is updated in place to completed/failed.
type BackupHistoryEntry struct {
	ID             int64        `json:"id"`
	BackupUID      string       `json:"backup_uid"`
	Action         BackupAction `json:"action"`
	BackupType     BackupType   `json:"backup_type"`
	Status         BackupStatus `json:"status"`
	TablesBackedUp []string     `json:"tables_backed_up"`
	StoragePath    string       `json:"storage_path"`
	FileSizeBytes  int64        `json:"file_size_bytes"`
	RecordCount    int64        `json:"record_count"`
	ErrorMessage   string       `json:"error_message,omitempty"`
	Metadata       string       `json:"metadata,omitempty"`
	StartedAt      *time.Time   `json:"started_at,omitempty"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// BackupConfig is the singleton backup policy row. It is read once per backup
// invocation and mutated only through an explicit configuration save.
type BackupConfig struct {
	Enabled       bool       `json:"enabled"`
	Frequency     string     `json:"frequency"`
	BackupTime    string     `json:"backup_time"`
	RetainCount   int        `json:"retain_count"`
	IncludeTables []string   `json:"include_tables"`
	StorageBucket string     `json:"storage_bucket"`
	LastBackupAt  *time.Time `json:"last_backup_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
