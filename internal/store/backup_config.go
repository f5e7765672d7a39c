package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/psicopps/ppsadmin/internal/model"
)

type BackupConfigStore struct {
	db *sql.DB
}

func NewBackupConfigStore(db *sql.DB) *BackupConfigStore {
	return &BackupConfigStore{db: db}
}

// Get reads the singleton policy row seeded by the migrations.
func (s *BackupConfigStore) Get() (*model.BackupConfig, error) {
	c := &model.BackupConfig{}
	var tablesJSON string
	var lastBackup sql.NullTime
	err := s.db.QueryRow(
		`SELECT enabled, frequency, backup_time, retain_count, include_tables, storage_bucket, last_backup_at, updated_at
		 FROM backup_config WHERE id = 1`,
	).Scan(&c.Enabled, &c.Frequency, &c.BackupTime, &c.RetainCount, &tablesJSON, &c.StorageBucket, &lastBackup, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get backup config: %w", err)
	}
	if err := json.Unmarshal([]byte(tablesJSON), &c.IncludeTables); err != nil {
		return nil, fmt.Errorf("decode include_tables: %w", err)
	}
	if lastBackup.Valid {
		c.LastBackupAt = &lastBackup.Time
	}
	return c, nil
}

// Update saves the policy. last_backup_at is managed separately.
func (s *BackupConfigStore) Update(c *model.BackupConfig) error {
	now := time.Now().UTC()
	tablesJSON, err := json.Marshal(c.IncludeTables)
	if err != nil {
		return fmt.Errorf("marshal include_tables: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE backup_config SET enabled = ?, frequency = ?, backup_time = ?, retain_count = ?,
		 include_tables = ?, storage_bucket = ?, updated_at = ? WHERE id = 1`,
		c.Enabled, c.Frequency, c.BackupTime, c.RetainCount, string(tablesJSON), c.StorageBucket, now,
	)
	if err != nil {
		return fmt.Errorf("update backup config: %w", err)
	}
	return nil
}

func (s *BackupConfigStore) SetLastBackupAt(t time.Time) error {
	_, err := s.db.Exec(`UPDATE backup_config SET last_backup_at = ? WHERE id = 1`, t.UTC())
	if err != nil {
		return fmt.Errorf("set last backup time: %w", err)
	}
	return nil
}
