package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/psicopps/ppsadmin/internal/model"
)

type BackupHistoryStore struct {
	db *sql.DB
}

func NewBackupHistoryStore(db *sql.DB) *BackupHistoryStore {
	return &BackupHistoryStore{db: db}
}

// Create inserts a history row in the running state. It is written before any
// storage is touched so that a crash mid-job stays observable.
func (s *BackupHistoryStore) Create(uid string, action model.BackupAction, backupType model.BackupType, tables []string) (*model.BackupHistoryEntry, error) {
	now := time.Now().UTC()
	tablesJSON, err := json.Marshal(tables)
	if err != nil {
		return nil, fmt.Errorf("marshal tables: %w", err)
	}
	result, err := s.db.Exec(
		`INSERT INTO backup_history (backup_uid, action, backup_type, status, tables_backed_up, started_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uid, action, backupType, model.BackupStatusRunning, string(tablesJSON), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create backup history: %w", err)
	}
	id, _ := result.LastInsertId()
	return &model.BackupHistoryEntry{
		ID:             id,
		BackupUID:      uid,
		Action:         action,
		BackupType:     backupType,
		Status:         model.BackupStatusRunning,
		TablesBackedUp: tables,
		StartedAt:      &now,
		CreatedAt:      now,
	}, nil
}

// MarkCompleted finalizes a running row with the outcome of a successful job.
func (s *BackupHistoryStore) MarkCompleted(id int64, tables []string, storagePath string, sizeBytes, recordCount int64) error {
	now := time.Now().UTC()
	tablesJSON, err := json.Marshal(tables)
	if err != nil {
		return fmt.Errorf("marshal tables: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE backup_history SET status = ?, tables_backed_up = ?, storage_path = ?,
		 file_size_bytes = ?, record_count = ?, completed_at = ? WHERE id = ?`,
		model.BackupStatusCompleted, string(tablesJSON), storagePath, sizeBytes, recordCount, now, id,
	)
	if err != nil {
		return fmt.Errorf("mark backup completed: %w", err)
	}
	return nil
}

func (s *BackupHistoryStore) MarkFailed(id int64, errorMsg string) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE backup_history SET status = ?, error_message = ?, completed_at = ? WHERE id = ?`,
		model.BackupStatusFailed, errorMsg, now, id,
	)
	if err != nil {
		return fmt.Errorf("mark backup failed: %w", err)
	}
	return nil
}

// SetMetadata attaches structured detail (e.g. per-table restore results).
func (s *BackupHistoryStore) SetMetadata(id int64, metadata any) error {
	data, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = s.db.Exec(`UPDATE backup_history SET metadata = ? WHERE id = ?`, string(data), id)
	if err != nil {
		return fmt.Errorf("set backup metadata: %w", err)
	}
	return nil
}

// HasRunning reports whether any job is still in the running state. Used as
// the single-flight guard before starting a new run.
func (s *BackupHistoryStore) HasRunning() (bool, error) {
	var count int64
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM backup_history WHERE status = ?`, model.BackupStatusRunning,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("count running backups: %w", err)
	}
	return count > 0, nil
}

func (s *BackupHistoryStore) GetByID(id int64) (*model.BackupHistoryEntry, error) {
	row := s.db.QueryRow(
		`SELECT id, backup_uid, action, backup_type, status, tables_backed_up, storage_path,
		 file_size_bytes, record_count, error_message, metadata, started_at, completed_at, created_at
		 FROM backup_history WHERE id = ?`, id,
	)
	e, err := scanHistoryEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get backup history %d: %w", id, err)
	}
	return e, nil
}

func (s *BackupHistoryStore) List(limit int) ([]model.BackupHistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, backup_uid, action, backup_type, status, tables_backed_up, storage_path,
		 file_size_bytes, record_count, error_message, metadata, started_at, completed_at, created_at
		 FROM backup_history ORDER BY created_at DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list backup history: %w", err)
	}
	defer rows.Close()

	var entries []model.BackupHistoryEntry
	for rows.Next() {
		e, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backup history: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanHistoryEntry(row interface{ Scan(...any) error }) (*model.BackupHistoryEntry, error) {
	e := &model.BackupHistoryEntry{}
	var tablesJSON string
	var errMsg, metadata sql.NullString
	var startedAt, completedAt sql.NullTime
	err := row.Scan(&e.ID, &e.BackupUID, &e.Action, &e.BackupType, &e.Status, &tablesJSON,
		&e.StoragePath, &e.FileSizeBytes, &e.RecordCount, &errMsg, &metadata,
		&startedAt, &completedAt, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tablesJSON), &e.TablesBackedUp); err != nil {
		return nil, fmt.Errorf("decode tables_backed_up: %w", err)
	}
	e.ErrorMessage = errMsg.String
	e.Metadata = metadata.String
	if startedAt.Valid {
		e.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		e.CompletedAt = &completedAt.Time
	}
	return e, nil
}
