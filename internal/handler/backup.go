package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/psicopps/ppsadmin/internal/backup"
	"github.com/psicopps/ppsadmin/internal/model"
	"github.com/psicopps/ppsadmin/internal/store"
)

var backupTimeRegexp = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

const defaultHistoryLimit = 50

type BackupHandler struct {
	manager *backup.Manager
	config  *store.BackupConfigStore
	history *store.BackupHistoryStore
	logger  *slog.Logger
}

func NewBackupHandler(manager *backup.Manager, config *store.BackupConfigStore, history *store.BackupHistoryStore, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{manager: manager, config: config, history: history, logger: logger}
}

// Run triggers a backup. A disabled policy is not an error for the caller; the
// cron scheduler hitting this endpoint should see success and move on.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	backupType := model.BackupTypeManual
	if r.Header.Get("X-API-Key") != "" {
		backupType = model.BackupTypeAutomatic
	}

	entry, err := h.manager.RunBackup(r.Context(), backupType)
	if errors.Is(err, backup.ErrDisabled) {
		writeJSON(w, http.StatusOK, map[string]any{
			"skipped": true,
			"message": "backups are disabled",
		})
		return
	}
	if err != nil {
		h.logger.Error("run backup", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// List returns the snapshots currently in object storage, newest first.
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	objects, err := h.manager.ListSnapshots(r.Context())
	if err != nil {
		h.logger.Error("list snapshots", "error", err)
		writeDomainError(w, err)
		return
	}
	if objects == nil {
		objects = []backup.ObjectInfo{}
	}
	writeJSON(w, http.StatusOK, objects)
}

// History returns recent backup and restore attempts.
func (h *BackupHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.history.List(limit)
	if err != nil {
		h.logger.Error("list backup history", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if entries == nil {
		entries = []model.BackupHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// Restore replaces table contents from a stored snapshot.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BackupFileName  string   `json:"backup_file_name"`
		TablesToRestore []string `json:"tables_to_restore"`
		DryRun          bool     `json:"dry_run"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.BackupFileName == "" {
		writeError(w, http.StatusBadRequest, "backup_file_name is required")
		return
	}

	result, err := h.manager.Restore(r.Context(), req.BackupFileName, req.TablesToRestore, req.DryRun)
	var partial *backup.PartialRestoreError
	if errors.As(err, &partial) {
		// Some tables were replaced before the failure; report what happened.
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":  partial.Error(),
			"result": result,
		})
		return
	}
	if err != nil {
		h.logger.Error("restore backup", "backup_file", req.BackupFileName, "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetConfig returns the backup policy.
func (h *BackupHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.config.Get()
	if err != nil {
		h.logger.Error("get backup config", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// UpdateConfig saves the backup policy.
func (h *BackupHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req model.BackupConfig
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if req.Frequency != "daily" && req.Frequency != "weekly" {
		writeError(w, http.StatusBadRequest, "frequency must be daily or weekly")
		return
	}
	if !backupTimeRegexp.MatchString(req.BackupTime) {
		writeError(w, http.StatusBadRequest, "backup_time must be HH:MM")
		return
	}
	if req.RetainCount < 1 {
		writeError(w, http.StatusBadRequest, "retain_count must be at least 1")
		return
	}
	if len(req.IncludeTables) == 0 {
		writeError(w, http.StatusBadRequest, "include_tables must not be empty")
		return
	}
	if req.StorageBucket == "" {
		writeError(w, http.StatusBadRequest, "storage_bucket is required")
		return
	}

	if err := h.config.Update(&req); err != nil {
		h.logger.Error("update backup config", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	cfg, err := h.config.Get()
	if err != nil {
		h.logger.Error("reload backup config", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// Status reports the backup manager's in-memory state.
func (h *BackupHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.manager.Status())
}
