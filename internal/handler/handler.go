package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/psicopps/ppsadmin/internal/backup"
	"github.com/psicopps/ppsadmin/internal/seleccion"
	"github.com/psicopps/ppsadmin/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain sentinel errors onto HTTP statuses. Unmatched
// errors become a 500 with a generic body; details stay in the server log.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, seleccion.ErrNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, backup.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, seleccion.ErrInvalidSchedule),
		errors.Is(err, seleccion.ErrUnknownViolation),
		errors.Is(err, backup.ErrCorruptSnapshot):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, backup.ErrBackupRunning):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}
