package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/psicopps/ppsadmin/internal/seleccion"
)

type EnrollmentHandler struct {
	engine *seleccion.Engine
	logger *slog.Logger
}

func NewEnrollmentHandler(engine *seleccion.Engine, logger *slog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{engine: engine, logger: logger}
}

// ToggleSelection flips an enrollment's selected state.
func (h *EnrollmentHandler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid enrollment id")
		return
	}

	candidate, err := h.engine.ToggleSelection(r.Context(), id)
	if err != nil {
		h.logger.Error("toggle selection", "enrollment_id", id, "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

// AssignSchedule sets the enrollment's final schedule.
func (h *EnrollmentHandler) AssignSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid enrollment id")
		return
	}

	var req struct {
		Horario string `json:"horario"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Horario) == "" {
		writeError(w, http.StatusBadRequest, "horario is required")
		return
	}

	candidate, err := h.engine.AssignSchedule(r.Context(), id, req.Horario)
	if err != nil {
		h.logger.Error("assign schedule", "enrollment_id", id, "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}
