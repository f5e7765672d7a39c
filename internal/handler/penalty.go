package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/psicopps/ppsadmin/internal/seleccion"
	"github.com/psicopps/ppsadmin/internal/store"
)

type PenaltyHandler struct {
	engine    *seleccion.Engine
	penalties *store.PenaltyStore
	logger    *slog.Logger
}

func NewPenaltyHandler(engine *seleccion.Engine, penalties *store.PenaltyStore, logger *slog.Logger) *PenaltyHandler {
	return &PenaltyHandler{engine: engine, penalties: penalties, logger: logger}
}

// Create records a demerit against a student. The score is derived from the
// violation type, never supplied by the caller.
func (h *PenaltyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EstudianteID   int64  `json:"estudiante_id"`
		ConvocatoriaID *int64 `json:"convocatoria_id"`
		Tipo           string `json:"tipo"`
		Fecha          string `json:"fecha"`
		Notas          string `json:"notas"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.EstudianteID <= 0 {
		writeError(w, http.StatusBadRequest, "estudiante_id is required")
		return
	}
	if req.Tipo == "" {
		writeError(w, http.StatusBadRequest, "tipo is required")
		return
	}

	fecha := time.Now().UTC()
	if req.Fecha != "" {
		parsed, err := time.Parse("2006-01-02", req.Fecha)
		if err != nil {
			writeError(w, http.StatusBadRequest, "fecha must be YYYY-MM-DD")
			return
		}
		fecha = parsed
	}

	penalty, err := h.engine.RecordPenalty(r.Context(), req.EstudianteID, req.ConvocatoriaID, req.Tipo, fecha, req.Notas)
	if err != nil {
		h.logger.Error("record penalty", "estudiante_id", req.EstudianteID, "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, penalty)
}

// Deactivate withdraws a penalty. The record stays for audit; only its effect
// on the score ends.
func (h *PenaltyHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid penalty id")
		return
	}

	if err := h.penalties.Deactivate(id); err != nil {
		h.logger.Error("deactivate penalty", "penalizacion_id", id, "error", err)
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
