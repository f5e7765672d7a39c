package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/psicopps/ppsadmin/internal/model"
	"github.com/psicopps/ppsadmin/internal/seleccion"
	"github.com/psicopps/ppsadmin/internal/store"
)

type LaunchHandler struct {
	launches *store.LaunchStore
	engine   *seleccion.Engine
	logger   *slog.Logger
}

func NewLaunchHandler(launches *store.LaunchStore, engine *seleccion.Engine, logger *slog.Logger) *LaunchHandler {
	return &LaunchHandler{launches: launches, engine: engine, logger: logger}
}

// Create registers a new launch. Estado defaults to Abierto.
func (h *LaunchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NombrePPS   string     `json:"nombre_pps"`
		Orientacion string     `json:"orientacion"`
		FechaInicio *time.Time `json:"fecha_inicio"`
		FechaFin    *time.Time `json:"fecha_fin"`
		Cupo        int        `json:"cupo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.NombrePPS == "" {
		writeError(w, http.StatusBadRequest, "nombre_pps is required")
		return
	}
	if req.Cupo < 0 {
		writeError(w, http.StatusBadRequest, "cupo must not be negative")
		return
	}

	launch, err := h.launches.Create(&model.Launch{
		NombrePPS:   req.NombrePPS,
		Orientacion: req.Orientacion,
		FechaInicio: req.FechaInicio,
		FechaFin:    req.FechaFin,
		Cupo:        req.Cupo,
	})
	if err != nil {
		h.logger.Error("create launch", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusCreated, launch)
}

// List returns launches, optionally filtered by ?estado=.
func (h *LaunchHandler) List(w http.ResponseWriter, r *http.Request) {
	estado := model.LaunchStatus(r.URL.Query().Get("estado"))
	launches, err := h.launches.List(estado)
	if err != nil {
		h.logger.Error("list launches", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if launches == nil {
		launches = []model.Launch{}
	}
	writeJSON(w, http.StatusOK, launches)
}

// Candidates returns the launch's ranked candidate list.
func (h *LaunchHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid launch id")
		return
	}

	candidates, err := h.engine.ListCandidates(r.Context(), id)
	if err != nil {
		h.logger.Error("list candidates", "lanzamiento_id", id, "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

// Close finalizes a launch's selection round.
func (h *LaunchHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid launch id")
		return
	}

	var req struct {
		SendNotifications *bool `json:"send_notifications"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}
	sendNotifications := req.SendNotifications == nil || *req.SendNotifications

	result, err := h.engine.CloseLaunch(r.Context(), id, sendNotifications)
	if err != nil {
		h.logger.Error("close launch", "lanzamiento_id", id, "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
