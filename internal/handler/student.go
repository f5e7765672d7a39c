package handler

import (
	"log/slog"
	"net/http"

	"github.com/psicopps/ppsadmin/internal/model"
	"github.com/psicopps/ppsadmin/internal/store"
)

type StudentHandler struct {
	students  *store.StudentStore
	practices *store.PracticeStore
	penalties *store.PenaltyStore
	logger    *slog.Logger
}

func NewStudentHandler(students *store.StudentStore, practices *store.PracticeStore, penalties *store.PenaltyStore, logger *slog.Logger) *StudentHandler {
	return &StudentHandler{students: students, practices: practices, penalties: penalties, logger: logger}
}

func (h *StudentHandler) get(w http.ResponseWriter, r *http.Request) (*model.Student, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid student id")
		return nil, false
	}
	st, err := h.students.GetByID(id)
	if err != nil {
		h.logger.Error("get student", "estudiante_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if st == nil {
		writeError(w, http.StatusNotFound, "student not found")
		return nil, false
	}
	return st, true
}

// Get returns one student.
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, ok := h.get(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Practices lists a student's practice records.
func (h *StudentHandler) Practices(w http.ResponseWriter, r *http.Request) {
	st, ok := h.get(w, r)
	if !ok {
		return
	}

	practices, err := h.practices.ListByStudent(st.ID)
	if err != nil {
		h.logger.Error("list practices", "estudiante_id", st.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if practices == nil {
		practices = []model.Practice{}
	}
	writeJSON(w, http.StatusOK, practices)
}

// Penalties lists a student's demerits, active and inactive.
func (h *StudentHandler) Penalties(w http.ResponseWriter, r *http.Request) {
	st, ok := h.get(w, r)
	if !ok {
		return
	}

	penalties, err := h.penalties.ListByStudent(st.ID)
	if err != nil {
		h.logger.Error("list penalties", "estudiante_id", st.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if penalties == nil {
		penalties = []model.Penalty{}
	}
	writeJSON(w, http.StatusOK, penalties)
}
