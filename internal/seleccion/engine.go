package seleccion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/psicopps/ppsadmin/internal/model"
	"github.com/psicopps/ppsadmin/internal/store"
	"github.com/psicopps/ppsadmin/internal/websocket"
)

var (
	// ErrNotFound is returned for an unknown launch or enrollment.
	ErrNotFound = errors.New("not found")
	// ErrInvalidSchedule is returned when the assigned schedule is not one of
	// the options the student originally requested.
	ErrInvalidSchedule = errors.New("schedule is not among the requested options")
	// ErrUnknownViolation is returned for a penalty type without a fixed score.
	ErrUnknownViolation = errors.New("unknown violation type")
)

// violationScores is the fixed penalty lookup per violation type.
var violationScores = map[string]int{
	"Baja Anticipada":     30,
	"Baja sobre la fecha": 50,
	"Abandono":            70,
	"Falta sin aviso":     40,
}

// Notifier delivers a selection notice to one student. Implementations must
// not block the launch close on individual failures; the engine logs and
// continues.
type Notifier interface {
	NotifySelection(ctx context.Context, student model.Student, launch model.Launch, schedule string) error
}

// CloseResult summarizes a CloseLaunch call.
type CloseResult struct {
	LaunchID      int64 `json:"launch_id"`
	AlreadyClosed bool  `json:"already_closed"`
	Unselected    int64 `json:"unselected"`
	Notified      int   `json:"notified"`
}

// Engine produces the ranked candidate list for a launch and applies the
// operator's selection decisions, persisting each one immediately.
type Engine struct {
	launches    *store.LaunchStore
	enrollments *store.EnrollmentStore
	students    *store.StudentStore
	practices   *store.PracticeStore
	penalties   *store.PenaltyStore
	notifier    Notifier
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewEngine(
	launches *store.LaunchStore,
	enrollments *store.EnrollmentStore,
	students *store.StudentStore,
	practices *store.PracticeStore,
	penalties *store.PenaltyStore,
	notifier Notifier,
	hub *websocket.Hub,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		launches:    launches,
		enrollments: enrollments,
		students:    students,
		practices:   practices,
		penalties:   penalties,
		notifier:    notifier,
		hub:         hub,
		logger:      logger,
	}
}

func (e *Engine) broadcast(msg websocket.Message) {
	if e.hub != nil {
		e.hub.Broadcast(msg)
	}
}

// ListCandidates returns the launch's candidates sorted by score descending.
// Ties order by earliest enrollment, then enrollment id. A launch with zero
// enrollments yields an empty list, not an error.
func (e *Engine) ListCandidates(ctx context.Context, launchID int64) ([]Candidate, error) {
	launch, err := e.launches.GetByID(launchID)
	if err != nil {
		return nil, err
	}
	if launch == nil {
		return nil, fmt.Errorf("launch %d: %w", launchID, ErrNotFound)
	}

	enrollments, err := e.enrollments.ListByLaunch(launchID)
	if err != nil {
		return nil, err
	}
	if len(enrollments) == 0 {
		return []Candidate{}, nil
	}

	studentIDs := make([]int64, 0, len(enrollments))
	for _, en := range enrollments {
		studentIDs = append(studentIDs, en.EstudianteID)
	}

	// Three bulk reads, no per-candidate queries.
	students, err := e.students.GetByIDs(studentIDs)
	if err != nil {
		return nil, err
	}
	hours, err := e.practices.FinishedHoursByStudents(studentIDs)
	if err != nil {
		return nil, err
	}
	penalties, err := e.penalties.ActiveScoreByStudents(studentIDs)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(enrollments))
	for _, en := range enrollments {
		st, ok := students[en.EstudianteID]
		if !ok {
			e.logger.Warn("enrollment without student", "enrollment_id", en.ID, "estudiante_id", en.EstudianteID)
			continue
		}
		candidates = append(candidates, buildCandidate(en, st, hours[st.ID], penalties[st.ID]))
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.PuntajeTotal != b.PuntajeTotal {
			return a.PuntajeTotal > b.PuntajeTotal
		}
		if !a.InscriptoEn.Equal(b.InscriptoEn) {
			return a.InscriptoEn.Before(b.InscriptoEn)
		}
		return a.EnrollmentID < b.EnrollmentID
	})

	return candidates, nil
}

// GetCandidate projects a single enrollment.
func (e *Engine) GetCandidate(ctx context.Context, enrollmentID int64) (*Candidate, error) {
	en, err := e.enrollments.GetByID(enrollmentID)
	if err != nil {
		return nil, err
	}
	if en == nil {
		return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrNotFound)
	}

	st, err := e.students.GetByID(en.EstudianteID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("student %d: %w", en.EstudianteID, ErrNotFound)
	}

	hours, err := e.practices.FinishedHoursByStudents([]int64{st.ID})
	if err != nil {
		return nil, err
	}
	penalties, err := e.penalties.ActiveScoreByStudents([]int64{st.ID})
	if err != nil {
		return nil, err
	}

	c := buildCandidate(*en, *st, hours[st.ID], penalties[st.ID])
	return &c, nil
}

// ToggleSelection flips the enrollment between Seleccionado and its prior
// non-selected state. Selecting also ensures a practice record exists for the
// (student, launch) pair, carried over from the launch's metadata.
func (e *Engine) ToggleSelection(ctx context.Context, enrollmentID int64) (*Candidate, error) {
	en, err := e.enrollments.GetByID(enrollmentID)
	if err != nil {
		return nil, err
	}
	if en == nil {
		return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrNotFound)
	}

	if en.Estado == model.StatusSeleccionado {
		previous := en.EstadoPrevio
		if previous == model.StatusSeleccionado || previous == "" {
			previous = model.StatusInscripto
		}
		if err := e.enrollments.UpdateStatus(en.ID, previous, previous); err != nil {
			return nil, err
		}
	} else {
		if err := e.enrollments.UpdateStatus(en.ID, model.StatusSeleccionado, en.Estado); err != nil {
			return nil, err
		}
		if err := e.ensurePractice(ctx, en); err != nil {
			return nil, err
		}
	}

	c, err := e.GetCandidate(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	e.broadcast(websocket.NewMessage("convocatoria", "seleccion", en.ID, map[string]any{
		"estado": string(c.Estado),
	}))
	return c, nil
}

func (e *Engine) ensurePractice(ctx context.Context, en *model.Enrollment) error {
	exists, err := e.practices.ExistsForLaunch(en.EstudianteID, en.LanzamientoID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	launch, err := e.launches.GetByID(en.LanzamientoID)
	if err != nil {
		return err
	}
	if launch == nil {
		return fmt.Errorf("launch %d: %w", en.LanzamientoID, ErrNotFound)
	}

	_, err = e.practices.Create(&model.Practice{
		EstudianteID:  en.EstudianteID,
		LanzamientoID: &en.LanzamientoID,
		Institucion:   launch.NombrePPS,
		Especialidad:  launch.Orientacion,
		FechaInicio:   launch.FechaInicio,
		FechaFin:      launch.FechaFin,
		Estado:        model.PracticeInProgress,
	})
	return err
}

// AssignSchedule sets the final schedule. The value must be one of the
// semicolon-separated options the student originally requested.
func (e *Engine) AssignSchedule(ctx context.Context, enrollmentID int64, schedule string) (*Candidate, error) {
	en, err := e.enrollments.GetByID(enrollmentID)
	if err != nil {
		return nil, err
	}
	if en == nil {
		return nil, fmt.Errorf("enrollment %d: %w", enrollmentID, ErrNotFound)
	}

	schedule = strings.TrimSpace(schedule)
	if !scheduleRequested(en.HorarioSeleccionado, schedule) {
		return nil, fmt.Errorf("%q: %w", schedule, ErrInvalidSchedule)
	}

	if err := e.enrollments.UpdateSchedule(en.ID, schedule); err != nil {
		return nil, err
	}

	c, err := e.GetCandidate(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	e.broadcast(websocket.NewMessage("convocatoria", "horario", en.ID, map[string]any{
		"horario_asignado": schedule,
	}))
	return c, nil
}

func scheduleRequested(requested, schedule string) bool {
	if schedule == "" {
		return false
	}
	for _, option := range strings.Split(requested, ";") {
		if strings.EqualFold(strings.TrimSpace(option), schedule) {
			return true
		}
	}
	return false
}

// CloseLaunch finalizes the selection round: remaining Inscripto enrollments
// become No Seleccionado, each Seleccionado student is notified, and the
// launch moves to Cerrado. Calling it on an already closed launch only
// persists state and never re-notifies.
func (e *Engine) CloseLaunch(ctx context.Context, launchID int64, sendNotifications bool) (*CloseResult, error) {
	launch, err := e.launches.GetByID(launchID)
	if err != nil {
		return nil, err
	}
	if launch == nil {
		return nil, fmt.Errorf("launch %d: %w", launchID, ErrNotFound)
	}

	alreadyClosed := launch.Estado == model.LaunchClosed

	unselected, err := e.enrollments.MarkUnselected(launchID)
	if err != nil {
		return nil, err
	}

	result := &CloseResult{LaunchID: launchID, AlreadyClosed: alreadyClosed, Unselected: unselected}

	if sendNotifications && !alreadyClosed && e.notifier != nil {
		notified, err := e.notifySelected(ctx, launch)
		if err != nil {
			return nil, err
		}
		result.Notified = notified
	}

	if !alreadyClosed {
		if err := e.launches.UpdateStatus(launchID, model.LaunchClosed); err != nil {
			return nil, err
		}
	}

	e.broadcast(websocket.NewMessage("lanzamiento", "cerrado", launchID, map[string]any{
		"notificados": result.Notified,
	}))
	return result, nil
}

func (e *Engine) notifySelected(ctx context.Context, launch *model.Launch) (int, error) {
	enrollments, err := e.enrollments.ListByLaunch(launch.ID)
	if err != nil {
		return 0, err
	}

	var studentIDs []int64
	selected := make([]model.Enrollment, 0)
	for _, en := range enrollments {
		if en.Estado == model.StatusSeleccionado {
			selected = append(selected, en)
			studentIDs = append(studentIDs, en.EstudianteID)
		}
	}
	if len(selected) == 0 {
		return 0, nil
	}

	students, err := e.students.GetByIDs(studentIDs)
	if err != nil {
		return 0, err
	}

	notified := 0
	for _, en := range selected {
		st, ok := students[en.EstudianteID]
		if !ok {
			continue
		}
		schedule := "A confirmar"
		if en.HorarioAsignado != nil && *en.HorarioAsignado != "" {
			schedule = *en.HorarioAsignado
		} else if en.HorarioSeleccionado != "" {
			schedule = en.HorarioSeleccionado
		}
		if err := e.notifier.NotifySelection(ctx, st, *launch, schedule); err != nil {
			e.logger.Error("selection notice failed", "estudiante_id", st.ID, "lanzamiento_id", launch.ID, "error", err)
			continue
		}
		notified++
	}
	return notified, nil
}

// RecordPenalty inserts a demerit with the fixed score for its violation
// type. The new penalty affects scores only on the next candidate fetch.
func (e *Engine) RecordPenalty(ctx context.Context, studentID int64, convocatoriaID *int64, tipo string, fecha time.Time, notas string) (*model.Penalty, error) {
	puntaje, ok := violationScores[tipo]
	if !ok {
		return nil, fmt.Errorf("%q: %w", tipo, ErrUnknownViolation)
	}

	st, err := e.students.GetByID(studentID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("student %d: %w", studentID, ErrNotFound)
	}

	return e.penalties.Create(&model.Penalty{
		EstudianteID:   studentID,
		ConvocatoriaID: convocatoriaID,
		Tipo:           tipo,
		Fecha:          fecha,
		Notas:          notas,
		Puntaje:        puntaje,
	})
}

// ViolationScore exposes the fixed penalty score for a violation type.
func ViolationScore(tipo string) (int, bool) {
	score, ok := violationScores[tipo]
	return score, ok
}
