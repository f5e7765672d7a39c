package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/psicopps/ppsadmin/internal/model"
)

type EnrollmentStore struct {
	db *sql.DB
}

func NewEnrollmentStore(db *sql.DB) *EnrollmentStore {
	return &EnrollmentStore{db: db}
}

const enrollmentColumns = `id, lanzamiento_id, estudiante_id, estado, estado_previo,
	termino_cursar, cursando_electivas, finales_adeuda, trabaja, certificado_trabajo,
	cv_url, horario_seleccionado, horario_asignado, created_at, updated_at`

func scanEnrollment(row interface{ Scan(...any) error }) (*model.Enrollment, error) {
	e := &model.Enrollment{}
	var cert, cv, horario sql.NullString
	err := row.Scan(&e.ID, &e.LanzamientoID, &e.EstudianteID, &e.Estado, &e.EstadoPrevio,
		&e.TerminoCursar, &e.CursandoElectivas, &e.FinalesAdeuda, &e.Trabaja, &cert,
		&cv, &e.HorarioSeleccionado, &horario, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if cert.Valid {
		e.CertificadoTrabajo = &cert.String
	}
	if cv.Valid {
		e.CVURL = &cv.String
	}
	if horario.Valid {
		e.HorarioAsignado = &horario.String
	}
	return e, nil
}

func (s *EnrollmentStore) Create(e *model.Enrollment) (*model.Enrollment, error) {
	now := time.Now().UTC()
	if e.Estado == "" {
		e.Estado = model.StatusInscripto
	}
	if e.EstadoPrevio == "" {
		e.EstadoPrevio = model.StatusInscripto
	}
	result, err := s.db.Exec(
		`INSERT INTO convocatorias (lanzamiento_id, estudiante_id, estado, estado_previo,
		 termino_cursar, cursando_electivas, finales_adeuda, trabaja, certificado_trabajo,
		 cv_url, horario_seleccionado, horario_asignado, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.LanzamientoID, e.EstudianteID, e.Estado, e.EstadoPrevio,
		e.TerminoCursar, e.CursandoElectivas, e.FinalesAdeuda, e.Trabaja, e.CertificadoTrabajo,
		e.CVURL, e.HorarioSeleccionado, e.HorarioAsignado, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create enrollment: %w", err)
	}
	id, _ := result.LastInsertId()
	created := *e
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

func (s *EnrollmentStore) GetByID(id int64) (*model.Enrollment, error) {
	e, err := scanEnrollment(s.db.QueryRow(
		`SELECT `+enrollmentColumns+` FROM convocatorias WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get enrollment %d: %w", id, err)
	}
	return e, nil
}

// ListByLaunch returns the launch's enrollments in insertion order.
func (s *EnrollmentStore) ListByLaunch(launchID int64) ([]model.Enrollment, error) {
	rows, err := s.db.Query(
		`SELECT `+enrollmentColumns+` FROM convocatorias
		 WHERE lanzamiento_id = ? ORDER BY created_at ASC, id ASC`, launchID,
	)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []model.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollments = append(enrollments, *e)
	}
	return enrollments, rows.Err()
}

// UpdateStatus sets the selection state and remembers the previous one.
func (s *EnrollmentStore) UpdateStatus(id int64, status, previous model.EnrollmentStatus) error {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`UPDATE convocatorias SET estado = ?, estado_previo = ?, updated_at = ? WHERE id = ?`,
		status, previous, now, id,
	)
	if err != nil {
		return fmt.Errorf("update enrollment status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkUnselected moves every still-Inscripto enrollment of the launch to
// No Seleccionado. Returns the number of rows changed.
func (s *EnrollmentStore) MarkUnselected(launchID int64) (int64, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`UPDATE convocatorias SET estado = ?, updated_at = ?
		 WHERE lanzamiento_id = ? AND estado = ?`,
		model.StatusNoSeleccionado, now, launchID, model.StatusInscripto,
	)
	if err != nil {
		return 0, fmt.Errorf("mark unselected: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

func (s *EnrollmentStore) UpdateSchedule(id int64, schedule string) error {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`UPDATE convocatorias SET horario_asignado = ?, updated_at = ? WHERE id = ?`,
		schedule, now, id,
	)
	if err != nil {
		return fmt.Errorf("update enrollment schedule: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
