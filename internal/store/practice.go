package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/psicopps/ppsadmin/internal/model"
)

type PracticeStore struct {
	db *sql.DB
}

func NewPracticeStore(db *sql.DB) *PracticeStore {
	return &PracticeStore{db: db}
}

func (s *PracticeStore) Create(p *model.Practice) (*model.Practice, error) {
	now := time.Now().UTC()
	if p.Estado == "" {
		p.Estado = model.PracticeInProgress
	}
	if p.Nota == "" {
		p.Nota = "Sin calificar"
	}
	result, err := s.db.Exec(
		`INSERT INTO practicas (estudiante_id, lanzamiento_id, institucion, especialidad,
		 fecha_inicio, fecha_fin, horas, estado, nota, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.EstudianteID, p.LanzamientoID, p.Institucion, p.Especialidad,
		p.FechaInicio, p.FechaFin, p.Horas, p.Estado, p.Nota, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create practice: %w", err)
	}
	id, _ := result.LastInsertId()
	created := *p
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

// FinishedHoursByStudents sums the hours of finished practices per student.
// Students with no finished practices are absent from the map.
func (s *PracticeStore) FinishedHoursByStudents(studentIDs []int64) (map[int64]float64, error) {
	hours := make(map[int64]float64, len(studentIDs))
	if len(studentIDs) == 0 {
		return hours, nil
	}

	query := fmt.Sprintf(
		`SELECT estudiante_id, SUM(horas) FROM practicas
		 WHERE estado = ? AND estudiante_id IN (%s)
		 GROUP BY estudiante_id`, placeholders(len(studentIDs)))
	args := append([]any{model.PracticeFinished}, int64Args(studentIDs)...)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("sum practice hours: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var total float64
		if err := rows.Scan(&id, &total); err != nil {
			return nil, fmt.Errorf("scan practice hours: %w", err)
		}
		hours[id] = total
	}
	return hours, rows.Err()
}

// ExistsForLaunch reports whether the student already has a practice record
// linked to the launch.
func (s *PracticeStore) ExistsForLaunch(studentID, launchID int64) (bool, error) {
	var count int64
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM practicas WHERE estudiante_id = ? AND lanzamiento_id = ?`,
		studentID, launchID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check practice: %w", err)
	}
	return count > 0, nil
}

func (s *PracticeStore) ListByStudent(studentID int64) ([]model.Practice, error) {
	rows, err := s.db.Query(
		`SELECT id, estudiante_id, lanzamiento_id, institucion, especialidad,
		 fecha_inicio, fecha_fin, horas, estado, nota, created_at, updated_at
		 FROM practicas WHERE estudiante_id = ? ORDER BY created_at DESC`, studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list practices: %w", err)
	}
	defer rows.Close()

	var practices []model.Practice
	for rows.Next() {
		var p model.Practice
		var launchID sql.NullInt64
		var inicio, fin sql.NullTime
		if err := rows.Scan(&p.ID, &p.EstudianteID, &launchID, &p.Institucion, &p.Especialidad,
			&inicio, &fin, &p.Horas, &p.Estado, &p.Nota, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan practice: %w", err)
		}
		if launchID.Valid {
			p.LanzamientoID = &launchID.Int64
		}
		if inicio.Valid {
			p.FechaInicio = &inicio.Time
		}
		if fin.Valid {
			p.FechaFin = &fin.Time
		}
		practices = append(practices, p)
	}
	return practices, rows.Err()
}
