package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/psicopps/ppsadmin/internal/model"
)

type PenaltyStore struct {
	db *sql.DB
}

func NewPenaltyStore(db *sql.DB) *PenaltyStore {
	return &PenaltyStore{db: db}
}

func (s *PenaltyStore) Create(p *model.Penalty) (*model.Penalty, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO penalizaciones (estudiante_id, convocatoria_id, tipo, fecha, notas, puntaje, activa, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.EstudianteID, p.ConvocatoriaID, p.Tipo, p.Fecha, p.Notas, p.Puntaje, true, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create penalty: %w", err)
	}
	id, _ := result.LastInsertId()
	created := *p
	created.ID = id
	created.Activa = true
	created.CreatedAt = now
	return &created, nil
}

// ActiveScoreByStudents sums active penalty scores per student. Students with
// no active penalties are absent from the map.
func (s *PenaltyStore) ActiveScoreByStudents(studentIDs []int64) (map[int64]int, error) {
	scores := make(map[int64]int, len(studentIDs))
	if len(studentIDs) == 0 {
		return scores, nil
	}

	query := fmt.Sprintf(
		`SELECT estudiante_id, SUM(puntaje) FROM penalizaciones
		 WHERE activa = 1 AND estudiante_id IN (%s)
		 GROUP BY estudiante_id`, placeholders(len(studentIDs)))

	rows, err := s.db.Query(query, int64Args(studentIDs)...)
	if err != nil {
		return nil, fmt.Errorf("sum penalties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var total int
		if err := rows.Scan(&id, &total); err != nil {
			return nil, fmt.Errorf("scan penalty sum: %w", err)
		}
		scores[id] = total
	}
	return scores, rows.Err()
}

func (s *PenaltyStore) ListByStudent(studentID int64) ([]model.Penalty, error) {
	rows, err := s.db.Query(
		`SELECT id, estudiante_id, convocatoria_id, tipo, fecha, notas, puntaje, activa, created_at
		 FROM penalizaciones WHERE estudiante_id = ? ORDER BY fecha DESC, id DESC`, studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list penalties: %w", err)
	}
	defer rows.Close()

	var penalties []model.Penalty
	for rows.Next() {
		var p model.Penalty
		var convocatoriaID sql.NullInt64
		if err := rows.Scan(&p.ID, &p.EstudianteID, &convocatoriaID, &p.Tipo, &p.Fecha,
			&p.Notas, &p.Puntaje, &p.Activa, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan penalty: %w", err)
		}
		if convocatoriaID.Valid {
			p.ConvocatoriaID = &convocatoriaID.Int64
		}
		penalties = append(penalties, p)
	}
	return penalties, rows.Err()
}

// Deactivate marks a penalty inactive so it no longer counts against the
// student's score.
func (s *PenaltyStore) Deactivate(id int64) error {
	result, err := s.db.Exec(`UPDATE penalizaciones SET activa = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate penalty: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
