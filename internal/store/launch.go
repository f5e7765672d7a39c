package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/psicopps/ppsadmin/internal/model"
)

type LaunchStore struct {
	db *sql.DB
}

func NewLaunchStore(db *sql.DB) *LaunchStore {
	return &LaunchStore{db: db}
}

func (s *LaunchStore) Create(l *model.Launch) (*model.Launch, error) {
	now := time.Now().UTC()
	if l.Estado == "" {
		l.Estado = model.LaunchOpen
	}
	result, err := s.db.Exec(
		`INSERT INTO lanzamientos (nombre_pps, orientacion, estado_convocatoria, fecha_inicio, fecha_fin, cupo, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.NombrePPS, l.Orientacion, l.Estado, l.FechaInicio, l.FechaFin, l.Cupo, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create launch: %w", err)
	}
	id, _ := result.LastInsertId()
	created := *l
	created.ID = id
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

func (s *LaunchStore) GetByID(id int64) (*model.Launch, error) {
	l := &model.Launch{}
	var inicio, fin sql.NullTime
	err := s.db.QueryRow(
		`SELECT id, nombre_pps, orientacion, estado_convocatoria, fecha_inicio, fecha_fin, cupo, created_at, updated_at
		 FROM lanzamientos WHERE id = ?`, id,
	).Scan(&l.ID, &l.NombrePPS, &l.Orientacion, &l.Estado, &inicio, &fin, &l.Cupo, &l.CreatedAt, &l.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get launch %d: %w", id, err)
	}
	if inicio.Valid {
		l.FechaInicio = &inicio.Time
	}
	if fin.Valid {
		l.FechaFin = &fin.Time
	}
	return l, nil
}

// List returns launches, optionally filtered by status. Newest first.
func (s *LaunchStore) List(status model.LaunchStatus) ([]model.Launch, error) {
	query := `SELECT id, nombre_pps, orientacion, estado_convocatoria, fecha_inicio, fecha_fin, cupo, created_at, updated_at
		 FROM lanzamientos`
	var args []any
	if status != "" {
		query += ` WHERE estado_convocatoria = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list launches: %w", err)
	}
	defer rows.Close()

	var launches []model.Launch
	for rows.Next() {
		var l model.Launch
		var inicio, fin sql.NullTime
		if err := rows.Scan(&l.ID, &l.NombrePPS, &l.Orientacion, &l.Estado, &inicio, &fin, &l.Cupo, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan launch: %w", err)
		}
		if inicio.Valid {
			l.FechaInicio = &inicio.Time
		}
		if fin.Valid {
			l.FechaFin = &fin.Time
		}
		launches = append(launches, l)
	}
	return launches, rows.Err()
}

func (s *LaunchStore) UpdateStatus(id int64, status model.LaunchStatus) error {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`UPDATE lanzamientos SET estado_convocatoria = ?, updated_at = ? WHERE id = ?`,
		status, now, id,
	)
	if err != nil {
		return fmt.Errorf("update launch status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
