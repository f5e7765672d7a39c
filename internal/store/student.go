package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/psicopps/ppsadmin/internal/model"
)

type StudentStore struct {
	db *sql.DB
}

func NewStudentStore(db *sql.DB) *StudentStore {
	return &StudentStore{db: db}
}

func (s *StudentStore) Create(nombre, legajo, correo string, trabaja bool, certificado *string) (*model.Student, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO estudiantes (nombre, legajo, correo, trabaja, certificado_trabajo, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nombre, legajo, correo, trabaja, certificado, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}
	id, _ := result.LastInsertId()
	return &model.Student{
		ID:                 id,
		Nombre:             nombre,
		Legajo:             legajo,
		Correo:             correo,
		Trabaja:            trabaja,
		CertificadoTrabajo: certificado,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

func (s *StudentStore) GetByID(id int64) (*model.Student, error) {
	st := &model.Student{}
	var cert sql.NullString
	err := s.db.QueryRow(
		`SELECT id, nombre, legajo, correo, trabaja, certificado_trabajo, created_at, updated_at
		 FROM estudiantes WHERE id = ?`, id,
	).Scan(&st.ID, &st.Nombre, &st.Legajo, &st.Correo, &st.Trabaja, &cert, &st.CreatedAt, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get student %d: %w", id, err)
	}
	if cert.Valid {
		st.CertificadoTrabajo = &cert.String
	}
	return st, nil
}

// GetByIDs returns the students for the given id set, keyed by id.
func (s *StudentStore) GetByIDs(ids []int64) (map[int64]model.Student, error) {
	students := make(map[int64]model.Student, len(ids))
	if len(ids) == 0 {
		return students, nil
	}

	query := fmt.Sprintf(
		`SELECT id, nombre, legajo, correo, trabaja, certificado_trabajo, created_at, updated_at
		 FROM estudiantes WHERE id IN (%s)`, placeholders(len(ids)))
	rows, err := s.db.Query(query, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("get students: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st model.Student
		var cert sql.NullString
		if err := rows.Scan(&st.ID, &st.Nombre, &st.Legajo, &st.Correo, &st.Trabaja, &cert, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		if cert.Valid {
			st.CertificadoTrabajo = &cert.String
		}
		students[st.ID] = st
	}
	return students, rows.Err()
}
