package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/psicopps/ppsadmin/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(email, passwordHash, rol string) (*model.User, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO usuarios (email, password_hash, rol, created_at) VALUES (?, ?, ?, ?)`,
		email, passwordHash, rol, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, _ := result.LastInsertId()
	return &model.User{ID: id, Email: email, PasswordHash: passwordHash, Rol: rol, CreatedAt: now}, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	u := &model.User{}
	err := s.db.QueryRow(
		`SELECT id, email, password_hash, rol, created_at FROM usuarios WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Rol, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}
