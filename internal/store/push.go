package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/psicopps/ppsadmin/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

func (s *PushStore) Create(studentID int64, endpoint, p256dh, auth string) (*model.PushSubscription, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO push_subscriptions (estudiante_id, endpoint, p256dh_key, auth_key, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET estudiante_id = excluded.estudiante_id,
		 p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key`,
		studentID, endpoint, p256dh, auth, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create push subscription: %w", err)
	}
	id, _ := result.LastInsertId()
	return &model.PushSubscription{
		ID:           id,
		EstudianteID: studentID,
		Endpoint:     endpoint,
		P256dhKey:    p256dh,
		AuthKey:      auth,
		CreatedAt:    now,
	}, nil
}

// ListByStudent returns a student's registered subscriptions.
func (s *PushStore) ListByStudent(studentID int64) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(
		`SELECT id, estudiante_id, endpoint, p256dh_key, auth_key, created_at
		 FROM push_subscriptions WHERE estudiante_id = ?`, studentID,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		var sub model.PushSubscription
		if err := rows.Scan(&sub.ID, &sub.EstudianteID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}
