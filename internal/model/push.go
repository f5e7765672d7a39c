package model

import "time"

type PushSubscription struct {
	ID           int64     `json:"id"`
	EstudianteID int64     `json:"estudiante_id"`
	Endpoint     string    `json:"endpoint"`
	P256dhKey    string    `json:"p256dh_key"`
	AuthKey      string    `json:"auth_key"`
	CreatedAt    time.Time `json:"created_at"`
}
