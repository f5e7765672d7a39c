package model

import "time"

type PracticeStatus string

const (
	PracticeInProgress PracticeStatus = "En curso"
	PracticeFinished   PracticeStatus = "Finalizada"
	PracticeDropped    PracticeStatus = "Baja"
)

type Practice struct {
	ID            int64          `json:"id"`
	EstudianteID  int64          `json:"estudiante_id"`
	LanzamientoID *int64         `json:"lanzamiento_id,omitempty"`
	Institucion   string         `json:"institucion"`
	Especialidad  string         `json:"especialidad"`
	FechaInicio   *time.Time     `json:"fecha_inicio,omitempty"`
	FechaFin      *time.Time     `json:"fecha_fin,omitempty"`
	Horas         float64        `json:"horas"`
	Estado        PracticeStatus `json:"estado"`
	Nota          string         `json:"nota"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
