package model

import "time"

// LaunchStatus is the lifecycle state of a convocatoria launch.
type LaunchStatus string

const (
	LaunchOpen   LaunchStatus = "Abierto"
	LaunchClosed LaunchStatus = "Cerrado"
	LaunchHidden LaunchStatus = "Oculto"
)

// Launch is an open internship opportunity with a quota of seats.
type Launch struct {
	ID          int64        `json:"id"`
	NombrePPS   string       `json:"nombre_pps"`
	Orientacion string       `json:"orientacion"`
	Estado      LaunchStatus `json:"estado_convocatoria"`
	FechaInicio *time.Time   `json:"fecha_inicio,omitempty"`
	FechaFin    *time.Time   `json:"fecha_fin,omitempty"`
	Cupo        int          `json:"cupo"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
