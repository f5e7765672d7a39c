package model

import "time"

// Penalty is a demerit record against a student for a rule violation. Its
// puntaje is summed into the student's accumulated penalization at read time.
type Penalty struct {
	ID             int64     `json:"id"`
	EstudianteID   int64     `json:"estudiante_id"`
	ConvocatoriaID *int64    `json:"convocatoria_id,omitempty"`
	Tipo           string    `json:"tipo"`
	Fecha          time.Time `json:"fecha"`
	Notas          string    `json:"notas"`
	Puntaje        int       `json:"puntaje"`
	Activa         bool      `json:"activa"`
	CreatedAt      time.Time `json:"created_at"`
}
