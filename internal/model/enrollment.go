package model

import "time"

// EnrollmentStatus is the authoritative selection state of an enrollment.
type EnrollmentStatus string

const (
	StatusInscripto      EnrollmentStatus = "Inscripto"
	StatusSeleccionado   EnrollmentStatus = "Seleccionado"
	StatusNoSeleccionado EnrollmentStatus = "No Seleccionado"
	StatusBaja           EnrollmentStatus = "Baja"
)

// Enrollment is a student's application to a specific launch. The selection
// status is the only field the ranking engine mutates; estado_previo remembers
// the non-selected state a toggle should revert to.
type Enrollment struct {
	ID                  int64            `json:"id"`
	LanzamientoID       int64            `json:"lanzamiento_id"`
	EstudianteID        int64            `json:"estudiante_id"`
	Estado              EnrollmentStatus `json:"estado"`
	EstadoPrevio        EnrollmentStatus `json:"estado_previo"`
	TerminoCursar       bool             `json:"termino_cursar"`
	CursandoElectivas   bool             `json:"cursando_electivas"`
	FinalesAdeuda       string           `json:"finales_adeuda"`
	Trabaja             bool             `json:"trabaja"`
	CertificadoTrabajo  *string          `json:"certificado_trabajo,omitempty"`
	CVURL               *string          `json:"cv_url,omitempty"`
	HorarioSeleccionado string           `json:"horario_seleccionado"`
	HorarioAsignado     *string          `json:"horario_asignado,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}
