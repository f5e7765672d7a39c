package seleccion

import (
	"time"

	"github.com/psicopps/ppsadmin/internal/model"
)

// Candidate is the read-time projection the selection screen works with: one
// per enrollment of a launch, enriched with student identity, practice-hour
// totals, accumulated penalties and the derived score.
type Candidate struct {
	EnrollmentID          int64                  `json:"enrollment_id"`
	StudentID             int64                  `json:"estudiante_id"`
	Nombre                string                 `json:"nombre"`
	Legajo                string                 `json:"legajo"`
	Correo                string                 `json:"correo"`
	Estado                model.EnrollmentStatus `json:"estado"`
	TerminoCursar         bool                   `json:"termino_cursar"`
	CursandoElectivas     bool                   `json:"cursando_electivas"`
	FinalesAdeuda         string                 `json:"finales_adeuda"`
	Trabaja               bool                   `json:"trabaja"`
	CertificadoTrabajo    *string                `json:"certificado_trabajo,omitempty"`
	CVURL                 *string                `json:"cv_url,omitempty"`
	HorarioSeleccionado   string                 `json:"horario_seleccionado"`
	HorarioAsignado       *string                `json:"horario_asignado,omitempty"`
	TotalHoras            float64                `json:"total_horas"`
	PenalizacionAcumulada int                    `json:"penalizacion_acumulada"`
	PuntajeTotal          float64                `json:"puntaje_total"`
	InscriptoEn           time.Time              `json:"inscripto_en"`
}

func buildCandidate(e model.Enrollment, st model.Student, horas float64, penalizacion int) Candidate {
	trabaja := e.Trabaja || st.Trabaja
	cert := e.CertificadoTrabajo
	if cert == nil {
		cert = st.CertificadoTrabajo
	}

	return Candidate{
		EnrollmentID:          e.ID,
		StudentID:             st.ID,
		Nombre:                st.Nombre,
		Legajo:                st.Legajo,
		Correo:                st.Correo,
		Estado:                e.Estado,
		TerminoCursar:         e.TerminoCursar,
		CursandoElectivas:     e.CursandoElectivas,
		FinalesAdeuda:         e.FinalesAdeuda,
		Trabaja:               trabaja,
		CertificadoTrabajo:    cert,
		CVURL:                 e.CVURL,
		HorarioSeleccionado:   e.HorarioSeleccionado,
		HorarioAsignado:       e.HorarioAsignado,
		TotalHoras:            horas,
		PenalizacionAcumulada: penalizacion,
		PuntajeTotal:          Score(e.TerminoCursar, e.CursandoElectivas, trabaja && cert != nil, e.FinalesAdeuda, horas, penalizacion),
		InscriptoEn:           e.CreatedAt,
	}
}
