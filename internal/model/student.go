package model

import "time"

type Student struct {
	ID                 int64     `json:"id"`
	Nombre             string    `json:"nombre"`
	Legajo             string    `json:"legajo"`
	Correo             string    `json:"correo"`
	Trabaja            bool      `json:"trabaja"`
	CertificadoTrabajo *string   `json:"certificado_trabajo,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
