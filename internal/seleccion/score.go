package seleccion

import "strings"

// Scoring weights encode institutional priority: students who finished
// coursework outrank everyone else, logged practice hours act as a small
// continuous tiebreak, and active penalties subtract.
const (
	WeightTerminoCursar     = 100.0
	WeightCursandoElectivas = 50.0
	WeightFinalesAdeuda     = 30.0
	WeightTrabaja           = 20.0
	WeightPorHora           = 0.5
)

// Score computes the candidate's ranking score. It is pure and recomputed on
// every listing; the result is never persisted. The fractional part from the
// hours term is kept so that half-point differences still order candidates.
func Score(terminoCursar, cursandoElectivas, trabajaConCertificado bool, finalesAdeuda string, horas float64, penalizacion int) float64 {
	s := 0.0
	if terminoCursar {
		s += WeightTerminoCursar
	}
	if !terminoCursar && cursandoElectivas {
		s += WeightCursandoElectivas
	}
	if trabajaConCertificado {
		s += WeightTrabaja
	}
	if strings.TrimSpace(finalesAdeuda) != "" {
		s += WeightFinalesAdeuda
	}
	s += horas * WeightPorHora
	s -= float64(penalizacion)
	return s
}
