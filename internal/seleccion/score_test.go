package seleccion

import "testing"

func TestScore(t *testing.T) {
	tests := []struct {
		name          string
		termino       bool
		electivas     bool
		trabajaCert   bool
		finalesAdeuda string
		horas         float64
		penalizacion  int
		want          float64
	}{
		{
			name:    "finished coursework with 40 finished hours",
			termino: true,
			horas:   40,
			want:    120,
		},
		{
			name:      "electives only with 10 hours",
			electivas: true,
			horas:     10,
			want:      55,
		},
		{
			name:          "working with certificate, owing finals, penalized",
			trabajaCert:   true,
			finalesAdeuda: "Psicopatología",
			penalizacion:  10,
			want:          40,
		},
		{
			name:      "electivas do not stack on finished coursework",
			termino:   true,
			electivas: true,
			want:      100,
		},
		{
			name:  "zero attributes zero score",
			want:  0,
			horas: 0,
		},
		{
			name:    "half hours keep their fractional score",
			termino: true,
			horas:   5.5,
			want:    102.75,
		},
		{
			name:         "penalty can push the score negative",
			penalizacion: 50,
			horas:        10,
			want:         -45,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.termino, tt.electivas, tt.trabajaCert, tt.finalesAdeuda, tt.horas, tt.penalizacion)
			if got != tt.want {
				t.Errorf("Score() = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestViolationScore(t *testing.T) {
	tests := []struct {
		tipo string
		want int
	}{
		{"Baja Anticipada", 30},
		{"Baja sobre la fecha", 50},
		{"Abandono", 70},
		{"Falta sin aviso", 40},
	}
	for _, tt := range tests {
		got, ok := ViolationScore(tt.tipo)
		if !ok {
			t.Errorf("ViolationScore(%q) not found", tt.tipo)
			continue
		}
		if got != tt.want {
			t.Errorf("ViolationScore(%q) = %d, want %d", tt.tipo, got, tt.want)
		}
	}

	if _, ok := ViolationScore("Llegada tarde"); ok {
		t.Error("expected unknown violation type to be rejected")
	}
}
