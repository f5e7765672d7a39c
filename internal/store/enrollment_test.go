package store

import (
	"database/sql"
	"testing"

	"github.com/psicopps/ppsadmin/internal/model"
)

func setupEnrollment(t *testing.T) (*sql.DB, *EnrollmentStore, int64, int64) {
	t.Helper()
	db := setupTestDB(t)

	launch, err := NewLaunchStore(db).Create(&model.Launch{NombrePPS: "Hospital Escuela"})
	if err != nil {
		t.Fatalf("create launch: %v", err)
	}
	student, err := NewStudentStore(db).Create("Ana", "L1", "ana@test.edu", false, nil)
	if err != nil {
		t.Fatalf("create student: %v", err)
	}
	return db, NewEnrollmentStore(db), launch.ID, student.ID
}

func TestEnrollmentCreateDefaults(t *testing.T) {
	_, es, launchID, studentID := setupEnrollment(t)

	en, err := es.Create(&model.Enrollment{LanzamientoID: launchID, EstudianteID: studentID})
	if err != nil {
		t.Fatalf("create enrollment: %v", err)
	}
	if en.Estado != model.StatusInscripto {
		t.Errorf("estado = %q, want %q", en.Estado, model.StatusInscripto)
	}
	if en.EstadoPrevio != model.StatusInscripto {
		t.Errorf("estado_previo = %q, want %q", en.EstadoPrevio, model.StatusInscripto)
	}
}

func TestEnrollmentUpdateStatus(t *testing.T) {
	_, es, launchID, studentID := setupEnrollment(t)
	en, _ := es.Create(&model.Enrollment{LanzamientoID: launchID, EstudianteID: studentID})

	if err := es.UpdateStatus(en.ID, model.StatusSeleccionado, model.StatusInscripto); err != nil {
		t.Fatalf("update status: %v", err)
	}

	got, err := es.GetByID(en.ID)
	if err != nil {
		t.Fatalf("get enrollment: %v", err)
	}
	if got.Estado != model.StatusSeleccionado {
		t.Errorf("estado = %q, want %q", got.Estado, model.StatusSeleccionado)
	}
	if got.EstadoPrevio != model.StatusInscripto {
		t.Errorf("estado_previo = %q, want %q", got.EstadoPrevio, model.StatusInscripto)
	}

	if err := es.UpdateStatus(9999, model.StatusSeleccionado, model.StatusInscripto); err != ErrNotFound {
		t.Errorf("unknown id: got %v, want ErrNotFound", err)
	}
}

func TestEnrollmentMarkUnselected(t *testing.T) {
	db, es, launchID, studentID := setupEnrollment(t)

	first, _ := es.Create(&model.Enrollment{LanzamientoID: launchID, EstudianteID: studentID})
	if err := es.UpdateStatus(first.ID, model.StatusSeleccionado, model.StatusInscripto); err != nil {
		t.Fatalf("select first: %v", err)
	}

	second, err := NewStudentStore(db).Create("Bruno", "L2", "bruno@test.edu", false, nil)
	if err != nil {
		t.Fatalf("create second student: %v", err)
	}
	if _, err := es.Create(&model.Enrollment{LanzamientoID: launchID, EstudianteID: second.ID}); err != nil {
		t.Fatalf("create second enrollment: %v", err)
	}

	n, err := es.MarkUnselected(launchID)
	if err != nil {
		t.Fatalf("mark unselected: %v", err)
	}
	if n != 1 {
		t.Errorf("marked %d enrollments, want 1", n)
	}

	got, _ := es.GetByID(first.ID)
	if got.Estado != model.StatusSeleccionado {
		t.Errorf("selected enrollment changed to %q", got.Estado)
	}
}

func TestEnrollmentGetByIDMissing(t *testing.T) {
	_, es, _, _ := setupEnrollment(t)
	got, err := es.GetByID(9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}
