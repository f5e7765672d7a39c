package store

import "testing"

func TestPushSubscriptionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ps := NewPushStore(db)

	student, err := NewStudentStore(db).Create("Ana", "L1", "ana@test.edu", false, nil)
	if err != nil {
		t.Fatalf("create student: %v", err)
	}

	if _, err := ps.Create(student.ID, "https://push.example/abc", "p256dh", "auth"); err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	subs, err := ps.ListByStudent(student.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("got %d subscriptions, want 1", len(subs))
	}
	if subs[0].Endpoint != "https://push.example/abc" {
		t.Errorf("endpoint = %q", subs[0].Endpoint)
	}

	// Re-subscribing the same endpoint updates in place.
	if _, err := ps.Create(student.ID, "https://push.example/abc", "p256dh-new", "auth-new"); err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	subs, _ = ps.ListByStudent(student.ID)
	if len(subs) != 1 {
		t.Fatalf("duplicate endpoint created a second row: %d", len(subs))
	}
	if subs[0].P256dhKey != "p256dh-new" {
		t.Errorf("p256dh = %q, want updated key", subs[0].P256dhKey)
	}

	if err := ps.DeleteByEndpoint("https://push.example/abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	subs, _ = ps.ListByStudent(student.ID)
	if len(subs) != 0 {
		t.Errorf("got %d subscriptions after delete, want 0", len(subs))
	}
}
