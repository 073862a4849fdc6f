package server

import "testing"

// Session ids are the lowest free number, so a departed id is reused.
func TestRegistryIDReuse(t *testing.T) {
	s := newTestServer(t)
	a, _ := addTestClient(t, s, "203.0.113.1", -1)
	b, _ := addTestClient(t, s, "203.0.113.2", -1)
	c, _ := addTestClient(t, s, "203.0.113.3", -1)
	if a.ID != 0 || b.ID != 1 || c.ID != 2 {
		t.Fatalf("ids = %d %d %d", a.ID, b.ID, c.ID)
	}

	s.clients.Remove(b)
	d, _ := addTestClient(t, s, "203.0.113.4", -1)
	if d.ID != 1 {
		t.Fatalf("freed id not reused: got %d", d.ID)
	}
}

// Character uniqueness is scoped to the room.
func TestCharTakenPerArea(t *testing.T) {
	s := newTestServer(t)
	holder, _ := addTestClient(t, s, "203.0.113.1", 0)
	_ = holder

	basement := s.areas.Default()
	court, err := s.areas.GetByName("Courtroom 1")
	if err != nil {
		t.Fatalf("get area: %v", err)
	}

	if !s.clients.IsCharTaken(basement, 0) {
		t.Fatalf("held character reported free")
	}
	if s.clients.IsCharTaken(court, 0) {
		t.Fatalf("character taken in another room")
	}

	// The holder does not block itself.
	if s.clients.IsCharTakenBy(basement, 0, holder) {
		t.Fatalf("holder blocks its own character")
	}
}

// Prefix matching covers display names case-insensitively.
func TestGetTargetsPrefix(t *testing.T) {
	s := newTestServer(t)
	caller, _ := addTestClient(t, s, "203.0.113.1", 0)
	target, _ := addTestClient(t, s, "203.0.113.2", 1)
	target.mu.Lock()
	target.name = "CourtFan99"
	target.mu.Unlock()

	got := s.clients.GetTargets(caller, TargetOOCName, "courtfan", false)
	if len(got) != 1 || got[0] != target {
		t.Fatalf("prefix lookup = %v", got)
	}

	// localOnly restricts the pool to the caller's room.
	court, err := s.areas.GetByName("Courtroom 1")
	if err != nil {
		t.Fatalf("get area: %v", err)
	}
	if err := target.ChangeArea(court); err != nil {
		t.Fatalf("move target: %v", err)
	}
	got = s.clients.GetTargets(caller, TargetOOCName, "courtfan", true)
	if len(got) != 0 {
		t.Fatalf("localOnly crossed rooms: %v", got)
	}
}
