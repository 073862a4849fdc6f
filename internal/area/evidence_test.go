package area

import "testing"

func hiddenCMArea() *Area {
	m := NewManager([]Def{{Name: "Courtroom", Background: "gs4", EvidenceMod: "HiddenCM"}})
	return m.Default()
}

// TestEvidenceListOperations ensures add, edit, swap, and delete keep order.
func TestEvidenceListOperations(t *testing.T) {
	a := hiddenCMArea()
	a.AddEvidence("Knife", "a kitchen knife", "knife.png")
	a.AddEvidence("Clock", "stopped at 2am", "clock.png")

	if err := a.EditEvidence(0, "Bloody Knife", "a kitchen knife", "knife.png"); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := a.SwapEvidence(0, 1); err != nil {
		t.Fatalf("swap: %v", err)
	}
	items := a.Evidence()
	if items[0].Name != "Clock" || items[1].Name != "Bloody Knife" {
		t.Fatalf("items = %v", items)
	}
	if err := a.DeleteEvidence(0); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if items := a.Evidence(); len(items) != 1 || items[0].Name != "Bloody Knife" {
		t.Fatalf("items after delete = %v", items)
	}

	if err := a.EditEvidence(5, "x", "y", "z"); err == nil {
		t.Fatal("edit out of range should fail")
	}
	if err := a.DeleteEvidence(-1); err == nil {
		t.Fatal("delete out of range should fail")
	}
	if err := a.SwapEvidence(0, 9); err == nil {
		t.Fatal("swap out of range should fail")
	}
}

// TestHiddenCMRedactsForRegularMembers ensures hidden items only reach
// privileged viewers, with index mapping intact.
func TestHiddenCMRedactsForRegularMembers(t *testing.T) {
	a := hiddenCMArea()
	a.AddEvidence("Public", "", "p.png")
	a.AddEvidence("Secret", "", "s.png")
	if err := a.SetEvidencePos(1, "def"); err != nil {
		t.Fatalf("set pos: %v", err)
	}

	items, indices := a.VisibleEvidence(false, false)
	if len(items) != 1 || items[0].Name != "Public" || indices[0] != 0 {
		t.Fatalf("regular view = %v %v", items, indices)
	}

	items, indices = a.VisibleEvidence(false, true)
	if len(items) != 2 || indices[1] != 1 {
		t.Fatalf("CM view = %v %v", items, indices)
	}
}

// TestLeavingHiddenCMRevealsEverything ensures the visibility reset fires.
func TestLeavingHiddenCMRevealsEverything(t *testing.T) {
	a := hiddenCMArea()
	a.AddEvidence("Secret", "", "s.png")
	if err := a.SetEvidencePos(0, "def"); err != nil {
		t.Fatalf("set pos: %v", err)
	}

	a.SetEvidenceMode(EvidenceFFA)
	items := a.Evidence()
	if items[0].Pos != "all" {
		t.Fatalf("pos = %q, want all", items[0].Pos)
	}
	items, _ = a.VisibleEvidence(false, false)
	if len(items) != 1 {
		t.Fatalf("everything should be visible, got %v", items)
	}
}

// TestEvidenceMutationGates ensures each mode gates the right privileges.
func TestEvidenceMutationGates(t *testing.T) {
	cases := []struct {
		mode                EvidenceMod
		member, byCM, byMod bool
	}{
		{EvidenceFFA, true, true, true},
		{EvidenceMods, false, false, true},
		{EvidenceCM, false, true, true},
		{EvidenceHiddenCM, false, true, true},
	}
	a := hiddenCMArea()
	for _, tc := range cases {
		a.SetEvidenceMode(tc.mode)
		if got := a.CanMutateEvidence(false, false); got != tc.member {
			t.Fatalf("%s: member mutation = %v, want %v", tc.mode, got, tc.member)
		}
		if got := a.CanMutateEvidence(false, true); got != tc.byCM {
			t.Fatalf("%s: CM mutation = %v, want %v", tc.mode, got, tc.byCM)
		}
		if got := a.CanMutateEvidence(true, false); got != tc.byMod {
			t.Fatalf("%s: mod mutation = %v, want %v", tc.mode, got, tc.byMod)
		}
	}
}

// TestParseEvidenceMod ensures mode names parse case-insensitively.
func TestParseEvidenceMod(t *testing.T) {
	if mod, ok := ParseEvidenceMod("hiddencm"); !ok || mod != EvidenceHiddenCM {
		t.Fatalf("parse = %v, %v", mod, ok)
	}
	if _, ok := ParseEvidenceMod("Anarchy"); ok {
		t.Fatal("unknown mode should not parse")
	}
}
