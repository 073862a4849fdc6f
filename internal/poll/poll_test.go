package poll

import (
	"errors"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	r.Add("best witness")
	if _, err := r.AddChoice("best witness", "Larry"); err != nil {
		t.Fatalf("add choice: %v", err)
	}
	if _, err := r.AddChoice("best witness", "Edgeworth"); err != nil {
		t.Fatalf("add choice: %v", err)
	}
	return r
}

// TestRegistryOrdersPolls ensures names keep registration order and indices resolve.
func TestRegistryOrdersPolls(t *testing.T) {
	r := NewRegistry()
	r.Add("first")
	r.Add("second")
	r.Add("first") // duplicate is a no-op

	names := r.Names()
	if len(names) != 2 || names[0] != "first" || names[1] != "second" {
		t.Fatalf("names = %v", names)
	}
	if name, ok := r.NameAt(1); !ok || name != "second" {
		t.Fatalf("NameAt(1) = %q, %v", name, ok)
	}
	if _, ok := r.NameAt(2); ok {
		t.Fatal("NameAt(2) should be out of range")
	}
}

// TestVoteIsIdempotentPerVoter ensures repeat votes for a choice count once.
func TestVoteIsIdempotentPerVoter(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Vote("best witness", "larry", "voter-1"); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := r.Vote("best witness", "LARRY", "voter-1"); err != nil {
		t.Fatalf("revote: %v", err)
	}
	tally, err := r.Tally("best witness")
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if tally["Larry"] != 1 {
		t.Fatalf("tally[Larry] = %d, want 1", tally["Larry"])
	}
}

// TestSingleSelectReplacesVote ensures single-select polls hold one vote per voter.
func TestSingleSelectReplacesVote(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Vote("best witness", "Larry", "voter-1"); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := r.Vote("best witness", "Edgeworth", "voter-1"); err != nil {
		t.Fatalf("switch vote: %v", err)
	}
	tally, _ := r.Tally("best witness")
	if tally["Larry"] != 0 || tally["Edgeworth"] != 1 {
		t.Fatalf("tally = %v, want vote moved to Edgeworth", tally)
	}
}

// TestMultiSelectKeepsBothVotes ensures multi polls allow one vote per choice.
func TestMultiSelectKeepsBothVotes(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.ToggleMulti("best witness"); err != nil {
		t.Fatalf("toggle multi: %v", err)
	}
	if err := r.Vote("best witness", "Larry", "voter-1"); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if err := r.Vote("best witness", "Edgeworth", "voter-1"); err != nil {
		t.Fatalf("second vote: %v", err)
	}
	tally, _ := r.Tally("best witness")
	if tally["Larry"] != 1 || tally["Edgeworth"] != 1 {
		t.Fatalf("tally = %v, want both counted", tally)
	}
}

// TestVoteRejectsUnknownChoice ensures off-list choices fail.
func TestVoteRejectsUnknownChoice(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Vote("best witness", "Franziska", "voter-1"); !errors.Is(err, ErrBadChoice) {
		t.Fatalf("err = %v, want ErrBadChoice", err)
	}
}

// TestUnknownPollErrors ensures registry operations on missing polls fail.
func TestUnknownPollErrors(t *testing.T) {
	r := NewRegistry()
	if err := r.Vote("nope", "x", "v"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("vote err = %v, want ErrNotFound", err)
	}
	if err := r.Remove("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("remove err = %v, want ErrNotFound", err)
	}
	if _, err := r.Choices("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("choices err = %v, want ErrNotFound", err)
	}
}

// TestRemoveChoiceDropsVotes ensures deleting a choice clears its tally.
func TestRemoveChoiceDropsVotes(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Vote("best witness", "Larry", "voter-1"); err != nil {
		t.Fatalf("vote: %v", err)
	}
	remaining, err := r.RemoveChoice("best witness", "larry")
	if err != nil {
		t.Fatalf("remove choice: %v", err)
	}
	if len(remaining) != 1 || remaining[0] != "Edgeworth" {
		t.Fatalf("remaining = %v", remaining)
	}
	tally, _ := r.Tally("best witness")
	if _, ok := tally["Larry"]; ok {
		t.Fatalf("tally still lists removed choice: %v", tally)
	}
}
