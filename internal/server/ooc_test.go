package server

import (
	"testing"
)

// Plain OOC chat is relayed to the room under the sender's display name.
func TestOOCChat(t *testing.T) {
	s := newTestServer(t)
	c, _ := addTestClient(t, s, "203.0.113.9", 0)
	_, otherConn := addTestClient(t, s, "203.0.113.10", 1)

	handleOOC(s, c, []string{"Nick", "hello court"})

	if !otherConn.hasFrame("CT#Nick#hello court") {
		t.Fatalf("no chat frame in %v", otherConn.frames())
	}
}

// Sessions still on the character picker have no OOC voice: neither chat
// nor slash commands go through.
func TestOOCNeedsCharacter(t *testing.T) {
	s := newTestServer(t)
	spectator, conn := addTestClient(t, s, "203.0.113.9", -1)
	_, otherConn := addTestClient(t, s, "203.0.113.10", 0)

	handleOOC(s, spectator, []string{"Nick", "hello court"})
	if otherConn.hasFrame("CT#Nick#") {
		t.Fatalf("spectator chat was relayed")
	}

	handleOOC(s, spectator, []string{"Nick", "/roll 20"})
	if conn.hasFrame("rolled") || otherConn.hasFrame("rolled") {
		t.Fatalf("spectator ran a command")
	}
}

// Names that could impersonate the server are refused.
func TestOOCReservedNames(t *testing.T) {
	for _, name := range []string{"$H mod", "$G", "$Н cyrillic"} {
		s := newTestServer(t)
		c, conn := addTestClient(t, s, "203.0.113.9", 0)
		handleOOC(s, c, []string{name, "hello"})
		if !conn.hasFrame("That name is reserved!") {
			t.Errorf("name %q accepted: %v", name, conn.frames())
		}
	}
}

// An OOC-muted session gets a notice instead of a relay.
func TestOOCMuted(t *testing.T) {
	s := newTestServer(t)
	c, conn := addTestClient(t, s, "203.0.113.9", 0)
	c.mu.Lock()
	c.oocMuted = true
	c.mu.Unlock()

	handleOOC(s, c, []string{"Nick", "hello"})
	if conn.hasFrame("CT#Nick#") {
		t.Fatalf("muted chat was relayed")
	}
	if !conn.hasFrame("muted") {
		t.Fatalf("no mute notice in %v", conn.frames())
	}
}

// setupPoll creates a poll with yes/no choices through the moderation
// commands.
func setupPoll(t *testing.T, s *Server, name string) {
	t.Helper()
	mod, _ := addTestClient(t, s, "203.0.113.99", -1)
	makeMod(t, mod)
	s.runCommand(mod, "pollset", name)
	s.runCommand(mod, "pollchoiceadd", name+": yes")
	s.runCommand(mod, "pollchoiceadd", name+": no")
}

// The single-select voting flow: choose a poll by number, cast once, and
// any input in the casting phase finalizes it.
func TestVotingSingleSelect(t *testing.T) {
	s := newTestServer(t)
	setupPoll(t, s, "Verdict")
	c, conn := addTestClient(t, s, "203.0.113.9", 0)

	s.runCommand(c, "vote", "")
	if c.voting != votingChoosing {
		t.Fatalf("phase = %v, want choosing", c.voting)
	}

	// Non-numeric input re-prompts without leaving the phase.
	handleOOC(s, c, []string{"Nick", "abc"})
	if c.voting != votingChoosing {
		t.Fatalf("bad input left the choosing phase")
	}
	if !conn.hasFrame("expected integer") {
		t.Fatalf("no integer notice in %v", conn.frames())
	}

	// Out-of-range numbers leave the phase open too.
	handleOOC(s, c, []string{"Nick", "7"})
	if c.voting != votingChoosing {
		t.Fatalf("out-of-range input left the choosing phase")
	}

	// Picking the poll moves to the casting phase.
	conn.reset()
	handleOOC(s, c, []string{"Nick", "1"})
	if c.voting != votingCasting {
		t.Fatalf("phase = %v, want casting", c.voting)
	}
	if !conn.hasFrame("Now voting for") {
		t.Fatalf("no choices prompt in %v", conn.frames())
	}

	// A bad choice cancels a single-select vote outright.
	handleOOC(s, c, []string{"Nick", "maybe"})
	if c.voting != votingIdle {
		t.Fatalf("bad cast did not finalize a single-select poll")
	}

	// Vote again, this time with a valid choice.
	s.runCommand(c, "vote", "")
	handleOOC(s, c, []string{"Nick", "1"})
	handleOOC(s, c, []string{"Nick", "yes"})
	if c.voting != votingIdle {
		t.Fatalf("valid cast did not finalize")
	}

	tally, err := s.polls.Tally("Verdict")
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if tally["yes"] != 1 || tally["no"] != 0 {
		t.Fatalf("tally = %v", tally)
	}
}

// Entering 0 in the choosing phase cancels voting.
func TestVotingCancel(t *testing.T) {
	s := newTestServer(t)
	setupPoll(t, s, "Verdict")
	c, conn := addTestClient(t, s, "203.0.113.9", 0)

	s.runCommand(c, "vote", "")
	handleOOC(s, c, []string{"Nick", "0"})
	if c.voting != votingIdle {
		t.Fatalf("cancel left phase %v", c.voting)
	}
	if !conn.hasFrame("Voting cancelled.") {
		t.Fatalf("no cancel notice in %v", conn.frames())
	}
}

// Multi-select polls keep the casting phase open until the voter exits,
// and a repeated choice stays a single vote.
func TestVotingMultiSelect(t *testing.T) {
	s := newTestServer(t)
	setupPoll(t, s, "Snacks")
	mod, _ := addTestClient(t, s, "203.0.113.98", -1)
	makeMod(t, mod)
	s.runCommand(mod, "makepollmulti", "Snacks")

	c, _ := addTestClient(t, s, "203.0.113.9", 0)
	s.runCommand(c, "vote", "")
	handleOOC(s, c, []string{"Nick", "1"})

	handleOOC(s, c, []string{"Nick", "yes"})
	if c.voting != votingCasting {
		t.Fatalf("multi poll closed after one choice")
	}
	handleOOC(s, c, []string{"Nick", "no"})
	handleOOC(s, c, []string{"Nick", "yes"})
	if c.voting != votingCasting {
		t.Fatalf("multi poll closed before exit")
	}

	// An invalid choice keeps the phase open on multi polls.
	handleOOC(s, c, []string{"Nick", "maybe"})
	if c.voting != votingCasting {
		t.Fatalf("bad choice closed a multi poll")
	}

	handleOOC(s, c, []string{"Nick", "exit"})
	if c.voting != votingIdle {
		t.Fatalf("exit did not close the vote")
	}

	tally, err := s.polls.Tally("Snacks")
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if tally["yes"] != 1 || tally["no"] != 1 {
		t.Fatalf("tally = %v", tally)
	}
}

// The client kick button re-routes through the moderation engine, so the
// same authorization applies.
func TestOpKickReroute(t *testing.T) {
	s := newTestServer(t)
	c, conn := addTestClient(t, s, "203.0.113.9", 0)
	_, targetConn := addTestClient(t, s, "203.0.113.20", 1)

	handleOpKick(s, c, []string{"1"})
	if targetConn.isClosed() {
		t.Fatalf("unauthorized op kick went through")
	}
	if !conn.hasFrame("You must be authorized") {
		t.Fatalf("no authorization notice in %v", conn.frames())
	}

	makeMod(t, c)
	handleOpKick(s, c, []string{"1"})
	if !targetConn.isClosed() {
		t.Fatalf("authorized op kick did not disconnect the target")
	}
}
