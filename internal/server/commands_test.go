package server

import (
	"testing"
)

// Moderation commands refuse callers without moderator rights, by notice
// rather than by dropped message.
func TestCommandRequiresMod(t *testing.T) {
	for _, name := range []string{"ban", "kick", "mute", "unban", "play", "announce", "refresh"} {
		s := newTestServer(t)
		c, conn := addTestClient(t, s, "203.0.113.9", 0)
		s.runCommand(c, name, "somearg")
		if !conn.hasFrame("You must be authorized") {
			t.Errorf("/%s: no authorization notice in %v", name, conn.frames())
		}
	}
}

// An unknown slash command gets a notice to the caller only.
func TestUnknownCommand(t *testing.T) {
	s := newTestServer(t)
	c, conn := addTestClient(t, s, "203.0.113.9", 0)
	s.runCommand(c, "frobnicate", "")
	if !conn.hasFrame("Invalid command.") {
		t.Fatalf("no invalid-command notice in %v", conn.frames())
	}
}

func makeMod(t *testing.T, c *Client) {
	t.Helper()
	if err := c.AuthMod("hunter2"); err != nil {
		t.Fatalf("auth mod: %v", err)
	}
}

// Banning by session id resolves the target's identity, persists the
// ban, and drops every matching connection.
func TestBanBySessionID(t *testing.T) {
	s := newTestServer(t)
	mod, _ := addTestClient(t, s, "203.0.113.9", 0)
	makeMod(t, mod)
	target, targetConn := addTestClient(t, s, "203.0.113.20", 1)

	s.runCommand(mod, "ban", "id 1")

	banned, err := s.bans.IsBanned(target.ipid)
	if err != nil {
		t.Fatalf("check ban: %v", err)
	}
	if !banned {
		t.Fatalf("target identity not banned")
	}
	if !targetConn.isClosed() {
		t.Fatalf("banned session still connected")
	}

	if err := cmdUnban(s, mod, target.ipid); err != nil {
		t.Fatalf("unban: %v", err)
	}
	banned, _ = s.bans.IsBanned(target.ipid)
	if banned {
		t.Fatalf("identity still banned after /unban")
	}
}

// Kicking disconnects the target without recording a ban.
func TestKick(t *testing.T) {
	s := newTestServer(t)
	mod, _ := addTestClient(t, s, "203.0.113.9", 0)
	makeMod(t, mod)
	target, targetConn := addTestClient(t, s, "203.0.113.20", 1)

	s.runCommand(mod, "kick", "id 1")

	if !targetConn.isClosed() {
		t.Fatalf("kicked session still connected")
	}
	banned, _ := s.bans.IsBanned(target.ipid)
	if banned {
		t.Fatalf("kick recorded a ban")
	}
}

// Mute counts targets holding moderator rights out instead of flipping
// them.
func TestMuteSkipsModerators(t *testing.T) {
	s := newTestServer(t)
	caller, conn := addTestClient(t, s, "203.0.113.9", 0)
	makeMod(t, caller)
	other, _ := addTestClient(t, s, "203.0.113.20", 1)
	makeMod(t, other)

	s.runCommand(caller, "mute", "id 1")

	other.mu.Lock()
	muted := other.muted
	other.mu.Unlock()
	if muted {
		t.Fatalf("moderator target was muted")
	}
	if !conn.hasFrame("Skipped 1 moderator(s)") {
		t.Fatalf("no skip notice in %v", conn.frames())
	}
}

// Song arguments that could escape the music folder are refused.
func TestPlayRejectsPaths(t *testing.T) {
	s := newTestServer(t)
	mod, conn := addTestClient(t, s, "203.0.113.9", 0)
	makeMod(t, mod)

	for _, arg := range []string{"../theme.mp3", "trial/theme.mp3", `trial\theme.mp3`} {
		conn.reset()
		s.runCommand(mod, "play", arg)
		if conn.hasFrame("MC#") {
			t.Errorf("%q was played", arg)
		}
		if !conn.hasFrame("music folder") {
			t.Errorf("%q: no refusal notice in %v", arg, conn.frames())
		}
	}
}

// Locking seeds the invite list with everyone present, keeps outsiders
// out, and admits them once invited. Unlocking clears the list.
func TestAreaLockInviteFlow(t *testing.T) {
	s := newTestServer(t)
	court, err := s.areas.GetByName("Courtroom 1")
	if err != nil {
		t.Fatalf("get area: %v", err)
	}

	cm, _ := addTestClient(t, s, "203.0.113.9", 0)
	if err := cm.ChangeArea(court); err != nil {
		t.Fatalf("move cm: %v", err)
	}
	s.runCommand(cm, "cm", "")
	if !court.Owned() {
		t.Fatalf("area has no CM after /cm")
	}

	s.runCommand(cm, "area_lock", "")
	if !court.Locked() {
		t.Fatalf("area not locked")
	}

	outsider, _ := addTestClient(t, s, "203.0.113.20", 1)
	if err := outsider.ChangeArea(court); err == nil {
		t.Fatalf("outsider entered a locked area")
	}

	s.runCommand(cm, "invite", "1")
	if err := outsider.ChangeArea(court); err != nil {
		t.Fatalf("invited session refused: %v", err)
	}

	s.runCommand(cm, "area_unlock", "")
	if court.Locked() {
		t.Fatalf("area still locked after unlock")
	}
}

// The default room refuses /area_lock because locking is disabled there.
func TestAreaLockDisabled(t *testing.T) {
	s := newTestServer(t)
	court, err := s.areas.GetByName("Courtroom 2")
	if err != nil {
		t.Fatalf("get area: %v", err)
	}
	cm, conn := addTestClient(t, s, "203.0.113.9", 0)
	if err := cm.ChangeArea(court); err != nil {
		t.Fatalf("move: %v", err)
	}
	cm.mu.Lock()
	cm.isCM = true
	cm.mu.Unlock()
	conn.reset()

	s.runCommand(cm, "area_lock", "")
	if court.Locked() {
		t.Fatalf("locking-disabled area was locked")
	}
}

// Roll results land in the room as a host notice, and out-of-range
// arguments are refused.
func TestRoll(t *testing.T) {
	s := newTestServer(t)
	c, conn := addTestClient(t, s, "203.0.113.9", 0)

	s.runCommand(c, "roll", "20")
	if !conn.hasFrame("rolled") {
		t.Fatalf("no roll notice in %v", conn.frames())
	}

	conn.reset()
	s.runCommand(c, "roll", "999999")
	if conn.hasFrame("out of 999999") {
		t.Fatalf("oversized die was rolled")
	}

	conn.reset()
	s.runCommand(c, "roll", "abc")
	if !conn.hasFrame("Wrong argument") {
		t.Fatalf("no argument notice in %v", conn.frames())
	}
}

// The private roll tells the room only that a roll happened.
func TestRollPrivate(t *testing.T) {
	s := newTestServer(t)
	c, _ := addTestClient(t, s, "203.0.113.9", 0)
	_, otherConn := addTestClient(t, s, "203.0.113.20", 1)

	s.runCommand(c, "rollp", "6")

	if !otherConn.hasFrame("rolled.") {
		t.Fatalf("room did not learn a roll happened: %v", otherConn.frames())
	}
	if otherConn.hasFrame("out of 6") {
		t.Fatalf("private roll result leaked to the room")
	}
}

// Switching characters respects uniqueness inside the room.
func TestSwitch(t *testing.T) {
	s := newTestServer(t)
	c, _ := addTestClient(t, s, "203.0.113.9", 0)
	addTestClient(t, s, "203.0.113.20", 1)

	if err := cmdSwitch(s, c, "Edgeworth"); err == nil {
		t.Fatalf("took a character already held in the room")
	}
	if err := cmdSwitch(s, c, "Maya"); err != nil {
		t.Fatalf("switch to free character: %v", err)
	}
	if got := c.CharName(); got != "Maya" {
		t.Fatalf("char = %q, want Maya", got)
	}
}

// Random selection only hands out characters free in the room.
func TestRandomChar(t *testing.T) {
	s := newTestServer(t)
	c, _ := addTestClient(t, s, "203.0.113.9", 0)
	for i := 0; i < 20; i++ {
		if err := cmdRandomChar(s, c, ""); err != nil {
			t.Fatalf("random char: %v", err)
		}
		if c.CharID() == -1 {
			t.Fatalf("random char left the session as a spectator")
		}
	}
}

// Target keywords resolve against the right identity space.
func TestResolveTargets(t *testing.T) {
	s := newTestServer(t)
	caller, _ := addTestClient(t, s, "203.0.113.9", 0)
	makeMod(t, caller)
	target, _ := addTestClient(t, s, "203.0.113.20", 1)

	tests := []struct {
		arg  string
		want *Client
	}{
		{"id 1", target},
		{"ipid " + target.ipid, target},
		{target.ipid, target},
		{"1", target},
		{"char edge", target},
	}
	for _, tt := range tests {
		got, err := resolveTargets(s, caller, tt.arg, false)
		if err != nil {
			t.Errorf("%q: %v", tt.arg, err)
			continue
		}
		if len(got) != 1 || got[0] != tt.want {
			t.Errorf("%q resolved to %v", tt.arg, got)
		}
	}

	if _, err := resolveTargets(s, caller, "id 99", false); err == nil {
		t.Fatalf("nonexistent id resolved")
	}
}

// The doc link is retrievable, replaceable, and clearable.
func TestDoc(t *testing.T) {
	s := newTestServer(t)
	c, conn := addTestClient(t, s, "203.0.113.9", 0)

	s.runCommand(c, "doc", "")
	if !conn.hasFrame("No document.") {
		t.Fatalf("no placeholder doc in %v", conn.frames())
	}

	s.runCommand(c, "doc", "https://example.com/case")
	if got := c.Area().Doc(); got != "https://example.com/case" {
		t.Fatalf("doc = %q", got)
	}

	s.runCommand(c, "cleardoc", "")
	if got := c.Area().Doc(); got != "No document." {
		t.Fatalf("doc after clear = %q", got)
	}
}

// Colon syntax splits target and payload, and rejects missing colons.
func TestSplitColonArg(t *testing.T) {
	name, rest, err := splitColonArg("Best Poll: yes please", "usage")
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if name != "Best Poll" || rest != "yes please" {
		t.Fatalf("split = %q / %q", name, rest)
	}

	if _, _, err := splitColonArg("no colon here", "usage"); err == nil {
		t.Fatalf("missing colon accepted")
	}
	if _, _, err := splitColonArg("empty:", "usage"); err == nil {
		t.Fatalf("empty payload accepted")
	}
}
