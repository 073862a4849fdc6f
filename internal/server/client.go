package server

import (
	"fmt"
	"math/rand"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/gavel/internal/area"
	apperrors "github.com/louisbranch/gavel/internal/errors"
	"github.com/louisbranch/gavel/internal/protocol"
)

// votingPhase tracks the in-band poll-voting sub-flow on the OOC channel.
type votingPhase int

const (
	votingIdle votingPhase = iota
	votingChoosing
	votingCasting
)

// modCallCooldown is the fixed wait between mod calls.
const modCallCooldown = 30 * time.Second

// stagePositions are the six known courtroom positions.
var stagePositions = []string{"def", "pro", "hld", "hlp", "jud", "wit"}

func validPos(pos string) bool {
	for _, p := range stagePositions {
		if p == pos {
			return true
		}
	}
	return false
}

// Client is one live connection's session state. It is created on accept
// and torn down on disconnect; only its own connection goroutine and
// moderation handlers running on other goroutines touch it, so mutable
// fields sit behind the session mutex.
type Client struct {
	srv  *Server
	conn net.Conn

	ID   int
	ipid string
	hdid string

	writeMu sync.Mutex

	mu sync.Mutex

	area *area.Area

	charID int
	name   string
	pos    string

	isAO2   bool
	checked bool

	isMod bool
	isCM  bool

	muted        bool
	oocMuted     bool
	mutedGlobal  bool
	mutedAdverts bool
	mutedModcall bool
	pmMute       bool
	isDJ         bool
	canWTCE      bool
	gimp         bool
	disemvowel   bool

	voting   votingPhase
	votingAt int

	// eviMap maps the indices this client sees in its evidence list back
	// to real area list positions, offset by one; slot 0 means no
	// evidence.
	eviMap []int

	lastModCall time.Time
	musicTimes  []time.Time
	wtceTimes   []time.Time

	pingTimer  *time.Timer
	greetTimer *time.Timer
}

// Area returns the room the session is currently in.
func (c *Client) Area() *area.Area {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.area
}

// IPID returns the session's pseudonymous address id.
func (c *Client) IPID() string { return c.ipid }

// HDID returns the hardware id presented at handshake.
func (c *Client) HDID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hdid
}

// CharID returns the selected character id, -1 when none.
func (c *Client) CharID() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.charID
}

// CharName returns the selected character's name.
func (c *Client) CharName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.charNameLocked()
}

func (c *Client) charNameLocked() string {
	if c.charID == -1 {
		return "Spectator"
	}
	return c.srv.assets.Characters[c.charID]
}

// Name returns the OOC display name.
func (c *Client) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

// IsMod reports whether the session holds moderator rights.
func (c *Client) IsMod() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isMod
}

// Send writes one protocol message to the client.
func (c *Client) Send(cmd string, args ...any) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.conn.Write([]byte(protocol.Encode(cmd, args...))); err != nil {
		c.srv.logs.Debug("write to client %d failed: %v", c.ID, err)
	}
}

// SendHostMessage sends an OOC notice from the server host to this session
// only.
func (c *Client) SendHostMessage(text string) {
	c.Send("CT", c.srv.cfg.Hostname, text)
}

// SendMOTD sends the message of the day.
func (c *Client) SendMOTD() {
	c.SendHostMessage(fmt.Sprintf("=== MOTD ===\r\n%s\r\n=============", c.srv.assets.MOTD))
}

// SendPlayerCount reports current occupancy against the player limit.
func (c *Client) SendPlayerCount() {
	c.SendHostMessage(fmt.Sprintf("%d players online, max %d.",
		c.srv.clients.Count(), c.srv.cfg.PlayerLimit))
}

// SendAreaList sends the annotated area listing.
func (c *Client) SendAreaList() {
	var b strings.Builder
	b.WriteString("=== Areas ===")
	for _, a := range c.srv.areas.Areas() {
		owned := ""
		if a.Owned() {
			owned = " [CM]"
		}
		locked := ""
		if a.Locked() {
			locked = " [LOCKED]"
		}
		fmt.Fprintf(&b, "\r\nArea %d: %s (users: %d) [%s]%s%s",
			a.ID, a.Name, c.srv.clients.CountInArea(a), a.Status(), owned, locked)
	}
	b.WriteString("\r\n=============")
	c.SendHostMessage(b.String())
}

// SendAreaInfo lists the occupants of one area, or of every area when id
// is negative.
func (c *Client) SendAreaInfo(areaID int) {
	var b strings.Builder
	for _, a := range c.srv.areas.Areas() {
		if areaID >= 0 && a.ID != areaID {
			continue
		}
		occupants := c.srv.clients.InArea(a)
		fmt.Fprintf(&b, "=== %s ===", a.Name)
		for _, o := range occupants {
			fmt.Fprintf(&b, "\r\n[%d] %s", o.ID, o.CharName())
		}
		b.WriteString("\r\n")
	}
	c.SendHostMessage(strings.TrimRight(b.String(), "\r\n"))
}

// SendDone finishes the handshake listing sequence: taken characters,
// penalty bars, background, evidence, and the DONE signal.
func (c *Client) SendDone() {
	taken := make([]any, len(c.srv.assets.Characters))
	for i := range taken {
		if c.srv.clients.IsCharTaken(c.Area(), i) {
			taken[i] = -1
		} else {
			taken[i] = 0
		}
	}
	c.Send("CharsCheck", taken...)
	hp1, _ := c.Area().HP(1)
	hp2, _ := c.Area().HP(2)
	c.Send("HP", 1, hp1)
	c.Send("HP", 2, hp2)
	c.Send("BN", c.Area().Background())
	c.SendEvidenceList()
	c.Send("MM", 1)
	c.Send("OPPASS", "DEADBEEF")
	if c.CharID() == -1 {
		c.Send("DONE")
	} else {
		c.Send("DONE", c.CharID())
	}
}

// SendEvidenceList serializes the evidence this session may see and
// refreshes its index mapping.
func (c *Client) SendEvidenceList() {
	c.mu.Lock()
	isMod, isCM := c.isMod, c.isCM
	a := c.area
	c.mu.Unlock()
	if a == nil {
		return
	}

	items, indices := a.VisibleEvidence(isMod, isCM)
	eviMap := make([]int, 0, len(indices)+1)
	eviMap = append(eviMap, 0)
	args := make([]any, 0, len(items))
	for i, ev := range items {
		eviMap = append(eviMap, indices[i]+1)
		args = append(args, fmt.Sprintf("%s&%s&%s", ev.Name, ev.Desc, ev.Image))
	}

	c.mu.Lock()
	c.eviMap = eviMap
	c.mu.Unlock()
	c.Send("LE", args...)
}

// realEvidenceIndex translates a client-visible evidence slot into the
// area's list index. Slot 0 and unknown slots return -1.
func (c *Client) realEvidenceIndex(slot int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slot <= 0 || slot >= len(c.eviMap) {
		return -1
	}
	return c.eviMap[slot] - 1
}

// ChangeCharacter switches the session to a character id, enforcing
// uniqueness within the room. Moderators may force-take a character.
func (c *Client) ChangeCharacter(cid int, force bool) error {
	if cid < -1 || cid >= len(c.srv.assets.Characters) {
		return apperrors.New(apperrors.CodeCharNotFound, "invalid character id")
	}
	if cid != -1 && !force && c.srv.clients.IsCharTakenBy(c.Area(), cid, c) {
		return apperrors.New(apperrors.CodeClientCharTaken, "character is taken")
	}
	c.mu.Lock()
	c.charID = cid
	c.pos = ""
	c.mu.Unlock()
	if cid != -1 {
		c.srv.stats.CharacterPicked(c.CharName())
	}
	c.Send("PV", c.ID, "CID", cid)
	return nil
}

// CharSelect drops the session back to the character picker.
func (c *Client) CharSelect() {
	c.mu.Lock()
	c.charID = -1
	c.mu.Unlock()
	c.SendDone()
}

// ChangeArea moves the session to another room, honoring locks and
// re-checking character uniqueness at the destination.
func (c *Client) ChangeArea(dest *area.Area) error {
	current := c.Area()
	if current == dest {
		return apperrors.New(apperrors.CodeClientAlreadyInArea, "you are already in that area")
	}
	if !dest.CanJoin(c.ipid) && !c.IsMod() {
		return apperrors.New(apperrors.CodeAreaLocked, "that area is locked")
	}
	if cid := c.CharID(); cid != -1 && c.srv.clients.IsCharTakenBy(dest, cid, c) {
		return apperrors.New(apperrors.CodeClientCharTaken, "your character is taken in that area")
	}

	c.mu.Lock()
	wasCM := c.isCM
	c.isCM = false
	c.area = dest
	c.mu.Unlock()
	if wasCM && current != nil {
		current.SetOwned(false)
	}

	c.Send("HP", 1, mustHP(dest, 1))
	c.Send("HP", 2, mustHP(dest, 2))
	c.Send("BN", dest.Background())
	c.SendEvidenceList()
	c.SendHostMessage(fmt.Sprintf("Changed area to %s.", dest.Name))
	c.srv.logs.Server("[%d]%s changed area", dest.ID, c.CharName())
	return nil
}

func mustHP(a *area.Area, bar int) int {
	hp, _ := a.HP(bar)
	return hp
}

// AuthMod elevates the session to moderator given the right password.
func (c *Client) AuthMod(password string) error {
	if c.srv.cfg.ModPassword == "" || password != c.srv.cfg.ModPassword {
		return apperrors.New(apperrors.CodeClientBadPassword, "invalid password")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.isMod {
		return apperrors.New(apperrors.CodeClientStateConflict, "already logged in")
	}
	c.isMod = true
	return nil
}

// CanCallMod reports whether the mod-call cooldown has elapsed.
func (c *Client) CanCallMod() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.srv.now().Sub(c.lastModCall) >= modCallCooldown
}

// SetModCallDelay starts the mod-call cooldown.
func (c *Client) SetModCallDelay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastModCall = c.srv.now()
}

// MusicCooldown returns the seconds a session must still wait before the
// next music change, or zero when allowed.
func (c *Client) MusicCooldown() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var remaining int
	c.musicTimes, remaining = floodRemaining(c.musicTimes, c.srv.now(),
		c.srv.cfg.MusicFloodTimes, c.srv.cfg.MusicFloodWindow)
	return remaining
}

// WTCECooldown returns the seconds a session must still wait before the
// next judge sign, or zero when allowed.
func (c *Client) WTCECooldown() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var remaining int
	c.wtceTimes, remaining = floodRemaining(c.wtceTimes, c.srv.now(),
		c.srv.cfg.WTCEFloodTimes, c.srv.cfg.WTCEFloodWindow)
	return remaining
}

// floodRemaining implements a sliding-window rate limit: at most times
// events per window. It records the event when allowed.
func floodRemaining(events []time.Time, now time.Time, times int, window time.Duration) ([]time.Time, int) {
	kept := events[:0]
	for _, t := range events {
		if now.Sub(t) < window {
			kept = append(kept, t)
		}
	}
	if len(kept) >= times && times > 0 {
		wait := window - now.Sub(kept[0])
		secs := int(wait / time.Second)
		if secs < 1 {
			secs = 1
		}
		return kept, secs
	}
	return append(kept, now), 0
}

// ResetPingTimeout restarts the liveness timer after a keepalive.
func (c *Client) ResetPingTimeout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pingTimer != nil {
		c.pingTimer.Stop()
	}
	c.pingTimer = time.AfterFunc(c.srv.cfg.Timeout, func() { c.Disconnect() })
}

// Disconnect closes the connection; cleanup happens in the read loop.
func (c *Client) Disconnect() {
	_ = c.conn.Close()
}

var gimpLines = []string{
	"OBJECTION! ...I forgot what I was going to say.",
	"The true culprit... is me!",
	"I have no idea what is going on.",
	"Can someone call my lawyer? I need a lawyer for my lawyer.",
	"I plead the fifth, the sixth, and most of the seventh.",
}

// GimpMessage replaces the text of a gimped speaker.
func (c *Client) GimpMessage() string {
	return gimpLines[rand.Intn(len(gimpLines))]
}

// DisemvowelMessage strips vowels from a disemvoweled speaker's text.
func (c *Client) DisemvowelMessage(text string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
			return -1
		}
		return r
	}, text)
}
