package server

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/louisbranch/gavel/internal/protocol"
)

// argKind describes one expected argument position.
type argKind int

const (
	argStr argKind = iota
	argStrOrEmpty
	argInt
)

// validateArgs checks a net command's arguments against its schema. When
// needsChar is set, sessions without a character fail immediately. Integer
// positions are converted in place into the returned slice, indexed like
// args.
func validateArgs(c *Client, args []string, needsChar bool, kinds ...argKind) ([]int, bool) {
	if needsChar && c.CharID() == -1 {
		return nil, false
	}
	if len(args) != len(kinds) {
		return nil, false
	}
	ints := make([]int, len(args))
	for i, arg := range args {
		if len(arg) == 0 && kinds[i] != argStrOrEmpty {
			return nil, false
		}
		if kinds[i] == argInt {
			n, err := strconv.Atoi(arg)
			if err != nil {
				return nil, false
			}
			ints[i] = n
		}
	}
	return ints, true
}

// netHandler runs one decoded protocol message for a session.
type netHandler func(s *Server, c *Client, args []string)

// netHandlers is the static command table. Unknown codes are logged at
// debug and ignored.
var netHandlers = map[string]netHandler{
	"HI":       handleHI,
	"ID":       handleID,
	"CH":       handleCH,
	"askchaa":  handleAskCounts,
	"askchar2": handleAskCharPage0,
	"AN":       handleCharPage,
	"AE":       handleEvidencePage,
	"AM":       handleMusicPage,
	"RC":       handleCharListBulk,
	"RM":       handleMusicListBulk,
	"RD":       handleReady,
	"CC":       handleCharPick,
	"MS":       handleIC,
	"CT":       handleOOC,
	"MC":       handleMusic,
	"RT":       handleWTCE,
	"HP":       handlePenalty,
	"PE":       handleEvidenceAdd,
	"DE":       handleEvidenceDelete,
	"EE":       handleEvidenceEdit,
	"ZZ":       handleModCall,
	"opKICK":   handleOpKick,
	"opBAN":    handleOpBan,
}

func (s *Server) dispatch(c *Client, msg protocol.Message) {
	h, ok := netHandlers[msg.Cmd]
	if !ok {
		s.logs.Debug("[INC][UNK]%s", msg.Cmd)
		return
	}
	h(s, c, msg.Args)
}

// handleHI is the handshake: the client presents its hardware id, the
// server records the pairing, runs the ban check, and assigns an id.
func handleHI(s *Server, c *Client, args []string) {
	if _, ok := validateArgs(c, args, false, argStr); !ok {
		return
	}
	hdid := args[0]
	c.mu.Lock()
	c.hdid = hdid
	c.mu.Unlock()

	if err := s.bans.RecordHDID(hdid, c.ipid); err != nil {
		s.logs.Server("record hdid: %v", err)
	}
	banned, err := s.bans.CheckConnect(hdid, c.ipid)
	if err != nil {
		s.logs.Server("ban check: %v", err)
	}
	if banned {
		s.logs.Connect("connection rejected, banned. HDID: %s", hdid)
		c.Disconnect()
		return
	}

	s.logs.Connect("connected. HDID: %s IPID: %s", hdid, c.ipid)
	s.stats.Connected(c.ipid)
	c.Send("ID", c.ID, software, version)
	c.Send("PN", s.clients.Count()-1, s.cfg.PlayerLimit)
}

// handleID negotiates the client version and advertises features to
// clients of the AO2 generation (2.2.5 and up).
func handleID(s *Server, c *Client, args []string) {
	c.mu.Lock()
	c.isAO2 = false
	c.mu.Unlock()

	if len(args) < 2 {
		return
	}
	parts := strings.Split(args[1], ".")
	if len(parts) < 3 {
		return
	}
	release, err1 := strconv.Atoi(parts[0])
	major, err2 := strconv.Atoi(parts[1])
	minor, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return
	}
	if args[0] != "AO2" {
		return
	}
	if release < 2 || (release == 2 && (major < 2 || (major == 2 && minor < 5))) {
		return
	}

	c.mu.Lock()
	c.isAO2 = true
	c.mu.Unlock()

	features := make([]any, 0)
	for _, f := range s.Features() {
		features = append(features, f)
	}
	c.Send("FL", features...)
}

// handleCH answers the keepalive and pushes the liveness timer out.
func handleCH(s *Server, c *Client, _ []string) {
	c.Send("CHECK")
	c.ResetPingTimeout()
}

// handleAskCounts reports list sizes for the legacy loader.
func handleAskCounts(s *Server, c *Client, _ []string) {
	c.Send("SI", len(s.assets.Characters), 0, len(s.assets.SongNames()))
}

// handleAskCharPage0 serves the first legacy character page.
func handleAskCharPage0(s *Server, c *Client, _ []string) {
	if page, ok := s.CharPage(0); ok {
		c.Send("CI", page...)
	}
}

// handleCharPage serves one legacy character page, or rolls over into the
// first music page past the end.
func handleCharPage(s *Server, c *Client, args []string) {
	ints, ok := validateArgs(c, args, false, argInt)
	if !ok {
		return
	}
	if page, ok := s.CharPage(ints[0]); ok {
		c.Send("CI", page...)
		return
	}
	if page, ok := s.MusicPage(0); ok {
		c.Send("EM", page...)
	}
}

// handleEvidencePage is kept for protocol compatibility; the legacy
// loader never receives paged evidence.
func handleEvidencePage(*Server, *Client, []string) {}

// handleMusicPage serves one legacy music page; past the end it closes
// the loading sequence.
func handleMusicPage(s *Server, c *Client, args []string) {
	ints, ok := validateArgs(c, args, false, argInt)
	if !ok {
		return
	}
	if page, ok := s.MusicPage(ints[0]); ok {
		c.Send("EM", page...)
		return
	}
	c.SendDone()
	c.SendAreaList()
	c.SendMOTD()
}

// handleCharListBulk serves the whole character list in one message.
func handleCharListBulk(s *Server, c *Client, _ []string) {
	names := make([]any, len(s.assets.Characters))
	for i, name := range s.assets.Characters {
		names[i] = name
	}
	c.Send("SC", names...)
}

// handleMusicListBulk serves areas plus music in one message.
func handleMusicListBulk(s *Server, c *Client, _ []string) {
	c.Send("SM", s.MusicList()...)
}

// handleReady closes the fast-loading sequence.
func handleReady(s *Server, c *Client, _ []string) {
	c.SendDone()
	c.SendAreaList()
	c.SendMOTD()
}

// handleCharPick selects a character.
func handleCharPick(s *Server, c *Client, args []string) {
	ints, ok := validateArgs(c, args, false, argInt, argInt, argStr)
	if !ok {
		return
	}
	_ = c.ChangeCharacter(ints[1], false)
}

var nonASCII = regexp.MustCompile(`[^\x00-\x7F]+`)

// reservedTokens are client-side replacement placeholders that must not
// arrive alone in announcement color.
var reservedTokens = map[string]struct{}{
	"<num>": {}, "<percent>": {}, "<dollar>": {}, "<and>": {},
}

// handleIC is the in-character message pipeline described in the room
// model: full 15-field validation, color and position policy, moderation
// text effects, evidence reveal, broadcast, and pacing.
func handleIC(s *Server, c *Client, args []string) {
	c.mu.Lock()
	muted := c.muted
	c.mu.Unlock()
	if muted {
		c.SendHostMessage("You have been muted by a moderator")
		return
	}
	a := c.Area()
	if !a.CanSpeak() {
		return
	}
	ints, ok := validateArgs(c, args, true,
		argStr, argStrOrEmpty, argStr, argStr, argStr, argStr, argStr,
		argInt, argInt, argInt, argInt, argInt, argInt, argInt, argInt)
	if !ok {
		return
	}

	msgType, pre, folder, anim, text, pos, sfx := args[0], args[1], args[2], args[3], args[4], args[5], args[6]
	animType, cid, sfxDelay := ints[7], ints[8], ints[9]
	button, evidence, flip, ding, color := ints[10], ints[11], ints[12], ints[13], ints[14]

	if folder != c.CharName() && !a.IniswapAllowed() && !s.assets.IniswapAllowed(c.CharName(), folder) {
		c.SendHostMessage("Iniswap is blocked in this area")
		return
	}
	if msgType != "chat" && msgType != "0" && msgType != "1" {
		return
	}
	switch animType {
	case 0, 1, 2, 5, 6:
	default:
		return
	}
	if cid != c.CharID() {
		return
	}
	if sfxDelay < 0 {
		return
	}
	if button < 0 || button > 4 {
		return
	}
	if evidence < 0 {
		return
	}
	if ding != 0 && ding != 1 {
		return
	}
	if color < 0 || color > 6 {
		return
	}
	if color == 2 && !c.IsMod() {
		color = 0
	}
	if color == 6 {
		text = nonASCII.ReplaceAllString(text, " ")
		stripped := strings.Trim(text, " ")
		if len(stripped) == 1 {
			color = 0
		} else if _, reserved := reservedTokens[stripped]; reserved {
			color = 0
		}
	}

	c.mu.Lock()
	if c.pos != "" {
		pos = c.pos
	} else if !validPos(pos) {
		c.mu.Unlock()
		return
	}
	c.pos = pos
	gimped, disemvoweled := c.gimp, c.disemvowel
	c.mu.Unlock()

	if len(text) > 256 {
		text = text[:256]
	}
	if gimped {
		text = c.GimpMessage()
	}
	if disemvoweled {
		text = c.DisemvowelMessage(text)
	}

	// The sender's evidence slot is local to its visible list; receivers
	// need the area numbering, offset by one, with 0 for nothing held up.
	areaEvidence := 0
	if evidence > 0 {
		real := c.realEvidenceIndex(evidence)
		if real >= 0 {
			areaEvidence = real + 1
			items := a.Evidence()
			if real < len(items) && items[real].Pos != "all" {
				_ = a.SetEvidencePos(real, "all")
				s.BroadcastEvidence(a)
			}
		}
	}

	s.SendArea(a, "MS", msgType, pre, folder, anim, text, pos, sfx, animType, cid,
		sfxDelay, button, areaEvidence, flip, ding, color)
	a.RecordMessage(len(text))
	s.logs.Server("[IC][%d][%s]%s", a.ID, c.CharName(), text)
	s.stats.CharacterTalked(c.CharName(), a.Status())
	s.stats.UserTalked(c.ipid, a.Status())
	if color == 2 {
		s.logs.Mod("[IC][Redtext][%d][%s][%s]%s", a.ID, a.Status(), c.CharName(), text)
	}
}

// handleMusic plays a track, or switches rooms when the name matches an
// area. The room interpretation is tried first.
func handleMusic(s *Server, c *Client, args []string) {
	if len(args) >= 1 {
		if dest, err := s.areas.GetByName(args[0]); err == nil {
			if err := c.ChangeArea(dest); err != nil {
				c.SendHostMessage(err.Error())
			}
			return
		}
	}

	c.mu.Lock()
	muted, isDJ := c.muted, c.isDJ
	c.mu.Unlock()
	if muted {
		c.SendHostMessage("You have been muted by a moderator")
		return
	}
	if !isDJ {
		c.SendHostMessage("You were blocked from changing the music by a moderator.")
		return
	}
	ints, ok := validateArgs(c, args, true, argStr, argInt)
	if !ok {
		return
	}
	if ints[1] != c.CharID() {
		return
	}
	if wait := c.MusicCooldown(); wait > 0 {
		c.SendHostMessage(fmt.Sprintf(
			"You changed song too many times. Please try again after %d seconds.", wait))
		return
	}
	song, found := s.assets.FindSong(args[0])
	if !found {
		return
	}
	a := c.Area()
	a.PlayMusic(song.Name, c.ID)
	s.SendArea(a, "MC", song.Name, c.CharID())
	s.logs.Server("[%d][%s]changed music to %s", a.ID, c.CharName(), song.Name)
	s.stats.MusicPlayed(song.Name, a.Status())
}

// handleWTCE plays a judge sign, rate limited and logged to the judge log.
func handleWTCE(s *Server, c *Client, args []string) {
	c.mu.Lock()
	muted, canWTCE := c.muted, c.canWTCE
	c.mu.Unlock()
	if muted {
		c.SendHostMessage("You have been muted by a moderator")
		return
	}
	if !canWTCE {
		c.SendHostMessage("You were blocked from using judge signs by a moderator.")
		return
	}
	if _, ok := validateArgs(c, args, true, argStr); !ok {
		return
	}
	var sign string
	switch args[0] {
	case "testimony1":
		sign = "WT"
	case "testimony2":
		sign = "CE"
	default:
		return
	}
	if wait := c.WTCECooldown(); wait > 0 {
		c.SendHostMessage(fmt.Sprintf(
			"You used judge signs too many times. Please try again after %d seconds.", wait))
		return
	}
	a := c.Area()
	s.SendArea(a, "RT", args[0])
	a.AppendJudgeLog(fmt.Sprintf("%s used %s", c.CharName(), sign))
	s.logs.Server("[%d]%s used %s", a.ID, c.CharName(), sign)
}

// handlePenalty updates a penalty bar and logs the change.
func handlePenalty(s *Server, c *Client, args []string) {
	c.mu.Lock()
	muted := c.muted
	c.mu.Unlock()
	if muted {
		c.SendHostMessage("You have been muted by a moderator")
		return
	}
	ints, ok := validateArgs(c, args, true, argInt, argInt)
	if !ok {
		return
	}
	a := c.Area()
	if err := a.SetHP(ints[0], ints[1]); err != nil {
		return
	}
	s.SendArea(a, "HP", ints[0], ints[1])
	a.AppendJudgeLog(fmt.Sprintf("%s changed the penalties", c.CharName()))
	s.logs.Server("[%d]%s changed HP (%d) to %d", a.ID, c.CharName(), ints[0], ints[1])
}

// handleEvidenceAdd appends evidence, publicly visible.
func handleEvidenceAdd(s *Server, c *Client, args []string) {
	if len(args) < 3 || c.CharID() == -1 {
		return
	}
	a := c.Area()
	c.mu.Lock()
	isMod, isCM := c.isMod, c.isCM
	c.mu.Unlock()
	if !a.CanMutateEvidence(isMod, isCM) {
		return
	}
	a.AddEvidence(args[0], args[1], args[2])
	s.BroadcastEvidence(a)
}

// handleEvidenceDelete removes evidence through the caller's index map.
func handleEvidenceDelete(s *Server, c *Client, args []string) {
	ints, ok := validateArgs(c, args, true, argInt)
	if !ok {
		return
	}
	a := c.Area()
	c.mu.Lock()
	isMod, isCM := c.isMod, c.isCM
	c.mu.Unlock()
	if !a.CanMutateEvidence(isMod, isCM) {
		return
	}
	real := c.realEvidenceIndex(ints[0] + 1)
	if real < 0 {
		return
	}
	if err := a.DeleteEvidence(real); err != nil {
		return
	}
	s.BroadcastEvidence(a)
}

// handleEvidenceEdit replaces evidence through the caller's index map.
func handleEvidenceEdit(s *Server, c *Client, args []string) {
	if len(args) < 4 || c.CharID() == -1 {
		return
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return
	}
	a := c.Area()
	c.mu.Lock()
	isMod, isCM := c.isMod, c.isCM
	c.mu.Unlock()
	if !a.CanMutateEvidence(isMod, isCM) {
		return
	}
	real := c.realEvidenceIndex(index + 1)
	if real < 0 {
		return
	}
	if err := a.EditEvidence(real, args[1], args[2], args[3]); err != nil {
		return
	}
	s.BroadcastEvidence(a)
}

// handleModCall signals every moderator, with an optional feature-gated
// reason, under a fixed cooldown.
func handleModCall(s *Server, c *Client, args []string) {
	c.mu.Lock()
	muted, mutedModcall := c.muted, c.mutedModcall
	c.mu.Unlock()
	if muted {
		c.SendHostMessage("You have been muted by a moderator")
		return
	}
	if mutedModcall {
		c.SendHostMessage("You have muted modcalls")
		return
	}
	if !c.CanCallMod() {
		c.SendHostMessage("You must wait 30 seconds between mod calls.")
		return
	}

	a := c.Area()
	stamp := s.now().Format("15:04")
	notice := fmt.Sprintf("[%s] %s (%s) in %s (%d).", stamp, c.CharName(), c.ipid, a.Name, a.ID)
	if s.cfg.ModcallReason {
		reason := "N/A"
		if _, ok := validateArgs(c, args, false, argStr); ok {
			if len(args[0]) > 256 {
				s.logs.Server("[%s] sent an oversized modcall reason", c.ipid)
				return
			}
			reason = args[0]
		}
		notice += " Reason: " + reason
	}
	s.SendAll(func(target *Client) bool { return target.IsMod() }, "ZZ", notice)
	s.logs.Server("[%s][%d]%s called a moderator", c.ipid, a.ID, c.CharName())
	c.SetModCallDelay()
}

// handleOpKick is the client kick button: it re-routes through the OOC
// slash-command path.
func handleOpKick(s *Server, c *Client, args []string) {
	if len(args) < 1 {
		return
	}
	handleOOC(s, c, []string{opName(c), "/kick id " + args[0]})
}

// handleOpBan is the client ban button, also re-routed.
func handleOpBan(s *Server, c *Client, args []string) {
	if len(args) < 1 {
		return
	}
	handleOOC(s, c, []string{opName(c), "/ban id " + args[0]})
}

func opName(c *Client) string {
	if name := c.Name(); name != "" {
		return name
	}
	return "officer"
}
