package server

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/louisbranch/gavel/internal/area"
	"github.com/louisbranch/gavel/internal/dice"
	apperrors "github.com/louisbranch/gavel/internal/errors"
)

// oocCommand executes one slash-command. Returned domain errors become a
// host notice to the caller.
type oocCommand func(s *Server, c *Client, arg string) error

// oocCommands is the moderation engine's name to handler table.
var oocCommands map[string]oocCommand

// The table is built in init because /help walks it, which a var
// initializer would reject as an initialization cycle.
func init() {
	oocCommands = map[string]oocCommand{
		"switch":           cmdSwitch,
		"bg":               cmdBG,
		"bglock":           cmdBGLock,
		"evidence_mod":     cmdEvidenceMod,
		"allow_iniswap":    cmdAllowIniswap,
		"roll":             cmdRoll,
		"rollp":            cmdRollPrivate,
		"currentmusic":     cmdCurrentMusic,
		"coinflip":         cmdCoinflip,
		"motd":             cmdMOTD,
		"pos":              cmdPos,
		"forcepos":         cmdForcePos,
		"help":             cmdHelp,
		"kick":             cmdKick,
		"ban":              cmdBan,
		"unban":            cmdUnban,
		"play":             cmdPlay,
		"mute":             cmdMute,
		"unmute":           cmdUnmute,
		"login":            cmdLogin,
		"g":                cmdGlobal,
		"gm":               cmdGlobalMod,
		"lm":               cmdLocalMod,
		"announce":         cmdAnnounce,
		"toggleglobal":     cmdToggleGlobal,
		"need":             cmdNeed,
		"toggleadverts":    cmdToggleAdverts,
		"doc":              cmdDoc,
		"cleardoc":         cmdClearDoc,
		"status":           cmdStatus,
		"online":           cmdOnline,
		"area":             cmdArea,
		"pm":               cmdPM,
		"mutepm":           cmdMutePM,
		"charselect":       cmdCharSelect,
		"reload":           cmdReload,
		"randomchar":       cmdRandomChar,
		"getarea":          cmdGetArea,
		"getareas":         cmdGetAreas,
		"mods":             cmdMods,
		"evi_swap":         cmdEviSwap,
		"cm":               cmdCM,
		"logout":           cmdLogout,
		"area_lock":        cmdAreaLock,
		"area_unlock":      cmdAreaUnlock,
		"invite":           cmdInvite,
		"uninvite":         cmdUninvite,
		"area_kick":        cmdAreaKick,
		"ooc_mute":         cmdOOCMute,
		"ooc_unmute":       cmdOOCUnmute,
		"disemvowel":       cmdDisemvowel,
		"undisemvowel":     cmdUndisemvowel,
		"gimp":             cmdGimp,
		"ungimp":           cmdUngimp,
		"blockdj":          cmdBlockDJ,
		"unblockdj":        cmdUnblockDJ,
		"blockwtce":        cmdBlockWTCE,
		"unblockwtce":      cmdUnblockWTCE,
		"vote":             cmdVote,
		"votelist":         cmdVoteList,
		"pollset":          cmdPollSet,
		"pollremove":       cmdPollRemove,
		"addpolldetail":    cmdAddPollDetail,
		"kms":              cmdKMS,
		"notecard":         cmdNotecard,
		"notecard_clear":   cmdNotecardClear,
		"notecard_reveal":  cmdNotecardReveal,
		"judgelog":         cmdJudgeLog,
		"togglemodcall":    cmdToggleModcall,
		"pollchoiceadd":    cmdPollChoiceAdd,
		"pollchoiceremove": cmdPollChoiceRemove,
		"pollchoiceclear":  cmdPollChoiceClear,
		"makepollmulti":    cmdMakePollMulti,
		"setupdate":        cmdSetUpdate,
		"update":           cmdUpdate,
		"setthread":        cmdSetThread,
		"thread":           cmdThread,
		"refresh":          cmdRefresh,
	}
}

var errNotAuthorized = apperrors.New(apperrors.CodeClientNotAuthorized, "You must be authorized to do that.")

func requireMod(c *Client) error {
	if !c.IsMod() {
		return errNotAuthorized
	}
	return nil
}

func requireNoArg(arg string) error {
	if arg != "" {
		return apperrors.Argument("This command has no arguments.")
	}
	return nil
}

// splitColonArg parses the "<name>: <rest>" syntax used by /pm and the
// poll-choice commands.
func splitColonArg(arg, usage string) (string, string, error) {
	words := strings.Fields(arg)
	split := -1
	for i, word := range words {
		if strings.HasSuffix(strings.ToLower(word), ":") {
			split = i
			break
		}
	}
	if split == -1 {
		return "", "", apperrors.Argument("Invalid syntax. Add ':' at the end of the target. " + usage)
	}
	name := strings.Join(words[:split+1], " ")
	name = name[:len(name)-1]
	rest := strings.Join(words[split+1:], " ")
	if rest == "" {
		return "", "", apperrors.Argument("Not enough arguments. " + usage)
	}
	return name, rest, nil
}

func (s *Server) charIDByName(name string) (int, error) {
	for cid, charName := range s.assets.Characters {
		if strings.EqualFold(charName, name) {
			return cid, nil
		}
	}
	return 0, apperrors.New(apperrors.CodeCharNotFound, "no character with that name")
}

func cmdSwitch(s *Server, c *Client, arg string) error {
	if arg == "" {
		return apperrors.Argument("You must specify a character name.")
	}
	cid, err := s.charIDByName(arg)
	if err != nil {
		return err
	}
	if err := c.ChangeCharacter(cid, c.IsMod()); err != nil {
		return err
	}
	c.SendHostMessage("Character changed.")
	return nil
}

func cmdBG(s *Server, c *Client, arg string) error {
	if arg == "" {
		return apperrors.Argument("You must specify a name. Use /bg <background>.")
	}
	found := false
	for _, bg := range s.assets.Backgrounds {
		if strings.EqualFold(bg, arg) {
			found = true
			break
		}
	}
	if !found {
		return apperrors.New(apperrors.CodeAreaBadBackground, "no background with that name")
	}
	a := c.Area()
	if err := a.SetBackground(arg, c.IsMod()); err != nil {
		return err
	}
	s.SendArea(a, "BN", arg)
	s.SendAreaHostMessage(a, fmt.Sprintf("%s changed the background to %s.", c.CharName(), arg))
	s.logs.Server("[%d][%s]changed background to %s", a.ID, c.CharName(), arg)
	return nil
}

func cmdBGLock(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	if err := requireNoArg(arg); err != nil {
		return err
	}
	a := c.Area()
	a.SetBGLock(!a.BGLocked())
	s.SendAreaHostMessage(a, fmt.Sprintf("A mod has set the background lock to %v.", a.BGLocked()))
	s.logs.Mod("[%d][%s]changed bglock to %v", a.ID, c.CharName(), a.BGLocked())
	return nil
}

func cmdEvidenceMod(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	a := c.Area()
	if arg == "" {
		c.SendHostMessage(fmt.Sprintf("current evidence mod: %s", a.EvidenceMode()))
		return nil
	}
	mod, ok := area.ParseEvidenceMod(arg)
	if !ok {
		return apperrors.Argument("Wrong argument. Use /evidence_mod <mod>. Possible values: FFA, CM, Mods, HiddenCM")
	}
	wasHidden := a.EvidenceMode() == area.EvidenceHiddenCM
	a.SetEvidenceMode(mod)
	if wasHidden && mod != area.EvidenceHiddenCM {
		s.BroadcastEvidence(a)
	}
	c.SendHostMessage(fmt.Sprintf("current evidence mod: %s", a.EvidenceMode()))
	return nil
}

func cmdAllowIniswap(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	a := c.Area()
	a.SetIniswapAllowed(!a.IniswapAllowed())
	state := "forbidden"
	if a.IniswapAllowed() {
		state = "allowed"
	}
	c.SendHostMessage(fmt.Sprintf("iniswap is %s.", state))
	return nil
}

// parseRollArgs reads the optional "<max> [<count>]" pair for /roll.
func parseRollArgs(arg string) (sides, count int, err error) {
	sides, count = 6, 1
	if arg == "" {
		return sides, count, nil
	}
	fields := strings.Fields(arg)
	if len(fields) > 2 {
		return 0, 0, apperrors.Argument("Too many arguments. Use /roll [<max>] [<num of rolls>]")
	}
	sides, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, apperrors.Argument("Wrong argument. Use /roll [<max>] [<num of rolls>]")
	}
	if len(fields) == 2 {
		count, err = strconv.Atoi(fields[1])
		if err != nil {
			return 0, 0, apperrors.Argument("Wrong argument. Use /roll [<max>] [<num of rolls>]")
		}
	}
	return sides, count, nil
}

func formatRoll(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	joined := strings.Join(parts, ", ")
	if len(values) > 1 {
		return "(" + joined + ")"
	}
	return joined
}

func cmdRoll(s *Server, c *Client, arg string) error {
	sides, count, err := parseRollArgs(arg)
	if err != nil {
		return err
	}
	values, err := dice.Roll(sides, count, s.now().UnixNano())
	if err != nil {
		return apperrors.Argument(err.Error())
	}
	a := c.Area()
	roll := formatRoll(values)
	s.SendAreaHostMessage(a, fmt.Sprintf("%s rolled %s out of %d.", c.CharName(), roll, sides))
	s.logs.Server("[%d][%s]used /roll and got %s out of %d", a.ID, c.CharName(), roll, sides)
	return nil
}

func cmdRollPrivate(s *Server, c *Client, arg string) error {
	sides, count, err := parseRollArgs(arg)
	if err != nil {
		return err
	}
	values, err := dice.Roll(sides, count, s.now().UnixNano())
	if err != nil {
		return apperrors.Argument(err.Error())
	}
	a := c.Area()
	roll := formatRoll(values)
	c.SendHostMessage(fmt.Sprintf("%s rolled %s out of %d.", c.CharName(), roll, sides))
	s.SendAreaHostMessage(a, fmt.Sprintf("%s rolled.", c.CharName()))

	// The result is logged salted and hashed so staff can audit a
	// disputed roll without the log leaking it.
	salt := make([]byte, 8)
	_, _ = rand.Read(salt)
	s.logs.Server("[%d][%s]used /rollp and got %s|%s",
		a.ID, c.CharName(), hashRoll(roll, hex.EncodeToString(salt)), hex.EncodeToString(salt))
	return nil
}

func cmdCurrentMusic(s *Server, c *Client, arg string) error {
	if err := requireNoArg(arg); err != nil {
		return err
	}
	name, playerID := c.Area().CurrentMusic()
	if name == "" {
		return apperrors.Client("There is no music currently playing.")
	}
	player := "the server"
	for _, other := range s.clients.All() {
		if other.ID == playerID {
			player = other.CharName()
			break
		}
	}
	c.SendHostMessage(fmt.Sprintf("The current music is %s and was played by %s.", name, player))
	return nil
}

func cmdCoinflip(s *Server, c *Client, arg string) error {
	if err := requireNoArg(arg); err != nil {
		return err
	}
	flip := dice.Coinflip(s.now().UnixNano())
	a := c.Area()
	s.SendAreaHostMessage(a, fmt.Sprintf("%s flipped a coin and got %s.", c.CharName(), flip))
	s.logs.Server("[%d][%s]used /coinflip and got %s", a.ID, c.CharName(), flip)
	return nil
}

func cmdMOTD(s *Server, c *Client, arg string) error {
	if err := requireNoArg(arg); err != nil {
		return err
	}
	c.SendMOTD()
	return nil
}

func cmdPos(s *Server, c *Client, arg string) error {
	if arg == "" {
		c.mu.Lock()
		c.pos = ""
		c.mu.Unlock()
		c.SendHostMessage("Position reset.")
		return nil
	}
	if !validPos(arg) {
		return apperrors.Client("Invalid position. Possible values: def, pro, hld, hlp, jud, wit.")
	}
	c.mu.Lock()
	c.pos = arg
	c.mu.Unlock()
	s.BroadcastEvidence(c.Area())
	c.SendHostMessage("Position changed.")
	return nil
}

func cmdForcePos(s *Server, c *Client, arg string) error {
	c.mu.Lock()
	allowed := c.isCM || c.isMod
	c.mu.Unlock()
	if !allowed {
		return errNotAuthorized
	}
	fields := strings.Fields(arg)
	if len(fields) < 1 {
		return apperrors.Argument("Not enough arguments. Use /forcepos <pos> <target>.")
	}
	pos := fields[0]
	if !validPos(pos) {
		return apperrors.Client("Invalid position. Possible values: def, pro, hld, hlp, jud, wit.")
	}

	var targets []*Client
	if len(fields) > 1 {
		value := strings.Join(fields[1:], " ")
		targets = s.clients.GetTargets(c, TargetCharName, value, true)
		if len(targets) == 0 {
			if _, err := strconv.Atoi(fields[1]); err == nil {
				targets = s.clients.GetTargets(c, TargetID, fields[1], true)
			}
		}
		if len(targets) == 0 {
			targets = s.clients.GetTargets(c, TargetOOCName, value, true)
		}
		if len(targets) == 0 {
			return apperrors.Argument("No targets found.")
		}
	} else {
		targets = s.clients.InArea(c.Area())
	}

	for _, t := range targets {
		t.mu.Lock()
		t.pos = pos
		t.mu.Unlock()
		t.SendHostMessage(fmt.Sprintf("Forced into /pos %s.", pos))
	}
	s.BroadcastEvidence(c.Area())
	s.SendAreaHostMessage(c.Area(), fmt.Sprintf("%s forced %d client(s) into /pos %s.", c.CharName(), len(targets), pos))
	s.logs.Mod("[%d][%s]used /forcepos %s for %d client(s)", c.Area().ID, c.CharName(), pos, len(targets))
	return nil
}

func cmdHelp(s *Server, c *Client, arg string) error {
	if err := requireNoArg(arg); err != nil {
		return err
	}
	names := make([]string, 0, len(oocCommands))
	for name := range oocCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	c.SendHostMessage("Available commands: /" + strings.Join(names, ", /"))
	return nil
}

func cmdLogin(s *Server, c *Client, arg string) error {
	if arg == "" {
		return apperrors.Argument("You must specify the password.")
	}
	if err := c.AuthMod(arg); err != nil {
		return err
	}
	a := c.Area()
	if a.EvidenceMode() == area.EvidenceHiddenCM {
		s.BroadcastEvidence(a)
	}
	c.SendHostMessage("Logged in as a moderator.")
	s.logs.Mod("[%d][%s]logged in as moderator", a.ID, c.CharName())
	return nil
}

func cmdLogout(s *Server, c *Client, arg string) error {
	c.mu.Lock()
	c.isMod = false
	c.mu.Unlock()
	a := c.Area()
	if a.EvidenceMode() == area.EvidenceHiddenCM {
		s.BroadcastEvidence(a)
	}
	c.SendHostMessage("You are no longer a mod.")
	s.logs.Mod("[%d][%s]logged out of modship", a.ID, c.CharName())
	return nil
}

func cmdGlobal(s *Server, c *Client, arg string) error {
	c.mu.Lock()
	mutedGlobal := c.mutedGlobal
	c.mu.Unlock()
	if mutedGlobal {
		return apperrors.Client("Global chat toggled off.")
	}
	if arg == "" {
		return apperrors.Argument("You can't send an empty message.")
	}
	s.BroadcastGlobal(c, arg, false)
	s.logs.Server("[%d][%s][GLOBAL]%s", c.Area().ID, c.CharName(), arg)
	return nil
}

func cmdGlobalMod(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	c.mu.Lock()
	mutedGlobal := c.mutedGlobal
	c.mu.Unlock()
	if mutedGlobal {
		return apperrors.Client("You have the global chat muted.")
	}
	if arg == "" {
		return apperrors.Argument("Can't send an empty message.")
	}
	s.BroadcastGlobal(c, arg, true)
	s.logs.Mod("[%d][%s][GLOBAL-MOD]%s", c.Area().ID, c.CharName(), arg)
	return nil
}

func cmdLocalMod(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	if arg == "" {
		return apperrors.Argument("Can't send an empty message.")
	}
	a := c.Area()
	s.SendArea(a, "CT", fmt.Sprintf("%s[MOD][%s]", s.cfg.Hostname, c.CharName()), arg)
	s.logs.Mod("[%d][%s][LOCAL-MOD]%s", a.ID, c.CharName(), arg)
	return nil
}

func cmdAnnounce(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	if arg == "" {
		return apperrors.Argument("Can't send an empty message.")
	}
	s.SendAll(nil, "CT", s.cfg.Hostname,
		fmt.Sprintf("=== Announcement ===\r\n%s\r\n==================", arg))
	s.logs.Server("[%d][%s][ANNOUNCEMENT]%s", c.Area().ID, c.CharName(), arg)
	return nil
}

func cmdToggleGlobal(s *Server, c *Client, arg string) error {
	if err := requireNoArg(arg); err != nil {
		return err
	}
	c.mu.Lock()
	c.mutedGlobal = !c.mutedGlobal
	muted := c.mutedGlobal
	c.mu.Unlock()
	state := "on"
	if muted {
		state = "off"
	}
	c.SendHostMessage(fmt.Sprintf("Global chat turned %s.", state))
	return nil
}

func cmdNeed(s *Server, c *Client, arg string) error {
	c.mu.Lock()
	mutedAdverts := c.mutedAdverts
	c.mu.Unlock()
	if mutedAdverts {
		return apperrors.Client("You have advertisements muted.")
	}
	if arg == "" {
		return apperrors.Argument("You must specify what you need.")
	}
	s.BroadcastNeed(c, arg)
	s.logs.Server("[%d][%s][NEED]%s", c.Area().ID, c.CharName(), arg)
	return nil
}

func cmdToggleAdverts(s *Server, c *Client, arg string) error {
	if err := requireNoArg(arg); err != nil {
		return err
	}
	c.mu.Lock()
	c.mutedAdverts = !c.mutedAdverts
	muted := c.mutedAdverts
	c.mu.Unlock()
	state := "on"
	if muted {
		state = "off"
	}
	c.SendHostMessage(fmt.Sprintf("Advertisements turned %s.", state))
	return nil
}

func cmdDoc(s *Server, c *Client, arg string) error {
	a := c.Area()
	if arg == "" {
		c.SendHostMessage(fmt.Sprintf("Document: %s", a.Doc()))
		s.logs.Server("[%d][%s]requested document. Link: %s", a.ID, c.CharName(), a.Doc())
		return nil
	}
	a.SetDoc(arg)
	s.stats.Docced(c.ipid)
	s.SendAreaHostMessage(a, fmt.Sprintf("%s changed the doc link.", c.CharName()))
	s.logs.Server("[%d][%s]changed document to %s", a.ID, c.CharName(), arg)
	return nil
}

func cmdClearDoc(s *Server, c *Client, arg string) error {
	if err := requireNoArg(arg); err != nil {
		return err
	}
	a := c.Area()
	s.SendAreaHostMessage(a, fmt.Sprintf("%s cleared the doc link.", c.CharName()))
	s.logs.Server("[%d][%s]cleared document. Old link: %s", a.ID, c.CharName(), a.Doc())
	a.SetDoc("")
	return nil
}

func cmdStatus(s *Server, c *Client, arg string) error {
	a := c.Area()
	if arg == "" {
		c.SendHostMessage(fmt.Sprintf("Current status: %s", a.Status()))
		return nil
	}
	if err := a.SetStatus(arg); err != nil {
		return err
	}
	s.SendAreaHostMessage(a, fmt.Sprintf("%s changed status to %s.", c.CharName(), a.Status()))
	s.logs.Server("[%d][%s]changed status to %s", a.ID, c.CharName(), a.Status())
	return nil
}

func cmdOnline(s *Server, c *Client, _ string) error {
	c.SendPlayerCount()
	return nil
}

func cmdArea(s *Server, c *Client, arg string) error {
	fields := strings.Fields(arg)
	switch len(fields) {
	case 0:
		c.SendAreaList()
		return nil
	case 1:
		id, err := strconv.Atoi(fields[0])
		if err != nil {
			return apperrors.Argument("Area ID must be a number.")
		}
		dest, err := s.areas.GetByID(id)
		if err != nil {
			return err
		}
		return c.ChangeArea(dest)
	default:
		return apperrors.Argument("Too many arguments. Use /area <id>.")
	}
}

func cmdPM(s *Server, c *Client, arg string) error {
	const usage = "Use /pm <target>: <message>."
	name, msg, err := splitColonArg(arg, usage)
	if err != nil {
		return err
	}

	// A character-name match takes priority over a display-name match.
	var targets []*Client
	for _, charName := range s.assets.Characters {
		if strings.EqualFold(name, charName) {
			targets = s.clients.GetTargets(c, TargetCharName, charName, true)
			break
		}
	}
	if len(targets) == 0 {
		targets = s.clients.GetTargets(c, TargetOOCName, name, false)
	}
	if len(targets) == 0 {
		c.SendHostMessage(fmt.Sprintf("No targets %s found.", name))
		return nil
	}

	sent := 0
	for _, t := range targets {
		t.mu.Lock()
		pmMuted := t.pmMute
		t.mu.Unlock()
		if pmMuted {
			continue
		}
		t.SendHostMessage(fmt.Sprintf("PM from %s in %s (%s): %s", c.Name(), c.Area().Name, c.CharName(), msg))
		sent++
	}
	if sent == 0 {
		c.SendHostMessage("Target(s) not receiving PMs because of mute.")
		return nil
	}
	c.SendHostMessage(fmt.Sprintf("PM sent to %s, %d user(s). Message: %s", name, sent, msg))
	s.logs.Server("[%d][%s]sent a PM to %s: %s", c.Area().ID, c.CharName(), name, msg)
	return nil
}

func cmdMutePM(s *Server, c *Client, arg string) error {
	if err := requireNoArg(arg); err != nil {
		return err
	}
	c.mu.Lock()
	c.pmMute = !c.pmMute
	muted := c.pmMute
	c.mu.Unlock()
	if muted {
		c.SendHostMessage("You stopped receiving PMs.")
	} else {
		c.SendHostMessage("You are now receiving PMs.")
	}
	return nil
}

func cmdCharSelect(s *Server, c *Client, arg string) error {
	if arg == "" {
		c.CharSelect()
		return nil
	}
	if err := requireMod(c); err != nil {
		return err
	}
	targets := s.clients.GetTargets(c, TargetID, strings.TrimSpace(arg), false)
	if len(targets) == 0 {
		return apperrors.Argument("Wrong arguments. Use /charselect <target's id>.")
	}
	s.logs.Mod("[%d][%s]forced charselect to %s", c.Area().ID, c.CharName(), targets[0].ipid)
	targets[0].CharSelect()
	return nil
}

func cmdReload(s *Server, c *Client, arg string) error {
	if err := requireNoArg(arg); err != nil {
		return err
	}
	cid := c.CharID()
	if cid == -1 {
		return apperrors.Client("You have no character to reload.")
	}
	if err := c.ChangeCharacter(cid, true); err != nil {
		return err
	}
	c.SendHostMessage("Character reloaded.")
	return nil
}

func cmdRandomChar(s *Server, c *Client, arg string) error {
	if err := requireNoArg(arg); err != nil {
		return err
	}
	a := c.Area()
	var free []int
	for cid := range s.assets.Characters {
		if !s.clients.IsCharTakenBy(a, cid, c) {
			free = append(free, cid)
		}
	}
	if len(free) == 0 {
		return apperrors.New(apperrors.CodeAreaNoFreeCharacter, "no free characters in this area")
	}
	values, err := dice.Roll(len(free), 1, s.now().UnixNano())
	if err != nil {
		return err
	}
	if err := c.ChangeCharacter(free[values[0]-1], false); err != nil {
		return err
	}
	c.SendHostMessage(fmt.Sprintf("Randomly switched to %s.", c.CharName()))
	return nil
}

func cmdGetArea(s *Server, c *Client, _ string) error {
	c.SendAreaInfo(c.Area().ID)
	return nil
}

func cmdGetAreas(s *Server, c *Client, _ string) error {
	c.SendAreaInfo(-1)
	return nil
}

func cmdMods(s *Server, c *Client, _ string) error {
	total := 0
	local := 0
	for _, other := range s.clients.All() {
		if other.IsMod() {
			total++
			if other.Area() == c.Area() {
				local++
			}
		}
	}
	c.SendHostMessage(fmt.Sprintf("There are %d mods online, and %d mods in the area.", total, local))
	return nil
}

func cmdEviSwap(s *Server, c *Client, arg string) error {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return apperrors.Argument("You must specify two numbers.")
	}
	i, err1 := strconv.Atoi(fields[0])
	j, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return apperrors.Argument("You must specify two numbers.")
	}
	a := c.Area()
	c.mu.Lock()
	isMod, isCM := c.isMod, c.isCM
	c.mu.Unlock()
	if !a.CanMutateEvidence(isMod, isCM) {
		return errNotAuthorized
	}
	if err := a.SwapEvidence(i, j); err != nil {
		return err
	}
	s.BroadcastEvidence(a)
	return nil
}

func cmdCM(s *Server, c *Client, arg string) error {
	a := c.Area()
	if !strings.Contains(string(a.EvidenceMode()), "CM") {
		return apperrors.Client("You can't become a CM in this area.")
	}
	if a.Owned() {
		return apperrors.Client("This area already has a CM.")
	}
	a.SetOwned(true)
	c.mu.Lock()
	c.isCM = true
	c.mu.Unlock()
	if a.EvidenceMode() == area.EvidenceHiddenCM {
		s.BroadcastEvidence(a)
	}
	s.SendAreaHostMessage(a, fmt.Sprintf("%s is CM in this area now.", c.CharName()))
	return nil
}

func cmdAreaLock(s *Server, c *Client, arg string) error {
	a := c.Area()
	if !c.isCMLocked() {
		return apperrors.Client("Only the CM can lock the area.")
	}
	var present []string
	for _, member := range s.clients.InArea(a) {
		present = append(present, member.ipid)
	}
	if err := a.Lock(present); err != nil {
		return err
	}
	s.SendAreaHostMessage(a, "Area is locked.")
	return nil
}

func (c *Client) isCMLocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isCM
}

func cmdAreaUnlock(s *Server, c *Client, arg string) error {
	a := c.Area()
	if !a.Locked() {
		return apperrors.Client("Area is already unlocked.")
	}
	if !c.isCMLocked() {
		return apperrors.Client("Only the CM can unlock the area.")
	}
	if err := a.Unlock(); err != nil {
		return err
	}
	c.SendHostMessage("Area is unlocked.")
	return nil
}

func cmdInvite(s *Server, c *Client, arg string) error {
	if arg == "" {
		return apperrors.Client("You must specify a target. Use /invite <id>.")
	}
	a := c.Area()
	if !a.Locked() {
		return apperrors.Client("Area isn't locked.")
	}
	if !c.isCMLocked() && !c.IsMod() {
		return errNotAuthorized
	}
	targets := s.clients.GetTargets(c, TargetID, strings.TrimSpace(arg), false)
	if len(targets) == 0 {
		return apperrors.Client("You must specify a target. Use /invite <id>.")
	}
	t := targets[0]
	if err := a.Invite(t.ipid); err != nil {
		return err
	}
	c.SendHostMessage(fmt.Sprintf("%s is invited to your area.", t.CharName()))
	t.SendHostMessage(fmt.Sprintf("You were invited and given access to area %d.", a.ID))
	return nil
}

func cmdUninvite(s *Server, c *Client, arg string) error {
	if !c.isCMLocked() && !c.IsMod() {
		return errNotAuthorized
	}
	a := c.Area()
	if !a.Locked() {
		return apperrors.Client("Area isn't locked.")
	}
	if arg == "" {
		return apperrors.Client("You must specify a target. Use /uninvite <id>.")
	}
	fields := strings.Fields(arg)
	targets := s.clients.GetTargets(c, TargetID, fields[0], true)
	if len(targets) == 0 {
		c.SendHostMessage("No targets found.")
		return nil
	}
	for _, t := range targets {
		if err := a.Uninvite(t.ipid); err != nil {
			return err
		}
		c.SendHostMessage(fmt.Sprintf("You have removed %s from the whitelist.", t.CharName()))
		t.SendHostMessage("You were removed from the area whitelist.")
	}
	return nil
}

func cmdAreaKick(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	if arg == "" {
		return apperrors.Client("You must specify a target. Use /area_kick <id> [destination #].")
	}
	fields := strings.Fields(arg)
	targets := s.clients.GetTargets(c, TargetID, fields[0], false)
	if len(targets) == 0 {
		c.SendHostMessage("No targets found.")
		return nil
	}

	destID := 0
	if len(fields) > 1 {
		id, err := strconv.Atoi(fields[1])
		if err != nil {
			return apperrors.Argument("Destination must be an area id.")
		}
		destID = id
	}
	dest, err := s.areas.GetByID(destID)
	if err != nil {
		return err
	}

	origin := c.Area()
	for _, t := range targets {
		c.SendHostMessage(fmt.Sprintf("Attempting to kick %s to area %d.", t.CharName(), destID))
		if err := t.ChangeArea(dest); err != nil {
			return err
		}
		t.SendHostMessage(fmt.Sprintf("You were kicked from the area to area %d.", destID))
		if origin.Locked() {
			_ = origin.Uninvite(t.ipid)
		}
	}
	return nil
}

func hashRoll(roll, salt string) string {
	sum := sha256.Sum256([]byte(roll + salt))
	return hex.EncodeToString(sum[:])
}
