package server

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/gavel/internal/errors"
)

var ipidPattern = regexp.MustCompile(`^\d{12}$`)

// resolveTargets parses the "<keyword> <value>" target syntax shared by the
// moderation commands. Without a keyword a 12-digit value is treated as an
// ipid and a shorter number as a session id.
func resolveTargets(s *Server, c *Client, arg string, localOnly bool) ([]*Client, error) {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return nil, apperrors.Argument("You must specify a target.")
	}

	kind, ok := parseTargetType(fields[0])
	value := ""
	if ok {
		if len(fields) < 2 {
			return nil, apperrors.Argument("Not enough arguments.")
		}
		value = strings.Join(fields[1:], " ")
	} else {
		value = strings.Join(fields, " ")
		switch {
		case ipidPattern.MatchString(value):
			kind = TargetIPID
		default:
			if _, err := strconv.Atoi(value); err == nil {
				kind = TargetID
			} else {
				kind = TargetCharName
			}
		}
	}

	targets := s.clients.GetTargets(c, kind, value, localOnly)
	if len(targets) == 0 && kind == TargetCharName {
		targets = s.clients.GetTargets(c, TargetOOCName, value, localOnly)
	}
	if len(targets) == 0 {
		return nil, apperrors.New(apperrors.CodeClientBadTarget, "No targets found.")
	}
	return targets, nil
}

func cmdKick(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	if arg == "" {
		return apperrors.Argument("You must specify a target. Use /kick <ipid>.")
	}
	targets, err := resolveTargets(s, c, arg, false)
	if err != nil {
		return err
	}
	for _, t := range targets {
		s.logs.Mod("[%s]kicked %s (%s)", c.Name(), t.ipid, t.CharName())
		s.stats.Kicked(t.ipid)
		t.SendHostMessage("You were kicked.")
		t.Disconnect()
	}
	c.SendHostMessage(fmt.Sprintf("Kicked %d client(s).", len(targets)))
	return nil
}

func cmdBan(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	if arg == "" {
		return apperrors.Argument("You must specify a target. Use /ban <ipid>.")
	}
	ipid := strings.TrimSpace(arg)
	if !ipidPattern.MatchString(ipid) {
		// Moderators may ban by session id; resolve it to the ipid.
		targets, err := resolveTargets(s, c, ipid, false)
		if err != nil {
			return err
		}
		ipid = targets[0].ipid
	}
	if err := s.bans.Ban(ipid); err != nil {
		return err
	}
	count := 0
	for _, t := range s.clients.All() {
		if t.ipid == ipid {
			t.SendHostMessage("You were banned.")
			t.Disconnect()
			count++
		}
	}
	s.stats.Banned(ipid)
	c.SendHostMessage(fmt.Sprintf("Banned %s, kicked %d client(s).", ipid, count))
	s.logs.Mod("[%s]banned %s", c.Name(), ipid)
	return nil
}

func cmdUnban(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	if arg == "" {
		return apperrors.Argument("You must specify a target. Use /unban <ipid>.")
	}
	ipid := strings.TrimSpace(arg)
	if err := s.bans.Unban(ipid); err != nil {
		return err
	}
	c.SendHostMessage("Unbanned " + ipid + ".")
	s.logs.Mod("[%s]unbanned %s", c.Name(), ipid)
	return nil
}

func cmdPlay(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	if arg == "" {
		return apperrors.Argument("You must specify a song.")
	}
	if strings.Contains(arg, "..") || strings.ContainsAny(arg, `/\`) {
		return apperrors.Argument("You can only play songs from the music folder.")
	}
	a := c.Area()
	a.PlayMusic(arg, c.ID)
	s.SendArea(a, "MC", arg, c.CharID())
	s.stats.MusicPlayed(arg, a.Status())
	s.logs.Server("[%d][%s]played music %s", a.ID, c.CharName(), arg)
	return nil
}

// toggleTargetFlag flips one session flag on every resolved target. The
// notices keep the flavor of the matching manual commands. When skipMods
// is set, targets holding moderator rights are counted out instead of
// flipped.
func toggleTargetFlag(s *Server, c *Client, arg, verb string, skipMods bool, apply func(t *Client)) error {
	if err := requireMod(c); err != nil {
		return err
	}
	if arg == "" {
		return apperrors.Argument(fmt.Sprintf("You must specify a target. Use /%s <id>.", verb))
	}
	targets, err := resolveTargets(s, c, arg, false)
	if err != nil {
		return err
	}
	applied, skipped := 0, 0
	for _, t := range targets {
		if skipMods && t.IsMod() {
			skipped++
			continue
		}
		apply(t)
		applied++
		s.logs.Mod("[%s]used /%s on %s (%s)", c.Name(), verb, t.ipid, t.CharName())
	}
	notice := fmt.Sprintf("Used /%s on %d client(s).", verb, applied)
	if skipped > 0 {
		notice += fmt.Sprintf(" Skipped %d moderator(s).", skipped)
	}
	c.SendHostMessage(notice)
	return nil
}

func cmdMute(s *Server, c *Client, arg string) error {
	return toggleTargetFlag(s, c, arg, "mute", true, func(t *Client) {
		t.mu.Lock()
		t.muted = true
		t.mu.Unlock()
		s.stats.Muted(t.ipid)
		t.SendHostMessage("You have been muted by a moderator.")
	})
}

func cmdUnmute(s *Server, c *Client, arg string) error {
	return toggleTargetFlag(s, c, arg, "unmute", true, func(t *Client) {
		t.mu.Lock()
		t.muted = false
		t.mu.Unlock()
		t.SendHostMessage("You have been unmuted by a moderator.")
	})
}

func cmdOOCMute(s *Server, c *Client, arg string) error {
	return toggleTargetFlag(s, c, arg, "ooc_mute", false, func(t *Client) {
		t.mu.Lock()
		t.oocMuted = true
		t.mu.Unlock()
		s.stats.Muted(t.ipid)
	})
}

func cmdOOCUnmute(s *Server, c *Client, arg string) error {
	return toggleTargetFlag(s, c, arg, "ooc_unmute", false, func(t *Client) {
		t.mu.Lock()
		t.oocMuted = false
		t.mu.Unlock()
	})
}

func cmdDisemvowel(s *Server, c *Client, arg string) error {
	return toggleTargetFlag(s, c, arg, "disemvowel", false, func(t *Client) {
		t.mu.Lock()
		t.disemvowel = true
		t.mu.Unlock()
	})
}

func cmdUndisemvowel(s *Server, c *Client, arg string) error {
	return toggleTargetFlag(s, c, arg, "undisemvowel", false, func(t *Client) {
		t.mu.Lock()
		t.disemvowel = false
		t.mu.Unlock()
	})
}

func cmdGimp(s *Server, c *Client, arg string) error {
	return toggleTargetFlag(s, c, arg, "gimp", false, func(t *Client) {
		t.mu.Lock()
		t.gimp = true
		t.mu.Unlock()
	})
}

func cmdUngimp(s *Server, c *Client, arg string) error {
	return toggleTargetFlag(s, c, arg, "ungimp", false, func(t *Client) {
		t.mu.Lock()
		t.gimp = false
		t.mu.Unlock()
	})
}

func cmdBlockDJ(s *Server, c *Client, arg string) error {
	return toggleTargetFlag(s, c, arg, "blockdj", false, func(t *Client) {
		t.mu.Lock()
		t.isDJ = false
		t.mu.Unlock()
		t.SendHostMessage("You have been muted of changing music by moderator.")
	})
}

func cmdUnblockDJ(s *Server, c *Client, arg string) error {
	return toggleTargetFlag(s, c, arg, "unblockdj", false, func(t *Client) {
		t.mu.Lock()
		t.isDJ = true
		t.mu.Unlock()
		t.SendHostMessage("You are now able to change music.")
	})
}

func cmdBlockWTCE(s *Server, c *Client, arg string) error {
	return toggleTargetFlag(s, c, arg, "blockwtce", false, func(t *Client) {
		t.mu.Lock()
		t.canWTCE = false
		t.mu.Unlock()
		t.SendHostMessage("You have been blocked of using the judge signs.")
	})
}

func cmdUnblockWTCE(s *Server, c *Client, arg string) error {
	return toggleTargetFlag(s, c, arg, "unblockwtce", false, func(t *Client) {
		t.mu.Lock()
		t.canWTCE = true
		t.mu.Unlock()
		t.SendHostMessage("You are now able to use the judge signs.")
	})
}

func cmdToggleModcall(s *Server, c *Client, arg string) error {
	return toggleTargetFlag(s, c, arg, "togglemodcall", false, func(t *Client) {
		t.mu.Lock()
		t.mutedModcall = !t.mutedModcall
		muted := t.mutedModcall
		t.mu.Unlock()
		if muted {
			t.SendHostMessage("A moderator blocked you from calling mods.")
		} else {
			t.SendHostMessage("You may now call mods again.")
		}
	})
}

func cmdVote(s *Server, c *Client, arg string) error {
	if err := requireNoArg(arg); err != nil {
		return err
	}
	names := s.polls.Names()
	if len(names) == 0 {
		return apperrors.Client("There are no polls to vote on right now.")
	}
	c.mu.Lock()
	c.voting = votingChoosing
	c.mu.Unlock()

	var b strings.Builder
	b.WriteString("Choose which poll to vote, enter 0 to cancel.")
	for i, name := range names {
		fmt.Fprintf(&b, "\n%d.) %s", i+1, name)
	}
	c.SendHostMessage(b.String())
	return nil
}

func cmdVoteList(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	names := s.polls.Names()
	if len(names) == 0 {
		c.SendHostMessage("There are no polls.")
		return nil
	}
	var b strings.Builder
	b.WriteString("=== Polls ===")
	for _, name := range names {
		tally, err := s.polls.Tally(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "\r\n%s:", name)
		choices := make([]string, 0, len(tally))
		for choice := range tally {
			choices = append(choices, choice)
		}
		sort.Strings(choices)
		for _, choice := range choices {
			fmt.Fprintf(&b, "\r\n  %s: %d", choice, tally[choice])
		}
	}
	c.SendHostMessage(b.String())
	return nil
}

func cmdPollSet(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	if arg == "" {
		return apperrors.Argument("You must specify a poll name. Use /pollset <name>.")
	}
	s.polls.Add(arg)
	c.SendHostMessage(fmt.Sprintf("Poll %s created.", arg))
	s.logs.Poll("[%s]created poll %s", c.Name(), arg)
	return nil
}

func cmdPollRemove(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	if arg == "" {
		return apperrors.Argument("You must specify a poll name. Use /pollremove <name>.")
	}
	if err := s.polls.Remove(arg); err != nil {
		return err
	}
	c.SendHostMessage(fmt.Sprintf("Poll %s removed.", arg))
	s.logs.Poll("[%s]removed poll %s", c.Name(), arg)
	return nil
}

func cmdAddPollDetail(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	const usage = "Use /addpolldetail <poll>: <detail>."
	name, detail, err := splitColonArg(arg, usage)
	if err != nil {
		return err
	}
	if err := s.polls.SetDetail(name, detail); err != nil {
		return err
	}
	c.SendHostMessage(fmt.Sprintf("Added details to poll %s.", name))
	return nil
}

func cmdPollChoiceAdd(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	const usage = "Use /pollchoiceadd <poll>: <choice>."
	name, choice, err := splitColonArg(arg, usage)
	if err != nil {
		return err
	}
	choices, err := s.polls.AddChoice(name, choice)
	if err != nil {
		return err
	}
	c.SendHostMessage(fmt.Sprintf("Poll %s choices: %s.", name, strings.Join(choices, ", ")))
	return nil
}

func cmdPollChoiceRemove(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	const usage = "Use /pollchoiceremove <poll>: <choice>."
	name, choice, err := splitColonArg(arg, usage)
	if err != nil {
		return err
	}
	choices, err := s.polls.RemoveChoice(name, choice)
	if err != nil {
		return err
	}
	c.SendHostMessage(fmt.Sprintf("Poll %s choices: %s.", name, strings.Join(choices, ", ")))
	return nil
}

func cmdPollChoiceClear(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	if arg == "" {
		return apperrors.Argument("You must specify a poll name. Use /pollchoiceclear <name>.")
	}
	if err := s.polls.ClearChoices(arg); err != nil {
		return err
	}
	c.SendHostMessage(fmt.Sprintf("Cleared choices of poll %s.", arg))
	return nil
}

func cmdMakePollMulti(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	if arg == "" {
		return apperrors.Argument("You must specify a poll name. Use /makepollmulti <name>.")
	}
	multi, err := s.polls.ToggleMulti(arg)
	if err != nil {
		return err
	}
	if multi {
		c.SendHostMessage(fmt.Sprintf("Poll %s now accepts multiple choices.", arg))
	} else {
		c.SendHostMessage(fmt.Sprintf("Poll %s now accepts a single choice.", arg))
	}
	return nil
}

// cmdKMS disconnects every other session sharing the caller's identity,
// for cleaning up ghost connections after a crash.
func cmdKMS(s *Server, c *Client, arg string) error {
	if err := requireNoArg(arg); err != nil {
		return err
	}
	count := 0
	for _, t := range s.clients.All() {
		if t != c && t.ipid == c.ipid {
			t.Disconnect()
			count++
		}
	}
	c.SendHostMessage(fmt.Sprintf("Kicked %d of your ghost session(s).", count))
	s.logs.Server("[%s]used /kms on %d session(s)", c.ipid, count)
	return nil
}

func cmdNotecard(s *Server, c *Client, arg string) error {
	if arg == "" {
		return apperrors.Argument("You must specify the contents of the note card.")
	}
	a := c.Area()
	a.SetNotecard(c.CharName(), arg)
	s.SendAreaHostMessage(a, fmt.Sprintf("%s wrote a note card.", c.CharName()))
	return nil
}

func cmdNotecardClear(s *Server, c *Client, arg string) error {
	if err := requireNoArg(arg); err != nil {
		return err
	}
	a := c.Area()
	if !a.ClearNotecard(c.CharName()) {
		return apperrors.Client("You do not have a note card.")
	}
	s.SendAreaHostMessage(a, fmt.Sprintf("%s erased their note card.", c.CharName()))
	return nil
}

func cmdNotecardReveal(s *Server, c *Client, arg string) error {
	c.mu.Lock()
	allowed := c.isCM || c.isMod
	c.mu.Unlock()
	if !allowed {
		return errNotAuthorized
	}
	if err := requireNoArg(arg); err != nil {
		return err
	}
	a := c.Area()
	cards := a.RevealNotecards()
	if len(cards) == 0 {
		return apperrors.Client("There are no note cards to reveal in this area.")
	}
	names := make([]string, 0, len(cards))
	for name := range cards {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString("Note cards have been revealed.")
	for _, name := range names {
		fmt.Fprintf(&b, "\r\n%s: %s", name, cards[name])
	}
	s.SendAreaHostMessage(a, b.String())
	return nil
}

func cmdJudgeLog(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	if err := requireNoArg(arg); err != nil {
		return err
	}
	log := c.Area().JudgeLog()
	if len(log) == 0 {
		return apperrors.Client("There have been no judge actions in this area since start of session.")
	}
	c.SendHostMessage(strings.Join(log, "\r\n"))
	return nil
}

func cmdSetUpdate(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	if arg == "" {
		return apperrors.Argument("You must specify the update text.")
	}
	s.SetUpdate(arg)
	c.SendHostMessage("Update set.")
	s.logs.Mod("[%s]set the update to %s", c.Name(), arg)
	return nil
}

func cmdUpdate(s *Server, c *Client, arg string) error {
	if err := requireNoArg(arg); err != nil {
		return err
	}
	update := s.Update()
	if update == "" {
		return apperrors.Client("No update has been set.")
	}
	c.SendHostMessage(fmt.Sprintf("=== Update ===\r\n%s\r\n==============", update))
	return nil
}

func cmdSetThread(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	if arg == "" {
		return apperrors.Argument("You must specify the thread link.")
	}
	s.SetThread(arg)
	c.SendHostMessage("Thread set.")
	s.logs.Mod("[%s]set the thread to %s", c.Name(), arg)
	return nil
}

func cmdThread(s *Server, c *Client, arg string) error {
	if err := requireNoArg(arg); err != nil {
		return err
	}
	thread := s.Thread()
	if thread == "" {
		return apperrors.Client("No thread has been set.")
	}
	c.SendHostMessage(fmt.Sprintf("Current thread: %s", thread))
	return nil
}

func cmdRefresh(s *Server, c *Client, arg string) error {
	if err := requireMod(c); err != nil {
		return err
	}
	if err := requireNoArg(arg); err != nil {
		return err
	}
	if err := s.ReloadAssets(); err != nil {
		return err
	}
	c.SendHostMessage("You have reloaded the server.")
	s.logs.Mod("[%s]reloaded the server assets", c.Name())
	return nil
}
