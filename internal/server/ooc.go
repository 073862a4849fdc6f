package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/gavel/internal/errors"
)

// handleOOC is the out-of-character pipeline: display name upkeep, the
// in-band poll-voting sub-flow, slash-command routing, and plain chat.
func handleOOC(s *Server, c *Client, args []string) {
	if len(args) < 1 {
		return
	}
	c.mu.Lock()
	if c.name == "" || c.name != args[0] {
		c.name = args[0]
	}
	name := c.name
	oocMuted := c.oocMuted
	c.mu.Unlock()

	if oocMuted {
		c.SendHostMessage("You have been muted by a moderator")
		return
	}
	if _, ok := validateArgs(c, args, true, argStr, argStr); !ok {
		return
	}
	if name == "" {
		c.SendHostMessage("You must insert a name with at least one letter.")
		return
	}
	if strings.HasPrefix(name, s.cfg.Hostname) ||
		strings.HasPrefix(name, "$G") || strings.HasPrefix(name, "$Н") {
		c.SendHostMessage("That name is reserved!")
		return
	}

	text := args[1]

	c.mu.Lock()
	phase := c.voting
	c.mu.Unlock()
	switch phase {
	case votingCasting:
		s.handleVoteCast(c, text)
		return
	case votingChoosing:
		s.handleVoteChoice(c, text)
		return
	}

	if strings.HasPrefix(text, "/") {
		cmdName, rest, _ := strings.Cut(text[1:], " ")
		if len(rest) > 256 {
			rest = rest[:256]
		}
		s.runCommand(c, cmdName, rest)
		return
	}

	c.mu.Lock()
	disemvoweled := c.disemvowel
	c.mu.Unlock()
	if disemvoweled {
		text = c.DisemvowelMessage(text)
	}
	a := c.Area()
	s.SendArea(a, "CT", name, text)
	s.logs.Server("[OOC][%d][%s][%s]%s", a.ID, c.CharName(), name, text)
}

// handleVoteChoice is the first voting phase: pick a poll by number, or
// cancel with 0.
func (s *Server) handleVoteChoice(c *Client, input string) {
	num, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		c.SendHostMessage("Input error, expected integer.\nChoose which poll to vote, enter 0 to cancel.")
		return
	}
	if num == 0 {
		c.mu.Lock()
		c.voting = votingIdle
		c.mu.Unlock()
		c.SendHostMessage("Voting cancelled.")
		return
	}
	names := s.polls.Names()
	if num < 1 || num > len(names) {
		c.SendHostMessage("Input error, out of range poll number.\nChoose which poll to vote, enter 0 to cancel.")
		return
	}

	c.mu.Lock()
	c.voting = votingCasting
	c.votingAt = num - 1
	c.mu.Unlock()

	pollName := names[num-1]
	choices, _ := s.polls.Choices(pollName)
	detail, _ := s.polls.Detail(pollName)
	msg := fmt.Sprintf("Now voting for %d.) %s.", num, pollName)
	if detail != "" {
		msg += fmt.Sprintf("\nDetails: %s.", detail)
	}
	msg += fmt.Sprintf("\nChoices:\n%s\nType 'exit' to cancel voting.", strings.Join(choices, "\n"))
	c.SendHostMessage(msg)
}

// handleVoteCast is the second voting phase: record a choice. Multi polls
// keep the phase open until the voter exits; single polls finish on the
// first input, valid or not.
func (s *Server) handleVoteCast(c *Client, input string) {
	c.mu.Lock()
	at := c.votingAt
	c.mu.Unlock()

	name, ok := s.polls.NameAt(at)
	if !ok {
		c.mu.Lock()
		c.voting = votingIdle
		c.votingAt = 0
		c.mu.Unlock()
		c.SendHostMessage("That poll no longer exists.")
		return
	}
	multi, _ := s.polls.IsMulti(name)
	choice := strings.TrimSpace(input)

	reset := func() {
		c.mu.Lock()
		c.voting = votingIdle
		c.votingAt = 0
		c.mu.Unlock()
	}

	if multi {
		if strings.EqualFold(choice, "exit") {
			reset()
			c.SendHostMessage("Thank you for voting.")
			return
		}
		if err := s.polls.Vote(name, choice, c.ipid); err != nil {
			c.SendHostMessage("Input error, expected one of the choices. Type 'exit' to stop voting.")
			return
		}
		s.stats.Voted(c.ipid)
		s.logs.Poll("[%s] voted on %s", c.ipid, name)
		c.SendHostMessage(fmt.Sprintf("Voted %s. Choose another item to vote or type 'exit' to stop voting.", choice))
		return
	}

	if err := s.polls.Vote(name, choice, c.ipid); err != nil {
		reset()
		c.SendHostMessage("Input error, expected one of the choices, voting cancelled.")
		return
	}
	s.stats.Voted(c.ipid)
	s.logs.Poll("[%s] voted on %s", c.ipid, name)
	reset()
	c.SendHostMessage("Thank you for voting.")
}

// runCommand routes a slash-command to the moderation engine and renders
// any domain error as a host notice to the caller only.
func (s *Server) runCommand(c *Client, name, arg string) {
	handler, ok := oocCommands[name]
	if !ok {
		c.SendHostMessage("Invalid command.")
		return
	}
	if err := handler(s, c, arg); err != nil {
		c.SendHostMessage(noticeText(err))
	}
}

// noticeText renders a domain error for the issuing session.
func noticeText(err error) string {
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
