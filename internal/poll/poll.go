// Package poll maintains the server-wide poll registry and its vote tallies.
package poll

import (
	"strings"
	"sync"

	apperrors "github.com/louisbranch/gavel/internal/errors"
)

var (
	// ErrNotFound indicates the named poll does not exist.
	ErrNotFound = apperrors.New(apperrors.CodePollNotFound, "poll does not exist")
	// ErrBadChoice indicates the choice is not part of the poll.
	ErrBadChoice = apperrors.New(apperrors.CodePollBadChoice, "choice is not part of the poll")
)

// Poll is one named question with an ordered choice list. Votes are tallied
// per normalized choice and voter identity: a voter holds at most one vote
// per choice, and on single-select polls at most one vote overall.
type Poll struct {
	Name   string
	Detail string
	Multi  bool

	choices []string
	// votes maps normalized choice -> set of voter ids.
	votes map[string]map[string]struct{}
}

// Registry owns the ordered poll list. It is shared by every connection and
// safe for concurrent use.
type Registry struct {
	mu    sync.Mutex
	polls []*Poll
}

// NewRegistry creates an empty poll registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Names returns the poll names in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.polls))
	for i, p := range r.polls {
		names[i] = p.Name
	}
	return names
}

// Len returns the number of registered polls.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.polls)
}

// NameAt returns the poll name at a zero-based index.
func (r *Registry) NameAt(index int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.polls) {
		return "", false
	}
	return r.polls[index].Name, true
}

// Add registers a poll. Re-adding an existing name is a no-op.
func (r *Registry) Add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findLocked(name) != nil {
		return
	}
	r.polls = append(r.polls, &Poll{
		Name:  name,
		votes: make(map[string]map[string]struct{}),
	})
}

// Remove deletes a poll and its tally.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.polls {
		if strings.EqualFold(p.Name, name) {
			r.polls = append(r.polls[:i], r.polls[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Detail returns the poll's detail text.
func (r *Registry) Detail(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.findLocked(name)
	if p == nil {
		return "", ErrNotFound
	}
	return p.Detail, nil
}

// SetDetail attaches detail text to a poll.
func (r *Registry) SetDetail(name, detail string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.findLocked(name)
	if p == nil {
		return ErrNotFound
	}
	p.Detail = detail
	return nil
}

// Choices returns the poll's choices in order.
func (r *Registry) Choices(name string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.findLocked(name)
	if p == nil {
		return nil, ErrNotFound
	}
	return append([]string(nil), p.choices...), nil
}

// AddChoice appends a choice and returns the updated choice list.
func (r *Registry) AddChoice(name, choice string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.findLocked(name)
	if p == nil {
		return nil, ErrNotFound
	}
	for _, c := range p.choices {
		if strings.EqualFold(c, choice) {
			return append([]string(nil), p.choices...), nil
		}
	}
	p.choices = append(p.choices, choice)
	return append([]string(nil), p.choices...), nil
}

// RemoveChoice deletes a choice and its votes, returning the remaining list.
func (r *Registry) RemoveChoice(name, choice string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.findLocked(name)
	if p == nil {
		return nil, ErrNotFound
	}
	for i, c := range p.choices {
		if strings.EqualFold(c, choice) {
			p.choices = append(p.choices[:i], p.choices[i+1:]...)
			delete(p.votes, normalize(choice))
			return append([]string(nil), p.choices...), nil
		}
	}
	return nil, ErrBadChoice
}

// ClearChoices drops every choice and vote from a poll.
func (r *Registry) ClearChoices(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.findLocked(name)
	if p == nil {
		return ErrNotFound
	}
	p.choices = nil
	p.votes = make(map[string]map[string]struct{})
	return nil
}

// IsMulti reports whether the poll accepts several choices per voter.
func (r *Registry) IsMulti(name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.findLocked(name)
	if p == nil {
		return false, ErrNotFound
	}
	return p.Multi, nil
}

// ToggleMulti flips the multi-select flag and returns the new state.
func (r *Registry) ToggleMulti(name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.findLocked(name)
	if p == nil {
		return false, ErrNotFound
	}
	p.Multi = !p.Multi
	return p.Multi, nil
}

// Vote records a vote by voterID for a choice. Votes are idempotent per
// (voter, choice); on single-select polls any previous vote by the voter is
// replaced.
func (r *Registry) Vote(name, choice, voterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.findLocked(name)
	if p == nil {
		return ErrNotFound
	}
	key := ""
	for _, c := range p.choices {
		if strings.EqualFold(c, choice) {
			key = normalize(c)
			break
		}
	}
	if key == "" {
		return ErrBadChoice
	}
	if !p.Multi {
		for _, voters := range p.votes {
			delete(voters, voterID)
		}
	}
	if p.votes[key] == nil {
		p.votes[key] = make(map[string]struct{})
	}
	p.votes[key][voterID] = struct{}{}
	return nil
}

// Tally returns the vote count per choice, in choice order.
func (r *Registry) Tally(name string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.findLocked(name)
	if p == nil {
		return nil, ErrNotFound
	}
	tally := make(map[string]int, len(p.choices))
	for _, c := range p.choices {
		tally[c] = len(p.votes[normalize(c)])
	}
	return tally, nil
}

func (r *Registry) findLocked(name string) *Poll {
	for _, p := range r.polls {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

func normalize(choice string) string {
	return strings.ToLower(strings.TrimSpace(choice))
}
