// Package area models a room: its members, background, evidence, lock and
// invite state, and the courtroom bookkeeping attached to it.
//
// An Area is shared mutable state reached from every member's connection
// goroutine. Every exported method takes the area mutex, so callers observe
// each mutation as atomic.
package area

import (
	"strings"
	"sync"
	"time"

	apperrors "github.com/louisbranch/gavel/internal/errors"
)

// EvidenceMod controls who may mutate evidence and who sees hidden items.
type EvidenceMod string

const (
	// EvidenceFFA lets any member mutate evidence.
	EvidenceFFA EvidenceMod = "FFA"
	// EvidenceMods restricts mutation to moderators.
	EvidenceMods EvidenceMod = "Mods"
	// EvidenceCM restricts mutation to the case master and moderators.
	EvidenceCM EvidenceMod = "CM"
	// EvidenceHiddenCM is EvidenceCM plus per-item hiding from regular
	// members.
	EvidenceHiddenCM EvidenceMod = "HiddenCM"
)

// ParseEvidenceMod validates a mode name case-insensitively.
func ParseEvidenceMod(name string) (EvidenceMod, bool) {
	for _, mod := range []EvidenceMod{EvidenceFFA, EvidenceMods, EvidenceCM, EvidenceHiddenCM} {
		if strings.EqualFold(string(mod), name) {
			return mod, true
		}
	}
	return "", false
}

// statuses is the closed set of area status tags.
var statuses = []string{"idle", "building-open", "building-full", "recess", "casing-open", "casing-full"}

// judgeLogLimit bounds the in-memory judge action log.
const judgeLogLimit = 10

// Evidence is one presentable item. Pos is "all" for public items or a
// position tag restricting who sees it while the area hides evidence.
type Evidence struct {
	Name  string
	Desc  string
	Image string
	Pos   string
}

// Area is one room. Zero values are not usable; construct through NewManager.
type Area struct {
	ID   int
	Name string

	mu sync.Mutex

	background string
	bgLock     bool
	status     string

	evidenceMod EvidenceMod
	evidence    []Evidence

	locked  bool
	invited map[string]struct{}

	// lockingAllowed and iniswapAllowed come from static configuration.
	lockingAllowed bool
	iniswapAllowed bool

	owned bool

	judgeLog  []string
	notecards map[string]string
	doc       string

	currentMusic  string
	musicPlayerID int

	hp [2]int

	nextMessageAt time.Time
	now           func() time.Time
}

// Manager owns the fixed area list built from configuration at startup.
type Manager struct {
	areas []*Area
}

// Def is the static configuration of one area.
type Def struct {
	Name           string
	Background     string
	BGLock         bool
	EvidenceMod    string
	LockingAllowed bool
	IniswapAllowed bool
}

// NewManager builds the area list. Unknown evidence modes fall back to FFA.
func NewManager(defs []Def) *Manager {
	m := &Manager{}
	for i, def := range defs {
		mod, ok := ParseEvidenceMod(def.EvidenceMod)
		if !ok {
			mod = EvidenceFFA
		}
		m.areas = append(m.areas, &Area{
			ID:             i,
			Name:           def.Name,
			background:     def.Background,
			bgLock:         def.BGLock,
			status:         "idle",
			evidenceMod:    mod,
			invited:        make(map[string]struct{}),
			lockingAllowed: def.LockingAllowed,
			iniswapAllowed: def.IniswapAllowed,
			notecards:      make(map[string]string),
			hp:             [2]int{10, 10},
			musicPlayerID:  -1,
			now:            time.Now,
		})
	}
	return m
}

// Areas returns the areas in id order.
func (m *Manager) Areas() []*Area {
	return m.areas
}

// Default returns the area new connections land in.
func (m *Manager) Default() *Area {
	return m.areas[0]
}

// GetByID returns the area with the given id.
func (m *Manager) GetByID(id int) (*Area, error) {
	if id < 0 || id >= len(m.areas) {
		return nil, apperrors.New(apperrors.CodeAreaNotFound, "no area with that id")
	}
	return m.areas[id], nil
}

// GetByName returns the area with the given name, case-insensitively.
func (m *Manager) GetByName(name string) (*Area, error) {
	for _, a := range m.areas {
		if strings.EqualFold(a.Name, name) {
			return a, nil
		}
	}
	return nil, apperrors.New(apperrors.CodeAreaNotFound, "no area with that name")
}

// Background returns the current background.
func (a *Area) Background() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.background
}

// SetBackground changes the background. Non-mods are refused while the
// background is locked.
func (a *Area) SetBackground(name string, isMod bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.bgLock && !isMod {
		return apperrors.New(apperrors.CodeAreaBGLocked, "background is locked in this area")
	}
	a.background = name
	return nil
}

// BGLocked reports whether the background is locked.
func (a *Area) BGLocked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bgLock
}

// SetBGLock sets the background lock flag.
func (a *Area) SetBGLock(locked bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bgLock = locked
}

// Status returns the current status tag.
func (a *Area) Status() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// SetStatus validates and applies a status tag.
func (a *Area) SetStatus(status string) error {
	for _, s := range statuses {
		if strings.EqualFold(s, status) {
			a.mu.Lock()
			a.status = s
			a.mu.Unlock()
			return nil
		}
	}
	return apperrors.New(apperrors.CodeAreaBadStatus, "status must be one of "+strings.Join(statuses, ", "))
}

// IniswapAllowed reports whether this area tolerates character asset swaps.
func (a *Area) IniswapAllowed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.iniswapAllowed
}

// SetIniswapAllowed toggles asset-swap tolerance.
func (a *Area) SetIniswapAllowed(allowed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.iniswapAllowed = allowed
}

// Owned reports whether a case master has claimed the area.
func (a *Area) Owned() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.owned
}

// SetOwned marks or clears the case-master claim.
func (a *Area) SetOwned(owned bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.owned = owned
}

// Lock locks the area and seeds the invite list with the present members'
// identities, so everyone already inside keeps the right to return.
func (a *Area) Lock(presentIPIDs []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.lockingAllowed {
		return apperrors.New(apperrors.CodeAreaLocked, "area locking is not allowed here")
	}
	if a.locked {
		return apperrors.New(apperrors.CodeClientStateConflict, "area is already locked")
	}
	a.locked = true
	for _, ipid := range presentIPIDs {
		a.invited[ipid] = struct{}{}
	}
	return nil
}

// Unlock unlocks the area and clears the invite list.
func (a *Area) Unlock() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.locked {
		return apperrors.New(apperrors.CodeClientStateConflict, "area is not locked")
	}
	a.locked = false
	a.invited = make(map[string]struct{})
	return nil
}

// Locked reports whether the area is locked.
func (a *Area) Locked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.locked
}

// Invite adds an identity to the invite list. The area must be locked.
func (a *Area) Invite(ipid string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.locked {
		return apperrors.New(apperrors.CodeClientStateConflict, "area is not locked")
	}
	a.invited[ipid] = struct{}{}
	return nil
}

// Uninvite removes an identity from the invite list.
func (a *Area) Uninvite(ipid string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.locked {
		return apperrors.New(apperrors.CodeClientStateConflict, "area is not locked")
	}
	delete(a.invited, ipid)
	return nil
}

// CanJoin reports whether the identity may enter. Unlocked areas admit
// everyone.
func (a *Area) CanJoin(ipid string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.locked {
		return true
	}
	_, ok := a.invited[ipid]
	return ok
}

// AppendJudgeLog records a judge action, keeping only the most recent
// entries.
func (a *Area) AppendJudgeLog(entry string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.judgeLog = append(a.judgeLog, entry)
	if len(a.judgeLog) > judgeLogLimit {
		a.judgeLog = a.judgeLog[len(a.judgeLog)-judgeLogLimit:]
	}
}

// JudgeLog returns the retained judge actions, oldest first.
func (a *Area) JudgeLog() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.judgeLog...)
}

// SetNotecard stores a note under the writing character's name.
func (a *Area) SetNotecard(charName, note string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notecards[charName] = note
}

// ClearNotecard removes one character's note. It reports whether a note
// existed.
func (a *Area) ClearNotecard(charName string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.notecards[charName]
	delete(a.notecards, charName)
	return ok
}

// RevealNotecards returns every note keyed by character name and clears
// them all.
func (a *Area) RevealNotecards() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	revealed := a.notecards
	a.notecards = make(map[string]string)
	return revealed
}

// Doc returns the case document link, or a placeholder when unset.
func (a *Area) Doc() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.doc == "" {
		return "No document."
	}
	return a.doc
}

// SetDoc changes the case document link. An empty string clears it.
func (a *Area) SetDoc(doc string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.doc = doc
}

// PlayMusic records the current track and who started it.
func (a *Area) PlayMusic(name string, playerID int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.currentMusic = name
	a.musicPlayerID = playerID
}

// CurrentMusic returns the playing track name and the starter's session id.
func (a *Area) CurrentMusic() (string, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentMusic, a.musicPlayerID
}

// HP returns the value of a penalty bar (1 or 2).
func (a *Area) HP(bar int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if bar != 1 && bar != 2 {
		return 0, apperrors.New(apperrors.CodeAreaBadPenaltyBar, "penalty bar must be 1 or 2")
	}
	return a.hp[bar-1], nil
}

// SetHP updates a penalty bar. Values run 0 through 10.
func (a *Area) SetHP(bar, value int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if bar != 1 && bar != 2 {
		return apperrors.New(apperrors.CodeAreaBadPenaltyBar, "penalty bar must be 1 or 2")
	}
	if value < 0 || value > 10 {
		return apperrors.New(apperrors.CodeAreaBadPenaltyBar, "penalty value must be between 0 and 10")
	}
	a.hp[bar-1] = value
	return nil
}

// CanSpeak reports whether the pacing delay from the previous message has
// elapsed.
func (a *Area) CanSpeak() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.now().Before(a.nextMessageAt)
}

// RecordMessage starts the pacing delay for the message just broadcast.
// The delay grows with message length and caps at three seconds.
func (a *Area) RecordMessage(textLen int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delay := 100 + 60*textLen
	if delay > 3000 {
		delay = 3000
	}
	a.nextMessageAt = a.now().Add(time.Duration(delay) * time.Millisecond)
}
