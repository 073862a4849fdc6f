// Package stats records usage counters for characters, music, and users,
// bucketed by the status of the area where the activity happened.
package stats

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/gavel/internal/errors"
	"github.com/louisbranch/gavel/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/gavel/internal/stats/migrations"
	_ "modernc.org/sqlite"
)

// bucket is the coarse area-status grouping counters are keyed by.
type bucket int

const (
	bucketIdle bucket = iota
	bucketBuildRecess
	bucketCasing
)

// bucketOf collapses an area status into its counter bucket.
func bucketOf(status string) bucket {
	switch strings.ToLower(status) {
	case "building-open", "building-full", "recess":
		return bucketBuildRecess
	case "casing-open", "casing-full":
		return bucketCasing
	default:
		return bucketIdle
	}
}

type charCounters struct {
	picked int
	talked [3]int
}

type musicCounters struct {
	played [3]int
}

type userCounters struct {
	connected int
	talked    [3]int
	kicked    int
	muted     int
	banned    int
	voted     int
	docced    int
}

// Recorder accumulates counters in memory and flushes them to SQLite.
//
// Counter bumps happen on every chat message, so they stay off the disk
// path; Flush writes the whole state in one transaction.
type Recorder struct {
	mu    sync.Mutex
	sqlDB *sql.DB
	chars map[string]*charCounters
	music map[string]*musicCounters
	users map[string]*userCounters
}

// Open opens the stats store at path, applies bundled migrations, and loads
// previously flushed counters.
func Open(path string) (*Recorder, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	r := &Recorder{
		sqlDB: sqlDB,
		chars: make(map[string]*charCounters),
		music: make(map[string]*musicCounters),
		users: make(map[string]*userCounters),
	}
	if err := r.load(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the underlying database handle without flushing.
func (r *Recorder) Close() error {
	return r.sqlDB.Close()
}

func (r *Recorder) load() error {
	rows, err := r.sqlDB.Query(`SELECT name, picked, talked_idle, talked_build_recess, talked_casing FROM character_stats`)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "load character stats", err)
	}
	for rows.Next() {
		var name string
		c := &charCounters{}
		if err := rows.Scan(&name, &c.picked, &c.talked[0], &c.talked[1], &c.talked[2]); err != nil {
			rows.Close()
			return apperrors.Wrap(apperrors.CodeStorage, "scan character stats", err)
		}
		r.chars[name] = c
	}
	rows.Close()

	rows, err = r.sqlDB.Query(`SELECT name, played_idle, played_build_recess, played_casing FROM music_stats`)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "load music stats", err)
	}
	for rows.Next() {
		var name string
		m := &musicCounters{}
		if err := rows.Scan(&name, &m.played[0], &m.played[1], &m.played[2]); err != nil {
			rows.Close()
			return apperrors.Wrap(apperrors.CodeStorage, "scan music stats", err)
		}
		r.music[name] = m
	}
	rows.Close()

	rows, err = r.sqlDB.Query(`SELECT ipid, connected, talked_idle, talked_build_recess, talked_casing, kicked, muted, banned, voted, docced FROM user_stats`)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "load user stats", err)
	}
	for rows.Next() {
		var ipid string
		u := &userCounters{}
		if err := rows.Scan(&ipid, &u.connected, &u.talked[0], &u.talked[1], &u.talked[2], &u.kicked, &u.muted, &u.banned, &u.voted, &u.docced); err != nil {
			rows.Close()
			return apperrors.Wrap(apperrors.CodeStorage, "scan user stats", err)
		}
		r.users[ipid] = u
	}
	rows.Close()
	return nil
}

func (r *Recorder) charEntry(name string) *charCounters {
	key := strings.ToLower(name)
	c, ok := r.chars[key]
	if !ok {
		c = &charCounters{}
		r.chars[key] = c
	}
	return c
}

func (r *Recorder) musicEntry(name string) *musicCounters {
	key := strings.ToLower(name)
	m, ok := r.music[key]
	if !ok {
		m = &musicCounters{}
		r.music[key] = m
	}
	return m
}

func (r *Recorder) userEntry(ipid string) *userCounters {
	u, ok := r.users[ipid]
	if !ok {
		u = &userCounters{}
		r.users[ipid] = u
	}
	return u
}

// CharacterPicked counts a character selection.
func (r *Recorder) CharacterPicked(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.charEntry(name).picked++
}

// CharacterTalked counts a chat message by character and area status.
func (r *Recorder) CharacterTalked(name, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.charEntry(name).talked[bucketOf(status)]++
}

// MusicPlayed counts a track change by area status.
func (r *Recorder) MusicPlayed(name, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.musicEntry(name).played[bucketOf(status)]++
}

// Connected counts a completed handshake for the identity.
func (r *Recorder) Connected(ipid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userEntry(ipid).connected++
}

// UserTalked counts a chat message by identity and area status.
func (r *Recorder) UserTalked(ipid, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userEntry(ipid).talked[bucketOf(status)]++
}

// Kicked counts a kick against the identity.
func (r *Recorder) Kicked(ipid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userEntry(ipid).kicked++
}

// Muted counts a mute against the identity.
func (r *Recorder) Muted(ipid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userEntry(ipid).muted++
}

// Banned counts a ban against the identity.
func (r *Recorder) Banned(ipid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userEntry(ipid).banned++
}

// Voted counts a poll vote by the identity.
func (r *Recorder) Voted(ipid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userEntry(ipid).voted++
}

// Docced counts a case-doc update by the identity.
func (r *Recorder) Docced(ipid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.userEntry(ipid).docced++
}

// Flush writes every counter to the store in one transaction.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.sqlDB.Begin()
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "flush stats", err)
	}
	defer tx.Rollback()

	for name, c := range r.chars {
		if _, err := tx.Exec(
			`INSERT INTO character_stats (name, picked, talked_idle, talked_build_recess, talked_casing)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (name) DO UPDATE SET picked = excluded.picked,
			     talked_idle = excluded.talked_idle,
			     talked_build_recess = excluded.talked_build_recess,
			     talked_casing = excluded.talked_casing`,
			name, c.picked, c.talked[0], c.talked[1], c.talked[2],
		); err != nil {
			return apperrors.Wrap(apperrors.CodeStorage, "flush character stats", err)
		}
	}
	for name, m := range r.music {
		if _, err := tx.Exec(
			`INSERT INTO music_stats (name, played_idle, played_build_recess, played_casing)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (name) DO UPDATE SET played_idle = excluded.played_idle,
			     played_build_recess = excluded.played_build_recess,
			     played_casing = excluded.played_casing`,
			name, m.played[0], m.played[1], m.played[2],
		); err != nil {
			return apperrors.Wrap(apperrors.CodeStorage, "flush music stats", err)
		}
	}
	for ipid, u := range r.users {
		if _, err := tx.Exec(
			`INSERT INTO user_stats (ipid, connected, talked_idle, talked_build_recess, talked_casing, kicked, muted, banned, voted, docced)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (ipid) DO UPDATE SET connected = excluded.connected,
			     talked_idle = excluded.talked_idle,
			     talked_build_recess = excluded.talked_build_recess,
			     talked_casing = excluded.talked_casing,
			     kicked = excluded.kicked,
			     muted = excluded.muted,
			     banned = excluded.banned,
			     voted = excluded.voted,
			     docced = excluded.docced`,
			ipid, u.connected, u.talked[0], u.talked[1], u.talked[2], u.kicked, u.muted, u.banned, u.voted, u.docced,
		); err != nil {
			return apperrors.Wrap(apperrors.CodeStorage, "flush user stats", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "flush stats", err)
	}
	return nil
}
