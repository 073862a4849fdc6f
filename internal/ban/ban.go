// Package ban persists the ban list and the hardware-id history used to
// enforce it across reconnects.
package ban

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/gavel/internal/ban/migrations"
	apperrors "github.com/louisbranch/gavel/internal/errors"
	"github.com/louisbranch/gavel/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// ErrBadIdentity indicates a ban target that is not a 12-digit identity.
var ErrBadIdentity = apperrors.New(apperrors.CodeBanBadIdentity, "argument must be a 12-digit number")

// Store implements ban persistence over SQLite.
//
// A single file backs both the ban list and the hdid history so a ban check
// on connect sees every identity the hardware has ever presented.
type Store struct {
	sqlDB  *sql.DB
	exempt map[string]struct{}
}

// Open opens the ban store at path and applies bundled migrations.
// exemptHDIDs lists hardware ids whose history never triggers a ban.
func Open(path string, exemptHDIDs []string) (*Store, error) {
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

	exempt := make(map[string]struct{}, len(exemptHDIDs))
	for _, hdid := range exemptHDIDs {
		exempt[strings.ToLower(hdid)] = struct{}{}
	}
	return &Store{sqlDB: sqlDB, exempt: exempt}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.sqlDB.Close()
}

// Ban adds an identity to the ban list. Banning twice is a no-op.
func (s *Store) Ban(ipid string) error {
	if !validIPID(ipid) {
		return ErrBadIdentity
	}
	_, err := s.sqlDB.Exec(
		`INSERT INTO bans (ipid, banned_at) VALUES (?, ?) ON CONFLICT (ipid) DO NOTHING`,
		ipid, time.Now().UnixMilli(),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "record ban", err)
	}
	return nil
}

// Unban removes an identity from the ban list.
func (s *Store) Unban(ipid string) error {
	if !validIPID(ipid) {
		return ErrBadIdentity
	}
	res, err := s.sqlDB.Exec(`DELETE FROM bans WHERE ipid = ?`, ipid)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "remove ban", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.New(apperrors.CodeClientBadTarget, "identity is not banned")
	}
	return nil
}

// IsBanned reports whether the identity itself is on the ban list.
func (s *Store) IsBanned(ipid string) (bool, error) {
	var one int
	err := s.sqlDB.QueryRow(`SELECT 1 FROM bans WHERE ipid = ?`, ipid).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeStorage, "check ban", err)
	}
	return true, nil
}

// RecordHDID remembers that the hardware id presented the identity.
func (s *Store) RecordHDID(hdid, ipid string) error {
	_, err := s.sqlDB.Exec(
		`INSERT INTO hdid_history (hdid, ipid, seen_at) VALUES (?, ?, ?) ON CONFLICT (hdid, ipid) DO NOTHING`,
		hdid, ipid, time.Now().UnixMilli(),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStorage, "record hdid", err)
	}
	return nil
}

// IPIDsForHDID returns every identity the hardware id has presented.
func (s *Store) IPIDsForHDID(hdid string) ([]string, error) {
	rows, err := s.sqlDB.Query(`SELECT ipid FROM hdid_history WHERE hdid = ? ORDER BY seen_at`, hdid)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "load hdid history", err)
	}
	defer rows.Close()

	var ipids []string
	for rows.Next() {
		var ipid string
		if err := rows.Scan(&ipid); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorage, "scan hdid history", err)
		}
		ipids = append(ipids, ipid)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "load hdid history", err)
	}
	return ipids, nil
}

// IsExempt reports whether the hardware id skips history-based ban checks.
func (s *Store) IsExempt(hdid string) bool {
	_, ok := s.exempt[strings.ToLower(hdid)]
	return ok
}

// CheckConnect runs the handshake ban check: the connecting identity plus,
// unless the hardware id is exempt, every identity it has ever presented.
func (s *Store) CheckConnect(hdid, ipid string) (bool, error) {
	if banned, err := s.IsBanned(ipid); err != nil || banned {
		return banned, err
	}
	if s.IsExempt(hdid) {
		return false, nil
	}
	history, err := s.IPIDsForHDID(hdid)
	if err != nil {
		return false, err
	}
	for _, seen := range history {
		if banned, err := s.IsBanned(seen); err != nil || banned {
			return banned, err
		}
	}
	return false, nil
}

func validIPID(ipid string) bool {
	if len(ipid) != 12 {
		return false
	}
	for _, r := range ipid {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
