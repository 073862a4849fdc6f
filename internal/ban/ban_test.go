package ban

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T, exempt []string) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "bans.db"), exempt)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// TestBanRoundTrip ensures bans persist and lift.
func TestBanRoundTrip(t *testing.T) {
	store := openTestStore(t, nil)
	const ipid = "123456789012"

	if err := store.Ban(ipid); err != nil {
		t.Fatalf("ban: %v", err)
	}
	if err := store.Ban(ipid); err != nil {
		t.Fatalf("repeat ban: %v", err)
	}
	banned, err := store.IsBanned(ipid)
	if err != nil || !banned {
		t.Fatalf("IsBanned = %v, %v; want banned", banned, err)
	}
	if err := store.Unban(ipid); err != nil {
		t.Fatalf("unban: %v", err)
	}
	banned, err = store.IsBanned(ipid)
	if err != nil || banned {
		t.Fatalf("IsBanned after unban = %v, %v", banned, err)
	}
}

// TestBanRejectsBadIdentity ensures only 12-digit identities are accepted.
func TestBanRejectsBadIdentity(t *testing.T) {
	store := openTestStore(t, nil)
	for _, ipid := range []string{"", "12345", "1234567890123", "12345678901a"} {
		if err := store.Ban(ipid); !errors.Is(err, ErrBadIdentity) {
			t.Fatalf("Ban(%q) error = %v, want ErrBadIdentity", ipid, err)
		}
	}
}

// TestUnbanUnknownIdentityFails ensures lifting a missing ban reports it.
func TestUnbanUnknownIdentityFails(t *testing.T) {
	store := openTestStore(t, nil)
	if err := store.Unban("123456789012"); err == nil {
		t.Fatal("expected error for unknown ban")
	}
}

// TestCheckConnectUsesHistory ensures a ban follows the hardware id to new
// identities.
func TestCheckConnectUsesHistory(t *testing.T) {
	store := openTestStore(t, nil)
	const hdid = "HD123"

	if err := store.RecordHDID(hdid, "111111111111"); err != nil {
		t.Fatalf("record hdid: %v", err)
	}
	if err := store.Ban("111111111111"); err != nil {
		t.Fatalf("ban: %v", err)
	}

	banned, err := store.CheckConnect(hdid, "222222222222")
	if err != nil {
		t.Fatalf("check connect: %v", err)
	}
	if !banned {
		t.Fatal("historic ban should block new identity from same hardware")
	}

	banned, err = store.CheckConnect("HD999", "222222222222")
	if err != nil || banned {
		t.Fatalf("fresh hardware should pass: %v, %v", banned, err)
	}
}

// TestCheckConnectSkipsExemptHardware ensures exempt hdids bypass history.
func TestCheckConnectSkipsExemptHardware(t *testing.T) {
	store := openTestStore(t, []string{"TrustedHD"})
	if err := store.RecordHDID("trustedhd", "111111111111"); err != nil {
		t.Fatalf("record hdid: %v", err)
	}
	if err := store.Ban("111111111111"); err != nil {
		t.Fatalf("ban: %v", err)
	}

	banned, err := store.CheckConnect("TRUSTEDHD", "222222222222")
	if err != nil || banned {
		t.Fatalf("exempt hardware should pass: %v, %v", banned, err)
	}

	// A direct ban on the presented identity still applies.
	banned, err = store.CheckConnect("TRUSTEDHD", "111111111111")
	if err != nil || !banned {
		t.Fatalf("direct ban should still hold: %v, %v", banned, err)
	}
}
