package gamelog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readLog(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

// TestLoggerWritesChannels ensures events land in their channel files.
func TestLoggerWritesChannels(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, true)
	defer l.Close()

	l.Debug("[INC][RAW]%s", "CT#bob#hi")
	l.Server("[IC][0][Phoenix]%s", "hello")
	l.Mod("[0][Phoenix] muted %s", "123456789012")
	l.Connect("Connected. HDID: %s.", "abcdef")
	l.Poll("vote recorded for %s", "best witness")

	if got := readLog(t, dir, "debug.log"); !strings.Contains(got, "CT#bob#hi") {
		t.Fatalf("debug log missing trace: %q", got)
	}
	if got := readLog(t, dir, "server.log"); !strings.Contains(got, "hello") {
		t.Fatalf("server log missing event: %q", got)
	}
	if got := readLog(t, dir, "poll.log"); !strings.Contains(got, "best witness") {
		t.Fatalf("poll log missing vote: %q", got)
	}
}

// TestLoggerMirrorsModAndConnect ensures mod/connect events reach the server channel.
func TestLoggerMirrorsModAndConnect(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, false)
	defer l.Close()

	l.Mod("banned %s", "123456789012")
	l.Connect("Connected. HDID: %s.", "abcdef")

	server := readLog(t, dir, "server.log")
	if !strings.Contains(server, "banned 123456789012") {
		t.Fatalf("server log missing mod mirror: %q", server)
	}
	if !strings.Contains(server, "Connected. HDID: abcdef.") {
		t.Fatalf("server log missing connect mirror: %q", server)
	}
}

// TestLoggerDebugDisabled ensures the debug channel stays closed when off.
func TestLoggerDebugDisabled(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, false)
	defer l.Close()

	l.Debug("should not appear")
	if _, err := os.Stat(filepath.Join(dir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug.log should not exist, stat err = %v", err)
	}
}

// TestLoggerNilSafe ensures a nil logger drops writes without panicking.
func TestLoggerNilSafe(t *testing.T) {
	var l *Logger
	l.Server("dropped")
	l.Mod("dropped")
	l.Close()
}
