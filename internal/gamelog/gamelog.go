// Package gamelog writes the server's append-only activity logs. Logging is
// best-effort: channels whose files cannot be opened drop writes instead of
// failing the action that triggered them.
package gamelog

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Logger fans events out to per-channel log files. Moderation and connection
// events are mirrored into the server channel.
type Logger struct {
	debug   *log.Logger
	server  *log.Logger
	mod     *log.Logger
	connect *log.Logger
	poll    *log.Logger

	files []*os.File
}

// New opens the channel files under dir, creating it if needed. When debug is
// false the debug channel is discarded. Open failures leave the affected
// channel nil and logging proceeds without it.
func New(dir string, debug bool) *Logger {
	l := &Logger{}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return l
	}
	if debug {
		l.debug = l.open(dir, "debug.log")
	}
	l.server = l.open(dir, "server.log")
	l.mod = l.open(dir, "mod.log")
	l.connect = l.open(dir, "connect.log")
	l.poll = l.open(dir, "poll.log")
	return l
}

func (l *Logger) open(dir, name string) *log.Logger {
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil
	}
	l.files = append(l.files, f)
	return log.New(f, "", log.LstdFlags|log.LUTC)
}

// Close releases the underlying files.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	for _, f := range l.files {
		_ = f.Close()
	}
}

func emit(dst *log.Logger, format string, args ...any) {
	if dst == nil {
		return
	}
	dst.Output(3, fmt.Sprintf(format, args...))
}

// Debug records protocol traces and dropped frames.
func (l *Logger) Debug(format string, args ...any) {
	if l == nil {
		return
	}
	emit(l.debug, format, args...)
}

// Server records ordinary gameplay events.
func (l *Logger) Server(format string, args ...any) {
	if l == nil {
		return
	}
	emit(l.server, format, args...)
}

// Mod records moderation actions, mirrored to the server channel.
func (l *Logger) Mod(format string, args ...any) {
	if l == nil {
		return
	}
	emit(l.mod, format, args...)
	emit(l.server, format, args...)
}

// Connect records connection lifecycle events, mirrored to the server channel.
func (l *Logger) Connect(format string, args ...any) {
	if l == nil {
		return
	}
	emit(l.connect, format, args...)
	emit(l.server, format, args...)
}

// Poll records poll administration and votes.
func (l *Logger) Poll(format string, args ...any) {
	if l == nil {
		return
	}
	emit(l.poll, format, args...)
}
