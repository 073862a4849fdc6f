package protocol

import (
	"errors"
	"strings"
)

// frameEnd terminates every well-formed frame.
const frameEnd = "#%"

// legacyCharListToken is the encrypted "ask for character page 2" request
// sent by an old client generation without a frame terminator.
const legacyCharListToken = "#615810BC07D12A5A#"

// maxBufferLen bounds the accumulation buffer; exceeding it is fatal for
// the connection.
const maxBufferLen = 8192

// ErrBufferOverflow reports that a connection exceeded the accumulation
// buffer without completing a frame.
var ErrBufferOverflow = errors.New("protocol: input buffer overflow")

// Message is one decoded protocol frame: a command code and its ordered
// arguments.
type Message struct {
	Cmd  string
	Args []string
}

// Decoder accumulates decoded text and splits it into complete messages,
// leaving any partial trailing frame buffered for the next read.
//
// A Decoder is not safe for concurrent use; each connection owns one.
type Decoder struct {
	buf string

	// Trace, when set, receives the raw reassembled text of every frame
	// that went through the obfuscation path.
	Trace func(raw string)
}

// Feed appends decoded text to the accumulation buffer.
func (d *Decoder) Feed(data string) error {
	d.buf += data
	if len(d.buf) > maxBufferLen {
		return ErrBufferOverflow
	}
	return nil
}

// Next returns the next complete message, skipping sub-minimal fragments.
// The second return value is false once the buffer holds no further
// complete frame.
func (d *Decoder) Next() (Message, bool) {
	for {
		raw, ok := d.nextRaw()
		if !ok {
			return Message{}, false
		}
		if len(raw) < 2 {
			continue
		}
		if raw[0] == '#' || raw[0] == '3' || raw[0] == '4' {
			raw = d.deobfuscate(raw)
		}
		parts := strings.Split(raw, "#")
		return Message{Cmd: parts[0], Args: parts[1:]}, true
	}
}

// nextRaw pops one frame body off the buffer.
func (d *Decoder) nextRaw() (string, bool) {
	if idx := strings.Index(d.buf, frameEnd); idx >= 0 {
		msg := d.buf[:idx]
		d.buf = d.buf[idx+len(frameEnd):]
		return msg, true
	}
	// exception for the terminator-less legacy request
	if d.buf == legacyCharListToken {
		d.buf = ""
		return legacyCharListToken, true
	}
	return "", false
}

// deobfuscate reverses the cipher on the first field of a marker-prefixed
// frame. Transform failures pass the field through untouched.
func (d *Decoder) deobfuscate(raw string) string {
	if raw[0] == '#' {
		raw = raw[1:]
	}
	head, rest, found := strings.Cut(raw, "#")
	if plain, err := Decrypt(head); err == nil {
		head = plain
	}
	if found {
		raw = head + "#" + rest
	} else {
		raw = head
	}
	if d.Trace != nil {
		d.Trace(raw)
	}
	return raw
}
