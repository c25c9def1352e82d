package editline

import (
	"bytes"
	"time"
	"unicode/utf8"
)

// Widget names synthesized by the decoder for input that matches no binding.
const (
	widgetSelfInsert   = "self-insert"
	widgetUndefinedKey = "undefined-key"
)

// keyEvent is one decoded logical key: the binding to run and the raw bytes
// that were consumed to produce it.
type keyEvent struct {
	b   binding
	seq []byte
	// ch is the decoded character for self-insert and undefined-key events.
	ch rune
}

// inputDecoder turns raw terminal bytes into keyEvents by maintaining a
// longest-match walk through the active keymap. A sequence that is both a
// complete binding and a prefix of a longer one is ambiguous; the decoder
// waits up to the configured timeout for continuation bytes before settling
// on the short match. Macro expansions are replayed by pushing their bytes
// back at the head of the stream.
type inputDecoder struct {
	term    Terminal
	pending []byte
	timeout time.Duration
}

func (d *inputDecoder) init(term Terminal, timeout time.Duration) {
	d.term = term
	d.pending = d.pending[:0]
	d.timeout = timeout
}

// Push pushes bytes back at the head of the input stream. Used for macro
// replay and for keys forwarded out of a sub-loop.
func (d *inputDecoder) Push(b []byte) {
	if len(b) == 0 {
		return
	}
	merged := make([]byte, 0, len(b)+len(d.pending))
	merged = append(merged, b...)
	merged = append(merged, d.pending...)
	d.pending = merged
}

// buffered reports whether undecoded input is pending.
func (d *inputDecoder) buffered() bool {
	return len(d.pending) > 0
}

// fill reads more input, blocking until at least one byte arrives.
func (d *inputDecoder) fill() error {
	var buf [256]byte
	n, err := d.term.Read(buf[:])
	if n > 0 {
		d.pending = append(d.pending, buf[:n]...)
		debugPrintf(" input: read %q\n", buf[:n])
	}
	if n > 0 {
		return nil
	}
	return err
}

// fillTimeout reads more input with the ambiguity deadline. It returns the
// number of bytes read; zero with a nil error means the deadline expired.
func (d *inputDecoder) fillTimeout() (int, error) {
	var buf [256]byte
	n, err := d.term.ReadTimeout(buf[:], d.timeout)
	if n > 0 {
		d.pending = append(d.pending, buf[:n]...)
		debugPrintf(" input: read %q (deadline)\n", buf[:n])
		return n, nil
	}
	return 0, err
}

func (d *inputDecoder) emit(b binding, n int) keyEvent {
	seq := append([]byte(nil), d.pending[:n]...)
	d.pending = d.pending[n:]
	return keyEvent{b: b, seq: seq}
}

// Next decodes the next key event using the supplied keymap.
func (d *inputDecoder) Next(km *keyMap) (keyEvent, error) {
	for len(d.pending) == 0 {
		if err := d.fill(); err != nil {
			return keyEvent{}, err
		}
	}

	node := &km.root
	lastEnd := -1
	var lastB binding
	i := 0
	for {
		for ; i < len(d.pending); i++ {
			child := node.findChild(d.pending[i])
			if child == nil {
				return d.resolve(km, lastB, lastEnd)
			}
			node = child
			if node.bound {
				lastEnd = i + 1
				lastB = node.b
				if len(node.children) == 0 {
					return d.emit(node.b, i+1), nil
				}
			}
		}
		// We are mid-walk and out of bytes: either an ambiguous binding (a
		// complete match that is also a prefix of a longer one) or a partial
		// sequence. Wait for continuation bytes up to the deadline.
		n, err := d.fillTimeout()
		if err != nil {
			return keyEvent{}, err
		}
		if n == 0 {
			if lastEnd >= 0 {
				return d.emit(lastB, lastEnd), nil
			}
			return d.resolve(km, lastB, lastEnd)
		}
	}
}

// resolve handles input whose keymap walk has ended without reaching a leaf:
// emit the last complete match if there was one, skip over unrecognized
// escape sequences, and fall back to self-insert of the decoded character.
func (d *inputDecoder) resolve(km *keyMap, lastB binding, lastEnd int) (keyEvent, error) {
	if lastEnd >= 0 {
		return d.emit(lastB, lastEnd), nil
	}

	if d.pending[0] == 0x1b && len(d.pending) >= 2 && (d.pending[1] == '[' || d.pending[1] == 'O') {
		// An escape sequence we have no binding for. It is unclear how to find
		// the end of a sequence without knowing them all, but [a-zA-Z~] only
		// appears at the end of one.
		for {
			if j := bytes.IndexFunc(d.pending[2:], func(r rune) bool {
				return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '~'
			}); j >= 0 {
				ev := d.emit(widgetBinding(widgetUndefinedKey), 2+j+1)
				ev.ch = utf8.RuneError
				return ev, nil
			}
			n, err := d.fillTimeout()
			if err != nil {
				return keyEvent{}, err
			}
			if n == 0 {
				ev := d.emit(widgetBinding(widgetUndefinedKey), len(d.pending))
				ev.ch = utf8.RuneError
				return ev, nil
			}
		}
	}

	for !utf8.FullRune(d.pending) {
		n, err := d.fillTimeout()
		if err != nil {
			return keyEvent{}, err
		}
		if n == 0 {
			// A lone partial rune; consume a single byte so we make progress.
			ev := d.emit(widgetBinding(widgetUndefinedKey), 1)
			ev.ch = utf8.RuneError
			return ev, nil
		}
	}

	r, l := utf8.DecodeRune(d.pending)
	name := widgetSelfInsert
	if !km.selfInsert {
		name = widgetUndefinedKey
	}
	ev := d.emit(widgetBinding(name), l)
	ev.ch = r
	return ev, nil
}

// ReadRune decodes a single literal rune from the input, bypassing the
// keymap. Used by quoted-insert, vi character find, and register selection.
func (d *inputDecoder) ReadRune() (rune, error) {
	for !utf8.FullRune(d.pending) {
		if err := d.fill(); err != nil {
			return 0, err
		}
	}
	r, l := utf8.DecodeRune(d.pending)
	d.pending = d.pending[l:]
	return r, nil
}

// ReadUntil collects input bytes until the terminator sequence is seen,
// returning the bytes before it. Used for bracketed paste.
func (d *inputDecoder) ReadUntil(terminator string) ([]byte, error) {
	for {
		if j := bytes.Index(d.pending, []byte(terminator)); j >= 0 {
			payload := append([]byte(nil), d.pending[:j]...)
			d.pending = d.pending[j+len(terminator):]
			return payload, nil
		}
		if err := d.fill(); err != nil {
			return nil, err
		}
	}
}
