package editline

import (
	"errors"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// Terminal abstracts the tty the reader runs on: raw byte input with
// deadlines, escape-sequence output, size queries, raw mode, and resize
// notifications. The default implementation wraps an *os.File pair; tests
// substitute an in-memory fake.
type Terminal interface {
	io.Reader
	io.Writer

	// ReadTimeout reads like Read but gives up after timeout, returning
	// (0, nil) if no input arrived.
	ReadTimeout(p []byte, timeout time.Duration) (int, error)

	// Size returns the terminal dimensions in character cells.
	Size() (width, height int, err error)

	// Raw puts the terminal into raw mode, returning a function that restores
	// the previous mode. On a non-tty Raw is a no-op.
	Raw() (restore func() error, err error)

	// NotifyResize registers fn to be invoked when the terminal size changes.
	// Passing nil removes the handler.
	NotifyResize(fn func())

	// Pause suspends input delivery. If wait is true, Pause also expires the
	// read deadline so that a read already blocked returns; Pause itself does
	// not block until that read has returned.
	Pause(wait bool) error

	// Resume re-enables input delivery after Pause.
	Resume() error
}

// ttyTerminal is the default Terminal backed by a pair of files, usually
// os.Stdin and os.Stdout.
type ttyTerminal struct {
	in  *os.File
	out *os.File
	fd  int

	mu       sync.Mutex
	paused   bool
	resumeCh chan struct{}

	winch    chan os.Signal
	resizeFn func()
}

// NewTerminal returns a Terminal reading from in and writing to out. If in is
// nil, os.Stdin is used; if out is nil, os.Stdout.
func NewTerminal(in, out *os.File) Terminal {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &ttyTerminal{in: in, out: out, fd: int(in.Fd())}
}

func (t *ttyTerminal) Read(p []byte) (int, error) {
	t.waitResumed()
	_ = t.in.SetReadDeadline(time.Time{})
	return t.in.Read(p)
}

func (t *ttyTerminal) ReadTimeout(p []byte, timeout time.Duration) (int, error) {
	t.waitResumed()
	if err := t.in.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		// The file does not support deadlines; fall back to a blocking read.
		return t.in.Read(p)
	}
	defer func() { _ = t.in.SetReadDeadline(time.Time{}) }()
	n, err := t.in.Read(p)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return 0, nil
	}
	return n, err
}

func (t *ttyTerminal) Write(p []byte) (int, error) {
	return t.out.Write(p)
}

func (t *ttyTerminal) Size() (int, int, error) {
	return term.GetSize(t.fd)
}

func (t *ttyTerminal) Raw() (func() error, error) {
	if !term.IsTerminal(t.fd) {
		return func() error { return nil }, nil
	}
	saved, err := term.MakeRaw(t.fd)
	if err != nil {
		return nil, err
	}
	return func() error { return term.Restore(t.fd, saved) }, nil
}

func (t *ttyTerminal) NotifyResize(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resizeFn = fn
	if fn == nil {
		if t.winch != nil {
			signal.Stop(t.winch)
			close(t.winch)
			t.winch = nil
		}
		return
	}
	if t.winch != nil {
		return
	}
	t.winch = make(chan os.Signal, 1)
	signal.Notify(t.winch, syscall.SIGWINCH)
	go func(ch chan os.Signal) {
		for range ch {
			t.mu.Lock()
			fn := t.resizeFn
			t.mu.Unlock()
			if fn != nil {
				fn()
			}
		}
	}(t.winch)
}

func (t *ttyTerminal) Pause(wait bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused {
		return nil
	}
	t.paused = true
	t.resumeCh = make(chan struct{})
	if wait {
		// Interrupt any blocked read so the pump observes the pause.
		_ = t.in.SetReadDeadline(time.Now())
	}
	return nil
}

func (t *ttyTerminal) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.paused {
		return nil
	}
	t.paused = false
	close(t.resumeCh)
	t.resumeCh = nil
	return nil
}

func (t *ttyTerminal) waitResumed() {
	t.mu.Lock()
	ch := t.resumeCh
	paused := t.paused
	t.mu.Unlock()
	if paused && ch != nil {
		<-ch
	}
}
