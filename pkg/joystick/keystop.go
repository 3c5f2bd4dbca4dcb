package joystick

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/term"
)

// Terminal mode switches, replaced in tests.
var (
	isTerminal = term.IsTerminal
	makeRaw    = term.MakeRaw
	restore    = term.Restore
)

// KeyStop reports a stop request once any byte is read from its input.
type KeyStop struct {
	stopped atomic.Bool

	// raw is non-nil while a terminal is held in raw mode.
	fd      int
	raw     *term.State
	release sync.Once
}

// WatchKeys starts reading r in the background. EOF or a read error ends
// the watch without requesting a stop.
func WatchKeys(r io.Reader) *KeyStop {
	k := &KeyStop{}
	go k.watch(r)
	return k
}

// WatchTerminal watches f for a single keypress. When f is a terminal it
// is switched to raw mode so no Enter is needed; Close, or the end of the
// watch, puts it back. Other inputs are read as with WatchKeys.
func WatchTerminal(f *os.File) (*KeyStop, error) {
	k := &KeyStop{}
	fd := int(f.Fd())
	if isTerminal(fd) {
		st, err := makeRaw(fd)
		if err != nil {
			return nil, err
		}
		k.fd, k.raw = fd, st
	}
	go k.watch(f)
	return k, nil
}

func (k *KeyStop) watch(r io.Reader) {
	defer k.Close()

	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			k.stopped.Store(true)
			return
		}
		if err != nil {
			return
		}
	}
}

// Raw reports whether the watched terminal was switched to raw mode.
// Output written meanwhile needs "\r\n" line endings.
func (k *KeyStop) Raw() bool { return k.raw != nil }

// Close restores the terminal mode, if it was changed. It is safe to call
// more than once.
func (k *KeyStop) Close() error {
	var err error
	k.release.Do(func() {
		if k.raw != nil {
			err = restore(k.fd, k.raw)
		}
	})
	return err
}

// Stop requests a stop, as if a key had been pressed.
func (k *KeyStop) Stop() { k.stopped.Store(true) }

// StopRequested implements dispatch.StopSource.
func (k *KeyStop) StopRequested() bool { return k.stopped.Load() }
