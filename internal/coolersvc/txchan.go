package coolersvc

import (
	"fmt"
	"sync"

	"github.com/liquidmon/liquidmon/coolproto"
)

type sender interface {
	Write(p []byte) (int, error)
}

// commandChannel serializes outbound reports through one reusable
// transmit buffer. Devices with a fixed report length get every command
// zero padded to it; a transport write shorter than the report is a
// hard I/O error, not a partial success.
type commandChannel struct {
	mu  sync.Mutex
	buf []byte
	dev sender
}

func newCommandChannel(dev sender, size int) *commandChannel {
	t := &commandChannel{dev: dev}
	if size > 0 {
		t.buf = make([]byte, size)
	}
	return t
}

func (t *commandChannel) Send(cmd []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := cmd
	if t.buf != nil {
		if len(cmd) > len(t.buf) {
			return fmt.Errorf("%w: command of %d bytes exceeds the %d byte report", coolproto.ErrInvalidValue, len(cmd), len(t.buf))
		}
		for i := range t.buf {
			t.buf[i] = 0
		}
		copy(t.buf, cmd)
		out = t.buf
	}
	n, err := t.dev.Write(out)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if n < len(out) {
		return fmt.Errorf("%w: short write (%d of %d bytes)", ErrIO, n, len(out))
	}
	return nil
}
