package coolersvc

import (
	"bytes"
	"errors"
	"testing"

	"github.com/liquidmon/liquidmon/coolproto"
)

type fakeSender struct {
	writes  [][]byte
	err     error
	shortBy int
}

func (s *fakeSender) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	s.writes = append(s.writes, cp)
	return len(p) - s.shortBy, nil
}

func TestCommandChannelPadsToReportSize(t *testing.T) {
	dev := &fakeSender{}
	tx := newCommandChannel(dev, 8)
	if err := tx.Send([]byte{0x70, 0x01}); err != nil {
		t.Fatalf("Send() = %v", err)
	}
	want := []byte{0x70, 0x01, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(dev.writes[0], want) {
		t.Errorf("wire bytes = %x, want %x", dev.writes[0], want)
	}
}

// A longer command must not leave residue behind a shorter one sent
// through the same buffer.
func TestCommandChannelZeroFillsBetweenSends(t *testing.T) {
	dev := &fakeSender{}
	tx := newCommandChannel(dev, 6)
	if err := tx.Send([]byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee}); err != nil {
		t.Fatalf("Send() = %v", err)
	}
	if err := tx.Send([]byte{0x11}); err != nil {
		t.Fatalf("Send() = %v", err)
	}
	want := []byte{0x11, 0, 0, 0, 0, 0}
	if !bytes.Equal(dev.writes[1], want) {
		t.Errorf("wire bytes = %x, want %x", dev.writes[1], want)
	}
}

func TestCommandChannelUnsizedSendsRaw(t *testing.T) {
	dev := &fakeSender{}
	tx := newCommandChannel(dev, 0)
	cmd := []byte{0x02, 0x4d, 0x01, 0x00, 0x28}
	if err := tx.Send(cmd); err != nil {
		t.Fatalf("Send() = %v", err)
	}
	if !bytes.Equal(dev.writes[0], cmd) {
		t.Errorf("wire bytes = %x, want %x", dev.writes[0], cmd)
	}
}

func TestCommandChannelOversizeCommand(t *testing.T) {
	tx := newCommandChannel(&fakeSender{}, 4)
	err := tx.Send([]byte{1, 2, 3, 4, 5})
	if !errors.Is(err, coolproto.ErrInvalidValue) {
		t.Errorf("Send() = %v, want ErrInvalidValue", err)
	}
}

func TestCommandChannelShortWriteIsIOError(t *testing.T) {
	tx := newCommandChannel(&fakeSender{shortBy: 1}, 8)
	err := tx.Send([]byte{0x70, 0x01})
	if !errors.Is(err, ErrIO) {
		t.Errorf("Send() = %v, want ErrIO", err)
	}
}

func TestCommandChannelWriteError(t *testing.T) {
	tx := newCommandChannel(&fakeSender{err: errors.New("unplugged")}, 8)
	err := tx.Send([]byte{0x70, 0x01})
	if !errors.Is(err, ErrIO) {
		t.Errorf("Send() = %v, want ErrIO", err)
	}
}
