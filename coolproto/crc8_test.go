package coolproto

import "testing"

func TestCRC8(t *testing.T) {
	if got := CRC8([]byte{0x00}); got != 0 {
		t.Errorf("CRC8({0}) = %#x, want 0", got)
	}
	if got := CRC8([]byte{0x01}); got != 0x07 {
		t.Errorf("CRC8({1}) = %#x, want 0x07", got)
	}
}

func TestCRC8FoldsToZero(t *testing.T) {
	data := []byte{0x3f, 0x0b, 0x14, 0x00, 0xff, 0x05, 0xff, 0xff}
	withCRC := append(append([]byte{}, data...), CRC8(data))
	if got := CRC8(withCRC); got != 0 {
		t.Errorf("CRC8 over data plus checksum = %#x, want 0", got)
	}
}
