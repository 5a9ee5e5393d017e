package coolproto

import (
	"bytes"
	"testing"
)

func TestSmartDeviceDecode(t *testing.T) {
	raw := make([]byte, 21)
	raw[0] = 0x04
	raw[3], raw[4] = 0x04, 0xb0 // 1200 rpm
	raw[7], raw[8] = 11, 91     // 11.91 V
	raw[9], raw[10] = 1, 50     // 1.50 A
	raw[15] = 2<<4 | 0x1        // channel 2, DC fan

	u, err := SmartDevice{}.Decode(raw)
	if err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if u.Kind != ReportStatus || len(u.Channels) != 1 {
		t.Fatalf("Kind = %v with %d channels, want status with 1", u.Kind, len(u.Channels))
	}
	ch := u.Channels[0]
	if ch.Channel != 2 {
		t.Errorf("Channel = %d, want 2", ch.Channel)
	}
	if ch.RPM != 1200 {
		t.Errorf("RPM = %d, want 1200", ch.RPM)
	}
	if ch.VoltageMV != 11910 {
		t.Errorf("VoltageMV = %d, want 11910", ch.VoltageMV)
	}
	if ch.CurrentMA != 1500 {
		t.Errorf("CurrentMA = %d, want 1500", ch.CurrentMA)
	}
	if ch.Mode != ModeDC {
		t.Errorf("Mode = %v, want dc", ch.Mode)
	}
	if u.HasTemp {
		t.Error("HasTemp = true for a device without a temperature sensor")
	}
}

func TestSmartDeviceDecodeIgnoresShort(t *testing.T) {
	u, err := SmartDevice{}.Decode([]byte{0x04, 0, 0, 0, 0})
	if err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if u.Kind != ReportNone {
		t.Errorf("Kind = %v, want none", u.Kind)
	}
}

func TestSmartDeviceCommands(t *testing.T) {
	init := SmartDevice{}.InitCommands()
	if len(init) != 2 {
		t.Fatalf("got %d init commands, want 2", len(init))
	}
	if !bytes.Equal(init[0], []byte{0x01, 0x5c}) || !bytes.Equal(init[1], []byte{0x01, 0x5d}) {
		t.Errorf("init commands = %x %x", init[0], init[1])
	}

	cmd := SmartDevice{}.DutyCommand(4, 255)
	want := []byte{0x02, 0x4d, 4, 0x00, 100}
	if !bytes.Equal(cmd, want) {
		t.Errorf("DutyCommand(4, 255) = %x, want %x", cmd, want)
	}
	// The wire percent rounds half up, like every other duty conversion.
	if got := (SmartDevice{}).DutyCommand(0, 102)[4]; got != 40 {
		t.Errorf("duty byte for pwm 102 = %d, want 40", got)
	}
	if got := (SmartDevice{}).DutyCommand(0, 130)[4]; got != 51 {
		t.Errorf("duty byte for pwm 130 = %d, want 51", got)
	}
}
