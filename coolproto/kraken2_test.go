package coolproto

import "testing"

func TestKraken2Decode(t *testing.T) {
	raw := make([]byte, 17)
	raw[0] = 0x04
	raw[1] = 31
	raw[2] = 5
	raw[3], raw[4] = 0x02, 0x58 // fan 600 rpm
	raw[5], raw[6] = 0x0a, 0xf0 // pump 2800 rpm

	u, err := Kraken2{}.Decode(raw)
	if err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if u.Kind != ReportStatus {
		t.Fatalf("Kind = %v, want status", u.Kind)
	}
	if !u.HasTemp || u.TempMilliC != 31500 {
		t.Errorf("TempMilliC = %d (has=%v), want 31500", u.TempMilliC, u.HasTemp)
	}
	if len(u.Channels) != 2 {
		t.Fatalf("got %d channels, want 2", len(u.Channels))
	}
	if u.Channels[0].RPM != 600 || u.Channels[1].RPM != 2800 {
		t.Errorf("rpm = %d/%d, want 600/2800", u.Channels[0].RPM, u.Channels[1].RPM)
	}
}

func TestKraken2DecodeIgnores(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"wrong report id", []byte{0x05, 1, 2, 3, 4, 5, 6, 7}},
		{"truncated", []byte{0x04, 31, 5, 0x02}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := Kraken2{}.Decode(tt.raw)
			if err != nil {
				t.Fatalf("Decode() = %v", err)
			}
			if u.Kind != ReportNone {
				t.Errorf("Kind = %v, want none", u.Kind)
			}
		})
	}
}
