package coolproto

import "testing"

func TestScaleValue(t *testing.T) {
	tests := []struct {
		name    string
		val     int
		fromMax int
		toMax   int
		want    int
	}{
		{"zero", 0, 255, 100, 0},
		{"negative clamps to zero", -4, 255, 100, 0},
		{"max", 255, 255, 100, 100},
		{"above max clamps", 300, 255, 100, 100},
		{"midpoint", 128, 255, 100, 50},
		{"rounds down", 1, 255, 100, 0},
		{"rounds up", 2, 255, 100, 1},
		{"percent to duty exact", 40, 100, 255, 102},
		{"percent to duty half up", 50, 100, 255, 128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScaleValue(tt.val, tt.fromMax, tt.toMax); got != tt.want {
				t.Errorf("ScaleValue(%d, %d, %d) = %d, want %d",
					tt.val, tt.fromMax, tt.toMax, got, tt.want)
			}
		})
	}
}

func TestDutyPercentRoundTrip(t *testing.T) {
	if got := DutyToPercent(255); got != 100 {
		t.Errorf("DutyToPercent(255) = %d, want 100", got)
	}
	if got := PercentToDuty(100); got != 255 {
		t.Errorf("PercentToDuty(100) = %d, want 255", got)
	}
	for pct := uint8(0); pct <= 100; pct++ {
		if got := DutyToPercent(PercentToDuty(pct)); got != pct {
			t.Errorf("round trip of %d%% = %d%%", pct, got)
		}
	}
}

func TestFanTypeMode(t *testing.T) {
	tests := []struct {
		raw  uint8
		want ControlMode
	}{
		{0x0, ModeNone},
		{0x1, ModeDC},
		{0x2, ModePWM},
		{0x3, ModePWM},
	}
	for _, tt := range tests {
		if got := fanTypeMode(tt.raw); got != tt.want {
			t.Errorf("fanTypeMode(%#x) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
