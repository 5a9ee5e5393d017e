package coolproto

import (
	"errors"
	"testing"
)

func ultmtReport() []byte {
	raw := make([]byte, UltmtReportSize)
	raw[0] = 0x01
	raw[45], raw[46] = 0x0b, 0xc4 // 30.12 C
	raw[61], raw[62] = 0x04, 0xb5 // pump 12.05 V
	raw[65], raw[66] = 0x00, 0xfa // fan 250 mA
	raw[67], raw[68] = 0x04, 0xa6 // fan 11.90 V
	raw[71], raw[72] = 0x03, 0x84 // fan 900 rpm
	raw[75], raw[76] = 0x13, 0x88 // fan target 50.00%
	raw[81], raw[82] = 0x0d, 0xac // pump 3500 rpm
	raw[83], raw[84] = 0x7f, 0xff // pump current not reported
	return raw
}

func TestUltmtDecode(t *testing.T) {
	u, err := Ultmt{}.Decode(ultmtReport())
	if err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if u.Kind != ReportStatus || len(u.Channels) != 2 {
		t.Fatalf("Kind = %v with %d channels, want status with 2", u.Kind, len(u.Channels))
	}
	if !u.HasTemp || u.TempMilliC != 30120 {
		t.Errorf("temp = %d (has %v), want 30120", u.TempMilliC, u.HasTemp)
	}

	pump := u.Channels[0]
	if pump.Channel != 0 || pump.RPM != 3500 {
		t.Errorf("pump rpm = %d on channel %d, want 3500 on 0", pump.RPM, pump.Channel)
	}
	if !pump.HasVoltage || pump.VoltageMV != 12050 {
		t.Errorf("pump voltage = %d mV (has %v), want 12050", pump.VoltageMV, pump.HasVoltage)
	}
	if pump.HasCurrent {
		t.Error("pump current reported despite the no-data sentinel")
	}

	fan := u.Channels[1]
	if fan.Channel != 1 || fan.RPM != 900 {
		t.Errorf("fan rpm = %d on channel %d, want 900 on 1", fan.RPM, fan.Channel)
	}
	if !fan.HasCurrent || fan.CurrentMA != 250 {
		t.Errorf("fan current = %d mA (has %v), want 250", fan.CurrentMA, fan.HasCurrent)
	}
	if !fan.HasVoltage || fan.VoltageMV != 11900 {
		t.Errorf("fan voltage = %d mV (has %v), want 11900", fan.VoltageMV, fan.HasVoltage)
	}
	// 50.00% of the canonical scale rounds up to 128.
	if !fan.HasDuty || fan.Duty != 128 {
		t.Errorf("fan duty = %d (has %v), want 128", fan.Duty, fan.HasDuty)
	}
}

func TestUltmtDecodeTempSentinel(t *testing.T) {
	raw := ultmtReport()
	raw[45], raw[46] = 0x7f, 0xff
	u, err := Ultmt{}.Decode(raw)
	if err != nil {
		t.Fatalf("Decode() = %v", err)
	}
	if u.HasTemp {
		t.Error("temperature reported despite the no-data sentinel")
	}
}

func TestUltmtDecodeRejectsMalformed(t *testing.T) {
	if _, err := (Ultmt{}).Decode(make([]byte, 64)); !errors.Is(err, ErrProtocol) {
		t.Errorf("short report: err = %v, want ErrProtocol", err)
	}
	raw := ultmtReport()
	raw[0] = 0x02
	if _, err := (Ultmt{}).Decode(raw); !errors.Is(err, ErrProtocol) {
		t.Errorf("unknown report id: err = %v, want ErrProtocol", err)
	}
}
