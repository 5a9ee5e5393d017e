package coolproto

import "fmt"

// Aqua Computer aquastream ULTIMATE. The device pushes one fixed-size
// status report on its own; there are no commands and no control
// surface, monitoring only. All fields are big-endian 16-bit values
// and 0x7fff marks a sensor the firmware has no data for.

const (
	UltmtReportSize = 103

	ultmtStatusReport = 0x01
	ultmtNoData       = 0x7fff

	ultmtTempOffset        = 45
	ultmtPumpVoltageOffset = 61
	ultmtFanCurrentOffset  = 65
	ultmtFanVoltageOffset  = 67
	ultmtFanRPMOffset      = 71
	ultmtFanTargetOffset   = 75
	ultmtPumpRPMOffset     = 81
	ultmtPumpCurrentOffset = 83
)

type Ultmt struct{}

// Decode parses a pushed status report. The pump is channel 0 and the
// fan header channel 1. Temperatures come in centidegrees, voltages in
// centivolts and currents in milliamps; the fan target is a PWM
// percentage scaled by 100.
func (Ultmt) Decode(raw []byte) (Update, error) {
	if len(raw) != UltmtReportSize {
		return Update{}, fmt.Errorf("%w: report is %d bytes, want %d",
			ErrProtocol, len(raw), UltmtReportSize)
	}
	if raw[0] != ultmtStatusReport {
		return Update{}, fmt.Errorf("%w: unknown report id %#02x", ErrProtocol, raw[0])
	}

	u := Update{Kind: ReportStatus, Raw: raw}
	if t := be16(raw[ultmtTempOffset:]); t != ultmtNoData {
		u.TempMilliC = int32(t) * 10
		u.HasTemp = true
	}

	pump := ChannelUpdate{Channel: 0}
	pump.RPM = be16(raw[ultmtPumpRPMOffset:])
	pump.HasRPM = true
	if v := be16(raw[ultmtPumpVoltageOffset:]); v != ultmtNoData {
		pump.VoltageMV = uint32(v) * 10
		pump.HasVoltage = true
	}
	if c := be16(raw[ultmtPumpCurrentOffset:]); c != ultmtNoData {
		pump.CurrentMA = uint32(c)
		pump.HasCurrent = true
	}

	fan := ChannelUpdate{Channel: 1}
	fan.RPM = be16(raw[ultmtFanRPMOffset:])
	fan.HasRPM = true
	if v := be16(raw[ultmtFanVoltageOffset:]); v != ultmtNoData {
		fan.VoltageMV = uint32(v) * 10
		fan.HasVoltage = true
	}
	if c := be16(raw[ultmtFanCurrentOffset:]); c != ultmtNoData {
		fan.CurrentMA = uint32(c)
		fan.HasCurrent = true
	}
	if d := be16(raw[ultmtFanTargetOffset:]); d != ultmtNoData {
		fan.Duty = uint8(ScaleValue(int(d), 10000, 255))
		fan.HasDuty = true
	}

	u.Channels = []ChannelUpdate{pump, fan}
	return u, nil
}
