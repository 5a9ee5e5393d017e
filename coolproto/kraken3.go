package coolproto

import "fmt"

// NZXT Kraken X53/X63/X73 (pushed status) and Z53/Z63/Z73 (polled).
// Duty is controlled exclusively through a 40-point curve spanning
// liquid temperatures from 20 to 59 °C; a fixed duty is expressed as a
// flat curve.

const (
	kraken3StatusReport   = 0x75
	kraken3FirmwareReport = 0x11
	kraken3MinReportSize  = 20

	Kraken3ReportSize  = 64
	Kraken3CurvePoints = 40
	Kraken3DutyMin     = 20
	Kraken3DutyMax     = 100
)

type Kraken3 struct {
	// HasFan is set for the Z-series, which exposes a fan channel in
	// addition to the pump.
	HasFan bool
}

func (k Kraken3) Decode(raw []byte) (Update, error) {
	if len(raw) < kraken3MinReportSize {
		return Update{}, nil
	}
	switch raw[0] {
	case kraken3StatusReport:
		if raw[15] == 0xff && raw[16] == 0xff {
			// Sensor fault marker, discard the whole report.
			return Update{}, nil
		}
		u := Update{
			Kind:       ReportStatus,
			TempMilliC: int32(raw[15])*1000 + int32(raw[16])*100,
			HasTemp:    true,
			Raw:        raw,
		}
		u.Channels = append(u.Channels, ChannelUpdate{
			Channel: 0,
			RPM:     le16(raw[17:]),
			HasRPM:  true,
			Duty:    PercentToDuty(raw[19]),
			HasDuty: true,
		})
		if k.HasFan && len(raw) >= 27 {
			u.Channels = append(u.Channels, ChannelUpdate{
				Channel: 1,
				RPM:     le16(raw[23:]),
				HasRPM:  true,
				Duty:    PercentToDuty(raw[25]),
				HasDuty: true,
			})
		}
		return u, nil
	case kraken3FirmwareReport:
		return Update{
			Kind:        ReportFirmware,
			Firmware:    FirmwareVersion{Major: raw[17], Minor: raw[18], Patch: raw[19]},
			HasFirmware: true,
			Raw:         raw,
		}, nil
	}
	return Update{}, nil
}

// SetIntervalCommand configures the status report interval in seconds.
func (Kraken3) SetIntervalCommand(seconds uint8) []byte {
	return []byte{0x70, 0x02, 0x01, 0xb8, seconds}
}

func (Kraken3) FinishInitCommand() []byte {
	return []byte{0x70, 0x01}
}

func (Kraken3) FirmwareRequest() []byte {
	return []byte{0x10, 0x01}
}

// StatusRequest asks a Z-series device for a status report. X-series
// devices push their status unprompted.
func (Kraken3) StatusRequest() []byte {
	return []byte{0x74, 0x01}
}

// CurveCommand uploads a control curve for channel 0 (pump) or, on the
// Z-series, channel 1 (fan).
func (Kraken3) CurveCommand(channel int, curve Curve) ([]byte, error) {
	if channel < 0 || channel > 1 {
		return nil, fmt.Errorf("%w: channel %d has no duty control", ErrInvalidValue, channel)
	}
	if err := curve.Validate(Kraken3CurvePoints); err != nil {
		return nil, err
	}
	cmd := make([]byte, 4+Kraken3CurvePoints)
	cmd[0] = 0x72
	cmd[1] = byte(channel) + 1
	copy(cmd[4:], curve)
	return cmd, nil
}

// PercentFromPWM converts a 0-255 pwm value to the percent range the
// device accepts. Values mapping below 20% or above 100% are rejected
// rather than clamped.
func (Kraken3) PercentFromPWM(val int) (uint8, error) {
	if val < 0 || val > 255 {
		return 0, fmt.Errorf("%w: pwm %d out of range", ErrInvalidValue, val)
	}
	pct := (val*100 + 127) / 255
	if pct < Kraken3DutyMin || pct > Kraken3DutyMax {
		return 0, fmt.Errorf("%w: duty %d%% outside %d-%d%%",
			ErrInvalidValue, pct, Kraken3DutyMin, Kraken3DutyMax)
	}
	return uint8(pct), nil
}
