package coolproto

import "fmt"

// Razer Hanbo Chroma. All traffic is polled. Every report is exactly
// 64 bytes, starts with a fixed ack header and is zero padded after the
// payload; anything that deviates is a protocol violation.

const (
	HanboReportSize  = 64
	HanboCurvePoints = 9
	HanboDutyMin     = 20
	HanboDutyMax     = 100

	hanboFirmwareReport   = 0x02
	hanboPumpStatusReport = 0x13
	hanboPumpProfileAck   = 0x15
	hanboPumpCurveAck     = 0x19
	hanboFanStatusReport  = 0x21
	hanboFanProfileAck    = 0x23
	hanboBrightnessAck    = 0x71
	hanboBrightnessStatus = 0x73
	hanboRGBModeAck       = 0x81
	hanboRGBModeStatus    = 0x83
	hanboCPUTempAck       = 0xc1
	hanboFanCurveAck      = 0xc9

	hanboSerialLength = 15

	// HanboProfileQuiet through HanboProfileCurve are the device-side
	// control profiles; the curve profile applies the uploaded custom
	// curve.
	HanboProfileQuiet   = 1
	HanboProfileDefault = 2
	HanboProfileMax     = 3
	HanboProfileCurve   = 4
)

var (
	hanboAckHeaderA = []byte{0x00, 0x02, 0x01, 0x00}
	hanboAckHeaderB = []byte{0x00, 0x02, 0x02, 0x01}

	hanboProfileBaseDuty = []uint8{0x00, 0x14, 0x32, 0x50}

	// Factory default curves, preloaded so the curve profile can be
	// activated without uploading points first.
	HanboDefaultFanCurve  = Curve{0x18, 0x1e, 0x28, 0x30, 0x3c, 0x51, 0x64, 0x64, 0x64}
	HanboDefaultPumpCurve = Curve{0x14, 0x28, 0x3c, 0x50, 0x64, 0x64, 0x64, 0x64, 0x64}
)

// hanboValidateHeader checks the report layout, not its contents: the
// ack header bytes after the report id and the zero padding from the
// end of the payload to the end of the report.
func hanboValidateHeader(headerSize int, raw []byte, eop int) error {
	header := hanboAckHeaderA
	if headerSize == len(hanboAckHeaderB) {
		header = hanboAckHeaderB
	}
	for i := 1; i < headerSize; i++ {
		if raw[i] != header[i] {
			return fmt.Errorf("%w: ack header mismatch at byte %d", ErrProtocol, i)
		}
	}
	for i := eop; i < HanboReportSize; i++ {
		if raw[i] != 0 {
			return fmt.Errorf("%w: nonzero padding at byte %d", ErrProtocol, i)
		}
	}
	return nil
}

type Hanbo struct{}

func (Hanbo) Decode(raw []byte) (Update, error) {
	if len(raw) != HanboReportSize {
		return Update{}, fmt.Errorf("%w: report is %d bytes, want %d",
			ErrProtocol, len(raw), HanboReportSize)
	}
	switch raw[0] {
	case hanboFirmwareReport:
		if err := hanboValidateHeader(2, raw, 34); err != nil {
			return Update{}, err
		}
		return Update{
			Kind:        ReportFirmware,
			Firmware:    FirmwareVersion{Major: raw[29], Minor: raw[30] >> 4, Patch: raw[30] & 0x0f},
			HasFirmware: true,
			Serial:      string(raw[3 : 3+hanboSerialLength]),
			Raw:         raw,
		}, nil
	case hanboPumpStatusReport:
		if err := hanboValidateHeader(3, raw, 11); err != nil {
			return Update{}, err
		}
		return Update{
			Kind:       ReportStatus,
			TempMilliC: int32(raw[5])*1000 + int32(raw[6])*100,
			HasTemp:    true,
			Channels: []ChannelUpdate{{
				Channel:    0,
				RPM:        be16(raw[7:]),
				HasRPM:     true,
				Duty:       PercentToDuty(raw[10]),
				HasDuty:    true,
				Profile:    raw[3],
				HasProfile: true,
			}},
			Raw: raw,
		}, nil
	case hanboFanStatusReport:
		if err := hanboValidateHeader(4, raw, 10); err != nil {
			return Update{}, err
		}
		return Update{
			Kind: ReportStatus,
			Channels: []ChannelUpdate{{
				Channel:    1,
				RPM:        be16(raw[6:]),
				HasRPM:     true,
				Duty:       PercentToDuty(raw[9]),
				HasDuty:    true,
				Profile:    raw[4],
				HasProfile: true,
			}},
			Raw: raw,
		}, nil
	case hanboPumpCurveAck, hanboFanCurveAck, hanboPumpProfileAck,
		hanboFanProfileAck, hanboCPUTempAck, hanboRGBModeAck:
		if err := hanboValidateHeader(3, raw, 3); err != nil {
			return Update{}, err
		}
		return Update{Kind: ReportAck, Raw: raw}, nil
	case hanboBrightnessAck, hanboBrightnessStatus, hanboRGBModeStatus:
		if err := hanboValidateHeader(2, raw, 4); err != nil {
			return Update{}, err
		}
		return Update{Kind: ReportAck, Raw: raw}, nil
	}
	return Update{}, fmt.Errorf("%w: unknown report id %#02x", ErrProtocol, raw[0])
}

func (Hanbo) FirmwareRequest() []byte {
	return []byte{0x01, 0x01}
}

func (Hanbo) PumpStatusRequest() []byte {
	return []byte{0x12, 0x01}
}

func (Hanbo) FanStatusRequest() []byte {
	return []byte{0x20, 0x01}
}

// ProfileCommand selects a built-in control profile for the pump
// (channel 0) or fan (channel 1). The trailing base duty byte has no
// effect but is kept because the OEM software sends it. The curve
// profile has no select command on the wire; it is activated by
// (re)sending the channel curve with CurveCommand.
func (Hanbo) ProfileCommand(channel int, profile uint8) ([]byte, error) {
	if channel < 0 || channel > 1 {
		return nil, fmt.Errorf("%w: channel %d out of range", ErrInvalidValue, channel)
	}
	if profile == HanboProfileCurve {
		return nil, fmt.Errorf("%w: the curve profile is activated by a curve upload", ErrInvalidValue)
	}
	if profile < HanboProfileQuiet || profile > HanboProfileMax {
		return nil, fmt.Errorf("%w: profile %d out of range", ErrInvalidValue, profile)
	}
	id := byte(0x14)
	if channel == 1 {
		id = 0x22
	}
	return []byte{id, 0x01, profile, hanboProfileBaseDuty[profile]}, nil
}

// CurveCommand uploads a 9-point custom curve for the pump (channel 0)
// or fan (channel 1) and activates the curve profile. The points span
// 20 to 100 °C in steps fixed by the firmware.
func (Hanbo) CurveCommand(channel int, curve Curve) ([]byte, error) {
	if channel < 0 || channel > 1 {
		return nil, fmt.Errorf("%w: channel %d out of range", ErrInvalidValue, channel)
	}
	if err := curve.Validate(HanboCurvePoints); err != nil {
		return nil, err
	}
	cmd := make([]byte, 4+HanboCurvePoints)
	cmd[0] = 0x18
	cmd[1] = 0x01
	cmd[2] = 0x01
	if channel == 1 {
		cmd[0] = 0xc8
		cmd[2] = 0x00
	}
	copy(cmd[4:], curve)
	return cmd, nil
}

// CPUTempCommand feeds the reference CPU temperature the firmware uses
// for its built-in profiles.
func (Hanbo) CPUTempCommand(degreesC uint8) []byte {
	return []byte{0xc0, 0x01, degreesC, 0x00, 0x1e, 0x00}
}
