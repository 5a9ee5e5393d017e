// Package coolproto implements the wire protocols of the supported
// USB-HID liquid coolers: input report decoding, command encoding and
// the per-model capability table. It is a pure codec layer and performs
// no I/O.
package coolproto

import "fmt"

// ControlMode is the fan control mode detected or configured for a channel.
type ControlMode uint8

const (
	ModeNone ControlMode = iota
	ModeDC
	ModePWM
)

func (m ControlMode) String() string {
	switch m {
	case ModeDC:
		return "dc"
	case ModePWM:
		return "pwm"
	default:
		return "none"
	}
}

// ReportKind classifies a decoded input report.
type ReportKind uint8

const (
	ReportNone ReportKind = iota
	ReportStatus
	ReportVoltage
	ReportFirmware
	ReportAck
)

func (k ReportKind) String() string {
	switch k {
	case ReportStatus:
		return "status"
	case ReportVoltage:
		return "voltage"
	case ReportFirmware:
		return "firmware"
	case ReportAck:
		return "ack"
	default:
		return "none"
	}
}

type FirmwareVersion struct {
	Major uint8
	Minor uint8
	Patch uint8
}

func (v FirmwareVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ChannelUpdate carries the fields of a report that concern a single
// fan or pump channel. The Has* flags mark which fields the report
// actually contained; everything else must be ignored.
type ChannelUpdate struct {
	Channel int

	RPM    uint16
	HasRPM bool

	// Duty is in the canonical 0-255 scale.
	Duty    uint8
	HasDuty bool

	Mode    ControlMode
	HasMode bool

	VoltageMV  uint32
	HasVoltage bool

	CurrentMA  uint32
	HasCurrent bool

	// Profile is the device-side control profile id, when reported.
	Profile    uint8
	HasProfile bool
}

// Update is a decoded input report. A zero Update (Kind == ReportNone)
// means the report was not recognized and should be dropped without
// further processing.
type Update struct {
	Kind     ReportKind
	Channels []ChannelUpdate

	TempMilliC int32
	HasTemp    bool

	Firmware    FirmwareVersion
	HasFirmware bool
	Serial      string

	// Raw is the report this update was decoded from. Polled drivers
	// parse their transaction responses out of it.
	Raw []byte
}

// ScaleValue rescales val from [0, fromMax] to [0, toMax], rounding
// half away from zero and clamping out-of-range input.
func ScaleValue(val, fromMax, toMax int) int {
	if val <= 0 {
		return 0
	}
	if val >= fromMax {
		return toMax
	}
	val *= toMax
	if (val%fromMax)*2 >= fromMax {
		return val/fromMax + 1
	}
	return val / fromMax
}

// DutyToPercent converts a canonical 0-255 duty value to percent.
func DutyToPercent(duty uint8) uint8 {
	return uint8(ScaleValue(int(duty), 255, 100))
}

// PercentToDuty converts a percent duty value to the canonical 0-255 scale.
func PercentToDuty(percent uint8) uint8 {
	return uint8(ScaleValue(int(percent), 100, 255))
}

func be16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

func le16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

// fanTypeMode maps the fan type byte shared by the NZXT devices onto a
// ControlMode. Bit 0 marks a DC fan, bit 1 a PWM fan.
func fanTypeMode(t uint8) ControlMode {
	switch {
	case t&0x2 != 0:
		return ModePWM
	case t&0x1 != 0:
		return ModeDC
	default:
		return ModeNone
	}
}
