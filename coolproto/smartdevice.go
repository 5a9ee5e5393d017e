package coolproto

// NZXT Smart Device (V1) and Grid+ V3. Once initialized, the device
// pushes one status report per channel five times a second. Duty
// cycles cannot be read back, only commanded.

const (
	smartDeviceStatusReport = 0x04
	smartDeviceStatusSize   = 16

	smartDeviceInitReport = 0x01
	smartDeviceInitDetect = 0x5c
	smartDeviceInitOpen   = 0x5d

	smartDeviceConfigReport = 0x02
	smartDeviceConfigPWM    = 0x4d
)

type SmartDevice struct{}

func (SmartDevice) Decode(raw []byte) (Update, error) {
	if len(raw) < smartDeviceStatusSize || raw[0] != smartDeviceStatusReport {
		return Update{}, nil
	}
	ch := ChannelUpdate{
		Channel:    int(raw[15] >> 4),
		RPM:        be16(raw[3:]),
		HasRPM:     true,
		VoltageMV:  (uint32(raw[7])*100 + uint32(raw[8])) * 10,
		HasVoltage: true,
		CurrentMA:  (uint32(raw[9])*100 + uint32(raw[10])) * 10,
		HasCurrent: true,
		Mode:       fanTypeMode(raw[15] & 0x3),
		HasMode:    true,
	}
	return Update{
		Kind:     ReportStatus,
		Channels: []ChannelUpdate{ch},
		Raw:      raw,
	}, nil
}

// InitCommands returns the two-step initialization request. The device
// runs fan detection asynchronously after receiving it and only then
// starts pushing status reports.
func (SmartDevice) InitCommands() [][]byte {
	return [][]byte{
		{smartDeviceInitReport, smartDeviceInitDetect},
		{smartDeviceInitReport, smartDeviceInitOpen},
	}
}

// DutyCommand sets the duty cycle of one channel. duty is in the
// canonical 0-255 scale; the wire format takes percent.
func (SmartDevice) DutyCommand(channel int, duty uint8) []byte {
	return []byte{
		smartDeviceConfigReport,
		smartDeviceConfigPWM,
		byte(channel),
		0x00,
		DutyToPercent(duty),
	}
}
