package coolproto

import "fmt"

// Corsair Hydro Platinum, Pro XT and Elite RGB family. All traffic is
// polled: the host sends a framed command and the device answers with a
// single 64-byte report carrying a trailing CRC-8.

const (
	HydroPlatinumReportSize = 64

	hydroPrefix     = 0x3f
	hydroCmdStatus  = 0xff
	hydroCmdCooling = 0x14

	hydroFeatureCooling     = 0x00
	hydroFeatureCoolingFan3 = 0x03

	HydroPumpModeQuiet    = 0x00
	HydroPumpModeBalanced = 0x01
	HydroPumpModeExtreme  = 0x02

	hydroFanModeFixedDuty = 0x02

	hydroOffFan1Mode   = 8
	hydroOffFan1Duty   = 13
	hydroOffFan2Mode   = 14
	hydroOffFan2Duty   = 19
	hydroOffPumpMode   = 20
	hydroOffProfileLen = 26

	hydroCoolingPayloadSize = 60
)

// HydroPlatinum frames commands and decodes responses for one device.
// It tracks the rolling 1..31 sequence number, so each device needs its
// own instance and callers must serialize command framing.
type HydroPlatinum struct {
	// FanCount is 2 or 3 depending on the model.
	FanCount int

	seq uint8
}

// HydroCoolingState is the target cooling configuration committed with
// each set-cooling command. Fan duties are in the canonical 0-255
// scale, which is also what the wire format takes.
type HydroCoolingState struct {
	PumpMode uint8
	FanDuty  [3]uint8
}

// Frame builds a complete 65-byte output report (report id 0 plus
// payload) for the given feature and command, advancing the sequence
// number.
func (h *HydroPlatinum) Frame(feature, command uint8, payload []byte) []byte {
	buf := make([]byte, HydroPlatinumReportSize+1)
	buf[1] = hydroPrefix
	h.seq = h.seq%31 + 1
	buf[2] = h.seq<<3 | feature
	buf[3] = command
	copy(buf[4:HydroPlatinumReportSize], payload)
	buf[HydroPlatinumReportSize] = CRC8(buf[2:HydroPlatinumReportSize])
	return buf
}

// StatusRequest builds a get-status frame. The response carries the
// firmware version and the full sensor block.
func (h *HydroPlatinum) StatusRequest() []byte {
	return h.Frame(hydroFeatureCooling, hydroCmdStatus, nil)
}

// CoolingCommands builds the set-cooling frames for the state. Models
// with a third fan need a second frame on the extension feature, where
// the third fan occupies the first fan slot. The device requires the
// main frame to be sent before the extension frame.
func (h *HydroPlatinum) CoolingCommands(st HydroCoolingState) [][]byte {
	payload := hydroCoolingPayload(st.PumpMode)
	if h.FanCount >= 1 {
		payload[hydroOffFan1Mode] = hydroFanModeFixedDuty
		payload[hydroOffFan1Duty] = st.FanDuty[0]
	}
	if h.FanCount >= 2 {
		payload[hydroOffFan2Mode] = hydroFanModeFixedDuty
		payload[hydroOffFan2Duty] = st.FanDuty[1]
	}
	cmds := [][]byte{h.Frame(hydroFeatureCooling, hydroCmdCooling, payload)}
	if h.FanCount >= 3 {
		ext := hydroCoolingPayload(st.PumpMode)
		ext[hydroOffFan1Mode] = hydroFanModeFixedDuty
		ext[hydroOffFan1Duty] = st.FanDuty[2]
		cmds = append(cmds, h.Frame(hydroFeatureCoolingFan3, hydroCmdCooling, ext))
	}
	return cmds
}

func hydroCoolingPayload(pumpMode uint8) []byte {
	p := make([]byte, hydroCoolingPayloadSize)
	p[1] = 0xff
	p[2] = 0x05
	for i := 3; i < 8; i++ {
		p[i] = 0xff
	}
	p[hydroOffProfileLen] = 7
	p[hydroOffPumpMode] = pumpMode
	return p
}

// Decode validates the response checksum. A mismatch usually means
// another client's response was intercepted; the frame is reported as
// ErrProtocol and dropped before it can corrupt device state tracking.
// Valid frames come back as ReportAck; the sensor block is only parsed
// on demand via ParseStatus, since acks and status responses share the
// framing.
func (h *HydroPlatinum) Decode(raw []byte) (Update, error) {
	if len(raw) < HydroPlatinumReportSize {
		return Update{}, nil
	}
	raw = raw[:HydroPlatinumReportSize]
	if CRC8(raw[1:]) != 0 {
		return Update{}, fmt.Errorf("%w: response checksum mismatch", ErrProtocol)
	}
	return Update{Kind: ReportAck, Raw: raw}, nil
}

// ParseStatus decodes the sensor block of a get-status response.
// Channel 0 is the pump; fans follow.
func (h *HydroPlatinum) ParseStatus(raw []byte) (Update, error) {
	if len(raw) < HydroPlatinumReportSize {
		return Update{}, fmt.Errorf("%w: short status response", ErrProtocol)
	}
	u := Update{
		Kind:        ReportStatus,
		TempMilliC:  int32(raw[8])*1000 + int32(raw[7])*1000/255,
		HasTemp:     true,
		Firmware:    FirmwareVersion{Major: raw[2] >> 4, Minor: raw[2] & 0x0f, Patch: raw[3]},
		HasFirmware: true,
		Raw:         raw,
	}
	u.Channels = append(u.Channels, ChannelUpdate{
		Channel: 0,
		RPM:     le16(raw[29:]),
		HasRPM:  true,
		Duty:    raw[28],
		HasDuty: true,
	})
	fanBase := []int{14, 21, 42}
	for i := 0; i < h.FanCount; i++ {
		u.Channels = append(u.Channels, ChannelUpdate{
			Channel: i + 1,
			RPM:     le16(raw[fanBase[i]+1:]),
			HasRPM:  true,
			Duty:    raw[fanBase[i]],
			HasDuty: true,
		})
	}
	return u, nil
}

// PumpModeFromPWM maps a 0-255 pwm value onto the three discrete pump
// modes: quiet below 85, balanced below 170, extreme above.
func PumpModeFromPWM(val uint8) uint8 {
	switch {
	case val < 85:
		return HydroPumpModeQuiet
	case val < 170:
		return HydroPumpModeBalanced
	default:
		return HydroPumpModeExtreme
	}
}
