package coolproto

// NZXT RGB & Fan Controller. Three controllable fan channels out of
// eight report slots; the lighting half of the device is left alone.
// The device alternates speed and voltage status reports at the
// configured update interval.

const (
	fanCtrlStatusReport  = 0x67
	fanCtrlStatusSpeed   = 0x02
	fanCtrlStatusVoltage = 0x04
	fanCtrlStatusSize    = 57

	fanCtrlInitReport     = 0x60
	fanCtrlInitInterval   = 0x02
	fanCtrlInitDetectFans = 0x03
	fanCtrlSetSpeedReport = 0x62

	fanCtrlReportSlots = 8

	FanControllerChannels   = 3
	FanControllerReportSize = 64

	// FanControllerIntervalStep is the update interval granularity.
	FanControllerIntervalStepMS = 250
)

type FanController struct{}

func (FanController) Decode(raw []byte) (Update, error) {
	if len(raw) < fanCtrlStatusSize || raw[0] != fanCtrlStatusReport {
		return Update{}, nil
	}
	u := Update{Raw: raw}
	switch raw[1] {
	case fanCtrlStatusSpeed:
		u.Kind = ReportStatus
		for i := 0; i < FanControllerChannels; i++ {
			u.Channels = append(u.Channels, ChannelUpdate{
				Channel: i,
				Mode:    fanTypeMode(raw[16+i]),
				HasMode: true,
				RPM:     le16(raw[24+2*i:]),
				HasRPM:  true,
				Duty:    PercentToDuty(raw[40+i]),
				HasDuty: true,
			})
		}
	case fanCtrlStatusVoltage:
		u.Kind = ReportVoltage
		for i := 0; i < FanControllerChannels; i++ {
			u.Channels = append(u.Channels, ChannelUpdate{
				Channel:    i,
				Mode:       fanTypeMode(raw[16+i]),
				HasMode:    true,
				VoltageMV:  uint32(le16(raw[24+2*i:])),
				HasVoltage: true,
				CurrentMA:  uint32(le16(raw[40+2*i:])),
				HasCurrent: true,
			})
		}
	default:
		return Update{}, nil
	}
	return u, nil
}

// DetectCommand asks the device to (re)detect connected fans and their
// control mode.
func (FanController) DetectCommand() []byte {
	return []byte{fanCtrlInitReport, fanCtrlInitDetectFans}
}

// IntervalCommand sets the status update interval, expressed in 250 ms
// steps starting at 250 ms for steps == 0.
func (FanController) IntervalCommand(steps uint8) []byte {
	return []byte{fanCtrlInitReport, fanCtrlInitInterval, 0x01, 0xe8, steps, 0x01, 0xe8, steps}
}

// DutyCommand sets one channel to a fixed duty in the canonical 0-255
// scale. The device accepts duty writes even for disconnected fans.
func (FanController) DutyCommand(channel int, duty uint8) []byte {
	cmd := make([]byte, 3+fanCtrlReportSlots)
	cmd[0] = fanCtrlSetSpeedReport
	cmd[1] = 0x01
	cmd[2] = 1 << channel
	cmd[3+channel] = DutyToPercent(duty)
	return cmd
}
