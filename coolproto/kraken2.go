package coolproto

// NZXT Kraken X42/X52/X62/X72. The device pushes status reports on its
// own and has no writable controls over this interface.

const (
	kraken2StatusReport = 0x04
	kraken2UsefulSize   = 8
)

type Kraken2 struct{}

// Decode parses a pushed status report. The fractional temperature
// byte is treated as tenths of a degree; the real step appears to be
// closer to 1/9 °C, but the difference stays below the sensor noise.
func (Kraken2) Decode(raw []byte) (Update, error) {
	if len(raw) < kraken2UsefulSize || raw[0] != kraken2StatusReport {
		return Update{}, nil
	}
	return Update{
		Kind:       ReportStatus,
		TempMilliC: int32(raw[1])*1000 + int32(raw[2])*100,
		HasTemp:    true,
		Channels: []ChannelUpdate{
			{Channel: 0, RPM: be16(raw[3:]), HasRPM: true},
			{Channel: 1, RPM: be16(raw[5:]), HasRPM: true},
		},
		Raw: raw,
	}, nil
}
