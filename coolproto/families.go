package coolproto

import "time"

type Family uint8

const (
	FamilyUnknown Family = iota
	FamilyKraken2
	FamilySmartDevice
	FamilyKraken3
	FamilyFanController
	FamilyHydroPlatinum
	FamilyHanbo
	FamilyUltmt
)

func (f Family) String() string {
	switch f {
	case FamilyKraken2:
		return "kraken2"
	case FamilySmartDevice:
		return "smartdevice"
	case FamilyKraken3:
		return "kraken3"
	case FamilyFanController:
		return "fancontroller"
	case FamilyHydroPlatinum:
		return "hydroplatinum"
	case FamilyHanbo:
		return "hanbo"
	case FamilyUltmt:
		return "ultmt"
	default:
		return "unknown"
	}
}

type ChannelRole uint8

const (
	RoleFan ChannelRole = iota
	RolePump
)

func (r ChannelRole) String() string {
	if r == RolePump {
		return "pump"
	}
	return "fan"
}

type ChannelSpec struct {
	Name string
	Role ChannelRole
	// Writable marks channels whose duty can be commanded.
	Writable bool
}

// DeviceSpec describes a supported device model: identity, channel
// layout and protocol capabilities.
type DeviceSpec struct {
	Family    Family
	Name      string
	VendorID  uint16
	ProductID uint16

	Channels   []ChannelSpec
	HasCoolant bool
	// FanCount is the number of fan channels on Hydro Platinum models.
	FanCount int
	// HasFan marks Kraken Z-series models with a fan channel.
	HasFan bool

	// Validity is how long a status sample stays usable before reads
	// start returning no-data.
	Validity time.Duration
	// Polled devices only report when asked; the others push status on
	// their own once initialized.
	Polled bool
	// WriteSize, when nonzero, is the fixed output report length
	// commands are zero padded to.
	WriteSize int

	CurvePoints    int
	DutyMinPercent uint8
	DutyMaxPercent uint8
}

func fans(n int, writable bool) []ChannelSpec {
	names := []string{"fan1", "fan2", "fan3", "fan4", "fan5", "fan6"}
	chs := make([]ChannelSpec, n)
	for i := range chs {
		chs[i] = ChannelSpec{Name: names[i], Role: RoleFan, Writable: writable}
	}
	return chs
}

func pumpAndFans(n int, writable bool) []ChannelSpec {
	return append([]ChannelSpec{{Name: "pump", Role: RolePump, Writable: writable}}, fans(n, writable)...)
}

func kraken3Spec(productID uint16, name string, hasFan bool) DeviceSpec {
	chs := []ChannelSpec{{Name: "pump", Role: RolePump, Writable: true}}
	if hasFan {
		chs = append(chs, ChannelSpec{Name: "fan1", Role: RoleFan, Writable: true})
	}
	return DeviceSpec{
		Family:         FamilyKraken3,
		Name:           name,
		VendorID:       0x1e71,
		ProductID:      productID,
		Channels:       chs,
		HasCoolant:     true,
		HasFan:         hasFan,
		Validity:       4 * time.Second,
		Polled:         hasFan,
		WriteSize:      Kraken3ReportSize,
		CurvePoints:    Kraken3CurvePoints,
		DutyMinPercent: Kraken3DutyMin,
		DutyMaxPercent: Kraken3DutyMax,
	}
}

func hydroSpec(productID uint16, name string, fanCount int) DeviceSpec {
	return DeviceSpec{
		Family:         FamilyHydroPlatinum,
		Name:           name,
		VendorID:       0x1b1c,
		ProductID:      productID,
		Channels:       pumpAndFans(fanCount, true),
		HasCoolant:     true,
		FanCount:       fanCount,
		Validity:       time.Second,
		Polled:         true,
		DutyMaxPercent: 100,
	}
}

var deviceSpecs = []DeviceSpec{
	{
		Family:    FamilyKraken2,
		Name:      "NZXT Kraken X42/X52/X62/X72",
		VendorID:  0x1e71,
		ProductID: 0x170e,
		Channels: []ChannelSpec{
			{Name: "fan1", Role: RoleFan},
			{Name: "pump", Role: RolePump},
		},
		HasCoolant: true,
		Validity:   2 * time.Second,
	},
	{
		Family:         FamilySmartDevice,
		Name:           "NZXT Grid+ V3",
		VendorID:       0x1e71,
		ProductID:      0x1711,
		Channels:       fans(6, true),
		Validity:       3 * time.Second,
		DutyMaxPercent: 100,
	},
	{
		Family:         FamilySmartDevice,
		Name:           "NZXT Smart Device",
		VendorID:       0x1e71,
		ProductID:      0x1714,
		Channels:       fans(3, true),
		Validity:       3 * time.Second,
		DutyMaxPercent: 100,
	},
	kraken3Spec(0x2007, "NZXT Kraken X53/X63/X73", false),
	kraken3Spec(0x2014, "NZXT Kraken X53/X63/X73 (2nd revision)", false),
	kraken3Spec(0x3008, "NZXT Kraken Z53/Z63/Z73", true),
	{
		Family:         FamilyFanController,
		Name:           "NZXT RGB & Fan Controller",
		VendorID:       0x1e71,
		ProductID:      0x2009,
		Channels:       fans(FanControllerChannels, true),
		Validity:       2 * time.Second,
		WriteSize:      FanControllerReportSize,
		DutyMaxPercent: 100,
	},
	hydroSpec(0x0c18, "Corsair Hydro H100i Platinum", 2),
	hydroSpec(0x0c19, "Corsair Hydro H100i Platinum SE", 2),
	hydroSpec(0x0c17, "Corsair Hydro H115i Platinum", 2),
	hydroSpec(0x0c29, "Corsair Hydro H60i Pro XT", 2),
	hydroSpec(0x0c20, "Corsair Hydro H100i Pro XT", 2),
	hydroSpec(0x0c21, "Corsair Hydro H115i Pro XT", 2),
	hydroSpec(0x0c22, "Corsair Hydro H150i Pro XT", 3),
	hydroSpec(0x0c35, "Corsair iCUE H100i Elite RGB", 2),
	hydroSpec(0x0c36, "Corsair iCUE H115i Elite RGB", 2),
	hydroSpec(0x0c37, "Corsair iCUE H150i Elite RGB", 3),
	hydroSpec(0x0c40, "Corsair iCUE H100i Elite RGB (White)", 2),
	hydroSpec(0x0c41, "Corsair iCUE H150i Elite RGB (White)", 3),
	{
		Family:         FamilyHanbo,
		Name:           "Razer Hanbo Chroma",
		VendorID:       0x1532,
		ProductID:      0x0f35,
		Channels:       pumpAndFans(1, true),
		HasCoolant:     true,
		Validity:       2 * time.Second,
		Polled:         true,
		WriteSize:      HanboReportSize,
		CurvePoints:    HanboCurvePoints,
		DutyMinPercent: HanboDutyMin,
		DutyMaxPercent: HanboDutyMax,
	},
	{
		Family:    FamilyUltmt,
		Name:      "Aqua Computer aquastream ULTIMATE",
		VendorID:  0x0c70,
		ProductID: 0xf00b,
		Channels: []ChannelSpec{
			{Name: "pump", Role: RolePump},
			{Name: "fan1", Role: RoleFan},
		},
		HasCoolant: true,
		Validity:   2 * time.Second,
	},
}

// LookupSpec finds the device spec for a vendor/product pair.
func LookupSpec(vendorID, productID uint16) (DeviceSpec, bool) {
	for _, spec := range deviceSpecs {
		if spec.VendorID == vendorID && spec.ProductID == productID {
			return spec, true
		}
	}
	return DeviceSpec{}, false
}

// Specs returns all supported device models.
func Specs() []DeviceSpec {
	out := make([]DeviceSpec, len(deviceSpecs))
	copy(out, deviceSpecs)
	return out
}
