package coolproto

import "testing"

func TestLookupSpec(t *testing.T) {
	tests := []struct {
		vendorID  uint16
		productID uint16
		family    Family
		channels  int
		polled    bool
	}{
		{0x1e71, 0x170e, FamilyKraken2, 2, false},
		{0x1e71, 0x1711, FamilySmartDevice, 6, false},
		{0x1e71, 0x1714, FamilySmartDevice, 3, false},
		{0x1e71, 0x2007, FamilyKraken3, 1, false},
		{0x1e71, 0x3008, FamilyKraken3, 2, true},
		{0x1e71, 0x2009, FamilyFanController, 3, false},
		{0x1b1c, 0x0c22, FamilyHydroPlatinum, 4, true},
		{0x1532, 0x0f35, FamilyHanbo, 2, true},
		{0x0c70, 0xf00b, FamilyUltmt, 2, false},
	}
	for _, tt := range tests {
		spec, ok := LookupSpec(tt.vendorID, tt.productID)
		if !ok {
			t.Errorf("LookupSpec(%04x:%04x) not found", tt.vendorID, tt.productID)
			continue
		}
		if spec.Family != tt.family {
			t.Errorf("%04x:%04x family = %v, want %v", tt.vendorID, tt.productID, spec.Family, tt.family)
		}
		if len(spec.Channels) != tt.channels {
			t.Errorf("%s has %d channels, want %d", spec.Name, len(spec.Channels), tt.channels)
		}
		if spec.Polled != tt.polled {
			t.Errorf("%s polled = %v, want %v", spec.Name, spec.Polled, tt.polled)
		}
		if spec.Validity <= 0 {
			t.Errorf("%s has no validity window", spec.Name)
		}
	}

	if _, ok := LookupSpec(0x1e71, 0xffff); ok {
		t.Error("LookupSpec matched an unknown product")
	}
}

func TestSpecChannelRoles(t *testing.T) {
	spec, ok := LookupSpec(0x1b1c, 0x0c22)
	if !ok {
		t.Fatal("spec not found")
	}
	if spec.Channels[0].Role != RolePump || !spec.Channels[0].Writable {
		t.Errorf("channel 0 = %v writable=%v, want writable pump", spec.Channels[0].Role, spec.Channels[0].Writable)
	}
	for i := 1; i < len(spec.Channels); i++ {
		if spec.Channels[i].Role != RoleFan {
			t.Errorf("channel %d role = %v, want fan", i, spec.Channels[i].Role)
		}
	}
	if spec.FanCount != 3 {
		t.Errorf("FanCount = %d, want 3", spec.FanCount)
	}
}
