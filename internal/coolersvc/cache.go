package coolersvc

import (
	"sync"
	"time"

	"github.com/liquidmon/liquidmon/coolproto"
)

// ChannelStatus is the cached state of one fan or pump channel.
type ChannelStatus struct {
	RPM        uint16
	Duty       uint8
	Mode       coolproto.ControlMode
	VoltageMV  uint32
	CurrentMA  uint32
	Profile    uint8
	HasProfile bool

	LastUpdated time.Time
}

// statusCache holds the most recent decoded sensor values of a device.
// Apply is called only from the report delivery path; Snapshot and the
// other readers are called from facade callers. A single mutex guards
// the whole cache and every channel record is swapped in one piece, so
// a reader observes either a fully old or a fully new record.
type statusCache struct {
	mu       sync.Mutex
	now      func() time.Time
	validity time.Duration

	channels []ChannelStatus

	temp        int32
	tempUpdated time.Time

	firmware    coolproto.FirmwareVersion
	hasFirmware bool
	serial      string

	commanded    []uint8
	hasCommanded []bool
}

// newStatusCache backdates every timestamp by the validity window so a
// device that has not reported yet reads as no-data instead of zeros.
func newStatusCache(channels int, validity time.Duration, now func() time.Time) *statusCache {
	c := &statusCache{
		now:          now,
		validity:     validity,
		channels:     make([]ChannelStatus, channels),
		commanded:    make([]uint8, channels),
		hasCommanded: make([]bool, channels),
	}
	backdated := now().Add(-validity)
	for i := range c.channels {
		c.channels[i].LastUpdated = backdated
	}
	c.tempUpdated = backdated
	return c
}

// Apply merges a decoded update into the cache. Only fields the report
// actually carried are touched; each updated channel record is replaced
// wholesale under the lock.
func (c *statusCache) Apply(u coolproto.Update) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if u.HasTemp {
		c.temp = u.TempMilliC
		c.tempUpdated = now
	}
	if u.HasFirmware {
		c.firmware = u.Firmware
		c.hasFirmware = true
	}
	if u.Serial != "" {
		c.serial = u.Serial
	}
	for _, cu := range u.Channels {
		if cu.Channel < 0 || cu.Channel >= len(c.channels) {
			continue
		}
		rec := c.channels[cu.Channel]
		if cu.HasRPM {
			rec.RPM = cu.RPM
		}
		if cu.HasDuty {
			rec.Duty = cu.Duty
		}
		if cu.HasMode {
			rec.Mode = cu.Mode
		}
		if cu.HasVoltage {
			rec.VoltageMV = cu.VoltageMV
		}
		if cu.HasCurrent {
			rec.CurrentMA = cu.CurrentMA
		}
		if cu.HasProfile {
			rec.Profile = cu.Profile
			rec.HasProfile = true
		}
		rec.LastUpdated = now
		c.channels[cu.Channel] = rec
	}
}

// Snapshot copies out a channel record. A record whose age has reached
// the validity window is already stale.
func (c *statusCache) Snapshot(channel int) (ChannelStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if channel < 0 || channel >= len(c.channels) {
		return ChannelStatus{}, ErrUnknownChannel
	}
	rec := c.channels[channel]
	if c.now().Sub(rec.LastUpdated) >= c.validity {
		return ChannelStatus{}, ErrStale
	}
	return rec, nil
}

func (c *statusCache) Temperature() (int32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now().Sub(c.tempUpdated) >= c.validity {
		return 0, ErrStale
	}
	return c.temp, nil
}

// Firmware is not subject to the validity window: the version does not
// age.
func (c *statusCache) Firmware() (coolproto.FirmwareVersion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasFirmware {
		return coolproto.FirmwareVersion{}, ErrNoData
	}
	return c.firmware, nil
}

func (c *statusCache) Serial() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serial
}

// Mode returns the last detected control mode regardless of staleness;
// write policy checks consult it even when readings have aged out.
func (c *statusCache) Mode(channel int) coolproto.ControlMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if channel < 0 || channel >= len(c.channels) {
		return coolproto.ModeNone
	}
	return c.channels[channel].Mode
}

// SetCommanded records the duty value last commanded on a channel. Duty
// reads prefer it over the reported value, so a caller that writes a
// duty and reads it back sees what it asked for even before the device
// echoes it.
func (c *statusCache) SetCommanded(channel int, duty uint8) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if channel < 0 || channel >= len(c.commanded) {
		return
	}
	c.commanded[channel] = duty
	c.hasCommanded[channel] = true
}

func (c *statusCache) Commanded(channel int) (uint8, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if channel < 0 || channel >= len(c.commanded) {
		return 0, false
	}
	return c.commanded[channel], c.hasCommanded[channel]
}
