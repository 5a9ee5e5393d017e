package coolersvc

import (
	"context"
	"fmt"

	"github.com/liquidmon/liquidmon/coolproto"
)

// defaultDutyPercent is the safe duty seeded on every writable channel
// during initialization, so an un-driven device never free-runs at
// whatever the firmware picked.
const defaultDutyPercent = 40

// Smart Device V1 and Grid+ V3. The detect handshake makes the device
// start pushing per-channel status reports; duty writes are fire and
// forget.
type smartDeviceDriver struct {
	base
	codec coolproto.SmartDevice
}

func (d *smartDeviceDriver) HandleReport(raw []byte) {
	d.ops.handle(d.codec, raw)
}

func (d *smartDeviceDriver) Init(ctx context.Context) error {
	for _, cmd := range d.codec.InitCommands() {
		if err := d.ops.send(cmd); err != nil {
			return fmt.Errorf("fan detection: %w", err)
		}
	}
	duty := coolproto.PercentToDuty(defaultDutyPercent)
	for ch := range d.ops.spec.Channels {
		if err := d.WriteDuty(ctx, ch, duty); err != nil {
			return fmt.Errorf("seeding default duty on channel %d: %w", ch, err)
		}
	}
	return nil
}

func (d *smartDeviceDriver) WriteDuty(ctx context.Context, channel int, duty uint8) error {
	if err := d.ops.send(d.codec.DutyCommand(channel, duty)); err != nil {
		return err
	}
	d.ops.cache.SetCommanded(channel, duty)
	return nil
}
