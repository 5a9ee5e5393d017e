package coolersvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/liquidmon/liquidmon/coolproto"
)

// hanboCPUTempRefC is the CPU reference temperature fed to the firmware
// at init, so the built-in profiles have something to work with before
// the host supplies real values.
const hanboCPUTempRefC = 30

// Razer Hanbo. Status is polled per channel and control is selected by
// profile id or a 9-point curve upload; there is no direct fixed-duty
// command. The curve profile (id 4) replays the per-channel stored
// curve, which init preloads with the factory defaults so it can be
// activated without uploading points first.
type hanboDriver struct {
	base
	codec coolproto.Hanbo

	mu     sync.Mutex
	curves [2]coolproto.Curve
}

func (d *hanboDriver) HandleReport(raw []byte) {
	d.ops.handle(d.codec, raw)
}

func (d *hanboDriver) Init(ctx context.Context) error {
	if _, err := d.ops.transact(ctx, d.codec.FirmwareRequest(), matchKind(coolproto.ReportFirmware)); err != nil {
		return fmt.Errorf("querying firmware version: %w", err)
	}
	if _, err := d.ops.transact(ctx, d.codec.CPUTempCommand(hanboCPUTempRefC), matchKind(coolproto.ReportAck)); err != nil {
		return fmt.Errorf("setting cpu reference temperature: %w", err)
	}
	// Preloaded, not sent: uploading a curve switches the active
	// profile as a side effect.
	d.mu.Lock()
	d.curves[0] = append(coolproto.Curve(nil), coolproto.HanboDefaultPumpCurve...)
	d.curves[1] = append(coolproto.Curve(nil), coolproto.HanboDefaultFanCurve...)
	d.mu.Unlock()
	return nil
}

func (d *hanboDriver) Refresh(ctx context.Context) error {
	if _, err := d.ops.transact(ctx, d.codec.PumpStatusRequest(), matchChannelStatus(0)); err != nil {
		return fmt.Errorf("requesting pump status: %w", err)
	}
	if _, err := d.ops.transact(ctx, d.codec.FanStatusRequest(), matchChannelStatus(1)); err != nil {
		return fmt.Errorf("requesting fan status: %w", err)
	}
	return nil
}

func matchChannelStatus(channel int) func(coolproto.Update) bool {
	return func(u coolproto.Update) bool {
		return u.Kind == coolproto.ReportStatus && len(u.Channels) > 0 && u.Channels[0].Channel == channel
	}
}

func (d *hanboDriver) WriteCurve(ctx context.Context, channel int, curve coolproto.Curve) error {
	if err := d.sendCurve(ctx, channel, curve); err != nil {
		return err
	}
	d.mu.Lock()
	d.curves[channel] = append(coolproto.Curve(nil), curve...)
	d.mu.Unlock()
	return nil
}

// WriteMode selects a control profile. The curve profile is activated
// by re-sending the stored channel curve; the firmware has no separate
// select-curve command.
func (d *hanboDriver) WriteMode(ctx context.Context, channel int, mode uint8) error {
	if mode == coolproto.HanboProfileCurve {
		if channel < 0 || channel > 1 {
			return fmt.Errorf("%w: channel %d out of range", coolproto.ErrInvalidValue, channel)
		}
		d.mu.Lock()
		curve := d.curves[channel]
		d.mu.Unlock()
		if curve == nil {
			return fmt.Errorf("%w: no stored curve for channel %d", ErrNotReady, channel)
		}
		return d.sendCurve(ctx, channel, curve)
	}
	cmd, err := d.codec.ProfileCommand(channel, mode)
	if err != nil {
		return err
	}
	if _, err := d.ops.transact(ctx, cmd, matchKind(coolproto.ReportAck)); err != nil {
		return err
	}
	return nil
}

func (d *hanboDriver) sendCurve(ctx context.Context, channel int, curve coolproto.Curve) error {
	cmd, err := d.codec.CurveCommand(channel, curve)
	if err != nil {
		return err
	}
	if _, err := d.ops.transact(ctx, cmd, matchKind(coolproto.ReportAck)); err != nil {
		return err
	}
	return nil
}
