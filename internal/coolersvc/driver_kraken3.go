package coolersvc

import (
	"context"
	"fmt"

	"github.com/liquidmon/liquidmon/coolproto"
)

const kraken3IntervalSeconds = 1

// Kraken gen 3. X-series models push status once initialized; Z-series
// models answer status requests only, so their refresh goes through the
// correlator. Fixed duty is set by uploading a flat curve.
type kraken3Driver struct {
	base
	codec coolproto.Kraken3
}

func (d *kraken3Driver) HandleReport(raw []byte) {
	d.ops.handle(d.codec, raw)
}

func (d *kraken3Driver) Init(ctx context.Context) error {
	if err := d.ops.send(d.codec.SetIntervalCommand(kraken3IntervalSeconds)); err != nil {
		return fmt.Errorf("setting report interval: %w", err)
	}
	if err := d.ops.send(d.codec.FinishInitCommand()); err != nil {
		return fmt.Errorf("finishing handshake: %w", err)
	}
	if _, err := d.ops.transact(ctx, d.codec.FirmwareRequest(), matchKind(coolproto.ReportFirmware)); err != nil {
		return fmt.Errorf("querying firmware version: %w", err)
	}
	return nil
}

func (d *kraken3Driver) Refresh(ctx context.Context) error {
	if !d.ops.spec.Polled {
		return nil
	}
	_, err := d.ops.transact(ctx, d.codec.StatusRequest(), matchKind(coolproto.ReportStatus))
	if err != nil {
		return fmt.Errorf("requesting status: %w", err)
	}
	return nil
}

func (d *kraken3Driver) WriteDuty(ctx context.Context, channel int, duty uint8) error {
	percent, err := d.codec.PercentFromPWM(int(duty))
	if err != nil {
		return err
	}
	curve := coolproto.FlatCurve(coolproto.Kraken3CurvePoints, percent)
	cmd, err := d.codec.CurveCommand(channel, curve)
	if err != nil {
		return err
	}
	if err := d.ops.send(cmd); err != nil {
		return err
	}
	d.ops.cache.SetCommanded(channel, duty)
	return nil
}

func (d *kraken3Driver) WriteCurve(ctx context.Context, channel int, curve coolproto.Curve) error {
	cmd, err := d.codec.CurveCommand(channel, curve)
	if err != nil {
		return err
	}
	return d.ops.send(cmd)
}
