package coolersvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/liquidmon/liquidmon/coolproto"
	"go.uber.org/zap"
)

// Hydro Platinum and Elite RGB. Everything is polled: a status request
// returns the full sensor block, and every cooling change resends the
// complete target state. The driver mutex serializes frame building
// (the codec tracks the wire sequence number) and keeps the committed
// cooling state consistent with what was last acknowledged.
type hydroDriver struct {
	base
	codec *coolproto.HydroPlatinum

	mu      sync.Mutex
	cooling coolproto.HydroCoolingState
}

func newHydroDriver(o *ops) *hydroDriver {
	d := &hydroDriver{
		base:  base{o},
		codec: &coolproto.HydroPlatinum{FanCount: o.spec.FanCount},
		cooling: coolproto.HydroCoolingState{
			PumpMode: coolproto.HydroPumpModeBalanced,
		},
	}
	for i := 0; i < o.spec.FanCount; i++ {
		d.cooling.FanDuty[i] = 128
	}
	return d
}

func (d *hydroDriver) HandleReport(raw []byte) {
	d.ops.handle(d.codec, raw)
}

func (d *hydroDriver) Init(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.applyCooling(ctx, d.cooling); err != nil {
		return fmt.Errorf("committing cooling defaults: %w", err)
	}
	if err := d.refresh(ctx); err != nil {
		return err
	}
	return nil
}

func (d *hydroDriver) Refresh(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.refresh(ctx)
}

func (d *hydroDriver) refresh(ctx context.Context) error {
	u, err := d.ops.transact(ctx, d.codec.StatusRequest(), matchKind(coolproto.ReportAck))
	if err != nil {
		return fmt.Errorf("requesting status: %w", err)
	}
	st, err := d.codec.ParseStatus(u.Raw)
	if err != nil {
		// A garbled sensor block only costs this sample; the next
		// snapshot sees stale data.
		d.ops.log.Debug("discarding unparseable status response", zap.Error(err))
		return nil
	}
	d.ops.cache.Apply(st)
	return nil
}

// applyCooling transacts every frame of the target state. Callers hold
// d.mu.
func (d *hydroDriver) applyCooling(ctx context.Context, st coolproto.HydroCoolingState) error {
	for _, frame := range d.codec.CoolingCommands(st) {
		if _, err := d.ops.transact(ctx, frame, matchKind(coolproto.ReportAck)); err != nil {
			return err
		}
	}
	d.cooling = st
	return nil
}

func (d *hydroDriver) WriteDuty(ctx context.Context, channel int, duty uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.cooling
	if channel == 0 {
		st.PumpMode = coolproto.PumpModeFromPWM(duty)
	} else {
		st.FanDuty[channel-1] = duty
	}
	if err := d.applyCooling(ctx, st); err != nil {
		return err
	}
	d.ops.cache.SetCommanded(channel, duty)
	return nil
}

func (d *hydroDriver) WriteMode(ctx context.Context, channel int, mode uint8) error {
	if channel != 0 {
		return fmt.Errorf("%w: only the pump has operating modes", coolproto.ErrUnsupported)
	}
	if mode > coolproto.HydroPumpModeExtreme {
		return fmt.Errorf("%w: pump mode %d", coolproto.ErrInvalidValue, mode)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.cooling
	st.PumpMode = mode
	return d.applyCooling(ctx, st)
}
