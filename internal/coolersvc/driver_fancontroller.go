package coolersvc

import (
	"context"
	"fmt"

	"github.com/liquidmon/liquidmon/coolproto"
)

const fanControllerIntervalSteps = 2

// NZXT RGB & Fan Controller. RGB traffic shares the interface but is
// not ours; its reports fall through decoding as no-ops. Duty writes
// are rejected on channels where fan detection saw nothing, so a
// command can never target a header the firmware will not drive.
type fanControllerDriver struct {
	base
	codec coolproto.FanController
}

func (d *fanControllerDriver) HandleReport(raw []byte) {
	d.ops.handle(d.codec, raw)
}

// Init kicks off fan detection and waits for the first status report
// before setting the real update interval. A device that stays silent
// after detection fails the whole binding; this also guarantees duty
// writes never race an unfinished detection.
func (d *fanControllerDriver) Init(ctx context.Context) error {
	_, err := d.ops.transact(ctx, d.codec.DetectCommand(), matchKind(coolproto.ReportStatus))
	if err != nil {
		return fmt.Errorf("fan detection: %w", err)
	}
	if err := d.ops.send(d.codec.IntervalCommand(fanControllerIntervalSteps)); err != nil {
		return fmt.Errorf("setting update interval: %w", err)
	}
	return nil
}

func (d *fanControllerDriver) WriteDuty(ctx context.Context, channel int, duty uint8) error {
	if d.ops.cache.Mode(channel) == coolproto.ModeNone {
		return fmt.Errorf("%w: no fan detected on channel %d", coolproto.ErrUnsupported, channel)
	}
	if err := d.ops.send(d.codec.DutyCommand(channel, duty)); err != nil {
		return err
	}
	d.ops.cache.SetCommanded(channel, duty)
	return nil
}
