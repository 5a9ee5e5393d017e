package coolersvc

import (
	"context"
	"fmt"
	"time"

	"github.com/liquidmon/liquidmon/coolproto"
	"go.uber.org/zap"
)

// driver is the family-specific half of an engine: the initialization
// sequence, report handling and the write operations the family
// supports.
type driver interface {
	// Init runs the startup handshake. It must be idempotent: the engine
	// reruns it on resume.
	Init(ctx context.Context) error
	// HandleReport is the delivery path for raw inbound reports.
	HandleReport(raw []byte)
	// Refresh requests a fresh status sample on polled devices. Push
	// devices do nothing here.
	Refresh(ctx context.Context) error

	WriteDuty(ctx context.Context, channel int, duty uint8) error
	WriteCurve(ctx context.Context, channel int, curve coolproto.Curve) error
	WriteMode(ctx context.Context, channel int, mode uint8) error
}

// ops bundles the per-device plumbing every family driver works
// through.
type ops struct {
	log     *zap.Logger
	spec    coolproto.DeviceSpec
	cache   *statusCache
	tx      *commandChannel
	corr    *correlator
	timeout time.Duration
}

func (o *ops) send(cmd []byte) error {
	return o.tx.Send(cmd)
}

func (o *ops) transact(ctx context.Context, cmd []byte, match func(coolproto.Update) bool) (coolproto.Update, error) {
	return o.corr.Transact(ctx, func() error { return o.tx.Send(cmd) }, match, o.timeout)
}

type decoder interface {
	Decode(raw []byte) (coolproto.Update, error)
}

// handle runs the delivery path: decode, cache update, transaction
// completion. Malformed reports are logged and dropped; they only cost
// the next snapshot its freshness.
func (o *ops) handle(dec decoder, raw []byte) {
	u, err := dec.Decode(raw)
	if err != nil {
		o.log.Debug("discarding malformed report", zap.Error(err))
		return
	}
	if u.Kind == coolproto.ReportNone {
		return
	}
	o.cache.Apply(u)
	o.corr.Complete(u)
}

// base supplies the default behaviors for capabilities a family lacks.
type base struct {
	ops *ops
}

func (b base) Init(ctx context.Context) error    { return nil }
func (b base) Refresh(ctx context.Context) error { return nil }
func (b base) HandleReport(raw []byte)           {}

func (b base) WriteDuty(ctx context.Context, channel int, duty uint8) error {
	return fmt.Errorf("%w: duty control", coolproto.ErrUnsupported)
}

func (b base) WriteCurve(ctx context.Context, channel int, curve coolproto.Curve) error {
	return fmt.Errorf("%w: fan curves", coolproto.ErrUnsupported)
}

func (b base) WriteMode(ctx context.Context, channel int, mode uint8) error {
	return fmt.Errorf("%w: control modes", coolproto.ErrUnsupported)
}

func matchKind(kind coolproto.ReportKind) func(coolproto.Update) bool {
	return func(u coolproto.Update) bool {
		return u.Kind == kind
	}
}

func newDriver(o *ops) driver {
	switch o.spec.Family {
	case coolproto.FamilyKraken2:
		return &kraken2Driver{base{o}}
	case coolproto.FamilySmartDevice:
		return &smartDeviceDriver{base: base{o}}
	case coolproto.FamilyKraken3:
		return &kraken3Driver{base: base{o}, codec: coolproto.Kraken3{HasFan: o.spec.HasFan}}
	case coolproto.FamilyFanController:
		return &fanControllerDriver{base: base{o}}
	case coolproto.FamilyHydroPlatinum:
		return newHydroDriver(o)
	case coolproto.FamilyHanbo:
		return &hanboDriver{base: base{o}}
	case coolproto.FamilyUltmt:
		return &ultmtDriver{base: base{o}}
	default:
		return &base{o}
	}
}
