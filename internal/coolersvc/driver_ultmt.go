package coolersvc

import "github.com/liquidmon/liquidmon/coolproto"

// Aqua Computer aquastream ULTIMATE. Monitoring only: the device
// pushes status on its own and accepts no commands, so everything
// besides report delivery keeps the unsupported defaults.
type ultmtDriver struct {
	base
	codec coolproto.Ultmt
}

func (d *ultmtDriver) HandleReport(raw []byte) {
	d.ops.handle(d.codec, raw)
}
