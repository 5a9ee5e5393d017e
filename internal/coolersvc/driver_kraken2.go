package coolersvc

import "github.com/liquidmon/liquidmon/coolproto"

// Kraken gen 2 pushes a status report several times a second without
// any handshake and has no writable controls, so the driver is pure
// delivery.
type kraken2Driver struct {
	base
}

func (d *kraken2Driver) HandleReport(raw []byte) {
	d.ops.handle(coolproto.Kraken2{}, raw)
}
