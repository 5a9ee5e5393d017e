package coolersvc

import (
	"context"
	"sync"
	"time"

	"github.com/liquidmon/liquidmon/coolproto"
)

// correlator pairs an outbound request with the matching inbound report.
// At most one transaction is in flight per device: the transaction mutex
// is held for the whole round trip, so concurrent callers queue. The
// wait token is a fresh buffered channel armed before the send; a
// response that arrives after a timeout lands on the abandoned channel
// of the old transaction and can never complete a new one.
type correlator struct {
	txMu sync.Mutex

	tokenMu sync.Mutex
	waitCh  chan coolproto.Update
	match   func(coolproto.Update) bool

	closed    chan struct{}
	closeOnce sync.Once
}

func newCorrelator() *correlator {
	return &correlator{closed: make(chan struct{})}
}

func (c *correlator) Transact(ctx context.Context, send func() error, match func(coolproto.Update) bool, timeout time.Duration) (coolproto.Update, error) {
	c.txMu.Lock()
	defer c.txMu.Unlock()

	select {
	case <-c.closed:
		return coolproto.Update{}, ErrClosed
	default:
	}

	ch := make(chan coolproto.Update, 1)
	c.tokenMu.Lock()
	c.waitCh = ch
	c.match = match
	c.tokenMu.Unlock()
	defer func() {
		c.tokenMu.Lock()
		c.waitCh = nil
		c.match = nil
		c.tokenMu.Unlock()
	}()

	if err := send(); err != nil {
		return coolproto.Update{}, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return coolproto.Update{}, ctx.Err()
	case <-c.closed:
		return coolproto.Update{}, ErrClosed
	case <-timer.C:
		return coolproto.Update{}, ErrTimeout
	case u := <-ch:
		return u, nil
	}
}

// Complete hands a decoded report to the waiting transaction, if any.
// Called from the report delivery path; the buffered channel keeps it
// from ever blocking.
func (c *correlator) Complete(u coolproto.Update) bool {
	c.tokenMu.Lock()
	ch := c.waitCh
	if ch != nil && c.match != nil && !c.match(u) {
		ch = nil
	}
	if ch != nil {
		c.waitCh = nil
		c.match = nil
	}
	c.tokenMu.Unlock()
	if ch == nil {
		return false
	}
	select {
	case ch <- u:
	default:
	}
	return true
}

// Close releases any waiter with ErrClosed. Safe to call more than once.
func (c *correlator) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}
