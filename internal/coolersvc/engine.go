package coolersvc

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/liquidmon/liquidmon/coolproto"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// EngineState is the lifecycle of one bound device.
type EngineState int32

const (
	StateUnconfigured EngineState = iota
	StateInitializing
	StateReady
	StateClosed
)

func (s EngineState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unconfigured"
	}
}

// Transport is the raw report channel an engine drives. hidsvc.Device
// satisfies it.
type Transport interface {
	io.ReadWriteCloser
}

// PWMEnablePolicy decides how pwm_enable writes behave for a family.
// Fan-control daemons expect every write to succeed, which conflicts
// with rejecting writes a device cannot honor; the choice is explicit
// per family and overridable from configuration.
type PWMEnablePolicy string

const (
	// PolicyReject refuses the write.
	PolicyReject PWMEnablePolicy = "reject"
	// PolicyAccept accepts and ignores the write.
	PolicyAccept PWMEnablePolicy = "accept"
	// PolicyMatch accepts the write only when it matches the detected
	// state.
	PolicyMatch PWMEnablePolicy = "match"
)

func defaultPWMEnablePolicy(family coolproto.Family) PWMEnablePolicy {
	switch family {
	case coolproto.FamilySmartDevice:
		return PolicyAccept
	case coolproto.FamilyFanController:
		return PolicyMatch
	default:
		return PolicyReject
	}
}

var defaultEngineOptions = engineOptions{
	now:     time.Now,
	timeout: time.Second,
}

type engineOptions struct {
	skipInit bool
	now      func() time.Time
	timeout  time.Duration
	validity time.Duration
	policy   PWMEnablePolicy
}

type EngineOption func(*engineOptions)

// WithSkipInit skips the initialization sequence and exposes the device
// immediately. Debug aid; replaces what would otherwise be a
// process-wide flag.
func WithSkipInit() EngineOption {
	return func(o *engineOptions) {
		o.skipInit = true
	}
}

func WithNowFunc(now func() time.Time) EngineOption {
	return func(o *engineOptions) {
		o.now = now
	}
}

func WithTransactionTimeout(d time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.timeout = d
	}
}

// WithValidity overrides the family's staleness window.
func WithValidity(d time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.validity = d
	}
}

func WithPWMEnablePolicy(p PWMEnablePolicy) EngineOption {
	return func(o *engineOptions) {
		o.policy = p
	}
}

// Engine runs the protocol state machine of one device: the read loop
// feeding the delivery path, the initialization sequencer and the
// write operations, all over a shared status cache.
type Engine struct {
	log     *zap.Logger
	spec    coolproto.DeviceSpec
	dev     Transport
	options engineOptions

	cache *statusCache
	tx    *commandChannel
	corr  *correlator
	drv   driver

	state     *atomic.Int32
	ready     chan struct{}
	readyOnce sync.Once
	closeOnce sync.Once
	closeErr  error
}

func NewEngine(log *zap.Logger, dev Transport, spec coolproto.DeviceSpec, opts ...EngineOption) *Engine {
	options := defaultEngineOptions
	options.validity = spec.Validity
	options.policy = defaultPWMEnablePolicy(spec.Family)
	for _, opt := range opts {
		opt(&options)
	}

	cache := newStatusCache(len(spec.Channels), options.validity, options.now)
	tx := newCommandChannel(dev, spec.WriteSize)
	corr := newCorrelator()
	o := &ops{
		log:     log,
		spec:    spec,
		cache:   cache,
		tx:      tx,
		corr:    corr,
		timeout: options.timeout,
	}
	return &Engine{
		log:     log,
		spec:    spec,
		dev:     dev,
		options: options,
		cache:   cache,
		tx:      tx,
		corr:    corr,
		drv:     newDriver(o),
		state:   atomic.NewInt32(int32(StateUnconfigured)),
		ready:   make(chan struct{}),
	}
}

// Start launches the read loop and runs the initialization sequence.
// An initialization failure fails the whole binding; a half-initialized
// device is never exposed.
func (e *Engine) Start(ctx context.Context) error {
	go e.readLoop(ctx)
	if e.options.skipInit {
		e.state.Store(int32(StateReady))
		e.readyOnce.Do(func() { close(e.ready) })
		return nil
	}
	if err := e.initialize(ctx); err != nil {
		return err
	}
	e.readyOnce.Do(func() { close(e.ready) })
	return nil
}

// Reinit reruns the initialization sequence. Devices reset to power-on
// defaults across suspend, so the service calls this on resume; the
// sequence is idempotent and may run any number of times.
func (e *Engine) Reinit(ctx context.Context) error {
	if EngineState(e.state.Load()) == StateClosed {
		return ErrClosed
	}
	return e.initialize(ctx)
}

func (e *Engine) initialize(ctx context.Context) error {
	e.state.Store(int32(StateInitializing))
	if err := e.drv.Init(ctx); err != nil {
		e.state.Store(int32(StateUnconfigured))
		return fmt.Errorf("%w: %v", ErrInit, err)
	}
	e.state.Store(int32(StateReady))
	return nil
}

func (e *Engine) readLoop(ctx context.Context) {
	// Sized for the largest input report any family produces.
	buf := make([]byte, coolproto.UltmtReportSize)
	for {
		n, err := e.dev.Read(buf)
		if err != nil {
			if ctx.Err() == nil && EngineState(e.state.Load()) != StateClosed {
				e.log.Debug("read loop ended", zap.Error(err))
			}
			e.Close()
			return
		}
		raw := make([]byte, n)
		copy(raw, buf[:n])
		e.drv.HandleReport(raw)
	}
}

// Close tears the engine down and releases any transaction waiter.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.state.Store(int32(StateClosed))
		e.corr.Close()
		e.closeErr = e.dev.Close()
	})
	return e.closeErr
}

func (e *Engine) State() EngineState {
	return EngineState(e.state.Load())
}

// Ready is closed once the device has completed its first
// initialization.
func (e *Engine) Ready() <-chan struct{} {
	return e.ready
}

func (e *Engine) Spec() coolproto.DeviceSpec {
	return e.spec
}

func (e *Engine) View() *View {
	return &View{e: e}
}
