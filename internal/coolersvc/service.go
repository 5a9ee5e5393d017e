// Package coolersvc binds supported liquid coolers to protocol engines
// and exposes their sensors and controls.
package coolersvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/liquidmon/liquidmon/coolproto"
	"github.com/liquidmon/liquidmon/internal/configsvc"
	"github.com/liquidmon/liquidmon/internal/hidsvc"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Config is the watched coolers.yml: per-family policy overrides.
type Config struct {
	Families map[string]FamilyConfig `json:"families"`
}

type FamilyConfig struct {
	// PWMEnable overrides the family's pwm_enable write policy:
	// "reject", "accept" or "match".
	PWMEnable string `json:"pwmEnable,omitempty"`
	// ValidityMS overrides the staleness window, in milliseconds.
	ValidityMS int `json:"validityMs,omitempty"`
}

var defaultServiceOptions = serviceOptions{}

type serviceOptions struct {
	engineOpts []EngineOption
}

type ServiceOption func(*serviceOptions)

// WithEngineOptions appends options applied to every engine the service
// creates.
func WithEngineOptions(opts ...EngineOption) ServiceOption {
	return func(o *serviceOptions) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// Service watches the HID hotplug bus, binds an Engine to every
// supported device and persists device settings so they survive
// reconnects.
type Service struct {
	log        *zap.Logger
	db         *badger.DB
	hid        *hidsvc.Service
	config     *configsvc.Service
	configPath string
	options    serviceOptions

	engines *xsync.MapOf[hidsvc.Address, *Engine]
	ready   chan struct{}

	cfgMu sync.RWMutex
	cfg   Config
}

func New(log *zap.Logger, db *badger.DB, hid *hidsvc.Service, config *configsvc.Service, configPath string, opts ...ServiceOption) *Service {
	options := defaultServiceOptions
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		log:        log,
		db:         db,
		hid:        hid,
		config:     config,
		configPath: configPath,
		options:    options,
		engines:    xsync.NewMapOf[hidsvc.Address, *Engine](),
		ready:      make(chan struct{}),
	}
}

func (s *Service) Start(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-s.config.Ready():
	}
	cfg, err := configsvc.Register(s.config, s.configPath, Config{}, func(cfg Config, err error) {
		if err != nil {
			s.log.Error("failed to parse coolers config", zap.Error(err))
			return
		}
		s.setConfig(cfg)
	})
	if err != nil {
		return fmt.Errorf("failed to register coolers config: %w", err)
	}
	s.setConfig(cfg)

	select {
	case <-ctx.Done():
		return nil
	case <-s.hid.Ready():
	}

	events := s.hid.SubscribeEvents(ctx)

	// Devices that connected while hidsvc was starting were announced
	// before this subscription existed.
	devices, err := s.hid.ListDevices()
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}
	for _, dev := range devices {
		if s.hid.IsConnected(dev.Address) {
			s.bindDevice(ctx, dev.Address)
		}
	}

	close(s.ready)
	s.log.Info("Service started")

	for {
		select {
		case <-ctx.Done():
			return s.closeAll()
		case msg := <-events:
			switch msg.Key.Type {
			case hidsvc.DeviceConnected:
				s.bindDevice(ctx, msg.Key.Addr)
			case hidsvc.DeviceDisconnected:
				s.unbindDevice(msg.Key.Addr)
			}
		}
	}
}

func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// closeAll releases every bound engine on shutdown.
func (s *Service) closeAll() error {
	var err error
	s.engines.Range(func(addr hidsvc.Address, eng *Engine) bool {
		err = multierr.Append(err, eng.Close())
		s.engines.Delete(addr)
		return true
	})
	return err
}

func (s *Service) setConfig(cfg Config) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
}

// familyOptions translates configured overrides into engine options.
// Config changes apply to engines bound after the change.
func (s *Service) familyOptions(family coolproto.Family) []EngineOption {
	s.cfgMu.RLock()
	fc, ok := s.cfg.Families[family.String()]
	s.cfgMu.RUnlock()
	if !ok {
		return nil
	}
	var opts []EngineOption
	if fc.ValidityMS > 0 {
		opts = append(opts, WithValidity(time.Duration(fc.ValidityMS)*time.Millisecond))
	}
	switch PWMEnablePolicy(fc.PWMEnable) {
	case PolicyReject, PolicyAccept, PolicyMatch:
		opts = append(opts, WithPWMEnablePolicy(PWMEnablePolicy(fc.PWMEnable)))
	case "":
	default:
		s.log.Warn("ignoring unknown pwm_enable policy", zap.String("policy", fc.PWMEnable))
	}
	return opts
}

func (s *Service) bindDevice(ctx context.Context, addr hidsvc.Address) {
	bdev, ok := s.hid.ConnectedDevice(addr)
	if !ok {
		return
	}
	spec, ok := coolproto.LookupSpec(bdev.VendorID, bdev.ProductID)
	if !ok {
		return
	}
	if _, bound := s.engines.Load(addr); bound {
		return
	}
	dev, err := s.hid.OpenDevice(addr)
	if err != nil {
		s.log.Error("failed to open device", zap.String("addr", addr.String()), zap.Error(err))
		return
	}
	opts := append(s.familyOptions(spec.Family), s.options.engineOpts...)
	eng := NewEngine(s.log.Named(spec.Family.String()), dev, spec, opts...)
	s.engines.Store(addr, eng)
	s.log.Info("binding device",
		zap.String("addr", addr.String()),
		zap.String("model", spec.Name),
	)
	go func() {
		if err := eng.Start(ctx); err != nil {
			s.log.Error("device failed to initialize",
				zap.String("addr", addr.String()),
				zap.Error(err),
			)
			eng.Close()
			s.engines.Delete(addr)
			return
		}
		s.restoreSettings(ctx, addr, eng)
	}()
}

func (s *Service) unbindDevice(addr hidsvc.Address) {
	eng, ok := s.engines.LoadAndDelete(addr)
	if !ok {
		return
	}
	s.log.Info("unbinding device", zap.String("addr", addr.String()))
	eng.Close()
}

// Engine returns the engine bound to an address.
func (s *Service) Engine(addr hidsvc.Address) (*Engine, bool) {
	return s.engines.Load(addr)
}

// WaitEngine blocks until the device at addr is bound and finished
// initializing, or the context expires.
func (s *Service) WaitEngine(ctx context.Context, addr hidsvc.Address) (*Engine, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if eng, ok := s.engines.Load(addr); ok {
			select {
			case <-eng.Ready():
				return eng, nil
			default:
			}
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", hidsvc.ErrDeviceNotConnected, addr)
		case <-ticker.C:
		}
	}
}

// BoundDevice describes one bound cooler.
type BoundDevice struct {
	Address hidsvc.Address
	Spec    coolproto.DeviceSpec
	State   EngineState
}

func (s *Service) Devices() []BoundDevice {
	var out []BoundDevice
	s.engines.Range(func(addr hidsvc.Address, eng *Engine) bool {
		out = append(out, BoundDevice{
			Address: addr,
			Spec:    eng.Spec(),
			State:   eng.State(),
		})
		return true
	})
	return out
}

// deviceSettings is the persisted last-commanded state of one device.
type deviceSettings struct {
	Duty   map[int]uint8           `json:"duty,omitempty"`
	Mode   map[int]uint8           `json:"mode,omitempty"`
	Curves map[int]coolproto.Curve `json:"curves,omitempty"`
}

func settingsKey(addr hidsvc.Address) []byte {
	return []byte(fmt.Sprintf("cooler/settings/%s", addr))
}

func (s *Service) loadSettings(addr hidsvc.Address) (deviceSettings, error) {
	var settings deviceSettings
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(settingsKey(addr))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &settings)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return deviceSettings{}, nil
	}
	if err != nil {
		return deviceSettings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, nil
}

func (s *Service) mutateSettings(addr hidsvc.Address, fn func(*deviceSettings)) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var settings deviceSettings
		item, err := txn.Get(settingsKey(addr))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &settings)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal settings: %w", err)
			}
		}
		fn(&settings)
		b, err := json.Marshal(settings)
		if err != nil {
			return fmt.Errorf("failed to marshal settings: %w", err)
		}
		return txn.Set(settingsKey(addr), b)
	})
}

// restoreSettings replays the persisted user settings after a device
// completes initialization: curves first, then modes, then duty values.
func (s *Service) restoreSettings(ctx context.Context, addr hidsvc.Address, eng *Engine) {
	settings, err := s.loadSettings(addr)
	if err != nil {
		s.log.Error("failed to load settings", zap.String("addr", addr.String()), zap.Error(err))
		return
	}
	view := eng.View()
	for ch, curve := range settings.Curves {
		if err := view.WriteCurve(ctx, ch, curve); err != nil {
			s.log.Warn("failed to restore curve", zap.String("addr", addr.String()), zap.Int("channel", ch), zap.Error(err))
		}
	}
	for ch, mode := range settings.Mode {
		if err := view.WriteMode(ctx, ch, mode); err != nil {
			s.log.Warn("failed to restore mode", zap.String("addr", addr.String()), zap.Int("channel", ch), zap.Error(err))
		}
	}
	for ch, duty := range settings.Duty {
		if err := view.WritePWM(ctx, ch, int(duty)); err != nil {
			s.log.Warn("failed to restore duty", zap.String("addr", addr.String()), zap.Int("channel", ch), zap.Error(err))
		}
	}
}

// SetPWM writes a duty value and persists it for restore on reconnect.
func (s *Service) SetPWM(ctx context.Context, addr hidsvc.Address, channel, value int) error {
	eng, ok := s.engines.Load(addr)
	if !ok {
		return hidsvc.ErrDeviceNotConnected
	}
	if err := eng.View().WritePWM(ctx, channel, value); err != nil {
		return err
	}
	return s.mutateSettings(addr, func(settings *deviceSettings) {
		if settings.Duty == nil {
			settings.Duty = make(map[int]uint8)
		}
		settings.Duty[channel] = uint8(value)
	})
}

// SetCurve uploads a fan curve and persists it.
func (s *Service) SetCurve(ctx context.Context, addr hidsvc.Address, channel int, curve coolproto.Curve) error {
	eng, ok := s.engines.Load(addr)
	if !ok {
		return hidsvc.ErrDeviceNotConnected
	}
	if err := eng.View().WriteCurve(ctx, channel, curve); err != nil {
		return err
	}
	return s.mutateSettings(addr, func(settings *deviceSettings) {
		if settings.Curves == nil {
			settings.Curves = make(map[int]coolproto.Curve)
		}
		settings.Curves[channel] = curve
	})
}

// SetMode selects an operating mode or profile and persists it.
func (s *Service) SetMode(ctx context.Context, addr hidsvc.Address, channel int, mode uint8) error {
	eng, ok := s.engines.Load(addr)
	if !ok {
		return hidsvc.ErrDeviceNotConnected
	}
	if err := eng.View().WriteMode(ctx, channel, mode); err != nil {
		return err
	}
	return s.mutateSettings(addr, func(settings *deviceSettings) {
		if settings.Mode == nil {
			settings.Mode = make(map[int]uint8)
		}
		settings.Mode[channel] = mode
	})
}
