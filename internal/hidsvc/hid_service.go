// Package hidsvc tracks HID devices exposed by one or more backends and
// hands out raw report handles to the cooler engine. Devices are
// remembered in a badger database so that a cooler keeps its identity
// across reconnects.
package hidsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/liquidmon/liquidmon/pkg/bus"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

type Service struct {
	log        *zap.Logger
	db         *badger.DB
	options    serviceOptions
	now        func() time.Time
	ready      chan struct{}
	backendBus *BackendBus

	deviceBus *DeviceBus
	connected *xsync.MapOf[Address, BackendDevice]
}

type (
	BackendBus       = bus.Bus[string, BackendEvent]
	BackendPublisher = bus.Publisher[BackendEvent]

	DeviceEventType uint8
	DeviceBusKey    struct {
		Type DeviceEventType
		Addr Address
	}
	DeviceBus        = bus.Bus[DeviceBusKey, DeviceEvent]
	DevicePublisher  = bus.Publisher[DeviceEvent]
	DeviceSubscriber = bus.Subscriber[DeviceBusKey, DeviceEvent]
	DeviceEvent      struct{}
)

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

var defaultOptions = serviceOptions{
	backends:       make(map[string]Backend),
	backoffTimeout: 5 * time.Second,
}

type serviceOptions struct {
	backends       map[string]Backend
	backoffTimeout time.Duration
}

type Option func(*serviceOptions)

func WithBackend(name string, backend Backend) Option {
	return func(o *serviceOptions) {
		o.backends[name] = backend
	}
}

func WithBackoffTimeout(d time.Duration) Option {
	return func(o *serviceOptions) {
		o.backoffTimeout = d
	}
}

func New(db *badger.DB, log *zap.Logger, now func() time.Time, opts ...Option) *Service {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		db:         db,
		log:        log,
		options:    options,
		now:        now,
		ready:      make(chan struct{}),
		backendBus: bus.NewBus[string, BackendEvent](log),

		deviceBus: bus.NewBus[DeviceBusKey, DeviceEvent](log),
		connected: xsync.NewMapOf[Address, BackendDevice](),
	}
}

func (s *Service) Start(ctx context.Context) error {
	err := s.backendBus.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start backend bus: %w", err)
	}
	select {
	case <-ctx.Done():
		return nil
	case <-s.backendBus.Ready():
	}

	err = s.deviceBus.Start(ctx)
	if err != nil {
		return fmt.Errorf("failed to start device bus: %w", err)
	}
	select {
	case <-ctx.Done():
		return nil
	case <-s.deviceBus.Ready():
	}

	s.consumeEvents(ctx)

	for backendID := range s.options.backends {
		go s.runBackend(ctx, backendID)
	}
	for _, backend := range s.options.backends {
		select {
		case <-ctx.Done():
			return nil
		case <-backend.Ready():
		}
	}
	close(s.ready)
	s.log.Info("Service started")
	<-ctx.Done()
	return nil
}

func (s *Service) consumeEvents(ctx context.Context) {
	go func() {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		ch := s.backendBus.Subscribe(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-ch:
				s.handleBackendEvent(ctx, msg.Key, msg.Message)
			}
		}
	}()
}

func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

func (s *Service) handleBackendEvent(ctx context.Context, backendID string, event BackendEvent) {
	if event.DevicesChanged == nil {
		return
	}
	s.log.Debug("devices changed", zap.String("backend", backendID))
	for _, id := range event.DevicesChanged.Disconnected {
		s.onDeviceDisconnected(ctx, backendID, id)
	}
	for _, dev := range event.DevicesChanged.Connected {
		s.onDeviceConnected(ctx, backendID, dev)
	}
}

// HidDevice is the persisted record of a device the service has seen.
type HidDevice struct {
	Address       Address       `json:"address"`
	BackendDevice BackendDevice `json:"backendDevice"`
	Name          string        `json:"name"`
	FirstSeenAt   time.Time     `json:"firstSeenAt"`
	LastSeenAt    time.Time     `json:"lastSeenAt"`
}

func (s *Service) onDeviceDisconnected(ctx context.Context, backendID, id string) {
	addr := Address{Backend: backendID, ID: id}
	s.connected.Delete(addr)
	s.log.Debug("device disconnected", zap.String("backend", backendID), zap.String("id", id))
	s.deviceBus.Publish(ctx, DeviceBusKey{
		Type: DeviceDisconnected,
		Addr: addr,
	}, DeviceEvent{})
}

func (s *Service) onDeviceConnected(ctx context.Context, backendID string, bdev BackendDevice) {
	dev, err := s.initializeDevice(backendID, bdev)
	if err != nil {
		s.log.Error("failed to initialize device", zap.Error(err))
		return
	}
	s.log.Debug("device connected",
		zap.String("backend", backendID),
		zap.String("id", dev.Address.ID),
		zap.String("name", dev.Name),
		zap.Time("firstSeenAt", dev.FirstSeenAt),
	)
	s.connected.Store(dev.Address, bdev)
	s.deviceBus.Publish(ctx, DeviceBusKey{
		Type: DeviceConnected,
		Addr: dev.Address,
	}, DeviceEvent{})
}

var ErrDeviceNotFound = errors.New("device not found")

func (s *Service) deviceKey(address Address) []byte {
	return []byte(fmt.Sprintf("hid/devices/%s/%s", address.Backend, address.ID))
}

func (s *Service) initializeDevice(backendID string, bdev BackendDevice) (HidDevice, error) {
	var dev HidDevice
	now := s.now()
	err := s.db.Update(func(txn *badger.Txn) error {
		addr := Address{Backend: backendID, ID: bdev.ID}
		key := s.deviceKey(addr)
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			dev = HidDevice{
				Name: bdev.Name,
			}
		case err != nil:
			return err
		default:
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &dev)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal device: %w", err)
			}
		}
		dev.Address = addr
		dev.BackendDevice = bdev
		if dev.FirstSeenAt.IsZero() {
			dev.FirstSeenAt = now
		}
		dev.LastSeenAt = now
		b, err := json.Marshal(dev)
		if err != nil {
			return fmt.Errorf("failed to marshal device: %w", err)
		}
		return txn.Set(key, b)
	})
	if err != nil {
		return HidDevice{}, fmt.Errorf("failed to fetch device: %w", err)
	}
	return dev, nil
}

func (s *Service) runBackend(ctx context.Context, backendID string) {
	backend := s.options.backends[backendID]
	for {
		err := backend.Start(ctx, s.backendBus.CreatePublisher(backendID))
		if err != nil {
			s.log.Error("failed to start the backend", zap.String("backend", backendID), zap.Error(err))
		}
		t := time.NewTimer(s.options.backoffTimeout)
		// retry after backoff
		select {
		case <-ctx.Done():
			if !t.Stop() {
				<-t.C
			}
			return
		case <-t.C:
		}
	}
}

type BackendEvent struct {
	DevicesChanged *BackendEventDevicesChanged
}

type BackendEventDevicesChanged struct {
	Connected    []BackendDevice
	Disconnected []string
}

type BackendDevice struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	VendorID  uint16 `json:"vendorId"`
	ProductID uint16 `json:"productId"`
	Serial    string `json:"serial,omitempty"`
}

type Backend interface {
	Start(ctx context.Context, pub BackendPublisher) error
	Ready() <-chan struct{}
	OpenDevice(id string) (Device, error)
}

type Address struct {
	Backend string `json:"backend"`
	ID      string `json:"id"`
}

func (a Address) String() string {
	return fmt.Sprintf("%s/%s", a.Backend, a.ID)
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	var addr struct {
		Backend string `json:"backend"`
		ID      string `json:"id"`
	}
	err := json.Unmarshal(data, &addr)
	if err == nil && addr.Backend != "" {
		*a = Address{Backend: addr.Backend, ID: addr.ID}
		return nil
	}
	var s string
	err = json.Unmarshal(data, &s)
	if err != nil {
		return err
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func ParseAddress(s string) (Address, error) {
	var addr Address
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return Address{}, fmt.Errorf("invalid address: %s", s)
	}
	addr.Backend = parts[0]
	addr.ID = strings.ReplaceAll(parts[1], ".", ":")
	return addr, nil
}

func (s *Service) ListDevices() ([]HidDevice, error) {
	var devices []HidDevice
	err := s.db.View(func(txn *badger.Txn) error {
		iter := txn.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()
		prefix := []byte("hid/devices/")
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			item := iter.Item()
			var dev HidDevice
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &dev)
			})
			if err != nil {
				return err
			}
			devices = append(devices, dev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

func (s *Service) GetDevice(addr Address) (HidDevice, error) {
	var dev HidDevice
	err := s.db.View(func(txn *badger.Txn) error {
		key := s.deviceKey(addr)
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &dev)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return HidDevice{}, ErrDeviceNotFound
	}
	if err != nil {
		return HidDevice{}, fmt.Errorf("failed to get device: %w", err)
	}
	return dev, nil
}

var ErrDeviceNotConnected = errors.New("device not connected")

func (s *Service) OpenDevice(addr Address) (Device, error) {
	backend, ok := s.options.backends[addr.Backend]
	if !ok {
		return nil, fmt.Errorf("%w: unknown backend %s", ErrDeviceNotFound, addr.Backend)
	}
	if _, connected := s.connected.Load(addr); !connected {
		return nil, ErrDeviceNotConnected
	}
	dev, err := backend.OpenDevice(addr.ID)
	if err != nil {
		return nil, fmt.Errorf("error opening device: %w", err)
	}
	return dev, nil
}

func (s *Service) IsConnected(addr Address) bool {
	_, ok := s.connected.Load(addr)
	return ok
}

// ConnectedDevice returns the live backend descriptor of a connected
// device, including its vendor and product identifiers.
func (s *Service) ConnectedDevice(addr Address) (BackendDevice, bool) {
	return s.connected.Load(addr)
}

// SubscribeEvents delivers connect and disconnect notifications. With no
// keys the subscription covers every device.
func (s *Service) SubscribeEvents(ctx context.Context, keys ...DeviceBusKey) <-chan bus.Message[DeviceBusKey, DeviceEvent] {
	return s.deviceBus.Subscribe(ctx, keys...)
}

// Device is a raw HID report channel. Read blocks until the device
// produces an interrupt report. Write sends an output report whose first
// byte is the report number.
type Device interface {
	io.ReadWriteCloser
	GetInputReport(reportID uint8) ([]byte, error)
	SendFeatureReport(data []byte) (int, error)
}
