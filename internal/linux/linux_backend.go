package linux

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/liquidmon/liquidmon/internal/hidsvc"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sstallion/go-hid"
	"go.uber.org/zap"
)

var defaultBackendOptions = backendOptions{
	pollInterval: 1 * time.Second,
}

type backendOptions struct {
	pollInterval time.Duration
}

func WithPollInterval(d time.Duration) Option {
	return func(o *backendOptions) {
		o.pollInterval = d
	}
}

type Option func(*backendOptions)

// Backend implements the hidsvc.Backend interface for Linux. It uses
// hidapi to enumerate and open hidraw devices, polling periodically to
// detect hotplug.
type Backend struct {
	log     *zap.Logger
	options backendOptions

	hidDevices *xsync.MapOf[HidAddress, hid.DeviceInfo]

	ready chan struct{}

	publisher hidsvc.BackendPublisher
}

type HidAddress struct {
	VendorID  uint16
	ProductID uint16
	Interface int
}

func (a HidAddress) String() string {
	return fmt.Sprintf("%04x:%04x:%d", a.VendorID, a.ProductID, a.Interface)
}

func ParseHidAddress(s string) (HidAddress, error) {
	var addr HidAddress
	_, err := fmt.Sscanf(s, "%04x:%04x:%d", &addr.VendorID, &addr.ProductID, &addr.Interface)
	if err != nil {
		return HidAddress{}, err
	}
	return addr, nil
}

func NewBackend(log *zap.Logger, opts ...Option) *Backend {
	options := defaultBackendOptions
	for _, opt := range opts {
		opt(&options)
	}

	return &Backend{
		options:    options,
		log:        log,
		ready:      make(chan struct{}),
		hidDevices: xsync.NewMapOf[HidAddress, hid.DeviceInfo](),
	}
}

func (b *Backend) Ready() <-chan struct{} {
	return b.ready
}

func (b *Backend) Start(ctx context.Context, publisher hidsvc.BackendPublisher) error {
	hid.Init()

	b.publisher = publisher

	b.log.Info("Starting Linux HID backend")

	err := b.refreshHidDevices(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh HID devices: %w", err)
	}

	close(b.ready)
	b.log.Info("Linux HID backend started")

	pollTicker := time.NewTicker(b.options.pollInterval)
	defer pollTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pollTicker.C:
			err := b.refreshHidDevices(ctx)
			if err != nil {
				b.log.Error("failed to refresh HID devices", zap.Error(err))
				continue
			}
		}
	}
}

func (b *Backend) refreshHidDevices(ctx context.Context) error {
	newDevices, err := b.enumerateHidDevices()
	if err != nil {
		return err
	}
	var disconnected []string
	var connected []hidsvc.BackendDevice
	b.hidDevices.Range(func(addr HidAddress, dev hid.DeviceInfo) bool {
		if _, ok := newDevices[addr]; !ok {
			disconnected = append(disconnected, addr.String())
			b.hidDevices.Delete(addr)
			return true
		}
		delete(newDevices, addr)
		return true
	})

	for addr, device := range newDevices {
		b.hidDevices.Store(addr, device)
		connected = append(connected, hidsvc.BackendDevice{
			ID:        addr.String(),
			Name:      generateName(device),
			VendorID:  device.VendorID,
			ProductID: device.ProductID,
			Serial:    device.SerialNbr,
		})
	}

	if len(connected) > 0 || len(disconnected) > 0 {
		b.publisher(ctx, hidsvc.BackendEvent{
			DevicesChanged: &hidsvc.BackendEventDevicesChanged{
				Connected:    connected,
				Disconnected: disconnected,
			},
		})
	}

	return nil
}

func generateName(device hid.DeviceInfo) string {
	var parts []string
	if device.MfrStr != "" {
		parts = append(parts, device.MfrStr)
	}
	if device.ProductStr != "" {
		parts = append(parts, device.ProductStr)
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%04x:%04x", device.VendorID, device.ProductID)
	}
	return strings.Join(parts, " ")
}

func (b *Backend) enumerateHidDevices() (map[HidAddress]hid.DeviceInfo, error) {
	devices := make(map[HidAddress]hid.DeviceInfo)
	err := hid.Enumerate(hid.VendorIDAny, hid.ProductIDAny, func(device *hid.DeviceInfo) error {
		addr := HidAddress{
			VendorID:  device.VendorID,
			ProductID: device.ProductID,
			Interface: device.InterfaceNbr,
		}
		devices[addr] = *device
		return nil
	})
	if err != nil {
		return nil, err
	}
	return devices, nil
}

func (b *Backend) OpenDevice(id string) (hidsvc.Device, error) {
	addr, err := ParseHidAddress(id)
	if err != nil {
		return nil, err
	}
	dev, ok := b.hidDevices.Load(addr)
	if !ok {
		return nil, fmt.Errorf("device not found: %s", id)
	}
	hidDevHandle, err := hid.OpenPath(dev.Path)
	if err != nil {
		return nil, err
	}
	return &hidDeviceHandle{
		log: b.log,
		hid: hidDevHandle,
	}, nil
}

type hidDeviceHandle struct {
	log *zap.Logger
	hid *hid.Device
}

func (h *hidDeviceHandle) Read(buf []byte) (int, error) {
	return h.hid.Read(buf)
}

func (h *hidDeviceHandle) Write(buf []byte) (int, error) {
	return h.hid.Write(buf)
}

func (h *hidDeviceHandle) GetInputReport(reportID uint8) ([]byte, error) {
	buf := make([]byte, 4096)
	buf[0] = reportID
	n, err := h.hid.GetInputReport(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (h *hidDeviceHandle) SendFeatureReport(data []byte) (int, error) {
	return h.hid.SendFeatureReport(data)
}

func (h *hidDeviceHandle) Close() error {
	return h.hid.Close()
}
