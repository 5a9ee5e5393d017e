// Package simsvc emulates an NZXT Kraken gen 2 cooler on the kernel
// uhid interface. The emulated device shows up as a regular hidraw
// node, so the rest of the stack discovers and binds it exactly like
// real hardware. Useful for development boxes without a cooler.
package simsvc

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/psanford/uhid"
	"go.uber.org/zap"
)

const (
	simVendorID  = 0x1e71
	simProductID = 0x170e
)

// reportDescriptor declares a vendor-defined collection with 64-byte
// input and output reports, matching what the real coolers expose.
var reportDescriptor = []byte{
	0x06, 0x00, 0xff, // Usage Page (Vendor Defined)
	0x09, 0x01, // Usage (0x01)
	0xa1, 0x01, // Collection (Application)
	0x09, 0x01, //   Usage (0x01)
	0x15, 0x00, //   Logical Minimum (0)
	0x26, 0xff, 0x00, //   Logical Maximum (255)
	0x75, 0x08, //   Report Size (8)
	0x95, 0x40, //   Report Count (64)
	0x81, 0x02, //   Input (Data, Variable, Absolute)
	0x09, 0x01, //   Usage (0x01)
	0x91, 0x02, //   Output (Data, Variable, Absolute)
	0xc0, // End Collection
}

var defaultOptions = options{
	interval: time.Second,
}

type options struct {
	interval time.Duration
}

type Option func(*options)

// WithInterval sets how often a status report is emitted.
func WithInterval(interval time.Duration) Option {
	return func(o *options) {
		o.interval = interval
	}
}

// Service owns one emulated cooler and feeds it status reports.
type Service struct {
	log     *zap.Logger
	options options
	ready   chan struct{}

	tempDeciC int
	fanRPM    int
	pumpRPM   int
}

func New(log *zap.Logger, opts ...Option) *Service {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		log:     log,
		options: options,
		ready:   make(chan struct{}),

		tempDeciC: 305,
		fanRPM:    900,
		pumpRPM:   2100,
	}
}

// Start creates the uhid device and emits status reports until the
// context is cancelled. Requires access to /dev/uhid.
func (s *Service) Start(ctx context.Context) error {
	dev, err := uhid.NewDevice("liquidmon-sim", reportDescriptor)
	if err != nil {
		return fmt.Errorf("failed to create uhid device: %w", err)
	}
	dev.Data.Bus = 0x03
	dev.Data.VendorID = simVendorID
	dev.Data.ProductID = simProductID

	events, err := dev.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open uhid device: %w", err)
	}
	defer dev.Close()

	s.log.Info("Simulated cooler started",
		zap.String("vendorId", fmt.Sprintf("%04x", simVendorID)),
		zap.String("productId", fmt.Sprintf("%04x", simProductID)),
	)
	close(s.ready)

	ticker := time.NewTicker(s.options.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			// The emulated model has no writable controls. Output
			// reports are drained so the kernel queue never fills.
			_ = event
		case <-ticker.C:
			if err := dev.InjectEvent(s.statusReport()); err != nil {
				return fmt.Errorf("failed to inject status report: %w", err)
			}
		}
	}
}

func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// statusReport advances the sensor random walk one step and encodes it
// as the 0x04 status report the real device sends.
func (s *Service) statusReport() []byte {
	s.tempDeciC = walk(s.tempDeciC, 3, 280, 420)
	s.fanRPM = walk(s.fanRPM, 25, 600, 1500)
	s.pumpRPM = walk(s.pumpRPM, 40, 1800, 2800)

	raw := make([]byte, 17)
	raw[0] = 0x04
	raw[1] = byte(s.tempDeciC / 10)
	raw[2] = byte(s.tempDeciC % 10)
	raw[3] = byte(s.fanRPM >> 8)
	raw[4] = byte(s.fanRPM)
	raw[5] = byte(s.pumpRPM >> 8)
	raw[6] = byte(s.pumpRPM)
	return raw
}

func walk(val, step, min, max int) int {
	val += rand.Intn(2*step+1) - step
	if val < min {
		val = min
	}
	if val > max {
		val = max
	}
	return val
}
