package coolersvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/liquidmon/liquidmon/coolproto"
)

// SensorKind selects which reading of a channel a facade call targets.
type SensorKind uint8

const (
	SensorTemp SensorKind = iota
	SensorFan
	SensorPWM
	SensorCurrent
	SensorVoltage
)

func (k SensorKind) String() string {
	switch k {
	case SensorTemp:
		return "temp"
	case SensorFan:
		return "fan"
	case SensorPWM:
		return "pwm"
	case SensorCurrent:
		return "curr"
	case SensorVoltage:
		return "in"
	default:
		return "unknown"
	}
}

// View is the sensor and control facade of one engine. Reads come back
// in canonical units: millidegrees Celsius, RPM, milliamperes,
// millivolts and duty on the 0-255 scale. Stale readings surface as
// ErrNoData, never as old values.
type View struct {
	e *Engine
}

// Visible reports whether a sensor exists on this device, decided from
// the device spec alone.
func (v *View) Visible(kind SensorKind, channel int) bool {
	spec := v.e.spec
	switch kind {
	case SensorTemp:
		return channel == 0 && spec.HasCoolant
	case SensorFan:
		return channel >= 0 && channel < len(spec.Channels)
	case SensorPWM:
		return channel >= 0 && channel < len(spec.Channels) && spec.Channels[channel].Writable
	case SensorCurrent, SensorVoltage:
		switch spec.Family {
		case coolproto.FamilySmartDevice, coolproto.FamilyFanController, coolproto.FamilyUltmt:
			return channel >= 0 && channel < len(spec.Channels)
		}
		return false
	default:
		return false
	}
}

// Read returns one sensor value. On polled devices a stale cache
// triggers a refresh transaction within the call before giving up.
func (v *View) Read(ctx context.Context, kind SensorKind, channel int) (int64, error) {
	if !v.Visible(kind, channel) {
		return 0, fmt.Errorf("%w: %s sensor on channel %d", coolproto.ErrUnsupported, kind, channel)
	}
	val, err := v.read(kind, channel)
	if errors.Is(err, ErrStale) && v.e.spec.Polled {
		if rerr := v.e.drv.Refresh(ctx); rerr != nil {
			return 0, rerr
		}
		val, err = v.read(kind, channel)
	}
	if errors.Is(err, ErrStale) {
		return 0, fmt.Errorf("%w: %s on channel %d", ErrNoData, kind, channel)
	}
	return val, err
}

func (v *View) read(kind SensorKind, channel int) (int64, error) {
	cache := v.e.cache
	if kind == SensorTemp {
		t, err := cache.Temperature()
		return int64(t), err
	}
	if kind == SensorPWM {
		if duty, ok := cache.Commanded(channel); ok {
			return int64(duty), nil
		}
	}
	rec, err := cache.Snapshot(channel)
	if err != nil {
		return 0, err
	}
	switch kind {
	case SensorFan:
		return int64(rec.RPM), nil
	case SensorPWM:
		return int64(rec.Duty), nil
	case SensorCurrent:
		return int64(rec.CurrentMA), nil
	case SensorVoltage:
		return int64(rec.VoltageMV), nil
	default:
		return 0, fmt.Errorf("%w: %s", coolproto.ErrUnsupported, kind)
	}
}

// Mode returns the detected control mode of a channel.
func (v *View) Mode(channel int) coolproto.ControlMode {
	return v.e.cache.Mode(channel)
}

// Firmware returns the device firmware version, when the family reports
// one.
func (v *View) Firmware() (coolproto.FirmwareVersion, error) {
	return v.e.cache.Firmware()
}

// Serial returns the device serial number, when reported.
func (v *View) Serial() string {
	return v.e.cache.Serial()
}

func (v *View) checkWrite(channel int) error {
	switch v.e.State() {
	case StateClosed:
		return ErrClosed
	case StateReady:
	default:
		return ErrNotReady
	}
	spec := v.e.spec
	if channel < 0 || channel >= len(spec.Channels) {
		return fmt.Errorf("%w: %d", ErrUnknownChannel, channel)
	}
	if !spec.Channels[channel].Writable {
		return fmt.Errorf("%w: channel %s is not controllable", coolproto.ErrUnsupported, spec.Channels[channel].Name)
	}
	return nil
}

// WritePWM commands a duty value on the 0-255 scale. The engine
// rescales it to the device's native encoding.
func (v *View) WritePWM(ctx context.Context, channel int, value int) error {
	if err := v.checkWrite(channel); err != nil {
		return err
	}
	if value < 0 || value > 255 {
		return fmt.Errorf("%w: pwm %d out of range", coolproto.ErrInvalidValue, value)
	}
	return v.e.drv.WriteDuty(ctx, channel, uint8(value))
}

// WriteCurve validates and uploads a fan curve. Non-monotonic curves
// are rejected before anything reaches the wire.
func (v *View) WriteCurve(ctx context.Context, channel int, curve coolproto.Curve) error {
	if err := v.checkWrite(channel); err != nil {
		return err
	}
	if v.e.spec.CurvePoints == 0 {
		return fmt.Errorf("%w: fan curves", coolproto.ErrUnsupported)
	}
	if err := curve.Validate(v.e.spec.CurvePoints); err != nil {
		return err
	}
	return v.e.drv.WriteCurve(ctx, channel, curve)
}

// WriteMode selects a discrete operating mode or profile by id.
func (v *View) WriteMode(ctx context.Context, channel int, mode uint8) error {
	if err := v.checkWrite(channel); err != nil {
		return err
	}
	return v.e.drv.WriteMode(ctx, channel, mode)
}

// WritePWMEnable applies the family's pwm_enable policy. The devices
// here cannot switch control modes at runtime, so the write never
// reaches the wire; the policy only decides whether the caller sees an
// error.
func (v *View) WritePWMEnable(ctx context.Context, channel int, value uint8) error {
	if err := v.checkWrite(channel); err != nil {
		return err
	}
	switch v.e.options.policy {
	case PolicyAccept:
		return nil
	case PolicyMatch:
		current := uint8(0)
		if v.e.cache.Mode(channel) != coolproto.ModeNone {
			current = 1
		}
		if value != current {
			return fmt.Errorf("%w: pwm_enable is fixed at %d", coolproto.ErrUnsupported, current)
		}
		return nil
	default:
		return fmt.Errorf("%w: pwm_enable is read-only", coolproto.ErrUnsupported)
	}
}
