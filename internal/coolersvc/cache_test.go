package coolersvc

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/liquidmon/liquidmon/coolproto"
)

// fakeClock is a manually advanced time source for cache tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func statusUpdate(channel int, rpm uint16, duty uint8) coolproto.Update {
	return coolproto.Update{
		Kind: coolproto.ReportStatus,
		Channels: []coolproto.ChannelUpdate{{
			Channel: channel,
			RPM:     rpm,
			HasRPM:  true,
			Duty:    duty,
			HasDuty: true,
		}},
	}
}

func TestCacheBackdatedAtConstruction(t *testing.T) {
	clock := newFakeClock()
	c := newStatusCache(2, 2*time.Second, clock.Now)
	if _, err := c.Snapshot(0); !errors.Is(err, ErrStale) {
		t.Errorf("Snapshot() on fresh cache = %v, want ErrStale", err)
	}
	if _, err := c.Temperature(); !errors.Is(err, ErrStale) {
		t.Errorf("Temperature() on fresh cache = %v, want ErrStale", err)
	}
}

func TestCacheStalenessBoundary(t *testing.T) {
	const validity = 2 * time.Second
	tests := []struct {
		name  string
		age   time.Duration
		stale bool
	}{
		{"immediately", 0, false},
		{"one nanosecond before the window", validity - time.Nanosecond, false},
		{"exactly at the window", validity, true},
		{"one nanosecond past the window", validity + time.Nanosecond, true},
		{"well past the window", 10 * validity, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			c := newStatusCache(1, validity, clock.Now)
			c.Apply(statusUpdate(0, 1200, 128))
			clock.Advance(tt.age)
			_, err := c.Snapshot(0)
			if tt.stale && !errors.Is(err, ErrStale) {
				t.Errorf("Snapshot() = %v, want ErrStale", err)
			}
			if !tt.stale && err != nil {
				t.Errorf("Snapshot() = %v, want fresh record", err)
			}
		})
	}
}

func TestCacheApply(t *testing.T) {
	clock := newFakeClock()
	c := newStatusCache(3, time.Minute, clock.Now)
	c.Apply(coolproto.Update{
		Kind:       coolproto.ReportStatus,
		TempMilliC: 31500,
		HasTemp:    true,
		Channels: []coolproto.ChannelUpdate{{
			Channel:    1,
			RPM:        900,
			HasRPM:     true,
			Mode:       coolproto.ModeDC,
			HasMode:    true,
			VoltageMV:  11900,
			HasVoltage: true,
		}},
	})
	// A later report carrying only the rpm must not clear the rest.
	c.Apply(statusUpdate(1, 950, 0))

	rec, err := c.Snapshot(1)
	if err != nil {
		t.Fatalf("Snapshot() = %v", err)
	}
	if rec.RPM != 950 || rec.Mode != coolproto.ModeDC || rec.VoltageMV != 11900 {
		t.Errorf("record = %+v, want merged fields", rec)
	}
	temp, err := c.Temperature()
	if err != nil || temp != 31500 {
		t.Errorf("Temperature() = %d, %v, want 31500", temp, err)
	}
}

func TestCacheApplyIgnoresUnknownChannel(t *testing.T) {
	clock := newFakeClock()
	c := newStatusCache(1, time.Minute, clock.Now)
	c.Apply(statusUpdate(5, 1200, 128))
	if _, err := c.Snapshot(0); !errors.Is(err, ErrStale) {
		t.Errorf("Snapshot(0) = %v, want ErrStale", err)
	}
	if _, err := c.Snapshot(5); !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("Snapshot(5) = %v, want ErrUnknownChannel", err)
	}
}

func TestCacheCommandedDuty(t *testing.T) {
	clock := newFakeClock()
	c := newStatusCache(2, time.Minute, clock.Now)
	if _, ok := c.Commanded(0); ok {
		t.Error("Commanded() reported a value before any write")
	}
	c.SetCommanded(0, 102)
	duty, ok := c.Commanded(0)
	if !ok || duty != 102 {
		t.Errorf("Commanded() = %d, %v, want 102", duty, ok)
	}
	if _, ok := c.Commanded(1); ok {
		t.Error("commanded duty leaked to another channel")
	}
}

func TestCacheFirmware(t *testing.T) {
	clock := newFakeClock()
	c := newStatusCache(1, time.Second, clock.Now)
	if _, err := c.Firmware(); !errors.Is(err, ErrNoData) {
		t.Errorf("Firmware() = %v, want ErrNoData", err)
	}
	c.Apply(coolproto.Update{
		Kind:        coolproto.ReportFirmware,
		Firmware:    coolproto.FirmwareVersion{Major: 7, Minor: 7},
		HasFirmware: true,
	})
	clock.Advance(time.Hour)
	// The version does not age out with the sensor block.
	fw, err := c.Firmware()
	if err != nil || fw.String() != "7.7.0" {
		t.Errorf("Firmware() = %s, %v, want 7.7.0", fw, err)
	}
}

// TestCacheNoTornReads hammers the cache with a writer that keeps two
// fields in a fixed relation while readers snapshot concurrently. Any
// record observed with the relation broken is a torn read.
func TestCacheNoTornReads(t *testing.T) {
	const iterations = 10000
	c := newStatusCache(1, time.Hour, time.Now)

	var wg sync.WaitGroup
	done := make(chan struct{})
	torn := make(chan string, 1)

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				rec, err := c.Snapshot(0)
				if err != nil {
					continue
				}
				if rec.VoltageMV != uint32(rec.RPM)*2 {
					select {
					case torn <- "voltage does not match rpm":
					default:
					}
					return
				}
			}
		}()
	}

	for i := 1; i <= iterations; i++ {
		rpm := uint16(i)
		c.Apply(coolproto.Update{
			Kind: coolproto.ReportStatus,
			Channels: []coolproto.ChannelUpdate{{
				Channel:    0,
				RPM:        rpm,
				HasRPM:     true,
				VoltageMV:  uint32(rpm) * 2,
				HasVoltage: true,
			}},
		})
	}
	close(done)
	wg.Wait()

	select {
	case msg := <-torn:
		t.Fatal(msg)
	default:
	}
}
