package coolersvc

import "errors"

var (
	// ErrStale means the cached record exists but is older than the
	// device's validity window.
	ErrStale = errors.New("stale data")
	// ErrNoData is what stale or never-populated readings surface as to
	// facade callers.
	ErrNoData = errors.New("no data available")
	// ErrTimeout means an expected response never arrived.
	ErrTimeout = errors.New("timed out waiting for response")
	// ErrIO covers transport send failures, including short writes.
	ErrIO = errors.New("i/o error")
	// ErrClosed means the device has been removed or the engine shut down.
	ErrClosed = errors.New("device closed")
	// ErrNotReady means the engine has not completed initialization.
	ErrNotReady = errors.New("device not ready")
	// ErrInit wraps a failed initialization sequence. A device that fails
	// to initialize is not exposed.
	ErrInit = errors.New("initialization failed")
	// ErrUnknownChannel means the channel index is out of range for the
	// device.
	ErrUnknownChannel = errors.New("unknown channel")
)
