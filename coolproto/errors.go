package coolproto

import "errors"

var (
	// ErrProtocol reports a structurally invalid frame from the device:
	// a bad ack header, nonzero padding or a checksum mismatch.
	ErrProtocol = errors.New("protocol violation")

	// ErrInvalidValue reports an out-of-range duty, mode, channel or a
	// malformed curve. Invalid values are rejected before anything is
	// sent to the device.
	ErrInvalidValue = errors.New("invalid value")

	// ErrUnsupported reports an operation the device model cannot perform.
	ErrUnsupported = errors.New("not supported")
)
