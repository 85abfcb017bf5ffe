package comfoair

import "errors"

// Domain errors for the ComfoAir serial package.
var (
	// ErrNotConnected is returned when an operation requires an open
	// serial session but the client is not connected.
	ErrNotConnected = errors.New("comfoair: not connected to unit")

	// ErrConnectionFailed is returned when opening the serial device fails.
	ErrConnectionFailed = errors.New("comfoair: connection failed")

	// ErrInvalidFrame is returned when a received frame is malformed
	// (bad framing bytes, broken escape sequence or oversized payload).
	ErrInvalidFrame = errors.New("comfoair: invalid frame")

	// ErrChecksumMismatch is returned when a frame's checksum does not
	// match its contents.
	ErrChecksumMismatch = errors.New("comfoair: checksum mismatch")

	// ErrUnknownSegment is returned when a display cell carries a
	// seven-segment pattern with no known character mapping.
	ErrUnknownSegment = errors.New("comfoair: unknown segment pattern")

	// ErrInvalidLevel is returned when a ventilation level outside 1..4
	// is requested.
	ErrInvalidLevel = errors.New("comfoair: invalid ventilation level")

	// ErrWriteFailed is returned when writing a frame to the unit fails.
	ErrWriteFailed = errors.New("comfoair: frame write failed")
)
