package wire

import "errors"

// Validation errors are raised before any byte is formatted. A command that
// fails validation never reaches the serial link.
var (
	ErrInvalidPort          = errors.New("invalid port")
	ErrInvalidValue         = errors.New("invalid value")
	ErrInvalidMode          = errors.New("invalid mode")
	ErrInvalidSpeed         = errors.New("invalid speed")
	ErrUnsupportedSpeedPort = errors.New("speed is only settable on motor and stepper ports")

	// ErrMalformedResponse reports a telemetry line that does not decode.
	// It must propagate to the caller; a malformed line is never read as a
	// zero value.
	ErrMalformedResponse = errors.New("malformed response")
)
