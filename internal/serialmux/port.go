// Package serialmux owns the serial link to the board controller. The link
// is a strict request/response channel with a single exclusive owner: the
// bridge writes one command frame at a time and blocks on the next telemetry
// line. The SerialPorter abstraction keeps everything above it testable
// without hardware.
package serialmux

import (
	"io"
	"time"
)

// SerialPorter is the minimal interface needed for a serial port.
// This abstraction enables unit testing without real serial hardware.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// TimeoutSerialPorter extends SerialPorter with timeout capabilities.
// Ports that implement it get their read timeout configured on open so a
// blocking read can never hang the poll loop forever.
type TimeoutSerialPorter interface {
	SerialPorter
	// SetReadTimeout sets the read timeout for the serial port.
	SetReadTimeout(timeout time.Duration) error
}
