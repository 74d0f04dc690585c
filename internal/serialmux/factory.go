package serialmux

import (
	"fmt"
	"log"

	"go.bug.st/serial"
)

// NewRealBridge opens the serial device at the given path, wraps it in a
// Bridge, and blocks for the controller's boot banner. Opening the port
// resets the controller, so nothing is sent until the banner arrives.
func NewRealBridge(path string, opts PortOptions) (*Bridge, error) {
	normalized, err := opts.Normalize()
	if err != nil {
		return nil, err
	}

	mode, err := normalized.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	// serial.Port implements TimeoutSerialPorter, so NewBridge bounds the
	// low-level reads with the normalized timeout.
	b, err := NewBridge(port, normalized)
	if err != nil {
		port.Close()
		return nil, err
	}

	banner, err := b.WaitForReady()
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("waiting for controller boot banner: %w", err)
	}
	log.Printf("controller ready: %s", banner)

	return b, nil
}
