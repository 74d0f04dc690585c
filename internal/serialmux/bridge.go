package serialmux

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"tailscale.com/tsweb"
)

var (
	// ErrWriteFailed reports a short write to the serial port.
	ErrWriteFailed = errors.New("failed to write to serial port")
	// ErrReadTimeout reports that no telemetry line arrived within the
	// configured read timeout.
	ErrReadTimeout = errors.New("timed out waiting for serial response")
	// ErrNotConnected reports an operation on a link that has no device
	// behind it. Operations on a disabled bridge fail explicitly rather
	// than silently doing nothing.
	ErrNotConnected = errors.New("serial link not connected")
)

// recentLineCap bounds the debug ring of recently received lines.
const recentLineCap = 32

// Link is the request/response surface the device layer consumes. Bridge
// and DisabledBridge both implement it.
type Link interface {
	// Send writes one command frame to the controller, terminated by a
	// carriage return.
	Send(frame string) error
	// Request writes one frame and blocks for the next telemetry line.
	Request(frame string) (string, error)
	// Close releases the underlying port.
	Close() error
}

// Bridge owns a serial port and speaks the controller's line protocol over
// it: frames go out CR-terminated, telemetry comes back as LF-terminated
// lines. Reads are blocking with a timeout; the bridge is owned by the one
// polling goroutine and is not safe for concurrent Request use. Send is
// internally locked so the admin routes can inject frames.
type Bridge struct {
	port    SerialPorter
	timeout time.Duration

	sendMu sync.Mutex

	buf  []byte
	tmp  [256]byte
	line []byte

	ringMu sync.Mutex
	recent []string
}

// NewBridge wraps an open port. Options are normalized; the read timeout
// falls back to DefaultReadTimeout. Ports that support it get the same
// timeout applied at the port level, so a low-level read can never block
// past the bridge deadline.
func NewBridge(port SerialPorter, opts PortOptions) (*Bridge, error) {
	normalized, err := opts.Normalize()
	if err != nil {
		return nil, err
	}
	if tp, ok := port.(TimeoutSerialPorter); ok {
		if err := tp.SetReadTimeout(normalized.ReadTimeout); err != nil {
			return nil, fmt.Errorf("setting port read timeout: %w", err)
		}
	}
	return &Bridge{port: port, timeout: normalized.ReadTimeout}, nil
}

// Send writes one frame followed by the carriage-return terminator.
func (b *Bridge) Send(frame string) error {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	msg := frame + "\r"
	n, err := b.port.Write([]byte(msg))
	if err != nil {
		return fmt.Errorf("write %q: %w", frame, err)
	}
	if n != len(msg) {
		return fmt.Errorf("write %q: %w", frame, ErrWriteFailed)
	}
	return nil
}

// ReadLine blocks until one LF-terminated line arrives, the port errors, or
// the read timeout elapses. The trailing CR/LF is trimmed.
func (b *Bridge) ReadLine() (string, error) {
	deadline := time.Now().Add(b.timeout)
	for {
		if i := bytes.IndexByte(b.buf, '\n'); i >= 0 {
			line := strings.TrimRight(string(b.buf[:i]), "\r")
			b.buf = b.buf[i+1:]
			b.remember(line)
			return line, nil
		}
		if time.Now().After(deadline) {
			return "", ErrReadTimeout
		}
		n, err := b.port.Read(b.tmp[:])
		if err != nil {
			return "", fmt.Errorf("read serial line: %w", err)
		}
		// A zero-length read is the port-level timeout tick; loop until
		// our own deadline decides.
		b.buf = append(b.buf, b.tmp[:n]...)
	}
}

// Request sends one frame and blocks for the response line.
func (b *Bridge) Request(frame string) (string, error) {
	if err := b.Send(frame); err != nil {
		return "", err
	}
	return b.ReadLine()
}

// WaitForReady blocks until the controller emits its boot banner line.
// Called once after opening the port, before any command is sent.
func (b *Bridge) WaitForReady() (string, error) {
	return b.ReadLine()
}

// Close closes the underlying port.
func (b *Bridge) Close() error {
	return b.port.Close()
}

func (b *Bridge) remember(line string) {
	b.ringMu.Lock()
	defer b.ringMu.Unlock()
	b.recent = append(b.recent, line)
	if len(b.recent) > recentLineCap {
		b.recent = b.recent[len(b.recent)-recentLineCap:]
	}
}

// RecentLines returns a copy of the most recently received telemetry lines,
// oldest first.
func (b *Bridge) RecentLines() []string {
	b.ringMu.Lock()
	defer b.ringMu.Unlock()
	out := make([]string, len(b.recent))
	copy(out, b.recent)
	return out
}

// AttachAdminRoutes attaches serial debugging endpoints under /debug/.
// These routes are accessible only over localhost/via Tailscale and are not
// publicly accessible.
func (b *Bridge) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	// API endpoint to write a raw frame to the serial port.
	debug.HandleSilentFunc("send-frame", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		frame := strings.TrimSpace(r.FormValue("frame"))
		if frame == "" {
			http.Error(w, "Missing frame", http.StatusBadRequest)
			return
		}
		if err := b.Send(frame); err != nil {
			http.Error(w, "Failed to write frame", http.StatusInternalServerError)
			return
		}
		io.WriteString(w, fmt.Sprintf("Wrote frame %q to serial port", frame))
	})

	// Dump of the recent telemetry ring for eyeballing the link.
	debug.HandleFunc("recent-lines", "recently received telemetry lines", func(w http.ResponseWriter, r *http.Request) {
		for _, line := range b.RecentLines() {
			fmt.Fprintln(w, line)
		}
	})
}
