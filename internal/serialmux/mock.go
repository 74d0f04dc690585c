package serialmux

import (
	"bytes"
	"io"
	"strings"
	"sync"
)

// ScriptedPort implements SerialPorter with scripted request/response
// behaviour for testing. Frames written to the port are recorded; read
// requests are answered from a canned line queue or, when Respond is set,
// from the responder function. Reads drain the queued lines and then return
// io.EOF, so a test that forgets to script a response fails fast instead of
// hanging.
type ScriptedPort struct {
	mu sync.Mutex

	// Respond, when set, is consulted for every written frame. Returning
	// ok queues the line as the next telemetry read.
	Respond func(frame string) (line string, ok bool)

	// WriteError is returned by the next Write call if set.
	WriteError error

	// ReadError is returned by the next Read call if set.
	ReadError error

	queue  []string
	reads  bytes.Buffer
	frames []string
	closed bool
}

// NewScriptedPort creates a port whose read-request responses are served
// from the given lines in order.
func NewScriptedPort(lines ...string) *ScriptedPort {
	return &ScriptedPort{queue: append([]string(nil), lines...)}
}

// QueueLine appends a canned response line.
func (p *ScriptedPort) QueueLine(line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, line)
}

// Frames returns every frame written to the port, CR terminators stripped.
func (p *ScriptedPort) Frames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.frames))
	copy(out, p.frames)
	return out
}

// Write records the written frames and stages responses for read requests.
func (p *ScriptedPort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.WriteError != nil {
		return 0, p.WriteError
	}
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	for _, frame := range strings.Split(string(data), "\r") {
		if frame == "" {
			continue
		}
		p.frames = append(p.frames, frame)
		if p.Respond != nil {
			if line, ok := p.Respond(frame); ok {
				p.reads.WriteString(line + "\n")
			}
			continue
		}
		// Only read requests consume the canned queue.
		if strings.HasSuffix(frame, "?") && len(p.queue) > 0 {
			p.reads.WriteString(p.queue[0] + "\n")
			p.queue = p.queue[1:]
		}
	}
	return len(data), nil
}

// Read serves the staged response bytes and reports io.EOF when none are
// pending.
func (p *ScriptedPort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ReadError != nil {
		return 0, p.ReadError
	}
	if p.reads.Len() == 0 {
		return 0, io.EOF
	}
	return p.reads.Read(buf)
}

// Close marks the port closed.
func (p *ScriptedPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
