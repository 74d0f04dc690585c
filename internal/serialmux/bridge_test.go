package serialmux

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestBridge(t *testing.T, port SerialPorter, opts PortOptions) *Bridge {
	t.Helper()
	b, err := NewBridge(port, opts)
	if err != nil {
		t.Fatalf("NewBridge: %v", err)
	}
	return b
}

func TestBridge_SendAppendsCarriageReturn(t *testing.T) {
	port := NewScriptedPort()
	b := newTestBridge(t, port, PortOptions{})

	if err := b.Send("07:H"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	frames := port.Frames()
	if len(frames) != 1 || frames[0] != "07:H" {
		t.Errorf("Frames() = %v, want [07:H]", frames)
	}
}

func TestBridge_SendWriteError(t *testing.T) {
	port := NewScriptedPort()
	port.WriteError = io.ErrShortWrite
	b := newTestBridge(t, port, PortOptions{})

	if err := b.Send("07:H"); !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("Send = %v, want short write error", err)
	}
}

func TestBridge_Request(t *testing.T) {
	port := NewScriptedPort("1")
	b := newTestBridge(t, port, PortOptions{})

	line, err := b.Request("04?")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if line != "1" {
		t.Errorf("Request = %q, want %q", line, "1")
	}
	frames := port.Frames()
	if len(frames) != 1 || frames[0] != "04?" {
		t.Errorf("Frames() = %v, want [04?]", frames)
	}
}

func TestBridge_ReadLineTrimsCR(t *testing.T) {
	port := NewScriptedPort()
	port.reads.WriteString("128\r\n")
	b := newTestBridge(t, port, PortOptions{})

	line, err := b.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if line != "128" {
		t.Errorf("ReadLine = %q, want %q", line, "128")
	}
}

// silentPort simulates a device that never answers: every read is the
// port-level timeout tick (0 bytes, no error).
type silentPort struct{}

func (silentPort) Read(p []byte) (int, error) {
	time.Sleep(time.Millisecond)
	return 0, nil
}
func (silentPort) Write(p []byte) (int, error) { return len(p), nil }
func (silentPort) Close() error                { return nil }

func TestBridge_ReadLineTimeout(t *testing.T) {
	b := newTestBridge(t, silentPort{}, PortOptions{ReadTimeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := b.ReadLine()
	if !errors.Is(err, ErrReadTimeout) {
		t.Fatalf("ReadLine = %v, want ErrReadTimeout", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("ReadLine returned after %v, want at least the timeout", elapsed)
	}
}

// timeoutPort records the read timeout a bridge configures on it.
type timeoutPort struct {
	*ScriptedPort
	timeout    time.Duration
	timeoutErr error
}

func (p *timeoutPort) SetReadTimeout(d time.Duration) error {
	if p.timeoutErr != nil {
		return p.timeoutErr
	}
	p.timeout = d
	return nil
}

func TestBridge_ConfiguresPortTimeout(t *testing.T) {
	port := &timeoutPort{ScriptedPort: NewScriptedPort()}
	newTestBridge(t, port, PortOptions{})
	if port.timeout != DefaultReadTimeout {
		t.Errorf("port timeout = %v, want %v", port.timeout, DefaultReadTimeout)
	}

	port = &timeoutPort{ScriptedPort: NewScriptedPort()}
	newTestBridge(t, port, PortOptions{ReadTimeout: 30 * time.Millisecond})
	if port.timeout != 30*time.Millisecond {
		t.Errorf("port timeout = %v, want 30ms", port.timeout)
	}

	port = &timeoutPort{ScriptedPort: NewScriptedPort(), timeoutErr: io.ErrClosedPipe}
	if _, err := NewBridge(port, PortOptions{}); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("NewBridge = %v, want the port's timeout error", err)
	}
}

func TestBridge_WaitForReady(t *testing.T) {
	port := NewScriptedPort()
	port.reads.WriteString("controller v1 ready\r\n")
	b := newTestBridge(t, port, PortOptions{})

	banner, err := b.WaitForReady()
	if err != nil {
		t.Fatalf("WaitForReady: %v", err)
	}
	if banner != "controller v1 ready" {
		t.Errorf("WaitForReady = %q, want the banner line", banner)
	}
	// The banner is consumed before any command goes out.
	if frames := port.Frames(); len(frames) != 0 {
		t.Errorf("Frames() = %v, want none", frames)
	}
}

func TestBridge_RecentLinesRing(t *testing.T) {
	port := NewScriptedPort()
	for i := 0; i < recentLineCap+10; i++ {
		port.reads.WriteString("line\n")
	}
	b := newTestBridge(t, port, PortOptions{})

	for i := 0; i < recentLineCap+10; i++ {
		if _, err := b.ReadLine(); err != nil {
			t.Fatalf("ReadLine %d: %v", i, err)
		}
	}
	if got := len(b.RecentLines()); got != recentLineCap {
		t.Errorf("RecentLines length = %d, want %d", got, recentLineCap)
	}
}

func TestDisabledBridge(t *testing.T) {
	d := NewDisabledBridge()
	if err := d.Send("07:H"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send = %v, want ErrNotConnected", err)
	}
	if _, err := d.Request("04?"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Request = %v, want ErrNotConnected", err)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close = %v, want nil", err)
	}
}

func TestPortOptions_Normalize(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if opts.BaudRate != 115200 || opts.DataBits != 8 || opts.StopBits != 1 || opts.Parity != "N" {
		t.Errorf("defaults = %+v, want 115200 8N1", opts)
	}
	if opts.ReadTimeout != DefaultReadTimeout {
		t.Errorf("ReadTimeout = %v, want %v", opts.ReadTimeout, DefaultReadTimeout)
	}

	bad := []PortOptions{
		{DataBits: 3},
		{StopBits: 4},
		{Parity: "Q"},
		{ReadTimeout: -time.Second},
	}
	for _, opts := range bad {
		if _, err := opts.Normalize(); err == nil {
			t.Errorf("Normalize(%+v) accepted, want error", opts)
		}
	}
}

func TestPortOptions_SerialMode(t *testing.T) {
	mode, err := PortOptions{Parity: "even", StopBits: 2}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode: %v", err)
	}
	if mode.BaudRate != 115200 || mode.DataBits != 8 {
		t.Errorf("mode = %+v, want 115200/8", mode)
	}
}

// localHostRequest creates an httptest request that appears to come from
// localhost. This bypasses tsweb.AllowDebugAccess which checks for loopback
// IPs.
func localHostRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

func TestBridge_AdminSendFrame(t *testing.T) {
	port := NewScriptedPort()
	b := newTestBridge(t, port, PortOptions{})

	mux := http.NewServeMux()
	b.AttachAdminRoutes(mux)

	form := url.Values{"frame": {"A0?"}}
	req := localHostRequest(http.MethodPost, "/debug/send-frame", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("send-frame status = %d, want 200 (body %q)", w.Code, w.Body.String())
	}
	frames := port.Frames()
	if len(frames) != 1 || frames[0] != "A0?" {
		t.Errorf("Frames() = %v, want [A0?]", frames)
	}
}

func TestBridge_AdminSendFrameRejectsGet(t *testing.T) {
	b := newTestBridge(t, NewScriptedPort(), PortOptions{})
	mux := http.NewServeMux()
	b.AttachAdminRoutes(mux)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, localHostRequest(http.MethodGet, "/debug/send-frame", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET send-frame status = %d, want 405", w.Code)
	}
}

func TestScriptedPort_Responder(t *testing.T) {
	port := NewScriptedPort()
	port.Respond = func(frame string) (string, bool) {
		if frame == "A0?" {
			return "42", true
		}
		return "", false
	}
	b := newTestBridge(t, port, PortOptions{})

	line, err := b.Request("A0?")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if line != "42" {
		t.Errorf("Request = %q, want %q", line, "42")
	}

	// Non-read frames produce no response.
	if err := b.Send("07:H"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := b.ReadLine(); err == nil {
		t.Error("ReadLine after non-read frame succeeded, want error")
	}
}
