package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chessmech/boardlink/internal/gamelog"
	"github.com/chessmech/boardlink/internal/serialmux"
)

func newTestServer(t *testing.T) (*Server, *serialmux.ScriptedPort, *gamelog.DB) {
	t.Helper()
	port := serialmux.NewScriptedPort()
	link, err := serialmux.NewBridge(port, serialmux.PortOptions{})
	if err != nil {
		t.Fatalf("NewBridge: %v", err)
	}
	t.Cleanup(func() { link.Close() })

	db, err := gamelog.NewDB(filepath.Join(t.TempDir(), "gamelog.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewServer(link, db, nil), port, db
}

func postCommand(t *testing.T, mux *http.ServeMux, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/command", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestCommandFrames(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"level high", url.Values{"port": {"07"}, "value": {"H"}}, "07:H"},
		{"level low", url.Values{"port": {"07"}, "value": {"L"}}, "07:L"},
		{"analog value", url.Values{"port": {"09"}, "value": {"200"}}, "09:c8"},
		{"mode by name", url.Values{"port": {"A0"}, "mode": {"MATRIX"}}, "A0-X"},
		{"mode by code", url.Values{"port": {"05"}, "mode": {"O"}}, "05-O"},
		{"stepper speed", url.Values{"port": {"S1"}, "speed": {"7"}}, "S1-07"},
		{"motor speed", url.Values{"port": {"M2"}, "speed": {"150"}}, "M2:96"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, port, _ := newTestServer(t)
			w := postCommand(t, srv.ServeMux(), tt.form)
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, body %q", w.Code, w.Body.String())
			}
			if diff := cmp.Diff([]string{tt.want}, port.Frames()); diff != "" {
				t.Errorf("frames mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCommandValidation(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"bad port", url.Values{"port": {"99"}, "value": {"H"}}},
		{"value out of range", url.Values{"port": {"09"}, "value": {"256"}}},
		{"value not a number", url.Values{"port": {"09"}, "value": {"zap"}}},
		{"bad mode", url.Values{"port": {"05"}, "mode": {"Q"}}},
		{"speed on digital pin", url.Values{"port": {"07"}, "speed": {"50"}}},
		{"speed out of range", url.Values{"port": {"S0"}, "speed": {"0"}}},
		{"no operation", url.Values{"port": {"07"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, port, _ := newTestServer(t)
			w := postCommand(t, srv.ServeMux(), tt.form)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			// Rejected commands never reach the wire.
			if frames := port.Frames(); len(frames) != 0 {
				t.Errorf("frames = %v, want none", frames)
			}
		})
	}
}

func TestCommandRequiresPost(t *testing.T) {
	srv, _, _ := newTestServer(t)
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/command", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestListMoves(t *testing.T) {
	srv, _, db := newTestServer(t)
	if err := db.CreateSession("s1"); err != nil {
		t.Fatal(err)
	}
	if err := db.RecordMove("s1", "e2", "e4", false, "e2e4", "e4"); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/moves?session=s1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", w.Code, w.Body.String())
	}
	var moves []gamelog.Move
	if err := json.Unmarshal(w.Body.Bytes(), &moves); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(moves) != 1 || moves[0].UCI != "e2e4" {
		t.Errorf("moves = %+v, want one e2e4", moves)
	}
}

func TestListMovesWithoutSession(t *testing.T) {
	srv, _, _ := newTestServer(t)
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/moves", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListSessions(t *testing.T) {
	srv, _, db := newTestServer(t)
	if err := db.CreateSession("s1"); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var summaries []gamelog.SessionSummary
	if err := json.Unmarshal(w.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(summaries) != 1 || summaries[0].SessionID != "s1" {
		t.Errorf("summaries = %+v, want one s1", summaries)
	}
}

func TestBoardWithoutSession(t *testing.T) {
	srv, _, _ := newTestServer(t)
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/board", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestHomeRoute(t *testing.T) {
	srv, _, _ := newTestServer(t)
	w := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "boardlink") {
		t.Errorf("body = %q, want greeting", w.Body.String())
	}
}
