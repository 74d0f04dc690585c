// Package api serves the boardlink HTTP API: inferred moves, the live board
// occupancy, and a validated command passthrough to the controller.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/chessmech/boardlink/internal/board"
	"github.com/chessmech/boardlink/internal/gamelog"
	"github.com/chessmech/boardlink/internal/serialmux"
	"github.com/chessmech/boardlink/internal/session"
	"github.com/chessmech/boardlink/internal/wire"
)

type Server struct {
	link    serialmux.Link
	db      *gamelog.DB
	session *session.Session
}

func NewServer(link serialmux.Link, db *gamelog.DB, sess *session.Session) *Server {
	return &Server{
		link:    link,
		db:      db,
		session: sess,
	}
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Welcome to the boardlink server!"))
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/moves", s.listMoves)
	mux.HandleFunc("/api/sessions", s.listSessions)
	mux.HandleFunc("/api/board", s.boardState)
	mux.HandleFunc("/api/command", s.sendCommand)
	mux.HandleFunc("/", s.homeHandler)
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (s *Server) listMoves(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" && s.session != nil {
		sessionID = s.session.ID
	}
	if sessionID == "" {
		http.Error(w, "Missing session", http.StatusBadRequest)
		return
	}

	moves, err := s.db.ListMoves(sessionID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve moves: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, moves)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	summaries, err := s.db.SessionSummaries()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve sessions: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, summaries)
}

type boardResponse struct {
	Session string   `json:"session"`
	Rows    []string `json:"rows"`
	PGN     string   `json:"pgn"`
}

func (s *Server) boardState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.session == nil {
		http.Error(w, "No active session", http.StatusServiceUnavailable)
		return
	}
	occupied, ok := s.session.Snapshot()
	if !ok {
		http.Error(w, "No board sample yet", http.StatusServiceUnavailable)
		return
	}

	rows := make([]string, board.Size)
	for file := 0; file < board.Size; file++ {
		row := make([]byte, board.Size)
		for rank := 0; rank < board.Size; rank++ {
			if occupied.Has(board.Square{File: file, Rank: rank}) {
				row[rank] = '1'
			} else {
				row[rank] = '0'
			}
		}
		rows[file] = string(row)
	}
	s.writeJSON(w, boardResponse{Session: s.session.ID, Rows: rows, PGN: s.session.PGN()})
}

// sendCommand builds a validated frame from the request and writes it to
// the link. Exactly one of value, mode, or speed selects the operation;
// validation failures are reported as 400s and nothing reaches the wire.
func (s *Server) sendCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	port, err := wire.ParsePort(r.FormValue("port"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	frame, err := buildFrame(port, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.link.Send(frame); err != nil {
		http.Error(w, "Failed to send command", http.StatusInternalServerError)
		return
	}
	io.WriteString(w, fmt.Sprintf("Sent %q", frame))
}

func buildFrame(port wire.Port, r *http.Request) (string, error) {
	switch {
	case r.FormValue("value") != "":
		raw := r.FormValue("value")
		if raw == "H" || raw == "L" {
			on, _ := wire.ParseLevel(raw)
			return wire.EncodeSetLevel(port, on), nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %q", wire.ErrInvalidValue, raw)
		}
		return wire.EncodeSetValue(port, v)

	case r.FormValue("mode") != "":
		mode, err := wire.ParseMode(r.FormValue("mode"))
		if err != nil {
			return "", err
		}
		return wire.EncodeSetMode(port, mode), nil

	case r.FormValue("speed") != "":
		speed, err := strconv.Atoi(r.FormValue("speed"))
		if err != nil {
			return "", fmt.Errorf("%w: %q", wire.ErrInvalidSpeed, r.FormValue("speed"))
		}
		return wire.EncodeSetSpeed(port, speed)
	}
	return "", fmt.Errorf("missing operation: provide value, mode, or speed")
}
