// Package session holds the per-game context: the serial link, the matrix
// sensor, the inference machine, the chess game state, and the game log.
// Everything is explicit — a session is constructed once and threaded
// through calls, never a process-wide singleton.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/notnil/chess"

	"github.com/chessmech/boardlink/internal/board"
	"github.com/chessmech/boardlink/internal/device"
	"github.com/chessmech/boardlink/internal/gamelog"
	"github.com/chessmech/boardlink/internal/infer"
	"github.com/chessmech/boardlink/internal/serialmux"
	"github.com/chessmech/boardlink/internal/wire"
)

// DefaultPollInterval is how often the matrix is sampled. Half a second is
// comfortably faster than a hand placing a piece.
const DefaultPollInterval = 500 * time.Millisecond

// Config wires up a session.
type Config struct {
	Link       serialmux.Link
	MatrixPort wire.Port
	// Log is optional; a nil log records nothing.
	Log *gamelog.DB
	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
}

// Session runs move inference for one game. The poll loop is the exclusive
// owner of the link and sensor; other goroutines observe the session only
// through Moves, Snapshot, and MoveList.
type Session struct {
	ID string

	link    serialmux.Link
	sensor  *device.MatrixSensor
	machine *infer.Machine
	logDB   *gamelog.DB

	interval time.Duration
	moves    chan infer.Candidate

	mu       sync.Mutex
	game     *chess.Game
	occupied board.Bitboard
	sampled  bool
}

// New constructs a session: the matrix port is put into matrix mode, a
// fresh game starts, and the session is registered in the log.
func New(cfg Config) (*Session, error) {
	sensor, err := device.NewMatrixSensor(cfg.Link, cfg.MatrixPort, false)
	if err != nil {
		return nil, err
	}

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	s := &Session{
		ID:       uuid.NewString(),
		link:     cfg.Link,
		sensor:   sensor,
		machine:  infer.NewMachine(),
		logDB:    cfg.Log,
		interval: interval,
		moves:    make(chan infer.Candidate, 16),
		game:     chess.NewGame(),
	}

	if s.logDB != nil {
		if err := s.logDB.CreateSession(s.ID); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Moves delivers inferred move candidates as they resolve. The channel is
// buffered; a slow consumer drops candidates rather than stalling the poll
// loop.
func (s *Session) Moves() <-chan infer.Candidate { return s.moves }

// Snapshot returns the occupancy observed in the most recent poll cycle.
// ok is false before the first sample.
func (s *Session) Snapshot() (occupied board.Bitboard, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.occupied, s.sampled
}

// PGN returns the legality-checked game record so far.
func (s *Session) PGN() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.String()
}

// Run blocks: it waits for the board to be set up in the starting layout,
// then polls the matrix once per interval and feeds the inference machine
// until the context is cancelled.
func (s *Session) Run(ctx context.Context) error {
	log.Printf("session %s: waiting for board setup", s.ID)
	if err := s.sensor.WaitForSetup(ctx, s.interval); err != nil {
		return err
	}
	s.machine.Reset()
	log.Printf("session %s: board ready, inferring moves", s.ID)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := s.cycle(); err != nil {
			// A failed cycle aborts inference for this poll only: the
			// machine keeps its pending-lift state and the next cycle
			// diffs against the last good grid.
			log.Printf("session %s: poll cycle aborted: %v", s.ID, err)
			if s.logDB != nil {
				if logErr := s.logDB.RecordTelemetry(s.ID, "poll error: "+err.Error()); logErr != nil {
					log.Printf("session %s: failed to record telemetry: %v", s.ID, logErr)
				}
			}
		}
	}
}

func (s *Session) cycle() error {
	if err := s.sensor.Reset(); err != nil {
		return err
	}
	appeared, ok, err := s.sensor.Newly()
	if err != nil {
		return err
	}
	vanished, _, err := s.sensor.Oldly()
	if err != nil {
		return err
	}

	occupied, err := s.sensor.Value()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.occupied = occupied
	s.sampled = true
	s.mu.Unlock()

	if !ok {
		// First cycle after setup: no previous grid to diff against.
		return nil
	}

	cand, emitted := s.machine.Observe(appeared, vanished)
	if !emitted {
		return nil
	}
	s.resolve(cand)
	return nil
}

// resolve checks an inferred candidate against the game, records it, and
// hands it to the consumer. Legality is advisory: an inference with no
// legal interpretation is logged and recorded but does not stop the
// session.
func (s *Session) resolve(cand infer.Candidate) {
	san := s.applyToGame(cand)

	if s.logDB != nil {
		err := s.logDB.RecordMove(s.ID, cand.From.String(), cand.To.String(),
			cand.Capture, cand.UCI(), san)
		if err != nil {
			log.Printf("session %s: failed to record move %s: %v", s.ID, cand.UCI(), err)
		}
	}

	select {
	case s.moves <- cand:
	default:
		log.Printf("session %s: dropping move %s: consumer not keeping up", s.ID, cand.UCI())
	}
}

// applyToGame pushes the candidate onto the chess game if it matches a
// legal move, returning the move's SAN. An illegal or unmatched candidate
// returns an empty SAN.
func (s *Session) applyToGame(cand infer.Candidate) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := chessSquare(cand.From)
	to := chessSquare(cand.To)
	for _, mv := range s.game.ValidMoves() {
		if mv.S1() != from || mv.S2() != to {
			continue
		}
		if mv.HasTag(chess.Capture) != cand.Capture {
			log.Printf("session %s: capture flag mismatch for %s (sensed %v)",
				s.ID, cand.UCI(), cand.Capture)
		}
		san := chess.AlgebraicNotation{}.Encode(s.game.Position(), mv)
		if err := s.game.Move(mv); err != nil {
			log.Printf("session %s: failed to apply %s: %v", s.ID, cand.UCI(), err)
			return ""
		}
		log.Printf("session %s: move %s (%s)", s.ID, cand.UCI(), san)
		return san
	}

	log.Printf("session %s: inferred move %s has no legal interpretation", s.ID, cand.UCI())
	return ""
}

func chessSquare(sq board.Square) chess.Square {
	return chess.Square(sq.Rank*8 + sq.File)
}
