// Package boardsim provides a simulated board for dev mode: a scripted
// serial port that answers matrix reads with a short pre-recorded game, so
// the full poll/inference/logging path runs without hardware attached.
package boardsim

import (
	"strings"
	"sync"

	"github.com/chessmech/boardlink/internal/board"
	"github.com/chessmech/boardlink/internal/serialmux"
)

type simulator struct {
	mu    sync.Mutex
	lines []string
	idx   int
}

// next serves the scripted grid lines in order, holding the final grid once
// the script runs out.
func (s *simulator) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := s.lines[s.idx]
	if s.idx < len(s.lines)-1 {
		s.idx++
	}
	return line
}

// NewLink returns a bridge over a simulated board that sets up its pieces
// and then plays 1. e4 d5 2. exd5, one sensor event per poll.
func NewLink(matrixPort string) serialmux.Link {
	sim := &simulator{lines: script()}
	readReq := matrixPort + "?"

	port := serialmux.NewScriptedPort()
	port.Respond = func(frame string) (string, bool) {
		if frame == readReq {
			return sim.next(), true
		}
		if strings.HasSuffix(frame, "?") {
			return "0", true
		}
		return "", false
	}

	// ScriptedPort never fails to open, so the error is impossible here.
	link, err := serialmux.NewBridge(port, serialmux.PortOptions{})
	if err != nil {
		panic(err)
	}
	return link
}

// script renders the simulated game as matrix telemetry lines: an empty
// board while the pieces go on, the starting layout, then each lift and
// placement as its own poll cycle.
func script() []string {
	var lines []string
	var g board.Grid
	emit := func() { lines = append(lines, wireLine(g)) }

	emit() // board still empty
	emit()
	g = board.StartPosition()
	emit()
	emit() // one quiet cycle after setup

	set := func(name string, occupied bool) {
		sq, err := board.ParseSquare(name)
		if err != nil {
			panic(err)
		}
		g[sq.File][sq.Rank] = occupied
		emit()
	}

	// 1. e4
	set("e2", false)
	set("e4", true)
	emit()
	// 1... d5
	set("d7", false)
	set("d5", true)
	emit()
	// 2. exd5: the capturing pawn lifts, the captured pawn comes off, the
	// capturing pawn lands.
	set("e4", false)
	set("d5", false)
	set("d5", true)
	emit()

	return lines
}

// wireLine renders a grid in the telemetry format: rank characters per file
// row, ';' after every row.
func wireLine(g board.Grid) string {
	var sb strings.Builder
	for file := 0; file < board.Size; file++ {
		for rank := 0; rank < board.Size; rank++ {
			if g[file][rank] {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		sb.WriteByte(';')
	}
	return sb.String()
}
