// Package infer turns per-cycle lift/place events from the sensor matrix
// into inferred moves. A piece is "lifted" when its square newly vanishes
// between polls and "placed" when a square newly appears; a move is one or
// two lifts closed by a placement.
package infer

import "github.com/chessmech/boardlink/internal/board"

// State is the machine's pending-lift state.
type State int

const (
	// Idle: no lifted square pending.
	Idle State = iota
	// OneLifted: exactly one square is lifted; its identity is remembered.
	OneLifted
	// TwoLifted: a second square was lifted before the first was placed
	// back down. This is the capture shape: the capturing piece comes up,
	// then the captured piece comes up, then one goes down.
	TwoLifted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case OneLifted:
		return "one-lifted"
	case TwoLifted:
		return "two-lifted"
	}
	return "unknown"
}

// Candidate is an inferred move: origin and destination squares, with
// Capture set when the move resolved from two lifts. Whether the move is
// legal chess is not this package's concern.
type Candidate struct {
	From    board.Square
	To      board.Square
	Capture bool
}

// UCI renders the candidate in coordinate notation, e.g. "e2e4".
func (c Candidate) UCI() string {
	return c.From.String() + c.To.String()
}

// Machine is the move-inference state machine. It exclusively owns its
// pending-lift state; feed it one Observe call per poll cycle.
type Machine struct {
	state  State
	first  board.Square // origin: the earliest pending lift
	second board.Square // the later lift, valid only in TwoLifted
}

// NewMachine returns a machine in the Idle state.
func NewMachine() *Machine { return &Machine{} }

// State returns the current pending-lift state.
func (m *Machine) State() State { return m.state }

// Reset discards any pending lifts. Called when the board is re-synced to a
// known layout.
func (m *Machine) Reset() { m.state = Idle }

// Observe feeds one poll cycle's diff: the squares that newly appeared
// (pieces placed) and newly vanished (pieces lifted) since the previous
// cycle. It returns an inferred move when a placement closes a pending
// sequence.
//
// Only the lowest square of a multi-square set is consulted; simultaneous
// multi-square changes within one poll are outside the model, which the
// poll frequency versus human handling speed makes acceptable. Placements
// are applied before lifts so a lift event never consumes its own cycle's
// placement.
func (m *Machine) Observe(appeared, vanished board.Bitboard) (Candidate, bool) {
	cand, emitted := m.place(appeared)
	m.lift(vanished)
	return cand, emitted
}

func (m *Machine) place(appeared board.Bitboard) (Candidate, bool) {
	if appeared.IsEmpty() || m.state == Idle {
		// A placement with nothing pending carries no information here;
		// board re-sync is the caller's concern.
		return Candidate{}, false
	}
	down := appeared.First()

	switch m.state {
	case OneLifted:
		m.state = Idle
		if down == m.first {
			// Spurious pickup: the piece went back where it came from.
			return Candidate{}, false
		}
		return Candidate{From: m.first, To: down}, true

	case TwoLifted:
		if down == m.first {
			// The origin piece went back down; the other lift is still
			// outstanding, so drop back to a single pending lift.
			m.state = OneLifted
			m.first = m.second
			return Candidate{}, false
		}
		m.state = Idle
		return Candidate{From: m.first, To: down, Capture: true}, true
	}
	return Candidate{}, false
}

func (m *Machine) lift(vanished board.Bitboard) {
	if vanished.IsEmpty() {
		return
	}
	up := vanished.First()

	switch m.state {
	case Idle:
		m.state = OneLifted
		m.first = up
	case OneLifted:
		m.state = TwoLifted
		m.second = up
	case TwoLifted:
		// A third lift slides the window: keep the two most recent.
		m.first = m.second
		m.second = up
	}
}
