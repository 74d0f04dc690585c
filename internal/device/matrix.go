package device

import (
	"context"
	"time"

	"github.com/chessmech/boardlink/internal/board"
	"github.com/chessmech/boardlink/internal/poll"
	"github.com/chessmech/boardlink/internal/serialmux"
	"github.com/chessmech/boardlink/internal/wire"
)

// MatrixSensor reads the 8x8 presence-sensor grid as a set of occupied
// squares. Tracking is always enabled: the outgoing cycle's grid is fetched
// even if nobody read it, because move inference needs every transition.
type MatrixSensor struct {
	cache *poll.Cached[board.Bitboard]
	port  wire.Port
}

// NewMatrixSensor puts the port into matrix mode. reversed inverts every
// cell for sensor hardware that reads occupied as 0.
func NewMatrixSensor(link serialmux.Link, port wire.Port, reversed bool) (*MatrixSensor, error) {
	if err := link.Send(wire.EncodeSetMode(port, wire.ModeMatrix)); err != nil {
		return nil, err
	}
	fetch := func() (board.Bitboard, error) {
		line, err := link.Request(wire.EncodeRead(port))
		if err != nil {
			return 0, err
		}
		grid, err := board.ParseGrid(line)
		if err != nil {
			return 0, err
		}
		occupied := grid.Occupied()
		if reversed {
			occupied = ^occupied
		}
		return occupied, nil
	}
	return &MatrixSensor{cache: poll.NewCached(fetch, true), port: port}, nil
}

// Value returns this cycle's occupied-square set.
func (m *MatrixSensor) Value() (board.Bitboard, error) { return m.cache.Value() }

// Reset advances to the next poll cycle, forcing a fetch of the outgoing
// cycle's grid if it was never read. A decode error propagates and leaves
// both cycles' state untouched.
func (m *MatrixSensor) Reset() error { return m.cache.Reset() }

// Fetches returns the number of completed grid fetches.
func (m *MatrixSensor) Fetches() int { return m.cache.Fetches() }

// Newly returns the squares occupied now but not in the previous cycle
// (pieces placed). ok is false before the first completed cycle.
func (m *MatrixSensor) Newly() (appeared board.Bitboard, ok bool, err error) {
	last, ok := m.cache.Last()
	if !ok {
		return 0, false, nil
	}
	cur, err := m.cache.Value()
	if err != nil {
		return 0, false, err
	}
	return cur.Minus(last), true, nil
}

// Oldly returns the squares occupied in the previous cycle but not now
// (pieces lifted).
func (m *MatrixSensor) Oldly() (vanished board.Bitboard, ok bool, err error) {
	last, ok := m.cache.Last()
	if !ok {
		return 0, false, nil
	}
	cur, err := m.cache.Value()
	if err != nil {
		return 0, false, err
	}
	return last.Minus(cur), true, nil
}

// WaitForSetup polls the matrix until the board matches the starting layout
// (the first two and last two ranks of every file occupied). It is the
// synchronization barrier before move inference begins: until the pieces
// are set up, no diff is meaningful. The context bounds the wait.
func (m *MatrixSensor) WaitForSetup(ctx context.Context, interval time.Duration) error {
	want := board.StartPosition().Occupied()
	for {
		occupied, err := m.Value()
		if err != nil {
			return err
		}
		if occupied == want {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
		if err := m.Reset(); err != nil {
			return err
		}
	}
}
