// Package board holds the value types for an 8x8 sensed chessboard: squares,
// bitboard square sets, and the per-poll presence grid decoded from matrix
// telemetry.
package board

import "fmt"

// Size is the board edge length.
const Size = 8

// Square is a board coordinate. File 0 is the a-file, rank 0 is rank 1.
type Square struct {
	File int
	Rank int
}

// Valid reports whether the square lies on the board.
func (s Square) Valid() bool {
	return s.File >= 0 && s.File < Size && s.Rank >= 0 && s.Rank < Size
}

// String renders the algebraic name of the square, e.g. {0,0} -> "a1".
func (s Square) String() string {
	return fmt.Sprintf("%c%d", 'a'+s.File, s.Rank+1)
}

// ParseSquare parses an algebraic square name like "e4".
func ParseSquare(name string) (Square, error) {
	if len(name) != 2 {
		return Square{}, fmt.Errorf("invalid square %q", name)
	}
	sq := Square{File: int(name[0] - 'a'), Rank: int(name[1] - '1')}
	if !sq.Valid() {
		return Square{}, fmt.Errorf("invalid square %q", name)
	}
	return sq, nil
}
