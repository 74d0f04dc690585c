package board

import (
	"math/bits"
	"strings"
)

// Bitboard is a set of squares packed into a uint64, one bit per square.
// Bit index is file*8+rank, so iteration order is file-major: a1, a2, ...,
// a8, b1, and so on. The zero value is the empty set.
type Bitboard uint64

func bit(sq Square) Bitboard {
	return 1 << uint(sq.File*Size+sq.Rank)
}

// With returns the set with sq added.
func (b Bitboard) With(sq Square) Bitboard {
	return b | bit(sq)
}

// Has reports whether sq is in the set.
func (b Bitboard) Has(sq Square) bool {
	return b&bit(sq) != 0
}

// Minus returns the set difference b - other.
func (b Bitboard) Minus(other Bitboard) Bitboard {
	return b &^ other
}

// IsEmpty reports whether the set contains no squares.
func (b Bitboard) IsEmpty() bool {
	return b == 0
}

// Count returns the number of squares in the set.
func (b Bitboard) Count() int {
	return bits.OnesCount64(uint64(b))
}

// First returns the lowest square in the set in file-major order. It must
// not be called on an empty set.
func (b Bitboard) First() Square {
	i := bits.TrailingZeros64(uint64(b))
	return Square{File: i / Size, Rank: i % Size}
}

// Squares returns all squares in the set in file-major order.
func (b Bitboard) Squares() []Square {
	sqs := make([]Square, 0, b.Count())
	for rest := b; rest != 0; rest &= rest - 1 {
		sqs = append(sqs, rest.First())
	}
	return sqs
}

// String renders the set as a space-separated list of square names.
func (b Bitboard) String() string {
	names := make([]string, 0, b.Count())
	for _, sq := range b.Squares() {
		names = append(names, sq.String())
	}
	return "{" + strings.Join(names, " ") + "}"
}
