package board

import (
	"fmt"
	"strings"

	"github.com/chessmech/boardlink/internal/wire"
)

// Grid is one poll cycle's presence reading: true means a piece sits on the
// square. Cells are indexed [file][rank]. A Grid is produced once per cycle
// and treated as immutable after creation; each cycle yields a fresh value.
type Grid [Size][Size]bool

// ErrMalformedGrid reports matrix telemetry that does not decode as an 8x8
// grid. It wraps wire.ErrMalformedResponse so callers can match on the
// decode-failure class. A short or long line must fail loudly, never be
// truncated or padded.
var ErrMalformedGrid = fmt.Errorf("%w: malformed matrix grid", wire.ErrMalformedResponse)

// ParseGrid decodes a matrix telemetry line: 8 rows of 8 '0'/'1' characters
// separated by ';', with the trailing separator trimmed. Row i is file i
// (a-h), character j is rank j (1-8).
func ParseGrid(line string) (Grid, error) {
	var g Grid
	rows := strings.Split(strings.TrimSuffix(strings.TrimSpace(line), ";"), ";")
	if len(rows) != Size {
		return Grid{}, fmt.Errorf("%w: %d rows, want %d", ErrMalformedGrid, len(rows), Size)
	}
	for i, row := range rows {
		if len(row) != Size {
			return Grid{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformedGrid, i, len(row), Size)
		}
		for j := 0; j < Size; j++ {
			switch row[j] {
			case '1':
				g[i][j] = true
			case '0':
			default:
				return Grid{}, fmt.Errorf("%w: row %d has cell %q", ErrMalformedGrid, i, row[j])
			}
		}
	}
	return g, nil
}

// StartPosition returns the grid for a board set up to play: the first two
// and last two ranks of every file occupied.
func StartPosition() Grid {
	var g Grid
	for file := 0; file < Size; file++ {
		for _, rank := range []int{0, 1, 6, 7} {
			g[file][rank] = true
		}
	}
	return g
}

// Occupied returns the set of occupied squares.
func (g Grid) Occupied() Bitboard {
	var b Bitboard
	for file := 0; file < Size; file++ {
		for rank := 0; rank < Size; rank++ {
			if g[file][rank] {
				b = b.With(Square{File: file, Rank: rank})
			}
		}
	}
	return b
}

// Diff compares g against the previous cycle's grid and returns the squares
// that became occupied and the squares that became vacant. The two sets are
// always disjoint, and swapping the receivers swaps the results.
func (g Grid) Diff(prev Grid) (appeared, vanished Bitboard) {
	cur, old := g.Occupied(), prev.Occupied()
	return cur.Minus(old), old.Minus(cur)
}

// String renders the grid as rows of '0'/'1' characters, one file per line.
func (g Grid) String() string {
	var sb strings.Builder
	for file := 0; file < Size; file++ {
		for rank := 0; rank < Size; rank++ {
			if g[file][rank] {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
		if file < Size-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
