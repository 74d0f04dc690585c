package wire

import "fmt"

// Mode is a port operating mode. Pins are set to Input or Output, motor
// channels to Brake/Release/Forward/Backward, and the sensor-matrix port to
// Matrix.
type Mode int

const (
	ModeInput Mode = iota
	ModeOutput
	ModeBrake
	ModeRelease
	ModeForward
	ModeBackward
	ModeMatrix
)

var modeCodes = map[Mode]byte{
	ModeInput:    'I',
	ModeOutput:   'O',
	ModeBrake:    'S',
	ModeRelease:  'R',
	ModeForward:  'F',
	ModeBackward: 'B',
	ModeMatrix:   'X',
}

var modeNames = map[string]Mode{
	"INPUT":    ModeInput,
	"OUTPUT":   ModeOutput,
	"BRAKE":    ModeBrake,
	"RELEASE":  ModeRelease,
	"FORWARD":  ModeForward,
	"BACKWARD": ModeBackward,
	"MATRIX":   ModeMatrix,
}

// ParseMode accepts either a mode name (e.g. "OUTPUT") or its
// single-character wire code (e.g. "O") and returns the Mode. Anything else
// fails with ErrInvalidMode.
func ParseMode(s string) (Mode, error) {
	if m, ok := modeNames[s]; ok {
		return m, nil
	}
	if len(s) == 1 {
		for m, c := range modeCodes {
			if s[0] == c {
				return m, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Code returns the single-character wire code for the mode.
func (m Mode) Code() byte {
	c, ok := modeCodes[m]
	if !ok {
		// Unreachable for values produced by ParseMode or the constants.
		return '?'
	}
	return c
}

// String returns the mode name.
func (m Mode) String() string {
	for name, mode := range modeNames {
		if mode == m {
			return name
		}
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}
