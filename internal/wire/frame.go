package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// Frame separators. ':' selects a value write, '-' a mode or speed write,
// '?' a read request.
const (
	sepValue = ':'
	sepMode  = '-'
	sepRead  = '?'
)

// ValidateValue reports whether v may be written to a port. Valid values
// are 0-255; booleans are encoded separately as levels and never hit this
// path.
func ValidateValue(v int) error {
	if v < 0 || v > 255 {
		return fmt.Errorf("%w: %d out of range 0-255", ErrInvalidValue, v)
	}
	return nil
}

// ValidateSpeed reports whether s is a settable motor speed (1-255).
func ValidateSpeed(s int) error {
	if s <= 0 || s >= 256 {
		return fmt.Errorf("%w: %d out of range 1-255", ErrInvalidSpeed, s)
	}
	return nil
}

// FormatValue renders an integer value in the minimal hexadecimal form the
// controller parses, with a leading '-' for negative inputs. Validation
// keeps negatives off the wire; the sign handling exists so the formatter
// itself is total.
func FormatValue(v int) string {
	if v < 0 {
		return "-" + strconv.FormatInt(int64(-v), 16)
	}
	return strconv.FormatInt(int64(v), 16)
}

// ParseValue parses the hexadecimal value form produced by FormatValue.
func ParseValue(s string) (int, error) {
	v, err := strconv.ParseInt(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a hex value", ErrMalformedResponse, s)
	}
	return int(v), nil
}

// FormatLevel renders a boolean level: 'H' for on, 'L' for off.
func FormatLevel(on bool) string {
	if on {
		return "H"
	}
	return "L"
}

// ParseLevel parses a level code produced by FormatLevel.
func ParseLevel(s string) (bool, error) {
	switch s {
	case "H":
		return true, nil
	case "L":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not a level code", ErrMalformedResponse, s)
}

// FormatSpeed renders a stepper speed as zero-padded decimal digits.
func FormatSpeed(speed int) string {
	return fmt.Sprintf("%02d", speed)
}

// EncodeSetLevel produces the frame setting a port to a boolean level:
// "PP:H" or "PP:L".
func EncodeSetLevel(p Port, on bool) string {
	return fmt.Sprintf("%s%c%s", p, sepValue, FormatLevel(on))
}

// EncodeSetValue produces the frame setting a port to an integer value:
// "PP:VV" with VV in minimal hex.
func EncodeSetValue(p Port, v int) (string, error) {
	if err := ValidateValue(v); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%c%s", p, sepValue, FormatValue(v)), nil
}

// EncodeSetMode produces the frame setting a port's mode: "PP-M".
func EncodeSetMode(p Port, m Mode) string {
	return fmt.Sprintf("%s%c%c", p, sepMode, m.Code())
}

// EncodeSetSpeed produces the frame setting a motor speed. DC motor
// channels take speed as a plain value write; stepper channels use the
// 2-digit decimal form "PP-DD". Any other port class fails with
// ErrUnsupportedSpeedPort.
func EncodeSetSpeed(p Port, speed int) (string, error) {
	if err := ValidateSpeed(speed); err != nil {
		return "", err
	}
	switch p.Class() {
	case ClassMotor:
		return EncodeSetValue(p, speed)
	case ClassStepper:
		return fmt.Sprintf("%s%c%s", p, sepMode, FormatSpeed(speed)), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedSpeedPort, p)
}

// EncodeRead produces the read-request frame for a port: "PP?".
func EncodeRead(p Port) string {
	return fmt.Sprintf("%s%c", p, sepRead)
}

// DecodeValueResponse parses a telemetry line as a decimal integer value.
func DecodeValueResponse(line string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrMalformedResponse, line)
	}
	return v, nil
}
