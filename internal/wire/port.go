// Package wire encodes controller commands into their textual frame format
// and decodes telemetry lines coming back. It owns no I/O: every operation
// validates its inputs and either returns a complete frame or an error, so a
// partially-formatted command can never reach the serial link.
package wire

import "fmt"

// PortClass identifies the device class a port designator addresses.
type PortClass int

const (
	// ClassDigital is a plain digital pin, 0-13.
	ClassDigital PortClass = iota
	// ClassAnalog is an analog pin, A0-A5.
	ClassAnalog
	// ClassMotor is a DC motor channel on the motor shield, M0-M3.
	ClassMotor
	// ClassStepper is a stepper channel on the motor shield, S0-S1.
	ClassStepper
)

// classLimit is the exclusive upper bound on the index of each class.
var classLimit = map[PortClass]int{
	ClassDigital: 14,
	ClassAnalog:  6,
	ClassMotor:   4,
	ClassStepper: 2,
}

// Port is a validated port designator. The zero value is digital pin 0.
type Port struct {
	class PortClass
	index int
}

// DigitalPin returns the Port for a plain digital pin number.
func DigitalPin(pin int) (Port, error) {
	if pin < 0 || pin >= classLimit[ClassDigital] {
		return Port{}, fmt.Errorf("%w: pin %d out of range 0-13", ErrInvalidPort, pin)
	}
	return Port{class: ClassDigital, index: pin}, nil
}

// ParsePort parses a 2-character port code: "00"-"13" for digital pins,
// "A0"-"A5" for analog pins, "M0"-"M3" for DC motors, "S0"-"S1" for
// steppers. Anything else, including the empty string and longer codes,
// fails with ErrInvalidPort.
func ParsePort(code string) (Port, error) {
	if len(code) != 2 {
		return Port{}, fmt.Errorf("%w: %q is not a 2-character code", ErrInvalidPort, code)
	}

	var class PortClass
	switch code[0] {
	case 'A':
		class = ClassAnalog
	case 'M':
		class = ClassMotor
	case 'S':
		class = ClassStepper
	default:
		// Both characters must be bare ASCII digits: sign prefixes like
		// "+7" are not port codes.
		if code[0] < '0' || code[0] > '9' || code[1] < '0' || code[1] > '9' {
			return Port{}, fmt.Errorf("%w: %q", ErrInvalidPort, code)
		}
		return DigitalPin(int(code[0]-'0')*10 + int(code[1]-'0'))
	}

	digit := code[1]
	if digit < '0' || digit > '9' || int(digit-'0') >= classLimit[class] {
		return Port{}, fmt.Errorf("%w: %q", ErrInvalidPort, code)
	}
	return Port{class: class, index: int(digit - '0')}, nil
}

// Class returns the device class of the port.
func (p Port) Class() PortClass { return p.class }

// Index returns the index of the port within its class.
func (p Port) Index() int { return p.index }

// String renders the canonical 2-character wire form of the port. Digital
// pins under 10 are zero-padded so every frame starts with exactly two
// port characters.
func (p Port) String() string {
	switch p.class {
	case ClassAnalog:
		return fmt.Sprintf("A%d", p.index)
	case ClassMotor:
		return fmt.Sprintf("M%d", p.index)
	case ClassStepper:
		return fmt.Sprintf("S%d", p.index)
	default:
		return fmt.Sprintf("%02d", p.index)
	}
}
