// Package device models the peripherals hanging off the board controller:
// digital outputs, digital inputs, and the 8x8 presence-sensor matrix under
// the squares. Inputs are read through the per-cycle cache in
// internal/poll, so one poll cycle costs at most one link round trip per
// sensor.
package device

import (
	"github.com/chessmech/boardlink/internal/poll"
	"github.com/chessmech/boardlink/internal/serialmux"
	"github.com/chessmech/boardlink/internal/wire"
)

// DigitalOutput drives one output pin. The pin is put into OUTPUT mode and
// switched off on construction.
type DigitalOutput struct {
	link     serialmux.Link
	port     wire.Port
	reversed bool
	on       bool
}

// NewDigitalOutput configures the pin as an output and drives it off.
// reversed inverts the wire level for active-low hardware.
func NewDigitalOutput(link serialmux.Link, port wire.Port, reversed bool) (*DigitalOutput, error) {
	d := &DigitalOutput{link: link, port: port, reversed: reversed}
	if err := link.Send(wire.EncodeSetMode(port, wire.ModeOutput)); err != nil {
		return nil, err
	}
	if err := d.Set(false); err != nil {
		return nil, err
	}
	return d, nil
}

// Set drives the output. The logical state is tracked only after a
// successful write, so hardware and bookkeeping cannot diverge silently.
func (d *DigitalOutput) Set(on bool) error {
	if err := d.link.Send(wire.EncodeSetLevel(d.port, on != d.reversed)); err != nil {
		return err
	}
	d.on = on
	return nil
}

// On drives the output on.
func (d *DigitalOutput) On() error { return d.Set(true) }

// Off drives the output off.
func (d *DigitalOutput) Off() error { return d.Set(false) }

// Toggle flips the output and returns the new logical state.
func (d *DigitalOutput) Toggle() (bool, error) {
	if err := d.Set(!d.on); err != nil {
		return d.on, err
	}
	return d.on, nil
}

// IsOn returns the last successfully written logical state.
func (d *DigitalOutput) IsOn() bool { return d.on }

// DigitalInput reads one input pin through the per-cycle cache and exposes
// rising/falling edge detection between consecutive cycles.
type DigitalInput struct {
	cache *poll.Cached[bool]
	port  wire.Port
}

// NewDigitalInput configures the pin as an input.
func NewDigitalInput(link serialmux.Link, port wire.Port, reversed bool) (*DigitalInput, error) {
	if err := link.Send(wire.EncodeSetMode(port, wire.ModeInput)); err != nil {
		return nil, err
	}
	fetch := func() (bool, error) {
		line, err := link.Request(wire.EncodeRead(port))
		if err != nil {
			return false, err
		}
		v, err := wire.DecodeValueResponse(line)
		if err != nil {
			return false, err
		}
		return (v == 1) != reversed, nil
	}
	return &DigitalInput{cache: poll.NewCached(fetch, false), port: port}, nil
}

// Value returns this cycle's reading, fetching it at most once per cycle.
func (d *DigitalInput) Value() (bool, error) { return d.cache.Value() }

// Reset advances to the next poll cycle.
func (d *DigitalInput) Reset() error { return d.cache.Reset() }

// Newly reports a rising edge: on now, off in the previous cycle. ok is
// false when no previous sample exists yet.
func (d *DigitalInput) Newly() (edge, ok bool, err error) {
	last, ok := d.cache.Last()
	if !ok {
		return false, false, nil
	}
	cur, err := d.cache.Value()
	if err != nil {
		return false, false, err
	}
	return cur && !last, true, nil
}

// Oldly reports a falling edge: off now, on in the previous cycle.
func (d *DigitalInput) Oldly() (edge, ok bool, err error) {
	last, ok := d.cache.Last()
	if !ok {
		return false, false, nil
	}
	cur, err := d.cache.Value()
	if err != nil {
		return false, false, err
	}
	return !cur && last, true, nil
}
