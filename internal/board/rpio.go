package board

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// rpioPin is the subset of rpio.Pin used by RPIO
type rpioPin interface {
	Output()
	High()
	Low()
	Read() rpio.State
}

// RPIO drives LEDs wired to the GPIO pins of a Raspberry Pi, through /dev/gpiomem
type RPIO struct {
	pins  [ColorCount]rpioPin
	close func() error
}

var _ Board = &RPIO{}
var _ Reader = &RPIO{}

// NewRPIO maps the Raspberry Pi's GPIO memory and returns a board for the given BCM pin numbers.
// Close must be called to unmap the memory.
func NewRPIO(bcm [ColorCount]uint8) (*RPIO, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("rpio: %w", err)
	}
	var pins [ColorCount]rpioPin
	for _, c := range Colors {
		pins[c] = rpio.Pin(bcm[c])
	}
	return newRPIO(pins, rpio.Close), nil
}

func newRPIO(pins [ColorCount]rpioPin, closer func() error) *RPIO {
	for _, pin := range pins {
		pin.Output()
	}
	return &RPIO{pins: pins, close: closer}
}

// SetLED switches a LED on or off
func (r *RPIO) SetLED(color Color, on bool) error {
	if err := checkColor(color); err != nil {
		return err
	}
	if on {
		r.pins[color].High()
	} else {
		r.pins[color].Low()
	}
	return nil
}

// ClearAll switches off all LEDs
func (r *RPIO) ClearAll() error {
	return clearAll(r)
}

// LED reports if a LED is on
func (r *RPIO) LED(color Color) (bool, error) {
	if err := checkColor(color); err != nil {
		return false, err
	}
	return r.pins[color].Read() == rpio.High, nil
}

// Close releases the GPIO memory
func (r *RPIO) Close() error {
	return r.close()
}
