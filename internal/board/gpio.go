package board

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIO drives LEDs wired to GPIO pins, using periph.io
type GPIO struct {
	pins [ColorCount]gpio.PinIO
}

var _ Board = &GPIO{}
var _ Reader = &GPIO{}

// NewGPIO initializes the host's GPIO drivers and returns a board for the named pins (e.g. "GPIO17")
func NewGPIO(names [ColorCount]string) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpio: %w", err)
	}
	var pins [ColorCount]gpio.PinIO
	for _, c := range Colors {
		if pins[c] = gpioreg.ByName(names[c]); pins[c] == nil {
			return nil, fmt.Errorf("%s led: unknown gpio pin %q", c, names[c])
		}
	}
	return newGPIO(pins), nil
}

func newGPIO(pins [ColorCount]gpio.PinIO) *GPIO {
	return &GPIO{pins: pins}
}

// SetLED switches a LED on or off
func (g *GPIO) SetLED(color Color, on bool) error {
	if err := checkColor(color); err != nil {
		return err
	}
	if err := g.pins[color].Out(gpio.Level(on)); err != nil {
		return fmt.Errorf("%s led: %w", color, err)
	}
	return nil
}

// ClearAll switches off all LEDs
func (g *GPIO) ClearAll() error {
	return clearAll(g)
}

// LED reports if a LED is on
func (g *GPIO) LED(color Color) (bool, error) {
	if err := checkColor(color); err != nil {
		return false, err
	}
	return bool(g.pins[color].Read()), nil
}
