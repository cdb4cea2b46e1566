package board

import (
	"fmt"

	"github.com/clambin/ledrotator/pkg/ledberry"
)

// Sysfs drives LEDs exposed in /sys/class/leds
type Sysfs struct {
	leds [ColorCount]*ledberry.LED
}

var _ Board = &Sysfs{}
var _ Reader = &Sysfs{}

// NewSysfs returns a board for the sysfs LED directories of the red, green and blue LEDs.
// Each LED's trigger is set to "none", so the kernel doesn't interfere.
func NewSysfs(paths [ColorCount]string) (*Sysfs, error) {
	var s Sysfs
	for _, c := range Colors {
		led, err := ledberry.New(paths[c])
		if err == nil {
			err = led.SetActiveMode("none")
		}
		if err != nil {
			return nil, fmt.Errorf("%s led: %w", c, err)
		}
		s.leds[c] = led
	}
	return &s, nil
}

// SetLED switches a LED on or off
func (s *Sysfs) SetLED(color Color, on bool) error {
	if err := checkColor(color); err != nil {
		return err
	}
	return s.leds[color].Set(on)
}

// ClearAll switches off all LEDs
func (s *Sysfs) ClearAll() error {
	return clearAll(s)
}

// LED reports if a LED is on
func (s *Sysfs) LED(color Color) (bool, error) {
	if err := checkColor(color); err != nil {
		return false, err
	}
	return s.leds[color].Get()
}
