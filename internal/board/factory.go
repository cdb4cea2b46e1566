package board

import (
	"fmt"
	"strconv"

	"github.com/clambin/ledrotator/internal/configuration"
)

// New creates the board described by the configuration
func New(cfg configuration.BoardConfiguration) (Board, error) {
	switch cfg.Type {
	case configuration.BoardSimulated:
		return &Recorder{MaxEvents: 100}, nil
	case configuration.BoardSysfs:
		return NewSysfs(cfg.LEDs())
	case configuration.BoardGPIO:
		return NewGPIO(cfg.LEDs())
	case configuration.BoardRPIO:
		var pins [ColorCount]uint8
		for i, name := range cfg.LEDs() {
			pin, err := strconv.ParseUint(name, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("%s led: invalid pin number %q: %w", Colors[i], name, err)
			}
			pins[i] = uint8(pin)
		}
		return NewRPIO(pins)
	}
	return nil, fmt.Errorf("invalid board type: %q", cfg.Type)
}
