// Package board drives the three LEDs (red, green, blue) of the board.
package board

import (
	"errors"
	"fmt"
)

// Color identifies one of the board's LEDs
type Color int

const (
	Red Color = iota
	Green
	Blue
)

// ColorCount is the number of LEDs on the board
const ColorCount = 3

// Colors lists all LEDs, in rotation order
var Colors = [ColorCount]Color{Red, Green, Blue}

// ErrInvalidColor is returned for a Color that doesn't identify a LED
var ErrInvalidColor = errors.New("invalid color")

// Valid reports if c identifies a LED
func (c Color) Valid() bool {
	return c >= Red && c <= Blue
}

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	case Blue:
		return "blue"
	}
	return fmt.Sprintf("color(%d)", int(c))
}

// Board switches the LEDs of the board
type Board interface {
	SetLED(color Color, on bool) error
	ClearAll() error
}

// Reader is implemented by boards that can report the state of their LEDs
type Reader interface {
	LED(color Color) (bool, error)
}

type setter interface {
	SetLED(color Color, on bool) error
}

// clearAll switches off all LEDs of a board
func clearAll(b setter) error {
	for _, c := range Colors {
		if err := b.SetLED(c, false); err != nil {
			return err
		}
	}
	return nil
}

func checkColor(c Color) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidColor, int(c))
	}
	return nil
}

// States returns the state of all LEDs of a board, keyed by color name
func States(r Reader) (map[string]bool, error) {
	states := make(map[string]bool, ColorCount)
	for _, c := range Colors {
		on, err := r.LED(c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c, err)
		}
		states[c.String()] = on
	}
	return states, nil
}
