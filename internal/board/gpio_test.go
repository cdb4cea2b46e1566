package board

import (
	"testing"

	"github.com/stianeikeland/go-rpio/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestGPIO(t *testing.T) {
	pins := [ColorCount]gpio.PinIO{
		&gpiotest.Pin{N: "GPIO17", L: gpio.High},
		&gpiotest.Pin{N: "GPIO27"},
		&gpiotest.Pin{N: "GPIO22"},
	}
	g := newGPIO(pins)

	require.NoError(t, g.ClearAll())
	for _, c := range Colors {
		assert.Equal(t, gpio.Low, pins[c].Read())
	}

	require.NoError(t, g.SetLED(Green, true))
	assert.Equal(t, gpio.High, pins[Green].Read())
	on, err := g.LED(Green)
	require.NoError(t, err)
	assert.True(t, on)

	assert.ErrorIs(t, g.SetLED(Color(3), true), ErrInvalidColor)
}

type fakeRPIOPin struct {
	output bool
	state  rpio.State
}

func (p *fakeRPIOPin) Output()          { p.output = true }
func (p *fakeRPIOPin) High()            { p.state = rpio.High }
func (p *fakeRPIOPin) Low()             { p.state = rpio.Low }
func (p *fakeRPIOPin) Read() rpio.State { return p.state }

func TestRPIO(t *testing.T) {
	var fakes [ColorCount]*fakeRPIOPin
	var pins [ColorCount]rpioPin
	for _, c := range Colors {
		fakes[c] = &fakeRPIOPin{}
		pins[c] = fakes[c]
	}
	var closed bool
	r := newRPIO(pins, func() error { closed = true; return nil })
	for _, c := range Colors {
		assert.True(t, fakes[c].output)
	}

	require.NoError(t, r.SetLED(Red, true))
	assert.Equal(t, rpio.High, fakes[Red].state)
	on, err := r.LED(Red)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, r.ClearAll())
	assert.Equal(t, rpio.Low, fakes[Red].state)

	_, err = r.LED(Color(7))
	assert.ErrorIs(t, err, ErrInvalidColor)

	require.NoError(t, r.Close())
	assert.True(t, closed)
}
