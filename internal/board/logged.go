package board

import (
	"errors"

	log "github.com/sirupsen/logrus"
)

// ErrNotSupported is returned when reading the LEDs of a board that can't report their state
var ErrNotSupported = errors.New("not supported")

type loggedBoard struct {
	Board
	logger *log.Entry
}

// Logged returns a Board that logs every LED transition of b at debug level
func Logged(b Board, logger *log.Entry) Board {
	return &loggedBoard{Board: b, logger: logger}
}

func (l *loggedBoard) SetLED(color Color, on bool) error {
	err := l.Board.SetLED(color, on)
	l.logger.WithError(err).WithFields(log.Fields{
		"color": color,
		"state": on,
	}).Debug("SetLED")
	return err
}

func (l *loggedBoard) ClearAll() error {
	err := l.Board.ClearAll()
	l.logger.WithError(err).Debug("ClearAll")
	return err
}

func (l *loggedBoard) LED(color Color) (bool, error) {
	if r, ok := l.Board.(Reader); ok {
		return r.LED(color)
	}
	return false, ErrNotSupported
}
