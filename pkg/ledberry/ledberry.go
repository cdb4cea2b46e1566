// Package ledberry drives a LED exposed through the Linux LED class in sysfs (e.g. /sys/class/leds/led0).
package ledberry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidMode is returned when setting a trigger mode the LED doesn't support
var ErrInvalidMode = errors.New("invalid mode")

const defaultMaxBrightness = 255

// LED represents one sysfs LED
type LED struct {
	path          string
	maxBrightness int
}

// New returns a LED for the sysfs directory at path. If the LED reports its maximum brightness,
// switching the LED on uses that value. Otherwise, 255 is used.
func New(path string) (*LED, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("led: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("led: %s is not a directory", path)
	}
	l := LED{path: path, maxBrightness: defaultMaxBrightness}
	if value, err := l.readInt("max_brightness"); err == nil && value > 0 {
		l.maxBrightness = value
	}
	return &l, nil
}

// Path returns the sysfs directory of the LED
func (l *LED) Path() string {
	return l.path
}

// Set switches the LED on or off
func (l *LED) Set(on bool) error {
	if on {
		return l.SetBrightness(l.maxBrightness)
	}
	return l.SetBrightness(0)
}

// Get reports whether the LED is on
func (l *LED) Get() (bool, error) {
	value, err := l.GetBrightness()
	return value > 0, err
}

// GetBrightness returns the current brightness of the LED
func (l *LED) GetBrightness() (int, error) {
	return l.readInt("brightness")
}

// SetBrightness sets the brightness of the LED
func (l *LED) SetBrightness(value int) error {
	return os.WriteFile(filepath.Join(l.path, "brightness"), []byte(strconv.Itoa(value)), 0644)
}

// GetModes returns all trigger modes supported by the LED
func (l *LED) GetModes() ([]string, error) {
	content, err := l.readTrigger()
	if err != nil {
		return nil, err
	}
	modes := strings.Fields(content)
	for i := range modes {
		modes[i] = strings.TrimSuffix(strings.TrimPrefix(modes[i], "["), "]")
	}
	return modes, nil
}

var activeModeRegExp = regexp.MustCompile(`\[(.+?)]`)

// GetActiveMode returns the current trigger mode. If no mode is active, an empty string is returned.
func (l *LED) GetActiveMode() (string, error) {
	content, err := l.readTrigger()
	if err != nil {
		return "", err
	}
	if matches := activeModeRegExp.FindStringSubmatch(content); matches != nil {
		return matches[1], nil
	}
	return "", nil
}

// SetActiveMode sets the trigger mode. If the mode is already active, the trigger isn't written.
func (l *LED) SetActiveMode(mode string) error {
	modes, err := l.GetModes()
	if err != nil {
		return err
	}
	var valid bool
	for _, m := range modes {
		valid = valid || m == mode
	}
	if !valid {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if active, _ := l.GetActiveMode(); active == mode {
		return nil
	}
	return os.WriteFile(filepath.Join(l.path, "trigger"), []byte(mode), 0644)
}

func (l *LED) readTrigger() (string, error) {
	content, err := os.ReadFile(filepath.Join(l.path, "trigger"))
	if err != nil {
		return "", err
	}
	if len(content) == 0 {
		return "", errors.New("no trigger modes found")
	}
	return string(content), nil
}

func (l *LED) readInt(name string) (int, error) {
	content, err := os.ReadFile(filepath.Join(l.path, name))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(content)))
}
