//go:build !linux

package device

import (
	"errors"

	"github.com/rs/zerolog"
)

var ErrJoystickUnsupported = errors.New("device: joystick backend unsupported on this platform")

type JSDevice struct {
	axisState
}

func ScanJoysticks() ([]string, error) { return nil, nil }

func OpenJoystick(string, zerolog.Logger) (*JSDevice, error) {
	return nil, ErrJoystickUnsupported
}

func (j *JSDevice) Name() string { return "" }

func (j *JSDevice) Close() error { return nil }
