package device

import (
	"encoding/binary"
	"errors"
	"sync"
)

const (
	jsEventSize   = 8
	jsEventButton = 0x01
	jsEventAxis   = 0x02
	jsEventInit   = 0x80
	jsAxisMax     = 32767
)

var ErrShortJoystickEvent = errors.New("device: short joystick event")

// jsEvent mirrors struct js_event from linux/joystick.h.
type jsEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

func decodeJSEvent(b []byte) (jsEvent, error) {
	if len(b) < jsEventSize {
		return jsEvent{}, ErrShortJoystickEvent
	}
	return jsEvent{
		Time:   binary.LittleEndian.Uint32(b[0:4]),
		Value:  int16(binary.LittleEndian.Uint16(b[4:6])),
		Type:   b[6],
		Number: b[7],
	}, nil
}

// axisState is the latest value of every axis and button seen on a joystick
// event stream. Safe for one writer and concurrent readers.
type axisState struct {
	mu      sync.RWMutex
	axes    [256]float64
	buttons [256]bool
}

func (s *axisState) apply(ev jsEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch ev.Type &^ jsEventInit {
	case jsEventAxis:
		v := float64(ev.Value) / jsAxisMax
		s.axes[ev.Number] = clamp(v)
	case jsEventButton:
		s.buttons[ev.Number] = ev.Value != 0
	}
}

func (s *axisState) Axis(i int) float64 {
	if i < 0 || i >= len(s.axes) {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.axes[i]
}

func (s *axisState) Button(i int) bool {
	if i < 0 || i >= len(s.buttons) {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buttons[i]
}
