package device

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrUnknownJoystick = errors.New("device: unknown joystick model")
	ErrInvalidConfig   = errors.New("device: invalid joystick config")
)

// AxisReader exposes the raw state of one joystick. Axes are in [-1, 1].
type AxisReader interface {
	Name() string
	Axis(i int) float64
	Button(i int) bool
}

// Layout maps a joystick model onto speed, weapon, start and ping controls.
// A negative index means the control is absent.
type Layout struct {
	Model      string
	FactorAxis int
	FactorSign float64
	Weapon1    int
	Weapon2    int
	Start      int
	Ping       int
}

var (
	LayoutXInput = Layout{Model: "xinput", FactorAxis: 7, FactorSign: 1, Weapon1: 4, Weapon2: 6, Start: 9, Ping: 8}
	LayoutHOTAS  = Layout{Model: "T.Flight Hotas X", FactorAxis: 2, FactorSign: -1, Weapon1: 1, Weapon2: 0, Start: 11, Ping: 3}
)

// layoutNames maps lowercase name fragments to layouts. Linux reports
// XInput pads through JSIOCGNAME as e.g. "Microsoft X-Box 360 pad".
var layoutNames = []struct {
	fragment string
	layout   Layout
}{
	{"xinput", LayoutXInput},
	{"x-box", LayoutXInput},
	{"xbox", LayoutXInput},
	{"t.flight hotas x", LayoutHOTAS},
}

// LayoutFor picks the layout whose model name or alias appears in the
// device name, ignoring case.
func LayoutFor(name string) (Layout, error) {
	lower := strings.ToLower(name)
	for _, n := range layoutNames {
		if strings.Contains(lower, n.fragment) {
			return n.layout, nil
		}
	}
	return Layout{}, fmt.Errorf("%w: %q", ErrUnknownJoystick, name)
}

type JoystickConfig struct {
	DeadZone  float64
	Angle     float64
	Precision float64
}

func DefaultJoystickConfig() JoystickConfig {
	return JoystickConfig{
		DeadZone:  0.05,
		Angle:     math.Pi / 4,
		Precision: 0.025,
	}
}

func (c JoystickConfig) Validate() error {
	if !(c.Angle > 0 && c.Angle < math.Pi/2) {
		return fmt.Errorf("%w: angle %v outside (0, pi/2)", ErrInvalidConfig, c.Angle)
	}
	if c.Precision <= 0 {
		return fmt.Errorf("%w: precision must be > 0", ErrInvalidConfig)
	}
	if c.DeadZone < 0 || c.DeadZone >= 1 {
		return fmt.Errorf("%w: dead_zone %v outside [0, 1)", ErrInvalidConfig, c.DeadZone)
	}
	return nil
}

// Mix turns stick position (x, y) and a speed factor into differential
// drive wheel speeds. The stick frame is rotated by cfg.Angle, values are
// truncated to cfg.Precision, zeroed inside cfg.DeadZone and clamped.
func Mix(x, y, factor float64, cfg JoystickConfig) (left, right float64) {
	cos, sin := math.Cos(cfg.Angle), math.Sin(cfg.Angle)
	scale := (cos + sin) * 0.5
	left = quantize(factor*(x*cos+y*sin)/scale, cfg)
	right = quantize(factor*(y*cos-x*sin)/scale, cfg)
	return clamp(left), clamp(right)
}

func quantize(v float64, cfg JoystickConfig) float64 {
	q := math.Trunc(v/cfg.Precision) * cfg.Precision
	if math.Abs(q) < cfg.DeadZone {
		return 0
	}
	return q
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}

type joystickState struct {
	snap  Snapshot
	start bool
	ping  bool
}

// Joystick adapts an AxisReader with a known layout.
type Joystick struct {
	reader AxisReader
	layout Layout
	cfg    JoystickConfig
	invert float64

	cur         joystickState
	sampled     bool
	hasNew      bool
	pingPending bool
}

var _ Source = (*Joystick)(nil)

func NewJoystick(reader AxisReader, cfg JoystickConfig) (*Joystick, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	layout, err := LayoutFor(reader.Name())
	if err != nil {
		return nil, err
	}
	return &Joystick{reader: reader, layout: layout, cfg: cfg, invert: -1}, nil
}

func (j *Joystick) ID() string { return "joystick:" + j.reader.Name() }

func (j *Joystick) Layout() Layout { return j.layout }

func (j *Joystick) Process() {
	x := -j.reader.Axis(0)
	y := j.reader.Axis(1)
	factor := j.layout.FactorSign * j.invert * j.reader.Axis(j.layout.FactorAxis)

	var next joystickState
	next.snap.Left, next.snap.Right = Mix(x, y, factor, j.cfg)
	next.snap.FireWeapon1 = j.button(j.layout.Weapon1)
	next.snap.FireWeapon2 = j.button(j.layout.Weapon2)
	next.start = j.button(j.layout.Start)
	next.ping = j.button(j.layout.Ping)

	j.hasNew = !j.sampled || next != j.cur
	if next.ping && !j.cur.ping {
		j.pingPending = true
	}
	j.cur = next
	j.sampled = true
}

func (j *Joystick) HasNewValues() bool { return j.hasNew }

func (j *Joystick) BuildInput() Snapshot { return j.cur.snap }

func (j *Joystick) ConsumePendingPingRequest() bool {
	pending := j.pingPending
	j.pingPending = false
	return pending
}

// ToggleDirection flips the sign of the speed factor.
func (j *Joystick) ToggleDirection() { j.invert = -j.invert }

func (j *Joystick) button(i int) bool {
	if i < 0 {
		return false
	}
	return j.reader.Button(i)
}
