// Package config loads the orwellctl TOML file on top of built-in defaults.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/orwellctl/internal/device"
	"github.com/danmuck/orwellctl/internal/discovery"
	"github.com/danmuck/orwellctl/internal/transport"
)

const (
	DeviceJoystick = "joystick"
	DeviceKeyboard = "keyboard"
	DeviceConsole  = "console"
)

var ErrInvalidConfig = errors.New("config: invalid")

type TLSConfig struct {
	Enabled            bool
	CAFile             string
	ServerName         string
	InsecureSkipVerify bool
}

func (t TLSConfig) Transport() transport.TLSConfig {
	return transport.TLSConfig{
		Enabled:            t.Enabled,
		CAFile:             t.CAFile,
		ServerName:         t.ServerName,
		InsecureSkipVerify: t.InsecureSkipVerify,
	}
}

type Config struct {
	Name string

	// Connection is "host,push_port,subscribe_port,reply_port" and wins over
	// the explicit addresses when set.
	Connection       string
	PushAddress      string
	SubscribeAddress string
	ReplyAddress     string

	Devices   []string
	Joysticks []string
	DeadZone  float64
	Angle     float64
	Precision float64

	PollInterval     time.Duration
	HandshakeTimeout time.Duration
	PingTimeout      time.Duration
	RequestTimeout   time.Duration
	InboxSize        int

	StatusAddr  string
	CORSOrigins []string
	TLS         TLSConfig
}

func DefaultConfig() Config {
	js := device.DefaultJoystickConfig()
	return Config{
		Name:             "orwellctl",
		PushAddress:      "ws://127.0.0.1:9000/",
		SubscribeAddress: "ws://127.0.0.1:9001/",
		ReplyAddress:     "127.0.0.1:9002",
		Devices:          []string{DeviceJoystick},
		Joysticks:        []string{},
		DeadZone:         js.DeadZone,
		Angle:            js.Angle,
		Precision:        js.Precision,
		PollInterval:     10 * time.Millisecond,
		PingTimeout:      5 * time.Second,
		InboxSize:        256,
		StatusAddr:       "127.0.0.1:9090",
		CORSOrigins:      []string{"http://localhost:3000"},
	}
}

func (c Config) Joystick() device.JoystickConfig {
	return device.JoystickConfig{DeadZone: c.DeadZone, Angle: c.Angle, Precision: c.Precision}
}

// Resolver returns the endpoint source described by the config.
func (c Config) Resolver() (discovery.Resolver, error) {
	if strings.TrimSpace(c.Connection) != "" {
		e, err := discovery.ParseConnection(c.Connection, c.TLS.Enabled)
		if err != nil {
			return nil, err
		}
		return discovery.Static(e), nil
	}
	e := discovery.Endpoints{
		Push:      strings.TrimSpace(c.PushAddress),
		Subscribe: strings.TrimSpace(c.SubscribeAddress),
		Reply:     strings.TrimSpace(c.ReplyAddress),
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return discovery.Static(e), nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidConfig)
	}
	if len(c.Devices) == 0 {
		return fmt.Errorf("%w: at least one device required", ErrInvalidConfig)
	}
	for _, d := range c.Devices {
		if !slices.Contains([]string{DeviceJoystick, DeviceKeyboard, DeviceConsole}, d) {
			return fmt.Errorf("%w: unknown device %q", ErrInvalidConfig, d)
		}
	}
	if slices.Contains(c.Devices, DeviceJoystick) {
		if err := c.Joystick().Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	for name, d := range map[string]time.Duration{
		"poll_interval":     c.PollInterval,
		"handshake_timeout": c.HandshakeTimeout,
		"ping_timeout":      c.PingTimeout,
		"request_timeout":   c.RequestTimeout,
	} {
		if d < 0 {
			return fmt.Errorf("%w: %s must be >= 0", ErrInvalidConfig, name)
		}
	}
	if c.InboxSize <= 0 {
		return fmt.Errorf("%w: inbox_size must be > 0", ErrInvalidConfig)
	}
	if err := c.TLS.Transport().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Resolver(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

type fileTLS struct {
	Enabled            bool   `toml:"enabled"`
	CAFile             string `toml:"ca_file"`
	ServerName         string `toml:"server_name"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

type fileConfig struct {
	Name             string   `toml:"name"`
	Connection       string   `toml:"connection"`
	PushAddress      string   `toml:"push_address"`
	SubscribeAddress string   `toml:"subscribe_address"`
	ReplyAddress     string   `toml:"reply_address"`
	Devices          []string `toml:"devices"`
	Joysticks        []string `toml:"joysticks"`
	DeadZone         float64  `toml:"dead_zone"`
	Angle            float64  `toml:"angle"`
	Precision        float64  `toml:"precision"`
	PollInterval     string   `toml:"poll_interval"`
	HandshakeTimeout string   `toml:"handshake_timeout"`
	PingTimeout      string   `toml:"ping_timeout"`
	RequestTimeout   string   `toml:"request_timeout"`
	InboxSize        int      `toml:"inbox_size"`
	StatusAddr       string   `toml:"status_addr"`
	CORSOrigins      []string `toml:"cors_origins"`
	TLS              fileTLS  `toml:"tls"`
}

// Load decodes path and applies every defined key over DefaultConfig.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load orwellctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%w: unknown key %q", ErrInvalidConfig, undecoded[0].String())
	}

	setString := func(key string, dst *string, v string) {
		if meta.IsDefined(key) {
			*dst = strings.TrimSpace(v)
		}
	}
	setString("name", &cfg.Name, raw.Name)
	setString("connection", &cfg.Connection, raw.Connection)
	setString("push_address", &cfg.PushAddress, raw.PushAddress)
	setString("subscribe_address", &cfg.SubscribeAddress, raw.SubscribeAddress)
	setString("reply_address", &cfg.ReplyAddress, raw.ReplyAddress)
	setString("status_addr", &cfg.StatusAddr, raw.StatusAddr)

	if meta.IsDefined("devices") {
		cfg.Devices = normalizeList(raw.Devices, true)
	}
	if meta.IsDefined("joysticks") {
		cfg.Joysticks = normalizeList(raw.Joysticks, false)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CORSOrigins = normalizeList(raw.CORSOrigins, false)
	}
	if meta.IsDefined("dead_zone") {
		cfg.DeadZone = raw.DeadZone
	}
	if meta.IsDefined("angle") {
		cfg.Angle = raw.Angle
	}
	if meta.IsDefined("precision") {
		cfg.Precision = raw.Precision
	}
	if meta.IsDefined("inbox_size") {
		cfg.InboxSize = raw.InboxSize
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"poll_interval", raw.PollInterval, &cfg.PollInterval},
		{"handshake_timeout", raw.HandshakeTimeout, &cfg.HandshakeTimeout},
		{"ping_timeout", raw.PingTimeout, &cfg.PingTimeout},
		{"request_timeout", raw.RequestTimeout, &cfg.RequestTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if meta.IsDefined("tls", "enabled") {
		cfg.TLS.Enabled = raw.TLS.Enabled
	}
	if meta.IsDefined("tls", "ca_file") {
		cfg.TLS.CAFile = strings.TrimSpace(raw.TLS.CAFile)
	}
	if meta.IsDefined("tls", "server_name") {
		cfg.TLS.ServerName = strings.TrimSpace(raw.TLS.ServerName)
	}
	if meta.IsDefined("tls", "insecure_skip_verify") {
		cfg.TLS.InsecureSkipVerify = raw.TLS.InsecureSkipVerify
	}
	return cfg, nil
}

func normalizeList(in []string, lower bool) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if lower {
			v = strings.ToLower(v)
		}
		out = append(out, v)
	}
	return out
}
