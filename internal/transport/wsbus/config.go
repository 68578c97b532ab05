package wsbus

import (
	"time"

	"github.com/danmuck/orwellctl/internal/transport"
)

const (
	ControlUnsubscribe byte = 0x00
	ControlSubscribe   byte = 0x01
)

// Config controls dialing and buffering for both channel kinds.
type Config struct {
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ReadLimit        int64
	// ReadTimeout fails the subscription when nothing, not even a pong,
	// arrives for this long. Pings go out every 2/5 of it. Negative disables.
	ReadTimeout time.Duration
	InboxSize   int
	TLS         transport.TLSConfig
}

func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     2 * time.Second,
		ReadLimit:        1024 * 1024,
		ReadTimeout:      60 * time.Second,
		InboxSize:        256,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = d.ReadLimit
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.InboxSize <= 0 {
		c.InboxSize = d.InboxSize
	}
	return c
}
