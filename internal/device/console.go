package device

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Console is a KeyReader fed by text lines, for terminals without raw key
// events. Each line replaces the held keys:
//
//	l  left      r  right
//	1  weapon 1  2  weapon 2
//	p  ping (momentary)
//
// An empty line releases everything.
type Console struct {
	log  zerolog.Logger
	mu   sync.Mutex
	held Keys
	ping bool
	done chan struct{}
}

var _ KeyReader = (*Console)(nil)

func NewConsole(logger zerolog.Logger) *Console {
	return &Console{log: logger, done: make(chan struct{})}
}

// Start reads lines from r in the background until EOF.
func (c *Console) Start(r io.Reader) {
	go c.read(r)
}

// Done is closed once the input stream ended.
func (c *Console) Done() <-chan struct{} { return c.done }

func (c *Console) Keys() Keys {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := c.held
	keys.P = c.ping
	c.ping = false
	return keys
}

// Apply parses one input line.
func (c *Console) Apply(line string) {
	var next Keys
	ping := false
	for _, ch := range strings.ToLower(strings.TrimSpace(line)) {
		switch ch {
		case 'l':
			next.Left = true
		case 'r':
			next.Right = true
		case '1':
			next.Enter = true
		case '2':
			next.Space = true
		case 'p':
			ping = true
		case ' ', ',':
		default:
			c.log.Debug().Str("key", string(ch)).Msg("device.Console.Apply ignored key")
		}
	}
	c.mu.Lock()
	c.held = next
	if ping {
		c.ping = true
	}
	c.mu.Unlock()
}

func (c *Console) read(r io.Reader) {
	defer close(c.done)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		c.Apply(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		c.log.Warn().Err(err).Msg("device.Console.read stopped")
	}
	c.mu.Lock()
	c.held = Keys{}
	c.mu.Unlock()
}
