// Package discovery resolves the three bus endpoints a session connects to.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

var (
	ErrEndpointRequired   = errors.New("discovery: endpoint required")
	ErrInvalidConnection  = errors.New("discovery: invalid connection string")
	ErrInvalidEndpointURL = errors.New("discovery: invalid endpoint url")
)

// Endpoints are the push and subscribe websocket urls and the reply
// host:port of one game server.
type Endpoints struct {
	Push      string
	Subscribe string
	Reply     string
}

func (e Endpoints) Validate() error {
	if strings.TrimSpace(e.Push) == "" {
		return fmt.Errorf("%w: push", ErrEndpointRequired)
	}
	if strings.TrimSpace(e.Subscribe) == "" {
		return fmt.Errorf("%w: subscribe", ErrEndpointRequired)
	}
	if strings.TrimSpace(e.Reply) == "" {
		return fmt.Errorf("%w: reply", ErrEndpointRequired)
	}
	for _, raw := range []string{e.Push, e.Subscribe} {
		if !strings.HasPrefix(raw, "ws://") && !strings.HasPrefix(raw, "wss://") {
			return fmt.Errorf("%w: %q", ErrInvalidEndpointURL, raw)
		}
	}
	if _, _, err := net.SplitHostPort(e.Reply); err != nil {
		return fmt.Errorf("%w: reply %q: %v", ErrInvalidEndpointURL, e.Reply, err)
	}
	return nil
}

// Resolver hands out endpoints for a session.
type Resolver interface {
	Resolve(ctx context.Context) (Endpoints, error)
}

// Static always resolves to the same endpoints.
type Static Endpoints

func (s Static) Resolve(ctx context.Context) (Endpoints, error) {
	if err := ctx.Err(); err != nil {
		return Endpoints{}, err
	}
	e := Endpoints(s)
	if err := e.Validate(); err != nil {
		return Endpoints{}, err
	}
	return e, nil
}

// ParseConnection expands "host,push_port,subscribe_port,reply_port".
// secure selects wss:// for the websocket channels.
func ParseConnection(raw string, secure bool) (Endpoints, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return Endpoints{}, fmt.Errorf("%w: want host,push,subscribe,reply got %q", ErrInvalidConnection, raw)
	}
	host := strings.TrimSpace(parts[0])
	if host == "" {
		return Endpoints{}, fmt.Errorf("%w: empty host", ErrInvalidConnection)
	}
	ports := make([]string, 0, 3)
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || n == 0 {
			return Endpoints{}, fmt.Errorf("%w: port %q", ErrInvalidConnection, p)
		}
		ports = append(ports, p)
	}

	scheme := "ws"
	if secure {
		scheme = "wss"
	}
	return Endpoints{
		Push:      scheme + "://" + net.JoinHostPort(host, ports[0]) + "/",
		Subscribe: scheme + "://" + net.JoinHostPort(host, ports[1]) + "/",
		Reply:     net.JoinHostPort(host, ports[2]),
	}, nil
}
