package discovery

import (
	"context"
	"errors"
	"testing"
)

func TestParseConnection(t *testing.T) {
	got, err := ParseConnection("192.168.1.10,9000, 9001,9002", false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := Endpoints{
		Push:      "ws://192.168.1.10:9000/",
		Subscribe: "ws://192.168.1.10:9001/",
		Reply:     "192.168.1.10:9002",
	}
	if got != want {
		t.Fatalf("unexpected endpoints: %+v", got)
	}

	got, err = ParseConnection("::1,1,2,3", true)
	if err != nil {
		t.Fatalf("parse ipv6: %v", err)
	}
	if got.Push != "wss://[::1]:1/" || got.Reply != "[::1]:3" {
		t.Fatalf("unexpected ipv6 endpoints: %+v", got)
	}
}

func TestParseConnectionRejectsBadInput(t *testing.T) {
	for _, raw := range []string{
		"",
		"host,1,2",
		"host,1,2,3,4",
		",1,2,3",
		"host,0,2,3",
		"host,x,2,3",
		"host,1,70000,3",
	} {
		if _, err := ParseConnection(raw, false); !errors.Is(err, ErrInvalidConnection) {
			t.Fatalf("ParseConnection(%q) err=%v", raw, err)
		}
	}
}

func TestStaticResolve(t *testing.T) {
	e, err := ParseConnection("localhost,1,2,3", false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	got, err := Static(e).Resolve(context.Background())
	if err != nil || got != e {
		t.Fatalf("resolve: %+v %v", got, err)
	}

	if _, err := (Static{Push: "ws://x:1/", Subscribe: "ws://x:2/"}).Resolve(context.Background()); !errors.Is(err, ErrEndpointRequired) {
		t.Fatalf("expected missing reply, got %v", err)
	}
	if _, err := (Static{Push: "tcp://x:1", Subscribe: "ws://x:2/", Reply: "x:3"}).Resolve(context.Background()); !errors.Is(err, ErrInvalidEndpointURL) {
		t.Fatalf("expected invalid url, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Static(e).Resolve(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
}
