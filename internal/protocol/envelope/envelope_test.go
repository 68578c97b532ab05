package envelope

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Envelope{
		{Recipient: "42", MessageType: "Input", Payload: []byte{0x0a, 0x12, 0x09}},
		{Recipient: "all_clients", MessageType: "GameState", Payload: []byte("with spaces  inside ")},
		{Recipient: "temporary_id_1", MessageType: "Goodbye", Payload: []byte{}},
		{Recipient: "x", MessageType: "Pong", Payload: []byte{' ', ' ', 0x00, 0xff}},
	}
	for _, in := range cases {
		raw, err := Encode(in.Recipient, in.MessageType, in.Payload)
		if err != nil {
			t.Fatalf("encode %s: %v", in, err)
		}
		out, err := Decode(raw)
		if err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
		if out.Recipient != in.Recipient || out.MessageType != in.MessageType {
			t.Fatalf("token mismatch: in=%s out=%s", in, out)
		}
		if !bytes.Equal(out.Payload, in.Payload) {
			t.Fatalf("payload mismatch: in=%q out=%q", in.Payload, out.Payload)
		}
	}
}

func TestEncodeExactlyTwoSeparators(t *testing.T) {
	raw, err := Envelope{Recipient: "42", MessageType: "Ping", Payload: []byte("p")}.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(raw) != "42 Ping p" {
		t.Fatalf("unexpected wire bytes: %q", raw)
	}
}

func TestEncodeRejectsSpacesInTokens(t *testing.T) {
	if _, err := Encode("4 2", "Input", nil); !errors.Is(err, ErrMalformedEnvelope) {
		t.Fatalf("expected ErrMalformedEnvelope for recipient, got %v", err)
	}
	if _, err := Encode("42", "In put", nil); !errors.Is(err, ErrMalformedEnvelope) {
		t.Fatalf("expected ErrMalformedEnvelope for type, got %v", err)
	}
	if _, err := Encode("", "Input", nil); !errors.Is(err, ErrMalformedEnvelope) {
		t.Fatalf("expected ErrMalformedEnvelope for empty recipient, got %v", err)
	}
}

func TestDecodeFewerThanTwoSpacesFails(t *testing.T) {
	for _, raw := range []string{"", "42", "42 Input", "all_clients"} {
		if _, err := Decode([]byte(raw)); !errors.Is(err, ErrMalformedEnvelope) {
			t.Fatalf("expected ErrMalformedEnvelope for %q, got %v", raw, err)
		}
	}
}

func TestDecodeEmptyTokensFail(t *testing.T) {
	for _, raw := range []string{" Input x", "42  x"} {
		if _, err := Decode([]byte(raw)); !errors.Is(err, ErrMalformedEnvelope) {
			t.Fatalf("expected ErrMalformedEnvelope for %q, got %v", raw, err)
		}
	}
}

func TestDecodeTrailingSeparatorYieldsEmptyPayload(t *testing.T) {
	env, err := Decode([]byte("42 Goodbye "))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.MessageType != "Goodbye" || len(env.Payload) != 0 {
		t.Fatalf("unexpected envelope: %s", env)
	}
}

func TestDecodeCopiesPayload(t *testing.T) {
	raw := []byte("42 Pong abc")
	env, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	raw[len(raw)-1] = 'z'
	if string(env.Payload) != "abc" {
		t.Fatalf("payload aliases input buffer: %q", env.Payload)
	}
}

func TestIsFor(t *testing.T) {
	if !(Envelope{Recipient: "42"}).IsFor("42") {
		t.Fatalf("expected own recipient to match")
	}
	if !(Envelope{Recipient: BroadcastRecipient}).IsFor("42") {
		t.Fatalf("expected broadcast to match")
	}
	if (Envelope{Recipient: "420"}).IsFor("42") {
		t.Fatalf("expected prefix recipient to be rejected")
	}
}
