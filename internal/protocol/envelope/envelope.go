package envelope

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

const (
	Separator byte = ' '

	// BroadcastRecipient addresses every connected client.
	BroadcastRecipient = "all_clients"
)

var ErrMalformedEnvelope = errors.New("envelope: malformed envelope")

// Envelope is one decoded bus message.
type Envelope struct {
	Recipient   string
	MessageType string
	Payload     []byte
}

// Encode builds recipient + " " + messageType + " " + payload.
func Encode(recipient, messageType string, payload []byte) ([]byte, error) {
	if err := validateToken("recipient", recipient); err != nil {
		return nil, err
	}
	if err := validateToken("message_type", messageType); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(recipient)+len(messageType)+len(payload)+2)
	out = append(out, recipient...)
	out = append(out, Separator)
	out = append(out, messageType...)
	out = append(out, Separator)
	out = append(out, payload...)
	return out, nil
}

// Encode is the method form of the package-level Encode.
func (e Envelope) Encode() ([]byte, error) {
	return Encode(e.Recipient, e.MessageType, e.Payload)
}

// Decode splits raw at the first two spaces. The payload is copied and may
// contain any byte, including further spaces.
func Decode(raw []byte) (Envelope, error) {
	first := bytes.IndexByte(raw, Separator)
	if first < 0 {
		return Envelope{}, fmt.Errorf("%w: missing recipient separator", ErrMalformedEnvelope)
	}
	rest := raw[first+1:]
	second := bytes.IndexByte(rest, Separator)
	if second < 0 {
		return Envelope{}, fmt.Errorf("%w: missing message type separator", ErrMalformedEnvelope)
	}
	if first == 0 {
		return Envelope{}, fmt.Errorf("%w: empty recipient", ErrMalformedEnvelope)
	}
	if second == 0 {
		return Envelope{}, fmt.Errorf("%w: empty message type", ErrMalformedEnvelope)
	}
	payload := make([]byte, len(rest)-second-1)
	copy(payload, rest[second+1:])
	return Envelope{
		Recipient:   string(raw[:first]),
		MessageType: string(rest[:second]),
		Payload:     payload,
	}, nil
}

// IsFor reports whether a client with routingID should see this envelope.
func (e Envelope) IsFor(routingID string) bool {
	return e.Recipient == routingID || e.Recipient == BroadcastRecipient
}

func (e Envelope) String() string {
	return fmt.Sprintf("(envelope recipient=%s message_type=%s payload_bytes=%d)", e.Recipient, e.MessageType, len(e.Payload))
}

func validateToken(name, v string) error {
	if v == "" {
		return fmt.Errorf("%w: empty %s", ErrMalformedEnvelope, name)
	}
	if strings.IndexByte(v, Separator) >= 0 {
		return fmt.Errorf("%w: %s %q contains a space", ErrMalformedEnvelope, name, v)
	}
	return nil
}
