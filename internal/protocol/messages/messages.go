package messages

import (
	"fmt"

	"github.com/danmuck/orwellctl/internal/protocol/envelope"
	"github.com/danmuck/orwellctl/internal/protocol/pbwire"
	"github.com/danmuck/orwellctl/internal/protocol/schema"
	"google.golang.org/protobuf/encoding/protowire"
)

// Message is implemented by every payload type. Type is the union tag.
type Message interface {
	Type() schema.MessageType
}

// Marshal encodes m in payload wire format.
func Marshal(m Message) ([]byte, error) {
	var fields []pbwire.Field
	switch v := m.(type) {
	case Hello:
		fields = v.fields()
	case Welcome:
		fields = v.fields()
	case Goodbye:
		fields = []pbwire.Field{}
	case GameState:
		fields = v.fields()
	case Input:
		fields = v.fields()
	case Ping:
		fields = timingFields(v.Timing)
	case Pong:
		fields = timingFields(v.Timing)
	default:
		return nil, fmt.Errorf("%w: %T", schema.ErrUnknownMessageType, m)
	}
	if err := schema.Validate(m.Type().String(), fields); err != nil {
		return nil, err
	}
	return pbwire.EncodeFields(fields), nil
}

// Unmarshal decodes payload as the message tagged by t.
func Unmarshal(t schema.MessageType, payload []byte) (Message, error) {
	fields, err := pbwire.DecodeFields(payload)
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(t.String(), fields); err != nil {
		return nil, err
	}
	switch t {
	case schema.MsgHello:
		return helloFromFields(fields)
	case schema.MsgWelcome:
		return welcomeFromFields(fields)
	case schema.MsgGoodbye:
		return Goodbye{}, nil
	case schema.MsgGameState:
		return gameStateFromFields(fields)
	case schema.MsgInput:
		return inputFromFields(fields)
	case schema.MsgPing:
		timing, err := timingFromFields(fields)
		if err != nil {
			return nil, err
		}
		return Ping{Timing: timing}, nil
	case schema.MsgPong:
		timing, err := timingFromFields(fields)
		if err != nil {
			return nil, err
		}
		return Pong{Timing: timing}, nil
	default:
		return nil, fmt.Errorf("%w: %s", schema.ErrUnknownMessageType, t)
	}
}

// EncodeEnvelope marshals m and wraps it for recipient.
func EncodeEnvelope(recipient string, m Message) ([]byte, error) {
	payload, err := Marshal(m)
	if err != nil {
		return nil, err
	}
	return envelope.Encode(recipient, m.Type().String(), payload)
}

// DecodeEnvelope resolves the envelope type token and decodes its payload.
func DecodeEnvelope(env envelope.Envelope) (Message, error) {
	t, err := schema.ParseMessageType(env.MessageType)
	if err != nil {
		return nil, err
	}
	return Unmarshal(t, env.Payload)
}

func optionalString(fields []pbwire.Field, num protowire.Number) (string, error) {
	f, ok := pbwire.GetField(fields, num)
	if !ok {
		return "", nil
	}
	return f.AsString()
}

func optionalUint(fields []pbwire.Field, num protowire.Number) (uint64, error) {
	f, ok := pbwire.GetField(fields, num)
	if !ok {
		return 0, nil
	}
	return f.AsUint()
}

func optionalBool(fields []pbwire.Field, num protowire.Number) (bool, error) {
	f, ok := pbwire.GetField(fields, num)
	if !ok {
		return false, nil
	}
	return f.AsBool()
}

func optionalDouble(fields []pbwire.Field, num protowire.Number) (float64, error) {
	f, ok := pbwire.GetField(fields, num)
	if !ok {
		return 0, nil
	}
	return f.AsDouble()
}
