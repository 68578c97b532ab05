package messages

import (
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/orwellctl/internal/protocol/envelope"
	"github.com/danmuck/orwellctl/internal/protocol/pbwire"
	"github.com/danmuck/orwellctl/internal/protocol/schema"
	"github.com/danmuck/orwellctl/internal/testutil/testlog"
)

func TestHelloEnvelopeRoundTrip(t *testing.T) {
	testlog.Start(t)

	raw, err := EncodeEnvelope("temporary_id_7", Hello{Name: "C1treason", Ready: false})
	if err != nil {
		t.Fatalf("encode hello: %v", err)
	}
	env, err := envelope.Decode(raw)
	if err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Recipient != "temporary_id_7" || env.MessageType != "Hello" {
		t.Fatalf("unexpected envelope: %s", env)
	}
	msg, err := DecodeEnvelope(env)
	if err != nil {
		t.Fatalf("decode hello: %v", err)
	}
	hello, ok := msg.(Hello)
	if !ok {
		t.Fatalf("expected Hello, got %T", msg)
	}
	if hello.Name != "C1treason" || hello.Ready {
		t.Fatalf("hello mismatch: %+v", hello)
	}
}

func TestWelcomeWithEmbeddedGameState(t *testing.T) {
	testlog.Start(t)

	in := Welcome{
		ID:    42,
		Robot: "R7",
		Team:  "red",
		GameState: &GameState{
			Playing: true,
			Running: true,
			Seconds: 120,
			Teams: []Team{
				{Name: "red", NumPlayers: 2, Score: 3},
				{Name: "blue", NumPlayers: 1, Score: 0},
			},
		},
	}
	payload, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal welcome: %v", err)
	}
	msg, err := Unmarshal(schema.MsgWelcome, payload)
	if err != nil {
		t.Fatalf("unmarshal welcome: %v", err)
	}
	out := msg.(Welcome)
	if out.RoutingID() != "42" {
		t.Fatalf("unexpected routing id: %q", out.RoutingID())
	}
	if !reflect.DeepEqual(out, in) {
		t.Fatalf("welcome mismatch:\n in=%+v\nout=%+v", in, out)
	}
}

func TestWelcomeWithoutGameState(t *testing.T) {
	testlog.Start(t)

	payload, err := Marshal(Welcome{ID: 42})
	if err != nil {
		t.Fatalf("marshal welcome: %v", err)
	}
	msg, err := Unmarshal(schema.MsgWelcome, payload)
	if err != nil {
		t.Fatalf("unmarshal welcome: %v", err)
	}
	if msg.(Welcome).GameState != nil {
		t.Fatalf("expected no embedded game state")
	}
}

func TestInputRoundTrip(t *testing.T) {
	testlog.Start(t)

	in := Input{Left: 0.5, Right: -0.5, Weapon1: true, Weapon2: false}
	payload, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal input: %v", err)
	}
	msg, err := Unmarshal(schema.MsgInput, payload)
	if err != nil {
		t.Fatalf("unmarshal input: %v", err)
	}
	if msg.(Input) != in {
		t.Fatalf("input mismatch: in=%+v out=%+v", in, msg)
	}
}

func TestPingPongTimingEvents(t *testing.T) {
	testlog.Start(t)

	events := []Timing{
		{Logger: "C1treason", Timestamp: 1760000000000},
		{Logger: "server", Timestamp: 1760000000010, Elapsed: 4},
	}
	payload, err := Marshal(Pong{Timing: events})
	if err != nil {
		t.Fatalf("marshal pong: %v", err)
	}
	msg, err := Unmarshal(schema.MsgPong, payload)
	if err != nil {
		t.Fatalf("unmarshal pong: %v", err)
	}
	if !reflect.DeepEqual(msg.(Pong).Timing, events) {
		t.Fatalf("timing mismatch: %+v", msg)
	}

	payload, err = Marshal(Ping{Timing: events[:1]})
	if err != nil {
		t.Fatalf("marshal ping: %v", err)
	}
	msg, err = Unmarshal(schema.MsgPing, payload)
	if err != nil {
		t.Fatalf("unmarshal ping: %v", err)
	}
	if len(msg.(Ping).Timing) != 1 {
		t.Fatalf("unexpected ping timing: %+v", msg)
	}
}

func TestEmptyPongDecodes(t *testing.T) {
	testlog.Start(t)

	msg, err := Unmarshal(schema.MsgPong, nil)
	if err != nil {
		t.Fatalf("unmarshal empty pong: %v", err)
	}
	if len(msg.(Pong).Timing) != 0 {
		t.Fatalf("expected no timing events")
	}
}

func TestGoodbyeEmptyPayload(t *testing.T) {
	testlog.Start(t)

	raw, err := EncodeEnvelope(envelope.BroadcastRecipient, Goodbye{})
	if err != nil {
		t.Fatalf("encode goodbye: %v", err)
	}
	if string(raw) != "all_clients Goodbye " {
		t.Fatalf("unexpected goodbye bytes: %q", raw)
	}
}

func TestDecodeEnvelopeUnknownType(t *testing.T) {
	testlog.Start(t)

	_, err := DecodeEnvelope(envelope.Envelope{Recipient: "42", MessageType: "Kick"})
	if !errors.Is(err, schema.ErrUnknownMessageType) {
		t.Fatalf("expected ErrUnknownMessageType, got %v", err)
	}
}

func TestUnmarshalMissingRequiredField(t *testing.T) {
	testlog.Start(t)

	payload := pbwire.EncodeFields([]pbwire.Field{pbwire.String(schema.FieldWelcomeRobot, "R7")})
	_, err := Unmarshal(schema.MsgWelcome, payload)
	var ve schema.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Field != schema.FieldWelcomeID {
		t.Fatalf("unexpected field: %+v", ve)
	}
}

func TestUnmarshalTimingMissingLogger(t *testing.T) {
	testlog.Start(t)

	payload := pbwire.EncodeFields([]pbwire.Field{
		pbwire.Message(schema.FieldTiming, []pbwire.Field{pbwire.Uint(schema.FieldTimingTimestamp, 1)}),
	})
	_, err := Unmarshal(schema.MsgPong, payload)
	var ve schema.ValidationError
	if !errors.As(err, &ve) || ve.Shape != schema.ShapeTiming {
		t.Fatalf("expected timing ValidationError, got %v", err)
	}
}

func TestUnmarshalGarbagePayload(t *testing.T) {
	testlog.Start(t)

	_, err := Unmarshal(schema.MsgGameState, []byte{0x0a, 0x7f})
	if !errors.Is(err, pbwire.ErrShortField) {
		t.Fatalf("expected ErrShortField, got %v", err)
	}
}
