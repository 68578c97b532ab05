package schema

import (
	"errors"
	"fmt"

	"github.com/danmuck/orwellctl/internal/protocol/pbwire"
	"google.golang.org/protobuf/encoding/protowire"
)

var ErrUnknownMessageType = errors.New("schema: unknown message type")

// MessageType tags every message the client knows. Wire names are the
// envelope type tokens.
type MessageType uint8

const (
	MsgUnknown MessageType = iota
	MsgHello
	MsgWelcome
	MsgGoodbye
	MsgGameState
	MsgInput
	MsgPing
	MsgPong
)

var wireNames = map[MessageType]string{
	MsgHello:     "Hello",
	MsgWelcome:   "Welcome",
	MsgGoodbye:   "Goodbye",
	MsgGameState: "GameState",
	MsgInput:     "Input",
	MsgPing:      "Ping",
	MsgPong:      "Pong",
}

func (t MessageType) String() string {
	if name, ok := wireNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MessageType(%d)", uint8(t))
}

// ParseMessageType maps an envelope type token to its tag.
func ParseMessageType(name string) (MessageType, error) {
	for t, n := range wireNames {
		if n == name {
			return t, nil
		}
	}
	return MsgUnknown, fmt.Errorf("%w: %q", ErrUnknownMessageType, name)
}

// Shapes name nested payload structures that are validated like messages.
const (
	ShapeTeam   = "Team"
	ShapeTiming = "Timing"
	ShapeMove   = "Input.Move"
	ShapeFire   = "Input.Fire"
)

// Field numbers of the payload contract.
const (
	FieldHelloName  protowire.Number = 1
	FieldHelloReady protowire.Number = 2

	FieldWelcomeRobot     protowire.Number = 1
	FieldWelcomeTeam      protowire.Number = 2
	FieldWelcomeID        protowire.Number = 3
	FieldWelcomeGameState protowire.Number = 4

	FieldGameStatePlaying protowire.Number = 1
	FieldGameStateSeconds protowire.Number = 2
	FieldGameStateTeams   protowire.Number = 3
	FieldGameStateRunning protowire.Number = 4

	FieldTeamName       protowire.Number = 1
	FieldTeamNumPlayers protowire.Number = 2
	FieldTeamScore      protowire.Number = 3

	FieldInputMove protowire.Number = 1
	FieldInputFire protowire.Number = 2

	FieldMoveLeft  protowire.Number = 1
	FieldMoveRight protowire.Number = 2

	FieldFireWeapon1 protowire.Number = 1
	FieldFireWeapon2 protowire.Number = 2

	FieldTiming protowire.Number = 1

	FieldTimingLogger    protowire.Number = 1
	FieldTimingTimestamp protowire.Number = 2
	FieldTimingElapsed   protowire.Number = 3
)

type Requirement struct {
	Num  protowire.Number
	Type protowire.Type
}

type ValidationError struct {
	Shape  string
	Field  protowire.Number
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == 0 {
		return fmt.Sprintf("schema: shape=%s: %s", e.Shape, e.Reason)
	}
	return fmt.Sprintf("schema: shape=%s field=%d: %s", e.Shape, e.Field, e.Reason)
}

var requirements = map[string][]Requirement{
	MsgHello.String(): {
		{FieldHelloName, protowire.BytesType},
	},
	MsgWelcome.String(): {
		{FieldWelcomeID, protowire.VarintType},
	},
	MsgGoodbye.String(): {},
	MsgGameState.String(): {
		{FieldGameStatePlaying, protowire.VarintType},
	},
	MsgInput.String(): {
		{FieldInputMove, protowire.BytesType},
		{FieldInputFire, protowire.BytesType},
	},
	MsgPing.String(): {},
	MsgPong.String(): {},
	ShapeTeam: {
		{FieldTeamName, protowire.BytesType},
	},
	ShapeTiming: {
		{FieldTimingLogger, protowire.BytesType},
		{FieldTimingTimestamp, protowire.VarintType},
	},
	ShapeMove: {
		{FieldMoveLeft, protowire.Fixed64Type},
		{FieldMoveRight, protowire.Fixed64Type},
	},
	ShapeFire: {
		{FieldFireWeapon1, protowire.VarintType},
		{FieldFireWeapon2, protowire.VarintType},
	},
}

// Validate enforces required fields and their wire types for a shape.
// Unknown fields are ignored.
func Validate(shape string, fields []pbwire.Field) error {
	reqs, ok := requirements[shape]
	if !ok {
		return ValidationError{Shape: shape, Reason: "unknown shape"}
	}
	for _, req := range reqs {
		f, found := pbwire.GetField(fields, req.Num)
		if !found {
			return ValidationError{Shape: shape, Field: req.Num, Reason: "missing required field"}
		}
		if f.Type != req.Type {
			return ValidationError{Shape: shape, Field: req.Num, Reason: "type mismatch"}
		}
	}
	return nil
}
