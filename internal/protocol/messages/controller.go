package messages

import (
	"github.com/danmuck/orwellctl/internal/protocol/pbwire"
	"github.com/danmuck/orwellctl/internal/protocol/schema"
)

// Hello announces the client; Ready declares it wants to play.
type Hello struct {
	Name  string
	Ready bool
}

func (Hello) Type() schema.MessageType { return schema.MsgHello }

func (h Hello) fields() []pbwire.Field {
	return []pbwire.Field{
		pbwire.String(schema.FieldHelloName, h.Name),
		pbwire.Bool(schema.FieldHelloReady, h.Ready),
	}
}

func helloFromFields(fields []pbwire.Field) (Hello, error) {
	name, err := optionalString(fields, schema.FieldHelloName)
	if err != nil {
		return Hello{}, err
	}
	ready, err := optionalBool(fields, schema.FieldHelloReady)
	if err != nil {
		return Hello{}, err
	}
	return Hello{Name: name, Ready: ready}, nil
}

// Input carries one differential-drive and weapon sample.
type Input struct {
	Left    float64
	Right   float64
	Weapon1 bool
	Weapon2 bool
}

func (Input) Type() schema.MessageType { return schema.MsgInput }

func (in Input) fields() []pbwire.Field {
	return []pbwire.Field{
		pbwire.Message(schema.FieldInputMove, []pbwire.Field{
			pbwire.Double(schema.FieldMoveLeft, in.Left),
			pbwire.Double(schema.FieldMoveRight, in.Right),
		}),
		pbwire.Message(schema.FieldInputFire, []pbwire.Field{
			pbwire.Bool(schema.FieldFireWeapon1, in.Weapon1),
			pbwire.Bool(schema.FieldFireWeapon2, in.Weapon2),
		}),
	}
}

func inputFromFields(fields []pbwire.Field) (Input, error) {
	move, err := nested(fields, schema.FieldInputMove, schema.ShapeMove)
	if err != nil {
		return Input{}, err
	}
	fire, err := nested(fields, schema.FieldInputFire, schema.ShapeFire)
	if err != nil {
		return Input{}, err
	}
	var in Input
	if in.Left, err = optionalDouble(move, schema.FieldMoveLeft); err != nil {
		return Input{}, err
	}
	if in.Right, err = optionalDouble(move, schema.FieldMoveRight); err != nil {
		return Input{}, err
	}
	if in.Weapon1, err = optionalBool(fire, schema.FieldFireWeapon1); err != nil {
		return Input{}, err
	}
	if in.Weapon2, err = optionalBool(fire, schema.FieldFireWeapon2); err != nil {
		return Input{}, err
	}
	return in, nil
}

// Ping asks the server to echo the timing events back in a Pong.
type Ping struct {
	Timing []Timing
}

func (Ping) Type() schema.MessageType { return schema.MsgPing }
