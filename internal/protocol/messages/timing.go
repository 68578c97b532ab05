package messages

import (
	"github.com/danmuck/orwellctl/internal/protocol/pbwire"
	"github.com/danmuck/orwellctl/internal/protocol/schema"
)

// Timing is one latency event. Timestamp is in milliseconds since the Unix
// epoch; Elapsed is filled in by relays that measured their own hop.
type Timing struct {
	Logger    string
	Timestamp uint64
	Elapsed   uint32
}

// Pong echoes the timing events of a Ping, plus any added by relays.
type Pong struct {
	Timing []Timing
}

func (Pong) Type() schema.MessageType { return schema.MsgPong }

func timingFields(events []Timing) []pbwire.Field {
	fields := make([]pbwire.Field, 0, len(events))
	for _, ev := range events {
		inner := []pbwire.Field{
			pbwire.String(schema.FieldTimingLogger, ev.Logger),
			pbwire.Uint(schema.FieldTimingTimestamp, ev.Timestamp),
		}
		if ev.Elapsed != 0 {
			inner = append(inner, pbwire.Uint(schema.FieldTimingElapsed, uint64(ev.Elapsed)))
		}
		fields = append(fields, pbwire.Message(schema.FieldTiming, inner))
	}
	return fields
}

func timingFromFields(fields []pbwire.Field) ([]Timing, error) {
	out := make([]Timing, 0)
	for _, f := range pbwire.GetAll(fields, schema.FieldTiming) {
		inner, err := f.AsMessage()
		if err != nil {
			return nil, err
		}
		if err := schema.Validate(schema.ShapeTiming, inner); err != nil {
			return nil, err
		}
		var ev Timing
		if ev.Logger, err = optionalString(inner, schema.FieldTimingLogger); err != nil {
			return nil, err
		}
		if ev.Timestamp, err = optionalUint(inner, schema.FieldTimingTimestamp); err != nil {
			return nil, err
		}
		elapsed, err := optionalUint(inner, schema.FieldTimingElapsed)
		if err != nil {
			return nil, err
		}
		ev.Elapsed = uint32(elapsed)
		out = append(out, ev)
	}
	return out, nil
}
