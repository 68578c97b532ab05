// Package pbwire decodes and encodes payload fields in protobuf wire format.
//
// A payload is a flat list of Fields; nested messages are Bytes fields whose
// Value is itself an encoded field list.
package pbwire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrShortField       = errors.New("pbwire: short field")
	ErrUnsupportedType  = errors.New("pbwire: unsupported wire type")
	ErrFieldTypeInvalid = errors.New("pbwire: field type mismatch")
)

// Field is one decoded field. Value holds the raw value bytes: the varint
// encoding, the 4/8 fixed bytes, or the length-delimited content.
type Field struct {
	Num   protowire.Number
	Type  protowire.Type
	Value []byte
}

func DecodeFields(payload []byte) ([]Field, error) {
	fields := make([]Field, 0)
	b := payload
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("%w: tag: %v", ErrShortField, protowire.ParseError(n))
		}
		b = b[n:]
		var val []byte
		switch typ {
		case protowire.VarintType:
			_, n = protowire.ConsumeVarint(b)
			if n >= 0 {
				val = b[:n]
			}
		case protowire.Fixed64Type:
			_, n = protowire.ConsumeFixed64(b)
			if n >= 0 {
				val = b[:n]
			}
		case protowire.Fixed32Type:
			_, n = protowire.ConsumeFixed32(b)
			if n >= 0 {
				val = b[:n]
			}
		case protowire.BytesType:
			val, n = protowire.ConsumeBytes(b)
		default:
			return nil, fmt.Errorf("%w: field %d type %d", ErrUnsupportedType, num, typ)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: field %d: %v", ErrShortField, num, protowire.ParseError(n))
		}
		cp := make([]byte, len(val))
		copy(cp, val)
		fields = append(fields, Field{Num: num, Type: typ, Value: cp})
		b = b[n:]
	}
	return fields, nil
}

func EncodeFields(fields []Field) []byte {
	out := make([]byte, 0)
	for _, f := range fields {
		out = protowire.AppendTag(out, f.Num, f.Type)
		if f.Type == protowire.BytesType {
			out = protowire.AppendBytes(out, f.Value)
			continue
		}
		out = append(out, f.Value...)
	}
	return out
}

// GetField returns the last occurrence of num, matching protobuf
// last-one-wins semantics for scalar fields.
func GetField(fields []Field, num protowire.Number) (Field, bool) {
	for i := len(fields) - 1; i >= 0; i-- {
		if fields[i].Num == num {
			return fields[i], true
		}
	}
	return Field{}, false
}

// GetAll returns every occurrence of num in wire order.
func GetAll(fields []Field, num protowire.Number) []Field {
	out := make([]Field, 0)
	for _, f := range fields {
		if f.Num == num {
			out = append(out, f)
		}
	}
	return out
}

func MustType(f Field, expected protowire.Type) error {
	if f.Type != expected {
		return fmt.Errorf("%w: field %d got %d want %d", ErrFieldTypeInvalid, f.Num, f.Type, expected)
	}
	return nil
}

func Uint(num protowire.Number, v uint64) Field {
	return Field{Num: num, Type: protowire.VarintType, Value: protowire.AppendVarint(nil, v)}
}

func Bool(num protowire.Number, v bool) Field {
	return Uint(num, protowire.EncodeBool(v))
}

func String(num protowire.Number, v string) Field {
	return Field{Num: num, Type: protowire.BytesType, Value: []byte(v)}
}

func Double(num protowire.Number, v float64) Field {
	return Field{Num: num, Type: protowire.Fixed64Type, Value: protowire.AppendFixed64(nil, math.Float64bits(v))}
}

func Message(num protowire.Number, fields []Field) Field {
	return Field{Num: num, Type: protowire.BytesType, Value: EncodeFields(fields)}
}

func (f Field) AsUint() (uint64, error) {
	if err := MustType(f, protowire.VarintType); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeVarint(f.Value)
	if n < 0 {
		return 0, fmt.Errorf("%w: field %d: %v", ErrShortField, f.Num, protowire.ParseError(n))
	}
	return v, nil
}

func (f Field) AsBool() (bool, error) {
	v, err := f.AsUint()
	if err != nil {
		return false, err
	}
	return protowire.DecodeBool(v), nil
}

func (f Field) AsString() (string, error) {
	if err := MustType(f, protowire.BytesType); err != nil {
		return "", err
	}
	return string(f.Value), nil
}

func (f Field) AsDouble() (float64, error) {
	if err := MustType(f, protowire.Fixed64Type); err != nil {
		return 0, err
	}
	v, n := protowire.ConsumeFixed64(f.Value)
	if n < 0 {
		return 0, fmt.Errorf("%w: field %d: %v", ErrShortField, f.Num, protowire.ParseError(n))
	}
	return math.Float64frombits(v), nil
}

// Message decodes a nested message field.
func (f Field) AsMessage() ([]Field, error) {
	if err := MustType(f, protowire.BytesType); err != nil {
		return nil, err
	}
	return DecodeFields(f.Value)
}
