package pbwire

import (
	"bytes"
	"errors"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"
)

func TestEncodeDecodeFieldsRoundTripPreservesUnknown(t *testing.T) {
	in := []Field{
		String(1, "C1treason"),
		Bool(2, true),
		Double(3, -0.5),
		Uint(9999, 7), // unknown field number
	}
	out, err := DecodeFields(EncodeFields(in))
	if err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 fields, got %d", len(out))
	}
	name, err := out[0].AsString()
	if err != nil || name != "C1treason" {
		t.Fatalf("name mismatch: %q %v", name, err)
	}
	ready, err := out[1].AsBool()
	if err != nil || !ready {
		t.Fatalf("ready mismatch: %v %v", ready, err)
	}
	v, err := out[2].AsDouble()
	if err != nil || v != -0.5 {
		t.Fatalf("double mismatch: %v %v", v, err)
	}
	if out[3].Num != 9999 || out[3].Type != protowire.VarintType {
		t.Fatalf("unknown field not preserved: %+v", out[3])
	}
}

func TestNestedMessage(t *testing.T) {
	inner := []Field{String(1, "red"), Uint(3, 12)}
	payload := EncodeFields([]Field{Message(3, inner), Message(3, []Field{String(1, "blue")})})
	fields, err := DecodeFields(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	teams := GetAll(fields, 3)
	if len(teams) != 2 {
		t.Fatalf("expected 2 repeated entries, got %d", len(teams))
	}
	nested, err := teams[0].AsMessage()
	if err != nil {
		t.Fatalf("nested decode: %v", err)
	}
	score, ok := GetField(nested, 3)
	if !ok {
		t.Fatalf("missing nested score")
	}
	if v, _ := score.AsUint(); v != 12 {
		t.Fatalf("unexpected score: %d", v)
	}
}

func TestGetFieldLastOneWins(t *testing.T) {
	fields := []Field{Uint(1, 1), Uint(1, 2)}
	f, ok := GetField(fields, 1)
	if !ok {
		t.Fatalf("missing field")
	}
	if v, _ := f.AsUint(); v != 2 {
		t.Fatalf("expected last value, got %d", v)
	}
}

func TestDecodeFieldsTruncatedIsDeterministic(t *testing.T) {
	// field 1, bytes type, length 5, only 2 bytes of content
	payload := []byte{0x0a, 0x05, 'a', 'b'}
	_, err := DecodeFields(payload)
	if !errors.Is(err, ErrShortField) {
		t.Fatalf("expected ErrShortField, got %v", err)
	}
}

func TestDecodeFieldsRejectsGroups(t *testing.T) {
	payload := protowire.AppendTag(nil, 1, protowire.StartGroupType)
	_, err := DecodeFields(payload)
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestAccessorTypeMismatch(t *testing.T) {
	if _, err := String(1, "x").AsUint(); !errors.Is(err, ErrFieldTypeInvalid) {
		t.Fatalf("expected ErrFieldTypeInvalid, got %v", err)
	}
	if _, err := Uint(1, 1).AsDouble(); !errors.Is(err, ErrFieldTypeInvalid) {
		t.Fatalf("expected ErrFieldTypeInvalid, got %v", err)
	}
}

func TestDecodeCopiesValues(t *testing.T) {
	payload := EncodeFields([]Field{String(1, "abc")})
	fields, err := DecodeFields(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	payload[len(payload)-1] = 'z'
	if !bytes.Equal(fields[0].Value, []byte("abc")) {
		t.Fatalf("value aliases payload: %q", fields[0].Value)
	}
}
