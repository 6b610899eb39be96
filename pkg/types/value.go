package types

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Kind identifies the decoded shape of a raw payload value. The SofarCloud
// station payloads are untyped JSON, so every field is classified exactly once
// at the deserialization boundary and carried as a tagged Value from there on.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindBool
	KindString
	// KindComposite covers objects and arrays. Composites are never projected
	// as leaves; they only survive into snapshots.
	KindComposite
)

// Value is a single field value from a station payload.
type Value struct {
	kind Kind
	num  float64
	b    bool
	str  string
	raw  json.RawMessage
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f, raw: strconv.AppendFloat(nil, f, 'f', -1, 64)}
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b, raw: strconv.AppendBool(nil, b)}
}

// Str returns a textual Value.
func Str(s string) Value {
	raw, _ := json.Marshal(s)
	return Value{kind: KindString, str: s, raw: raw}
}

// Null returns the null Value.
func Null() Value {
	return Value{kind: KindNull, raw: json.RawMessage("null")}
}

// Composite returns a Value wrapping an object or array payload verbatim.
func Composite(raw json.RawMessage) Value {
	return Value{kind: KindComposite, raw: append(json.RawMessage(nil), raw...)}
}

// UnmarshalJSON decodes a raw payload token into the matching scalar kind.
// The raw bytes are kept so MarshalJSON round-trips the vendor payload
// byte-for-byte (snapshots must not reformat numbers).
func (v *Value) UnmarshalJSON(b []byte) error {
	t := bytes.TrimSpace(b)
	v.raw = append(json.RawMessage(nil), t...)
	if len(t) == 0 {
		v.kind = KindNull
		return nil
	}
	switch t[0] {
	case 'n':
		v.kind = KindNull
		return nil
	case 't', 'f':
		v.kind = KindBool
		return json.Unmarshal(t, &v.b)
	case '"':
		v.kind = KindString
		return json.Unmarshal(t, &v.str)
	case '{', '[':
		v.kind = KindComposite
		return nil
	default:
		v.kind = KindNumber
		return json.Unmarshal(t, &v.num)
	}
}

// MarshalJSON returns the original raw bytes when the Value came off the wire.
func (v Value) MarshalJSON() ([]byte, error) {
	if len(v.raw) > 0 {
		return v.raw, nil
	}
	return json.RawMessage("null"), nil
}

// Kind returns the decoded kind.
func (v Value) Kind() Kind {
	return v.kind
}

// Float64 returns the numeric value; zero for non-numbers.
func (v Value) Float64() float64 {
	return v.num
}

// Bool returns the boolean value; false for non-booleans.
func (v Value) Bool() bool {
	return v.b
}

// Str returns the textual value; empty for non-strings.
func (v Value) Str() string {
	return v.str
}

// String returns the bus payload form: numbers in canonical decimal notation,
// booleans as "true"/"false", null as the empty string and composites as their
// raw JSON.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.str
	case KindComposite:
		return string(v.raw)
	default:
		return ""
	}
}
