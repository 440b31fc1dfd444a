// Package coerce turns loosely-typed request input (form strings, repeated form
// keys, decoded JSON) into normalized values.
package coerce

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"
)

type Kind uint8

const (
	Absent Kind = iota
	Integer
	Literal
	Number
)

// Value is Integer(n), Literal(s) or, for non-integral attendees, Number(f).
// The zero value is Absent.
type Value struct {
	Kind  Kind
	Int   int64
	Str   string
	Float float64
}

func Int(n int64) Value     { return Value{Kind: Integer, Int: n} }
func Lit(s string) Value    { return Value{Kind: Literal, Str: s} }
func Float(f float64) Value { return Value{Kind: Number, Float: f} }

func (v Value) IsAbsent() bool { return v.Kind == Absent }

// IntPtr returns the integer payload, nil unless Kind is Integer.
func (v Value) IntPtr() *int64 {
	if v.Kind != Integer {
		return nil
	}
	n := v.Int
	return &n
}

// StrPtr returns the literal payload, nil unless Kind is Literal.
func (v Value) StrPtr() *string {
	if v.Kind != Literal {
		return nil
	}
	s := v.Str
	return &s
}

// FromColumns rebuilds a Value from its two nullable storage columns.
func FromColumns(n *int64, s *string) Value {
	switch {
	case n != nil:
		return Int(*n)
	case s != nil:
		return Lit(*s)
	default:
		return Value{}
	}
}

func (v Value) String() string {
	switch v.Kind {
	case Integer:
		return strconv.FormatInt(v.Int, 10)
	case Literal:
		return strconv.Quote(v.Str)
	case Number:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	default:
		return "<absent>"
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case Integer:
		return []byte(strconv.FormatInt(v.Int, 10)), nil
	case Literal:
		return sonic.Marshal(v.Str)
	case Number:
		return []byte(strconv.FormatFloat(v.Float, 'g', -1, 64)), nil
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*v = Value{}
		return nil
	case b[0] == '"':
		var s string
		if err := sonic.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Lit(s)
		return nil
	}
	if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		*v = Int(n)
		return nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("coerce: %s is neither a number nor a string", b)
	}
	*v = Float(f)
	return nil
}
