package coerce

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParsePositiveInt returns the leading base-10 integer of value when it is
// strictly positive, otherwise fallback. Values past MaxInt32 fall back too.
func ParsePositiveInt(value any, fallback int) int {
	n, ok := parseInt(value)
	if !ok || n <= 0 || n > math.MaxInt32 {
		return fallback
	}
	return int(n)
}

// ParseIntIfPossible returns Integer(n) when value starts with a base-10
// integer and Absent for nil or anything that does not.
func ParseIntIfPossible(value any) Value {
	if value == nil {
		return Value{}
	}
	n, ok := parseInt(value)
	if !ok {
		return Value{}
	}
	return Int(n)
}

// IntOrLiteral is ParseIntIfPossible falling back to the supplied value as a
// literal. Used for external identifiers such as uid.
func IntOrLiteral(value any) Value {
	if v := ParseIntIfPossible(value); !v.IsAbsent() {
		return v
	}
	if s, ok := String(value); ok {
		return Lit(s)
	}
	return Value{}
}

// ParseAttendees normalizes a list, comma-separated string or scalar into an
// ordered attendee list. Never returns nil.
func ParseAttendees(value any) []Value {
	out := []Value{}
	if !Truthy(value) {
		return out
	}
	switch t := value.(type) {
	case []string:
		for _, s := range t {
			out = append(out, numericOrLiteral(s))
		}
	case []any:
		for _, el := range t {
			if v, ok := element(el); ok {
				out = append(out, v)
			}
		}
	case string:
		if !strings.Contains(t, ",") {
			return append(out, numericOrLiteral(t))
		}
		for _, part := range strings.Split(t, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			out = append(out, numericOrLiteral(part))
		}
	}
	return out
}

// Truthy mirrors the notion of "supplied" used by form and JSON inputs: nil,
// empty strings, false, zero and empty lists are not.
func Truthy(value any) bool {
	switch t := value.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	case int64:
		return t != 0
	case []string:
		return t != nil
	case []any:
		return t != nil
	default:
		return true
	}
}

// String renders a scalar input as text. Lists of one element unwrap; longer
// lists are joined with commas.
func String(value any) (string, bool) {
	switch t := value.(type) {
	case nil:
		return "", false
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	case []string:
		return strings.Join(t, ","), true
	case []any:
		parts := make([]string, 0, len(t))
		for _, el := range t {
			if s, ok := String(el); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ","), true
	default:
		return "", false
	}
}

// StringPtr is String returning nil for absent input.
func StringPtr(value any) *string {
	s, ok := String(value)
	if !ok {
		return nil
	}
	return &s
}

// parseInt reads an optional sign and the leading decimal digits of the
// value's text, so "10abc" is 10 and "3.7" is 3. Numbers truncate toward zero.
func parseInt(value any) (int64, bool) {
	switch t := value.(type) {
	case string:
		return leadingInt(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		t = math.Trunc(t)
		if t >= math.MaxInt64 || t < math.MinInt64 {
			return 0, false
		}
		return int64(t), true
	case int:
		return int64(t), true
	case int64:
		return t, true
	case []string, []any:
		s, _ := String(t)
		return leadingInt(s)
	}
	return 0, false
}

func leadingInt(s string) (int64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	return n, err == nil
}

// numericOrLiteral converts text that is a whole number to a number and keeps
// everything else as a literal. Blank text counts as 0.
func numericOrLiteral(s string) Value {
	if v, ok := number(s); ok {
		return v
	}
	return Lit(s)
}

func number(s string) (Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Int(0), true
	}
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			if n, err := strconv.ParseInt(s, 0, 64); err == nil && !strings.Contains(s, "_") {
				return Int(n), true
			}
			return Value{}, false
		}
	}
	if strings.ContainsAny(s, "_xXpP") {
		return Value{}, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, false
	}
	return fromFloat(f), true
}

// fromFloat keeps integral values as Integer and the rest as Number.
func fromFloat(f float64) Value {
	if f == math.Trunc(f) && f < math.MaxInt64 && f >= math.MinInt64 {
		return Int(int64(f))
	}
	return Float(f)
}

// element maps one decoded JSON list element. Booleans and nulls count as
// numbers; nested lists and objects have no attendee representation and are
// skipped.
func element(el any) (Value, bool) {
	switch t := el.(type) {
	case nil:
		return Int(0), true
	case string:
		return numericOrLiteral(t), true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return Value{}, false
		}
		return fromFloat(t), true
	case int:
		return Int(int64(t)), true
	case int64:
		return Int(t), true
	case bool:
		if t {
			return Int(1), true
		}
		return Int(0), true
	default:
		return Value{}, false
	}
}
