// Package value defines the tagged runtime datum the VM operates on: a
// closed union of nil, bool, number, and heap-allocated string.
package value

import "strconv"

type ValueType int

const (
	VAL_NIL ValueType = iota
	VAL_BOOL
	VAL_NUMBER
	VAL_OBJ // currently only strings
)

// Value is a tagged variant. Only the field matching Type is meaningful;
// Obj holds the heap-allocated case (a Go string, immutable by
// convention — concatenation always produces a new Value).
type Value struct {
	Type    ValueType
	AsBool  bool
	AsFloat float64
	Obj     interface{}
}

func Nil() Value               { return Value{Type: VAL_NIL} }
func NewBool(b bool) Value     { return Value{Type: VAL_BOOL, AsBool: b} }
func NewNumber(f float64) Value { return Value{Type: VAL_NUMBER, AsFloat: f} }
func NewString(s string) Value { return Value{Type: VAL_OBJ, Obj: s} }

func (v Value) IsNil() bool    { return v.Type == VAL_NIL }
func (v Value) IsBool() bool   { return v.Type == VAL_BOOL }
func (v Value) IsNumber() bool { return v.Type == VAL_NUMBER }
func (v Value) IsString() bool { return v.Type == VAL_OBJ }

func (v Value) AsString() string { return v.Obj.(string) }

// IsFalsey implements the truthiness law: nil and false are falsey,
// everything else (including 0 and "") is truthy.
func (v Value) IsFalsey() bool {
	switch v.Type {
	case VAL_NIL:
		return true
	case VAL_BOOL:
		return !v.AsBool
	default:
		return false
	}
}

// Equal implements same-kind equality: numbers compare by IEEE-754
// equality, strings by content, booleans by value; any cross-kind
// comparison (including nil vs. anything else) is unequal.
func Equal(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case VAL_NIL:
		return true
	case VAL_BOOL:
		return a.AsBool == b.AsBool
	case VAL_NUMBER:
		return a.AsFloat == b.AsFloat
	case VAL_OBJ:
		return a.AsString() == b.AsString()
	default:
		return false
	}
}

// String renders a Value's printable form: the same text a `print`
// statement writes to stdout.
func (v Value) String() string {
	switch v.Type {
	case VAL_NIL:
		return "nil"
	case VAL_BOOL:
		if v.AsBool {
			return "true"
		}
		return "false"
	case VAL_NUMBER:
		return strconv.FormatFloat(v.AsFloat, 'g', -1, 64)
	case VAL_OBJ:
		return v.AsString()
	default:
		return "<unknown value>"
	}
}
