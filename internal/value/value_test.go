package value

import "testing"

func TestTruthiness(t *testing.T) {
	tests := []struct {
		v       Value
		falsey  bool
	}{
		{Nil(), true},
		{NewBool(false), true},
		{NewBool(true), false},
		{NewNumber(0), false},
		{NewString(""), false},
	}

	for _, tt := range tests {
		if got := tt.v.IsFalsey(); got != tt.falsey {
			t.Errorf("%v.IsFalsey() = %v, want %v", tt.v, got, tt.falsey)
		}
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{NewNumber(1), NewNumber(1), true},
		{NewNumber(1), NewNumber(2), false},
		{NewString("a"), NewString("a"), true},
		{NewString("a"), NewString("b"), false},
		{NewBool(true), NewBool(true), true},
		{Nil(), Nil(), true},
		{Nil(), NewBool(false), false},
		{NewNumber(0), NewString("0"), false},
		{NewNumber(0), NewBool(false), false},
	}

	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Nil(), "nil"},
		{NewBool(true), "true"},
		{NewBool(false), "false"},
		{NewNumber(7), "7"},
		{NewNumber(10.5), "10.5"},
		{NewString("hi"), "hi"},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
