package lisp

import "strconv"

type VKind int

const (
	VNum VKind = iota
	VBool
)

func (k VKind) String() string {
	switch k {
	case VNum:
		return "number"
	case VBool:
		return "boolean"
	default:
		return "?"
	}
}

// Value is the only runtime representation. It is a small comparable
// struct, so == is structural equality.
type Value struct {
	K VKind
	N int32
	B bool
}

func Number(n int32) Value { return Value{K: VNum, N: n} }
func Boolean(b bool) Value { return Value{K: VBool, B: b} }

func (v Value) String() string {
	if v.K == VBool {
		return strconv.FormatBool(v.B)
	}
	return strconv.FormatInt(int64(v.N), 10)
}
