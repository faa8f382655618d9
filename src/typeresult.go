package cbot

import "strings"

// Type is the base tag of a TypeResult. Numeric types are ordered so that a
// larger value is a wider type.
type Type int

const (
	TypVoid Type = iota
	TypByte
	TypShort
	TypChar
	TypInt
	TypLong
	TypFloat
	TypDouble
	TypBoolean
	TypString
	TypArrayPointer
	TypArrayBody
	TypPointer
	TypNullPointer
	TypClass
	TypIntrinsic
)

var typeNames = map[Type]string{
	TypVoid:         "void",
	TypByte:         "byte",
	TypShort:        "short",
	TypChar:         "char",
	TypInt:          "int",
	TypLong:         "long",
	TypFloat:        "float",
	TypDouble:       "double",
	TypBoolean:      "boolean",
	TypString:       "string",
	TypArrayPointer: "array",
	TypArrayBody:    "arraybody",
	TypPointer:      "pointer",
	TypNullPointer:  "null",
	TypClass:        "class",
	TypIntrinsic:    "intrinsic",
}

// String returns the keyword for the type
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// IsNumeric reports whether t is one of the integer or floating types
func (t Type) IsNumeric() bool {
	return t >= TypByte && t <= TypDouble
}

// IsInteger reports whether t is an integer type
func (t Type) IsInteger() bool {
	return t >= TypByte && t <= TypLong
}

// TypeResult describes a static or runtime type. A non-zero error code marks
// a failed type check.
type TypeResult struct {
	typ   Type
	err   ErrorCode
	elem  *TypeResult
	class *Class
	limit int
}

// NewType builds a simple type
func NewType(t Type) TypeResult {
	return TypeResult{typ: t, limit: -1}
}

// ErrorType builds a type carrying an error code
func ErrorType(code ErrorCode) TypeResult {
	return TypeResult{typ: TypVoid, err: code, limit: -1}
}

// ClassType builds a class, intrinsic or pointer type. A class type for an
// intrinsic class becomes TypIntrinsic.
func ClassType(t Type, class *Class) TypeResult {
	if t == TypClass && class != nil && class.IsIntrinsic() {
		t = TypIntrinsic
	}
	return TypeResult{typ: t, class: class, limit: -1}
}

// ArrayType builds an array pointer or array body type with an element type
func ArrayType(t Type, elem TypeResult) TypeResult {
	e := elem
	return TypeResult{typ: t, elem: &e, limit: -1}
}

// Type returns the base tag
func (t TypeResult) Type() Type { return t.typ }

// Err returns the error code, or ErrNone
func (t TypeResult) Err() ErrorCode { return t.err }

// IsError reports whether the type check failed
func (t TypeResult) IsError() bool { return t.err != ErrNone }

// Class returns the linked class for class and pointer types
func (t TypeResult) Class() *Class { return t.class }

// Limit returns the declared array size, or -1 when unbounded
func (t TypeResult) Limit() int { return t.limit }

// Elem returns the element type of an array type
func (t TypeResult) Elem() TypeResult {
	if t.elem == nil {
		return NewType(TypVoid)
	}
	return *t.elem
}

// WithType returns a copy with another base tag
func (t TypeResult) WithType(typ Type) TypeResult {
	t.typ = typ
	return t
}

// WithLimit returns a copy with the array size set
func (t TypeResult) WithLimit(n int) TypeResult {
	t.limit = n
	return t
}

// Eq compares the base tag. Class and intrinsic are considered equal.
func (t TypeResult) Eq(typ Type) bool {
	if t.typ == typ {
		return true
	}
	return (t.typ == TypIntrinsic && typ == TypClass) || (t.typ == TypClass && typ == TypIntrinsic)
}

// Equal compares two types including element types and classes
func (t TypeResult) Equal(o TypeResult) bool {
	if t.typ != o.typ {
		return false
	}
	switch t.typ {
	case TypArrayPointer, TypArrayBody:
		return t.Elem().Equal(o.Elem())
	case TypPointer, TypClass, TypIntrinsic:
		return t.class == o.class
	}
	return true
}

// String renders the type as it would be written in a script
func (t TypeResult) String() string {
	if t.err != ErrNone {
		return "error(" + t.err.String() + ")"
	}
	switch t.typ {
	case TypArrayPointer, TypArrayBody:
		return t.Elem().String() + "[]"
	case TypPointer, TypClass, TypIntrinsic:
		if t.class != nil {
			return t.class.Name()
		}
	}
	return t.typ.String()
}

// typeCompatible checks that a binary operator can combine two operand types
func typeCompatible(t1, t2 TypeResult, op TokenID) bool {
	a, b := t1.typ, t2.typ
	if a == TypVoid || b == TypVoid {
		return false
	}
	if (op == IDAdd || op == IDAssAdd) && (a == TypString || b == TypString) {
		return true
	}
	if a.IsNumeric() && b.IsNumeric() {
		return true
	}
	isRef := func(t Type) bool { return t == TypPointer || t == TypArrayPointer }
	if op == IDEq || op == IDNe {
		if (isRef(a) && b == TypNullPointer) || (isRef(b) && a == TypNullPointer) {
			return true
		}
		if a == TypNullPointer && b == TypNullPointer {
			return true
		}
	}
	if a != b {
		return false
	}
	switch a {
	case TypArrayPointer:
		return t1.Equal(t2)
	case TypPointer, TypClass, TypIntrinsic:
		c1, c2 := t1.class, t2.class
		return c1.IsChildOf(c2) || c2.IsChildOf(c1)
	}
	return true
}

// maxType gives the wider of two numeric types
func maxType(a, b Type) Type {
	if a > b {
		return a
	}
	return b
}

// constInfo describes a compile-time integer constant used to allow narrowing
// of literals such as "byte b = 90;"
type constInfo struct {
	ok  bool
	val int64
}

// fitsIn reports whether an integer constant is representable in t
func (c constInfo) fitsIn(t Type) bool {
	if !c.ok {
		return false
	}
	switch t {
	case TypByte:
		return c.val >= -128 && c.val <= 127
	case TypShort:
		return c.val >= -32768 && c.val <= 32767
	case TypChar:
		return c.val >= 0 && c.val <= 0x10FFFF
	case TypInt:
		return c.val >= -2147483648 && c.val <= 2147483647
	case TypLong, TypFloat, TypDouble:
		return true
	}
	return false
}

// assignable checks whether a value of type src may be stored into dst.
// Numeric widening is allowed; narrowing is only allowed for integer
// constants that fit the destination.
func assignable(dst, src TypeResult, k constInfo) bool {
	switch {
	case src.typ == TypVoid:
		return false
	case dst.typ == TypString:
		return true
	case dst.typ.IsNumeric():
		if !src.typ.IsNumeric() {
			return false
		}
		if src.typ <= dst.typ {
			return true
		}
		return src.typ.IsInteger() && k.fitsIn(dst.typ)
	case dst.typ == TypBoolean:
		return src.typ == TypBoolean
	case dst.typ == TypPointer:
		if src.typ == TypNullPointer {
			return true
		}
		if src.typ != TypPointer {
			return false
		}
		return src.class.IsChildOf(dst.class) || dst.class.IsChildOf(src.class)
	case dst.typ == TypArrayPointer:
		if src.typ == TypNullPointer {
			return true
		}
		return src.typ == TypArrayPointer && dst.Elem().Equal(src.Elem())
	case dst.typ == TypIntrinsic || dst.typ == TypClass:
		return src.Eq(TypClass) && src.class == dst.class
	}
	return false
}

// paramCost returns the conversion cost of passing arg to a parameter of type
// param, or -1 when the argument is not accepted.
func paramCost(param, arg TypeResult) int {
	p, a := param.typ, arg.typ
	if p == TypIntrinsic {
		p = TypClass
	}
	if a == TypIntrinsic {
		a = TypClass
	}
	switch {
	case p == TypPointer:
		if a == TypNullPointer {
			return 0
		}
		if a != TypPointer || !arg.class.IsChildOf(param.class) {
			return -1
		}
		return 10 * arg.class.distanceTo(param.class)
	case p == TypArrayPointer:
		if a == TypNullPointer {
			return 0
		}
		if a != TypArrayPointer || !param.Elem().Equal(arg.Elem()) {
			return -1
		}
		return 0
	case p == TypClass:
		if a != TypClass || param.class != arg.class {
			return -1
		}
		return 0
	case p == TypString:
		if a != TypString {
			return -1
		}
		return 0
	case p == TypBoolean:
		if a != TypBoolean {
			return -1
		}
		return 0
	case p.IsNumeric():
		if !a.IsNumeric() || a > p {
			return -1
		}
		return int(p - a)
	}
	if p != a {
		return -1
	}
	return 0
}

// typeFromKeyword maps a type keyword token to a basic type
func typeFromKeyword(id TokenID) (Type, bool) {
	switch id {
	case IDInt:
		return TypInt, true
	case IDFloat:
		return TypFloat, true
	case IDBoolean:
		return TypBoolean, true
	case IDString:
		return TypString, true
	case IDVoid:
		return TypVoid, true
	case IDByte:
		return TypByte, true
	case IDShort:
		return TypShort, true
	case IDChar:
		return TypChar, true
	case IDLong:
		return TypLong, true
	case IDDouble:
		return TypDouble, true
	}
	return TypVoid, false
}

// signature renders a parameter list for diagnostics
func signature(name string, params []TypeResult) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}
