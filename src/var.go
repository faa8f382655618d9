package cbot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// InitState tells whether a variable holds a value
type InitState int

const (
	InitUndef     InitState = 0   // declared without a value
	InitDef       InitState = 1   // holds a value
	InitIsPointer InitState = 2   // pointer set by the interpreter (this)
	InitIsNan     InitState = 999 // holds nan
)

// Access is the protection level of a class member
type Access int

const (
	AccessPublic Access = iota
	AccessProtected
	AccessPrivate
)

// Var is a runtime value container. Scalars live in the value slots;
// pointers, intrinsic values and arrays reference an Instance. Vars chained
// through next form argument lists.
type Var struct {
	name   string
	typ    TypeResult
	next   *Var
	init   InitState
	static bool
	access Access
	ival   int64
	fval   float64
	sval   string
	inst   *Instance
	defNum string
	user   any
}

// NewVar creates a zero-valued variable. Scalars start undefined, references
// start null. Intrinsic values get a fresh instance.
func NewVar(name string, typ TypeResult) *Var {
	v := &Var{name: name, typ: typ}
	switch typ.typ {
	case TypPointer, TypNullPointer, TypArrayPointer:
		v.init = InitDef
	case TypClass, TypIntrinsic:
		if typ.class != nil {
			v.typ = typ.WithType(TypIntrinsic)
			v.setRef(newObject(typ.class, nil))
			v.inst.constructed = true
		}
		v.init = InitDef
	}
	return v
}

// newDefinedVar creates a variable holding the zero value of its type
func newDefinedVar(name string, typ TypeResult) *Var {
	v := NewVar(name, typ)
	v.init = InitDef
	return v
}

// Name returns the variable name
func (v *Var) Name() string { return v.name }

// SetName renames the variable
func (v *Var) SetName(name string) { v.name = name }

// Type returns the base type tag
func (v *Var) Type() Type { return v.typ.typ }

// TypeResult returns the full type
func (v *Var) TypeResult() TypeResult { return v.typ }

// Next returns the next variable in an argument list
func (v *Var) Next() *Var { return v.next }

// SetNext links a following variable
func (v *Var) SetNext(n *Var) { v.next = n }

// Init returns the initialization state
func (v *Var) Init() InitState { return v.init }

// SetInit changes the initialization state
func (v *Var) SetInit(s InitState) { v.init = s }

// IsDefined reports whether the variable holds a value
func (v *Var) IsDefined() bool { return v.init != InitUndef }

// IsNan reports whether the variable holds nan
func (v *Var) IsNan() bool { return v.init == InitIsNan }

// IsStatic reports whether a class member is static
func (v *Var) IsStatic() bool { return v.static }

// Access returns the member protection level
func (v *Var) Access() Access { return v.access }

// UserPtr returns host data attached to the variable
func (v *Var) UserPtr() any { return v.user }

// SetUserPtr attaches host data
func (v *Var) SetUserPtr(user any) { v.user = user }

// Instance returns the referenced instance (pointers, intrinsics, arrays)
func (v *Var) Instance() *Instance { return v.inst }

// Class returns the class of the referenced instance, or the static class
func (v *Var) Class() *Class {
	if v.inst != nil && v.inst.class != nil {
		return v.inst.class
	}
	return v.typ.class
}

// setRef replaces the referenced instance, keeping reference counts
func (v *Var) setRef(inst *Instance) {
	if inst != nil {
		inst.incRef()
	}
	old := v.inst
	v.inst = inst
	if old != nil {
		old.decRef()
	}
}

// SetInstance points the variable at inst
func (v *Var) SetInstance(inst *Instance) {
	v.setRef(inst)
	v.init = InitDef
}

// release drops whatever the variable references
func (v *Var) release() {
	if v.inst != nil {
		v.setRef(nil)
	}
}

// releaseList releases every variable in a list
func releaseList(v *Var) {
	for ; v != nil; v = v.next {
		v.release()
	}
}

// GetValInt returns the value converted to an integer
func (v *Var) GetValInt() int64 {
	switch v.typ.typ {
	case TypFloat, TypDouble:
		if math.IsNaN(v.fval) || math.IsInf(v.fval, 0) {
			return 0
		}
		return int64(v.fval)
	case TypString:
		n, _ := strconv.ParseInt(strings.TrimSpace(v.sval), 10, 64)
		return n
	}
	return v.ival
}

// GetValFloat returns the value converted to a float
func (v *Var) GetValFloat() float64 {
	switch v.typ.typ {
	case TypFloat, TypDouble:
		return v.fval
	case TypString:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v.sval), 64)
		return f
	}
	return float64(v.ival)
}

// GetValBool returns the value as a boolean
func (v *Var) GetValBool() bool {
	if v.typ.typ == TypFloat || v.typ.typ == TypDouble {
		return v.fval != 0
	}
	return v.ival != 0
}

// GetValString returns the textual form of the value
func (v *Var) GetValString() string {
	switch v.init {
	case InitUndef:
		if v.typ.typ.IsNumeric() || v.typ.typ == TypBoolean || v.typ.typ == TypString {
			return "undefined"
		}
	case InitIsNan:
		return "nan"
	}
	switch v.typ.typ {
	case TypByte, TypShort, TypInt, TypLong:
		return strconv.FormatInt(v.ival, 10)
	case TypChar:
		return string(rune(v.ival))
	case TypFloat, TypDouble:
		return formatFloat(v.fval)
	case TypBoolean:
		if v.ival != 0 {
			return "true"
		}
		return "false"
	case TypString:
		return v.sval
	case TypNullPointer:
		return "null"
	case TypPointer:
		if v.inst == nil {
			return "null"
		}
		return "Pointer to " + v.inst.String()
	case TypIntrinsic, TypClass:
		if v.inst == nil {
			return "null"
		}
		return v.inst.String()
	case TypArrayPointer, TypArrayBody:
		if v.inst == nil {
			return "null"
		}
		return v.inst.String()
	}
	return "?"
}

// String implements fmt.Stringer
func (v *Var) String() string {
	return v.GetValString()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', 6, 64)
}

// wrapInt truncates an integer to the width of an integer type
func wrapInt(t Type, n int64) int64 {
	switch t {
	case TypByte:
		return int64(int8(n))
	case TypShort:
		return int64(int16(n))
	case TypChar:
		return int64(uint32(n))
	case TypInt:
		return int64(int32(n))
	}
	return n
}

// SetValInt stores an integer, converting to the variable's type
func (v *Var) SetValInt(n int64) {
	v.init = InitDef
	switch v.typ.typ {
	case TypFloat:
		v.fval = float64(float32(n))
	case TypDouble:
		v.fval = float64(n)
	case TypBoolean:
		if n != 0 {
			v.ival = 1
		} else {
			v.ival = 0
		}
	case TypString:
		v.sval = strconv.FormatInt(n, 10)
	default:
		v.ival = wrapInt(v.typ.typ, n)
	}
}

// SetValFloat stores a float, converting to the variable's type
func (v *Var) SetValFloat(f float64) {
	v.init = InitDef
	switch v.typ.typ {
	case TypFloat:
		v.fval = float64(float32(f))
	case TypDouble:
		v.fval = f
	case TypString:
		v.sval = formatFloat(f)
	case TypBoolean:
		if f != 0 {
			v.ival = 1
		} else {
			v.ival = 0
		}
	default:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			v.ival = 0
			return
		}
		v.ival = wrapInt(v.typ.typ, int64(f))
	}
}

// SetValBool stores a boolean
func (v *Var) SetValBool(b bool) {
	if b {
		v.SetValInt(1)
	} else {
		v.SetValInt(0)
	}
}

// SetValString stores a string, parsing it for numeric variables
func (v *Var) SetValString(s string) {
	v.init = InitDef
	switch {
	case v.typ.typ == TypString:
		v.sval = s
	case v.typ.typ == TypFloat || v.typ.typ == TypDouble:
		f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
		v.SetValFloat(f)
	case v.typ.typ == TypBoolean:
		v.SetValBool(s == "true")
	default:
		n, _ := strconv.ParseInt(strings.TrimSpace(s), 0, 64)
		v.SetValInt(n)
	}
}

// SetNan marks a numeric variable as nan
func (v *Var) SetNan() {
	v.init = InitIsNan
	v.fval = math.NaN()
}

// SetNull sets a pointer or array variable to null
func (v *Var) SetNull() {
	v.release()
	v.init = InitDef
}

// Copy assigns the value of src to v. Scalars are converted to v's type,
// pointers share the instance, intrinsic values and arrays are duplicated.
func (v *Var) Copy(src *Var) {
	if src == nil {
		return
	}
	if src.init == InitUndef && !isReference(src.typ.typ) {
		v.init = InitUndef
		return
	}
	if src.init == InitIsNan && v.typ.typ != TypString {
		v.SetNan()
		return
	}
	switch v.typ.typ {
	case TypByte, TypShort, TypChar, TypInt, TypLong, TypBoolean:
		if src.typ.typ == TypFloat || src.typ.typ == TypDouble {
			v.SetValFloat(src.fval)
		} else if src.typ.typ == TypString {
			v.SetValString(src.sval)
		} else {
			v.SetValInt(src.ival)
		}
	case TypFloat, TypDouble:
		v.SetValFloat(src.GetValFloat())
	case TypString:
		v.SetValString(src.GetValString())
	case TypPointer, TypNullPointer:
		v.setRef(src.inst)
		v.init = InitDef
	case TypArrayPointer, TypArrayBody:
		if src.inst == nil {
			v.setRef(nil)
		} else {
			v.setRef(src.inst.clone())
		}
		v.init = InitDef
	case TypIntrinsic, TypClass:
		if src.inst == nil {
			v.setRef(nil)
		} else {
			v.setRef(src.inst.clone())
		}
		v.init = InitDef
	}
	v.defNum = src.defNum
}

func isReference(t Type) bool {
	switch t {
	case TypPointer, TypNullPointer, TypArrayPointer, TypArrayBody, TypIntrinsic, TypClass:
		return true
	}
	return false
}

// Clone returns an independent copy of the variable with the given name
func (v *Var) Clone(name string) *Var {
	c := &Var{
		name:   name,
		typ:    v.typ,
		init:   v.init,
		static: v.static,
		access: v.access,
		ival:   v.ival,
		fval:   v.fval,
		sval:   v.sval,
		defNum: v.defNum,
		user:   v.user,
	}
	if v.inst != nil {
		if v.typ.typ == TypPointer || v.typ.typ == TypNullPointer {
			c.setRef(v.inst)
		} else {
			c.setRef(v.inst.clone())
		}
	}
	return c
}

// ArraySize returns the number of allocated elements of an array
func (v *Var) ArraySize() int {
	if v.inst == nil || !v.typ.Eq(TypArrayPointer) && !v.typ.Eq(TypArrayBody) {
		return 0
	}
	return len(v.inst.fields)
}

// ArrayItem returns element i of an array variable. With extend the array
// grows up to its declared limit; otherwise nil is returned past the end.
func (v *Var) ArrayItem(i int, extend bool) *Var {
	if i < 0 {
		return nil
	}
	if v.inst == nil {
		if !extend {
			return nil
		}
		v.setRef(newArrayBody(v.typ))
	}
	return v.inst.item(i, extend)
}

// Items returns the elements of an array or the fields of an instance level
func (v *Var) Items() []*Var {
	if v.inst == nil {
		return nil
	}
	return v.inst.fields
}

// Field finds a non-static field of the referenced instance by name,
// searching the most derived class first
func (v *Var) Field(name string) *Var {
	if v.inst == nil {
		return nil
	}
	return v.inst.Field(name)
}

// Equals compares two values as the == operator does
func (v *Var) Equals(o *Var) bool {
	if v.init == InitIsNan || o.init == InitIsNan {
		return v.init == o.init
	}
	a, b := v.typ.typ, o.typ.typ
	switch {
	case a == TypString || b == TypString:
		return v.GetValString() == o.GetValString()
	case a == TypFloat || a == TypDouble || b == TypFloat || b == TypDouble:
		return v.GetValFloat() == o.GetValFloat()
	case a.IsNumeric() || a == TypBoolean:
		return v.ival == o.ival
	}
	return v.inst == o.inst
}

// debugString renders type and value for diagnostics
func (v *Var) debugString() string {
	return fmt.Sprintf("%s %s = %s", v.typ, v.name, v.GetValString())
}

// makeList chains copies of vars into an argument list
func makeList(vars []*Var) *Var {
	var head, tail *Var
	for _, src := range vars {
		c := src.Clone(src.name)
		if head == nil {
			head = c
		} else {
			tail.next = c
		}
		tail = c
	}
	return head
}
