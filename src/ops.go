package cbot

import (
	"math"
	"strings"
)

// isNanVar reports whether a value is nan
func isNanVar(v *Var) bool {
	if v.init == InitIsNan {
		return true
	}
	return (v.typ.typ == TypFloat || v.typ.typ == TypDouble) && math.IsNaN(v.fval)
}

// opTypes lists the operand types each binary operator accepts
var opTypes = map[TokenID][]Type{}

func init() {
	integer := []Type{TypByte, TypShort, TypChar, TypInt, TypLong}
	float := []Type{TypFloat, TypDouble}
	join := func(lists ...[]Type) []Type {
		var out []Type
		for _, l := range lists {
			out = append(out, l...)
		}
		return out
	}
	boolean := []Type{TypBoolean}
	str := []Type{TypString}
	refs := []Type{TypPointer, TypNullPointer, TypArrayPointer, TypClass, TypIntrinsic}
	for _, id := range []TokenID{IDLogOr, IDTxtOr, IDLogAnd, IDTxtAnd} {
		opTypes[id] = boolean
	}
	for _, id := range []TokenID{IDOr, IDXor, IDAnd} {
		opTypes[id] = join(boolean, integer)
	}
	for _, id := range []TokenID{IDEq, IDNe} {
		opTypes[id] = join(boolean, integer, float, str, refs)
	}
	for _, id := range []TokenID{IDLo, IDHi, IDLs, IDHs} {
		opTypes[id] = join(integer, float, str)
	}
	for _, id := range []TokenID{IDSr, IDSl, IDAsr} {
		opTypes[id] = integer
	}
	opTypes[IDAdd] = join(integer, float, str)
	for _, id := range []TokenID{IDSub, IDMul, IDDiv, IDModulo, IDPower} {
		opTypes[id] = join(integer, float)
	}
}

func typeAllowed(op TokenID, t Type) bool {
	for _, a := range opTypes[op] {
		if a == t {
			return true
		}
	}
	return false
}

// assignOps maps compound assignments to their binary operator
var assignOps = map[TokenID]TokenID{
	IDAssAdd:    IDAdd,
	IDAssSub:    IDSub,
	IDAssMul:    IDMul,
	IDAssDiv:    IDDiv,
	IDAssModulo: IDModulo,
	IDAssPower:  IDPower,
	IDAssAnd:    IDAnd,
	IDAssOr:     IDOr,
	IDAssXor:    IDXor,
	IDAssSl:     IDSl,
	IDAssSr:     IDSr,
	IDAssAsr:    IDAsr,
}

func isComparison(op TokenID) bool {
	switch op {
	case IDEq, IDNe, IDLo, IDHi, IDLs, IDHs, IDLogAnd, IDLogOr, IDTxtAnd, IDTxtOr:
		return true
	}
	return false
}

// binaryType computes the static result type of a binary operator, or an
// error type
func binaryType(op TokenID, t1, t2 TypeResult) TypeResult {
	if t1.typ == TypVoid || t2.typ == TypVoid {
		return ErrorType(ErrBadType2)
	}
	a, b := t1.typ, t2.typ
	if a == TypNullPointer {
		a = TypPointer
	}
	if b == TypNullPointer {
		b = TypPointer
	}
	res := maxType(a, b)
	if op == IDAdd && (t1.typ == TypString || t2.typ == TypString) {
		return NewType(TypString)
	}
	if !typeAllowed(op, res) || !typeCompatible(t1, t2, op) {
		return ErrorType(ErrBadType2)
	}
	if isComparison(op) {
		return NewType(TypBoolean)
	}
	if op == IDDiv && res == TypFloat && (a == TypLong || b == TypLong) {
		res = TypDouble
	}
	return NewType(res)
}

// evalBinary applies a binary operator to two computed operands
func evalBinary(op TokenID, l, r *Var) (*Var, ErrorCode) {
	t1, t2 := l.typ.typ, r.typ.typ
	if op == IDAdd && (t1 == TypString || t2 == TypString) {
		res := newDefinedVar("", NewType(TypString))
		res.sval = l.GetValString() + r.GetValString()
		return res, ErrNone
	}
	if op == IDEq || op == IDNe {
		eq := l.Equals(r)
		res := newDefinedVar("", NewType(TypBoolean))
		res.SetValBool(eq == (op == IDEq))
		return res, ErrNone
	}
	if isNanVar(l) || isNanVar(r) {
		return nil, ErrNan
	}
	switch op {
	case IDLo, IDHi, IDLs, IDHs:
		var c int
		switch {
		case t1 == TypString || t2 == TypString:
			c = strings.Compare(l.GetValString(), r.GetValString())
		case t1 == TypFloat || t1 == TypDouble || t2 == TypFloat || t2 == TypDouble:
			x, y := l.GetValFloat(), r.GetValFloat()
			if x < y {
				c = -1
			} else if x > y {
				c = 1
			}
		default:
			x, y := l.GetValInt(), r.GetValInt()
			if x < y {
				c = -1
			} else if x > y {
				c = 1
			}
		}
		res := newDefinedVar("", NewType(TypBoolean))
		switch op {
		case IDLo:
			res.SetValBool(c < 0)
		case IDHi:
			res.SetValBool(c > 0)
		case IDLs:
			res.SetValBool(c <= 0)
		case IDHs:
			res.SetValBool(c >= 0)
		}
		return res, ErrNone
	case IDLogAnd, IDTxtAnd:
		res := newDefinedVar("", NewType(TypBoolean))
		res.SetValBool(l.GetValBool() && r.GetValBool())
		return res, ErrNone
	case IDLogOr, IDTxtOr:
		res := newDefinedVar("", NewType(TypBoolean))
		res.SetValBool(l.GetValBool() || r.GetValBool())
		return res, ErrNone
	}

	typ := maxType(t1, t2)
	if op == IDDiv && typ == TypFloat && (t1 == TypLong || t2 == TypLong) {
		typ = TypDouble
	}
	res := newDefinedVar("", NewType(typ))
	if typ == TypBoolean {
		x, y := l.GetValBool(), r.GetValBool()
		switch op {
		case IDAnd:
			res.SetValBool(x && y)
		case IDOr:
			res.SetValBool(x || y)
		case IDXor:
			res.SetValBool(x != y)
		}
		return res, ErrNone
	}
	if typ == TypFloat || typ == TypDouble {
		x, y := l.GetValFloat(), r.GetValFloat()
		switch op {
		case IDAdd:
			res.SetValFloat(x + y)
		case IDSub:
			res.SetValFloat(x - y)
		case IDMul:
			res.SetValFloat(x * y)
		case IDDiv:
			if y == 0 {
				return nil, ErrZeroDiv
			}
			res.SetValFloat(x / y)
		case IDModulo:
			if y == 0 {
				return nil, ErrZeroDiv
			}
			res.SetValFloat(math.Mod(x, y))
		case IDPower:
			res.SetValFloat(math.Pow(x, y))
		}
		return res, ErrNone
	}
	x, y := l.GetValInt(), r.GetValInt()
	switch op {
	case IDAdd:
		res.SetValInt(x + y)
	case IDSub:
		res.SetValInt(x - y)
	case IDMul:
		res.SetValInt(x * y)
	case IDDiv:
		if y == 0 {
			return nil, ErrZeroDiv
		}
		res.SetValInt(x / y)
	case IDModulo:
		if y == 0 {
			return nil, ErrZeroDiv
		}
		res.SetValInt(x % y)
	case IDPower:
		res.SetValInt(int64(math.Pow(float64(x), float64(y))))
	case IDAnd:
		res.SetValInt(x & y)
	case IDOr:
		res.SetValInt(x | y)
	case IDXor:
		res.SetValInt(x ^ y)
	case IDSl:
		res.SetValInt(x << uint(y&63))
	case IDAsr:
		res.SetValInt(x >> uint(y&63))
	case IDSr:
		res.SetValInt(logicalShift(typ, x, uint(y&63)))
	}
	return res, ErrNone
}

// logicalShift shifts right without sign extension within the width of t
func logicalShift(t Type, x int64, n uint) int64 {
	switch t {
	case TypByte:
		return int64(uint8(x) >> n)
	case TypShort:
		return int64(uint16(x) >> n)
	case TypChar, TypInt:
		return int64(uint32(x) >> n)
	}
	return int64(uint64(x) >> n)
}

// evalUnary applies a prefix operator
func evalUnary(op TokenID, v *Var) (*Var, ErrorCode) {
	res := newDefinedVar("", v.typ)
	switch op {
	case IDSub:
		if isNanVar(v) {
			return nil, ErrNan
		}
		if v.typ.typ == TypFloat || v.typ.typ == TypDouble {
			res.SetValFloat(-v.fval)
		} else {
			res.SetValInt(-v.ival)
		}
	case IDLogNot, IDTxtNot:
		res.SetValBool(!v.GetValBool())
	case IDNot:
		if isNanVar(v) {
			return nil, ErrNan
		}
		res.SetValInt(^v.ival)
	}
	return res, ErrNone
}

// stepVar increments or decrements a numeric variable in place
func stepVar(v *Var, op TokenID) {
	if v.typ.typ == TypFloat || v.typ.typ == TypDouble {
		if op == IDInc {
			v.SetValFloat(v.fval + 1)
		} else {
			v.SetValFloat(v.fval - 1)
		}
		return
	}
	if op == IDInc {
		v.SetValInt(v.ival + 1)
	} else {
		v.SetValInt(v.ival - 1)
	}
}

// storeValue assigns src to dst, checking pointer downcasts at runtime
func storeValue(dst, src *Var) ErrorCode {
	if dst.typ.typ == TypPointer && src.typ.typ == TypPointer && src.inst != nil {
		if !src.inst.class.IsChildOf(dst.typ.class) {
			return ErrBadType1
		}
	}
	dst.Copy(src)
	return ErrNone
}
