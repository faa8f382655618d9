package cbot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeOrdering(t *testing.T) {
	require.True(t, TypByte.IsInteger())
	require.True(t, TypLong.IsInteger())
	require.False(t, TypFloat.IsInteger())
	require.True(t, TypDouble.IsNumeric())
	require.False(t, TypBoolean.IsNumeric())
	require.False(t, TypString.IsNumeric())
	require.Equal(t, TypDouble, maxType(TypInt, TypDouble))
	require.Equal(t, "boolean", TypBoolean.String())
}

func TestTypeResultString(t *testing.T) {
	env := NewEnvironment(nil)
	point := env.NewClass("Point", nil, true)

	require.Equal(t, "int", NewType(TypInt).String())
	require.Equal(t, "int[]", ArrayType(TypArrayPointer, NewType(TypInt)).String())
	require.Equal(t, "int[][]", ArrayType(TypArrayPointer, ArrayType(TypArrayPointer, NewType(TypInt))).String())
	require.Equal(t, "Point", ClassType(TypClass, point).String())
	require.Equal(t, TypIntrinsic, ClassType(TypClass, point).Type())
	require.True(t, ErrorType(ErrBadParam).IsError())
	require.Equal(t, -1, NewType(TypInt).Limit())
	require.Equal(t, 4, ArrayType(TypArrayPointer, NewType(TypInt)).WithLimit(4).Limit())
}

func TestAssignable(t *testing.T) {
	none := constInfo{}
	require.True(t, assignable(NewType(TypInt), NewType(TypByte), none))
	require.True(t, assignable(NewType(TypDouble), NewType(TypLong), none))
	require.False(t, assignable(NewType(TypByte), NewType(TypInt), none))
	require.True(t, assignable(NewType(TypByte), NewType(TypInt), constInfo{ok: true, val: 90}))
	require.False(t, assignable(NewType(TypByte), NewType(TypInt), constInfo{ok: true, val: 300}))
	require.False(t, assignable(NewType(TypInt), NewType(TypFloat), none))
	require.True(t, assignable(NewType(TypString), NewType(TypInt), none))
	require.False(t, assignable(NewType(TypBoolean), NewType(TypInt), none))
	require.False(t, assignable(NewType(TypInt), NewType(TypVoid), none))

	intArr := ArrayType(TypArrayPointer, NewType(TypInt))
	floatArr := ArrayType(TypArrayPointer, NewType(TypFloat))
	require.True(t, assignable(intArr, intArr, none))
	require.False(t, assignable(intArr, floatArr, none))
	require.True(t, assignable(intArr, NewType(TypNullPointer), none))
}

func TestClassCompatibility(t *testing.T) {
	env := NewEnvironment(nil)
	base := env.NewClass("Base", nil, false)
	derived := env.NewClass("Derived", base, false)
	other := env.NewClass("Other", nil, false)

	require.True(t, derived.IsChildOf(base))
	require.False(t, base.IsChildOf(derived))
	require.False(t, other.IsChildOf(base))

	pBase := ClassType(TypPointer, base)
	pDerived := ClassType(TypPointer, derived)
	pOther := ClassType(TypPointer, other)

	require.True(t, assignable(pBase, pDerived, constInfo{}))
	require.False(t, assignable(pBase, pOther, constInfo{}))
	require.True(t, typeCompatible(pBase, pDerived, IDEq))
	require.True(t, typeCompatible(pBase, NewType(TypNullPointer), IDNe))
	require.False(t, typeCompatible(pBase, pOther, IDEq))

	require.Equal(t, 0, paramCost(pBase, pBase))
	require.Equal(t, 10, paramCost(pBase, pDerived))
	require.Equal(t, -1, paramCost(pDerived, pBase))
}

func TestParamCost(t *testing.T) {
	require.Equal(t, 0, paramCost(NewType(TypInt), NewType(TypInt)))
	require.Equal(t, 3, paramCost(NewType(TypInt), NewType(TypByte)))
	require.Equal(t, 1, paramCost(NewType(TypLong), NewType(TypInt)))
	require.Equal(t, -1, paramCost(NewType(TypInt), NewType(TypFloat)))
	require.Equal(t, -1, paramCost(NewType(TypString), NewType(TypInt)))
	require.Equal(t, -1, paramCost(NewType(TypBoolean), NewType(TypInt)))
}

func TestTypeCompatibleOperators(t *testing.T) {
	str, num := NewType(TypString), NewType(TypInt)
	require.True(t, typeCompatible(str, num, IDAdd))
	require.False(t, typeCompatible(str, num, IDSub))
	require.True(t, typeCompatible(num, NewType(TypDouble), IDMul))
	require.False(t, typeCompatible(num, NewType(TypVoid), IDAdd))
	require.True(t, typeCompatible(NewType(TypBoolean), NewType(TypBoolean), IDLogAnd))
}

func TestVarConversions(t *testing.T) {
	b := NewVar("b", NewType(TypByte))
	require.False(t, b.IsDefined())
	require.Equal(t, "undefined", b.GetValString())
	b.SetValInt(300)
	require.Equal(t, int64(44), b.GetValInt())

	f := NewVar("f", NewType(TypFloat))
	f.SetValInt(3)
	require.Equal(t, "3", f.GetValString())
	f.SetValFloat(0.1)
	require.Equal(t, "0.1", f.GetValString())

	s := NewVar("s", NewType(TypString))
	s.SetValInt(42)
	require.Equal(t, "42", s.GetValString())

	i := NewVar("i", NewType(TypInt))
	i.Copy(s)
	require.Equal(t, int64(42), i.GetValInt())
	i.SetValFloat(7.9)
	require.Equal(t, int64(7), i.GetValInt())

	bo := NewVar("ok", NewType(TypBoolean))
	bo.SetValInt(5)
	require.True(t, bo.GetValBool())
	require.Equal(t, "true", bo.GetValString())

	c := NewVar("c", NewType(TypChar))
	c.SetValInt('A')
	require.Equal(t, "A", c.GetValString())
}

func TestVarNan(t *testing.T) {
	f := NewVar("f", NewType(TypFloat))
	f.SetNan()
	require.True(t, f.IsNan())
	require.Equal(t, "nan", f.GetValString())

	g := NewVar("g", NewType(TypDouble))
	g.Copy(f)
	require.True(t, g.IsNan())
	require.True(t, f.Equals(g))

	h := NewVar("h", NewType(TypDouble))
	h.SetValFloat(1)
	require.False(t, f.Equals(h))
}

func TestVarEquals(t *testing.T) {
	i := NewVar("i", NewType(TypInt))
	i.SetValInt(3)
	f := NewVar("f", NewType(TypDouble))
	f.SetValFloat(3)
	require.True(t, i.Equals(f))

	s := NewVar("s", NewType(TypString))
	s.SetValString("3")
	require.True(t, i.Equals(s))
}

func TestArrayGrowthAndCopy(t *testing.T) {
	typ := ArrayType(TypArrayPointer, NewType(TypInt)).WithLimit(3)
	a := NewVar("a", typ)
	require.Nil(t, a.ArrayItem(0, false))

	a.ArrayItem(1, true).SetValInt(5)
	require.Equal(t, 2, a.ArraySize())
	require.Nil(t, a.ArrayItem(3, true))
	require.Nil(t, a.ArrayItem(2, false))
	require.Equal(t, "{ 0, 5 }", a.GetValString())

	b := NewVar("b", typ)
	b.Copy(a)
	b.ArrayItem(0, false).SetValInt(9)
	require.Equal(t, int64(0), a.ArrayItem(0, false).GetValInt())
	require.Equal(t, "{ 9, 5 }", b.GetValString())
}

func TestPointerRefCounting(t *testing.T) {
	env := NewEnvironment(nil)
	cl := env.NewClass("Node", nil, false)
	require.True(t, cl.AddItem("value", NewType(TypInt), AccessPublic))
	require.False(t, cl.AddItem("value", NewType(TypInt), AccessPublic))

	inst := newObject(cl, nil)
	p1 := NewVar("p1", ClassType(TypPointer, cl))
	p1.SetInstance(inst)
	require.Equal(t, 1, inst.Refs())

	p2 := NewVar("p2", ClassType(TypPointer, cl))
	p2.Copy(p1)
	require.Equal(t, 2, inst.Refs())
	require.Same(t, p1.Instance(), p2.Instance())

	p1.SetNull()
	require.Equal(t, 1, inst.Refs())
	require.False(t, inst.IsDeleted())

	p2.SetNull()
	require.True(t, inst.IsDeleted())
}

func TestIntrinsicValueSemantics(t *testing.T) {
	env := NewEnvironment(nil)
	point := env.NewClass("Point", nil, true)
	point.AddItem("x", NewType(TypInt), AccessPublic)
	point.AddItem("y", NewType(TypInt), AccessPublic)

	v := NewVar("v", ClassType(TypClass, point))
	require.Equal(t, TypIntrinsic, v.Type())
	v.Field("x").SetValInt(5)

	w := NewVar("w", ClassType(TypClass, point))
	w.Copy(v)
	require.Equal(t, int64(5), w.Field("x").GetValInt())
	w.Field("x").SetValInt(7)
	require.Equal(t, int64(5), v.Field("x").GetValInt())
	require.Equal(t, "Point( x=5, y=0 )", v.GetValString())
}

func TestInstanceInheritance(t *testing.T) {
	env := NewEnvironment(nil)
	base := env.NewClass("Base", nil, false)
	base.AddItem("a", NewType(TypInt), AccessPublic)
	derived := env.NewClass("Derived", base, false)
	derived.AddItem("b", NewType(TypInt), AccessPublic)

	inst := newInstance(derived)
	require.NotNil(t, inst.Field("a"))
	require.NotNil(t, inst.Field("b"))
	require.Same(t, inst.parent, inst.level(base))
	require.Equal(t, inst.ID(), inst.parent.ID())
	require.Equal(t, "Derived( b=0 ) extends Base( a=0 )", inst.String())
}

func TestArgList(t *testing.T) {
	a := NewVar("a", NewType(TypInt))
	b := NewVar("b", NewType(TypString))
	a.SetNext(b)

	args := NewArgList(a)
	require.Same(t, a, args.Peek())
	require.Same(t, a, args.Next())
	require.Same(t, b, args.Next())
	require.True(t, args.Empty())
	require.Nil(t, args.Next())
}
