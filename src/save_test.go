package cbot

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileIONumbers(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWord(&buf, 65535))
	require.NoError(t, WriteInt(&buf, -300))
	require.NoError(t, WriteInt(&buf, math.MaxInt32))
	require.NoError(t, WriteLong(&buf, math.MinInt64))
	require.NoError(t, WriteShort(&buf, -2))
	require.NoError(t, WriteUInt32(&buf, 0x10FFFF))
	require.NoError(t, WriteFloat(&buf, 1.5))
	require.NoError(t, WriteDouble(&buf, math.Pi))
	require.NoError(t, WriteByte(&buf, 0xAB))

	r := bytes.NewReader(buf.Bytes())
	w, err := ReadWord(r)
	require.NoError(t, err)
	require.Equal(t, uint16(65535), w)
	i, err := ReadInt(r)
	require.NoError(t, err)
	require.Equal(t, int32(-300), i)
	i, err = ReadInt(r)
	require.NoError(t, err)
	require.Equal(t, int32(math.MaxInt32), i)
	l, err := ReadLong(r)
	require.NoError(t, err)
	require.Equal(t, int64(math.MinInt64), l)
	s, err := ReadShort(r)
	require.NoError(t, err)
	require.Equal(t, int16(-2), s)
	u, err := ReadUInt32(r)
	require.NoError(t, err)
	require.Equal(t, uint32(0x10FFFF), u)
	f, err := ReadFloat(r)
	require.NoError(t, err)
	require.Equal(t, float32(1.5), f)
	d, err := ReadDouble(r)
	require.NoError(t, err)
	require.Equal(t, math.Pi, d)
	b, err := ReadByte(r)
	require.NoError(t, err)
	require.Equal(t, byte(0xAB), b)
	require.Zero(t, r.Len())
}

func TestFileIOLayout(t *testing.T) {
	tests := []struct {
		name  string
		write func(*bytes.Buffer) error
		want  []byte
	}{
		{"word", func(b *bytes.Buffer) error { return WriteWord(b, 0x1234) }, []byte{0x34, 0x12}},
		{"short", func(b *bytes.Buffer) error { return WriteShort(b, -2) }, []byte{0xfe, 0xff}},
		{"int", func(b *bytes.Buffer) error { return WriteInt(b, 300) }, []byte{0x2c, 0x01, 0, 0}},
		{"negative int", func(b *bytes.Buffer) error { return WriteInt(b, -1) }, []byte{0xff, 0xff, 0xff, 0xff}},
		{"uint32", func(b *bytes.Buffer) error { return WriteUInt32(b, 0x10FFFF) }, []byte{0xff, 0xff, 0x10, 0}},
		{"long", func(b *bytes.Buffer) error { return WriteLong(b, 105) }, []byte{105, 0, 0, 0, 0, 0, 0, 0}},
		{"float", func(b *bytes.Buffer) error { return WriteFloat(b, 1) }, []byte{0, 0, 0x80, 0x3f}},
		{"double", func(b *bytes.Buffer) error { return WriteDouble(b, 2) }, []byte{0, 0, 0, 0, 0, 0, 0, 0x40}},
		{"byte", func(b *bytes.Buffer) error { return WriteByte(b, 7) }, []byte{7}},
		{"string", func(b *bytes.Buffer) error { return WriteString(b, "ok") }, []byte{2, 0, 0, 0, 'o', 'k'}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, tt.write(&buf))
			require.Equal(t, tt.want, buf.Bytes())
		})
	}
}

func TestFileIOTruncated(t *testing.T) {
	_, err := ReadInt(bytes.NewReader([]byte{1, 2}))
	require.ErrorIs(t, err, errBadState)

	_, err = ReadLong(bytes.NewReader([]byte{1, 2, 3, 4}))
	require.ErrorIs(t, err, errBadState)

	_, err = ReadDouble(bytes.NewReader([]byte{1, 2}))
	require.Error(t, err)

	_, err = ReadString(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0x7f}))
	require.ErrorIs(t, err, errBadState)
}

func TestFileIOStrings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteString(&buf, "héllo"))
	require.NoError(t, WriteString(&buf, ""))

	r := bytes.NewReader(buf.Bytes())
	s, err := ReadString(r)
	require.NoError(t, err)
	require.Equal(t, "héllo", s)
	s, err = ReadString(r)
	require.NoError(t, err)
	require.Equal(t, "", s)

	// declared length past the end of the stream
	_, err = ReadString(bytes.NewReader([]byte{10, 'a'}))
	require.Error(t, err)
}

func TestFileIOTypes(t *testing.T) {
	env := NewEnvironment(nil)
	node := env.NewClass("Node", nil, false)

	types := []TypeResult{
		NewType(TypInt),
		NewType(TypString),
		ClassType(TypPointer, node),
		ArrayType(TypArrayPointer, NewType(TypFloat)).WithLimit(5),
		ArrayType(TypArrayPointer, ArrayType(TypArrayPointer, ClassType(TypPointer, node))),
	}
	var buf bytes.Buffer
	for _, typ := range types {
		require.NoError(t, WriteType(&buf, typ))
	}
	r := bytes.NewReader(buf.Bytes())
	for _, want := range types {
		got, err := ReadType(r, env)
		require.NoError(t, err)
		require.Equal(t, want.String(), got.String())
		require.Equal(t, want.Type(), got.Type())
		require.Equal(t, want.Limit(), got.Limit())
	}

	buf.Reset()
	require.NoError(t, WriteType(&buf, ClassType(TypPointer, node)))
	_, err := ReadType(bytes.NewReader(buf.Bytes()), NewEnvironment(nil))
	require.ErrorIs(t, err, errBadState)
}

func TestSaveVarsSharesInstances(t *testing.T) {
	env := NewEnvironment(nil)
	node := env.NewClass("Node", nil, false)
	node.AddItem("value", NewType(TypInt), AccessPublic)

	inst := newObject(node, nil)
	inst.Field("value").SetValInt(11)
	a := NewVar("a", ClassType(TypPointer, node))
	a.SetInstance(inst)
	b := NewVar("b", ClassType(TypPointer, node))
	b.Copy(a)
	none := NewVar("none", ClassType(TypPointer, node))

	n := NewVar("n", NewType(TypDouble))
	n.SetValFloat(2.25)
	s := NewVar("s", NewType(TypString))
	s.SetValString("saved")
	arr := NewVar("arr", ArrayType(TypArrayPointer, NewType(TypInt)).WithLimit(4))
	arr.ArrayItem(2, true).SetValInt(7)

	var buf bytes.Buffer
	require.NoError(t, SaveVars(&buf, []*Var{a, b, none, n, s, arr}))

	vars, err := RestoreVars(bytes.NewReader(buf.Bytes()), env)
	require.NoError(t, err)
	require.Len(t, vars, 6)

	ra, rb := vars[0], vars[1]
	require.Equal(t, "a", ra.Name())
	require.NotNil(t, ra.Instance())
	require.Same(t, ra.Instance(), rb.Instance())
	require.Equal(t, 2, ra.Instance().Refs())
	require.Equal(t, int64(11), ra.Instance().Field("value").GetValInt())

	require.Nil(t, vars[2].Instance())
	require.Equal(t, 2.25, vars[3].GetValFloat())
	require.Equal(t, "saved", vars[4].GetValString())
	require.Equal(t, 3, vars[5].ArraySize())
	require.Equal(t, 4, vars[5].TypeResult().Limit())
	require.Equal(t, int64(7), vars[5].ArrayItem(2, false).GetValInt())
}

func TestRestoreVarsRejectsUnknownClass(t *testing.T) {
	env := NewEnvironment(nil)
	node := env.NewClass("Node", nil, false)
	p := NewVar("p", ClassType(TypPointer, node))
	p.SetInstance(newObject(node, nil))

	var buf bytes.Buffer
	require.NoError(t, SaveVars(&buf, []*Var{p}))
	_, err := RestoreVars(bytes.NewReader(buf.Bytes()), NewEnvironment(nil))
	require.ErrorIs(t, err, errBadState)
}

// frameWhere returns the first frame of the primary chain matching ok
func frameWhere(p *Program, ok func(*Stack) bool) *Stack {
	for s := p.stack; s != nil; s = s.next {
		if ok(s) {
			return s
		}
	}
	return nil
}

func TestRestoreRejectsOtherProgram(t *testing.T) {
	forLoop := `extern int main() {
	int t = 0;
	for (int i = 0; i < 100; i++) t += 10;
	return t;
}`
	whileLoop := `extern int main() {
	int t = 0;
	while (t < 1000) t += 10;
	return t;
}`
	var out bytes.Buffer
	env := testEnv(t, &out)
	a := compileOK(t, env, forLoop)
	require.NoError(t, a.Start("main"))
	for i := 0; i < 23; i++ {
		require.False(t, a.Run(nil, 0))
	}
	var buf bytes.Buffer
	require.NoError(t, a.SaveState(&buf))

	same := compileOK(t, testEnv(t, &out), forLoop)
	require.NoError(t, same.RestoreState(bytes.NewReader(buf.Bytes())))
	require.True(t, same.IsRunning())

	other := compileOK(t, testEnv(t, &out), whileLoop)
	err := other.RestoreState(bytes.NewReader(buf.Bytes()))
	require.ErrorIs(t, err, errBadState)
	require.False(t, other.IsRunning())
}

func TestRestoreRejectsLostOperand(t *testing.T) {
	src := `extern int main() {
	int x = rec(1) + slow();
	return x;
}`
	var out bytes.Buffer
	env := testEnv(t, &out)
	(&recorder{}).register(env)
	p := compileOK(t, env, src)
	require.NoError(t, p.Start("main"))

	var left *Stack
	for i := 0; left == nil; i++ {
		require.Less(t, i, 1000)
		require.False(t, p.Run(nil, 0))
		left = frameWhere(p, func(s *Stack) bool {
			_, ok := s.instr.(*exprTwoOp)
			return ok && s.state == 1 && s.result != nil
		})
	}
	left.result.release()
	left.result = nil
	var buf bytes.Buffer
	require.NoError(t, p.SaveState(&buf))

	fresh := testEnv(t, &out)
	(&recorder{}).register(fresh)
	q := compileOK(t, fresh, src)
	err := q.RestoreState(bytes.NewReader(buf.Bytes()))
	require.ErrorIs(t, err, errBadState)
	require.False(t, q.IsRunning())
}

func TestRestoreRejectsStateOutOfRange(t *testing.T) {
	src := `extern int main() {
	int t = 0;
	for (int i = 0; i < 100; i++) t += 1;
	return t;
}`
	var out bytes.Buffer
	env := testEnv(t, &out)
	p := compileOK(t, env, src)
	require.NoError(t, p.Start("main"))
	var loop *Stack
	for i := 0; loop == nil; i++ {
		require.Less(t, i, 1000)
		require.False(t, p.Run(nil, 0))
		loop = frameWhere(p, func(s *Stack) bool {
			_, ok := s.instr.(*forInstr)
			return ok
		})
	}
	loop.state = 9
	var buf bytes.Buffer
	require.NoError(t, p.SaveState(&buf))

	q := compileOK(t, testEnv(t, &out), src)
	err := q.RestoreState(bytes.NewReader(buf.Bytes()))
	require.ErrorIs(t, err, errBadState)
	require.False(t, q.IsRunning())
}
