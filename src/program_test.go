package cbot

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Codes raised by the ASSERT and FAIL test natives
const (
	errAssert ErrorCode = 9000
	errFail   ErrorCode = 9001
)

// testEnv creates a quiet environment with the libraries and the ASSERT
// and FAIL natives, writing script output to out
func testEnv(t *testing.T, out io.Writer) *Environment {
	t.Helper()
	env := NewEnvironment(nil)
	env.Logger().SetOutput(io.Discard, io.Discard)
	env.RegisterStringLib()
	env.RegisterOutputLib(out)
	env.AddFunction("ASSERT", func(args, result *Var, user any) (bool, ErrorCode) {
		if !args.GetValBool() {
			return false, errAssert
		}
		return true, ErrNone
	}, func(args *ArgList, user any) TypeResult {
		a := args.Next()
		if a == nil {
			return ErrorType(ErrLowParam)
		}
		if a.Type() != TypBoolean {
			return ErrorType(ErrBadParam)
		}
		if !args.Empty() {
			return ErrorType(ErrOverParam)
		}
		return NewType(TypVoid)
	})
	env.AddFunction("FAIL", func(args, result *Var, user any) (bool, ErrorCode) {
		return false, errFail
	}, func(args *ArgList, user any) TypeResult {
		if !args.Empty() {
			return ErrorType(ErrOverParam)
		}
		return NewType(TypVoid)
	})
	return env
}

func compileOK(t *testing.T, env *Environment, src string) *Program {
	t.Helper()
	p := env.NewProgram("test")
	_, err := p.Compile(src, nil)
	require.NoError(t, err)
	return p
}

// runToEnd runs entry with the given per-tick budget and returns the
// number of ticks used
func runToEnd(t *testing.T, p *Program, entry string, timer int) int {
	t.Helper()
	require.NoError(t, p.Start(entry))
	for ticks := 1; ticks < 1_000_000; ticks++ {
		if p.Run(nil, timer) {
			return ticks
		}
	}
	t.Fatal("script did not finish")
	return 0
}

// runScript compiles src, runs main to completion and returns its output
func runScript(t *testing.T, src string) (*Program, string) {
	t.Helper()
	var out bytes.Buffer
	env := testEnv(t, &out)
	p := compileOK(t, env, src)
	runToEnd(t, p, "main", 1000)
	return p, out.String()
}

func requireRunOK(t *testing.T, src string) *Program {
	t.Helper()
	p, _ := runScript(t, src)
	if err := p.Error(); err != nil {
		t.Fatalf("run failed: %v at %+v", err, err.Position)
	}
	return p
}

func TestArithmeticAndTypes(t *testing.T) {
	p := requireRunOK(t, `extern int main() {
	int a = 7;
	int b = 2;
	ASSERT(a / b == 3);
	ASSERT(a % b == 1);
	ASSERT(a * b + 1 == 15);
	float f = 7;
	ASSERT(f / 2 == 3.5);
	ASSERT(2 ** 10 == 1024);
	ASSERT((5 & 3) == 1);
	ASSERT((5 | 3) == 7);
	ASSERT((5 ^ 3) == 6);
	ASSERT((1 << 4) == 16);
	ASSERT((16 >> 2) == 4);
	ASSERT(-16 >>> 2 == -4);
	ASSERT(~0 == -1);
	byte small = 100;
	ASSERT(small == 100);
	long big = 3000000000;
	ASSERT(big > 2000000000);
	a += 3;
	a *= 2;
	ASSERT(a == 20);
	int i = 5;
	int j = i++;
	ASSERT(j == 5 && i == 6);
	j = --i;
	ASSERT(j == 5);
	return a + i;
}`)
	require.Equal(t, int64(25), p.Result().GetValInt())
}

func TestStringsAndConcatenation(t *testing.T) {
	p, out := runScript(t, `extern void main() {
	string s = "count: " + 3;
	ASSERT(s == "count: 3");
	ASSERT(strlen("hello") == 5);
	ASSERT(strleft("hello", 2) == "he");
	ASSERT(strright("hello", 3) == "llo");
	ASSERT(strmid("hello", 1, 3) == "ell");
	ASSERT(strmid("hello", 2) == "llo");
	ASSERT(strfind("hello", "ll") == 2);
	ASSERT(strfind("hello", "z") == -1);
	ASSERT(strupper("abc") == "ABC");
	ASSERT(strlower("ÀBC") == "àbc");
	ASSERT(strval("12.5xyz") == 12.5);
	char c = 'A';
	println("c=", c, " s=", s);
	print(1, 2);
	println();
}`)
	require.Nil(t, p.Error())
	require.Equal(t, "c=A s=count: 3\n12\n", out)
}

func TestControlFlow(t *testing.T) {
	p := requireRunOK(t, `extern int main() {
	int sum = 0;
	for (int i = 0; i < 10; i++) {
		if (i % 2 == 0) continue;
		sum += i;
	}
	ASSERT(sum == 25);

	int n = 0;
	while (true) {
		n++;
		if (n >= 4) break;
	}
	ASSERT(n == 4);

	int d = 0;
	do {
		d += 3;
	} while (d < 10);
	ASSERT(d == 12);

	int r = 0;
	repeat (5) {
		r++;
	}
	ASSERT(r == 5);

	int hits = 0;
	outer: for (int x = 0; x < 5; x++) {
		for (int y = 0; y < 5; y++) {
			if (y == 2) continue outer;
			if (x == 3) break outer;
			hits++;
		}
	}
	ASSERT(hits == 6);

	int k = 10 > 5 ? 1 : 2;
	ASSERT(k == 1);
	return sum + n;
}`)
	require.Equal(t, int64(29), p.Result().GetValInt())
}

func TestSwitch(t *testing.T) {
	requireRunOK(t, `int classify(int v) {
	int out = 0;
	switch (v) {
	case 1:
		out = 10;
		break;
	case 2:
	case 3:
		out = 20;
		break;
	default:
		out = -1;
	}
	return out;
}

int fall(int v) {
	int out = 0;
	switch (v) {
	case 1:
		out += 1;
	case 2:
		out += 2;
	}
	return out;
}

string name(string s) {
	switch (s) {
	case "a": return "alpha";
	case "b": return "beta";
	}
	return "?";
}

extern void main() {
	ASSERT(classify(1) == 10);
	ASSERT(classify(3) == 20);
	ASSERT(classify(9) == -1);
	ASSERT(fall(1) == 3);
	ASSERT(fall(2) == 2);
	ASSERT(fall(5) == 0);
	ASSERT(name("b") == "beta");
	ASSERT(name("z") == "?");
}`)
}

func TestFunctionsAndOverloads(t *testing.T) {
	requireRunOK(t, `int fact(int n) {
	if (n <= 1) return 1;
	return n * fact(n - 1);
}

string kind(int x) { return "int"; }
string kind(float x) { return "float"; }
string kind(string x) { return "string"; }

int add(int a, int b = 10) { return a + b; }

void bump(int x) { x = x + 1; }

extern void main() {
	ASSERT(fact(6) == 720);
	ASSERT(kind(1) == "int");
	ASSERT(kind(1.5) == "float");
	ASSERT(kind("s") == "string");
	ASSERT(add(1) == 11);
	ASSERT(add(1, 2) == 3);
	int v = 1;
	bump(v);
	ASSERT(v == 1);
	ASSERT(later() == 42);
}

int later() { return 42; }`)
}

func TestArrays(t *testing.T) {
	requireRunOK(t, `extern void main() {
	int a[5];
	ASSERT(sizeof(a) == 0);
	a[2] = 7;
	ASSERT(sizeof(a) == 3);
	int b[] = {1, 2, 3};
	ASSERT(sizeof(b) == 3);
	ASSERT(b[0] + b[1] + b[2] == 6);

	int c[] = b;
	c[0] = 100;
	ASSERT(b[0] == 1);

	int grid[3][3];
	grid[1][2] = 5;
	ASSERT(grid[1][2] == 5);

	string words[] = {"x", "y"};
	ASSERT(words[1] == "y");
}`)
}

func TestArrayOutOfRange(t *testing.T) {
	p, _ := runScript(t, `extern void main() {
	int a[2];
	a[5] = 1;
}`)
	require.NotNil(t, p.Error())
	require.Equal(t, ErrOutArray, p.Error().Code)
}

func TestClasses(t *testing.T) {
	requireRunOK(t, `public class Shape {
	string label = "shape";
	static int created = 0;
	void Shape() { created++; }
	float area() { return 0; }
	string describe() { return label + ":" + area(); }
}

public class Rect extends Shape {
	float w;
	float h;
	void Rect(float a, float b) { w = a; h = b; label = "rect"; created++; }
	float area() { return w * h; }
}

extern void main() {
	Shape s = new Shape();
	ASSERT(s.area() == 0);
	ASSERT(s.label == "shape");

	Rect r = new Rect(2, 3);
	ASSERT(r.area() == 6);
	ASSERT(r.describe() == "rect:6");

	Shape poly = r;
	ASSERT(poly.area() == 6);

	Shape same = s;
	same.label = "renamed";
	ASSERT(s.label == "renamed");

	Shape nothing = null;
	ASSERT(nothing == null);
	ASSERT(s != null);
}`)
}

func TestOverrideThroughDerivedVariable(t *testing.T) {
	p := requireRunOK(t, `public class A {
	int f() { return 1; }
	int g(int n) { return n; }
}

public class B extends A {
	int f() { return 2; }
	int g(float n) { return 20; }
}

public class C extends B {
	int f() { return 3; }
}

extern int main() {
	B b = new B();
	ASSERT(b.f() == 2);
	A a = b;
	ASSERT(a.f() == 2);
	B c = new C();
	ASSERT(c.f() == 3);
	C cc = new C();
	ASSERT(cc.f() == 3);
	ASSERT(b.g(4) == 4);
	ASSERT(b.g(1.5) == 20);
	return b.f();
}`)
	require.Equal(t, int64(2), p.Result().GetValInt())
}

func TestClassStaticsAndPrivate(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)
	p := env.NewProgram("test")
	_, err := p.Compile(`public class Counter {
	private int hidden;
	static int total = 5;
	void inc() { hidden++; total++; }
	int get() { return hidden; }
}

extern void main() {
	Counter c = new Counter();
	c.inc();
	c.inc();
	ASSERT(c.get() == 2);
	ASSERT(c.total == 7);
}`, nil)
	require.NoError(t, err)
	runToEnd(t, p, "main", 100)
	require.Nil(t, p.Error())

	total := env.FindClass("Counter").Static("total")
	require.Equal(t, int64(7), total.GetValInt())

	_, err = env.NewProgram("bad").Compile(`extern void main() {
	Counter c = new Counter();
	c.hidden = 1;
}`, nil)
	require.Error(t, err)
	var cerr *CBotError
	require.True(t, errors.As(err, &cerr))
	require.Equal(t, ErrPrivate, cerr.Code)
}

func TestExceptions(t *testing.T) {
	requireRunOK(t, `int risky(int d) {
	return 10 / d;
}

extern void main() {
	int caught = 0;
	try {
		risky(0);
	} catch (CBotErrZeroDiv) {
		caught = 1;
	}
	ASSERT(caught == 1);

	int fin = 0;
	try {
		throw 42;
	} catch (7) {
		caught = 7;
	} catch (42) {
		caught = 42;
	} finally {
		fin = 1;
	}
	ASSERT(caught == 42 && fin == 1);

	int any = 0;
	try {
		int a[1];
		a[3] = 0;
	} catch (true) {
		any = 1;
	}
	ASSERT(any == 1);

	int order = 0;
	for (int i = 0; i < 3; i++) {
		try {
			if (i == 1) break;
		} finally {
			order++;
		}
	}
	ASSERT(order == 2);
}`)
}

func TestUncaughtErrors(t *testing.T) {
	cases := map[string]ErrorCode{
		`extern void main() { int z = 0; int x = 5 / z; }`:               ErrZeroDiv,
		`extern void main() { int x; int y = x + 1; }`:                   ErrNotInit,
		`extern void main() { throw 77; }`:                               ErrorCode(77),
		`extern void main() { ASSERT(1 == 2); }`:                         errAssert,
		`public class A { int v; } extern void main() { A a; a.v = 1; }`: ErrNull,
	}
	for src, code := range cases {
		p, _ := runScript(t, src)
		err := p.Error()
		require.NotNil(t, err, src)
		require.Equal(t, code, err.Code, src)
	}
}

func TestRuntimeErrorPosition(t *testing.T) {
	p, _ := runScript(t, "extern void main() {\n\tint z = 0;\n\tint x = 1 / z;\n}")
	err := p.Error()
	require.NotNil(t, err)
	require.Equal(t, ErrZeroDiv, err.Code)
	require.Equal(t, 3, err.Position.Line)
	require.Equal(t, "main", err.Function)
	require.Equal(t, "/", p.Source()[err.Start:err.End])
}

func TestCompileErrors(t *testing.T) {
	cases := map[string]ErrorCode{
		`extern void main() { x = 1; }`:                         ErrUndefVar,
		`extern void main() { int x = 1 }`:                      ErrNoTerminator,
		`extern void main() { int x = "a"; }`:                   ErrBadType1,
		`extern void main() { if (1) {} }`:                      ErrNotBoolean,
		`extern void main() { int x; int x; }`:                  ErrRedefVar,
		`extern void main() { nothing(); }`:                     ErrUndefCall,
		`extern void main() { break; }`:                         ErrBreakOutside,
		`extern int main() { return; }`:                         ErrNoExpression,
		`void f() {} void f() {} extern void main() {}`:         ErrRedefFunc,
		`extern void main() { strlen(); }`:                      ErrLowParam,
		`extern void main() { else {} }`:                        ErrElseWithoutIf,
		`extern void main() { switch (1) { case 1: case 1: } }`: ErrRedefCase,
		`extern void main() { string s = "open; }`:              ErrEndQuote,
		`class A {} class A {} extern void main() {}`:           ErrRedefClass,
		`extern void main() { lbl: int x; }`:                    ErrLabel,
		`extern void main() { int x = (1 + 2; }`:                ErrClosePar,
		`extern int main() { if (true) return 1; }`:             ErrNoReturn,
	}
	for src, code := range cases {
		var out bytes.Buffer
		env := testEnv(t, &out)
		p := env.NewProgram("bad")
		_, err := p.Compile(src, nil)
		require.Error(t, err, src)
		var cerr *CBotError
		require.True(t, errors.As(err, &cerr), src)
		require.Equal(t, code, cerr.Code, src)
		require.NotNil(t, cerr.Position, src)
		gotCode, _, _ := p.GetError()
		require.Equal(t, code, gotCode, src)
	}
}

func TestExternsAndEntry(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)
	p := env.NewProgram("test")
	externs, err := p.Compile(`void helper() {}
extern void first() {}
extern void second() { helper(); }`, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second"}, externs)

	require.Error(t, p.Start("helper"))
	code, _, _ := p.GetError()
	require.Equal(t, ErrNoRun, code)

	runToEnd(t, p, "second", 10)
	require.Nil(t, p.Error())
	require.False(t, p.IsRunning())
}

func TestStepModeMatchesFullRun(t *testing.T) {
	src := `extern int main() {
	int total = 0;
	for (int i = 0; i < 20; i++) {
		total += i * 2;
	}
	return total;
}`
	var out bytes.Buffer
	env := testEnv(t, &out)

	fast := compileOK(t, env, src)
	fastTicks := runToEnd(t, fast, "main", 100000)
	require.Equal(t, 1, fastTicks)
	require.Equal(t, int64(380), fast.Result().GetValInt())

	slow := env.NewProgram("slow")
	_, err := slow.Compile(src, nil)
	require.NoError(t, err)
	slowTicks := runToEnd(t, slow, "main", 0)
	require.Greater(t, slowTicks, 20)
	require.Equal(t, int64(380), slow.Result().GetValInt())
}

func TestSuspendingNative(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)
	calls := 0
	env.AddFunction("wait", func(args, result *Var, user any) (bool, ErrorCode) {
		calls++
		return calls >= 3, ErrNone
	}, func(args *ArgList, user any) TypeResult {
		return NewType(TypVoid)
	})
	p := compileOK(t, env, `extern void main() { println("a"); wait(); println("b"); }`)
	require.NoError(t, p.Start("main"))
	require.False(t, p.Run(nil, 1000))
	require.Equal(t, "a\n", out.String())
	require.False(t, p.Run(nil, 1000))
	require.True(t, p.Run(nil, 1000))
	require.Equal(t, "a\nb\n", out.String())
	require.Equal(t, 3, calls)
}

func TestRunPosAndStackVars(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)
	p := compileOK(t, env, `void inner(int depth) {
	int local = depth * 2;
	while (true) {}
}

extern void main() {
	int outerVar = 3;
	inner(outerVar);
}`)
	require.NoError(t, p.Start("main"))
	for i := 0; i < 5; i++ {
		require.False(t, p.Run(nil, 20))
	}
	fn, start, end := p.GetRunPos()
	require.Equal(t, "inner", fn)
	require.True(t, start >= 0 && end >= start)

	vars, name := p.GetStackVars(0)
	require.Equal(t, "inner", name)
	names := map[string]int64{}
	for _, v := range vars {
		names[v.Name()] = v.GetValInt()
	}
	require.Equal(t, int64(3), names["depth"])
	require.Equal(t, int64(6), names["local"])

	vars, name = p.GetStackVars(1)
	require.Equal(t, "main", name)
	var outer []string
	for _, v := range vars {
		outer = append(outer, v.Name())
	}
	require.Contains(t, outer, "outerVar")

	vars, name = p.GetStackVars(2)
	require.Nil(t, vars)
	require.Equal(t, "", name)

	p.Stop()
	require.False(t, p.IsRunning())
}

func TestStackOverflow(t *testing.T) {
	p, _ := runScript(t, `int down(int n) { return down(n + 1); }
extern void main() { down(0); }`)
	require.NotNil(t, p.Error())
	require.Equal(t, ErrStackOver, p.Error().Code)
}

func TestDefinedConstants(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)
	require.True(t, env.DefineNum("Answer", 42))
	require.False(t, env.DefineNum("Answer", 43))
	p := compileOK(t, env, `extern int main() { return Answer + CBotErrZeroDiv - 6000; }`)
	runToEnd(t, p, "main", 100)
	require.Equal(t, int64(42), p.Result().GetValInt())
}

func TestHostGlobals(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)
	g := NewVar("level", NewType(TypInt))
	g.SetValInt(4)
	env.AddGlobal(g)
	p := compileOK(t, env, `extern void main() { level = level * 10; }`)
	runToEnd(t, p, "main", 100)
	require.Nil(t, p.Error())
	require.Equal(t, int64(40), env.FindGlobal("level").GetValInt())
}

func TestPublicFunctionsAcrossPrograms(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)
	compileOK(t, env, `public int shared(int x) { return x + 1; }`)
	user := env.NewProgram("user")
	_, err := user.Compile(`extern int main() { return shared(1); }`, nil)
	require.NoError(t, err)
	runToEnd(t, user, "main", 100)
	require.Equal(t, int64(2), user.Result().GetValInt())
}

func TestRecompileReplacesCode(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)
	p := compileOK(t, env, `extern int main() { return 1; }`)
	runToEnd(t, p, "main", 100)
	require.Equal(t, int64(1), p.Result().GetValInt())

	_, err := p.Compile(`extern int main() { return 2; }`, nil)
	require.NoError(t, err)
	runToEnd(t, p, "main", 100)
	require.Equal(t, int64(2), p.Result().GetValInt())
}

// saveAndRestore moves a session into a fresh environment compiled from the
// same source, as a host would after a restart
func saveAndRestore(t *testing.T, env *Environment, src string, out io.Writer) (*Environment, *Program) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, env.SaveSession(&buf))

	fresh := testEnv(t, out)
	p := compileOK(t, fresh, src)
	require.NoError(t, fresh.RestoreSession(bufio.NewReader(&buf), nil))
	return fresh, p
}

func TestSaveRestoreEveryTick(t *testing.T) {
	src := `public class Box {
	int v;
	static int made = 0;
	void Box(int x) { v = x; made++; }
}

int triple(int x) {
	int r = 0;
	repeat (3) { r += x; }
	return r;
}

extern int main() {
	Box shared = new Box(2);
	Box alias = shared;
	int arr[] = {1, 2, 3};
	string s = "";
	int total = 0;
	for (int i = 0; i < 6; i++) {
		total += triple(arr[i % 3]) + shared.v;
		s += i;
		try {
			if (i == 4) throw 9;
		} catch (9) {
			total += 100;
		}
	}
	alias.v = 50;
	ASSERT(shared.v == 50);
	ASSERT(s == "012345");
	ASSERT(shared.made == 1);
	return total;
}`
	var out bytes.Buffer
	ref := testEnv(t, &out)
	rp := compileOK(t, ref, src)
	runToEnd(t, rp, "main", 1000)
	require.Nil(t, rp.Error())
	want := rp.Result().GetValInt()
	require.Equal(t, int64(148), want)

	env := testEnv(t, &out)
	p := compileOK(t, env, src)
	require.NoError(t, p.Start("main"))
	for ticks := 0; ; ticks++ {
		require.Less(t, ticks, 100000)
		if p.Run(nil, 0) {
			break
		}
		env, p = saveAndRestore(t, env, src, &out)
		require.True(t, p.IsRunning())
	}
	require.Nil(t, p.Error())
	require.Equal(t, want, p.Result().GetValInt())
}

func TestSaveRestoreNotRunning(t *testing.T) {
	src := `extern void main() {}`
	var out bytes.Buffer
	env := testEnv(t, &out)
	compileOK(t, env, src)
	_, p := saveAndRestore(t, env, src, &out)
	require.False(t, p.IsRunning())
}

func TestRestoreRejectsBadData(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)
	p := compileOK(t, env, `extern void main() {}`)
	err := p.RestoreState(bufio.NewReader(strings.NewReader("\x01\x02")))
	require.Error(t, err)
	require.False(t, p.IsRunning())
}

func TestSynchronizedMethods(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)
	src := `public class Gate {
	static int inside = 0;
	synchronized void pass() {
		inside++;
		ASSERT(inside == 1);
		repeat (5) {}
		inside--;
	}
}
extern void main() {
	Gate g = new Gate();
	for (int i = 0; i < 3; i++) g.pass();
}`
	a := compileOK(t, env, src)
	runToEnd(t, a, "main", 0)
	require.Nil(t, a.Error())
}

func TestFreeRemovesProgram(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)
	p := compileOK(t, env, `public class Temp {} extern void main() {}`)
	require.NotNil(t, env.FindClass("Temp"))
	require.Len(t, env.Programs(), 1)
	p.Free()
	require.Empty(t, env.Programs())
	require.Nil(t, env.FindClass("Temp"))
}

const suiteSource = `public class Node {
	int value;
	Node next = null;
	void Node(int v) { value = v; }
}

int sumList(Node head) {
	int total = 0;
	Node n = head;
	while (n != null) {
		total += n.value;
		n = n.next;
	}
	return total;
}

extern void LinkedList() {
	Node head = new Node(1);
	head.next = new Node(2);
	head.next.next = new Node(3);
	ASSERT(sumList(head) == 6);
}

extern void NestedTry() {
	int log = 0;
	try {
		try {
			throw 5;
		} finally {
			log += 1;
		}
	} catch (5) {
		log += 10;
	}
	ASSERT(log == 11);
}

extern void Unreachable() {
	if (false) FAIL();
}

extern void DivideByZero() {
	int z = 0;
	z = 1 / z;
}

extern void Thrown() {
	throw 12;
}

extern void Failing() {
	FAIL();
}`

// runExtern runs one extern function in step mode, optionally moving the
// session into a fresh environment after every tick
func runExtern(t *testing.T, entry string, saveEachTick bool) *CBotError {
	t.Helper()
	var out bytes.Buffer
	env := testEnv(t, &out)
	p := compileOK(t, env, suiteSource)
	require.NoError(t, p.Start(entry))
	for ticks := 0; ; ticks++ {
		require.Less(t, ticks, 100000)
		if p.Run(nil, 0) {
			return p.Error()
		}
		if saveEachTick {
			env, p = saveAndRestore(t, env, suiteSource, &out)
			require.True(t, p.IsRunning())
		}
	}
}

func TestScriptSuite(t *testing.T) {
	var out bytes.Buffer
	externs, err := testEnv(t, &out).NewProgram("suite").Compile(suiteSource, nil)
	require.NoError(t, err)

	want := map[string]ErrorCode{
		"LinkedList":   ErrNone,
		"NestedTry":    ErrNone,
		"Unreachable":  ErrNone,
		"DivideByZero": ErrZeroDiv,
		"Thrown":       ErrorCode(12),
		"Failing":      errFail,
	}
	require.Len(t, externs, len(want))
	for _, entry := range externs {
		for _, saving := range []bool{false, true} {
			got := runExtern(t, entry, saving)
			if want[entry] == ErrNone {
				require.Nil(t, got, "%s (save %v)", entry, saving)
				continue
			}
			require.NotNil(t, got, "%s (save %v)", entry, saving)
			require.Equal(t, want[entry], got.Code, "%s (save %v)", entry, saving)
		}
	}
}
