package cbot

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// recorder registers natives that log their calls: rec(int) returns its
// argument, slow() suspends once before returning 0, hit() returns true
type recorder struct {
	log     []string
	pending bool
}

func (r *recorder) register(env *Environment) {
	env.AddFunction("rec", func(args, result *Var, user any) (bool, ErrorCode) {
		r.log = append(r.log, fmt.Sprint(args.GetValInt()))
		result.SetValInt(args.GetValInt())
		return true, ErrNone
	}, func(args *ArgList, user any) TypeResult {
		if a := args.Next(); a == nil || !a.Type().IsNumeric() {
			return ErrorType(ErrBadParam)
		}
		return NewType(TypInt)
	})
	env.AddFunction("slow", func(args, result *Var, user any) (bool, ErrorCode) {
		if !r.pending {
			r.pending = true
			return false, ErrNone
		}
		r.pending = false
		r.log = append(r.log, "s")
		result.SetValInt(0)
		return true, ErrNone
	}, func(args *ArgList, user any) TypeResult {
		return NewType(TypInt)
	})
	env.AddFunction("hit", func(args, result *Var, user any) (bool, ErrorCode) {
		r.log = append(r.log, "hit")
		result.SetValInt(1)
		return true, ErrNone
	}, func(args *ArgList, user any) TypeResult {
		return NewType(TypBoolean)
	})
}

func runRecorded(t *testing.T, src string, timer int) (*Program, *recorder) {
	t.Helper()
	var out bytes.Buffer
	env := testEnv(t, &out)
	r := &recorder{}
	r.register(env)
	p := compileOK(t, env, src)
	runToEnd(t, p, "main", timer)
	return p, r
}

func TestEvaluationOrderAndExactlyOnce(t *testing.T) {
	src := `extern int main() {
	int x = rec(1) + slow() + rec(2);
	return x;
}`
	for _, timer := range []int{0, 1000} {
		p, r := runRecorded(t, src, timer)
		require.Nil(t, p.Error())
		require.Equal(t, int64(3), p.Result().GetValInt())
		require.Equal(t, []string{"1", "s", "2"}, r.log, "timer %d", timer)
	}
}

func TestExactlyOnceInLoops(t *testing.T) {
	src := `extern int main() {
	int total = 0;
	for (int i = 0; i < 10; i++) {
		total += rec(i) + rec(1);
	}
	return total;
}`
	p, r := runRecorded(t, src, 0)
	require.Nil(t, p.Error())
	require.Equal(t, int64(55), p.Result().GetValInt())
	require.Len(t, r.log, 20)
}

func TestShortCircuit(t *testing.T) {
	p, r := runRecorded(t, `extern void main() {
	bool a = false && hit();
	bool b = true || hit();
	bool c = true && hit();
	ASSERT(!a && b && c);
}`, 0)
	require.Nil(t, p.Error())
	require.Equal(t, []string{"hit"}, r.log)
}

func TestOperatorScenarios(t *testing.T) {
	requireRunOK(t, `extern void main() {
	ASSERT(2 ** 3 == 8);
	ASSERT(2 ** 3 ** 2 == 512);
	ASSERT((2 ** 3) ** 2 == 64);
	ASSERT(5 % 2 == 1);
	ASSERT(1 >= 1);
	ASSERT(0x1F == 31);
	ASSERT(0xFF == 255);
	ASSERT(0b101 == 5);
	ASSERT(0x7FFFFFFF == 2147483647);
}`)
}

func TestDivisionByLiteralZeroIsRuntime(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)
	p := compileOK(t, env, `extern void main() { float a = 5/0; }`)
	runToEnd(t, p, "main", 100)
	require.NotNil(t, p.Error())
	require.Equal(t, ErrZeroDiv, p.Error().Code)
}

func TestMissingTerminatorPosition(t *testing.T) {
	src := `extern void main() { string a = "hello"}`
	var out bytes.Buffer
	env := testEnv(t, &out)
	p := env.NewProgram("bad")
	_, err := p.Compile(src, nil)
	require.Error(t, err)
	code, start, _ := p.GetError()
	require.Equal(t, ErrNoTerminator, code)
	require.Equal(t, strings.Index(src, `"hello"`)+len(`"hello"`), start)
}

func TestRoundRobinPrograms(t *testing.T) {
	var out bytes.Buffer
	env := testEnv(t, &out)
	compileOK(t, env, `public int work(int n) {
	int s = 0;
	for (int i = 0; i < n; i++) s += i;
	return s;
}`)

	a := env.NewProgram("a")
	_, err := a.Compile(`extern int main() { return work(10); }`, nil)
	require.NoError(t, err)
	b := env.NewProgram("b")
	_, err = b.Compile(`extern int main() { return work(20); }`, nil)
	require.NoError(t, err)
	c := env.NewProgram("c")
	_, err = c.Compile(`extern int main() { int z = 0; return work(5) / z; }`, nil)
	require.NoError(t, err)

	progs := []*Program{a, b, c}
	for _, p := range progs {
		require.NoError(t, p.Start("main"))
	}
	for ticks := 0; a.IsRunning() || b.IsRunning() || c.IsRunning(); ticks++ {
		require.Less(t, ticks, 100000)
		for _, p := range progs {
			if p.IsRunning() {
				p.Run(nil, 0)
			}
		}
	}

	require.Nil(t, a.Error())
	require.Equal(t, int64(45), a.Result().GetValInt())
	require.Nil(t, b.Error())
	require.Equal(t, int64(190), b.Result().GetValInt())
	require.NotNil(t, c.Error())
	require.Equal(t, ErrZeroDiv, c.Error().Code)
}
