package cbot

import (
	"testing"
)

func TestMathLib(t *testing.T) {
	env := testEnv(t, nil)
	env.RegisterMathLib()
	p := env.NewProgram("math")
	_, err := p.Compile(`extern void main() {
	ASSERT(sqrt(16) == 4);
	ASSERT(abs(-2.5) == 2.5);
	ASSERT(floor(2.7) == 2);
	ASSERT(ceil(2.1) == 3);
	ASSERT(round(2.5) == 3);
	ASSERT(trunc(-2.7) == -2);
	ASSERT(pow(2, 8) == 256);
	ASSERT(min(3, 9) == 3);
	ASSERT(max(3, 9) == 9);
	ASSERT(abs(sin(90) - 1) < 0.000001);
	ASSERT(abs(cos(0) - 1) < 0.000001);
	ASSERT(abs(atan2(1, 1) - 45) < 0.0001);
	float r = rand();
	ASSERT(r >= 0 && r < 1);
}`, nil)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	runToEnd(t, p, "main", 1000)
	if err := p.Error(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
}

func TestMathLibSignatures(t *testing.T) {
	cases := map[string]ErrorCode{
		`extern void main() { sqrt(); }`:            ErrLowParam,
		`extern void main() { sqrt("4"); }`:         ErrBadNum,
		`extern void main() { pow(1, 2, 3); }`:      ErrOverParam,
		`extern void main() { float x = rand(1); }`: ErrOverParam,
	}
	for src, code := range cases {
		env := testEnv(t, nil)
		env.RegisterMathLib()
		p := env.NewProgram("bad")
		if _, err := p.Compile(src, nil); err == nil {
			t.Fatalf("%s: expected error", src)
		}
		if got, _, _ := p.GetError(); got != code {
			t.Errorf("%s: got %v, want %v", src, got, code)
		}
	}
}
