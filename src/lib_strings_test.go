package cbot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClampIndex(t *testing.T) {
	require.Equal(t, 0, clampIndex(-3, "abc"))
	require.Equal(t, 2, clampIndex(2, "abc"))
	require.Equal(t, 3, clampIndex(10, "abc"))
	require.Equal(t, 0, clampIndex(1, ""))
}

func TestLeadingFloat(t *testing.T) {
	require.Equal(t, 12.5, leadingFloat("12.5xyz"))
	require.Equal(t, -3.0, leadingFloat("  -3 apples"))
	require.Equal(t, 1e3, leadingFloat("1e3"))
	require.Equal(t, 0.0, leadingFloat("abc"))
	require.Equal(t, 0.0, leadingFloat(""))
}

func TestStringSignatures(t *testing.T) {
	cases := map[string]ErrorCode{
		`extern void main() { strlen(); }`:               ErrLowParam,
		`extern void main() { strlen(5); }`:              ErrBadString,
		`extern void main() { strleft("a", "b"); }`:      ErrBadNum,
		`extern void main() { strfind("a", 1); }`:        ErrBadString,
		`extern void main() { strmid("abc", 1, 1, 1); }`: ErrOverParam,
		`extern void main() { strupper("a", "b"); }`:     ErrOverParam,
	}
	for src, code := range cases {
		env := testEnv(t, nil)
		_, err := env.NewProgram("bad").Compile(src, nil)
		require.Error(t, err, src)
		gotCode, _, _ := env.Programs()[0].GetError()
		require.Equal(t, code, gotCode, src)
	}
}

func TestStringFunctionsClamp(t *testing.T) {
	requireRunOK(t, `extern void main() {
	ASSERT(strleft("abc", 10) == "abc");
	ASSERT(strright("abc", -1) == "");
	ASSERT(strmid("abc", 5) == "");
	ASSERT(strmid("abcdef", 2, 100) == "cdef");
	ASSERT(strval("x") == 0);
}`)
}
