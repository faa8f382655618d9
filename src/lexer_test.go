package cbot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func tokenTexts(toks []Token) []string {
	var out []string
	for _, t := range toks {
		if t.Type != TokenTypNone {
			out = append(out, t.Text)
		}
	}
	return out
}

func TestTokenizeBasic(t *testing.T) {
	toks, err := Tokenize("int x = 12 + y; // comment\n/* block */ x >>>= 2;", nil)
	require.Nil(t, err)
	require.Equal(t, []string{"int", "x", "=", "12", "+", "y", ";", "x", ">>>=", "2", ";"}, tokenTexts(toks))

	require.True(t, toks[0].IsType(IDInt))
	require.Equal(t, TokenTypVar, toks[1].Type)
	require.Equal(t, TokenTypNum, toks[3].Type)
	require.True(t, toks[8].IsType(IDAssAsr))
	require.Equal(t, TokenTypNone, toks[len(toks)-1].Type)
}

func TestTokenizePositions(t *testing.T) {
	toks, err := Tokenize("  foo(bar)", nil)
	require.Nil(t, err)
	require.Equal(t, 2, toks[0].Start)
	require.Equal(t, 5, toks[0].End)
	require.Equal(t, 5, toks[1].Start)
	require.True(t, toks[1].IsType(IDOpenPar))
}

func TestTokenizeLongestOperator(t *testing.T) {
	cases := map[string]TokenID{
		"**=": IDAssPower, "**": IDPower, "<<=": IDAssSl, "<<": IDSl, "<=": IDLs,
		"&&": IDLogAnd, "&": IDAnd, "::": IDDblColon, ":": IDDblDots, "++": IDInc,
	}
	for text, id := range cases {
		toks, err := Tokenize(text, nil)
		require.Nil(t, err, text)
		require.True(t, toks[0].IsType(id), text)
		require.Equal(t, len(text), toks[0].End, text)
	}
}

func TestTokenizeNumbers(t *testing.T) {
	toks, err := Tokenize("0x1F 0b101 3.25 1e10 2.5e-3 7", nil)
	require.Nil(t, err)
	require.Equal(t, []string{"0x1F", "0b101", "3.25", "1e10", "2.5e-3", "7"}, tokenTexts(toks))
	for _, tok := range toks[:6] {
		require.Equal(t, TokenTypNum, tok.Type)
	}

	// a dot not followed by a digit ends the number
	toks, err = Tokenize("3.x", nil)
	require.Nil(t, err)
	require.Equal(t, []string{"3", ".", "x"}, tokenTexts(toks))
}

func TestTokenizeStrings(t *testing.T) {
	toks, err := Tokenize(`"a\tb\n" "\x41\101" "é"`, nil)
	require.Nil(t, err)
	require.Equal(t, "a\tb\n", toks[0].Value)
	require.Equal(t, "AA", toks[1].Value)
	require.Equal(t, "é", toks[2].Value)
	require.Equal(t, TokenTypString, toks[0].Type)
}

func TestTokenizeSimpleEscapes(t *testing.T) {
	toks, err := Tokenize(`"\a\b\f\v\r\'\"\\" '\t'`, nil)
	require.Nil(t, err)
	require.Equal(t, "\a\b\f\v\r'\"\\", toks[0].Value)
	require.Equal(t, int64('\t'), toks[1].Def)

	toks, err = Tokenize(`"\u00e9\U0001F600"`, nil)
	require.Nil(t, err)
	require.Equal(t, "é\U0001F600", toks[0].Value)
}

func TestTokenizeChars(t *testing.T) {
	toks, err := Tokenize(`'a' '\n' 'é'`, nil)
	require.Nil(t, err)
	require.Equal(t, TokenTypChar, toks[0].Type)
	require.Equal(t, int64('a'), toks[0].Def)
	require.Equal(t, int64('\n'), toks[1].Def)
	require.Equal(t, int64('é'), toks[2].Def)
}

func TestTokenizeErrors(t *testing.T) {
	cases := map[string]ErrorCode{
		`"open`:        ErrEndQuote,
		"\"a\nb\"":     ErrEndQuote,
		`''`:           ErrCharEmpty,
		`'ab'`:         ErrEndQuote,
		`"\q"`:         ErrBadEscape,
		`"\x"`:         ErrHexDigits,
		`"\x100"`:      ErrHexRange,
		`"\777"`:       ErrOctalRange,
		`"\u12"`:       ErrHexDigits,
		`"\uD800"`:     ErrUnicodeName,
		`"\U00110000"`: ErrUnicodeName,
	}
	for src, code := range cases {
		_, err := Tokenize(src, nil)
		require.NotNil(t, err, src)
		require.Equal(t, code, err.Code, src)
	}
}

func TestTokenizeDefines(t *testing.T) {
	toks, err := Tokenize("x = Wall + true;", map[string]int64{"Wall": 42})
	require.Nil(t, err)
	require.Equal(t, TokenTypDef, toks[2].Type)
	require.Equal(t, int64(42), toks[2].Def)
	require.True(t, toks[4].IsType(IDTrue))
}

func TestTokenizeKeywordsAreNotIdentifiers(t *testing.T) {
	toks, err := Tokenize("bool boolean while whilex", nil)
	require.Nil(t, err)
	require.True(t, toks[0].IsType(IDBoolean))
	require.True(t, toks[1].IsType(IDBoolean))
	require.True(t, toks[2].IsType(IDWhile))
	require.Equal(t, TokenTypVar, toks[3].Type)
}

func TestCursor(t *testing.T) {
	toks, err := Tokenize("a b c", nil)
	require.Nil(t, err)
	c := NewCursor(toks)
	require.Equal(t, "a", c.Tok().Text)
	require.Equal(t, "b", c.Peek(1).Text)
	require.Equal(t, TokenTypNone, c.Peek(10).Type)
	require.Equal(t, "a", c.Peek(-5).Text)
}
