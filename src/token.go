package cbot

// TokenType classifies a token
type TokenType int

const (
	TokenTypNone    TokenType = iota // end of input
	TokenTypKeyWord                  // keyword or operator
	TokenTypNum                      // numeric literal
	TokenTypString                   // string literal
	TokenTypChar                     // character literal
	TokenTypVar                      // identifier
	TokenTypDef                      // host-defined constant
)

// TokenID identifies a keyword or operator
type TokenID int

const (
	IDNone TokenID = iota

	// keywords
	IDIf
	IDElse
	IDWhile
	IDDo
	IDFor
	IDBreak
	IDContinue
	IDSwitch
	IDCase
	IDDefault
	IDTry
	IDThrow
	IDCatch
	IDFinally
	IDTxtAnd
	IDTxtOr
	IDTxtNot
	IDReturn
	IDClass
	IDExtends
	IDSynchronized
	IDNew
	IDPublic
	IDExtern
	IDStatic
	IDProtected
	IDPrivate
	IDRepeat
	IDInt
	IDFloat
	IDBoolean
	IDString
	IDVoid
	IDByte
	IDShort
	IDChar
	IDLong
	IDDouble
	IDTrue
	IDFalse
	IDNull
	IDNan
	IDThis
	IDSuper
	IDSizeof

	// operators
	IDOpenPar
	IDClosePar
	IDOpenBlock
	IDCloseBlock
	IDOpenBrk
	IDCloseBrk
	IDSep
	IDComma
	IDDot
	IDDblDots
	IDDblColon
	IDHook
	IDAssign
	IDAdd
	IDSub
	IDMul
	IDDiv
	IDModulo
	IDPower
	IDAnd
	IDOr
	IDXor
	IDNot
	IDLogAnd
	IDLogOr
	IDLogNot
	IDEq
	IDNe
	IDLo
	IDHi
	IDLs
	IDHs
	IDSl
	IDSr
	IDAsr
	IDInc
	IDDec
	IDAssAdd
	IDAssSub
	IDAssMul
	IDAssDiv
	IDAssModulo
	IDAssPower
	IDAssAnd
	IDAssOr
	IDAssXor
	IDAssSl
	IDAssSr
	IDAssAsr
)

var keywords = map[string]TokenID{
	"if": IDIf, "else": IDElse, "while": IDWhile, "do": IDDo, "for": IDFor,
	"break": IDBreak, "continue": IDContinue, "switch": IDSwitch, "case": IDCase,
	"default": IDDefault, "try": IDTry, "throw": IDThrow, "catch": IDCatch,
	"finally": IDFinally, "and": IDTxtAnd, "or": IDTxtOr, "not": IDTxtNot,
	"return": IDReturn, "class": IDClass, "extends": IDExtends,
	"synchronized": IDSynchronized, "new": IDNew, "public": IDPublic,
	"extern": IDExtern, "static": IDStatic, "protected": IDProtected,
	"private": IDPrivate, "repeat": IDRepeat, "int": IDInt, "float": IDFloat,
	"boolean": IDBoolean, "bool": IDBoolean, "string": IDString, "void": IDVoid,
	"byte": IDByte, "short": IDShort, "char": IDChar, "long": IDLong,
	"double": IDDouble, "true": IDTrue, "false": IDFalse, "null": IDNull,
	"nan": IDNan, "this": IDThis, "super": IDSuper, "sizeof": IDSizeof,
}

// operators ordered longest first so the scanner takes the longest match
var operators = []struct {
	text string
	id   TokenID
}{
	{">>>=", IDAssAsr},
	{"**=", IDAssPower}, {"<<=", IDAssSl}, {">>=", IDAssSr}, {">>>", IDAsr},
	{"**", IDPower}, {"&&", IDLogAnd}, {"||", IDLogOr}, {"==", IDEq}, {"!=", IDNe},
	{"<=", IDLs}, {">=", IDHs}, {"<<", IDSl}, {">>", IDSr}, {"++", IDInc},
	{"--", IDDec}, {"+=", IDAssAdd}, {"-=", IDAssSub}, {"*=", IDAssMul},
	{"/=", IDAssDiv}, {"%=", IDAssModulo}, {"&=", IDAssAnd}, {"|=", IDAssOr},
	{"^=", IDAssXor}, {"::", IDDblColon},
	{"(", IDOpenPar}, {")", IDClosePar}, {"{", IDOpenBlock}, {"}", IDCloseBlock},
	{"[", IDOpenBrk}, {"]", IDCloseBrk}, {";", IDSep}, {",", IDComma},
	{".", IDDot}, {":", IDDblDots}, {"?", IDHook}, {"=", IDAssign},
	{"+", IDAdd}, {"-", IDSub}, {"*", IDMul}, {"/", IDDiv}, {"%", IDModulo},
	{"&", IDAnd}, {"|", IDOr}, {"^", IDXor}, {"~", IDNot}, {"!", IDLogNot},
	{"<", IDLo}, {">", IDHi},
}

// Token is one lexical element. Start and End are byte offsets into the source.
type Token struct {
	Text  string // source text
	Value string // decoded contents of string and char literals
	Type  TokenType
	ID    TokenID
	Start int
	End   int
	Def   int64 // value of a host-defined constant
}

// IsType reports whether the token is a keyword or operator with the given id
func (t *Token) IsType(ids ...TokenID) bool {
	if t.Type != TokenTypKeyWord {
		return false
	}
	for _, id := range ids {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Cursor walks a token slice for the recursive-descent compiler.
// The last token is always the end-of-input token.
type Cursor struct {
	tokens []Token
	pos    int
}

// NewCursor creates a cursor over tokens
func NewCursor(tokens []Token) *Cursor {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != TokenTypNone {
		end := 0
		if len(tokens) > 0 {
			end = tokens[len(tokens)-1].End
		}
		tokens = append(tokens, Token{Type: TokenTypNone, Start: end, End: end})
	}
	return &Cursor{tokens: tokens}
}

// Tok returns the current token
func (c *Cursor) Tok() *Token {
	return &c.tokens[c.pos]
}

// Peek returns the token n positions ahead
func (c *Cursor) Peek(n int) *Token {
	i := c.pos + n
	if i >= len(c.tokens) {
		i = len(c.tokens) - 1
	}
	if i < 0 {
		i = 0
	}
	return &c.tokens[i]
}

// Prev returns the token before the current one
func (c *Cursor) Prev() *Token {
	return c.Peek(-1)
}

// Next advances to the following token
func (c *Cursor) Next() {
	if c.pos < len(c.tokens)-1 {
		c.pos++
	}
}

// Mark returns the current position for a later Reset
func (c *Cursor) Mark() int {
	return c.pos
}

// Reset rewinds the cursor to a mark
func (c *Cursor) Reset(mark int) {
	c.pos = mark
}

// AtEnd reports whether all tokens were consumed
func (c *Cursor) AtEnd() bool {
	return c.tokens[c.pos].Type == TokenTypNone
}

// Accept consumes the current token when it is one of ids
func (c *Cursor) Accept(ids ...TokenID) bool {
	if c.Tok().IsType(ids...) {
		c.Next()
		return true
	}
	return false
}

// AcceptType consumes the current token when it has the given type
func (c *Cursor) AcceptType(typ TokenType) bool {
	if c.Tok().Type == typ {
		c.Next()
		return true
	}
	return false
}
