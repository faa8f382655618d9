package cbot

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenize splits source into tokens. The returned slice always ends with an
// end-of-input token. Identifiers found in defines become TokenTypDef tokens.
func Tokenize(source string, defines map[string]int64) ([]Token, *CBotError) {
	lx := &lexer{src: source, defines: defines}
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		lx.tokens = append(lx.tokens, tok)
		if tok.Type == TokenTypNone {
			return lx.tokens, nil
		}
	}
}

type lexer struct {
	src     string
	pos     int
	defines map[string]int64
	tokens  []Token
}

func (lx *lexer) peekByte(off int) byte {
	if lx.pos+off < len(lx.src) {
		return lx.src[lx.pos+off]
	}
	return 0
}

// skipSpace skips blanks and comments
func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.src) {
		c := lx.src[lx.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v':
			lx.pos++
		case c == '/' && lx.peekByte(1) == '/':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.pos++
			}
		case c == '/' && lx.peekByte(1) == '*':
			end := strings.Index(lx.src[lx.pos+2:], "*/")
			if end < 0 {
				lx.pos = len(lx.src)
			} else {
				lx.pos += end + 4
			}
		default:
			return
		}
	}
}

func (lx *lexer) next() (Token, *CBotError) {
	lx.skipSpace()
	start := lx.pos
	if lx.pos >= len(lx.src) {
		return Token{Type: TokenTypNone, Start: start, End: start}, nil
	}
	c := lx.src[lx.pos]

	switch {
	case c == '"':
		return lx.scanString()
	case c == '\'':
		return lx.scanChar()
	case isDigit(c):
		lx.scanNumber()
		return Token{Text: lx.src[start:lx.pos], Type: TokenTypNum, Start: start, End: lx.pos}, nil
	case isIdentStart(lx.src[lx.pos:]):
		for lx.pos < len(lx.src) && isIdentPart(lx.src[lx.pos:]) {
			_, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
			lx.pos += size
		}
		text := lx.src[start:lx.pos]
		tok := Token{Text: text, Type: TokenTypVar, Start: start, End: lx.pos}
		if id, ok := keywords[text]; ok {
			tok.Type = TokenTypKeyWord
			tok.ID = id
		} else if v, ok := lx.defines[text]; ok {
			tok.Type = TokenTypDef
			tok.Def = v
		}
		return tok, nil
	}

	for _, op := range operators {
		if strings.HasPrefix(lx.src[lx.pos:], op.text) {
			lx.pos += len(op.text)
			return Token{Text: op.text, Type: TokenTypKeyWord, ID: op.id, Start: start, End: lx.pos}, nil
		}
	}

	// unknown character: keep it as a one-rune token so the compiler reports it
	_, size := utf8.DecodeRuneInString(lx.src[lx.pos:])
	lx.pos += size
	return Token{Text: lx.src[start:lx.pos], Type: TokenTypKeyWord, ID: IDNone, Start: start, End: lx.pos}, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// scanNumber consumes a numeric literal; validation happens when it is compiled
func (lx *lexer) scanNumber() {
	if lx.src[lx.pos] == '0' {
		switch lx.peekByte(1) {
		case 'x', 'X':
			lx.pos += 2
			for lx.pos < len(lx.src) && isHexDigit(lx.src[lx.pos]) {
				lx.pos++
			}
			return
		case 'b', 'B':
			lx.pos += 2
			for lx.pos < len(lx.src) && (lx.src[lx.pos] == '0' || lx.src[lx.pos] == '1') {
				lx.pos++
			}
			return
		}
	}
	for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
		lx.pos++
	}
	if lx.peekByte(0) == '.' && isDigit(lx.peekByte(1)) {
		lx.pos++
		for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
			lx.pos++
		}
	}
	if c := lx.peekByte(0); c == 'e' || c == 'E' {
		off := 1
		if s := lx.peekByte(1); s == '+' || s == '-' {
			off = 2
		}
		if isDigit(lx.peekByte(off)) {
			lx.pos += off
			for lx.pos < len(lx.src) && isDigit(lx.src[lx.pos]) {
				lx.pos++
			}
		}
	}
}

// escape is one decoded escape sequence; raw escapes (\x and octal) produce a byte
type escape struct {
	value rune
	raw   bool
}

// scanEscape decodes the escape sequence at lx.pos (which points at the backslash)
func (lx *lexer) scanEscape() (escape, *CBotError) {
	start := lx.pos
	lx.pos++
	if lx.pos >= len(lx.src) || lx.src[lx.pos] == '\n' {
		return escape{}, newError(ErrEndQuote, start, lx.pos)
	}
	c := lx.src[lx.pos]
	lx.pos++
	switch c {
	case 'a':
		return escape{value: '\a'}, nil
	case 'b':
		return escape{value: '\b'}, nil
	case 'f':
		return escape{value: '\f'}, nil
	case 'n':
		return escape{value: '\n'}, nil
	case 'r':
		return escape{value: '\r'}, nil
	case 't':
		return escape{value: '\t'}, nil
	case 'v':
		return escape{value: '\v'}, nil
	case '\\', '\'', '"', '?':
		return escape{value: rune(c)}, nil
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v := rune(c - '0')
		for n := 1; n < 3 && lx.pos < len(lx.src) && lx.src[lx.pos] >= '0' && lx.src[lx.pos] <= '7'; n++ {
			v = v*8 + rune(lx.src[lx.pos]-'0')
			lx.pos++
		}
		if v > 0xFF {
			return escape{}, newError(ErrOctalRange, start, lx.pos)
		}
		return escape{value: v, raw: true}, nil
	case 'x':
		digits := 0
		var v int64
		for lx.pos < len(lx.src) && isHexDigit(lx.src[lx.pos]) {
			if v <= 0x10FFFF {
				v = v*16 + int64(hexValue(lx.src[lx.pos]))
			}
			digits++
			lx.pos++
		}
		if digits == 0 {
			return escape{}, newError(ErrHexDigits, start, lx.pos)
		}
		if v > 0xFF {
			return escape{}, newError(ErrHexRange, start, lx.pos)
		}
		return escape{value: rune(v), raw: true}, nil
	case 'u', 'U':
		want := 4
		if c == 'U' {
			want = 8
		}
		var v int64
		for n := 0; n < want; n++ {
			if lx.pos >= len(lx.src) || !isHexDigit(lx.src[lx.pos]) {
				return escape{}, newError(ErrHexDigits, start, lx.pos)
			}
			v = v*16 + int64(hexValue(lx.src[lx.pos]))
			lx.pos++
		}
		if v > 0x10FFFF || (v >= 0xD800 && v <= 0xDFFF) {
			return escape{}, newError(ErrUnicodeName, start, lx.pos)
		}
		return escape{value: rune(v)}, nil
	}
	return escape{}, newError(ErrBadEscape, start, lx.pos)
}

func hexValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}

func (lx *lexer) scanString() (Token, *CBotError) {
	start := lx.pos
	lx.pos++
	var value []byte
	for {
		if lx.pos >= len(lx.src) || lx.src[lx.pos] == '\n' {
			return Token{}, newError(ErrEndQuote, start, lx.pos)
		}
		c := lx.src[lx.pos]
		if c == '"' {
			lx.pos++
			break
		}
		if c == '\\' {
			esc, err := lx.scanEscape()
			if err != nil {
				return Token{}, err
			}
			if esc.raw {
				value = append(value, byte(esc.value))
			} else {
				value = utf8.AppendRune(value, esc.value)
			}
			continue
		}
		value = append(value, c)
		lx.pos++
	}
	return Token{Text: lx.src[start:lx.pos], Value: string(value), Type: TokenTypString, Start: start, End: lx.pos}, nil
}

func (lx *lexer) scanChar() (Token, *CBotError) {
	start := lx.pos
	lx.pos++
	if lx.pos >= len(lx.src) || lx.src[lx.pos] == '\n' {
		return Token{}, newError(ErrEndQuote, start, lx.pos)
	}
	var r rune
	switch c := lx.src[lx.pos]; c {
	case '\'':
		lx.pos++
		return Token{}, newError(ErrCharEmpty, start, lx.pos)
	case '\\':
		esc, err := lx.scanEscape()
		if err != nil {
			return Token{}, err
		}
		r = esc.value
	default:
		var size int
		r, size = utf8.DecodeRuneInString(lx.src[lx.pos:])
		lx.pos += size
	}
	if lx.pos >= len(lx.src) || lx.src[lx.pos] != '\'' {
		return Token{}, newError(ErrEndQuote, start, lx.pos)
	}
	lx.pos++
	return Token{Text: lx.src[start:lx.pos], Value: string(r), Type: TokenTypChar, Start: start, End: lx.pos, Def: int64(r)}, nil
}
