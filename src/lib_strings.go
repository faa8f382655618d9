package cbot

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// stringSig type checks a call to a string function: the first parameter is
// a string, rest lists the types of the remaining required parameters and
// optional the number of trailing optional numbers
func stringSig(result Type, rest []Type, optional int) NativeCompile {
	return func(args *ArgList, user any) TypeResult {
		first := args.Next()
		if first == nil {
			return ErrorType(ErrLowParam)
		}
		if first.Type() != TypString {
			return ErrorType(ErrBadString)
		}
		for _, want := range rest {
			a := args.Next()
			if a == nil {
				return ErrorType(ErrLowParam)
			}
			if code := checkArg(want, a); code != ErrNone {
				return ErrorType(code)
			}
		}
		for i := 0; i < optional && !args.Empty(); i++ {
			if code := checkArg(TypInt, args.Next()); code != ErrNone {
				return ErrorType(code)
			}
		}
		if !args.Empty() {
			return ErrorType(ErrOverParam)
		}
		return NewType(result)
	}
}

func checkArg(want Type, a *Var) ErrorCode {
	switch want {
	case TypString:
		if a.Type() != TypString {
			return ErrBadString
		}
	default:
		if !a.Type().IsNumeric() {
			return ErrBadNum
		}
	}
	return ErrNone
}

// clampIndex limits n to [0, len(s)]
func clampIndex(n int64, s string) int {
	switch {
	case n < 0:
		return 0
	case n > int64(len(s)):
		return len(s)
	}
	return int(n)
}

// leadingFloat parses the longest numeric prefix of s, 0 when there is none
func leadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	for end := len(s); end > 0; end-- {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return f
		}
	}
	return 0
}

// RegisterStringLib registers strlen, strleft, strright, strmid, strval,
// strfind, strupper and strlower
func (e *Environment) RegisterStringLib() {
	upper := cases.Upper(language.Und)
	lower := cases.Lower(language.Und)

	// strlen - length of a string in bytes
	e.AddFunction("strlen", func(args, result *Var, user any) (bool, ErrorCode) {
		result.SetValInt(int64(len(args.GetValString())))
		return true, ErrNone
	}, stringSig(TypInt, nil, 0))

	// strleft - the first n characters
	e.AddFunction("strleft", func(args, result *Var, user any) (bool, ErrorCode) {
		s := args.GetValString()
		result.SetValString(s[:clampIndex(args.next.GetValInt(), s)])
		return true, ErrNone
	}, stringSig(TypString, []Type{TypInt}, 0))

	// strright - the last n characters
	e.AddFunction("strright", func(args, result *Var, user any) (bool, ErrorCode) {
		s := args.GetValString()
		result.SetValString(s[len(s)-clampIndex(args.next.GetValInt(), s):])
		return true, ErrNone
	}, stringSig(TypString, []Type{TypInt}, 0))

	// strmid - substring from start, optionally limited to a length
	e.AddFunction("strmid", func(args, result *Var, user any) (bool, ErrorCode) {
		s := args.GetValString()
		start := clampIndex(args.next.GetValInt(), s)
		out := s[start:]
		if n := args.next.next; n != nil {
			l := clampIndex(n.GetValInt(), s)
			if l < len(out) {
				out = out[:l]
			}
		}
		result.SetValString(out)
		return true, ErrNone
	}, stringSig(TypString, []Type{TypInt}, 1))

	// strval - numeric value of the leading number in a string
	e.AddFunction("strval", func(args, result *Var, user any) (bool, ErrorCode) {
		result.SetValFloat(leadingFloat(args.GetValString()))
		return true, ErrNone
	}, stringSig(TypFloat, nil, 0))

	// strfind - byte position of a substring, -1 when absent
	e.AddFunction("strfind", func(args, result *Var, user any) (bool, ErrorCode) {
		result.SetValInt(int64(strings.Index(args.GetValString(), args.next.GetValString())))
		return true, ErrNone
	}, stringSig(TypInt, []Type{TypString}, 0))

	// strupper / strlower - case conversion
	e.AddFunction("strupper", func(args, result *Var, user any) (bool, ErrorCode) {
		result.SetValString(upper.String(args.GetValString()))
		return true, ErrNone
	}, stringSig(TypString, nil, 0))

	e.AddFunction("strlower", func(args, result *Var, user any) (bool, ErrorCode) {
		result.SetValString(lower.String(args.GetValString()))
		return true, ErrNone
	}, stringSig(TypString, nil, 0))
}
