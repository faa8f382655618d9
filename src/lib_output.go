package cbot

import (
	"fmt"
	"io"
	"strings"
)

// anyArgs accepts any number of arguments of any type
func anyArgs(args *ArgList, user any) TypeResult {
	for args.Next() != nil {
	}
	return NewType(TypVoid)
}

// RegisterOutputLib registers print and println, writing to out
func (e *Environment) RegisterOutputLib(out io.Writer) {
	format := func(args *Var) string {
		var sb strings.Builder
		for a := args; a != nil; a = a.next {
			sb.WriteString(a.GetValString())
		}
		return sb.String()
	}

	// print - writes the arguments without separator
	e.AddFunction("print", func(args, result *Var, user any) (bool, ErrorCode) {
		fmt.Fprint(out, format(args))
		return true, ErrNone
	}, anyArgs)

	// println - print followed by a newline
	e.AddFunction("println", func(args, result *Var, user any) (bool, ErrorCode) {
		fmt.Fprintln(out, format(args))
		return true, ErrNone
	}, anyArgs)
}
