package cbot

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerGating(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLogger(false)
	l.SetOutput(&out, &errOut)

	l.DebugCat(CatRun, "hidden")
	if out.Len() != 0 {
		t.Errorf("debug output while disabled: %q", out.String())
	}

	l.SetEnabled(true)
	l.DebugCat(CatRun, "still hidden")
	if out.Len() != 0 {
		t.Errorf("debug output for a disabled category: %q", out.String())
	}

	l.EnableCategory(CatRun)
	l.DebugCat(CatRun, "shown %d", 1)
	if got := out.String(); got != "[DEBUG:run] shown 1\n" {
		t.Errorf("unexpected debug line %q", got)
	}

	l.WarnCat(CatSave, "careful")
	if got := errOut.String(); got != "[CBot:save WARN] careful\n" {
		t.Errorf("unexpected warning line %q", got)
	}
}

func TestLoggerCompileErrorExcerpt(t *testing.T) {
	var errOut bytes.Buffer
	l := NewLogger(false)
	l.SetOutput(nil, &errOut)

	source := "extern void main() {\n\tint x = 1\n}"
	start := strings.Index(source, "}")
	err := &CBotError{Code: ErrNoTerminator, Start: start, End: start + 1,
		Position: PositionAt(source, "demo.txt", start, start+1)}
	l.CompileError(err, strings.Split(source, "\n"))

	got := errOut.String()
	for _, want := range []string{
		"[CBot:compile ERROR] Compile error",
		"at line 3, column 1 in demo.txt",
		">   3 | }",
		"        | ^",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}

	errOut.Reset()
	l.SetShowContext(false)
	l.CompileError(err, strings.Split(source, "\n"))
	if strings.Contains(errOut.String(), "|") {
		t.Errorf("excerpt printed with context disabled:\n%s", errOut.String())
	}
}
