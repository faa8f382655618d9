package cbot

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// LogLevel represents the severity of a log message (higher value = higher severity)
type LogLevel int

const (
	LevelTrace  LogLevel = iota // Detailed tracing (requires enabled + category)
	LevelInfo                   // Informational messages (requires enabled + category)
	LevelDebug                  // Development debugging (requires enabled + category)
	LevelNotice                 // Notable events (always shown)
	LevelWarn                   // Warnings (always shown)
	LevelError                  // Runtime errors (always shown)
	LevelFatal                  // Compile errors (always shown)
)

// levelTags are the message tags per level
var levelTags = [...]string{
	LevelTrace:  "TRACE",
	LevelInfo:   "INFO",
	LevelDebug:  "DEBUG",
	LevelNotice: "NOTICE",
	LevelWarn:   "WARN",
	LevelError:  "ERROR",
	LevelFatal:  "ERROR",
}

// quiet levels go to the normal output and need debug logging enabled
func (lv LogLevel) quiet() bool {
	return lv < LevelNotice
}

// LogCategory represents the subsystem generating the message
type LogCategory string

const (
	CatNone     LogCategory = ""         // Uncategorized
	CatLexer    LogCategory = "lexer"    // Tokenizer
	CatCompile  LogCategory = "compile"  // Compiler and type checks
	CatRun      LogCategory = "run"      // Program lifecycle (start, run, stop)
	CatStack    LogCategory = "stack"    // Stack frames and control signals
	CatVariable LogCategory = "variable" // Variable operations
	CatClass    LogCategory = "class"    // Class registry
	CatCall     LogCategory = "call"     // Function calls and natives
	CatSave     LogCategory = "save"     // Save/restore of state
	CatMemory   LogCategory = "memory"   // Instance refcounting
	CatSystem   LogCategory = "system"   // Environment lifecycle
	CatUser     LogCategory = "user"     // User generated/custom
)

// AllCategories lists every category except CatNone
var AllCategories = []LogCategory{
	CatLexer, CatCompile, CatRun, CatStack, CatVariable, CatClass,
	CatCall, CatSave, CatMemory, CatSystem, CatUser,
}

const (
	colorYellow = "\x1b[93m"
	colorReset  = "\x1b[0m"
)

// Logger writes categorized diagnostics. Trace, Info and Debug need the
// logger enabled and their category switched on; the rest always print.
type Logger struct {
	enabled     bool
	categories  map[LogCategory]bool
	out         io.Writer
	errOut      io.Writer
	color       bool
	showContext bool
}

// colorTerminal reports whether f is a terminal that accepts ANSI colors
func colorTerminal(f *os.File) bool {
	if !term.IsTerminal(int(f.Fd())) {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return os.Getenv("TERM") != "dumb"
}

// NewLogger creates a logger writing to stdout and stderr
func NewLogger(enabled bool) *Logger {
	return &Logger{
		enabled:     enabled,
		categories:  make(map[LogCategory]bool),
		out:         os.Stdout,
		errOut:      os.Stderr,
		color:       colorTerminal(os.Stderr),
		showContext: true,
	}
}

// SetOutput redirects quiet output and error output; nil keeps the current one
func (l *Logger) SetOutput(out, errOut io.Writer) {
	if out != nil {
		l.out = out
	}
	if errOut != nil {
		l.errOut = errOut
		l.color = false
	}
}

// SetColor forces colored error output on or off
func (l *Logger) SetColor(enabled bool) { l.color = enabled }

// SetShowContext controls the source excerpt under positioned messages
func (l *Logger) SetShowContext(show bool) { l.showContext = show }

// SetEnabled enables or disables debug logging
func (l *Logger) SetEnabled(enabled bool) { l.enabled = enabled }

// IsEnabled reports whether debug logging is on
func (l *Logger) IsEnabled() bool { return l.enabled }

// EnableCategory switches debug output on for one category
func (l *Logger) EnableCategory(cat LogCategory) { l.categories[cat] = true }

// DisableCategory switches debug output off for one category
func (l *Logger) DisableCategory(cat LogCategory) { delete(l.categories, cat) }

// EnableAllCategories switches every category on
func (l *Logger) EnableAllCategories() {
	for _, cat := range AllCategories {
		l.categories[cat] = true
	}
}

// IsCategoryEnabled reports whether a category is switched on
func (l *Logger) IsCategoryEnabled(cat LogCategory) bool { return l.categories[cat] }

func (l *Logger) shouldLog(level LogLevel, cat LogCategory) bool {
	if !level.quiet() {
		return true
	}
	return l.enabled && (cat == CatNone || l.categories[cat])
}

// Log writes one message. With a position it adds the location and, when
// context holds the source lines, an excerpt marking the range.
func (l *Logger) Log(level LogLevel, cat LogCategory, message string, position *SourcePosition, context []string) {
	if !l.shouldLog(level, cat) {
		return
	}

	var sb strings.Builder
	tag := levelTags[level]
	if level.quiet() {
		sb.WriteString("[" + tag)
		if cat != CatNone {
			sb.WriteString(":" + string(cat))
		}
		sb.WriteString("] ")
	} else {
		sb.WriteString("[CBot")
		if cat != CatNone {
			sb.WriteString(":" + string(cat))
		}
		sb.WriteString(" " + tag + "] ")
	}
	sb.WriteString(message)

	if position != nil {
		file := position.Filename
		if file == "" {
			file = "<unknown>"
		}
		fmt.Fprintf(&sb, "\n  at line %d, column %d in %s", position.Line, position.Column, file)
		if l.showContext && len(context) > 0 {
			sb.WriteString(excerpt(position, context))
		}
	}

	switch {
	case level.quiet():
		_, _ = fmt.Fprintln(l.out, sb.String())
	case l.color:
		_, _ = fmt.Fprintf(l.errOut, "%s%s%s\n", colorYellow, sb.String(), colorReset)
	default:
		_, _ = fmt.Fprintln(l.errOut, sb.String())
	}
}

// ErrorCat logs a categorized error
func (l *Logger) ErrorCat(cat LogCategory, format string, args ...any) {
	l.Log(LevelError, cat, fmt.Sprintf(format, args...), nil, nil)
}

// WarnCat logs a categorized warning
func (l *Logger) WarnCat(cat LogCategory, format string, args ...any) {
	l.Log(LevelWarn, cat, fmt.Sprintf(format, args...), nil, nil)
}

// NoticeCat logs a categorized notice
func (l *Logger) NoticeCat(cat LogCategory, format string, args ...any) {
	l.Log(LevelNotice, cat, fmt.Sprintf(format, args...), nil, nil)
}

// DebugCat logs a categorized debug message
func (l *Logger) DebugCat(cat LogCategory, format string, args ...any) {
	l.Log(LevelDebug, cat, fmt.Sprintf(format, args...), nil, nil)
}

// TraceCat logs a categorized trace message
func (l *Logger) TraceCat(cat LogCategory, format string, args ...any) {
	l.Log(LevelTrace, cat, fmt.Sprintf(format, args...), nil, nil)
}

// CompileError logs a compile error (always visible)
func (l *Logger) CompileError(err *CBotError, context []string) {
	l.Log(LevelFatal, CatCompile, fmt.Sprintf("Compile error %d: %s", int(err.Code), err.Code), err.Position, context)
}

// RuntimeError logs the error that terminated a program
func (l *Logger) RuntimeError(err *CBotError, context []string) {
	message := fmt.Sprintf("Runtime error %d: %s", int(err.Code), err.Code)
	if err.Function != "" {
		message = err.Function + ": " + message
	}
	l.Log(LevelError, CatRun, message, err.Position, context)
}

// excerpt renders the line before the position, its own line with a caret
// under the range, and the line after
func excerpt(position *SourcePosition, lines []string) string {
	var sb strings.Builder
	sb.WriteString("\n")
	first := max(0, position.Line-2)
	last := min(len(lines), position.Line+1)
	for i := first; i < last; i++ {
		marker := " "
		if i+1 == position.Line {
			marker = ">"
		}
		fmt.Fprintf(&sb, "\n  %s %3d | %s", marker, i+1, lines[i])
		if i+1 == position.Line && position.Column > 0 {
			width := max(1, position.Length)
			if nl := strings.IndexByte(position.OriginalText, '\n'); nl >= 0 {
				width = max(1, nl)
			}
			fmt.Fprintf(&sb, "\n        | %s%s", strings.Repeat(" ", position.Column-1), strings.Repeat("^", width))
		}
	}
	return sb.String()
}
