package cbot

import "strings"

// SourcePosition tracks the position of code in source files
type SourcePosition struct {
	Line         int
	Column       int
	Length       int
	OriginalText string
	Filename     string
}

// PositionAt converts a byte range of source into a line/column position.
// Lines and columns are 1-based.
func PositionAt(source, filename string, start, end int) *SourcePosition {
	if start < 0 {
		start = 0
	}
	if start > len(source) {
		start = len(source)
	}
	if end < start {
		end = start
	}
	if end > len(source) {
		end = len(source)
	}
	line := 1 + strings.Count(source[:start], "\n")
	lineStart := strings.LastIndexByte(source[:start], '\n') + 1
	return &SourcePosition{
		Line:         line,
		Column:       start - lineStart + 1,
		Length:       end - start,
		OriginalText: source[start:end],
		Filename:     filename,
	}
}

// Config holds configuration for an Environment
type Config struct {
	Debug            bool          // enable debug logging
	DebugCategories  []LogCategory // categories enabled when Debug is set (empty means all)
	InitTimer        int           // instruction budget per Run tick
	MaxStack         int           // maximum frame depth before ErrStackOver
	ShowErrorContext bool          // include source excerpts in logged compile errors
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Debug:            false,
		InitTimer:        100,
		MaxStack:         990,
		ShowErrorContext: true,
	}
}
