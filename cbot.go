// Package cbot provides an embeddable C-like scripting language with a
// resumable interpreter: scripts run a bounded number of steps per tick and
// their complete execution state can be saved and restored.
//
// This package re-exports the public API from the implementation in src/.
// For full documentation, see the implementation package.
//
// Basic usage:
//
//	env := cbot.NewEnvironment(nil)
//	env.RegisterOutputLib(os.Stdout)
//	prog := env.NewProgram("hello.txt")
//	if _, err := prog.Compile(`extern void main() { println("Hello"); }`, nil); err != nil {
//		log.Fatal(err)
//	}
//	prog.Start("main")
//	for !prog.Run(nil, -1) {
//	}
package cbot

import (
	"io"

	impl "github.com/phroun/cbot/src"
)

// =============================================================================
// CORE TYPES
// =============================================================================

// Environment holds the registries shared by the programs of one host.
type Environment = impl.Environment

// Program is one compiled script and its running routine.
type Program = impl.Program

// Config holds configuration options for an Environment.
type Config = impl.Config

// Function is a script function or a host method.
type Function = impl.Function

// Class is a host or script class.
type Class = impl.Class

// Instance is the storage behind objects and arrays.
type Instance = impl.Instance

// Var is a runtime value.
type Var = impl.Var

// ArgList is the argument cursor passed to compile callbacks.
type ArgList = impl.ArgList

// =============================================================================
// HOST CALLBACKS
// =============================================================================

// NativeExec runs a host function.
type NativeExec = impl.NativeExec

// NativeCompile type checks a call to a host function.
type NativeCompile = impl.NativeCompile

// MethodExec runs a host method.
type MethodExec = impl.MethodExec

// MethodCompile type checks a call to a host method.
type MethodCompile = impl.MethodCompile

// UpdateFunc is called when an instance of a class is created or restored.
type UpdateFunc = impl.UpdateFunc

// =============================================================================
// TYPES
// =============================================================================

// Type is the base tag of a TypeResult.
type Type = impl.Type

// TypeResult describes a static or runtime type.
type TypeResult = impl.TypeResult

// Type tags.
const (
	TypVoid         = impl.TypVoid
	TypByte         = impl.TypByte
	TypShort        = impl.TypShort
	TypChar         = impl.TypChar
	TypInt          = impl.TypInt
	TypLong         = impl.TypLong
	TypFloat        = impl.TypFloat
	TypDouble       = impl.TypDouble
	TypBoolean      = impl.TypBoolean
	TypString       = impl.TypString
	TypArrayPointer = impl.TypArrayPointer
	TypArrayBody    = impl.TypArrayBody
	TypPointer      = impl.TypPointer
	TypNullPointer  = impl.TypNullPointer
	TypClass        = impl.TypClass
	TypIntrinsic    = impl.TypIntrinsic
)

// InitState tells whether a variable holds a value.
type InitState = impl.InitState

// Access is the protection level of a class member.
type Access = impl.Access

// Member protection levels.
const (
	AccessPublic    = impl.AccessPublic
	AccessProtected = impl.AccessProtected
	AccessPrivate   = impl.AccessPrivate
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorCode identifies a compile error, runtime error or control signal.
type ErrorCode = impl.ErrorCode

// CBotError is an error with a source range and position.
type CBotError = impl.CBotError

// SourcePosition tracks a location in source code for error reporting.
type SourcePosition = impl.SourcePosition

// ErrNone means no error.
const ErrNone = impl.ErrNone

// =============================================================================
// LOGGING
// =============================================================================

// Logger is the categorized logger owned by an Environment.
type Logger = impl.Logger

// LogLevel represents log severity.
type LogLevel = impl.LogLevel

// Log level constants.
const (
	LevelTrace  = impl.LevelTrace
	LevelInfo   = impl.LevelInfo
	LevelDebug  = impl.LevelDebug
	LevelNotice = impl.LevelNotice
	LevelWarn   = impl.LevelWarn
	LevelError  = impl.LevelError
	LevelFatal  = impl.LevelFatal
)

// LogCategory identifies the logging subsystem.
type LogCategory = impl.LogCategory

// Log category constants.
const (
	CatNone     = impl.CatNone
	CatLexer    = impl.CatLexer
	CatCompile  = impl.CatCompile
	CatRun      = impl.CatRun
	CatStack    = impl.CatStack
	CatVariable = impl.CatVariable
	CatClass    = impl.CatClass
	CatCall     = impl.CatCall
	CatSave     = impl.CatSave
	CatMemory   = impl.CatMemory
	CatSystem   = impl.CatSystem
	CatUser     = impl.CatUser
)

// =============================================================================
// CONSTRUCTOR FUNCTIONS
// =============================================================================

// NewEnvironment creates an environment. A nil config uses DefaultConfig.
func NewEnvironment(config *Config) *Environment {
	return impl.NewEnvironment(config)
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return impl.DefaultConfig()
}

// NewVar creates a zero-valued variable.
func NewVar(name string, typ TypeResult) *Var {
	return impl.NewVar(name, typ)
}

// NewType builds a simple type.
func NewType(t Type) TypeResult {
	return impl.NewType(t)
}

// ErrorType builds a type carrying an error code, returned by compile
// callbacks to reject a call.
func ErrorType(code ErrorCode) TypeResult {
	return impl.ErrorType(code)
}

// ClassType builds a class, intrinsic or pointer type.
func ClassType(t Type, class *Class) TypeResult {
	return impl.ClassType(t, class)
}

// ArrayType builds an array type with an element type.
func ArrayType(t Type, elem TypeResult) TypeResult {
	return impl.ArrayType(t, elem)
}

// PositionAt converts a byte range of source into a line/column position.
func PositionAt(source, filename string, start, end int) *SourcePosition {
	return impl.PositionAt(source, filename, start, end)
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// StateReader is what the restore functions read from.
type StateReader = impl.StateReader

// SaveVars writes a variable list.
func SaveVars(w io.Writer, vars []*Var) error {
	return impl.SaveVars(w, vars)
}

// RestoreVars reads a variable list written by SaveVars.
func RestoreVars(r StateReader, env *Environment) ([]*Var, error) {
	return impl.RestoreVars(r, env)
}

// WriteWord writes an unsigned 16-bit value.
func WriteWord(w io.Writer, n uint16) error {
	return impl.WriteWord(w, n)
}

// ReadWord reads a value written by WriteWord.
func ReadWord(r StateReader) (uint16, error) {
	return impl.ReadWord(r)
}

// WriteString writes a length-prefixed string.
func WriteString(w io.Writer, s string) error {
	return impl.WriteString(w, s)
}

// ReadString reads a string written by WriteString.
func ReadString(r StateReader) (string, error) {
	return impl.ReadString(r)
}
