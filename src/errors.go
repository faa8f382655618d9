package cbot

import "fmt"

// ErrorCode identifies a compile error, a runtime error or a control signal.
// Compile errors start at 5000, runtime errors at 6000. Negative values are
// the break, continue and return signals carried on the stack.
type ErrorCode int

// ErrNone means no error
const ErrNone ErrorCode = 0

// Compile errors
const (
	ErrOpenPar       ErrorCode = iota + 5000 // missing "("
	ErrClosePar                              // missing ")"
	ErrNotBoolean                            // condition is not a boolean
	ErrUndefVar                              // undeclared variable
	ErrBadLeft                               // assignment impossible
	ErrNoTerminator                          // missing ";"
	ErrCaseOut                               // "case" outside a switch
	ErrNoEnd                                 // instructions after final "}"
	ErrCloseBlock                            // missing "}"
	ErrElseWithoutIf                         // "else" without "if"
	ErrOpenBlock                             // missing "{"
	ErrBadType1                              // wrong type for assignment
	ErrRedefVar                              // variable declared twice
	ErrBadType2                              // operand types incompatible
	ErrUndefCall                             // unknown function
	ErrNoDoubleDots                          // missing ":"
	ErrNoWhile                               // missing "while"
	ErrBreakOutside                          // "break" outside a loop
	ErrLabel                                 // label not followed by a loop
	ErrUndefLabel                            // unknown label
	ErrNoCase                                // missing "case"
	ErrBadNum                                // number expected
	ErrVoid                                  // void parameter
	ErrNoType                                // type declaration missing
	ErrNoVar                                 // variable name missing
	ErrNoFunc                                // function name missing
	ErrOverParam                             // too many parameters
	ErrRedefFunc                             // function already exists
	ErrLowParam                              // parameters missing
	ErrBadParam                              // no overload accepts these types
	ErrNbParam                               // no overload accepts this many parameters
	ErrUndefItem                             // not a member of the class
	ErrUndefClass                            // not a class
	ErrNoConstruct                           // no suitable constructor
	ErrRedefClass                            // class already exists
	ErrCloseIndex                            // missing "]"
	ErrReserved                              // reserved keyword
	ErrBadNew                                // bad argument for "new"
	ErrOpenIndex                             // missing "["
	ErrBadString                             // string expected
	ErrBadIndex                              // bad index type
	ErrPrivate                               // private element
	ErrNoPublic                              // public required
	ErrNoExpression                          // expression expected after "="
	ErrAmbiguousCall                         // ambiguous overload
	ErrFuncNotVoid                           // constructor or destructor must return void
	ErrNoClassName                           // class name expected
	ErrNoReturn                              // non-void function without return
	ErrDefaultValue                          // parameter needs a default value
	ErrEndQuote                              // unterminated quote
	ErrBadEscape                             // unknown escape sequence
	ErrOctalRange                            // octal escape out of range
	ErrHexDigits                             // missing hex digits
	ErrHexRange                              // hex escape out of range
	ErrUnicodeName                           // invalid universal character name
	ErrCharEmpty                             // empty character constant
	ErrRedefCase                             // duplicate case label
)

// Runtime errors
const (
	ErrZeroDiv    ErrorCode = iota + 6000 // division by zero
	ErrNotInit                            // variable not initialized
	ErrBadThrow                           // negative value thrown
	ErrNoRetVal                           // function returned no value
	ErrNoRun                              // no function running
	ErrUndefFunc                          // calling a function that no longer exists
	ErrNotClass                           // class does not exist
	ErrNull                               // null pointer
	ErrNan                                // operation on nan
	ErrOutArray                           // index out of range
	ErrStackOver                          // stack overflow
	ErrDeletedPtr                         // deleted object
	ErrFileOpen                           // can't open file
	ErrNotOpen                            // file not open
	ErrRead                               // read error
	ErrWrite                              // write error
)

// errorConstants are the runtime error codes visible to scripts by name
var errorConstants = map[string]ErrorCode{
	"CBotErrZeroDiv":    ErrZeroDiv,
	"CBotErrNotInit":    ErrNotInit,
	"CBotErrBadThrow":   ErrBadThrow,
	"CBotErrNoRetVal":   ErrNoRetVal,
	"CBotErrNoRun":      ErrNoRun,
	"CBotErrUndefFunc":  ErrUndefFunc,
	"CBotErrNotClass":   ErrNotClass,
	"CBotErrNull":       ErrNull,
	"CBotErrNan":        ErrNan,
	"CBotErrOutArray":   ErrOutArray,
	"CBotErrStackOver":  ErrStackOver,
	"CBotErrDeletedPtr": ErrDeletedPtr,
}

// Control signals
const (
	signalBreak    ErrorCode = -1
	signalContinue ErrorCode = -2
	signalReturn   ErrorCode = -3
)

var errorMessages = map[ErrorCode]string{
	ErrOpenPar:       `Opening parenthesis missing`,
	ErrClosePar:      `Closing parenthesis missing`,
	ErrNotBoolean:    `The condition must be a boolean`,
	ErrUndefVar:      `Variable not declared`,
	ErrBadLeft:       `Assignment impossible`,
	ErrNoTerminator:  `Semicolon terminator missing`,
	ErrCaseOut:       `Instruction "case" outside a block "switch"`,
	ErrNoEnd:         `Instructions after the final closing brace`,
	ErrCloseBlock:    `End of block missing`,
	ErrElseWithoutIf: `Instruction "else" without corresponding "if"`,
	ErrOpenBlock:     `Opening brace missing`,
	ErrBadType1:      `Wrong type for the assignment`,
	ErrRedefVar:      `A variable can not be declared twice`,
	ErrBadType2:      `The types of the two operands are incompatible`,
	ErrUndefCall:     `Unknown function`,
	ErrNoDoubleDots:  `Sign " : " missing`,
	ErrNoWhile:       `Keyword "while" missing`,
	ErrBreakOutside:  `Instruction "break" outside a loop`,
	ErrLabel:         `A label must be followed by "for", "while", "do", "repeat" or "switch"`,
	ErrUndefLabel:    `This label does not exist`,
	ErrNoCase:        `Instruction "case" missing`,
	ErrBadNum:        `Number missing`,
	ErrVoid:          `Void parameter`,
	ErrNoType:        `Type declaration missing`,
	ErrNoVar:         `Variable name missing`,
	ErrNoFunc:        `Function name missing`,
	ErrOverParam:     `Too many parameters`,
	ErrRedefFunc:     `Function already exists`,
	ErrLowParam:      `Parameters missing`,
	ErrBadParam:      `No function with this name accepts this kind of parameter`,
	ErrNbParam:       `No function with this name accepts this number of parameters`,
	ErrUndefItem:     `This is not a member of this class`,
	ErrUndefClass:    `This object is not a member of a class`,
	ErrNoConstruct:   `Appropriate constructor missing`,
	ErrRedefClass:    `This class already exists`,
	ErrCloseIndex:    `" ] " missing`,
	ErrReserved:      `Reserved keyword of CBOT language`,
	ErrBadNew:        `Bad argument for "new"`,
	ErrOpenIndex:     `" [ " expected`,
	ErrBadString:     `String missing`,
	ErrBadIndex:      `Incorrect index type`,
	ErrPrivate:       `Private element`,
	ErrNoPublic:      `Public required`,
	ErrNoExpression:  `Expression expected after =`,
	ErrAmbiguousCall: `Ambiguous call to overloaded function`,
	ErrFuncNotVoid:   `Function needs return type "void"`,
	ErrNoClassName:   `Class name expected`,
	ErrNoReturn:      `Non-void function needs "return;"`,
	ErrDefaultValue:  `This parameter needs a default value`,
	ErrEndQuote:      `Missing end quote`,
	ErrBadEscape:     `Unknown escape sequence`,
	ErrOctalRange:    `Octal value out of range`,
	ErrHexDigits:     `Missing hex digits after escape sequence`,
	ErrHexRange:      `Hex value out of range`,
	ErrUnicodeName:   `Invalid universal character name`,
	ErrCharEmpty:     `Empty character constant`,
	ErrRedefCase:     `Duplicate label in switch`,

	ErrZeroDiv:    `Dividing by zero`,
	ErrNotInit:    `Variable not initialized`,
	ErrBadThrow:   `Negative value rejected by "throw"`,
	ErrNoRetVal:   `The function returned no value`,
	ErrNoRun:      `No function running`,
	ErrUndefFunc:  `Calling an unknown function`,
	ErrNotClass:   `This class does not exist`,
	ErrNull:       `Unknown Object`,
	ErrNan:        `Operation impossible with value "nan"`,
	ErrOutArray:   `Access beyond array limit`,
	ErrStackOver:  `Stack overflow`,
	ErrDeletedPtr: `Illegal object`,
	ErrFileOpen:   `Can't open file`,
	ErrNotOpen:    `File not open`,
	ErrRead:       `Read error`,
	ErrWrite:      `Write error`,
}

// String returns the human readable message for the code
func (c ErrorCode) String() string {
	switch c {
	case ErrNone:
		return "no error"
	case signalBreak:
		return "break"
	case signalContinue:
		return "continue"
	case signalReturn:
		return "return"
	}
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	if c > 0 {
		return fmt.Sprintf("exception %d", int(c))
	}
	return fmt.Sprintf("signal %d", int(c))
}

// IsRuntime reports whether the code is raised while running
func (c ErrorCode) IsRuntime() bool {
	return c >= 6000
}

// IsCompile reports whether the code is a compile error
func (c ErrorCode) IsCompile() bool {
	return c >= 5000 && c < 6000
}

// CBotError is the error value returned by the compile and host APIs.
// Start and End are byte offsets into the source text.
type CBotError struct {
	Code     ErrorCode
	Start    int
	End      int
	Function string
	Position *SourcePosition
}

func (e *CBotError) Error() string {
	msg := fmt.Sprintf("%s (%d)", e.Code, int(e.Code))
	if e.Function != "" {
		msg += " in " + e.Function
	}
	if e.Position != nil {
		file := e.Position.Filename
		if file == "" {
			file = "<unknown>"
		}
		msg += fmt.Sprintf(" at %s:%d:%d", file, e.Position.Line, e.Position.Column)
	} else if e.Start >= 0 {
		msg += fmt.Sprintf(" at offset %d-%d", e.Start, e.End)
	}
	return msg
}

// newError builds a CBotError without position information
func newError(code ErrorCode, start, end int) *CBotError {
	return &CBotError{Code: code, Start: start, End: end}
}
