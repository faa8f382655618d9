package cbot

import (
	"math"
	"math/rand/v2"
)

// mathSig type checks a call taking n numbers
func mathSig(n int, result Type) NativeCompile {
	return func(args *ArgList, user any) TypeResult {
		for i := 0; i < n; i++ {
			a := args.Next()
			if a == nil {
				return ErrorType(ErrLowParam)
			}
			if !a.Type().IsNumeric() {
				return ErrorType(ErrBadNum)
			}
		}
		if !args.Empty() {
			return ErrorType(ErrOverParam)
		}
		return NewType(result)
	}
}

// RegisterMathLib registers the numeric functions
func (e *Environment) RegisterMathLib() {

	// ==================== one argument ====================

	unary := map[string]func(float64) float64{
		"sqrt":  math.Sqrt,
		"sin":   func(x float64) float64 { return math.Sin(x * math.Pi / 180) },
		"cos":   func(x float64) float64 { return math.Cos(x * math.Pi / 180) },
		"tan":   func(x float64) float64 { return math.Tan(x * math.Pi / 180) },
		"asin":  func(x float64) float64 { return math.Asin(x) * 180 / math.Pi },
		"acos":  func(x float64) float64 { return math.Acos(x) * 180 / math.Pi },
		"atan":  func(x float64) float64 { return math.Atan(x) * 180 / math.Pi },
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"round": math.Round,
		"trunc": math.Trunc,
		"abs":   math.Abs,
	}
	for name, fn := range unary {
		e.AddFunction(name, func(args, result *Var, user any) (bool, ErrorCode) {
			result.SetValFloat(fn(args.GetValFloat()))
			return true, ErrNone
		}, mathSig(1, TypFloat))
	}

	// ==================== two arguments ====================

	// pow - x raised to y
	e.AddFunction("pow", func(args, result *Var, user any) (bool, ErrorCode) {
		result.SetValFloat(math.Pow(args.GetValFloat(), args.next.GetValFloat()))
		return true, ErrNone
	}, mathSig(2, TypFloat))

	// atan2 - angle of (x, y) in degrees
	e.AddFunction("atan2", func(args, result *Var, user any) (bool, ErrorCode) {
		y, x := args.GetValFloat(), args.next.GetValFloat()
		result.SetValFloat(math.Atan2(y, x) * 180 / math.Pi)
		return true, ErrNone
	}, mathSig(2, TypFloat))

	// min / max - smaller or larger of two numbers
	e.AddFunction("min", func(args, result *Var, user any) (bool, ErrorCode) {
		result.SetValFloat(math.Min(args.GetValFloat(), args.next.GetValFloat()))
		return true, ErrNone
	}, mathSig(2, TypFloat))

	e.AddFunction("max", func(args, result *Var, user any) (bool, ErrorCode) {
		result.SetValFloat(math.Max(args.GetValFloat(), args.next.GetValFloat()))
		return true, ErrNone
	}, mathSig(2, TypFloat))

	// ==================== no argument ====================

	// rand - uniform number in [0, 1)
	e.AddFunction("rand", func(args, result *Var, user any) (bool, ErrorCode) {
		result.SetValFloat(rand.Float64())
		return true, ErrNone
	}, mathSig(0, TypFloat))
}
