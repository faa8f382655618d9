package cbot

import (
	"math"
	"strconv"
	"strings"
)

// exprLitNum is an integer or floating literal, or a host-defined constant
type exprLitNum struct {
	instrBase
	typ  TypeResult
	ival int64
	fval float64
}

// parseNumber decodes the text of a numeric token. Literals that fit in an
// int are ints, larger integers are longs; hex and binary literals keep
// their bit pattern.
func parseNumber(text string) (TypeResult, int64, float64, bool) {
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0b") {
		base := 16
		if lower[1] == 'b' {
			base = 2
		}
		digits := lower[2:]
		if digits == "" {
			return TypeResult{}, 0, 0, false
		}
		u, err := strconv.ParseUint(digits, base, 64)
		if err != nil {
			return TypeResult{}, 0, 0, false
		}
		if u <= math.MaxUint32 {
			return NewType(TypInt), int64(int32(uint32(u))), 0, true
		}
		return NewType(TypLong), int64(u), 0, true
	}
	if strings.ContainsAny(lower, ".e") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return TypeResult{}, 0, 0, false
		}
		return NewType(TypFloat), 0, f, true
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return TypeResult{}, 0, 0, false
	}
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return NewType(TypInt), n, 0, true
	}
	return NewType(TypLong), n, 0, true
}

func compileLitNum(c *CStack) (Instr, TypeResult) {
	tok := c.tok()
	inst := &exprLitNum{instrBase: instrBase{tok: *tok}}
	if tok.Type == TokenTypDef {
		inst.typ = NewType(TypInt)
		if tok.Def < math.MinInt32 || tok.Def > math.MaxInt32 {
			inst.typ = NewType(TypLong)
		}
		inst.ival = tok.Def
		c.cur.Next()
		return inst, inst.typ
	}
	typ, ival, fval, ok := parseNumber(tok.Text)
	if !ok {
		return c.fail(ErrBadNum, tok)
	}
	inst.typ, inst.ival, inst.fval = typ, ival, fval
	c.cur.Next()
	return inst, typ
}

func (e *exprLitNum) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	if pile.IfStep() {
		return false
	}
	v := newDefinedVar("", e.typ)
	if e.typ.typ == TypFloat || e.typ.typ == TypDouble {
		v.fval = e.fval
	} else {
		v.ival = e.ival
	}
	if e.tok.Type == TokenTypDef {
		v.defNum = e.tok.Text
	}
	pile.SetVar(v)
	return pj.Return(pile)
}

func (e *exprLitNum) RestoreState(pj *Stack, main bool) {
	if main {
		pj.RestoreStack(e)
	}
}

// exprLitString is a string literal
type exprLitString struct {
	instrBase
	value string
}

func (e *exprLitString) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	if pile.IfStep() {
		return false
	}
	v := newDefinedVar("", NewType(TypString))
	v.sval = e.value
	pile.SetVar(v)
	return pj.Return(pile)
}

func (e *exprLitString) RestoreState(pj *Stack, main bool) {
	if main {
		pj.RestoreStack(e)
	}
}

// exprLitChar is a character literal
type exprLitChar struct {
	instrBase
	value rune
}

func (e *exprLitChar) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	if pile.IfStep() {
		return false
	}
	v := newDefinedVar("", NewType(TypChar))
	v.ival = int64(e.value)
	pile.SetVar(v)
	return pj.Return(pile)
}

func (e *exprLitChar) RestoreState(pj *Stack, main bool) {
	if main {
		pj.RestoreStack(e)
	}
}

// exprLitConst is true, false, null or nan
type exprLitConst struct {
	instrBase
	id TokenID
}

func (e *exprLitConst) typ() TypeResult {
	switch e.id {
	case IDTrue, IDFalse:
		return NewType(TypBoolean)
	case IDNull:
		return NewType(TypNullPointer)
	}
	return NewType(TypInt)
}

func (e *exprLitConst) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	if pile.IfStep() {
		return false
	}
	v := newDefinedVar("", e.typ())
	switch e.id {
	case IDTrue:
		v.ival = 1
	case IDNan:
		v.SetNan()
	}
	pile.SetVar(v)
	return pj.Return(pile)
}

func (e *exprLitConst) RestoreState(pj *Stack, main bool) {
	if main {
		pj.RestoreStack(e)
	}
}

// exprUnary is a prefix operator: - ! not ~
type exprUnary struct {
	instrBase
	op   TokenID
	expr Instr
}

func (e *exprUnary) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	if pile.State() == 0 {
		if !e.expr.Execute(pile) {
			return false
		}
		pile.IncState()
	}
	pile2 := pile.AddStack(nil)
	if pile2.IfStep() {
		return false
	}
	res, err := evalUnary(e.op, pile.Var())
	if err != ErrNone {
		pile.SetError(err, &e.tok)
		return pj.Return(pile)
	}
	pile.SetVar(res)
	return pj.Return(pile)
}

func (e *exprUnary) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile := pj.RestoreStack(e)
	if pile == nil {
		return
	}
	if pile.State() == 0 {
		e.expr.RestoreState(pile, main)
	} else {
		pile.needVar()
	}
}

// exprTwoOp is a binary operator. The left operand is evaluated and cached
// before the right one; && and || skip the right operand when the left
// decides the result.
type exprTwoOp struct {
	instrBase
	op    TokenID
	left  Instr
	right Instr
}

func (e *exprTwoOp) Execute(pj *Stack) bool {
	pile1 := pj.AddStack(e)
	if pile1.State() == 0 {
		if !e.left.Execute(pile1) {
			return false
		}
		if (e.op == IDLogAnd || e.op == IDTxtAnd) && !pile1.GetVal() {
			res := newDefinedVar("", NewType(TypBoolean))
			pile1.SetVar(res)
			return pj.Return(pile1)
		}
		if (e.op == IDLogOr || e.op == IDTxtOr) && pile1.GetVal() {
			res := newDefinedVar("", NewType(TypBoolean))
			res.ival = 1
			pile1.SetVar(res)
			return pj.Return(pile1)
		}
		pile1.SetState(1)
	}

	pile2 := pile1.AddStack(nil)
	if pile2.State() == 0 {
		if !e.right.Execute(pile2) {
			return false
		}
		pile2.IncState()
	}

	pile3 := pile2.AddStack(e)
	if pile3.IfStep() {
		return false
	}
	res, err := evalBinary(e.op, pile1.Var(), pile2.Var())
	if err != ErrNone {
		pile2.SetError(err, &e.tok)
		return pj.Return(pile2)
	}
	pile2.SetVar(res)
	return pj.Return(pile2)
}

func (e *exprTwoOp) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile1 := pj.RestoreStack(e)
	if pile1 == nil {
		return
	}
	if pile1.State() == 0 {
		e.left.RestoreState(pile1, main)
		return
	}
	if !pile1.needVar() {
		return
	}
	pile2 := pile1.RestoreStack(nil)
	if pile2 == nil {
		return
	}
	if pile2.State() == 0 {
		e.right.RestoreState(pile2, main)
		return
	}
	if pile2.needVar() {
		pile2.RestoreStack(e)
	}
}

// exprCond is the conditional operator cond ? a : b
type exprCond struct {
	instrBase
	cond Instr
	a, b Instr
}

func (e *exprCond) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	if pile.State() == 0 {
		if !e.cond.Execute(pile) {
			return false
		}
		if pile.GetVal() {
			pile.SetState(1)
		} else {
			pile.SetState(2)
		}
	}
	pile2 := pile.AddStack(nil)
	if pile2.IfStep() {
		return false
	}
	branch := e.a
	if pile.State() == 2 {
		branch = e.b
	}
	if !branch.Execute(pile2) {
		return false
	}
	return pj.Return(pile2)
}

func (e *exprCond) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile := pj.RestoreStack(e)
	if pile == nil || !pile.needState(0, 2) {
		return
	}
	if pile.State() == 0 {
		e.cond.RestoreState(pile, main)
		return
	}
	pile2 := pile.RestoreStack(nil)
	if pile2 == nil {
		return
	}
	if pile.State() == 1 {
		e.a.RestoreState(pile2, main)
	} else {
		e.b.RestoreState(pile2, main)
	}
}

// binary operator levels, lowest precedence first
var opLevels = [][]TokenID{
	{IDLogOr, IDTxtOr},
	{IDLogAnd, IDTxtAnd},
	{IDOr},
	{IDXor},
	{IDAnd},
	{IDEq, IDNe},
	{IDLo, IDLs, IDHi, IDHs},
	{IDSl, IDSr, IDAsr},
	{IDAdd, IDSub},
	{IDMul, IDDiv, IDModulo},
	{IDPower},
}

// compileTernary compiles the conditional operator level
func compileTernary(c *CStack) (Instr, TypeResult) {
	start := c.tok()
	cond, t := compileTwoOp(c, 0)
	if cond == nil {
		return nil, t
	}
	if !c.tok().IsType(IDHook) {
		return cond, t
	}
	hook := *c.tok()
	if t.typ != TypBoolean {
		return c.fail(ErrBadType1, &hook)
	}
	c.cur.Next()
	a, ta := compileExpression(c)
	if a == nil {
		if c.IsOk() {
			c.SetError(ErrNoExpression, nil)
		}
		return nil, ta
	}
	if !c.cur.Accept(IDDblDots) {
		return c.fail(ErrNoDoubleDots, nil)
	}
	b, tb := compileExpression(c)
	if b == nil {
		if c.IsOk() {
			c.SetError(ErrNoTerminator, nil)
		}
		return nil, tb
	}
	res := ta
	switch {
	case ta.typ.IsNumeric() && tb.typ.IsNumeric():
		res = NewType(maxType(ta.typ, tb.typ))
	case ta.typ == TypNullPointer:
		res = tb
	case tb.typ == TypNullPointer:
		res = ta
	case ta.typ == TypString || tb.typ == TypString:
		res = NewType(TypString)
	case !assignable(ta, tb, constInfo{}) && !assignable(tb, ta, constInfo{}):
		return c.fail(ErrBadType2, &hook)
	}
	return &exprCond{instrBase: instrBase{tok: *start}, cond: cond, a: a, b: b}, res
}

// compileTwoOp compiles the binary operators from precedence level upward
func compileTwoOp(c *CStack, level int) (Instr, TypeResult) {
	if level >= len(opLevels) {
		return compileUnary(c)
	}
	left, t1 := compileTwoOp(c, level+1)
	if left == nil {
		return nil, t1
	}
	for c.tok().IsType(opLevels[level]...) {
		opTok := *c.tok()
		c.cur.Next()
		// ** groups to the right
		next := level + 1
		if opTok.ID == IDPower {
			next = level
		}
		right, t2 := compileTwoOp(c, next)
		if right == nil {
			if c.IsOk() {
				c.SetError(ErrNoExpression, nil)
			}
			return nil, t2
		}
		res := binaryType(opTok.ID, t1, t2)
		if res.IsError() {
			return c.fail(res.Err(), &opTok)
		}
		left = &exprTwoOp{instrBase: instrBase{tok: opTok}, op: opTok.ID, left: left, right: right}
		t1 = res
	}
	return left, t1
}

// compileUnary compiles prefix operators and pre-increments
func compileUnary(c *CStack) (Instr, TypeResult) {
	tok := *c.tok()
	switch {
	case tok.IsType(IDSub, IDLogNot, IDTxtNot, IDNot):
		c.cur.Next()
		expr, t := compileUnary(c)
		if expr == nil {
			if c.IsOk() {
				c.SetError(ErrNoExpression, nil)
			}
			return nil, t
		}
		switch tok.ID {
		case IDSub:
			if !t.typ.IsNumeric() {
				return c.fail(ErrBadType1, &tok)
			}
		case IDNot:
			if !t.typ.IsInteger() {
				return c.fail(ErrBadType1, &tok)
			}
		default:
			if t.typ != TypBoolean {
				return c.fail(ErrBadType1, &tok)
			}
		}
		return &exprUnary{instrBase: instrBase{tok: tok}, op: tok.ID, expr: expr}, t
	case tok.IsType(IDInc, IDDec):
		c.cur.Next()
		v, t := compileVarChain(c)
		if v == nil {
			return c.fail(ErrBadType1, &tok)
		}
		if !t.typ.IsNumeric() {
			return c.fail(ErrBadType1, &tok)
		}
		return &exprPreInc{instrBase: instrBase{tok: tok}, op: tok.ID, v: v}, t
	}
	return compilePrimary(c)
}

// constValue returns the value of an integer constant expression
func constValue(i Instr) constInfo {
	switch n := i.(type) {
	case *exprLitNum:
		if n.typ.typ.IsInteger() {
			return constInfo{ok: true, val: n.ival}
		}
	case *exprLitChar:
		return constInfo{ok: true, val: int64(n.value)}
	case *exprUnary:
		if n.op == IDSub {
			if k := constValue(n.expr); k.ok {
				return constInfo{ok: true, val: -k.val}
			}
		}
	}
	return constInfo{}
}
