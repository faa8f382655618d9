package cbot

// compileExpression compiles a full expression: an assignment, possibly
// chained to the right, or a conditional expression
func compileExpression(c *CStack) (Instr, TypeResult) {
	tok := c.tok()
	if !tok.IsType(IDThis, IDSuper) && tok.Type != TokenTypVar || c.cur.Peek(1).IsType(IDOpenPar) {
		return compileTernary(c)
	}
	mark := c.cur.Mark()
	saved := c.err
	left, tl := compileVarChain(c)
	opTok := *c.tok()
	_, compound := assignOps[opTok.ID]
	if left == nil || opTok.Type != TokenTypKeyWord || !opTok.IsType(IDAssign) && !compound {
		c.err = saved
		c.cur.Reset(mark)
		return compileTernary(c)
	}
	if left.base == baseLocal && left.name == "this" && len(left.chain) == 0 {
		return c.fail(ErrBadLeft, &opTok)
	}
	if last := len(left.chain) - 1; last >= 0 && left.chain[last].kind == accMethod {
		return c.fail(ErrBadLeft, &opTok)
	}
	c.cur.Next()
	right, tr := compileExpression(c)
	if right == nil {
		if c.IsOk() {
			c.SetError(ErrNoExpression, nil)
		}
		return nil, tr
	}
	if compound {
		res := binaryType(assignOps[opTok.ID], tl, tr)
		if res.IsError() {
			return c.fail(res.Err(), &opTok)
		}
		if !assignable(tl, res, constValue(right)) && !(tl.typ.IsNumeric() && res.typ.IsNumeric()) {
			return c.fail(ErrBadType1, &opTok)
		}
	} else if !assignable(tl, tr, constValue(right)) {
		return c.fail(ErrBadType1, &opTok)
	}
	return &assignInstr{instrBase: instrBase{tok: opTok}, op: opTok.ID, left: left, right: right}, tl
}

// assignInstr stores a value into a variable chain. Compound operators read
// the old value before the right side runs.
type assignInstr struct {
	instrBase
	op    TokenID
	left  *exprVar
	right Instr
}

func (a *assignInstr) Execute(pj *Stack) bool {
	pile := pj.AddStack(a)
	v, deep, ok := a.left.executeVar(pile, true, true)
	if !ok {
		return false
	}
	if pile.State() == 0 {
		if a.op != IDAssign {
			if v.init == InitUndef {
				pile.SetError(ErrNotInit, &a.tok)
				return pj.Return(pile)
			}
			pile.SetCopyVar(v)
		}
		pile.SetState(1)
	}

	pile2 := deep.AddStack(nil)
	if pile2.State() == 0 {
		if !a.right.Execute(pile2) {
			return false
		}
		pile2.SetState(1)
	}
	pile3 := pile2.AddStack(nil)
	if pile3.IfStep() {
		return false
	}

	val := pile2.Var()
	if a.op != IDAssign {
		res, code := evalBinary(assignOps[a.op], pile.Var(), val)
		if code != ErrNone {
			pile.SetError(code, &a.tok)
			return pj.Return(pile)
		}
		pile2.SetVar(res)
		val = res
	}
	// the right side may have moved the target, as in a[i] = grow(a)
	v, _, ok = a.left.executeVar(pile, false, true)
	if !ok {
		return false
	}
	if code := storeValue(v, val); code != ErrNone {
		pile.SetError(code, &a.tok)
		return pj.Return(pile)
	}
	pile.SetCopyVar(v)
	return pj.Return(pile)
}

func (a *assignInstr) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile := pj.RestoreStack(a)
	if pile == nil {
		return
	}
	if pile.State() != 0 && a.op != IDAssign && !pile.needVar() {
		return
	}
	deep := a.left.restoreVar(pile)
	if deep == nil {
		return
	}
	pile2 := deep.RestoreStack(nil)
	if pile2 == nil {
		return
	}
	if pile2.State() == 0 {
		a.right.RestoreState(pile2, true)
	} else {
		pile2.needVar()
	}
}

// exprPreInc is ++v or --v
type exprPreInc struct {
	instrBase
	op TokenID
	v  *exprVar
}

func (e *exprPreInc) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	v, deep, ok := e.v.executeVar(pile, true, true)
	if !ok {
		return false
	}
	if deep.AddStack(nil).IfStep() {
		return false
	}
	if code := checkStep(v); code != ErrNone {
		pile.SetError(code, &e.tok)
		return pj.Return(pile)
	}
	stepVar(v, e.op)
	pile.SetCopyVar(v)
	return pj.Return(pile)
}

func (e *exprPreInc) RestoreState(pj *Stack, main bool) {
	if main {
		if pile := pj.RestoreStack(e); pile != nil {
			e.v.restoreVar(pile)
		}
	}
}

// exprPostInc is v++ or v--, yielding the old value
type exprPostInc struct {
	instrBase
	op TokenID
	v  *exprVar
}

func (e *exprPostInc) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	v, deep, ok := e.v.executeVar(pile, true, true)
	if !ok {
		return false
	}
	if deep.AddStack(nil).IfStep() {
		return false
	}
	if code := checkStep(v); code != ErrNone {
		pile.SetError(code, &e.tok)
		return pj.Return(pile)
	}
	pile.SetCopyVar(v)
	stepVar(v, e.op)
	return pj.Return(pile)
}

func (e *exprPostInc) RestoreState(pj *Stack, main bool) {
	if main {
		if pile := pj.RestoreStack(e); pile != nil {
			e.v.restoreVar(pile)
		}
	}
}

func checkStep(v *Var) ErrorCode {
	switch {
	case v.init == InitUndef:
		return ErrNotInit
	case isNanVar(v):
		return ErrNan
	}
	return ErrNone
}
