package cbot

// compileBlock compiles { statements }. With scope the block opens a new
// compile scope; a function body shares the scope of its parameters.
func compileBlock(c *CStack, scope bool) Instr {
	tok := *c.tok()
	if !c.cur.Accept(IDOpenBlock) {
		c.SetError(ErrOpenBlock, nil)
		return nil
	}
	if scope {
		c.pushScope()
		defer c.popScope()
	}
	b := &blockInstr{instrBase: instrBase{tok: tok}}
	for !c.tok().IsType(IDCloseBlock) {
		if c.cur.AtEnd() {
			c.SetError(ErrCloseBlock, nil)
			return nil
		}
		inst := compileInstr(c)
		if inst == nil {
			return nil
		}
		b.stmts = append(b.stmts, inst)
	}
	c.cur.Next()
	return b
}

// compileInstr compiles one statement
func compileInstr(c *CStack) Instr {
	tok := *c.tok()
	label := ""
	if tok.Type == TokenTypVar && c.cur.Peek(1).IsType(IDDblDots) {
		label = tok.Text
		c.cur.Next()
		c.cur.Next()
		if !c.tok().IsType(IDWhile, IDDo, IDFor, IDRepeat, IDSwitch) {
			c.SetError(ErrLabel, &tok)
			return nil
		}
		tok = *c.tok()
	}

	switch {
	case tok.IsType(IDOpenBlock):
		return compileBlock(c, true)
	case tok.IsType(IDSep):
		c.cur.Next()
		return &emptyInstr{instrBase: instrBase{tok: tok}}
	case tok.IsType(IDIf):
		return compileIf(c)
	case tok.IsType(IDWhile):
		return compileWhile(c, label)
	case tok.IsType(IDDo):
		return compileDo(c, label)
	case tok.IsType(IDFor):
		return compileFor(c, label)
	case tok.IsType(IDRepeat):
		return compileRepeat(c, label)
	case tok.IsType(IDSwitch):
		return compileSwitch(c, label)
	case tok.IsType(IDBreak, IDContinue):
		return compileBreak(c)
	case tok.IsType(IDReturn):
		return compileReturn(c)
	case tok.IsType(IDThrow):
		return compileThrow(c)
	case tok.IsType(IDTry):
		return compileTry(c)
	case tok.IsType(IDCase, IDDefault):
		c.SetError(ErrCaseOut, &tok)
		return nil
	case tok.IsType(IDElse):
		c.SetError(ErrElseWithoutIf, &tok)
		return nil
	case tok.IsType(IDCatch, IDFinally):
		c.SetError(ErrNoTerminator, &tok)
		return nil
	case startsDeclaration(c):
		inst := compileDecl(c)
		if inst == nil {
			return nil
		}
		if !c.cur.Accept(IDSep) {
			c.SetError(ErrNoTerminator, nil)
			return nil
		}
		return inst
	}

	inst, _ := compileExpression(c)
	if inst == nil {
		if c.IsOk() {
			c.SetError(ErrNoExpression, nil)
		}
		return nil
	}
	if !c.cur.Accept(IDSep) {
		c.SetError(ErrNoTerminator, nil)
		return nil
	}
	return inst
}

// compileCondition compiles "( boolean expression )"
func compileCondition(c *CStack) Instr {
	if !c.cur.Accept(IDOpenPar) {
		c.SetError(ErrOpenPar, nil)
		return nil
	}
	start := *c.tok()
	cond, t := compileExpression(c)
	if cond == nil {
		if c.IsOk() {
			c.SetError(ErrNoExpression, nil)
		}
		return nil
	}
	if t.typ != TypBoolean {
		c.SetError(ErrNotBoolean, &start)
		return nil
	}
	if !c.cur.Accept(IDClosePar) {
		c.SetError(ErrClosePar, nil)
		return nil
	}
	return cond
}

// compileLoopBody compiles the controlled statement of a loop or branch in
// its own scope
func compileLoopBody(c *CStack) Instr {
	c.pushScope()
	defer c.popScope()
	return compileInstr(c)
}

func compileIf(c *CStack) Instr {
	tok := *c.tok()
	c.cur.Next()
	cond := compileCondition(c)
	if cond == nil {
		return nil
	}
	then := compileLoopBody(c)
	if then == nil {
		return nil
	}
	n := &ifInstr{instrBase: instrBase{tok: tok}, cond: cond, then: then}
	if c.cur.Accept(IDElse) {
		if n.els = compileLoopBody(c); n.els == nil {
			return nil
		}
	}
	return n
}

func compileWhile(c *CStack, label string) Instr {
	tok := *c.tok()
	c.cur.Next()
	cond := compileCondition(c)
	if cond == nil {
		return nil
	}
	c.pushLoop(label, true)
	body := compileLoopBody(c)
	c.popLoop()
	if body == nil {
		return nil
	}
	return &whileInstr{instrBase: instrBase{tok: tok}, label: label, cond: cond, body: body}
}

func compileDo(c *CStack, label string) Instr {
	tok := *c.tok()
	c.cur.Next()
	c.pushLoop(label, true)
	body := compileLoopBody(c)
	c.popLoop()
	if body == nil {
		return nil
	}
	if !c.cur.Accept(IDWhile) {
		c.SetError(ErrNoWhile, nil)
		return nil
	}
	cond := compileCondition(c)
	if cond == nil {
		return nil
	}
	if !c.cur.Accept(IDSep) {
		c.SetError(ErrNoTerminator, nil)
		return nil
	}
	return &doInstr{instrBase: instrBase{tok: tok}, label: label, body: body, cond: cond}
}

// compileExprList compiles comma separated expressions up to end
func compileExprList(c *CStack, end TokenID) Instr {
	tok := *c.tok()
	var items []Instr
	for !c.tok().IsType(end) {
		inst, _ := compileExpression(c)
		if inst == nil {
			if c.IsOk() {
				c.SetError(ErrNoExpression, nil)
			}
			return nil
		}
		items = append(items, inst)
		if !c.cur.Accept(IDComma) {
			break
		}
	}
	switch len(items) {
	case 0:
		return nil
	case 1:
		return items[0]
	}
	return &seqInstr{instrBase: instrBase{tok: tok}, items: items}
}

func compileFor(c *CStack, label string) Instr {
	tok := *c.tok()
	c.cur.Next()
	if !c.cur.Accept(IDOpenPar) {
		c.SetError(ErrOpenPar, nil)
		return nil
	}
	c.pushScope()
	defer c.popScope()

	n := &forInstr{instrBase: instrBase{tok: tok}, label: label}
	if startsDeclaration(c) {
		if n.init = compileDecl(c); n.init == nil {
			return nil
		}
	} else {
		n.init = compileExprList(c, IDSep)
	}
	if !c.IsOk() {
		return nil
	}
	if !c.cur.Accept(IDSep) {
		c.SetError(ErrNoTerminator, nil)
		return nil
	}
	if !c.tok().IsType(IDSep) {
		start := *c.tok()
		cond, t := compileExpression(c)
		if cond == nil {
			if c.IsOk() {
				c.SetError(ErrNoExpression, nil)
			}
			return nil
		}
		if t.typ != TypBoolean {
			c.SetError(ErrNotBoolean, &start)
			return nil
		}
		n.cond = cond
	}
	if !c.cur.Accept(IDSep) {
		c.SetError(ErrNoTerminator, nil)
		return nil
	}
	n.incr = compileExprList(c, IDClosePar)
	if !c.IsOk() {
		return nil
	}
	if !c.cur.Accept(IDClosePar) {
		c.SetError(ErrClosePar, nil)
		return nil
	}
	c.pushLoop(label, true)
	n.body = compileLoopBody(c)
	c.popLoop()
	if n.body == nil {
		return nil
	}
	return n
}

func compileRepeat(c *CStack, label string) Instr {
	tok := *c.tok()
	c.cur.Next()
	if !c.cur.Accept(IDOpenPar) {
		c.SetError(ErrOpenPar, nil)
		return nil
	}
	start := *c.tok()
	count, t := compileExpression(c)
	if count == nil {
		if c.IsOk() {
			c.SetError(ErrNoExpression, nil)
		}
		return nil
	}
	if !t.typ.IsInteger() {
		c.SetError(ErrBadType1, &start)
		return nil
	}
	if !c.cur.Accept(IDClosePar) {
		c.SetError(ErrClosePar, nil)
		return nil
	}
	c.pushLoop(label, true)
	body := compileLoopBody(c)
	c.popLoop()
	if body == nil {
		return nil
	}
	return &repeatInstr{instrBase: instrBase{tok: tok}, label: label, count: count, body: body}
}

func compileSwitch(c *CStack, label string) Instr {
	tok := *c.tok()
	c.cur.Next()
	if !c.cur.Accept(IDOpenPar) {
		c.SetError(ErrOpenPar, nil)
		return nil
	}
	start := *c.tok()
	value, vt := compileExpression(c)
	if value == nil {
		if c.IsOk() {
			c.SetError(ErrNoExpression, nil)
		}
		return nil
	}
	if !vt.typ.IsInteger() && vt.typ != TypString {
		c.SetError(ErrBadType1, &start)
		return nil
	}
	if !c.cur.Accept(IDClosePar) {
		c.SetError(ErrClosePar, nil)
		return nil
	}
	if !c.cur.Accept(IDOpenBlock) {
		c.SetError(ErrOpenBlock, nil)
		return nil
	}

	n := &switchInstr{instrBase: instrBase{tok: tok}, label: label, value: value}
	c.pushScope()
	defer c.popScope()
	c.pushLoop(label, false)
	defer c.popLoop()
	hasDefault := false
	for !c.cur.Accept(IDCloseBlock) {
		if c.cur.AtEnd() {
			c.SetError(ErrCloseBlock, nil)
			return nil
		}
		caseTok := *c.tok()
		switch {
		case caseTok.IsType(IDCase):
			c.cur.Next()
			k := compileCaseValue(c, vt)
			if k == nil {
				return nil
			}
			for _, prev := range n.cases {
				if !prev.isDefault && prev.value.Equals(k) {
					c.SetError(ErrRedefCase, &caseTok)
					return nil
				}
			}
			n.cases = append(n.cases, switchCase{value: k, stmt: len(n.stmts)})
		case caseTok.IsType(IDDefault):
			c.cur.Next()
			if hasDefault {
				c.SetError(ErrRedefCase, &caseTok)
				return nil
			}
			hasDefault = true
			n.cases = append(n.cases, switchCase{isDefault: true, stmt: len(n.stmts)})
		default:
			if len(n.cases) == 0 {
				c.SetError(ErrNoCase, &caseTok)
				return nil
			}
			inst := compileInstr(c)
			if inst == nil {
				return nil
			}
			n.stmts = append(n.stmts, inst)
			continue
		}
		if !c.cur.Accept(IDDblDots) {
			c.SetError(ErrNoDoubleDots, nil)
			return nil
		}
	}
	return n
}

// compileCaseValue compiles the constant of a case label
func compileCaseValue(c *CStack, vt TypeResult) *Var {
	start := *c.tok()
	inst, t := compileTernary(c)
	if inst == nil {
		if c.IsOk() {
			c.SetError(ErrBadNum, &start)
		}
		return nil
	}
	if vt.typ == TypString {
		lit, ok := inst.(*exprLitString)
		if !ok {
			c.SetError(ErrBadString, &start)
			return nil
		}
		v := newDefinedVar("", NewType(TypString))
		v.sval = lit.value
		return v
	}
	k := constValue(inst)
	if !k.ok || !t.typ.IsInteger() {
		c.SetError(ErrBadNum, &start)
		return nil
	}
	v := newDefinedVar("", NewType(TypLong))
	v.ival = k.val
	return v
}

func compileBreak(c *CStack) Instr {
	tok := *c.tok()
	c.cur.Next()
	n := &breakInstr{instrBase: instrBase{tok: tok}, cont: tok.ID == IDContinue}
	if c.tok().Type == TokenTypVar {
		n.label = c.tok().Text
		c.cur.Next()
	}
	if !c.checkBreak(n.label, n.cont, &tok) {
		return nil
	}
	if !c.cur.Accept(IDSep) {
		c.SetError(ErrNoTerminator, nil)
		return nil
	}
	return n
}

func compileReturn(c *CStack) Instr {
	tok := *c.tok()
	c.cur.Next()
	n := &returnInstr{instrBase: instrBase{tok: tok}}
	ret := NewType(TypVoid)
	if c.fn != nil {
		ret = c.fn.ret
	}
	if c.tok().IsType(IDSep) {
		if ret.typ != TypVoid {
			c.SetError(ErrNoExpression, nil)
			return nil
		}
		c.cur.Next()
		return n
	}
	start := *c.tok()
	expr, t := compileExpression(c)
	if expr == nil {
		if c.IsOk() {
			c.SetError(ErrNoExpression, nil)
		}
		return nil
	}
	if ret.typ == TypVoid || !assignable(ret, t, constValue(expr)) {
		c.SetError(ErrBadType1, &start)
		return nil
	}
	if !c.cur.Accept(IDSep) {
		c.SetError(ErrNoTerminator, nil)
		return nil
	}
	n.expr = expr
	return n
}

func compileThrow(c *CStack) Instr {
	tok := *c.tok()
	c.cur.Next()
	start := *c.tok()
	expr, t := compileExpression(c)
	if expr == nil {
		if c.IsOk() {
			c.SetError(ErrNoExpression, nil)
		}
		return nil
	}
	if !t.typ.IsInteger() {
		c.SetError(ErrBadType1, &start)
		return nil
	}
	if !c.cur.Accept(IDSep) {
		c.SetError(ErrNoTerminator, nil)
		return nil
	}
	return &throwInstr{instrBase: instrBase{tok: tok}, expr: expr}
}

func compileTry(c *CStack) Instr {
	tok := *c.tok()
	c.cur.Next()
	n := &tryInstr{instrBase: instrBase{tok: tok}}
	if n.body = compileBlock(c, true); n.body == nil {
		return nil
	}
	for c.tok().IsType(IDCatch) {
		ctok := *c.tok()
		c.cur.Next()
		if !c.cur.Accept(IDOpenPar) {
			c.SetError(ErrOpenPar, nil)
			return nil
		}
		start := *c.tok()
		cond, t := compileExpression(c)
		if cond == nil {
			if c.IsOk() {
				c.SetError(ErrNoExpression, nil)
			}
			return nil
		}
		if t.typ != TypBoolean && !t.typ.IsInteger() {
			c.SetError(ErrBadType1, &start)
			return nil
		}
		if !c.cur.Accept(IDClosePar) {
			c.SetError(ErrClosePar, nil)
			return nil
		}
		body := compileBlock(c, true)
		if body == nil {
			return nil
		}
		n.catches = append(n.catches, catchClause{tok: ctok, cond: cond, body: body})
	}
	if c.cur.Accept(IDFinally) {
		if n.finally = compileBlock(c, true); n.finally == nil {
			return nil
		}
	}
	return n
}
