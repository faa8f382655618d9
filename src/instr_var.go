package cbot

// varBase tells where the first element of a variable chain comes from
type varBase int

const (
	baseLocal  varBase = iota // local, parameter, this or host global
	baseStatic                // static field of a class
	baseExpr                  // value of an expression such as a call or new
)

type accessKind int

const (
	accIndex accessKind = iota
	accField
	accMethod
)

// accessor is one step of a variable chain: [index], .field or .method()
type accessor struct {
	kind   accessKind
	tok    Token
	index  Instr
	name   string
	owner  *Class
	static bool
	call   *methodCall
}

// exprVar is a variable reference with its chain of accessors, such as
// a.b[i].c or f().x
type exprVar struct {
	instrBase
	base  varBase
	name  string
	class *Class
	expr  Instr
	chain []*accessor
	typ   TypeResult
}

// executeVar walks the chain and returns the addressed variable and the
// deepest frame used. Index values and method results are cached in their
// frames, so walking the chain again after a suspension does not repeat
// them. With extend, arrays grow to reach the requested element.
func (e *exprVar) executeVar(pj *Stack, step, extend bool) (*Var, *Stack, bool) {
	pile := pj.AddStack(e)
	var v *Var
	switch e.base {
	case baseExpr:
		if pile.State() == 0 {
			if !e.expr.Execute(pile) {
				return nil, pile, false
			}
			pile.SetState(1)
		}
		v = pile.Var()
	case baseStatic:
		if step && pile.IfStep() {
			return nil, pile, false
		}
		v = e.class.Static(e.name)
	default:
		if step && pile.IfStep() {
			return nil, pile, false
		}
		v = pile.FindVar(e.name)
	}
	if v == nil {
		pile.SetError(ErrNotInit, &e.tok)
		return nil, pile, false
	}
	for _, a := range e.chain {
		var ok bool
		v, pile, ok = a.execute(v, pile, step, extend)
		if !ok {
			return nil, pile, false
		}
	}
	return v, pile, true
}

func (a *accessor) execute(v *Var, pile *Stack, step, extend bool) (*Var, *Stack, bool) {
	switch a.kind {
	case accIndex:
		p := pile.AddStack(nil)
		if p.State() == 0 {
			if !a.index.Execute(p) {
				return nil, p, false
			}
			p.IncState()
		}
		idx := p.Var()
		if idx == nil || !idx.typ.typ.IsNumeric() || isNanVar(idx) {
			p.SetError(ErrBadIndex, &a.tok)
			return nil, p, false
		}
		item := v.ArrayItem(int(idx.GetValInt()), extend)
		if item == nil {
			p.SetError(ErrOutArray, &a.tok)
			return nil, p, false
		}
		return item, p, true

	case accField:
		p := pile.AddStack(nil)
		if v.inst == nil {
			p.SetError(ErrNull, &a.tok)
			return nil, p, false
		}
		if v.inst.deleted {
			p.SetError(ErrDeletedPtr, &a.tok)
			return nil, p, false
		}
		if step && p.IfStep() {
			return nil, p, false
		}
		var f *Var
		if a.static {
			f = a.owner.Static(a.name)
		} else {
			f = v.inst.fieldFrom(a.owner, a.name)
		}
		if f == nil {
			p.SetError(ErrUndefItem, &a.tok)
			return nil, p, false
		}
		return f, p, true

	case accMethod:
		p := pile.AddStack(a.call)
		if !a.call.executeOn(v, p) {
			return nil, p, false
		}
		return p.Var(), p, true
	}
	return nil, pile, false
}

// restoreVar mirrors executeVar for restored frames
func (e *exprVar) restoreVar(pj *Stack) *Stack {
	pile := pj.RestoreStack(e)
	if pile == nil {
		return nil
	}
	if e.base == baseExpr {
		if pile.State() == 0 {
			e.expr.RestoreState(pile, true)
			return nil
		}
		if !pile.needVar() {
			return nil
		}
	}
	for _, a := range e.chain {
		var claim Instr
		if a.kind == accMethod {
			claim = a.call
		}
		next := pile.RestoreStack(claim)
		if next == nil {
			return nil
		}
		switch a.kind {
		case accIndex:
			if next.State() == 0 {
				a.index.RestoreState(next, true)
				return nil
			}
		case accMethod:
			if !next.needState(0, 2) {
				return nil
			}
			if next.State() == 0 {
				a.call.restoreArgs(next)
				return nil
			}
		}
		pile = next
	}
	return pile
}

// Execute reads the variable and leaves a copy as the result
func (e *exprVar) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	v, _, ok := e.executeVar(pile, true, false)
	if !ok {
		return false
	}
	if v == nil {
		return pj.Return(pile)
	}
	if v.init == InitUndef && !isReference(v.typ.typ) {
		pile.SetError(ErrNotInit, &e.tok)
		return pj.Return(pile)
	}
	pile.SetCopyVar(v)
	return pj.Return(pile)
}

func (e *exprVar) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	if pile := pj.RestoreStack(e); pile != nil {
		e.restoreVar(pile)
	}
}

// compilePrimary compiles literals, parentheses, variables, calls, new and
// sizeof. It returns nil without an error when no operand starts here.
func compilePrimary(c *CStack) (Instr, TypeResult) {
	tok := c.tok()
	switch {
	case tok.IsType(IDOpenPar):
		c.cur.Next()
		inst, t := compileExpression(c)
		if inst == nil {
			if c.IsOk() {
				c.SetError(ErrNoExpression, nil)
			}
			return nil, t
		}
		if !c.cur.Accept(IDClosePar) {
			return c.fail(ErrClosePar, nil)
		}
		return inst, t
	case tok.Type == TokenTypNum || tok.Type == TokenTypDef:
		return compileLitNum(c)
	case tok.Type == TokenTypString:
		inst := &exprLitString{instrBase: instrBase{tok: *tok}, value: tok.Value}
		c.cur.Next()
		return inst, NewType(TypString)
	case tok.Type == TokenTypChar:
		inst := &exprLitChar{instrBase: instrBase{tok: *tok}, value: rune(tok.Def)}
		c.cur.Next()
		return inst, NewType(TypChar)
	case tok.IsType(IDTrue, IDFalse, IDNull, IDNan):
		inst := &exprLitConst{instrBase: instrBase{tok: *tok}, id: tok.ID}
		c.cur.Next()
		return inst, inst.typ()
	case tok.IsType(IDNew):
		inst, t := compileNew(c)
		if inst == nil {
			return nil, t
		}
		return compileChainAfter(c, inst, t)
	case tok.IsType(IDSizeof):
		return compileSizeof(c)
	case tok.IsType(IDThis, IDSuper) || tok.Type == TokenTypVar:
		if tok.Type == TokenTypVar && c.cur.Peek(1).IsType(IDOpenPar) {
			inst, t := compileCall(c)
			if inst == nil {
				return nil, t
			}
			return compileChainAfter(c, inst, t)
		}
		v, t := compileVarChain(c)
		if v == nil {
			return nil, t
		}
		if c.tok().IsType(IDInc, IDDec) {
			op := *c.tok()
			if !t.typ.IsNumeric() {
				return c.fail(ErrBadType1, &op)
			}
			c.cur.Next()
			return &exprPostInc{instrBase: instrBase{tok: op}, op: op.ID, v: v}, t
		}
		return v, t
	}
	return nil, TypeResult{}
}

// compileChainAfter wraps an expression in a chain when it is followed by
// accessors, as in new Point().x or f()[2]
func compileChainAfter(c *CStack, inst Instr, t TypeResult) (Instr, TypeResult) {
	if !c.tok().IsType(IDDot, IDOpenBrk) {
		return inst, t
	}
	v := &exprVar{instrBase: instrBase{tok: *inst.Token()}, base: baseExpr, expr: inst}
	t, ok := compileAccessors(c, v, t, false)
	if !ok {
		return nil, t
	}
	v.typ = t
	return v, t
}

// compileVarChain compiles a variable reference with its accessors.
// Members of the current class can be named without this.
func compileVarChain(c *CStack) (*exprVar, TypeResult) {
	tok := *c.tok()
	v := &exprVar{instrBase: instrBase{tok: tok}}
	var t TypeResult
	isSuper := false
	switch {
	case tok.IsType(IDThis):
		if c.class == nil {
			c.SetError(ErrUndefVar, &tok)
			return nil, ErrorType(ErrUndefVar)
		}
		v.name = "this"
		t = ClassType(TypPointer, c.class)
		c.cur.Next()
	case tok.IsType(IDSuper):
		if c.class == nil || c.class.parent == nil {
			c.SetError(ErrUndefVar, &tok)
			return nil, ErrorType(ErrUndefVar)
		}
		v.name = "this"
		t = ClassType(TypPointer, c.class.parent)
		isSuper = true
		c.cur.Next()
		if !c.tok().IsType(IDDot) {
			c.SetError(ErrBadType1, &tok)
			return nil, ErrorType(ErrBadType1)
		}
	case tok.Type == TokenTypVar:
		name := tok.Text
		if lt, ok := c.FindVar(name); ok {
			v.name = name
			t = lt
		} else if f, owner := c.class.lookupMember(name); f != nil {
			if !canAccess(f.access, owner, c.class) {
				c.SetError(ErrPrivate, &tok)
				return nil, ErrorType(ErrPrivate)
			}
			if f.static {
				v.base = baseStatic
				v.name = name
				v.class = owner
			} else {
				v.name = "this"
				v.chain = append(v.chain, &accessor{kind: accField, tok: tok, name: name, owner: owner})
			}
			t = f.typ
		} else if g := c.env.FindGlobal(name); g != nil {
			v.name = name
			t = g.typ
		} else {
			c.SetError(ErrUndefVar, &tok)
			return nil, ErrorType(ErrUndefVar)
		}
		c.cur.Next()
	default:
		return nil, TypeResult{}
	}
	t, ok := compileAccessors(c, v, t, isSuper)
	if !ok {
		return nil, t
	}
	v.typ = t
	return v, t
}

// lookupMember is lookupField that tolerates a nil class
func (c *Class) lookupMember(name string) (*classField, *Class) {
	if c == nil {
		return nil, nil
	}
	return c.lookupField(name)
}

// compileAccessors parses [index], .field and .method(args) suffixes
func compileAccessors(c *CStack, v *exprVar, t TypeResult, isSuper bool) (TypeResult, bool) {
	for {
		tok := *c.tok()
		switch {
		case tok.IsType(IDOpenBrk):
			if t.typ != TypArrayPointer {
				c.SetError(ErrBadType1, &tok)
				return ErrorType(ErrBadType1), false
			}
			c.cur.Next()
			idx, it := compileExpression(c)
			if idx == nil {
				if c.IsOk() {
					c.SetError(ErrBadIndex, nil)
				}
				return it, false
			}
			if !it.typ.IsInteger() {
				c.SetError(ErrBadIndex, &tok)
				return ErrorType(ErrBadIndex), false
			}
			if !c.cur.Accept(IDCloseBrk) {
				c.SetError(ErrCloseIndex, nil)
				return ErrorType(ErrCloseIndex), false
			}
			v.chain = append(v.chain, &accessor{kind: accIndex, tok: tok, index: idx})
			t = t.Elem()

		case tok.IsType(IDDot):
			c.cur.Next()
			nameTok := *c.tok()
			if nameTok.Type != TokenTypVar {
				c.SetError(ErrUndefItem, &nameTok)
				return ErrorType(ErrUndefItem), false
			}
			if !t.Eq(TypPointer) && !t.Eq(TypClass) || t.class == nil {
				c.SetError(ErrUndefItem, &nameTok)
				return ErrorType(ErrUndefItem), false
			}
			if c.cur.Peek(1).IsType(IDOpenPar) {
				c.cur.Next()
				call, rt := compileMethodCall(c, t.class, nameTok, isSuper)
				if call == nil {
					return rt, false
				}
				v.chain = append(v.chain, &accessor{kind: accMethod, tok: nameTok, name: nameTok.Text, call: call})
				t = rt
			} else {
				f, owner := t.class.lookupField(nameTok.Text)
				if f == nil {
					c.SetError(ErrUndefItem, &nameTok)
					return ErrorType(ErrUndefItem), false
				}
				if !canAccess(f.access, owner, c.class) {
					c.SetError(ErrPrivate, &nameTok)
					return ErrorType(ErrPrivate), false
				}
				c.cur.Next()
				v.chain = append(v.chain, &accessor{kind: accField, tok: nameTok, name: nameTok.Text, owner: owner, static: f.static})
				t = f.typ
			}
			isSuper = false

		default:
			return t, true
		}
	}
}
