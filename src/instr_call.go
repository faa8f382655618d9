package cbot

// user returns the host data given to compile callbacks
func (c *CStack) user() any {
	if c.prog != nil {
		return c.prog.user
	}
	return nil
}

// evalArgs evaluates arguments left to right, one frame each, chained above
// pile. Finished arguments keep their value, so a resumed call does not
// evaluate them again.
func evalArgs(pile *Stack, args []Instr) (*Stack, bool) {
	last := pile
	for _, a := range args {
		p := last.AddStack(nil)
		if p.State() == 0 {
			if !a.Execute(p) {
				return nil, false
			}
			p.SetState(1)
		}
		last = p
	}
	return last, true
}

// collectArgs returns the argument values left by evalArgs
func collectArgs(pile *Stack, n int) []*Var {
	out := make([]*Var, 0, n)
	p := pile
	for i := 0; i < n; i++ {
		p = p.next
		out = append(out, p.result)
	}
	return out
}

// restoreArgs mirrors evalArgs for restored frames and returns the frame
// of the last argument, or nil while an argument is unfinished
func restoreArgs(pile *Stack, args []Instr) *Stack {
	last := pile
	for _, a := range args {
		p := last.RestoreStack(nil)
		if p == nil {
			return nil
		}
		if p.State() == 0 {
			a.RestoreState(p, true)
			return nil
		}
		if !p.needVar() {
			return nil
		}
		last = p
	}
	return last
}

// compileArgs parses "( expr, ... )"
func compileArgs(c *CStack) ([]Instr, []TypeResult, bool) {
	if !c.cur.Accept(IDOpenPar) {
		c.SetError(ErrOpenPar, nil)
		return nil, nil, false
	}
	var args []Instr
	var types []TypeResult
	if c.cur.Accept(IDClosePar) {
		return args, types, true
	}
	for {
		a, t := compileExpression(c)
		if a == nil {
			if c.IsOk() {
				c.SetError(ErrNoExpression, nil)
			}
			return nil, nil, false
		}
		if t.typ == TypVoid {
			c.SetError(ErrVoid, a.Token())
			return nil, nil, false
		}
		args = append(args, a)
		types = append(types, t)
		if c.cur.Accept(IDClosePar) {
			return args, types, true
		}
		if !c.cur.Accept(IDComma) {
			c.SetError(ErrClosePar, nil)
			return nil, nil, false
		}
	}
}

// withDefaults appends the default values of omitted parameters
func withDefaults(f *Function, args []Instr) []Instr {
	for i := len(args); i < len(f.params); i++ {
		args = append(args, f.params[i].def)
	}
	return args
}

// callInstr calls a host function or a script function by name
type callInstr struct {
	instrBase
	name   string
	args   []Instr
	native *nativeFunc
	fn     *Function
	ret    TypeResult
}

func (e *callInstr) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	last, ok := evalArgs(pile, e.args)
	if !ok {
		return false
	}
	pc := last.AddStack(nil)
	if pc.IfStep() {
		return false
	}
	args := collectArgs(pile, len(e.args))

	if e.native != nil {
		list := makeList(args)
		res := NewVar("", e.ret)
		done, code := e.native.exec(list, res, pile.UserPtr())
		releaseList(list)
		if code != ErrNone {
			res.release()
			pile.SetError(code, &e.tok)
			return pj.Return(pile)
		}
		if !done {
			res.release()
			return false
		}
		if e.ret.typ == TypVoid {
			res.release()
			res = nil
		}
		pile.SetVar(res)
		return pj.Return(pile)
	}

	if !e.fn.call(pc, args, nil, &e.tok, e.ret) {
		return false
	}
	return pj.Return(pc)
}

func (e *callInstr) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile := pj.RestoreStack(e)
	if pile == nil {
		return
	}
	last := restoreArgs(pile, e.args)
	if last == nil || e.fn == nil {
		return
	}
	if pc := last.RestoreStack(nil); pc != nil {
		e.fn.restore(pc)
	}
}

// methodCall calls a method on the object reached by a variable chain.
// Unless called through super, the override of the dynamic class runs.
type methodCall struct {
	instrBase
	name  string
	args  []Instr
	fn    *Function
	ret   TypeResult
	super bool
}

// Execute is only reached through a variable chain
func (m *methodCall) Execute(pj *Stack) bool {
	pj.SetError(ErrNull, &m.tok)
	return false
}

// executeOn runs the call with this as the receiver. The result stays in
// pile, and later walks of the chain reuse it.
func (m *methodCall) executeOn(this *Var, pile *Stack) bool {
	if pile.State() == 2 {
		return true
	}
	last, ok := evalArgs(pile, m.args)
	if !ok {
		return false
	}
	pc := last.AddStack(nil)
	if pc.IfStep() {
		return false
	}
	if this == nil || this.inst == nil {
		pile.SetError(ErrNull, &m.tok)
		return false
	}
	if this.inst.deleted {
		pile.SetError(ErrDeletedPtr, &m.tok)
		return false
	}
	fn := m.fn
	if !m.super && this.inst.class != nil {
		fn = this.inst.class.override(fn)
	}
	args := collectArgs(pile, len(m.args))
	if !fn.call(pc, args, this, &m.tok, m.ret) {
		return false
	}
	pile.Return(pc)
	pile.SetState(2)
	return true
}

func (m *methodCall) RestoreState(pj *Stack, main bool) {
	if main {
		if pile := pj.RestoreStack(m); pile != nil {
			m.restoreArgs(pile)
		}
	}
}

func (m *methodCall) restoreArgs(pile *Stack) {
	last := restoreArgs(pile, m.args)
	if last == nil {
		return
	}
	if pc := last.RestoreStack(nil); pc != nil {
		m.fn.restore(pc)
	}
}

// compileCall compiles name(args). Host functions are found first, then
// methods of the current class, then functions of the program and last
// public functions of other programs.
func compileCall(c *CStack) (Instr, TypeResult) {
	tok := *c.tok()
	name := tok.Text

	if nf := c.env.native(name); nf != nil {
		c.cur.Next()
		args, types, ok := compileArgs(c)
		if !ok {
			return nil, ErrorType(ErrNoExpression)
		}
		t := NewType(TypVoid)
		if nf.compile != nil {
			al := NewArgList(protoArgs(types))
			t = nf.compile(al, c.user())
			if !t.IsError() && !al.Empty() {
				t = ErrorType(ErrOverParam)
			}
		}
		if t.IsError() {
			return c.fail(t.Err(), &tok)
		}
		return &callInstr{instrBase: instrBase{tok: tok}, name: name, args: args, native: nf, ret: t}, t
	}

	if c.class != nil && len(c.class.methodsNamed(name)) > 0 {
		v := &exprVar{instrBase: instrBase{tok: tok}, name: "this"}
		c.cur.Next()
		call, t := compileMethodCall(c, c.class, tok, false)
		if call == nil {
			return nil, t
		}
		v.chain = append(v.chain, &accessor{kind: accMethod, tok: tok, name: name, call: call})
		v.typ = t
		return v, t
	}

	c.cur.Next()
	args, types, ok := compileArgs(c)
	if !ok {
		return nil, ErrorType(ErrNoExpression)
	}
	var local []*Function
	if c.prog != nil {
		local = c.prog.functionsNamed(name)
	}
	fn, t, code := resolveCall(c, local, nil, types)
	if code != ErrNone {
		pub, pt, pcode := resolveCall(c, c.env.publicFunctions(name, c.prog), nil, types)
		if pcode == ErrNone {
			fn, t, code = pub, pt, ErrNone
		} else if code == ErrUndefCall {
			code = pcode
		}
	}
	if code != ErrNone {
		return c.fail(code, &tok)
	}
	return &callInstr{instrBase: instrBase{tok: tok}, name: name, args: withDefaults(fn, args), fn: fn, ret: t}, t
}

// compileMethodCall compiles the argument list and resolves the overload
// of a method of cls. The cursor is at the opening parenthesis.
func compileMethodCall(c *CStack, cls *Class, nameTok Token, isSuper bool) (*methodCall, TypeResult) {
	args, types, ok := compileArgs(c)
	if !ok {
		return nil, ErrorType(ErrNoExpression)
	}
	all := cls.methodsNamed(nameTok.Text)
	var cands []*Function
	for _, m := range all {
		if canAccess(m.access, m.class, c.class) {
			cands = append(cands, m)
		}
	}
	if len(all) > 0 && len(cands) == 0 {
		c.SetError(ErrPrivate, &nameTok)
		return nil, ErrorType(ErrPrivate)
	}
	proto := &Var{typ: ClassType(TypPointer, cls), init: InitDef}
	fn, t, code := resolveCall(c, cands, proto, types)
	if code != ErrNone {
		c.SetError(code, &nameTok)
		return nil, ErrorType(code)
	}
	return &methodCall{instrBase: instrBase{tok: nameTok}, name: nameTok.Text, args: withDefaults(fn, args), fn: fn, ret: t, super: isSuper}, t
}

// newInstr creates an instance and runs its constructor
type newInstr struct {
	instrBase
	class *Class
	args  []Instr
	ctor  *Function
}

func (e *newInstr) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	if pile.State() == 0 {
		if pile.IfStep() {
			return false
		}
		v := NewVar("", ClassType(TypPointer, e.class))
		v.SetInstance(newObject(e.class, pile.UserPtr()))
		pile.SetVar(v)
		pile.SetState(1)
	}
	this := pile.Var()
	if e.ctor != nil {
		last, ok := evalArgs(pile, e.args)
		if !ok {
			return false
		}
		pc := last.AddStack(nil)
		if pc.IfStep() {
			return false
		}
		if !e.ctor.call(pc, collectArgs(pile, len(e.args)), this, &e.tok, NewType(TypVoid)) {
			return false
		}
	}
	if pile.next != nil {
		pile.next.Delete()
	}
	this.inst.constructed = true
	return pj.Return(pile)
}

func (e *newInstr) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile := pj.RestoreStack(e)
	if pile == nil || pile.State() == 0 {
		return
	}
	if !pile.needVar() || pile.Var().inst == nil {
		pile.restoreFailed("new %s lost its instance", e.class.Name())
		return
	}
	if e.ctor == nil {
		return
	}
	last := restoreArgs(pile, e.args)
	if last == nil {
		return
	}
	if pc := last.RestoreStack(nil); pc != nil {
		e.ctor.restore(pc)
	}
}

// compileNew compiles "new Class" or "new Class(args)"
func compileNew(c *CStack) (Instr, TypeResult) {
	tok := *c.tok()
	c.cur.Next()
	nameTok := *c.tok()
	if nameTok.Type != TokenTypVar {
		return c.fail(ErrBadNew, &nameTok)
	}
	cls := c.FindClass(nameTok.Text)
	if cls == nil {
		return c.fail(ErrBadNew, &nameTok)
	}
	c.cur.Next()
	inst, code := compileConstruction(c, cls, tok)
	if code != ErrNone {
		return c.fail(code, &nameTok)
	}
	return inst, ClassType(TypPointer, cls)
}

// compileConstruction parses optional constructor arguments at the cursor
// and picks the constructor
func compileConstruction(c *CStack, cls *Class, tok Token) (*newInstr, ErrorCode) {
	var args []Instr
	var types []TypeResult
	if c.tok().IsType(IDOpenPar) {
		var ok bool
		args, types, ok = compileArgs(c)
		if !ok {
			return nil, ErrNoExpression
		}
	}
	n := &newInstr{instrBase: instrBase{tok: tok}, class: cls}
	ctors := cls.constructors()
	if len(ctors) == 0 {
		if len(args) > 0 {
			return nil, ErrNoConstruct
		}
		return n, ErrNone
	}
	proto := &Var{typ: ClassType(TypPointer, cls), init: InitDef}
	fn, _, code := resolveCall(c, ctors, proto, types)
	if code == ErrUndefCall {
		code = ErrNoConstruct
	}
	if code != ErrNone {
		return nil, code
	}
	if !canAccess(fn.access, cls, c.class) {
		return nil, ErrPrivate
	}
	n.ctor = fn
	n.args = withDefaults(fn, args)
	return n, ErrNone
}

// exprSizeof gives the number of allocated elements of an array
type exprSizeof struct {
	instrBase
	arg Instr
}

func (e *exprSizeof) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	if pile.State() == 0 {
		if !e.arg.Execute(pile) {
			return false
		}
		pile.SetState(1)
	}
	if pile.AddStack(nil).IfStep() {
		return false
	}
	n := 0
	if v := pile.Var(); v != nil {
		n = v.ArraySize()
	}
	res := newDefinedVar("", NewType(TypInt))
	res.ival = int64(n)
	pile.SetVar(res)
	return pj.Return(pile)
}

func (e *exprSizeof) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile := pj.RestoreStack(e)
	if pile != nil && pile.needState(0, 1) && pile.State() == 0 {
		e.arg.RestoreState(pile, true)
	}
}

func compileSizeof(c *CStack) (Instr, TypeResult) {
	tok := *c.tok()
	c.cur.Next()
	args, types, ok := compileArgs(c)
	if !ok {
		return nil, ErrorType(ErrNoExpression)
	}
	switch {
	case len(args) == 0:
		return c.fail(ErrLowParam, &tok)
	case len(args) > 1:
		return c.fail(ErrOverParam, &tok)
	case types[0].typ != TypArrayPointer:
		return c.fail(ErrBadParam, &tok)
	}
	return &exprSizeof{instrBase: instrBase{tok: tok}, arg: args[0]}, NewType(TypInt)
}
