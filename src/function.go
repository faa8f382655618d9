package cbot

import "strings"

// param is a declared function parameter. def is the default value, if any.
type param struct {
	name string
	typ  TypeResult
	def  Instr
	tok  Token
}

// Function is a script function or method, or a host method registered on a
// class. Host methods carry methodExec instead of a body.
type Function struct {
	name          string
	params        []param
	ret           TypeResult
	class         *Class
	prog          *Program
	access        Access
	public        bool
	extern        bool
	synchronized  bool
	freed         bool
	methodExec    MethodExec
	methodCompile MethodCompile
	body          Instr
	tok           Token
	headMark      int
	bodyMark      int
	lockOwner     *runData
	lockDepth     int
}

// Name returns the function name
func (f *Function) Name() string { return f.name }

// Class returns the owning class, nil for plain functions
func (f *Function) Class() *Class { return f.class }

// IsPublic reports whether other programs may call the function
func (f *Function) IsPublic() bool { return f.public }

// IsExtern reports whether the function is an entry point
func (f *Function) IsExtern() bool { return f.extern }

// Returns gives the declared return type
func (f *Function) Returns() TypeResult { return f.ret }

// Signature renders the function as name(type, type)
func (f *Function) Signature() string {
	name := f.name
	if f.class != nil {
		name = f.class.name + "::" + name
	}
	return signature(name, f.paramTypes())
}

func (f *Function) paramTypes() []TypeResult {
	out := make([]TypeResult, len(f.params))
	for i, p := range f.params {
		out[i] = p.typ
	}
	return out
}

// sameParams reports whether two functions have identical parameter types
func (f *Function) sameParams(o *Function) bool {
	if len(f.params) != len(o.params) {
		return false
	}
	for i := range f.params {
		if !f.params[i].typ.Equal(o.params[i].typ) {
			return false
		}
	}
	return true
}

// required returns the number of parameters without a default value
func (f *Function) required() int {
	n := 0
	for _, p := range f.params {
		if p.def == nil {
			n++
		}
	}
	return n
}

// acquire takes the lock of a synchronized function for the stack chain d
func (f *Function) acquire(d *runData) bool {
	if f.lockOwner != nil && f.lockOwner != d {
		return false
	}
	f.lockOwner = d
	f.lockDepth++
	return true
}

func (f *Function) releaseLock(d *runData) {
	if f.lockOwner != d {
		return
	}
	f.lockDepth--
	if f.lockDepth <= 0 {
		f.lockOwner = nil
		f.lockDepth = 0
	}
}

// execute runs a script function on a new activation frame above pj. The
// result is left in pj. It returns false while suspended or on error.
func (f *Function) execute(pj *Stack, args []*Var, this *Var, tok *Token) bool {
	pile := pj.addFunctionStack(f)
	if pile.StackOver() {
		pj.SetError(ErrStackOver, tok)
		return false
	}
	if pile.State() == 0 {
		if f.synchronized && !f.acquire(pile.data) {
			return false
		}
		if f.class != nil && this != nil {
			tv := NewVar("this", ClassType(TypPointer, f.class))
			tv.setRef(this.inst)
			tv.init = InitIsPointer
			pile.AddVar(tv)
		}
		for i, p := range f.params {
			v := NewVar(p.name, p.typ)
			if i < len(args) && args[i] != nil {
				v.Copy(args[i])
			}
			pile.AddVar(v)
		}
		pile.SetState(1)
	}
	if pile.IfStep() {
		return false
	}

	if f.body.Execute(pile) {
		pile.SetVar(nil)
		if f.ret.typ != TypVoid {
			pile.SetError(ErrNoRetVal, tok)
			return false
		}
	} else if !pile.GetRetVar(false) {
		return false
	}

	if f.ret.typ != TypVoid {
		r := pile.Var()
		if r == nil {
			pile.SetError(ErrNoRetVal, tok)
			return false
		}
		conv := NewVar("", f.ret)
		if code := storeValue(conv, r); code != ErrNone {
			conv.release()
			pile.SetError(code, tok)
			return false
		}
		pile.SetVar(conv)
	} else {
		pile.SetVar(nil)
	}
	if f.synchronized {
		f.releaseLock(pile.data)
	}
	return pj.Return(pile)
}

// call runs f, host or script, with evaluated arguments and leaves the
// result in pc
func (f *Function) call(pc *Stack, args []*Var, this *Var, tok *Token, ret TypeResult) bool {
	if f.freed {
		pc.SetError(ErrUndefFunc, tok)
		return false
	}
	if f.methodExec == nil {
		return f.execute(pc, args, this, tok)
	}
	list := makeList(args)
	res := NewVar("", ret)
	ok, code := f.methodExec(this, list, res, pc.UserPtr())
	releaseList(list)
	if code != ErrNone {
		res.release()
		pc.SetError(code, tok)
		return false
	}
	if !ok {
		res.release()
		return false
	}
	if ret.typ == TypVoid {
		res.release()
		res = nil
	}
	pc.SetVar(res)
	return true
}

// restore rebuilds the frames of a suspended activation above pj
func (f *Function) restore(pj *Stack) {
	pile := pj.RestoreStack(nil)
	if pile == nil {
		return
	}
	pile.fn = f
	pile.kind = BlockFunction
	if !pile.needState(0, 1) {
		return
	}
	if f.body != nil {
		f.body.RestoreState(pile, true)
	}
}

// resolveCall picks the overload with the lowest conversion cost for the
// argument types. Host methods with a compile callback accept or reject
// the call themselves.
func resolveCall(c *CStack, cands []*Function, this *Var, args []TypeResult) (*Function, TypeResult, ErrorCode) {
	if len(cands) == 0 {
		return nil, TypeResult{}, ErrUndefCall
	}
	var best *Function
	bestCost, ties := -1, 0
	arityOK := false
	hostErr := ErrNone
	for _, f := range cands {
		if f.methodCompile != nil {
			list := protoArgs(args)
			t := f.methodCompile(this, NewArgList(list), c.user())
			if t.IsError() {
				hostErr = t.Err()
				continue
			}
			return f, t, ErrNone
		}
		if len(args) < f.required() || len(args) > len(f.params) {
			continue
		}
		arityOK = true
		cost := 0
		for i, a := range args {
			k := paramCost(f.params[i].typ, a)
			if k < 0 {
				cost = -1
				break
			}
			cost += k
		}
		switch {
		case cost < 0:
		case best == nil || cost < bestCost:
			best, bestCost, ties = f, cost, 0
		case cost == bestCost:
			ties++
		}
	}
	if best != nil {
		if ties > 0 {
			return nil, TypeResult{}, ErrAmbiguousCall
		}
		return best, best.ret, ErrNone
	}
	if hostErr != ErrNone {
		return nil, TypeResult{}, hostErr
	}
	if len(cands) == 1 {
		f := cands[0]
		switch {
		case len(args) < f.required():
			return nil, TypeResult{}, ErrLowParam
		case len(args) > len(f.params):
			return nil, TypeResult{}, ErrOverParam
		}
		return nil, TypeResult{}, ErrBadParam
	}
	if !arityOK {
		return nil, TypeResult{}, ErrNbParam
	}
	return nil, TypeResult{}, ErrBadParam
}

// protoArgs builds placeholder values carrying argument types for host
// compile callbacks
func protoArgs(args []TypeResult) *Var {
	vars := make([]*Var, len(args))
	for i, t := range args {
		vars[i] = &Var{typ: t, init: InitDef}
	}
	var head, tail *Var
	for _, v := range vars {
		if head == nil {
			head = v
		} else {
			tail.next = v
		}
		tail = v
	}
	return head
}

// compileTypeName parses a type: a keyword, a class name, followed by any
// number of [] pairs. It returns false without an error when no type
// starts at the cursor.
func compileTypeName(c *CStack) (TypeResult, bool) {
	tok := c.tok()
	var t TypeResult
	switch {
	case tok.Type == TokenTypKeyWord:
		bt, ok := typeFromKeyword(tok.ID)
		if !ok {
			return TypeResult{}, false
		}
		t = NewType(bt)
	case tok.Type == TokenTypVar:
		cl := c.FindClass(tok.Text)
		if cl == nil {
			return TypeResult{}, false
		}
		if cl.IsIntrinsic() {
			t = ClassType(TypIntrinsic, cl)
		} else {
			t = ClassType(TypPointer, cl)
		}
	default:
		return TypeResult{}, false
	}
	c.cur.Next()
	for c.tok().IsType(IDOpenBrk) && c.cur.Peek(1).IsType(IDCloseBrk) {
		c.cur.Next()
		c.cur.Next()
		t = ArrayType(TypArrayPointer, t)
	}
	return t, true
}

// startsDeclaration reports whether the cursor is at "type name"
func startsDeclaration(c *CStack) bool {
	tok := c.tok()
	if tok.Type == TokenTypKeyWord {
		t, ok := typeFromKeyword(tok.ID)
		return ok && t != TypVoid
	}
	if tok.Type != TokenTypVar || c.FindClass(tok.Text) == nil {
		return false
	}
	next := c.cur.Peek(1)
	return next.Type == TokenTypVar || next.IsType(IDOpenBrk) && c.cur.Peek(2).IsType(IDCloseBrk)
}

// modifiers collected before a function, class or member
type modifiers struct {
	public       bool
	extern       bool
	synchronized bool
	static       bool
	access       Access
}

func parseModifiers(c *CStack) modifiers {
	var m modifiers
	for {
		switch tok := c.tok(); {
		case tok.IsType(IDPublic):
			m.public = true
			m.access = AccessPublic
		case tok.IsType(IDPrivate):
			m.access = AccessPrivate
		case tok.IsType(IDProtected):
			m.access = AccessProtected
		case tok.IsType(IDExtern):
			m.extern = true
		case tok.IsType(IDSynchronized):
			m.synchronized = true
		case tok.IsType(IDStatic):
			m.static = true
		default:
			return m
		}
		c.cur.Next()
	}
}

// compileFunctionHeader parses modifiers, return type, name and parameters,
// and skips the body, recording where it starts. Inside a class body, cls
// is the class; a plain function may name its class with Class::name.
func compileFunctionHeader(c *CStack, cls *Class) *Function {
	f := &Function{prog: c.prog, headMark: c.cur.Mark()}
	mods := parseModifiers(c)
	f.public = mods.public
	f.extern = mods.extern
	f.synchronized = mods.synchronized
	f.access = mods.access

	tok := *c.tok()
	switch {
	case cls != nil && tok.Type == TokenTypVar && tok.Text == cls.name && c.cur.Peek(1).IsType(IDOpenPar):
		f.ret = NewType(TypVoid)
	case cls != nil && tok.IsType(IDNot):
		f.ret = NewType(TypVoid)
	default:
		t, ok := compileTypeName(c)
		if !ok {
			c.SetError(ErrNoType, &tok)
			return nil
		}
		f.ret = t
	}

	f.tok = *c.tok()
	if c.tok().IsType(IDNot) {
		c.cur.Next()
		if cls == nil || c.tok().Type != TokenTypVar || c.tok().Text != cls.name {
			c.SetError(ErrNoFunc, nil)
			return nil
		}
		f.name = "~" + c.tok().Text
		c.cur.Next()
	} else {
		if c.tok().Type != TokenTypVar {
			c.SetError(ErrNoFunc, nil)
			return nil
		}
		if cls == nil && c.cur.Peek(1).IsType(IDDblColon) {
			cls = c.FindClass(c.tok().Text)
			if cls == nil {
				c.SetError(ErrUndefClass, nil)
				return nil
			}
			c.cur.Next()
			c.cur.Next()
			if c.tok().IsType(IDNot) {
				c.cur.Next()
				if c.tok().Text != cls.name {
					c.SetError(ErrNoFunc, nil)
					return nil
				}
				f.name = "~" + cls.name
			} else if c.tok().Type != TokenTypVar {
				c.SetError(ErrNoFunc, nil)
				return nil
			}
		}
		if f.name == "" {
			f.name = c.tok().Text
		}
		f.tok = *c.tok()
		c.cur.Next()
	}
	f.class = cls

	if cls != nil && (f.name == cls.name || f.name == "~"+cls.name) && f.ret.typ != TypVoid {
		c.SetError(ErrFuncNotVoid, &f.tok)
		return nil
	}
	if !compileParams(c, f) {
		return nil
	}
	if strings.HasPrefix(f.name, "~") && len(f.params) > 0 {
		c.SetError(ErrClosePar, &f.params[0].tok)
		return nil
	}

	if !c.tok().IsType(IDOpenBlock) {
		c.SetError(ErrOpenBlock, nil)
		return nil
	}
	f.bodyMark = c.cur.Mark()
	if !skipBlock(c) {
		return nil
	}
	return f
}

// compileParams parses "( type name [= default], ... )"
func compileParams(c *CStack, f *Function) bool {
	if !c.cur.Accept(IDOpenPar) {
		c.SetError(ErrOpenPar, nil)
		return false
	}
	if c.cur.Accept(IDClosePar) {
		return true
	}
	for {
		tok := *c.tok()
		if tok.IsType(IDVoid) {
			c.SetError(ErrVoid, &tok)
			return false
		}
		t, ok := compileTypeName(c)
		if !ok {
			c.SetError(ErrNoType, &tok)
			return false
		}
		nameTok := *c.tok()
		if nameTok.Type != TokenTypVar {
			c.SetError(ErrNoVar, &nameTok)
			return false
		}
		c.cur.Next()
		for _, p := range f.params {
			if p.name == nameTok.Text {
				c.SetError(ErrRedefVar, &nameTok)
				return false
			}
		}
		p := param{name: nameTok.Text, typ: t, tok: nameTok}
		if c.cur.Accept(IDAssign) {
			def, dt := compileTernary(c)
			if def == nil {
				if c.IsOk() {
					c.SetError(ErrNoExpression, nil)
				}
				return false
			}
			if !assignable(t, dt, constValue(def)) {
				c.SetError(ErrBadType1, &nameTok)
				return false
			}
			p.def = def
		} else if len(f.params) > 0 && f.params[len(f.params)-1].def != nil {
			c.SetError(ErrDefaultValue, &nameTok)
			return false
		}
		f.params = append(f.params, p)
		if c.cur.Accept(IDClosePar) {
			return true
		}
		if !c.cur.Accept(IDComma) {
			c.SetError(ErrClosePar, nil)
			return false
		}
	}
}

// skipBlock moves past a balanced { } block
func skipBlock(c *CStack) bool {
	depth := 0
	for !c.cur.AtEnd() {
		switch {
		case c.tok().IsType(IDOpenBlock):
			depth++
		case c.tok().IsType(IDCloseBlock):
			depth--
			if depth == 0 {
				c.cur.Next()
				return true
			}
		}
		c.cur.Next()
	}
	c.SetError(ErrCloseBlock, nil)
	return false
}

// compileBody compiles the body of f, declaring its parameters
func compileBody(c *CStack, f *Function) bool {
	c.fn = f
	c.class = f.class
	defer func() { c.fn = nil; c.class = nil }()
	c.scopes = nil
	c.loops = nil
	c.pushScope()
	for _, p := range f.params {
		c.AddVar(p.name, p.typ)
	}
	c.cur.Reset(f.bodyMark)
	body := compileBlock(c, false)
	if body == nil {
		return false
	}
	if f.ret.typ != TypVoid && !hasReturn(body) {
		c.SetError(ErrNoReturn, c.cur.Prev())
		return false
	}
	f.body = body
	c.popScope()
	return true
}
