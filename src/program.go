package cbot

// Program is one compiled script: its functions and classes, and the stack
// of the routine started from it
type Program struct {
	env       *Environment
	name      string
	source    string
	functions []*Function
	classes   []*Class
	externs   []string
	entry     *Function
	stack     *Stack
	errCode   ErrorCode
	errStart  int
	errEnd    int
	errFunc   string
	user      any
	result    *Var
	funcMarks []int
}

// Name returns the program name used in diagnostics
func (p *Program) Name() string { return p.name }

// Source returns the last compiled source text
func (p *Program) Source() string { return p.source }

// Environment returns the owning environment
func (p *Program) Environment() *Environment { return p.env }

// Functions returns the functions and methods declared by the program
func (p *Program) Functions() []*Function { return p.functions }

// Classes returns the classes declared by the program
func (p *Program) Classes() []*Class { return p.classes }

// Externs returns the names of the extern functions, in declaration order
func (p *Program) Externs() []string { return p.externs }

// IsRunning reports whether a started routine has not finished yet
func (p *Program) IsRunning() bool { return p.stack != nil }

// Entry returns the name of the function the routine was started with
func (p *Program) Entry() string {
	if p.entry == nil {
		return ""
	}
	return p.entry.name
}

// Result returns the value returned by the last finished routine
func (p *Program) Result() *Var { return p.result }

// Compile compiles source, replacing anything compiled before. It returns
// the names of the extern functions. user is passed to host compile
// callbacks.
func (p *Program) Compile(source string, user any) ([]string, error) {
	p.Stop()
	p.freeCompiled()
	p.source = source
	p.user = user
	p.errCode, p.errStart, p.errEnd, p.errFunc = ErrNone, 0, 0, ""

	log := p.env.logger
	log.DebugCat(CatCompile, "compiling %s", p.name)

	tokens, lexErr := Tokenize(source, p.env.defineTable())
	if lexErr != nil {
		return nil, p.compileFailed(lexErr)
	}
	c := newCStack(p.env, p, NewCursor(tokens))
	if !p.declare(c) || !p.compileHeaders(c) || !p.compileBodies(c) {
		return nil, p.compileFailed(c.Err())
	}
	p.initStatics()

	for _, f := range p.functions {
		if f.extern && f.class == nil {
			p.externs = append(p.externs, f.name)
		}
	}
	log.DebugCat(CatCompile, "%s: %d functions, %d classes", p.name, len(p.functions), len(p.classes))
	return p.externs, nil
}

func (p *Program) compileFailed(err *CBotError) error {
	p.freeCompiled()
	err.Position = PositionAt(p.source, p.name, err.Start, err.End)
	p.errCode, p.errStart, p.errEnd, p.errFunc = err.Code, err.Start, err.End, err.Function
	p.env.logger.DebugCat(CatCompile, "%s", err.Error())
	return err
}

// declare registers the classes of the program and records where each
// function starts, so that bodies may refer to anything declared later
func (p *Program) declare(c *CStack) bool {
	for !c.cur.AtEnd() {
		mark := c.cur.Mark()
		mods := parseModifiers(c)
		if c.cur.Accept(IDClass) {
			tok := *c.tok()
			if tok.Type != TokenTypVar {
				c.SetError(ErrNoClassName, &tok)
				return false
			}
			cl := &Class{name: tok.Text, env: p.env, prog: p, public: mods.public, tok: tok, bodyMark: c.cur.Mark()}
			if !p.env.addClass(cl) {
				c.SetError(ErrRedefClass, &tok)
				return false
			}
			p.classes = append(p.classes, cl)
			p.env.logger.DebugCat(CatClass, "declared class %s", cl.name)
		} else {
			p.funcMarks = append(p.funcMarks, mark)
		}
		for !c.tok().IsType(IDOpenBlock) {
			if c.cur.AtEnd() {
				c.SetError(ErrOpenBlock, nil)
				return false
			}
			c.cur.Next()
		}
		if !skipBlock(c) {
			return false
		}
	}
	return true
}

// compileHeaders resolves superclasses, class members and function
// signatures
func (p *Program) compileHeaders(c *CStack) bool {
	for _, cl := range p.classes {
		c.cur.Reset(cl.bodyMark)
		c.cur.Next()
		if !c.cur.Accept(IDExtends) {
			continue
		}
		tok := *c.tok()
		parent := c.FindClass(tok.Text)
		if tok.Type != TokenTypVar || parent == nil || parent == cl || parent.IsChildOf(cl) {
			c.SetError(ErrNoClassName, &tok)
			return false
		}
		cl.parent = parent
	}
	for _, cl := range p.classes {
		if !p.compileMembers(c, cl) {
			return false
		}
	}
	for _, mark := range p.funcMarks {
		c.cur.Reset(mark)
		f := compileFunctionHeader(c, nil)
		if f == nil {
			return false
		}
		if !p.addFunction(c, f) {
			return false
		}
	}
	return true
}

// compileMembers parses the body of a class declaration
func (p *Program) compileMembers(c *CStack, cl *Class) bool {
	c.cur.Reset(cl.bodyMark)
	for !c.tok().IsType(IDOpenBlock) {
		c.cur.Next()
	}
	c.cur.Next()
	c.class = cl
	defer func() { c.class = nil }()

	for !c.cur.Accept(IDCloseBlock) {
		if c.cur.AtEnd() {
			c.SetError(ErrCloseBlock, nil)
			return false
		}
		mark := c.cur.Mark()
		mods := parseModifiers(c)
		tok := *c.tok()
		method := tok.IsType(IDNot) ||
			tok.Type == TokenTypVar && tok.Text == cl.name && c.cur.Peek(1).IsType(IDOpenPar)
		var typ TypeResult
		if !method {
			var ok bool
			if typ, ok = compileTypeName(c); !ok {
				c.SetError(ErrNoType, &tok)
				return false
			}
			method = c.tok().Type == TokenTypVar && c.cur.Peek(1).IsType(IDOpenPar)
		}
		if method {
			c.cur.Reset(mark)
			f := compileFunctionHeader(c, cl)
			if f == nil || !p.addFunction(c, f) {
				return false
			}
			continue
		}
		if !p.compileFields(c, cl, typ, mods) {
			return false
		}
	}
	return true
}

// compileFields declares "name [dims] [= init], ..." ending with ";".
// Initializers are compiled once every member is known.
func (p *Program) compileFields(c *CStack, cl *Class, base TypeResult, mods modifiers) bool {
	for {
		nameTok := *c.tok()
		if nameTok.Type != TokenTypVar {
			c.SetError(ErrNoVar, &nameTok)
			return false
		}
		c.cur.Next()
		typ, sized, dims, ok := compileArrayDims(c, base)
		if !ok {
			return false
		}
		if len(sized) > 0 {
			vals := make([]*Var, 0, len(dims))
			for _, d := range dims {
				k := constValue(d)
				if !k.ok {
					c.SetError(ErrBadIndex, d.Token())
					return false
				}
				v := NewVar("", NewType(TypInt))
				v.SetValInt(k.val)
				vals = append(vals, v)
			}
			typ, ok = withLimits(typ, sized, vals)
			if !ok {
				c.SetError(ErrBadIndex, &nameTok)
				return false
			}
		}
		f := &classField{name: nameTok.Text, typ: typ, access: mods.access, static: mods.static, tok: nameTok}
		if c.cur.Accept(IDAssign) {
			f.mark = c.cur.Mark()
			if !skipInitializer(c) {
				return false
			}
		}
		if !cl.addField(f) {
			c.SetError(ErrRedefVar, &nameTok)
			return false
		}
		if c.cur.Accept(IDSep) {
			return true
		}
		if !c.cur.Accept(IDComma) {
			c.SetError(ErrNoTerminator, nil)
			return false
		}
	}
}

// skipInitializer moves to the "," or ";" that ends a field initializer
func skipInitializer(c *CStack) bool {
	depth := 0
	for !c.cur.AtEnd() {
		tok := c.tok()
		switch {
		case tok.IsType(IDOpenPar, IDOpenBlock, IDOpenBrk):
			depth++
		case tok.IsType(IDClosePar, IDCloseBlock, IDCloseBrk):
			if depth == 0 {
				c.SetError(ErrNoTerminator, nil)
				return false
			}
			depth--
		case depth == 0 && tok.IsType(IDComma, IDSep):
			return true
		}
		c.cur.Next()
	}
	c.SetError(ErrNoTerminator, nil)
	return false
}

// addFunction records a compiled header, rejecting a second definition with
// the same parameter types
func (p *Program) addFunction(c *CStack, f *Function) bool {
	var others []*Function
	if f.class != nil {
		others = f.class.methods
	} else {
		if p.env.HasFunction(f.name) {
			c.SetError(ErrRedefFunc, &f.tok)
			return false
		}
		others = p.functions
	}
	for _, o := range others {
		if o.name == f.name && o.class == f.class && !o.freed && o.sameParams(f) {
			c.SetError(ErrRedefFunc, &f.tok)
			return false
		}
	}
	if f.class != nil {
		f.class.methods = append(f.class.methods, f)
	}
	p.functions = append(p.functions, f)
	return true
}

// compileBodies compiles field initializers, then every function body
func (p *Program) compileBodies(c *CStack) bool {
	for _, cl := range p.classes {
		c.class = cl
		for _, f := range cl.fields {
			if f.mark <= 0 {
				continue
			}
			c.scopes = nil
			c.cur.Reset(f.mark)
			var init Instr
			if c.tok().IsType(IDOpenBlock) {
				init = compileList(c, f.typ)
			} else {
				start := *c.tok()
				var t TypeResult
				init, t = compileExpression(c)
				if init != nil && !assignable(f.typ, t, constValue(init)) {
					c.SetError(ErrBadType1, &start)
					init = nil
				}
			}
			if init == nil {
				if c.IsOk() {
					c.SetError(ErrNoExpression, nil)
				}
				c.class = nil
				return false
			}
			f.init = init
		}
		c.class = nil
	}
	for _, f := range p.functions {
		if f.methodExec != nil {
			continue
		}
		if !compileBody(c, f) {
			return false
		}
	}
	return true
}

// initStatics evaluates the initializers of static fields
func (p *Program) initStatics() {
	for _, cl := range p.classes {
		for _, f := range cl.fields {
			if !f.static || f.init == nil {
				continue
			}
			dst := cl.Static(f.name)
			v := p.env.evaluate(f.init)
			if dst == nil || v == nil {
				continue
			}
			if code := storeValue(dst, v); code != ErrNone {
				p.env.logger.DebugCat(CatClass, "static %s::%s: %s", cl.name, f.name, code)
			}
			v.release()
		}
	}
}

// freeCompiled drops the classes and functions of the last compilation
func (p *Program) freeCompiled() {
	for _, cl := range p.classes {
		p.env.removeClass(cl)
		releaseVars(cl.statics)
		cl.statics = nil
	}
	for _, cl := range p.env.Classes() {
		cl.freeProgram(p)
	}
	for _, f := range p.functions {
		f.freed = true
	}
	p.functions, p.classes, p.externs, p.funcMarks = nil, nil, nil, nil
	p.entry = nil
}

// findClass looks up a class declared by the program
func (p *Program) findClass(name string) *Class {
	for _, cl := range p.classes {
		if cl.name == name {
			return cl
		}
	}
	return nil
}

// functionsNamed returns the plain functions of the program named name
func (p *Program) functionsNamed(name string) []*Function {
	var out []*Function
	for _, f := range p.functions {
		if f.class == nil && f.name == name && !f.freed {
			out = append(out, f)
		}
	}
	return out
}

// findEntry returns the extern function name
func (p *Program) findEntry(name string) *Function {
	for _, f := range p.functions {
		if f.extern && f.class == nil && f.name == name && !f.freed {
			return f
		}
	}
	return nil
}

// Start prepares the extern function name to run. The previous run, if
// any, is stopped.
func (p *Program) Start(name string) error {
	p.Stop()
	p.errCode, p.errStart, p.errEnd, p.errFunc = ErrNone, 0, 0, ""
	if p.result != nil {
		p.result.release()
		p.result = nil
	}
	f := p.findEntry(name)
	if f == nil {
		p.errCode = ErrNoRun
		return newError(ErrNoRun, 0, 0)
	}
	p.entry = f
	timer := p.env.config.InitTimer
	p.stack = newRootStack(&runData{env: p.env, prog: p, initTimer: timer, timer: timer})
	p.env.logger.DebugCat(CatRun, "%s: started %s", p.name, name)
	return nil
}

// Run executes one tick of the started routine. A timer >= 0 replaces the
// instruction budget; a budget <= 0 executes a single step per tick. Run
// returns true once the routine has finished, normally or with an error.
func (p *Program) Run(user any, timer int) bool {
	if p.stack == nil {
		p.errCode = ErrNoRun
		return true
	}
	data := p.stack.data
	if timer >= 0 {
		data.initTimer = timer
	}
	data.timer = data.initTimer
	data.user = user

	if !p.entry.execute(p.stack, nil, nil, nil) && p.stack.IsOk() {
		return false
	}
	p.finish()
	return true
}

// finish records the outcome of the routine and drops its stack
func (p *Program) finish() {
	data := p.stack.data
	if !p.stack.IsOk() {
		p.errCode = data.err
		p.errStart, p.errEnd = data.errStart, data.errEnd
		p.errFunc = data.errFunc
		p.env.logger.DebugCat(CatRun, "%s", p.Error().Error())
	} else {
		p.result = p.stack.result
		p.stack.result = nil
		p.env.logger.DebugCat(CatRun, "%s: %s finished", p.name, p.entry.name)
	}
	p.env.releaseLocks(data)
	p.stack.Delete()
	p.stack = nil
}

// Stop abandons the running routine
func (p *Program) Stop() {
	if p.stack == nil {
		return
	}
	p.env.releaseLocks(p.stack.data)
	p.stack.Delete()
	p.stack = nil
}

// GetError returns the error that ended the last run or compilation, with
// its byte range in the source
func (p *Program) GetError() (ErrorCode, int, int) {
	return p.errCode, p.errStart, p.errEnd
}

// Error returns the last error as a CBotError, or nil
func (p *Program) Error() *CBotError {
	if p.errCode == ErrNone {
		return nil
	}
	err := newError(p.errCode, p.errStart, p.errEnd)
	err.Function = p.errFunc
	if p.errCode.IsRuntime() || p.errCode.IsCompile() {
		err.Position = PositionAt(p.source, p.name, p.errStart, p.errEnd)
	}
	return err
}

// GetRunPos returns the function and source range of the instruction the
// routine is suspended in
func (p *Program) GetRunPos() (string, int, int) {
	if p.stack == nil {
		return "", -1, -1
	}
	for s := p.stack.deepest(); s != nil; s = s.prev {
		if s.instr != nil {
			tok := s.instr.Token()
			return s.functionName(), tok.Start, tok.End
		}
	}
	return "", -1, -1
}

// GetStackVars returns the variables of a suspended function activation and
// its name. Level 0 is the innermost function, 1 its caller and so on.
func (p *Program) GetStackVars(level int) ([]*Var, string) {
	if p.stack == nil || level < 0 {
		return nil, ""
	}
	var vars []*Var
	for s := p.stack.deepest(); s != nil; s = s.prev {
		if level == 0 {
			vars = append(vars, s.vars...)
		}
		if s.kind != BlockFunction {
			continue
		}
		if level == 0 {
			name := ""
			if s.fn != nil {
				name = s.fn.name
			}
			return vars, name
		}
		level--
	}
	return nil, ""
}

// Free stops the program and removes it from its environment
func (p *Program) Free() {
	p.Stop()
	p.freeCompiled()
	if p.result != nil {
		p.result.release()
		p.result = nil
	}
	p.env.removeProgram(p)
}
