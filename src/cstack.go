package cbot

// Instr is a compiled instruction node. Execute runs the node on the frame
// chain above pj and returns false while the node is unfinished (suspended
// or failed). RestoreState rebuilds the link between restored frames and the
// nodes that own them.
type Instr interface {
	Execute(pj *Stack) bool
	RestoreState(pj *Stack, main bool)
	Token() *Token
}

// instrBase carries the token that started a node
type instrBase struct {
	tok Token
}

// Token returns the originating token
func (b *instrBase) Token() *Token { return &b.tok }

// localVar is a variable known to the compiler
type localVar struct {
	name string
	typ  TypeResult
}

// loopLabel tracks an enclosing construct that accepts break or continue
type loopLabel struct {
	label  string
	isLoop bool
}

// CStack is the compile context: token cursor, first error, visible
// variables, enclosing loops, and the class and function being compiled.
type CStack struct {
	env    *Environment
	prog   *Program
	cur    *Cursor
	err    *CBotError
	class  *Class
	fn     *Function
	scopes [][]localVar
	loops  []loopLabel
}

func newCStack(env *Environment, prog *Program, cur *Cursor) *CStack {
	return &CStack{env: env, prog: prog, cur: cur}
}

// IsOk reports whether no compile error has been recorded
func (c *CStack) IsOk() bool { return c.err == nil }

// Err returns the first recorded error
func (c *CStack) Err() *CBotError { return c.err }

// SetError records an error at tok unless one is already recorded
func (c *CStack) SetError(code ErrorCode, tok *Token) {
	if tok == nil {
		tok = c.cur.Tok()
	}
	c.SetErrorAt(code, tok.Start, tok.End)
}

// SetErrorAt records an error for a byte range unless one is already recorded
func (c *CStack) SetErrorAt(code ErrorCode, start, end int) {
	if c.err != nil {
		return
	}
	c.err = newError(code, start, end)
	if c.fn != nil {
		c.err.Function = c.fn.name
	}
}

// fail records an error and returns nil for the caller to propagate
func (c *CStack) fail(code ErrorCode, tok *Token) (Instr, TypeResult) {
	c.SetError(code, tok)
	return nil, ErrorType(code)
}

func (c *CStack) pushScope() {
	c.scopes = append(c.scopes, nil)
}

func (c *CStack) popScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

// AddVar declares a variable in the innermost scope
func (c *CStack) AddVar(name string, typ TypeResult) {
	if len(c.scopes) == 0 {
		c.pushScope()
	}
	i := len(c.scopes) - 1
	c.scopes[i] = append(c.scopes[i], localVar{name: name, typ: typ})
}

// CheckVarLocal reports whether name is declared in the innermost scope
func (c *CStack) CheckVarLocal(name string) bool {
	if len(c.scopes) == 0 {
		return false
	}
	for _, v := range c.scopes[len(c.scopes)-1] {
		if v.name == name {
			return true
		}
	}
	return false
}

// FindVar looks up a visible local
func (c *CStack) FindVar(name string) (TypeResult, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		sc := c.scopes[i]
		for j := len(sc) - 1; j >= 0; j-- {
			if sc[j].name == name {
				return sc[j].typ, true
			}
		}
	}
	return TypeResult{}, false
}

func (c *CStack) pushLoop(label string, isLoop bool) {
	c.loops = append(c.loops, loopLabel{label: label, isLoop: isLoop})
}

func (c *CStack) popLoop() {
	c.loops = c.loops[:len(c.loops)-1]
}

// checkBreak validates break/continue against the enclosing constructs
func (c *CStack) checkBreak(label string, isContinue bool, tok *Token) bool {
	for i := len(c.loops) - 1; i >= 0; i-- {
		l := c.loops[i]
		if isContinue && !l.isLoop {
			continue
		}
		if label == "" || l.label == label {
			return true
		}
	}
	if label != "" {
		c.SetError(ErrUndefLabel, tok)
	} else {
		c.SetError(ErrBreakOutside, tok)
	}
	return false
}

// FindClass resolves a class name from the program first, then the
// environment
func (c *CStack) FindClass(name string) *Class {
	if c.prog != nil {
		if cl := c.prog.findClass(name); cl != nil {
			return cl
		}
	}
	return c.env.FindClass(name)
}

// tok returns the current token
func (c *CStack) tok() *Token { return c.cur.Tok() }
