package cbot

// MethodExec runs a host method. this is the object the method was called on.
type MethodExec func(this *Var, args *Var, result *Var, user any) (bool, ErrorCode)

// MethodCompile type checks a call to a host method
type MethodCompile func(this *Var, args *ArgList, user any) TypeResult

// UpdateFunc is called whenever an instance of a class is created or restored
type UpdateFunc func(this *Var, user any)

// classField describes a field of a class
type classField struct {
	name   string
	typ    TypeResult
	access Access
	static bool
	init   Instr
	tok    Token
	mark   int
}

// Class is a registered class: host classes come from the embedding
// application, script classes from compiled programs.
type Class struct {
	name      string
	parent    *Class
	env       *Environment
	prog      *Program
	fields    []*classField
	statics   []*Var
	methods   []*Function
	intrinsic bool
	public    bool
	update    UpdateFunc
	tok       Token
	bodyMark  int
}

// Name returns the class name
func (c *Class) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Parent returns the superclass, or nil
func (c *Class) Parent() *Class { return c.parent }

// IsIntrinsic reports whether instances are copied instead of shared
func (c *Class) IsIntrinsic() bool { return c != nil && c.intrinsic }

// Program returns the declaring program, nil for host classes
func (c *Class) Program() *Program { return c.prog }

// IsChildOf reports whether c is parent or one of its subclasses.
// A nil class only matches nil.
func (c *Class) IsChildOf(parent *Class) bool {
	if c == nil || parent == nil {
		return c == parent
	}
	for p := c; p != nil; p = p.parent {
		if p == parent {
			return true
		}
	}
	return false
}

// distanceTo counts inheritance hops from c up to parent
func (c *Class) distanceTo(parent *Class) int {
	n := 0
	for p := c; p != nil; p = p.parent {
		if p == parent {
			return n
		}
		n++
	}
	return n
}

// SetUpdateFunc installs the creation and restore hook
func (c *Class) SetUpdateFunc(fn UpdateFunc) {
	c.update = fn
}

// AddItem adds a field with a zero value. Returns false when the name is taken.
func (c *Class) AddItem(name string, typ TypeResult, access Access) bool {
	return c.addField(&classField{name: name, typ: typ, access: access})
}

// AddStaticItem adds a static field shared by every instance
func (c *Class) AddStaticItem(name string, typ TypeResult, access Access) bool {
	return c.addField(&classField{name: name, typ: typ, access: access, static: true})
}

func (c *Class) addField(f *classField) bool {
	if c.findField(f.name) != nil {
		return false
	}
	c.fields = append(c.fields, f)
	if f.static {
		v := newDefinedVar(f.name, f.typ)
		v.static = true
		v.access = f.access
		c.statics = append(c.statics, v)
	}
	return true
}

// AddFunction registers a host method on the class
func (c *Class) AddFunction(name string, exec MethodExec, compile MethodCompile) {
	c.methods = append(c.methods, &Function{
		name:          name,
		class:         c,
		methodExec:    exec,
		methodCompile: compile,
		public:        true,
	})
	if c.env != nil {
		c.env.logger.DebugCat(CatClass, "registered method %s::%s", c.name, name)
	}
}

// findField looks up a field declared in this class only
func (c *Class) findField(name string) *classField {
	for _, f := range c.fields {
		if f.name == name {
			return f
		}
	}
	return nil
}

// lookupField searches c and its parents and returns the declaring class
func (c *Class) lookupField(name string) (*classField, *Class) {
	for p := c; p != nil; p = p.parent {
		if f := p.findField(name); f != nil {
			return f, p
		}
	}
	return nil, nil
}

// Static returns the storage of a static field, searching parents
func (c *Class) Static(name string) *Var {
	for p := c; p != nil; p = p.parent {
		for _, v := range p.statics {
			if v.name == name {
				return v
			}
		}
	}
	return nil
}

// Statics returns the static fields declared by this class
func (c *Class) Statics() []*Var { return c.statics }

// methodsNamed collects methods named name visible from c, most derived
// first. A parent method overridden with the same parameters is hidden.
func (c *Class) methodsNamed(name string) []*Function {
	var out []*Function
	for p := c; p != nil; p = p.parent {
	next:
		for _, m := range p.methods {
			if m.name != name || m.freed {
				continue
			}
			for _, o := range out {
				if o.class != p && o.sameParams(m) {
					continue next
				}
			}
			out = append(out, m)
		}
	}
	return out
}

// override finds the implementation of fn for the dynamic class c
func (c *Class) override(fn *Function) *Function {
	for p := c; p != nil; p = p.parent {
		if p == fn.class {
			return fn
		}
		for _, m := range p.methods {
			if m.name == fn.name && !m.freed && m.sameParams(fn) {
				return m
			}
		}
	}
	return fn
}

// constructor returns the constructor overloads declared by c
func (c *Class) constructors() []*Function {
	var out []*Function
	for _, m := range c.methods {
		if m.name == c.name && !m.freed {
			out = append(out, m)
		}
	}
	return out
}

// destructor returns the destructor of c or of its nearest parent
func (c *Class) destructor() *Function {
	for p := c; p != nil; p = p.parent {
		for _, m := range p.methods {
			if m.name == "~"+p.name && !m.freed {
				return m
			}
		}
	}
	return nil
}

// canAccess checks member protection from the class currently compiling
func canAccess(access Access, owner, from *Class) bool {
	switch access {
	case AccessPrivate:
		return from == owner
	case AccessProtected:
		return from != nil && from.IsChildOf(owner)
	}
	return true
}

// initInstance runs the field initializers of every level of inst,
// base class first
func (c *Class) initInstance(inst *Instance) {
	if c.parent != nil && inst.parent != nil {
		c.parent.initInstance(inst.parent)
	}
	for _, f := range c.fields {
		if f.static || f.init == nil {
			continue
		}
		fv := inst.Field(f.name)
		if fv == nil {
			continue
		}
		if v := c.env.evaluate(f.init); v != nil {
			fv.Copy(v)
			v.release()
		}
	}
}

// callUpdate invokes the update hook of the class and its parents
func (c *Class) callUpdate(this *Var, user any) {
	for p := c; p != nil; p = p.parent {
		if p.update != nil {
			p.update(this, user)
		}
	}
}

// freeProgram removes methods that prog attached to the class
func (c *Class) freeProgram(prog *Program) {
	kept := c.methods[:0]
	for _, m := range c.methods {
		if m.prog == prog {
			m.freed = true
			continue
		}
		kept = append(kept, m)
	}
	c.methods = kept
}
