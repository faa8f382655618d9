package cbot

import (
	"sync"
)

// NativeExec runs a host function. args is the first argument of a linked
// list. Returning false with ErrNone suspends the script; the function is
// called again on the next tick.
type NativeExec func(args *Var, result *Var, user any) (bool, ErrorCode)

// NativeCompile type checks a call to a host function. It consumes the
// arguments it accepts from args and returns the result type, or an error
// type such as ErrLowParam or ErrBadParam.
type NativeCompile func(args *ArgList, user any) TypeResult

// nativeFunc is a registered host function
type nativeFunc struct {
	name    string
	exec    NativeExec
	compile NativeCompile
}

// ArgList is the argument cursor passed to compile callbacks
type ArgList struct {
	cur *Var
}

// NewArgList creates a cursor over a linked argument list
func NewArgList(head *Var) *ArgList {
	return &ArgList{cur: head}
}

// Peek returns the current argument without consuming it
func (a *ArgList) Peek() *Var { return a.cur }

// Next consumes and returns the current argument, or nil at the end
func (a *ArgList) Next() *Var {
	v := a.cur
	if v != nil {
		a.cur = v.next
	}
	return v
}

// Empty reports whether all arguments were consumed
func (a *ArgList) Empty() bool { return a.cur == nil }

// Environment holds the registries shared by the programs of one host
// session: host functions, classes, public functions, defined constants,
// host globals and the instance id counter.
type Environment struct {
	mu       sync.RWMutex
	config   *Config
	logger   *Logger
	natives  map[string]*nativeFunc
	classes  map[string]*Class
	programs []*Program
	globals  []*Var
	defines  map[string]int64
	nextID   int64
}

// NewEnvironment creates an environment with the given configuration.
// A nil config uses DefaultConfig.
func NewEnvironment(config *Config) *Environment {
	if config == nil {
		config = DefaultConfig()
	}
	logger := NewLogger(config.Debug)
	logger.SetShowContext(config.ShowErrorContext)
	if len(config.DebugCategories) == 0 {
		logger.EnableAllCategories()
	}
	for _, cat := range config.DebugCategories {
		logger.EnableCategory(cat)
	}
	e := &Environment{config: config, logger: logger}
	e.Init()
	return e
}

// Init clears all registries and starts a new host session
func (e *Environment) Init() {
	e.mu.Lock()
	e.natives = make(map[string]*nativeFunc)
	e.classes = make(map[string]*Class)
	e.defines = make(map[string]int64, len(errorConstants))
	for name, code := range errorConstants {
		e.defines[name] = int64(code)
	}
	e.programs = nil
	e.globals = nil
	e.nextID = 0
	e.mu.Unlock()
	e.logger.DebugCat(CatSystem, "environment initialized")
}

// Free stops every program and flushes the registries
func (e *Environment) Free() {
	for _, p := range e.Programs() {
		p.Free()
	}
	for _, c := range e.classes {
		for _, v := range c.statics {
			v.release()
		}
	}
	releaseVars(e.globals)
	e.Init()
}

// Config returns the session configuration
func (e *Environment) Config() *Config { return e.config }

// Logger returns the session logger
func (e *Environment) Logger() *Logger { return e.logger }

// AddFunction registers a host function. Registering the same name again
// replaces the previous definition.
func (e *Environment) AddFunction(name string, exec NativeExec, compile NativeCompile) {
	e.mu.Lock()
	e.natives[name] = &nativeFunc{name: name, exec: exec, compile: compile}
	e.mu.Unlock()
	e.logger.DebugCat(CatCall, "registered function %s", name)
}

// HasFunction reports whether a host function is registered
func (e *Environment) HasFunction(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.natives[name]
	return ok
}

func (e *Environment) native(name string) *nativeFunc {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.natives[name]
}

// NewClass registers a host class. parent may be nil. Intrinsic classes
// have value semantics.
func (e *Environment) NewClass(name string, parent *Class, intrinsic bool) *Class {
	c := &Class{name: name, parent: parent, env: e, intrinsic: intrinsic, public: true}
	e.mu.Lock()
	e.classes[name] = c
	e.mu.Unlock()
	e.logger.DebugCat(CatClass, "registered class %s", name)
	return c
}

// FindClass looks up a host class or a public script class
func (e *Environment) FindClass(name string) *Class {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.classes[name]
}

// Classes returns every shared class
func (e *Environment) Classes() []*Class {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*Class, 0, len(e.classes))
	for _, c := range e.classes {
		out = append(out, c)
	}
	return out
}

// addClass registers a script class. It fails when the name is taken.
func (e *Environment) addClass(c *Class) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.classes[c.name]; exists {
		return false
	}
	e.classes[c.name] = c
	return true
}

func (e *Environment) removeClass(c *Class) {
	e.mu.Lock()
	if e.classes[c.name] == c {
		delete(e.classes, c.name)
	}
	e.mu.Unlock()
}

// DefineNum declares a named integer constant visible to every script
func (e *Environment) DefineNum(name string, value int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.defines[name]; exists {
		return false
	}
	e.defines[name] = value
	return true
}

func (e *Environment) defineTable() map[string]int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]int64, len(e.defines))
	for k, v := range e.defines {
		out[k] = v
	}
	return out
}

// AddGlobal makes a host variable visible to every script by name
func (e *Environment) AddGlobal(v *Var) {
	e.mu.Lock()
	e.globals = append(e.globals, v)
	e.mu.Unlock()
}

// Globals returns the host variables
func (e *Environment) Globals() []*Var {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.globals
}

// FindGlobal looks up a host variable by name
func (e *Environment) FindGlobal(name string) *Var {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, v := range e.globals {
		if v.name == name {
			return v
		}
	}
	return nil
}

// NewProgram creates an empty program attached to the environment
func (e *Environment) NewProgram(name string) *Program {
	p := &Program{env: e, name: name}
	e.mu.Lock()
	e.programs = append(e.programs, p)
	e.mu.Unlock()
	return p
}

// Programs returns the programs of the session in creation order
func (e *Environment) Programs() []*Program {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*Program(nil), e.programs...)
}

func (e *Environment) removeProgram(p *Program) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, q := range e.programs {
		if q == p {
			e.programs = append(e.programs[:i], e.programs[i+1:]...)
			return
		}
	}
}

// publicFunctions returns the public functions named name of programs
// other than prog
func (e *Environment) publicFunctions(name string, prog *Program) []*Function {
	var out []*Function
	for _, p := range e.Programs() {
		if p == prog {
			continue
		}
		for _, f := range p.functions {
			if f.public && f.class == nil && f.name == name && !f.freed {
				out = append(out, f)
			}
		}
	}
	return out
}

// releaseLocks frees the synchronized functions held by a stack chain
func (e *Environment) releaseLocks(d *runData) {
	for _, p := range e.Programs() {
		for _, f := range p.functions {
			if f.lockOwner == d {
				f.lockOwner = nil
				f.lockDepth = 0
			}
		}
	}
}

// nextInstanceID returns a fresh instance identifier
func (e *Environment) nextInstanceID() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	return e.nextID
}

// reserveID makes sure freshly allocated ids stay above a restored id
func (e *Environment) reserveID(id int64) {
	e.mu.Lock()
	if id > e.nextID {
		e.nextID = id
	}
	e.mu.Unlock()
}

// evaluate runs an expression to completion on an independent stack and
// returns its value
func (e *Environment) evaluate(instr Instr) *Var {
	s := newTempStack(e)
	defer s.Delete()
	for !instr.Execute(s) {
		if !s.IsOk() {
			e.logger.DebugCat(CatRun, "initializer failed: %s", s.Error())
			return nil
		}
		s.data.timer = s.data.initTimer
	}
	if !s.IsOk() {
		return nil
	}
	v := s.result
	s.result = nil
	return v
}

// runDestructors calls the destructor of a constructed instance to
// completion on an independent stack
func (e *Environment) runDestructors(inst *Instance) {
	dtor := inst.class.destructor()
	if dtor == nil || dtor.body == nil {
		return
	}
	e.logger.DebugCat(CatMemory, "running %s for instance %d", dtor.name, inst.id)
	s := newTempStack(e)
	defer s.Delete()
	this := borrowThis(inst)
	for !dtor.execute(s, nil, this, nil) {
		if !s.IsOk() {
			return
		}
		s.data.timer = s.data.initTimer
	}
}

func releaseVars(vars []*Var) {
	for _, v := range vars {
		v.release()
	}
}
