package cbot

import (
	"fmt"
	"io"
	"sort"
)

// Format markers of saved states
const (
	stateVersion  = 105
	staticVersion = 208
	accessBase    = 100
	constructedAt = 2000
)

// saver writes variables, remembering which instances the stream already
// holds so shared instances are written once
type saver struct {
	w         io.Writer
	written   map[*Instance]int64
	nextArray int64
}

func newSaver(w io.Writer) *saver {
	return &saver{w: w, written: make(map[*Instance]int64)}
}

// loader rebuilds variables, sharing instances by id
type loader struct {
	r     StateReader
	env   *Environment
	user  any
	insts map[int64]*Instance
	made  []*Instance
}

func newLoader(r StateReader, env *Environment, user any) *loader {
	return &loader{r: r, env: env, user: user, insts: make(map[int64]*Instance)}
}

// SaveVars writes a variable list
func SaveVars(w io.Writer, vars []*Var) error {
	return newSaver(w).vars(vars)
}

// RestoreVars reads a variable list written by SaveVars
func RestoreVars(r StateReader, env *Environment) ([]*Var, error) {
	l := newLoader(r, env, nil)
	vars, err := l.vars()
	if err != nil {
		return nil, err
	}
	l.finish()
	return vars, nil
}

func (s *saver) vars(vars []*Var) error {
	for _, v := range vars {
		if v == nil {
			continue
		}
		if err := s.header(v); err != nil {
			return err
		}
		if err := s.value(v); err != nil {
			return err
		}
	}
	return WriteWord(s.w, 0)
}

// header writes access, static flag, type, init state and name
func (s *saver) header(v *Var) error {
	if err := WriteWord(s.w, uint16(accessBase+int(v.access))); err != nil {
		return err
	}
	static := uint16(0)
	if v.static {
		static = 1
	}
	if err := WriteWord(s.w, static); err != nil {
		return err
	}
	if err := WriteWord(s.w, uint16(v.typ.typ)); err != nil {
		return err
	}
	init := uint16(v.init)
	if v.typ.typ == TypPointer && v.inst != nil && v.inst.constructed {
		init += constructedAt
	}
	if err := WriteWord(s.w, init); err != nil {
		return err
	}
	return WriteString(s.w, v.name)
}

// value writes the payload of a variable according to its type
func (s *saver) value(v *Var) error {
	switch v.typ.typ {
	case TypBoolean, TypByte:
		return WriteByte(s.w, byte(v.ival))
	case TypShort:
		return WriteShort(s.w, int16(v.ival))
	case TypChar:
		return WriteUInt32(s.w, uint32(v.ival))
	case TypInt:
		return WriteInt(s.w, int32(v.ival))
	case TypLong:
		return WriteLong(s.w, v.ival)
	case TypFloat:
		return WriteFloat(s.w, float32(v.fval))
	case TypDouble:
		return WriteDouble(s.w, v.fval)
	case TypString:
		return WriteString(s.w, v.sval)
	case TypPointer, TypNullPointer:
		if err := WriteString(s.w, v.typ.class.Name()); err != nil {
			return err
		}
		return s.instance(v.inst)
	case TypArrayPointer, TypArrayBody, TypClass, TypIntrinsic:
		if err := WriteType(s.w, v.typ); err != nil {
			return err
		}
		return s.instance(v.inst)
	}
	return fmt.Errorf("%w: cannot save %s variable %q", errBadState, v.typ.typ, v.name)
}

// instance writes id 0 for null, else the id and either word 0 when the
// instance was written before or word 1 and its contents
func (s *saver) instance(inst *Instance) error {
	if inst == nil {
		return WriteLong(s.w, 0)
	}
	id, seen := s.written[inst]
	if !seen {
		id = inst.id
		if inst.class == nil || id == 0 {
			s.nextArray--
			id = s.nextArray
		}
		s.written[inst] = id
	}
	if err := WriteLong(s.w, id); err != nil {
		return err
	}
	if seen {
		return WriteWord(s.w, 0)
	}
	if err := WriteWord(s.w, 1); err != nil {
		return err
	}
	if inst.class == nil {
		if err := WriteInt(s.w, int32(inst.limit)); err != nil {
			return err
		}
		if err := WriteType(s.w, inst.elem); err != nil {
			return err
		}
		return s.vars(inst.fields)
	}
	if err := WriteString(s.w, inst.class.name); err != nil {
		return err
	}
	constructed := uint16(0)
	if inst.constructed {
		constructed = 1
	}
	if err := WriteWord(s.w, constructed); err != nil {
		return err
	}
	for p := inst; p != nil; p = p.parent {
		if err := s.vars(p.fields); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) vars() ([]*Var, error) {
	var out []*Var
	for {
		v, err := l.variable()
		if err != nil {
			releaseVars(out)
			return nil, err
		}
		if v == nil {
			return out, nil
		}
		out = append(out, v)
	}
}

// variable reads one variable, or returns nil at the end of a list
func (l *loader) variable() (*Var, error) {
	w, err := ReadWord(l.r)
	if err != nil || w == 0 {
		return nil, err
	}
	if w < accessBase {
		return nil, fmt.Errorf("%w: variable header %d", errBadState, w)
	}
	access := Access(w - accessBase)
	static, err := ReadWord(l.r)
	if err != nil {
		return nil, err
	}
	tw, err := ReadWord(l.r)
	if err != nil {
		return nil, err
	}
	init, err := ReadWord(l.r)
	if err != nil {
		return nil, err
	}
	name, err := ReadString(l.r)
	if err != nil {
		return nil, err
	}
	typ := Type(tw)
	if init >= constructedAt {
		init -= constructedAt
	}
	v := &Var{name: name, typ: NewType(typ), init: InitState(init), static: static != 0, access: access}
	if err := l.value(v); err != nil {
		v.release()
		return nil, err
	}
	return v, nil
}

func (l *loader) value(v *Var) error {
	r := l.r
	switch v.typ.typ {
	case TypBoolean, TypByte:
		b, err := ReadByte(r)
		if err != nil {
			return err
		}
		v.ival = int64(b)
		if v.typ.typ == TypByte {
			v.ival = wrapInt(TypByte, int64(b))
		}
	case TypShort:
		n, err := ReadShort(r)
		if err != nil {
			return err
		}
		v.ival = int64(n)
	case TypChar:
		n, err := ReadUInt32(r)
		if err != nil {
			return err
		}
		v.ival = int64(n)
	case TypInt:
		n, err := ReadInt(r)
		if err != nil {
			return err
		}
		v.ival = int64(n)
	case TypLong:
		n, err := ReadLong(r)
		if err != nil {
			return err
		}
		v.ival = n
	case TypFloat:
		f, err := ReadFloat(r)
		if err != nil {
			return err
		}
		v.fval = float64(f)
	case TypDouble:
		f, err := ReadDouble(r)
		if err != nil {
			return err
		}
		v.fval = f
	case TypString:
		s, err := ReadString(r)
		if err != nil {
			return err
		}
		v.sval = s
	case TypPointer, TypNullPointer:
		name, err := ReadString(r)
		if err != nil {
			return err
		}
		var cl *Class
		if name != "" {
			if cl = l.env.FindClass(name); cl == nil {
				return fmt.Errorf("%w: unknown class %s", errBadState, name)
			}
		}
		v.typ = ClassType(v.typ.typ, cl)
		return l.reference(v)
	case TypArrayPointer, TypArrayBody, TypClass, TypIntrinsic:
		t, err := ReadType(r, l.env)
		if err != nil {
			return err
		}
		v.typ = t
		return l.reference(v)
	default:
		return fmt.Errorf("%w: variable %q of type %d", errBadState, v.name, v.typ.typ)
	}
	return nil
}

// reference reads the instance section of a reference variable
func (l *loader) reference(v *Var) error {
	inst, err := l.instance(v.typ.typ == TypArrayPointer || v.typ.typ == TypArrayBody)
	if err != nil {
		return err
	}
	v.setRef(inst)
	return nil
}

func (l *loader) instance(array bool) (*Instance, error) {
	id, err := ReadLong(l.r)
	if err != nil || id == 0 {
		return nil, err
	}
	flag, err := ReadWord(l.r)
	if err != nil {
		return nil, err
	}
	if flag == 0 {
		inst := l.insts[id]
		if inst == nil {
			return nil, fmt.Errorf("%w: instance %d referenced before it was written", errBadState, id)
		}
		return inst, nil
	}

	if array {
		limit, err := ReadInt(l.r)
		if err != nil {
			return nil, err
		}
		elem, err := ReadType(l.r, l.env)
		if err != nil {
			return nil, err
		}
		inst := &Instance{elem: elem, limit: int(limit)}
		l.insts[id] = inst
		items, err := l.vars()
		if err != nil {
			return nil, err
		}
		inst.fields = items
		return inst, nil
	}

	name, err := ReadString(l.r)
	if err != nil {
		return nil, err
	}
	cl := l.env.FindClass(name)
	if cl == nil {
		return nil, fmt.Errorf("%w: unknown class %s", errBadState, name)
	}
	constructed, err := ReadWord(l.r)
	if err != nil {
		return nil, err
	}
	inst := newInstance(cl)
	for p := inst; p != nil; p = p.parent {
		p.id = id
	}
	l.env.reserveID(id)
	inst.constructed = constructed != 0
	l.insts[id] = inst
	for p := inst; p != nil; p = p.parent {
		fields, err := l.vars()
		if err != nil {
			return nil, err
		}
		p.assignFields(fields)
	}
	l.made = append(l.made, inst)
	return inst, nil
}

// assignFields replaces fields by restored variables of the same name
func (inst *Instance) assignFields(vars []*Var) {
	for _, v := range vars {
		placed := false
		for i, f := range inst.fields {
			if f.name == v.name {
				v.access = f.access
				inst.fields[i] = v
				f.release()
				placed = true
				break
			}
		}
		if !placed {
			v.release()
		}
	}
}

// finish runs the update hooks of the restored objects
func (l *loader) finish() {
	for _, inst := range l.made {
		inst.class.callUpdate(borrowThis(inst), l.user)
	}
	l.made = nil
}

// frame writes a frame and the frames above it
func (s *saver) frame(f *Stack) error {
	if f.next2 != nil {
		if err := WriteWord(s.w, 2); err != nil {
			return err
		}
		if err := s.frame(f.next2); err != nil {
			return err
		}
	} else if err := WriteWord(s.w, 1); err != nil {
		return err
	}
	if err := WriteWord(s.w, uint16(f.kind)); err != nil {
		return err
	}
	if err := WriteInt(s.w, int32(f.state)); err != nil {
		return err
	}
	id := identOf(f.instr)
	if err := WriteInt(s.w, id.start); err != nil {
		return err
	}
	if err := WriteWord(s.w, uint16(id.id)); err != nil {
		return err
	}
	if err := WriteInt(s.w, int32(f.step)); err != nil {
		return err
	}
	var result []*Var
	if f.result != nil {
		result = []*Var{f.result}
	}
	if err := s.vars(result); err != nil {
		return err
	}
	if err := s.vars(f.vars); err != nil {
		return err
	}
	if f.next != nil {
		return s.frame(f.next)
	}
	return WriteWord(s.w, 0)
}

// frame fills f from the stream. marker is the word that announced it.
func (l *loader) frame(f *Stack, marker uint16) error {
	if marker == 2 {
		m, err := ReadWord(l.r)
		if err != nil {
			return err
		}
		if m != 0 {
			if err := l.frame(f.AddStack2(), m); err != nil {
				return err
			}
		}
	}
	kind, err := ReadWord(l.r)
	if err != nil {
		return err
	}
	if BlockKind(kind) > BlockFunction {
		return fmt.Errorf("%w: block kind %d", errBadState, kind)
	}
	f.kind = BlockKind(kind)
	state, err := ReadInt(l.r)
	if err != nil {
		return err
	}
	f.state = int(state)
	start, err := ReadInt(l.r)
	if err != nil {
		return err
	}
	id, err := ReadWord(l.r)
	if err != nil {
		return err
	}
	f.saved = &frameIdent{start: start, id: TokenID(id)}
	step, err := ReadInt(l.r)
	if err != nil {
		return err
	}
	f.step = int(step)

	result, err := l.vars()
	if err != nil {
		return err
	}
	if len(result) > 0 {
		f.SetVar(result[0])
		releaseVars(result[1:])
	}
	locals, err := l.vars()
	if err != nil {
		return err
	}
	f.vars = locals

	m, err := ReadWord(l.r)
	if err != nil || m == 0 {
		return err
	}
	return l.frame(f.AddStack(nil), m)
}

// SaveState writes the execution state of the program: the entry function
// and the frame chain, or a marker when nothing is running
func (p *Program) SaveState(w io.Writer) error {
	return p.saveState(newSaver(w))
}

func (p *Program) saveState(s *saver) error {
	if err := WriteLong(s.w, stateVersion); err != nil {
		return err
	}
	if p.stack == nil {
		return WriteWord(s.w, 0)
	}
	if err := WriteWord(s.w, 1); err != nil {
		return err
	}
	if err := WriteString(s.w, p.entry.name); err != nil {
		return err
	}
	if err := s.frame(p.stack); err != nil {
		return err
	}
	p.env.logger.DebugCat(CatSave, "%s: saved state of %s", p.name, p.entry.name)
	return nil
}

// RestoreState restarts the entry function recorded in r and rebuilds its
// frames. The program must hold the same compiled code as when it was
// saved.
func (p *Program) RestoreState(r StateReader) error {
	l := newLoader(r, p.env, p.user)
	if err := p.restoreState(l); err != nil {
		return err
	}
	l.finish()
	return nil
}

func (p *Program) restoreState(l *loader) error {
	p.Stop()
	version, err := ReadLong(l.r)
	if err != nil {
		return err
	}
	if version != stateVersion {
		return fmt.Errorf("%w: state version %d", errBadState, version)
	}
	running, err := ReadWord(l.r)
	if err != nil || running == 0 {
		return err
	}
	if p.errCode.IsCompile() {
		return newError(p.errCode, p.errStart, p.errEnd)
	}
	name, err := ReadString(l.r)
	if err != nil {
		return err
	}
	if err := p.Start(name); err != nil {
		return err
	}
	marker, err := ReadWord(l.r)
	if err == nil && marker != 0 {
		err = l.frame(p.stack, marker)
	}
	if err != nil {
		p.Stop()
		return err
	}
	p.entry.restore(p.stack)
	if err := p.stack.data.badState; err != nil {
		p.Stop()
		return err
	}
	p.env.logger.DebugCat(CatSave, "%s: restored state of %s", p.name, name)
	return nil
}

// staticClasses returns the classes with static fields, sorted by name
func (e *Environment) staticClasses() []*Class {
	var out []*Class
	for _, c := range e.Classes() {
		if len(c.statics) > 0 {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// SaveStaticState writes the static fields of every class
func (e *Environment) SaveStaticState(w io.Writer) error {
	return e.saveStatics(newSaver(w))
}

func (e *Environment) saveStatics(s *saver) error {
	if err := WriteLong(s.w, staticVersion); err != nil {
		return err
	}
	for _, c := range e.staticClasses() {
		if err := WriteWord(s.w, 1); err != nil {
			return err
		}
		if err := WriteString(s.w, c.name); err != nil {
			return err
		}
		for _, v := range c.statics {
			if err := WriteWord(s.w, 1); err != nil {
				return err
			}
			if err := WriteString(s.w, v.name); err != nil {
				return err
			}
			if err := s.vars([]*Var{v}); err != nil {
				return err
			}
		}
		if err := WriteWord(s.w, 0); err != nil {
			return err
		}
	}
	return WriteWord(s.w, 0)
}

// RestoreStaticState reads static fields written by SaveStaticState.
// Classes and fields that no longer exist are skipped.
func (e *Environment) RestoreStaticState(r StateReader) error {
	l := newLoader(r, e, nil)
	if err := e.restoreStatics(l); err != nil {
		return err
	}
	l.finish()
	return nil
}

func (e *Environment) restoreStatics(l *loader) error {
	version, err := ReadLong(l.r)
	if err != nil {
		return err
	}
	if version != staticVersion {
		return fmt.Errorf("%w: static state version %d", errBadState, version)
	}
	for {
		w, err := ReadWord(l.r)
		if err != nil || w == 0 {
			return err
		}
		name, err := ReadString(l.r)
		if err != nil {
			return err
		}
		c := e.FindClass(name)
		for {
			w, err := ReadWord(l.r)
			if err != nil {
				return err
			}
			if w == 0 {
				break
			}
			field, err := ReadString(l.r)
			if err != nil {
				return err
			}
			vars, err := l.vars()
			if err != nil {
				return err
			}
			if c != nil && len(vars) > 0 {
				for _, v := range c.statics {
					if v.name == field {
						v.Copy(vars[0])
					}
				}
			}
			releaseVars(vars)
		}
	}
}

// SaveSession writes the static fields, the host globals and the state of
// every program of the environment, in creation order
func (e *Environment) SaveSession(w io.Writer) error {
	s := newSaver(w)
	if err := e.saveStatics(s); err != nil {
		return err
	}
	if err := s.vars(e.Globals()); err != nil {
		return err
	}
	for _, p := range e.Programs() {
		if err := p.saveState(s); err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
	}
	e.logger.DebugCat(CatSave, "session saved")
	return nil
}

// RestoreSession reads a session written by SaveSession into an
// environment holding the same programs, compiled from the same sources
func (e *Environment) RestoreSession(r StateReader, user any) error {
	l := newLoader(r, e, user)
	if err := e.restoreStatics(l); err != nil {
		return err
	}
	globals, err := l.vars()
	if err != nil {
		return err
	}
	for _, g := range globals {
		if v := e.FindGlobal(g.name); v != nil {
			v.Copy(g)
		}
	}
	releaseVars(globals)
	for _, p := range e.Programs() {
		if err := p.restoreState(l); err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
	}
	l.finish()
	e.logger.DebugCat(CatSave, "session restored")
	return nil
}
