package cbot

import "strings"

// Instance is the shared storage behind class pointers, intrinsic values and
// arrays. Class instances carry one part per class level: the instance holds
// the fields of its own class and parent holds the superclass part.
type Instance struct {
	id          int64
	class       *Class
	fields      []*Var
	parent      *Instance
	elem        TypeResult
	limit       int
	refs        int
	constructed bool
	deleted     bool
	destroying  bool
	user        any
}

// newInstance allocates a zero-valued instance of class and all its parents
func newInstance(class *Class) *Instance {
	inst := &Instance{class: class, limit: -1}
	if env := class.env; env != nil {
		inst.id = env.nextInstanceID()
	}
	for _, f := range class.fields {
		if f.static {
			continue
		}
		fv := newDefinedVar(f.name, f.typ)
		fv.access = f.access
		if f.typ.typ == TypArrayPointer && f.typ.limit >= 0 {
			fv.SetInstance(newArrayBody(f.typ))
		}
		inst.fields = append(inst.fields, fv)
	}
	if class.parent != nil {
		inst.parent = newInstance(class.parent)
		inst.parent.id = inst.id
	}
	return inst
}

// newObject allocates an instance, runs its field initializers and the
// update hooks of its class
func newObject(class *Class, user any) *Instance {
	inst := newInstance(class)
	if class.env != nil {
		class.initInstance(inst)
	}
	class.callUpdate(borrowThis(inst), user)
	return inst
}

// borrowThis wraps inst in a pointer variable that holds no reference
func borrowThis(inst *Instance) *Var {
	return &Var{name: "this", typ: ClassType(TypPointer, inst.class), init: InitIsPointer, inst: inst}
}

// newArrayBody allocates an empty array body for an array type
func newArrayBody(typ TypeResult) *Instance {
	return &Instance{elem: typ.Elem(), limit: typ.limit}
}

// ID returns the unique identifier used by save/restore
func (inst *Instance) ID() int64 { return inst.id }

// Class returns the most derived class, nil for arrays
func (inst *Instance) Class() *Class { return inst.class }

// Refs returns the current reference count
func (inst *Instance) Refs() int { return inst.refs }

// IsDeleted reports whether the instance was destroyed
func (inst *Instance) IsDeleted() bool { return inst.deleted }

// IsConstructed reports whether the constructor has completed
func (inst *Instance) IsConstructed() bool { return inst.constructed }

// UserPtr returns host data attached to the instance
func (inst *Instance) UserPtr() any { return inst.user }

// SetUserPtr attaches host data
func (inst *Instance) SetUserPtr(user any) { inst.user = user }

// IsArray reports whether this is an array body
func (inst *Instance) IsArray() bool { return inst.class == nil }

func (inst *Instance) incRef() {
	inst.refs++
}

func (inst *Instance) decRef() {
	inst.refs--
	if inst.refs > 0 || inst.destroying || inst.deleted {
		return
	}
	inst.destroy()
}

// destroy runs the destructor and releases the fields
func (inst *Instance) destroy() {
	inst.destroying = true
	if inst.class != nil && inst.constructed {
		if env := inst.class.env; env != nil {
			env.runDestructors(inst)
		}
	}
	inst.deleted = true
	for p := inst; p != nil; p = p.parent {
		p.deleted = true
		for _, f := range p.fields {
			f.release()
		}
	}
	if inst.class != nil && inst.class.env != nil {
		inst.class.env.logger.DebugCat(CatMemory, "instance %d of %s destroyed", inst.id, inst.class.name)
	}
}

// level returns the part of the instance belonging to class c
func (inst *Instance) level(c *Class) *Instance {
	for p := inst; p != nil; p = p.parent {
		if p.class == c {
			return p
		}
	}
	return nil
}

// Field finds a field by name, searching the most derived part first
func (inst *Instance) Field(name string) *Var {
	for p := inst; p != nil; p = p.parent {
		for _, f := range p.fields {
			if f.name == name {
				return f
			}
		}
	}
	return nil
}

// fieldFrom finds a field starting at the part of class c
func (inst *Instance) fieldFrom(c *Class, name string) *Var {
	start := inst.level(c)
	if start == nil {
		start = inst
	}
	return start.Field(name)
}

// item returns element i of an array body, growing it when extend is set
func (inst *Instance) item(i int, extend bool) *Var {
	if i < len(inst.fields) {
		return inst.fields[i]
	}
	if !extend || (inst.limit >= 0 && i >= inst.limit) {
		return nil
	}
	for len(inst.fields) <= i {
		inst.fields = append(inst.fields, newDefinedVar("", inst.elem))
	}
	return inst.fields[i]
}

// clone duplicates the instance and its fields. Pointer fields share their
// targets; arrays and intrinsic fields are duplicated.
func (inst *Instance) clone() *Instance {
	c := &Instance{
		id:          inst.id,
		class:       inst.class,
		elem:        inst.elem,
		limit:       inst.limit,
		constructed: inst.constructed,
		user:        inst.user,
	}
	if inst.class != nil && inst.class.env != nil {
		c.id = inst.class.env.nextInstanceID()
	}
	for _, f := range inst.fields {
		c.fields = append(c.fields, f.Clone(f.name))
	}
	if inst.parent != nil {
		c.parent = inst.parent.clone()
		c.parent.id = c.id
	}
	return c
}

// String renders an array as "{ 1, 2 }" and an instance as
// "Name( a=1 ) extends Parent( b=2 )"
func (inst *Instance) String() string {
	if inst.class == nil {
		if len(inst.fields) == 0 {
			return "{ }"
		}
		parts := make([]string, len(inst.fields))
		for i, f := range inst.fields {
			parts[i] = f.GetValString()
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	}
	var b strings.Builder
	for p := inst; p != nil; p = p.parent {
		if p != inst {
			b.WriteString(" extends ")
		}
		parts := make([]string, len(p.fields))
		for i, f := range p.fields {
			parts[i] = f.name + "=" + f.GetValString()
		}
		b.WriteString(p.class.name)
		b.WriteString("( ")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(" )")
	}
	return b.String()
}
