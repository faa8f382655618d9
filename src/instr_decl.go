package cbot

// maxArraySize is the largest size an array declaration may give
const maxArraySize = 9999

// varDecl declares one local variable, with optional array sizes and an
// initial value
type varDecl struct {
	instrBase
	name  string
	typ   TypeResult
	sized []bool
	dims  []Instr
	init  Instr
}

func (d *varDecl) Execute(pj *Stack) bool {
	pile := pj.AddStack(d)
	last, ok := evalArgs(pile, d.dims)
	if !ok {
		return false
	}
	if d.init != nil {
		p := last.AddStack(nil)
		if p.State() == 0 {
			if !d.init.Execute(p) {
				return false
			}
			p.SetState(1)
		}
		last = p
	}
	if last.AddStack(nil).IfStep() {
		return false
	}

	typ := d.typ
	if len(d.sized) > 0 {
		var ok bool
		typ, ok = withLimits(d.typ, d.sized, collectArgs(pile, len(d.dims)))
		if !ok {
			pile.SetError(ErrOutArray, &d.tok)
			return pj.Return(pile)
		}
	}
	v := NewVar(d.name, typ)
	if len(d.sized) > 0 {
		v.SetInstance(newArrayBody(typ))
	}
	if d.init != nil {
		if code := storeValue(v, last.Var()); code != ErrNone {
			v.release()
			pile.SetError(code, &d.tok)
			return pj.Return(pile)
		}
		if len(d.sized) > 0 && v.inst != nil && !applyLimits(v.inst, typ) {
			v.release()
			pile.SetError(ErrOutArray, &d.tok)
			return pj.Return(pile)
		}
	}
	pile.AddVar(v)
	return pj.Return(pile)
}

func (d *varDecl) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile := pj.RestoreStack(d)
	if pile == nil {
		return
	}
	last := restoreArgs(pile, d.dims)
	if last == nil || d.init == nil {
		return
	}
	p := last.RestoreStack(nil)
	if p == nil {
		return
	}
	if p.State() == 0 {
		d.init.RestoreState(p, true)
	} else {
		p.needVar()
	}
}

// withLimits applies evaluated sizes to an array type, outermost first.
// Levels declared with [] stay unbounded.
func withLimits(t TypeResult, sized []bool, vals []*Var) (TypeResult, bool) {
	if len(sized) == 0 || t.typ != TypArrayPointer {
		return t, true
	}
	limit := -1
	if sized[0] {
		v := vals[0]
		vals = vals[1:]
		if isNanVar(v) {
			return t, false
		}
		n := v.GetValInt()
		if n < 0 || n > maxArraySize {
			return t, false
		}
		limit = int(n)
	}
	elem, ok := withLimits(t.Elem(), sized[1:], vals)
	return ArrayType(TypArrayPointer, elem).WithLimit(limit), ok
}

// applyLimits gives an array instance the sizes of its declared type and
// checks that the elements fit
func applyLimits(inst *Instance, t TypeResult) bool {
	inst.limit = t.limit
	inst.elem = t.Elem()
	if t.limit >= 0 && len(inst.fields) > t.limit {
		return false
	}
	for _, f := range inst.fields {
		f.typ = t.Elem()
		if f.inst != nil && t.Elem().typ == TypArrayPointer && !applyLimits(f.inst, t.Elem()) {
			return false
		}
	}
	return true
}

// listInit is an array literal { a, b, { c } }
type listInit struct {
	instrBase
	typ   TypeResult
	items []Instr
}

func (l *listInit) Execute(pj *Stack) bool {
	pile := pj.AddStack(l)
	last, ok := evalArgs(pile, l.items)
	if !ok {
		return false
	}
	if last.AddStack(nil).IfStep() {
		return false
	}
	arr := NewVar("", l.typ)
	arr.SetInstance(newArrayBody(l.typ))
	for i, val := range collectArgs(pile, len(l.items)) {
		item := arr.ArrayItem(i, true)
		if item == nil {
			arr.release()
			pile.SetError(ErrOutArray, &l.tok)
			return pj.Return(pile)
		}
		if code := storeValue(item, val); code != ErrNone {
			arr.release()
			pile.SetError(code, &l.tok)
			return pj.Return(pile)
		}
	}
	pile.SetVar(arr)
	return pj.Return(pile)
}

func (l *listInit) RestoreState(pj *Stack, main bool) {
	if main {
		if pile := pj.RestoreStack(l); pile != nil {
			restoreArgs(pile, l.items)
		}
	}
}

// compileList compiles an array literal for an array of type t
func compileList(c *CStack, t TypeResult) Instr {
	tok := *c.tok()
	if t.typ != TypArrayPointer {
		c.SetError(ErrBadType1, &tok)
		return nil
	}
	c.cur.Next()
	l := &listInit{instrBase: instrBase{tok: tok}, typ: t}
	elem := t.Elem()
	for !c.cur.Accept(IDCloseBlock) {
		if len(l.items) > 0 && !c.cur.Accept(IDComma) {
			c.SetError(ErrCloseBlock, nil)
			return nil
		}
		var item Instr
		if c.tok().IsType(IDOpenBlock) {
			if item = compileList(c, elem); item == nil {
				return nil
			}
		} else {
			start := *c.tok()
			var it TypeResult
			item, it = compileExpression(c)
			if item == nil {
				if c.IsOk() {
					c.SetError(ErrNoExpression, nil)
				}
				return nil
			}
			if !assignable(elem, it, constValue(item)) {
				c.SetError(ErrBadType1, &start)
				return nil
			}
		}
		l.items = append(l.items, item)
	}
	return l
}

// compileDecl compiles "type declarator, declarator..."
func compileDecl(c *CStack) Instr {
	tok := *c.tok()
	base, ok := compileTypeName(c)
	if !ok {
		c.SetError(ErrNoType, &tok)
		return nil
	}
	var items []Instr
	for {
		d := compileDeclarator(c, base)
		if d == nil {
			return nil
		}
		items = append(items, d)
		if !c.cur.Accept(IDComma) {
			break
		}
	}
	if len(items) == 1 {
		return items[0]
	}
	return &seqInstr{instrBase: instrBase{tok: tok}, items: items}
}

// compileArrayDims parses [size] and [] suffixes after a declared name
func compileArrayDims(c *CStack, base TypeResult) (TypeResult, []bool, []Instr, bool) {
	var sized []bool
	var dims []Instr
	for c.tok().IsType(IDOpenBrk) {
		c.cur.Next()
		if c.cur.Accept(IDCloseBrk) {
			sized = append(sized, false)
			continue
		}
		start := *c.tok()
		e, t := compileExpression(c)
		if e == nil {
			if c.IsOk() {
				c.SetError(ErrBadIndex, nil)
			}
			return base, nil, nil, false
		}
		if !t.typ.IsInteger() {
			c.SetError(ErrBadIndex, &start)
			return base, nil, nil, false
		}
		if !c.cur.Accept(IDCloseBrk) {
			c.SetError(ErrCloseIndex, nil)
			return base, nil, nil, false
		}
		sized = append(sized, true)
		dims = append(dims, e)
	}
	t := base
	for range sized {
		t = ArrayType(TypArrayPointer, t)
	}
	return t, sized, dims, true
}

func compileDeclarator(c *CStack, base TypeResult) *varDecl {
	nameTok := *c.tok()
	if nameTok.Type != TokenTypVar {
		c.SetError(ErrNoVar, &nameTok)
		return nil
	}
	if c.CheckVarLocal(nameTok.Text) {
		c.SetError(ErrRedefVar, &nameTok)
		return nil
	}
	c.cur.Next()
	typ, sized, dims, ok := compileArrayDims(c, base)
	if !ok {
		return nil
	}
	d := &varDecl{instrBase: instrBase{tok: nameTok}, name: nameTok.Text, typ: typ, sized: sized, dims: dims}

	switch {
	case c.cur.Accept(IDAssign):
		if c.tok().IsType(IDOpenBlock) {
			if d.init = compileList(c, typ); d.init == nil {
				return nil
			}
			break
		}
		start := *c.tok()
		init, t := compileExpression(c)
		if init == nil {
			if c.IsOk() {
				c.SetError(ErrNoExpression, nil)
			}
			return nil
		}
		if !assignable(typ, t, constValue(init)) {
			c.SetError(ErrBadType1, &start)
			return nil
		}
		d.init = init
	case c.tok().IsType(IDOpenPar) && len(sized) == 0 && typ.class != nil:
		n, code := compileConstruction(c, typ.class, nameTok)
		if code != ErrNone {
			c.SetError(code, &nameTok)
			return nil
		}
		d.init = n
	}
	c.AddVar(nameTok.Text, typ)
	return d
}
