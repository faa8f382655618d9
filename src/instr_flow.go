package cbot

// blockInstr runs statements in order. The frame state is the index of the
// next statement and the frame owns the locals declared inside.
type blockInstr struct {
	instrBase
	stmts []Instr
}

func (b *blockInstr) Execute(pj *Stack) bool {
	pile := pj.AddStackBlock(b)
	for pile.State() < len(b.stmts) {
		if !b.stmts[pile.State()].Execute(pile) {
			return false
		}
		if !pile.IncState() {
			return false
		}
	}
	return pj.Return(pile)
}

func (b *blockInstr) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile := pj.RestoreStack(b)
	if pile != nil && pile.needState(0, len(b.stmts)) && pile.State() < len(b.stmts) {
		b.stmts[pile.State()].RestoreState(pile, true)
	}
}

// seqInstr runs several instructions without opening a scope, as the
// declarators of "int a = 1, b = 2;" or the parts of a for clause
type seqInstr struct {
	instrBase
	items []Instr
}

func (s *seqInstr) Execute(pj *Stack) bool {
	pile := pj.AddStack(s)
	for pile.State() < len(s.items) {
		if !s.items[pile.State()].Execute(pile) {
			return false
		}
		pile.IncState()
	}
	return pj.Return(pile)
}

func (s *seqInstr) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile := pj.RestoreStack(s)
	if pile != nil && pile.needState(0, len(s.items)) && pile.State() < len(s.items) {
		s.items[pile.State()].RestoreState(pile, true)
	}
}

// emptyInstr is a lone ";"
type emptyInstr struct {
	instrBase
}

func (e *emptyInstr) Execute(pj *Stack) bool { return true }
func (e *emptyInstr) RestoreState(pj *Stack, main bool) {}

// ifInstr is if (cond) then [else els]
type ifInstr struct {
	instrBase
	cond Instr
	then Instr
	els  Instr
}

func (e *ifInstr) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	if pile.State() == 0 {
		if !e.cond.Execute(pile) {
			return false
		}
		next := 2
		if pile.GetVal() {
			next = 1
		}
		if !pile.SetState(next) {
			return false
		}
	}
	branch := e.then
	if pile.State() == 2 {
		branch = e.els
	}
	if branch != nil && !branch.Execute(pile) {
		return false
	}
	return pj.Return(pile)
}

func (e *ifInstr) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile := pj.RestoreStack(e)
	if pile == nil || !pile.needState(0, 2) {
		return
	}
	switch pile.State() {
	case 0:
		e.cond.RestoreState(pile, true)
	case 1:
		if e.then != nil {
			e.then.RestoreState(pile, true)
		}
	case 2:
		if e.els != nil {
			e.els.RestoreState(pile, true)
		}
	}
}

// whileInstr is [label:] while (cond) body
type whileInstr struct {
	instrBase
	label string
	cond  Instr
	body  Instr
}

func (e *whileInstr) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	for {
		if pile.State() == 0 {
			if pile.IfStep() {
				return false
			}
			if !e.cond.Execute(pile) {
				return false
			}
			if !pile.GetVal() {
				return pj.Return(pile)
			}
			if !pile.SetState(1) {
				return false
			}
		}
		if e.body != nil && !e.body.Execute(pile) {
			if pile.IfContinue(0, e.label) {
				continue
			}
			return pj.BreakReturn(pile, e.label)
		}
		if !pile.SetStateLimit(0, 0) {
			return false
		}
	}
}

func (e *whileInstr) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile := pj.RestoreStack(e)
	if pile == nil || !pile.needState(0, 1) {
		return
	}
	if pile.State() == 0 {
		e.cond.RestoreState(pile, true)
	} else if e.body != nil {
		e.body.RestoreState(pile, true)
	}
}

// doInstr is [label:] do body while (cond);
type doInstr struct {
	instrBase
	label string
	body  Instr
	cond  Instr
}

func (e *doInstr) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	for {
		if pile.State() == 0 {
			if e.body != nil && !e.body.Execute(pile) {
				if pile.IfContinue(1, e.label) {
					continue
				}
				return pj.BreakReturn(pile, e.label)
			}
			if !pile.SetState(1) {
				return false
			}
		}
		if pile.IfStep() {
			return false
		}
		if !e.cond.Execute(pile) {
			return false
		}
		if !pile.GetVal() {
			return pj.Return(pile)
		}
		if !pile.SetStateLimit(0, 0) {
			return false
		}
	}
}

func (e *doInstr) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile := pj.RestoreStack(e)
	if pile == nil || !pile.needState(0, 1) {
		return
	}
	if pile.State() == 0 {
		if e.body != nil {
			e.body.RestoreState(pile, true)
		}
	} else {
		e.cond.RestoreState(pile, true)
	}
}

// forInstr is [label:] for (init; cond; incr) body. Its frame owns the
// variables declared by init.
type forInstr struct {
	instrBase
	label string
	init  Instr
	cond  Instr
	incr  Instr
	body  Instr
}

func (e *forInstr) Execute(pj *Stack) bool {
	pile := pj.AddStackBlock(e)
	if pile.State() == 0 {
		if pile.IfStep() {
			return false
		}
		if e.init != nil && !e.init.Execute(pile) {
			return false
		}
		if !pile.SetState(1) {
			return false
		}
	}
	for {
		switch pile.State() {
		case 1:
			if e.cond != nil {
				if !e.cond.Execute(pile) {
					return false
				}
				if !pile.GetVal() {
					return pj.Return(pile)
				}
			}
			if !pile.SetState(2) {
				return false
			}
		case 2:
			if e.body != nil && !e.body.Execute(pile) {
				if pile.IfContinue(3, e.label) {
					continue
				}
				return pj.BreakReturn(pile, e.label)
			}
			if !pile.SetState(3) {
				return false
			}
		case 3:
			if e.incr != nil && !e.incr.Execute(pile) {
				return false
			}
			if !pile.SetStateLimit(1, 0) {
				return false
			}
		}
	}
}

func (e *forInstr) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile := pj.RestoreStack(e)
	if pile == nil || !pile.needState(0, 3) {
		return
	}
	var part Instr
	switch pile.State() {
	case 0:
		part = e.init
	case 1:
		part = e.cond
	case 2:
		part = e.body
	case 3:
		part = e.incr
	}
	if part != nil {
		part.RestoreState(pile, true)
	}
}

// repeatInstr is [label:] repeat (count) body. The remaining count is kept
// as the frame result.
type repeatInstr struct {
	instrBase
	label string
	count Instr
	body  Instr
}

func (e *repeatInstr) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	if pile.State() == 0 {
		if pile.IfStep() {
			return false
		}
		if !e.count.Execute(pile) {
			return false
		}
		if isNanVar(pile.Var()) {
			pile.SetError(ErrNan, &e.tok)
			return pj.Return(pile)
		}
		n := newDefinedVar("", NewType(TypInt))
		n.ival = pile.Var().GetValInt()
		pile.SetVar(n)
		if !pile.SetState(1) {
			return false
		}
	}
	for {
		if pile.State() == 1 {
			left := pile.Var()
			if left.ival <= 0 {
				return pj.Return(pile)
			}
			left.ival--
			if !pile.SetState(2) {
				return false
			}
		}
		pile2 := pile.AddStack(nil)
		if e.body != nil && !e.body.Execute(pile2) {
			if pile.IfContinue(1, e.label) {
				continue
			}
			return pj.BreakReturn(pile, e.label)
		}
		pile2.Delete()
		if !pile.SetStateLimit(1, 0) {
			return false
		}
	}
}

func (e *repeatInstr) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile := pj.RestoreStack(e)
	if pile == nil {
		return
	}
	if !pile.needState(0, 2) {
		return
	}
	if pile.State() == 0 {
		e.count.RestoreState(pile, true)
		return
	}
	if !pile.needVar() {
		return
	}
	if pile2 := pile.RestoreStack(nil); pile2 != nil && e.body != nil {
		e.body.RestoreState(pile2, true)
	}
}

// switchCase maps a constant to the first statement of its case
type switchCase struct {
	value     *Var
	isDefault bool
	stmt      int
}

// switchInstr is [label:] switch (value) { case k: ... default: ... }.
// The frame state is one past the index of the running statement.
type switchInstr struct {
	instrBase
	label string
	value Instr
	cases []switchCase
	stmts []Instr
}

func (e *switchInstr) Execute(pj *Stack) bool {
	pile := pj.AddStackBlock(e)
	if pile.State() == 0 {
		if !e.value.Execute(pile) {
			return false
		}
		v := pile.Var()
		start := -1
		for _, c := range e.cases {
			if c.isDefault {
				if start < 0 {
					start = c.stmt
				}
				continue
			}
			if v.Equals(c.value) {
				start = c.stmt
				break
			}
		}
		if start < 0 {
			return pj.Return(pile)
		}
		if !pile.SetState(start + 1) {
			return false
		}
	}
	for pile.State()-1 < len(e.stmts) {
		if !e.stmts[pile.State()-1].Execute(pile) {
			if pile.Error() != signalBreak {
				return false
			}
			return pj.BreakReturn(pile, e.label)
		}
		if !pile.IncState() {
			return false
		}
	}
	return pj.Return(pile)
}

func (e *switchInstr) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile := pj.RestoreStack(e)
	if pile == nil || !pile.needState(0, len(e.stmts)+1) {
		return
	}
	if pile.State() == 0 {
		e.value.RestoreState(pile, true)
	} else if i := pile.State() - 1; i < len(e.stmts) {
		e.stmts[i].RestoreState(pile, true)
	}
}

// breakInstr is break or continue, with an optional label
type breakInstr struct {
	instrBase
	label string
	cont  bool
}

func (e *breakInstr) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	if pile.IfStep() {
		return false
	}
	if e.cont {
		pile.SetBreak(signalContinue, e.label)
	} else {
		pile.SetBreak(signalBreak, e.label)
	}
	return pj.Return(pile)
}

func (e *breakInstr) RestoreState(pj *Stack, main bool) {
	if main {
		pj.RestoreStack(e)
	}
}

// returnInstr is return [expr];
type returnInstr struct {
	instrBase
	expr Instr
}

func (e *returnInstr) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	if pile.State() == 0 {
		if e.expr != nil && !e.expr.Execute(pile) {
			return false
		}
		pile.SetState(1)
	}
	if pile.AddStack(nil).IfStep() {
		return false
	}
	pile.SetRetVar(pile.Var())
	return pj.Return(pile)
}

func (e *returnInstr) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile := pj.RestoreStack(e)
	if pile == nil || !pile.needState(0, 1) || e.expr == nil {
		return
	}
	if pile.State() == 0 {
		e.expr.RestoreState(pile, true)
	} else {
		pile.needVar()
	}
}

// throwInstr raises a script exception. Zero is ignored.
type throwInstr struct {
	instrBase
	expr Instr
}

func (e *throwInstr) Execute(pj *Stack) bool {
	pile := pj.AddStack(e)
	if pile.State() == 0 {
		if !e.expr.Execute(pile) {
			return false
		}
		pile.SetState(1)
	}
	if pile.AddStack(nil).IfStep() {
		return false
	}
	n := pile.Var().GetValInt()
	switch {
	case n < 0:
		pile.SetError(ErrBadThrow, &e.tok)
	case n > 0:
		pile.SetError(ErrorCode(n), &e.tok)
	}
	return pj.Return(pile)
}

func (e *throwInstr) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile := pj.RestoreStack(e)
	if pile == nil || !pile.needState(0, 1) {
		return
	}
	if pile.State() == 0 {
		e.expr.RestoreState(pile, true)
	} else {
		pile.needVar()
	}
}

// catchClause is catch (cond) body. An integer condition matches an
// exception with that number; a boolean condition is tested on every
// exception and, when the script has a budget, on every pause.
type catchClause struct {
	tok  Token
	cond Instr
	body Instr
}

// tryInstr is try body catch... [finally]. The first frame runs the body;
// the secondary frame keeps the pending exception in its state and, for a
// pending return or labelled break, the return value or label as its
// result, while catch conditions, catch bodies and finally run above it.
type tryInstr struct {
	instrBase
	body    Instr
	catches []catchClause
	finally Instr
}

const catchBase = -100

func (t *tryInstr) Execute(pj *Stack) bool {
	pile1 := pj.AddStack(t)
	if pile1.IfStep() {
		return false
	}
	pile0 := pj.AddStack2()
	pile2 := pile0.AddStack(nil)

	if pile1.State() == 0 {
		if t.body.Execute(pile1) {
			if t.finally == nil {
				return pj.Return(pile1)
			}
			pile0.state = 0
			pile1.SetState(-2)
		} else {
			val := pile1.Error()
			if val == ErrNone && (pile1.data.initTimer <= 0 || len(t.catches) == 0) {
				return false
			}
			pile0.state = int(val)
			t.stash(pile0, val)
			pile1.data.err = ErrNone
			pile1.data.label = ""
			pile1.SetState(1)
		}
	}

	val := ErrorCode(pile0.state)
	state := pile1.State()
	if state > 0 && val < 0 {
		state = t.afterCatches(pile1)
	}
	for state > 0 {
		i := (state - 1) / 2
		if i >= len(t.catches) {
			break
		}
		if (state-1)%2 == 0 {
			if !t.catches[i].cond.Execute(pile2) {
				return false
			}
			state++
			pile1.SetState(state)
		}
		if catchMatches(pile2.Var(), val) {
			state = catchBase - i
			pile1.SetState(state)
			break
		}
		state++
		pile1.SetState(state)
	}

	if state > 0 {
		if val == ErrNone {
			pile1.SetState(0)
			if pile2.next != nil {
				pile2.next.Delete()
			}
			return false
		}
		if t.finally == nil {
			t.reraise(pile0, val)
			return pj.Return(pile2)
		}
		state = -1
		pile1.SetState(state)
	}

	if state <= catchBase {
		i := catchBase - state
		if !t.catches[i].body.Execute(pile2) {
			return false
		}
		t.drop(pile0)
		if t.finally == nil {
			return pj.Return(pile2)
		}
		state = -2
		pile1.SetState(state)
	}

	if !t.finally.Execute(pile2) {
		if pile2.IsOk() {
			return false
		}
		t.drop(pile0)
		return pj.Return(pile2)
	}
	if state == -1 {
		t.reraise(pile0, val)
	}
	return pj.Return(pile2)
}

// afterCatches skips the catch clauses for a pending signal
func (t *tryInstr) afterCatches(pile1 *Stack) int {
	s := 1 + 2*len(t.catches)
	pile1.SetState(s)
	return s
}

// stash moves the return value or break label of a pending signal into the
// secondary frame
func (t *tryInstr) stash(pile0 *Stack, val ErrorCode) {
	switch {
	case val == signalReturn:
		pile0.SetVar(pile0.data.retVar)
		pile0.data.retVar = nil
	case val < 0 && pile0.data.label != "":
		l := newDefinedVar("", NewType(TypString))
		l.sval = pile0.data.label
		pile0.SetVar(l)
	}
}

// reraise raises the pending exception or signal again
func (t *tryInstr) reraise(pile0 *Stack, val ErrorCode) {
	d := pile0.data
	label := ""
	if val == signalReturn {
		if d.retVar != nil {
			d.retVar.release()
		}
		d.retVar = pile0.result
		pile0.result = nil
	} else if val < 0 && pile0.result != nil {
		label = pile0.result.sval
	}
	pile0.resetError(val, d.errStart, d.errEnd, label)
}

// drop forgets the pending exception once a catch handled it
func (t *tryInstr) drop(pile0 *Stack) {
	pile0.state = 0
	pile0.SetVar(nil)
}

func catchMatches(cond *Var, val ErrorCode) bool {
	if cond == nil {
		return false
	}
	if cond.typ.typ == TypBoolean {
		return cond.GetValBool()
	}
	return val > 0 && cond.GetValInt() == int64(val)
}

func (t *tryInstr) RestoreState(pj *Stack, main bool) {
	if !main {
		return
	}
	pile1 := pj.RestoreStack(t)
	if pile1 == nil {
		return
	}
	state := pile1.State()
	if !t.validState(state) {
		pile1.restoreFailed("try state %d", state)
		return
	}
	if state == 0 {
		t.body.RestoreState(pile1, true)
		return
	}
	if pj.next2 == nil {
		return
	}
	pile2 := pj.next2.RestoreStack(nil)
	if pile2 == nil {
		return
	}
	switch {
	case state > 0 && (state-1)%2 == 0 && (state-1)/2 < len(t.catches):
		t.catches[(state-1)/2].cond.RestoreState(pile2, true)
	case state <= catchBase:
		t.catches[catchBase-state].body.RestoreState(pile2, true)
	case state < 0 && t.finally != nil:
		t.finally.RestoreState(pile2, true)
	}
}

// validState reports whether state is one the try frame can hold: the body,
// a catch condition, a catch body, or finally after -1 (re-raise) or -2
func (t *tryInstr) validState(state int) bool {
	n := len(t.catches)
	switch {
	case state >= 0:
		return state <= 1+2*n
	case state <= catchBase:
		return catchBase-state < n
	default:
		return t.finally != nil && state >= -2
	}
}

// hasReturn reports whether every path through i ends with a return
func hasReturn(i Instr) bool {
	switch n := i.(type) {
	case *returnInstr:
		return true
	case *blockInstr:
		return len(n.stmts) > 0 && hasReturn(n.stmts[len(n.stmts)-1])
	case *ifInstr:
		return n.then != nil && n.els != nil && hasReturn(n.then) && hasReturn(n.els)
	}
	return false
}
