package cbot

import "fmt"

// BlockKind tells how a frame scopes local variables
type BlockKind int

const (
	BlockInstruction BlockKind = iota // plain evaluation frame
	BlockBlock                        // { } block owning locals
	BlockFunction                     // function activation, variable lookup stops here
)

// defaultStateLimit is how far past an exhausted budget ordinary state
// changes may go before the interpreter yields
const defaultStateLimit = -10

// runData is shared by every frame of one stack chain
type runData struct {
	env       *Environment
	prog      *Program
	user      any
	initTimer int
	timer     int
	err       ErrorCode
	errStart  int
	errEnd    int
	errFunc   string
	label     string
	retVar    *Var
	badState  error
}

// Stack is one frame of the resumable evaluation stack. Each instruction
// pushes a frame on entry; state records which sub-step has completed and
// result caches the value computed so far, so a suspended Execute can be
// called again and continue where it stopped.
type Stack struct {
	data   *runData
	prev   *Stack
	next   *Stack
	next2  *Stack
	instr  Instr
	fn     *Function
	kind   BlockKind
	state  int
	step   int
	depth  int
	result *Var
	vars   []*Var
	saved  *frameIdent
}

// frameIdent identifies the node that owned a saved frame by the start
// offset and id of its token. Frames no node claimed have start -1.
type frameIdent struct {
	start int32
	id    TokenID
}

func identOf(instr Instr) frameIdent {
	if instr == nil {
		return frameIdent{start: -1}
	}
	tok := instr.Token()
	return frameIdent{start: int32(tok.Start), id: tok.ID}
}

func newRootStack(data *runData) *Stack {
	return &Stack{data: data, kind: BlockBlock}
}

// newTempStack creates an independent stack that runs without a budget
func newTempStack(env *Environment) *Stack {
	return newRootStack(&runData{env: env, initTimer: 1 << 20, timer: 1 << 20})
}

func (s *Stack) push(instr Instr, kind BlockKind) *Stack {
	if s.next != nil {
		if s.next.instr == nil {
			s.next.instr = instr
		}
		return s.next
	}
	p := &Stack{data: s.data, prev: s, instr: instr, kind: kind, depth: s.depth + 1}
	s.next = p
	return p
}

// AddStack returns the frame above s, creating it on first entry
func (s *Stack) AddStack(instr Instr) *Stack {
	return s.push(instr, BlockInstruction)
}

// AddStackBlock is AddStack for a frame that owns local variables
func (s *Stack) AddStackBlock(instr Instr) *Stack {
	return s.push(instr, BlockBlock)
}

// addFunctionStack pushes the activation frame of fn
func (s *Stack) addFunctionStack(fn *Function) *Stack {
	p := s.push(nil, BlockFunction)
	p.fn = fn
	return p
}

// AddStack2 returns the secondary frame above s, used when a construct
// needs a second independent branch (finally blocks, destructors)
func (s *Stack) AddStack2() *Stack {
	if s.next2 != nil {
		return s.next2
	}
	p := &Stack{data: s.data, prev: s, kind: BlockBlock, depth: s.depth + 1}
	s.next2 = p
	return p
}

// StackOver reports whether the chain exceeds the configured depth
func (s *Stack) StackOver() bool {
	max := 990
	if s.data.env != nil && s.data.env.config.MaxStack > 0 {
		max = s.data.env.config.MaxStack
	}
	return s.depth > max
}

// Delete releases the frame, everything above it and their variables
func (s *Stack) Delete() {
	if s == nil {
		return
	}
	if s.next != nil {
		s.next.Delete()
	}
	if s.next2 != nil {
		s.next2.Delete()
	}
	vars := s.vars
	s.vars = nil
	releaseVars(vars)
	if s.result != nil {
		s.result.release()
		s.result = nil
	}
	if p := s.prev; p != nil {
		if p.next == s {
			p.next = nil
		} else if p.next2 == s {
			p.next2 = nil
		}
	}
}

// Return moves the result of child into s and discards the frames above s
func (s *Stack) Return(child *Stack) bool {
	if child == s {
		return true
	}
	s.SetVar(child.result)
	child.result = nil
	if s.next != nil {
		s.next.Delete()
	}
	if s.next2 != nil {
		s.next2.Delete()
	}
	return s.IsOk()
}

// ReturnKeep moves the result of child into s and keeps the frames
func (s *Stack) ReturnKeep(child *Stack) bool {
	if child == s {
		return true
	}
	s.SetVar(child.result)
	child.result = nil
	return s.IsOk()
}

// BreakReturn consumes a pending break addressed to the loop labelled label
func (s *Stack) BreakReturn(child *Stack, label string) bool {
	if s.data.err >= 0 || s.data.err == signalReturn {
		return false
	}
	if s.data.label != "" && s.data.label != label {
		return false
	}
	s.data.err = ErrNone
	s.data.label = ""
	return s.Return(child)
}

// IfContinue consumes a pending continue addressed to the loop labelled
// label and moves the loop to state
func (s *Stack) IfContinue(state int, label string) bool {
	if s.data.err != signalContinue {
		return false
	}
	if s.data.label != "" && s.data.label != label {
		return false
	}
	s.state = state
	s.data.err = ErrNone
	s.data.label = ""
	if s.next != nil {
		s.next.Delete()
	}
	return true
}

// State returns the sub-step marker
func (s *Stack) State() int { return s.state }

// SetState records a sub-step and spends one unit of budget. It returns
// false when the script should yield.
func (s *Stack) SetState(n int) bool {
	return s.SetStateLimit(n, defaultStateLimit)
}

// SetStateLimit is SetState with an explicit yield threshold
func (s *Stack) SetStateLimit(n, limit int) bool {
	s.state = n
	s.data.timer--
	return s.data.timer > limit
}

// IncState advances to the next sub-step
func (s *Stack) IncState() bool {
	return s.SetState(s.state + 1)
}

// IfStep reports whether execution must pause at this step point. Only the
// step mode (a budget of zero) pauses, once per frame.
func (s *Stack) IfStep() bool {
	if s.data.initTimer > 0 {
		return false
	}
	s.step++
	return s.step == 1
}

// IsOk reports whether no error or control signal is pending
func (s *Stack) IsOk() bool { return s.data.err == ErrNone }

// Error returns the pending error or signal
func (s *Stack) Error() ErrorCode { return s.data.err }

// ErrorPos returns the source range of the pending error
func (s *Stack) ErrorPos() (int, int) { return s.data.errStart, s.data.errEnd }

// SetError raises a runtime error at tok. An error already pending is kept.
func (s *Stack) SetError(code ErrorCode, tok *Token) {
	if code != ErrNone && s.data.err != ErrNone {
		return
	}
	s.data.err = code
	if code == ErrNone {
		s.data.label = ""
		return
	}
	if tok != nil {
		s.data.errStart, s.data.errEnd = tok.Start, tok.End
	}
	s.data.errFunc = s.functionName()
}

// resetError replaces the pending error, used when a try re-raises
func (s *Stack) resetError(code ErrorCode, start, end int, label string) {
	s.data.err = code
	s.data.errStart, s.data.errEnd = start, end
	s.data.label = label
}

// SetBreak raises a control signal with an optional loop label
func (s *Stack) SetBreak(signal ErrorCode, label string) {
	s.data.err = signal
	s.data.label = label
}

// SetRetVar raises the return signal carrying a copy of v
func (s *Stack) SetRetVar(v *Var) {
	if s.data.retVar != nil {
		s.data.retVar.release()
	}
	s.data.retVar = nil
	if v != nil {
		s.data.retVar = v.Clone("")
	}
	s.data.err = signalReturn
}

// GetRetVar consumes a pending return signal, moving the returned value into
// the frame result
func (s *Stack) GetRetVar(ok bool) bool {
	if s.data.err != signalReturn {
		return ok
	}
	s.SetVar(s.data.retVar)
	s.data.retVar = nil
	s.data.err = ErrNone
	return true
}

// Var returns the cached result
func (s *Stack) Var() *Var { return s.result }

// SetVar stores v as the result, taking ownership
func (s *Stack) SetVar(v *Var) {
	if s.result != nil && s.result != v {
		s.result.release()
	}
	s.result = v
}

// SetCopyVar stores a copy of v as the result
func (s *Stack) SetCopyVar(v *Var) {
	if v == nil {
		s.SetVar(nil)
		return
	}
	s.SetVar(v.Clone(v.name))
}

// GetVal returns the cached result as a boolean
func (s *Stack) GetVal() bool {
	return s.result != nil && s.result.GetValBool()
}

// AddVar declares a local in the nearest block or function frame
func (s *Stack) AddVar(v *Var) {
	p := s
	for p.kind == BlockInstruction && p.prev != nil {
		p = p.prev
	}
	p.vars = append(p.vars, v)
	if env := s.data.env; env != nil {
		env.logger.TraceCat(CatVariable, "declare %s", v.debugString())
	}
}

// FindVar looks up a local by name, innermost first, stopping at the
// enclosing function. Host globals are searched last.
func (s *Stack) FindVar(name string) *Var {
	for p := s; p != nil; p = p.prev {
		for i := len(p.vars) - 1; i >= 0; i-- {
			if p.vars[i].name == name {
				return p.vars[i]
			}
		}
		if p.kind == BlockFunction {
			break
		}
	}
	if s.data.env != nil {
		return s.data.env.FindGlobal(name)
	}
	return nil
}

// Locals returns the variables declared in this frame
func (s *Stack) Locals() []*Var { return s.vars }

// Next returns the frame above s
func (s *Stack) Next() *Stack { return s.next }

// Instr returns the instruction owning the frame
func (s *Stack) Instr() Instr { return s.instr }

// Kind returns the block kind of the frame
func (s *Stack) Kind() BlockKind { return s.kind }

// UserPtr returns the host data passed to Run
func (s *Stack) UserPtr() any { return s.data.user }

// functionName returns the name of the innermost function of the chain
func (s *Stack) functionName() string {
	for p := s; p != nil; p = p.prev {
		if p.fn != nil {
			return p.fn.name
		}
	}
	return ""
}

// deepest returns the last frame of the primary chain
func (s *Stack) deepest() *Stack {
	p := s
	for p.next != nil {
		p = p.next
	}
	return p
}

// RestoreStack returns the restored frame above s, binding it to instr.
// It returns nil when the saved chain ends at s. A frame saved for another
// node fails the restore.
func (s *Stack) RestoreStack(instr Instr) *Stack {
	if s == nil || s.next == nil {
		return nil
	}
	p := s.next
	if p.instr == nil && instr != nil {
		p.instr = instr
		if p.saved != nil && p.saved.start >= 0 && *p.saved != identOf(instr) {
			tok := instr.Token()
			p.restoreFailed("frame saved at offset %d restored onto %q at offset %d", p.saved.start, tok.Text, tok.Start)
		}
	}
	return p
}

// restoreFailed records the first inconsistency found while rebinding
// restored frames
func (s *Stack) restoreFailed(format string, args ...any) {
	if s.data.badState == nil {
		s.data.badState = fmt.Errorf("%w: "+format, append([]any{errBadState}, args...)...)
	}
}

// needState fails the restore unless lo <= state <= hi
func (s *Stack) needState(lo, hi int) bool {
	if s.state < lo || s.state > hi {
		s.restoreFailed("state %d outside %d..%d", s.state, lo, hi)
		return false
	}
	return true
}

// needVar fails the restore when a frame past its first step lost the
// value that step computed
func (s *Stack) needVar() bool {
	if s.result == nil {
		s.restoreFailed("frame at state %d has no cached value", s.state)
		return false
	}
	return true
}
