package lang

// file machine.go implements the stack-based Machine: a value stack plus a
// single shared register Tree (dynamic scope -- there are no call frames).
// Every AST node is lowered, in exec.go, to a short sequence of the atomic
// operations defined here.

// Machine is the runtime for one REPL session. Its register tree persists
// across every top-level program executed in that session (spec.md §4.2);
// its stack is drained and printed by the REPL after each one.
type Machine struct {
	stack      []Value
	registers  *Tree
	host       Builtins
	primitives map[string]bool
}

// Builtins is the set of closed-vocabulary shell verbs the Machine dispatches
// to when it evaluates a Value::Builtin. It is supplied by the embedding
// program (the REPL engine passes an internal/host Shell) so the language
// core stays independent of any concrete
// filesystem implementation.
type Builtins interface {
	Dispatch(m *Machine, b Builtin, argc int)
}

// NewMachine creates a Machine with an empty register tree, registers the
// host arithmetic/comparison/io primitive functions into it, and wires b as
// the handler for the closed built-in verbs.
func NewMachine(b Builtins) *Machine {
	m := &Machine{registers: newTree(), host: b, primitives: map[string]bool{}}
	registerPrimitives(m.registers)
	for _, k := range m.registers.Keys() {
		m.primitives[k] = true
	}
	return m
}

// Registers exposes the Machine's shared register tree, e.g. for session
// persistence (internal/store encodes it directly).
func (m *Machine) Registers() *Tree { return m.registers }

// IsPrimitive reports whether name is one of the host primitive functions
// registered at Machine construction, rather than a user-assigned register.
// Session persistence uses this to snapshot only user state.
func (m *Machine) IsPrimitive(name string) bool { return m.primitives[name] }

// UserRegisterKeys returns the register tree's keys, in insertion order,
// excluding the host primitive functions.
func (m *Machine) UserRegisterKeys() []string {
	var out []string
	for _, k := range m.registers.Keys() {
		if !m.primitives[k] {
			out = append(out, k)
		}
	}
	return out
}

// Push pushes v onto the top of the stack.
func (m *Machine) Push(v Value) {
	m.stack = append(m.stack, v)
}

// Pop removes and returns the top of the stack. Popping an empty stack
// yields the absent marker (Number(0), spec.md's Open Question resolution)
// rather than panicking -- a malformed or truncated program should degrade
// silently, per the "no catastrophic errors" spirit of spec.md §7.
func (m *Machine) Pop() Value {
	if len(m.stack) == 0 {
		return Value{}
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

// PopNum pops and numerically coerces the top of the stack, a convenience
// for native functions such as add/sub that work over numbers.
func (m *Machine) PopNum() float64 { return m.Pop().Num() }

// PopStr pops and string-coerces the top of the stack.
func (m *Machine) PopStr() string { return m.Pop().Str() }

// Depth reports the current stack depth, used by Call to find its result.
func (m *Machine) Depth() int { return len(m.stack) }

// Truncate drops the stack back down to depth, discarding anything above it.
func (m *Machine) Truncate(depth int) {
	if depth < len(m.stack) {
		m.stack = m.stack[:depth]
	}
}

// Load looks up name in the register tree. An unbound name yields the
// absent marker (Number(0)), the same value an empty Pop yields, per
// spec.md's Open Question resolution.
func (m *Machine) Load(name string) Value {
	if r := m.registers.Get(name); r != nil {
		return r.Val
	}
	return Value{}
}

// Store binds name to v in the register tree: an existing cell is mutated
// in place (so other holders, e.g. an aliased closure Env, see the update),
// a new one is created otherwise.
func (m *Machine) Store(name string, v Value) {
	m.registers.Set(name, v)
}

// Index resolves container[key] to a shared cell. Indexing a Tree
// autovivifies a fresh empty Tree child when key is absent (the one
// autovivification case spec.md carves out); indexing a List returns the
// existing cell at the numeric index, or a detached cell if out of range;
// indexing anything else (number, string, function) also yields a detached
// cell, so that a subsequent Assign is observable but inert.
func (m *Machine) Index(container Value, key Value) *Ref {
	switch container.kind {
	case KindTree:
		if container.tree == nil {
			return NewRef(Value{})
		}
		return container.tree.GetOrCreate(key.Str())
	case KindList:
		if container.list == nil {
			return NewRef(Value{})
		}
		idx := int(key.Num())
		if r := container.list.At(idx); r != nil {
			return r
		}
		return NewRef(Value{})
	default:
		return NewRef(Value{})
	}
}

// Assign mutates ref's held value in place, the operation that makes
// indexed/dotted writes visible through every alias of the same container
// (spec.md's aliasing property).
func (m *Machine) Assign(ref *Ref, v Value) {
	ref.Val = v
}

// Call invokes fn. For a native function, fn.Native pops its own arguments
// directly off the Machine and is responsible for pushing its own result.
// For a user-defined function, Call pops exactly len(Params) values --
// pushed by the caller in reverse source order, so popping them here binds
// them in natural left-to-right order -- into the shared register tree
// (overwriting any existing binding of the same name), runs
// Body, and leaves exactly one result value on the stack: the last value
// the body pushed, if any, with any other values the body left behind
// discarded. A body that pushes nothing (e.g. one that only assigns or
// loops) yields the absent marker.
func (m *Machine) Call(fn *Function) {
	if fn.Native != nil {
		fn.Native(m)
		return
	}

	for _, param := range fn.Params {
		m.Store(param, m.Pop())
	}

	depth0 := m.Depth()
	if fn.Body != nil {
		ExecSuite(m, fn.Body)
	}

	if m.Depth() > depth0 {
		result := m.Pop()
		m.Truncate(depth0)
		m.Push(result)
		return
	}
	m.Push(Value{})
}

// Dispatch runs the closed built-in verb b against the configured host. argc
// is the number of arguments the caller pushed for this invocation (0 for a
// bare builtin reference), since built-ins such as ls take an optional
// argument and otherwise have no way to distinguish "no argument" from
// "whatever was already on the stack".
func (m *Machine) Dispatch(b Builtin, argc int) {
	if m.host != nil {
		m.host.Dispatch(m, b, argc)
	}
}

// DrainForDisplay pops every remaining value off the stack, most-recently
// pushed first, and returns their Display text -- the REPL's end-of-program
// print contract (spec.md §6).
func (m *Machine) DrainForDisplay() []string {
	var out []string
	for len(m.stack) > 0 {
		out = append(out, Display(m.Pop()))
	}
	return out
}
