package lang

import "strings"

// file builtins.go registers the host primitive functions -- arithmetic,
// comparison, logic, and a handful of container/io helpers -- into a fresh
// register tree. These are ordinary Function values with a Native
// implementation; they are resolved and called exactly like user-defined
// functions (spec.md does not special-case them), which is why they live
// here rather than in the closed Builtin enum of ast.go.
//
// Every primitive below pops its own arguments directly off the Machine in
// left-to-right order -- the same convention evalCall sets up for
// user-defined functions -- and pushes exactly one result, except println
// and print, which push nothing.

func registerPrimitives(t *Tree) {
	for name, fn := range map[string]func(m *Machine){
		"add":     builtIn_Add,
		"sub":     builtIn_Sub,
		"mult":    builtIn_Mult,
		"div":     builtIn_Div,
		"mod":     builtIn_Mod,
		"eq":      builtIn_Eq,
		"neq":     builtIn_Neq,
		"lt":      builtIn_Lt,
		"le":      builtIn_Le,
		"gt":      builtIn_Gt,
		"ge":      builtIn_Ge,
		"and":     builtIn_And,
		"or":      builtIn_Or,
		"not":     builtIn_Not,
		"concat":  builtIn_Concat,
		"len":     builtIn_Len,
		"str":     builtIn_Str,
		"list":    builtIn_List,
		"dict":    builtIn_Dict,
		"append":  builtIn_Append,
		"keys":    builtIn_Keys,
		"type":    builtIn_Type,
		"println": builtIn_Println,
		"print":   builtIn_Print,
	} {
		t.Set(name, NewFunction(&Function{Name: name, Native: fn}))
	}
}

func builtIn_Add(m *Machine) {
	x := m.Pop()
	y := m.Pop()
	if x.Kind() == KindString || y.Kind() == KindString {
		m.Push(NewString(x.Str() + y.Str()))
		return
	}
	m.Push(NewNumber(x.Num() + y.Num()))
}

func builtIn_Sub(m *Machine) {
	x := m.PopNum()
	y := m.PopNum()
	m.Push(NewNumber(x - y))
}

func builtIn_Mult(m *Machine) {
	x := m.Pop()
	y := m.Pop()
	if x.Kind() == KindString {
		m.Push(NewString(strings.Repeat(x.Str(), int(y.Num()))))
		return
	}
	m.Push(NewNumber(x.Num() * y.Num()))
}

func builtIn_Div(m *Machine) {
	x := m.PopNum()
	y := m.PopNum()
	if y == 0 {
		m.Push(NewNumber(0))
		return
	}
	m.Push(NewNumber(x / y))
}

func builtIn_Mod(m *Machine) {
	x := int(m.PopNum())
	y := int(m.PopNum())
	if y == 0 {
		m.Push(NewNumber(0))
		return
	}
	m.Push(NewNumber(float64(x % y)))
}

func builtIn_Eq(m *Machine) {
	x := m.Pop()
	y := m.Pop()
	m.Push(boolValue(valuesEqual(x, y)))
}

func builtIn_Neq(m *Machine) {
	x := m.Pop()
	y := m.Pop()
	m.Push(boolValue(!valuesEqual(x, y)))
}

func valuesEqual(x, y Value) bool {
	if x.Kind() != y.Kind() {
		return false
	}
	switch x.Kind() {
	case KindNumber:
		return x.Num() == y.Num()
	case KindString:
		return x.Str() == y.Str()
	case KindList:
		return x.list == y.list
	case KindTree:
		return x.tree == y.tree
	case KindFunction:
		return x.fn == y.fn
	default:
		return false
	}
}

func builtIn_Lt(m *Machine) {
	x := m.PopNum()
	y := m.PopNum()
	m.Push(boolValue(x < y))
}

func builtIn_Le(m *Machine) {
	x := m.PopNum()
	y := m.PopNum()
	m.Push(boolValue(x <= y))
}

func builtIn_Gt(m *Machine) {
	x := m.PopNum()
	y := m.PopNum()
	m.Push(boolValue(x > y))
}

func builtIn_Ge(m *Machine) {
	x := m.PopNum()
	y := m.PopNum()
	m.Push(boolValue(x >= y))
}

func builtIn_And(m *Machine) {
	x := m.Pop().Bool()
	y := m.Pop().Bool()
	m.Push(boolValue(x && y))
}

func builtIn_Or(m *Machine) {
	x := m.Pop().Bool()
	y := m.Pop().Bool()
	m.Push(boolValue(x || y))
}

func builtIn_Not(m *Machine) {
	x := m.Pop().Bool()
	m.Push(boolValue(!x))
}

func builtIn_Concat(m *Machine) {
	x := m.PopStr()
	y := m.PopStr()
	m.Push(NewString(x + y))
}

func builtIn_Len(m *Machine) {
	v := m.Pop()
	switch v.Kind() {
	case KindList:
		m.Push(NewNumber(float64(v.list.Len())))
	case KindTree:
		m.Push(NewNumber(float64(v.tree.Len())))
	case KindString:
		m.Push(NewNumber(float64(len(v.str))))
	default:
		m.Push(NewNumber(0))
	}
}

func builtIn_Str(m *Machine) {
	m.Push(NewString(Display(m.Pop())))
}

// builtIn_List returns an n-length list of absent values. A variable-arity
// list(v1, v2, ...) isn't expressible under the fixed-arity Native stack
// convention, so callers build contents with append instead.
func builtIn_List(m *Machine) {
	n := int(m.PopNum())
	if n < 0 {
		n = 0
	}
	items := make([]Value, n)
	m.Push(NewList(items...))
}

func builtIn_Dict(m *Machine) {
	m.Push(NewTreeValue())
}

func builtIn_Append(m *Machine) {
	v := m.Pop()
	list := m.Pop()
	if list.Kind() == KindList && list.list != nil {
		list.list.Append(v)
	}
	m.Push(list)
}

func builtIn_Keys(m *Machine) {
	v := m.Pop()
	if v.Kind() != KindTree || v.tree == nil {
		m.Push(NewList())
		return
	}
	keys := v.tree.Keys()
	items := make([]Value, len(keys))
	for i, k := range keys {
		items[i] = NewString(k)
	}
	m.Push(NewList(items...))
}

func builtIn_Type(m *Machine) {
	m.Push(NewString(m.Pop().Kind().String()))
}

// builtIn_Println and builtIn_Print write to the output hook only; like the
// original shell's echo (which pops its argument with no matching push),
// they push nothing back, so a bare println(...)/print(...) statement
// leaves no residue for the end-of-program drain to print a second time.
func builtIn_Println(m *Machine) {
	v := m.Pop()
	println_hook(Display(v) + "\n")
}

func builtIn_Print(m *Machine) {
	v := m.Pop()
	println_hook(Display(v))
}

func boolValue(b bool) Value {
	if b {
		return NewNumber(1)
	}
	return NewNumber(0)
}

// println_hook is the sole I/O seam of the primitive functions, swapped out
// by the REPL engine (engine.go) so package lang never imports os directly.
var println_hook = func(s string) {}

// SetOutputHook installs the function println/print primitives write
// through. Called once by the REPL engine at startup.
func SetOutputHook(f func(s string)) {
	println_hook = f
}
