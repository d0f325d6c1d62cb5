// Package lang implements the dune scripting language: its lexer, parser,
// AST, runtime value universe, and the stack-based Machine that executes it.
package lang

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dunelang/dune/internal/util"
)

// Kind is the tag of a Value's variant.
type Kind int

const (
	KindNumber Kind = iota
	KindString
	KindList
	KindTree
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindTree:
		return "tree"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Value is the single runtime value type of dune. The zero Value is
// Number(0), which doubles as the "absent" marker produced by a failed
// lookup or a stack-underflow read (see Machine.Pop and Machine.Load).
type Value struct {
	kind Kind
	num  float64
	str  string
	list *List
	tree *Tree
	fn   *Function
}

// Ref is a shared, mutable cell holding a Value. List and Tree interiors are
// made of *Ref cells so that indexed/dotted assignment is observable through
// every other holder of the same cell (spec invariant: assignment mutates in
// place, never rebinds).
type Ref struct {
	Val Value
}

// NewRef wraps v in a fresh cell.
func NewRef(v Value) *Ref {
	return &Ref{Val: v}
}

// List is the backing store of a Value of KindList: an ordered, 0-indexed
// sequence of shared cells.
type List struct {
	items []*Ref
}

// NewList builds a List value from the given items, each boxed in its own
// cell.
func NewList(items ...Value) Value {
	l := &List{items: make([]*Ref, len(items))}
	for i := range items {
		l.items[i] = NewRef(items[i])
	}
	return Value{kind: KindList, list: l}
}

func (l *List) Len() int { return len(l.items) }

// At returns the cell at idx, or nil if idx is out of range.
func (l *List) At(idx int) *Ref {
	if idx < 0 || idx >= len(l.items) {
		return nil
	}
	return l.items[idx]
}

func (l *List) Append(v Value) {
	l.items = append(l.items, NewRef(v))
}

// Tree is the backing store of a Value of KindTree: an insertion-ordered
// string-keyed map of shared cells, used both as a dictionary and as the
// record type addressed by dotted access.
type Tree struct {
	keys []string
	vals map[string]*Ref
}

// NewTreeValue builds an empty Tree value.
func NewTreeValue() Value {
	return Value{kind: KindTree, tree: newTree()}
}

func newTree() *Tree {
	return &Tree{vals: make(map[string]*Ref)}
}

// Get returns the cell bound to key, or nil if key is not present.
func (t *Tree) Get(key string) *Ref {
	return t.vals[key]
}

// GetOrCreate returns the cell bound to key, inserting a fresh empty Tree
// child under key first if it is not already present (the autovivification
// behavior Machine.Index performs on a Tree container).
func (t *Tree) GetOrCreate(key string) *Ref {
	if r, ok := t.vals[key]; ok {
		return r
	}
	r := NewRef(NewTreeValue())
	t.set(key, r)
	return r
}

// Set binds key to a fresh cell holding v, preserving insertion order for new
// keys and overwriting the existing cell's value in place for keys that
// already exist (so other holders of that cell observe the update too).
func (t *Tree) Set(key string, v Value) {
	if r, ok := t.vals[key]; ok {
		r.Val = v
		return
	}
	t.set(key, NewRef(v))
}

func (t *Tree) set(key string, r *Ref) {
	if _, ok := t.vals[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.vals[key] = r
}

func (t *Tree) Len() int { return len(t.keys) }

// Keys returns the keys of the tree in insertion order.
func (t *Tree) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Function is a callable Value: either the body of a user-defined or
// anonymous function together with the (shared, dynamic-scope) register
// tree it closed over, or a host-provided native operation.
type Function struct {
	// Params are the parameter identifiers, bound in declaration order by
	// popping the call's argument cells off the Machine stack.
	Params []string

	// Body is the Suite to execute on call; nil for native functions.
	Body *Suite

	// Env is the register tree captured at the point the function value was
	// created. Because dune has no lexical scope, every Function created
	// during a single REPL session captures the same shared tree; Env exists
	// so the data model has a concrete snapshot reference, as spec'd.
	Env *Tree

	// Native, if non-nil, implements a host-provided built-in function
	// (e.g. add, eq, println) instead of a user-defined body. It receives
	// the Machine and is responsible for popping its own arguments and
	// pushing its result(s), exactly like the AST-bodied case.
	Native func(m *Machine)

	// Name is used only for display/debugging; it is empty for anonymous
	// functions.
	Name string
}

// NewNumber builds a Number value.
func NewNumber(n float64) Value { return Value{kind: KindNumber, num: n} }

// NewString builds a String value.
func NewString(s string) Value { return Value{kind: KindString, str: s} }

// NewFunction builds a Function value.
func NewFunction(fn *Function) Value { return Value{kind: KindFunction, fn: fn} }

// Kind returns the tag of v.
func (v Value) Kind() Kind { return v.kind }

// IsList reports whether v is a List.
func (v Value) IsList() bool { return v.kind == KindList }

// IsTree reports whether v is a Tree.
func (v Value) IsTree() bool { return v.kind == KindTree }

// IsFunction reports whether v is a Function.
func (v Value) IsFunction() bool { return v.kind == KindFunction }

// List returns the backing *List of v, or nil if v is not a List.
func (v Value) List() *List { return v.list }

// Tree returns the backing *Tree of v, or nil if v is not a Tree.
func (v Value) Tree() *Tree { return v.tree }

// Function returns the backing *Function of v, or nil if v is not a
// Function.
func (v Value) Function() *Function { return v.fn }

// Num coerces v to a float64. Non-numeric values use the same lenient rules
// as Bool/Str: a numeric-looking string parses, a non-numeric string or a
// container yields 0.
func (v Value) Num() float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Str coerces v to its display text. This is the same rendering used by
// Display, except containers and functions fall back to their Display form
// rather than being treated as an error.
func (v Value) Str() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return formatNumber(v.num)
	default:
		return Display(v)
	}
}

// Bool coerces v to a boolean per spec.md §3: zero/empty is false, anything
// else is true.
func (v Value) Bool() bool {
	switch v.kind {
	case KindNumber:
		return v.num != 0
	case KindString:
		return v.str != ""
	case KindList:
		return v.list != nil && v.list.Len() > 0
	case KindTree:
		return v.tree != nil && v.tree.Len() > 0
	case KindFunction:
		return true
	default:
		return false
	}
}

// formatNumber renders a float64 using the shortest round-trip decimal, the
// same contract json.Marshal and strconv.FormatFloat's 'g'/-1 precision
// combination give for IEEE-754 doubles.
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// Display renders v the way the REPL prints drained stack values and the way
// the `str` builtin stringifies containers: numbers use shortest round-trip
// decimal, strings print their raw text, lists as "[a, b, ...]", trees as
// "{k: v, ...}". Cyclic lists/trees are detected and rendered as "<cycle>"
// at the point the cycle closes, rather than recursing forever.
func Display(v Value) string {
	var sb strings.Builder
	displayInto(&sb, v, newVisited())
	return sb.String()
}

// visited tracks container identities seen on the current path so Display
// can stop at a cycle instead of recursing forever, per spec.md §5's note
// that trees/lists may contain reference cycles by construction.
type visited struct {
	seen util.KeySet[interface{}]
}

func newVisited() *visited { return &visited{seen: util.NewKeySet[interface{}]()} }

func (vd *visited) enter(ptr interface{}) bool {
	if vd.seen.Has(ptr) {
		return false
	}
	vd.seen.Add(ptr)
	return true
}

func (vd *visited) leave(ptr interface{}) {
	vd.seen.Remove(ptr)
}

func displayInto(sb *strings.Builder, v Value, vd *visited) {
	switch v.kind {
	case KindNumber:
		sb.WriteString(formatNumber(v.num))
	case KindString:
		sb.WriteString(v.str)
	case KindList:
		if v.list == nil {
			sb.WriteString("[]")
			return
		}
		if !vd.enter(v.list) {
			sb.WriteString("<cycle>")
			return
		}
		defer vd.leave(v.list)
		sb.WriteRune('[')
		for i, cell := range v.list.items {
			if i > 0 {
				sb.WriteString(", ")
			}
			displayInto(sb, cell.Val, vd)
		}
		sb.WriteRune(']')
	case KindTree:
		if v.tree == nil {
			sb.WriteString("{}")
			return
		}
		if !vd.enter(v.tree) {
			sb.WriteString("<cycle>")
			return
		}
		defer vd.leave(v.tree)
		sb.WriteRune('{')
		for i, k := range v.tree.keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			displayInto(sb, v.tree.vals[k].Val, vd)
		}
		sb.WriteRune('}')
	case KindFunction:
		name := "anonymous"
		if v.fn != nil && v.fn.Name != "" {
			name = v.fn.Name
		}
		sb.WriteString(fmt.Sprintf("<function %s>", name))
	default:
		sb.WriteString("<unknown>")
	}
}
