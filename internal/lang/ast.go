package lang

import (
	"fmt"
	"strconv"
	"strings"
)

// This file holds the AST: a closed set of tagged-variant node types, each
// represented the way Value is in value.go (one struct per variant level,
// a Kind discriminant, and only the fields relevant to that Kind populated).
// There is no virtual-method node hierarchy; Exec (exec.go) switches on Kind.

// Literal is a Value::Literal leaf: either a string or a number.
type Literal struct {
	IsString bool
	Str      string
	Num      float64
}

func (l Literal) String() string {
	if l.IsString {
		return strconv.Quote(l.Str)
	}
	return formatNumber(l.Num)
}

// Builtin is the closed enumeration of reserved shell verbs. Built-in names
// are never resolved via registers (spec invariant).
type Builtin int

const (
	BuiltinList Builtin = iota
	BuiltinChangeDir
	BuiltinMove
	BuiltinRemove
	BuiltinMakeDir
	BuiltinMakeFile
	BuiltinWorkingDir
	BuiltinExit
)

// builtinNames is the parse-time token -> built-in table (spec.md §4.4).
var builtinNames = map[string]Builtin{
	"ls":    BuiltinList,
	"cd":    BuiltinChangeDir,
	"mv":    BuiltinMove,
	"rm":    BuiltinRemove,
	"mkdir": BuiltinMakeDir,
	"mkf":   BuiltinMakeFile,
	"pwd":   BuiltinWorkingDir,
	"exit":  BuiltinExit,
}

func (b Builtin) String() string {
	for name, k := range builtinNames {
		if k == b {
			return name
		}
	}
	return "<unknown builtin>"
}

// IsReservedWord reports whether word names one of the closed built-ins.
// The parser tries this before treating word as a plain identifier.
func IsReservedWord(word string) bool {
	_, ok := builtinNames[word]
	return ok
}

// NameKind discriminates the three forms of Name.
type NameKind int

const (
	NameSimple NameKind = iota
	NameDot
	NameIndex
)

// Name is an access path: a bare identifier, or a head value followed by
// one or more ".field" or "[expr]" selectors. Every Dot/Index Name has a
// non-empty path (parser invariant).
type Name struct {
	Kind NameKind

	// Simple holds the identifier text when Kind == NameSimple.
	Simple string

	// Head is the leading value of a Dot/Index access path.
	Head *ValueExpr

	// DotPath holds the chain of field identifiers when Kind == NameDot.
	DotPath []string

	// IndexPath holds the chain of bracketed index expressions when
	// Kind == NameIndex.
	IndexPath []*ValueExpr
}

func (n *Name) String() string {
	switch n.Kind {
	case NameSimple:
		return n.Simple
	case NameDot:
		return fmt.Sprintf("%s.%s", n.Head, strings.Join(n.DotPath, "."))
	case NameIndex:
		var sb strings.Builder
		sb.WriteString(n.Head.String())
		for _, idx := range n.IndexPath {
			sb.WriteRune('[')
			sb.WriteString(idx.String())
			sb.WriteRune(']')
		}
		return sb.String()
	default:
		return "<unknown name>"
	}
}

// ValueKind discriminates the five forms of ValueExpr.
type ValueKind int

const (
	ValueName ValueKind = iota
	ValueLiteral
	ValueCall
	ValueBuiltin
	ValueFunction
)

// ValueExpr is anything that can be evaluated to leave a result value on the
// Machine stack: a name lookup, a literal, a call, a bare built-in
// reference, or a function literal. Calls to println, print and exit leave
// none.
type ValueExpr struct {
	Kind ValueKind

	Name    *Name
	Literal *Literal
	Call    *FnCall
	Builtin Builtin
	Fn      *FunctionLit
}

func (v *ValueExpr) String() string {
	switch v.Kind {
	case ValueName:
		return v.Name.String()
	case ValueLiteral:
		return v.Literal.String()
	case ValueCall:
		return v.Call.String()
	case ValueBuiltin:
		return v.Builtin.String()
	case ValueFunction:
		return v.Fn.String()
	default:
		return "<unknown value>"
	}
}

// FnCall is a call expression: a callee value applied to zero or more
// argument values. Args may be empty only when written with explicit
// parentheses (parser invariant).
type FnCall struct {
	Callee *ValueExpr
	Args   []*ValueExpr
}

func (c *FnCall) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Callee, strings.Join(parts, ", "))
}

// FunctionLit is the body of an anonymous or named function: a parameter
// list and a Suite to run.
type FunctionLit struct {
	Params []string
	Body   *Suite
}

func (f *FunctionLit) String() string {
	return fmt.Sprintf("fn(%s) %s", strings.Join(f.Params, ", "), f.Body)
}

// FunctionDef names a FunctionLit via a (possibly dotted/indexed) Name,
// equivalent to Assignment(Name, Function(f)).
type FunctionDef struct {
	Name *Name
	Fn   *FunctionLit
}

// ExprKind discriminates the five forms of Expr.
type ExprKind int

const (
	ExprAssignment ExprKind = iota
	ExprWhile
	ExprIf
	ExprFuncDef
	ExprValue
)

// Expr is one top-level-or-suite statement.
type Expr struct {
	Kind ExprKind

	// Assignment
	AssignTo    *Name
	AssignValue *ValueExpr

	// While / If share Cond; If additionally has Else.
	Cond *ValueExpr
	Then *Suite
	Else *Suite

	// FuncDef
	FuncDef *FunctionDef

	// Value
	Value *ValueExpr
}

func (e *Expr) String() string {
	switch e.Kind {
	case ExprAssignment:
		return fmt.Sprintf("%s = %s", e.AssignTo, e.AssignValue)
	case ExprWhile:
		return fmt.Sprintf("while %s %s", e.Cond, e.Then)
	case ExprIf:
		if e.Else != nil && len(e.Else.Exprs) > 0 {
			return fmt.Sprintf("if %s %s else %s", e.Cond, e.Then, e.Else)
		}
		return fmt.Sprintf("if %s %s", e.Cond, e.Then)
	case ExprFuncDef:
		return fmt.Sprintf("fn %s(%s) %s", e.FuncDef.Name, strings.Join(e.FuncDef.Fn.Params, ", "), e.FuncDef.Fn.Body)
	case ExprValue:
		return e.Value.String()
	default:
		return "<unknown expr>"
	}
}

// Suite is an ordered sequence of expressions delimited by "{" ... "}" (or,
// at the top level, the whole program).
type Suite struct {
	Exprs []*Expr
}

func (s *Suite) String() string {
	parts := make([]string, len(s.Exprs))
	for i, e := range s.Exprs {
		parts[i] = e.String()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}
