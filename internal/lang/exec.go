package lang

// file exec.go lowers the AST to Machine operations, exactly per the
// table of spec.md §4.3. Every ValueExpr evaluation leaves exactly one
// result value on the Machine's stack, except a call to println or print
// (which push nothing) or to the exit built-in; every Expr execution leaves the
// stack exactly as described for its kind (Value leaves one extra value
// for the REPL/caller to see, the rest are pure side effect).

// Run executes suite as a complete top-level program against m, leaving
// whatever values its bare value-statements produced on the stack for the
// REPL to drain and print.
func Run(m *Machine, suite *Suite) {
	ExecSuite(m, suite)
}

// ExecSuite runs every Expr in suite in order.
func ExecSuite(m *Machine, suite *Suite) {
	for _, e := range suite.Exprs {
		ExecExpr(m, e)
	}
}

// ExecExpr executes one statement.
func ExecExpr(m *Machine, e *Expr) {
	switch e.Kind {
	case ExprAssignment:
		EvalValue(m, e.AssignValue)
		assignName(m, e.AssignTo, m.Pop())

	case ExprWhile:
		for {
			EvalValue(m, e.Cond)
			if !m.Pop().Bool() {
				break
			}
			ExecSuite(m, e.Then)
		}

	case ExprIf:
		EvalValue(m, e.Cond)
		if m.Pop().Bool() {
			ExecSuite(m, e.Then)
		} else if e.Else != nil {
			ExecSuite(m, e.Else)
		}

	case ExprFuncDef:
		// lowered as Assignment(Name, Function(f)), per the Open Question
		// resolution: dotted/indexed function-def names are honoured rather
		// than rejected.
		fn := &Function{
			Params: e.FuncDef.Fn.Params,
			Body:   e.FuncDef.Fn.Body,
			Env:    m.registers,
			Name:   e.FuncDef.Name.String(),
		}
		assignName(m, e.FuncDef.Name, NewFunction(fn))

	case ExprValue:
		EvalValue(m, e.Value)
	}
}

// EvalValue evaluates v, leaving exactly one result value on top of the
// stack (none for a println/print or exit call).
func EvalValue(m *Machine, v *ValueExpr) {
	switch v.Kind {
	case ValueLiteral:
		if v.Literal.IsString {
			m.Push(NewString(v.Literal.Str))
		} else {
			m.Push(NewNumber(v.Literal.Num))
		}

	case ValueName:
		m.Push(loadName(m, v.Name))

	case ValueBuiltin:
		// a bare built-in reference (no juxtaposed or parenthesised
		// arguments) dispatches immediately with zero arguments.
		m.Dispatch(v.Builtin, 0)

	case ValueFunction:
		m.Push(NewFunction(&Function{
			Params: v.Fn.Params,
			Body:   v.Fn.Body,
			Env:    m.registers,
		}))

	case ValueCall:
		evalCall(m, v.Call)
	}
}

// evalCall implements P4: arguments are pushed in reverse of source order
// so that, whether the callee is native or user-defined, popping them back
// off yields natural left-to-right binding.
func evalCall(m *Machine, call *FnCall) {
	for i := len(call.Args) - 1; i >= 0; i-- {
		EvalValue(m, call.Args[i])
	}

	if call.Callee.Kind == ValueBuiltin {
		m.Dispatch(call.Callee.Builtin, len(call.Args))
		return
	}

	EvalValue(m, call.Callee)
	calleeVal := m.Pop()
	fn := calleeVal.Function()
	if fn == nil {
		// calling a non-function value is a no-op that yields the absent
		// marker, consistent with spec.md §7's "no catastrophic errors".
		for range call.Args {
			m.Pop()
		}
		m.Push(Value{})
		return
	}
	m.Call(fn)
}

// loadName resolves a Name in read position to its current value.
func loadName(m *Machine, n *Name) Value {
	switch n.Kind {
	case NameSimple:
		return m.Load(n.Simple)

	case NameDot:
		cur := evalHead(m, n.Head)
		for _, field := range n.DotPath {
			cur = m.Index(cur, NewString(field)).Val
		}
		return cur

	case NameIndex:
		cur := evalHead(m, n.Head)
		for _, idxExpr := range n.IndexPath {
			EvalValue(m, idxExpr)
			idx := m.Pop()
			cur = m.Index(cur, idx).Val
		}
		return cur

	default:
		return Value{}
	}
}

// assignName resolves n in write position and stores val there: a direct
// register rebind for a simple name, or a mutation of the terminal cell of
// a dotted/indexed access path (the operation that makes aliasing visible).
func assignName(m *Machine, n *Name, val Value) {
	switch n.Kind {
	case NameSimple:
		m.Store(n.Simple, val)

	case NameDot:
		cur := evalHead(m, n.Head)
		for i, field := range n.DotPath {
			ref := m.Index(cur, NewString(field))
			if i == len(n.DotPath)-1 {
				m.Assign(ref, val)
				return
			}
			cur = ref.Val
		}

	case NameIndex:
		cur := evalHead(m, n.Head)
		for i, idxExpr := range n.IndexPath {
			EvalValue(m, idxExpr)
			idx := m.Pop()
			ref := m.Index(cur, idx)
			if i == len(n.IndexPath)-1 {
				m.Assign(ref, val)
				return
			}
			cur = ref.Val
		}
	}
}

func evalHead(m *Machine, head *ValueExpr) Value {
	EvalValue(m, head)
	return m.Pop()
}
