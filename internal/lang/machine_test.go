package lang

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noopBuiltins discards every built-in verb dispatch, for tests that only
// exercise the primitive-function/register/stack machinery.
type noopBuiltins struct{}

func (noopBuiltins) Dispatch(m *Machine, b Builtin, argc int) {
	for i := 0; i < argc; i++ {
		m.Pop()
	}
	m.Push(Value{})
}

func run(t *testing.T, m *Machine, src string) {
	t.Helper()
	suite, err := Parse(src)
	require.NoError(t, err)
	Run(m, suite)
}

func Test_Machine_arithmeticAndAssignment(t *testing.T) {
	m := NewMachine(noopBuiltins{})
	run(t, m, `x = add(1, 2); y = mult(x, 3)`)
	assert.Equal(t, NewNumber(3), m.Load("x"))
	assert.Equal(t, NewNumber(9), m.Load("y"))
}

func Test_Machine_whileLoop(t *testing.T) {
	m := NewMachine(noopBuiltins{})
	run(t, m, `i = 0; sum = 0; while lt(i, 5) { sum = add(sum, i); i = add(i, 1) }`)
	assert.Equal(t, NewNumber(10), m.Load("sum"))
	assert.Equal(t, NewNumber(5), m.Load("i"))
}

func Test_Machine_ifElse(t *testing.T) {
	m := NewMachine(noopBuiltins{})
	run(t, m, `x = 10; if gt(x, 5) { label = "big" } else { label = "small" }`)
	assert.Equal(t, NewString("big"), m.Load("label"))
}

func Test_Machine_userDefinedFunctionCallOrder(t *testing.T) {
	m := NewMachine(noopBuiltins{})
	run(t, m, `fn sub2(a, b) { sub(a, b) }; r = sub2(10, 3)`)
	assert.Equal(t, NewNumber(7), m.Load("r"))
}

func Test_Machine_nestedCallsComposeLeftToRight(t *testing.T) {
	m := NewMachine(noopBuiltins{})
	run(t, m, `r = add(sub(10, 4), mult(2, 3))`)
	assert.Equal(t, NewNumber(12), m.Load("r"))
}

func Test_Machine_anonymousFunctionAndClosureOverSharedRegisters(t *testing.T) {
	m := NewMachine(noopBuiltins{})
	run(t, m, `counter = 0; inc = fn() { counter = add(counter, 1) }; inc(); inc(); inc()`)
	assert.Equal(t, NewNumber(3), m.Load("counter"))
}

func Test_Machine_dottedFunctionDefAndCall(t *testing.T) {
	m := NewMachine(noopBuiltins{})
	// the dotted head must already hold a Tree: only indexing, not a bare
	// register name, autovivifies.
	run(t, m, `ops = dict(); fn ops.double(x) { mult(x, 2) }; r = ops.double(21)`)
	assert.Equal(t, NewNumber(42), m.Load("r"))
}

func Test_Machine_treeDottedAssignmentAndAliasing(t *testing.T) {
	m := NewMachine(noopBuiltins{})
	run(t, m, `a = dict(); a.name = "alice"; b = a; b.name = "bob"`)
	assert.Equal(t, "bob", m.Load("a").Tree().Get("name").Val.Str())
}

func Test_Machine_listIndexedAssignment(t *testing.T) {
	m := NewMachine(noopBuiltins{})
	run(t, m, `lst = list(3); lst[0] = "a"; lst[1] = "b"; lst[2] = "c"`)
	l := m.Load("lst").List()
	require.Equal(t, 3, l.Len())
	assert.Equal(t, "a", l.At(0).Val.Str())
	assert.Equal(t, "c", l.At(2).Val.Str())
}

func Test_Machine_autovivificationOnNestedTreeAccess(t *testing.T) {
	m := NewMachine(noopBuiltins{})
	run(t, m, `root = dict(); root.child.value = 5`)
	child := m.Load("root").Tree().Get("child").Val
	require.True(t, child.IsTree())
	assert.Equal(t, NewNumber(5), child.Tree().Get("value").Val)
}

func Test_Machine_unboundNameLoadsAbsentZero(t *testing.T) {
	m := NewMachine(noopBuiltins{})
	run(t, m, `x = neverset`)
	assert.Equal(t, NewNumber(0), m.Load("x"))
}

func Test_Machine_stackDrainsLastPushedFirst(t *testing.T) {
	m := NewMachine(noopBuiltins{})
	run(t, m, `1; 2; 3`)
	assert.Equal(t, []string{"3", "2", "1"}, m.DrainForDisplay())
}

func Test_Machine_printlnLeavesNoStackResidue(t *testing.T) {
	var out strings.Builder
	SetOutputHook(func(s string) { out.WriteString(s) })
	defer SetOutputHook(func(s string) {})

	m := NewMachine(noopBuiltins{})
	run(t, m, `println("hi")`)
	assert.Equal(t, "hi\n", out.String())
	assert.Empty(t, m.DrainForDisplay())
}

func Test_Machine_printLeavesNoStackResidue(t *testing.T) {
	var out strings.Builder
	SetOutputHook(func(s string) { out.WriteString(s) })
	defer SetOutputHook(func(s string) {})

	m := NewMachine(noopBuiltins{})
	run(t, m, `print("hi"); print("there")`)
	assert.Equal(t, "hithere", out.String())
	assert.Empty(t, m.DrainForDisplay())
}
