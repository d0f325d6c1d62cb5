package lang

import (
	"testing"

	"github.com/dunelang/dune/internal/langerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Parse_literalsAndAssignment(t *testing.T) {
	suite, err := Parse(`x = 42; y = "hello"`)
	require.NoError(t, err)
	require.Len(t, suite.Exprs, 2)

	assert.Equal(t, ExprAssignment, suite.Exprs[0].Kind)
	assert.Equal(t, "x", suite.Exprs[0].AssignTo.Simple)
	assert.Equal(t, ValueLiteral, suite.Exprs[0].AssignValue.Kind)
	assert.Equal(t, 42.0, suite.Exprs[0].AssignValue.Literal.Num)

	assert.Equal(t, "y", suite.Exprs[1].AssignTo.Simple)
	assert.True(t, suite.Exprs[1].AssignValue.Literal.IsString)
	assert.Equal(t, "hello", suite.Exprs[1].AssignValue.Literal.Str)
}

func Test_Parse_commentsAreTransparent(t *testing.T) {
	suite, err := Parse("# leading comment\nx = 1 # trailing comment\n# another\n")
	require.NoError(t, err)
	require.Len(t, suite.Exprs, 1)
}

func Test_Parse_whileAndIf(t *testing.T) {
	suite, err := Parse(`while lt(x, 10) { x = add(x, 1) }`)
	require.NoError(t, err)
	require.Len(t, suite.Exprs, 1)
	assert.Equal(t, ExprWhile, suite.Exprs[0].Kind)

	suite, err = Parse(`if eq(x, 1) { y = 1 } else { y = 2 }`)
	require.NoError(t, err)
	require.Len(t, suite.Exprs, 1)
	assert.Equal(t, ExprIf, suite.Exprs[0].Kind)
	assert.NotEmpty(t, suite.Exprs[0].Else.Exprs)
}

func Test_Parse_functionDefAndAnonymousFunction(t *testing.T) {
	suite, err := Parse(`fn greet(name) { println(name) }`)
	require.NoError(t, err)
	require.Len(t, suite.Exprs, 1)
	assert.Equal(t, ExprFuncDef, suite.Exprs[0].Kind)
	assert.Equal(t, []string{"name"}, suite.Exprs[0].FuncDef.Fn.Params)

	suite, err = Parse(`f = fn(a, b) { add(a, b) }`)
	require.NoError(t, err)
	require.Equal(t, ValueFunction, suite.Exprs[0].AssignValue.Kind)
}

func Test_Parse_dottedFunctionDefName(t *testing.T) {
	suite, err := Parse(`fn obj.method() { pwd }`)
	require.NoError(t, err)
	assert.Equal(t, NameDot, suite.Exprs[0].FuncDef.Name.Kind)
}

func Test_Parse_builtinJuxtaAndParenCalls(t *testing.T) {
	suite, err := Parse(`ls "somedir"`)
	require.NoError(t, err)
	require.Len(t, suite.Exprs, 1)
	require.Equal(t, ValueCall, suite.Exprs[0].Value.Kind)
	assert.Equal(t, BuiltinList, suite.Exprs[0].Value.Call.Callee.Builtin)

	suite, err = Parse(`add(1, 2)`)
	require.NoError(t, err)
	require.Equal(t, ValueCall, suite.Exprs[0].Value.Kind)
	assert.Len(t, suite.Exprs[0].Value.Call.Args, 2)

	suite, err = Parse(`pwd`)
	require.NoError(t, err)
	assert.Equal(t, ValueBuiltin, suite.Exprs[0].Value.Kind)
}

func Test_Parse_dotAndIndexNames(t *testing.T) {
	suite, err := Parse(`x = d.a.b`)
	require.NoError(t, err)
	name := suite.Exprs[0].AssignValue.Name
	require.Equal(t, NameDot, name.Kind)
	assert.Equal(t, []string{"a", "b"}, name.DotPath)

	suite, err = Parse(`lst[0] = 1`)
	require.NoError(t, err)
	assert.Equal(t, NameIndex, suite.Exprs[0].AssignTo.Kind)
}

func Test_Parse_incompleteInputNeedsMore(t *testing.T) {
	_, err := Parse(`while lt(x, 10) {`)
	require.Error(t, err)
	serr, ok := err.(langerr.SyntaxError)
	require.True(t, ok)
	assert.True(t, serr.NeedsMore)
}

func Test_Parse_hardSyntaxError(t *testing.T) {
	_, err := Parse(`x = = 1`)
	require.Error(t, err)
	serr, ok := err.(langerr.SyntaxError)
	require.True(t, ok)
	assert.False(t, serr.NeedsMore)
}
