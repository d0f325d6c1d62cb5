package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dunelang/dune/internal/lang"
)

func Test_EncodedValue_roundTripsPrimitives(t *testing.T) {
	num := lang.NewNumber(3.5)
	assert.Equal(t, num, FromEncoded(ToEncoded(num)))

	str := lang.NewString("hello")
	assert.Equal(t, str, FromEncoded(ToEncoded(str)))
}

func Test_EncodedValue_roundTripsListAndTree(t *testing.T) {
	list := lang.NewList(lang.NewNumber(1), lang.NewString("two"), lang.NewNumber(3))
	restored := FromEncoded(ToEncoded(list))
	require.True(t, restored.IsList())
	assert.Equal(t, 3, restored.List().Len())
	assert.Equal(t, lang.NewString("two"), restored.List().At(1).Val)

	tree := lang.NewTreeValue()
	tree.Tree().Set("a", lang.NewNumber(1))
	tree.Tree().Set("b", lang.NewString("x"))
	restoredTree := FromEncoded(ToEncoded(tree))
	require.True(t, restoredTree.IsTree())
	assert.Equal(t, []string{"a", "b"}, restoredTree.Tree().Keys())
	assert.Equal(t, lang.NewNumber(1), restoredTree.Tree().Get("a").Val)
}

func Test_EncodedValue_functionsPersistAsAbsent(t *testing.T) {
	fn := lang.NewFunction(&lang.Function{Name: "f"})
	restored := FromEncoded(ToEncoded(fn))
	assert.Equal(t, lang.NewNumber(0), restored)
}

func Test_SnapshotMachine_roundTripsRegisters(t *testing.T) {
	m := lang.NewMachine(nil)
	m.Store("x", lang.NewNumber(42))
	m.Store("name", lang.NewString("dune"))

	snap := SnapshotMachine(m, "/home/u")
	assert.Equal(t, "/home/u", snap.Cwd)

	m2 := lang.NewMachine(nil)
	RestoreMachine(m2, snap)
	assert.Equal(t, lang.NewNumber(42), m2.Load("x"))
	assert.Equal(t, lang.NewString("dune"), m2.Load("name"))
}
