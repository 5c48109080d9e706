package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Block {
	t.Helper()
	blk, err := Parse("test.gn", []byte(src))
	require.NoError(t, err)
	return blk
}

func TestParseAssignmentAndList(t *testing.T) {
	blk := mustParse(t, `sources = ["a.cc", "b.cc"]
`)
	require.Len(t, blk.Statements, 1)
	assign, ok := blk.Statements[0].(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "=", assign.Op)
	lst, ok := assign.RHS.(*List)
	require.True(t, ok)
	assert.Len(t, lst.Items, 2)
}

func TestParseFunctionCallWithBlock(t *testing.T) {
	blk := mustParse(t, `executable("foo") {
  sources = ["main.cc"]
  deps = [":bar"]
}
`)
	require.Len(t, blk.Statements, 1)
	call, ok := blk.Statements[0].(*FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "executable", call.Name)
	require.Len(t, call.Args, 1)
	require.NotNil(t, call.Block)
	assert.Len(t, call.Block.Statements, 2)
}

func TestParseConditionWithElseIf(t *testing.T) {
	blk := mustParse(t, `if (a == 1) {
  x = 1
} else if (a == 2) {
  x = 2
} else {
  x = 3
}
`)
	require.Len(t, blk.Statements, 1)
	cond, ok := blk.Statements[0].(*ConditionNode)
	require.True(t, ok)
	elseCond, ok := cond.Else.(*ConditionNode)
	require.True(t, ok)
	_, ok = elseCond.Else.(*Block)
	require.True(t, ok)
}

func TestParseForeach(t *testing.T) {
	blk := mustParse(t, `foreach(f, files) {
  sources += [f]
}
`)
	require.Len(t, blk.Statements, 1)
	fe, ok := blk.Statements[0].(*ForeachNode)
	require.True(t, ok)
	assert.Equal(t, "f", fe.Var)
}

func TestParseAccessorAndIndex(t *testing.T) {
	blk := mustParse(t, `x = invoker.sources[0]
`)
	assign := blk.Statements[0].(*BinaryOp)
	outer, ok := assign.RHS.(*Accessor)
	require.True(t, ok)
	assert.NotNil(t, outer.Index)
	inner, ok := outer.Base.(*Accessor)
	require.True(t, ok)
	assert.Equal(t, "sources", inner.Name)
}

func TestParseBinaryPrecedence(t *testing.T) {
	// && binds looser than ==, so this should parse as (a == 1) && (b == 2).
	blk := mustParse(t, `x = a == 1 && b == 2
`)
	assign := blk.Statements[0].(*BinaryOp)
	top, ok := assign.RHS.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "&&", top.Op)
	lhs, ok := top.LHS.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "==", lhs.Op)
}

func TestParseUnterminatedStringFails(t *testing.T) {
	_, err := Parse("bad.gn", []byte(`x = "unterminated
`))
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestParseUnexpectedEOFInBlock(t *testing.T) {
	_, err := Parse("bad.gn", []byte(`executable("foo") {
  sources = ["a.cc"]
`))
	require.Error(t, err)
}
