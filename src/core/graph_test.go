package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGraphDeclareAndLookup(t *testing.T) {
	g := NewGraph()
	target := NewTarget(mustLabel(t, "//pkg:foo"), nil, TypeExecutable)
	assert.Nil(t, g.Declare(target))

	got := g.Target(target.Label)
	assert.Same(t, target, got)

	_, ok := g.Item(mustLabel(t, "//pkg:bar"))
	assert.False(t, ok)
}

func TestGraphDeclareTwiceErrors(t *testing.T) {
	g := NewGraph()
	target := NewTarget(mustLabel(t, "//pkg:foo"), nil, TypeExecutable)
	assert.Nil(t, g.Declare(target))
	err := g.Declare(NewTarget(mustLabel(t, "//pkg:foo"), nil, TypeExecutable))
	assert.NotNil(t, err)
}

func TestGraphReverseDependencies(t *testing.T) {
	g := NewGraph()
	g.AddDependency(mustLabel(t, "//pkg:a"), mustLabel(t, "//pkg:b"))
	g.AddDependency(mustLabel(t, "//pkg:c"), mustLabel(t, "//pkg:b"))

	revs := g.ReverseDependencies(mustLabel(t, "//pkg:b"))
	assert.Len(t, revs, 2)
}

func TestGraphAllTargetsSorted(t *testing.T) {
	g := NewGraph()
	g.Declare(NewTarget(mustLabel(t, "//pkg:z"), nil, TypeExecutable))
	g.Declare(NewTarget(mustLabel(t, "//pkg:a"), nil, TypeExecutable))

	all := g.AllTargets()
	assert.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Label.Name.String())
	assert.Equal(t, "z", all[1].Label.Name.String())
}
