package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCycleDetectorFindsDirectCycle(t *testing.T) {
	g := NewGraph()
	a := NewTarget(mustLabel(t, "//pkg:a"), nil, TypeStaticLibrary)
	b := NewTarget(mustLabel(t, "//pkg:b"), nil, TypeStaticLibrary)
	link(a, b)
	link(b, a)
	g.Declare(a)
	g.Declare(b)

	cyc := NewCycleDetector(g).FindCycle()
	assert.NotEmpty(t, cyc)
}

func TestCycleDetectorAcyclic(t *testing.T) {
	g := NewGraph()
	a := NewTarget(mustLabel(t, "//pkg:a"), nil, TypeStaticLibrary)
	b := NewTarget(mustLabel(t, "//pkg:b"), nil, TypeStaticLibrary)
	link(a, b)
	g.Declare(a)
	g.Declare(b)

	cyc := NewCycleDetector(g).FindCycle()
	assert.Nil(t, cyc)
}
