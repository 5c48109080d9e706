package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func patterns(t *testing.T, raws ...string) []LabelPattern {
	t.Helper()
	out := make([]LabelPattern, len(raws))
	for i, r := range raws {
		p, err := ParseLabelPattern(r, "//")
		assert.NoError(t, err)
		out[i] = p
	}
	return out
}

func TestLabelMatchesScenario(t *testing.T) {
	ps := patterns(t, "//foo/*", "//baz:*")

	baz, _ := ParseLabel("//baz:bar", "//", Label{})
	assert.True(t, LabelMatches(baz, ps))

	bazFoo, _ := ParseLabel("//baz/foo:bar", "//", Label{})
	assert.False(t, LabelMatches(bazFoo, ps))
}

func TestLabelMatchesExactAndSubpackage(t *testing.T) {
	exact := patterns(t, "//a/b:c")
	l, _ := ParseLabel("//a/b:c", "//", Label{})
	assert.True(t, LabelMatches(l, exact))
	other, _ := ParseLabel("//a/b:d", "//", Label{})
	assert.False(t, LabelMatches(other, exact))

	sub := patterns(t, "//a/*")
	nested, _ := ParseLabel("//a/b/c:d", "//", Label{})
	assert.True(t, LabelMatches(nested, sub))
	self, _ := ParseLabel("//a:d", "//", Label{})
	assert.True(t, LabelMatches(self, sub))
	outside, _ := ParseLabel("//ab:d", "//", Label{})
	assert.False(t, LabelMatches(outside, sub))
}

func TestFilterLabels(t *testing.T) {
	ps := patterns(t, "//baz:*")
	a, _ := ParseLabel("//baz:a", "//", Label{})
	b, _ := ParseLabel("//qux:b", "//", Label{})
	got := FilterLabels([]Label{a, b}, ps)
	assert.Equal(t, []Label{a}, got)
}
