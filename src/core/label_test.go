package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLabelWithToolchain(t *testing.T) {
	l, err := ParseLabel("//chrome/renderer:renderer(//toolchain:x64)", "//", Label{})
	assert.NoError(t, err)
	assert.Equal(t, SourceDir("//chrome/renderer/"), l.DirPath())
	assert.Equal(t, "renderer", l.Name.String())
	assert.True(t, l.Toolchain.IsSet())
	assert.Equal(t, "//toolchain/", l.Toolchain.Dir.String())
	assert.Equal(t, "x64", l.Toolchain.Name.String())
	assert.Equal(t, "//chrome/renderer:renderer(//toolchain:x64)", l.String())
}

func TestParseLabelRelative(t *testing.T) {
	l, err := ParseLabel(":foo", "//src/", Label{})
	assert.NoError(t, err)
	assert.Equal(t, SourceDir("//src/"), l.DirPath())
	assert.Equal(t, "foo", l.Name.String())
}

func TestParseLabelImplicitName(t *testing.T) {
	l, err := ParseLabel("//foo/bar", "//", Label{})
	assert.NoError(t, err)
	assert.Equal(t, "bar", l.Name.String())
	assert.Equal(t, SourceDir("//foo/bar/"), l.DirPath())
}

func TestParseLabelAppliesDefaultToolchain(t *testing.T) {
	def, err := ParseLabel("//toolchain:default", "//", Label{})
	assert.NoError(t, err)
	l, err := ParseLabel("//foo:bar", "//", def)
	assert.NoError(t, err)
	assert.True(t, l.Toolchain.IsSet())
	assert.Equal(t, "default", l.Toolchain.Name.String())
}

func TestParseLabelErrors(t *testing.T) {
	_, err := ParseLabel("foo/bar", "//", Label{})
	assert.Error(t, err)
	_, err = ParseLabel("//foo:", "//", Label{})
	assert.Error(t, err)
}

func TestLabelShortString(t *testing.T) {
	ctx, _ := ParseLabel("//src/core:core", "//", Label{})
	same, _ := ParseLabel(":foo", "//src/core/", Label{})
	assert.Equal(t, ":foo", same.ShortString(ctx))

	other, _ := ParseLabel("//src/lang:lang", "//", Label{})
	assert.Equal(t, "//src/lang:lang", other.ShortString(ctx))
}

func TestLabelCompareIsTotalOrder(t *testing.T) {
	a, _ := ParseLabel("//a:a", "//", Label{})
	b, _ := ParseLabel("//b:b", "//", Label{})
	assert.True(t, Compare(a, b) < 0)
	assert.True(t, Compare(b, a) > 0)
	assert.Equal(t, 0, Compare(a, a))
}
