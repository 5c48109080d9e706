package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolverLinksDeclarationOrder(t *testing.T) {
	graph := NewGraph()
	errs := NewErrorList()
	r := NewResolver(graph, errs)

	tc := &Toolchain{Label: mustLabel(t, "//toolchain:default")}
	r.DeclareToolchain(tc)

	liba := NewTarget(mustLabel(t, "//pkg:liba"), nil, TypeStaticLibrary)
	liba.Label.Toolchain = ToolchainKey{Dir: tc.Label.Dir, Name: tc.Label.Name, set: true}

	cfg := &Config{Label: mustLabel(t, "//pkg:cfg"), Defines: []string{"FOO=1"}}

	main := NewTarget(mustLabel(t, "//pkg:main"), nil, TypeExecutable)
	main.Label.Toolchain = ToolchainKey{Dir: tc.Label.Dir, Name: tc.Label.Name, set: true}
	main.PrivateDeps.Add(liba.Label)
	main.Configs.Add(cfg.Label)

	// Declare main before its dependency and config exist, to exercise the
	// waiter path, then satisfy them.
	r.DeclareTarget(main)
	assert.Equal(t, PendingDeps, main.State())

	r.DeclareTarget(liba)
	r.DeclareConfig(cfg)

	assert.Equal(t, Resolved, main.State())
	assert.Equal(t, liba, main.PrivateDeps.Refs()[0].Target)
	assert.Equal(t, []string{"FOO=1"}, main.ConfigValues.Defines)
	assert.True(t, errs.Empty())
}

func TestResolverReportsMissingLabelAtIdle(t *testing.T) {
	graph := NewGraph()
	errs := NewErrorList()
	r := NewResolver(graph, errs)

	main := NewTarget(mustLabel(t, "//pkg:main"), nil, TypeExecutable)
	main.PrivateDeps.Add(mustLabel(t, "//pkg:missing"))
	r.DeclareTarget(main)

	assert.Equal(t, PendingDeps, main.State())
	missing := MissingLabels(graph)
	assert.Len(t, missing, 1)
}

func mustLabel(t *testing.T, raw string) Label {
	t.Helper()
	l, err := ParseLabel(raw, "//", Label{})
	assert.NoError(t, err)
	return l
}
