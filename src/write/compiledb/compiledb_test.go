package compiledb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebuild/bg/src/core"
)

func TestGenerateProducesOneEntryPerCompiledSource(t *testing.T) {
	graph := core.NewGraph()
	build := &core.BuildSettings{SourceRoot: t.TempDir(), BuildDir: core.SourceDir("//out/Debug/")}
	toolchainLabel := core.NewLabel(core.SourceDir("//build/toolchain/"), "main")
	settings := &core.Settings{Build: build, ToolchainLabel: toolchainLabel, DefaultToolchain: toolchainLabel}

	tc := &core.Toolchain{
		Label: toolchainLabel,
		Tools: map[string]*core.Tool{
			"cxx": {Name: "cxx", Command: "g++ $defines $includes -c $in -o $out"},
		},
	}
	require.Nil(t, graph.Declare(tc))

	target := core.NewTarget(core.NewLabel(core.SourceDir("//src/lib/"), "lib").WithToolchain(core.SourceDir("//build/toolchain/"), "main"), settings, core.TypeStaticLibrary)
	target.Sources = []core.SourceFile{"//src/lib/a.cc", "//src/lib/b.h"}
	target.ConfigValues.Defines = []string{"FOO"}
	target.ConfigValues.IncludeDirs = []core.SourceDir{"//src/lib/"}
	target.Toolchain = tc
	require.Nil(t, graph.Declare(target))

	entries := Generate(graph, build)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "//src/lib/a.cc", e.File)
	assert.Contains(t, e.Command, "-DFOO")
	assert.Contains(t, e.Command, "-I//src/lib/")
	assert.Contains(t, e.Command, "-c //src/lib/a.cc -o "+e.Output)
	assert.NotContains(t, e.Output, "b.h")
}

func TestGenerateIsSortedForDeterminism(t *testing.T) {
	graph := core.NewGraph()
	build := &core.BuildSettings{SourceRoot: t.TempDir(), BuildDir: core.SourceDir("//out/Debug/")}
	toolchainLabel := core.NewLabel(core.SourceDir("//build/toolchain/"), "main")
	settings := &core.Settings{Build: build, ToolchainLabel: toolchainLabel, DefaultToolchain: toolchainLabel}
	tc := &core.Toolchain{Label: toolchainLabel, Tools: map[string]*core.Tool{"cxx": {Command: "g++ -c $in -o $out"}}}
	require.Nil(t, graph.Declare(tc))

	zt := core.NewTarget(core.NewLabel(core.SourceDir("//z/"), "z").WithToolchain(core.SourceDir("//build/toolchain/"), "main"), settings, core.TypeStaticLibrary)
	zt.Sources = []core.SourceFile{"//z/z.cc"}
	zt.Toolchain = tc
	require.Nil(t, graph.Declare(zt))

	at := core.NewTarget(core.NewLabel(core.SourceDir("//a/"), "a").WithToolchain(core.SourceDir("//build/toolchain/"), "main"), settings, core.TypeStaticLibrary)
	at.Sources = []core.SourceFile{"//a/a.cc"}
	at.Toolchain = tc
	require.Nil(t, graph.Declare(at))

	entries := Generate(graph, build)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Output < entries[1].Output)
}
