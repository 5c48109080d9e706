package strictdeps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebuild/bg/src/core"
)

func TestGenerateListsDirectDepsAndOutputs(t *testing.T) {
	graph := core.NewGraph()
	build := &core.BuildSettings{SourceRoot: t.TempDir(), BuildDir: core.SourceDir("//out/Debug/")}
	toolchainLabel := core.NewLabel(core.SourceDir("//build/toolchain/"), "main")
	settings := &core.Settings{Build: build, ToolchainLabel: toolchainLabel, DefaultToolchain: toolchainLabel}

	tc := &core.Toolchain{Label: toolchainLabel, Tools: map[string]*core.Tool{"cxx": {Command: "c++ -c $in -o $out"}}}
	require.Nil(t, graph.Declare(tc))

	lib := core.NewTarget(core.NewLabel(core.SourceDir("//src/lib/"), "lib").WithToolchain(core.SourceDir("//build/toolchain/"), "main"), settings, core.TypeStaticLibrary)
	lib.Sources = []core.SourceFile{"//src/lib/lib.cc"}
	lib.Toolchain = tc
	require.Nil(t, graph.Declare(lib))

	app := core.NewTarget(core.NewLabel(core.SourceDir("//"), "app").WithToolchain(core.SourceDir("//build/toolchain/"), "main"), settings, core.TypeExecutable)
	app.Sources = []core.SourceFile{"//main.cc"}
	app.Toolchain = tc
	app.PrivateDeps.Add(lib.Label)
	app.PrivateDeps.Resolve(lib.Label, lib)
	require.Nil(t, graph.Declare(app))

	doc := Generate(graph)
	require.Equal(t, SchemaVersion, doc.Version)
	require.Len(t, doc.Targets, 2)

	byLabel := map[string]Target{}
	for _, tgt := range doc.Targets {
		byLabel[tgt.Label] = tgt
	}

	appEntry, ok := byLabel[app.Label.String()]
	require.True(t, ok)
	assert.Equal(t, []string{lib.Label.String()}, appEntry.Deps)
	require.Len(t, appEntry.Outputs, 2) // main.o plus app's own executable output
	assert.Contains(t, appEntry.Outputs[0], "main.o")

	libEntry, ok := byLabel[lib.Label.String()]
	require.True(t, ok)
	assert.Empty(t, libEntry.Deps)
	require.Len(t, libEntry.Outputs, 2) // lib.o plus the static library file itself
	assert.Contains(t, libEntry.Outputs[1], "liblib.a")
}

func TestGenerateIsStableAcrossRuns(t *testing.T) {
	graph := core.NewGraph()
	build := &core.BuildSettings{SourceRoot: t.TempDir(), BuildDir: core.SourceDir("//out/Debug/")}
	toolchainLabel := core.NewLabel(core.SourceDir("//build/toolchain/"), "main")
	settings := &core.Settings{Build: build, ToolchainLabel: toolchainLabel, DefaultToolchain: toolchainLabel}
	tc := &core.Toolchain{Label: toolchainLabel, Tools: map[string]*core.Tool{"cxx": {Command: "c++ -c $in -o $out"}}}
	require.Nil(t, graph.Declare(tc))

	group := core.NewTarget(core.NewLabel(core.SourceDir("//pkg/"), "all").WithToolchain(core.SourceDir("//build/toolchain/"), "main"), settings, core.TypeGroup)
	group.Toolchain = tc
	require.Nil(t, graph.Declare(group))

	first := Generate(graph)
	second := Generate(graph)
	assert.Equal(t, first, second)
}
