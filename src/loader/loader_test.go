package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebuild/bg/src/core"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestRunLoadsAcrossDirectoriesAndResolvesDeps(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gn", `
default_toolchain = "//build/toolchain:main"
`)
	writeFile(t, root, "build/toolchain/BUILD.gn", `
toolchain("main") {
}
`)
	writeFile(t, root, "BUILD.gn", `
executable("app") {
  sources = ["main.cc"]
  deps = ["//src/lib:lib"]
}
`)
	writeFile(t, root, "src/lib/BUILD.gn", `
static_library("lib") {
  sources = ["lib.cc"]
}
`)

	graph, errs, err := Run(root, "//out/Debug/", nil, 4)
	require.NoError(t, err)
	require.True(t, errs.Empty(), errs.Error())

	toolchain := core.NewLabel(core.SourceDir("//build/toolchain/"), "main")
	app := graph.Target(core.NewLabel(core.SourceDir("//"), "app").WithToolchain(toolchain.DirPath(), "main"))
	require.NotNil(t, app)
	assert.Equal(t, core.Resolved, app.State())
	require.Len(t, app.PrivateDeps.Refs(), 1)
	assert.Equal(t, "lib", app.PrivateDeps.Refs()[0].Target.Label.Name.String())
}

func TestRunReportsMissingLabel(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gn", `
default_toolchain = "//build/toolchain:main"
`)
	writeFile(t, root, "build/toolchain/BUILD.gn", `
toolchain("main") {
}
`)
	writeFile(t, root, "BUILD.gn", `
executable("app") {
  sources = ["main.cc"]
  deps = ["//src/nope:nope"]
}
`)

	_, errs, err := Run(root, "//out/Debug/", nil, 2)
	require.NoError(t, err)
	require.False(t, errs.Empty())
	assert.Contains(t, errs.Error(), "not declared anywhere")
}

func TestRunAppliesArgOverrides(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gn", `
default_toolchain = "//build/toolchain:main"
`)
	writeFile(t, root, "build/toolchain/BUILD.gn", `
toolchain("main") {
}
`)
	writeFile(t, root, "BUILD.gn", `
declare_args() {
  enable_foo = true
}
executable("app") {
  sources = ["main.cc"]
  if (enable_foo) {
    sources += ["foo.cc"]
  }
}
`)

	graph, errs, err := Run(root, "//out/Debug/", map[string]string{"enable_foo": "false"}, 2)
	require.NoError(t, err)
	require.True(t, errs.Empty(), errs.Error())

	toolchain := core.NewLabel(core.SourceDir("//build/toolchain/"), "main")
	app := graph.Target(core.NewLabel(core.SourceDir("//"), "app").WithToolchain(toolchain.DirPath(), "main"))
	require.NotNil(t, app)
	assert.Len(t, app.Sources, 1)
}

func TestRunFollowsImport(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gn", `
default_toolchain = "//build/toolchain:main"
`)
	writeFile(t, root, "build/toolchain/BUILD.gn", `
toolchain("main") {
}
`)
	writeFile(t, root, "common.gni", `
common_sources = ["shared.cc"]
`)
	writeFile(t, root, "BUILD.gn", `
import("//common.gni")
executable("app") {
  sources = common_sources + ["main.cc"]
}
`)

	graph, errs, err := Run(root, "//out/Debug/", nil, 2)
	require.NoError(t, err)
	require.True(t, errs.Empty(), errs.Error())

	toolchain := core.NewLabel(core.SourceDir("//build/toolchain/"), "main")
	app := graph.Target(core.NewLabel(core.SourceDir("//"), "app").WithToolchain(toolchain.DirPath(), "main"))
	require.NotNil(t, app)
	assert.Len(t, app.Sources, 2)
}

func TestStarlarkAlternateDeclaresTarget(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gn", `
default_toolchain = "//build/toolchain:main"
`)
	writeFile(t, root, "build/toolchain/BUILD.gn", `
toolchain("main") {
}
`)
	writeFile(t, root, "BUILD.gn", `
executable("app") {
  sources = ["main.cc"]
  deps = ["//src/gen:gen"]
}
`)
	writeFile(t, root, "src/gen/BUILD.star", `
static_library(name = "gen", sources = ["gen.cc"])
`)

	graph, errs, err := Run(root, "//out/Debug/", nil, 2)
	require.NoError(t, err)
	require.True(t, errs.Empty(), errs.Error())

	toolchain := core.NewLabel(core.SourceDir("//build/toolchain/"), "main")
	gen := graph.Target(core.NewLabel(core.SourceDir("//src/gen/"), "gen").WithToolchain(toolchain.DirPath(), "main"))
	require.NotNil(t, gen)
	assert.Equal(t, core.TypeStaticLibrary, gen.Type)
}

func TestEnqueueDedupesSameDirectoryAndToolchain(t *testing.T) {
	graph := core.NewGraph()
	errs := core.NewErrorList()
	resolver := core.NewResolver(graph, errs)
	build := &core.BuildSettings{SourceRoot: t.TempDir(), BuildDir: core.SourceDir("//out/Debug/"), Args: map[string]string{}}
	l := NewLoader(graph, resolver, errs, build, 1)

	tc := core.NewLabel(core.SourceDir("//build/toolchain/"), "main")
	l.Enqueue(core.SourceDir("//src/foo/"), tc)
	l.Enqueue(core.SourceDir("//src/foo/"), tc)

	assert.Equal(t, 1, l.pending)
}
