package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgebuild/bg/src/core"
)

func newTestEvaluator(t *testing.T, dir core.SourceDir) (*Evaluator, *core.ErrorList) {
	t.Helper()
	graph := core.NewGraph()
	errs := core.NewErrorList()
	resolver := core.NewResolver(graph, errs)
	settings := &core.Settings{
		Build: &core.BuildSettings{BuildDir: core.SourceDir("//out/Debug/"), SourceRoot: t.TempDir()},
	}
	return &Evaluator{
		Graph:      graph,
		Resolver:   resolver,
		Settings:   settings,
		Args:       map[string]Value{},
		CurrentDir: dir,
	}, errs
}

func evalSrc(t *testing.T, e *Evaluator, scope *Scope, src string) {
	t.Helper()
	blk, err := Parse("test.gn", []byte(src))
	require.NoError(t, err)
	if gerr := e.EvalFile(blk, scope); gerr != nil {
		t.Fatalf("eval error: %s", gerr.Error())
	}
}

func TestEvalDeclaresExecutableWithDeps(t *testing.T) {
	e, errs := newTestEvaluator(t, core.SourceDir("//src/foo/"))
	scope := NewScope(nil)
	evalSrc(t, e, scope, `
static_library("bar") {
  sources = ["bar.cc"]
}
executable("foo") {
  sources = ["main.cc"]
  deps = [":bar"]
}
`)
	assert.True(t, errs.Empty())
	foo := e.Graph.Target(core.NewLabel(core.SourceDir("//src/foo/"), "foo"))
	require.NotNil(t, foo)
	assert.Equal(t, core.Resolved, foo.State())
	require.Len(t, foo.Sources, 1)
	assert.Equal(t, core.SourceFile("//src/foo/main.cc"), foo.Sources[0])
	require.Len(t, foo.PrivateDeps.Refs(), 1)
	assert.Equal(t, "bar", foo.PrivateDeps.Refs()[0].Target.Label.Name.String())
}

func TestEvalConditionAndAssignment(t *testing.T) {
	e, errs := newTestEvaluator(t, core.SourceDir("//src/foo/"))
	scope := NewScope(nil)
	evalSrc(t, e, scope, `
is_debug = true
cflags = []
if (is_debug) {
  cflags += ["-g"]
} else {
  cflags += ["-O2"]
}
`)
	assert.True(t, errs.Empty())
	v, ok := scope.GetValue("cflags")
	require.True(t, ok)
	ss, err := v.Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"-g"}, ss)
}

func TestEvalTemplateInvocationBindsInvoker(t *testing.T) {
	e, errs := newTestEvaluator(t, core.SourceDir("//src/foo/"))
	scope := NewScope(nil)
	evalSrc(t, e, scope, `
template("my_binary") {
  executable(target_name) {
    sources = invoker.sources
  }
}
my_binary("thing") {
  sources = ["thing.cc"]
}
`)
	assert.True(t, errs.Empty())
	target := e.Graph.Target(core.NewLabel(core.SourceDir("//src/foo/"), "thing"))
	require.NotNil(t, target)
	require.Len(t, target.Sources, 1)
	assert.Equal(t, core.SourceFile("//src/foo/thing.cc"), target.Sources[0])
}

func TestEvalGetLabelInfoTargetGenDir(t *testing.T) {
	e, errs := newTestEvaluator(t, core.SourceDir("//src/foo/"))
	scope := NewScope(nil)
	evalSrc(t, e, scope, `
x = get_label_info(":foo", "target_gen_dir")
`)
	assert.True(t, errs.Empty())
	v, ok := scope.GetValue("x")
	require.True(t, ok)
	assert.Equal(t, "//out/Debug/gen/src/foo", v.Str)
}

func TestEvalDeclareArgsOverride(t *testing.T) {
	e, errs := newTestEvaluator(t, core.SourceDir("//"))
	e.Args["enable_foo"] = NewBool(false)
	scope := NewScope(nil)
	evalSrc(t, e, scope, `
declare_args() {
  enable_foo = true
  other = "default"
}
`)
	assert.True(t, errs.Empty())
	v, _ := scope.GetValue("enable_foo")
	assert.False(t, v.IsTruthy())
	v2, _ := scope.GetValue("other")
	assert.Equal(t, "default", v2.Str)
}

func TestEvalUndefinedVariableIsFatalForFile(t *testing.T) {
	e, errs := newTestEvaluator(t, core.SourceDir("//"))
	scope := NewScope(nil)
	blk, err := Parse("test.gn", []byte("x = undefined_var\n"))
	require.NoError(t, err)
	gerr := e.EvalFile(blk, scope)
	require.NotNil(t, gerr)
	assert.True(t, errs.Empty()) // EvalFile returns the error; it's up to the loader to add it
}

func TestEvalVisibilityViolationIsResolutionError(t *testing.T) {
	e, errs := newTestEvaluator(t, core.SourceDir("//src/foo/"))
	scope := NewScope(nil)
	evalSrc(t, e, scope, `
source_set("hidden") {
  sources = ["h.cc"]
  visibility = [":only_me"]
}
`)
	require.True(t, errs.Empty())

	// A target declared in a different directory depending on "hidden" is
	// not covered by the same-directory default visibility, nor by
	// hidden's own visibility list (which only admits ":only_me").
	e.CurrentDir = core.SourceDir("//src/other/")
	evalSrc(t, e, scope, `
executable("bar") {
  sources = ["bar.cc"]
  deps = ["//src/foo:hidden"]
}
`)
	assert.False(t, errs.Empty())
}
